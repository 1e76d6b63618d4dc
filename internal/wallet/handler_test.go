package wallet_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/wallet_ledger/internal/ledger"
	"github.com/congo-pay/wallet_ledger/internal/logging"
	"github.com/congo-pay/wallet_ledger/internal/routes"
	"github.com/congo-pay/wallet_ledger/internal/server"
	"github.com/congo-pay/wallet_ledger/internal/wallet"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	l := ledger.New(ledger.NewInMemory(), logging.Discard())
	svc := wallet.NewService(l, nil, logging.Discard())
	app := server.NewApp("test", logging.Discard())
	routes.RegisterWalletRoutes(app, wallet.NewHandler(svc))
	return app
}

func do(t *testing.T, app *fiber.App, method, path string, body any) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func createWallet(t *testing.T, app *fiber.App, uid string) wallet.WalletResponse {
	t.Helper()
	status, raw := do(t, app, http.MethodPost, "/wallets", map[string]string{"uid": uid})
	require.Equal(t, http.StatusCreated, status, string(raw))
	return decode[wallet.WalletResponse](t, raw)
}

func TestCreateAndGetWallet(t *testing.T) {
	app := newTestApp(t)
	w := createWallet(t, app, "user-1")
	assert.Equal(t, "wallets/"+w.WalletID, w.Name)
	assert.Zero(t, w.Balance)

	status, raw := do(t, app, http.MethodGet, "/wallets/"+w.WalletID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, w.WalletID, decode[wallet.WalletResponse](t, raw).WalletID)

	status, raw = do(t, app, http.MethodGet, "/wallets/by-uid/user-1", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, w.WalletID, decode[wallet.WalletResponse](t, raw).WalletID)

	status, raw = do(t, app, http.MethodPost, "/wallets", map[string]string{"uid": "user-1"})
	require.Equal(t, http.StatusConflict, status)
	assert.Equal(t, errorBody{Code: "ALREADY_EXISTS", Message: "Wallet Already Exists"}, decode[errorBody](t, raw))
}

func TestCreateTransactionsEndpoint(t *testing.T) {
	app := newTestApp(t)
	a := createWallet(t, app, "user-a")

	status, raw := do(t, app, http.MethodPost, "/transactions", map[string]any{
		"transactions": []map[string]any{
			{"accountId": a.WalletID, "amount": 20, "type": "CREDIT"},
			{"accountId": a.WalletID, "amount": 10, "type": "DEBIT"},
		},
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	res := decode[struct {
		BatchID        string   `json:"batchId"`
		TransactionIDs []string `json:"transactionIds"`
	}](t, raw)
	require.Len(t, res.TransactionIDs, 1)

	status, raw = do(t, app, http.MethodGet, "/batches/"+res.BatchID+"/transactions", nil)
	require.Equal(t, http.StatusOK, status)
	list := decode[struct {
		Transactions []wallet.TransactionResponse `json:"transactions"`
	}](t, raw)
	require.Len(t, list.Transactions, 1)
	assert.Equal(t, int64(10), list.Transactions[0].Amount)
	assert.Equal(t, "CREDIT", list.Transactions[0].Type)

	status, raw = do(t, app, http.MethodGet, "/wallets/"+a.WalletID+"/transactions/"+res.TransactionIDs[0], nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, res.BatchID, decode[wallet.TransactionResponse](t, raw).BatchID)
}

func TestBatchEndpointMissingAccount(t *testing.T) {
	app := newTestApp(t)
	a := createWallet(t, app, "user-a")

	status, raw := do(t, app, http.MethodPost, "/transactions/batch", map[string]any{
		"requests": []map[string]any{
			{"parent": "wallets/" + a.WalletID, "transaction": map[string]any{"amount": 5, "type": "CREDIT"}},
			{"parent": "wallets/ghost", "transaction": map[string]any{"amount": 5, "type": "DEBIT"}},
		},
	})
	require.Equal(t, http.StatusPreconditionFailed, status)
	assert.Equal(t, errorBody{Code: "FAILED_PRECONDITION", Message: "Account Does Not Exist"}, decode[errorBody](t, raw))

	status, raw = do(t, app, http.MethodGet, "/wallets/"+a.WalletID+"/transactions", nil)
	require.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "No Transactions Found", decode[errorBody](t, raw).Message)
}

func TestTransactionEndpointValidation(t *testing.T) {
	app := newTestApp(t)
	a := createWallet(t, app, "user-a")

	cases := []struct {
		name string
		body any
		msg  string
	}{
		{"empty transaction", map[string]any{}, "transaction is empty"},
		{"missing type", map[string]any{"transaction": map[string]any{"amount": 5}}, "type is not specified for transaction 0"},
		{"negative amount", map[string]any{"transaction": map[string]any{"amount": -1, "type": "CREDIT"}}, "amount must be positive. got -1 for transaction 0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, raw := do(t, app, http.MethodPost, "/wallets/"+a.WalletID+"/transactions", tc.body)
			require.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, errorBody{Code: "INVALID_ARGUMENT", Message: tc.msg}, decode[errorBody](t, raw))
		})
	}
}

func TestGetMissingTransaction(t *testing.T) {
	app := newTestApp(t)

	status, raw := do(t, app, http.MethodGet, "/wallets/x/transactions/missing", nil)
	require.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, errorBody{Code: "NOT_FOUND", Message: "Transaction Not Found"}, decode[errorBody](t, raw))
}
