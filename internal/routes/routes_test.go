package routes_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/wallet_ledger/internal/auth"
	"github.com/congo-pay/wallet_ledger/internal/config"
	"github.com/congo-pay/wallet_ledger/internal/ledger"
	"github.com/congo-pay/wallet_ledger/internal/logging"
	"github.com/congo-pay/wallet_ledger/internal/routes"
	"github.com/congo-pay/wallet_ledger/internal/server"
)

const secret = "test-secret"

type client struct {
	t     *testing.T
	app   *fiber.App
	token string
}

func newClient(t *testing.T) *client {
	t.Helper()
	cfg := config.Config{
		AppName:          "test",
		Env:              "test",
		JWTSecret:        secret,
		StoreMaxAttempts: 3,
		IdempotencyTTL:   time.Minute,
	}
	app := server.NewApp(cfg.AppName, logging.Discard())
	require.NoError(t, routes.Setup(app, routes.Deps{
		Cfg:    cfg,
		Logger: logging.Discard(),
		Store:  ledger.NewInMemory(),
	}))
	token, err := auth.NewVerifier(secret).Sign("user-1", time.Hour)
	require.NoError(t, err)
	return &client{t: t, app: app, token: token}
}

func (c *client) do(method, path string, body any) (int, map[string]any) {
	c.t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if c.token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+c.token)
	}
	resp, err := c.app.Test(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	out := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	if len(raw) > 0 {
		require.NoError(c.t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func (c *client) wallet(uid string) string {
	c.t.Helper()
	status, body := c.do(http.MethodPost, "/api/v1/wallets", map[string]string{"uid": uid})
	require.Equal(c.t, http.StatusCreated, status, body)
	return body["walletId"].(string)
}

func (c *client) balance(walletID string) float64 {
	c.t.Helper()
	status, body := c.do(http.MethodGet, "/api/v1/wallets/"+walletID, nil)
	require.Equal(c.t, http.StatusOK, status, body)
	return body["balance"].(float64)
}

func TestPingIsPublic(t *testing.T) {
	c := newClient(t)
	c.token = ""

	status, body := c.do(http.MethodGet, "/api/v1/ping", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["request_id"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	c := newClient(t)
	c.token = ""

	status, body := c.do(http.MethodPost, "/api/v1/wallets", map[string]string{"uid": "u"})
	require.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHENTICATED", body["code"])
	assert.Equal(t, "Invalid Authorization", body["message"])
}

func TestHealthz(t *testing.T) {
	c := newClient(t)
	status, body := c.do(http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"postgres": "in-memory", "redis": "disabled"}, body["status"])
}

func TestPayoutLifecycle(t *testing.T) {
	c := newClient(t)
	walletID := c.wallet("payee")

	status, _ := c.do(http.MethodPost, "/api/v1/wallets/"+walletID+"/transactions", map[string]any{
		"transaction": map[string]any{"amount": 10_000, "type": "CREDIT"},
	})
	require.Equal(t, http.StatusCreated, status)

	status, body := c.do(http.MethodPost, "/api/v1/wallets/"+walletID+"/payouts", map[string]any{
		"amount": map[string]any{"currencyCode": "INR", "units": 150},
	})
	require.Equal(t, http.StatusPreconditionFailed, status)
	assert.Equal(t, "Amount must be lesser than or equal to balance", body["message"])

	status, body = c.do(http.MethodPost, "/api/v1/wallets/"+walletID+"/payouts", map[string]any{
		"amount": map[string]any{"currencyCode": "INR", "units": 25},
	})
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "PENDING", body["status"])
	payoutID := body["id"].(string)
	assert.Equal(t, float64(7_500), c.balance(walletID))

	status, body = c.do(http.MethodGet, "/api/v1/wallets/"+walletID+"/payouts", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["payouts"], 1)

	status, body = c.do(http.MethodPost, "/api/v1/wallets/"+walletID+"/payouts/"+payoutID+"/settle", map[string]string{"status": "failed"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "FAILED", body["status"])
	assert.Equal(t, float64(10_000), c.balance(walletID))

	status, body = c.do(http.MethodPost, "/api/v1/wallets/"+walletID+"/payouts/"+payoutID+"/settle", map[string]string{"status": "SUCCESS"})
	require.Equal(t, http.StatusPreconditionFailed, status)
	assert.Equal(t, "Payout is not pending", body["message"])
}

func TestRechargeLifecycle(t *testing.T) {
	c := newClient(t)
	walletID := c.wallet("payer")

	status, body := c.do(http.MethodPost, "/api/v1/wallets/"+walletID+"/recharges", map[string]any{
		"amount": map[string]any{"currencyCode": "USD", "units": 1},
	})
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "currency must be INR", body["message"])

	status, body = c.do(http.MethodPost, "/api/v1/wallets/"+walletID+"/recharges", map[string]any{
		"amount": map[string]any{"currencyCode": "INR", "units": 12, "nanos": 340_000_000},
	})
	require.Equal(t, http.StatusCreated, status, body)
	rechargeID := body["id"].(string)
	checkout := body["checkoutInfo"].(map[string]any)
	assert.Equal(t, "static", checkout["payment_gateway"])
	assert.NotEmpty(t, checkout["order_id"])
	assert.Zero(t, c.balance(walletID))

	status, body = c.do(http.MethodPost, "/api/v1/wallets/"+walletID+"/recharges/"+rechargeID+"/settle", map[string]string{"status": "SUCCESS"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, float64(1_234), c.balance(walletID))

	status, body = c.do(http.MethodGet, "/api/v1/wallets/"+walletID+"/recharges/"+rechargeID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "SUCCESS", body["status"])
	assert.NotEmpty(t, body["batchId"])
}

func TestTransferEndpoint(t *testing.T) {
	c := newClient(t)
	from := c.wallet("from")
	to := c.wallet("to")

	status, body := c.do(http.MethodPost, "/api/v1/transfers", map[string]any{"from": from, "to": to, "amount": 5})
	require.Equal(t, http.StatusPreconditionFailed, status)
	assert.Equal(t, "Insufficient Balance", body["message"])

	status, _ = c.do(http.MethodPost, "/api/v1/transactions", map[string]any{
		"transactions": []map[string]any{{"accountId": from, "amount": 5, "type": "CREDIT"}},
	})
	require.Equal(t, http.StatusCreated, status)

	status, body = c.do(http.MethodPost, "/api/v1/transfers", map[string]any{"from": from, "to": to, "amount": 5})
	require.Equal(t, http.StatusCreated, status, body)
	assert.Len(t, body["transactionIds"], 2)
	assert.Zero(t, c.balance(from))
	assert.Equal(t, float64(5), c.balance(to))
	assert.Equal(t, "wallets/"+from, body["from"])

	status, body = c.do(http.MethodPost, "/api/v1/transfers", map[string]any{"from": "wallets/" + to, "to": from, "amount": 5})
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, float64(5), c.balance(from))
}
