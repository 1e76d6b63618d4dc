package wallet

import (
	"time"

	"github.com/congo-pay/wallet_ledger/internal/ledger"
	"github.com/congo-pay/wallet_ledger/internal/resource"
)

type createWalletRequest struct {
	UID string `json:"uid"`
}

type movementPayload struct {
	Amount int64  `json:"amount"`
	Type   string `json:"type"`
}

func (p *movementPayload) toMovement() *ledger.Movement {
	if p == nil {
		return nil
	}
	return &ledger.Movement{Amount: p.Amount, Type: ledger.Type(p.Type)}
}

type createTransactionRequest struct {
	Transaction *movementPayload `json:"transaction"`
}

type batchCreateRequest struct {
	Requests []struct {
		Parent      string           `json:"parent"`
		Transaction *movementPayload `json:"transaction"`
	} `json:"requests"`
}

type createTransactionsRequest struct {
	Transactions []struct {
		AccountID string `json:"accountId"`
		Amount    int64  `json:"amount"`
		Type      string `json:"type"`
	} `json:"transactions"`
}

// WalletResponse is the wire shape of a wallet.
type WalletResponse struct {
	Name       string    `json:"name"`
	WalletID   string    `json:"walletId"`
	UID        string    `json:"uid,omitempty"`
	Balance    int64     `json:"balance"`
	CreateTime time.Time `json:"createTime"`
	UpdateTime time.Time `json:"updateTime"`
}

// TransactionResponse is the wire shape of a ledger entry.
type TransactionResponse struct {
	Name          string    `json:"name"`
	TransactionID string    `json:"transactionId"`
	WalletID      string    `json:"walletId"`
	Amount        int64     `json:"amount"`
	Type          string    `json:"type"`
	BatchID       string    `json:"batchId"`
	CreateTime    time.Time `json:"createTime"`
}

type batchCreateResponse struct {
	BatchID      string                `json:"batchId"`
	Transactions []TransactionResponse `json:"transactions"`
}

type createTransactionsResponse struct {
	BatchID        string   `json:"batchId"`
	TransactionIDs []string `json:"transactionIds"`
}

type listTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
}

// ToWalletResponse shapes w for the API.
func ToWalletResponse(w ledger.Wallet) WalletResponse {
	return WalletResponse{
		Name:       resource.WalletName(w.ID),
		WalletID:   w.ID,
		UID:        w.UID,
		Balance:    w.Balance,
		CreateTime: w.CreateTime,
		UpdateTime: w.UpdateTime,
	}
}

// ToTransactionResponse shapes t for the API.
func ToTransactionResponse(t ledger.Transaction) TransactionResponse {
	return TransactionResponse{
		Name:          resource.TransactionName(t.WalletID, t.ID),
		TransactionID: t.ID,
		WalletID:      t.WalletID,
		Amount:        t.Amount,
		Type:          string(t.Type),
		BatchID:       t.BatchID,
		CreateTime:    t.CreateTime,
	}
}

// ToTransactionResponses shapes a list of entries for the API.
func ToTransactionResponses(ts []ledger.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, len(ts))
	for i, t := range ts {
		out[i] = ToTransactionResponse(t)
	}
	return out
}
