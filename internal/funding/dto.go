package funding

import (
	"time"

	"github.com/congo-pay/wallet_ledger/internal/ledger"
	"github.com/congo-pay/wallet_ledger/internal/money"
	"github.com/congo-pay/wallet_ledger/internal/resource"
)

// CreateRequest carries the amount of a payout or recharge.
type CreateRequest struct {
	Amount *money.Money `json:"amount"`
}

// SettleRequest carries the final status reported by the gateway.
type SettleRequest struct {
	Status string `json:"status"`
}

// FundingResponse represents a payout or recharge on the wire.
type FundingResponse struct {
	Name         string            `json:"name"`
	ID           string            `json:"id"`
	WalletID     string            `json:"walletId"`
	Amount       money.Money       `json:"amount"`
	Status       string            `json:"status"`
	CheckoutInfo map[string]string `json:"checkoutInfo"`
	BatchID      string            `json:"batchId,omitempty"`
	CreateTime   time.Time         `json:"createTime"`
	UpdateTime   time.Time         `json:"updateTime"`
}

func toResponse(f ledger.Funding) FundingResponse {
	collection := resource.Payouts
	if f.Kind == ledger.FundingRecharge {
		collection = resource.Recharges
	}
	return FundingResponse{
		Name:     resource.ItemName(f.WalletID, collection, f.ID),
		ID:       f.ID,
		WalletID: f.WalletID,
		Amount:   money.FromMinorUnits(f.Amount, f.Currency),
		Status:   string(f.Status),
		CheckoutInfo: map[string]string{
			"payment_gateway": f.Gateway,
			"order_id":        f.GatewayOrderID,
		},
		BatchID:    f.BatchID,
		CreateTime: f.CreateTime,
		UpdateTime: f.UpdateTime,
	}
}

func toResponses(fs []ledger.Funding) []FundingResponse {
	out := make([]FundingResponse, len(fs))
	for i, f := range fs {
		out[i] = toResponse(f)
	}
	return out
}
