package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/wallet_ledger/internal/funding"
)

// RegisterFundingRoutes wires payout and recharge endpoints.
func RegisterFundingRoutes(r fiber.Router, h *funding.Handler) {
	payouts := r.Group("/wallets/:walletId/payouts")
	payouts.Post("", h.CreatePayout)
	payouts.Get("", h.ListPayouts)
	payouts.Get("/:payoutId", h.GetPayout)
	payouts.Post("/:payoutId/settle", h.SettlePayout)

	recharges := r.Group("/wallets/:walletId/recharges")
	recharges.Post("", h.CreateRecharge)
	recharges.Get("", h.ListRecharges)
	recharges.Get("/:rechargeId", h.GetRecharge)
	recharges.Post("/:rechargeId/settle", h.SettleRecharge)
}
