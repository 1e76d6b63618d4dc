package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/wallet_ledger/internal/wallet"
)

// RegisterWalletRoutes wires wallet and transaction endpoints.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler) {
	r.Post("/wallets", h.CreateWallet)
	r.Get("/wallets/by-uid/:uid", h.GetWalletByUID)
	r.Get("/wallets/:walletId", h.GetWallet)
	r.Post("/wallets/:walletId/transactions", h.CreateTransaction)
	r.Get("/wallets/:walletId/transactions", h.ListTransactionsByAccount)
	r.Get("/wallets/:walletId/transactions/:transactionId", h.GetTransaction)

	r.Post("/transactions/batch", h.BatchCreateTransactions)
	r.Post("/transactions", h.CreateTransactions)
	r.Get("/batches/:batchId/transactions", h.ListTransactionsByBatchID)
}
