package payments

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/wallet_ledger/internal/ledger"
	"github.com/congo-pay/wallet_ledger/internal/resource"
)

// Handler exposes the transfer endpoint.
type Handler struct {
	service *Service
}

// NewHandler constructs a payment handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// transferRequest names wallets either by id or as "wallets/{id}".
type transferRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}

type transferResponse struct {
	BatchID        string    `json:"batchId"`
	TransactionIDs []string  `json:"transactionIds"`
	From           string    `json:"from"`
	To             string    `json:"to"`
	CompletedAt    time.Time `json:"completedAt"`
}

func walletID(ref string) string {
	if strings.HasPrefix(ref, "wallets/") {
		if id, err := resource.ParseParent(ref); err == nil {
			return id
		}
	}
	return ref
}

// Transfer handles POST /transfers.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return ledger.InvalidArgument("invalid request body")
	}

	in := TransferInput{FromWalletID: walletID(req.From), ToWalletID: walletID(req.To), Amount: req.Amount}
	res, err := h.service.Transfer(c.UserContext(), in)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(transferResponse{
		BatchID:        res.BatchID,
		TransactionIDs: res.TransactionIDs,
		From:           resource.WalletName(in.FromWalletID),
		To:             resource.WalletName(in.ToWalletID),
		CompletedAt:    res.CompletedAt,
	})
}
