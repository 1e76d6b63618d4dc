package wallet

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/wallet_ledger/internal/ledger"
	"github.com/congo-pay/wallet_ledger/internal/resource"
)

// Handler exposes wallet and transaction HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func badBody() error {
	return ledger.InvalidArgument("invalid request body")
}

// CreateWallet provisions a wallet for the given uid.
func (h *Handler) CreateWallet(c *fiber.Ctx) error {
	var req createWalletRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody()
	}
	w, err := h.service.CreateWallet(c.UserContext(), req.UID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(ToWalletResponse(w))
}

// GetWallet returns a wallet by id.
func (h *Handler) GetWallet(c *fiber.Ctx) error {
	w, err := h.service.GetWallet(c.UserContext(), c.Params("walletId"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(ToWalletResponse(w))
}

// GetWalletByUID returns the wallet owned by uid.
func (h *Handler) GetWalletByUID(c *fiber.Ctx) error {
	w, err := h.service.GetWalletByUID(c.UserContext(), c.Params("uid"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(ToWalletResponse(w))
}

// CreateTransaction records one movement against the wallet in the path.
func (h *Handler) CreateTransaction(c *fiber.Ctx) error {
	var req createTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody()
	}
	parent := resource.WalletName(c.Params("walletId"))
	t, err := h.service.CreateTransaction(c.UserContext(), parent, req.Transaction.toMovement())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(ToTransactionResponse(t))
}

// BatchCreateTransactions commits movements addressed by parent name.
func (h *Handler) BatchCreateTransactions(c *fiber.Ctx) error {
	var req batchCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody()
	}
	reqs := make([]ledger.TransactionRequest, len(req.Requests))
	for i, r := range req.Requests {
		reqs[i] = ledger.TransactionRequest{Parent: r.Parent, Movement: r.Transaction.toMovement()}
	}
	res, err := h.service.BatchCreateTransactions(c.UserContext(), reqs)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(batchCreateResponse{
		BatchID:      res.BatchID,
		Transactions: ToTransactionResponses(res.Transactions),
	})
}

// CreateTransactions commits movements addressed by account id.
func (h *Handler) CreateTransactions(c *fiber.Ctx) error {
	var req createTransactionsRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody()
	}
	ms := make([]ledger.AccountMovement, len(req.Transactions))
	for i, m := range req.Transactions {
		ms[i] = ledger.AccountMovement{AccountID: m.AccountID, Amount: m.Amount, Type: ledger.Type(m.Type)}
	}
	res, err := h.service.CreateTransactions(c.UserContext(), ms)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(createTransactionsResponse{
		BatchID:        res.BatchID,
		TransactionIDs: res.TransactionIDs(),
	})
}

// GetTransaction returns a single entry.
func (h *Handler) GetTransaction(c *fiber.Ctx) error {
	name := resource.TransactionName(c.Params("walletId"), c.Params("transactionId"))
	t, err := h.service.GetTransaction(c.UserContext(), name)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(ToTransactionResponse(t))
}

// ListTransactionsByBatchID lists the entries of one batch.
func (h *Handler) ListTransactionsByBatchID(c *fiber.Ctx) error {
	ts, err := h.service.ListTransactionsByBatchID(c.UserContext(), c.Params("batchId"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(listTransactionsResponse{Transactions: ToTransactionResponses(ts)})
}

// ListTransactionsByAccount lists the entries of the wallet in the path.
func (h *Handler) ListTransactionsByAccount(c *fiber.Ctx) error {
	ts, err := h.service.ListTransactionsByAccount(c.UserContext(), resource.WalletName(c.Params("walletId")))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(listTransactionsResponse{Transactions: ToTransactionResponses(ts)})
}
