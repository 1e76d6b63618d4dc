package funding

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/wallet_ledger/internal/ledger"
	"github.com/congo-pay/wallet_ledger/internal/resource"
)

// Handler exposes HTTP endpoints for payouts and recharges.
type Handler struct {
	service *Service
}

// NewHandler constructs a funding handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// CreatePayout holds funds and opens a gateway payout.
func (h *Handler) CreatePayout(c *fiber.Ctx) error {
	var req CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return ledger.InvalidArgument("invalid request body")
	}
	f, err := h.service.CreatePayout(c.UserContext(), resource.WalletName(c.Params("walletId")), req.Amount)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(toResponse(f))
}

// CreateRecharge opens a gateway recharge.
func (h *Handler) CreateRecharge(c *fiber.Ctx) error {
	var req CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return ledger.InvalidArgument("invalid request body")
	}
	f, err := h.service.CreateRecharge(c.UserContext(), resource.WalletName(c.Params("walletId")), req.Amount)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(toResponse(f))
}

// GetPayout returns one payout.
func (h *Handler) GetPayout(c *fiber.Ctx) error {
	f, err := h.service.GetPayout(c.UserContext(), resource.PayoutName(c.Params("walletId"), c.Params("payoutId")))
	if err != nil {
		return err
	}
	return c.JSON(toResponse(f))
}

// GetRecharge returns one recharge.
func (h *Handler) GetRecharge(c *fiber.Ctx) error {
	f, err := h.service.GetRecharge(c.UserContext(), resource.RechargeName(c.Params("walletId"), c.Params("rechargeId")))
	if err != nil {
		return err
	}
	return c.JSON(toResponse(f))
}

// ListPayouts returns every payout of a wallet.
func (h *Handler) ListPayouts(c *fiber.Ctx) error {
	fs, err := h.service.ListPayouts(c.UserContext(), resource.WalletName(c.Params("walletId")))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"payouts": toResponses(fs)})
}

// ListRecharges returns every recharge of a wallet.
func (h *Handler) ListRecharges(c *fiber.Ctx) error {
	fs, err := h.service.ListRecharges(c.UserContext(), resource.WalletName(c.Params("walletId")))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"recharges": toResponses(fs)})
}

// SettlePayout applies the gateway outcome to a pending payout.
func (h *Handler) SettlePayout(c *fiber.Ctx) error {
	status, err := parseSettle(c)
	if err != nil {
		return err
	}
	f, err := h.service.SettlePayout(c.UserContext(), resource.PayoutName(c.Params("walletId"), c.Params("payoutId")), status)
	if err != nil {
		return err
	}
	return c.JSON(toResponse(f))
}

// SettleRecharge applies the gateway outcome to a pending recharge.
func (h *Handler) SettleRecharge(c *fiber.Ctx) error {
	status, err := parseSettle(c)
	if err != nil {
		return err
	}
	f, err := h.service.SettleRecharge(c.UserContext(), resource.RechargeName(c.Params("walletId"), c.Params("rechargeId")), status)
	if err != nil {
		return err
	}
	return c.JSON(toResponse(f))
}

func parseSettle(c *fiber.Ctx) (ledger.FundingStatus, error) {
	var req SettleRequest
	if err := c.BodyParser(&req); err != nil {
		return "", ledger.InvalidArgument("invalid request body")
	}
	return ledger.FundingStatus(strings.ToUpper(strings.TrimSpace(req.Status))), nil
}
