package funding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/congo-pay/wallet_ledger/internal/ledger"
	"github.com/congo-pay/wallet_ledger/internal/metrics"
	"github.com/congo-pay/wallet_ledger/internal/money"
	"github.com/congo-pay/wallet_ledger/internal/notification"
	"github.com/congo-pay/wallet_ledger/internal/resource"
)

// Precondition messages returned by the funding flows.
const (
	MsgAmountExceedsBalance = "Amount must be lesser than or equal to balance"
	MsgAmountBelowDue       = "Amount must be greater than or equal to balance due"
)

// Service coordinates payouts and recharges using the ledger and a payment gateway.
type Service struct {
	ledger   *ledger.Ledger
	gateway  Gateway
	notifier notification.Notifier
	logger   *slog.Logger
	newID    ledger.IDGenerator
}

// NewService prepares a funding service. A nil gateway falls back to StaticGateway.
func NewService(l *ledger.Ledger, gateway Gateway, notifier notification.Notifier, logger *slog.Logger) (*Service, error) {
	if l == nil {
		return nil, fmt.Errorf("ledger is required")
	}
	if gateway == nil {
		gateway = StaticGateway{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		ledger:   l,
		gateway:  gateway,
		notifier: notifier,
		logger:   logger.With("component", "funding"),
		newID:    ledger.NewID,
	}, nil
}

// CreatePayout orders a withdrawal of amount from the wallet named by parent.
// The funds are held by a DEBIT committed together with the PENDING record.
func (s *Service) CreatePayout(ctx context.Context, parent string, amount *money.Money) (ledger.Funding, error) {
	walletID, minor, err := parseOrder(parent, amount)
	if err != nil {
		return ledger.Funding{}, err
	}
	w, err := s.wallet(ctx, walletID)
	if err != nil {
		return ledger.Funding{}, err
	}
	if minor > w.Balance {
		return ledger.Funding{}, ledger.FailedPrecondition(MsgAmountExceedsBalance)
	}

	f, err := s.order(ctx, ledger.FundingPayout, walletID, minor)
	if err != nil {
		return ledger.Funding{}, err
	}

	hold, err := ledger.Aggregate([]ledger.Posting{{WalletID: walletID, Amount: -minor}}, s.newID)
	if err != nil {
		return ledger.Funding{}, err
	}
	commit := hold.Commit()
	commit.NoOverdraft = []string{walletID}

	created, err := s.ledger.CreateFunding(ctx, f, &commit)
	if err != nil {
		return ledger.Funding{}, err
	}
	s.emit(ctx, created)
	return created, nil
}

// CreateRecharge orders a top-up of amount into the wallet named by parent.
// Nothing is credited until the recharge settles successfully.
func (s *Service) CreateRecharge(ctx context.Context, parent string, amount *money.Money) (ledger.Funding, error) {
	walletID, minor, err := parseOrder(parent, amount)
	if err != nil {
		return ledger.Funding{}, err
	}
	w, err := s.wallet(ctx, walletID)
	if err != nil {
		return ledger.Funding{}, err
	}
	if w.Balance < 0 && minor < -w.Balance {
		return ledger.Funding{}, ledger.FailedPrecondition(MsgAmountBelowDue)
	}

	f, err := s.order(ctx, ledger.FundingRecharge, walletID, minor)
	if err != nil {
		return ledger.Funding{}, err
	}
	created, err := s.ledger.CreateFunding(ctx, f, nil)
	if err != nil {
		return ledger.Funding{}, err
	}
	s.emit(ctx, created)
	return created, nil
}

// SettlePayout completes a pending payout. A failed payout releases the held
// funds back to the wallet.
func (s *Service) SettlePayout(ctx context.Context, name string, status ledger.FundingStatus) (ledger.Funding, error) {
	return s.settle(ctx, ledger.FundingPayout, resource.Payouts, name, status, func(f ledger.Funding) *ledger.Commit {
		if status != ledger.FundingFailed {
			return nil
		}
		return s.credit(f)
	})
}

// SettleRecharge completes a pending recharge. A successful recharge credits
// the wallet.
func (s *Service) SettleRecharge(ctx context.Context, name string, status ledger.FundingStatus) (ledger.Funding, error) {
	return s.settle(ctx, ledger.FundingRecharge, resource.Recharges, name, status, func(f ledger.Funding) *ledger.Commit {
		if status != ledger.FundingSuccess {
			return nil
		}
		return s.credit(f)
	})
}

// GetPayout reads wallets/{walletId}/payouts/{payoutId}.
func (s *Service) GetPayout(ctx context.Context, name string) (ledger.Funding, error) {
	return s.get(ctx, ledger.FundingPayout, resource.Payouts, name)
}

// GetRecharge reads wallets/{walletId}/recharges/{rechargeId}.
func (s *Service) GetRecharge(ctx context.Context, name string) (ledger.Funding, error) {
	return s.get(ctx, ledger.FundingRecharge, resource.Recharges, name)
}

// ListPayouts lists the payouts of the wallet named by parent.
func (s *Service) ListPayouts(ctx context.Context, parent string) ([]ledger.Funding, error) {
	return s.list(ctx, ledger.FundingPayout, parent)
}

// ListRecharges lists the recharges of the wallet named by parent.
func (s *Service) ListRecharges(ctx context.Context, parent string) ([]ledger.Funding, error) {
	return s.list(ctx, ledger.FundingRecharge, parent)
}

func (s *Service) wallet(ctx context.Context, walletID string) (ledger.Wallet, error) {
	w, err := s.ledger.Wallet(ctx, walletID)
	if ledger.IsKind(err, ledger.KindNotFound) {
		return ledger.Wallet{}, ledger.FailedPrecondition(ledger.MsgWalletDoesNotExist)
	}
	return w, err
}

func (s *Service) order(ctx context.Context, kind ledger.FundingKind, walletID string, minor int64) (ledger.Funding, error) {
	id := s.newID()
	orderID, err := s.gateway.CreateOrder(ctx, OrderRequest{
		AmountMinor: minor,
		Currency:    money.CurrencyINR,
		Receipt:     string(kind) + "/" + id,
	})
	if err != nil {
		s.logger.Error("gateway order failed",
			slog.String("kind", string(kind)),
			slog.String("wallet_id", walletID),
			slog.Any("error", err),
		)
		return ledger.Funding{}, ledger.Internal(err)
	}
	return ledger.Funding{
		ID:             id,
		Kind:           kind,
		WalletID:       walletID,
		Amount:         minor,
		Currency:       money.CurrencyINR,
		Status:         ledger.FundingPending,
		Gateway:        s.gateway.Name(),
		GatewayOrderID: orderID,
	}, nil
}

func (s *Service) credit(f ledger.Funding) *ledger.Commit {
	return &ledger.Commit{
		Checks: []string{f.WalletID},
		Writes: []ledger.Transaction{{
			ID:       s.newID(),
			WalletID: f.WalletID,
			Amount:   f.Amount,
			Type:     ledger.TypeCredit,
			BatchID:  s.newID(),
		}},
	}
}

func (s *Service) settle(ctx context.Context, kind ledger.FundingKind, collection, name string, status ledger.FundingStatus, settle ledger.Settlement) (ledger.Funding, error) {
	walletID, id, err := resource.ParseResource(name, collection)
	if err != nil {
		return ledger.Funding{}, ledger.InvalidArgument("invalid name")
	}
	if status != ledger.FundingSuccess && status != ledger.FundingFailed {
		return ledger.Funding{}, ledger.InvalidArgument("status must be SUCCESS or FAILED")
	}
	f, err := s.ledger.SettleFunding(ctx, kind, walletID, id, status, settle)
	if err != nil {
		return ledger.Funding{}, err
	}
	s.emit(ctx, f)
	return f, nil
}

func (s *Service) get(ctx context.Context, kind ledger.FundingKind, collection, name string) (ledger.Funding, error) {
	walletID, id, err := resource.ParseResource(name, collection)
	if err != nil {
		return ledger.Funding{}, ledger.InvalidArgument("invalid name")
	}
	return s.ledger.Funding(ctx, kind, walletID, id)
}

func (s *Service) list(ctx context.Context, kind ledger.FundingKind, parent string) ([]ledger.Funding, error) {
	walletID, err := resource.ParseParent(parent)
	if err != nil {
		return nil, ledger.InvalidArgument("invalid parent")
	}
	if _, err := s.wallet(ctx, walletID); err != nil {
		return nil, err
	}
	return s.ledger.Fundings(ctx, kind, walletID)
}

func (s *Service) emit(ctx context.Context, f ledger.Funding) {
	status := strings.ToLower(string(f.Status))
	metrics.FundingOrders.WithLabelValues(string(f.Kind), status).Inc()
	s.logger.Info("funding updated",
		slog.String("kind", string(f.Kind)),
		slog.String("id", f.ID),
		slog.String("wallet_id", f.WalletID),
		slog.String("status", string(f.Status)),
	)
	notification.Deliver(ctx, s.notifier, s.logger, notification.NewMessage(
		notification.FundingKind(string(f.Kind), status),
		f.WalletID,
		fmt.Sprintf("%s %s is %s", f.Kind, f.ID, status),
		map[string]any{
			"id":               f.ID,
			"wallet_id":        f.WalletID,
			"amount":           f.Amount,
			"currency":         f.Currency,
			"gateway_order_id": f.GatewayOrderID,
			"batch_id":         f.BatchID,
		},
	))
}

func parseOrder(parent string, amount *money.Money) (string, int64, error) {
	walletID, err := resource.ParseParent(parent)
	if err != nil {
		return "", 0, ledger.InvalidArgument("invalid parent")
	}
	if amount == nil {
		return "", 0, ledger.InvalidArgument("amount is empty")
	}
	if amount.CurrencyCode != money.CurrencyINR {
		return "", 0, ledger.InvalidArgument("currency must be INR")
	}
	if amount.Units <= 0 || amount.Nanos < 0 {
		return "", 0, ledger.InvalidArgument("amount must be positive")
	}
	minor, err := amount.ToMinorUnits()
	if errors.Is(err, money.ErrInvalidAmount) {
		return "", 0, ledger.InvalidArgument("invalid amount")
	}
	if err != nil {
		return "", 0, err
	}
	return walletID, minor, nil
}
