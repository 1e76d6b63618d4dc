package payments

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/congo-pay/wallet_ledger/internal/ledger"
	"github.com/congo-pay/wallet_ledger/internal/notification"
	"github.com/congo-pay/wallet_ledger/internal/resource"
	"github.com/congo-pay/wallet_ledger/internal/wallet"
)

// Service moves funds between wallets as one ledger batch.
type Service struct {
	wallets  *wallet.Service
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewService constructs a payment service.
func NewService(wallets *wallet.Service, notifier notification.Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{wallets: wallets, notifier: notifier, logger: logger.With("component", "payments")}
}

// TransferInput captures the data needed to move funds between wallets.
type TransferInput struct {
	FromWalletID string
	ToWalletID   string
	Amount       int64
}

// TransferResult describes the ledger outcome of a transfer.
type TransferResult struct {
	BatchID        string
	TransactionIDs []string
	CompletedAt    time.Time
}

// Transfer debits the source wallet and credits the destination in one
// batch. The source wallet may not go below zero.
func (s *Service) Transfer(ctx context.Context, input TransferInput) (TransferResult, error) {
	if !resource.ValidID(input.FromWalletID) {
		return TransferResult{}, ledger.InvalidArgument("invalid source wallet")
	}
	if !resource.ValidID(input.ToWalletID) {
		return TransferResult{}, ledger.InvalidArgument("invalid destination wallet")
	}
	if input.FromWalletID == input.ToWalletID {
		return TransferResult{}, ledger.InvalidArgument("source and destination must differ")
	}
	if input.Amount <= 0 {
		return TransferResult{}, ledger.InvalidArgument("amount must be positive. got %d", input.Amount)
	}

	res, err := s.wallets.Post(ctx, []ledger.Posting{
		{WalletID: input.FromWalletID, Amount: -input.Amount},
		{WalletID: input.ToWalletID, Amount: input.Amount},
	}, input.FromWalletID)
	if err != nil {
		return TransferResult{}, err
	}

	outcome := TransferResult{
		BatchID:        res.BatchID,
		TransactionIDs: res.TransactionIDs(),
		CompletedAt:    res.Transactions[0].CreateTime,
	}

	notification.Deliver(ctx, s.notifier, s.logger, notification.NewMessage(
		notification.KindTransferCompleted,
		input.ToWalletID,
		fmt.Sprintf("You received %d from wallet %s", input.Amount, input.FromWalletID),
		map[string]any{
			"batch_id": res.BatchID,
			"from":     input.FromWalletID,
			"to":       input.ToWalletID,
			"amount":   input.Amount,
		},
	))

	return outcome, nil
}
