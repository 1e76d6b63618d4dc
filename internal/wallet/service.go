package wallet

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/congo-pay/wallet_ledger/internal/ledger"
	"github.com/congo-pay/wallet_ledger/internal/notification"
	"github.com/congo-pay/wallet_ledger/internal/resource"
)

// Service orchestrates wallet and transaction operations:
// validate, aggregate, commit through the ledger, shape the result.
type Service struct {
	ledger   *ledger.Ledger
	notifier notification.Notifier
	logger   *slog.Logger
	newID    ledger.IDGenerator
}

// NewService builds a wallet service instance.
func NewService(l *ledger.Ledger, notifier notification.Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{ledger: l, notifier: notifier, logger: logger.With("component", "wallet"), newID: ledger.NewID}
}

// CreateWallet creates the wallet for uid.
func (s *Service) CreateWallet(ctx context.Context, uid string) (ledger.Wallet, error) {
	if err := ledger.ValidateUID(uid); err != nil {
		return ledger.Wallet{}, err
	}
	return s.ledger.CreateWallet(ctx, uid)
}

// GetWallet reads a wallet by id or by wallets/{id} name.
func (s *Service) GetWallet(ctx context.Context, ref string) (ledger.Wallet, error) {
	walletID, err := walletRef(ref)
	if err != nil {
		return ledger.Wallet{}, err
	}
	return s.ledger.Wallet(ctx, walletID)
}

// GetWalletByUID reads the wallet owned by uid.
func (s *Service) GetWalletByUID(ctx context.Context, uid string) (ledger.Wallet, error) {
	if err := ledger.ValidateUID(uid); err != nil {
		return ledger.Wallet{}, err
	}
	return s.ledger.WalletByUID(ctx, uid)
}

// CreateTransaction records one movement against parent.
func (s *Service) CreateTransaction(ctx context.Context, parent string, m *ledger.Movement) (ledger.Transaction, error) {
	posting, err := ledger.ValidateTransaction(parent, m)
	if err != nil {
		return ledger.Transaction{}, err
	}
	res, err := s.Post(ctx, []ledger.Posting{posting})
	if err != nil {
		return ledger.Transaction{}, err
	}
	return res.Transactions[0], nil
}

// BatchCreateTransactions nets and commits movements addressed by parent name.
func (s *Service) BatchCreateTransactions(ctx context.Context, reqs []ledger.TransactionRequest) (BatchResult, error) {
	postings, err := ledger.ValidateBatch(reqs)
	if err != nil {
		return BatchResult{}, err
	}
	return s.Post(ctx, postings)
}

// CreateTransactions nets and commits movements addressed by account id.
func (s *Service) CreateTransactions(ctx context.Context, ms []ledger.AccountMovement) (BatchResult, error) {
	postings, err := ledger.ValidateAccountMovements(ms)
	if err != nil {
		return BatchResult{}, err
	}
	return s.Post(ctx, postings)
}

// Post aggregates validated postings and commits them as one batch. Wallets
// listed in noOverdraft must not end with a negative balance.
func (s *Service) Post(ctx context.Context, postings []ledger.Posting, noOverdraft ...string) (BatchResult, error) {
	batch, err := ledger.Aggregate(postings, s.newID)
	if err != nil {
		return BatchResult{}, err
	}

	commit := batch.Commit()
	commit.NoOverdraft = noOverdraft
	stamps, err := s.ledger.CommitBatch(ctx, commit)
	if err != nil {
		return BatchResult{}, err
	}

	entries := make([]ledger.Transaction, len(batch.Transactions))
	for i, t := range batch.Transactions {
		t.CreateTime = stamps[i]
		entries[i] = t
	}
	res := BatchResult{BatchID: batch.ID, Transactions: entries}

	if len(entries) > 0 {
		s.logger.Info("batch committed",
			slog.String("batch_id", batch.ID),
			slog.Int("transactions", len(entries)),
		)
		notification.Deliver(ctx, s.notifier, s.logger, notification.NewMessage(
			notification.KindBatchCommitted,
			batch.ID,
			fmt.Sprintf("batch %s committed %d transactions", batch.ID, len(entries)),
			map[string]any{
				"batch_id":        batch.ID,
				"transaction_ids": res.TransactionIDs(),
				"wallet_ids":      batch.Accounts,
				"committed_at":    stamps[0],
			},
		))
	}
	return res, nil
}

// GetTransaction reads wallets/{walletId}/transactions/{transactionId}.
func (s *Service) GetTransaction(ctx context.Context, name string) (ledger.Transaction, error) {
	walletID, transactionID, err := resource.ParseResource(name, resource.Transactions)
	if err != nil {
		return ledger.Transaction{}, ledger.InvalidArgument("invalid name")
	}
	t, err := s.ledger.Transaction(ctx, transactionID)
	if err != nil {
		return ledger.Transaction{}, err
	}
	if t.WalletID != walletID {
		return ledger.Transaction{}, ledger.NotFound(ledger.MsgTransactionNotFound)
	}
	return t, nil
}

// ListTransactionsByBatchID lists the entries committed under batchID.
func (s *Service) ListTransactionsByBatchID(ctx context.Context, batchID string) ([]ledger.Transaction, error) {
	if !resource.ValidID(batchID) {
		return nil, ledger.InvalidArgument("invalid batch id")
	}
	ts, err := s.ledger.TransactionsByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if len(ts) == 0 {
		return nil, ledger.NotFound(ledger.MsgTransactionsMissing)
	}
	return ts, nil
}

// ListTransactionsByAccount lists every entry of the wallet named by parent.
func (s *Service) ListTransactionsByAccount(ctx context.Context, parent string) ([]ledger.Transaction, error) {
	walletID, err := resource.ParseParent(parent)
	if err != nil {
		return nil, ledger.InvalidArgument("invalid parent")
	}
	return s.ledger.TransactionsByWallet(ctx, walletID)
}

func walletRef(ref string) (string, error) {
	if walletID, err := resource.ParseParent(ref); err == nil {
		return walletID, nil
	}
	if !resource.ValidID(ref) {
		return "", ledger.InvalidArgument("invalid name")
	}
	return ref, nil
}
