package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/congo-pay/wallet_ledger/internal/metrics"
)

// Commit describes one atomic ledger write.
type Commit struct {
	// Checks lists wallets that must exist for the commit to proceed.
	Checks []string
	// Writes are persisted in order; each adjusts its wallet's balance.
	Writes []Transaction
	// NoOverdraft lists wallets whose balance must not end below zero.
	NoOverdraft []string
}

// Ledger is the only component that talks to the Store. Every balance
// mutation goes through CommitBatch or one of the funding operations, which
// share its atomic commit step.
type Ledger struct {
	store  Store
	logger *slog.Logger
	newID  IDGenerator
}

// New builds a Ledger over store.
func New(store Store, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{store: store, logger: logger.With("component", "ledger"), newID: NewID}
}

// WithIDGenerator replaces the generator used for wallet ids.
func (l *Ledger) WithIDGenerator(gen IDGenerator) *Ledger {
	l.newID = gen
	return l
}

// CommitBatch checks that every wallet in c.Checks exists and persists
// c.Writes in one atomic unit. It returns one commit timestamp per write.
func (l *Ledger) CommitBatch(ctx context.Context, c Commit) ([]time.Time, error) {
	var stamps []time.Time
	err := l.store.RunAtomic(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		stamps, err = l.commit(ctx, tx, c)
		return err
	})
	if err != nil {
		return nil, normalize(err)
	}
	recordCommit(len(c.Writes))
	return stamps, nil
}

func (l *Ledger) commit(ctx context.Context, tx Tx, c Commit) ([]time.Time, error) {
	for _, walletID := range c.Checks {
		if _, err := tx.GetWallet(ctx, walletID); err != nil {
			if errors.Is(err, ErrNoRecord) {
				l.logger.Warn("commit references missing account", slog.String("wallet_id", walletID))
				return nil, FailedPrecondition(MsgAccountDoesNotExist)
			}
			return nil, err
		}
	}

	stamps := make([]time.Time, len(c.Writes))
	balances := make(map[string]int64, len(c.Writes))
	for i, w := range c.Writes {
		balance, err := tx.AddToBalance(ctx, w.WalletID, w.Signed())
		if err != nil {
			if errors.Is(err, ErrNoRecord) {
				l.logger.Warn("commit writes to missing account", slog.String("wallet_id", w.WalletID))
				return nil, FailedPrecondition(MsgAccountDoesNotExist)
			}
			if errors.Is(err, ErrBalanceOverflow) {
				return nil, InvalidArgument("amount overflows for account %s", w.WalletID)
			}
			return nil, err
		}
		balances[w.WalletID] = balance

		at, err := tx.InsertTransaction(ctx, w)
		if err != nil {
			return nil, err
		}
		stamps[i] = at
	}

	for _, walletID := range c.NoOverdraft {
		if balance, ok := balances[walletID]; ok && balance < 0 {
			return nil, FailedPrecondition(MsgInsufficientBalance)
		}
	}

	return stamps, nil
}

func recordCommit(writes int) {
	if writes == 0 {
		return
	}
	metrics.BatchesCommitted.Inc()
	metrics.TransactionsCommitted.Add(float64(writes))
}

// CreateWallet creates a wallet for uid unless one already exists.
func (l *Ledger) CreateWallet(ctx context.Context, uid string) (Wallet, error) {
	var created Wallet
	err := l.store.RunAtomic(ctx, func(ctx context.Context, tx Tx) error {
		_, err := tx.FindWalletByUID(ctx, uid)
		switch {
		case err == nil:
			return AlreadyExists(MsgWalletAlreadyExists)
		case !errors.Is(err, ErrNoRecord):
			return err
		}
		created, err = tx.InsertWallet(ctx, Wallet{ID: l.newID(), UID: uid})
		return err
	})
	if err != nil {
		return Wallet{}, normalize(err)
	}
	return created, nil
}

// Wallet reads a wallet by id.
func (l *Ledger) Wallet(ctx context.Context, id string) (Wallet, error) {
	w, err := l.store.GetWallet(ctx, id)
	if errors.Is(err, ErrNoRecord) {
		return Wallet{}, NotFound(MsgWalletDoesNotExist)
	}
	return w, normalize(err)
}

// WalletByUID reads a wallet by external user id.
func (l *Ledger) WalletByUID(ctx context.Context, uid string) (Wallet, error) {
	w, err := l.store.FindWalletByUID(ctx, uid)
	if errors.Is(err, ErrNoRecord) {
		return Wallet{}, NotFound(MsgWalletDoesNotExist)
	}
	return w, normalize(err)
}

// Transaction reads a single entry.
func (l *Ledger) Transaction(ctx context.Context, id string) (Transaction, error) {
	t, err := l.store.GetTransaction(ctx, id)
	if errors.Is(err, ErrNoRecord) {
		return Transaction{}, NotFound(MsgTransactionNotFound)
	}
	return t, normalize(err)
}

// TransactionsByBatch lists the entries of one batch in commit order.
func (l *Ledger) TransactionsByBatch(ctx context.Context, batchID string) ([]Transaction, error) {
	ts, err := l.store.ListTransactionsByBatch(ctx, batchID)
	if err != nil {
		return nil, normalize(err)
	}
	return ts, nil
}

// TransactionsByWallet lists a wallet's entries. A missing wallet is a failed
// precondition; an existing wallet without entries is not found.
func (l *Ledger) TransactionsByWallet(ctx context.Context, walletID string) ([]Transaction, error) {
	var out []Transaction
	err := l.store.RunAtomic(ctx, func(ctx context.Context, tx Tx) error {
		if _, err := tx.GetWallet(ctx, walletID); err != nil {
			if errors.Is(err, ErrNoRecord) {
				return FailedPrecondition(MsgAccountDoesNotExist)
			}
			return err
		}
		ts, err := tx.ListTransactionsByWallet(ctx, walletID)
		if err != nil {
			return err
		}
		if len(ts) == 0 {
			return NotFound(MsgNoTransactionsFound)
		}
		out = ts
		return nil
	})
	if err != nil {
		return nil, normalize(err)
	}
	return out, nil
}

// CreateFunding persists f and, when hold is non-nil, commits hold in the
// same atomic unit. f.BatchID is set from the held entries.
func (l *Ledger) CreateFunding(ctx context.Context, f Funding, hold *Commit) (Funding, error) {
	var created Funding
	err := l.store.RunAtomic(ctx, func(ctx context.Context, tx Tx) error {
		if hold != nil {
			if _, err := l.commit(ctx, tx, *hold); err != nil {
				return err
			}
			if len(hold.Writes) > 0 {
				f.BatchID = hold.Writes[0].BatchID
			}
		}
		var err error
		created, err = tx.InsertFunding(ctx, f)
		return err
	})
	if err != nil {
		return Funding{}, normalize(err)
	}
	if hold != nil {
		recordCommit(len(hold.Writes))
	}
	return created, nil
}

// Settlement decides the ledger effect of settling a funding record. It runs
// inside the atomic unit and may return nil when no entries are needed.
type Settlement func(f Funding) *Commit

// SettleFunding moves a pending record owned by walletID to status and
// commits the entries returned by settle in the same atomic unit.
func (l *Ledger) SettleFunding(ctx context.Context, kind FundingKind, walletID, id string, status FundingStatus, settle Settlement) (Funding, error) {
	var updated Funding
	var written int
	err := l.store.RunAtomic(ctx, func(ctx context.Context, tx Tx) error {
		f, err := tx.GetFunding(ctx, kind, id)
		if errors.Is(err, ErrNoRecord) || (err == nil && f.WalletID != walletID) {
			return NotFound("%s Not Found", kind.Title())
		}
		if err != nil {
			return err
		}
		if f.Status != FundingPending {
			return FailedPrecondition("%s is not pending", kind.Title())
		}

		var batchID string
		if settle != nil {
			if c := settle(f); c != nil {
				if _, err := l.commit(ctx, tx, *c); err != nil {
					return err
				}
				written = len(c.Writes)
				if written > 0 {
					batchID = c.Writes[0].BatchID
				}
			}
		}
		updated, err = tx.UpdateFundingStatus(ctx, kind, id, status, batchID)
		return err
	})
	if err != nil {
		return Funding{}, normalize(err)
	}
	recordCommit(written)
	return updated, nil
}

// Funding reads a payout or recharge owned by walletID.
func (l *Ledger) Funding(ctx context.Context, kind FundingKind, walletID, id string) (Funding, error) {
	f, err := l.store.GetFunding(ctx, kind, id)
	if errors.Is(err, ErrNoRecord) || (err == nil && f.WalletID != walletID) {
		return Funding{}, NotFound("%s Not Found", kind.Title())
	}
	return f, normalize(err)
}

// Fundings lists a wallet's payouts or recharges.
func (l *Ledger) Fundings(ctx context.Context, kind FundingKind, walletID string) ([]Funding, error) {
	fs, err := l.store.ListFundings(ctx, kind, walletID)
	if err != nil {
		return nil, normalize(err)
	}
	return fs, nil
}
