package ledger

import (
	"context"
	"time"
)

// Reader exposes point and range reads. Implementations return ErrNoRecord
// for absent keys and empty slices for empty ranges.
type Reader interface {
	GetWallet(ctx context.Context, id string) (Wallet, error)
	FindWalletByUID(ctx context.Context, uid string) (Wallet, error)
	GetTransaction(ctx context.Context, id string) (Transaction, error)
	ListTransactionsByBatch(ctx context.Context, batchID string) ([]Transaction, error)
	ListTransactionsByWallet(ctx context.Context, walletID string) ([]Transaction, error)
	GetFunding(ctx context.Context, kind FundingKind, id string) (Funding, error)
	ListFundings(ctx context.Context, kind FundingKind, walletID string) ([]Funding, error)
}

// Tx is a unit of work. Writes become visible to other readers only when the
// enclosing RunAtomic returns nil.
type Tx interface {
	Reader
	// InsertWallet stores w with a zero balance and store-assigned times.
	InsertWallet(ctx context.Context, w Wallet) (Wallet, error)
	// InsertTransaction stores t and returns its commit timestamp.
	InsertTransaction(ctx context.Context, t Transaction) (time.Time, error)
	// AddToBalance adjusts the cached balance and returns the new value.
	AddToBalance(ctx context.Context, walletID string, delta int64) (int64, error)
	InsertFunding(ctx context.Context, f Funding) (Funding, error)
	UpdateFundingStatus(ctx context.Context, kind FundingKind, id string, status FundingStatus, batchID string) (Funding, error)
}

// Store is the persistent backend. RunAtomic executes fn in a serializable
// transaction and rolls back every write when fn returns an error.
type Store interface {
	Reader
	RunAtomic(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
