package ledger

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/congo-pay/wallet_ledger/internal/logging"
)

// Runs against a disposable database when LEDGER_TEST_DATABASE_URL is set.
func newPostgresLedger(t *testing.T) *Ledger {
	t.Helper()
	url := os.Getenv("LEDGER_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("LEDGER_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	store := NewPostgresStore(pool, 5)
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return New(store, logging.Discard())
}

func TestPostgresCommitBatchAtomicity(t *testing.T) {
	l := newPostgresLedger(t)
	ctx := context.Background()

	w, err := l.CreateWallet(ctx, NewID())
	if err != nil {
		t.Fatalf("create wallet: %v", err)
	}

	batch, _ := Aggregate([]Posting{{WalletID: w.ID, Amount: 10}, {WalletID: NewID(), Amount: 10}}, nil)
	_, err = l.CommitBatch(ctx, batch.Commit())
	if !IsKind(err, KindFailedPrecondition) {
		t.Fatalf("expected failed precondition, got %v", err)
	}
	if ts, err := l.TransactionsByBatch(ctx, batch.ID); err != nil || len(ts) != 0 {
		t.Fatalf("expected no entries, got %d (%v)", len(ts), err)
	}

	batch, _ = Aggregate([]Posting{{WalletID: w.ID, Amount: 25}, {WalletID: w.ID, Amount: -5}}, nil)
	if _, err := l.CommitBatch(ctx, batch.Commit()); err != nil {
		t.Fatalf("commit: %v", err)
	}
	got, err := l.Wallet(ctx, w.ID)
	if err != nil {
		t.Fatalf("wallet: %v", err)
	}
	if got.Balance != 20 {
		t.Fatalf("expected balance 20, got %d", got.Balance)
	}
}

func TestPostgresCreateWalletDuplicateUID(t *testing.T) {
	l := newPostgresLedger(t)
	ctx := context.Background()
	uid := NewID()

	if _, err := l.CreateWallet(ctx, uid); err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	if _, err := l.CreateWallet(ctx, uid); !IsKind(err, KindAlreadyExists) {
		t.Fatalf("expected already exists, got %v", err)
	}
}
