package ledger

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/congo-pay/wallet_ledger/internal/metrics"
)

//go:embed schema.sql
var schema string

const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgNumericOutOfRange    = "22003"
)

const (
	walletColumns      = `id, COALESCE(uid, ''), balance, create_time, update_time`
	transactionColumns = `id, wallet_id, amount, type, batch_id, create_time`
	fundingColumns     = `id, kind, wallet_id, amount, currency, status, gateway, gateway_order_id, batch_id, create_time, update_time`
)

type queryer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists wallets, transactions and fundings in PostgreSQL.
// Atomic units run at SERIALIZABLE isolation and are retried on
// serialization failures up to maxAttempts times.
type PostgresStore struct {
	pgReader
	db          *pgxpool.Pool
	maxAttempts int
}

// NewPostgresStore constructs a Postgres-backed store.
func NewPostgresStore(db *pgxpool.Pool, maxAttempts int) *PostgresStore {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &PostgresStore{pgReader: pgReader{q: db}, db: db, maxAttempts: maxAttempts}
}

// Migrate creates the schema if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate ledger schema: %w", err)
	}
	return nil
}

// RunAtomic executes fn inside a serializable transaction.
func (s *PostgresStore) RunAtomic(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	var err error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err = s.runOnce(ctx, fn)
		if !isConflict(err) {
			return err
		}
		metrics.StoreConflicts.Inc()
	}
	return fmt.Errorf("%w: %w", ErrConflict, err)
}

func (s *PostgresStore) runOnce(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if err := fn(ctx, &pgTx{pgReader: pgReader{q: tx}}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func isConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
	}
	return false
}

type pgReader struct {
	q queryer
}

func (r pgReader) GetWallet(ctx context.Context, id string) (Wallet, error) {
	return scanWallet(r.q.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id = $1`, id))
}

func (r pgReader) FindWalletByUID(ctx context.Context, uid string) (Wallet, error) {
	return scanWallet(r.q.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE uid = $1 LIMIT 1`, uid))
}

func (r pgReader) GetTransaction(ctx context.Context, id string) (Transaction, error) {
	return scanTransaction(r.q.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id))
}

func (r pgReader) ListTransactionsByBatch(ctx context.Context, batchID string) ([]Transaction, error) {
	return r.listTransactions(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE batch_id = $1 ORDER BY seq`, batchID)
}

func (r pgReader) ListTransactionsByWallet(ctx context.Context, walletID string) ([]Transaction, error) {
	return r.listTransactions(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE wallet_id = $1 ORDER BY seq`, walletID)
}

func (r pgReader) listTransactions(ctx context.Context, query, arg string) ([]Transaction, error) {
	rows, err := r.q.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r pgReader) GetFunding(ctx context.Context, kind FundingKind, id string) (Funding, error) {
	return scanFunding(r.q.QueryRow(ctx, `SELECT `+fundingColumns+` FROM fundings WHERE kind = $1 AND id = $2`, string(kind), id))
}

func (r pgReader) ListFundings(ctx context.Context, kind FundingKind, walletID string) ([]Funding, error) {
	rows, err := r.q.Query(ctx, `SELECT `+fundingColumns+` FROM fundings WHERE kind = $1 AND wallet_id = $2 ORDER BY seq`, string(kind), walletID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Funding{}
	for rows.Next() {
		f, err := scanFunding(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

type pgTx struct {
	pgReader
}

func (t *pgTx) InsertWallet(ctx context.Context, w Wallet) (Wallet, error) {
	var uid any
	if w.UID != "" {
		uid = w.UID
	}
	return scanWallet(t.q.QueryRow(ctx, `INSERT INTO wallets (id, uid, balance, create_time, update_time)
        VALUES ($1, $2, 0, now(), now())
        RETURNING `+walletColumns, w.ID, uid))
}

func (t *pgTx) InsertTransaction(ctx context.Context, tr Transaction) (time.Time, error) {
	var createTime time.Time
	err := t.q.QueryRow(ctx, `INSERT INTO transactions (id, wallet_id, amount, type, batch_id, create_time)
        VALUES ($1, $2, $3, $4, $5, now())
        RETURNING create_time`, tr.ID, tr.WalletID, tr.Amount, string(tr.Type), tr.BatchID).Scan(&createTime)
	if err != nil {
		return time.Time{}, err
	}
	return createTime.UTC(), nil
}

func (t *pgTx) AddToBalance(ctx context.Context, walletID string, delta int64) (int64, error) {
	var balance int64
	err := t.q.QueryRow(ctx, `UPDATE wallets SET balance = balance + $2, update_time = now()
        WHERE id = $1 RETURNING balance`, walletID, delta).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNoRecord
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgNumericOutOfRange {
		return 0, ErrBalanceOverflow
	}
	return balance, err
}

func (t *pgTx) InsertFunding(ctx context.Context, f Funding) (Funding, error) {
	return scanFunding(t.q.QueryRow(ctx, `INSERT INTO fundings
        (id, kind, wallet_id, amount, currency, status, gateway, gateway_order_id, batch_id, create_time, update_time)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
        RETURNING `+fundingColumns,
		f.ID, string(f.Kind), f.WalletID, f.Amount, f.Currency, string(f.Status), f.Gateway, f.GatewayOrderID, f.BatchID))
}

func (t *pgTx) UpdateFundingStatus(ctx context.Context, kind FundingKind, id string, status FundingStatus, batchID string) (Funding, error) {
	return scanFunding(t.q.QueryRow(ctx, `UPDATE fundings
        SET status = $3, batch_id = CASE WHEN $4 = '' THEN batch_id ELSE $4 END, update_time = now()
        WHERE kind = $1 AND id = $2
        RETURNING `+fundingColumns, string(kind), id, string(status), batchID))
}

func scanWallet(row pgx.Row) (Wallet, error) {
	var w Wallet
	if err := row.Scan(&w.ID, &w.UID, &w.Balance, &w.CreateTime, &w.UpdateTime); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrNoRecord
		}
		return Wallet{}, err
	}
	w.CreateTime = w.CreateTime.UTC()
	w.UpdateTime = w.UpdateTime.UTC()
	return w, nil
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var t Transaction
	var typ string
	if err := row.Scan(&t.ID, &t.WalletID, &t.Amount, &typ, &t.BatchID, &t.CreateTime); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrNoRecord
		}
		return Transaction{}, err
	}
	parsed, err := ParseType(typ)
	if err != nil {
		return Transaction{}, err
	}
	t.Type = parsed
	t.CreateTime = t.CreateTime.UTC()
	return t, nil
}

func scanFunding(row pgx.Row) (Funding, error) {
	var f Funding
	var kind, status string
	if err := row.Scan(&f.ID, &kind, &f.WalletID, &f.Amount, &f.Currency, &status, &f.Gateway, &f.GatewayOrderID, &f.BatchID, &f.CreateTime, &f.UpdateTime); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Funding{}, ErrNoRecord
		}
		return Funding{}, err
	}
	parsed, err := ParseFundingStatus(status)
	if err != nil {
		return Funding{}, err
	}
	f.Kind = FundingKind(kind)
	f.Status = parsed
	f.CreateTime = f.CreateTime.UTC()
	f.UpdateTime = f.UpdateTime.UTC()
	return f, nil
}
