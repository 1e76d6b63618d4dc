package ledger

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"
)

type fundingKey struct {
	kind FundingKind
	id   string
}

// MemoryStore is a concurrency-safe Store useful for tests and local runs.
// RunAtomic holds the write lock for the whole unit of work, so every atomic
// unit is serialized against all others.
type MemoryStore struct {
	mu            sync.RWMutex
	wallets       map[string]Wallet
	transactions  map[string]Transaction
	txOrder       []string
	fundings      map[fundingKey]Funding
	fundingOrder  []fundingKey
	now           func() time.Time
	lastTimestamp time.Time
}

// NewInMemory creates an empty MemoryStore.
func NewInMemory() *MemoryStore {
	return &MemoryStore{
		wallets:      make(map[string]Wallet),
		transactions: make(map[string]Transaction),
		fundings:     make(map[fundingKey]Funding),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// RunAtomic runs fn under the store lock and undoes its writes on error.
func (s *MemoryStore) RunAtomic(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{s: s, at: s.tick()}
	committed := false
	defer func() {
		if !committed {
			tx.rollback()
		}
	}()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	committed = true
	return nil
}

// tick returns a strictly increasing timestamp. Callers hold the write lock.
func (s *MemoryStore) tick() time.Time {
	t := s.now().Truncate(time.Microsecond)
	if !t.After(s.lastTimestamp) {
		t = s.lastTimestamp.Add(time.Microsecond)
	}
	s.lastTimestamp = t
	return t
}

func (s *MemoryStore) GetWallet(_ context.Context, id string) (Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getWallet(id)
}

func (s *MemoryStore) FindWalletByUID(_ context.Context, uid string) (Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findWalletByUID(uid)
}

func (s *MemoryStore) GetTransaction(_ context.Context, id string) (Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getTransaction(id)
}

func (s *MemoryStore) ListTransactionsByBatch(_ context.Context, batchID string) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listTransactions(func(t Transaction) bool { return t.BatchID == batchID }), nil
}

func (s *MemoryStore) ListTransactionsByWallet(_ context.Context, walletID string) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listTransactions(func(t Transaction) bool { return t.WalletID == walletID }), nil
}

func (s *MemoryStore) GetFunding(_ context.Context, kind FundingKind, id string) (Funding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getFunding(kind, id)
}

func (s *MemoryStore) ListFundings(_ context.Context, kind FundingKind, walletID string) ([]Funding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listFundings(kind, walletID), nil
}

func (s *MemoryStore) getWallet(id string) (Wallet, error) {
	w, ok := s.wallets[id]
	if !ok {
		return Wallet{}, ErrNoRecord
	}
	return w, nil
}

func (s *MemoryStore) findWalletByUID(uid string) (Wallet, error) {
	for _, w := range s.wallets {
		if w.UID != "" && w.UID == uid {
			return w, nil
		}
	}
	return Wallet{}, ErrNoRecord
}

func (s *MemoryStore) getTransaction(id string) (Transaction, error) {
	t, ok := s.transactions[id]
	if !ok {
		return Transaction{}, ErrNoRecord
	}
	return t, nil
}

func (s *MemoryStore) listTransactions(match func(Transaction) bool) []Transaction {
	out := []Transaction{}
	for _, id := range s.txOrder {
		if t := s.transactions[id]; match(t) {
			out = append(out, t)
		}
	}
	return out
}

func (s *MemoryStore) getFunding(kind FundingKind, id string) (Funding, error) {
	f, ok := s.fundings[fundingKey{kind: kind, id: id}]
	if !ok {
		return Funding{}, ErrNoRecord
	}
	return f, nil
}

func (s *MemoryStore) listFundings(kind FundingKind, walletID string) []Funding {
	out := []Funding{}
	for _, key := range s.fundingOrder {
		if f := s.fundings[key]; f.Kind == kind && f.WalletID == walletID {
			out = append(out, f)
		}
	}
	return out
}

type memTx struct {
	s    *MemoryStore
	at   time.Time
	undo []func()
}

func (t *memTx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *memTx) GetWallet(_ context.Context, id string) (Wallet, error) {
	return t.s.getWallet(id)
}

func (t *memTx) FindWalletByUID(_ context.Context, uid string) (Wallet, error) {
	return t.s.findWalletByUID(uid)
}

func (t *memTx) GetTransaction(_ context.Context, id string) (Transaction, error) {
	return t.s.getTransaction(id)
}

func (t *memTx) ListTransactionsByBatch(_ context.Context, batchID string) ([]Transaction, error) {
	return t.s.listTransactions(func(tr Transaction) bool { return tr.BatchID == batchID }), nil
}

func (t *memTx) ListTransactionsByWallet(_ context.Context, walletID string) ([]Transaction, error) {
	return t.s.listTransactions(func(tr Transaction) bool { return tr.WalletID == walletID }), nil
}

func (t *memTx) GetFunding(_ context.Context, kind FundingKind, id string) (Funding, error) {
	return t.s.getFunding(kind, id)
}

func (t *memTx) ListFundings(_ context.Context, kind FundingKind, walletID string) ([]Funding, error) {
	return t.s.listFundings(kind, walletID), nil
}

func (t *memTx) InsertWallet(_ context.Context, w Wallet) (Wallet, error) {
	if _, exists := t.s.wallets[w.ID]; exists {
		return Wallet{}, fmt.Errorf("wallet %s: duplicate key", w.ID)
	}
	w.Balance = 0
	w.CreateTime = t.at
	w.UpdateTime = t.at
	t.s.wallets[w.ID] = w
	t.undo = append(t.undo, func() { delete(t.s.wallets, w.ID) })
	return w, nil
}

func (t *memTx) InsertTransaction(_ context.Context, tr Transaction) (time.Time, error) {
	if _, exists := t.s.transactions[tr.ID]; exists {
		return time.Time{}, fmt.Errorf("transaction %s: duplicate key", tr.ID)
	}
	tr.CreateTime = t.at
	t.s.transactions[tr.ID] = tr
	t.s.txOrder = append(t.s.txOrder, tr.ID)
	t.undo = append(t.undo, func() {
		delete(t.s.transactions, tr.ID)
		t.s.txOrder = t.s.txOrder[:len(t.s.txOrder)-1]
	})
	return t.at, nil
}

func (t *memTx) AddToBalance(_ context.Context, walletID string, delta int64) (int64, error) {
	prev, ok := t.s.wallets[walletID]
	if !ok {
		return 0, ErrNoRecord
	}
	next := prev
	if (delta > 0 && prev.Balance > math.MaxInt64-delta) || (delta < 0 && prev.Balance < math.MinInt64-delta) {
		return 0, ErrBalanceOverflow
	}
	next.Balance += delta
	next.UpdateTime = t.at
	t.s.wallets[walletID] = next
	t.undo = append(t.undo, func() { t.s.wallets[walletID] = prev })
	return next.Balance, nil
}

func (t *memTx) InsertFunding(_ context.Context, f Funding) (Funding, error) {
	key := fundingKey{kind: f.Kind, id: f.ID}
	if _, exists := t.s.fundings[key]; exists {
		return Funding{}, fmt.Errorf("%s %s: duplicate key", f.Kind, f.ID)
	}
	f.CreateTime = t.at
	f.UpdateTime = t.at
	t.s.fundings[key] = f
	t.s.fundingOrder = append(t.s.fundingOrder, key)
	t.undo = append(t.undo, func() {
		delete(t.s.fundings, key)
		t.s.fundingOrder = t.s.fundingOrder[:len(t.s.fundingOrder)-1]
	})
	return f, nil
}

func (t *memTx) UpdateFundingStatus(_ context.Context, kind FundingKind, id string, status FundingStatus, batchID string) (Funding, error) {
	key := fundingKey{kind: kind, id: id}
	prev, ok := t.s.fundings[key]
	if !ok {
		return Funding{}, ErrNoRecord
	}
	next := prev
	next.Status = status
	if batchID != "" {
		next.BatchID = batchID
	}
	next.UpdateTime = t.at
	t.s.fundings[key] = next
	t.undo = append(t.undo, func() { t.s.fundings[key] = prev })
	return next, nil
}
