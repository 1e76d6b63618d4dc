package ledger

import (
	"math"

	"github.com/google/uuid"
)

// IDGenerator returns a fresh opaque identifier on every call.
type IDGenerator func() string

// NewID generates random UUIDv4 identifiers.
func NewID() string {
	return uuid.NewString()
}

// Batch is the netted result of a set of postings.
type Batch struct {
	ID string
	// Accounts lists every wallet referenced by the postings, including
	// wallets whose movements cancelled out. All of them must exist.
	Accounts     []string
	Transactions []Transaction
}

// TransactionIDs returns the ids of the entries in b.
func (b Batch) TransactionIDs() []string {
	ids := make([]string, len(b.Transactions))
	for i, t := range b.Transactions {
		ids[i] = t.ID
	}
	return ids
}

// Commit returns the store commit for b.
func (b Batch) Commit() Commit {
	return Commit{Checks: b.Accounts, Writes: b.Transactions}
}

// Aggregate nets postings per wallet, drops wallets whose net is zero and
// emits one entry per remaining wallet in first-seen order.
func Aggregate(postings []Posting, newID IDGenerator) (Batch, error) {
	if newID == nil {
		newID = NewID
	}

	net := make(map[string]int64, len(postings))
	order := make([]string, 0, len(postings))
	for _, p := range postings {
		sum, seen := net[p.WalletID]
		if !seen {
			order = append(order, p.WalletID)
		}
		if (p.Amount > 0 && sum > math.MaxInt64-p.Amount) || (p.Amount < 0 && sum < math.MinInt64-p.Amount) {
			return Batch{}, InvalidArgument("amount overflows for account %s", p.WalletID)
		}
		net[p.WalletID] = sum + p.Amount
	}

	batch := Batch{ID: newID(), Accounts: order}
	for _, walletID := range order {
		sum := net[walletID]
		if sum == 0 {
			continue
		}
		entry := Transaction{ID: newID(), WalletID: walletID, Amount: sum, Type: TypeCredit, BatchID: batch.ID}
		if sum < 0 {
			if sum == math.MinInt64 {
				return Batch{}, InvalidArgument("amount overflows for account %s", walletID)
			}
			entry.Amount = -sum
			entry.Type = TypeDebit
		}
		batch.Transactions = append(batch.Transactions, entry)
	}
	return batch, nil
}
