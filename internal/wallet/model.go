package wallet

import "github.com/congo-pay/wallet_ledger/internal/ledger"

// BatchResult is the outcome of a committed batch. Transactions is empty when
// every movement netted to zero.
type BatchResult struct {
	BatchID      string
	Transactions []ledger.Transaction
}

// TransactionIDs returns the ids of the persisted entries.
func (r BatchResult) TransactionIDs() []string {
	ids := make([]string, len(r.Transactions))
	for i, t := range r.Transactions {
		ids[i] = t.ID
	}
	return ids
}
