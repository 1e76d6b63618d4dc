package ledger

import "context"

// SeedBalance credits (or debits, when amount is negative) walletID through a
// regular batch commit so the cached balance stays equal to the entry sum.
// Intended for tests and local fixtures.
func SeedBalance(ctx context.Context, l *Ledger, walletID string, amount int64) error {
	if amount == 0 {
		return nil
	}
	batch, err := Aggregate([]Posting{{WalletID: walletID, Amount: amount}}, NewID)
	if err != nil {
		return err
	}
	_, err = l.CommitBatch(ctx, batch.Commit())
	return err
}
