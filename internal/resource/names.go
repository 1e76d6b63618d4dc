// Package resource parses and builds hierarchical resource names such as
// wallets/{walletId}/transactions/{transactionId}.
package resource

import (
	"errors"
	"regexp"
)

// Collections nested under a wallet.
const (
	Transactions = "transactions"
	Payouts      = "payouts"
	Recharges    = "recharges"
)

const idPattern = `[A-Za-z0-9_-]+`

var (
	// ErrInvalidName reports a name that does not match the expected pattern.
	ErrInvalidName = errors.New("invalid resource name")

	idRE     = regexp.MustCompile(`^` + idPattern + `$`)
	parentRE = regexp.MustCompile(`^wallets/(` + idPattern + `)$`)
	itemRE   = map[string]*regexp.Regexp{
		Transactions: itemPattern(Transactions),
		Payouts:      itemPattern(Payouts),
		Recharges:    itemPattern(Recharges),
	}
)

func itemPattern(collection string) *regexp.Regexp {
	return regexp.MustCompile(`^wallets/(` + idPattern + `)/` + collection + `/(` + idPattern + `)$`)
}

// ValidID reports whether id can be used as a wallet or item identifier.
func ValidID(id string) bool {
	return idRE.MatchString(id)
}

// ParseParent extracts the wallet id from a wallets/{walletId} name.
func ParseParent(name string) (string, error) {
	m := parentRE.FindStringSubmatch(name)
	if m == nil {
		return "", ErrInvalidName
	}
	return m[1], nil
}

// ParseResource extracts the wallet id and item id from an item name in the
// given collection.
func ParseResource(name, collection string) (string, string, error) {
	re, ok := itemRE[collection]
	if !ok {
		return "", "", ErrInvalidName
	}
	m := re.FindStringSubmatch(name)
	if m == nil {
		return "", "", ErrInvalidName
	}
	return m[1], m[2], nil
}

// WalletName returns wallets/{walletID}.
func WalletName(walletID string) string {
	return "wallets/" + walletID
}

// ItemName returns wallets/{walletID}/{collection}/{id}.
func ItemName(walletID, collection, id string) string {
	return WalletName(walletID) + "/" + collection + "/" + id
}

// TransactionName returns the name of a transaction owned by walletID.
func TransactionName(walletID, id string) string {
	return ItemName(walletID, Transactions, id)
}

// PayoutName returns the name of a payout owned by walletID.
func PayoutName(walletID, id string) string {
	return ItemName(walletID, Payouts, id)
}

// RechargeName returns the name of a recharge owned by walletID.
func RechargeName(walletID, id string) string {
	return ItemName(walletID, Recharges, id)
}
