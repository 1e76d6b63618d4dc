package ledger

import (
	"fmt"
	"time"
)

// Type is the direction of a ledger entry.
type Type string

const (
	TypeUnspecified Type = ""
	TypeCredit      Type = "CREDIT"
	TypeDebit       Type = "DEBIT"
)

// Valid reports whether t is a known, non-default direction.
func (t Type) Valid() bool {
	return t == TypeCredit || t == TypeDebit
}

// ParseType decodes a stored direction.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if !t.Valid() {
		return TypeUnspecified, Internal(fmt.Errorf("unknown transaction type %q", s))
	}
	return t, nil
}

// Wallet is an account whose balance is the signed sum of its transactions.
// Balance is cached and kept in sync by every batch commit.
type Wallet struct {
	ID         string
	UID        string
	Balance    int64
	CreateTime time.Time
	UpdateTime time.Time
}

// Transaction is an immutable ledger entry.
type Transaction struct {
	ID         string
	WalletID   string
	Amount     int64
	Type       Type
	BatchID    string
	CreateTime time.Time
}

// Signed returns the entry's effect on its wallet balance.
func (t Transaction) Signed() int64 {
	if t.Type == TypeDebit {
		return -t.Amount
	}
	return t.Amount
}

// FundingKind distinguishes gateway-backed flows.
type FundingKind string

const (
	FundingPayout   FundingKind = "payout"
	FundingRecharge FundingKind = "recharge"
)

// Title returns the capitalised kind used in messages.
func (k FundingKind) Title() string {
	switch k {
	case FundingPayout:
		return "Payout"
	case FundingRecharge:
		return "Recharge"
	default:
		return string(k)
	}
}

// FundingStatus is the lifecycle state of a payout or recharge.
type FundingStatus string

const (
	FundingPending FundingStatus = "PENDING"
	FundingSuccess FundingStatus = "SUCCESS"
	FundingFailed  FundingStatus = "FAILED"
)

// ParseFundingStatus decodes a stored status.
func ParseFundingStatus(s string) (FundingStatus, error) {
	switch st := FundingStatus(s); st {
	case FundingPending, FundingSuccess, FundingFailed:
		return st, nil
	default:
		return "", Internal(fmt.Errorf("unknown funding status %q", s))
	}
}

// Funding is a payout or recharge backed by an external gateway order.
type Funding struct {
	ID             string
	Kind           FundingKind
	WalletID       string
	Amount         int64
	Currency       string
	Status         FundingStatus
	Gateway        string
	GatewayOrderID string
	// BatchID is the ledger batch that moved funds for this record, if any.
	BatchID    string
	CreateTime time.Time
	UpdateTime time.Time
}
