package ledger

import (
	"strings"

	"github.com/congo-pay/wallet_ledger/internal/resource"
)

// Movement is a requested change to one wallet.
type Movement struct {
	Amount int64
	Type   Type
}

// TransactionRequest is one element of a batch addressed by parent name.
type TransactionRequest struct {
	Parent   string
	Movement *Movement
}

// AccountMovement is one element of a batch addressed by bare account id.
type AccountMovement struct {
	AccountID string
	Amount    int64
	Type      Type
}

// Posting is a validated, signed movement ready for aggregation.
type Posting struct {
	WalletID string
	Amount   int64
}

// ValidateTransaction checks a single movement against parent.
func ValidateTransaction(parent string, m *Movement) (Posting, error) {
	walletID, err := resource.ParseParent(parent)
	if err != nil {
		return Posting{}, InvalidArgument("invalid parent")
	}
	if m == nil {
		return Posting{}, InvalidArgument("transaction is empty")
	}
	return validateMovement(walletID, m.Type, m.Amount, 0)
}

// ValidateBatch checks every request in order and fails on the first bad one.
func ValidateBatch(reqs []TransactionRequest) ([]Posting, error) {
	if len(reqs) == 0 {
		return nil, InvalidArgument("transactions is empty")
	}
	postings := make([]Posting, 0, len(reqs))
	for i, req := range reqs {
		walletID, err := resource.ParseParent(req.Parent)
		if err != nil {
			return nil, InvalidArgument("invalid parent for transaction %d", i)
		}
		if req.Movement == nil {
			return nil, InvalidArgument("transaction %d is empty", i)
		}
		p, err := validateMovement(walletID, req.Movement.Type, req.Movement.Amount, i)
		if err != nil {
			return nil, err
		}
		postings = append(postings, p)
	}
	return postings, nil
}

// ValidateAccountMovements checks movements addressed by account id.
func ValidateAccountMovements(ms []AccountMovement) ([]Posting, error) {
	if len(ms) == 0 {
		return nil, InvalidArgument("transactions is empty")
	}
	postings := make([]Posting, 0, len(ms))
	for i, m := range ms {
		if !resource.ValidID(m.AccountID) {
			return nil, InvalidArgument("invalid account id for transaction %d", i)
		}
		p, err := validateMovement(m.AccountID, m.Type, m.Amount, i)
		if err != nil {
			return nil, err
		}
		postings = append(postings, p)
	}
	return postings, nil
}

// ValidateUID checks the external user id for wallet creation.
func ValidateUID(uid string) error {
	if strings.TrimSpace(uid) == "" {
		return InvalidArgument("uid is empty")
	}
	return nil
}

func validateMovement(walletID string, t Type, amount int64, index int) (Posting, error) {
	if !t.Valid() {
		return Posting{}, InvalidArgument("type is not specified for transaction %d", index)
	}
	if amount <= 0 {
		return Posting{}, InvalidArgument("amount must be positive. got %d for transaction %d", amount, index)
	}
	if t == TypeDebit {
		amount = -amount
	}
	return Posting{WalletID: walletID, Amount: amount}, nil
}
