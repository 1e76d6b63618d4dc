package ledger

import (
	"errors"
	"fmt"
)

// Public failure messages. They are part of the API contract.
const (
	MsgSomethingWentWrong  = "Something Went Wrong"
	MsgConflict            = "Concurrent Update, Retry"
	MsgAccountDoesNotExist = "Account Does Not Exist"
	MsgWalletDoesNotExist  = "Wallet Does Not Exist"
	MsgWalletAlreadyExists = "Wallet Already Exists"
	MsgTransactionNotFound = "Transaction Not Found"
	MsgTransactionsMissing = "Transactions Not Found"
	MsgNoTransactionsFound = "No Transactions Found"
	MsgInsufficientBalance = "Insufficient Balance"
)

var (
	// ErrNoRecord is returned by stores when a key or query matches nothing.
	ErrNoRecord = errors.New("record not found")

	// ErrConflict marks a store-level serialization conflict that survived the
	// store client's own retries. Callers may retry the whole request.
	ErrConflict = errors.New("concurrent update conflict")

	// ErrBalanceOverflow is returned by stores when a write would take a cached
	// balance outside the int64 range.
	ErrBalanceOverflow = errors.New("balance overflows int64")
)

// Kind classifies failures surfaced to callers.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidArgument
	KindAlreadyExists
	KindFailedPrecondition
	KindNotFound
)

// Code returns the wire code for k.
func (k Kind) Code() string {
	switch k {
	case KindInvalidArgument:
		return "INVALID_ARGUMENT"
	case KindAlreadyExists:
		return "ALREADY_EXISTS"
	case KindFailedPrecondition:
		return "FAILED_PRECONDITION"
	case KindNotFound:
		return "NOT_FOUND"
	default:
		return "INTERNAL"
	}
}

func (k Kind) String() string { return k.Code() }

// Error is an expected business failure carrying a caller-visible message.
// Err optionally holds the underlying cause, which is never shown to callers.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// InvalidArgument reports a malformed request detected before any I/O.
func InvalidArgument(format string, args ...any) *Error {
	return newError(KindInvalidArgument, format, args...)
}

// AlreadyExists reports a uniqueness violation.
func AlreadyExists(format string, args ...any) *Error {
	return newError(KindAlreadyExists, format, args...)
}

// FailedPrecondition reports a missing referenced account or a violated
// business precondition.
func FailedPrecondition(format string, args ...any) *Error {
	return newError(KindFailedPrecondition, format, args...)
}

// NotFound reports a resource that is absent on read.
func NotFound(format string, args ...any) *Error {
	return newError(KindNotFound, format, args...)
}

// Internal wraps an unexpected failure behind the generic message.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: MsgSomethingWentWrong, Err: err}
}

// Classify returns the kind and caller-visible message for err. Unclassified
// errors collapse to KindInternal with the generic message.
func Classify(err error) (Kind, string) {
	var le *Error
	switch {
	case err == nil:
		return KindInternal, ""
	case errors.As(err, &le):
		return le.Kind, le.Message
	case errors.Is(err, ErrConflict):
		return KindInternal, MsgConflict
	default:
		return KindInternal, MsgSomethingWentWrong
	}
}

// IsKind reports whether err classifies as kind.
func IsKind(err error, kind Kind) bool {
	k, _ := Classify(err)
	return err != nil && k == kind
}

// normalize keeps business errors and conflicts intact and wraps anything else
// as an internal failure.
func normalize(err error) error {
	var le *Error
	if err == nil || errors.As(err, &le) || errors.Is(err, ErrConflict) {
		return err
	}
	return Internal(err)
}
