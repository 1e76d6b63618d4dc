package money

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// CurrencyINR is the only currency accepted by the funding flows.
const CurrencyINR = "INR"

const (
	nanosPerUnit  = 1_000_000_000
	minorExponent = 2
	nanosPerMinor = nanosPerUnit / 100
)

// ErrInvalidAmount reports a Money value that cannot be represented in minor units.
var ErrInvalidAmount = errors.New("invalid amount")

// Money is an amount of a currency split into whole units and nano units.
type Money struct {
	CurrencyCode string `json:"currencyCode"`
	Units        int64  `json:"units"`
	Nanos        int32  `json:"nanos"`
}

// Validate checks the nanos range and that units and nanos agree in sign.
func (m Money) Validate() error {
	if m.Nanos <= -nanosPerUnit || m.Nanos >= nanosPerUnit {
		return fmt.Errorf("%w: nanos %d out of range", ErrInvalidAmount, m.Nanos)
	}
	if (m.Units > 0 && m.Nanos < 0) || (m.Units < 0 && m.Nanos > 0) {
		return fmt.Errorf("%w: units and nanos disagree in sign", ErrInvalidAmount)
	}
	return nil
}

// Decimal returns the exact decimal value of m.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Units, 0).Add(decimal.New(int64(m.Nanos), -9))
}

// ToMinorUnits converts m to an integer count of hundredths of a unit.
// Values carrying precision finer than one minor unit are rejected.
func (m Money) ToMinorUnits() (int64, error) {
	if err := m.Validate(); err != nil {
		return 0, err
	}
	if m.Nanos%nanosPerMinor != 0 {
		return 0, fmt.Errorf("%w: precision finer than a minor unit", ErrInvalidAmount)
	}
	minor := m.Decimal().Shift(minorExponent)
	if minor.GreaterThan(decimal.NewFromInt(math.MaxInt64)) || minor.LessThan(decimal.NewFromInt(math.MinInt64)) {
		return 0, fmt.Errorf("%w: overflows minor units", ErrInvalidAmount)
	}
	return minor.IntPart(), nil
}

// FromMinorUnits is the inverse of ToMinorUnits.
func FromMinorUnits(amount int64, currencyCode string) Money {
	return Money{
		CurrencyCode: currencyCode,
		Units:        amount / 100,
		Nanos:        int32(amount%100) * nanosPerMinor,
	}
}

func (m Money) String() string {
	return m.Decimal().StringFixed(minorExponent) + " " + m.CurrencyCode
}
