// README: Common money value object used across modules.
package types

import (
	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of decimal places every returned amount carries.
const MoneyPlaces = 2

// Money is a currency-agnostic amount rounded half-up to two decimals.
// It marshals as a JSON number with exactly two fraction digits.
type Money struct {
	decimal.Decimal
}

// NewMoney rounds d to MoneyPlaces. Rounding is half away from zero, which is
// half-up for the non-negative amounts priced here.
func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d.Round(MoneyPlaces)}
}

// MoneyFromFloat is a convenience for tests.
func MoneyFromFloat(f float64) Money {
	return NewMoney(decimal.NewFromFloat(f))
}

func (m Money) String() string {
	return m.StringFixed(MoneyPlaces)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.StringFixed(MoneyPlaces)), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	*m = NewMoney(d)
	return nil
}
