package orders

import (
	"github.com/shopspring/decimal"
)

// Money is a decimal amount kept at two decimal places. It is encoded in JSON
// as a fixed-point string ("30.00") and accepts numbers or strings on input.
type Money struct {
	decimal.Decimal
}

// MaxAmount is the largest amount a NUMERIC(10,2) column holds. Prices and
// order totals above it are rejected.
var MaxAmount = MustMoney("99999999.99")

func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d.Round(2)}
}

func MoneyFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, err
	}
	return NewMoney(d), nil
}

func MustMoney(s string) Money {
	m, err := MoneyFromString(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Times returns the line amount for qty units.
func (m Money) Times(qty int) Money {
	return NewMoney(m.Decimal.Mul(decimal.NewFromInt(int64(qty))))
}

func (m Money) Plus(o Money) Money {
	return NewMoney(m.Decimal.Add(o.Decimal))
}

func (m Money) Exceeds(limit Money) bool { return m.GreaterThan(limit.Decimal) }

func (m Money) String() string { return m.StringFixed(2) }

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.StringFixed(2) + `"`), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	m.Decimal = d.Round(2)
	return nil
}
