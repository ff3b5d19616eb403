// Package money holds the fixed-precision amount and quantity types used by every ledger
// column. Values round half-up to their scale after each arithmetic step.
package money

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	AmountScale   int32 = 2
	QuantityScale int32 = 3
)

// Amount is a currency value with two decimal places.
type Amount struct {
	d decimal.Decimal
}

// Zero is the zero amount.
var Zero = Amount{}

func newAmount(d decimal.Decimal) Amount {
	return Amount{d: d.Round(AmountScale)}
}

// NewAmount parses a decimal string such as "1100.00".
func NewAmount(value string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return newAmount(d), nil
}

// MustAmount is NewAmount for constants and tests.
func MustAmount(value string) Amount {
	a, err := NewAmount(value)
	if err != nil {
		panic(err)
	}
	return a
}

// AmountFromInt builds a whole-unit amount.
func AmountFromInt(units int64) Amount {
	return Amount{d: decimal.NewFromInt(units)}
}

// AmountFromDecimal rounds d to cents.
func AmountFromDecimal(d decimal.Decimal) Amount {
	return newAmount(d)
}

func Sum(values ...Amount) Amount {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v.d)
	}
	return newAmount(total)
}

func (a Amount) Decimal() decimal.Decimal { return a.d }
func (a Amount) Add(b Amount) Amount      { return newAmount(a.d.Add(b.d)) }
func (a Amount) Sub(b Amount) Amount      { return newAmount(a.d.Sub(b.d)) }
func (a Amount) Neg() Amount              { return newAmount(a.d.Neg()) }
func (a Amount) Cmp(b Amount) int         { return a.d.Cmp(b.d) }
func (a Amount) Equal(b Amount) bool      { return a.d.Equal(b.d) }
func (a Amount) IsZero() bool             { return a.d.IsZero() }
func (a Amount) IsPositive() bool         { return a.d.IsPositive() }
func (a Amount) IsNegative() bool         { return a.d.IsNegative() }
func (a Amount) GreaterThan(b Amount) bool {
	return a.d.GreaterThan(b.d)
}
func (a Amount) LessThan(b Amount) bool {
	return a.d.LessThan(b.d)
}

// Mul prices a quantity, e.g. unit price × quantity for a line subtotal.
func (a Amount) Mul(q Quantity) Amount {
	return newAmount(a.d.Mul(q.d))
}

// Min returns the smaller of a and b.
func (a Amount) Min(b Amount) Amount {
	if a.LessThan(b) {
		return a
	}
	return b
}

func (a Amount) String() string {
	return a.d.StringFixed(AmountScale)
}

func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

func (a *Amount) Scan(src any) error {
	d, err := scanDecimal(src)
	if err != nil {
		return fmt.Errorf("money.Amount: %w", err)
	}
	*a = newAmount(d)
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	d, err := unmarshalDecimal(data)
	if err != nil {
		return fmt.Errorf("money.Amount: %w", err)
	}
	*a = newAmount(d)
	return nil
}

// Quantity is a non-negative count or weight with three decimal places.
type Quantity struct {
	d decimal.Decimal
}

func newQuantity(d decimal.Decimal) Quantity {
	return Quantity{d: d.Round(QuantityScale)}
}

func NewQuantity(value string) (Quantity, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return Quantity{}, fmt.Errorf("invalid quantity %q: %w", value, err)
	}
	if d.IsNegative() {
		return Quantity{}, fmt.Errorf("quantity %q is negative", value)
	}
	return newQuantity(d), nil
}

func MustQuantity(value string) Quantity {
	q, err := NewQuantity(value)
	if err != nil {
		panic(err)
	}
	return q
}

func QuantityFromInt(n int64) Quantity {
	return Quantity{d: decimal.NewFromInt(n)}
}

func (q Quantity) Decimal() decimal.Decimal { return q.d }
func (q Quantity) Add(o Quantity) Quantity  { return newQuantity(q.d.Add(o.d)) }
func (q Quantity) Cmp(o Quantity) int       { return q.d.Cmp(o.d) }
func (q Quantity) IsPositive() bool         { return q.d.IsPositive() }
func (q Quantity) IsZero() bool             { return q.d.IsZero() }
func (q Quantity) IsNegative() bool         { return q.d.IsNegative() }
func (q Quantity) String() string           { return q.d.StringFixed(QuantityScale) }

func (q Quantity) Value() (driver.Value, error) {
	return q.String(), nil
}

func (q *Quantity) Scan(src any) error {
	d, err := scanDecimal(src)
	if err != nil {
		return fmt.Errorf("money.Quantity: %w", err)
	}
	*q = newQuantity(d)
	return nil
}

func (q Quantity) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.String())
}

func (q *Quantity) UnmarshalJSON(data []byte) error {
	d, err := unmarshalDecimal(data)
	if err != nil {
		return fmt.Errorf("money.Quantity: %w", err)
	}
	if d.IsNegative() {
		return fmt.Errorf("money.Quantity: %s is negative", d.String())
	}
	*q = newQuantity(d)
	return nil
}

func scanDecimal(src any) (decimal.Decimal, error) {
	switch v := src.(type) {
	case nil:
		return decimal.Zero, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case string:
		return decimal.NewFromString(v)
	case []byte:
		return decimal.NewFromString(string(v))
	default:
		return decimal.Zero, fmt.Errorf("unsupported Scan type %T", src)
	}
}

func unmarshalDecimal(data []byte) (decimal.Decimal, error) {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == "" {
		return decimal.Zero, nil
	}
	raw = strings.Trim(raw, `"`)
	return decimal.NewFromString(raw)
}
