package models

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Money is an exact decimal currency amount. It is stored as Decimal128 so
// that aggregation sums stay exact, and rendered with two decimals in JSON.
type Money struct {
	decimal.Decimal
}

// MoneyFromString panics on malformed input; meant for literals and tests.
func MoneyFromString(s string) Money {
	return Money{Decimal: decimal.RequireFromString(s)}
}

func (m Money) Add(other Money) Money { return Money{Decimal: m.Decimal.Add(other.Decimal)} }

func (m Money) Sub(other Money) Money { return Money{Decimal: m.Decimal.Sub(other.Decimal)} }

func (m Money) Times(n int) Money {
	return Money{Decimal: m.Decimal.Mul(decimal.NewFromInt(int64(n)))}
}

func (m Money) Div(n int) Money {
	if n == 0 {
		return Money{}
	}
	return Money{Decimal: m.Decimal.Div(decimal.NewFromInt(int64(n)))}
}

func (m Money) Equal(other Money) bool { return m.Decimal.Equal(other.Decimal) }

// Display is the two-decimal rendering used at the edges.
func (m Money) Display() string { return m.Decimal.StringFixed(2) }

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Display()), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		m.Decimal = decimal.Zero
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", s, err)
	}
	m.Decimal = d
	return nil
}

func (m Money) MarshalBSONValue() (bsontype.Type, []byte, error) {
	d128, err := primitive.ParseDecimal128(m.Decimal.String())
	if err != nil {
		return 0, nil, fmt.Errorf("encoding amount %s: %w", m.Decimal.String(), err)
	}
	return bson.MarshalValue(d128)
}

func (m *Money) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Decimal128:
		d, err := decimal.NewFromString(raw.Decimal128().String())
		if err != nil {
			return err
		}
		m.Decimal = d
	case bsontype.Double:
		m.Decimal = decimal.NewFromFloat(raw.Double())
	case bsontype.Int32:
		m.Decimal = decimal.NewFromInt32(raw.Int32())
	case bsontype.Int64:
		m.Decimal = decimal.NewFromInt(raw.Int64())
	case bsontype.Null, bsontype.Undefined:
		m.Decimal = decimal.Zero
	default:
		return fmt.Errorf("cannot decode %s into Money", t)
	}
	return nil
}
