// internal/domain/money/money.go

// Package money provides a decimal amount type for loan figures.
//
// Amount wraps shopspring/decimal so that totals survive repeated addition
// without float drift, and round-trips through Mongo as Decimal128.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Amount is an exact decimal money value. The zero value is 0.
type Amount struct {
	d decimal.Decimal
}

// Zero is the zero amount.
var Zero = Amount{}

// New builds an Amount from a coefficient and exponent, e.g. New(1250, -2)
// is 12.50.
func New(value int64, exp int32) Amount {
	return Amount{d: decimal.New(value, exp)}
}

// FromFloat converts a float64 into an Amount.
func FromFloat(f float64) Amount {
	return Amount{d: decimal.NewFromFloat(f)}
}

// Parse parses a decimal string such as "12500.75".
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("money: parse %q: %w", s, err)
	}
	return Amount{d: d}, nil
}

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	return Amount{d: a.d.Add(b.d)}
}

// Equal reports whether two amounts are numerically equal.
func (a Amount) Equal(b Amount) bool {
	return a.d.Equal(b.d)
}

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool {
	return a.d.IsZero()
}

// Decimal exposes the underlying decimal value.
func (a Amount) Decimal() decimal.Decimal {
	return a.d
}

func (a Amount) String() string {
	return a.d.String()
}

// MarshalJSON renders the amount as a JSON number, matching what API
// consumers already expect for the total_* fields.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.d.String()), nil
}

// UnmarshalJSON accepts either a JSON number or a quoted decimal string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("money: unmarshal %s: %w", data, err)
	}
	a.d = d
	return nil
}

// MarshalBSONValue stores the amount as a Decimal128.
func (a Amount) MarshalBSONValue() (bsontype.Type, []byte, error) {
	dec, err := primitive.ParseDecimal128(a.d.String())
	if err != nil {
		return 0, nil, fmt.Errorf("money: to decimal128: %w", err)
	}
	return bson.MarshalValue(dec)
}

// UnmarshalBSONValue accepts Decimal128 as written by this package, plus the
// numeric types older documents carry.
func (a *Amount) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bson.TypeDecimal128:
		var dec primitive.Decimal128
		if err := raw.Unmarshal(&dec); err != nil {
			return fmt.Errorf("money: read decimal128: %w", err)
		}
		d, err := decimal.NewFromString(dec.String())
		if err != nil {
			return fmt.Errorf("money: decode decimal128 %q: %w", dec.String(), err)
		}
		a.d = d
	case bson.TypeDouble:
		var f float64
		if err := raw.Unmarshal(&f); err != nil {
			return fmt.Errorf("money: read double: %w", err)
		}
		a.d = decimal.NewFromFloat(f)
	case bson.TypeInt32:
		var n int32
		if err := raw.Unmarshal(&n); err != nil {
			return fmt.Errorf("money: read int32: %w", err)
		}
		a.d = decimal.NewFromInt32(n)
	case bson.TypeInt64:
		var n int64
		if err := raw.Unmarshal(&n); err != nil {
			return fmt.Errorf("money: read int64: %w", err)
		}
		a.d = decimal.NewFromInt(n)
	case bson.TypeNull:
		a.d = decimal.Decimal{}
	default:
		return fmt.Errorf("money: cannot decode BSON type %s", t)
	}
	return nil
}
