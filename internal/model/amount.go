// internal/model/amount.go
package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidPrecision is returned when an amount carries a fractional part
// that is not exactly three digits long.
var ErrInvalidPrecision = errors.New("amount must have 3 decimal precision")

// Amount is a monetary value with millesimal precision. All arithmetic is
// exact decimal arithmetic; binary floating point never touches stored
// values. The canonical textual form always carries three fractional digits.
type Amount struct {
	dec decimal.Decimal
}

// ParseAmount validates and parses a decimal string. The fractional part,
// if present, must be exactly three digits; integral strings pass as-is.
func ParseAmount(s string) (Amount, error) {
	parts := strings.Split(s, ".")
	if len(parts) > 1 && len(parts[1]) != 3 {
		return Amount{}, ErrInvalidPrecision
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return Amount{dec: d}, nil
}

// AmountFromFloat stringifies f first and then validates, so a float input
// is subject to exactly the same precision rule as its string form. A float
// always renders with at least one fractional digit: 5.0 becomes "5.0" and
// fails the precision rule the same way the string "5.0" does.
func AmountFromFloat(f float64) (Amount, error) {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return ParseAmount(s)
}

// Add returns the exact decimal sum of a and b.
func (a Amount) Add(b Amount) Amount {
	return Amount{dec: a.dec.Add(b.dec)}
}

// Equal reports whether the two amounts represent the same value.
func (a Amount) Equal(b Amount) bool {
	return a.dec.Equal(b.dec)
}

// Decimal exposes the underlying decimal value.
func (a Amount) Decimal() decimal.Decimal {
	return a.dec
}

// String renders the canonical form with three fractional digits.
func (a Amount) String() string {
	return a.dec.StringFixed(3)
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts either a JSON string or a JSON number. A number is
// validated on its written digits, so 5, 5.0 and 5.000 are three distinct
// inputs and only the first and last pass the precision rule.
func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseAmount(s)
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	}
	// Exponent notation carries no literal fractional digits; fall back to
	// the float path, which renders a plain decimal string first.
	if strings.ContainsAny(raw, "eE") {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid amount %s: %w", raw, err)
		}
		parsed, err := AmountFromFloat(f)
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	}
	parsed, err := ParseAmount(raw)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value implements driver.Valuer for NUMERIC(10,3) columns.
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan implements sql.Scanner.
func (a *Amount) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*a = Amount{}
		return nil
	case []byte:
		d, err := decimal.NewFromString(string(v))
		if err != nil {
			return fmt.Errorf("scan amount %q: %w", v, err)
		}
		*a = Amount{dec: d}
		return nil
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("scan amount %q: %w", v, err)
		}
		*a = Amount{dec: d}
		return nil
	case int64:
		*a = Amount{dec: decimal.NewFromInt(v)}
		return nil
	case float64:
		// Drivers hand NUMERIC over as text; a float here is formatted to
		// text first so binary floating point never touches the value.
		d, err := decimal.NewFromString(strconv.FormatFloat(v, 'f', -1, 64))
		if err != nil {
			return fmt.Errorf("scan amount %v: %w", v, err)
		}
		*a = Amount{dec: d}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Amount", value)
	}
}
