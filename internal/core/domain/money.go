package domain

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// MoneyDecimals is the scale of every monetary column (NUMERIC(18,2)).
const MoneyDecimals = 2

// MaxMoney is the largest value a NUMERIC(18,2) column holds, in cents.
const MaxMoney Money = 9_999_999_999_999_999

var centsPerUnit = big.NewRat(100, 1)

// Money is an amount in cents.
type Money int64

// ParseMoney converts a decimal string ("100", "100.5", "100.50") into cents.
// It rejects more than two decimal places and values outside NUMERIC(18,2),
// but accepts zero and negatives; callers enforce sign.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, "/_") {
		return 0, fmt.Errorf("%w: %q", ErrAmountFormat, s)
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrAmountFormat, s)
	}
	r.Mul(r, centsPerUnit)
	if !r.IsInt() {
		return 0, fmt.Errorf("%w: %q", ErrAmountPrecision, s)
	}
	cents := r.Num()
	if !cents.IsInt64() {
		return 0, fmt.Errorf("%w: %q", ErrAmountTooLarge, s)
	}
	m := Money(cents.Int64())
	if m > MaxMoney || m < -MaxMoney {
		return 0, fmt.Errorf("%w: %q", ErrAmountTooLarge, s)
	}
	return m, nil
}

// ParseAmount parses a requested escrow amount: positive, at most two
// decimal places, below MaxMoney.
func ParseAmount(s string) (Money, error) {
	m, err := ParseMoney(s)
	if err != nil {
		return 0, err
	}
	if m <= 0 {
		return 0, ErrInvalidAmount
	}
	return m, nil
}

// String formats m with exactly two decimals, e.g. "100.50".
func (m Money) String() string {
	neg := m < 0
	v := int64(m)
	if neg {
		v = -v
	}
	s := strconv.FormatInt(v, 10)
	for len(s) <= MoneyDecimals {
		s = "0" + s
	}
	out := s[:len(s)-MoneyDecimals] + "." + s[len(s)-MoneyDecimals:]
	if neg {
		out = "-" + out
	}
	return out
}

// MarshalJSON renders m as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	v, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Value stores m as decimal text, which PostgreSQL casts to NUMERIC exactly.
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

// Scan reads a NUMERIC column. The pgx driver hands numerics over as text.
func (m *Money) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case int64:
		*m = Money(v) * 100
		return nil
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return errors.New("money: cannot scan NULL")
	default:
		return fmt.Errorf("money: unsupported source type %T", src)
	}
	v, err := ParseMoney(s)
	if err != nil {
		return fmt.Errorf("money: %w", err)
	}
	*m = v
	return nil
}
