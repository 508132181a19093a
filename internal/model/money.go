package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Money is a fixed-point amount in cents. The ledger never touches floats:
// amounts enter as decimal strings, are stored as int64 cents, and leave as
// decimal strings with two fraction digits.
type Money struct {
	Cents int64
}

// ErrInvalidAmount reports an unparseable or non-positive amount.
var ErrInvalidAmount = errors.New("invalid amount")

// Cents wraps a raw cent count.
func Cents(c int64) Money { return Money{Cents: c} }

// Add returns m + other.
func (m Money) Add(other Money) Money { return Money{Cents: m.Cents + other.Cents} }

// Sub returns m - other.
func (m Money) Sub(other Money) Money { return Money{Cents: m.Cents - other.Cents} }

// GreaterThan reports m > other.
func (m Money) GreaterThan(other Money) bool { return m.Cents > other.Cents }

// Positive reports m > 0.
func (m Money) Positive() bool { return m.Cents > 0 }

// String renders the amount as a decimal with two fraction digits.
func (m Money) String() string {
	sign := ""
	c := m.Cents
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

// ParseMoney converts a decimal string to cents. Both dot and comma decimal
// separators are accepted; a third fraction digit rounds half-up. Negative
// and zero amounts are rejected, as are amounts past the int64 range.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" || strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return Money{}, ErrInvalidAmount
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	for _, r := range whole {
		if r < '0' || r > '9' {
			return Money{}, ErrInvalidAmount
		}
	}
	for _, r := range frac {
		if r < '0' || r > '9' {
			return Money{}, ErrInvalidAmount
		}
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}

	var cents int64
	switch {
	case frac == "":
		cents = 0
	case len(frac) == 1:
		cents = int64(frac[0]-'0') * 10
	default:
		cents = int64(frac[0]-'0')*10 + int64(frac[1]-'0')
		// half-up on the third fraction digit
		if len(frac) > 2 && frac[2] >= '5' {
			cents++
		}
	}

	if units > (1<<63-1)/100 {
		return Money{}, ErrInvalidAmount
	}
	total := units*100 + cents
	if total <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: total}, nil
}

// MarshalJSON renders the amount as a JSON number with two fraction digits.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw json.RawMessage = data
	s := strings.TrimSpace(string(raw))
	if len(s) >= 2 && s[0] == '"' {
		var quoted string
		if err := json.Unmarshal(data, &quoted); err != nil {
			return ErrInvalidAmount
		}
		s = quoted
	}
	parsed, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
