package entities

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Money is an amount in US cents
type Money int64

// Dollars builds a Money value from a whole-dollar and cents pair
func Dollars(dollars, cents int64) Money {
	return Money(dollars*100 + cents)
}

// String renders the amount as "$1,234.56"
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	whole := strconv.FormatInt(v/100, 10)

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("%s$%s.%02d", sign, b.String(), v%100)
}

// ParseMoney accepts "$1,234.56", "1234.56", "99" and similar
func ParseMoney(value string) (Money, error) {
	s := strings.TrimSpace(value)
	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	// the only sign allowed is the leading one handled above
	if !digitsOnly(whole) || (hasFrac && !digitsOnly(frac)) {
		return 0, fmt.Errorf("invalid amount %q", value)
	}
	dollars, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", value)
	}

	var cents int64
	if hasFrac {
		if len(frac) == 0 || len(frac) > 2 {
			return 0, fmt.Errorf("invalid amount %q", value)
		}
		if len(frac) == 1 {
			frac += "0"
		}
		cents, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid amount %q", value)
		}
	}

	m := Money(dollars*100 + cents)
	if negative {
		m = -m
	}
	return m, nil
}

func digitsOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

type moneyJSON struct {
	Cents     int64  `json:"cents"`
	Formatted string `json:"formatted"`
}

// MarshalJSON emits both the exact cents and the display string
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Cents: int64(m), Formatted: m.String()})
}

// UnmarshalJSON accepts integer cents, a display string, or the object form
func (m *Money) UnmarshalJSON(data []byte) error {
	var cents int64
	if err := json.Unmarshal(data, &cents); err == nil {
		*m = Money(cents)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := ParseMoney(s)
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	}

	var obj moneyJSON
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid money value: %s", string(data))
	}
	*m = Money(obj.Cents)
	return nil
}
