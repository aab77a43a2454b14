package catalog

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/kailas-cloud/kitfinder/internal/domain"
)

// MalformedPriceError reports a catalog record whose price cannot be normalized.
type MalformedPriceError struct {
	Index int
	Name  string
	Raw   string
	Err   error
}

func (e *MalformedPriceError) Error() string {
	return fmt.Sprintf("%s: record %d (%q): price %q: %v",
		domain.ErrMalformedPrice.Error(), e.Index, e.Name, e.Raw, e.Err)
}

// Is matches domain.ErrMalformedPrice.
func (e *MalformedPriceError) Is(target error) bool { return target == domain.ErrMalformedPrice }

func (e *MalformedPriceError) Unwrap() error { return e.Err }

// ParsePrice normalizes a currency-formatted price: the "$" symbol and ","
// thousands separators are stripped, the rest must be a non-negative decimal.
// "$1,234.50" parses to 1234.50.
func ParsePrice(raw string) (decimal.Decimal, error) {
	s := strings.Trim(strings.TrimSpace(raw), "$")
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("empty price")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("not a number: %w", err)
	}
	if d.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("negative price")
	}
	return d, nil
}

// RawPrice is the price as found in the raw catalog: usually a quoted
// currency string, occasionally a bare JSON number.
type RawPrice string

// UnmarshalJSON accepts both a JSON string and a JSON number.
func (p *RawPrice) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	if len(data) >= 2 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode price: %w", err)
		}
		*p = RawPrice(s)
		return nil
	}
	*p = RawPrice(data)
	return nil
}
