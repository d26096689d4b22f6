package catalog

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Placeholder is rendered wherever a catalog field is missing or unparsable.
const Placeholder = "dato no encontrado"

// FlexNumber is a numeric catalog field that tolerates sloppy source data:
// the column may hold a number, a numeric string ("480", "297.00"), or NULL.
type FlexNumber struct {
	Value float64
	Valid bool
}

// Num builds a valid FlexNumber. Test helper mostly.
func Num(v float64) FlexNumber {
	return FlexNumber{Value: v, Valid: true}
}

// Scan implements the database/sql Scanner contract.
func (n *FlexNumber) Scan(src any) error {
	if src == nil {
		*n = FlexNumber{}
		return nil
	}
	v, ok := coerceFloat(src)
	if !ok {
		*n = FlexNumber{}
		return nil
	}
	*n = FlexNumber{Value: v, Valid: true}
	return nil
}

// UnmarshalJSON accepts numbers, numeric strings, and null.
func (n *FlexNumber) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*n = FlexNumber{}
		return nil
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, ok := coerceFloat(raw)
	if !ok {
		*n = FlexNumber{}
		return nil
	}
	*n = FlexNumber{Value: v, Valid: true}
	return nil
}

// MarshalJSON emits the number or null.
func (n FlexNumber) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Int truncates to an integer; zero when invalid.
func (n FlexNumber) Int() int {
	if !n.Valid {
		return 0
	}
	return int(n.Value)
}

func coerceFloat(src any) (float64, bool) {
	switch v := src.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case []byte:
		return parseFloatString(string(v))
	case string:
		return parseFloatString(v)
	default:
		return 0, false
	}
}

func parseFloatString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	// Tolerate currency decoration ("$297.00", "297,00 USD").
	s = strings.Trim(s, "$ ")
	s = strings.ReplaceAll(s, ",", ".")
	fields := strings.Fields(s)
	if len(fields) > 0 {
		s = fields[0]
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// FormatPrice renders a price as integer USD when the fractional part is
// zero, two decimals otherwise. Invalid values render as the placeholder.
func FormatPrice(price FlexNumber, currency string) string {
	if !price.Valid {
		return Placeholder
	}
	if currency == "" {
		currency = "USD"
	}
	if price.Value == math.Trunc(price.Value) {
		return fmt.Sprintf("$%d %s", int64(price.Value), currency)
	}
	return fmt.Sprintf("$%.2f %s", price.Value, currency)
}

// FormatDuration renders minutes as "Xh Ym" at or above one hour, "Zm" below.
func FormatDuration(minutes FlexNumber) string {
	if !minutes.Valid {
		return Placeholder
	}
	total := int(minutes.Value)
	if total < 0 {
		return Placeholder
	}
	if total < 60 {
		return fmt.Sprintf("%dm", total)
	}
	h := total / 60
	m := total % 60
	return fmt.Sprintf("%dh %dm", h, m)
}

// FormatCount renders a whole number or the placeholder.
func FormatCount(n FlexNumber) string {
	if !n.Valid {
		return Placeholder
	}
	return strconv.Itoa(n.Int())
}

// TextOrPlaceholder dereferences an optional text column.
func TextOrPlaceholder(s *string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return Placeholder
	}
	return *s
}
