package invoice

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/garyjia/quickquote/internal/domain/entity"
)

// Defaults used when an item leaves out quantity or price
const (
	defaultQuantity = 1.0
	defaultPrice    = 0.0
)

// Row is a line item that survived coercion, ready for the table
type Row struct {
	Description string
	Quantity    float64
	UnitPrice   float64
	LineTotal   float64
}

// DisplayQuantity is the Qty column text. The quantity is truncated toward
// zero for display only; LineTotal keeps the fractional value.
func (r Row) DisplayQuantity() string {
	t := math.Trunc(r.Quantity)
	if t == 0 {
		t = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(t, 'f', 0, 64)
}

// Table is the coerced content of an invoice
type Table struct {
	Rows       []Row
	GrandTotal float64
	Skipped    int
}

// BuildTable coerces every item in order. Items whose quantity or price
// cannot be read as a number are left out of both the rows and the total,
// as is an item that would push the total past the float64 range.
func BuildTable(items []entity.LineItem) Table {
	table := Table{Rows: make([]Row, 0, len(items))}
	for _, item := range items {
		row, ok := CoerceItem(item)
		if !ok || math.IsInf(table.GrandTotal+row.LineTotal, 0) {
			table.Skipped++
			continue
		}
		table.Rows = append(table.Rows, row)
		table.GrandTotal += row.LineTotal
	}
	return table
}

// CoerceItem converts one item into a Row; ok is false when it must be skipped
func CoerceItem(item entity.LineItem) (Row, bool) {
	if item.Malformed {
		return Row{}, false
	}
	qty, ok := coerceNumber(item.Quantity, defaultQuantity)
	if !ok {
		return Row{}, false
	}
	price, ok := coerceNumber(item.Price, defaultPrice)
	if !ok {
		return Row{}, false
	}
	total := qty * price
	if math.IsInf(total, 0) || math.IsNaN(total) {
		return Row{}, false
	}
	return Row{
		Description: item.Description,
		Quantity:    qty,
		UnitPrice:   price,
		LineTotal:   total,
	}, true
}

// coerceNumber reads a JSON number, a numeric string or a boolean.
// An absent value yields fallback; null, objects, arrays, unparseable
// strings and non-finite numbers fail.
func coerceNumber(raw json.RawMessage, fallback float64) (float64, bool) {
	if raw == nil {
		return fallback, true
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return fallback, true
	}

	var v float64
	switch {
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		s = strings.TrimSpace(s)
		if isHexLiteral(s) {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		v = f
	case bytes.Equal(raw, []byte("true")):
		v = 1
	case bytes.Equal(raw, []byte("false")):
		v = 0
	case raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9'):
		f, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return 0, false
		}
		v = f
	default:
		return 0, false
	}

	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// isHexLiteral reports a 0x-prefixed number, which ParseFloat would accept
func isHexLiteral(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}
