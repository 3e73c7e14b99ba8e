// Package orders holds views over parsed order rows: the merge-by-part
// number view, totals, and the lenient number and date helpers they use.
package orders

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/spherical/pdf2excel/internal/domain"
)

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// MergedItem is a row of the merged view. MergeCount is the number of
// source rows folded into it.
type MergedItem struct {
	domain.OrderItem
	MergeCount int `json:"_mergeCount"`
}

// ParseAmount reads a number from opaque row text. Thousands separators
// are ignored and trailing junk after a leading number is dropped; text
// with no leading number is 0.
func ParseAmount(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return finite(v)
	}
	m := leadingNumber.FindString(s)
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return finite(v)
}

// FormatNumber renders v with a fixed number of decimals; non-finite
// values render as "0".
func FormatNumber(v float64, decimals int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

// FormatDate turns YYYYMMDD into YYYY-MM-DD. Anything else is returned
// unchanged.
func FormatDate(s string) string {
	r := []rune(s)
	if len(r) != 8 {
		return s
	}
	return string(r[0:4]) + "-" + string(r[4:6]) + "-" + string(r[6:8])
}

// Totals sums quantity and amount over items.
func Totals(items []domain.OrderItem) (quantity, amount float64) {
	for _, it := range items {
		quantity += ParseAmount(it.Quantity)
		amount += ParseAmount(it.Amount)
	}
	return quantity, amount
}

type group struct {
	key        string
	base       domain.OrderItem
	items      []domain.OrderItem
	qty        float64
	amount     float64
	priceTotal float64
}

// MergeByPartNo folds rows sharing a part number into one row, in order of
// first appearance. Rows without a part number are keyed by id. Single-row
// groups pass through untouched.
func MergeByPartNo(items []domain.OrderItem) []MergedItem {
	var order []*group
	byKey := make(map[string]*group)

	for _, it := range items {
		key := strings.TrimSpace(it.PartNo)
		if key == "" {
			key = it.ID
		}

		g, ok := byKey[key]
		if !ok {
			g = &group{key: key, base: it}
			byKey[key] = g
			order = append(order, g)
		}
		g.items = append(g.items, it)

		qty := ParseAmount(it.Quantity)
		price := ParseAmount(it.UnitPrice)
		amount := ParseAmount(it.Amount)
		if amount == 0 {
			amount = qty * price
		}
		g.qty += qty
		g.amount += amount
		g.priceTotal += qty * price
	}

	out := make([]MergedItem, 0, len(order))
	for _, g := range order {
		if len(g.items) <= 1 {
			out = append(out, MergedItem{OrderItem: g.base, MergeCount: 1})
			continue
		}

		var price float64
		if g.qty > 0 {
			price = g.priceTotal / g.qty
		}
		merged := g.base
		merged.ID = g.key
		merged.Quantity = FormatNumber(g.qty, 2)
		merged.UnitPrice = FormatNumber(price, 6)
		merged.Amount = FormatNumber(g.amount, 4)
		merged.PlannedDeliveryDate = mergeDates(g.items, func(it domain.OrderItem) string { return it.PlannedDeliveryDate })
		merged.OrderDueDate = mergeDates(g.items, func(it domain.OrderItem) string { return it.OrderDueDate })

		out = append(out, MergedItem{OrderItem: merged, MergeCount: len(g.items)})
	}
	return out
}

// Flatten drops merge bookkeeping so a merged view can be exported.
func Flatten(items []MergedItem) []domain.OrderItem {
	out := make([]domain.OrderItem, len(items))
	for i, it := range items {
		out[i] = it.OrderItem
	}
	return out
}

// mergeDates keeps a single date when every row carries the same one and
// otherwise lists "date(qty)" per row, with "-" for a missing date.
func mergeDates(items []domain.OrderItem, field func(domain.OrderItem) string) string {
	dates := make([]string, len(items))
	unique := make(map[string]struct{})
	nonEmpty := 0
	for i, it := range items {
		d := strings.TrimSpace(field(it))
		dates[i] = d
		if d != "" {
			nonEmpty++
			unique[d] = struct{}{}
		}
	}
	if nonEmpty == len(items) && len(unique) == 1 {
		return dates[0]
	}

	parts := make([]string, len(items))
	for i, it := range items {
		d := dates[i]
		if d == "" {
			d = "-"
		}
		parts[i] = d + "(" + qtyLabel(it) + ")"
	}
	return strings.Join(parts, ", ")
}

func qtyLabel(it domain.OrderItem) string {
	if raw := strings.TrimSpace(it.Quantity); raw != "" {
		return raw
	}
	return FormatNumber(ParseAmount(it.Quantity), 2)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
