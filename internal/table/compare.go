package table

import (
	"cmp"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

// dateLayouts are the string forms that parse unambiguously as dates.
// Day/month-ambiguous forms such as 01/02/2006 are not accepted.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
}

// ParseDate parses s when it matches one of the unambiguous date layouts.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	// The shortest accepted form is ten characters.
	if len(s) < 10 {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// A cases.Caser is stateful, so each comparison borrows its own.
var folderPool = sync.Pool{
	New: func() any { return cases.Fold() },
}

// fold returns the case-folded form of s.
func fold(s string) string {
	c := folderPool.Get().(cases.Caser)
	defer folderPool.Put(c)
	return c.String(s)
}

// Value kinds in sort order. Values of different kinds compare by kind, so
// a column mixing numbers and text still sorts in a well-defined order.
const (
	kindEmpty = iota
	kindNumber
	kindTime
	kindBool
	kindText
)

// CompareValues is the default type-aware comparator.
//
// Ordering rules, applied to normalized values:
//   - nil and "" sort before everything else
//   - numbers compare numerically
//   - time.Time values, and strings that parse as dates, compare as instants
//   - bools order false before true
//   - everything else compares as case-folded text
//
// Across kinds the order is empty, numbers, dates, bools, text.
func CompareValues(a, b any) int {
	a, b = Normalize(a), Normalize(b)

	ka, kb := kindOf(a), kindOf(b)
	if ka != kb {
		return cmp.Compare(ka, kb)
	}

	switch ka {
	case kindEmpty:
		return 0
	case kindNumber:
		return compareNumbers(a, b)
	case kindTime:
		at, _ := asTime(a)
		bt, _ := asTime(b)
		return at.Compare(bt)
	case kindBool:
		return compareBools(a.(bool), b.(bool))
	default:
		return compareText(Stringify(a), Stringify(b))
	}
}

func kindOf(v any) int {
	switch t := v.(type) {
	case nil:
		return kindEmpty
	case int64, float64, decimal.Decimal:
		return kindNumber
	case time.Time:
		return kindTime
	case bool:
		return kindBool
	case string:
		if t == "" {
			return kindEmpty
		}
		if _, ok := ParseDate(t); ok {
			return kindTime
		}
	}
	return kindText
}

// compareNumbers handles int64, float64 and decimal.Decimal in any pairing.
func compareNumbers(a, b any) int {
	if ai, ok := a.(int64); ok {
		if bi, ok := b.(int64); ok {
			return cmp.Compare(ai, bi)
		}
	}

	ad, aOK := toDecimal(a)
	bd, bOK := toDecimal(b)
	if aOK && bOK {
		return ad.Cmp(bd)
	}
	// A non-finite float is involved. cmp.Compare orders NaN first.
	return cmp.Compare(toFloat(a), toFloat(b))
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int64:
		return float64(n)
	case float64:
		return n
	case decimal.Decimal:
		return n.InexactFloat64()
	}
	return math.NaN()
}

// toDecimal converts numeric kinds. Non-finite floats have no decimal form.
func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case int64:
		return decimal.NewFromInt(n), true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(n), true
	case decimal.Decimal:
		return n, true
	}
	return decimal.Decimal{}, false
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		return ParseDate(t)
	}
	return time.Time{}, false
}

func compareBools(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

// compareText compares case-insensitively. Strings differing only in case
// compare equal so the stable sort keeps their original order.
func compareText(a, b string) int {
	return strings.Compare(fold(a), fold(b))
}
