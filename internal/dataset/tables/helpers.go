package tables

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/datatable/internal/table"
)

// Now is the reference time for age-like derived columns.
var Now = time.Now

// headerIndex maps lowercase header names to their position in a seed record.
type headerIndex map[string]int

func makeHeaderIndex(header []string) headerIndex {
	idx := make(headerIndex, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

// getCell returns the named cell of a seed record, or "" when absent.
func getCell(record []string, idx headerIndex, name string) string {
	i, ok := idx[strings.ToLower(name)]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}

// decimalField reads a numeric row value. Missing values are zero.
func decimalField(r table.Row, key string) (decimal.Decimal, error) {
	switch v := table.Normalize(r[key]).(type) {
	case nil:
		return decimal.Zero, nil
	case decimal.Decimal:
		return v, nil
	case int64:
		return decimal.NewFromInt(v), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		return decimal.NewFromString(v)
	default:
		return decimal.Zero, fmt.Errorf("%s: unexpected %T", key, v)
	}
}

// timeField reads a date row value. ok is false when the value is missing.
func timeField(r table.Row, key string) (t time.Time, ok bool, err error) {
	switch v := table.Normalize(r[key]).(type) {
	case nil:
		return time.Time{}, false, nil
	case time.Time:
		return v, true, nil
	case string:
		if t, ok := table.ParseDate(v); ok {
			return t, true, nil
		}
		return time.Time{}, false, fmt.Errorf("%s: not a date: %q", key, v)
	default:
		return time.Time{}, false, fmt.Errorf("%s: unexpected %T", key, v)
	}
}
