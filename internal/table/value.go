package table

// value.go normalizes resolved column values so that the display subset,
// the filter predicate, the comparator and every encoder agree on them.
//
// Resolved values arrive in many shapes: plain Go scalars from static rows,
// pgtype wrappers from pgx row maps, decimal.Decimal from derived columns,
// json.Number from decoded request bodies. Normalize collapses them to a small
// set of kinds:
//
//   - nil (including invalid/NULL pgtype values)
//   - string
//   - bool
//   - int64
//   - float64
//   - decimal.Decimal
//   - time.Time
//
// Anything else is passed through unchanged and is stringified with fmt.

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Normalize unwraps value into one of the canonical kinds listed above.
func Normalize(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case string, bool, int64, float64, decimal.Decimal, time.Time:
		return v
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint:
		if uint64(v) > math.MaxInt64 {
			return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(v)), 0)
		}
		return int64(v)
	case uint64:
		if v > math.MaxInt64 {
			return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
		}
		return int64(v)
	case float32:
		return float64(v)
	case []byte:
		return string(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if d, err := decimal.NewFromString(v.String()); err == nil {
			return d
		}
		return v.String()
	case *decimal.Decimal:
		if v == nil {
			return nil
		}
		return *v

	case pgtype.Numeric:
		if !v.Valid || v.NaN || v.InfinityModifier != pgtype.Finite || v.Int == nil {
			return nil
		}
		return decimal.NewFromBigInt(v.Int, v.Exp)
	case pgtype.Text:
		if !v.Valid {
			return nil
		}
		return v.String
	case pgtype.Bool:
		if !v.Valid {
			return nil
		}
		return v.Bool
	case pgtype.Date:
		if !v.Valid || v.InfinityModifier != pgtype.Finite {
			return nil
		}
		return v.Time
	case pgtype.Timestamp:
		if !v.Valid || v.InfinityModifier != pgtype.Finite {
			return nil
		}
		return v.Time
	case pgtype.Timestamptz:
		if !v.Valid || v.InfinityModifier != pgtype.Finite {
			return nil
		}
		return v.Time
	case pgtype.Int2:
		if !v.Valid {
			return nil
		}
		return int64(v.Int16)
	case pgtype.Int4:
		if !v.Valid {
			return nil
		}
		return int64(v.Int32)
	case pgtype.Int8:
		if !v.Valid {
			return nil
		}
		return v.Int64
	case pgtype.Float4:
		if !v.Valid {
			return nil
		}
		return float64(v.Float32)
	case pgtype.Float8:
		if !v.Valid {
			return nil
		}
		return v.Float64
	case pgtype.UUID:
		if !v.Valid {
			return nil
		}
		return uuid.UUID(v.Bytes).String()
	case [16]byte:
		// pgx decodes uuid columns into [16]byte when scanning into any.
		return uuid.UUID(v).String()
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		return Normalize(rv.Elem().Interface())
	}
	return value
}

// Stringify renders a resolved value as display text. The display subset,
// the filter predicate and the text encoders all use it.
func Stringify(value any) string {
	switch v := Normalize(value).(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case decimal.Decimal:
		return v.String()
	case time.Time:
		return formatTime(v)
	case fmt.Stringer:
		return v.String()
	case error:
		return v.Error()
	default:
		return fmt.Sprint(v)
	}
}

// formatTime prints dates without a clock component.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 && t.Location() == time.UTC {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339)
}
