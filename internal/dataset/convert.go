package dataset

// convert.go builds the pgtype values pgx would return for a row, from the
// loose text found in seed files and spreadsheets:
//   - Currency symbols, thousands separators and accounting negatives
//   - Several unambiguous date layouts
//   - Various boolean spellings (yes/no, true/false, 1/0)
//
// Every function returns Valid=false for empty or unparseable input, which
// the table package renders as an empty cell.

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// numericRegex matches integers, decimals and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// dateLayouts are tried in order. Day-first and month-first numeric forms
// are not accepted.
var dateLayouts = []string{
	"2006-01-02", "2006/01/02", "2006.01.02",
	"Jan 2, 2006", "2 Jan 2006",
	"20060102",
}

// Text converts s to pgtype.Text. Blank input is NULL.
func Text(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

// Date converts s to pgtype.Date.
func Date(s string) pgtype.Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Date{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return pgtype.Date{Time: t, Valid: true}
		}
	}
	return pgtype.Date{}
}

// Numeric converts s to pgtype.Numeric. Currency symbols ($, €, £),
// thousands separators and "(123.45)" accounting negatives are accepted.
func Numeric(s string) pgtype.Numeric {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Numeric{}
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.NewReplacer("$", "", "€", "", "£", "", ",", "").Replace(s)
	s = strings.TrimSpace(s)
	if negative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return pgtype.Numeric{}
	}

	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		return pgtype.Numeric{}
	}
	return n
}

// Bool converts s to pgtype.Bool. Accepts true/false, yes/no, t/f, y/n, 1/0.
func Bool(s string) pgtype.Bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y", "1":
		return pgtype.Bool{Bool: true, Valid: true}
	case "false", "f", "no", "n", "0":
		return pgtype.Bool{Bool: false, Valid: true}
	default:
		return pgtype.Bool{}
	}
}

// UUID converts s to pgtype.UUID.
func UUID(s string) pgtype.UUID {
	parsed, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}
}
