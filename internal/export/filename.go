package export

import (
	"strings"
	"time"
)

// TimestampLayout is appended to every export filename.
const TimestampLayout = "20060102_150405"

// Filename returns "<base>_<timestamp>" without an extension. Characters
// outside [A-Za-z0-9._-] become underscores; an empty base becomes "export".
func Filename(base string, now time.Time) string {
	return sanitizeBase(base) + "_" + now.Format(TimestampLayout)
}

func sanitizeBase(base string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.TrimSpace(base) {
		ok := r == '.' || r == '-' || r == '_' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !ok {
			r = '_'
		}
		if r == '_' && lastUnderscore {
			continue
		}
		lastUnderscore = r == '_'
		b.WriteRune(r)
	}

	s := strings.Trim(b.String(), "._")
	if s == "" {
		return DefaultFilename
	}
	return s
}
