package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var expiryLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseExpiry parses user-entered expiry text. Empty input (or "-", "never")
// means no expiry. Relative input like "+90m", "+36h" or "+7d" is resolved
// against now. Absolute times without a zone are taken as UTC.
func ParseExpiry(s string, now time.Time) (*time.Time, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "-", "never", "none":
		return nil, nil
	}

	if strings.HasPrefix(s, "+") {
		d, err := parseRelative(s[1:])
		if err != nil {
			return nil, &ValidationError{Field: "expiry", Msg: err.Error()}
		}
		t := now.Add(d).UTC().Truncate(time.Second)
		return &t, nil
	}

	for _, layout := range expiryLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC().Truncate(time.Second)
			return &t, nil
		}
	}
	return nil, &ValidationError{Field: "expiry", Msg: fmt.Sprintf("cannot parse %q (use RFC3339, YYYY-MM-DD, or +7d)", s)}
}

// maxRelativeDays is the largest "+Nd" that fits in a time.Duration.
const maxRelativeDays = math.MaxInt64 / int64(24*time.Hour)

func parseRelative(s string) (time.Duration, error) {
	if strings.HasSuffix(s, "d") {
		n, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil || n < 0 {
			return 0, fmt.Errorf("bad day count %q", s)
		}
		if int64(n) > maxRelativeDays {
			return 0, fmt.Errorf("day count %q is too large (max %d)", s, maxRelativeDays)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("bad duration %q", s)
	}
	return d, nil
}

// FormatExpiry renders an expiry the way the edit form accepts it back.
func FormatExpiry(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
