package store

import (
	"strings"
	"time"

	"spamdb-curses/internal/model"
)

// ParseQuery turns search text into a Predicate. Terms are separated by
// whitespace and must all match:
//
//	is:allow, is:deny, is:greylist   classification (aliases accepted)
//	is:expired, is:permanent         expiry state at now
//	anything else                    case-insensitive substring of key or note
//
// An empty query matches everything and returns nil.
func ParseQuery(q string, now time.Time) Predicate {
	terms := strings.Fields(q)
	if len(terms) == 0 {
		return nil
	}

	preds := make([]Predicate, 0, len(terms))
	for _, term := range terms {
		preds = append(preds, parseTerm(term, now))
	}
	return func(r model.Record) bool {
		for _, p := range preds {
			if !p(r) {
				return false
			}
		}
		return true
	}
}

func parseTerm(term string, now time.Time) Predicate {
	lower := strings.ToLower(term)
	if v, ok := strings.CutPrefix(lower, "is:"); ok {
		switch v {
		case "expired":
			return func(r model.Record) bool { return r.Expired(now) }
		case "permanent":
			return func(r model.Record) bool { return r.Expires == nil }
		}
		if c, err := model.ParseClassification(v); err == nil {
			return func(r model.Record) bool { return r.Class == c }
		}
		// Not a known filter; treat it as literal text.
	}
	return func(r model.Record) bool {
		return strings.Contains(strings.ToLower(r.Key), lower) ||
			strings.Contains(strings.ToLower(r.Note), lower)
	}
}
