package store

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"spamdb-curses/internal/model"
)

// On-disk format, one record per line:
//
//	key|classification|expiry|note
//
// expiry is RFC3339 in UTC or "-" for none; the note is the rest of the line
// and may itself contain '|'. Blank lines and lines starting with '#' are
// ignored on read. Encode always emits fileHeader followed by records in
// ascending key order, so unchanged data re-encodes to identical bytes.
const (
	fileHeader = "# spamdb v1: key|classification|expiry|note\n"
	noExpiry   = "-"
	fieldSep   = "|"
)

// Decode parses a spamdb file. It stops at the first malformed line and
// rejects duplicate keys instead of letting the later line win.
func Decode(b []byte) ([]model.Record, error) {
	var out []model.Record
	seen := map[string]int{}

	lineNo := 0
	for len(b) > 0 {
		lineNo++
		var line []byte
		if i := bytes.IndexByte(b, '\n'); i >= 0 {
			line, b = b[:i], b[i+1:]
		} else {
			line, b = b, nil
		}
		text := strings.TrimSuffix(string(line), "\r")
		trimmed := strings.TrimSpace(text)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		rec, msg := decodeLine(text)
		if msg != "" {
			return nil, &FormatError{Line: lineNo, Text: text, Msg: msg}
		}
		if first, ok := seen[rec.Key]; ok {
			return nil, &FormatError{Line: lineNo, Text: text, Msg: fmt.Sprintf("duplicate key (first defined on line %d)", first)}
		}
		seen[rec.Key] = lineNo
		out = append(out, rec)
	}
	return out, nil
}

func decodeLine(text string) (model.Record, string) {
	parts := strings.SplitN(text, fieldSep, 4)
	if len(parts) < 3 {
		return model.Record{}, "expected key|classification|expiry[|note]"
	}

	key := strings.TrimSpace(parts[0])
	if key == "" {
		return model.Record{}, "empty key"
	}
	if strings.ContainsAny(key, " \t") {
		return model.Record{}, "key contains whitespace"
	}

	class, err := model.ParseClassification(parts[1])
	if err != nil {
		return model.Record{}, err.Error()
	}

	rec := model.Record{Key: key, Class: class}
	if exp := strings.TrimSpace(parts[2]); exp != noExpiry && exp != "" {
		t, err := time.Parse(time.RFC3339, exp)
		if err != nil {
			return model.Record{}, "bad expiry timestamp"
		}
		t = t.UTC().Truncate(time.Second)
		rec.Expires = &t
	}
	if len(parts) == 4 {
		rec.Note = parts[3]
	}
	return rec, ""
}

// Encode serializes records deterministically: header, then one line per
// record sorted by key. The input slice is not modified.
func Encode(records []model.Record) []byte {
	sorted := make([]model.Record, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	var buf bytes.Buffer
	buf.WriteString(fileHeader)
	for _, r := range sorted {
		buf.WriteString(r.Key)
		buf.WriteString(fieldSep)
		buf.WriteString(string(r.Class))
		buf.WriteString(fieldSep)
		if r.Expires != nil {
			buf.WriteString(r.Expires.UTC().Format(time.RFC3339))
		} else {
			buf.WriteString(noExpiry)
		}
		buf.WriteString(fieldSep)
		buf.WriteString(r.Note)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}
