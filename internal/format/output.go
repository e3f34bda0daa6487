// Package format writes machine-readable output for the non-interactive
// commands.
package format

import (
	"encoding/json"
	"fmt"
	"io"
)

// Write writes items in the requested format:
//   - json (default): one JSON array
//   - jsonl: one JSON value per line
func Write[T any](w io.Writer, items []T, format string, pretty bool) error {
	switch format {
	case "", "json":
		if items == nil {
			items = []T{}
		}
		return WriteJSON(w, items, pretty)
	case "jsonl":
		return WriteJSONLines(w, items)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteJSON writes v as strict JSON followed by a newline.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	var b []byte
	var err error
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(b))
	return err
}

// WriteJSONLines writes each item as compact JSON on its own line.
func WriteJSONLines[T any](w io.Writer, items []T) error {
	enc := json.NewEncoder(w)
	for _, it := range items {
		if err := enc.Encode(it); err != nil {
			return err
		}
	}
	return nil
}
