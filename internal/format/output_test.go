package format

import (
	"bytes"
	"strings"
	"testing"
)

type row struct {
	Key  string `json:"key"`
	Note string `json:"note,omitempty"`
}

func TestWrite_JSONEmptyIsArray(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := Write[row](&buf, nil, "json", false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := buf.String(); got != "[]\n" {
		t.Fatalf("got %q", got)
	}
}

func TestWrite_JSONLines(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	items := []row{{Key: "a.example"}, {Key: "b.example", Note: "x|y"}}
	if err := Write(&buf, items, "jsonl", false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := `{"key":"a.example"}` + "\n" + `{"key":"b.example","note":"x|y"}` + "\n"
	if got := buf.String(); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestWrite_Pretty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := Write(&buf, []row{{Key: "a.example"}}, "json", true); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(buf.String(), "\n  {\n    \"key\": \"a.example\"") {
		t.Fatalf("expected indented output; got %q", buf.String())
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	t.Parallel()

	if err := Write(&bytes.Buffer{}, []row{}, "edn", false); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
