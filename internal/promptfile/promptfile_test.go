package promptfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	in := "Coding | Write a quicksort in Go\n\n  Explain TCP slow start  \nMath|2+2? | show work\n | no category\n"
	ps, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []struct{ cat, text string }{
		{"Coding", "Write a quicksort in Go"},
		{"General", "Explain TCP slow start"},
		{"Math", "2+2? | show work"},
		{"General", "no category"},
	}
	if len(ps) != len(want) {
		t.Fatalf("got %d prompts, want %d: %+v", len(ps), len(want), ps)
	}
	for i, w := range want {
		if ps[i].Category != w.cat || ps[i].Text != w.text || !ps[i].Active {
			t.Fatalf("prompt %d = %+v; want %s/%q", i, ps[i], w.cat, w.text)
		}
	}
}

func TestParse_EmptyText(t *testing.T) {
	_, err := Parse(strings.NewReader("ok\nCategory |   \n"))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("want line 2 error, got %v", err)
	}
}

func TestParse_EmptyInput(t *testing.T) {
	ps, err := Parse(strings.NewReader("\n\n"))
	if err != nil || len(ps) != 0 {
		t.Fatalf("got %v, %v", ps, err)
	}
}

func TestParseFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "prompts.txt")
	if err := os.WriteFile(p, []byte("Story | Once upon a time\r\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	ps, err := ParseFile(p)
	if err != nil {
		t.Fatalf("parse file: %v", err)
	}
	if len(ps) != 1 || ps[0].Text != "Once upon a time" {
		t.Fatalf("got %+v", ps)
	}
	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
