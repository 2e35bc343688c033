// Package promptfile parses plain-text prompt lists.
//
// Each non-blank line is one prompt, either "Category | prompt text" or just
// "prompt text", which lands in the General category. Only the first "|"
// separates; later ones belong to the text.
package promptfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"llmbench/internal/store"
)

// DefaultCategory is used for lines without a category.
const DefaultCategory = "General"

// maxLine bounds a single prompt line.
const maxLine = 1 << 20

// Parse reads prompts from r. Every returned prompt is active.
func Parse(r io.Reader) ([]store.Prompt, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	var out []store.Prompt
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		cat, text := DefaultCategory, line
		if c, t, ok := strings.Cut(line, "|"); ok {
			cat, text = strings.TrimSpace(c), strings.TrimSpace(t)
			if cat == "" {
				cat = DefaultCategory
			}
		}
		if text == "" {
			return nil, fmt.Errorf("line %d: empty prompt text", n)
		}
		out = append(out, store.Prompt{Text: text, Category: cat, Active: true})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read prompts: %w", err)
	}
	return out, nil
}

// ParseFile opens path and parses it.
func ParseFile(path string) ([]store.Prompt, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}
