package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"llmbench/internal/common/fsutil"
)

// ModelExt is the recognized weight-file extension (matched case-insensitively).
const ModelExt = ".gguf"

// Candidate is a discovered weight file that has not been registered yet.
type Candidate struct {
	Filename string
	Path     string
}

// Discover scans dir for *.gguf files. The returned order is the directory
// listing order; callers must not rely on it being stable across platforms.
func Discover(dir string) ([]Candidate, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read models dir: %w", err)
	}
	var out []Candidate
	for _, e := range entries {
		if !e.Type().IsRegular() && e.Type()&os.ModeSymlink == 0 {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ModelExt) {
			continue
		}
		out = append(out, Candidate{Filename: name, Path: filepath.Join(abs, name)})
	}
	return out, nil
}

// ExcludeFilenames drops candidates whose filename is in seen, keeping order.
func ExcludeFilenames(cands []Candidate, seen map[string]struct{}) []Candidate {
	out := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if _, ok := seen[c.Filename]; ok {
			continue
		}
		out = append(out, c)
	}
	return out
}
