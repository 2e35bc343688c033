package e2e

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"llmbench/internal/bench"
	"llmbench/internal/httpapi"
	"llmbench/internal/llm"
	"llmbench/internal/store"
)

// createTempModelsDir creates a temporary directory populated with small
// .gguf files and returns its path.
func createTempModelsDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		p := filepath.Join(dir, n)
		if err := os.WriteFile(p, []byte("weights"), 0o644); err != nil {
			t.Fatalf("write temp model %s: %v", p, err)
		}
	}
	return dir
}

// gatedAdapter blocks every generation until the test releases it, so the
// run can be observed mid-flight.
type gatedAdapter struct {
	entered chan string
	release chan struct{}
	fail    map[string]bool

	mu     sync.Mutex
	loaded int
}

func newGatedAdapter() *gatedAdapter {
	return &gatedAdapter{entered: make(chan string, 64), release: make(chan struct{}), fail: map[string]bool{}}
}

func (a *gatedAdapter) Load(ctx context.Context, path string) (llm.Handle, error) {
	if a.fail[filepath.Base(path)] {
		return nil, io.ErrUnexpectedEOF
	}
	a.mu.Lock()
	a.loaded++
	a.mu.Unlock()
	return &gatedHandle{a: a, name: filepath.Base(path)}, nil
}

type gatedHandle struct {
	a    *gatedAdapter
	name string
}

func (h *gatedHandle) Generate(ctx context.Context, prompt string) (llm.Generation, error) {
	h.a.entered <- h.name + "/" + prompt
	<-h.a.release
	return llm.Generation{Text: "ok", Tokens: 8}, nil
}

func (h *gatedHandle) Quantization() string { return "" }

func (h *gatedHandle) Close() error {
	h.a.mu.Lock()
	h.a.loaded--
	h.a.mu.Unlock()
	return nil
}

type harness struct {
	st   *store.Store
	orch *bench.Orchestrator
	srv  *httptest.Server
}

func newHarness(t *testing.T, modelsDir string, a llm.Adapter, prompts ...string) *harness {
	t.Helper()
	st, err := store.Open(context.Background(), store.DriverSQLite, filepath.Join(t.TempDir(), "bench.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	ps := make([]store.Prompt, 0, len(prompts))
	for _, p := range prompts {
		ps = append(ps, store.Prompt{Text: p, Category: "E2E", Active: true})
	}
	if _, err := st.InsertPrompts(context.Background(), ps); err != nil {
		t.Fatalf("insert prompts: %v", err)
	}
	orch := bench.New(st, a, bench.Config{ModelsDir: modelsDir, Description: "e2e"}, zerolog.Nop())
	srv := httptest.NewServer(httpapi.NewMux(orch))
	t.Cleanup(srv.Close)
	return &harness{st: st, orch: orch, srv: srv}
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, b
}
