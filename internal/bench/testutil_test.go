package bench

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"llmbench/internal/llm"
	"llmbench/internal/store"
)

// fakeAdapter is an in-memory backend that records load/close pairs.
type fakeAdapter struct {
	mu      sync.Mutex
	live    int
	maxLive int
	loads   []string
	closes  int

	failLoad    map[string]bool // by filename
	failPrompt  map[string]bool // by prompt text
	panicPrompt map[string]bool // by prompt text
	quant       string
	tokens      int
	onGenerate  func(prompt string)
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{
		failLoad:    map[string]bool{},
		failPrompt:  map[string]bool{},
		panicPrompt: map[string]bool{},
		tokens:      10,
	}
}

func (a *fakeAdapter) Load(ctx context.Context, path string) (llm.Handle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	name := filepath.Base(path)
	a.loads = append(a.loads, name)
	if a.failLoad[name] {
		return nil, errors.New("invalid magic")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	a.live++
	if a.live > a.maxLive {
		a.maxLive = a.live
	}
	return &fakeHandle{a: a, name: name}, nil
}

type fakeHandle struct {
	a      *fakeAdapter
	name   string
	closed bool
}

func (h *fakeHandle) Generate(ctx context.Context, prompt string) (llm.Generation, error) {
	if h.a.onGenerate != nil {
		h.a.onGenerate(prompt)
	}
	if h.a.panicPrompt[prompt] {
		panic("backend exploded")
	}
	if h.a.failPrompt[prompt] {
		return llm.Generation{}, errors.New("context window exceeded")
	}
	return llm.Generation{Text: h.name + ": " + prompt, Tokens: h.a.tokens}, nil
}

func (h *fakeHandle) Quantization() string { return h.a.quant }

func (h *fakeHandle) Close() error {
	h.a.mu.Lock()
	defer h.a.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	h.a.live--
	h.a.closes++
	return nil
}

// stepClock advances by step on every reading.
type stepClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.t
	c.t = c.t.Add(c.step)
	return t
}

type fixture struct {
	st      *store.Store
	adapter *fakeAdapter
	dir     string
	dbPath  string
	orch    *Orchestrator
}

func newFixture(t *testing.T, prompts ...string) *fixture {
	t.Helper()
	root := t.TempDir()
	dbPath := filepath.Join(root, "bench.db")
	st, err := store.Open(context.Background(), store.DriverSQLite, dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	if len(prompts) > 0 {
		ps := make([]store.Prompt, 0, len(prompts))
		for _, p := range prompts {
			ps = append(ps, store.Prompt{Text: p, Active: true})
		}
		if _, err := st.InsertPrompts(context.Background(), ps); err != nil {
			t.Fatalf("insert prompts: %v", err)
		}
	}
	dir := filepath.Join(root, "models")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	a := newFakeAdapter()
	o := New(st, a, Config{ModelsDir: dir}, zerolog.Nop())
	clk := &stepClock{t: time.Unix(1_700_000_000, 0), step: 2 * time.Second}
	o.now = clk.Now
	return &fixture{st: st, adapter: a, dir: dir, dbPath: dbPath, orch: o}
}

func (f *fixture) addModel(t *testing.T, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(f.dir, name), make([]byte, 1024), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}
}

// rejectResults makes every later Results insert fail. It goes through a
// second connection so the orchestrator's store is left untouched.
func (f *fixture) rejectResults(t *testing.T) {
	t.Helper()
	db, err := sql.Open("sqlite", f.dbPath)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(`CREATE TRIGGER reject_results BEFORE INSERT ON Results
		BEGIN SELECT RAISE(ABORT, 'disk full'); END`); err != nil {
		t.Fatalf("create trigger: %v", err)
	}
}

func (f *fixture) sessionCount(t *testing.T) int {
	t.Helper()
	ss, err := f.st.Sessions(context.Background(), 0)
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	return len(ss)
}
