package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), DriverSQLite, filepath.Join(t.TempDir(), "bench.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func strp(s string) *string { return &s }

func TestOpen_AppliesSchemaIdempotently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.db")
	for i := 0; i < 2; i++ {
		s, err := Open(context.Background(), DriverSQLite, path)
		if err != nil {
			t.Fatalf("open #%d: %v", i, err)
		}
		if err := s.Check(context.Background()); err != nil {
			t.Fatalf("check #%d: %v", i, err)
		}
		_ = s.Close()
	}
}

func TestOpen_Errors(t *testing.T) {
	if _, err := Open(context.Background(), DriverSQLite, ""); err == nil {
		t.Fatalf("expected error on empty dsn")
	}
	if _, err := Open(context.Background(), "oracle", "x"); err == nil {
		t.Fatalf("expected error on unsupported driver")
	}
}

func TestRebind(t *testing.T) {
	pg := &Store{driver: DriverPostgres}
	if got := pg.rebind("a = ? AND b = ?"); got != "a = $1 AND b = $2" {
		t.Fatalf("postgres rebind: %q", got)
	}
	lite := &Store{driver: DriverSQLite}
	if got := lite.rebind("a = ?"); got != "a = ?" {
		t.Fatalf("sqlite rebind: %q", got)
	}
}

func TestActivePrompts_InsertionOrderAndActiveFilter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	n, err := s.InsertPrompts(ctx, []Prompt{
		{Text: "first", Category: "A", Active: true},
		{Text: "second", Active: true},
		{Text: "third", Category: "C", Active: true},
	})
	if err != nil || n != 3 {
		t.Fatalf("insert prompts: n=%d err=%v", n, err)
	}
	ps, err := s.ActivePrompts(ctx)
	if err != nil {
		t.Fatalf("active prompts: %v", err)
	}
	if len(ps) != 3 || ps[0].Text != "first" || ps[2].Text != "third" {
		t.Fatalf("unexpected prompts: %+v", ps)
	}
	if ps[1].Category != "General" {
		t.Fatalf("default category not applied: %q", ps[1].Category)
	}
	if err := s.SetPromptActive(ctx, ps[1].ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	ps, _ = s.ActivePrompts(ctx)
	if len(ps) != 2 || ps[0].Text != "first" || ps[1].Text != "third" {
		t.Fatalf("unexpected prompts after deactivate: %+v", ps)
	}
	if err := s.SetPromptActive(ctx, 999, true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInsertModel_UniqueFilename(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	id, inserted, err := s.InsertModel(ctx, Model{Filename: "a.gguf", Path: "/m/a.gguf", FileSizeMB: 1.5})
	if err != nil || !inserted || id == 0 {
		t.Fatalf("first insert: id=%d inserted=%v err=%v", id, inserted, err)
	}
	_, inserted, err = s.InsertModel(ctx, Model{Filename: "a.gguf", Path: "/other/a.gguf"})
	if err != nil {
		t.Fatalf("second insert: %v", err)
	}
	if inserted {
		t.Fatalf("duplicate filename inserted")
	}
	ms, err := s.Models(ctx)
	if err != nil || len(ms) != 1 {
		t.Fatalf("models: %+v err=%v", ms, err)
	}
	if ms[0].Path != "/m/a.gguf" || ms[0].Quantization != nil {
		t.Fatalf("unexpected model: %+v", ms[0])
	}
}

func TestSetQuantizationIfNull(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	id, _, _ := s.InsertModel(ctx, Model{Filename: "a.gguf", Path: "a.gguf"})
	ok, err := s.SetQuantizationIfNull(ctx, id, "Q4_K_M")
	if err != nil || !ok {
		t.Fatalf("first backfill: ok=%v err=%v", ok, err)
	}
	ok, err = s.SetQuantizationIfNull(ctx, id, "F16")
	if err != nil || ok {
		t.Fatalf("second backfill should be a no-op: ok=%v err=%v", ok, err)
	}
	m, err := s.ModelByFilename(ctx, "a.gguf")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if m.Quantization == nil || *m.Quantization != "Q4_K_M" {
		t.Fatalf("quantization = %v", m.Quantization)
	}
	if _, err := s.ModelByFilename(ctx, "missing.gguf"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	start := time.Now()
	id, err := s.InsertSession(ctx, "run", 2, 3, start)
	if err != nil {
		t.Fatalf("insert session: %v", err)
	}
	inc, err := s.IncompleteSessions(ctx)
	if err != nil || len(inc) != 1 || inc[0].ID != id {
		t.Fatalf("incomplete: %+v err=%v", inc, err)
	}
	for i := 0; i < 2; i++ {
		if err := s.IncrementModelsCompleted(ctx, id); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}
	if err := s.FinishSession(ctx, id, StatusCompleted, time.Now()); err != nil {
		t.Fatalf("finish: %v", err)
	}
	sess, err := s.Session(ctx, id)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if sess.ModelsCompleted != 2 || sess.TotalModels != 2 || sess.TotalPrompts != 3 {
		t.Fatalf("unexpected counters: %+v", sess)
	}
	if sess.Status != StatusCompleted || sess.EndTime == nil {
		t.Fatalf("session not closed: %+v", sess)
	}
	if sess.StartTime.IsZero() {
		t.Fatalf("start time not recorded")
	}
	inc, _ = s.IncompleteSessions(ctx)
	if len(inc) != 0 {
		t.Fatalf("closed session still incomplete: %+v", inc)
	}
	if err := s.IncrementModelsCompleted(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResultsAndSummary(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_, _ = s.InsertPrompts(ctx, []Prompt{{Text: "hello", Category: "greet", Active: true}})
	ps, _ := s.ActivePrompts(ctx)
	mid, _, _ := s.InsertModel(ctx, Model{Filename: "m.Q8_0.gguf", Path: "m.Q8_0.gguf", Quantization: strp("Q8_0")})
	bad, _, _ := s.InsertModel(ctx, Model{Filename: "bad.gguf", Path: "bad.gguf"})
	sid, _ := s.InsertSession(ctx, "summary", 2, 1, time.Now())

	secs, tps, tokens := 2.0, 5.0, 10
	if _, err := s.InsertResult(ctx, Result{SessionID: sid, ModelID: mid, PromptID: &ps[0].ID,
		OutputText: strp("hi"), ExecSeconds: &secs, TokensGenerated: &tokens, TokensPerSecond: &tps}); err != nil {
		t.Fatalf("insert ok result: %v", err)
	}
	if _, err := s.InsertResult(ctx, Result{SessionID: sid, ModelID: bad, Error: strp("load failed")}); err != nil {
		t.Fatalf("insert failed result: %v", err)
	}

	rs, err := s.SessionResults(ctx, sid)
	if err != nil || len(rs) != 2 {
		t.Fatalf("results: %+v err=%v", rs, err)
	}
	if rs[0].Error != nil || rs[0].TokensGenerated == nil || *rs[0].TokensGenerated != 10 {
		t.Fatalf("unexpected success row: %+v", rs[0])
	}
	if rs[1].PromptID != nil || rs[1].OutputText != nil || rs[1].Error == nil {
		t.Fatalf("unexpected failure row: %+v", rs[1])
	}

	names, err := s.BenchmarkedFilenames(ctx)
	if err != nil {
		t.Fatalf("benchmarked: %v", err)
	}
	if _, ok := names["bad.gguf"]; !ok || len(names) != 2 {
		t.Fatalf("unexpected benchmarked set: %v", names)
	}

	rows, err := s.Summary(ctx, sid)
	if err != nil || len(rows) != 2 {
		t.Fatalf("summary: %+v err=%v", rows, err)
	}
	if rows[0].Quantization != "Q8_0" || rows[0].PromptCategory != "greet" || rows[0].OutputText != "hi" {
		t.Fatalf("unexpected summary row: %+v", rows[0])
	}
	if rows[1].PromptID != nil || rows[1].Error != "load failed" {
		t.Fatalf("unexpected summary failure row: %+v", rows[1])
	}
	all, _ := s.Summary(ctx, 0)
	if len(all) != 2 {
		t.Fatalf("summary(all) = %d rows", len(all))
	}
}
