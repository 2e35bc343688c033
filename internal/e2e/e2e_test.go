package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"llmbench/internal/bench"
	"llmbench/pkg/types"
)

type runResult struct {
	sum bench.Summary
	err error
}

func startRun(h *harness, ctx context.Context, mode bench.Mode) <-chan runResult {
	ch := make(chan runResult, 1)
	go func() {
		sum, err := h.orch.Run(ctx, mode)
		ch <- runResult{sum, err}
	}()
	return ch
}

func waitEntered(t *testing.T, a *gatedAdapter) string {
	t.Helper()
	select {
	case s := <-a.entered:
		return s
	case <-time.After(5 * time.Second):
		t.Fatal("generation never started")
		return ""
	}
}

func status(t *testing.T, h *harness) types.StatusResponse {
	t.Helper()
	resp, body := httpGet(t, h.srv.URL+"/status")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/status = %d", resp.StatusCode)
	}
	var st types.StatusResponse
	if err := json.Unmarshal(body, &st); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	return st
}

// TestE2E_StatusTracksLiveRun observes a run through the HTTP surface while
// generations are held open.
func TestE2E_StatusTracksLiveRun(t *testing.T) {
	dir := createTempModelsDir(t, "alpha.gguf", "beta.gguf", "gamma.gguf")
	a := newGatedAdapter()
	a.fail["beta.gguf"] = true
	h := newHarness(t, dir, a, "p1", "p2")

	if resp, _ := httpGet(t, h.srv.URL+"/readyz"); resp.StatusCode != http.StatusOK {
		t.Fatalf("/readyz = %d", resp.StatusCode)
	}
	if st := status(t, h); st.State != bench.StateIdle {
		t.Fatalf("state before run = %q", st.State)
	}

	done := startRun(h, context.Background(), bench.ModeAll)

	if got := waitEntered(t, a); got != "alpha.gguf/p1" {
		t.Fatalf("first generation = %s", got)
	}
	st := status(t, h)
	if st.State != bench.StateRunning || st.CurrentModel != "alpha.gguf" || st.CurrentPrompt != 1 ||
		st.TotalModels != 3 || st.TotalPrompts != 2 || st.ModelsCompleted != 0 {
		t.Fatalf("mid-run status: %+v", st)
	}

	// session is visible as incomplete while the run is in flight
	_, body := httpGet(t, h.srv.URL+"/sessions?incomplete=1")
	var ss types.SessionsResponse
	if err := json.Unmarshal(body, &ss); err != nil {
		t.Fatalf("decode sessions: %v", err)
	}
	if len(ss.Sessions) != 1 || ss.Sessions[0].Status != "running" || ss.Sessions[0].Description != "e2e" {
		t.Fatalf("incomplete sessions mid-run: %+v", ss.Sessions)
	}

	a.release <- struct{}{}
	if got := waitEntered(t, a); got != "alpha.gguf/p2" {
		t.Fatalf("second generation = %s", got)
	}
	a.release <- struct{}{}
	// beta fails to load, so gamma is next
	if got := waitEntered(t, a); got != "gamma.gguf/p1" {
		t.Fatalf("third generation = %s", got)
	}
	st = status(t, h)
	if st.ModelsCompleted != 2 || st.Results != 3 || st.Failures != 1 {
		t.Fatalf("status after beta failure: %+v", st)
	}
	a.release <- struct{}{}
	waitEntered(t, a)
	a.release <- struct{}{}

	var res runResult
	select {
	case res = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not finish")
	}
	if res.err != nil {
		t.Fatalf("run: %v", res.err)
	}
	if res.sum.Results != 5 || res.sum.Failures != 1 {
		t.Fatalf("summary: %+v", res.sum)
	}

	st = status(t, h)
	if st.State != bench.StateFinished || st.ModelsCompleted != 3 || st.CurrentModel != "" {
		t.Fatalf("final status: %+v", st)
	}
	_, body = httpGet(t, h.srv.URL+"/sessions")
	ss = types.SessionsResponse{}
	if err := json.Unmarshal(body, &ss); err != nil {
		t.Fatalf("decode sessions: %v", err)
	}
	if len(ss.Sessions) != 1 || ss.Sessions[0].Status != "completed" || ss.Sessions[0].ModelsCompleted != 3 {
		t.Fatalf("sessions after run: %+v", ss.Sessions)
	}

	_, metrics := httpGet(t, h.srv.URL+"/metrics")
	for _, want := range []string{"llmbench_results_total", "llmbench_model_loads_total", "llmbench_tokens_per_second"} {
		if !bytes.Contains(metrics, []byte(want)) {
			t.Fatalf("metrics missing %s", want)
		}
	}
	if a.loaded != 0 {
		t.Fatalf("models still loaded: %d", a.loaded)
	}
}

// TestE2E_CancelledRunStaysIncomplete interrupts a run mid-model and checks
// the session remains discoverable as incomplete.
func TestE2E_CancelledRunStaysIncomplete(t *testing.T) {
	dir := createTempModelsDir(t, "alpha.gguf", "beta.gguf")
	a := newGatedAdapter()
	h := newHarness(t, dir, a, "p1", "p2")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := startRun(h, ctx, bench.ModeAll)
	waitEntered(t, a)
	cancel()
	a.release <- struct{}{}

	var res runResult
	select {
	case res = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after cancel")
	}
	if res.err == nil {
		t.Fatal("expected cancellation error")
	}
	st := status(t, h)
	if st.State != bench.StateFailed || st.Error == "" {
		t.Fatalf("status after cancel: %+v", st)
	}
	_, body := httpGet(t, h.srv.URL+"/sessions?incomplete=true")
	var ss types.SessionsResponse
	if err := json.Unmarshal(body, &ss); err != nil {
		t.Fatalf("decode sessions: %v", err)
	}
	if len(ss.Sessions) != 1 || ss.Sessions[0].ID != res.sum.SessionID || ss.Sessions[0].EndUnix != 0 {
		t.Fatalf("incomplete sessions: %+v", ss.Sessions)
	}
}
