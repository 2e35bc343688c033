package bench

import (
	"sync"
	"time"

	"llmbench/pkg/types"
)

// Orchestrator states reported on /status.
const (
	StateIdle     = "idle"
	StateRunning  = "running"
	StateFinished = "finished"
	StateFailed   = "failed"
)

// progress is written by the run loop and read by the status server.
type progress struct {
	mu   sync.RWMutex
	snap types.StatusResponse
}

func (p *progress) update(fn func(s *types.StatusResponse)) {
	p.mu.Lock()
	fn(&p.snap)
	p.mu.Unlock()
}

func (p *progress) snapshot() types.StatusResponse {
	p.mu.RLock()
	s := p.snap
	p.mu.RUnlock()
	s.ServerTimeUnix = time.Now().Unix()
	return s
}
