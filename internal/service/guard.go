package service

import (
	"sync"

	"github.com/servicer-desk/backend/internal/metrics"
)

// SubmitGuard rejects a second submission for a key while the first is
// still running. The zero value is ready to use.
type SubmitGuard struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

// Do runs fn unless key is already in flight. The key is released when fn
// returns, whether it failed or not.
func (g *SubmitGuard) Do(key string, fn func() error) error {
	g.mu.Lock()
	if g.inFlight == nil {
		g.inFlight = map[string]struct{}{}
	}
	if _, busy := g.inFlight[key]; busy {
		g.mu.Unlock()
		metrics.IncSubmitRejected()
		return ErrSubmissionInFlight
	}
	g.inFlight[key] = struct{}{}
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		delete(g.inFlight, key)
		g.mu.Unlock()
	}()
	return fn()
}

func (g *SubmitGuard) InFlight(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.inFlight[key]
	return busy
}
