package scheduler

import (
	"sync"

	"github.com/google/uuid"
)

// Guard is the set of monitors with a check in flight. A monitor id is
// admitted at most once until it is released.
type Guard struct {
	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}
}

func NewGuard() *Guard {
	return &Guard{
		inFlight: make(map[uuid.UUID]struct{}),
	}
}

// TryAcquire admits id and reports whether it was free.
func (g *Guard) TryAcquire(id uuid.UUID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, held := g.inFlight[id]; held {
		return false
	}
	g.inFlight[id] = struct{}{}
	return true
}

func (g *Guard) Release(id uuid.UUID) {
	g.mu.Lock()
	delete(g.inFlight, id)
	g.mu.Unlock()
}

func (g *Guard) Contains(id uuid.UUID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, held := g.inFlight[id]
	return held
}

func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return len(g.inFlight)
}
