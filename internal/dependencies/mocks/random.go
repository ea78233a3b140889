package mocks

import (
	"sync"

	"github.com/mcoot/teamenforcer/internal/dependencies/random"
)

var _ random.Random = (*MockRandom)(nil)

// MockRandom replays queued picks so random guard draws are predictable
type MockRandom struct {
	mu     sync.Mutex
	picks  []int
	served int

	// PoolSizes records the n of every Intn call, one per draw attempt
	PoolSizes []int
}

func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Intn returns the next queued pick clamped into [0, n). With nothing queued it
// picks index 0.
func (r *MockRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.PoolSizes = append(r.PoolSizes, n)
	if n <= 0 || r.served >= len(r.picks) {
		return 0
	}
	pick := min(r.picks[r.served], n-1)
	r.served++
	return pick
}

// QueueIntn queues picks for later Intn calls
func (r *MockRandom) QueueIntn(picks ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.picks = append(r.picks, picks...)
}

// Pending returns how many queued picks have not been served yet
func (r *MockRandom) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.picks) - r.served
}
