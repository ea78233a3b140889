package queue

import (
	"fmt"
	"strings"

	"github.com/mcoot/teamenforcer/internal/collections/pqueue"
	"github.com/mcoot/teamenforcer/internal/metrics"
	"github.com/mcoot/teamenforcer/internal/model"
)

// Manager combines the high, normal and low tiers into a single guard queue.
// All of a higher tier is served before any of a lower one.
// It is owned by the frame loop and is not safe for concurrent use.
type Manager struct {
	tiers map[model.Tier]*pqueue.Queue[model.Identity]
}

// NewManager creates an empty queue manager
func NewManager() *Manager {
	tiers := make(map[model.Tier]*pqueue.Queue[model.Identity], len(model.Tiers))
	for _, tier := range model.Tiers {
		tiers[tier] = pqueue.New[model.Identity]()
	}
	return &Manager{tiers: tiers}
}

// Join queues id in the given tier. An identity already queued in any tier keeps its place;
// the returned bool reports whether a new entry was created.
func (m *Manager) Join(id model.Identity, tier model.Tier) (model.QueueStatus, bool) {
	if status, ok := m.StatusOf(id); ok {
		return status, false
	}
	q, ok := m.tiers[tier]
	if !ok {
		q = m.tiers[model.TierNormal]
	}
	// Cannot be a duplicate: StatusOf checked every tier.
	_ = q.Enqueue(id)
	m.publish()
	status, _ := m.StatusOf(id)
	return status, true
}

// Leave removes id from whichever tier holds it
func (m *Manager) Leave(id model.Identity) bool {
	for _, tier := range model.Tiers {
		if m.tiers[tier].Remove(id) == nil {
			m.publish()
			return true
		}
	}
	return false
}

// Contains reports whether id is queued in any tier
func (m *Manager) Contains(id model.Identity) bool {
	for _, tier := range model.Tiers {
		if m.tiers[tier].Contains(id) {
			return true
		}
	}
	return false
}

// StatusOf returns the tier and overall position of id
func (m *Manager) StatusOf(id model.Identity) (model.QueueStatus, bool) {
	ahead := 0
	for _, tier := range model.Tiers {
		q := m.tiers[tier]
		if pos, err := q.PositionOf(id); err == nil {
			return model.QueueStatus{TierName: tier.Name(), Position: ahead + pos}, true
		}
		ahead += q.Len()
	}
	return model.QueueStatus{}, false
}

// DrainNext dequeues up to maxCount identities that pass eligible, walking high to low.
// Entries failing eligible are discarded and do not count towards maxCount.
func (m *Manager) DrainNext(maxCount int, eligible func(model.Identity) bool) []model.Identity {
	var out []model.Identity
	for _, tier := range model.Tiers {
		q := m.tiers[tier]
		for len(out) < maxCount {
			id, err := q.Dequeue()
			if err != nil {
				break
			}
			if eligible != nil && !eligible(id) {
				continue
			}
			out = append(out, id)
		}
		if len(out) >= maxCount {
			break
		}
	}
	m.publish()
	return out
}

// IsEmpty reports whether no tier has entries
func (m *Manager) IsEmpty() bool {
	return m.TotalCount() == 0
}

// TotalCount returns the number of queued identities across all tiers
func (m *Manager) TotalCount() int {
	total := 0
	for _, q := range m.tiers {
		total += q.Len()
	}
	return total
}

// ClearAll empties every tier
func (m *Manager) ClearAll() {
	for _, q := range m.tiers {
		q.Clear()
	}
	m.publish()
}

// publish exports tier lengths to the queue gauge
func (m *Manager) publish() {
	for tier, q := range m.tiers {
		metrics.SetQueueLength(tier.Key(), q.Len())
	}
}

// Entries lists every queued identity in serving order
func (m *Manager) Entries() []model.QueueEntry {
	var entries []model.QueueEntry
	for _, tier := range model.Tiers {
		for id := range m.tiers[tier].Snapshot() {
			entries = append(entries, model.QueueEntry{
				Identity: id,
				Tier:     tier,
				Position: len(entries) + 1,
			})
		}
	}
	return entries
}

// RenderStatusText lists queued participants as "#N - name" lines.
// label returns the display name of an identity, or false if it should be skipped.
// Returns an empty string when there is nothing to show.
func (m *Manager) RenderStatusText(label func(model.Identity) (string, bool)) string {
	var b strings.Builder
	n := 0
	for _, tier := range model.Tiers {
		for id := range m.tiers[tier].Snapshot() {
			name, ok := label(id)
			if !ok {
				continue
			}
			n++
			if n > 1 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "#%d - %s", n, name)
		}
	}
	return b.String()
}
