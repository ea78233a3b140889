package host

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/mcoot/teamenforcer/internal/model"
)

// Registry is the in-memory mirror of the host's participant list. Participants
// are keyed by identity; handles are kept in a separate index that is rebuilt
// on every connect and disconnect.
type Registry struct {
	mu           sync.RWMutex
	participants map[model.Identity]*model.Participant
	handles      map[model.Handle]model.Identity
	sink         DirectiveSink
	logger       *slog.Logger
}

var _ Roster = (*Registry)(nil)

// NewRegistry creates an empty registry. Role switches are forwarded to sink.
func NewRegistry(sink DirectiveSink, logger *slog.Logger) *Registry {
	return &Registry{
		participants: make(map[model.Identity]*model.Participant),
		handles:      make(map[model.Handle]model.Identity),
		sink:         sink,
		logger:       logger.With(slog.String("component", "registry")),
	}
}

// Connect records a participant joining, or reconnecting under a new handle
func (r *Registry) Connect(p model.Participant) error {
	if p.Identity == "" {
		return fmt.Errorf("connect: empty identity")
	}
	if p.Role == "" {
		p.Role = model.RoleNone
	}
	p.Connected = true

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.participants[p.Identity]; ok {
		delete(r.handles, existing.Handle)
	}
	// A reused handle belongs to whoever connects last
	if prev, ok := r.handles[p.Handle]; ok && prev != p.Identity {
		delete(r.participants, prev)
		r.logger.Info("participant displaced by handle reuse",
			slog.String("identity", string(prev)),
			slog.Int("handle", int(p.Handle)))
	}

	r.participants[p.Identity] = &p
	r.handles[p.Handle] = p.Identity

	r.logger.Info("participant connected",
		slog.String("identity", string(p.Identity)),
		slog.Int("handle", int(p.Handle)),
		slog.String("role", string(p.Role)))
	return nil
}

// Disconnect forgets a participant. Unknown identities are ignored.
func (r *Registry) Disconnect(id model.Identity) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.participants[id]
	if !ok {
		return false
	}
	delete(r.participants, id)
	if r.handles[p.Handle] == id {
		delete(r.handles, p.Handle)
	}
	r.logger.Info("participant disconnected", slog.String("identity", string(id)))
	return true
}

// ReportRole records a role change the host observed, such as a raw team
// switch made without going through the queue.
func (r *Registry) ReportRole(id model.Identity, role model.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.participants[id]
	if !ok {
		return model.ErrStaleIdentity
	}
	p.Role = role
	return nil
}

// Participant returns the connected participant with the given identity
func (r *Registry) Participant(id model.Identity) (model.Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.participants[id]
	if !ok {
		return model.Participant{}, false
	}
	return *p, true
}

// ByHandle returns the participant currently holding handle
func (r *Registry) ByHandle(h model.Handle) (model.Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.handles[h]
	if !ok {
		return model.Participant{}, false
	}
	return *r.participants[id], true
}

// Participants returns every connected participant ordered by handle
func (r *Registry) Participants() []model.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]model.Participant, 0, len(r.participants))
	for _, p := range r.participants {
		result = append(result, *p)
	}
	slices.SortFunc(result, func(a, b model.Participant) int {
		return cmp.Compare(a.Handle, b.Handle)
	})
	return result
}

// Resolve finds one participant from an operator-supplied target. It tries an
// exact identity, then "#handle", then a case-insensitive name fragment. A
// fragment matching several names resolves only if one of them matches exactly.
func (r *Registry) Resolve(query string) (model.Participant, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return model.Participant{}, model.ErrTargetNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.participants[model.Identity(query)]; ok {
		return *p, nil
	}

	if rest, ok := strings.CutPrefix(query, "#"); ok {
		if n, err := strconv.Atoi(rest); err == nil {
			if id, ok := r.handles[model.Handle(n)]; ok {
				return *r.participants[id], nil
			}
			return model.Participant{}, model.ErrTargetNotFound
		}
	}

	needle := strings.ToLower(query)
	var exact, matches []*model.Participant
	for _, p := range r.participants {
		name := strings.ToLower(p.Name)
		if name == needle {
			exact = append(exact, p)
		}
		if strings.Contains(name, needle) {
			matches = append(matches, p)
		}
	}
	if len(exact) == 1 {
		return *exact[0], nil
	}

	switch len(matches) {
	case 0:
		return model.Participant{}, model.ErrTargetNotFound
	case 1:
		return *matches[0], nil
	default:
		return model.Participant{}, model.ErrAmbiguousTarget
	}
}

// SwitchRole tells the host to move the participant and updates the mirror
// once the directive is out
func (r *Registry) SwitchRole(id model.Identity, role model.Role) error {
	r.mu.RLock()
	p, ok := r.participants[id]
	var target model.Participant
	if ok {
		target = *p
	}
	r.mu.RUnlock()
	if !ok {
		return model.ErrStaleIdentity
	}
	target.Role = role

	if r.sink != nil {
		if err := r.sink.RoleSwitched(target); err != nil {
			r.logger.Error("role switch not delivered",
				slog.String("identity", string(id)),
				slog.String("role", string(role)),
				slog.Any("error", err))
			return err
		}
	}

	r.mu.Lock()
	if current, ok := r.participants[id]; ok {
		current.Role = role
	}
	r.mu.Unlock()

	r.logger.Info("role switched",
		slog.String("identity", string(id)),
		slog.String("role", string(role)))
	return nil
}
