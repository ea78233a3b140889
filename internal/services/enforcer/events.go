package enforcer

import (
	"context"
	"log/slog"

	"github.com/mcoot/teamenforcer/internal/model"
	"github.com/mcoot/teamenforcer/internal/services/balance"
)

// Connect records a participant joining the server. Whoever held the handle
// before is forgotten, and a sanctioned promotion only survives a reconnect
// straight back onto the guard team.
func (e *Enforcer) Connect(ctx context.Context, p model.Participant) error {
	return e.loop.Do(ctx, func() error {
		prev, displaced := e.roster.ByHandle(p.Handle)
		if err := e.roster.Connect(p); err != nil {
			return err
		}
		if displaced && prev.Identity != p.Identity {
			e.forget(prev.Identity)
		}
		if p.Role != model.RoleGuard {
			e.balance.LeftGuard(p.Identity)
		}
		return nil
	})
}

// Disconnect forgets a participant, their queue entry and any sanctioned
// promotion
func (e *Enforcer) Disconnect(ctx context.Context, id model.Identity) error {
	return e.loop.Do(ctx, func() error {
		if !e.roster.Disconnect(id) {
			return model.ErrTargetNotFound
		}
		e.forget(id)
		return nil
	})
}

func (e *Enforcer) forget(id model.Identity) {
	e.queue.Leave(id)
	e.balance.LeftGuard(id)
	delete(e.lastJoinAttempt, id)
}

// ReportRole records a role change the host carried out on its own. Leaving
// the guard team by any route ends a sanctioned promotion.
func (e *Enforcer) ReportRole(ctx context.Context, id model.Identity, role model.Role) error {
	return e.loop.Do(ctx, func() error {
		if err := e.roster.ReportRole(id, role); err != nil {
			return model.ErrTargetNotFound
		}
		if role != model.RoleFree {
			e.queue.Leave(id)
		}
		if role != model.RoleGuard {
			e.balance.LeftGuard(id)
		}
		return nil
	})
}

// Participants lists connected participants
func (e *Enforcer) Participants(ctx context.Context) ([]model.Participant, error) {
	var participants []model.Participant
	err := e.loop.Do(ctx, func() error {
		participants = e.roster.Participants()
		return nil
	})
	return participants, err
}

// MapStart resets all per-map state
func (e *Enforcer) MapStart(ctx context.Context) error {
	return e.loop.Do(ctx, func() error {
		e.balance.PrepareForNewSession()
		clear(e.lastJoinAttempt)
		e.logger.Info("map started")
		return nil
	})
}

// RoundStart updates guard round counters and kick timers
func (e *Enforcer) RoundStart(ctx context.Context) error {
	return e.loop.Do(ctx, func() error {
		e.balance.OnRoundStart()
		return nil
	})
}

// RoundEnd runs a full balancing pass
func (e *Enforcer) RoundEnd(ctx context.Context) (balance.Report, error) {
	return e.reconcile(ctx, false)
}

// WarmupEnd runs a full balancing pass without illegitimate-join notices
func (e *Enforcer) WarmupEnd(ctx context.Context) (balance.Report, error) {
	return e.reconcile(ctx, true)
}

func (e *Enforcer) reconcile(ctx context.Context, warmupEnd bool) (balance.Report, error) {
	var report balance.Report
	// Ban lookups inside the pass must finish even if the caller goes away
	bg := context.WithoutCancel(ctx)
	err := e.loop.Do(ctx, func() error {
		report = e.balance.Reconcile(bg, warmupEnd)
		return nil
	})
	if err != nil {
		e.logger.Warn("balancing not run", slog.Any("error", err))
	}
	return report, err
}
