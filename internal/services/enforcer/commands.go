package enforcer

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/teamenforcer/internal/dependencies/clock"
	"github.com/mcoot/teamenforcer/internal/i18n"
	"github.com/mcoot/teamenforcer/internal/model"
)

// JoinGuardQueue puts a free participant in the guard queue, or straight onto
// an empty guard team. Kicked and banned participants are refused.
func (e *Enforcer) JoinGuardQueue(ctx context.Context, caller model.Identity) (Reply, error) {
	var needBanCheck bool
	reply, err := e.onLoop(ctx, func() (Reply, error) {
		p, ok := e.roster.Participant(caller)
		if !ok {
			return Reply{}, nil
		}
		if p.Role != model.RoleFree {
			return Reply{}, e.fail(model.ErrWrongRole, i18n.MustBeFreeKey)
		}
		e.logger.Info("guard queue join requested", slog.String("identity", string(caller)))

		if err := e.checkKick(caller); err != nil {
			return Reply{}, err
		}
		if status, ok := e.queue.StatusOf(caller); ok {
			return e.alreadyQueued(status), nil
		}
		if !e.bans.Enabled() {
			return e.admit(p), nil
		}
		needBanCheck = true
		return Reply{}, nil
	})
	if err != nil || !needBanCheck {
		return reply, err
	}

	return e.resume(ctx, func(finish func(Reply, error)) {
		e.bans.BanInfoAsync(context.WithoutCancel(ctx), caller, e.loop, func(record *model.BanRecord, err error) {
			finish(e.completeJoin(caller, record, err))
		})
	})
}

// completeJoin runs on the frame loop once the ban lookup is back
func (e *Enforcer) completeJoin(caller model.Identity, record *model.BanRecord, err error) (Reply, error) {
	switch {
	case err == nil:
		return Reply{}, e.banned(record)
	case errors.Is(err, model.ErrBanNotFound), errors.Is(err, model.ErrServiceUnavailable):
	default:
		return Reply{}, e.storageFailure("guard", err)
	}

	// The participant may have left or changed team while the lookup ran
	p, ok := e.roster.Participant(caller)
	if !ok || p.Role != model.RoleFree {
		e.logger.Debug("guard queue join dropped for stale participant", slog.String("identity", string(caller)))
		return Reply{}, nil
	}
	if err := e.checkKick(caller); err != nil {
		return Reply{}, err
	}
	if status, ok := e.queue.StatusOf(caller); ok {
		return e.alreadyQueued(status), nil
	}
	return e.admit(p), nil
}

// admit promotes p when nobody is guarding, otherwise queues them
func (e *Enforcer) admit(p model.Participant) Reply {
	if e.balance.GuardCount() == 0 {
		if err := e.balance.Promote(p.Identity); err == nil {
			return e.say(i18n.GuardTeamEmptyKey)
		}
	}

	tier := e.balance.PreferredTier(p.Identity)
	status, _ := e.queue.Join(p.Identity, tier)
	var reply Reply
	switch tier {
	case model.TierHigh:
		reply = e.say(i18n.JoinedPriorityQueueKey)
	case model.TierLow:
		reply = e.say(i18n.JoinedLowPriorityQueueKey)
	default:
		reply = e.say(i18n.JoinedQueueKey)
	}
	reply.Status = &status
	return reply
}

func (e *Enforcer) alreadyQueued(status model.QueueStatus) Reply {
	reply := e.say(i18n.AlreadyInQueueKey, status.Position, status.TierName)
	reply.Status = &status
	return reply
}

func (e *Enforcer) checkKick(id model.Identity) error {
	if !e.balance.IsKicked(id) {
		return nil
	}
	rounds := e.balance.KickRemaining(id)
	return &model.CommandError{
		Err:    &model.KickError{Rounds: rounds},
		Notice: e.printer.Sprintf(i18n.KickedFromGuardKey, rounds),
	}
}

func (e *Enforcer) banned(record *model.BanRecord) error {
	now := e.clock.Now()
	banErr := &model.BanError{Record: record, Now: now}
	if record.IsPermanent() {
		return &model.CommandError{Err: banErr, Notice: e.printer.Sprintf(i18n.BannedPermanentKey)}
	}
	return &model.CommandError{Err: banErr, Notice: e.printer.Sprintf(i18n.BannedTemporaryKey, record.MinutesLeft(now))}
}

// LeaveGuard asks to move from the guard team to the free team at round end
func (e *Enforcer) LeaveGuard(ctx context.Context, caller model.Identity) (Reply, error) {
	return e.onLoop(ctx, func() (Reply, error) {
		p, ok := e.roster.Participant(caller)
		if !ok {
			return Reply{}, nil
		}
		if p.Role != model.RoleGuard {
			return Reply{}, e.fail(model.ErrWrongRole, i18n.MustBeGuardKey)
		}
		return e.requestLeave(caller)
	})
}

func (e *Enforcer) requestLeave(id model.Identity) (Reply, error) {
	switch err := e.balance.RequestLeave(id); {
	case err == nil:
		return e.say(i18n.AddedToLeaveListKey), nil
	case errors.Is(err, model.ErrAlreadyInState):
		return Reply{}, e.fail(err, i18n.AlreadyInLeaveListKey)
	case errors.Is(err, model.ErrStaleIdentity):
		return Reply{}, nil
	default:
		return Reply{}, err
	}
}

// OptOut keeps a free participant off the guard team for the rest of the map
func (e *Enforcer) OptOut(ctx context.Context, caller model.Identity) (Reply, error) {
	return e.onLoop(ctx, func() (Reply, error) {
		p, ok := e.roster.Participant(caller)
		if !ok {
			return Reply{}, nil
		}
		if p.Role != model.RoleFree {
			return Reply{}, e.fail(model.ErrWrongRole, i18n.MustBeFreeKey)
		}
		switch err := e.balance.OptOut(caller); {
		case err == nil:
			return e.say(i18n.OptedOutKey), nil
		case errors.Is(err, model.ErrAlreadyInState):
			return Reply{}, e.fail(err, i18n.AlreadyOptedOutKey)
		default:
			return Reply{}, nil
		}
	})
}

// LeaveQueue removes the caller from the guard queue
func (e *Enforcer) LeaveQueue(ctx context.Context, caller model.Identity) (Reply, error) {
	return e.onLoop(ctx, func() (Reply, error) {
		if _, ok := e.roster.Participant(caller); !ok {
			return Reply{}, nil
		}
		if !e.queue.Leave(caller) {
			return Reply{}, e.fail(model.ErrItemNotFound, i18n.NotInQueueKey)
		}
		return e.say(i18n.LeftQueueKey), nil
	})
}

// ViewQueue lists the queue, with the caller's own place first when queued.
// An empty caller is the server console.
func (e *Enforcer) ViewQueue(ctx context.Context, caller model.Identity) (Reply, error) {
	return e.onLoop(ctx, func() (Reply, error) {
		if e.queue.IsEmpty() {
			return e.say(i18n.QueueEmptyKey, e.printer.Sprintf(i18n.GuardQueueCommandLabel)), nil
		}

		var reply Reply
		if status, ok := e.queue.StatusOf(caller); ok {
			reply.Status = &status
			reply.Messages = append(reply.Messages, e.printer.Sprintf(i18n.QueuePositionKey, status.Position))
		}
		reply.Queue = e.queue.Entries()
		reply.Messages = append(reply.Messages, e.printer.Sprintf(i18n.QueueHeaderKey, e.queue.TotalCount()))
		if listing := e.queue.RenderStatusText(e.liveLabel); listing != "" {
			reply.Messages = append(reply.Messages, listing)
		}
		return reply, nil
	})
}

// liveLabel names a queued identity if it is still connected
func (e *Enforcer) liveLabel(id model.Identity) (string, bool) {
	p, ok := e.roster.Participant(id)
	if !ok {
		return "", false
	}
	return p.Name, true
}

// RequestTeamChange vets a team switch the participant started from the game
// menu. Direct guard joins are refused, with the notice throttled per caller.
// Leaving the guard team becomes a leave request handled at round end.
func (e *Enforcer) RequestTeamChange(ctx context.Context, caller model.Identity, role model.Role) (Reply, error) {
	return e.onLoop(ctx, func() (Reply, error) {
		p, ok := e.roster.Participant(caller)
		if !ok {
			return Reply{Allowed: true}, nil
		}

		switch {
		case role == model.RoleGuard && p.Role != model.RoleGuard:
			var notice string
			if e.noticeDue(caller) {
				notice = e.printer.Sprintf(i18n.CannotJoinGuardKey, e.printer.Sprintf(i18n.GuardQueueCommandLabel))
			}
			return Reply{}, &model.CommandError{Err: model.ErrDirectGuardJoin, Notice: notice}

		case role == model.RoleFree && p.Role == model.RoleGuard:
			reply := Reply{Allowed: false}
			if !e.noticeDue(caller) {
				return reply, nil
			}
			if e.balance.IsLeaving(caller) {
				reply.Messages = []string{e.printer.Sprintf(i18n.AlreadyInLeaveListKey)}
				return reply, nil
			}
			leave, err := e.requestLeave(caller)
			if err != nil {
				return reply, err
			}
			reply.Messages = leave.Messages
			return reply, nil

		default:
			return Reply{Allowed: true}, nil
		}
	})
}

// noticeDue records a join attempt and reports whether the cooldown has passed
func (e *Enforcer) noticeDue(id model.Identity) bool {
	last, seen := e.lastJoinAttempt[id]
	due := !seen || clock.Since(e.clock, last) > e.cfg.JoinNoticeCooldown
	e.lastJoinAttempt[id] = e.clock.Now()
	return due
}
