package enforcer

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/mcoot/teamenforcer/internal/i18n"
	"github.com/mcoot/teamenforcer/internal/model"
)

const banDateLayout = "2006-01-02 15:04:05"

// Ban bars target from the guard role for minutes, or permanently when
// minutes is zero. A connected target is demoted and leaves the queue.
func (e *Enforcer) Ban(ctx context.Context, staff model.Identity, target string, minutes int, reason string) (Reply, error) {
	staff = staffOrConsole(staff)
	if !e.bans.Enabled() {
		return Reply{}, e.banUnavailable("ban", staff)
	}
	if minutes < 0 {
		return Reply{}, e.fail(model.ErrInvalidDuration, i18n.InvalidDurationKey)
	}
	if strings.TrimSpace(reason) == "" {
		reason = DefaultReason
	}

	p, err := e.resolveOnLoop(ctx, target, true)
	if err != nil {
		return Reply{}, err
	}
	e.logger.Info("ban requested",
		slog.String("staff", string(staff)),
		slog.String("target", string(p.Identity)),
		slog.Int("minutes", minutes),
		slog.String("reason", reason))

	req := model.NewBan{
		BannedIdentity: p.Identity,
		StaffIdentity:  staff,
		Reason:         reason,
		Duration:       time.Duration(minutes) * time.Minute,
	}
	return offFrame(ctx, e,
		func(ctx context.Context) (*model.BanRecord, error) {
			return e.bans.Ban(ctx, req)
		},
		func(record *model.BanRecord, err error) (Reply, error) {
			switch {
			case errors.Is(err, model.ErrAlreadyBanned):
				return Reply{}, e.fail(err, i18n.AlreadyBannedKey, p.Name)
			case err != nil:
				return Reply{}, e.storageFailure("ban", err)
			}

			e.notifier.Broadcast(e.printer.Sprintf(i18n.BanSuccessKey, e.displayName(p.Identity), e.durationText(minutes)))
			// Only touch roles if the target is still around
			if _, ok := e.roster.Participant(p.Identity); ok {
				if err := e.balance.Demote(p.Identity); err != nil {
					e.logger.Warn("failed to demote banned participant",
						slog.String("identity", string(p.Identity)),
						slog.Any("error", err))
				}
			}
			e.queue.Leave(p.Identity)
			return Reply{Ban: record}, nil
		})
}

func (e *Enforcer) durationText(minutes int) string {
	if minutes == 0 {
		return e.printer.Sprintf(i18n.DurationPermanentKey)
	}
	return e.printer.Sprintf(i18n.DurationMinutesKey, minutes)
}

// Unban lifts target's active ban and records who lifted it
func (e *Enforcer) Unban(ctx context.Context, staff model.Identity, target, reason string) (Reply, error) {
	staff = staffOrConsole(staff)
	if !e.bans.Enabled() {
		return Reply{}, e.banUnavailable("unban", staff)
	}
	if strings.TrimSpace(reason) == "" {
		reason = DefaultReason
	}

	p, err := e.resolveOnLoop(ctx, target, true)
	if err != nil {
		return Reply{}, err
	}
	e.logger.Info("unban requested",
		slog.String("staff", string(staff)),
		slog.String("target", string(p.Identity)),
		slog.String("reason", reason))

	return offFrame(ctx, e,
		func(ctx context.Context) (*model.UnbanRecord, error) {
			record, err := e.bans.BanInfo(ctx, p.Identity)
			if err != nil {
				return nil, err
			}
			return e.bans.Unban(ctx, record, staff, reason)
		},
		func(unban *model.UnbanRecord, err error) (Reply, error) {
			switch {
			case errors.Is(err, model.ErrBanNotFound):
				return Reply{}, e.fail(err, i18n.NotBannedKey, e.displayName(p.Identity))
			case err != nil:
				return Reply{}, e.storageFailure("unban", err)
			}
			e.notifier.Broadcast(e.printer.Sprintf(i18n.UnbanSuccessKey, e.displayName(p.Identity)))
			return Reply{Unban: unban}, nil
		})
}

// BanInfo describes target's active ban
func (e *Enforcer) BanInfo(ctx context.Context, staff model.Identity, target string) (Reply, error) {
	staff = staffOrConsole(staff)
	if !e.bans.Enabled() {
		return Reply{}, e.banUnavailable("ban-info", staff)
	}
	p, err := e.resolveOnLoop(ctx, target, true)
	if err != nil {
		return Reply{}, err
	}

	return e.resume(ctx, func(finish func(Reply, error)) {
		e.bans.BanInfoAsync(context.WithoutCancel(ctx), p.Identity, e.loop, func(record *model.BanRecord, err error) {
			finish(e.describeBan(p, record, err))
		})
	})
}

func (e *Enforcer) describeBan(p model.Participant, record *model.BanRecord, err error) (Reply, error) {
	name := e.displayName(p.Identity)
	switch {
	case errors.Is(err, model.ErrBanNotFound):
		return Reply{}, e.fail(err, i18n.NotBannedKey, name)
	case err != nil:
		return Reply{}, e.storageFailure("ban-info", err)
	}

	date := record.IssuedAt.UTC().Format(banDateLayout)
	staff := string(record.StaffIdentity)
	reply := Reply{Ban: record}
	if record.IsPermanent() {
		reply.Messages = []string{e.printer.Sprintf(i18n.BanInfoPermanentKey, name, date, staff, record.Reason)}
		return reply, nil
	}
	total := int(record.ExpiresAt.Sub(record.IssuedAt).Round(time.Minute).Minutes())
	reply.Messages = []string{e.printer.Sprintf(i18n.BanInfoTemporaryKey,
		name, date, staff, record.Reason, total, record.MinutesLeft(e.clock.Now()))}
	return reply, nil
}

// BanHistory lists every ban target ever received, newest first
func (e *Enforcer) BanHistory(ctx context.Context, staff model.Identity, target string) (Reply, error) {
	staff = staffOrConsole(staff)
	if !e.bans.Enabled() {
		return Reply{}, e.banUnavailable("ban-history", staff)
	}
	p, err := e.resolveOnLoop(ctx, target, true)
	if err != nil {
		return Reply{}, err
	}

	return offFrame(ctx, e,
		func(ctx context.Context) ([]*model.BanRecord, error) {
			return e.bans.History(ctx, p.Identity)
		},
		func(history []*model.BanRecord, err error) (Reply, error) {
			if err != nil {
				return Reply{}, e.storageFailure("ban-history", err)
			}
			name := e.displayName(p.Identity)
			if len(history) == 0 {
				return e.say(i18n.NoBanHistoryKey, name), nil
			}

			reply := Reply{History: history}
			reply.Messages = append(reply.Messages, e.printer.Sprintf(i18n.BanHistoryHeaderKey, name, len(history)))
			for _, record := range history {
				minutes := 0
				if !record.IsPermanent() {
					minutes = int(record.ExpiresAt.Sub(record.IssuedAt).Round(time.Minute).Minutes())
				}
				reply.Messages = append(reply.Messages, e.printer.Sprintf(i18n.BanHistoryEntryKey,
					record.ID,
					record.IssuedAt.UTC().Format(banDateLayout),
					record.StaffIdentity,
					record.Reason,
					e.durationText(minutes)))
			}
			return reply, nil
		})
}

// ForcePromote moves target to the guard team, skipping the queue
func (e *Enforcer) ForcePromote(ctx context.Context, staff model.Identity, target string) (Reply, error) {
	staff = staffOrConsole(staff)
	return e.onLoop(ctx, func() (Reply, error) {
		p, err := e.resolve(target, false)
		if err != nil {
			return Reply{}, err
		}
		if p.Role == model.RoleGuard {
			return Reply{}, e.fail(model.ErrAlreadyInState, i18n.AlreadyGuardKey, p.Name)
		}
		switch err := e.balance.Promote(p.Identity); {
		case errors.Is(err, model.ErrHostUnreachable):
			return Reply{}, e.fail(err, i18n.HostUnreachableKey)
		case err != nil:
			return Reply{}, e.fail(err, i18n.TargetNotFoundKey, target)
		}

		e.logger.Info("forced to guard",
			slog.String("staff", string(staff)),
			slog.String("target", string(p.Identity)))
		e.notifier.Broadcast(e.printer.Sprintf(i18n.ForcedToGuardKey, p.Name, e.displayName(staff)))
		return Reply{}, nil
	})
}

// ForceKick bars target from the guard team for rounds round starts. Zero
// rounds uses the configured default.
func (e *Enforcer) ForceKick(ctx context.Context, staff model.Identity, target string, rounds int) (Reply, error) {
	staff = staffOrConsole(staff)
	if rounds < 0 {
		return Reply{}, e.fail(model.ErrInvalidRounds, i18n.InvalidKickRoundsKey)
	}
	if rounds == 0 {
		rounds = e.cfg.DefaultKickRounds
	}

	return e.onLoop(ctx, func() (Reply, error) {
		p, err := e.resolve(target, false)
		if err != nil {
			return Reply{}, err
		}
		switch err := e.balance.Kick(p.Identity, rounds); {
		case errors.Is(err, model.ErrAlreadyInState):
			return Reply{}, e.fail(err, i18n.AlreadyKickedKey, p.Name)
		case errors.Is(err, model.ErrHostUnreachable):
			return Reply{}, e.fail(err, i18n.HostUnreachableKey)
		case err != nil:
			return Reply{}, e.fail(err, i18n.TargetNotFoundKey, target)
		}

		e.logger.Info("kicked from guard by staff",
			slog.String("staff", string(staff)),
			slog.String("target", string(p.Identity)),
			slog.Int("rounds", e.balance.KickRemaining(p.Identity)))
		return e.say(i18n.KickedByStaffKey, p.Name, e.displayName(staff), e.balance.KickRemaining(p.Identity)), nil
	})
}

// ForceDequeue removes target from the guard queue
func (e *Enforcer) ForceDequeue(ctx context.Context, staff model.Identity, target string) (Reply, error) {
	staff = staffOrConsole(staff)
	return e.onLoop(ctx, func() (Reply, error) {
		p, err := e.resolve(target, true)
		if err != nil {
			return Reply{}, err
		}
		if !e.queue.Leave(p.Identity) {
			return Reply{}, e.fail(model.ErrItemNotFound, i18n.TargetNotInQueueKey, p.Name)
		}
		e.logger.Info("removed from queue by staff",
			slog.String("staff", string(staff)),
			slog.String("target", string(p.Identity)))
		return e.say(i18n.ForceDequeuedKey, p.Name, e.displayName(staff)), nil
	})
}

// Legitimate lists guards promoted through the sanctioned path, oldest first
func (e *Enforcer) Legitimate(ctx context.Context) (Reply, error) {
	return e.onLoop(ctx, func() (Reply, error) {
		ids := e.balance.Legitimate()
		reply := Reply{Legitimate: make([]model.Participant, 0, len(ids))}
		names := make([]string, 0, len(ids))
		for _, id := range ids {
			p, ok := e.roster.Participant(id)
			if !ok {
				p = model.Participant{Identity: id, Name: string(id)}
			}
			reply.Legitimate = append(reply.Legitimate, p)
			names = append(names, p.Name)
		}
		reply.Messages = []string{e.printer.Sprintf(i18n.LegitimateGuardsHeaderKey, len(ids))}
		if len(names) > 0 {
			reply.Messages = append(reply.Messages, strings.Join(names, ", "))
		}
		return reply, nil
	})
}
