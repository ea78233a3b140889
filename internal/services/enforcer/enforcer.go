// Package enforcer is the per-server context that routes host events and
// commands onto the frame loop.
package enforcer

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/message"

	"github.com/mcoot/teamenforcer/internal/dependencies/clock"
	"github.com/mcoot/teamenforcer/internal/frame"
	"github.com/mcoot/teamenforcer/internal/host"
	"github.com/mcoot/teamenforcer/internal/i18n"
	"github.com/mcoot/teamenforcer/internal/model"
	"github.com/mcoot/teamenforcer/internal/services/balance"
	"github.com/mcoot/teamenforcer/internal/services/ban"
	"github.com/mcoot/teamenforcer/internal/services/queue"
)

// DefaultReason is recorded when an operator gives no reason
const DefaultReason = "No reason provided."

// ConsoleIdentity stands in for the staff identity of commands run without one
const ConsoleIdentity model.Identity = "Console"

// Roster is the participant registry as the enforcer needs it
type Roster interface {
	host.Roster
	ByHandle(h model.Handle) (model.Participant, bool)
	Connect(p model.Participant) error
	Disconnect(id model.Identity) bool
	ReportRole(id model.Identity, role model.Role) error
}

// Config tunes command handling
type Config struct {
	DefaultKickRounds  int
	JoinNoticeCooldown time.Duration
}

// Reply is what a command sends back to whoever ran it
type Reply struct {
	Messages   []string
	Allowed    bool
	Status     *model.QueueStatus
	Queue      []model.QueueEntry
	Ban        *model.BanRecord
	Unban      *model.UnbanRecord
	History    []*model.BanRecord
	Report     *balance.Report
	Legitimate []model.Participant
}

// Enforcer holds everything a handler needs. All roster, queue and balance
// state is touched only from frame loop tasks.
type Enforcer struct {
	loop     *frame.Loop
	roster   Roster
	notifier host.Notifier
	queue    *queue.Manager
	balance  *balance.Controller
	bans     *ban.Service
	clock    clock.Clock
	printer  *message.Printer
	logger   *slog.Logger
	cfg      Config

	lastJoinAttempt map[model.Identity]time.Time
}

// New creates an enforcer
func New(
	loop *frame.Loop,
	roster Roster,
	notifier host.Notifier,
	queueManager *queue.Manager,
	controller *balance.Controller,
	bans *ban.Service,
	clk clock.Clock,
	printer *message.Printer,
	cfg Config,
	logger *slog.Logger,
) *Enforcer {
	return &Enforcer{
		loop:            loop,
		roster:          roster,
		notifier:        notifier,
		queue:           queueManager,
		balance:         controller,
		bans:            bans,
		clock:           clk,
		printer:         printer,
		logger:          logger.With(slog.String("component", "enforcer")),
		cfg:             cfg,
		lastJoinAttempt: make(map[model.Identity]time.Time),
	}
}

// onLoop runs fn as a frame task and waits for its reply
func (e *Enforcer) onLoop(ctx context.Context, fn func() (Reply, error)) (Reply, error) {
	var reply Reply
	err := e.loop.Do(ctx, func() error {
		var err error
		reply, err = fn()
		return err
	})
	return reply, err
}

type outcome struct {
	reply Reply
	err   error
}

// resume waits for a continuation that start arranges to run on the frame loop
func (e *Enforcer) resume(ctx context.Context, start func(finish func(Reply, error))) (Reply, error) {
	done := make(chan outcome, 1)
	start(func(reply Reply, err error) {
		done <- outcome{reply, err}
	})
	select {
	case o := <-done:
		return o.reply, o.err
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	}
}

// offFrame runs storage work on its own goroutine, then hands the result to
// then on the frame loop
func offFrame[T any](ctx context.Context, e *Enforcer, work func(context.Context) (T, error), then func(T, error) (Reply, error)) (Reply, error) {
	bg := context.WithoutCancel(ctx)
	return e.resume(ctx, func(finish func(Reply, error)) {
		go func() {
			result, err := work(bg)
			e.loop.RunOnNextFrame(func() { finish(then(result, err)) })
		}()
	})
}

// fail builds a command error carrying a localized notice
func (e *Enforcer) fail(err error, key string, args ...any) error {
	return &model.CommandError{Err: err, Notice: e.printer.Sprintf(key, args...)}
}

func (e *Enforcer) say(key string, args ...any) Reply {
	return Reply{Messages: []string{e.printer.Sprintf(key, args...)}}
}

func (e *Enforcer) banUnavailable(command string, staff model.Identity) error {
	e.logger.Error("ban command used but ban storage is not configured",
		slog.String("command", command),
		slog.String("staff", string(staff)))
	return e.fail(model.ErrServiceUnavailable, i18n.ServiceUnavailableKey)
}

func (e *Enforcer) storageFailure(command string, err error) error {
	e.logger.Error("ban command failed",
		slog.String("command", command),
		slog.Any("error", err))
	return e.fail(err, i18n.StorageFailureKey)
}

// resolve finds a connected participant for an operator target. With
// allowOffline, a bare numeric identity token resolves even when nobody
// by that identity is connected.
func (e *Enforcer) resolve(target string, allowOffline bool) (model.Participant, error) {
	p, err := e.roster.Resolve(target)
	switch {
	case err == nil:
		return p, nil
	case errors.Is(err, model.ErrAmbiguousTarget):
		return model.Participant{}, e.fail(err, i18n.AmbiguousTargetKey, target)
	case allowOffline && isIdentityToken(target):
		return model.Participant{Identity: model.Identity(target), Name: target}, nil
	default:
		return model.Participant{}, e.fail(model.ErrTargetNotFound, i18n.TargetNotFoundKey, target)
	}
}

// resolveOnLoop runs resolve as a frame task
func (e *Enforcer) resolveOnLoop(ctx context.Context, target string, allowOffline bool) (model.Participant, error) {
	var p model.Participant
	err := e.loop.Do(ctx, func() error {
		var err error
		p, err = e.resolve(target, allowOffline)
		return err
	})
	return p, err
}

func isIdentityToken(s string) bool {
	if s == "" {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) }) < 0
}

// displayName returns a participant's name, falling back to the identity
func (e *Enforcer) displayName(id model.Identity) string {
	if id == "" || id == ConsoleIdentity {
		return string(ConsoleIdentity)
	}
	if p, ok := e.roster.Participant(id); ok && p.Name != "" {
		return p.Name
	}
	return string(id)
}

func staffOrConsole(staff model.Identity) model.Identity {
	if staff == "" {
		return ConsoleIdentity
	}
	return staff
}

// BansAvailable reports whether ban storage is configured
func (e *Enforcer) BansAvailable() bool {
	return e.bans.Enabled()
}
