// Package balance keeps the guard team at its target size and tracks who may
// join it during the current map.
package balance

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"slices"

	"golang.org/x/text/message"

	"github.com/mcoot/teamenforcer/internal/dependencies/random"
	"github.com/mcoot/teamenforcer/internal/host"
	"github.com/mcoot/teamenforcer/internal/i18n"
	"github.com/mcoot/teamenforcer/internal/metrics"
	"github.com/mcoot/teamenforcer/internal/model"
	"github.com/mcoot/teamenforcer/internal/services/queue"
)

// Config tunes balancing
type Config struct {
	GuardRatio              float64
	RoundsToLowPriority     int
	DefaultKickRounds       int
	IllegitimateDemotionCap int // 0 means no cap
	RandomDrawAttempts      int
}

// DefaultConfig returns the stock balancing settings
func DefaultConfig() Config {
	return Config{
		GuardRatio:          0.25,
		RoundsToLowPriority: 2,
		DefaultKickRounds:   5,
		RandomDrawAttempts:  50,
	}
}

// BanChecker is the blocking ban lookup used during reconciliation
type BanChecker interface {
	Enabled() bool
	IsBanned(ctx context.Context, id model.Identity) (bool, error)
}

// Report summarises one reconciliation pass
type Report struct {
	BannedDemoted       []model.Identity
	LeaversDemoted      []model.Identity
	IllegitimateDemoted []model.Identity
	Promoted            []model.Identity
	Evicted             []model.Identity
	Shortfall           int
	Ideal               int
}

type set = map[model.Identity]struct{}

// Controller owns per-map guard eligibility state. It is not safe for
// concurrent use; every call must come from the frame loop.
type Controller struct {
	roster   host.Roster
	notifier host.Notifier
	queue    *queue.Manager
	bans     BanChecker
	random   random.Random
	printer  *message.Printer
	logger   *slog.Logger
	cfg      Config

	kickedUntil          map[model.Identity]int
	noGuard              set
	legitimate           set
	promotionStack       []model.Identity
	leaveRequests        []model.Identity
	occupancyThisSession set
	occupancyLastSession set
	roundsInRole         map[model.Identity]int
}

// NewController creates a controller with empty session state. bans may be nil.
func NewController(
	roster host.Roster,
	notifier host.Notifier,
	queueManager *queue.Manager,
	bans BanChecker,
	rng random.Random,
	printer *message.Printer,
	cfg Config,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		roster:               roster,
		notifier:             notifier,
		queue:                queueManager,
		bans:                 bans,
		random:               rng,
		printer:              printer,
		logger:               logger.With(slog.String("component", "balance")),
		cfg:                  cfg,
		kickedUntil:          make(map[model.Identity]int),
		noGuard:              make(set),
		legitimate:           make(set),
		occupancyThisSession: make(set),
		occupancyLastSession: make(set),
		roundsInRole:         make(map[model.Identity]int),
	}
}

// PrepareForNewSession resets state at a map change. Occupancy flags earned this
// map carry over as last map's flags.
func (c *Controller) PrepareForNewSession() {
	c.queue.ClearAll()
	clear(c.noGuard)
	clear(c.legitimate)
	clear(c.kickedUntil)
	clear(c.roundsInRole)
	c.promotionStack = nil
	c.leaveRequests = nil

	c.occupancyLastSession = c.occupancyThisSession
	c.occupancyThisSession = make(set)

	c.logger.Info("session state reset",
		slog.Int("flagged_last_session", len(c.occupancyLastSession)))
}

// OnRoundStart counts guard rounds and ticks kick timers
func (c *Controller) OnRoundStart() {
	guards := make(set)
	for _, p := range c.roster.Participants() {
		if !p.Connected || p.Role != model.RoleGuard {
			continue
		}
		guards[p.Identity] = struct{}{}

		c.roundsInRole[p.Identity]++
		if c.roundsInRole[p.Identity] < c.cfg.RoundsToLowPriority {
			continue
		}
		if _, flagged := c.occupancyThisSession[p.Identity]; flagged {
			continue
		}
		c.occupancyThisSession[p.Identity] = struct{}{}
		c.notifier.Tell(p.Identity, c.printer.Sprintf(i18n.OccupancyFlaggedKey))
		c.logger.Info("guard flagged for low priority",
			slog.String("identity", string(p.Identity)),
			slog.Int("rounds", c.roundsInRole[p.Identity]))
	}

	// Only consecutive rounds count
	for id := range c.roundsInRole {
		if _, ok := guards[id]; !ok {
			delete(c.roundsInRole, id)
		}
	}

	for id := range c.kickedUntil {
		c.kickedUntil[id]--
		if c.kickedUntil[id] <= 0 {
			delete(c.kickedUntil, id)
			c.logger.Info("guard kick expired", slog.String("identity", string(id)))
		}
	}
}

// Reconcile runs the full balancing pass. warmupEnd silences the per-player
// notice for illegitimate guards removed in the first pass.
func (c *Controller) Reconcile(ctx context.Context, warmupEnd bool) Report {
	var report Report
	c.logger.Info("balancing teams", slog.Bool("warmup_end", warmupEnd))

	c.step("remove banned", func() { report.BannedDemoted = c.removeBanned(ctx) })
	c.step("remove leavers", func() { report.LeaversDemoted = c.removeLeavers() })

	illegitimateBudget := math.MaxInt
	if c.cfg.IllegitimateDemotionCap > 0 {
		illegitimateBudget = c.cfg.IllegitimateDemotionCap
	}
	c.step("remove illegitimate", func() {
		demoted := c.demoteIllegitimate(illegitimateBudget, !warmupEnd)
		illegitimateBudget -= len(demoted)
		report.IllegitimateDemoted = demoted
	})

	guards, total := c.counts()
	report.Ideal = c.IdealGuardCount(total)

	switch {
	case guards < report.Ideal:
		c.step("fill guards", func() {
			promoted, shortfall := c.fill(ctx, report.Ideal-guards)
			report.Promoted = promoted
			report.Shortfall = shortfall
		})
	case guards > report.Ideal:
		c.step("trim guards", func() {
			overflow := guards - report.Ideal
			demoted := c.demoteIllegitimate(min(overflow, illegitimateBudget), true)
			report.IllegitimateDemoted = append(report.IllegitimateDemoted, demoted...)
			report.Evicted = c.evict(overflow - len(demoted))
		})
	}

	c.logger.Info("teams balanced",
		slog.Int("ideal", report.Ideal),
		slog.Int("banned_demoted", len(report.BannedDemoted)),
		slog.Int("leavers_demoted", len(report.LeaversDemoted)),
		slog.Int("illegitimate_demoted", len(report.IllegitimateDemoted)),
		slog.Int("promoted", len(report.Promoted)),
		slog.Int("evicted", len(report.Evicted)),
		slog.Int("shortfall", report.Shortfall))

	metrics.RecordReconciliation(warmupEnd, report.Ideal, report.Shortfall, len(report.Promoted))
	metrics.RecordDemotions(metrics.DemotedBanned, len(report.BannedDemoted))
	metrics.RecordDemotions(metrics.DemotedLeaver, len(report.LeaversDemoted))
	metrics.RecordDemotions(metrics.DemotedIllegitimate, len(report.IllegitimateDemoted))
	metrics.RecordDemotions(metrics.DemotedEvicted, len(report.Evicted))
	return report
}

// step runs one reconciliation stage, containing panics so later stages still run
func (c *Controller) step(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("balancing step failed",
				slog.String("step", name),
				slog.Any("error", r))
		}
	}()
	fn()
}

// IdealGuardCount is floor(total * ratio), never below one
func (c *Controller) IdealGuardCount(totalActive int) int {
	return max(1, int(math.Floor(float64(totalActive)*c.cfg.GuardRatio)))
}

func (c *Controller) counts() (guards, total int) {
	for _, p := range c.roster.Participants() {
		if !p.IsActive() {
			continue
		}
		total++
		if p.Role == model.RoleGuard {
			guards++
		}
	}
	return guards, total
}

func (c *Controller) currentGuards() []model.Participant {
	var guards []model.Participant
	for _, p := range c.roster.Participants() {
		if p.Connected && p.Role == model.RoleGuard {
			guards = append(guards, p)
		}
	}
	return guards
}

func (c *Controller) removeBanned(ctx context.Context) []model.Identity {
	if c.bans == nil || !c.bans.Enabled() {
		return nil
	}
	var demoted []model.Identity
	for _, p := range c.currentGuards() {
		banned, err := c.bans.IsBanned(ctx, p.Identity)
		if err != nil {
			c.logger.Error("ban lookup failed during balancing",
				slog.String("identity", string(p.Identity)),
				slog.Any("error", err))
			continue
		}
		if !banned || !c.demoted(p.Identity) {
			continue
		}
		c.notifier.Broadcast(c.printer.Sprintf(i18n.RemovedBannedKey, p.Name))
		demoted = append(demoted, p.Identity)
	}
	return demoted
}

func (c *Controller) removeLeavers() []model.Identity {
	var demoted []model.Identity
	label := c.printer.Sprintf(i18n.GuardQueueCommandLabel)
	requests := c.leaveRequests
	c.leaveRequests = nil
	for _, id := range requests {
		p, ok := c.roster.Participant(id)
		if !ok || p.Role != model.RoleGuard {
			continue
		}
		if !c.demoted(id) {
			c.leaveRequests = append(c.leaveRequests, id)
			continue
		}
		c.noGuard[id] = struct{}{}
		c.notifier.Tell(id, c.printer.Sprintf(i18n.DemotedLeaverKey, label))
		demoted = append(demoted, id)
	}
	return demoted
}

// demoteIllegitimate removes up to limit guards who did not join through a
// sanctioned promotion, in handle order
func (c *Controller) demoteIllegitimate(limit int, announce bool) []model.Identity {
	var demoted []model.Identity
	for _, p := range c.currentGuards() {
		if len(demoted) >= limit {
			break
		}
		if _, ok := c.legitimate[p.Identity]; ok {
			continue
		}
		if !c.demoted(p.Identity) {
			continue
		}
		if announce {
			c.notifier.Broadcast(c.printer.Sprintf(i18n.DemotedIllegitimateKey, p.Name))
		}
		demoted = append(demoted, p.Identity)
	}
	return demoted
}

// fill promotes up to need participants, from the queue first and then at
// random. It returns who was promoted and how many slots stayed empty.
func (c *Controller) fill(ctx context.Context, need int) ([]model.Identity, int) {
	var promoted, retry []model.Identity

	for _, id := range c.queue.DrainNext(need, func(id model.Identity) bool {
		eligible, unknown := c.eligibleFromQueue(ctx, id)
		if unknown {
			retry = append(retry, id)
		}
		return eligible
	}) {
		p, _ := c.roster.Participant(id)
		if err := c.Promote(id); err != nil {
			c.logger.Warn("queued promotion failed",
				slog.String("identity", string(id)),
				slog.Any("error", err))
			if errors.Is(err, model.ErrHostUnreachable) {
				retry = append(retry, id)
			}
			continue
		}
		c.notifier.Broadcast(c.printer.Sprintf(i18n.PromotedFromQueueKey, p.Name))
		promoted = append(promoted, id)
	}

	if len(promoted) < need {
		for _, p := range c.drawRandom(ctx, need-len(promoted)) {
			if err := c.Promote(p.Identity); err != nil {
				continue
			}
			c.notifier.Broadcast(c.printer.Sprintf(i18n.RandomlyPromotedKey, p.Name))
			promoted = append(promoted, p.Identity)
		}
	}

	// Entries that could not be settled this pass keep a claim on the next one
	for _, id := range retry {
		c.queue.Join(id, model.TierHigh)
	}

	shortfall := need - len(promoted)
	if shortfall > 0 {
		c.notifier.Broadcast(c.printer.Sprintf(i18n.NotEnoughAvailableKey))
		c.logger.Warn("could not fill guard team", slog.Int("shortfall", shortfall))
	}
	return promoted, shortfall
}

// eligibleFromQueue runs once per drained entry. Nobody whose ban state is
// unknown is promoted: a failed lookup reports unknown so the caller can
// requeue the entry.
func (c *Controller) eligibleFromQueue(ctx context.Context, id model.Identity) (eligible, unknown bool) {
	p, ok := c.roster.Participant(id)
	if !ok || p.Role != model.RoleFree || c.restricted(id) {
		return false, false
	}
	banned, err := c.isBanned(ctx, id)
	if err != nil {
		c.logger.Error("ban lookup failed for queued candidate",
			slog.String("identity", string(id)),
			slog.Any("error", err))
		return false, true
	}
	return !banned, false
}

// drawRandom picks up to count free participants uniformly without
// replacement, giving up after the configured number of draws
func (c *Controller) drawRandom(ctx context.Context, count int) []model.Participant {
	var pool []model.Participant
	for _, p := range c.roster.Participants() {
		if p.Connected && p.Role == model.RoleFree && !c.restricted(p.Identity) {
			pool = append(pool, p)
		}
	}

	var picked []model.Participant
	for attempts := 0; len(picked) < count && len(pool) > 0 && attempts < c.cfg.RandomDrawAttempts; attempts++ {
		var candidate model.Participant
		candidate, pool = random.Draw(c.random, pool)

		banned, err := c.isBanned(ctx, candidate.Identity)
		if err != nil {
			c.logger.Error("ban lookup failed for random candidate",
				slog.String("identity", string(candidate.Identity)),
				slog.Any("error", err))
			continue
		}
		if banned {
			continue
		}
		picked = append(picked, candidate)
	}
	return picked
}

// evict demotes the most recently promoted guards and puts them at the front
// of the queue
func (c *Controller) evict(count int) []model.Identity {
	var evicted []model.Identity
	for len(evicted) < count && len(c.promotionStack) > 0 {
		id := c.promotionStack[len(c.promotionStack)-1]

		p, ok := c.roster.Participant(id)
		if !ok || p.Role != model.RoleGuard {
			c.LeftGuard(id)
			continue
		}
		// Demote pops the stack on success; a failure leaves it intact
		if !c.demoted(id) {
			break
		}
		c.queue.Join(id, model.TierHigh)
		c.notifier.Broadcast(c.printer.Sprintf(i18n.DemotedFromStackKey, p.Name))
		evicted = append(evicted, id)
	}
	return evicted
}

func (c *Controller) restricted(id model.Identity) bool {
	if _, ok := c.noGuard[id]; ok {
		return true
	}
	_, kicked := c.kickedUntil[id]
	return kicked
}

func (c *Controller) isBanned(ctx context.Context, id model.Identity) (bool, error) {
	if c.bans == nil || !c.bans.Enabled() {
		return false, nil
	}
	return c.bans.IsBanned(ctx, id)
}

// demoted runs Demote and reports whether it succeeded, logging failures
func (c *Controller) demoted(id model.Identity) bool {
	if err := c.Demote(id); err != nil {
		if !errors.Is(err, model.ErrStaleIdentity) {
			c.logger.Warn("demotion failed",
				slog.String("identity", string(id)),
				slog.Any("error", err))
		}
		return false
	}
	return true
}

// Promote moves a participant to the guard team through the sanctioned path.
// Existing guards are left alone.
func (c *Controller) Promote(id model.Identity) error {
	p, ok := c.roster.Participant(id)
	if !ok {
		return model.ErrStaleIdentity
	}
	if p.Role == model.RoleGuard {
		return nil
	}

	if err := c.roster.SwitchRole(id, model.RoleGuard); err != nil {
		return err
	}
	c.queue.Leave(id)
	c.removeFromStack(id)
	c.promotionStack = append(c.promotionStack, id)
	c.legitimate[id] = struct{}{}

	c.logger.Info("promoted to guard", slog.String("identity", string(id)))
	return nil
}

// Demote moves a guard to the free team. Non-guards are left alone.
func (c *Controller) Demote(id model.Identity) error {
	p, ok := c.roster.Participant(id)
	if !ok {
		return model.ErrStaleIdentity
	}
	if p.Role != model.RoleGuard {
		return nil
	}

	if err := c.roster.SwitchRole(id, model.RoleFree); err != nil {
		return err
	}
	c.LeftGuard(id)

	c.logger.Info("demoted to free", slog.String("identity", string(id)))
	return nil
}

// Kick bars a participant from the guard team for a number of round starts and
// demotes them now. rounds below one uses the configured default.
func (c *Controller) Kick(id model.Identity, rounds int) error {
	if _, ok := c.roster.Participant(id); !ok {
		return model.ErrStaleIdentity
	}
	if rounds < 1 {
		rounds = c.cfg.DefaultKickRounds
	}
	if _, kicked := c.kickedUntil[id]; kicked {
		return model.ErrAlreadyInState
	}

	if err := c.Demote(id); err != nil {
		return err
	}
	c.kickedUntil[id] = rounds
	c.queue.Leave(id)
	c.logger.Info("kicked from guard",
		slog.String("identity", string(id)),
		slog.Int("rounds", rounds))
	return nil
}

// RequestLeave schedules a guard to move to the free team at the next round end
func (c *Controller) RequestLeave(id model.Identity) error {
	p, ok := c.roster.Participant(id)
	if !ok {
		return model.ErrStaleIdentity
	}
	if p.Role != model.RoleGuard {
		return model.ErrWrongRole
	}
	if c.IsLeaving(id) {
		return model.ErrAlreadyInState
	}
	c.leaveRequests = append(c.leaveRequests, id)
	c.logger.Info("guard leave requested", slog.String("identity", string(id)))
	return nil
}

// OptOut keeps a free participant off the guard team for the rest of the map
func (c *Controller) OptOut(id model.Identity) error {
	p, ok := c.roster.Participant(id)
	if !ok {
		return model.ErrStaleIdentity
	}
	if p.Role != model.RoleFree {
		return model.ErrWrongRole
	}
	if _, ok := c.noGuard[id]; ok {
		return model.ErrAlreadyInState
	}
	c.noGuard[id] = struct{}{}
	c.queue.Leave(id)
	return nil
}

// LeftGuard forgets the sanctioned promotion of a participant who is no
// longer on the guard team. Call it whenever a guard leaves the role or the
// server by any path.
func (c *Controller) LeftGuard(id model.Identity) {
	delete(c.legitimate, id)
	c.removeFromStack(id)
	c.leaveRequests = slices.DeleteFunc(c.leaveRequests, func(other model.Identity) bool {
		return other == id
	})
}

func (c *Controller) removeFromStack(id model.Identity) {
	c.promotionStack = slices.DeleteFunc(c.promotionStack, func(other model.Identity) bool {
		return other == id
	})
}

// KickRemaining returns the rounds left on a kick, zero if not kicked
func (c *Controller) KickRemaining(id model.Identity) int {
	return c.kickedUntil[id]
}

func (c *Controller) IsKicked(id model.Identity) bool {
	_, ok := c.kickedUntil[id]
	return ok
}

func (c *Controller) IsOptedOut(id model.Identity) bool {
	_, ok := c.noGuard[id]
	return ok
}

func (c *Controller) IsLeaving(id model.Identity) bool {
	return slices.Contains(c.leaveRequests, id)
}

func (c *Controller) IsLegitimate(id model.Identity) bool {
	_, ok := c.legitimate[id]
	return ok
}

func (c *Controller) WasGuardLastSession(id model.Identity) bool {
	_, ok := c.occupancyLastSession[id]
	return ok
}

func (c *Controller) IsFlaggedThisSession(id model.Identity) bool {
	_, ok := c.occupancyThisSession[id]
	return ok
}

// Legitimate returns sanctioned guards, oldest promotion first
func (c *Controller) Legitimate() []model.Identity {
	return slices.Clone(c.promotionStack)
}

// PreferredTier is the tier a participant joins with no explicit choice
func (c *Controller) PreferredTier(id model.Identity) model.Tier {
	if c.WasGuardLastSession(id) || c.IsFlaggedThisSession(id) {
		return model.TierLow
	}
	return model.TierNormal
}

// GuardCount returns the number of connected guards
func (c *Controller) GuardCount() int {
	return len(c.currentGuards())
}
