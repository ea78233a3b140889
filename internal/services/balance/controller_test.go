package balance

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/teamenforcer/internal/dependencies/mocks"
	"github.com/mcoot/teamenforcer/internal/host"
	"github.com/mcoot/teamenforcer/internal/i18n"
	"github.com/mcoot/teamenforcer/internal/model"
	"github.com/mcoot/teamenforcer/internal/services/queue"
	"github.com/mcoot/teamenforcer/internal/testutil"
)

type fakeBans struct {
	enabled bool
	banned  map[model.Identity]bool
	errs    map[model.Identity]error
	lookups int
}

func (f *fakeBans) Enabled() bool { return f.enabled }

func (f *fakeBans) IsBanned(_ context.Context, id model.Identity) (bool, error) {
	f.lookups++
	if err := f.errs[id]; err != nil {
		return false, err
	}
	return f.banned[id], nil
}

type ControllerSuite struct {
	suite.Suite
	registry   *host.Registry
	notifier   *testutil.RecordingNotifier
	queue      *queue.Manager
	bans       *fakeBans
	random     *mocks.MockRandom
	cfg        Config
	controller *Controller
	ctx        context.Context
	nextHandle int
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.registry = host.NewRegistry(nil, testutil.NopLogger())
	s.notifier = &testutil.RecordingNotifier{}
	s.queue = queue.NewManager()
	s.bans = &fakeBans{
		enabled: true,
		banned:  make(map[model.Identity]bool),
		errs:    make(map[model.Identity]error),
	}
	s.random = mocks.NewMockRandom()
	s.cfg = DefaultConfig()
	s.nextHandle = 0
	s.ctx = context.Background()
	s.build()
}

func (s *ControllerSuite) build() {
	s.controller = NewController(s.registry, s.notifier, s.queue, s.bans, s.random,
		i18n.Printer("en"), s.cfg, testutil.NopLogger())
}

func (s *ControllerSuite) connect(id string, role model.Role) model.Identity {
	s.nextHandle++
	s.Require().NoError(s.registry.Connect(model.Participant{
		Identity: model.Identity(id),
		Handle:   model.Handle(s.nextHandle),
		Name:     "name-" + id,
		Role:     role,
	}))
	return model.Identity(id)
}

// connectFree connects n free participants named prefix1..prefixN
func (s *ControllerSuite) connectFree(prefix string, n int) []model.Identity {
	ids := make([]model.Identity, 0, n)
	for i := 1; i <= n; i++ {
		ids = append(ids, s.connect(fmt.Sprintf("%s%d", prefix, i), model.RoleFree))
	}
	return ids
}

func (s *ControllerSuite) role(id model.Identity) model.Role {
	p, ok := s.registry.Participant(id)
	s.Require().True(ok)
	return p.Role
}

func (s *ControllerSuite) guards() []model.Identity {
	var ids []model.Identity
	for _, p := range s.registry.Participants() {
		if p.Role == model.RoleGuard {
			ids = append(ids, p.Identity)
		}
	}
	return ids
}

// Promote / Demote

func (s *ControllerSuite) TestPromoteMarksLegitimateAndLeavesQueue() {
	id := s.connect("a", model.RoleFree)
	s.queue.Join(id, model.TierNormal)

	s.Require().NoError(s.controller.Promote(id))

	s.Equal(model.RoleGuard, s.role(id))
	s.True(s.controller.IsLegitimate(id))
	s.False(s.queue.Contains(id))
	s.Equal([]model.Identity{id}, s.controller.Legitimate())
}

func (s *ControllerSuite) TestPromoteExistingGuardIsNoop() {
	id := s.connect("a", model.RoleGuard)

	s.Require().NoError(s.controller.Promote(id))

	s.False(s.controller.IsLegitimate(id))
	s.Empty(s.controller.Legitimate())
}

func (s *ControllerSuite) TestOperationsOnStaleIdentity() {
	s.ErrorIs(s.controller.Promote("gone"), model.ErrStaleIdentity)
	s.ErrorIs(s.controller.Demote("gone"), model.ErrStaleIdentity)
	s.ErrorIs(s.controller.Kick("gone", 3), model.ErrStaleIdentity)
	s.ErrorIs(s.controller.RequestLeave("gone"), model.ErrStaleIdentity)
	s.ErrorIs(s.controller.OptOut("gone"), model.ErrStaleIdentity)
}

func (s *ControllerSuite) TestDemoteClearsLegitimacy() {
	id := s.connect("a", model.RoleFree)
	s.Require().NoError(s.controller.Promote(id))

	s.Require().NoError(s.controller.Demote(id))

	s.Equal(model.RoleFree, s.role(id))
	s.False(s.controller.IsLegitimate(id))
	s.Empty(s.controller.Legitimate())
}

func (s *ControllerSuite) TestDemoteNonGuardIsNoop() {
	free := s.connect("a", model.RoleFree)
	spec := s.connect("b", model.RoleSpectator)

	s.NoError(s.controller.Demote(free))
	s.NoError(s.controller.Demote(spec))
	s.Equal(model.RoleSpectator, s.role(spec))
}

func (s *ControllerSuite) TestRepromotionMovesToTopOfStack() {
	a := s.connect("a", model.RoleFree)
	b := s.connect("b", model.RoleFree)
	s.Require().NoError(s.controller.Promote(a))
	s.Require().NoError(s.controller.Promote(b))
	s.Require().NoError(s.controller.Demote(a))
	s.Require().NoError(s.controller.Promote(a))

	s.Equal([]model.Identity{b, a}, s.controller.Legitimate())
}

func (s *ControllerSuite) TestLeftGuardEndsSanctionedPromotion() {
	a := s.connect("a", model.RoleFree)
	b := s.connect("b", model.RoleFree)
	s.Require().NoError(s.controller.Promote(a))
	s.Require().NoError(s.controller.Promote(b))
	s.Require().NoError(s.controller.RequestLeave(a))

	// The host moves a off and back onto the guard team on its own
	s.Require().NoError(s.registry.ReportRole(a, model.RoleFree))
	s.controller.LeftGuard(a)
	s.Require().NoError(s.registry.ReportRole(a, model.RoleGuard))

	s.False(s.controller.IsLegitimate(a))
	s.Equal([]model.Identity{b}, s.controller.Legitimate())

	report := s.controller.Reconcile(s.ctx, false)
	s.Contains(report.IllegitimateDemoted, a)
	s.Empty(report.LeaversDemoted)
	s.Equal(model.RoleFree, s.role(a))
}

type refusingSink struct {
	err error
}

func (r *refusingSink) RoleSwitched(model.Participant) error { return r.err }

func (s *ControllerSuite) useSink(sink host.DirectiveSink) {
	s.registry = host.NewRegistry(sink, testutil.NopLogger())
	s.build()
}

func (s *ControllerSuite) TestUndeliveredPromotionChangesNothing() {
	sink := &refusingSink{err: model.ErrHostUnreachable}
	s.useSink(sink)
	a := s.connect("a", model.RoleFree)
	s.queue.Join(a, model.TierNormal)

	s.ErrorIs(s.controller.Promote(a), model.ErrHostUnreachable)

	s.Equal(model.RoleFree, s.role(a))
	s.False(s.controller.IsLegitimate(a))
	s.Empty(s.controller.Legitimate())
	s.True(s.queue.Contains(a))
}

func (s *ControllerSuite) TestUndeliveredDemotionChangesNothing() {
	sink := &refusingSink{}
	s.useSink(sink)
	a := s.connect("a", model.RoleFree)
	s.Require().NoError(s.controller.Promote(a))

	sink.err = model.ErrHostUnreachable
	s.ErrorIs(s.controller.Demote(a), model.ErrHostUnreachable)
	s.ErrorIs(s.controller.Kick(a, 2), model.ErrHostUnreachable)

	s.Equal(model.RoleGuard, s.role(a))
	s.True(s.controller.IsLegitimate(a))
	s.False(s.controller.IsKicked(a))
}

func (s *ControllerSuite) TestUndeliveredQueuedPromotionIsRequeued() {
	sink := &refusingSink{}
	s.useSink(sink)
	free := s.connectFree("f", 8)
	s.Require().NoError(s.controller.Promote(free[0]))
	s.queue.Join(free[1], model.TierNormal)

	sink.err = model.ErrHostUnreachable
	report := s.controller.Reconcile(s.ctx, false)

	s.Empty(report.Promoted)
	s.Equal(1, report.Shortfall)
	status, ok := s.queue.StatusOf(free[1])
	s.Require().True(ok)
	s.Equal("Priority Queue", status.TierName)
}

// Kick

func (s *ControllerSuite) TestKickDemotesAndExpiresAfterRounds() {
	id := s.connect("a", model.RoleFree)
	s.Require().NoError(s.controller.Promote(id))

	s.Require().NoError(s.controller.Kick(id, 2))
	s.Equal(model.RoleFree, s.role(id))
	s.Equal(2, s.controller.KickRemaining(id))

	s.controller.OnRoundStart()
	s.True(s.controller.IsKicked(id))
	s.Equal(1, s.controller.KickRemaining(id))

	s.controller.OnRoundStart()
	s.False(s.controller.IsKicked(id))
	s.Equal(0, s.controller.KickRemaining(id))
}

func (s *ControllerSuite) TestKickUsesDefaultRounds() {
	id := s.connect("a", model.RoleFree)
	s.queue.Join(id, model.TierNormal)

	s.Require().NoError(s.controller.Kick(id, 0))

	s.Equal(s.cfg.DefaultKickRounds, s.controller.KickRemaining(id))
	s.False(s.queue.Contains(id))
}

func (s *ControllerSuite) TestKickTwiceFails() {
	id := s.connect("a", model.RoleFree)
	s.Require().NoError(s.controller.Kick(id, 3))
	s.ErrorIs(s.controller.Kick(id, 3), model.ErrAlreadyInState)
}

// Leave requests and opt-outs

func (s *ControllerSuite) TestRequestLeaveRequiresGuard() {
	id := s.connect("a", model.RoleFree)
	s.ErrorIs(s.controller.RequestLeave(id), model.ErrWrongRole)
}

func (s *ControllerSuite) TestRequestLeaveTwiceFails() {
	id := s.connect("a", model.RoleGuard)
	s.Require().NoError(s.controller.RequestLeave(id))
	s.True(s.controller.IsLeaving(id))
	s.ErrorIs(s.controller.RequestLeave(id), model.ErrAlreadyInState)
}

func (s *ControllerSuite) TestLeaversDemotedAtReconcile() {
	s.connectFree("f", 3)
	id := s.connect("g", model.RoleFree)
	s.Require().NoError(s.controller.Promote(id))
	s.Require().NoError(s.controller.RequestLeave(id))

	report := s.controller.Reconcile(s.ctx, false)

	s.Equal([]model.Identity{id}, report.LeaversDemoted)
	s.Equal(model.RoleFree, s.role(id))
	s.True(s.controller.IsOptedOut(id))
	s.False(s.controller.IsLeaving(id))
	s.Len(s.notifier.TellsTo(id), 1)
	// the leaver is not picked again to fill the slot
	s.NotContains(report.Promoted, id)
}

func (s *ControllerSuite) TestOptOut() {
	id := s.connect("a", model.RoleFree)
	s.queue.Join(id, model.TierNormal)

	s.Require().NoError(s.controller.OptOut(id))
	s.True(s.controller.IsOptedOut(id))
	s.False(s.queue.Contains(id))
	s.ErrorIs(s.controller.OptOut(id), model.ErrAlreadyInState)

	guard := s.connect("g", model.RoleGuard)
	s.ErrorIs(s.controller.OptOut(guard), model.ErrWrongRole)
}

// Round start

func (s *ControllerSuite) TestRoundStartFlagsOccupancyAtThreshold() {
	id := s.connect("a", model.RoleFree)
	s.Require().NoError(s.controller.Promote(id))

	s.controller.OnRoundStart()
	s.False(s.controller.IsFlaggedThisSession(id))
	s.Equal(model.TierNormal, s.controller.PreferredTier(id))

	s.controller.OnRoundStart()
	s.True(s.controller.IsFlaggedThisSession(id))
	s.Equal(model.TierLow, s.controller.PreferredTier(id))

	s.controller.OnRoundStart()
	s.Len(s.notifier.TellsTo(id), 1, "flag notice is sent once")
}

func (s *ControllerSuite) TestRoundCountResetsWhenNotGuard() {
	id := s.connect("a", model.RoleFree)
	s.Require().NoError(s.controller.Promote(id))
	s.controller.OnRoundStart()

	s.Require().NoError(s.controller.Demote(id))
	s.controller.OnRoundStart()
	s.Require().NoError(s.controller.Promote(id))
	s.controller.OnRoundStart()

	s.False(s.controller.IsFlaggedThisSession(id))
}

func (s *ControllerSuite) TestFlaggedParticipantQueuesLow() {
	id := s.connect("a", model.RoleFree)
	s.Require().NoError(s.controller.Promote(id))
	s.controller.OnRoundStart()
	s.controller.OnRoundStart()
	s.Require().NoError(s.controller.Demote(id))

	status, created := s.queue.Join(id, s.controller.PreferredTier(id))

	s.True(created)
	s.Equal(model.TierLow.Name(), status.TierName)
}

func (s *ControllerSuite) TestPrepareForNewSessionRotatesOccupancy() {
	id := s.connect("a", model.RoleFree)
	other := s.connect("b", model.RoleFree)
	s.Require().NoError(s.controller.Promote(id))
	s.controller.OnRoundStart()
	s.controller.OnRoundStart()
	s.Require().NoError(s.controller.Kick(id, 4))
	s.Require().NoError(s.controller.OptOut(other))
	s.queue.Join("queued", model.TierNormal)

	s.controller.PrepareForNewSession()

	s.True(s.controller.WasGuardLastSession(id))
	s.False(s.controller.IsFlaggedThisSession(id))
	s.Equal(model.TierLow, s.controller.PreferredTier(id))
	s.False(s.controller.IsKicked(id))
	s.False(s.controller.IsOptedOut(other))
	s.Empty(s.controller.Legitimate())
	s.True(s.queue.IsEmpty())

	s.controller.PrepareForNewSession()
	s.False(s.controller.WasGuardLastSession(id))
}

// Reconciliation

func (s *ControllerSuite) TestIdealGuardCount() {
	tests := []struct {
		total int
		want  int
	}{
		{0, 1}, {1, 1}, {4, 1}, {7, 1}, {8, 2}, {11, 2}, {12, 3}, {40, 10},
	}
	for _, tt := range tests {
		s.Equal(tt.want, s.controller.IdealGuardCount(tt.total), "total %d", tt.total)
	}
}

func (s *ControllerSuite) TestReconcileFillsShortfallFromQueue() {
	free := s.connectFree("f", 8)
	guard := free[0]
	s.Require().NoError(s.controller.Promote(guard))
	s.queue.Join(free[3], model.TierNormal)
	s.queue.Join(free[5], model.TierNormal)

	report := s.controller.Reconcile(s.ctx, false)

	want := Report{Ideal: 2, Promoted: []model.Identity{free[3]}}
	if diff := cmp.Diff(want, report, cmpopts.EquateEmpty()); diff != "" {
		s.Failf("unexpected report", "(-want +got):\n%s", diff)
	}
	s.ElementsMatch([]model.Identity{guard, free[3]}, s.guards())
	s.True(s.queue.Contains(free[5]))
	s.Empty(s.random.PoolSizes)
}

func (s *ControllerSuite) TestReconcileFillsShortfallAtRandomWhenQueueEmpty() {
	free := s.connectFree("f", 8)
	s.connect("spectator", model.RoleSpectator)
	s.Require().NoError(s.controller.Promote(free[0]))
	s.random.QueueIntn(2)

	report := s.controller.Reconcile(s.ctx, false)

	s.Equal(2, report.Ideal)
	s.Require().Len(report.Promoted, 1)
	s.Empty(report.IllegitimateDemoted)
	s.Len(s.guards(), 2)
	s.Equal([]int{7}, s.random.PoolSizes, "pool holds only the free participants")
	s.Zero(s.random.Pending())
	s.True(s.controller.IsLegitimate(report.Promoted[0]))
}

func (s *ControllerSuite) TestQueueDrainSkipsIneligibleEntries() {
	free := s.connectFree("f", 8)
	s.Require().NoError(s.controller.Promote(free[0]))

	s.queue.Join("disconnected", model.TierHigh)
	s.queue.Join(free[1], model.TierHigh)
	s.queue.Join(free[2], model.TierNormal)
	s.bans.banned[free[1]] = true

	report := s.controller.Reconcile(s.ctx, false)

	s.Equal([]model.Identity{free[2]}, report.Promoted)
	s.False(s.queue.Contains("disconnected"))
	s.False(s.queue.Contains(free[1]), "ineligible entries are discarded")
}

func (s *ControllerSuite) TestQueueCandidateWithFailedBanLookupIsRequeued() {
	free := s.connectFree("f", 8)
	s.Require().NoError(s.controller.Promote(free[0]))
	s.queue.Join(free[1], model.TierNormal)
	s.bans.errs[free[1]] = errors.New("timeout")

	report := s.controller.Reconcile(s.ctx, false)

	s.Len(report.Promoted, 1, "the slot is filled at random instead")
	s.NotContains(report.Promoted, free[1])
	s.Equal(model.RoleFree, s.role(free[1]))
	status, ok := s.queue.StatusOf(free[1])
	s.Require().True(ok)
	s.Equal("Priority Queue", status.TierName)

	delete(s.bans.errs, free[1])
	s.Require().NoError(s.controller.Demote(report.Promoted[0]))
	report = s.controller.Reconcile(s.ctx, false)
	s.Equal([]model.Identity{free[1]}, report.Promoted)
}

func (s *ControllerSuite) TestRandomDrawSkipsRestrictedParticipants() {
	free := s.connectFree("f", 8)
	s.Require().NoError(s.controller.Kick(free[0], 2))
	s.Require().NoError(s.controller.OptOut(free[1]))
	s.bans.banned[free[2]] = true

	// Draw free[2] first (banned), then free[3]
	s.random.QueueIntn(0, 0)

	report := s.controller.Reconcile(s.ctx, false)

	s.Equal(2, report.Ideal)
	s.Len(report.Promoted, 2)
	s.NotContains(report.Promoted, free[0])
	s.NotContains(report.Promoted, free[1])
	s.NotContains(report.Promoted, free[2])
	s.Equal(6, s.random.PoolSizes[0], "kicked and opted-out participants never enter the pool")
}

func (s *ControllerSuite) TestRandomDrawIsBoundedWhenEveryoneIsBanned() {
	free := s.connectFree("f", 60)
	for _, id := range free {
		s.bans.banned[id] = true
	}

	report := s.controller.Reconcile(s.ctx, false)

	s.Empty(report.Promoted)
	s.Equal(15, report.Shortfall)
	s.Len(s.random.PoolSizes, s.cfg.RandomDrawAttempts)
	s.Contains(s.notifier.Broadcasts(), i18n.Printer("en").Sprintf(i18n.NotEnoughAvailableKey))
}

func (s *ControllerSuite) TestShortfallWithNobodyAvailable() {
	report := s.controller.Reconcile(s.ctx, false)

	s.Equal(1, report.Ideal)
	s.Equal(1, report.Shortfall)
	s.Empty(s.random.PoolSizes)
}

func (s *ControllerSuite) TestReconcileOverQuotaDemotesIllegitimateThenMostRecent() {
	x := s.connect("x", model.RoleFree)
	y := s.connect("y", model.RoleFree)
	z := s.connect("z", model.RoleFree)
	w := s.connect("w", model.RoleFree)
	s.connectFree("f", 4)
	s.Require().NoError(s.controller.Promote(x))
	s.Require().NoError(s.controller.Promote(y))
	s.Require().NoError(s.controller.Promote(z))
	s.Require().NoError(s.registry.ReportRole(w, model.RoleGuard))
	s.queue.Join("f4", model.TierNormal)

	report := s.controller.Reconcile(s.ctx, false)

	s.Equal(2, report.Ideal)
	s.Equal([]model.Identity{w}, report.IllegitimateDemoted)
	s.Equal([]model.Identity{z}, report.Evicted)
	s.ElementsMatch([]model.Identity{x, y}, s.guards())

	status, ok := s.queue.StatusOf(z)
	s.Require().True(ok)
	s.Equal(model.TierHigh.Name(), status.TierName)
	s.Equal(1, status.Position)
	s.Equal([]model.Identity{x, y}, s.controller.Legitimate())
}

func (s *ControllerSuite) TestIllegitimateCapSharedAcrossPasses() {
	s.cfg.IllegitimateDemotionCap = 1
	s.build()

	a := s.connect("a", model.RoleFree)
	b := s.connect("b", model.RoleFree)
	s.connectFree("f", 6)
	s.Require().NoError(s.controller.Promote(a))
	s.Require().NoError(s.controller.Promote(b))
	s.Require().NoError(s.registry.ReportRole("f1", model.RoleGuard))
	s.Require().NoError(s.registry.ReportRole("f2", model.RoleGuard))

	report := s.controller.Reconcile(s.ctx, false)

	// 4 guards, ideal 2: the cap allows one illegitimate demotion, the stack covers the rest
	s.Equal([]model.Identity{"f1"}, report.IllegitimateDemoted)
	s.Equal([]model.Identity{b}, report.Evicted)
	s.ElementsMatch([]model.Identity{a, "f2"}, s.guards())
}

func (s *ControllerSuite) TestBannedGuardDemotedOnceAndNotCountedAsIllegitimate() {
	s.connectFree("f", 7)
	banned := s.connect("b", model.RoleGuard)
	s.bans.banned[banned] = true
	s.random.QueueIntn(0, 0)

	report := s.controller.Reconcile(s.ctx, false)

	s.Equal([]model.Identity{banned}, report.BannedDemoted)
	s.Empty(report.IllegitimateDemoted)
	s.NotContains(report.Promoted, banned)
	s.Equal(model.RoleFree, s.role(banned))
	s.Len(report.Promoted, 2)
}

func (s *ControllerSuite) TestBanLookupFailureDoesNotAbortReconcile() {
	free := s.connectFree("f", 7)
	guard := s.connect("g", model.RoleFree)
	s.Require().NoError(s.controller.Promote(guard))
	s.bans.errs[guard] = errors.New("connection refused")
	s.queue.Join(free[0], model.TierNormal)

	report := s.controller.Reconcile(s.ctx, false)

	s.Empty(report.BannedDemoted)
	s.Equal(model.RoleGuard, s.role(guard))
	s.Equal([]model.Identity{free[0]}, report.Promoted)
}

func (s *ControllerSuite) TestDisabledBanCheckerSkipsLookups() {
	s.bans.enabled = false
	s.connectFree("f", 4)
	s.connect("g", model.RoleGuard)

	s.controller.Reconcile(s.ctx, false)

	s.Zero(s.bans.lookups)
}

func (s *ControllerSuite) TestNilBanCheckerIsAllowed() {
	s.controller = NewController(s.registry, s.notifier, s.queue, nil, s.random,
		i18n.Printer("en"), s.cfg, testutil.NopLogger())
	s.connectFree("f", 4)

	report := s.controller.Reconcile(s.ctx, false)
	s.Len(report.Promoted, 1)
}

func (s *ControllerSuite) TestWarmupEndSilencesIllegitimateNotice() {
	s.connectFree("f", 3)
	s.connect("g", model.RoleGuard)
	s.random.QueueIntn(0)

	report := s.controller.Reconcile(s.ctx, true)

	s.Len(report.IllegitimateDemoted, 1)
	notice := i18n.Printer("en").Sprintf(i18n.DemotedIllegitimateKey, "name-g")
	s.NotContains(s.notifier.Broadcasts(), notice)

	s.notifier.Reset()
	s.Require().NoError(s.registry.ReportRole("f2", model.RoleGuard))
	s.controller.Reconcile(s.ctx, false)
	s.Contains(s.notifier.Broadcasts(), i18n.Printer("en").Sprintf(i18n.DemotedIllegitimateKey, "name-f2"))
}

func (s *ControllerSuite) TestBalancedTeamsNoAction() {
	free := s.connectFree("f", 8)
	s.Require().NoError(s.controller.Promote(free[0]))
	s.Require().NoError(s.controller.Promote(free[1]))
	s.notifier.Reset()

	report := s.controller.Reconcile(s.ctx, false)

	s.Empty(report.Promoted)
	s.Empty(report.Evicted)
	s.Empty(s.notifier.Broadcasts())
}

func (s *ControllerSuite) TestEvictionSkipsDepartedStackEntries() {
	a := s.connect("a", model.RoleFree)
	b := s.connect("b", model.RoleFree)
	c := s.connect("c", model.RoleFree)
	s.Require().NoError(s.controller.Promote(a))
	s.Require().NoError(s.controller.Promote(b))
	s.Require().NoError(s.controller.Promote(c))
	s.registry.Disconnect(c)

	report := s.controller.Reconcile(s.ctx, false)

	// two guards among two active participants, ideal 1
	s.Equal([]model.Identity{b}, report.Evicted)
	s.Equal([]model.Identity{a}, s.guards())
	s.False(s.controller.IsLegitimate(c))
}
