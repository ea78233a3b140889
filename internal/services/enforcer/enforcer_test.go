package enforcer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/teamenforcer/internal/dependencies/mocks"
	"github.com/mcoot/teamenforcer/internal/frame"
	"github.com/mcoot/teamenforcer/internal/host"
	"github.com/mcoot/teamenforcer/internal/i18n"
	"github.com/mcoot/teamenforcer/internal/model"
	"github.com/mcoot/teamenforcer/internal/services/balance"
	"github.com/mcoot/teamenforcer/internal/services/ban"
	"github.com/mcoot/teamenforcer/internal/services/queue"
	"github.com/mcoot/teamenforcer/internal/storage"
	"github.com/mcoot/teamenforcer/internal/storage/memory"
	"github.com/mcoot/teamenforcer/internal/testutil"
)

type EnforcerSuite struct {
	suite.Suite
	ctx      context.Context
	loop     *frame.Loop
	registry *host.Registry
	notifier *testutil.RecordingNotifier
	queue    *queue.Manager
	store    *memory.Storage
	clock    *mocks.MockClock
	random   *mocks.MockRandom
	enforcer *Enforcer
	logs     *testutil.LogBuffer
	handle   int
}

func TestEnforcerSuite(t *testing.T) {
	suite.Run(t, new(EnforcerSuite))
}

func (s *EnforcerSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = mocks.NewMockClock(mocks.Epoch)
	s.random = mocks.NewMockRandom()
	s.store = memory.New()
	s.handle = 0
	s.build(s.store)
}

func (s *EnforcerSuite) TearDownTest() {
	s.loop.Close()
}

func (s *EnforcerSuite) build(store storage.BanStore) {
	if s.loop != nil {
		s.loop.Close()
	}
	var logger *slog.Logger
	logger, s.logs = testutil.CapturingLogger()
	printer := i18n.Printer("en")

	s.loop = frame.New(logger)
	go s.loop.Run()
	s.notifier = &testutil.RecordingNotifier{}
	s.registry = host.NewRegistry(nil, logger)
	s.queue = queue.NewManager()
	bans := ban.New(store, s.clock, logger)
	controller := balance.NewController(s.registry, s.notifier, s.queue, bans, s.random, printer, balance.DefaultConfig(), logger)
	s.enforcer = New(s.loop, s.registry, s.notifier, s.queue, controller, bans, s.clock, printer,
		Config{DefaultKickRounds: 5, JoinNoticeCooldown: 3 * time.Second}, logger)
}

func (s *EnforcerSuite) connect(id string, role model.Role) model.Identity {
	s.handle++
	s.Require().NoError(s.enforcer.Connect(s.ctx, model.Participant{
		Identity:  model.Identity(id),
		Handle:    model.Handle(s.handle),
		Name:      "name-" + id,
		Role:      role,
		Connected: true,
	}))
	return model.Identity(id)
}

func (s *EnforcerSuite) ban(id model.Identity, d time.Duration) {
	expires := s.clock.Now().Add(d)
	record := &model.BanRecord{
		BannedIdentity: id,
		StaffIdentity:  "staff",
		Reason:         "test",
		IssuedAt:       s.clock.Now(),
		Active:         true,
	}
	if d > 0 {
		record.ExpiresAt = &expires
	}
	s.Require().NoError(s.store.InsertBan(s.ctx, record))
}

func (s *EnforcerSuite) notice(err error) string {
	var cmdErr *model.CommandError
	s.Require().True(errors.As(err, &cmdErr), "expected a command error, got %v", err)
	return cmdErr.Notice
}

func (s *EnforcerSuite) TestJoinEmptyGuardTeamPromotesInstantly() {
	a := s.connect("1", model.RoleFree)

	reply, err := s.enforcer.JoinGuardQueue(s.ctx, a)
	s.Require().NoError(err)
	s.Equal([]string{"The guard team was empty, so you were moved instantly."}, reply.Messages)

	p, _ := s.registry.Participant(a)
	s.Equal(model.RoleGuard, p.Role)
	s.True(s.queue.IsEmpty())
}

func (s *EnforcerSuite) TestJoinQueuesWhenGuardsExist() {
	s.connect("g", model.RoleGuard)
	a := s.connect("1", model.RoleFree)

	reply, err := s.enforcer.JoinGuardQueue(s.ctx, a)
	s.Require().NoError(err)
	s.Require().NotNil(reply.Status)
	s.Equal(1, reply.Status.Position)
	s.Equal("You joined the guard queue.", reply.Messages[0])

	reply, err = s.enforcer.JoinGuardQueue(s.ctx, a)
	s.Require().NoError(err)
	s.Equal("You are already in the Main Queue at position 1.", reply.Messages[0])
}

func (s *EnforcerSuite) TestJoinRequiresFreeRole() {
	g := s.connect("g", model.RoleGuard)

	_, err := s.enforcer.JoinGuardQueue(s.ctx, g)
	s.ErrorIs(err, model.ErrWrongRole)
}

func (s *EnforcerSuite) TestJoinRefusesBannedParticipant() {
	s.connect("g", model.RoleGuard)
	perm := s.connect("perm", model.RoleFree)
	temp := s.connect("temp", model.RoleFree)
	s.ban(perm, 0)
	s.ban(temp, 10*time.Minute)

	_, err := s.enforcer.JoinGuardQueue(s.ctx, perm)
	s.ErrorIs(err, model.ErrGuardBanned)
	s.Equal("You are permanently banned from the guard team.", s.notice(err))

	_, err = s.enforcer.JoinGuardQueue(s.ctx, temp)
	var banErr *model.BanError
	s.Require().ErrorAs(err, &banErr)
	s.Equal(10, banErr.Record.MinutesLeft(banErr.Now))
	s.Equal("You are banned from the guard team for 10 more minutes.", s.notice(err))
	s.True(s.queue.IsEmpty())
}

func (s *EnforcerSuite) TestBannedParticipantNotPromotedIntoEmptyTeam() {
	a := s.connect("1", model.RoleFree)
	s.ban(a, 0)

	_, err := s.enforcer.JoinGuardQueue(s.ctx, a)
	s.ErrorIs(err, model.ErrGuardBanned)
	p, _ := s.registry.Participant(a)
	s.Equal(model.RoleFree, p.Role)
}

func (s *EnforcerSuite) TestJoinRefusesKickedParticipant() {
	a := s.connect("1", model.RoleGuard)
	_, err := s.enforcer.ForceKick(s.ctx, "staff", "1", 3)
	s.Require().NoError(err)

	_, err = s.enforcer.JoinGuardQueue(s.ctx, a)
	var kickErr *model.KickError
	s.Require().ErrorAs(err, &kickErr)
	s.Equal(3, kickErr.Rounds)
	s.ErrorIs(err, model.ErrGuardKicked)
}

func (s *EnforcerSuite) TestJoinWithoutBanStorageStillQueues() {
	s.build(nil)
	s.connect("g", model.RoleGuard)
	a := s.connect("1", model.RoleFree)

	reply, err := s.enforcer.JoinGuardQueue(s.ctx, a)
	s.Require().NoError(err)
	s.NotNil(reply.Status)
}

func (s *EnforcerSuite) TestJoinAfterDisconnectIsDropped() {
	s.connect("g", model.RoleGuard)
	a := s.connect("1", model.RoleFree)
	s.Require().NoError(s.enforcer.Disconnect(s.ctx, a))

	reply, err := s.enforcer.JoinGuardQueue(s.ctx, a)
	s.NoError(err)
	s.Empty(reply.Messages)
	s.True(s.queue.IsEmpty())
}

func (s *EnforcerSuite) TestDisconnectLeavesQueue() {
	s.connect("g", model.RoleGuard)
	a := s.connect("1", model.RoleFree)
	_, err := s.enforcer.JoinGuardQueue(s.ctx, a)
	s.Require().NoError(err)

	s.Require().NoError(s.enforcer.Disconnect(s.ctx, a))
	s.True(s.queue.IsEmpty())
	s.ErrorIs(s.enforcer.Disconnect(s.ctx, a), model.ErrTargetNotFound)
}

func (s *EnforcerSuite) TestLeaveQueue() {
	s.connect("g", model.RoleGuard)
	a := s.connect("1", model.RoleFree)

	_, err := s.enforcer.LeaveQueue(s.ctx, a)
	s.ErrorIs(err, model.ErrItemNotFound)

	_, err = s.enforcer.JoinGuardQueue(s.ctx, a)
	s.Require().NoError(err)
	reply, err := s.enforcer.LeaveQueue(s.ctx, a)
	s.Require().NoError(err)
	s.Equal([]string{"You left the guard queue."}, reply.Messages)
}

func (s *EnforcerSuite) TestViewQueue() {
	reply, err := s.enforcer.ViewQueue(s.ctx, "")
	s.Require().NoError(err)
	s.Equal([]string{"The guard queue is empty. Type !guard to join."}, reply.Messages)

	s.connect("g", model.RoleGuard)
	a := s.connect("1", model.RoleFree)
	b := s.connect("2", model.RoleFree)
	for _, id := range []model.Identity{a, b} {
		_, err := s.enforcer.JoinGuardQueue(s.ctx, id)
		s.Require().NoError(err)
	}

	reply, err = s.enforcer.ViewQueue(s.ctx, b)
	s.Require().NoError(err)
	s.Require().NotNil(reply.Status)
	s.Equal(2, reply.Status.Position)
	s.Len(reply.Queue, 2)
	s.Equal("Your place in the queue: 2", reply.Messages[0])
	s.Equal("Guard queue (2):", reply.Messages[1])
}

func (s *EnforcerSuite) TestOptOut() {
	s.connect("g", model.RoleGuard)
	a := s.connect("1", model.RoleFree)
	_, err := s.enforcer.JoinGuardQueue(s.ctx, a)
	s.Require().NoError(err)

	_, err = s.enforcer.OptOut(s.ctx, a)
	s.Require().NoError(err)
	s.True(s.queue.IsEmpty())

	_, err = s.enforcer.OptOut(s.ctx, a)
	s.ErrorIs(err, model.ErrAlreadyInState)
}

func (s *EnforcerSuite) TestLeaveGuard() {
	g := s.connect("g", model.RoleGuard)
	f := s.connect("f", model.RoleFree)

	_, err := s.enforcer.LeaveGuard(s.ctx, f)
	s.ErrorIs(err, model.ErrWrongRole)

	reply, err := s.enforcer.LeaveGuard(s.ctx, g)
	s.Require().NoError(err)
	s.Equal([]string{"You will be moved to the free team when the round ends."}, reply.Messages)

	_, err = s.enforcer.LeaveGuard(s.ctx, g)
	s.ErrorIs(err, model.ErrAlreadyInState)
}

func (s *EnforcerSuite) TestDirectGuardJoinRefusedWithThrottledNotice() {
	a := s.connect("1", model.RoleFree)

	_, err := s.enforcer.RequestTeamChange(s.ctx, a, model.RoleGuard)
	s.ErrorIs(err, model.ErrDirectGuardJoin)
	s.Equal("You cannot join the guard team directly. Type !guard to join the queue.", s.notice(err))

	s.clock.Advance(time.Second)
	_, err = s.enforcer.RequestTeamChange(s.ctx, a, model.RoleGuard)
	s.ErrorIs(err, model.ErrDirectGuardJoin)
	s.Empty(s.notice(err))

	s.clock.Advance(4 * time.Second)
	_, err = s.enforcer.RequestTeamChange(s.ctx, a, model.RoleGuard)
	s.NotEmpty(s.notice(err))
}

func (s *EnforcerSuite) TestGuardToFreeBecomesLeaveRequest() {
	g := s.connect("g", model.RoleGuard)

	reply, err := s.enforcer.RequestTeamChange(s.ctx, g, model.RoleFree)
	s.Require().NoError(err)
	s.False(reply.Allowed)
	s.Equal([]string{"You will be moved to the free team when the round ends."}, reply.Messages)

	reply, err = s.enforcer.RequestTeamChange(s.ctx, g, model.RoleSpectator)
	s.Require().NoError(err)
	s.True(reply.Allowed)
}

func (s *EnforcerSuite) TestBanDemotesAndLeavesQueue() {
	g := s.connect("g", model.RoleGuard)
	a := s.connect("1", model.RoleFree)
	_, err := s.enforcer.JoinGuardQueue(s.ctx, a)
	s.Require().NoError(err)

	reply, err := s.enforcer.Ban(s.ctx, "staff", "g", 30, "")
	s.Require().NoError(err)
	s.Require().NotNil(reply.Ban)
	s.Equal(DefaultReason, reply.Ban.Reason)
	p, _ := s.registry.Participant(g)
	s.Equal(model.RoleFree, p.Role)
	s.Contains(s.notifier.Broadcasts(), "name-g was banned from the guard team. Duration: 30 minutes")

	_, err = s.enforcer.Ban(s.ctx, "staff", "1", 0, "again")
	s.Require().NoError(err)
	s.True(s.queue.IsEmpty())
	s.Contains(s.notifier.Broadcasts(), "name-1 was banned from the guard team. Duration: permanent")

	_, err = s.enforcer.Ban(s.ctx, "staff", "1", 0, "twice")
	s.ErrorIs(err, model.ErrAlreadyBanned)
}

func (s *EnforcerSuite) TestBanOfflineIdentity() {
	reply, err := s.enforcer.Ban(s.ctx, "", "76561198000000001", 0, "left the server")
	s.Require().NoError(err)
	s.Equal(ConsoleIdentity, reply.Ban.StaffIdentity)

	_, err = s.enforcer.Ban(s.ctx, "", "nobody", 0, "")
	s.ErrorIs(err, model.ErrTargetNotFound)
}

func (s *EnforcerSuite) TestBanValidation() {
	_, err := s.enforcer.Ban(s.ctx, "staff", "1", -1, "")
	s.ErrorIs(err, model.ErrInvalidDuration)

	s.build(nil)
	_, err = s.enforcer.Ban(s.ctx, "staff", "1", 5, "")
	s.ErrorIs(err, model.ErrServiceUnavailable)
	_, err = s.enforcer.BanInfo(s.ctx, "staff", "1")
	s.ErrorIs(err, model.ErrServiceUnavailable)
	s.Contains(s.logs.String(), "ban storage is not configured")
	s.Contains(s.logs.String(), `"command":"ban"`)
}

func (s *EnforcerSuite) TestUnban() {
	a := s.connect("1", model.RoleFree)

	_, err := s.enforcer.Unban(s.ctx, "staff", "1", "")
	s.ErrorIs(err, model.ErrBanNotFound)

	s.ban(a, time.Hour)
	reply, err := s.enforcer.Unban(s.ctx, "staff", "1", "appeal")
	s.Require().NoError(err)
	s.Require().NotNil(reply.Unban)
	s.Equal("appeal", reply.Unban.Reason)
	s.Contains(s.notifier.Broadcasts(), "name-1 is no longer banned from the guard team.")

	_, err = s.enforcer.BanInfo(s.ctx, "staff", "1")
	s.ErrorIs(err, model.ErrBanNotFound)
}

func (s *EnforcerSuite) TestBanInfo() {
	a := s.connect("1", model.RoleFree)
	s.ban(a, 90*time.Minute)
	s.clock.Advance(30 * time.Minute)

	reply, err := s.enforcer.BanInfo(s.ctx, "staff", "1")
	s.Require().NoError(err)
	s.Equal([]string{"name-1 is banned from the guard team. Ban date: 2024-01-01 12:00:00, Staff: staff, " +
		"Reason: test, Total duration: 90 minutes, Time left: 60 minutes"}, reply.Messages)
}

func (s *EnforcerSuite) TestBanHistory() {
	a := s.connect("1", model.RoleFree)

	reply, err := s.enforcer.BanHistory(s.ctx, "staff", "1")
	s.Require().NoError(err)
	s.Equal([]string{"name-1 has never been banned from the guard team."}, reply.Messages)

	for i := range 3 {
		_, err := s.enforcer.Ban(s.ctx, "staff", string(a), 10, fmt.Sprintf("reason %d", i))
		s.Require().NoError(err)
		s.clock.Advance(time.Hour)
	}

	reply, err = s.enforcer.BanHistory(s.ctx, "staff", "1")
	s.Require().NoError(err)
	s.Len(reply.History, 3)
	s.Equal("reason 2", reply.History[0].Reason)
	s.Equal("Guard bans of name-1 (3):", reply.Messages[0])
}

func (s *EnforcerSuite) TestForcePromote() {
	s.connect("g", model.RoleGuard)
	a := s.connect("1", model.RoleFree)

	_, err := s.enforcer.ForcePromote(s.ctx, "", "name-1")
	s.Require().NoError(err)
	p, _ := s.registry.Participant(a)
	s.Equal(model.RoleGuard, p.Role)
	s.Contains(s.notifier.Broadcasts(), "name-1 was moved to the guard team by Console.")

	_, err = s.enforcer.ForcePromote(s.ctx, "", "name-1")
	s.ErrorIs(err, model.ErrAlreadyInState)

	reply, err := s.enforcer.Legitimate(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(reply.Legitimate, 1)
	s.Equal(a, reply.Legitimate[0].Identity)
}

func (s *EnforcerSuite) TestForceKick() {
	g := s.connect("g", model.RoleGuard)

	_, err := s.enforcer.ForceKick(s.ctx, "staff", "g", -1)
	s.ErrorIs(err, model.ErrInvalidRounds)

	reply, err := s.enforcer.ForceKick(s.ctx, "staff", "g", 0)
	s.Require().NoError(err)
	s.Equal([]string{"name-g was kicked from the guard team by staff for 5 rounds."}, reply.Messages)
	p, _ := s.registry.Participant(g)
	s.Equal(model.RoleFree, p.Role)

	_, err = s.enforcer.ForceKick(s.ctx, "staff", "g", 2)
	s.ErrorIs(err, model.ErrAlreadyInState)
}

func (s *EnforcerSuite) TestForceDequeue() {
	s.connect("g", model.RoleGuard)
	a := s.connect("1", model.RoleFree)

	_, err := s.enforcer.ForceDequeue(s.ctx, "staff", "1")
	s.ErrorIs(err, model.ErrItemNotFound)

	_, err = s.enforcer.JoinGuardQueue(s.ctx, a)
	s.Require().NoError(err)
	reply, err := s.enforcer.ForceDequeue(s.ctx, "staff", "1")
	s.Require().NoError(err)
	s.Equal([]string{"name-1 was removed from the queue by staff."}, reply.Messages)
	s.True(s.queue.IsEmpty())
}

func (s *EnforcerSuite) TestAmbiguousTarget() {
	s.connect("1", model.RoleFree)
	s.connect("2", model.RoleFree)

	_, err := s.enforcer.ForceKick(s.ctx, "staff", "name", 1)
	s.ErrorIs(err, model.ErrAmbiguousTarget)
}

func (s *EnforcerSuite) TestRoundEndPromotesFromQueue() {
	g := s.connect("g", model.RoleFree)
	_, err := s.enforcer.JoinGuardQueue(s.ctx, g)
	s.Require().NoError(err)
	for i := range 7 {
		s.connect(fmt.Sprintf("f%d", i), model.RoleFree)
	}
	_, err = s.enforcer.JoinGuardQueue(s.ctx, "f3")
	s.Require().NoError(err)

	report, err := s.enforcer.RoundEnd(s.ctx)
	s.Require().NoError(err)
	s.Equal([]model.Identity{"f3"}, report.Promoted)
	s.Equal(2, report.Ideal)
}

func (s *EnforcerSuite) TestReportRoleLeavesQueue() {
	s.connect("g", model.RoleGuard)
	a := s.connect("1", model.RoleFree)
	_, err := s.enforcer.JoinGuardQueue(s.ctx, a)
	s.Require().NoError(err)

	s.Require().NoError(s.enforcer.ReportRole(s.ctx, a, model.RoleSpectator))
	s.True(s.queue.IsEmpty())
	s.ErrorIs(s.enforcer.ReportRole(s.ctx, "ghost", model.RoleFree), model.ErrTargetNotFound)
}

func (s *EnforcerSuite) TestGuardSwitchedBackByHostIsIllegitimate() {
	a := s.connect("1", model.RoleFree)
	s.connect("2", model.RoleFree)
	_, err := s.enforcer.ForcePromote(s.ctx, "", "name-1")
	s.Require().NoError(err)

	s.Require().NoError(s.enforcer.ReportRole(s.ctx, a, model.RoleFree))
	s.Require().NoError(s.enforcer.ReportRole(s.ctx, a, model.RoleGuard))

	reply, err := s.enforcer.Legitimate(s.ctx)
	s.Require().NoError(err)
	s.Empty(reply.Legitimate)

	report, err := s.enforcer.RoundEnd(s.ctx)
	s.Require().NoError(err)
	s.Contains(report.IllegitimateDemoted, a)
	s.Empty(report.Evicted)
}

func (s *EnforcerSuite) TestGuardReconnectingAsGuardIsIllegitimate() {
	a := s.connect("1", model.RoleFree)
	s.connect("2", model.RoleFree)
	_, err := s.enforcer.ForcePromote(s.ctx, "", "name-1")
	s.Require().NoError(err)
	p, _ := s.registry.Participant(a)

	s.Require().NoError(s.enforcer.Disconnect(s.ctx, a))
	p.Role = model.RoleGuard
	s.Require().NoError(s.enforcer.Connect(s.ctx, p))

	report, err := s.enforcer.RoundEnd(s.ctx)
	s.Require().NoError(err)
	s.Contains(report.IllegitimateDemoted, a)
}

func (s *EnforcerSuite) TestHandleReuseForgetsPreviousHolder() {
	a := s.connect("1", model.RoleFree)
	_, err := s.enforcer.ForcePromote(s.ctx, "", "name-1")
	s.Require().NoError(err)
	p, _ := s.registry.Participant(a)

	s.Require().NoError(s.enforcer.Connect(s.ctx, model.Participant{
		Identity: "2", Handle: p.Handle, Name: "name-2", Role: model.RoleFree, Connected: true,
	}))

	reply, err := s.enforcer.Legitimate(s.ctx)
	s.Require().NoError(err)
	s.Empty(reply.Legitimate)
}

func (s *EnforcerSuite) TestMapStartResetsSession() {
	a := s.connect("1", model.RoleFree)
	_, err := s.enforcer.OptOut(s.ctx, a)
	s.Require().NoError(err)

	s.Require().NoError(s.enforcer.MapStart(s.ctx))
	_, err = s.enforcer.OptOut(s.ctx, a)
	s.NoError(err)
}
