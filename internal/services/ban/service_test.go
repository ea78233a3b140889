package ban

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/teamenforcer/internal/dependencies/mocks"
	"github.com/mcoot/teamenforcer/internal/model"
	"github.com/mcoot/teamenforcer/internal/storage/memory"
	"github.com/mcoot/teamenforcer/internal/testutil"
)

// countingStore wraps the memory store, counting deactivations and optionally
// holding them until released.
type countingStore struct {
	*memory.Storage
	deactivations atomic.Int32
	hold          chan struct{}
	failGet       error
	failDeact     error
}

func (c *countingStore) GetActiveBan(ctx context.Context, identity model.Identity) (*model.BanRecord, error) {
	if c.failGet != nil {
		return nil, c.failGet
	}
	return c.Storage.GetActiveBan(ctx, identity)
}

func (c *countingStore) DeactivateBan(ctx context.Context, id model.BanID) error {
	c.deactivations.Add(1)
	if c.hold != nil {
		<-c.hold
	}
	if c.failDeact != nil {
		return c.failDeact
	}
	return c.Storage.DeactivateBan(ctx, id)
}

// chanScheduler runs continuations when the test drains it
type chanScheduler chan func()

func (c chanScheduler) RunOnNextFrame(fn func()) { c <- fn }

func (c chanScheduler) runNext(t testing.TB) {
	t.Helper()
	select {
	case fn := <-c:
		fn()
	case <-time.After(time.Second):
		t.Fatal("no continuation scheduled")
	}
}

type ServiceSuite struct {
	suite.Suite
	store   *countingStore
	clock   *mocks.MockClock
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = &countingStore{Storage: memory.New()}
	s.clock = mocks.NewMockClock(mocks.Epoch)
	s.service = New(s.store, s.clock, testutil.NopLogger())
	s.ctx = context.Background()
	s.Require().NoError(s.service.CreateSchema(s.ctx))
}

func (s *ServiceSuite) ban(identity string, d time.Duration) *model.BanRecord {
	record, err := s.service.Ban(s.ctx, model.NewBan{
		BannedIdentity: model.Identity(identity),
		StaffIdentity:  "staff",
		Reason:         "griefing",
		Duration:       d,
	})
	s.Require().NoError(err)
	return record
}

func (s *ServiceSuite) TestBanPersistsRecord() {
	record := s.ban("p1", 30*time.Minute)

	s.NotZero(record.ID)
	s.True(record.Active)
	s.Equal(s.clock.Now(), record.IssuedAt)
	s.Require().NotNil(record.ExpiresAt)
	s.Equal(s.clock.Now().Add(30*time.Minute), *record.ExpiresAt)

	banned, err := s.service.IsBanned(s.ctx, "p1")
	s.Require().NoError(err)
	s.True(banned)
}

func (s *ServiceSuite) TestZeroDurationIsPermanent() {
	record := s.ban("p1", 0)
	s.True(record.IsPermanent())

	s.clock.Advance(24 * 365 * time.Hour)
	banned, err := s.service.IsBanned(s.ctx, "p1")
	s.Require().NoError(err)
	s.True(banned)
}

func (s *ServiceSuite) TestNegativeDurationRejected() {
	_, err := s.service.Ban(s.ctx, model.NewBan{BannedIdentity: "p1", Duration: -time.Minute})
	s.ErrorIs(err, model.ErrInvalidDuration)
}

func (s *ServiceSuite) TestSecondActiveBanRejected() {
	s.ban("p1", time.Hour)

	_, err := s.service.Ban(s.ctx, model.NewBan{BannedIdentity: "p1", Duration: time.Hour})
	s.ErrorIs(err, model.ErrAlreadyBanned)
}

func (s *ServiceSuite) TestBanAfterExpiryRetiresOldRecord() {
	first := s.ban("p1", time.Minute)
	s.clock.Advance(2 * time.Minute)

	second := s.ban("p1", time.Hour)
	s.NotEqual(first.ID, second.ID)

	old, err := s.store.GetBan(s.ctx, first.ID)
	s.Require().NoError(err)
	s.False(old.Active)
}

func (s *ServiceSuite) TestUnbannedIdentityIsNotBanned() {
	banned, err := s.service.IsBanned(s.ctx, "nobody")
	s.Require().NoError(err)
	s.False(banned)

	_, err = s.service.BanInfo(s.ctx, "nobody")
	s.ErrorIs(err, model.ErrBanNotFound)
}

func (s *ServiceSuite) TestExpiryBoundaryIsInclusive() {
	s.ban("p1", time.Minute)

	s.clock.Advance(time.Minute - time.Second)
	banned, err := s.service.IsBanned(s.ctx, "p1")
	s.Require().NoError(err)
	s.True(banned)

	s.clock.Advance(time.Second)
	banned, err = s.service.IsBanned(s.ctx, "p1")
	s.Require().NoError(err)
	s.False(banned)
}

func (s *ServiceSuite) TestExpiredBanIsDeactivatedOnce() {
	record := s.ban("p1", time.Minute)
	s.clock.Advance(time.Hour)

	banned, err := s.service.IsBanned(s.ctx, "p1")
	s.Require().NoError(err)
	s.False(banned)

	_, err = s.service.BanInfo(s.ctx, "p1")
	s.ErrorIs(err, model.ErrBanNotFound)

	s.Equal(int32(1), s.store.deactivations.Load())
	stored, err := s.store.GetBan(s.ctx, record.ID)
	s.Require().NoError(err)
	s.False(stored.Active)
}

func (s *ServiceSuite) TestConcurrentExpiryCollapsesToSingleWrite() {
	s.ban("p1", time.Minute)
	s.clock.Advance(time.Hour)
	s.store.hold = make(chan struct{})

	sched := make(chanScheduler, 4)
	var wg sync.WaitGroup
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			banned, err := s.service.IsBanned(s.ctx, "p1")
			s.NoError(err)
			s.False(banned)
		}()
	}
	s.service.IsBannedAsync(s.ctx, "p1", sched, func(bool, error) {})

	time.Sleep(50 * time.Millisecond)
	close(s.store.hold)
	wg.Wait()
	sched.runNext(s.T())

	s.Equal(int32(1), s.store.deactivations.Load())
}

func (s *ServiceSuite) TestExpiryFailureIsSwallowed() {
	s.ban("p1", time.Minute)
	s.clock.Advance(time.Hour)
	s.store.failDeact = errors.New("disk full")

	banned, err := s.service.IsBanned(s.ctx, "p1")
	s.Require().NoError(err)
	s.False(banned)

	// still active in storage, so the next lookup tries again
	s.store.failDeact = nil
	banned, err = s.service.IsBanned(s.ctx, "p1")
	s.Require().NoError(err)
	s.False(banned)
	s.Equal(int32(2), s.store.deactivations.Load())
}

func (s *ServiceSuite) TestLookupFailureWrapsStorageError() {
	s.store.failGet = errors.New("connection reset")

	_, err := s.service.IsBanned(s.ctx, "p1")
	s.ErrorIs(err, model.ErrStorageFailure)
}

func (s *ServiceSuite) TestAsyncLookupDeliversThroughScheduler() {
	s.ban("p1", 0)
	sched := make(chanScheduler, 1)

	var got bool
	var gotErr error
	s.service.IsBannedAsync(s.ctx, "p1", sched, func(banned bool, err error) {
		got, gotErr = banned, err
	})
	sched.runNext(s.T())

	s.NoError(gotErr)
	s.True(got)
}

func (s *ServiceSuite) TestAsyncBanInfoMatchesSync() {
	record := s.ban("p1", 10*time.Minute)
	sched := make(chanScheduler, 1)

	var got *model.BanRecord
	s.service.BanInfoAsync(s.ctx, "p1", sched, func(r *model.BanRecord, err error) {
		s.NoError(err)
		got = r
	})
	sched.runNext(s.T())

	s.Require().NotNil(got)
	s.Equal(record.ID, got.ID)
	s.Equal(10, got.MinutesLeft(s.clock.Now()))
}

func (s *ServiceSuite) TestUnbanWritesAuditRecord() {
	record := s.ban("p1", 0)
	s.clock.Advance(time.Minute)

	unban, err := s.service.Unban(s.ctx, record, "admin", "appeal accepted")
	s.Require().NoError(err)
	s.Equal(record.ID, unban.BanID)
	s.Equal(s.clock.Now(), unban.UnbannedAt)
	s.False(record.Active)

	banned, err := s.service.IsBanned(s.ctx, "p1")
	s.Require().NoError(err)
	s.False(banned)

	audit, err := s.service.UnbanFor(s.ctx, record.ID)
	s.Require().NoError(err)
	s.Equal("appeal accepted", audit.Reason)
	s.Equal(model.Identity("admin"), audit.StaffIdentity)
}

func (s *ServiceSuite) TestUnbanTwiceFails() {
	record := s.ban("p1", 0)
	_, err := s.service.Unban(s.ctx, record, "admin", "")
	s.Require().NoError(err)

	_, err = s.service.Unban(s.ctx, record, "admin", "")
	s.ErrorIs(err, model.ErrBanNotFound)
}

func (s *ServiceSuite) TestHistoryNewestFirst() {
	first := s.ban("p1", time.Minute)
	s.clock.Advance(time.Hour)
	second := s.ban("p1", 0)

	history, err := s.service.History(s.ctx, "p1")
	s.Require().NoError(err)
	s.Require().Len(history, 2)
	s.Equal(second.ID, history[0].ID)
	s.Equal(first.ID, history[1].ID)
}

func (s *ServiceSuite) TestPurgeRemovesBanAndAudit() {
	record := s.ban("p1", 0)
	_, err := s.service.Unban(s.ctx, record, "admin", "")
	s.Require().NoError(err)

	s.Require().NoError(s.service.Purge(s.ctx, record.ID))

	_, err = s.service.UnbanFor(s.ctx, record.ID)
	s.ErrorIs(err, model.ErrUnbanNotFound)
	s.ErrorIs(s.service.Purge(s.ctx, record.ID), model.ErrBanNotFound)
}

func TestDisabledServiceIsUnavailable(t *testing.T) {
	service := New(nil, mocks.NewMockClock(time.Now()), testutil.NopLogger())
	ctx := context.Background()

	assert.False(t, service.Enabled())
	assert.ErrorIs(t, service.CreateSchema(ctx), model.ErrServiceUnavailable)
	_, err := service.Ban(ctx, model.NewBan{BannedIdentity: "p1"})
	assert.ErrorIs(t, err, model.ErrServiceUnavailable)
	_, err = service.IsBanned(ctx, "p1")
	assert.ErrorIs(t, err, model.ErrServiceUnavailable)
	_, err = service.BanInfo(ctx, "p1")
	assert.ErrorIs(t, err, model.ErrServiceUnavailable)
	_, err = service.History(ctx, "p1")
	assert.ErrorIs(t, err, model.ErrServiceUnavailable)
	assert.ErrorIs(t, service.Purge(ctx, 1), model.ErrServiceUnavailable)

	sched := make(chanScheduler, 1)
	var asyncErr error
	service.IsBannedAsync(ctx, "p1", sched, func(_ bool, err error) { asyncErr = err })
	sched.runNext(t)
	assert.ErrorIs(t, asyncErr, model.ErrServiceUnavailable)
}
