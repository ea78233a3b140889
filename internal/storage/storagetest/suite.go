// Package storagetest holds the behaviour every ban store must share.
package storagetest

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/teamenforcer/internal/model"
	"github.com/mcoot/teamenforcer/internal/storage"
)

// BanStoreSuite runs against any storage.BanStore. Backends embed it and set Store in SetupTest.
type BanStoreSuite struct {
	suite.Suite
	Store storage.BanStore
	Ctx   context.Context
}

var issued = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func (s *BanStoreSuite) newBan(identity model.Identity, expires *time.Time) *model.BanRecord {
	return &model.BanRecord{
		BannedIdentity: identity,
		StaffIdentity:  "staff-1",
		Reason:         "freekilling",
		IssuedAt:       issued,
		ExpiresAt:      expires,
		Active:         true,
	}
}

func (s *BanStoreSuite) insert(identity model.Identity, expires *time.Time) *model.BanRecord {
	ban := s.newBan(identity, expires)
	s.Require().NoError(s.Store.InsertBan(s.Ctx, ban))
	return ban
}

func (s *BanStoreSuite) TestCreateSchemaIsIdempotent() {
	s.Require().NoError(s.Store.CreateSchema(s.Ctx))
	s.Require().NoError(s.Store.CreateSchema(s.Ctx))
}

func (s *BanStoreSuite) TestInsertAssignsIDs() {
	first := s.insert("player-1", nil)
	second := s.insert("player-2", nil)

	s.NotZero(first.ID)
	s.NotZero(second.ID)
	s.NotEqual(first.ID, second.ID)
}

func (s *BanStoreSuite) TestGetActiveBanRoundTrip() {
	expires := issued.Add(30 * time.Minute)
	ban := s.insert("player-1", &expires)

	got, err := s.Store.GetActiveBan(s.Ctx, "player-1")
	s.Require().NoError(err)
	s.Equal(ban.ID, got.ID)
	s.Equal(model.Identity("player-1"), got.BannedIdentity)
	s.Equal(model.Identity("staff-1"), got.StaffIdentity)
	s.Equal("freekilling", got.Reason)
	s.True(got.Active)
	s.True(issued.Equal(got.IssuedAt))
	s.Require().NotNil(got.ExpiresAt)
	s.True(expires.Equal(*got.ExpiresAt))
}

func (s *BanStoreSuite) TestPermanentBanHasNoExpiry() {
	s.insert("player-1", nil)

	got, err := s.Store.GetActiveBan(s.Ctx, "player-1")
	s.Require().NoError(err)
	s.Nil(got.ExpiresAt)
	s.True(got.IsPermanent())
}

func (s *BanStoreSuite) TestGetActiveBanNotFound() {
	_, err := s.Store.GetActiveBan(s.Ctx, "nobody")
	s.ErrorIs(err, model.ErrBanNotFound)
}

func (s *BanStoreSuite) TestGetBan() {
	ban := s.insert("player-1", nil)

	got, err := s.Store.GetBan(s.Ctx, ban.ID)
	s.Require().NoError(err)
	s.Equal(ban.ID, got.ID)

	_, err = s.Store.GetBan(s.Ctx, ban.ID+1000)
	s.ErrorIs(err, model.ErrBanNotFound)
}

func (s *BanStoreSuite) TestDeactivateBan() {
	ban := s.insert("player-1", nil)

	s.Require().NoError(s.Store.DeactivateBan(s.Ctx, ban.ID))
	_, err := s.Store.GetActiveBan(s.Ctx, "player-1")
	s.ErrorIs(err, model.ErrBanNotFound)

	// A second deactivation changes nothing
	s.Require().NoError(s.Store.DeactivateBan(s.Ctx, ban.ID))
	got, err := s.Store.GetBan(s.Ctx, ban.ID)
	s.Require().NoError(err)
	s.False(got.Active)
}

func (s *BanStoreSuite) TestUnbanWritesAuditRecord() {
	ban := s.insert("player-1", nil)
	unban := &model.UnbanRecord{
		BanID:         ban.ID,
		StaffIdentity: "staff-2",
		Reason:        "appeal accepted",
		UnbannedAt:    issued.Add(time.Hour),
	}

	s.Require().NoError(s.Store.Unban(s.Ctx, unban))
	s.NotZero(unban.ID)

	_, err := s.Store.GetActiveBan(s.Ctx, "player-1")
	s.ErrorIs(err, model.ErrBanNotFound)

	got, err := s.Store.GetUnban(s.Ctx, ban.ID)
	s.Require().NoError(err)
	s.Equal(unban.ID, got.ID)
	s.Equal(model.Identity("staff-2"), got.StaffIdentity)
	s.Equal("appeal accepted", got.Reason)
	s.True(unban.UnbannedAt.Equal(got.UnbannedAt))
}

func (s *BanStoreSuite) TestUnbanInactiveBanFails() {
	ban := s.insert("player-1", nil)
	s.Require().NoError(s.Store.DeactivateBan(s.Ctx, ban.ID))

	err := s.Store.Unban(s.Ctx, &model.UnbanRecord{BanID: ban.ID, StaffIdentity: "staff-2", UnbannedAt: issued})
	s.ErrorIs(err, model.ErrBanNotFound)

	_, err = s.Store.GetUnban(s.Ctx, ban.ID)
	s.ErrorIs(err, model.ErrUnbanNotFound)
}

func (s *BanStoreSuite) TestListBansNewestFirst() {
	first := s.insert("player-1", nil)
	s.Require().NoError(s.Store.DeactivateBan(s.Ctx, first.ID))
	second := s.insert("player-1", nil)
	s.insert("player-2", nil)

	bans, err := s.Store.ListBans(s.Ctx, "player-1")
	s.Require().NoError(err)
	s.Require().Len(bans, 2)
	s.Equal(second.ID, bans[0].ID)
	s.Equal(first.ID, bans[1].ID)
	s.True(bans[0].Active)
	s.False(bans[1].Active)
}

func (s *BanStoreSuite) TestDeleteBanCascadesToUnban() {
	ban := s.insert("player-1", nil)
	s.Require().NoError(s.Store.Unban(s.Ctx, &model.UnbanRecord{
		BanID: ban.ID, StaffIdentity: "staff-2", Reason: "mistake", UnbannedAt: issued,
	}))

	s.Require().NoError(s.Store.DeleteBan(s.Ctx, ban.ID))

	_, err := s.Store.GetBan(s.Ctx, ban.ID)
	s.ErrorIs(err, model.ErrBanNotFound)
	_, err = s.Store.GetUnban(s.Ctx, ban.ID)
	s.ErrorIs(err, model.ErrUnbanNotFound)

	err = s.Store.DeleteBan(s.Ctx, ban.ID)
	s.ErrorIs(err, model.ErrBanNotFound)
}
