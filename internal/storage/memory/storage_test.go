package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/teamenforcer/internal/model"
	"github.com/mcoot/teamenforcer/internal/storage/storagetest"
)

type StorageSuite struct {
	storagetest.BanStoreSuite
	storage *Storage
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.Store = s.storage
	s.Ctx = context.Background()
}

func (s *StorageSuite) TestReturnedRecordsAreCopies() {
	ban := &model.BanRecord{BannedIdentity: "player-1", Active: true}
	s.Require().NoError(s.storage.InsertBan(s.Ctx, ban))

	got, err := s.storage.GetActiveBan(s.Ctx, "player-1")
	s.Require().NoError(err)
	got.Active = false

	again, err := s.storage.GetActiveBan(s.Ctx, "player-1")
	s.Require().NoError(err)
	s.True(again.Active)
}
