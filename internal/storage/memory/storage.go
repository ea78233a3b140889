package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mcoot/teamenforcer/internal/model"
	"github.com/mcoot/teamenforcer/internal/storage"
)

// Storage is an in-memory implementation of the ban store
type Storage struct {
	mu sync.RWMutex

	bans        map[model.BanID]*model.BanRecord
	unbans      map[model.BanID]*model.UnbanRecord
	nextBanID   model.BanID
	nextUnbanID int64
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		bans:   make(map[model.BanID]*model.BanRecord),
		unbans: make(map[model.BanID]*model.UnbanRecord),
	}
}

// Ensure Storage implements the interface
var _ storage.BanStore = (*Storage)(nil)

func (s *Storage) CreateSchema(ctx context.Context) error {
	return nil
}

func (s *Storage) Close() error {
	return nil
}

// Ban operations

func (s *Storage) InsertBan(ctx context.Context, ban *model.BanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextBanID++
	ban.ID = s.nextBanID
	s.bans[ban.ID] = copyBan(ban)
	return nil
}

func (s *Storage) GetBan(ctx context.Context, id model.BanID) (*model.BanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ban, ok := s.bans[id]
	if !ok {
		return nil, model.ErrBanNotFound
	}
	return copyBan(ban), nil
}

func (s *Storage) GetActiveBan(ctx context.Context, identity model.Identity) (*model.BanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *model.BanRecord
	for _, ban := range s.bans {
		if ban.BannedIdentity != identity || !ban.Active {
			continue
		}
		if found == nil || ban.ID > found.ID {
			found = ban
		}
	}
	if found == nil {
		return nil, model.ErrBanNotFound
	}
	return copyBan(found), nil
}

func (s *Storage) ListBans(ctx context.Context, identity model.Identity) ([]*model.BanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var bans []*model.BanRecord
	for _, ban := range s.bans {
		if ban.BannedIdentity == identity {
			bans = append(bans, copyBan(ban))
		}
	}
	sort.Slice(bans, func(i, j int) bool { return bans[i].ID > bans[j].ID })
	return bans, nil
}

func (s *Storage) DeactivateBan(ctx context.Context, id model.BanID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ban, ok := s.bans[id]
	if !ok {
		return model.ErrBanNotFound
	}
	ban.Active = false
	return nil
}

func (s *Storage) DeleteBan(ctx context.Context, id model.BanID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bans[id]; !ok {
		return model.ErrBanNotFound
	}
	delete(s.bans, id)
	delete(s.unbans, id)
	return nil
}

// Unban operations

func (s *Storage) Unban(ctx context.Context, unban *model.UnbanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ban, ok := s.bans[unban.BanID]
	if !ok || !ban.Active {
		return model.ErrBanNotFound
	}
	ban.Active = false
	s.nextUnbanID++
	unban.ID = s.nextUnbanID
	stored := *unban
	s.unbans[unban.BanID] = &stored
	return nil
}

func (s *Storage) GetUnban(ctx context.Context, banID model.BanID) (*model.UnbanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	unban, ok := s.unbans[banID]
	if !ok {
		return nil, model.ErrUnbanNotFound
	}
	out := *unban
	return &out, nil
}

func copyBan(ban *model.BanRecord) *model.BanRecord {
	out := *ban
	if ban.ExpiresAt != nil {
		expires := *ban.ExpiresAt
		out.ExpiresAt = &expires
	}
	return &out
}
