package storage

import (
	"context"

	"github.com/mcoot/teamenforcer/internal/model"
)

// BanStore persists guard-role bans and their unban audit records
type BanStore interface {
	// CreateSchema prepares the ban and unban relations; it is safe to call repeatedly
	CreateSchema(ctx context.Context) error

	// Ban operations
	InsertBan(ctx context.Context, ban *model.BanRecord) error
	GetBan(ctx context.Context, id model.BanID) (*model.BanRecord, error)
	GetActiveBan(ctx context.Context, identity model.Identity) (*model.BanRecord, error)
	ListBans(ctx context.Context, identity model.Identity) ([]*model.BanRecord, error)
	DeactivateBan(ctx context.Context, id model.BanID) error
	DeleteBan(ctx context.Context, id model.BanID) error

	// Unban deactivates the ban and records the audit row as one unit
	Unban(ctx context.Context, unban *model.UnbanRecord) error
	GetUnban(ctx context.Context, banID model.BanID) (*model.UnbanRecord, error)

	Close() error
}
