package model

import (
	"math"
	"time"
)

// BanID identifies a persisted ban record
type BanID int64

// BanRecord is a guard-role ban
type BanRecord struct {
	ID             BanID
	BannedIdentity Identity
	StaffIdentity  Identity
	Reason         string
	IssuedAt       time.Time
	ExpiresAt      *time.Time // nil for permanent bans
	Active         bool
}

// IsPermanent reports whether the ban never expires
func (b *BanRecord) IsPermanent() bool {
	return b.ExpiresAt == nil
}

// IsExpired reports whether the ban's expiry is at or before now
func (b *BanRecord) IsExpired(now time.Time) bool {
	return b.ExpiresAt != nil && !b.ExpiresAt.After(now)
}

// Remaining returns the time left on a temporary ban
func (b *BanRecord) Remaining(now time.Time) time.Duration {
	if b.ExpiresAt == nil {
		return 0
	}
	d := b.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// MinutesLeft returns the remaining minutes rounded up
func (b *BanRecord) MinutesLeft(now time.Time) int {
	return int(math.Ceil(b.Remaining(now).Minutes()))
}

// UnbanRecord is the audit row written when a ban is lifted by staff
type UnbanRecord struct {
	ID            int64
	BanID         BanID
	StaffIdentity Identity
	Reason        string
	UnbannedAt    time.Time
}

// NewBan describes a ban to be issued; a zero Duration means permanent
type NewBan struct {
	BannedIdentity Identity
	StaffIdentity  Identity
	Reason         string
	Duration       time.Duration
}
