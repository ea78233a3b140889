package gormstore

import (
	"time"

	"github.com/mcoot/teamenforcer/internal/model"
)

type banRow struct {
	ID             int64      `gorm:"primaryKey;autoIncrement"`
	PlayerSteamID  string     `gorm:"column:player_steamid;size:64;not null;index:idx_ctbans_player_active"`
	StaffSteamID   string     `gorm:"column:staff_steamid;size:64;not null"`
	BanReason      string     `gorm:"column:ban_reason;size:255;not null;default:''"`
	BanDate        time.Time  `gorm:"column:ban_date;not null"`
	ExpirationDate *time.Time `gorm:"column:expiration_date"`
	Active         bool       `gorm:"column:active;not null;index:idx_ctbans_player_active"`
	Unban          *unbanRow  `gorm:"foreignKey:BanID;constraint:OnDelete:CASCADE"`
}

func (banRow) TableName() string { return "ctbans" }

type unbanRow struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	BanID        int64     `gorm:"column:ban_id;not null;uniqueIndex"`
	StaffSteamID string    `gorm:"column:staff_steamid;size:64;not null"`
	UnbanReason  string    `gorm:"column:unban_reason;size:255;not null;default:''"`
	UnbanDate    time.Time `gorm:"column:unban_date;not null"`
}

func (unbanRow) TableName() string { return "ctunbans" }

func banFromModel(ban *model.BanRecord) *banRow {
	row := &banRow{
		ID:            int64(ban.ID),
		PlayerSteamID: string(ban.BannedIdentity),
		StaffSteamID:  string(ban.StaffIdentity),
		BanReason:     ban.Reason,
		BanDate:       ban.IssuedAt.UTC(),
		Active:        ban.Active,
	}
	if ban.ExpiresAt != nil {
		t := ban.ExpiresAt.UTC()
		row.ExpirationDate = &t
	}
	return row
}

func (r *banRow) toModel() *model.BanRecord {
	ban := &model.BanRecord{
		ID:             model.BanID(r.ID),
		BannedIdentity: model.Identity(r.PlayerSteamID),
		StaffIdentity:  model.Identity(r.StaffSteamID),
		Reason:         r.BanReason,
		IssuedAt:       r.BanDate.UTC(),
		Active:         r.Active,
	}
	if r.ExpirationDate != nil {
		t := r.ExpirationDate.UTC()
		ban.ExpiresAt = &t
	}
	return ban
}

func (r *unbanRow) toModel() *model.UnbanRecord {
	return &model.UnbanRecord{
		ID:            r.ID,
		BanID:         model.BanID(r.BanID),
		StaffIdentity: model.Identity(r.StaffSteamID),
		Reason:        r.UnbanReason,
		UnbannedAt:    r.UnbanDate.UTC(),
	}
}
