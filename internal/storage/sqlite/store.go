// Package sqlite provides a SQLite-backed ban store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mcoot/teamenforcer/internal/model"
	"github.com/mcoot/teamenforcer/internal/storage"
	"github.com/mcoot/teamenforcer/internal/storage/sqlite/migrations"
)

// Store persists bans in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite ban store. Call CreateSchema before use.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := "file:" + cleanPath +
		"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

var _ storage.BanStore = (*Store)(nil)

// CreateSchema applies the embedded migrations.
func (s *Store) CreateSchema(ctx context.Context) error {
	if err := applyMigrations(ctx, s.sqlDB, migrations.FS); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

const banColumns = `id, player_steamid, staff_steamid, ban_reason, ban_date, expiration_date, active`

// InsertBan inserts one ban record and assigns its id.
func (s *Store) InsertBan(ctx context.Context, ban *model.BanRecord) error {
	var expires sql.NullInt64
	if ban.ExpiresAt != nil {
		expires = sql.NullInt64{Int64: toMillis(*ban.ExpiresAt), Valid: true}
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO ctbans (player_steamid, staff_steamid, ban_reason, ban_date, expiration_date, active)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		string(ban.BannedIdentity),
		string(ban.StaffIdentity),
		ban.Reason,
		toMillis(ban.IssuedAt),
		expires,
		ban.Active,
	)
	if err != nil {
		return fmt.Errorf("insert ban: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert ban id: %w", err)
	}
	ban.ID = model.BanID(id)
	return nil
}

// GetBan returns a ban by id.
func (s *Store) GetBan(ctx context.Context, id model.BanID) (*model.BanRecord, error) {
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+banColumns+` FROM ctbans WHERE id = ?`, int64(id))
	return scanBan(row)
}

// GetActiveBan returns the newest active ban of an identity.
func (s *Store) GetActiveBan(ctx context.Context, identity model.Identity) (*model.BanRecord, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+banColumns+` FROM ctbans WHERE player_steamid = ? AND active = 1 ORDER BY id DESC LIMIT 1`,
		string(identity),
	)
	return scanBan(row)
}

// ListBans returns every ban of an identity, newest first.
func (s *Store) ListBans(ctx context.Context, identity model.Identity) ([]*model.BanRecord, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+banColumns+` FROM ctbans WHERE player_steamid = ? ORDER BY id DESC`,
		string(identity),
	)
	if err != nil {
		return nil, fmt.Errorf("list bans: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var bans []*model.BanRecord
	for rows.Next() {
		ban, err := scanBan(rows)
		if err != nil {
			return nil, err
		}
		bans = append(bans, ban)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list bans: %w", err)
	}
	return bans, nil
}

// DeactivateBan marks a ban inactive.
func (s *Store) DeactivateBan(ctx context.Context, id model.BanID) error {
	res, err := s.sqlDB.ExecContext(ctx, `UPDATE ctbans SET active = 0 WHERE id = ?`, int64(id))
	if err != nil {
		return fmt.Errorf("deactivate ban: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate ban: %w", err)
	}
	if affected == 0 {
		return model.ErrBanNotFound
	}
	return nil
}

// DeleteBan removes a ban; its unban record goes with it by cascade.
func (s *Store) DeleteBan(ctx context.Context, id model.BanID) error {
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM ctbans WHERE id = ?`, int64(id))
	if err != nil {
		return fmt.Errorf("delete ban: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete ban: %w", err)
	}
	if affected == 0 {
		return model.ErrBanNotFound
	}
	return nil
}

// Unban deactivates the ban and writes the audit record in one transaction.
func (s *Store) Unban(ctx context.Context, unban *model.UnbanRecord) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin unban: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `UPDATE ctbans SET active = 0 WHERE id = ? AND active = 1`, int64(unban.BanID))
	if err != nil {
		return fmt.Errorf("deactivate ban: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate ban: %w", err)
	}
	if affected == 0 {
		return model.ErrBanNotFound
	}

	res, err = tx.ExecContext(ctx,
		`INSERT INTO ctunbans (ban_id, staff_steamid, unban_reason, unban_date) VALUES (?, ?, ?, ?)`,
		int64(unban.BanID),
		string(unban.StaffIdentity),
		unban.Reason,
		toMillis(unban.UnbannedAt),
	)
	if err != nil {
		return fmt.Errorf("insert unban: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert unban id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit unban: %w", err)
	}
	unban.ID = id
	return nil
}

// GetUnban returns the unban record of a ban.
func (s *Store) GetUnban(ctx context.Context, banID model.BanID) (*model.UnbanRecord, error) {
	var (
		unban    model.UnbanRecord
		rawBanID int64
		staff    string
		date     int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, ban_id, staff_steamid, unban_reason, unban_date FROM ctunbans WHERE ban_id = ?`,
		int64(banID),
	).Scan(&unban.ID, &rawBanID, &staff, &unban.Reason, &date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUnbanNotFound
		}
		return nil, fmt.Errorf("get unban: %w", err)
	}
	unban.BanID = model.BanID(rawBanID)
	unban.StaffIdentity = model.Identity(staff)
	unban.UnbannedAt = fromMillis(date)
	return &unban, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBan(row rowScanner) (*model.BanRecord, error) {
	var (
		ban     model.BanRecord
		id      int64
		player  string
		staff   string
		issued  int64
		expires sql.NullInt64
	)
	if err := row.Scan(&id, &player, &staff, &ban.Reason, &issued, &expires, &ban.Active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrBanNotFound
		}
		return nil, fmt.Errorf("scan ban: %w", err)
	}
	ban.ID = model.BanID(id)
	ban.BannedIdentity = model.Identity(player)
	ban.StaffIdentity = model.Identity(staff)
	ban.IssuedAt = fromMillis(issued)
	if expires.Valid {
		t := fromMillis(expires.Int64)
		ban.ExpiresAt = &t
	}
	return &ban, nil
}
