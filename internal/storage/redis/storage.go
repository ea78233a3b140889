package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/teamenforcer/internal/model"
	"github.com/mcoot/teamenforcer/internal/storage"
)

// Storage is a Redis-backed implementation of the ban store
type Storage struct {
	client *redis.Client
	keys   keyspace
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		keys:   newKeyspace(cfg.KeyPrefix),
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.BanStore = (*Storage)(nil)

// CreateSchema only checks connectivity; Redis keys need no schema
func (s *Storage) CreateSchema(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Ban operations

func (s *Storage) InsertBan(ctx context.Context, ban *model.BanRecord) error {
	id, err := s.client.Incr(ctx, s.keys.banSequence()).Result()
	if err != nil {
		return err
	}
	ban.ID = model.BanID(id)

	data, err := json.Marshal(ban)
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.keys.ban(ban.ID), data, 0)
	pipe.ZAdd(ctx, s.keys.bansFor(ban.BannedIdentity), redis.Z{
		Score:  float64(ban.ID),
		Member: strconv.FormatInt(int64(ban.ID), 10),
	})
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetBan(ctx context.Context, id model.BanID) (*model.BanRecord, error) {
	return s.getBan(ctx, s.client, id)
}

func (s *Storage) GetActiveBan(ctx context.Context, identity model.Identity) (*model.BanRecord, error) {
	bans, err := s.ListBans(ctx, identity)
	if err != nil {
		return nil, err
	}
	for _, ban := range bans {
		if ban.Active {
			return ban, nil
		}
	}
	return nil, model.ErrBanNotFound
}

func (s *Storage) ListBans(ctx context.Context, identity model.Identity) ([]*model.BanRecord, error) {
	ids, err := s.client.ZRevRange(ctx, s.keys.bansFor(identity), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	// Batch fetch all bans
	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, raw := range ids {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, err
		}
		cmds[i] = pipe.Get(ctx, s.keys.ban(model.BanID(id)))
	}
	_, err = pipe.Exec(ctx)
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	bans := make([]*model.BanRecord, 0, len(cmds))
	for _, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue // Index entry without a record
			}
			return nil, err
		}
		var ban model.BanRecord
		if err := json.Unmarshal(data, &ban); err != nil {
			return nil, err
		}
		bans = append(bans, &ban)
	}
	return bans, nil
}

func (s *Storage) DeactivateBan(ctx context.Context, id model.BanID) error {
	return s.client.Watch(ctx, func(tx *redis.Tx) error {
		ban, err := s.getBan(ctx, tx, id)
		if err != nil {
			return err
		}
		if !ban.Active {
			return nil
		}
		ban.Active = false
		data, err := json.Marshal(ban)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.keys.ban(id), data, 0)
			return nil
		})
		return err
	}, s.keys.ban(id))
}

func (s *Storage) DeleteBan(ctx context.Context, id model.BanID) error {
	ban, err := s.GetBan(ctx, id)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.keys.ban(id), s.keys.unban(id))
	pipe.ZRem(ctx, s.keys.bansFor(ban.BannedIdentity), strconv.FormatInt(int64(id), 10))
	_, err = pipe.Exec(ctx)
	return err
}

// Unban operations

func (s *Storage) Unban(ctx context.Context, unban *model.UnbanRecord) error {
	return s.client.Watch(ctx, func(tx *redis.Tx) error {
		ban, err := s.getBan(ctx, tx, unban.BanID)
		if err != nil {
			return err
		}
		if !ban.Active {
			return model.ErrBanNotFound
		}

		unbanID, err := tx.Incr(ctx, s.keys.unbanSequence()).Result()
		if err != nil {
			return err
		}

		ban.Active = false
		banData, err := json.Marshal(ban)
		if err != nil {
			return err
		}
		record := *unban
		record.ID = unbanID
		unbanData, err := json.Marshal(record)
		if err != nil {
			return err
		}

		// Deactivation and audit row commit together or not at all
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.keys.ban(ban.ID), banData, 0)
			pipe.Set(ctx, s.keys.unban(ban.ID), unbanData, 0)
			return nil
		})
		if err != nil {
			return err
		}
		unban.ID = unbanID
		return nil
	}, s.keys.ban(unban.BanID))
}

func (s *Storage) GetUnban(ctx context.Context, banID model.BanID) (*model.UnbanRecord, error) {
	data, err := s.client.Get(ctx, s.keys.unban(banID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUnbanNotFound
		}
		return nil, err
	}

	var unban model.UnbanRecord
	if err := json.Unmarshal(data, &unban); err != nil {
		return nil, err
	}
	return &unban, nil
}

// getter is satisfied by both *redis.Client and *redis.Tx
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *Storage) getBan(ctx context.Context, c getter, id model.BanID) (*model.BanRecord, error) {
	data, err := c.Get(ctx, s.keys.ban(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrBanNotFound
		}
		return nil, err
	}

	var ban model.BanRecord
	if err := json.Unmarshal(data, &ban); err != nil {
		return nil, err
	}
	return &ban, nil
}
