package ban

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/mcoot/teamenforcer/internal/dependencies/clock"
	"github.com/mcoot/teamenforcer/internal/metrics"
	"github.com/mcoot/teamenforcer/internal/model"
	"github.com/mcoot/teamenforcer/internal/storage"
)

// Scheduler hands a continuation back to the frame loop
type Scheduler interface {
	RunOnNextFrame(fn func())
}

// Service manages guard-role bans. A Service without a store is disabled and
// answers every call with model.ErrServiceUnavailable.
type Service struct {
	store  storage.BanStore
	clock  clock.Clock
	logger *slog.Logger
	tracer trace.Tracer

	// Collapses concurrent lazy expiries of the same record into one write
	expiry singleflight.Group
}

// New creates a ban service. Pass a nil store to create a disabled service.
func New(store storage.BanStore, clk clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		clock:  clk,
		logger: logger.With(slog.String("component", "ban")),
		tracer: otel.Tracer("github.com/mcoot/teamenforcer/internal/services/ban"),
	}
}

// Enabled reports whether ban storage is configured
func (s *Service) Enabled() bool {
	return s.store != nil
}

// CreateSchema prepares the ban tables
func (s *Service) CreateSchema(ctx context.Context) error {
	if !s.Enabled() {
		return model.ErrServiceUnavailable
	}
	ctx, span := s.tracer.Start(ctx, "ban.CreateSchema")
	defer span.End()

	if err := s.store.CreateSchema(ctx); err != nil {
		return s.storageFailure(span, "create ban schema", err)
	}
	return nil
}

// Ban issues a new ban. An identity may hold only one active ban: an active unexpired
// ban yields model.ErrAlreadyBanned, an expired one is retired first.
func (s *Service) Ban(ctx context.Context, req model.NewBan) (*model.BanRecord, error) {
	if !s.Enabled() {
		return nil, model.ErrServiceUnavailable
	}
	if req.Duration < 0 {
		return nil, model.ErrInvalidDuration
	}
	ctx, span := s.tracer.Start(ctx, "ban.Ban", trace.WithAttributes(
		attribute.String("ban.identity", string(req.BannedIdentity)),
	))
	defer span.End()

	_, err := s.activeBan(ctx, req.BannedIdentity)
	switch {
	case err == nil:
		return nil, model.ErrAlreadyBanned
	case !errors.Is(err, model.ErrBanNotFound):
		return nil, err
	}

	now := s.clock.Now()
	record := &model.BanRecord{
		BannedIdentity: req.BannedIdentity,
		StaffIdentity:  req.StaffIdentity,
		Reason:         req.Reason,
		IssuedAt:       now,
		Active:         true,
	}
	if req.Duration > 0 {
		expires := now.Add(req.Duration)
		record.ExpiresAt = &expires
	}

	if err := s.store.InsertBan(ctx, record); err != nil {
		return nil, s.storageFailure(span, "insert ban", err)
	}

	s.logger.Info("ban issued",
		slog.Int64("ban_id", int64(record.ID)),
		slog.String("identity", string(record.BannedIdentity)),
		slog.String("staff", string(record.StaffIdentity)),
		slog.Bool("permanent", record.IsPermanent()),
	)
	return record, nil
}

// Unban lifts a ban and records who lifted it and why
func (s *Service) Unban(ctx context.Context, record *model.BanRecord, staff model.Identity, reason string) (*model.UnbanRecord, error) {
	if !s.Enabled() {
		return nil, model.ErrServiceUnavailable
	}
	ctx, span := s.tracer.Start(ctx, "ban.Unban", trace.WithAttributes(
		attribute.Int64("ban.id", int64(record.ID)),
	))
	defer span.End()

	unban := &model.UnbanRecord{
		BanID:         record.ID,
		StaffIdentity: staff,
		Reason:        reason,
		UnbannedAt:    s.clock.Now(),
	}
	if err := s.store.Unban(ctx, unban); err != nil {
		if errors.Is(err, model.ErrBanNotFound) {
			return nil, err
		}
		return nil, s.storageFailure(span, "unban", err)
	}
	record.Active = false

	s.logger.Info("ban lifted",
		slog.Int64("ban_id", int64(record.ID)),
		slog.String("identity", string(record.BannedIdentity)),
		slog.String("staff", string(staff)),
	)
	return unban, nil
}

// IsBanned reports whether identity holds an active ban, blocking until storage answers
func (s *Service) IsBanned(ctx context.Context, identity model.Identity) (bool, error) {
	if !s.Enabled() {
		metrics.RecordBanLookup(metrics.LookupDisabled)
		return false, model.ErrServiceUnavailable
	}
	ctx, span := s.tracer.Start(ctx, "ban.IsBanned", trace.WithAttributes(
		attribute.String("ban.identity", string(identity)),
	))
	defer span.End()

	_, err := s.activeBan(ctx, identity)
	switch {
	case err == nil:
		metrics.RecordBanLookup(metrics.LookupBanned)
		return true, nil
	case errors.Is(err, model.ErrBanNotFound):
		metrics.RecordBanLookup(metrics.LookupClear)
		return false, nil
	default:
		metrics.RecordBanLookup(metrics.LookupError)
		return false, err
	}
}

// IsBannedAsync runs IsBanned off the caller's goroutine and delivers the result through sched
func (s *Service) IsBannedAsync(ctx context.Context, identity model.Identity, sched Scheduler, then func(bool, error)) {
	go func() {
		banned, err := s.IsBanned(ctx, identity)
		sched.RunOnNextFrame(func() { then(banned, err) })
	}()
}

// BanInfo returns the active ban of identity. Expired bans are retired and reported
// as model.ErrBanNotFound.
func (s *Service) BanInfo(ctx context.Context, identity model.Identity) (*model.BanRecord, error) {
	if !s.Enabled() {
		return nil, model.ErrServiceUnavailable
	}
	ctx, span := s.tracer.Start(ctx, "ban.BanInfo", trace.WithAttributes(
		attribute.String("ban.identity", string(identity)),
	))
	defer span.End()

	return s.activeBan(ctx, identity)
}

// BanInfoAsync runs BanInfo off the caller's goroutine and delivers the result through sched
func (s *Service) BanInfoAsync(ctx context.Context, identity model.Identity, sched Scheduler, then func(*model.BanRecord, error)) {
	go func() {
		record, err := s.BanInfo(ctx, identity)
		sched.RunOnNextFrame(func() { then(record, err) })
	}()
}

// History returns every ban issued to identity, newest first
func (s *Service) History(ctx context.Context, identity model.Identity) ([]*model.BanRecord, error) {
	if !s.Enabled() {
		return nil, model.ErrServiceUnavailable
	}
	ctx, span := s.tracer.Start(ctx, "ban.History")
	defer span.End()

	bans, err := s.store.ListBans(ctx, identity)
	if err != nil {
		return nil, s.storageFailure(span, "list bans", err)
	}
	return bans, nil
}

// UnbanFor returns the unban audit record of a ban
func (s *Service) UnbanFor(ctx context.Context, banID model.BanID) (*model.UnbanRecord, error) {
	if !s.Enabled() {
		return nil, model.ErrServiceUnavailable
	}
	unban, err := s.store.GetUnban(ctx, banID)
	if err != nil {
		if errors.Is(err, model.ErrUnbanNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: get unban: %w", model.ErrStorageFailure, err)
	}
	return unban, nil
}

// Purge deletes a ban together with its unban record
func (s *Service) Purge(ctx context.Context, banID model.BanID) error {
	if !s.Enabled() {
		return model.ErrServiceUnavailable
	}
	ctx, span := s.tracer.Start(ctx, "ban.Purge", trace.WithAttributes(attribute.Int64("ban.id", int64(banID))))
	defer span.End()

	if err := s.store.DeleteBan(ctx, banID); err != nil {
		if errors.Is(err, model.ErrBanNotFound) {
			return err
		}
		return s.storageFailure(span, "delete ban", err)
	}
	s.logger.Info("ban purged", slog.Int64("ban_id", int64(banID)))
	return nil
}

// activeBan loads the active ban of identity, retiring it first if it has expired.
// Both the blocking and the async paths go through here, so both wait for the
// expiry write before answering.
func (s *Service) activeBan(ctx context.Context, identity model.Identity) (*model.BanRecord, error) {
	record, err := s.store.GetActiveBan(ctx, identity)
	if err != nil {
		if errors.Is(err, model.ErrBanNotFound) {
			return nil, err
		}
		span := trace.SpanFromContext(ctx)
		return nil, s.storageFailure(span, "get active ban", err)
	}

	if record.IsExpired(s.clock.Now()) {
		s.expire(ctx, record)
		return nil, model.ErrBanNotFound
	}
	return record, nil
}

// expire flips an expired record to inactive. Failures are only logged; the next
// lookup retries.
func (s *Service) expire(ctx context.Context, record *model.BanRecord) {
	key := strconv.FormatInt(int64(record.ID), 10)
	_, err, shared := s.expiry.Do(key, func() (any, error) {
		return nil, s.store.DeactivateBan(ctx, record.ID)
	})
	if err != nil {
		s.logger.Warn("lazy ban expiry failed",
			slog.Int64("ban_id", int64(record.ID)),
			slog.Any("error", err),
		)
		return
	}
	record.Active = false
	s.logger.Debug("ban expired",
		slog.Int64("ban_id", int64(record.ID)),
		slog.String("identity", string(record.BannedIdentity)),
		slog.Bool("shared", shared),
	)
}

func (s *Service) storageFailure(span trace.Span, op string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, op)
	metrics.RecordBanStorageFailure(op)
	s.logger.Error("ban storage failure",
		slog.String("op", op),
		slog.Any("error", err),
	)
	return fmt.Errorf("%w: %s: %w", model.ErrStorageFailure, op, err)
}
