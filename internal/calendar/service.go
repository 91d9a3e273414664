package calendar

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/auth"
	"github.com/frahmantamala/leave-management/internal/core/events"
	"github.com/frahmantamala/leave-management/internal/core/user"
	"github.com/frahmantamala/leave-management/internal/metrics"
)

const (
	eventsCacheKey     = "calendar:events:approved"
	generationCacheKey = "calendar:events:generation"
	defaultCacheTTL    = 5 * time.Minute
)

type ReaderAPI interface {
	ListApproved(ctx context.Context) ([]ApprovedLeave, error)
}

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Incr(ctx context.Context, key string) (int64, error)
}

type Service struct {
	reader  ReaderAPI
	cache   Cache
	ttl     time.Duration
	metrics *metrics.Collector
	logger  *slog.Logger
}

// NewService builds the calendar service. cache may be nil.
func NewService(reader ReaderAPI, cache Cache, ttl time.Duration, m *metrics.Collector, logger *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Service{
		reader:  reader,
		cache:   cache,
		ttl:     ttl,
		metrics: m,
		logger:  logger,
	}
}

// Events returns the organisation-wide calendar of approved leave.
func (s *Service) Events(ctx context.Context, principal *user.Principal) ([]Event, error) {
	if err := auth.Authorize(principal, auth.ActionViewCalendar); err != nil {
		return nil, err
	}

	var key string
	if s.cache != nil {
		key = feedKey(s.generation(ctx))
		if cached, ok := s.cached(ctx, key); ok {
			return cached, nil
		}
	}

	leaves, err := s.reader.ListApproved(ctx)
	if err != nil {
		s.logger.Error("failed to list approved leave", "error", err)
		return nil, internal.NewInternalError("failed to load calendar", err)
	}

	projected := Project(leaves)
	if s.cache != nil {
		s.store(ctx, key, projected)
	}
	return projected, nil
}

// Invalidate moves the feed to a new generation. A read that started before
// the call stores its snapshot under the old generation, which is never read
// again.
func (s *Service) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	gen, err := s.cache.Incr(ctx, generationCacheKey)
	if err != nil {
		return err
	}
	return s.cache.Delete(ctx, feedKey(gen-1))
}

// HandleLeaveApproved is subscribed to leave.approved on the event bus.
func (s *Service) HandleLeaveApproved(ctx context.Context, event events.Event) error {
	if err := s.Invalidate(ctx); err != nil {
		return err
	}
	s.logger.Debug("calendar cache invalidated", "event_id", event.EventID())
	return nil
}

func feedKey(gen int64) string {
	return eventsCacheKey + ":" + strconv.FormatInt(gen, 10)
}

// generation is 0 until the first invalidation.
func (s *Service) generation(ctx context.Context) int64 {
	data, ok := s.cache.Get(ctx, generationCacheKey)
	if !ok {
		return 0
	}
	gen, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0
	}
	return gen
}

func (s *Service) cached(ctx context.Context, key string) ([]Event, bool) {
	data, ok := s.cache.Get(ctx, key)
	if !ok {
		s.metrics.CalendarCache(false)
		return nil, false
	}

	var out []Event
	if err := json.Unmarshal(data, &out); err != nil {
		s.logger.Warn("discarding unreadable calendar cache entry", "error", err)
		s.metrics.CalendarCache(false)
		return nil, false
	}
	s.metrics.CalendarCache(true)
	return out, true
}

func (s *Service) store(ctx context.Context, key string, evs []Event) {
	data, err := json.Marshal(evs)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		s.logger.Warn("failed to cache calendar events", "error", err)
	}
}
