package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"warden/internal/platform/events"
	"warden/internal/platform/metrics"
	"warden/internal/platform/middleware"
	"warden/internal/profile/models"
)

// Store persists profile aggregates.
type Store interface {
	Save(ctx context.Context, p *models.Profile) error
	FindByID(ctx context.Context, id string) (*models.Profile, error)
	Delete(ctx context.Context, id string) error
}

// PublicCache holds public projections keyed by profile ID.
type PublicCache interface {
	Get(ctx context.Context, profileID string) (*models.PublicProfile, error)
	Set(ctx context.Context, profileID string, public models.PublicProfile) error
	Invalidate(ctx context.Context, profileID string) error
}

// EventPublisher delivers profile lifecycle events.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Service orchestrates profile lifecycle management.
type Service struct {
	store   Store
	cache   PublicCache
	events  EventPublisher
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithCache(cache PublicCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

func WithEvents(publisher EventPublisher) Option {
	return func(s *Service) {
		s.events = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New constructs a Service.
func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		events: events.Noop{},
		tracer: noop.NewTracerProvider().Tracer(""),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// WithTracing switches the service to the globally registered tracer provider.
func WithTracing() Option {
	return func(s *Service) {
		s.tracer = otel.Tracer("warden/profile")
	}
}

func (s *Service) emit(ctx context.Context, eventType, profileID string, detail map[string]string) {
	if client := middleware.GetClientInfo(ctx); client != "" {
		if detail == nil {
			detail = map[string]string{}
		}
		detail["client"] = client
	}
	event := events.Event{
		Type:      eventType,
		ProfileID: profileID,
		Actor:     middleware.GetUserID(ctx),
		Detail:    detail,
		Occurred:  s.now().UTC(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		// Events are best effort; the mutation already committed.
		s.logger.ErrorContext(ctx, "failed to publish event",
			"event", eventType,
			"profile_id", profileID,
			"error", err,
		)
	}
}

func (s *Service) invalidatePublic(ctx context.Context, profileID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, profileID); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate public cache",
			"profile_id", profileID,
			"error", err,
		)
	}
}

func (s *Service) incrementCreated() {
	if s.metrics != nil {
		s.metrics.IncrementProfilesCreated()
	}
}

func (s *Service) incrementImported() {
	if s.metrics != nil {
		s.metrics.IncrementProfilesImported()
	}
}

func (s *Service) incrementRejected() {
	if s.metrics != nil {
		s.metrics.IncrementMutationsRejected()
	}
}

func (s *Service) incrementValidationFailures() {
	if s.metrics != nil {
		s.metrics.IncrementValidationFailures()
	}
}

func (s *Service) incrementCacheHit() {
	if s.metrics != nil {
		s.metrics.IncrementCacheHits()
	}
}

func (s *Service) incrementCacheMiss() {
	if s.metrics != nil {
		s.metrics.IncrementCacheMisses()
	}
}
