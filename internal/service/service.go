package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/marosky/timelens/internal/aggregate"
	"github.com/marosky/timelens/internal/classifier"
	"github.com/marosky/timelens/internal/models"
	"github.com/marosky/timelens/internal/registry"
	"github.com/marosky/timelens/internal/storage"
)

// Suggester proposes a category for an app the rule classifier could not
// match. Optional; a Service without one reports no suggestions.
type Suggester interface {
	SuggestCategory(ctx context.Context, appName string, reg *registry.Registry) classifier.Suggestion
}

// Service wires storage, registry loading, classification and aggregation
// into one constructed object handed to call sites. All reads go through an
// immutable registry snapshot, so concurrent edits never affect an in-flight
// aggregation.
type Service struct {
	store      storage.Storage
	loader     *registry.Loader
	aggregator *aggregate.Aggregator
	suggester  Suggester
	logger     *zap.Logger
	now        func() time.Time
}

// Option configures optional Service collaborators.
type Option func(*Service)

// WithSuggester enables category suggestions for unmatched apps.
func WithSuggester(s Suggester) Option {
	return func(svc *Service) { svc.suggester = s }
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(svc *Service) { svc.now = now }
}

func New(store storage.Storage, loadTimeout time.Duration, logger *zap.Logger, opts ...Option) *Service {
	svc := &Service{
		store:      store,
		loader:     registry.NewLoader(store, loadTimeout, logger),
		aggregator: aggregate.NewAggregator(classifier.NewRuleClassifier()),
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// HourlyBuckets aggregates the calendar day containing day into 24 hourly
// buckets plus the day's summary.
func (s *Service) HourlyBuckets(ctx context.Context, day time.Time) (aggregate.Result, error) {
	buckets := aggregate.HourlyBuckets(day)
	return s.aggregateRange(ctx, buckets[0].Start, buckets[len(buckets)-1].End, buckets)
}

// TimelineBuckets aggregates the trailing window ending now into count
// buckets of the given width, oldest first.
func (s *Service) TimelineBuckets(ctx context.Context, width time.Duration, count int) (aggregate.Result, error) {
	end := s.now()
	buckets := aggregate.WindowBuckets(end, width, count)
	if len(buckets) == 0 {
		return aggregate.Result{Summary: emptySummary()}, nil
	}
	return s.aggregateRange(ctx, buckets[0].Start, end, buckets)
}

// Summary aggregates [from, to) without bucket detail.
func (s *Service) Summary(ctx context.Context, from, to time.Time) (models.ActivitySummary, error) {
	res, err := s.aggregateRange(ctx, from, to, []models.TimeBucket{{Index: 0, Start: from, End: to}})
	if err != nil {
		return models.ActivitySummary{}, err
	}
	return res.Summary, nil
}

// SuggestCategory proposes a category for an unmatched app name. Without a
// configured suggester the result is the unknown fallback.
func (s *Service) SuggestCategory(ctx context.Context, appName string) classifier.Suggestion {
	reg := s.loader.Get(ctx)
	if s.suggester == nil {
		return classifier.Suggestion{CategoryID: models.UnknownCategoryID}
	}
	return s.suggester.SuggestCategory(ctx, appName, reg)
}

// Reload swaps in a fresh registry snapshot. In-flight aggregations keep the
// snapshot they started with.
func (s *Service) Reload(ctx context.Context) error {
	return s.loader.Reload(ctx)
}

// Registry exposes the current snapshot, primarily so a presentation layer
// can resolve category ids to names and colors.
func (s *Service) Registry(ctx context.Context) *registry.Registry {
	return s.loader.Get(ctx)
}

func (s *Service) aggregateRange(ctx context.Context, from, to time.Time, buckets []models.TimeBucket) (aggregate.Result, error) {
	reg := s.loader.Get(ctx)

	activities, err := s.store.ListActivities(ctx, from, to)
	if err != nil {
		return aggregate.Result{}, err
	}

	res := s.aggregator.Aggregate(activities, reg, buckets, s.now())
	if res.Summary.SkippedIntervals > 0 {
		s.logger.Debug("Skipped malformed intervals during aggregation",
			zap.Int("skipped", res.Summary.SkippedIntervals),
			zap.Time("from", from),
			zap.Time("to", to))
	}
	return res, nil
}

func emptySummary() models.ActivitySummary {
	return models.ActivitySummary{
		Categories: []models.CategorySummary{},
		TopApps:    []models.AppSummary{},
	}
}
