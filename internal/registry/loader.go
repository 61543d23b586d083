package registry

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/marosky/timelens/internal/models"
)

// DefaultLoadTimeout bounds how long a caller waits for the initial load
// before proceeding with the built-in default registry.
const DefaultLoadTimeout = 5 * time.Second

// Data is the raw registry shape a Source returns, before snapshot indexing.
type Data struct {
	Categories  []models.Category
	AppMappings []models.AppMapping
	URLMappings []models.URLMapping
}

// Source supplies raw registry rows from the external persistence layer.
type Source interface {
	FetchRegistry(ctx context.Context) (Data, error)
}

// Loader owns the one asynchronous boundary of the core: fetching registry
// rows from a Source and publishing immutable snapshots. At most one initial
// load is ever in flight; concurrent callers awaiting initialization all
// observe the same completed state through a ready channel resolved exactly
// once. A caller that outwaits the timeout proceeds with the built-in
// default registry instead of blocking forever.
type Loader struct {
	source  Source
	timeout time.Duration
	logger  *zap.Logger

	current   atomic.Pointer[Registry]
	ready     chan struct{}
	readyOnce sync.Once
	loadOnce  sync.Once
}

// NewLoader creates a Loader over source. A zero timeout means
// DefaultLoadTimeout.
func NewLoader(source Source, timeout time.Duration, logger *zap.Logger) *Loader {
	if timeout <= 0 {
		timeout = DefaultLoadTimeout
	}
	return &Loader{
		source:  source,
		timeout: timeout,
		logger:  logger,
		ready:   make(chan struct{}),
	}
}

// Get returns the current registry snapshot, kicking off the initial load on
// first use. It never returns nil and never fails: on timeout or caller
// cancellation it degrades to the built-in default registry.
func (l *Loader) Get(ctx context.Context) *Registry {
	l.loadOnce.Do(func() { go l.initialLoad() })

	// A published snapshot always wins, even when the caller's context is
	// already dead; the racing select below would pick a branch at random.
	select {
	case <-l.ready:
		return l.current.Load()
	default:
	}

	select {
	case <-l.ready:
		return l.current.Load()
	case <-ctx.Done():
		l.logger.Warn("Registry load wait cancelled, using built-in defaults",
			zap.Error(ctx.Err()))
		return Default()
	case <-time.After(l.timeout):
		l.logger.Warn("Registry load timed out, using built-in defaults",
			zap.Duration("timeout", l.timeout))
		return Default()
	}
}

// Reload fetches a fresh snapshot and swaps it in atomically. In-flight
// readers keep the snapshot they already hold; the previous snapshot stays
// current if the fetch fails.
func (l *Loader) Reload(ctx context.Context) error {
	reg, err := l.fetch(ctx)
	if err != nil {
		return err
	}
	l.publish(reg)
	return nil
}

func (l *Loader) initialLoad() {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	reg, err := l.fetch(ctx)
	if err != nil {
		l.logger.Error("Failed to load registry, falling back to built-in defaults",
			zap.Error(err))
		reg = Default()
	} else {
		l.logger.Info("Registry loaded",
			zap.Int("categories", len(reg.Categories())),
			zap.Int("app_aliases", len(reg.AppAliases())),
			zap.Int("url_patterns", len(reg.URLPatterns())))
	}
	l.publish(reg)
}

func (l *Loader) fetch(ctx context.Context) (*Registry, error) {
	data, err := l.source.FetchRegistry(ctx)
	if err != nil {
		return nil, err
	}
	return Load(data.Categories, data.AppMappings, data.URLMappings), nil
}

func (l *Loader) publish(reg *Registry) {
	l.current.Store(reg)
	l.readyOnce.Do(func() { close(l.ready) })
}
