package storage

import (
	"context"
	"time"

	"github.com/marosky/timelens/internal/models"
	"github.com/marosky/timelens/internal/registry"
)

// Storage is the narrow contract the classification core consumes from the
// persistence layer: registry rows and activity intervals for a time range.
// It satisfies registry.Source.
type Storage interface {
	FetchRegistry(ctx context.Context) (registry.Data, error)
	ListActivities(ctx context.Context, from, to time.Time) ([]models.ActivityInterval, error)
	Close() error
}
