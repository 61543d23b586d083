package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marosky/timelens/internal/models"
	"github.com/marosky/timelens/internal/registry"
)

// MemoryStorage keeps registry rows and activities in process memory. It
// backs tests and single-machine setups, and carries the management-layer
// mutation surface; readers only ever see copies, so a snapshot handed to
// the registry loader is never affected by a concurrent edit.
type MemoryStorage struct {
	mu          sync.RWMutex
	categories  []models.Category
	appMappings []models.AppMapping
	urlMappings []models.URLMapping
	activities  []models.ActivityInterval
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (s *MemoryStorage) FetchRegistry(ctx context.Context) (registry.Data, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return registry.Data{
		Categories:  append([]models.Category(nil), s.categories...),
		AppMappings: copyAppMappings(s.appMappings),
		URLMappings: copyURLMappings(s.urlMappings),
	}, nil
}

func (s *MemoryStorage) ListActivities(ctx context.Context, from, to time.Time) ([]models.ActivityInterval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.ActivityInterval
	for _, a := range s.activities {
		end := a.ClampedEnd(to)
		if a.Start.Before(to) && end.After(from) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *MemoryStorage) AddCategory(category models.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()

	category.ID = models.NormalizeCategoryID(string(category.ID))
	for i, c := range s.categories {
		if c.ID == category.ID {
			s.categories[i] = category
			return
		}
	}
	s.categories = append(s.categories, category)
}

func (s *MemoryStorage) RemoveCategory(id models.CategoryID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id = models.NormalizeCategoryID(string(id))
	for i, c := range s.categories {
		if c.ID == id {
			s.categories = append(s.categories[:i], s.categories[i+1:]...)
			break
		}
	}
}

func (s *MemoryStorage) AddAppMapping(mapping models.AppMapping) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appMappings = append(s.appMappings, mapping)
}

func (s *MemoryStorage) AddURLMapping(mapping models.URLMapping) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.urlMappings = append(s.urlMappings, mapping)
}

// AddActivity stores an interval, minting an id when the capture layer did
// not supply one, and returns the stored record.
func (s *MemoryStorage) AddActivity(activity models.ActivityInterval) models.ActivityInterval {
	s.mu.Lock()
	defer s.mu.Unlock()

	if activity.ID == "" {
		activity.ID = uuid.New().String()
	}
	s.activities = append(s.activities, activity)
	return activity
}

// CloseActivity sets the end instant of an ongoing interval.
func (s *MemoryStorage) CloseActivity(id string, end time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, a := range s.activities {
		if a.ID == id && a.End == nil {
			e := end
			s.activities[i].End = &e
			return
		}
	}
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}

func copyAppMappings(in []models.AppMapping) []models.AppMapping {
	out := make([]models.AppMapping, len(in))
	for i, m := range in {
		out[i] = models.AppMapping{
			CategoryID: m.CategoryID,
			Patterns:   append([]string(nil), m.Patterns...),
		}
	}
	return out
}

func copyURLMappings(in []models.URLMapping) []models.URLMapping {
	out := make([]models.URLMapping, len(in))
	for i, m := range in {
		out[i] = models.URLMapping{
			CategoryID: m.CategoryID,
			Patterns:   append([]string(nil), m.Patterns...),
		}
	}
	return out
}
