package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/marosky/timelens/internal/models"
	"github.com/marosky/timelens/internal/storage"
)

func fixedDay(hour, min int) time.Time {
	return time.Date(2024, time.March, 12, hour, min, 0, 0, time.UTC)
}

func seededStore() *storage.MemoryStorage {
	store := storage.NewMemoryStorage()
	store.AddCategory(models.Category{ID: "development", Name: "Development", Color: "#22c55e"})
	store.AddCategory(models.Category{ID: "communication", Name: "Communication", Color: "#eab308"})
	store.AddAppMapping(models.AppMapping{CategoryID: "development", Patterns: []string{"Visual Studio Code|VS Code"}})
	store.AddAppMapping(models.AppMapping{CategoryID: "communication", Patterns: []string{"Slack"}})
	return store
}

func newTestService(store *storage.MemoryStorage, now time.Time) *Service {
	return New(store, time.Second, zap.NewNop(), WithClock(func() time.Time { return now }))
}

func TestServiceHourlyBuckets(t *testing.T) {
	store := seededStore()
	end := fixedDay(10, 3)
	store.AddActivity(models.ActivityInterval{Start: fixedDay(9, 58), End: &end, AppName: "Google Chrome"})

	svc := newTestService(store, fixedDay(23, 0))
	res, err := svc.HourlyBuckets(context.Background(), fixedDay(12, 0))
	if err != nil {
		t.Fatalf("hourly buckets failed: %v", err)
	}

	if len(res.Buckets) != 24 {
		t.Fatalf("want 24 buckets, got %d", len(res.Buckets))
	}
	if res.Buckets[9].ActivitySeconds != 120 || res.Buckets[10].ActivitySeconds != 180 {
		t.Fatalf("want 120s/180s in hours 9/10, got %v/%v",
			res.Buckets[9].ActivitySeconds, res.Buckets[10].ActivitySeconds)
	}
}

func TestServiceTimelineBuckets(t *testing.T) {
	store := seededStore()
	now := fixedDay(12, 0)
	end := fixedDay(11, 50)
	store.AddActivity(models.ActivityInterval{Start: fixedDay(11, 40), End: &end, AppName: "VS Code"})

	svc := newTestService(store, now)
	res, err := svc.TimelineBuckets(context.Background(), 5*time.Minute, 12)
	if err != nil {
		t.Fatalf("timeline failed: %v", err)
	}

	if len(res.Buckets) != 12 {
		t.Fatalf("want 12 buckets, got %d", len(res.Buckets))
	}
	if res.Summary.TotalActiveSeconds != 600 {
		t.Fatalf("want 600s total, got %v", res.Summary.TotalActiveSeconds)
	}
}

func TestServiceSummaryClassifies(t *testing.T) {
	store := seededStore()
	end1 := fixedDay(9, 40)
	store.AddActivity(models.ActivityInterval{Start: fixedDay(9, 0), End: &end1, AppName: "VS Code"})
	end2 := fixedDay(10, 0)
	store.AddActivity(models.ActivityInterval{Start: fixedDay(9, 40), End: &end2, AppName: "Slack"})

	svc := newTestService(store, fixedDay(23, 0))
	summary, err := svc.Summary(context.Background(), fixedDay(0, 0), fixedDay(23, 59))
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}

	if summary.TotalActiveSeconds != 3600 {
		t.Fatalf("want 3600s, got %v", summary.TotalActiveSeconds)
	}
	if summary.Categories[0].CategoryID != "development" {
		t.Fatalf("want development first, got %#v", summary.Categories)
	}
	if summary.Categories[0].Percentage <= summary.Categories[1].Percentage {
		t.Fatalf("percentages out of order: %#v", summary.Categories)
	}
}

func TestServiceReloadPicksUpMappingEdits(t *testing.T) {
	store := seededStore()
	end := fixedDay(9, 30)
	store.AddActivity(models.ActivityInterval{Start: fixedDay(9, 0), End: &end, AppName: "Figma"})

	svc := newTestService(store, fixedDay(23, 0))
	ctx := context.Background()

	before, err := svc.Summary(ctx, fixedDay(0, 0), fixedDay(23, 59))
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if before.Categories[0].CategoryID != models.UnknownCategoryID {
		t.Fatalf("Figma should be unknown before the edit, got %#v", before.Categories)
	}

	store.AddAppMapping(models.AppMapping{CategoryID: "development", Patterns: []string{"Figma"}})
	if err := svc.Reload(ctx); err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	after, err := svc.Summary(ctx, fixedDay(0, 0), fixedDay(23, 59))
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if after.Categories[0].CategoryID != "development" {
		t.Fatalf("Figma should classify as development after reload, got %#v", after.Categories)
	}
}

func TestServiceSuggestWithoutSuggester(t *testing.T) {
	svc := newTestService(seededStore(), fixedDay(12, 0))

	got := svc.SuggestCategory(context.Background(), "Mystery App")
	if got.CategoryID != models.UnknownCategoryID {
		t.Fatalf("want unknown fallback, got %#v", got)
	}
}

func TestServiceEmptyStoreYieldsValidSummary(t *testing.T) {
	store := storage.NewMemoryStorage()
	svc := newTestService(store, fixedDay(12, 0))

	summary, err := svc.Summary(context.Background(), fixedDay(0, 0), fixedDay(23, 59))
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if summary.TotalActiveSeconds != 0 {
		t.Fatalf("want 0 total, got %v", summary.TotalActiveSeconds)
	}
	if len(summary.Categories) != 0 || len(summary.TopApps) != 0 {
		t.Fatalf("want empty lists, got %#v", summary)
	}
}
