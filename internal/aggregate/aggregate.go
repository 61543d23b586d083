package aggregate

import (
	"sort"
	"time"

	"github.com/marosky/timelens/internal/classifier"
	"github.com/marosky/timelens/internal/models"
	"github.com/marosky/timelens/internal/registry"
)

// Result is one aggregation pass over an immutable snapshot: per-bucket
// totals plus the whole-range summary. Always rebuilt, never patched.
type Result struct {
	Buckets []models.BucketTotal
	Summary models.ActivitySummary
}

// Aggregator folds classified, bucketized intervals into the summary shapes
// the presentation layer consumes. It is stateless; every call is a pure
// transform of its arguments.
type Aggregator struct {
	classifier classifier.Classifier
}

func NewAggregator(clf classifier.Classifier) *Aggregator {
	return &Aggregator{classifier: clf}
}

// Aggregate classifies every interval once, distributes each across the
// bucket set, and folds category and app totals over the whole range.
// Malformed intervals (end before start, zero duration) are skipped and
// counted, never fatal. now resolves ongoing intervals and must come from
// the caller so repeated calls can observe later snapshots.
func (a *Aggregator) Aggregate(intervals []models.ActivityInterval, reg *registry.Registry, buckets []models.TimeBucket, now time.Time) Result {
	totals := make([]models.BucketTotal, len(buckets))
	for i, b := range buckets {
		totals[i] = models.BucketTotal{Index: b.Index}
	}

	perCategory := make(map[models.CategoryID]time.Duration)
	var categoryOrder []models.CategoryID
	perApp := make(map[string]time.Duration)
	var appOrder []string

	var total time.Duration
	skipped := 0

	for _, iv := range intervals {
		if iv.Duration(now) <= 0 {
			skipped++
			continue
		}

		spread := Bucketize(iv, buckets, now)
		var inRange time.Duration
		for i, b := range buckets {
			d, ok := spread[b.Index]
			if !ok {
				continue
			}
			inRange += d
			totals[i].ActivitySeconds += d.Seconds()
			totals[i].Activities = append(totals[i].Activities, iv)
		}
		if inRange == 0 {
			continue
		}

		catID := a.classifier.Classify(iv, reg).CategoryID()
		if _, seen := perCategory[catID]; !seen {
			categoryOrder = append(categoryOrder, catID)
		}
		perCategory[catID] += inRange

		if _, seen := perApp[iv.AppName]; !seen {
			appOrder = append(appOrder, iv.AppName)
		}
		perApp[iv.AppName] += inRange

		total += inRange
	}

	summary := models.ActivitySummary{
		TotalActiveSeconds: total.Seconds(),
		Categories:         categorySummaries(perCategory, categoryOrder, total),
		TopApps:            appSummaries(perApp, appOrder, total),
		SkippedIntervals:   skipped,
	}

	return Result{Buckets: totals, Summary: summary}
}

// categorySummaries builds per-category rows sorted by descending duration;
// ties keep first-seen order so results are reproducible.
func categorySummaries(durations map[models.CategoryID]time.Duration, order []models.CategoryID, total time.Duration) []models.CategorySummary {
	out := make([]models.CategorySummary, 0, len(order))
	for _, id := range order {
		out = append(out, models.CategorySummary{
			CategoryID:      id,
			DurationSeconds: durations[id].Seconds(),
			Percentage:      percentage(durations[id], total),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DurationSeconds > out[j].DurationSeconds
	})
	return out
}

func appSummaries(durations map[string]time.Duration, order []string, total time.Duration) []models.AppSummary {
	out := make([]models.AppSummary, 0, len(order))
	for _, app := range order {
		out = append(out, models.AppSummary{
			AppName:         app,
			DurationSeconds: durations[app].Seconds(),
			Percentage:      percentage(durations[app], total),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DurationSeconds > out[j].DurationSeconds
	})
	return out
}

// percentage is 0 when total is 0 so empty ranges never divide by zero.
func percentage(part, total time.Duration) float64 {
	if total <= 0 {
		return 0
	}
	return 100 * part.Seconds() / total.Seconds()
}
