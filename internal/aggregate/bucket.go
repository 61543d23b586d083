package aggregate

import (
	"time"

	"github.com/marosky/timelens/internal/models"
)

// HourlyBuckets returns the 24 hour-of-day buckets covering the calendar day
// containing day, in day's location. Bucket index equals the hour.
func HourlyBuckets(day time.Time) []models.TimeBucket {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	buckets := make([]models.TimeBucket, 24)
	for h := 0; h < 24; h++ {
		buckets[h] = models.TimeBucket{
			Index: h,
			Start: start.Add(time.Duration(h) * time.Hour),
			End:   start.Add(time.Duration(h+1) * time.Hour),
		}
	}
	return buckets
}

// WindowBuckets returns count contiguous buckets of the given width ending
// at end, oldest first. Used for trailing timeline views (e.g. the last 60
// minutes in 5-minute slots).
func WindowBuckets(end time.Time, width time.Duration, count int) []models.TimeBucket {
	if count <= 0 || width <= 0 {
		return nil
	}
	start := end.Add(-time.Duration(count) * width)
	buckets := make([]models.TimeBucket, count)
	for i := 0; i < count; i++ {
		buckets[i] = models.TimeBucket{
			Index: i,
			Start: start.Add(time.Duration(i) * width),
			End:   start.Add(time.Duration(i+1) * width),
		}
	}
	return buckets
}

// Bucketize distributes one interval's duration across the buckets it
// overlaps. Each spanned bucket receives
// min(interval.end, bucket.end) - max(interval.start, bucket.start),
// so the per-bucket durations for a contiguous bucket set sum exactly to the
// interval's clamped duration. Zero or negative duration intervals and
// intervals entirely outside the bucket range contribute nothing.
func Bucketize(interval models.ActivityInterval, buckets []models.TimeBucket, now time.Time) map[int]time.Duration {
	out := make(map[int]time.Duration)
	end := interval.ClampedEnd(now)
	if !end.After(interval.Start) {
		return out
	}
	for _, b := range buckets {
		s := interval.Start
		if b.Start.After(s) {
			s = b.Start
		}
		e := end
		if b.End.Before(e) {
			e = b.End
		}
		if overlap := e.Sub(s); overlap > 0 {
			out[b.Index] = overlap
		}
	}
	return out
}
