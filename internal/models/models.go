package models

import (
	"strings"
	"time"
)

// CategoryID is a lowercase-normalized unique category identifier.
type CategoryID string

// UnknownCategoryID is the terminal fallback every classification can resolve to.
const UnknownCategoryID CategoryID = "unknown"

// NormalizeCategoryID lowercases and trims a raw id so lookups are stable
// regardless of how the management layer spelled it.
func NormalizeCategoryID(raw string) CategoryID {
	return CategoryID(strings.ToLower(strings.TrimSpace(raw)))
}

// Category is a user-defined productivity grouping. ParentID, when set, must
// reference an existing top-level category (one level of nesting only).
type Category struct {
	ID          CategoryID `json:"id"`
	Name        string     `json:"name"`
	Color       string     `json:"color"` // RGB hex, e.g. "#6b7280"
	Description string     `json:"description,omitempty"`
	ParentID    CategoryID `json:"parent_id,omitempty"`
}

// AppMapping associates ordered app-name patterns with a category. Each
// pattern may carry alternative names separated by '|'; the first alternative
// is the canonical display name.
type AppMapping struct {
	CategoryID CategoryID `json:"category_id"`
	Patterns   []string   `json:"apps"`
}

// URLMapping associates ordered URL patterns (domain, subdomain, or exact
// URL) with a category. Uniqueness of a pattern across categories is
// validated by the management layer before it reaches this core.
type URLMapping struct {
	CategoryID CategoryID `json:"category_id"`
	Patterns   []string   `json:"urls"`
}

// ActivityInterval is one contiguous span of time spent in an
// application/window/URL. End is nil while the interval is still open; an
// open interval is bucketized against the caller's "now" on every call.
type ActivityInterval struct {
	ID      string     `json:"id"`
	Start   time.Time  `json:"start"`
	End     *time.Time `json:"end,omitempty"`
	AppName string     `json:"app_name"`
	URL     string     `json:"url,omitempty"`
}

// ClampedEnd returns the effective end instant, substituting now for an
// ongoing interval.
func (a ActivityInterval) ClampedEnd(now time.Time) time.Time {
	if a.End == nil {
		return now
	}
	return *a.End
}

// Duration returns the interval length against the given now. Malformed
// intervals (end before start) yield a negative duration; callers filter.
func (a ActivityInterval) Duration(now time.Time) time.Duration {
	return a.ClampedEnd(now).Sub(a.Start)
}

// RefKind tags a CategoryRef as resolved or fallen through.
type RefKind string

const (
	RefKnown   RefKind = "known"
	RefUnknown RefKind = "unknown"
)

// CategoryRef is the classifier's output: either a known category id or the
// explicit unknown marker. Resolution to an id happens exactly once, here,
// so downstream code never re-inspects shape. Candidates is the number of
// mapping entries that could have matched; a value above 1 means the fuzzy
// layer picked among several and callers may surface the ambiguity.
type CategoryRef struct {
	Kind       RefKind
	ID         CategoryID
	Candidates int
}

// KnownCategory builds a ref for an unambiguous resolution (one candidate).
func KnownCategory(id CategoryID) CategoryRef {
	return CategoryRef{Kind: RefKnown, ID: id, Candidates: 1}
}

func UnknownCategory() CategoryRef {
	return CategoryRef{Kind: RefUnknown}
}

// CategoryID resolves the ref to a concrete id, mapping the unknown marker to
// the built-in unknown category.
func (r CategoryRef) CategoryID() CategoryID {
	if r.Kind == RefKnown {
		return r.ID
	}
	return UnknownCategoryID
}

// Ambiguous reports whether more than one mapping entry could have matched.
func (r CategoryRef) Ambiguous() bool {
	return r.Candidates > 1
}

// TimeBucket is one fixed, half-open span [Start, End) in a contiguous
// bucket set.
type TimeBucket struct {
	Index int       `json:"index"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// BucketTotal is one bucket's aggregated activity plus the intervals that
// contributed to it, so a presentation layer can answer "what happened in
// this hour" without re-querying.
type BucketTotal struct {
	Index           int                `json:"index"`
	ActivitySeconds float64            `json:"activity_seconds"`
	Activities      []ActivityInterval `json:"activities"`
}

// CategorySummary is one category's share of the aggregated range.
type CategorySummary struct {
	CategoryID      CategoryID `json:"category_id"`
	DurationSeconds float64    `json:"duration_seconds"`
	Percentage      float64    `json:"percentage"`
}

// AppSummary is one raw application's share of the aggregated range.
type AppSummary struct {
	AppName         string  `json:"app_name"`
	DurationSeconds float64 `json:"duration_seconds"`
	Percentage      float64 `json:"percentage"`
}

// ActivitySummary is the whole-range rollup consumed by the presentation
// layer. Rebuilt from scratch on every aggregation call.
type ActivitySummary struct {
	TotalActiveSeconds float64           `json:"total_active_seconds"`
	Categories         []CategorySummary `json:"categories"`
	TopApps            []AppSummary      `json:"top_apps"`
	SkippedIntervals   int               `json:"skipped_intervals,omitempty"`
}
