package registry

import (
	"strings"

	"github.com/marosky/timelens/internal/models"
)

// AliasDelimiter separates alternative app names inside one mapping pattern,
// e.g. "Visual Studio Code|VS Code". The first alternative is the canonical
// display name.
const AliasDelimiter = "|"

// AppAlias is one flattened app-name alias in registry insertion order.
type AppAlias struct {
	Alias      string
	Canonical  string
	CategoryID models.CategoryID
}

// URLPattern is one URL mapping pattern in registry insertion order.
type URLPattern struct {
	Pattern    string
	CategoryID models.CategoryID
}

// Registry is a read-only snapshot of categories and mapping tables for the
// duration of one classification/aggregation pass. Edits produce a new
// snapshot; a Registry is never mutated after Load returns it.
type Registry struct {
	categories []models.Category
	byID       map[models.CategoryID]models.Category

	appAliases  []AppAlias
	appExact    map[string]models.CategoryID
	appFolded   map[string]models.CategoryID
	urlPatterns []URLPattern
}

// Load builds a snapshot from the raw rows the persistence layer supplies.
// Categories with an empty id are dropped; a ParentID pointing at a missing
// or itself-nested category is cleared so depth never exceeds one level.
func Load(categories []models.Category, appMappings []models.AppMapping, urlMappings []models.URLMapping) *Registry {
	r := &Registry{
		byID:      make(map[models.CategoryID]models.Category),
		appExact:  make(map[string]models.CategoryID),
		appFolded: make(map[string]models.CategoryID),
	}

	for _, c := range categories {
		c.ID = models.NormalizeCategoryID(string(c.ID))
		if c.ID == "" {
			continue
		}
		if _, dup := r.byID[c.ID]; dup {
			continue
		}
		r.categories = append(r.categories, c)
		r.byID[c.ID] = c
	}

	// Enforce depth <= 1: a parent must exist and be top-level itself.
	for i, c := range r.categories {
		if c.ParentID == "" {
			continue
		}
		parent, ok := r.byID[c.ParentID]
		if !ok || parent.ParentID != "" || parent.ID == c.ID {
			c.ParentID = ""
			r.categories[i] = c
			r.byID[c.ID] = c
		}
	}

	for _, m := range appMappings {
		catID := models.NormalizeCategoryID(string(m.CategoryID))
		for _, pattern := range m.Patterns {
			alternatives := strings.Split(pattern, AliasDelimiter)
			canonical := strings.TrimSpace(alternatives[0])
			for _, alt := range alternatives {
				alias := strings.TrimSpace(alt)
				if alias == "" {
					continue
				}
				r.appAliases = append(r.appAliases, AppAlias{
					Alias:      alias,
					Canonical:  canonical,
					CategoryID: catID,
				})
				// First registration wins on alias collisions.
				if _, exists := r.appExact[alias]; !exists {
					r.appExact[alias] = catID
				}
				folded := strings.ToLower(alias)
				if _, exists := r.appFolded[folded]; !exists {
					r.appFolded[folded] = catID
				}
			}
		}
	}

	for _, m := range urlMappings {
		catID := models.NormalizeCategoryID(string(m.CategoryID))
		for _, pattern := range m.Patterns {
			p := strings.TrimSpace(pattern)
			if p == "" {
				continue
			}
			r.urlPatterns = append(r.urlPatterns, URLPattern{
				Pattern:    p,
				CategoryID: catID,
			})
		}
	}

	return r
}

// LookupByID returns the category for id, or false when the snapshot does
// not contain it.
func (r *Registry) LookupByID(id models.CategoryID) (models.Category, bool) {
	c, ok := r.byID[models.NormalizeCategoryID(string(id))]
	return c, ok
}

// Categories returns the snapshot's categories in insertion order. The
// returned slice is shared; callers must not modify it.
func (r *Registry) Categories() []models.Category {
	return r.categories
}

// AppAliases returns the flattened app aliases in insertion order.
func (r *Registry) AppAliases() []AppAlias {
	return r.appAliases
}

// URLPatterns returns the URL patterns in insertion order.
func (r *Registry) URLPatterns() []URLPattern {
	return r.urlPatterns
}

// ExactAppMatch does a case-sensitive alias lookup.
func (r *Registry) ExactAppMatch(appName string) (models.CategoryID, bool) {
	id, ok := r.appExact[appName]
	return id, ok
}

// FoldedAppMatch does a case-insensitive alias lookup.
func (r *Registry) FoldedAppMatch(appName string) (models.CategoryID, bool) {
	id, ok := r.appFolded[strings.ToLower(appName)]
	return id, ok
}

// Default returns the built-in registry used when loading fails: six fixed
// categories and empty mapping tables. Returned, never thrown, so downstream
// code has no "missing registry" case.
func Default() *Registry {
	return Load([]models.Category{
		{ID: "development", Name: "Development", Color: "#22c55e", Description: "Programming and engineering tools"},
		{ID: "productive", Name: "Productive", Color: "#3b82f6", Description: "Documents, planning and other focused work"},
		{ID: "communication", Name: "Communication", Color: "#eab308", Description: "Mail, chat and meetings"},
		{ID: "social", Name: "Social", Color: "#f97316", Description: "Social networks"},
		{ID: "entertainment", Name: "Entertainment", Color: "#ef4444", Description: "Video, music and games"},
		{ID: "unknown", Name: "Unknown", Color: "#6b7280", Description: "Unclassified activity"},
	}, nil, nil)
}
