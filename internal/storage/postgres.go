package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/marosky/timelens/internal/models"
	"github.com/marosky/timelens/internal/registry"
)

//go:embed migrations.sql
var migrations embed.FS

type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	UseInMemory bool
}

// PostgresStorage reads registry rows and activity intervals recorded by the
// capture and management layers.
type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(config DatabaseConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %v", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to the database: %v", err)
	}

	storage := &PostgresStorage{db: db}

	// Initialize database schema
	if err := storage.initializeSchema(); err != nil {
		return nil, fmt.Errorf("error initializing database schema: %v", err)
	}

	return storage, nil
}

func (s *PostgresStorage) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %v", err)
	}

	_, err = s.db.Exec(string(migrationSQL))
	if err != nil {
		return fmt.Errorf("error executing migrations: %v", err)
	}

	return nil
}

func (s *PostgresStorage) FetchRegistry(ctx context.Context) (registry.Data, error) {
	categories, err := s.fetchCategories(ctx)
	if err != nil {
		return registry.Data{}, err
	}

	appMappings, err := s.fetchAppMappings(ctx)
	if err != nil {
		return registry.Data{}, err
	}

	urlMappings, err := s.fetchURLMappings(ctx)
	if err != nil {
		return registry.Data{}, err
	}

	return registry.Data{
		Categories:  categories,
		AppMappings: appMappings,
		URLMappings: urlMappings,
	}, nil
}

func (s *PostgresStorage) fetchCategories(ctx context.Context) ([]models.Category, error) {
	query := `
		SELECT id, name, color, description, parent_id
		FROM categories
		ORDER BY position, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying categories: %v", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		var description, parentID sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &c.Color, &description, &parentID); err != nil {
			return nil, fmt.Errorf("error scanning category: %v", err)
		}
		c.Description = description.String
		c.ParentID = models.CategoryID(parentID.String)
		categories = append(categories, c)
	}

	return categories, rows.Err()
}

func (s *PostgresStorage) fetchAppMappings(ctx context.Context) ([]models.AppMapping, error) {
	query := `
		SELECT category_id, pattern
		FROM app_mappings
		ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying app mappings: %v", err)
	}
	defer rows.Close()

	return foldMappingRows(rows, func(categoryID models.CategoryID, patterns []string) models.AppMapping {
		return models.AppMapping{CategoryID: categoryID, Patterns: patterns}
	})
}

func (s *PostgresStorage) fetchURLMappings(ctx context.Context) ([]models.URLMapping, error) {
	query := `
		SELECT category_id, pattern
		FROM url_mappings
		ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying url mappings: %v", err)
	}
	defer rows.Close()

	return foldMappingRows(rows, func(categoryID models.CategoryID, patterns []string) models.URLMapping {
		return models.URLMapping{CategoryID: categoryID, Patterns: patterns}
	})
}

// foldMappingRows groups consecutive rows for the same category into one
// mapping, preserving registration order.
func foldMappingRows[T any](rows *sql.Rows, build func(models.CategoryID, []string) T) ([]T, error) {
	var out []T
	var currentID models.CategoryID
	var patterns []string

	flush := func() {
		if len(patterns) > 0 {
			out = append(out, build(currentID, patterns))
			patterns = nil
		}
	}

	for rows.Next() {
		var categoryID models.CategoryID
		var pattern string
		if err := rows.Scan(&categoryID, &pattern); err != nil {
			return nil, fmt.Errorf("error scanning mapping: %v", err)
		}
		if categoryID != currentID {
			flush()
			currentID = categoryID
		}
		patterns = append(patterns, pattern)
	}
	flush()

	return out, rows.Err()
}

func (s *PostgresStorage) ListActivities(ctx context.Context, from, to time.Time) ([]models.ActivityInterval, error) {
	query := `
		SELECT id, start_time, end_time, app_name, url
		FROM activities
		WHERE start_time < $2 AND (end_time IS NULL OR end_time > $1)
		ORDER BY start_time`

	rows, err := s.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("error querying activities: %v", err)
	}
	defer rows.Close()

	var activities []models.ActivityInterval
	for rows.Next() {
		var a models.ActivityInterval
		var end sql.NullTime
		var url sql.NullString
		if err := rows.Scan(&a.ID, &a.Start, &end, &a.AppName, &url); err != nil {
			return nil, fmt.Errorf("error scanning activity: %v", err)
		}
		if end.Valid {
			e := end.Time
			a.End = &e
		}
		a.URL = url.String
		activities = append(activities, a)
	}

	return activities, rows.Err()
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
