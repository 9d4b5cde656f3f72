package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ridesg/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LandmarkRepository persists search results as landmark rows. It is the
// backing store for the cache side of the search fan-out.
type LandmarkRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewLandmarkRepository creates a new landmark repository
func NewLandmarkRepository(config *RepositoryConfig) *LandmarkRepository {
	return &LandmarkRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Search returns cached landmarks whose title or description matches the
// query. Rows keep whatever source they were stored with; the cache client
// re-tags them on read.
func (r *LandmarkRepository) Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	if limit <= 0 {
		limit = 25
	}

	sql := fmt.Sprintf(`
		SELECT id, title, description, latitude, longitude, address, url, source, created_at
		FROM %s
		WHERE title ILIKE '%%' || $1 || '%%' OR description ILIKE '%%' || $1 || '%%'
		ORDER BY created_at DESC
		LIMIT $2
	`, r.tables.Landmarks)

	rows, err := r.pool.Query(ctx, sql, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search landmarks: %w", err)
	}
	defer rows.Close()

	var results []domain.SearchResult
	for rows.Next() {
		var (
			res          domain.SearchResult
			address, url *string
			createdAt    time.Time
		)
		if err := rows.Scan(
			&res.ID,
			&res.Title,
			&res.Description,
			&res.Location.Latitude,
			&res.Location.Longitude,
			&address,
			&url,
			&res.Source,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan landmark: %w", err)
		}

		if address != nil {
			res.Address = *address
		}
		if url != nil {
			res.URL = *url
		}
		res.Timestamp = createdAt.UnixMilli()

		results = append(results, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate landmarks: %w", err)
	}

	return results, nil
}

// Save inserts a result as a landmark row and returns the stored ID.
// A row at the same title and coordinates is treated as already saved.
func (r *LandmarkRepository) Save(ctx context.Context, res *domain.SearchResult) (string, error) {
	if err := res.Validate(); err != nil {
		return "", fmt.Errorf("invalid landmark: %w", err)
	}

	sql := fmt.Sprintf(`
		INSERT INTO %s (id, title, description, latitude, longitude, address, url, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, r.tables.Landmarks)

	id := uuid.NewString()
	var address, url *string
	if res.Address != "" {
		address = &res.Address
	}
	if res.URL != "" {
		url = &res.URL
	}

	createdAt := time.Now()
	if res.Timestamp > 0 {
		createdAt = time.UnixMilli(res.Timestamp)
	}

	err := r.pool.QueryRow(ctx, sql,
		id,
		res.Title,
		res.Description,
		res.Location.Latitude,
		res.Location.Longitude,
		address,
		url,
		res.Source,
		createdAt,
	).Scan(&id)

	if err != nil {
		if IsPgDuplicateError(err) {
			r.logger.Debug("landmark already cached", "title", res.Title)
			return "", nil
		}
		return "", fmt.Errorf("save landmark: %w", err)
	}

	return id, nil
}
