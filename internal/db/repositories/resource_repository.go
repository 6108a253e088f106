// Package repositories contains the data access layer for the catalog. Each
// repository owns the SQL for one entity and returns wire-shaped models.
// Queries select a fixed, known column list; response field filtering happens
// above this layer and never changes what a query can read. A missing row is
// reported as (nil, nil), not an error.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/spiget/spiget-api/internal/db/models"
)

// resourceColumns is the full stored column set for resources, selected by
// every resource query.
const resourceColumns = `id, name, tag, contributors, likes,
	file_type, file_size, file_size_unit, file_url, file_external_url,
	tested_versions, links, rating_average, rating_count,
	release_date, update_date, downloads, external,
	icon_url, icon_data, premium, price, currency,
	author_id, category_id, version_id, version_uuid`

// Resource list filter kinds.
type FilterKind int

const (
	FilterAll FilterKind = iota
	FilterNew
	FilterRecentUpdates
	FilterPremium
	FilterFree
	FilterForVersions
)

// Version match modes for FilterForVersions.
const (
	MatchAny = "any"
	MatchAll = "all"
)

// recentUpdateWindowSeconds bounds the "recently updated" list filter.
const recentUpdateWindowSeconds = 7200

// ResourceFilter selects which resources a List call returns. Versions and
// Mode are only read for FilterForVersions.
type ResourceFilter struct {
	Kind     FilterKind
	Versions []string
	Mode     string
}

// ResourceRepository handles resource catalog queries.
type ResourceRepository struct {
	db *sqlx.DB
}

// NewResourceRepository creates a new resource repository on the given pool.
func NewResourceRepository(db *sqlx.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

// whereClause renders the filter as a WHERE fragment plus bind args. The
// returned fragment is empty for FilterAll.
func (f ResourceFilter) whereClause() (string, []interface{}, error) {
	switch f.Kind {
	case FilterAll:
		return "", nil, nil
	case FilterNew:
		return " WHERE release_date = update_date", nil, nil
	case FilterRecentUpdates:
		cutoff := time.Now().Unix() - recentUpdateWindowSeconds
		return " WHERE update_date > $1", []interface{}{cutoff}, nil
	case FilterPremium:
		return " WHERE premium = TRUE", nil, nil
	case FilterFree:
		return " WHERE premium = FALSE", nil, nil
	case FilterForVersions:
		switch f.Mode {
		case MatchAny:
			return " WHERE tested_versions && $1", []interface{}{pq.Array(f.Versions)}, nil
		case MatchAll:
			return " WHERE tested_versions @> $1", []interface{}{pq.Array(f.Versions)}, nil
		default:
			return "", nil, fmt.Errorf("unknown version match mode: %s", f.Mode)
		}
	default:
		return "", nil, fmt.Errorf("unknown filter kind: %d", f.Kind)
	}
}

// List returns one page of resources matching the filter plus the unpaged
// total. orderBy must come from the sort whitelist; it is interpolated, not
// bound.
func (r *ResourceRepository) List(ctx context.Context, filter ResourceFilter, orderBy string, limit, offset int) ([]*models.Resource, int, error) {
	where, args, err := filter.whereClause()
	if err != nil {
		return nil, 0, err
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM resources" + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count resources: %w", err)
	}

	n := len(args)
	listQuery := fmt.Sprintf(
		"SELECT %s FROM resources%s ORDER BY %s LIMIT $%d OFFSET $%d",
		resourceColumns, where, orderBy, n+1, n+2,
	)
	args = append(args, limit, offset)

	var rows []models.ResourceRow
	if err := r.db.SelectContext(ctx, &rows, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list resources: %w", err)
	}

	resources := make([]*models.Resource, 0, len(rows))
	for i := range rows {
		resources = append(resources, rows[i].ToResource())
	}
	return resources, total, nil
}

// GetByID retrieves a single resource. Returns (nil, nil) when absent.
func (r *ResourceRepository) GetByID(ctx context.Context, id int64) (*models.Resource, error) {
	query := fmt.Sprintf("SELECT %s FROM resources WHERE id = $1", resourceColumns)

	var row models.ResourceRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get resource: %w", err)
	}
	return row.ToResource(), nil
}
