package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/spiget/spiget-api/internal/db/models"
)

const versionColumns = `id, uuid, resource_id, name, release_date, downloads,
	rating_average, rating_count`

// VersionRepository handles published version queries.
type VersionRepository struct {
	db *sqlx.DB
}

// NewVersionRepository creates a new version repository on the given pool.
func NewVersionRepository(db *sqlx.DB) *VersionRepository {
	return &VersionRepository{db: db}
}

// ListForResource returns one page of a resource's versions plus the unpaged
// total. orderBy must come from the sort whitelist.
func (r *VersionRepository) ListForResource(ctx context.Context, resourceID int64, orderBy string, limit, offset int) ([]*models.Version, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM resource_versions WHERE resource_id = $1", resourceID); err != nil {
		return nil, 0, fmt.Errorf("failed to count versions: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT %s FROM resource_versions WHERE resource_id = $1 ORDER BY %s LIMIT $2 OFFSET $3",
		versionColumns, orderBy,
	)

	var rows []models.VersionRow
	if err := r.db.SelectContext(ctx, &rows, query, resourceID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list versions: %w", err)
	}

	versions := make([]*models.Version, 0, len(rows))
	for i := range rows {
		versions = append(versions, rows[i].ToVersion())
	}
	return versions, total, nil
}

// GetByID retrieves one version scoped to its resource. Returns (nil, nil)
// when absent.
func (r *VersionRepository) GetByID(ctx context.Context, resourceID, id int64) (*models.Version, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM resource_versions WHERE resource_id = $1 AND id = $2", versionColumns)

	var row models.VersionRow
	if err := r.db.GetContext(ctx, &row, query, resourceID, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get version: %w", err)
	}
	return row.ToVersion(), nil
}

// GetByToken retrieves one version by its stable token identifier, scoped to
// its resource. Returns (nil, nil) when absent.
func (r *VersionRepository) GetByToken(ctx context.Context, resourceID int64, token string) (*models.Version, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM resource_versions WHERE resource_id = $1 AND uuid = $2", versionColumns)

	var row models.VersionRow
	if err := r.db.GetContext(ctx, &row, query, resourceID, token); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get version by token: %w", err)
	}
	return row.ToVersion(), nil
}

// GetLatest retrieves a resource's newest version by release date. Returns
// (nil, nil) when the resource has none.
func (r *VersionRepository) GetLatest(ctx context.Context, resourceID int64) (*models.Version, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM resource_versions WHERE resource_id = $1 ORDER BY release_date DESC LIMIT 1",
		versionColumns)

	var row models.VersionRow
	if err := r.db.GetContext(ctx, &row, query, resourceID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest version: %w", err)
	}
	return row.ToVersion(), nil
}
