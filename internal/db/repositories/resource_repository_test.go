package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

var resourceTestColumns = []string{
	"id", "name", "tag", "contributors", "likes",
	"file_type", "file_size", "file_size_unit", "file_url", "file_external_url",
	"tested_versions", "links", "rating_average", "rating_count",
	"release_date", "update_date", "downloads", "external",
	"icon_url", "icon_data", "premium", "price", "currency",
	"author_id", "category_id", "version_id", "version_uuid",
}

func newResourceRepo(t *testing.T) (*ResourceRepository, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	sqlxDB := sqlx.NewDb(mockDB, "sqlmock")
	t.Cleanup(func() { sqlxDB.Close() })
	return NewResourceRepository(sqlxDB), mock
}

// resourceRow builds a full mock row for a resource with the given id.
func resourceRow(rows *sqlmock.Rows, id int64, name string, premium bool) *sqlmock.Rows {
	return rows.AddRow(
		id, name, "a plugin", "", 5,
		".jar", 1.2, "MB", "resources/plugin.1.jar", nil,
		"{1.8,1.9}", []byte(`{"discord":"https://example.com"}`), 4.5, 12,
		1500000000, 1600000000, 12345, false,
		"data/icon.png", nil, premium, 0.0, nil,
		77, 4, 900, "11111111-2222-3333-4444-555555555555",
	)
}

func TestResourceRepository_List_All(t *testing.T) {
	repo, mock := newResourceRepo(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM resources`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	rows := sqlmock.NewRows(resourceTestColumns)
	rows = resourceRow(rows, 1, "EssentialsX", false)
	rows = resourceRow(rows, 2, "WorldEdit", false)
	mock.ExpectQuery(`SELECT (.+) FROM resources ORDER BY id ASC LIMIT \$1 OFFSET \$2`).
		WithArgs(10, 0).
		WillReturnRows(rows)

	resources, total, err := repo.List(context.Background(), ResourceFilter{Kind: FilterAll}, "id ASC", 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 || len(resources) != 2 {
		t.Fatalf("total=%d len=%d, want 2/2", total, len(resources))
	}
	if resources[0].Name != "EssentialsX" {
		t.Errorf("name = %q", resources[0].Name)
	}
	if len(resources[0].TestedVersions) != 2 || resources[0].TestedVersions[0] != "1.8" {
		t.Errorf("testedVersions = %v", resources[0].TestedVersions)
	}
	if resources[0].Author.ID != 77 {
		t.Errorf("author id = %d", resources[0].Author.ID)
	}
	if resources[0].Version.UUID != "11111111-2222-3333-4444-555555555555" {
		t.Errorf("version uuid = %q", resources[0].Version.UUID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestResourceRepository_List_Premium(t *testing.T) {
	repo, mock := newResourceRepo(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM resources WHERE premium = TRUE`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	rows := resourceRow(sqlmock.NewRows(resourceTestColumns), 3, "PremiumPlugin", true)
	mock.ExpectQuery(`SELECT (.+) FROM resources WHERE premium = TRUE ORDER BY downloads DESC LIMIT \$1 OFFSET \$2`).
		WithArgs(10, 0).
		WillReturnRows(rows)

	resources, total, err := repo.List(context.Background(), ResourceFilter{Kind: FilterPremium}, "downloads DESC", 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || !resources[0].Premium {
		t.Errorf("total=%d premium=%v", total, resources[0].Premium)
	}
}

func TestResourceRepository_List_RecentUpdates(t *testing.T) {
	repo, mock := newResourceRepo(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM resources WHERE update_date > \$1`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT (.+) FROM resources WHERE update_date > \$1 ORDER BY update_date DESC LIMIT \$2 OFFSET \$3`).
		WithArgs(sqlmock.AnyArg(), 10, 0).
		WillReturnRows(sqlmock.NewRows(resourceTestColumns))

	resources, total, err := repo.List(context.Background(), ResourceFilter{Kind: FilterRecentUpdates}, "update_date DESC", 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 0 || len(resources) != 0 {
		t.Errorf("total=%d len=%d, want empty", total, len(resources))
	}
}

func TestResourceRepository_List_ForVersions(t *testing.T) {
	repo, mock := newResourceRepo(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM resources WHERE tested_versions && \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	rows := resourceRow(sqlmock.NewRows(resourceTestColumns), 1, "EssentialsX", false)
	mock.ExpectQuery(`SELECT (.+) FROM resources WHERE tested_versions && \$1 ORDER BY id ASC LIMIT \$2 OFFSET \$3`).
		WillReturnRows(rows)

	filter := ResourceFilter{Kind: FilterForVersions, Versions: []string{"1.8"}, Mode: MatchAny}
	_, total, err := repo.List(context.Background(), filter, "id ASC", 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 {
		t.Errorf("total = %d", total)
	}
}

func TestResourceRepository_List_UnknownVersionMode(t *testing.T) {
	repo, _ := newResourceRepo(t)

	filter := ResourceFilter{Kind: FilterForVersions, Versions: []string{"1.8"}, Mode: "some"}
	if _, _, err := repo.List(context.Background(), filter, "id ASC", 10, 0); err == nil {
		t.Error("expected error for unknown match mode")
	}
}

func TestResourceRepository_GetByID(t *testing.T) {
	repo, mock := newResourceRepo(t)

	rows := resourceRow(sqlmock.NewRows(resourceTestColumns), 42, "EssentialsX", false)
	mock.ExpectQuery(`SELECT (.+) FROM resources WHERE id = \$1`).
		WithArgs(int64(42)).
		WillReturnRows(rows)

	resource, err := repo.GetByID(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if resource == nil || resource.ID != 42 {
		t.Fatalf("resource = %+v", resource)
	}
	if resource.File.Type != ".jar" {
		t.Errorf("file type = %q", resource.File.Type)
	}
}

func TestResourceRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newResourceRepo(t)

	mock.ExpectQuery(`SELECT (.+) FROM resources WHERE id = \$1`).
		WithArgs(int64(9999)).
		WillReturnRows(sqlmock.NewRows(resourceTestColumns))

	resource, err := repo.GetByID(context.Background(), 9999)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if resource != nil {
		t.Errorf("expected nil for missing resource, got %+v", resource)
	}
}

func TestResourceRepository_GetByID_DBError(t *testing.T) {
	repo, mock := newResourceRepo(t)

	mock.ExpectQuery(`SELECT (.+) FROM resources WHERE id = \$1`).
		WillReturnError(errors.New("connection refused"))

	if _, err := repo.GetByID(context.Background(), 1); err == nil {
		t.Error("expected error to propagate")
	}
}
