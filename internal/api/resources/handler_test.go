package resources

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/spiget/spiget-api/internal/cache"
	"github.com/spiget/spiget-api/internal/config"
	"github.com/spiget/spiget-api/internal/db/repositories"
	"github.com/spiget/spiget-api/internal/upstream"
)

var resourceTestColumns = []string{
	"id", "name", "tag", "contributors", "likes",
	"file_type", "file_size", "file_size_unit", "file_url", "file_external_url",
	"tested_versions", "links", "rating_average", "rating_count",
	"release_date", "update_date", "downloads", "external",
	"icon_url", "icon_data", "premium", "price", "currency",
	"author_id", "category_id", "version_id", "version_uuid",
}

var versionTestColumns = []string{
	"id", "uuid", "resource_id", "name", "release_date", "downloads",
	"rating_average", "rating_count",
}

var updateRequestTestColumns = []string{
	"id", "type", "requested_id", "versions", "updates", "reviews", "delete_old", "requested_at",
}

type testEnv struct {
	router *gin.Engine
	mock   sqlmock.Sqlmock
	cfg    *config.Config
}

// envOption tweaks the test configuration before the handler is built.
type envOption func(*config.Config)

func asMirror(masterURL string) envOption {
	return func(cfg *config.Config) {
		cfg.Server.Mode = config.ModeMirror
		cfg.Server.MasterURL = masterURL
	}
}

func withOriginAPI(apiURL string) envOption {
	return func(cfg *config.Config) { cfg.Upstream.APIURL = apiURL }
}

func withOriginSite(siteURL string) envOption {
	return func(cfg *config.Config) { cfg.Upstream.SiteURL = siteURL }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(mockDB, "sqlmock")
	t.Cleanup(func() { sqlxDB.Close() })

	cfg := &config.Config{}
	cfg.Server.Mode = config.ModeMaster
	cfg.Server.UserAgent = "spiget-api-test"
	cfg.Pagination.DefaultSize = 10
	cfg.Pagination.MaxSize = 100
	cfg.Upstream.SiteURL = "https://market.test"
	// Unreachable by default so enrichment fails fast and silently.
	cfg.Upstream.APIURL = "http://127.0.0.1:1"
	cfg.Upstream.CDNURL = "https://cdn.test/files"
	cfg.Upstream.RequestTimeout = 100 * time.Millisecond
	cfg.Upstream.DownloadTimeout = 2 * time.Second
	for _, opt := range opts {
		opt(cfg)
	}

	handler := NewHandler(cfg,
		repositories.NewResourceRepository(sqlxDB),
		repositories.NewAuthorRepository(sqlxDB),
		repositories.NewReviewRepository(sqlxDB),
		repositories.NewUpdateRepository(sqlxDB),
		repositories.NewVersionRepository(sqlxDB),
		repositories.NewUpdateRequestRepository(sqlxDB),
		upstream.NewClient(cfg.Upstream, cfg.Server.UserAgent),
		cache.NewNoop(),
	)

	router := gin.New()
	handler.Register(router.Group("/resources"))
	return &testEnv{router: router, mock: mock, cfg: cfg}
}

func (e *testEnv) do(method, path string, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	e.router.ServeHTTP(w, req)
	return w
}

// expectResourceByID queues the GetByID query for one full resource row.
func (e *testEnv) expectResourceByID(id int64, external bool, externalURL interface{}) {
	rows := sqlmock.NewRows(resourceTestColumns).AddRow(
		id, "EssentialsX", "the essentials", "", 5,
		".jar", 1.2, "MB", "resources/essentials.1.jar", externalURL,
		"{1.8,1.9}", []byte(`{}`), 4.5, 12,
		1500000000, 1600000000, 12345, external,
		"data/resource_icons/1/1.png", nil, false, 0.0, nil,
		77, 4, 900, "11111111-2222-3333-4444-555555555555",
	)
	e.mock.ExpectQuery(`SELECT (.+) FROM resources WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(rows)
}

func (e *testEnv) expectResourceMissing(id int64) {
	e.mock.ExpectQuery(`SELECT (.+) FROM resources WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(resourceTestColumns))
}

func versionEmptyRows() *sqlmock.Rows {
	return sqlmock.NewRows(versionTestColumns)
}

func (e *testEnv) expectLatestVersion(resourceID, versionID int64) {
	rows := sqlmock.NewRows(versionTestColumns).
		AddRow(versionID, "11111111-2222-3333-4444-555555555555", resourceID, "2.19.0", 1600000000, 500, 4.8, 20)
	e.mock.ExpectQuery(`SELECT (.+) FROM resource_versions WHERE resource_id = \$1 ORDER BY release_date DESC LIMIT 1`).
		WithArgs(resourceID).
		WillReturnRows(rows)
}
