package resources

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetResource_EnrichmentUnreachable(t *testing.T) {
	e := newTestEnv(t)
	e.expectResourceByID(42, false, nil)

	w := e.do("GET", "/resources/42", "")

	// The origin is down; the stored record is served as-is.
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(42), body["id"])
	assert.Equal(t, float64(12345), body["downloads"])
}

func TestGetResource_EnrichmentMergesAndOverwrites(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/resources/42", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"downloads": 99999, "liveField": "fresh"}`))
	}))
	defer origin.Close()

	e := newTestEnv(t, withOriginAPI(origin.URL))
	e.expectResourceByID(42, false, nil)

	w := e.do("GET", "/resources/42", "")

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(99999), body["downloads"], "origin fields overwrite store fields")
	assert.Equal(t, "fresh", body["liveField"])
	assert.Equal(t, "EssentialsX", body["name"], "store fields survive when the origin does not send them")
}

func TestGetResource_NotFound(t *testing.T) {
	e := newTestEnv(t)
	e.expectResourceMissing(9999)

	w := e.do("GET", "/resources/9999", "")

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"resource not found"}`, w.Body.String())
}

func TestGetResource_MalformedID(t *testing.T) {
	e := newTestEnv(t)

	w := e.do("GET", "/resources/not-a-number", "")

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"resource not found"}`, w.Body.String())
}

func TestGoToPage(t *testing.T) {
	e := newTestEnv(t)
	e.expectResourceByID(42, false, nil)

	w := e.do("GET", "/resources/42/go", "")

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://market.test/resources/42", w.Header().Get("Location"))
}

func TestGetAuthor(t *testing.T) {
	e := newTestEnv(t)
	rows := sqlmock.NewRows([]string{"id", "name", "icon_url", "icon_data"}).
		AddRow(int64(77), "md_5", "data/avatars/m/77.jpg", nil)
	e.mock.ExpectQuery(`SELECT (.+) FROM authors a`).
		WithArgs(int64(42)).
		WillReturnRows(rows)

	w := e.do("GET", "/resources/42/author", "")

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "md_5", body["name"])
}

func TestGetAuthor_NotFound(t *testing.T) {
	e := newTestEnv(t)
	e.mock.ExpectQuery(`SELECT (.+) FROM authors a`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "icon_url", "icon_data"}))

	w := e.do("GET", "/resources/42/author", "")

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"author not found"}`, w.Body.String())
}

func TestGetIcon_FallbackImage(t *testing.T) {
	e := newTestEnv(t)
	rows := sqlmock.NewRows(resourceTestColumns).AddRow(
		int64(42), "EssentialsX", nil, nil, 0,
		nil, nil, nil, nil, nil,
		"{}", []byte(`{}`), 0.0, 0,
		0, 0, 0, false,
		nil, nil, false, 0.0, nil,
		nil, nil, nil, nil,
	)
	e.mock.ExpectQuery(`SELECT (.+) FROM resources WHERE id = \$1`).
		WithArgs(int64(42)).
		WillReturnRows(rows)

	w := e.do("GET", "/resources/42/icon", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Body.Bytes())
}

func TestGetIcon_RedirectsToStoredURL(t *testing.T) {
	e := newTestEnv(t)
	e.expectResourceByID(42, false, nil)

	w := e.do("GET", "/resources/42/icon", "")

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://market.test/data/resource_icons/1/1.png", w.Header().Get("Location"))
}
