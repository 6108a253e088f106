package resources

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var updateTestColumns = []string{"id", "resource_id", "title", "description", "update_date", "likes"}

var reviewTestColumns = []string{
	"id", "resource_id", "author_id", "rating_average", "rating_count",
	"message", "response_message", "version", "review_date",
}

func TestListReviews(t *testing.T) {
	e := newTestEnv(t)
	e.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM resource_reviews WHERE resource_id = \$1`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	rows := sqlmock.NewRows(reviewTestColumns).
		AddRow(int64(10), int64(42), int64(77), 5.0, 1, "Z3JlYXQgcGx1Z2lu", nil, "2.19.0", int64(1600000000))
	e.mock.ExpectQuery(`SELECT (.+) FROM resource_reviews WHERE resource_id = \$1 ORDER BY review_date DESC`).
		WithArgs(int64(42), 10, 0).
		WillReturnRows(rows)

	w := e.do("GET", "/resources/42/reviews", "")

	require.Equal(t, http.StatusOK, w.Code)
	var body []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "Z3JlYXQgcGx1Z2lu", body[0]["message"], "messages are served base64 encoded")
	assert.Equal(t, float64(42), body[0]["resource"])
}

func TestListUpdates(t *testing.T) {
	e := newTestEnv(t)
	e.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM resource_updates WHERE resource_id = \$1`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	rows := sqlmock.NewRows(updateTestColumns).
		AddRow(int64(500), int64(42), "Bug fixes", "bG90cyBvZiBmaXhlcw==", int64(1600000000), 3)
	e.mock.ExpectQuery(`SELECT (.+) FROM resource_updates WHERE resource_id = \$1 ORDER BY update_date DESC`).
		WithArgs(int64(42), 10, 0).
		WillReturnRows(rows)

	w := e.do("GET", "/resources/42/updates", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-Total-Count"))
}

func TestGetUpdate_Latest(t *testing.T) {
	e := newTestEnv(t)
	rows := sqlmock.NewRows(updateTestColumns).
		AddRow(int64(500), int64(42), "Bug fixes", "bG90cyBvZiBmaXhlcw==", int64(1600000000), 3)
	e.mock.ExpectQuery(`SELECT (.+) FROM resource_updates WHERE resource_id = \$1 ORDER BY update_date DESC LIMIT 1`).
		WithArgs(int64(42)).
		WillReturnRows(rows)

	w := e.do("GET", "/resources/42/updates/latest", "")

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(500), body["id"])
}

func TestGetUpdate_TokenSegmentIsNotFound(t *testing.T) {
	e := newTestEnv(t)

	// Changelog entries have no token identifiers; no store round trip.
	w := e.do("GET", "/resources/42/updates/aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "")

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"update not found"}`, w.Body.String())
}

func TestGetVersion_ByID(t *testing.T) {
	e := newTestEnv(t)
	rows := sqlmock.NewRows(versionTestColumns).
		AddRow(int64(900), "11111111-2222-3333-4444-555555555555", int64(42), "2.19.0", int64(1600000000), 500, 4.8, 20)
	e.mock.ExpectQuery(`SELECT (.+) FROM resource_versions WHERE resource_id = \$1 AND id = \$2`).
		WithArgs(int64(42), int64(900)).
		WillReturnRows(rows)

	w := e.do("GET", "/resources/42/versions/900", "")

	require.Equal(t, http.StatusOK, w.Code)
}

func TestGetVersion_ByToken(t *testing.T) {
	e := newTestEnv(t)
	token := "4c3867d8-7f41-4b13-9b53-b1d5e4f6a0c2"
	rows := sqlmock.NewRows(versionTestColumns).
		AddRow(int64(900), token, int64(42), "2.19.0", int64(1600000000), 500, 4.8, 20)
	e.mock.ExpectQuery(`SELECT (.+) FROM resource_versions WHERE resource_id = \$1 AND uuid = \$2`).
		WithArgs(int64(42), token).
		WillReturnRows(rows)

	w := e.do("GET", "/resources/42/versions/"+token, "")

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, token, body["uuid"])
}

func TestGetVersion_NotFound(t *testing.T) {
	e := newTestEnv(t)
	e.mock.ExpectQuery(`SELECT (.+) FROM resource_versions WHERE resource_id = \$1 AND id = \$2`).
		WithArgs(int64(42), int64(5)).
		WillReturnRows(versionEmptyRows())

	w := e.do("GET", "/resources/42/versions/5", "")

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"version not found"}`, w.Body.String())
}

func TestListVersions(t *testing.T) {
	e := newTestEnv(t)
	e.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM resource_versions WHERE resource_id = \$1`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))
	rows := sqlmock.NewRows(versionTestColumns).
		AddRow(int64(900), "aaaa", int64(42), "2.19.0", int64(1600000000), 500, 4.8, 20)
	e.mock.ExpectQuery(`SELECT (.+) FROM resource_versions WHERE resource_id = \$1 ORDER BY release_date DESC`).
		WithArgs(int64(42), 10, 0).
		WillReturnRows(rows)

	w := e.do("GET", "/resources/42/versions", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "3", w.Header().Get("X-Page-Count"))
	assert.Equal(t, "25", w.Header().Get("X-Total-Count"))
}
