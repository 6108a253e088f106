package resources

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expectNoPending(e *testEnv, id int64) {
	e.mock.ExpectQuery(`SELECT (.+) FROM update_requests WHERE type = \$1 AND requested_id = \$2 LIMIT 1`).
		WithArgs("resource", id).
		WillReturnRows(sqlmock.NewRows(updateRequestTestColumns))
}

func TestRequestUpdate_MirrorDelegates(t *testing.T) {
	e := newTestEnv(t, asMirror("https://api.master.test"))

	w := e.do("POST", "/resources/42/requestUpdate", `{"versions": true}`)

	// 307 keeps the POST method and body across the hop.
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "https://api.master.test/resources/42/requestUpdate", w.Header().Get("Location"))
}

func TestRequestUpdate_InvalidID(t *testing.T) {
	e := newTestEnv(t)

	for _, path := range []string{"/resources/-1/requestUpdate", "/resources/0/requestUpdate", "/resources/abc/requestUpdate"} {
		w := e.do("POST", path, "")
		require.Equal(t, http.StatusBadRequest, w.Code, path)
		assert.JSONEq(t, `{"error":"invalid resource id"}`, w.Body.String(), path)
	}
}

func TestRequestUpdate_Duplicate(t *testing.T) {
	e := newTestEnv(t)
	rows := sqlmock.NewRows(updateRequestTestColumns).
		AddRow(int64(1), "resource", int64(42), true, true, true, true, time.Now())
	e.mock.ExpectQuery(`SELECT (.+) FROM update_requests WHERE type = \$1 AND requested_id = \$2 LIMIT 1`).
		WithArgs("resource", int64(42)).
		WillReturnRows(rows)

	w := e.do("POST", "/resources/42/requestUpdate", "")

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Duplicate Update Request"}`, w.Body.String())
}

func TestRequestUpdate_DefaultsAllFacetsOn(t *testing.T) {
	e := newTestEnv(t)
	expectNoPending(e, 42)
	e.mock.ExpectQuery(`INSERT INTO update_requests`).
		WithArgs("resource", int64(42), true, true, true, true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "requested_at"}).AddRow(int64(9), time.Now()))

	w := e.do("POST", "/resources/42/requestUpdate", "")

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(42), body["resource"])
	for _, facet := range []string{"versions", "updates", "reviews", "delete"} {
		assert.Equal(t, true, body[facet], facet)
	}
}

func TestRequestUpdate_ExplicitFalseOptsOut(t *testing.T) {
	e := newTestEnv(t)
	expectNoPending(e, 42)
	e.mock.ExpectQuery(`INSERT INTO update_requests`).
		WithArgs("resource", int64(42), true, false, false, true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "requested_at"}).AddRow(int64(9), time.Now()))

	w := e.do("POST", "/resources/42/requestUpdate", `{"updates": false, "reviews": false}`)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["versions"])
	assert.Equal(t, false, body["updates"])
	assert.Equal(t, false, body["reviews"], "the reviews facet follows the reviews field, nothing else")
	assert.Equal(t, true, body["delete"])
}

func TestRequestUpdate_NonFalseValuesCountAsTrue(t *testing.T) {
	e := newTestEnv(t)
	expectNoPending(e, 42)
	e.mock.ExpectQuery(`INSERT INTO update_requests`).
		WithArgs("resource", int64(42), true, true, true, true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "requested_at"}).AddRow(int64(9), time.Now()))

	// Malformed facet types are ignored; defaulting stays opt-out.
	w := e.do("POST", "/resources/42/requestUpdate", `{"versions": "yes please"}`)

	require.Equal(t, http.StatusOK, w.Code)
}
