package api_test

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenstack-labs/envmon-controller/db"
	"github.com/greenstack-labs/envmon-controller/internal/api"
	"github.com/greenstack-labs/envmon-controller/internal/model"
)

type fakeController struct {
	level         model.SeverityLevel
	resetRequests int
}

func (c *fakeController) CurrentLevel() model.SeverityLevel {
	return c.level
}

func (c *fakeController) RequestReset() {
	c.resetRequests++
}

func setupServer(t *testing.T) (*api.Server, *sql.DB, *fakeController) {
	t.Helper()

	conn, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	controller := &fakeController{level: model.LevelMultiple}
	server := api.NewServer(conn, controller, api.NewHub())
	return server, conn, controller
}

func insertTicks(t *testing.T, conn *sql.DB, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, db.InsertTick(conn, db.TickRecord{
			Reading:       model.AllNormal(),
			AbnormalCount: 0,
			Level:         model.LevelIdle,
			NextLevel:     model.LevelIdle,
		}))
	}
}

func TestGetStatus(t *testing.T) {
	server, conn, _ := setupServer(t)
	insertTicks(t, conn, 1)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "multiple", resp.Level)
	assert.Equal(t, uint8(2), resp.Raw)
	require.NotNil(t, resp.LastTick)
	assert.Equal(t, "idle", resp.LastTick.LevelName)
}

func TestGetStatus_NoTicksYet(t *testing.T) {
	server, _, _ := setupServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Nil(t, resp.LastTick)
}

func TestGetHistory_Limit(t *testing.T) {
	server, conn, _ := setupServer(t)
	insertTicks(t, conn, 5)

	req := httptest.NewRequest(http.MethodGet, "/api/history?limit=3", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Ticks, 3)
}

func TestGetHistory_InvalidLimit(t *testing.T) {
	server, _, _ := setupServer(t)

	for _, limit := range []string{"0", "-2", "abc"} {
		req := httptest.NewRequest(http.MethodGet, "/api/history?limit="+limit, nil)
		rec := httptest.NewRecorder()
		server.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "limit %q", limit)
	}
}

func TestGetLevelCounts(t *testing.T) {
	server, conn, _ := setupServer(t)
	insertTicks(t, conn, 2)

	req := httptest.NewRequest(http.MethodGet, "/api/levels", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.LevelCountsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Counts["idle"])
}

func TestPostReset(t *testing.T) {
	server, _, controller := setupServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/reset", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 1, controller.resetRequests)
}

func TestCORSPreflight(t *testing.T) {
	server, _, _ := setupServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/status", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHubBroadcast_NoSubscribers(t *testing.T) {
	hub := api.NewHub()
	// must not panic or block without subscribers
	hub.Broadcast(db.TickRecord{NextLevelName: "idle"})
}
