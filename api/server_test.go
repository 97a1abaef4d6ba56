package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Amar2502/portfolio-backend/database"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newSQLiteDatabase(t *testing.T) database.Database {
	t.Helper()

	c := map[string]string{
		"DB_TYPE":       "sqlite",
		"DATABASE_PATH": fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	}
	handle := database.NewHandle(database.OpenGorm(c), 5*time.Second)

	db, err := handle.Get(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return database.NewGorm(handle, time.Second)
}

// newUnopenedDatabase never dials until a request needs it.
func newUnopenedDatabase() database.Database {
	handle := database.NewHandle[*gorm.DB](func(ctx context.Context) (*gorm.DB, error) {
		return nil, fmt.Errorf("dial tcp 10.0.0.7:5432: connection refused")
	}, time.Second)
	return database.NewGorm(handle, time.Second)
}

func newTestRouter(t *testing.T, db database.Database, svc Services, c map[string]string) *chi.Mux {
	t.Helper()
	return newRouter(db, svc, withConfig(c), withRequestLogging(false))
}

type testResponse struct {
	status int
	header http.Header
	body   []byte
}

func (r testResponse) decode(t *testing.T, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.body, dst), string(r.body))
}

func (r testResponse) errorBody(t *testing.T) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	r.decode(t, &body)
	return body
}

func do(t *testing.T, h http.Handler, method, path string, body any, headers ...string) testResponse {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return testResponse{status: rec.Code, header: rec.Header(), body: rec.Body.Bytes()}
}

func TestHealthReportsLazyDatabase(t *testing.T) {
	router := newTestRouter(t, newUnopenedDatabase(), Services{}, nil)

	res := do(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, res.status)

	var health HealthResponse
	res.decode(t, &health)
	assert.Equal(t, "starting", health.Status)
	assert.Equal(t, "sqlite", health.Database.Type)
	assert.False(t, health.Database.Connected)
	assert.GreaterOrEqual(t, health.UptimeSeconds, int64(0))
}

func TestHealthAfterConnect(t *testing.T) {
	router := newTestRouter(t, newSQLiteDatabase(t), Services{}, nil)

	var health HealthResponse
	do(t, router, http.MethodGet, "/health", nil).decode(t, &health)
	assert.Equal(t, "ok", health.Status)
	assert.True(t, health.Database.Connected)
}

func TestResponsesAreJSON(t *testing.T) {
	router := newTestRouter(t, newUnopenedDatabase(), Services{}, nil)

	res := do(t, router, http.MethodGet, "/health", nil, "X-Request-Id", "req-42")
	assert.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "application/json; charset=utf-8", res.header.Get("Content-Type"))
}

func TestCORS(t *testing.T) {
	router := newTestRouter(t, newUnopenedDatabase(), Services{}, map[string]string{
		"ACCEPTED_ORIGINS": "https://site.example, https://admin.example",
	})

	t.Run("allowed preflight", func(t *testing.T) {
		res := do(t, router, http.MethodOptions, "/posts", nil,
			"Origin", "https://admin.example",
			"Access-Control-Request-Method", http.MethodPost,
		)
		assert.Contains(t, []int{http.StatusOK, http.StatusNoContent}, res.status)
		assert.Equal(t, "https://admin.example", res.header.Get("Access-Control-Allow-Origin"))
	})

	t.Run("blocked preflight", func(t *testing.T) {
		res := do(t, router, http.MethodOptions, "/posts", nil,
			"Origin", "https://evil.example",
			"Access-Control-Request-Method", http.MethodPost,
		)
		assert.Equal(t, http.StatusForbidden, res.status)
		assert.Equal(t, "request blocked by CORS policy", res.errorBody(t).Error)
	})

	t.Run("simple request from allowed origin", func(t *testing.T) {
		res := do(t, router, http.MethodGet, "/health", nil, "Origin", "https://site.example")
		assert.Equal(t, http.StatusOK, res.status)
		assert.Equal(t, "https://site.example", res.header.Get("Access-Control-Allow-Origin"))
		assert.Empty(t, res.header.Get("Access-Control-Allow-Credentials"))
	})

	t.Run("default origins never allow credentials", func(t *testing.T) {
		open := newTestRouter(t, newUnopenedDatabase(), Services{}, nil)

		res := do(t, open, http.MethodOptions, "/posts", nil,
			"Origin", "https://anywhere.example",
			"Access-Control-Request-Method", http.MethodPost,
			"Access-Control-Request-Headers", "Authorization",
		)
		assert.Contains(t, []int{http.StatusOK, http.StatusNoContent}, res.status)
		assert.NotEmpty(t, res.header.Get("Access-Control-Allow-Origin"))
		assert.Empty(t, res.header.Get("Access-Control-Allow-Credentials"))

		res = do(t, open, http.MethodGet, "/health", nil, "Origin", "https://anywhere.example")
		assert.Empty(t, res.header.Get("Access-Control-Allow-Credentials"))
	})
}

func TestPanicBecomesJSON500(t *testing.T) {
	handler := LogInternalServerErrors(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	res := do(t, handler, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusInternalServerError, res.status)

	body := res.errorBody(t)
	assert.Equal(t, "internal server error", body.Error)
	assert.NotContains(t, string(res.body), "boom")
}

func TestUnknownRouteIs404(t *testing.T) {
	router := newTestRouter(t, newUnopenedDatabase(), Services{}, nil)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/nope", nil).status)
}
