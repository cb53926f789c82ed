package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/go-github/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/oggyb/roomate/internal/api"
	"github.com/oggyb/roomate/internal/app"
	"github.com/oggyb/roomate/internal/auth"
	"github.com/oggyb/roomate/internal/bugreport"
	"github.com/oggyb/roomate/internal/cache"
	"github.com/oggyb/roomate/internal/config"
	"github.com/oggyb/roomate/internal/db"
	"github.com/oggyb/roomate/internal/logger"
	"github.com/oggyb/roomate/internal/notify"
	"github.com/oggyb/roomate/internal/service/match"
)

const (
	secret    = "api-test-secret"
	appOrigin = "http://localhost:3000"
)

type testAPI struct {
	router *gin.Engine
	db     *gorm.DB
}

func setupAPI(t *testing.T, reporter *bugreport.Reporter) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?_busy_timeout=10000&_txlock=immediate&_foreign_keys=1",
		filepath.Join(t.TempDir(), "api.db"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(gdb))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := config.New()
	cfg.App.ENV = "development"
	cfg.App.URL = appOrigin
	cfg.Redis.Addr = mr.Addr()
	cfg.Auth.JWTSecret = secret

	svc := match.NewService(app.New(gdb, cache.NewRedisCache(cfg), notify.Nop{}, logger.Discard()))
	t.Cleanup(svc.Wait)

	if reporter == nil {
		reporter = bugreport.New("", "", "")
	}
	return &testAPI{router: api.NewRouter(cfg, svc, reporter, logger.Discard()), db: gdb}
}

func (a *testAPI) do(t *testing.T, method, path, userID string, body any) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		token, err := auth.GenerateToken(userID, userID+"@uw.edu", secret, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

func profileBody(name string) map[string]any {
	return map[string]any{"name": name, "age": 21, "location": "U District, Seattle"}
}

func TestHealthIsPublic(t *testing.T) {
	a := setupAPI(t, nil)
	code, body := a.do(t, http.MethodGet, "/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])

	code, _ = a.do(t, http.MethodGet, "/v1/matches", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestCORSPreflight(t *testing.T) {
	a := setupAPI(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/v1/swipes", nil)
	req.Header.Set("Origin", appOrigin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, appOrigin, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestProfileEndpoints(t *testing.T) {
	a := setupAPI(t, nil)

	code, body := a.do(t, http.MethodGet, "/v1/profile", "a", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Nil(t, body["profile"])

	code, body = a.do(t, http.MethodPut, "/v1/profile", "a", map[string]any{"name": "Ana", "age": 12, "location": "x"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["error"], "age")

	code, body = a.do(t, http.MethodPut, "/v1/profile", "a", profileBody("Ana"))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Ana", body["profile"].(map[string]any)["name"])

	code, body = a.do(t, http.MethodGet, "/v1/profile", "a", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "a", body["profile"].(map[string]any)["user_id"])
}

func TestCandidatesEndpoint(t *testing.T) {
	a := setupAPI(t, nil)
	for _, u := range []string{"me", "b", "c"} {
		code, _ := a.do(t, http.MethodPut, "/v1/profile", u, profileBody("user "+u))
		require.Equal(t, http.StatusOK, code)
	}

	code, body := a.do(t, http.MethodGet, "/v1/profiles?limit=1", "me", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2), body["total"])
	assert.Equal(t, float64(1), body["limit"])
	assert.Len(t, body["profiles"], 1)

	code, _ = a.do(t, http.MethodGet, "/v1/profiles?max_price=cheap", "me", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = a.do(t, http.MethodGet, "/v1/profiles?page=x", "me", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid page parameter", body["error"])

	code, _ = a.do(t, http.MethodGet, "/v1/profiles?gender=robot", "me", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSwipeEndpoints(t *testing.T) {
	a := setupAPI(t, nil)
	code, _ := a.do(t, http.MethodPut, "/v1/profile", "b", profileBody("Bea"))
	require.Equal(t, http.StatusOK, code)

	code, _ = a.do(t, http.MethodPost, "/v1/swipes", "a", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = a.do(t, http.MethodPost, "/v1/swipes", "a", map[string]any{"swiped_id": "a", "action": "pass"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body := a.do(t, http.MethodPost, "/v1/swipes", "a", map[string]any{"swiped_id": "b", "action": "pass"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, false, body["matched"])
	assert.NotContains(t, body, "match_id")

	code, _ = a.do(t, http.MethodPost, "/v1/swipes", "a", map[string]any{"swiped_id": "b", "action": "interested"})
	assert.Equal(t, http.StatusConflict, code)

	code, body = a.do(t, http.MethodGet, "/v1/swipes/passed", "a", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["profiles"], 1)

	code, _ = a.do(t, http.MethodPost, "/v1/swipes", "b", map[string]any{"swiped_id": "a", "action": "interested"})
	require.Equal(t, http.StatusOK, code)

	code, body = a.do(t, http.MethodPost, "/v1/swipes/b/reconsider", "a", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["matched"])
	assert.NotEmpty(t, body["match_id"])

	code, _ = a.do(t, http.MethodDelete, "/v1/swipes/b", "a", nil)
	assert.Equal(t, http.StatusOK, code)
	code, body = a.do(t, http.MethodGet, "/v1/swipes/passed", "a", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["profiles"])
}

func TestMatchAndMessageEndpoints(t *testing.T) {
	a := setupAPI(t, nil)

	_, _ = a.do(t, http.MethodPost, "/v1/swipes", "a", map[string]any{"swiped_id": "b", "action": "interested"})
	code, body := a.do(t, http.MethodPost, "/v1/swipes", "b", map[string]any{"swiped_id": "a", "action": "interested"})
	require.Equal(t, http.StatusOK, code)
	matchID := body["match_id"].(string)
	msgPath := "/v1/matches/" + matchID + "/messages"

	code, _ = a.do(t, http.MethodPost, msgPath, "a", map[string]any{"content": "   "})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = a.do(t, http.MethodPost, msgPath, "a", map[string]any{"content": strings.Repeat("x", 1001)})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = a.do(t, http.MethodPost, msgPath, "stranger", map[string]any{"content": "hi"})
	assert.Equal(t, http.StatusNotFound, code)

	for i := 0; i < match.MessageLimit; i++ {
		code, body = a.do(t, http.MethodPost, msgPath, "a", map[string]any{"content": fmt.Sprintf(" msg %d ", i)})
		require.Equal(t, http.StatusOK, code)
	}
	assert.Equal(t, "msg 9", body["message"].(map[string]any)["content"])

	code, body = a.do(t, http.MethodPost, msgPath, "a", map[string]any{"content": "eleven"})
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Contains(t, body["error"], "limit")

	code, body = a.do(t, http.MethodGet, msgPath, "b", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["messages"], match.MessageLimit)
	assert.Equal(t, float64(0), body["my_message_count"])
	assert.Equal(t, matchID, body["match"].(map[string]any)["id"])

	code, body = a.do(t, http.MethodGet, "/v1/matches", "a", nil)
	require.Equal(t, http.StatusOK, code)
	matches := body["matches"].([]any)
	require.Len(t, matches, 1)
	summary := matches[0].(map[string]any)
	assert.Equal(t, matchID, summary["id"])
	assert.Equal(t, float64(match.MessageLimit), summary["my_message_count"])
	assert.Equal(t, "msg 9", summary["last_message"].(map[string]any)["content"])

	code, _ = a.do(t, http.MethodDelete, "/v1/matches/"+matchID, "stranger", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, body = a.do(t, http.MethodDelete, "/v1/matches/"+matchID, "b", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])

	code, _ = a.do(t, http.MethodGet, msgPath, "a", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestBugReportEndpoint(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		a := setupAPI(t, nil)
		code, body := a.do(t, http.MethodPost, "/v1/bug-report", "a", map[string]any{"title": "Broken"})
		assert.Equal(t, http.StatusInternalServerError, code)
		assert.Equal(t, "bug reporting is not configured", body["error"])
	})

	t.Run("configured", func(t *testing.T) {
		var gotTitle string
		tracker := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var in struct {
				Title string `json:"title"`
			}
			_ = json.NewDecoder(r.Body).Decode(&in)
			gotTitle = in.Title
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"number": 7, "html_url": "https://github.com/o/r/issues/7"}`))
		}))
		defer tracker.Close()

		client := github.NewClient(nil)
		client.BaseURL, _ = url.Parse(tracker.URL + "/")
		a := setupAPI(t, bugreport.NewWithClient(client, "o", "r"))

		code, _ := a.do(t, http.MethodPost, "/v1/bug-report", "a", map[string]any{"title": " "})
		assert.Equal(t, http.StatusBadRequest, code)

		code, body := a.do(t, http.MethodPost, "/v1/bug-report", "a", map[string]any{"title": "Broken", "description": "steps"})
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "https://github.com/o/r/issues/7", body["issue_url"])
		assert.Equal(t, "[Bug] Broken", gotTitle)
	})
}
