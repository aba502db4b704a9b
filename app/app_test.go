package app

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"content-gateway/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Auth.Provider = config.AuthNone
	cfg.Content.SQLitePath = filepath.Join(t.TempDir(), "content.db")
	cfg.Cache.SweepInterval = 0
	cfg.Rate.MaxRequests = 2
	return cfg
}

func TestInitialize_ServesAPI(t *testing.T) {
	a, cleanup, err := Initialize(testConfig(t))
	require.NoError(t, err)
	t.Cleanup(cleanup)

	srv := httptest.NewServer(a.Server.Handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/posts")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/posts")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestInitialize_AuthNoneRejectsTokens(t *testing.T) {
	a, cleanup, err := Initialize(testConfig(t))
	require.NoError(t, err)
	t.Cleanup(cleanup)

	r := httptest.NewRequest(http.MethodGet, "/api/admin/cache", nil)
	r.Header.Set("Authorization", "Bearer anything")
	w := httptest.NewRecorder()
	a.Server.Handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestInitialize_TokenBucket(t *testing.T) {
	cfg := testConfig(t)
	cfg.Rate.Algorithm = config.AlgorithmTokenBucket
	cfg.Rate.Burst = 1
	cfg.Rate.RPS = 0.5

	a, cleanup, err := Initialize(cfg)
	require.NoError(t, err)
	t.Cleanup(cleanup)

	codes := make([]int, 0, 2)
	for n := 0; n < 2; n++ {
		w := httptest.NewRecorder()
		a.Server.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestInitialize_RejectsUnreachableRedis(t *testing.T) {
	cfg := testConfig(t)
	cfg.Rate.Stats.Enabled = true
	cfg.Rate.Stats.RedisAddr = "127.0.0.1:1"

	_, _, err := Initialize(cfg)
	assert.Error(t, err)
}
