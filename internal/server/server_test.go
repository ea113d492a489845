package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundayezeilo/linkshort/internal/config"
	"github.com/sundayezeilo/linkshort/internal/registry"
	"github.com/sundayezeilo/linkshort/internal/shortener"
)

var hexCode = regexp.MustCompile(`^[0-9a-f]{6}$`)

type testEnv struct {
	server    *httptest.Server
	storePath string
	assetsDir string
}

func testConfig(assetsDir string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            "0",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    5 * time.Second,
			IdleTimeout:     5 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			AssetsDir:       assetsDir,
		},
		Store:   config.StoreConfig{Driver: config.DriverFile},
		App:     config.AppConfig{Environment: "test", LogLevel: "error"},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

// setupTestServer wires a file store in a temp dir behind the full middleware chain.
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	assetsDir := filepath.Join(dir, "public")
	require.NoError(t, os.MkdirAll(assetsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(assetsDir, "index.html"), []byte("<h1>links</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(assetsDir, "style.css"), []byte("body{margin:0}"), 0o644))

	storePath := filepath.Join(dir, "data", "links.json")
	store, err := registry.NewFileStore(storePath)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := shortener.NewService(registry.Instrument(store, "file-test"), nil)
	handler := shortener.NewHandler(shortener.HandlerConfig{Service: svc, Logger: logger})

	ts := httptest.NewServer(New(testConfig(assetsDir), logger, handler).Handler())
	t.Cleanup(ts.Close)

	return &testEnv{server: ts, storePath: storePath, assetsDir: assetsDir}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*http.Response, string) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(data)
}

func (e *testEnv) links(t *testing.T) map[string]string {
	t.Helper()

	resp, body := e.do(t, http.MethodGet, "/links", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	return out
}

func TestFreshDeploymentListsEmptyRegistry(t *testing.T) {
	env := setupTestServer(t)

	_, err := os.Stat(env.storePath)
	require.True(t, os.IsNotExist(err), "store file should not exist before first access")

	resp, body := env.do(t, http.MethodGet, "/links", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{}`, body)

	data, err := os.ReadFile(env.storePath)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestShortenGeneratedCode(t *testing.T) {
	env := setupTestServer(t)

	resp, body := env.do(t, http.MethodPost, "/shorten", `{"url":"https://example.com"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var out shortener.ShortenResponse
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.True(t, out.Success)
	assert.Regexp(t, hexCode, out.ShortCode)

	assert.Equal(t, map[string]string{out.ShortCode: "https://example.com"}, env.links(t))
}

func TestShortenCustomCode(t *testing.T) {
	env := setupTestServer(t)

	resp, body := env.do(t, http.MethodPost, "/shorten", `{"url":"https://a.com","shortCode":"abc123"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"success":true,"shortCode":"abc123"}`, body)

	assert.Equal(t, map[string]string{"abc123": "https://a.com"}, env.links(t))
}

func TestShortenCodeInUse(t *testing.T) {
	env := setupTestServer(t)
	require.NoError(t, os.WriteFile(env.storePath, []byte(`{"abc123":"https://a.com"}`), 0o644))

	resp, body := env.do(t, http.MethodPost, "/shorten", `{"url":"https://b.com","shortCode":"abc123"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "text/plain", resp.Header.Get("Content-Type"))
	assert.Equal(t, "Short code already in use. Please choose another one.", body)

	assert.Equal(t, map[string]string{"abc123": "https://a.com"}, env.links(t))
}

func TestShortenURLRequired(t *testing.T) {
	env := setupTestServer(t)

	for _, payload := range []string{`{}`, `{"url":""}`, `{"shortCode":"xyz"}`} {
		t.Run(payload, func(t *testing.T) {
			resp, body := env.do(t, http.MethodPost, "/shorten", payload)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, "Bad Request: URL is required", body)
			assert.Empty(t, env.links(t))
		})
	}
}

func TestShortenMalformedJSON(t *testing.T) {
	env := setupTestServer(t)

	resp, body := env.do(t, http.MethodPost, "/shorten", `{"url":"https://example.com"`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Bad Request: Invalid JSON body", body)

	// the server keeps serving
	resp, _ = env.do(t, http.MethodGet, "/links", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListLinksIsIdempotent(t *testing.T) {
	env := setupTestServer(t)

	env.do(t, http.MethodPost, "/shorten", `{"url":"https://a.com"}`)
	env.do(t, http.MethodPost, "/shorten", `{"url":"https://b.com","shortCode":"b"}`)

	_, first := env.do(t, http.MethodGet, "/links", "")
	_, second := env.do(t, http.MethodGet, "/links", "")
	assert.Equal(t, first, second)
}

func TestCorruptRegistry(t *testing.T) {
	env := setupTestServer(t)
	require.NoError(t, os.WriteFile(env.storePath, []byte(`{"abc":`), 0o644))

	resp, body := env.do(t, http.MethodGet, "/links", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Internal Server Error", body)

	resp, _ = env.do(t, http.MethodPost, "/shorten", `{"url":"https://a.com"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	data, err := os.ReadFile(env.storePath)
	require.NoError(t, err)
	assert.Equal(t, `{"abc":`, string(data), "corrupt file must not be repaired")

	resp, body = env.do(t, http.MethodGet, "/x/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.JSONEq(t, `{"status":"unavailable"}`, body)
}

func TestConcurrentShortenKeepsEveryLink(t *testing.T) {
	env := setupTestServer(t)

	const n = 25
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			payload := `{"url":"https://example.com/` + string(rune('a'+i)) + `"}`
			resp, _ := env.do(t, http.MethodPost, "/shorten", payload)
			if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusBadRequest {
				t.Errorf("unexpected status %d", resp.StatusCode)
			}
		}()
	}
	wg.Wait()

	// a random collision is rejected, never silently dropped
	links := env.links(t)
	assert.LessOrEqual(t, len(links), n)
	assert.GreaterOrEqual(t, len(links), n-1)
}

func TestStaticAssets(t *testing.T) {
	env := setupTestServer(t)

	tests := []struct {
		path     string
		wantType string
		wantBody string
	}{
		{"/", "text/html", "<h1>links</h1>"},
		{"/style.css", "text/css", "body{margin:0}"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := env.do(t, http.MethodGet, tt.path, "")
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.wantType, resp.Header.Get("Content-Type"))
			assert.Equal(t, tt.wantBody, body)
		})
	}

	t.Run("missing asset", func(t *testing.T) {
		require.NoError(t, os.Remove(filepath.Join(env.assetsDir, "style.css")))

		resp, body := env.do(t, http.MethodGet, "/style.css", "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "text/plain", resp.Header.Get("Content-Type"))
		assert.Equal(t, "404 Not Found", body)
	})
}

func TestUnmatchedRoutes(t *testing.T) {
	env := setupTestServer(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/abc123"},
		{http.MethodGet, "/links/extra"},
		{http.MethodPost, "/links"},
		{http.MethodGet, "/shorten"},
		{http.MethodDelete, "/"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp, body := env.do(t, tt.method, tt.path, "")
			assert.Equal(t, http.StatusNotFound, resp.StatusCode)
			assert.Equal(t, "404 Not Found", body)
		})
	}
}

func TestAmbientEndpoints(t *testing.T) {
	env := setupTestServer(t)

	t.Run("health", func(t *testing.T) {
		resp, body := env.do(t, http.MethodGet, "/x/health", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"status":"ok"}`, body)
	})

	t.Run("metrics", func(t *testing.T) {
		env.do(t, http.MethodGet, "/links", "")

		resp, body := env.do(t, http.MethodGet, "/metrics", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "http_requests_total")
		assert.Contains(t, body, `route="GET /links"`)
	})

	t.Run("preflight", func(t *testing.T) {
		resp, _ := env.do(t, http.MethodOptions, "/shorten", "")
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	})

	t.Run("request id", func(t *testing.T) {
		resp, _ := env.do(t, http.MethodGet, "/links", "")
		assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	})
}

func TestMetricsDisabled(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Metrics.Enabled = false

	store, err := registry.NewFileStore(filepath.Join(t.TempDir(), "links.json"))
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := shortener.NewHandler(shortener.HandlerConfig{Service: shortener.NewService(store, nil), Logger: logger})

	rec := httptest.NewRecorder()
	New(cfg, logger, handler).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStart(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := shortener.NewHandler(shortener.HandlerConfig{Service: shortener.NewService(nil, nil), Logger: logger})

	t.Run("stops when context is cancelled", func(t *testing.T) {
		srv := New(testConfig(t.TempDir()), logger, handler)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- srv.Start(ctx) }()

		time.Sleep(50 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("Start() did not return after cancel")
		}
	})

	t.Run("fails on bad address", func(t *testing.T) {
		cfg := testConfig(t.TempDir())
		cfg.Server.Port = "-1"

		err := New(cfg, logger, handler).Start(context.Background())
		assert.Error(t, err)
	})
}

func TestShutdownBeforeStart(t *testing.T) {
	srv := New(testConfig(t.TempDir()), slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	assert.NoError(t, srv.Shutdown(context.Background()))
}
