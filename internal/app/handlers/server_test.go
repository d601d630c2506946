package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thushan/lmsgate/internal/adapter/auth"
	"github.com/thushan/lmsgate/internal/adapter/lmstudio"
	"github.com/thushan/lmsgate/internal/adapter/stats"
	"github.com/thushan/lmsgate/internal/config"
	"github.com/thushan/lmsgate/internal/core/domain"
	"github.com/thushan/lmsgate/internal/logger"
	"github.com/thushan/lmsgate/pkg/nerdstats"
)

const (
	adminKey = "admin-key"
	userKey  = "user-key"
)

// infoDocument has irregular spacing so byte for byte relaying is visible
const infoDocument = `{"id":"%s",  "object":"model","arch":"qwen2","quantization":"Q4_K_M" }`

type fakeLMStudio struct {
	server      *httptest.Server
	lastInfoRaw string
	lastLoad    domain.ModelLoadRequest
	listCalls   atomic.Int64
}

func newFakeLMStudio(t *testing.T) *fakeLMStudio {
	t.Helper()
	f := &fakeLMStudio{}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/models", func(w http.ResponseWriter, r *http.Request) {
		f.listCalls.Add(1)
		_, _ = w.Write([]byte(`{"object":"list","data":[
			{"id":"qwen2.5-7b-instruct","root":"/models/qwen","size_bytes":4683073536},
			{"id":"llama-3.2-1b"}
		]}`))
	})
	mux.HandleFunc("POST /v1/models/load", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&f.lastLoad)
		if f.lastLoad.Model == "missing" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"model not found"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /v1/models/unload", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&f.lastLoad)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /v1/models/{id...}", func(w http.ResponseWriter, r *http.Request) {
		f.lastInfoRaw = r.URL.EscapedPath()
		id := r.PathValue("id")
		if id == "stale" {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		if id == "ghost" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"no such model"}`))
			return
		}
		_, _ = w.Write([]byte(strings.Replace(infoDocument, "%s", id, 1)))
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func newTestApp(t *testing.T, baseURL string, mutate func(*config.Config)) http.Handler {
	t.Helper()
	return newTestApplication(t, baseURL, mutate).Handler()
}

func newTestApplication(t *testing.T, baseURL string, mutate func(*config.Config)) *Application {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.LMStudio.BaseURL = baseURL
	cfg.Server.RequestLogging = false
	cfg.Auth.Keys = []config.APIKeyConfig{
		{Name: "ops", Key: adminKey, Role: "admin"},
		{Name: "reader", Key: userKey, Role: "user"},
	}
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())

	log := logger.NewPlainStyledLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	collector := stats.NewOperationCollector()
	client := lmstudio.NewClient(cfg.LMStudio, collector, log)
	authenticator := auth.NewKeyAuthenticator(cfg.Auth)

	app := NewApplication(cfg, client, authenticator, collector, log)
	t.Cleanup(func() {
		app.rateLimiter.Stop()
		client.Close()
	})
	return app
}

func do(handler http.Handler, method, path, key, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestListModels(t *testing.T) {
	upstream := newFakeLMStudio(t)
	handler := newTestApp(t, upstream.server.URL, nil)

	rec := do(handler, http.MethodGet, "/lmstudio/models", userKey, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Lmsgate-Request-ID"))

	assert.JSONEq(t, `[
		{"id":"qwen2.5-7b-instruct","name":"qwen2.5-7b-instruct","path":"/models/qwen","size":4683073536,"loaded":true,"provider":"lmstudio"},
		{"id":"llama-3.2-1b","name":"llama-3.2-1b","loaded":true,"provider":"lmstudio"}
	]`, rec.Body.String())
}

func TestAuthorisationTiers(t *testing.T) {
	upstream := newFakeLMStudio(t)
	handler := newTestApp(t, upstream.server.URL, nil)

	tests := []struct {
		name   string
		method string
		path   string
		key    string
		body   string
		want   int
	}{
		{"list without key", http.MethodGet, "/lmstudio/models", "", "", http.StatusUnauthorized},
		{"list with bad key", http.MethodGet, "/lmstudio/models", "wrong", "", http.StatusUnauthorized},
		{"list as user", http.MethodGet, "/lmstudio/models", userKey, "", http.StatusOK},
		{"info as user", http.MethodGet, "/lmstudio/models/qwen", userKey, "", http.StatusOK},
		{"load as user", http.MethodPost, "/lmstudio/models/load", userKey, `{"model":"qwen"}`, http.StatusForbidden},
		{"unload as user", http.MethodPost, "/lmstudio/models/unload", userKey, `{"model":"qwen"}`, http.StatusForbidden},
		{"load as admin", http.MethodPost, "/lmstudio/models/load", adminKey, `{"model":"qwen"}`, http.StatusOK},
		{"list as admin", http.MethodGet, "/lmstudio/models", adminKey, "", http.StatusOK},
		{"health is public", http.MethodGet, "/internal/health", "", "", http.StatusOK},
		{"version is public", http.MethodGet, "/version", "", "", http.StatusOK},
		{"status without key", http.MethodGet, "/internal/status", "", "", http.StatusUnauthorized},
		{"status as user", http.MethodGet, "/internal/status", userKey, "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(handler, tt.method, tt.path, tt.key, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())

			switch tt.want {
			case http.StatusUnauthorized:
				assert.JSONEq(t, `{"detail":"Not authenticated"}`, rec.Body.String())
				assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
			case http.StatusForbidden:
				assert.JSONEq(t, `{"detail":"Access prohibited"}`, rec.Body.String())
			}
		})
	}
}

func TestLoadAndUnload(t *testing.T) {
	upstream := newFakeLMStudio(t)
	handler := newTestApp(t, upstream.server.URL, nil)

	rec := do(handler, http.MethodPost, "/lmstudio/models/load", adminKey, `{"model":"  qwen2.5-7b-instruct "}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"success","message":"Model qwen2.5-7b-instruct loaded successfully"}`, rec.Body.String())
	assert.Equal(t, "qwen2.5-7b-instruct", upstream.lastLoad.Model, "identifier is trimmed before forwarding")

	rec = do(handler, http.MethodPost, "/lmstudio/models/unload", adminKey, `{"model":"qwen2.5-7b-instruct"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"success","message":"Model qwen2.5-7b-instruct unloaded successfully"}`, rec.Body.String())
}

func TestLoad_UpstreamNotFoundPassesThrough(t *testing.T) {
	upstream := newFakeLMStudio(t)
	handler := newTestApp(t, upstream.server.URL, nil)

	rec := do(handler, http.MethodPost, "/lmstudio/models/load", adminKey, `{"model":"missing"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"detail":"Failed to load model: {\"error\":\"model not found\"}"}`, rec.Body.String())
}

func TestLoad_Validation(t *testing.T) {
	upstream := newFakeLMStudio(t)
	handler := newTestApp(t, upstream.server.URL, func(cfg *config.Config) {
		cfg.Server.RequestLimits.MaxBodySize = 64
	})

	tests := []struct {
		name   string
		body   string
		want   int
		detail string
	}{
		{"empty body", "", http.StatusUnprocessableEntity, "model is required"},
		{"missing field", `{}`, http.StatusUnprocessableEntity, "model is required"},
		{"blank model", `{"model":"   "}`, http.StatusUnprocessableEntity, "model is required"},
		{"wrong type", `{"model":42}`, http.StatusUnprocessableEntity, ""},
		{"malformed", `{"model":`, http.StatusUnprocessableEntity, ""},
		{"oversized", `{"model":"` + strings.Repeat("x", 128) + `"}`, http.StatusRequestEntityTooLarge, "Request body too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(handler, http.MethodPost, "/lmstudio/models/load", adminKey, tt.body)
			assert.Equal(t, tt.want, rec.Code)
			if tt.detail != "" {
				assert.JSONEq(t, `{"detail":"`+tt.detail+`"}`, rec.Body.String())
			} else {
				assert.Contains(t, rec.Body.String(), "Invalid request body")
			}
		})
	}
}

func TestLoad_OversizedWithoutKeyIsUnauthorised(t *testing.T) {
	upstream := newFakeLMStudio(t)
	handler := newTestApp(t, upstream.server.URL, func(cfg *config.Config) {
		cfg.Server.RequestLimits.MaxBodySize = 16
	})

	rec := do(handler, http.MethodPost, "/lmstudio/models/load", "", `{"model":"`+strings.Repeat("x", 64)+`"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestModelInfo_Passthrough(t *testing.T) {
	upstream := newFakeLMStudio(t)
	handler := newTestApp(t, upstream.server.URL, nil)

	rec := do(handler, http.MethodGet, "/lmstudio/models/lmstudio-community/qwen2.5-7b", userKey, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, strings.Replace(infoDocument, "%s", "lmstudio-community/qwen2.5-7b", 1), rec.Body.String())
	assert.Equal(t, "/v1/models/lmstudio-community/qwen2.5-7b", upstream.lastInfoRaw)
}

func TestModelInfo_NotFound(t *testing.T) {
	upstream := newFakeLMStudio(t)
	handler := newTestApp(t, upstream.server.URL, nil)

	rec := do(handler, http.MethodGet, "/lmstudio/models/ghost", userKey, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"detail":"Model not found: {\"error\":\"no such model\"}"}`, rec.Body.String())

	rec = do(handler, http.MethodGet, "/lmstudio/models/", userKey, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestModelInfo_NonErrorUpstreamStatusIsBadGateway(t *testing.T) {
	upstream := newFakeLMStudio(t)
	handler := newTestApp(t, upstream.server.URL, nil)

	rec := do(handler, http.MethodGet, "/lmstudio/models/stale", userKey, "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp["detail"], "Model not found")
}

func TestModelInfo_EmptySegmentRejected(t *testing.T) {
	upstream := newFakeLMStudio(t)
	app := newTestApplication(t, upstream.server.URL, nil)

	req := httptest.NewRequest(http.MethodGet, "/lmstudio/models/publisher//qwen", nil)
	req.SetPathValue("model_id", "publisher//qwen")
	rec := httptest.NewRecorder()
	app.modelInfoHandler(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"detail":"model_id must not contain empty path segments"}`, rec.Body.String())
	assert.Empty(t, upstream.lastInfoRaw)

	// the mux never hands an uncleaned path to the handler
	rec = do(app.Handler(), http.MethodGet, "/lmstudio/models/publisher//qwen", userKey, "")
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Empty(t, upstream.lastInfoRaw)
}

func TestUpstreamUnreachable(t *testing.T) {
	closed := httptest.NewServer(http.NotFoundHandler())
	baseURL := closed.URL
	closed.Close()

	handler := newTestApp(t, baseURL, nil)

	tests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/lmstudio/models", ""},
		{http.MethodPost, "/lmstudio/models/load", `{"model":"qwen"}`},
		{http.MethodPost, "/lmstudio/models/unload", `{"model":"qwen"}`},
		{http.MethodGet, "/lmstudio/models/qwen", ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := do(handler, tt.method, tt.path, adminKey, tt.body)
			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
			assert.Contains(t, rec.Body.String(), "connect")
			assert.Contains(t, rec.Body.String(), baseURL)
		})
	}
}

func TestStatusEndpoint(t *testing.T) {
	upstream := newFakeLMStudio(t)
	handler := newTestApp(t, upstream.server.URL, nil)

	rec := do(handler, http.MethodGet, "/internal/status", userKey, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Reachable)
	assert.Equal(t, 2, resp.Models)
	assert.Equal(t, upstream.server.URL, resp.Upstream)
	assert.Empty(t, resp.Error)
	assert.Equal(t, int64(1), resp.Operations[domain.OpListModels].SuccessfulRequests)
	assert.NotEmpty(t, resp.Process.GoVersion)
	assert.Greater(t, resp.Process.NumGoroutines, 0)
	assert.Equal(t, "healthy", resp.Process.Goroutines)
}

func TestStatusEndpoint_Unreachable(t *testing.T) {
	closed := httptest.NewServer(http.NotFoundHandler())
	baseURL := closed.URL
	closed.Close()

	handler := newTestApp(t, baseURL, nil)

	rec := do(handler, http.MethodGet, "/internal/status", userKey, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Reachable)
	assert.Equal(t, "upstream_unreachable", resp.Tier)
	assert.Contains(t, resp.Error, "Failed to connect")
}

func TestProcessStatus_HumanSizes(t *testing.T) {
	ps := processStatus(&nerdstats.NerdStats{
		GoVersion:     "go1.24.0",
		HeapAlloc:     4683073536,
		HeapSys:       2048,
		NumGoroutines: 12,
		NumGC:         3,
	})

	assert.Equal(t, "4.683GB", ps.HeapAlloc)
	assert.Equal(t, "2.048kB", ps.HeapSys)
	assert.Equal(t, "healthy", ps.Goroutines)
	assert.Equal(t, uint32(3), ps.NumGC)
}

func TestStatusEndpoint_AnonymousNeverReachesUpstream(t *testing.T) {
	upstream := newFakeLMStudio(t)
	handler := newTestApp(t, upstream.server.URL, nil)

	for _, key := range []string{"", "wrong"} {
		rec := do(handler, http.MethodGet, "/internal/status", key, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"detail":"Not authenticated"}`, rec.Body.String())
		assert.NotContains(t, rec.Body.String(), upstream.server.URL)
		assert.NotContains(t, rec.Body.String(), "models")
	}

	assert.Zero(t, upstream.listCalls.Load())
}

func TestHealthAndVersion(t *testing.T) {
	handler := newTestApp(t, "http://127.0.0.1:1", nil)

	rec := do(handler, http.MethodGet, "/internal/health", "", "")
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())

	rec = do(handler, http.MethodGet, "/version", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"lmsgate"`)
}

func TestCustomRoutePrefix(t *testing.T) {
	upstream := newFakeLMStudio(t)
	handler := newTestApp(t, upstream.server.URL, func(cfg *config.Config) {
		cfg.Server.RoutePrefix = "/api/studio"
	})

	assert.Equal(t, http.StatusOK, do(handler, http.MethodGet, "/api/studio/models", userKey, "").Code)
	assert.Equal(t, http.StatusNotFound, do(handler, http.MethodGet, "/lmstudio/models", userKey, "").Code)
}

func TestMethodNotAllowed(t *testing.T) {
	upstream := newFakeLMStudio(t)
	handler := newTestApp(t, upstream.server.URL, nil)

	assert.Equal(t, http.StatusMethodNotAllowed, do(handler, http.MethodDelete, "/lmstudio/models", adminKey, "").Code)
}

func TestRateLimited(t *testing.T) {
	upstream := newFakeLMStudio(t)
	handler := newTestApp(t, upstream.server.URL, func(cfg *config.Config) {
		cfg.Server.RateLimits.PerIPRequestsPerMinute = 1
		cfg.Server.RateLimits.BurstSize = 1
	})

	assert.Equal(t, http.StatusOK, do(handler, http.MethodGet, "/lmstudio/models", userKey, "").Code)

	rec := do(handler, http.MethodGet, "/lmstudio/models", userKey, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// status shares the listing bucket, health is not limited
	assert.Equal(t, http.StatusTooManyRequests, do(handler, http.MethodGet, "/internal/status", userKey, "").Code)
	assert.Equal(t, http.StatusOK, do(handler, http.MethodGet, "/internal/health", "", "").Code)
	assert.Equal(t, int64(1), upstream.listCalls.Load())
}

func TestAuthDisabled(t *testing.T) {
	upstream := newFakeLMStudio(t)
	handler := newTestApp(t, upstream.server.URL, func(cfg *config.Config) {
		cfg.Auth.Enabled = false
	})

	rec := do(handler, http.MethodPost, "/lmstudio/models/load", "", `{"model":"qwen"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}
