package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secflow/secflow/internal/gateway"
	"github.com/secflow/secflow/internal/geo"
	"github.com/secflow/secflow/internal/poller"
	"github.com/secflow/secflow/internal/preferences"
	"github.com/secflow/secflow/internal/services"
	"github.com/secflow/secflow/internal/topology"
)

const scanBody = `{"statusCode":200,"data":{
  "devices":[
    {"name":"Router","ip":"192.168.1.1","status":"Online","lastSeen":"2024-01-01T00:00:00Z","ports":["80/http","443/https"]},
    {"name":"Printer","ip":"192.168.1.9","status":"Offline","lastSeen":"2024-01-01T00:00:00Z"}
  ],
  "networkData":{"trafficData":{"inbound":[1,2,3],"outbound":[1,1,1]}}}}`

var backendRoutes = map[string]string{
	"/network/scan/192.168.1.1":               scanBody,
	"/network/traffic":                        scanBody,
	"/network/analysis/192.168.1.0%2F24":      `{"data":{"summary":{"totalVulnerabilities":1},"vulnerabilities":[],"recommendations":[]}}`,
	"/advanced-network/threat-check/10.0.0.5": `{"data":{"ipDetails":{"ip":"10.0.0.5","isPublic":false,"ipVersion":4},"summary":{"riskLevel":"Safe"}}}`,
	"/advanced-network/dark-web/a@b.com":      `{"data":{"breaches":[]}}`,
	"/vulnerability/scan/10.0.0.0%2F8":        `{"data":{"summary":{"total":0},"vulnerabilities":{"high":[],"medium":[],"low":[]}}}`,
	"/threat-analysis":                        `{"data":{"networkData":{"threats":[]},"devices":[],"threatMetrics":{},"networkHealth":{}}}`,
	"/apt/monitoring/start":                   `{"statusCode":200,"data":{"status":"started"}}`,
	"/apt/monitoring/all":                     `{"data":{"status":"ok","predictions":[{"confidence":0.5,"index":0,"prediction":"NormalTraffic"}]}}`,
	"/zeroDay/scan/all":                       `{"statusCode":503,"data":{"error":"model offline"}}`,

	"/phishing/scan/all?url=http%3A%2F%2Fx.test": `{"data":{"verdict":"clean"}}`,
}

func newBackend(t *testing.T) *gateway.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/advanced-network/report/") {
			w.Header().Set("Content-Type", "application/pdf")
			w.Write([]byte("%PDF-1.4"))
			return
		}
		key := r.URL.EscapedPath()
		if r.URL.RawQuery != "" {
			key += "?" + r.URL.RawQuery
		}
		w.Header().Set("Content-Type", "application/json")
		body, ok := backendRoutes[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"no route"}`))
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return gateway.NewClient(srv.URL, gateway.WithLogger(quietLogger()))
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRouter(t *testing.T, rateLimit int) (*gin.Engine, *poller.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gw := newBackend(t)
	network := services.NewNetworkService(gw)

	ctx, cancel := context.WithCancel(context.Background())
	registry := poller.NewRegistry(ctx,
		poller.Pages(services.NewDashboardService(gw), services.NewThreatAnalysisService(gw), network),
		poller.WithRegistryLogger(quietLogger()),
		poller.WithControllerOptions(poller.WithErrorMessage(services.UserMessage), poller.WithLogger(quietLogger())))

	store, err := preferences.Open(preferences.Config{InMemory: true, Logger: quietLogger()})
	require.NoError(t, err)

	t.Cleanup(func() {
		registry.Close()
		cancel()
		store.Close()
	})

	h := New(Deps{
		Network:        network,
		Tools:          services.NewToolsService(gw),
		Analysis:       services.NewAnalysisService(gw),
		Registry:       registry,
		Preferences:    store,
		Geo:            geo.NewResolver("", quietLogger()),
		Logger:         quietLogger(),
		ToolsRateLimit: rateLimit,
	})
	r := gin.New()
	h.Register(r)
	return r, registry
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthCheck(t *testing.T) {
	r, _ := newRouter(t, 30)

	w := do(r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, false, body["geoip"])
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := newRouter(t, 30)

	w := do(r, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestPreferencesRoundTrip(t *testing.T) {
	r, _ := newRouter(t, 30)

	w := do(r, http.MethodGet, "/api/preferences", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"theme":"light","sidebarOpen":true}`, w.Body.String())

	w = do(r, http.MethodPut, "/api/preferences", `{"sidebarOpen":false}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"theme":"light","sidebarOpen":false}`, w.Body.String())

	w = do(r, http.MethodPut, "/api/preferences", `{"theme":"neon"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request", decode(t, w)["error"])

	w = do(r, http.MethodPut, "/api/preferences", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/api/navigation?path=/security-tools", "")
	require.Equal(t, http.StatusOK, w.Code)
	nav := decode(t, w)
	assert.Equal(t, "/security-tools", nav["active"])
	assert.Equal(t, "w-20", nav["sidebarWidth"])
}

func TestPreferencesPerProfile(t *testing.T) {
	r, _ := newRouter(t, 30)

	req := httptest.NewRequest(http.MethodPut, "/api/preferences", strings.NewReader(`{"theme":"dark"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(profileHeader, "alice")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/api/preferences", "")
	assert.JSONEq(t, `{"theme":"light","sidebarOpen":true}`, w.Body.String())
}

func TestPagesEndpoints(t *testing.T) {
	r, _ := newRouter(t, 30)

	w := do(r, http.MethodGet, "/api/pages", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"threat-analysis"`)

	w = do(r, http.MethodGet, "/api/pages/nowhere", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodGet, "/api/pages/network-monitoring", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/api/pages/network-monitoring?ip=192.168.1.1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var snap poller.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, poller.StateSuccess, snap.State)
	assert.Contains(t, snap.Views, "devices")
	assert.Contains(t, snap.Views, "traffic")
}

func TestThreatAnalysisPageFatal(t *testing.T) {
	r, _ := newRouter(t, 30)

	w := do(r, http.MethodGet, "/api/pages/threat-analysis", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "Invalid data structure received from server", decode(t, w)["message"])
}

func TestNetworkScan(t *testing.T) {
	r, _ := newRouter(t, 30)

	w := do(r, http.MethodGet, "/api/network/scan/192.168.1.1?mode=ports", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Devices struct {
			Rows []json.RawMessage `json:"rows"`
		} `json:"devices"`
		Graph topology.Graph `json:"graph"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, topology.ModePorts, body.Graph.Mode)
	assert.Len(t, body.Devices.Rows, 2)
	assert.Len(t, body.Graph.Nodes, 2)
	assert.Empty(t, body.Graph.Edges)

	w = do(r, http.MethodGet, "/api/network/scan/192.168.1.1?mode=bogus", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/api/network/scan/nope", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/api/network/scan/192.168.1.2", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Not Found", decode(t, w)["message"])
}

func TestTraffic(t *testing.T) {
	r, _ := newRouter(t, 30)

	w := do(r, http.MethodGet, "/api/network/traffic", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Inbound")
}

func TestSecurityAnalysisRange(t *testing.T) {
	r, _ := newRouter(t, 30)

	w := do(r, http.MethodGet, "/api/network/analysis/192.168.1.0/24", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestTopologyLayout(t *testing.T) {
	r, _ := newRouter(t, 30)

	w := do(r, http.MethodGet, "/api/network/topology/192.168.1.1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var frame topology.Frame
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &frame))
	assert.True(t, frame.Settled)
	assert.Len(t, frame.Nodes, 2)
	assert.Len(t, frame.Edges, 2)
	assert.Equal(t, topology.CenterID, frame.Edges[0].Source)

	again := do(r, http.MethodGet, "/api/network/topology/192.168.1.1", "")
	assert.Equal(t, w.Body.String(), again.Body.String())
}

func TestToolEndpoints(t *testing.T) {
	r, _ := newRouter(t, 30)

	w := do(r, http.MethodGet, "/api/tools/threat-check/10.0.0.5", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Nil(t, body["risk"])

	w = do(r, http.MethodGet, "/api/tools/dark-web/a@b.com", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["clean"])

	w = do(r, http.MethodGet, "/api/tools/dark-web/nope", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "must be a valid email address", decode(t, w)["message"])

	w = do(r, http.MethodGet, "/api/tools/vulnerability/10.0.0.0/8", "")
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestReportDownload(t *testing.T) {
	r, _ := newRouter(t, 30)

	w := do(r, http.MethodGet, "/api/tools/report/10.0.0.0/8", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Security_Report_10.0.0.0_8.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.4", w.Body.String())
}

func TestToolsRateLimited(t *testing.T) {
	r, _ := newRouter(t, 2)

	for i := 0; i < 2; i++ {
		w := do(r, http.MethodGet, "/api/tools/dark-web/a@b.com", "")
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := do(r, http.MethodGet, "/api/tools/dark-web/a@b.com", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = do(r, http.MethodGet, "/api/preferences", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAnalysisEndpoints(t *testing.T) {
	r, _ := newRouter(t, 30)

	w := do(r, http.MethodPost, "/api/analysis/apt/start", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(200), decode(t, w)["statusCode"])
	assert.Contains(t, w.Body.String(), "started")

	w = do(r, http.MethodGet, "/api/analysis/apt", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "NormalTraffic")

	w = do(r, http.MethodGet, "/api/analysis/zero-day", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "model offline")

	w = do(r, http.MethodGet, "/api/analysis/phishing?url=http://x.test", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "clean")

	w = do(r, http.MethodGet, "/api/analysis/phishing", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

func TestStreamPage(t *testing.T) {
	r, registry := newRouter(t, 30)
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/pages/network-monitoring?ip=192.168.1.1"), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, registry.Mounted())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var snap poller.Snapshot
	for snap.State != poller.StateSuccess {
		require.NoError(t, conn.ReadJSON(&snap))
	}
	assert.Contains(t, snap.Views, "topology")

	conn.Close()
	assert.Eventually(t, func() bool { return registry.Mounted() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestStreamPageRejectsUnknown(t *testing.T) {
	r, _ := newRouter(t, 30)
	srv := httptest.NewServer(r)
	defer srv.Close()

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/pages/nowhere"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStreamTopology(t *testing.T) {
	r, _ := newRouter(t, 30)
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/topology/192.168.1.1?mode=devices"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var frame topology.Frame
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, topology.ModeDevices, frame.Mode)
	assert.Len(t, frame.Nodes, 2)

	require.NoError(t, conn.WriteJSON(topology.Event{Type: topology.EventMode, Mode: string(topology.ModeServices)}))
	for frame.Mode != topology.ModeServices {
		require.NoError(t, conn.ReadJSON(&frame))
	}
	assert.Len(t, frame.Nodes, 2)
}

func TestServeSPA(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assets", "app.js"), []byte("console.log(1)"), 0o644))

	r := gin.New()
	ServeSPA(r, dir, quietLogger())

	w := do(r, http.MethodGet, "/threat-analysis", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "app")

	w = do(r, http.MethodGet, "/assets/app.js", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/api/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestClientLimiterIsPerClient(t *testing.T) {
	l := newClientLimiter(1)
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))
}
