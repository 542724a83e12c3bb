package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/secflow/secflow/internal/geo"
	"github.com/secflow/secflow/internal/poller"
	"github.com/secflow/secflow/internal/preferences"
	"github.com/secflow/secflow/internal/services"
	"github.com/secflow/secflow/internal/topology"
	"github.com/secflow/secflow/internal/utils"
)

const (
	requestTimeout = 60 * time.Second
	layoutTTL      = 15 * time.Second
	writeWait      = 10 * time.Second
)

// Deps are the collaborators the HTTP layer dispatches to.
type Deps struct {
	Network     *services.NetworkService
	Tools       *services.ToolsService
	Analysis    *services.AnalysisService
	Registry    *poller.Registry
	Preferences *preferences.Store
	Geo         *geo.Resolver
	Logger      *slog.Logger

	// ToolsRateLimit is requests per minute per client for the tool endpoints.
	ToolsRateLimit int
	// CheckOrigin guards websocket upgrades. Nil accepts every origin.
	CheckOrigin func(r *http.Request) bool
}

type Handlers struct {
	network  *services.NetworkService
	tools    *services.ToolsService
	analysis *services.AnalysisService
	registry *poller.Registry
	prefs    *preferences.Store
	geo      *geo.Resolver
	logger   *slog.Logger

	limiter  *clientLimiter
	layouts  *layoutCache
	upgrader websocket.Upgrader
	started  time.Time
}

func New(d Deps) *Handlers {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	checkOrigin := d.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Handlers{
		network:  d.Network,
		tools:    d.Tools,
		analysis: d.Analysis,
		registry: d.Registry,
		prefs:    d.Preferences,
		geo:      d.Geo,
		logger:   logger,
		limiter:  newClientLimiter(d.ToolsRateLimit),
		layouts:  newLayoutCache(layoutTTL),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 16384,
			CheckOrigin:     checkOrigin,
		},
		started: time.Now(),
	}
}

// Register mounts every API, websocket and ops route on r.
func (h *Handlers) Register(r *gin.Engine) {
	r.GET("/health", h.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api", withTimeout(requestTimeout))
	{
		api.GET("/navigation", h.GetNavigation)
		api.GET("/preferences", h.GetPreferences)
		api.PUT("/preferences", h.PutPreferences)

		api.GET("/pages", h.ListPages)
		api.GET("/pages/:page", h.GetPage)

		api.GET("/network/scan/:ip", h.GetNetworkScan)
		api.GET("/network/traffic", h.GetTraffic)
		api.GET("/network/analysis/*ipRange", h.GetSecurityAnalysis)
		api.GET("/network/topology/:ip", h.GetTopology)

		tools := api.Group("/tools", h.limiter.RateLimit())
		{
			tools.GET("/vulnerability/*target", h.GetVulnerabilityScan)
			tools.GET("/dark-web/:email", h.GetDarkWeb)
			tools.GET("/threat-check/:ip", h.GetThreatCheck)
			tools.GET("/report/*target", h.GetReport)
		}

		analysis := api.Group("/analysis")
		{
			analysis.POST("/apt/start", h.StartAPT)
			analysis.POST("/apt/stop", h.StopAPT)
			analysis.POST("/apt/capture", h.CapturePackets)
			analysis.GET("/apt", h.GetAPTResults)
			analysis.GET("/phishing", h.GetPhishing)
			analysis.GET("/zero-day", h.GetZeroDay)
		}
	}

	ws := r.Group("/ws")
	{
		ws.GET("/pages/:page", h.StreamPage)
		ws.GET("/topology/:ip", h.StreamTopology)
	}
}

func withTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"timestamp":    utils.FormatTimeForAPI(time.Now()),
		"service":      "secflow",
		"uptime":       time.Since(h.started).Round(time.Second).String(),
		"mountedPages": h.registry.Mounted(),
		"geoip":        h.geo.Enabled(),
	})
}

// statusFor maps an error kind onto a response status and a short title.
func statusFor(err error) (int, string) {
	var upErr *services.UpstreamError
	switch {
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, preferences.ErrInvalid),
		errors.Is(err, topology.ErrInvalidMode),
		errors.Is(err, poller.ErrMissingParam):
		return http.StatusBadRequest, "Invalid request"
	case errors.Is(err, poller.ErrUnknownPage):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, services.ErrInvalidData):
		return http.StatusBadGateway, "Invalid data"
	case errors.As(err, &upErr):
		if upErr.StatusCode >= http.StatusBadRequest && upErr.StatusCode < 600 {
			return upErr.StatusCode, "Upstream request failed"
		}
		return http.StatusBadGateway, "Upstream request failed"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Request timed out"
	default:
		return http.StatusInternalServerError, "Internal error"
	}
}

// fail logs err under op and writes the {error, message} body.
func (h *Handlers) fail(c *gin.Context, op string, err error) {
	status, title := statusFor(err)

	var dataErr *services.DataError
	if errors.As(err, &dataErr) {
		h.logger.Error("ERROR "+op, "error", err, "detail", dataErr.Detail())
	} else if status >= http.StatusInternalServerError {
		h.logger.Error("ERROR "+op, "error", err)
	} else {
		h.logger.Warn("ERROR "+op, "error", err, "status", status)
	}

	_ = c.Error(err)
	c.JSON(status, gin.H{
		"error":   title,
		"message": services.UserMessage(err),
	})
}
