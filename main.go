package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/secflow/secflow/internal/config"
	"github.com/secflow/secflow/internal/gateway"
	"github.com/secflow/secflow/internal/geo"
	"github.com/secflow/secflow/internal/handlers"
	"github.com/secflow/secflow/internal/poller"
	"github.com/secflow/secflow/internal/preferences"
	"github.com/secflow/secflow/internal/services"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg := config.Load()
	if err := cfg.LoadPagesFile(os.Getenv("PAGES_FILE")); err != nil {
		slog.Error("Configuration error", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration error", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Environment == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpClient := gateway.NewHTTPClient()
	if cfg.OAuthEnabled() {
		httpClient = gateway.NewOAuthHTTPClient(ctx, cfg.APIClientID, cfg.APIClientSecret, cfg.APITokenURL)
		logger.Info("Using OAuth2 client credentials for the analysis backend", "tokenURL", cfg.APITokenURL)
	}
	gw := gateway.NewClient(cfg.APIBaseURL, gateway.WithHTTPClient(httpClient), gateway.WithLogger(logger))

	network := services.NewNetworkService(gw)
	registry := poller.NewRegistry(ctx,
		poller.Pages(services.NewDashboardService(gw), services.NewThreatAnalysisService(gw), network),
		poller.WithIntervals(cfg.PageIntervals),
		poller.WithRegistryLogger(logger),
		poller.WithControllerOptions(poller.WithLogger(logger), poller.WithErrorMessage(services.UserMessage)))
	defer registry.Close()

	store, err := preferences.Open(preferences.Config{
		Path:         cfg.PreferencesPath,
		InMemory:     cfg.PreferencesPath == "",
		DefaultTheme: cfg.DefaultTheme,
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	resolver := geo.NewResolver(cfg.GeoIPDBPath, logger)
	defer resolver.Close()

	h := handlers.New(handlers.Deps{
		Network:        network,
		Tools:          services.NewToolsService(gw),
		Analysis:       services.NewAnalysisService(gw),
		Registry:       registry,
		Preferences:    store,
		Geo:            resolver,
		Logger:         logger,
		ToolsRateLimit: cfg.ToolsRateLimit,
		CheckOrigin:    originChecker(cfg.CORSOrigins),
	})

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), handlers.RequestLogger(logger))
	router.Use(cors.New(corsConfig(cfg)))
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/ws/", "/metrics", "/api/tools/report/"})))

	h.Register(router)
	logger.Info("Serving static files", "dir", cfg.StaticDir)
	handlers.ServeSPA(router, cfg.StaticDir, logger)

	server := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting SecFlow server", "port", cfg.Port, "environment", cfg.Environment, "backend", cfg.APIBaseURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listening on %s: %w", server.Addr, err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	logger.Info("Server exited gracefully")
	return nil
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.DefaultConfig()
	switch {
	case slices.Contains(cfg.CORSOrigins, "*"):
		c.AllowAllOrigins = true
	case len(cfg.CORSOrigins) > 0:
		c.AllowOrigins = cfg.CORSOrigins
	case cfg.Environment == "production":
		// the backend serves the frontend itself
		c.AllowAllOrigins = true
	default:
		c.AllowOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	c.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	c.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Profile"}
	c.ExposeHeaders = []string{"Content-Disposition"}
	c.MaxAge = 12 * time.Hour
	return c
}

// originChecker limits websocket upgrades to the configured CORS origins.
func originChecker(origins []string) func(*http.Request) bool {
	if len(origins) == 0 {
		return nil
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range origins {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}
