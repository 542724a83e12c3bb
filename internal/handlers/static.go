package handlers

import (
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// ServeSPA serves the built frontend from dir. Unknown non-API routes get
// index.html so client-side routing works.
func ServeSPA(r *gin.Engine, dir string, logger *slog.Logger) {
	index := filepath.Join(dir, "index.html")

	r.Static("/assets", filepath.Join(dir, "assets"))
	r.StaticFile("/favicon.svg", filepath.Join(dir, "favicon.svg"))
	r.StaticFile("/", index)

	r.NoRoute(func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api/") || strings.HasPrefix(path, "/ws/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found", "message": "No route for " + path})
			return
		}
		logger.Debug("Serving SPA route", "path", path)
		c.File(index)
	})
}
