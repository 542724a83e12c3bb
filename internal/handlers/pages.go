package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/secflow/secflow/internal/preferences"
	"github.com/secflow/secflow/internal/services"
	"github.com/secflow/secflow/internal/shell"
)

const profileHeader = "X-Profile"

// profile picks the preferences key space for the caller.
func profile(c *gin.Context) string {
	if p := strings.TrimSpace(c.GetHeader(profileHeader)); p != "" {
		return p
	}
	return preferences.DefaultProfile
}

func queryParams(c *gin.Context) map[string]string {
	params := make(map[string]string)
	for k := range c.Request.URL.Query() {
		params[k] = c.Query(k)
	}
	return params
}

// GetNavigation returns the sidebar, header and preferences for ?path=.
func (h *Handlers) GetNavigation(c *gin.Context) {
	prefs, err := h.prefs.Load(profile(c))
	if err != nil {
		h.fail(c, "GetNavigation", err)
		return
	}
	c.JSON(http.StatusOK, shell.BuildLayout(c.DefaultQuery("path", "/"), prefs))
}

func (h *Handlers) GetPreferences(c *gin.Context) {
	prefs, err := h.prefs.Load(profile(c))
	if err != nil {
		h.fail(c, "GetPreferences", err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

// PutPreferences applies a partial update and returns the stored result.
func (h *Handlers) PutPreferences(c *gin.Context) {
	var update preferences.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		h.fail(c, "PutPreferences", &services.InputError{Field: "body", Reason: "Invalid preferences payload"})
		return
	}

	prefs, err := h.prefs.Apply(profile(c), update)
	if err != nil {
		h.fail(c, "PutPreferences", err)
		return
	}
	h.logger.Info("SUCCESS PutPreferences", "profile", profile(c), "theme", prefs.Theme, "sidebarOpen", prefs.SidebarOpen)
	c.JSON(http.StatusOK, prefs)
}

func (h *Handlers) ListPages(c *gin.Context) {
	pages := make([]gin.H, 0)
	for _, name := range h.registry.Pages() {
		pages = append(pages, gin.H{
			"name":     name,
			"interval": h.registry.Interval(name).String(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"pages": pages})
}

// GetPage returns one refreshed snapshot. A fatal page error answers 502
// with the message the page would show.
func (h *Handlers) GetPage(c *gin.Context) {
	page := c.Param("page")
	snap, err := h.registry.Snapshot(c.Request.Context(), page, queryParams(c))
	if err != nil {
		h.fail(c, "GetPage", err)
		return
	}
	if snap.Fatal {
		h.logger.Error("ERROR GetPage", "page", page, "message", snap.Error)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Invalid data", "message": snap.Error})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// StreamPage mounts the page for as long as the socket stays open and
// pushes every new snapshot.
func (h *Handlers) StreamPage(c *gin.Context) {
	page := c.Param("page")
	ctrl, release, err := h.registry.Acquire(page, queryParams(c))
	if err != nil {
		h.fail(c, "StreamPage", err)
		return
	}
	defer release()

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("ERROR StreamPage upgrade failed", "page", page, "error", err)
		return
	}
	defer ws.Close()

	subscriber := uuid.NewString()
	h.logger.Info("SUCCESS StreamPage subscribed", "page", page, "subscriber", subscriber)

	snaps, cancel := ctrl.Subscribe()
	defer cancel()
	gone := drain(ws)

	for {
		select {
		case <-gone:
			h.logger.Info("StreamPage client disconnected", "page", page, "subscriber", subscriber)
			return
		case snap, ok := <-snaps:
			if !ok {
				closeSocket(ws, websocket.CloseGoingAway, "page unmounted")
				return
			}
			if err := writeJSON(ws, snap); err != nil {
				h.logger.Warn("ERROR StreamPage write failed", "page", page, "subscriber", subscriber, "error", err)
				return
			}
		}
	}
}

// drain reads and discards client messages until the connection fails.
// The returned channel closes at that point.
func drain(ws *websocket.Conn) <-chan struct{} {
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := ws.NextReader(); err != nil {
				return
			}
		}
	}()
	return gone
}

func writeJSON(ws *websocket.Conn, v any) error {
	if err := ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return ws.WriteJSON(v)
}

func closeSocket(ws *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
