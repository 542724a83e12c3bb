package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/secflow/secflow/internal/topology"
	"github.com/secflow/secflow/internal/widgets"
)

// GetNetworkScan scans ip once and returns the device list, the traffic
// chart and the topology graph for ?mode=.
func (h *Handlers) GetNetworkScan(c *gin.Context) {
	ip := c.Param("ip")
	mode, err := topology.ParseViewMode(c.Query("mode"))
	if err != nil {
		h.fail(c, "GetNetworkScan", err)
		return
	}

	result, err := h.network.Scan(c.Request.Context(), ip)
	if err != nil {
		h.fail(c, "GetNetworkScan", err)
		return
	}

	h.logger.Info("SUCCESS GetNetworkScan", "ip", ip, "devices", len(result.Devices))
	c.JSON(http.StatusOK, gin.H{
		"devices": widgets.BuildDeviceList(result.Devices),
		"traffic": widgets.BuildTrafficAnalysis(result.NetworkData.TrafficData),
		"graph":   topology.BuildGraph(result.Devices, mode),
	})
}

// GetTraffic returns the backend's current traffic chart without a scan.
func (h *Handlers) GetTraffic(c *gin.Context) {
	result, err := h.network.Traffic(c.Request.Context())
	if err != nil {
		h.fail(c, "GetTraffic", err)
		return
	}
	c.JSON(http.StatusOK, widgets.BuildTrafficAnalysis(result.NetworkData.TrafficData))
}

// GetSecurityAnalysis accepts ranges with a prefix length, so the range is
// taken from a catch-all segment.
func (h *Handlers) GetSecurityAnalysis(c *gin.Context) {
	ipRange := strings.Trim(c.Param("ipRange"), "/")

	analysis, err := h.network.SecurityAnalysis(c.Request.Context(), ipRange)
	if err != nil {
		h.fail(c, "GetSecurityAnalysis", err)
		return
	}

	h.logger.Info("SUCCESS GetSecurityAnalysis", "range", ipRange)
	c.JSON(http.StatusOK, widgets.BuildSecurityAnalysis(analysis))
}

// GetTopology returns a settled layout for the scan of ip.
func (h *Handlers) GetTopology(c *gin.Context) {
	ip := c.Param("ip")
	mode, err := topology.ParseViewMode(c.Query("mode"))
	if err != nil {
		h.fail(c, "GetTopology", err)
		return
	}

	key := ip + "|" + string(mode)
	if frame, ok := h.layouts.Get(key); ok {
		c.JSON(http.StatusOK, frame)
		return
	}

	result, err := h.network.Scan(c.Request.Context(), ip)
	if err != nil {
		h.fail(c, "GetTopology", err)
		return
	}

	frame := topology.Settle(topology.BuildGraph(result.Devices, mode), topology.DefaultConfig())
	h.layouts.Set(key, frame)
	h.logger.Info("SUCCESS GetTopology", "ip", ip, "mode", mode, "nodes", len(frame.Nodes))
	c.JSON(http.StatusOK, frame)
}

// StreamTopology runs a live simulation for the scan of ip. Client messages
// are interaction events; every rendered frame is written back.
func (h *Handlers) StreamTopology(c *gin.Context) {
	ip := c.Param("ip")
	mode, err := topology.ParseViewMode(c.Query("mode"))
	if err != nil {
		h.fail(c, "StreamTopology", err)
		return
	}

	result, err := h.network.Scan(c.Request.Context(), ip)
	if err != nil {
		h.fail(c, "StreamTopology", err)
		return
	}

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("ERROR StreamTopology upgrade failed", "ip", ip, "error", err)
		return
	}
	defer ws.Close()

	session := topology.NewSession(result.Devices, mode, topology.WithSessionLogger(h.logger))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = session.Run(ctx)
	}()

	go func() {
		defer cancel()
		for {
			var ev topology.Event
			if err := ws.ReadJSON(&ev); err != nil {
				return
			}
			if err := session.Send(ctx, ev); err != nil {
				return
			}
		}
	}()

	h.logger.Info("SUCCESS StreamTopology started", "ip", ip, "mode", mode, "session", session.ID)
	failed := false
	for frame := range session.Frames() {
		if failed {
			continue
		}
		if err := writeJSON(ws, frame); err != nil {
			h.logger.Warn("ERROR StreamTopology write failed", "session", session.ID, "error", err)
			failed = true
			cancel()
		}
	}
	h.logger.Info("StreamTopology closed", "session", session.ID)
}
