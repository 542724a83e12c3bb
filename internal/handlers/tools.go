package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/secflow/secflow/internal/models"
	"github.com/secflow/secflow/internal/services"
	"github.com/secflow/secflow/internal/utils"
	"github.com/secflow/secflow/internal/widgets"
)

func (h *Handlers) GetVulnerabilityScan(c *gin.Context) {
	target := strings.Trim(c.Param("target"), "/")

	scan, err := h.tools.VulnerabilityScan(c.Request.Context(), target)
	if err != nil {
		h.fail(c, "GetVulnerabilityScan", err)
		return
	}

	h.logger.Info("SUCCESS GetVulnerabilityScan", "target", target, "total", scan.Summary.Total)
	c.JSON(http.StatusOK, widgets.BuildVulnerabilityScanner(scan))
}

func (h *Handlers) GetDarkWeb(c *gin.Context) {
	email := c.Param("email")

	result, err := h.tools.DarkWeb(c.Request.Context(), email)
	if err != nil {
		h.fail(c, "GetDarkWeb", err)
		return
	}

	h.logger.Info("SUCCESS GetDarkWeb", "breaches", len(result.Breaches))
	c.JSON(http.StatusOK, widgets.BuildDarkWebMonitor(result))
}

// GetThreatCheck returns the reputation card for ip, adding the local
// GeoIP location when a database is loaded.
func (h *Handlers) GetThreatCheck(c *gin.Context) {
	ip := c.Param("ip")

	rep, err := h.tools.ThreatCheck(c.Request.Context(), ip)
	if err != nil {
		h.fail(c, "GetThreatCheck", err)
		return
	}

	loc, located := h.geo.Lookup(rep.IPDetails.IP)
	if located && rep.IPDetails.CountryCode == nil {
		code := loc.CountryCode
		rep.IPDetails.CountryCode = &code
	}

	view := widgets.BuildIPReputation(rep)
	if located {
		view.Facts = append(view.Facts, widgets.Field{Label: "Location", Value: locationLabel(loc.City, loc.Country)})
	}

	h.logger.Info("SUCCESS GetThreatCheck", "ip", ip, "public", rep.IPDetails.IsPublic, "located", located)
	c.JSON(http.StatusOK, view)
}

func locationLabel(city, country string) string {
	if city == "" {
		return country
	}
	return city + ", " + country
}

// GetReport streams the generated PDF as a download.
func (h *Handlers) GetReport(c *gin.Context) {
	target := strings.Trim(c.Param("target"), "/")

	blob, err := h.tools.Report(c.Request.Context(), target)
	if err != nil {
		h.fail(c, "GetReport", err)
		return
	}

	contentType := blob.ContentType
	if contentType == "" {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", utils.ReportFilename(target)))
	h.logger.Info("SUCCESS GetReport", "target", target, "bytes", len(blob.Data))
	c.Data(http.StatusOK, contentType, blob.Data)
}

// relay writes a passthrough result. The envelope is returned as-is so the
// caller can inspect statusCode the same way for every classifier.
func (h *Handlers) relay(c *gin.Context, op string, res models.OpaqueResult) {
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		h.logger.Warn("ERROR "+op, "status", res.StatusCode)
	} else {
		h.logger.Info("SUCCESS " + op)
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handlers) StartAPT(c *gin.Context) {
	h.relay(c, "StartAPT", h.analysis.StartAPTMonitoring(c.Request.Context()))
}

func (h *Handlers) StopAPT(c *gin.Context) {
	h.relay(c, "StopAPT", h.analysis.StopAPTMonitoring(c.Request.Context()))
}

func (h *Handlers) CapturePackets(c *gin.Context) {
	h.relay(c, "CapturePackets", h.analysis.CapturePackets(c.Request.Context()))
}

func (h *Handlers) GetAPTResults(c *gin.Context) {
	result, err := h.analysis.APTResults(c.Request.Context())
	if err != nil {
		h.fail(c, "GetAPTResults", err)
		return
	}
	c.JSON(http.StatusOK, widgets.BuildAPTResults(result))
}

func (h *Handlers) GetPhishing(c *gin.Context) {
	var q models.PhishingQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.fail(c, "GetPhishing", &services.InputError{Field: "query", Reason: "Invalid phishing query"})
		return
	}

	res, err := h.analysis.Phishing(c.Request.Context(), q)
	if err != nil {
		h.fail(c, "GetPhishing", err)
		return
	}
	h.relay(c, "GetPhishing", res)
}

func (h *Handlers) GetZeroDay(c *gin.Context) {
	h.relay(c, "GetZeroDay", h.analysis.ZeroDay(c.Request.Context()))
}
