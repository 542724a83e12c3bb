package widgets

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/secflow/secflow/internal/models"
)

var deviceColumns = []string{"Name", "IP Address", "Status", "Operating System", "Open Ports", "Last Seen"}

type DeviceRow struct {
	Name     string `json:"name"`
	IP       string `json:"ip"`
	Status   Badge  `json:"status"`
	OS       string `json:"os"`
	Ports    string `json:"ports"`
	LastSeen string `json:"lastSeen"`
}

type DeviceListView struct {
	Card
	Columns []string    `json:"columns"`
	Rows    []DeviceRow `json:"rows"`
}

// BuildDeviceList takes the scan's device slice; nil means not loaded yet
// while an empty slice is an empty table.
func BuildDeviceList(devices []models.Device) DeviceListView {
	v := DeviceListView{Card: Card{Title: "Connected Devices"}, Columns: deviceColumns, Rows: []DeviceRow{}}
	if devices == nil {
		v.Loading = true
		return v
	}
	for _, d := range devices {
		v.Rows = append(v.Rows, DeviceRow{
			Name:     d.Name,
			IP:       d.IP,
			Status:   DeviceStatusBadge(d.Status),
			OS:       orDefault(d.OS, "Unknown"),
			Ports:    orDefault(strings.Join(d.Ports, ", "), "None"),
			LastSeen: FormatTimestamp(d.LastSeen),
		})
	}
	return v
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

type Series struct {
	Label  string    `json:"label"`
	Color  string    `json:"color"`
	Points []float64 `json:"points"`
}

type LineChart struct {
	Labels []string `json:"labels"`
	Series []Series `json:"series"`
}

type TrafficAnalysisView struct {
	Card
	Chart *LineChart `json:"chart,omitempty"`
}

func BuildTrafficAnalysis(t *models.TrafficData) TrafficAnalysisView {
	v := TrafficAnalysisView{Card: Card{Title: "Traffic Analysis"}}
	if t == nil {
		v.Loading = true
		return v
	}
	v.Chart = trafficChart(t)
	return v
}

func trafficChart(t *models.TrafficData) *LineChart {
	inbound := nonNil(t.Inbound)
	outbound := nonNil(t.Outbound)
	return &LineChart{
		Labels: trafficLabels(max(len(inbound), len(outbound))),
		Series: []Series{
			{Label: "Inbound Traffic", Color: "#2563eb", Points: inbound},
			{Label: "Outbound Traffic", Color: "#7c3aed", Points: outbound},
		},
	}
}

// trafficLabels returns n hour labels in 4h steps from midnight.
func trafficLabels(n int) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = fmt.Sprintf("%02d:00", (i*4)%24)
	}
	return labels
}

func nonNil(points []float64) []float64 {
	if points == nil {
		return []float64{}
	}
	return points
}

type VulnerabilityRow struct {
	Severity    Badge  `json:"severity"`
	Endpoint    string `json:"endpoint"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type ThreatFinding struct {
	Type       string `json:"type"`
	Device     string `json:"device"`
	Details    string `json:"details"`
	Risk       Badge  `json:"risk"`
	Mitigation string `json:"mitigation"`
}

type RecommendationRow struct {
	Priority Badge    `json:"priority"`
	Service  string   `json:"service"`
	Reason   string   `json:"reason"`
	Action   string   `json:"action"`
	Details  []string `json:"details,omitempty"`
}

type SecurityAnalysisView struct {
	Card
	Timestamp       string              `json:"timestamp,omitempty"`
	Summary         []StatTile          `json:"summary,omitempty"`
	Vulnerabilities []VulnerabilityRow  `json:"vulnerabilities,omitempty"`
	Threats         []ThreatFinding     `json:"threats,omitempty"`
	Recommendations []RecommendationRow `json:"recommendations,omitempty"`
}

func BuildSecurityAnalysis(a *models.SecurityAnalysis) SecurityAnalysisView {
	v := SecurityAnalysisView{Card: Card{Title: "Security Analysis Report"}}
	if a == nil || a.Summary == nil {
		v.Loading = true
		return v
	}
	v.Timestamp = FormatTimestamp(a.Timestamp)
	v.Summary = []StatTile{
		{Label: "Total Issues", Value: humanize.Comma(int64(a.Summary.TotalVulnerabilities))},
		{Label: "Critical", Value: humanize.Comma(int64(a.Summary.CriticalCount)), Class: "text-red-500"},
		{Label: "High", Value: humanize.Comma(int64(a.Summary.HighCount)), Class: "text-orange-500"},
		{Label: "Medium", Value: humanize.Comma(int64(a.Summary.MediumCount)), Class: "text-yellow-500"},
	}
	for _, vuln := range a.Vulnerabilities {
		v.Vulnerabilities = append(v.Vulnerabilities, VulnerabilityRow{
			Severity:    AnalysisSeverityBadge(vuln.Severity),
			Endpoint:    vuln.Host + ":" + vuln.Port,
			Title:       vuln.Service + " - " + vuln.Vulnerability,
			Description: vuln.Description,
		})
	}
	for _, t := range a.Threats {
		v.Threats = append(v.Threats, ThreatFinding{
			Type:       t.Type,
			Device:     t.Device,
			Details:    t.Details,
			Risk:       AnalysisSeverityBadge(t.RiskLevel),
			Mitigation: t.Mitigation,
		})
	}
	for _, r := range a.Recommendations {
		v.Recommendations = append(v.Recommendations, RecommendationRow{
			Priority: AnalysisSeverityBadge(r.Priority),
			Service:  r.Service,
			Reason:   r.Reason,
			Action:   r.Action,
			Details:  r.Details,
		})
	}
	return v
}
