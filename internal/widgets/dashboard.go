package widgets

import (
	"sort"

	"github.com/dustin/go-humanize"

	"github.com/secflow/secflow/internal/models"
)

type DoughnutChart struct {
	Labels      []string  `json:"labels"`
	Values      []float64 `json:"values"`
	Colors      []string  `json:"colors"`
	HoverColors []string  `json:"hoverColors"`
	Cutout      string    `json:"cutout"`
}

type StatTile struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Class string `json:"class,omitempty"`
	Icon  string `json:"icon,omitempty"`
}

type SecurityScoreView struct {
	Card
	Chart  *DoughnutChart `json:"chart,omitempty"`
	Center string         `json:"center,omitempty"`
	Tiles  []StatTile     `json:"tiles,omitempty"`
}

func BuildSecurityScore(s *models.SecurityScore) SecurityScoreView {
	v := SecurityScoreView{Card: Card{Title: "Security Score"}}
	if s == nil {
		v.Loading = true
		return v
	}
	v.Chart = &DoughnutChart{
		Labels:      []string{"Secure", "At Risk"},
		Values:      []float64{s.Secure, s.AtRisk},
		Colors:      []string{"#2E7D32", "#C62828"},
		HoverColors: []string{"#1B5E20", "#8E0000"},
		Cutout:      "75%",
	}
	v.Center = FormatNumber(s.Secure) + "%"
	v.Tiles = []StatTile{
		{Label: "Secure Assets", Value: FormatNumber(s.Secure) + "%", Class: "bg-green-50 dark:bg-green-900/20"},
		{Label: "At Risk Assets", Value: FormatNumber(s.AtRisk) + "%", Class: "bg-red-50 dark:bg-red-900/20"},
	}
	return v
}

type ThreatOverviewView struct {
	Card
	Tiles []StatTile `json:"tiles,omitempty"`
}

func BuildThreatOverview(t *models.ThreatCounts) ThreatOverviewView {
	v := ThreatOverviewView{Card: Card{Title: "Threat Overview"}}
	if t == nil {
		v.Loading = true
		return v
	}
	v.Tiles = riskTiles(t.LowRisk, t.MediumRisk, t.HighRisk)
	return v
}

func riskTiles(low, medium, high int) []StatTile {
	return []StatTile{
		{Label: "Low Risk", Value: humanize.Comma(int64(low)), Class: "bg-green-50 dark:bg-green-900/20", Icon: "shield"},
		{Label: "Medium Risk", Value: humanize.Comma(int64(medium)), Class: "bg-yellow-50 dark:bg-yellow-900/20", Icon: "alert-triangle"},
		{Label: "High Risk", Value: humanize.Comma(int64(high)), Class: "bg-red-50 dark:bg-red-900/20", Icon: "x-circle"},
	}
}

type NetworkHealthView struct {
	Card
	Connection  *Badge    `json:"connection,omitempty"`
	HealthLabel string    `json:"healthLabel,omitempty"`
	Health      *Progress `json:"health,omitempty"`
	Stats       []Field   `json:"stats,omitempty"`
	Usage       []Field   `json:"usage,omitempty"`
	Connections string    `json:"connections,omitempty"`
	Interface   []Field   `json:"interface,omitempty"`
}

func BuildNetworkHealth(h *models.NetworkHealth) NetworkHealthView {
	v := NetworkHealthView{Card: Card{Title: "Network Health"}}
	if h == nil || h.InterfaceStatus == nil || h.HealthStatus == nil || h.Latency == nil || h.Bandwidth == nil {
		v.Loading = true
		return v
	}

	if h.InterfaceStatus.IsConnected {
		v.Connection = &Badge{Label: "Connected", Class: "success"}
	} else {
		v.Connection = &Badge{Label: "Disconnected", Class: "destructive"}
	}
	v.HealthLabel = h.HealthStatus.Label
	health := ProgressFor(h.HealthStatus.Score)
	v.Health = &health

	v.Stats = []Field{
		{Label: "Current Latency", Value: FormatNumber(h.Latency.Current) + " ms"},
		{Label: "Average Latency", Value: "Avg: " + FormatNumber(h.Latency.HistoricalAverage) + " ms"},
		{Label: "Bandwidth Usage", Value: FormatNumber(ClampPercent(h.Bandwidth.UsagePercentage)) + "%"},
		{Label: "Capacity", Value: "Capacity: " + FormatNumber(h.Bandwidth.Capacity) + " Mbps"},
	}
	v.Usage = []Field{
		{Label: "Upload", Value: FormatBytes(h.Bandwidth.CurrentUsage.Upload) + "/s"},
		{Label: "Download", Value: FormatBytes(h.Bandwidth.CurrentUsage.Download) + "/s"},
	}
	if h.Connections != nil {
		v.Connections = "Ethernet: " + humanize.Comma(int64(h.Connections.Ethernet)) + ", WiFi: " + humanize.Comma(int64(h.Connections.WiFi))
	}

	speed := "N/A"
	if h.SpeedTest != nil && h.SpeedTest.Download != "" {
		speed = h.SpeedTest.Download + " " + h.SpeedTest.Units
	}
	v.Interface = []Field{
		{Label: "Name", Value: orNA(h.InterfaceStatus.Name)},
		{Label: "Type", Value: orNA(h.InterfaceStatus.ConnectionType)},
		{Label: "IP", Value: orNA(h.InterfaceStatus.IP)},
		{Label: "Speed", Value: speed},
	}
	return v
}

type CategoryTile struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
	Class string `json:"class"`
	Icon  string `json:"icon"`
}

type AlertRow struct {
	ID       string  `json:"id"`
	Icon     string  `json:"icon"`
	Source   string  `json:"source"`
	Message  string  `json:"message"`
	Severity Badge   `json:"severity"`
	Details  []Field `json:"details,omitempty"`

	// Timestamp is the backend's raw time; the client renders it relative
	// to its own clock.
	Timestamp string `json:"timestamp"`
	When      string `json:"when"`
}

type RecentAlertsView struct {
	Card
	Total      int            `json:"total"`
	Warning    int            `json:"warning,omitempty"`
	Critical   int            `json:"critical,omitempty"`
	Categories []CategoryTile `json:"categories,omitempty"`
	Alerts     []AlertRow     `json:"alerts,omitempty"`
}

// BuildRecentAlerts depends only on a, so an unchanged payload renders an
// identical view.
func BuildRecentAlerts(a *models.AlertsData) RecentAlertsView {
	v := RecentAlertsView{Card: Card{Title: "Recent Alerts"}}
	if a == nil {
		v.Loading = true
		return v
	}
	v.Total = a.Total
	v.Warning = a.Warning
	v.Critical = a.Critical

	names := make([]string, 0, len(a.Categories))
	for name := range a.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		count := a.Categories[name]
		class := PillYellow
		if count == 0 {
			class = PillGray
		}
		v.Categories = append(v.Categories, CategoryTile{Name: name, Count: count, Class: class, Icon: AlertIcon(name)})
	}

	for _, al := range a.Alerts {
		row := AlertRow{
			ID:        al.ID,
			Icon:      AlertIcon(al.Type),
			Source:    al.Source,
			Message:   al.Message,
			Severity:  AlertSeverityBadge(al.Severity),
			Timestamp: al.Timestamp,
			When:      FormatTimestamp(al.Timestamp),
		}
		keys := make([]string, 0, len(al.Details))
		for k, val := range al.Details {
			if val != "" {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			row.Details = append(row.Details, Field{Label: k, Value: al.Details[k]})
		}
		v.Alerts = append(v.Alerts, row)
	}
	return v
}
