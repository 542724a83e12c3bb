package widgets

import (
	"github.com/dustin/go-humanize"

	"github.com/secflow/secflow/internal/models"
)

type ThreatRow struct {
	ID       int    `json:"id"`
	Type     string `json:"type"`
	Severity Badge  `json:"severity"`
	Source   string `json:"source"`
	Time     string `json:"time"`
	Details  string `json:"details,omitempty"`
	Status   string `json:"status,omitempty"`
}

type RiskDeviceRow struct {
	Name     string `json:"name"`
	IP       string `json:"ip"`
	Status   Badge  `json:"status"`
	Type     string `json:"type,omitempty"`
	Risk     Badge  `json:"risk"`
	LastSeen string `json:"lastSeen"`
}

type ThreatAnalysisView struct {
	Card
	Subtitle string            `json:"subtitle"`
	Score    SecurityScoreView `json:"score"`
	Metrics  []StatTile        `json:"metrics,omitempty"`
	Trend    []Field           `json:"trend,omitempty"`
	Health   []Field           `json:"health,omitempty"`
	Usage    *Progress         `json:"usage,omitempty"`
	Threats  []ThreatRow       `json:"threats,omitempty"`
	Devices  []RiskDeviceRow   `json:"devices,omitempty"`
	Traffic  *LineChart        `json:"traffic,omitempty"`
}

// BuildThreatAnalysis lays out the threat analysis page from one snapshot.
func BuildThreatAnalysis(a *models.ThreatAnalysis) ThreatAnalysisView {
	v := ThreatAnalysisView{
		Card:     Card{Title: "APT & Phishing Detection Analysis"},
		Subtitle: "Monitor network traffic and analyze URLs for threats",
	}
	if a == nil {
		v.Loading = true
		v.Score = BuildSecurityScore(nil)
		return v
	}

	v.Score = BuildSecurityScore(a.SecurityScore)

	if m := a.ThreatMetrics; m != nil {
		v.Metrics = append(riskTiles(m.LowRisk, m.MediumRisk, m.HighRisk),
			StatTile{Label: "Total Threats", Value: humanize.Comma(int64(m.Total))})
		v.Trend = []Field{
			{Label: "Daily", Value: orNA(m.Trend.Daily)},
			{Label: "Weekly", Value: orNA(m.Trend.Weekly)},
			{Label: "Monthly", Value: orNA(m.Trend.Monthly)},
		}
	}

	if h := a.NetworkHealth; h != nil {
		v.Health = []Field{
			{Label: "Uptime", Value: FormatNumber(h.Uptime) + "%"},
			{Label: "Latency", Value: FormatNumber(h.Latency) + " ms"},
			{Label: "Packet Loss", Value: FormatNumber(h.PacketLoss) + "%"},
			{Label: "Bandwidth Usage", Value: FormatNumber(ClampPercent(h.BandwidthUsage)) + "%"},
		}
		usage := ProgressFor(h.BandwidthUsage)
		v.Usage = &usage
	}

	if nd := a.NetworkData; nd != nil {
		for _, t := range nd.Threats {
			v.Threats = append(v.Threats, ThreatRow{
				ID:       t.ID,
				Type:     t.Type,
				Severity: ThreatSeverityBadge(t.Severity),
				Source:   t.Source,
				Time:     FormatTimestamp(t.Timestamp),
				Details:  t.Details,
				Status:   t.Status,
			})
		}
		if nd.TrafficData != nil {
			v.Traffic = trafficChart(nd.TrafficData)
		}
	}

	for _, d := range a.Devices {
		v.Devices = append(v.Devices, RiskDeviceRow{
			Name:     d.Name,
			IP:       d.IP,
			Status:   DeviceStatusBadge(d.Status),
			Type:     d.Type,
			Risk:     ThreatSeverityBadge(d.Risk),
			LastSeen: FormatTimestamp(d.LastSeen),
		})
	}
	return v
}
