package models

type Threat struct {
	ID        int    `json:"id"`
	Type      string `json:"type"`
	Severity  string `json:"severity"`
	Source    string `json:"source"`
	Timestamp string `json:"timestamp"`
	Details   string `json:"details"`
	Status    string `json:"status"`
}

type ThreatNetworkData struct {
	Threats     []Threat     `json:"threats"`
	TrafficData *TrafficData `json:"trafficData"`
}

type ThreatDevice struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	IP       string `json:"ip"`
	Status   string `json:"status"`
	LastSeen string `json:"lastSeen"`
	Type     string `json:"type"`
	Risk     string `json:"risk"`
}

type ThreatTrend struct {
	Daily   string `json:"daily"`
	Weekly  string `json:"weekly"`
	Monthly string `json:"monthly"`
}

type ThreatMetrics struct {
	LowRisk    int         `json:"lowRisk"`
	MediumRisk int         `json:"mediumRisk"`
	HighRisk   int         `json:"highRisk"`
	Total      int         `json:"total"`
	Trend      ThreatTrend `json:"trend"`
}

type HealthSnapshot struct {
	Uptime         float64 `json:"uptime"`
	Latency        float64 `json:"latency"`
	PacketLoss     float64 `json:"packetLoss"`
	BandwidthUsage float64 `json:"bandwidthUsage"`
	Timestamp      string  `json:"timestamp"`
}

// ThreatAnalysis is the aggregate /threat-analysis snapshot. Every top-level
// key is mandatory.
type ThreatAnalysis struct {
	NetworkData   *ThreatNetworkData `json:"networkData" validate:"required"`
	Devices       []ThreatDevice     `json:"devices" validate:"required"`
	SecurityScore *SecurityScore     `json:"securityScore" validate:"required"`
	ThreatMetrics *ThreatMetrics     `json:"threatMetrics" validate:"required"`
	NetworkHealth *HealthSnapshot    `json:"networkHealth" validate:"required"`
}
