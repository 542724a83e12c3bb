package models

type Latency struct {
	Current           float64 `json:"current"`
	HistoricalAverage float64 `json:"historicalAverage"`
}

type Bandwidth struct {
	UsagePercentage float64 `json:"usagePercentage"`
	CurrentUsage    struct {
		Upload   float64 `json:"upload"`
		Download float64 `json:"download"`
	} `json:"currentUsage"`
	Capacity float64 `json:"capacity"`
}

type SpeedTest struct {
	Download string `json:"download"`
	Units    string `json:"units"`
}

type InterfaceStatus struct {
	Name           string `json:"name"`
	IP             string `json:"ip"`
	ConnectionType string `json:"connectionType"`
	Duplex         string `json:"duplex"`
	IsConnected    bool   `json:"isConnected"`
}

type Connections struct {
	Ethernet int `json:"ethernet"`
	WiFi     int `json:"wifi"`
}

type HealthStatus struct {
	Score      float64 `json:"score"`
	Components struct {
		Latency   float64 `json:"latency"`
		Bandwidth float64 `json:"bandwidth"`
	} `json:"components"`
	Label string `json:"label"`
}

// NetworkHealth is the dashboard tile snapshot from /dashboard/network-health.
type NetworkHealth struct {
	Latency         *Latency         `json:"latency" validate:"required"`
	Bandwidth       *Bandwidth       `json:"bandwidth" validate:"required"`
	SpeedTest       *SpeedTest       `json:"speedTest"`
	InterfaceStatus *InterfaceStatus `json:"interfaceStatus" validate:"required"`
	Connections     *Connections     `json:"connections"`
	HealthStatus    *HealthStatus    `json:"healthStatus" validate:"required"`
}

// ThreatCounts is the /dashboard/threats snapshot.
type ThreatCounts struct {
	LowRisk    int `json:"lowRisk"`
	MediumRisk int `json:"mediumRisk"`
	HighRisk   int `json:"highRisk"`
}

type Alert struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Severity  string            `json:"severity"`
	Message   string            `json:"message"`
	Source    string            `json:"source"`
	Details   map[string]string `json:"details"`
	Timestamp string            `json:"timestamp"`
}

// AlertsData is the /dashboard/alerts snapshot.
type AlertsData struct {
	Total      int            `json:"total"`
	Critical   int            `json:"critical"`
	Warning    int            `json:"warning"`
	Categories map[string]int `json:"categories"`
	Alerts     []Alert        `json:"alerts"`
}

// SecurityScore is shared by /dashboard/security-score and /threat-analysis.
type SecurityScore struct {
	Secure      float64 `json:"secure"`
	AtRisk      float64 `json:"atRisk"`
	LastUpdated string  `json:"lastUpdated,omitempty"`
}
