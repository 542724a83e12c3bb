package models

import "strings"

const (
	StatusOnline  = "Online"
	StatusOffline = "Offline"
)

// Device is one host discovered by a network scan. IP is the de-facto key.
type Device struct {
	Name     string   `json:"name"`
	IP       string   `json:"ip" validate:"required"`
	Status   string   `json:"status" validate:"required,oneof=Online Offline"`
	LastSeen string   `json:"lastSeen"`
	Ports    []string `json:"ports,omitempty"`
	OS       string   `json:"os,omitempty"`
}

// PortEntry splits a "port/service" string. A missing service is empty.
func PortEntry(entry string) (port, service string) {
	port, service, _ = strings.Cut(entry, "/")
	return port, service
}

type TrafficData struct {
	Inbound    []float64 `json:"inbound"`
	Outbound   []float64 `json:"outbound"`
	Timestamps []string  `json:"timestamps,omitempty"`
}

type NetworkData struct {
	TrafficData *TrafficData `json:"trafficData" validate:"required"`
}

// ScanResult is the payload of /network/scan/{ip} and /network/traffic.
type ScanResult struct {
	Devices     []Device     `json:"devices" validate:"dive"`
	NetworkData *NetworkData `json:"networkData" validate:"required"`
}

type AnalysisSummary struct {
	TotalVulnerabilities int `json:"totalVulnerabilities"`
	CriticalCount        int `json:"criticalCount"`
	HighCount            int `json:"highCount"`
	MediumCount          int `json:"mediumCount"`
}

type AnalysisVulnerability struct {
	Severity      string `json:"severity"`
	Host          string `json:"host"`
	Port          string `json:"port"`
	Service       string `json:"service"`
	Vulnerability string `json:"vulnerability"`
	Description   string `json:"description"`
}

type AnalysisThreat struct {
	Type       string `json:"type"`
	Device     string `json:"device"`
	Details    string `json:"details"`
	RiskLevel  string `json:"riskLevel"`
	Mitigation string `json:"mitigation"`
}

type AnalysisRecommendation struct {
	Priority string   `json:"priority"`
	Service  string   `json:"service"`
	Reason   string   `json:"reason"`
	Action   string   `json:"action"`
	Details  []string `json:"details"`
}

// SecurityAnalysis is the payload of /network/analysis/{ipRange}.
type SecurityAnalysis struct {
	Timestamp       string                   `json:"timestamp"`
	Summary         *AnalysisSummary         `json:"summary" validate:"required"`
	Vulnerabilities []AnalysisVulnerability  `json:"vulnerabilities"`
	Threats         []AnalysisThreat         `json:"threats,omitempty"`
	Recommendations []AnalysisRecommendation `json:"recommendations"`
}
