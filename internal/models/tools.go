package models

type Vulnerability struct {
	IP              string   `json:"ip"`
	Port            string   `json:"port"`
	Service         string   `json:"service"`
	Vulnerability   string   `json:"vulnerability"`
	Severity        string   `json:"severity"`
	Description     string   `json:"description"`
	ScriptID        string   `json:"scriptId,omitempty"`
	State           string   `json:"state,omitempty"`
	Recommendations []string `json:"recommendations"`
}

type VulnerabilityBuckets struct {
	High   []Vulnerability `json:"high"`
	Medium []Vulnerability `json:"medium"`
	Low    []Vulnerability `json:"low"`
}

type ScanSummary struct {
	Total  int `json:"total"`
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// VulnerabilityScan is the payload of /vulnerability/scan/{target}.
type VulnerabilityScan struct {
	Target          string                `json:"target"`
	Summary         *ScanSummary          `json:"summary" validate:"required"`
	Vulnerabilities *VulnerabilityBuckets `json:"vulnerabilities" validate:"required"`
}

type Breach struct {
	Name        string `json:"name" validate:"required"`
	Domain      string `json:"domain"`
	BreachDate  string `json:"breachDate"`
	Description string `json:"description"`
}

// DarkWebResult is the payload of /advanced-network/dark-web/{email}.
type DarkWebResult struct {
	Email    string   `json:"email"`
	Breaches []Breach `json:"breaches" validate:"dive"`
}

type IPDetails struct {
	IP                   string  `json:"ip" validate:"required"`
	IsPublic             bool    `json:"isPublic"`
	IPVersion            int     `json:"ipVersion"`
	IsWhitelisted        *bool   `json:"isWhitelisted"`
	AbuseConfidenceScore float64 `json:"abuseConfidenceScore"`
	CountryCode          *string `json:"countryCode"`
	UsageType            string  `json:"usageType"`
	ISP                  *string `json:"isp"`
	Domain               *string `json:"domain"`
	TotalReports         int     `json:"totalReports"`
	LastReportedAt       *string `json:"lastReportedAt"`
}

type QuotaStatus struct {
	Check   string `json:"check"`
	Reports string `json:"reports"`
}

type ReputationSummary struct {
	TotalReports    int     `json:"totalReports"`
	ConfidenceScore float64 `json:"confidenceScore"`
	LastReported    string  `json:"lastReported"`
	RiskLevel       string  `json:"riskLevel"`
}

// IPReputation is the payload of /advanced-network/threat-check/{ip}.
type IPReputation struct {
	IPDetails   *IPDetails         `json:"ipDetails" validate:"required"`
	Reports     []string           `json:"reports"`
	QuotaStatus *QuotaStatus       `json:"quotaStatus"`
	Summary     *ReputationSummary `json:"summary"`
}
