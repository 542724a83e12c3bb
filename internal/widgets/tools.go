package widgets

import (
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/secflow/secflow/internal/models"
)

type VulnerabilityItem struct {
	Title           string   `json:"title"`
	Script          string   `json:"script,omitempty"`
	State           string   `json:"state,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

type VulnerabilityGroup struct {
	Severity string              `json:"severity"`
	Title    string              `json:"title"`
	Class    string              `json:"class"`
	Items    []VulnerabilityItem `json:"items"`
}

type VulnerabilityScannerView struct {
	Card
	Target  string               `json:"target,omitempty"`
	Summary []Badge              `json:"summary,omitempty"`
	Groups  []VulnerabilityGroup `json:"groups,omitempty"`
}

func BuildVulnerabilityScanner(s *models.VulnerabilityScan) VulnerabilityScannerView {
	v := VulnerabilityScannerView{Card: Card{Title: "Vulnerability Scanner"}}
	if s == nil || s.Summary == nil || s.Vulnerabilities == nil {
		v.Loading = true
		return v
	}
	v.Target = s.Target
	v.Summary = []Badge{
		{Label: "High: " + strconv.Itoa(s.Summary.High), Class: "destructive"},
		{Label: "Medium: " + strconv.Itoa(s.Summary.Medium), Class: "warning"},
		{Label: "Low: " + strconv.Itoa(s.Summary.Low), Class: "secondary"},
	}
	v.Groups = []VulnerabilityGroup{
		vulnerabilityGroup("High", "text-red-500", s.Vulnerabilities.High),
		vulnerabilityGroup("Medium", "text-yellow-500", s.Vulnerabilities.Medium),
		vulnerabilityGroup("Low", "text-blue-500", s.Vulnerabilities.Low),
	}
	return v
}

func vulnerabilityGroup(severity, class string, vulns []models.Vulnerability) VulnerabilityGroup {
	g := VulnerabilityGroup{
		Severity: severity,
		Title:    severity + " Severity Vulnerabilities (" + strconv.Itoa(len(vulns)) + ")",
		Class:    class,
		Items:    []VulnerabilityItem{},
	}
	for _, vuln := range vulns {
		g.Items = append(g.Items, VulnerabilityItem{
			Title:           "Port " + vuln.Port + " (" + vuln.Service + ")",
			Script:          vuln.ScriptID,
			State:           vuln.State,
			Recommendations: vuln.Recommendations,
		})
	}
	return g
}

type BreachCard struct {
	Name        string `json:"name"`
	Subtitle    string `json:"subtitle"`
	Description string `json:"description"`
}

type DarkWebView struct {
	Card
	Email    string       `json:"email,omitempty"`
	Breaches []BreachCard `json:"breaches,omitempty"`
	Clean    bool         `json:"clean,omitempty"`
}

func BuildDarkWebMonitor(r *models.DarkWebResult) DarkWebView {
	v := DarkWebView{Card: Card{Title: "Dark Web Monitor"}}
	if r == nil {
		v.Loading = true
		return v
	}
	v.Email = r.Email
	for _, b := range r.Breaches {
		v.Breaches = append(v.Breaches, BreachCard{
			Name:        b.Name,
			Subtitle:    b.Domain + " - " + b.BreachDate,
			Description: b.Description,
		})
	}
	v.Clean = len(v.Breaches) == 0
	return v
}

type RiskAssessment struct {
	Level        Badge  `json:"level"`
	Confidence   string `json:"confidence"`
	LastReported string `json:"lastReported"`
}

type IPReputationView struct {
	Card
	Quota   []Field         `json:"quota,omitempty"`
	Risk    *RiskAssessment `json:"risk,omitempty"`
	Facts   []Field         `json:"facts,omitempty"`
	Badges  []Badge         `json:"badges,omitempty"`
	Reports []string        `json:"reports,omitempty"`
}

// BuildIPReputation renders a threat-check result. Private addresses have
// no public reputation, so the risk group is left out for them.
func BuildIPReputation(r *models.IPReputation) IPReputationView {
	v := IPReputationView{Card: Card{Title: "IP Reputation"}}
	if r == nil || r.IPDetails == nil {
		v.Loading = true
		return v
	}
	d := r.IPDetails

	if r.QuotaStatus != nil {
		v.Quota = []Field{{Label: "Checks", Value: r.QuotaStatus.Check}, {Label: "Reports", Value: r.QuotaStatus.Reports}}
	}
	if d.IsPublic && r.Summary != nil {
		v.Risk = &RiskAssessment{
			Level:        RiskLevelBadge(r.Summary.RiskLevel),
			Confidence:   "Confidence Score: " + FormatNumber(r.Summary.ConfidenceScore) + "%",
			LastReported: orNA(r.Summary.LastReported),
		}
	}

	v.Facts = []Field{
		{Label: "IP Address", Value: d.IP},
		{Label: "Version", Value: "IPv" + strconv.Itoa(d.IPVersion)},
		{Label: "Usage Type", Value: orNA(d.UsageType)},
		{Label: "ISP", Value: derefNA(d.ISP)},
		{Label: "Domain", Value: derefNA(d.Domain)},
		{Label: "Country", Value: derefNA(d.CountryCode)},
		{Label: "Total Reports", Value: humanize.Comma(int64(d.TotalReports))},
	}

	if d.IsPublic {
		v.Badges = append(v.Badges, Badge{Label: "Public IP", Class: "default"})
	} else {
		v.Badges = append(v.Badges, Badge{Label: "Private IP", Class: "secondary"})
	}
	if d.IsWhitelisted != nil && *d.IsWhitelisted {
		v.Badges = append(v.Badges, Badge{Label: "Whitelisted", Class: "outline"})
	}
	v.Reports = r.Reports
	return v
}

type PredictionRow struct {
	Index      int      `json:"index"`
	Label      Badge    `json:"label"`
	Confidence Progress `json:"confidence"`
	Percent    string   `json:"percent"`
}

type APTView struct {
	Card
	Status  string          `json:"status,omitempty"`
	Message string          `json:"message,omitempty"`
	Rows    []PredictionRow `json:"rows,omitempty"`
}

func BuildAPTResults(r *models.APTResult) APTView {
	v := APTView{Card: Card{Title: "APT Detection Results"}}
	if r == nil {
		v.Loading = true
		return v
	}
	v.Status = r.Status
	v.Message = r.Message
	for _, p := range r.Predictions {
		v.Rows = append(v.Rows, PredictionRow{
			Index:      p.Index,
			Label:      PredictionBadge(p.Prediction),
			Confidence: ProgressFor(p.Confidence * 100),
			Percent:    FormatRatio(p.Confidence),
		})
	}
	return v
}
