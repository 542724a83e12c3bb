package widgets

import (
	"strings"

	"github.com/secflow/secflow/internal/models"
)

type Badge struct {
	Label string `json:"label"`
	Class string `json:"class"`
}

// Pill styles used by tables and alert rows.
const (
	PillGreen  = "bg-green-100 text-green-800 dark:bg-green-900/30 dark:text-green-300"
	PillYellow = "bg-yellow-100 text-yellow-800 dark:bg-yellow-900/30 dark:text-yellow-300"
	PillRed    = "bg-red-100 text-red-800 dark:bg-red-900/30 dark:text-red-300"
	PillGray   = "bg-gray-100 text-gray-800 dark:bg-gray-900/30 dark:text-gray-300"

	statusOnline  = "bg-green-100 text-green-800 dark:bg-green-900 dark:text-green-100"
	statusOffline = "bg-red-100 text-red-800 dark:bg-red-900 dark:text-red-100"
)

// Solid styles used by severity and risk badges.
const (
	SolidRed    = "bg-red-500"
	SolidOrange = "bg-orange-500"
	SolidYellow = "bg-yellow-500"
	SolidGreen  = "bg-green-500"
	SolidBlue   = "bg-blue-500"
	SolidGray   = "bg-gray-500"
)

var (
	threatSeverity = map[string]string{
		"low":    PillGreen,
		"medium": PillYellow,
		"high":   PillRed,
	}
	alertSeverity = map[string]string{
		"critical": PillRed,
		"warning":  PillYellow,
	}
	vulnerabilitySeverity = map[string]string{
		"high":   SolidRed,
		"medium": SolidYellow,
		"low":    SolidBlue,
	}
	analysisSeverity = map[string]string{
		"critical": SolidRed,
		"high":     SolidOrange,
		"medium":   SolidYellow,
		"low":      SolidBlue,
	}
	riskLevel = map[string]string{
		"safe":   SolidGreen,
		"medium": SolidYellow,
		"high":   SolidRed,
	}
)

// lookup is case-insensitive and falls back for unknown keys.
func lookup(table map[string]string, key, fallback string) string {
	if c, ok := table[strings.ToLower(strings.TrimSpace(key))]; ok {
		return c
	}
	return fallback
}

func ThreatSeverityBadge(sev string) Badge {
	return Badge{Label: sev, Class: lookup(threatSeverity, sev, PillGray)}
}

func AlertSeverityBadge(sev string) Badge {
	return Badge{Label: sev, Class: lookup(alertSeverity, sev, PillGray)}
}

func VulnerabilitySeverityBadge(sev string) Badge {
	return Badge{Label: sev, Class: lookup(vulnerabilitySeverity, sev, SolidGray)}
}

func AnalysisSeverityBadge(sev string) Badge {
	return Badge{Label: sev, Class: lookup(analysisSeverity, sev, SolidGray)}
}

func RiskLevelBadge(level string) Badge {
	return Badge{Label: level, Class: lookup(riskLevel, level, SolidGray)}
}

// DeviceStatusBadge is green for Online and red for anything else.
func DeviceStatusBadge(status string) Badge {
	if status == models.StatusOnline {
		return Badge{Label: status, Class: statusOnline}
	}
	return Badge{Label: status, Class: statusOffline}
}

// PredictionBadge is green for NormalTraffic and red for any attack class.
func PredictionBadge(label string) Badge {
	if label == "NormalTraffic" {
		return Badge{Label: label, Class: PillGreen}
	}
	return Badge{Label: label, Class: PillRed}
}

var alertIcons = map[string]string{
	"security": "lock",
	"system":   "activity",
	"network":  "network",
	"storage":  "database",
}

// AlertIcon names the icon for an alert type or category.
func AlertIcon(kind string) string {
	return lookup(alertIcons, kind, "alert-circle")
}
