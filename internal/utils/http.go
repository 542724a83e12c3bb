package utils

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

// StatusMessage returns the status text surfaced for a non-2xx response.
func StatusMessage(status int) string {
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "Request failed"
}

// IsJSONContentType reports whether a Content-Type header carries JSON.
func IsJSONContentType(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "application/json")
}

// PathSegment escapes a user-supplied value for use as one path segment.
func PathSegment(value string) string {
	return url.PathEscape(value)
}

func FormatTimeForAPI(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ReportFilename builds the download name used for generated PDF reports.
func ReportFilename(target string) string {
	safe := strings.NewReplacer("/", "_", `\`, "_").Replace(target)
	return "Security_Report_" + safe + ".pdf"
}
