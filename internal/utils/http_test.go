package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusMessage(t *testing.T) {
	assert.Equal(t, "Not Found", StatusMessage(404))
	assert.Equal(t, "Bad Gateway", StatusMessage(502))
	assert.Equal(t, "Request failed", StatusMessage(599))
}

func TestIsJSONContentType(t *testing.T) {
	assert.True(t, IsJSONContentType("application/json"))
	assert.True(t, IsJSONContentType("Application/JSON; charset=utf-8"))
	assert.False(t, IsJSONContentType("text/html"))
	assert.False(t, IsJSONContentType(""))
}

func TestPathSegment(t *testing.T) {
	assert.Equal(t, "192.168.1.0%2F24", PathSegment("192.168.1.0/24"))
	assert.Equal(t, "a@b.com", PathSegment("a@b.com"))
}

func TestReportFilename(t *testing.T) {
	assert.Equal(t, "Security_Report_10.0.0.0_24.pdf", ReportFilename("10.0.0.0/24"))
	assert.Equal(t, "Security_Report_a_b.pdf", ReportFilename(`a\b`))
}

func TestFormatTimeForAPI(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.FixedZone("X", 3600))
	assert.Equal(t, "2023-12-31T23:00:00Z", FormatTimeForAPI(ts))
}
