// Package widgets shapes typed backend payloads into render-ready views.
// Every builder is pure and accepts a nil input, returning a loading view.
package widgets

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
)

// Card is the header every widget view carries.
type Card struct {
	Title   string `json:"title"`
	Loading bool   `json:"loading,omitempty"`
}

type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Progress is a bar whose width is a percentage clamped to 0..100.
type Progress struct {
	Value float64 `json:"value"`
	Style string  `json:"style"`
}

func ProgressFor(percent float64) Progress {
	p := ClampPercent(percent)
	return Progress{Value: p, Style: "width: " + FormatNumber(p) + "%"}
}

func ClampPercent(p float64) float64 {
	switch {
	case math.IsNaN(p) || p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

// TimestampLayout renders a short date and medium time, e.g. 1/2/24, 3:04:05 PM.
const TimestampLayout = "1/2/06, 3:04:05 PM"

var timestampInputs = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampInputs {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatTimestamp renders s in its own zone. Unparsable input is returned
// unchanged.
func FormatTimestamp(s string) string {
	t, ok := parseTimestamp(s)
	if !ok {
		return s
	}
	return t.Format(TimestampLayout)
}

// FormatBytes renders a byte count in SI units ("1.2 kB").
func FormatBytes(b float64) string {
	if b <= 0 || math.IsNaN(b) {
		return "0 B"
	}
	return humanize.Bytes(uint64(b))
}

// FormatNumber prints f without trailing zeros.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// FormatRatio renders a 0..1 confidence as a one-decimal percentage.
func FormatRatio(r float64) string {
	return fmt.Sprintf("%.1f%%", r*100)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func derefNA(s *string) string {
	if s == nil {
		return "N/A"
	}
	return orNA(*s)
}
