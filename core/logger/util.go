package logger

import (
	"strings"
	"time"
)

const (
	statusOK   = "ok"
	statusFail = "fail"
)

// Status is "ok" for a nil error and "fail" otherwise.
func Status(err error) string {
	if err == nil {
		return statusOK
	}
	return statusFail
}

// RoundMS clamps negative durations to zero and rounds to milliseconds.
func RoundMS(d time.Duration) time.Duration {
	return max(d, 0).Round(time.Millisecond)
}

// SummarizeStrings joins at most limit values with ", ". The flag reports
// whether anything was left out.
func SummarizeStrings(values []string, limit int) (string, bool) {
	n := min(max(limit, 0), len(values))
	return strings.Join(values[:n], ", "), n < len(values)
}
