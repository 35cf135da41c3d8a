package logger

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Took returns the time since start rounded to milliseconds.
func Took(start time.Time) time.Duration {
	return RoundMS(time.Since(start))
}

// RoundMS rounds d to milliseconds; negative durations become zero.
func RoundMS(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond)
}

// ListAttr renders up to limit values as one comma separated attribute,
// noting how many were left out.
func ListAttr(key string, values []string, limit int) slog.Attr {
	if limit <= 0 || len(values) <= limit {
		if limit <= 0 && len(values) > 0 {
			return slog.String(key, fmt.Sprintf("(%d items)", len(values)))
		}
		return slog.String(key, strings.Join(values, ", "))
	}
	shown := strings.Join(values[:limit], ", ")
	return slog.String(key, fmt.Sprintf("%s (+%d more)", shown, len(values)-limit))
}
