package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// The exam runner and the historical Excel imports wrote timestamps in
// three shapes: RFC3339 strings, bare unix-epoch seconds, and the
// document-store wrapper object {"seconds":N,"nanos":M}. ParseDocTime is
// the single place that normalizes them; everything above the store only
// ever sees time.Time.
func ParseDocTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}

	if strings.HasPrefix(raw, "{") {
		var w struct {
			Seconds int64 `json:"seconds"`
			Nanos   int64 `json:"nanos"`
		}
		if err := json.Unmarshal([]byte(raw), &w); err != nil {
			return time.Time{}, fmt.Errorf("parse timestamp wrapper %q: %w", raw, err)
		}
		return time.Unix(w.Seconds, w.Nanos).UTC(), nil
	}

	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}

	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}

// parseDocTimeLenient is the scan-path variant: malformed timestamps in
// legacy rows degrade to the zero time instead of failing the whole read.
func parseDocTimeLenient(raw string) time.Time {
	t, _ := ParseDocTime(raw)
	return t
}

func formatDocTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
