package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	LED           LEDJSON    `json:"led"`
	Counts        CountsJSON `json:"event_counts"`
	Config        ConfigJSON `json:"config"`
}

// LEDJSON reports the blink feature state.
type LEDJSON struct {
	Enabled bool   `json:"enabled"`
	State   string `json:"state"`
}

// CountsJSON is the JSON representation of pipeline counters.
type CountsJSON struct {
	Edges          uint64 `json:"edges"`
	Evaluations    uint64 `json:"evaluations"`
	Presses        uint64 `json:"presses"`
	Rejected       uint64 `json:"rejected"`
	Dropped        uint64 `json:"dropped"`
	Reports        uint64 `json:"reports"`
	ReportFailures uint64 `json:"report_failures"`
	Toggles        uint64 `json:"toggles"`
}

// ConfigJSON is the JSON representation of the timing configuration.
type ConfigJSON struct {
	DebounceMs     int64 `json:"debounce_ms"`
	BlinkMs        int64 `json:"blink_ms"`
	ConsumerWaitMs int64 `json:"consumer_wait_ms"`
	QueueDepth     int   `json:"queue_depth"`
}

func buildInner(snap Snapshot) StatusInner {
	led := "OFF"
	if !snap.LEDEnabled {
		led = "ABSENT"
	} else if snap.LEDOn {
		led = "ON"
	}

	c := snap.Counts
	return StatusInner{
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		LED:           LEDJSON{Enabled: snap.LEDEnabled, State: led},
		Counts: CountsJSON{
			Edges:          c.Edges,
			Evaluations:    c.Evaluations,
			Presses:        c.Presses,
			Rejected:       c.Rejected,
			Dropped:        c.Dropped,
			Reports:        c.Reports,
			ReportFailures: c.ReportFailures,
			Toggles:        c.Toggles,
		},
		Config: ConfigJSON{
			DebounceMs:     snap.Config.DebounceMs,
			BlinkMs:        snap.Config.BlinkMs,
			ConsumerWaitMs: snap.Config.ConsumerWaitMs,
			QueueDepth:     snap.Config.QueueDepth,
		},
	}
}

// FormatJSON returns the indented JSON status.
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}
