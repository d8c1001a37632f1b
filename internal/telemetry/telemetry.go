// Package telemetry records opt-in usage events to a local JSONL queue.
// Nothing leaves the machine unless the user runs an explicit flush
// against a configured endpoint.
package telemetry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ostendo/internal/common"
)

const (
	// MaxFlushEvents caps how many queued events a single flush sends.
	MaxFlushEvents = 200

	flushTimeout = 4 * time.Second
	clientName   = "ostendo"
)

// payloadAllowlist limits event payloads to coarse, non-identifying fields.
var payloadAllowlist = map[string]bool{
	"command":               true,
	"status":                true,
	"duration_bucket":       true,
	"preset":                true,
	"image_mode":            true,
	"image_coverage_bucket": true,
	"error_code":            true,
}

// Event is a single queued telemetry record.
type Event struct {
	Event     string         `json:"event"`
	TS        int64          `json:"ts"`
	Anonymous bool           `json:"anonymous"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// StatusInfo describes the local telemetry state for the status command.
type StatusInfo struct {
	Enabled      bool   `json:"enabled"`
	Anonymous    bool   `json:"anonymous"`
	Endpoint     string `json:"endpoint"`
	EventsFile   string `json:"events_file"`
	QueuedEvents int    `json:"queued_events"`
}

// FlushResult reports the outcome of a flush attempt.
type FlushResult struct {
	Status     string `json:"status"`
	Sent       int    `json:"sent"`
	Dropped    int    `json:"dropped,omitempty"`
	Remaining  int    `json:"remaining"`
	WouldSend  int    `json:"would_send,omitempty"`
	Endpoint   string `json:"endpoint"`
	HTTPStatus int    `json:"http_status,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Recorder appends events to the project-local queue. All methods are
// no-ops when telemetry is disabled.
type Recorder struct {
	projectRoot string
	config      common.TelemetryConfig
	logger      arbor.ILogger
	now         func() time.Time
}

func NewRecorder(projectRoot string, cfg common.TelemetryConfig, logger arbor.ILogger) *Recorder {
	return &Recorder{
		projectRoot: projectRoot,
		config:      cfg,
		logger:      logger,
		now:         time.Now,
	}
}

// Record appends an event with a sanitized payload to the local queue.
// Recording never fails a command; errors are logged and swallowed.
func (r *Recorder) Record(event string, payload map[string]any) {
	if !r.config.Enabled || event == "" {
		return
	}

	record := Event{
		Event:     event,
		TS:        r.now().Unix(),
		Anonymous: r.config.Anonymous,
	}
	if safe := sanitizePayload(payload); len(safe) > 0 {
		record.Payload = safe
	}

	path := EventsPath(r.projectRoot)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		r.logger.Warn().Err(err).Msg("Failed to create telemetry directory")
		return
	}

	line, err := json.Marshal(record)
	if err != nil {
		r.logger.Warn().Err(err).Msg("Failed to encode telemetry event")
		return
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		r.logger.Warn().Err(err).Msg("Failed to open telemetry queue")
		return
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		r.logger.Warn().Err(err).Msg("Failed to append telemetry event")
	}
}

// EventsPath returns the JSONL queue location inside the project data dir.
func EventsPath(projectRoot string) string {
	return filepath.Join(projectRoot, ".ostendo", "metrics", "events.jsonl")
}

// DurationBucket maps a duration to a coarse label so flushed events
// never carry precise timings.
func DurationBucket(d time.Duration) string {
	seconds := d.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	switch {
	case seconds < 10:
		return "lt10s"
	case seconds < 30:
		return "10-30s"
	case seconds < 60:
		return "30-60s"
	case seconds < 120:
		return "60-120s"
	default:
		return "gte120s"
	}
}

// Status reports the current telemetry configuration and queue depth.
func Status(projectRoot string, cfg common.TelemetryConfig) StatusInfo {
	return StatusInfo{
		Enabled:      cfg.Enabled,
		Anonymous:    cfg.Anonymous,
		Endpoint:     cfg.Endpoint,
		EventsFile:   EventsPath(projectRoot),
		QueuedEvents: queuedCount(projectRoot),
	}
}

// Flush sends up to maxEvents queued events to the configured endpoint.
// With dryRun set it reports what would be sent without network calls or
// queue changes. Successfully sent events are removed from the queue.
func Flush(projectRoot string, cfg common.TelemetryConfig, maxEvents int, dryRun bool) FlushResult {
	endpoint := strings.TrimSpace(cfg.Endpoint)

	if !cfg.Enabled {
		return FlushResult{Status: "disabled", Endpoint: endpoint}
	}
	if endpoint == "" {
		return FlushResult{Status: "no-endpoint", Remaining: queuedCount(projectRoot), Endpoint: endpoint}
	}

	path := EventsPath(projectRoot)
	raw, err := os.ReadFile(path)
	if err != nil {
		return FlushResult{Status: "empty", Endpoint: endpoint}
	}

	lines := nonEmptyLines(string(raw))
	if len(lines) == 0 {
		return FlushResult{Status: "empty", Endpoint: endpoint}
	}

	limit := maxEvents
	if limit < 1 {
		limit = 1
	}
	if limit > len(lines) {
		limit = len(lines)
	}
	sendLines := lines[:limit]
	remainingLines := lines[limit:]

	var events []json.RawMessage
	dropped := 0
	for _, line := range sendLines {
		var probe map[string]any
		if err := json.Unmarshal([]byte(line), &probe); err != nil {
			dropped++
			continue
		}
		events = append(events, json.RawMessage(line))
	}

	if dryRun {
		return FlushResult{
			Status:    "dry-run",
			WouldSend: len(events),
			Dropped:   dropped,
			Remaining: len(remainingLines) + len(events) + dropped,
			Endpoint:  endpoint,
		}
	}

	if len(events) == 0 {
		rewriteQueue(path, remainingLines)
		return FlushResult{Status: "empty-batch", Dropped: dropped, Remaining: len(remainingLines), Endpoint: endpoint}
	}

	body, err := json.Marshal(map[string]any{
		"events":    events,
		"client":    clientName,
		"sent_at":   time.Now().Unix(),
		"anonymous": cfg.Anonymous,
	})
	if err != nil {
		return FlushResult{Status: "network-error", Remaining: len(lines), Endpoint: endpoint, Error: err.Error()}
	}

	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return FlushResult{Status: "network-error", Remaining: len(lines), Endpoint: endpoint, Error: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", fmt.Sprintf("%s/%s", clientName, common.GetVersion()))

	client := &http.Client{Timeout: flushTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return FlushResult{Status: "network-error", Remaining: len(lines), Endpoint: endpoint, Error: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return FlushResult{Status: "http-error", Remaining: len(lines), Endpoint: endpoint, HTTPStatus: resp.StatusCode}
	}

	rewriteQueue(path, remainingLines)
	return FlushResult{Status: "ok", Sent: len(events), Dropped: dropped, Remaining: len(remainingLines), Endpoint: endpoint}
}

// Enable turns telemetry on by rewriting the [telemetry] section of the
// project config file. Returns the config path.
func Enable(projectRoot, endpoint string) (string, error) {
	return upsertSection(projectRoot, true, endpoint, true)
}

// Disable turns telemetry off in the project config file.
func Disable(projectRoot string) (string, error) {
	return upsertSection(projectRoot, false, "", true)
}

func upsertSection(projectRoot string, enabled bool, endpoint string, anonymous bool) (string, error) {
	path := filepath.Join(projectRoot, "ostendo.toml")

	escaped := strings.ReplaceAll(endpoint, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)

	section := []string{
		"[telemetry]",
		fmt.Sprintf("enabled = %t", enabled),
		fmt.Sprintf("anonymous = %t", anonymous),
		`endpoint = "` + escaped + `"`,
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", common.NewAppError(common.CodeConfigError, "failed to read project config", err)
		}
		content := strings.Join(section, "\n") + "\n"
		if writeErr := os.WriteFile(path, []byte(content), 0o644); writeErr != nil {
			return "", common.NewAppError(common.CodeConfigError, "failed to write project config", writeErr)
		}
		return path, nil
	}

	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")

	start := -1
	for idx, line := range lines {
		if strings.TrimSpace(line) == "[telemetry]" {
			start = idx
			break
		}
	}

	var updated []string
	if start >= 0 {
		end := len(lines)
		for idx := start + 1; idx < len(lines); idx++ {
			trimmed := strings.TrimSpace(lines[idx])
			if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
				end = idx
				break
			}
		}
		updated = append(updated, lines[:start]...)
		updated = append(updated, section...)
		updated = append(updated, lines[end:]...)
	} else {
		updated = append(updated, lines...)
		if len(updated) > 0 && strings.TrimSpace(updated[len(updated)-1]) != "" {
			updated = append(updated, "")
		}
		updated = append(updated, section...)
	}

	content := strings.TrimRight(strings.Join(updated, "\n"), "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", common.NewAppError(common.CodeConfigError, "failed to write project config", err)
	}
	return path, nil
}

func sanitizePayload(payload map[string]any) map[string]any {
	if len(payload) == 0 {
		return nil
	}
	sanitized := make(map[string]any)
	for key, value := range payload {
		if !payloadAllowlist[key] {
			continue
		}
		switch value.(type) {
		case string, bool, int, int64, float64:
			sanitized[key] = value
		}
	}
	return sanitized
}

func nonEmptyLines(content string) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

func queuedCount(projectRoot string) int {
	raw, err := os.ReadFile(EventsPath(projectRoot))
	if err != nil {
		return 0
	}
	return len(nonEmptyLines(string(raw)))
}

func rewriteQueue(path string, lines []string) {
	if len(lines) == 0 {
		os.WriteFile(path, []byte{}, 0o644)
		return
	}
	os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644)
}
