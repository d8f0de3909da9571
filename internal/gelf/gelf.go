package gelf

import (
	"encoding/json"
	"net"
	"os"
	"strings"
	"time"
)

// Writer sends GELF messages over UDP and implements io.Writer so it can
// sit next to stderr in an io.MultiWriter under a slog handler.
type Writer struct {
	conn     net.Conn
	hostname string
	service  string
}

// New creates a GELF UDP writer connected to addr (e.g. "172.17.0.1:12201").
func New(addr, service string) (*Writer, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, err
	}

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "checkindesk"
	}

	return &Writer{conn: conn, hostname: hostname, service: service}, nil
}

// Write implements io.Writer. Each call is one log record: a slog JSON
// line becomes a GELF message carrying its attributes as additional
// fields; any other line is sent as-is.
func (w *Writer) Write(p []byte) (int, error) {
	payload, err := json.Marshal(w.Message(p))
	if err != nil {
		return len(p), nil // don't fail the log call
	}
	// Fire-and-forget
	w.conn.Write(payload)
	return len(p), nil
}

// Message converts one log line to a GELF 1.1 document.
func (w *Writer) Message(p []byte) map[string]any {
	line := strings.TrimRight(string(p), "\n")

	msg := map[string]any{
		"version":       "1.1",
		"host":          w.hostname,
		"short_message": line,
		"timestamp":     float64(time.Now().UnixNano()) / 1e9,
		"level":         6,
		"_service":      w.service,
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		return msg
	}
	if m, ok := rec["msg"].(string); ok {
		msg["short_message"] = m
	}
	if lv, ok := rec["level"].(string); ok {
		msg["level"] = syslogLevel(lv)
	}
	if ts, ok := rec["time"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			msg["timestamp"] = float64(t.UnixNano()) / 1e9
		}
	}
	for k, v := range rec {
		switch k {
		case "msg", "level", "time":
			continue
		case "id":
			// GELF reserves _id
			k = "record_id"
		}
		msg["_"+k] = v
	}
	return msg
}

// syslogLevel maps slog level names to syslog severities.
func syslogLevel(level string) int {
	switch {
	case strings.HasPrefix(level, "DEBUG"):
		return 7
	case strings.HasPrefix(level, "WARN"):
		return 4
	case strings.HasPrefix(level, "ERROR"):
		return 3
	default:
		return 6
	}
}

func (w *Writer) Close() error {
	return w.conn.Close()
}
