// Package logging builds the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/parisxmas/checkindesk/internal/gelf"
)

// Options selects level, format and the optional GELF sink.
type Options struct {
	Level    string
	Format   string // text or json
	GelfAddr string
	Service  string
	Output   io.Writer
}

// New builds a logger. When GelfAddr is set, records are written as JSON
// to both Output and the GELF writer. The returned closer releases the
// GELF socket.
func New(opts Options) (*slog.Logger, func() error) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	closer := func() error { return nil }

	format := strings.ToLower(opts.Format)
	var gelfErr error
	if opts.GelfAddr != "" {
		service := opts.Service
		if service == "" {
			service = "checkindesk"
		}
		w, err := gelf.New(opts.GelfAddr, service)
		if err != nil {
			gelfErr = err
		} else {
			out = io.MultiWriter(out, w)
			closer = w.Close
			format = "json"
		}
	}

	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}
	var h slog.Handler
	if format == "json" {
		h = slog.NewJSONHandler(out, handlerOpts)
	} else {
		h = slog.NewTextHandler(out, handlerOpts)
	}
	logger := slog.New(h)

	if gelfErr != nil {
		logger.Warn("GELF init failed", slog.String("addr", opts.GelfAddr), slog.String("error", gelfErr.Error()))
	} else if opts.GelfAddr != "" {
		logger.Info("GELF logging enabled", slog.String("addr", opts.GelfAddr))
	}
	return logger, closer
}

// ParseLevel maps debug, info, warn and error to slog levels; anything
// else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
