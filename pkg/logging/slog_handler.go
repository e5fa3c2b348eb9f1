// Package logging provides the daemon's slog setup with syslog forwarding,
// and the in-memory log of proxied queries.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/psaab/birdlg/pkg/config"
)

// SyslogHandler is an slog.Handler that forwards records to remote syslog
// collectors in addition to a wrapped base handler.
type SyslogHandler struct {
	base    slog.Handler
	clients []*SyslogClient
	attrs   []slog.Attr
	groups  []string
}

// NewSyslogHandler wraps base. clients may be empty.
func NewSyslogHandler(base slog.Handler, clients []*SyslogClient) *SyslogHandler {
	return &SyslogHandler{base: base, clients: clients}
}

// Setup builds the process logger from cfg and installs it as the slog
// default. debug forces the debug level. Close the returned handler on exit.
func Setup(cfg config.LogConfig, w io.Writer, debug bool) (*SyslogHandler, error) {
	level := parseLevel(cfg.Level)
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var base slog.Handler
	if cfg.Format == "json" {
		base = slog.NewJSONHandler(w, opts)
	} else {
		base = slog.NewTextHandler(w, opts)
	}

	minSev := ParseSeverity(cfg.Severity)
	var clients []*SyslogClient
	for _, addr := range cfg.Syslog {
		c, err := NewSyslogClient(addr, cfg)
		if err != nil {
			for _, prev := range clients {
				prev.Close()
			}
			return nil, err
		}
		c.MinSeverity = minSev
		clients = append(clients, c)
	}

	h := NewSyslogHandler(base, clients)
	slog.SetDefault(slog.New(h))
	return h, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Close closes all syslog clients.
func (h *SyslogHandler) Close() {
	for _, c := range h.clients {
		c.Close()
	}
}

// Enabled implements slog.Handler.
func (h *SyslogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *SyslogHandler) Handle(ctx context.Context, r slog.Record) error {
	err := h.base.Handle(ctx, r)
	if len(h.clients) == 0 {
		return err
	}
	severity := levelToSeverity(r.Level)
	msg := formatRecord(r, h.attrs, h.groups)
	for _, c := range h.clients {
		if c.ShouldSend(severity) {
			c.Send(severity, msg)
		}
	}
	return err
}

// WithAttrs implements slog.Handler.
func (h *SyslogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SyslogHandler{
		base:    h.base.WithAttrs(attrs),
		clients: h.clients,
		attrs:   append(append([]slog.Attr{}, h.attrs...), attrs...),
		groups:  h.groups,
	}
}

// WithGroup implements slog.Handler.
func (h *SyslogHandler) WithGroup(name string) slog.Handler {
	return &SyslogHandler{
		base:    h.base.WithGroup(name),
		clients: h.clients,
		attrs:   h.attrs,
		groups:  append(append([]string{}, h.groups...), name),
	}
}

func levelToSeverity(level slog.Level) int {
	switch {
	case level >= slog.LevelError:
		return SyslogError
	case level >= slog.LevelWarn:
		return SyslogWarning
	default:
		return SyslogInfo
	}
}

// formatRecord produces a compact "msg k=v ..." line.
func formatRecord(r slog.Record, preAttrs []slog.Attr, groups []string) string {
	var b strings.Builder
	b.WriteString(r.Message)
	for _, a := range preAttrs {
		fmt.Fprintf(&b, " %s=%s", a.Key, a.Value.String())
	}
	r.Attrs(func(a slog.Attr) bool {
		key := a.Key
		if len(groups) > 0 {
			key = strings.Join(groups, ".") + "." + key
		}
		fmt.Fprintf(&b, " %s=%s", key, a.Value.String())
		return true
	})
	return b.String()
}
