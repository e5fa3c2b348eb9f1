package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "birdlg.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != "127.0.0.1:5000" || !cfg.Bird.Restricted || !cfg.Metrics {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
listen: 0.0.0.0:8080
bird:
  birdc: /opt/bird/sbin/birdc
  socket: /run/bird/bird.ctl
timeout: 5s
metrics: false
log:
  level: debug
  format: json
  syslog: ["10.0.0.1:514"]
  severity: warning
  tag: lg-edge
  facility: daemon
  hostname: rs1
client:
  family: ipv4
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != "0.0.0.0:8080" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if cfg.Bird.Birdc != "/opt/bird/sbin/birdc" || cfg.Bird.Socket != "/run/bird/bird.ctl" {
		t.Errorf("Bird = %+v", cfg.Bird)
	}
	if !cfg.Bird.Restricted {
		t.Error("restricted default lost")
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %s", cfg.Timeout)
	}
	if cfg.Metrics {
		t.Error("metrics should be disabled")
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" || len(cfg.Log.Syslog) != 1 {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.Log.Tag != "lg-edge" || cfg.Log.Facility != "daemon" || cfg.Log.Hostname != "rs1" {
		t.Errorf("syslog header = %q %q %q", cfg.Log.Tag, cfg.Log.Facility, cfg.Log.Hostname)
	}
	if cfg.Client.Family != "ipv4" || cfg.Client.Proxy != "http://127.0.0.1:5000" {
		t.Errorf("Client = %+v", cfg.Client)
	}
	if len(cfg.Traceroute.IPv6) == 0 {
		t.Error("traceroute default lost")
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad yaml", "listen: [", "parse config"},
		{"bad listen", "listen: nohostport", "listen"},
		{"bad family", "client:\n  family: inet\n", "client.family"},
		{"bad level", "log:\n  level: loud\n", "log.level"},
		{"bad format", "log:\n  format: xml\n", "log.format"},
		{"bad timeout", "timeout: -1s\n", "timeout"},
		{"bad syslog", "log:\n  syslog: [\"nohost\"]\n", "log.syslog"},
		{"bad facility", "log:\n  facility: local9\n", "log.facility"},
		{"bad tag", "log:\n  tag: \"lg edge\"\n", "log.tag"},
		{"long tag", "log:\n  tag: " + strings.Repeat("x", 33) + "\n", "log.tag"},
		{"bad hostname", "log:\n  hostname: \"rs 1\"\n", "log.hostname"},
		{"empty traceroute", "traceroute:\n  ipv4: []\n", "traceroute"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
