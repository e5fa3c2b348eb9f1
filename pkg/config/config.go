// Package config loads the birdlg YAML configuration shared by the proxy
// daemon and the operator shell.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/psaab/birdlg/pkg/lg"
)

// DefaultPath is the configuration file read when none is given.
const DefaultPath = "/etc/birdlg/birdlg.yaml"

// Config is the complete configuration.
type Config struct {
	Listen       string           `yaml:"listen"`
	Bird         BirdConfig       `yaml:"bird"`
	Traceroute   TracerouteConfig `yaml:"traceroute"`
	Timeout      time.Duration    `yaml:"timeout"`
	QueryLogSize int              `yaml:"query_log_size"`
	Metrics      bool             `yaml:"metrics"`
	Log          LogConfig        `yaml:"log"`
	Client       ClientConfig     `yaml:"client"`
}

// BirdConfig controls how birdc is invoked.
type BirdConfig struct {
	Birdc      string `yaml:"birdc"`
	Socket     string `yaml:"socket,omitempty"`
	Restricted bool   `yaml:"restricted"`
}

// TracerouteConfig holds the argv used per family; the target is appended.
type TracerouteConfig struct {
	IPv4 []string `yaml:"ipv4"`
	IPv6 []string `yaml:"ipv6"`
}

// LogConfig controls daemon logging.
type LogConfig struct {
	Level    string   `yaml:"level"`  // debug, info, warn, error
	Format   string   `yaml:"format"` // text, json
	Syslog   []string `yaml:"syslog,omitempty"`
	Severity string   `yaml:"severity,omitempty"` // error, warning, info

	// Syslog message header. Empty values select birdlgd, local0 and
	// the system hostname.
	Tag      string `yaml:"tag,omitempty"`
	Facility string `yaml:"facility,omitempty"` // user, daemon, local0-local7
	Hostname string `yaml:"hostname,omitempty"`
}

// ClientConfig is used by the operator shell.
type ClientConfig struct {
	Proxy  string `yaml:"proxy"`
	Family string `yaml:"family"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Listen: "127.0.0.1:5000",
		Bird: BirdConfig{
			Birdc:      "/usr/sbin/birdc",
			Restricted: true,
		},
		Traceroute: TracerouteConfig{
			IPv4: []string{"traceroute", "-4", "-n", "-q1", "-w1"},
			IPv6: []string{"traceroute", "-6", "-n", "-q1", "-w1"},
		},
		Timeout:      30 * time.Second,
		QueryLogSize: 512,
		Metrics:      true,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Client: ClientConfig{
			Proxy:  "http://127.0.0.1:5000",
			Family: string(lg.FamilyIPv6),
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return errors.New("listen: address required")
	}
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	if c.Bird.Birdc == "" {
		return errors.New("bird.birdc: path required")
	}
	if len(c.Traceroute.IPv4) == 0 || len(c.Traceroute.IPv6) == 0 {
		return errors.New("traceroute: ipv4 and ipv6 commands required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout: must be positive, got %s", c.Timeout)
	}
	if c.QueryLogSize < 1 {
		return fmt.Errorf("query_log_size: must be at least 1, got %d", c.QueryLogSize)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}
	switch c.Log.Severity {
	case "", "error", "warning", "info":
	default:
		return fmt.Errorf("log.severity: unknown severity %q", c.Log.Severity)
	}
	for _, addr := range c.Log.Syslog {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("log.syslog %q: %w", addr, err)
		}
	}
	switch c.Log.Facility {
	case "", "user", "daemon",
		"local0", "local1", "local2", "local3", "local4", "local5", "local6", "local7":
	default:
		return fmt.Errorf("log.facility: unknown facility %q", c.Log.Facility)
	}
	// RFC 3164 limits TAG to 32 characters.
	if len(c.Log.Tag) > 32 || strings.ContainsAny(c.Log.Tag, " :[") {
		return fmt.Errorf("log.tag: invalid tag %q", c.Log.Tag)
	}
	if strings.ContainsAny(c.Log.Hostname, " \t") {
		return fmt.Errorf("log.hostname: invalid hostname %q", c.Log.Hostname)
	}
	if _, err := lg.ParseFamily(c.Client.Family); err != nil {
		return fmt.Errorf("client.family: %w", err)
	}
	return nil
}
