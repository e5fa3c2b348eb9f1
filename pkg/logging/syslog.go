package logging

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/psaab/birdlg/pkg/config"
)

// Syslog severity levels (RFC 3164).
const (
	SyslogError   = 3
	SyslogWarning = 4
	SyslogInfo    = 6
)

// Defaults used when the log section leaves tag or facility empty.
const (
	DefaultSyslogTag      = "birdlgd"
	DefaultSyslogFacility = "local0"
)

var severities = map[string]int{
	"error":   SyslogError,
	"warning": SyslogWarning,
	"info":    SyslogInfo,
}

var facilities = map[string]int{
	"user":   1,
	"daemon": 3,
	"local0": 16,
	"local1": 17,
	"local2": 18,
	"local3": 19,
	"local4": 20,
	"local5": 21,
	"local6": 22,
	"local7": 23,
}

// SyslogClient writes RFC 3164 messages to one UDP collector.
type SyslogClient struct {
	conn     net.Conn
	facility int
	header   string // "HOSTNAME TAG: "

	// MinSeverity drops messages less severe than it; 0 sends everything.
	MinSeverity int
}

// ParseFacility returns the code of a facility name. Empty selects local0.
func ParseFacility(name string) (int, error) {
	if name == "" {
		name = DefaultSyslogFacility
	}
	code, ok := facilities[name]
	if !ok {
		return 0, fmt.Errorf("unknown syslog facility %q", name)
	}
	return code, nil
}

// NewSyslogClient dials the collector at addr (host:port). Tag, facility
// and hostname come from cfg, falling back to the defaults and os.Hostname.
func NewSyslogClient(addr string, cfg config.LogConfig) (*SyslogClient, error) {
	facility, err := ParseFacility(cfg.Facility)
	if err != nil {
		return nil, err
	}
	tag := cfg.Tag
	if tag == "" {
		tag = DefaultSyslogTag
	}
	host := cfg.Hostname
	if host == "" {
		host, _ = os.Hostname()
	}
	if host == "" {
		host = "-"
	}

	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial syslog %s: %w", addr, err)
	}
	return &SyslogClient{
		conn:     conn,
		facility: facility,
		header:   host + " " + tag + ": ",
	}, nil
}

// Send writes msg with the given severity.
func (s *SyslogClient) Send(severity int, msg string) error {
	b := make([]byte, 0, 24+len(s.header)+len(msg))
	b = append(b, '<')
	b = strconv.AppendInt(b, int64(s.facility<<3|severity), 10)
	b = append(b, '>')
	b = time.Now().AppendFormat(b, time.Stamp)
	b = append(b, ' ')
	b = append(b, s.header...)
	b = append(b, msg...)
	_, err := s.conn.Write(b)
	return err
}

// ShouldSend reports whether severity passes the client's filter.
// Lower numbers are more severe.
func (s *SyslogClient) ShouldSend(severity int) bool {
	return s.MinSeverity == 0 || severity <= s.MinSeverity
}

// ParseSeverity returns the numeric severity for name, or 0 (no filter)
// for names it does not know.
func ParseSeverity(name string) int {
	return severities[name]
}

// Close closes the underlying connection.
func (s *SyslogClient) Close() error {
	return s.conn.Close()
}
