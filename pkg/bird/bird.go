// Package bird runs looking-glass queries against the local BIRD daemon
// via birdc, and traceroutes on behalf of the proxy.
package bird

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/psaab/birdlg/pkg/config"
	"github.com/psaab/birdlg/pkg/lg"
)

var (
	// ErrUnknownEndpoint is returned for endpoints other than /bird,
	// /traceroute and /traceroute6.
	ErrUnknownEndpoint = errors.New("unknown endpoint")
	// ErrInvalidTarget is returned for traceroute targets that are empty,
	// contain whitespace, or would be read as an option.
	ErrInvalidTarget = errors.New("invalid traceroute target")
)

// Runner executes a program and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) (string, error)

// Manager runs birdc and traceroute commands.
type Manager struct {
	birdc       string
	socket      string
	restricted  bool
	traceroute4 []string
	traceroute6 []string
	run         Runner
}

// New creates a Manager that executes real processes.
func New(bc config.BirdConfig, tc config.TracerouteConfig) *Manager {
	return NewWithRunner(bc, tc, execCmd)
}

// NewWithRunner creates a Manager that executes commands through run.
func NewWithRunner(bc config.BirdConfig, tc config.TracerouteConfig, run Runner) *Manager {
	return &Manager{
		birdc:       bc.Birdc,
		socket:      bc.Socket,
		restricted:  bc.Restricted,
		traceroute4: tc.IPv4,
		traceroute6: tc.IPv6,
		run:         run,
	}
}

// Query dispatches command to the backend named by endpoint.
func (m *Manager) Query(ctx context.Context, endpoint, command string) (string, error) {
	switch endpoint {
	case lg.EndpointBird:
		return m.Bird(ctx, command)
	case lg.EndpointTraceroute:
		return m.Traceroute(ctx, lg.FamilyIPv4, command)
	case lg.EndpointTraceroute6:
		return m.Traceroute(ctx, lg.FamilyIPv6, command)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEndpoint, endpoint)
	}
}

// Bird runs a single birdc command. The command is passed as one argument
// without escaping; restricted mode keeps it read-only.
func (m *Manager) Bird(ctx context.Context, command string) (string, error) {
	var args []string
	if m.socket != "" {
		args = append(args, "-s", m.socket)
	}
	if m.restricted {
		args = append(args, "-r")
	}
	args = append(args, command)
	out, err := m.run(ctx, m.birdc, args...)
	if err != nil {
		return "", err
	}
	return CleanOutput(out), nil
}

// Protocols runs "show protocols" and parses the table.
func (m *Manager) Protocols(ctx context.Context) ([]lg.ProtocolRow, error) {
	out, err := m.Bird(ctx, lg.CmdShowProtocols)
	if err != nil {
		return nil, err
	}
	return lg.ParseProtocols(out), nil
}

// Traceroute runs the configured traceroute for family towards target.
func (m *Manager) Traceroute(ctx context.Context, family lg.Family, target string) (string, error) {
	target = strings.TrimSpace(target)
	if target == "" || strings.HasPrefix(target, "-") || strings.ContainsAny(target, " \t\r\n") {
		return "", fmt.Errorf("%w: %q", ErrInvalidTarget, target)
	}
	argv := m.traceroute4
	if family == lg.FamilyIPv6 {
		argv = m.traceroute6
	}
	if len(argv) == 0 {
		return "", fmt.Errorf("traceroute for %s not configured", family)
	}
	args := append(append([]string{}, argv[1:]...), target)
	return m.run(ctx, argv[0], args...)
}

// CleanOutput removes the birdc banner ("BIRD 2.0.12 ready.") and echoed
// prompt lines from birdc output.
func CleanOutput(output string) string {
	lines := strings.Split(output, "\n")
	cleaned := lines[:0]
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "BIRD ") && strings.HasSuffix(trimmed, "ready.") {
			continue
		}
		if strings.HasPrefix(trimmed, "birdc>") {
			continue
		}
		cleaned = append(cleaned, line)
	}
	return strings.Join(cleaned, "\n")
}

func execCmd(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s %q: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
