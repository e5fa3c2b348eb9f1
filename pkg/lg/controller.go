package lg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrBackend wraps every failure reported by a Backend.
var ErrBackend = errors.New("backend call failed")

// Backend executes a command against the routing daemon proxy.
type Backend interface {
	Query(ctx context.Context, cmd BackendCommand) (string, error)
}

// BackendFunc adapts a function to the Backend interface.
type BackendFunc func(ctx context.Context, cmd BackendCommand) (string, error)

// Query implements Backend.
func (f BackendFunc) Query(ctx context.Context, cmd BackendCommand) (string, error) {
	return f(ctx, cmd)
}

// Outcome describes one completed execution.
type Outcome struct {
	Request ExecutionRequest
	Output  string
	Rows    []ProtocolRow
	Err     error
	// Stale is set when a newer request was issued before this one
	// completed; the displayed state was left untouched.
	Stale    bool
	Entry    HistoryEntry
	Duration time.Duration
}

// Controller drives command execution: it snapshots the selection, calls
// the backend, feeds the result back into the State and records history.
// Concurrent executions are allowed; only the latest one updates the State.
type Controller struct {
	backend Backend
	history *History

	mu    sync.Mutex
	state State
}

// NewController creates a Controller with the initial selection for family.
func NewController(backend Backend, family Family) *Controller {
	return &Controller{
		backend: backend,
		history: NewHistory(),
		state:   NewState(family),
	}
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// History returns the controller's history log.
func (c *Controller) History() *History {
	return c.history
}

func (c *Controller) update(fn func(State) State) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = fn(c.state)
	return c.state
}

// SetArgument replaces the argument of the current selection.
func (c *Controller) SetArgument(arg string) {
	c.update(func(s State) State { return SetArgument(s, arg) })
}

// SetFamily replaces the address family of the current selection.
func (c *Controller) SetFamily(f Family) {
	c.update(func(s State) State { return SetFamily(s, f) })
}

// Select switches to command id. Selecting the protocol-status command
// executes it immediately; executed reports whether that happened.
func (c *Controller) Select(ctx context.Context, id string) (out Outcome, executed bool) {
	c.update(func(s State) State { return SelectCommand(s, id) })
	if id != CmdShowProtocols {
		return Outcome{}, false
	}
	return c.Execute(ctx), true
}

// Replay restores the selection encoded in a history label. It does not
// execute anything.
func (c *Controller) Replay(label string) (Selection, bool) {
	sel, ok := Replay(label)
	if !ok {
		return Selection{}, false
	}
	c.update(func(s State) State { return ApplyReplay(s, sel) })
	return sel, true
}

// Execute runs the current selection. Backend errors never escape: they
// are reported through Outcome.Err and shown as ErrorMessage.
func (c *Controller) Execute(ctx context.Context) Outcome {
	var req ExecutionRequest
	c.update(func(s State) State {
		s, req = Begin(s)
		return s
	})

	start := time.Now()
	output, err := c.backend.Query(ctx, req.Backend)
	elapsed := time.Since(start)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrBackend, err)
		slog.Warn("command failed", "command", req.Label, "endpoint", req.Backend.Endpoint, "err", err)
	} else {
		slog.Debug("command completed", "command", req.Label, "endpoint", req.Backend.Endpoint,
			"duration", elapsed, "bytes", len(output))
	}

	entry := c.history.Record(req.Label)

	res := Result{Request: req, Output: output, Err: err}
	var applied bool
	c.update(func(s State) State {
		s, applied = ReceiveResult(s, res)
		return s
	})
	if !applied {
		slog.Debug("discarding stale result", "seq", req.Seq, "command", req.Label)
	}

	display, rows := view(res, nil)
	return Outcome{
		Request:  req,
		Output:   display,
		Rows:     rows,
		Err:      err,
		Stale:    !applied,
		Entry:    entry,
		Duration: elapsed,
	}
}
