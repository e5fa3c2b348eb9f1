package lg

import "regexp"

// ErrorMessage is what the operator sees when a backend call fails.
const ErrorMessage = "Error: Failed to execute command"

// ExecutionRequest is a snapshot of the selection taken when a command is
// issued. Seq increases by one for every request issued from a State.
type ExecutionRequest struct {
	Seq       uint64
	Family    Family
	CommandID string
	Argument  string
	Label     string
	Backend   BackendCommand
}

// Result is the backend's answer to an ExecutionRequest.
type Result struct {
	Request ExecutionRequest
	Output  string
	Err     error
}

// State is the operator's selection plus what is currently displayed.
// Transitions are pure functions returning a new State.
type State struct {
	Family    Family
	CommandID string
	Argument  string

	Output  string
	Rows    []ProtocolRow
	Loading bool

	// Seq is the sequence number of the most recently issued request.
	Seq uint64
}

// NewState returns the initial selection: "show protocols" for family.
func NewState(family Family) State {
	return State{Family: family, CommandID: CmdShowProtocols}
}

// Descriptor returns the catalog descriptor of the selected command.
func (s State) Descriptor() CommandDescriptor {
	return Resolve(s.CommandID)
}

// SelectCommand switches to id and clears the argument.
func SelectCommand(s State, id string) State {
	s.CommandID = id
	s.Argument = ""
	return s
}

// SetArgument replaces the free-text argument.
func SetArgument(s State, arg string) State {
	s.Argument = arg
	return s
}

// SetFamily replaces the address family.
func SetFamily(s State, f Family) State {
	s.Family = f
	return s
}

// ApplyReplay restores a selection recovered from a history label.
func ApplyReplay(s State, sel Selection) State {
	if sel.Family != "" {
		s.Family = sel.Family
	}
	s.CommandID = sel.CommandID
	s.Argument = sel.Argument
	return s
}

// Begin issues a new request for the current selection.
func Begin(s State) (State, ExecutionRequest) {
	s.Seq++
	s.Loading = true
	req := ExecutionRequest{
		Seq:       s.Seq,
		Family:    s.Family,
		CommandID: s.CommandID,
		Argument:  s.Argument,
		Label:     Label(s.Family, s.CommandID, s.Argument),
		Backend:   Build(s.CommandID, s.Argument),
	}
	return s, req
}

// ReceiveResult applies r if it answers the most recently issued request.
// Results for older requests are discarded and applied is false.
func ReceiveResult(s State, r Result) (next State, applied bool) {
	if r.Request.Seq != s.Seq {
		return s, false
	}
	s.Loading = false
	s.Output, s.Rows = view(r, s.Rows)
	return s, true
}

// view computes the displayed output and protocol rows for r. Rows are
// only touched by the protocol-status command: replaced on success,
// cleared on failure.
func view(r Result, rows []ProtocolRow) (string, []ProtocolRow) {
	isStatus := r.Request.CommandID == CmdShowProtocols
	if r.Err != nil {
		if isStatus {
			rows = nil
		}
		return ErrorMessage, rows
	}
	if isStatus {
		rows = ParseProtocols(r.Output)
	}
	return NormalizeOutput(r.Output), rows
}

var lineBreakTag = regexp.MustCompile(`(?i)<br\s*/?>\n?`)

// NormalizeOutput turns HTML line breaks in backend output into newlines.
func NormalizeOutput(s string) string {
	return lineBreakTag.ReplaceAllString(s, "\n")
}
