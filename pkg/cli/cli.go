// Package cli implements the interactive looking-glass shell.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/psaab/birdlg/pkg/cmdtree"
	"github.com/psaab/birdlg/pkg/lg"
)

// Options configures a Shell.
type Options struct {
	Out         io.Writer // defaults to os.Stdout
	HistoryFile string    // readline history; empty keeps it in memory
	Width       int       // table width; 0 = unconstrained
}

// Shell is the interactive command-line interface over a Controller.
type Shell struct {
	ctrl        *lg.Controller
	out         io.Writer
	rl          *readline.Instance
	tree        map[string]*cmdtree.Node
	width       int
	historyFile string
	lastErr     error
}

// New creates a new Shell.
func New(ctrl *lg.Controller, opts Options) *Shell {
	s := &Shell{
		ctrl:        ctrl,
		out:         opts.Out,
		width:       opts.Width,
		historyFile: opts.HistoryFile,
	}
	if s.out == nil {
		s.out = os.Stdout
	}
	s.tree = cmdtree.ShellTree(s.historyIndices)
	return s
}

func (s *Shell) prompt() string {
	return fmt.Sprintf("lg/%s> ", s.ctrl.State().Family)
}

// Run starts the interactive loop. It returns when the user exits or
// ctx is cancelled.
func (s *Shell) Run(ctx context.Context) error {
	var err error
	s.rl, err = readline.NewEx(&readline.Config{
		Prompt:          s.prompt(),
		HistoryFile:     s.historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    &shellCompleter{shell: s},
		Listener:        readline.FuncListener(s.helpListener),
	})
	if err != nil {
		return fmt.Errorf("readline init: %w", err)
	}
	defer s.rl.Close()
	s.out = s.rl.Stdout()

	go func() {
		<-ctx.Done()
		s.rl.Close()
	}()

	fmt.Fprintln(s.out, "birdlg - BIRD looking glass")
	fmt.Fprintln(s.out, "Type '?' for help")
	fmt.Fprintln(s.out)

	for {
		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			if err == io.EOF || ctx.Err() != nil {
				break
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if err := s.dispatch(ctx, line); err != nil {
			if err == errExit {
				return nil
			}
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
	return nil
}

// Exec runs a single shell line. Exit commands are ignored.
func (s *Shell) Exec(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if err := s.dispatch(ctx, line); err != nil && err != errExit {
		return err
	}
	return nil
}

var errExit = fmt.Errorf("exit")

func (s *Shell) dispatch(ctx context.Context, line string) error {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}

	switch parts[0] {
	case "family":
		if len(parts) != 2 {
			return fmt.Errorf("family: expected ipv4 or ipv6")
		}
		f, err := lg.ParseFamily(parts[1])
		if err != nil {
			return err
		}
		s.ctrl.SetFamily(f)
		if s.rl != nil {
			s.rl.SetPrompt(s.prompt())
		}
		return nil

	case "select":
		if len(parts) < 2 {
			return fmt.Errorf("select: missing command")
		}
		if o, executed := s.ctrl.Select(ctx, strings.Join(parts[1:], " ")); executed {
			s.printOutcome(o)
		}
		return nil

	case "arg":
		s.ctrl.SetArgument(strings.TrimSpace(strings.TrimPrefix(line, "arg")))
		return nil

	case "execute":
		s.printOutcome(s.ctrl.Execute(ctx))
		return nil

	case "history":
		s.showHistory()
		return nil

	case "replay":
		if len(parts) != 2 {
			return fmt.Errorf("replay: expected a history index")
		}
		return s.replay(ctx, parts[1])

	case "commands":
		s.showCommands()
		return nil

	case "status":
		s.showStatus()
		return nil

	case "?", "help":
		s.showHelp()
		return nil

	case "quit", "exit":
		return errExit
	}

	id, rest, ok := cmdtree.Match(s.tree, parts)
	if !ok {
		return fmt.Errorf("unknown command: %s", parts[0])
	}
	return s.runCommand(ctx, id, strings.Join(rest, " "))
}

// runCommand selects id with arg and executes it.
func (s *Shell) runCommand(ctx context.Context, id, arg string) error {
	d := lg.Resolve(id)
	if d.NeedsArgument && arg == "" {
		return fmt.Errorf("%s: missing argument (%s)", id, d.Placeholder)
	}
	if o, executed := s.ctrl.Select(ctx, id); executed {
		s.printOutcome(o)
		return nil
	}
	s.ctrl.SetArgument(arg)
	s.printOutcome(s.ctrl.Execute(ctx))
	return nil
}

func (s *Shell) replay(ctx context.Context, arg string) error {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf("replay: invalid index %q", arg)
	}
	e, err := s.ctrl.History().Get(n)
	if err != nil {
		return err
	}
	if _, ok := s.ctrl.Replay(e.Command); !ok {
		return fmt.Errorf("replay: %q cannot be restored", e.Command)
	}
	if s.rl != nil {
		s.rl.SetPrompt(s.prompt())
	}
	s.printOutcome(s.ctrl.Execute(ctx))
	return nil
}

// Err returns the backend error of the last executed command, if any.
func (s *Shell) Err() error {
	return s.lastErr
}

func (s *Shell) printOutcome(o lg.Outcome) {
	s.lastErr = o.Err
	if o.Stale {
		return
	}
	if o.Request.CommandID == lg.CmdShowProtocols && o.Err == nil {
		renderProtocols(s.out, o.Rows, s.width)
		return
	}
	out := o.Output
	if out != "" && !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	io.WriteString(s.out, out)
}

func (s *Shell) showHistory() {
	entries := s.ctrl.History().List()
	if len(entries) == 0 {
		fmt.Fprintln(s.out, "No history")
		return
	}
	for i, e := range entries {
		fmt.Fprintf(s.out, "%3d  %s  %s\n", i, e.Timestamp.Format("15:04:05"), e.Command)
	}
}

// WriteCommands lists the catalog in display order, one command per line
// with its argument placeholder.
func WriteCommands(w io.Writer) {
	for _, id := range lg.Catalog() {
		d := lg.Resolve(id)
		if d.NeedsArgument {
			fmt.Fprintf(w, "%-30s <%s>\n", id, d.Placeholder)
		} else {
			fmt.Fprintln(w, id)
		}
	}
}

func (s *Shell) showCommands() {
	WriteCommands(s.out)
}

func (s *Shell) showStatus() {
	st := s.ctrl.State()
	fmt.Fprintf(s.out, "Family:   %s\n", st.Family)
	fmt.Fprintf(s.out, "Command:  %s\n", st.CommandID)
	if st.Argument != "" {
		fmt.Fprintf(s.out, "Argument: %s\n", st.Argument)
	}
	if d := st.Descriptor(); d.NeedsArgument && st.Argument == "" {
		fmt.Fprintf(s.out, "Argument: (none, expects %s)\n", d.Placeholder)
	}
}

func (s *Shell) showHelp() {
	cmdtree.WriteHelp(s.out, cmdtree.HelpCandidates(s.tree))
}

// historyIndices lists history positions for completion, newest first.
func (s *Shell) historyIndices() []string {
	n := s.ctrl.History().Len()
	if n > 20 {
		n = 20
	}
	out := make([]string, n)
	for i := range out {
		out[i] = strconv.Itoa(i)
	}
	return out
}
