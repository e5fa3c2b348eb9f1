package cli

import (
	"strings"

	"github.com/psaab/birdlg/pkg/cmdtree"
)

type shellCompleter struct {
	shell *Shell
}

// splitPartial separates the completed words of text from the word being typed.
func splitPartial(text string) (words []string, partial string) {
	words = strings.Fields(text)
	trailingSpace := len(text) > 0 && text[len(text)-1] == ' '
	if !trailingSpace && len(words) > 0 {
		partial = words[len(words)-1]
		words = words[:len(words)-1]
	}
	return words, partial
}

func (c *shellCompleter) Do(line []rune, pos int) ([][]rune, int) {
	words, partial := splitPartial(string(line[:pos]))
	names := cmdtree.CompleteFromTree(c.shell.tree, words, partial)
	if len(names) == 0 {
		return nil, 0
	}

	if len(names) == 1 {
		suffix := names[0][len(partial):]
		return [][]rune{[]rune(suffix + " ")}, len(partial)
	}

	// Multiple matches: show descriptions above prompt.
	candidates := make([]cmdtree.Candidate, len(names))
	for i, name := range names {
		candidates[i] = cmdtree.Candidate{Name: name, Desc: cmdtree.LookupDesc(c.shell.tree, words, name)}
	}
	cmdtree.WriteHelp(c.shell.out, candidates)

	cp := cmdtree.CommonPrefix(names)
	suffix := cp[len(partial):]
	if suffix == "" {
		return nil, 0
	}
	return [][]rune{[]rune(suffix)}, len(partial)
}

// helpListener shows ? help for the line typed so far.
func (s *Shell) helpListener(line []rune, pos int, key rune) ([]rune, int, bool) {
	if key != '?' || pos < 1 {
		return line, pos, false
	}
	// Strip the '?' that readline already inserted.
	cleanLine := make([]rune, 0, len(line)-1)
	cleanLine = append(cleanLine, line[:pos-1]...)
	cleanLine = append(cleanLine, line[pos:]...)

	words, partial := splitPartial(string(cleanLine[:pos-1]))
	candidates := cmdtree.CompleteFromTreeWithDesc(s.tree, words, partial)
	if len(candidates) == 0 {
		s.out.Write([]byte("  (no help available)\n"))
		return cleanLine, pos - 1, true
	}
	cmdtree.WriteHelp(s.out, candidates)
	return cleanLine, pos - 1, true
}
