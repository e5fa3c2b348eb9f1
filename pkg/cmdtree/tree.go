// Package cmdtree defines the command tree of the birdlg shell.
//
// The tree is derived from the looking-glass command catalog, so a command
// added to pkg/lg automatically appears in tab completion, ? help and
// command matching.
package cmdtree

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/psaab/birdlg/pkg/lg"
)

// Node defines a completion tree node with description, children, and optional dynamic values.
type Node struct {
	Desc     string
	Children map[string]*Node
	// Command is the catalog id that ends at this node, if any.
	Command string
	// Placeholder describes the free-text argument the command takes.
	Placeholder string
	DynamicFn   func() []string
}

// Candidate holds a command name and its description.
type Candidate struct {
	Name string
	Desc string
}

var commandDescs = map[string]string{
	lg.CmdTraceroute:              "Trace the IPv4 path to an address",
	lg.CmdTraceroute6:             "Trace the IPv6 path to an address",
	lg.CmdShowProtocols:           "Show protocol status table",
	lg.CmdShowProtocolsAll:        "Show full details of one protocol",
	lg.CmdShowRouteFor:            "Show best route for a prefix",
	lg.CmdShowRouteForAll:         "Show route for a prefix with attributes",
	lg.CmdShowRouteForBGPMap:      "Show route for a prefix as a BGP map",
	lg.CmdShowRouteWhereNet:       "Show routes matching a prefix",
	lg.CmdShowRouteWhereNetAll:    "Show matching routes with attributes",
	lg.CmdShowRouteWhereNetBGPMap: "Show matching routes as a BGP map",
	lg.CmdShowRoute:               "Show routes for a prefix",
	lg.CmdShowRouteBGPMap:         "Show routes for a prefix as a BGP map",
}

var wordDescs = map[string]string{
	"show":  "Show information",
	"route": "Show routing table entries",
	"where": "Filter routes",
	"net":   "Match on network",
}

// CatalogTree returns the tree of looking-glass commands, one level per
// word of each catalog id.
func CatalogTree() map[string]*Node {
	tree := make(map[string]*Node)
	for _, id := range lg.Catalog() {
		current := tree
		var node *Node
		for _, w := range strings.Fields(id) {
			n, ok := current[w]
			if !ok {
				n = &Node{Desc: wordDescs[w]}
				current[w] = n
			}
			if n.Children == nil {
				n.Children = make(map[string]*Node)
			}
			node = n
			current = n.Children
		}
		node.Command = id
		node.Desc = commandDescs[id]
		if d := lg.Resolve(id); d.NeedsArgument {
			node.Placeholder = d.Placeholder
		}
	}
	prune(tree)
	return tree
}

// prune drops empty child maps so leaves have nil Children.
func prune(tree map[string]*Node) {
	for _, n := range tree {
		if len(n.Children) == 0 {
			n.Children = nil
			continue
		}
		prune(n.Children)
	}
}

// ShellTree returns the full shell tree: the catalog commands plus the
// shell verbs. historyFn supplies history indices for replay.
func ShellTree(historyFn func() []string) map[string]*Node {
	tree := CatalogTree()
	tree["family"] = &Node{Desc: "Set the address family", Children: map[string]*Node{
		string(lg.FamilyIPv4): {Desc: "Query over IPv4"},
		string(lg.FamilyIPv6): {Desc: "Query over IPv6"},
	}}
	tree["select"] = &Node{Desc: "Select a command without running it", Children: CatalogTree()}
	tree["arg"] = &Node{Desc: "Set the argument of the selected command", Placeholder: "argument text"}
	tree["execute"] = &Node{Desc: "Run the selected command"}
	tree["history"] = &Node{Desc: "Show executed commands, newest first"}
	tree["replay"] = &Node{Desc: "Restore a history entry and run it", Placeholder: "history index", DynamicFn: historyFn}
	tree["commands"] = &Node{Desc: "List looking-glass commands"}
	tree["status"] = &Node{Desc: "Show the current selection"}
	tree["help"] = &Node{Desc: "Show help"}
	tree["exit"] = &Node{Desc: "Exit the shell"}
	tree["quit"] = &Node{Desc: "Exit the shell"}
	return tree
}

// Match finds the longest command id in tree that prefixes words. It
// returns the id and the words after it.
func Match(tree map[string]*Node, words []string) (id string, rest []string, ok bool) {
	current := tree
	for i, w := range words {
		node, found := current[w]
		if !found {
			break
		}
		if node.Command != "" {
			id, rest, ok = node.Command, words[i+1:], true
		}
		if node.Children == nil {
			break
		}
		current = node.Children
	}
	return id, rest, ok
}

// --- Helper functions ---

// KeysFromTree returns a sorted list of keys from a Node map.
func KeysFromTree(tree map[string]*Node) []string {
	keys := KeysOf(tree)
	sort.Strings(keys)
	return keys
}

// HelpCandidates returns Candidates from a tree's children for help display.
func HelpCandidates(tree map[string]*Node) []Candidate {
	candidates := make([]Candidate, 0, len(tree))
	for name, node := range tree {
		candidates = append(candidates, Candidate{Name: name, Desc: node.Desc})
	}
	return candidates
}

// walk follows words through tree. It returns the children reached, the
// last matched node, and whether the final word was consumed as a free
// argument or dynamic value.
func walk(tree map[string]*Node, words []string) (current map[string]*Node, last *Node, consumed bool, ok bool) {
	current = tree
	for _, w := range words {
		consumed = false
		node, found := current[w]
		if !found {
			// Word not in static children: accept it as the argument or
			// dynamic value of the parent. Nothing follows an argument.
			if last != nil && (last.DynamicFn != nil || last.Placeholder != "") {
				current = nil
				consumed = true
				continue
			}
			return nil, nil, false, false
		}
		last = node
		current = node.Children
	}
	return current, last, consumed, true
}

// CompleteFromTree walks the tree to find completion candidates for the given
// words and partial. Static keys come sorted, followed by dynamic values in
// the order DynamicFn returns them.
func CompleteFromTree(tree map[string]*Node, words []string, partial string) []string {
	current, last, consumed, ok := walk(tree, words)
	if !ok {
		return nil
	}
	candidates := KeysFromTree(current)
	if !consumed && last != nil && last.DynamicFn != nil {
		candidates = append(candidates, last.DynamicFn()...)
	}
	return FilterPrefix(candidates, partial)
}

// CompleteFromTreeWithDesc walks the tree returning name+description pairs.
// A command awaiting its argument contributes a <placeholder> entry.
func CompleteFromTreeWithDesc(tree map[string]*Node, words []string, partial string) []Candidate {
	current, last, consumed, ok := walk(tree, words)
	if !ok {
		return nil
	}
	var candidates []Candidate
	for name, node := range current {
		if strings.HasPrefix(name, partial) {
			candidates = append(candidates, Candidate{Name: name, Desc: node.Desc})
		}
	}
	if last == nil {
		return candidates
	}
	if consumed {
		if last.Command != "" && partial == "" {
			candidates = append(candidates, Candidate{Name: "<[Enter]>", Desc: "Execute this command"})
		}
		return candidates
	}
	if last.DynamicFn != nil {
		for _, name := range last.DynamicFn() {
			if strings.HasPrefix(name, partial) {
				candidates = append(candidates, Candidate{Name: name, Desc: "(history)"})
			}
		}
	}
	if last.Placeholder != "" && partial == "" {
		candidates = append(candidates, Candidate{Name: "<argument>", Desc: last.Placeholder})
	}
	if last.Command != "" && partial == "" && !lg.Resolve(last.Command).NeedsArgument {
		candidates = append(candidates, Candidate{Name: "<[Enter]>", Desc: "Execute this command"})
	}
	return candidates
}

// LookupDesc finds the description for a candidate name given the command path words.
func LookupDesc(tree map[string]*Node, words []string, name string) string {
	current, _, _, ok := walk(tree, words)
	if !ok {
		return ""
	}
	if node, found := current[name]; found {
		return node.Desc
	}
	return ""
}

// WriteHelp prints aligned completion candidates to w.
// The entire output is built as a single string and written in one call
// so that readline's wrapWriter triggers only one Refresh cycle.
func WriteHelp(w io.Writer, candidates []Candidate) {
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Name < candidates[j].Name })
	maxWidth := 20
	for _, c := range candidates {
		if len(c.Name)+2 > maxWidth {
			maxWidth = len(c.Name) + 2
		}
	}
	var sb strings.Builder
	sb.WriteString("Possible completions:\n")
	for _, c := range candidates {
		if c.Desc != "" {
			fmt.Fprintf(&sb, "  %-*s %s\n", maxWidth, c.Name, c.Desc)
		} else {
			fmt.Fprintf(&sb, "  %s\n", c.Name)
		}
	}
	io.WriteString(w, sb.String())
}

// CommonPrefix returns the longest shared prefix among the given strings.
func CommonPrefix(items []string) string {
	if len(items) == 0 {
		return ""
	}
	prefix := items[0]
	for _, s := range items[1:] {
		for !strings.HasPrefix(s, prefix) {
			prefix = prefix[:len(prefix)-1]
			if prefix == "" {
				return ""
			}
		}
	}
	return prefix
}

// KeysOf returns an unsorted list of keys from a Node map.
func KeysOf(m map[string]*Node) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// FilterPrefix returns only items that start with the given prefix.
func FilterPrefix(items []string, prefix string) []string {
	if prefix == "" {
		return items
	}
	var result []string
	for _, item := range items {
		if strings.HasPrefix(item, prefix) {
			result = append(result, item)
		}
	}
	return result
}
