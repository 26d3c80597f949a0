package repl

import (
	"sort"
	"strings"
)

// builtins are handled by the REPL itself.
var builtins = []string{"exit", "help", "history", "quit"}

// Completer suggests command paths such as "orders list".
type Completer struct {
	commands []string
}

// NewCompleter indexes commands alongside the REPL builtins.
func NewCompleter(commands []string) *Completer {
	seen := make(map[string]bool)
	var all []string
	for _, c := range append(append([]string{}, builtins...), commands...) {
		if c != "" && !seen[c] {
			seen[c] = true
			all = append(all, c)
		}
	}
	sort.Strings(all)
	return &Completer{commands: all}
}

// Complete returns the sorted commands starting with prefix.
func (c *Completer) Complete(prefix string) []string {
	trailing := strings.HasSuffix(prefix, " ")
	prefix = strings.Join(strings.Fields(prefix), " ")
	if trailing && prefix != "" {
		prefix += " "
	}
	var out []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			out = append(out, cmd)
		}
	}
	return out
}
