// Package navigation provides the page navigation capability and the guard
// that keeps unauthenticated users out of protected pages.
package navigation

import (
	"fmt"
	"strings"
)

// Kind is the navigation operation.
type Kind int

const (
	// Push opens the page on top of the stack.
	Push Kind = iota
	// Replace swaps the current page.
	Replace
	// Reset discards the stack and opens the page alone.
	Reset
)

// Kinds lists every navigation kind.
var Kinds = []Kind{Push, Replace, Reset}

func (k Kind) String() string {
	switch k {
	case Push:
		return "push"
	case Replace:
		return "replace"
	case Reset:
		return "reset"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind parses a kind name. The mini-program API names are accepted too.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "push", "navigateto", "":
		return Push, nil
	case "replace", "redirectto":
		return Replace, nil
	case "reset", "relaunch":
		return Reset, nil
	default:
		return 0, fmt.Errorf("navigation: unknown kind %q", s)
	}
}

// Navigator performs page transitions.
type Navigator interface {
	Navigate(kind Kind, url string) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(kind Kind, url string) error

func (f NavigatorFunc) Navigate(kind Kind, url string) error {
	return f(kind, url)
}

// StripQuery returns url without its query string.
func StripQuery(url string) string {
	if i := strings.IndexByte(url, '?'); i >= 0 {
		return url[:i]
	}
	return url
}
