package navigation

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Router errors.
var (
	ErrCancelled  = errors.New("navigation: cancelled by interceptor")
	ErrEmptyURL   = errors.New("navigation: empty url")
	ErrStackFull  = errors.New("navigation: page stack limit reached")
	ErrNoPrevious = errors.New("navigation: no previous page")
)

// DefaultMaxDepth mirrors the mini-program page stack limit.
const DefaultMaxDepth = 10

// Interceptor runs before a transition; returning false vetoes it.
type Interceptor func(kind Kind, url string) bool

// Transition records one completed navigation.
type Transition struct {
	Kind Kind
	URL  string
	At   time.Time
}

// Router is an in-memory page stack implementing Navigator.
//
// Interceptors run without the router lock held, so an interceptor may
// itself navigate (e.g. to the login page).
type Router struct {
	mu           sync.Mutex
	stack        []string
	history      []Transition
	maxDepth     int
	nextID       int
	interceptors map[Kind][]registered
}

type registered struct {
	id int
	fn Interceptor
}

// NewRouter creates a router whose stack starts at home (if non-empty).
func NewRouter(home string) *Router {
	r := &Router{
		maxDepth:     DefaultMaxDepth,
		interceptors: make(map[Kind][]registered),
	}
	if home != "" {
		r.stack = []string{home}
	}
	return r
}

// AddInterceptor registers fn for the given kinds (all kinds when none
// are given). The returned function unregisters it.
func (r *Router) AddInterceptor(fn Interceptor, kinds ...Kind) (remove func()) {
	if len(kinds) == 0 {
		kinds = Kinds
	}

	r.mu.Lock()
	r.nextID++
	id := r.nextID
	for _, k := range kinds {
		r.interceptors[k] = append(r.interceptors[k], registered{id: id, fn: fn})
	}
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for _, k := range kinds {
			list := r.interceptors[k]
			for i, reg := range list {
				if reg.id == id {
					r.interceptors[k] = append(list[:i:i], list[i+1:]...)
					break
				}
			}
		}
	}
}

// Navigate runs the interceptors for kind and then applies the transition.
func (r *Router) Navigate(kind Kind, url string) error {
	if url == "" {
		return ErrEmptyURL
	}

	r.mu.Lock()
	hooks := append([]registered(nil), r.interceptors[kind]...)
	r.mu.Unlock()

	for _, h := range hooks {
		if !h.fn(kind, url) {
			return fmt.Errorf("%w: %s %s", ErrCancelled, kind, url)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	switch kind {
	case Push:
		if len(r.stack) >= r.maxDepth {
			return ErrStackFull
		}
		r.stack = append(r.stack, url)
	case Replace:
		if len(r.stack) == 0 {
			r.stack = append(r.stack, url)
		} else {
			r.stack[len(r.stack)-1] = url
		}
	case Reset:
		r.stack = []string{url}
	default:
		return fmt.Errorf("navigation: unsupported kind %s", kind)
	}

	r.history = append(r.history, Transition{Kind: kind, URL: url, At: time.Now()})
	return nil
}

// Back pops the current page.
func (r *Router) Back() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.stack) < 2 {
		return ErrNoPrevious
	}
	r.stack = r.stack[:len(r.stack)-1]
	return nil
}

// Current returns the top of the stack, or "" when empty.
func (r *Router) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.stack) == 0 {
		return ""
	}
	return r.stack[len(r.stack)-1]
}

// Stack returns a copy of the page stack, bottom first.
func (r *Router) Stack() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.stack...)
}

// History returns the completed transitions in order.
func (r *Router) History() []Transition {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Transition(nil), r.history...)
}
