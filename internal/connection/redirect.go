package connection

import (
	"sync"
	"time"
)

// DefaultRedirectCooldown is how long the gate suppresses further login
// redirects after letting one through.
const DefaultRedirectCooldown = 800 * time.Millisecond

// GateState is the redirect gate state.
type GateState int

const (
	GateIdle GateState = iota
	GateCoolingDown
)

func (s GateState) String() string {
	if s == GateCoolingDown {
		return "cooling_down"
	}
	return "idle"
}

// Timer is the part of *time.Timer the gate needs.
type Timer interface {
	Stop() bool
}

// Clock schedules the cooldown expiry.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock uses the time package.
var RealClock Clock = realClock{}

// RedirectGate lets one login redirect through per cooldown window, so a
// burst of concurrently expiring requests navigates only once.
type RedirectGate struct {
	mu       sync.Mutex
	state    GateState
	cooldown time.Duration
	clock    Clock
	timer    Timer
	gen      uint64
}

// NewRedirectGate creates an idle gate. A non-positive cooldown selects
// DefaultRedirectCooldown; a nil clock selects RealClock.
func NewRedirectGate(cooldown time.Duration, clock Clock) *RedirectGate {
	if cooldown <= 0 {
		cooldown = DefaultRedirectCooldown
	}
	if clock == nil {
		clock = RealClock
	}
	return &RedirectGate{cooldown: cooldown, clock: clock}
}

// TryRedirect runs fn and returns true when the gate is idle; the gate
// then cools down for the configured window whatever happens meanwhile.
// While cooling down it returns false without running fn.
func (g *RedirectGate) TryRedirect(fn func()) bool {
	g.mu.Lock()
	if g.state == GateCoolingDown {
		g.mu.Unlock()
		return false
	}
	g.state = GateCoolingDown
	g.gen++
	gen := g.gen
	g.timer = g.clock.AfterFunc(g.cooldown, func() { g.expire(gen) })
	g.mu.Unlock()

	fn()
	return true
}

// expire ends the cooldown started as generation gen; a timer that fires
// after Stop has no effect.
func (g *RedirectGate) expire(gen uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if gen != g.gen {
		return
	}
	g.state = GateIdle
	g.timer = nil
}

// State returns the current state.
func (g *RedirectGate) State() GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Cooldown returns the configured window.
func (g *RedirectGate) Cooldown() time.Duration {
	return g.cooldown
}

// Stop cancels a pending cooldown and returns the gate to idle.
func (g *RedirectGate) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	g.gen++
	g.state = GateIdle
}
