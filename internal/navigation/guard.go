package navigation

import (
	"errors"
	"strings"

	"github.com/PHJ369906/aox-miniapp/internal/telemetry/logger"
)

// DefaultLoginPath is the login page.
const DefaultLoginPath = "/pages/login/login"

// DefaultAllowList holds pages that never require a session.
var DefaultAllowList = []string{
	"/pages/index/index",
	"/pages/login/login",
	"/pages/category/index",
}

// DefaultProtectedList holds pages that require a session.
var DefaultProtectedList = []string{
	"/pages/user/index",
	"/pages/order/index",
	"/pages/order/detail",
	"/pages/address/index",
	"/pages/address/edit",
	"/pages/message/index",
}

// ErrLoginRequired is returned by NavigateWithAuth when the user was sent
// to the login page instead of the requested one.
var ErrLoginRequired = errors.New("navigation: login required")

// SessionState is the view of the session the guard consults.
type SessionState interface {
	Authenticated() bool
}

// GuardConfig configures the path lists. Matching is by prefix.
type GuardConfig struct {
	LoginPath     string   `koanf:"login_path"`
	AllowList     []string `koanf:"allow_list"`
	ProtectedList []string `koanf:"protected_list"`
}

// DefaultGuardConfig returns the mini-app page lists.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		LoginPath:     DefaultLoginPath,
		AllowList:     append([]string(nil), DefaultAllowList...),
		ProtectedList: append([]string(nil), DefaultProtectedList...),
	}
}

// Guard gates navigation to protected pages.
type Guard struct {
	cfg     GuardConfig
	session SessionState
	nav     Navigator
	logger  logger.Logger
}

// NewGuard creates a guard. Empty config fields fall back to defaults.
func NewGuard(session SessionState, nav Navigator, cfg GuardConfig, log logger.Logger) *Guard {
	def := DefaultGuardConfig()
	if cfg.LoginPath == "" {
		cfg.LoginPath = def.LoginPath
	}
	if cfg.AllowList == nil {
		cfg.AllowList = def.AllowList
	}
	if cfg.ProtectedList == nil {
		cfg.ProtectedList = def.ProtectedList
	}
	if log == nil {
		log = logger.Default()
	}

	return &Guard{
		cfg:     cfg,
		session: session,
		nav:     nav,
		logger:  log.With("component", "guard"),
	}
}

// LoginPath returns the configured login page.
func (g *Guard) LoginPath() string {
	return g.cfg.LoginPath
}

// RequiresAuth reports whether path needs a session. The allow-list wins
// over the protected-list; pages on neither list are open.
func (g *Guard) RequiresAuth(path string) bool {
	path = StripQuery(path)
	if hasAnyPrefix(path, g.cfg.AllowList) {
		return false
	}
	return hasAnyPrefix(path, g.cfg.ProtectedList)
}

// CheckAuth returns true when a session exists. Otherwise it opens the
// login page with returnPath as the redirect target and returns false.
func (g *Guard) CheckAuth(returnPath string) bool {
	if g.session.Authenticated() {
		return true
	}

	target := LoginURL(g.cfg.LoginPath, returnPath)
	if err := g.nav.Navigate(Push, target); err != nil {
		g.logger.Warn("login redirect failed", "target", target, "error", err)
	}
	return false
}

// NavigateWithAuth performs the navigation unless path is protected and
// there is no session, in which case the user lands on the login page
// and ErrLoginRequired is returned.
func (g *Guard) NavigateWithAuth(path string, kind Kind) error {
	if g.RequiresAuth(path) && !g.CheckAuth(path) {
		return ErrLoginRequired
	}
	return g.nav.Navigate(kind, path)
}

// Interceptor returns the pre-navigation hook used by Install.
func (g *Guard) Interceptor() Interceptor {
	return func(kind Kind, url string) bool {
		if !g.RequiresAuth(url) || g.session.Authenticated() {
			return true
		}

		target := LoginURL(g.cfg.LoginPath, url)
		g.logger.Debug("navigation intercepted", "kind", kind.String(), "url", url)
		if err := g.nav.Navigate(Push, target); err != nil {
			g.logger.Warn("login redirect failed", "target", target, "error", err)
		}
		return false
	}
}

// Install registers the guard on r for push, replace and reset.
func (g *Guard) Install(r *Router) (remove func()) {
	return r.AddInterceptor(g.Interceptor(), Push, Replace, Reset)
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
