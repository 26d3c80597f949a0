package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PHJ369906/aox-miniapp/internal/api"
	"github.com/PHJ369906/aox-miniapp/internal/connection"
	"github.com/PHJ369906/aox-miniapp/internal/core/domain"
	"github.com/PHJ369906/aox-miniapp/internal/core/service"
	"github.com/PHJ369906/aox-miniapp/internal/infra/buildinfo"
	"github.com/PHJ369906/aox-miniapp/internal/infra/tlsroots"
	"github.com/PHJ369906/aox-miniapp/internal/navigation"
	"github.com/PHJ369906/aox-miniapp/internal/notify"
	"github.com/PHJ369906/aox-miniapp/internal/storage"
	"github.com/PHJ369906/aox-miniapp/internal/telemetry/logger"
	"github.com/PHJ369906/aox-miniapp/internal/telemetry/metric"
	"github.com/PHJ369906/aox-miniapp/pkg/token"
)

// Config is what the client needs to know about its environment.
type Config struct {
	Server           string
	Home             string
	RedirectCooldown time.Duration
	Guard            navigation.GuardConfig
	Storage          storage.Config
	// CAFile adds PEM roots trusted for the backend. Ignored when
	// Options.Transport is set.
	CAFile string
}

// Options carries injected collaborators. All fields are optional.
type Options struct {
	Logger    logger.Logger
	Metrics   *metric.Registry
	Notifier  notify.Notifier
	Transport connection.Transport
	Clock     connection.Clock
	// Store replaces the store described by Config.Storage. The caller
	// keeps ownership and Close leaves it open.
	Store storage.KV
}

// Client is a fully wired mini-app client.
type Client struct {
	cfg     Config
	log     logger.Logger
	metrics *metric.Registry

	store     storage.KV
	ownsStore bool

	router  *navigation.Router
	engine  *connection.Engine
	api     *api.Client
	session *service.SessionService
	guard   *navigation.Guard

	stopWatch   func()
	removeGuard func()
}

// New wires a client and hydrates the session from the store.
func New(ctx context.Context, cfg Config, opts Options) (*Client, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}
	if cfg.RedirectCooldown <= 0 {
		cfg.RedirectCooldown = connection.DefaultRedirectCooldown
	}
	if cfg.Guard.LoginPath == "" {
		cfg.Guard.LoginPath = navigation.DefaultLoginPath
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.NewLogNotifier(log)
	}

	c := &Client{
		cfg:     cfg,
		log:     log.With("component", "app"),
		metrics: opts.Metrics,
		store:   opts.Store,
	}
	if c.store == nil {
		kv, err := storage.Open(ctx, cfg.Storage, log)
		if err != nil {
			return nil, fmt.Errorf("app: open store: %w", err)
		}
		c.store = kv
		c.ownsStore = true
	}

	transport := opts.Transport
	if transport == nil && cfg.CAFile != "" {
		pool, err := tlsroots.LoadCAFile(cfg.CAFile)
		if err != nil {
			c.closeStore()
			return nil, err
		}
		transport = connection.NewHTTPTransport(pool.HTTPClient())
		c.log.Debug("trusting extra roots", "ca_file", cfg.CAFile, "certs", pool.Added())
	}

	c.router = navigation.NewRouter(cfg.Home)
	engine, err := connection.NewEngine(connection.Options{
		BaseURL:   cfg.Server,
		Transport: transport,
		Store:     c.store,
		Navigator: c.router,
		Notifier:  notifier,
		Gate:      connection.NewRedirectGate(cfg.RedirectCooldown, opts.Clock),
		LoginPath: cfg.Guard.LoginPath,
		Logger:    log,
		Metrics:   opts.Metrics,
		UserAgent: buildinfo.UserAgent(),
	})
	if err != nil {
		c.closeStore()
		return nil, err
	}
	c.engine = engine
	c.api = api.New(engine)

	c.session = service.NewSessionService(c.store, c.api.User, c.router, service.SessionOptions{
		LoginPath: cfg.Guard.LoginPath,
		Logger:    log,
		Metrics:   opts.Metrics,
	})
	c.stopWatch = c.session.Watch(engine.Signal())

	c.guard = navigation.NewGuard(c.session, c.router, cfg.Guard, log)
	c.removeGuard = c.guard.Install(c.router)

	if err := c.session.Init(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// API returns the typed endpoints.
func (c *Client) API() *api.Client { return c.api }

// Engine returns the request engine.
func (c *Client) Engine() *connection.Engine { return c.engine }

// Session returns the session store.
func (c *Client) Session() *service.SessionService { return c.session }

// Router returns the page router.
func (c *Client) Router() *navigation.Router { return c.router }

// Guard returns the navigation guard.
func (c *Client) Guard() *navigation.Guard { return c.guard }

// Store returns the persistent store.
func (c *Client) Store() storage.KV { return c.store }

// Close detaches the expiry subscription and the guard, stops the redirect
// gate and closes the store when the client opened it.
func (c *Client) Close() error {
	if c.stopWatch != nil {
		c.stopWatch()
	}
	if c.removeGuard != nil {
		c.removeGuard()
	}
	if c.engine != nil {
		c.engine.Gate().Stop()
	}
	return c.closeStore()
}

func (c *Client) closeStore() error {
	if !c.ownsStore || c.store == nil {
		return nil
	}
	c.ownsStore = false
	return c.store.Close()
}

// ============================================================================
// Login flows
// ============================================================================

// LoginWithToken adopts an existing credential. It succeeds only when the
// server accepts it for a profile fetch.
func (c *Client) LoginWithToken(ctx context.Context, credential string) (*domain.UserProfile, error) {
	if err := c.session.Login(ctx, credential, nil); err != nil {
		return nil, err
	}
	return c.session.Profile(), nil
}

// LoginWithPassword signs in with username and password.
func (c *Client) LoginWithPassword(ctx context.Context, username, password string) (*domain.UserProfile, error) {
	resp, err := c.api.User.PasswordLogin(ctx, api.PasswordLoginRequest{Username: username, Password: password})
	return c.completeLogin(ctx, "password", resp, err)
}

// LoginWithSMS signs in with a phone number and a one-time code.
func (c *Client) LoginWithSMS(ctx context.Context, phone, code string) (*domain.UserProfile, error) {
	resp, err := c.api.User.SmsLogin(ctx, api.SmsLoginRequest{Phone: phone, Code: code})
	return c.completeLogin(ctx, "sms", resp, err)
}

// LoginWithWeChat signs in with a WeChat authorization code.
func (c *Client) LoginWithWeChat(ctx context.Context, code string) (*domain.UserProfile, error) {
	resp, err := c.api.User.WxLogin(ctx, api.WxLoginRequest{Code: code})
	return c.completeLogin(ctx, "wechat", resp, err)
}

func (c *Client) completeLogin(ctx context.Context, method string, resp *api.LoginResponse, err error) (*domain.UserProfile, error) {
	if err != nil {
		c.log.Info("login rejected", "method", method, "error", err)
		return nil, err
	}
	if resp == nil || resp.Token == "" {
		return nil, domain.ErrUnauthenticated.WithMessage("login response carried no credential")
	}
	if err := c.session.Login(ctx, resp.Token, resp.User.Profile()); err != nil {
		return nil, err
	}
	c.log.Info("login completed", "method", method, "fingerprint", token.Fingerprint(resp.Token))
	return c.session.Profile(), nil
}

// Logout clears the session and resets navigation to the login page.
func (c *Client) Logout(ctx context.Context) error {
	return c.session.Logout(ctx)
}

// ============================================================================
// Navigation
// ============================================================================

// Open navigates to path through the guard. When the page is protected
// and there is no session the router ends on the login page and the
// returned error matches navigation.ErrLoginRequired.
func (c *Client) Open(path string, kind navigation.Kind) error {
	err := c.router.Navigate(kind, path)
	if errors.Is(err, navigation.ErrCancelled) && c.guard.RequiresAuth(path) && !c.session.Authenticated() {
		return fmt.Errorf("%w: %s", navigation.ErrLoginRequired, path)
	}
	return err
}

// ============================================================================
// Status
// ============================================================================

// Status summarizes the local session without contacting the server.
type Status struct {
	Server        string    `json:"server"`
	Authenticated bool      `json:"authenticated"`
	Fingerprint   string    `json:"fingerprint,omitempty"`
	UserID        int64     `json:"user_id,omitempty"`
	Nickname      string    `json:"nickname,omitempty"`
	Subject       string    `json:"subject,omitempty" table:"wide"`
	Issuer        string    `json:"issuer,omitempty" table:"wide"`
	ExpiresAt     time.Time `json:"expires_at,omitempty"`
	Expired       bool      `json:"expired"`
	Page          string    `json:"page"`
}

// Status reports the session as of now. Claims are read without
// verification and are informational only.
func (c *Client) Status(now time.Time) Status {
	snap := c.session.Snapshot()
	st := Status{
		Server:        c.engine.BaseURL(),
		Authenticated: snap.Authenticated(),
		Fingerprint:   token.Fingerprint(snap.Credential),
		Page:          c.router.Current(),
	}
	if snap.Profile != nil {
		st.UserID = snap.Profile.UserID
		st.Nickname = snap.Profile.Nickname
	}
	if info, err := domain.InspectCredential(snap.Credential); err == nil {
		st.Subject = info.Subject
		st.Issuer = info.Issuer
		st.ExpiresAt = info.ExpiresAt
		st.Expired = info.Expired(now)
	}
	return st
}
