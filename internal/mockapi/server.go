package mockapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/PHJ369906/aox-miniapp/internal/api"
	"github.com/PHJ369906/aox-miniapp/internal/core/domain"
	"github.com/PHJ369906/aox-miniapp/internal/telemetry/logger"
	"github.com/PHJ369906/aox-miniapp/pkg/token"
)

type account struct {
	password string
	userID   int64
}

// Server is the fake backend. It is safe for concurrent use.
type Server struct {
	cfg      Config
	log      logger.Logger
	tokens   *tokenIssuer
	limiters *limiterRegistry
	router   chi.Router

	// generation is bumped by ExpireSessions; older credentials fail.
	generation       atomic.Uint64
	logins           atomic.Int64
	httpUnauthorized atomic.Bool

	mu         sync.RWMutex
	users      map[int64]*domain.UserProfile
	accounts   map[string]account
	byPhone    map[string]int64
	byOpenID   map[string]int64
	nextUserID int64
	data       *dataset
}

// New creates a server from cfg.
func New(cfg Config, log logger.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Default()
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}
	if cfg.SmsCode == "" {
		cfg.SmsCode = DefaultSmsCode
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	secret := []byte(cfg.Secret)
	if len(secret) == 0 {
		var err error
		if secret, err = token.GenerateBytes(token.DefaultLength); err != nil {
			return nil, err
		}
	}

	s := &Server{
		cfg: cfg,
		log: log.With("component", "mockapi"),
		tokens: &tokenIssuer{
			secret: secret,
			issuer: cfg.Issuer,
			ttl:    cfg.TokenTTL,
			now:    cfg.Now,
		},
		limiters: newLimiterRegistry(cfg.LoginRate, cfg.LoginBurst),
		users:    make(map[int64]*domain.UserProfile),
		accounts: make(map[string]account),
		byPhone:  make(map[string]int64),
		byOpenID: make(map[string]int64),
		data:     seedData(),
	}
	for _, a := range cfg.Accounts {
		id := s.createUserLocked(&domain.UserProfile{Nickname: a.Nickname, Phone: a.Phone})
		s.accounts[a.Username] = account{password: a.Password, userID: id}
	}
	s.httpUnauthorized.Store(cfg.HTTPUnauthorized)
	s.router = s.routes()
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID, recoverer(s.log), accessLog(s.log))

	r.Route(api.Prefix, func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.throttle)
			r.Post("/auth/login/password", s.handlePasswordLogin)
			r.Post("/auth/login/sms", s.handleSmsLogin)
			r.Post("/auth/login/wechat", s.handleWxLogin)
			r.Post("/auth/sms/send", s.handleSendSms)
		})
		r.Get("/banners", s.handleBanners)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/user/info", s.handleUserInfo)
			r.Post("/user/update", s.handleUserUpdate)
			r.Post("/user/bind-phone", s.handleBindPhone)

			r.Get("/orders", s.handleOrders)
			r.Get("/orders/stats", s.handleOrderStats)

			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", s.handleAddressList)
				r.Post("/", s.handleAddressCreate)
				r.Get("/{id}", s.handleAddressDetail)
				r.Put("/{id}", s.handleAddressUpdate)
				r.Put("/{id}/default", s.handleAddressDefault)
				r.Delete("/{id}", s.handleAddressRemove)
			})

			r.Get("/favorites", s.handleFavorites)
			r.Delete("/favorites/{id}", s.handleFavoriteRemove)

			r.Get("/messages", s.handleMessages)
			r.Post("/messages/read-all", s.handleMessagesReadAll)
			r.Get("/messages/unread-count", s.handleUnreadCount)
			r.Post("/messages/{id}/read", s.handleMessageRead)

			r.Get("/notices", s.handleNotices)
			r.Get("/notices/latest", s.handleNoticesLatest)
			r.Get("/notices/{id}", s.handleNoticeDetail)
			r.Post("/notices/{id}/read", s.handleNoticeRead)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, http.StatusNotFound, http.StatusNotFound, "not found", nil)
	})
	return r
}

// IssueCredential signs a credential for an existing user.
func (s *Server) IssueCredential(userID int64) (string, error) {
	if _, ok := s.profile(userID); !ok {
		return "", errors.New("mockapi: unknown user")
	}
	tok, _, err := s.tokens.issue(userID, s.generation.Load())
	return tok, err
}

// ExpireSessions invalidates every credential issued so far.
func (s *Server) ExpireSessions() {
	s.generation.Add(1)
	s.log.Info("sessions expired", "generation", s.generation.Load())
}

// SetHTTPUnauthorized switches how expired sessions are answered: HTTP 401
// when on, HTTP 200 with envelope code 401 when off.
func (s *Server) SetHTTPUnauthorized(on bool) {
	if s.httpUnauthorized.Swap(on) != on {
		s.log.Info("expiry status changed", "http_unauthorized", on)
	}
}

// Logins returns the number of successful logins.
func (s *Server) Logins() int64 { return s.logins.Load() }

// UserID returns the id of a configured account.
func (s *Server) UserID(username string) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[username]
	return a.userID, ok
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("mock backend listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}

func (s *Server) profile(id int64) (*domain.UserProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.users[id]
	return p.Clone(), ok
}

func (s *Server) createUserLocked(p *domain.UserProfile) int64 {
	s.nextUserID++
	id := 1000 + s.nextUserID
	cp := p.Clone()
	cp.UserID = id
	if cp.Nickname == "" {
		cp.Nickname = fmt.Sprintf("user%d", id)
	}
	s.users[id] = cp
	if cp.Phone != "" {
		s.byPhone[cp.Phone] = id
	}
	return id
}
