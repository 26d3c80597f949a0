package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/PHJ369906/aox-miniapp/internal/core/domain"
	"github.com/PHJ369906/aox-miniapp/internal/navigation"
	"github.com/PHJ369906/aox-miniapp/internal/storage"
	"github.com/PHJ369906/aox-miniapp/internal/telemetry/logger"
	"github.com/PHJ369906/aox-miniapp/internal/telemetry/metric"
)

// Session transition events, as recorded in metrics.
const (
	EventInit    = "init"
	EventLogin   = "login"
	EventClear   = "clear"
	EventLogout  = "logout"
	EventExpired = "expired"
)

// ProfileFetcher loads the current user's profile from the remote service.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context) (*domain.UserProfile, error)
}

// ExpirySource broadcasts authentication expiry.
type ExpirySource interface {
	Subscribe(fn func(domain.ExpiryEvent)) (unsubscribe func())
}

// SessionOptions holds optional SessionService settings.
type SessionOptions struct {
	LoginPath string
	Logger    logger.Logger
	Metrics   *metric.Registry
}

// SessionService owns the process-wide session. Every mutation updates
// the in-memory fields and mirrors them to storage; the authenticated
// flag is always derived from the credential.
type SessionService struct {
	mu      sync.RWMutex
	session domain.Session

	store     storage.KV
	fetcher   ProfileFetcher
	nav       navigation.Navigator
	loginPath string
	logger    logger.Logger
	metrics   *metric.Registry
}

// NewSessionService creates an empty session store.
func NewSessionService(store storage.KV, fetcher ProfileFetcher, nav navigation.Navigator, opts SessionOptions) *SessionService {
	if opts.LoginPath == "" {
		opts.LoginPath = navigation.DefaultLoginPath
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	return &SessionService{
		store:     store,
		fetcher:   fetcher,
		nav:       nav,
		loginPath: opts.LoginPath,
		logger:    opts.Logger.With("component", "session"),
		metrics:   opts.Metrics,
	}
}

// ============================================================================
// Hydration
// ============================================================================

// Init loads the persisted credential and profile without contacting the
// remote service. A stored credential is trusted until a request proves
// otherwise.
func (s *SessionService) Init(ctx context.Context) error {
	cred, err := storage.GetString(ctx, s.store, storage.KeyCredential)
	if err != nil {
		return fmt.Errorf("session: read credential: %w", err)
	}

	profile, err := s.loadProfile(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.session = domain.Session{
		Credential: domain.NormalizeCredential(cred),
		Profile:    profile,
	}
	authed := s.session.Authenticated()
	s.mu.Unlock()

	s.metrics.ObserveSession(EventInit)
	s.logger.Debug("session initialized", "authenticated", authed, "has_profile", profile != nil)
	return nil
}

func (s *SessionService) loadProfile(ctx context.Context) (*domain.UserProfile, error) {
	raw, err := s.store.Get(ctx, storage.KeyProfile)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: read profile: %w", err)
	}

	var p domain.UserProfile
	if err := json.Unmarshal(raw, &p); err != nil {
		s.logger.Warn("discarding unreadable persisted profile", "error", err)
		return nil, nil
	}
	return &p, nil
}

// ============================================================================
// Mutations
// ============================================================================

// SetCredential normalizes raw and stores it. An empty result removes the
// persisted key.
func (s *SessionService) SetCredential(ctx context.Context, raw string) error {
	cred := domain.NormalizeCredential(raw)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.session.Credential = cred
	if cred == "" {
		if err := s.store.Remove(ctx, storage.KeyCredential); err != nil {
			return fmt.Errorf("session: remove credential: %w", err)
		}
		return nil
	}
	if err := s.store.Set(ctx, storage.KeyCredential, []byte(cred)); err != nil {
		return fmt.Errorf("session: persist credential: %w", err)
	}
	return nil
}

// SetProfile stores profile; nil removes it.
func (s *SessionService) SetProfile(ctx context.Context, profile *domain.UserProfile) error {
	profile = profile.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.session.Profile = profile
	if profile == nil {
		if err := s.store.Remove(ctx, storage.KeyProfile); err != nil {
			return fmt.Errorf("session: remove profile: %w", err)
		}
		return nil
	}

	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("session: encode profile: %w", err)
	}
	if err := s.store.Set(ctx, storage.KeyProfile, data); err != nil {
		return fmt.Errorf("session: persist profile: %w", err)
	}
	return nil
}

// Login stores the credential (and profile, when given) and validates it
// by fetching the profile. Any validation failure clears the session and
// returns an error matching domain.ErrUnauthenticated.
func (s *SessionService) Login(ctx context.Context, rawCredential string, profile *domain.UserProfile) error {
	if err := s.SetCredential(ctx, rawCredential); err != nil {
		return err
	}
	if s.Credential() == "" {
		s.Clear(ctx)
		return domain.ErrUnauthenticated.WithMessage("empty credential")
	}

	if profile != nil {
		if err := s.SetProfile(ctx, profile); err != nil {
			s.Clear(ctx)
			return err
		}
	}

	fetched, err := s.FetchProfile(ctx)
	if err != nil {
		if clearErr := s.Clear(ctx); clearErr != nil {
			s.logger.Warn("clear after failed login", "error", clearErr)
		}
		return domain.ErrUnauthenticated.WithCause(err)
	}

	s.metrics.ObserveSession(EventLogin)
	s.logger.Info("login succeeded", "user_id", fetched.UserID)
	return nil
}

// FetchProfile refreshes the profile from the remote service. Expiry-class
// failures are expected and logged at info; anything else at error.
func (s *SessionService) FetchProfile(ctx context.Context) (*domain.UserProfile, error) {
	if s.fetcher == nil {
		return nil, errors.New("session: no profile fetcher configured")
	}

	profile, err := s.fetcher.FetchProfile(ctx)
	if err != nil {
		switch domain.KindOf(err) {
		case domain.KindAuthExpired, domain.KindUnauthenticated:
			s.logger.Info("profile fetch rejected", "error", err)
		default:
			s.logger.Error("profile fetch failed", "error", err)
		}
		return nil, err
	}
	if profile == nil {
		err := errors.New("session: empty profile")
		s.logger.Error("profile fetch failed", "error", err)
		return nil, err
	}

	if err := s.SetProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile.Clone(), nil
}

// Clear empties the session and removes both persisted keys. Clearing an
// empty session is a no-op.
func (s *SessionService) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = domain.Session{}
	err := errors.Join(
		s.store.Remove(ctx, storage.KeyCredential),
		s.store.Remove(ctx, storage.KeyProfile),
	)
	s.metrics.ObserveSession(EventClear)
	if err != nil {
		return fmt.Errorf("session: clear: %w", err)
	}
	return nil
}

// Logout clears the session and resets navigation to the login page,
// even when clearing storage failed.
func (s *SessionService) Logout(ctx context.Context) error {
	clearErr := s.Clear(ctx)

	var navErr error
	if s.nav != nil {
		navErr = s.nav.Navigate(navigation.Reset, s.loginPath)
	}

	s.metrics.ObserveSession(EventLogout)
	s.logger.Info("logged out")
	return errors.Join(clearErr, navErr)
}

// Watch clears the in-memory session whenever src reports expiry. The
// persisted keys are removed by the emitter.
func (s *SessionService) Watch(src ExpirySource) (stop func()) {
	return src.Subscribe(func(ev domain.ExpiryEvent) {
		s.mu.Lock()
		s.session = domain.Session{}
		s.mu.Unlock()

		s.metrics.ObserveSession(EventExpired)
		s.logger.Info("session expired", "path", ev.Path, "status", ev.Status, "code", ev.Code)
	})
}

// ============================================================================
// Accessors
// ============================================================================

// Snapshot returns a copy of the current session.
func (s *SessionService) Snapshot() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Session{
		Credential: s.session.Credential,
		Profile:    s.session.Profile.Clone(),
	}
}

// Authenticated reports whether a credential is present.
func (s *SessionService) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Authenticated()
}

// Credential returns the normalized credential, or "".
func (s *SessionService) Credential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Credential
}

// Profile returns a copy of the profile, or nil.
func (s *SessionService) Profile() *domain.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Profile.Clone()
}
