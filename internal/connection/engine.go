package connection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/PHJ369906/aox-miniapp/internal/core/domain"
	"github.com/PHJ369906/aox-miniapp/internal/navigation"
	"github.com/PHJ369906/aox-miniapp/internal/notify"
	"github.com/PHJ369906/aox-miniapp/internal/storage"
	"github.com/PHJ369906/aox-miniapp/internal/telemetry/logger"
	"github.com/PHJ369906/aox-miniapp/internal/telemetry/metric"
)

// DefaultUserAgent is sent when Options.UserAgent is empty.
const DefaultUserAgent = "aox-miniapp"

// Options configures an Engine. BaseURL, Store and Navigator are required.
type Options struct {
	BaseURL   string
	Transport Transport
	Store     storage.KV
	Navigator navigation.Navigator
	Notifier  notify.Notifier
	Signal    *Signal
	Gate      *RedirectGate
	LoginPath string
	Logger    logger.Logger
	Metrics   *metric.Registry
	UserAgent string
}

// Request is one call through the engine.
type Request struct {
	Method string
	Path   string
	// Body is sent as JSON, or as the query string for GET.
	Body any
	// Header overrides the default headers. Authorization is always
	// derived from the stored credential when one exists.
	Header http.Header
}

// Engine is the single pipeline every API call goes through. It injects
// the stored credential, classifies the response envelope and handles
// session expiry.
type Engine struct {
	baseURL   string
	transport Transport
	store     storage.KV
	nav       navigation.Navigator
	notifier  notify.Notifier
	signal    *Signal
	gate      *RedirectGate
	loginPath string
	logger    logger.Logger
	metrics   *metric.Registry
	userAgent string
}

// NewEngine creates an engine, filling unset optional fields.
func NewEngine(opts Options) (*Engine, error) {
	baseURL := NormalizeBaseURL(opts.BaseURL)
	if baseURL == "" {
		return nil, errors.New("connection: base url is required")
	}
	if opts.Store == nil {
		return nil, errors.New("connection: store is required")
	}
	if opts.Navigator == nil {
		return nil, errors.New("connection: navigator is required")
	}

	e := &Engine{
		baseURL:   baseURL,
		transport: opts.Transport,
		store:     opts.Store,
		nav:       opts.Navigator,
		notifier:  opts.Notifier,
		signal:    opts.Signal,
		gate:      opts.Gate,
		loginPath: opts.LoginPath,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		userAgent: opts.UserAgent,
	}
	if e.transport == nil {
		e.transport = NewHTTPTransport(nil)
	}
	if e.notifier == nil {
		e.notifier = notify.Discard
	}
	if e.signal == nil {
		e.signal = NewSignal()
	}
	if e.gate == nil {
		e.gate = NewRedirectGate(DefaultRedirectCooldown, RealClock)
	}
	if e.loginPath == "" {
		e.loginPath = navigation.DefaultLoginPath
	}
	if e.logger == nil {
		e.logger = logger.Default()
	}
	e.logger = e.logger.With("component", "engine")
	if e.userAgent == "" {
		e.userAgent = DefaultUserAgent
	}
	return e, nil
}

// BaseURL returns the normalized base address.
func (e *Engine) BaseURL() string { return e.baseURL }

// Signal returns the expiry signal the engine emits on.
func (e *Engine) Signal() *Signal { return e.signal }

// Gate returns the login redirect gate.
func (e *Engine) Gate() *RedirectGate { return e.gate }

// Do issues req and returns the envelope data on success.
//
// Failures are *domain.Error values: KindTransport when no response was
// received, KindAuthExpired for HTTP 401 or envelope code 401, and
// KindBusiness for any other non-zero code.
func (e *Engine) Do(ctx context.Context, req Request) (json.RawMessage, error) {
	start := time.Now()
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	reqID := logger.RequestIDFromContext(ctx)
	if reqID == "" {
		reqID = ulid.Make().String()
		ctx = logger.WithRequestID(ctx, reqID)
	}
	log := e.logger.WithContext(ctx).With("method", method, "path", req.Path)

	httpReq, err := e.newHTTPRequest(ctx, method, reqID, req)
	if err != nil {
		return nil, err
	}

	resp, err := e.transport.Do(httpReq)
	if err != nil {
		return nil, e.transportFailure(ctx, log, method, req.Path, 0, err, start)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, e.transportFailure(ctx, log, method, req.Path, resp.StatusCode, err, start)
	}

	var env domain.Envelope
	decodeErr := json.Unmarshal(body, &env)

	if resp.StatusCode == http.StatusUnauthorized || (decodeErr == nil && env.Code == domain.CodeUnauthorized) {
		return nil, e.expire(ctx, log, method, req.Path, resp.StatusCode, env, start)
	}

	if decodeErr != nil {
		e.notifier.Notify(ctx, domain.MsgRequestFailed)
		e.metrics.ObserveRequest(method, metric.OutcomeBusiness, time.Since(start))
		log.Warn("undecodable response", "status", resp.StatusCode, "error", decodeErr)
		return nil, &domain.Error{
			Kind:    domain.KindBusiness,
			Status:  resp.StatusCode,
			Message: domain.MsgInvalidPayload,
			Path:    req.Path,
			Cause:   decodeErr,
		}
	}

	if env.OK() {
		e.metrics.ObserveRequest(method, metric.OutcomeOK, time.Since(start))
		log.Debug("request completed", "status", resp.StatusCode, "elapsed", time.Since(start))
		return env.Data, nil
	}

	msg := env.Msg
	if msg == "" {
		msg = domain.MsgRequestFailed
	}
	e.notifier.Notify(ctx, msg)
	e.metrics.ObserveRequest(method, metric.OutcomeBusiness, time.Since(start))
	log.Warn("request rejected", "status", resp.StatusCode, "code", env.Code, "msg", msg)
	return nil, &domain.Error{
		Kind:    domain.KindBusiness,
		Code:    env.Code,
		Status:  resp.StatusCode,
		Message: msg,
		Path:    req.Path,
	}
}

func (e *Engine) newHTTPRequest(ctx context.Context, method, reqID string, req Request) (*http.Request, error) {
	target := e.baseURL + req.Path
	var body io.Reader

	if method == http.MethodGet {
		query, err := EncodeQuery(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode query: %w", err)
		}
		if query != "" {
			sep := "?"
			if strings.Contains(target, "?") {
				sep = "&"
			}
			target += sep + query
		}
	} else if req.Body != nil {
		data, err := marshalBody(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", e.userAgent)
	httpReq.Header.Set("X-Request-ID", reqID)
	for k, vs := range req.Header {
		httpReq.Header.Del(k)
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	cred, err := storage.GetString(ctx, e.store, storage.KeyCredential)
	if err != nil {
		e.logger.Warn("read credential failed", "error", err)
	}
	if auth := domain.AuthorizationValue(cred); auth != "" {
		httpReq.Header.Set("Authorization", auth)
	}
	return httpReq, nil
}

func marshalBody(v any) ([]byte, error) {
	switch b := v.(type) {
	case json.RawMessage:
		return b, nil
	case []byte:
		return b, nil
	}
	return json.Marshal(v)
}

func (e *Engine) transportFailure(ctx context.Context, log logger.Logger, method, path string, status int, cause error, start time.Time) error {
	e.notifier.Notify(ctx, domain.MsgNetworkError)
	e.metrics.ObserveRequest(method, metric.OutcomeTransport, time.Since(start))
	log.Error("request failed", "error", cause)
	return &domain.Error{
		Kind:    domain.KindTransport,
		Status:  status,
		Message: domain.MsgNetworkError,
		Path:    path,
		Cause:   cause,
	}
}

// expire clears the persisted session, broadcasts the expiry and sends
// the user to the login page at most once per gate cooldown.
func (e *Engine) expire(ctx context.Context, log logger.Logger, method, path string, status int, env domain.Envelope, start time.Time) error {
	msg := env.Msg
	if msg == "" {
		msg = domain.MsgAuthExpired
	}

	// Storage cleanup must happen even if the caller has given up.
	cleanupCtx := context.WithoutCancel(ctx)
	for _, key := range []string{storage.KeyCredential, storage.KeyProfile} {
		if err := e.store.Remove(cleanupCtx, key); err != nil {
			log.Warn("remove persisted key failed", "key", key, "error", err)
		}
	}

	e.signal.Emit(domain.ExpiryEvent{
		Path:    path,
		Status:  status,
		Code:    env.Code,
		Message: msg,
		At:      time.Now(),
	})

	issued := e.gate.TryRedirect(func() {
		if err := e.nav.Navigate(navigation.Reset, e.loginPath); err != nil {
			log.Warn("login redirect failed", "error", err)
		}
	})
	e.metrics.ObserveRedirect(issued)
	e.metrics.ObserveRequest(method, metric.OutcomeAuthExpired, time.Since(start))
	log.Info("session expired", "status", status, "code", env.Code, "redirected", issued)

	return &domain.Error{
		Kind:    domain.KindAuthExpired,
		Code:    env.Code,
		Status:  status,
		Message: msg,
		Path:    path,
	}
}
