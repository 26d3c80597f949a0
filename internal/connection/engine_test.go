package connection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/PHJ369906/aox-miniapp/internal/core/domain"
	"github.com/PHJ369906/aox-miniapp/internal/navigation"
	"github.com/PHJ369906/aox-miniapp/internal/notify"
	"github.com/PHJ369906/aox-miniapp/internal/storage"
	"github.com/PHJ369906/aox-miniapp/internal/telemetry/logger"
	"github.com/PHJ369906/aox-miniapp/internal/telemetry/metric"
)

type testEnv struct {
	engine  *Engine
	store   *storage.MemoryKV
	router  *navigation.Router
	notes   *notify.Recorder
	clock   *ManualClock
	metrics *metric.Registry
}

// newTestEngine wires an engine against an httptest server running h.
func newTestEngine(t *testing.T, h http.Handler) *testEnv {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	return newTestEngineWithTransport(t, server.URL, nil)
}

func newTestEngineWithTransport(t *testing.T, baseURL string, tr Transport) *testEnv {
	t.Helper()
	env := &testEnv{
		store:   storage.NewMemoryKV(),
		router:  navigation.NewRouter("/pages/index/index"),
		notes:   &notify.Recorder{},
		clock:   NewManualClock(time.Unix(0, 0)),
		metrics: metric.NewRegistry(),
	}

	e, err := NewEngine(Options{
		BaseURL:   baseURL,
		Transport: tr,
		Store:     env.store,
		Navigator: env.router,
		Notifier:  env.notes,
		Gate:      NewRedirectGate(DefaultRedirectCooldown, env.clock),
		Logger:    logger.Discard(),
		Metrics:   env.metrics,
		UserAgent: "aox-miniapp/test",
	})
	if err != nil {
		t.Fatal(err)
	}
	env.engine = e
	return env
}

func writeEnvelope(w http.ResponseWriter, status, code int, msg string, data any) {
	raw, _ := json.Marshal(data)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(domain.Envelope{Code: code, Msg: msg, Data: raw, Timestamp: time.Now().UnixMilli()})
}

func (env *testEnv) loginResets() int {
	n := 0
	for _, tr := range env.router.History() {
		if tr.Kind == navigation.Reset && tr.URL == navigation.DefaultLoginPath {
			n++
		}
	}
	return n
}

type transportFunc func(*http.Request) (*http.Response, error)

func (f transportFunc) Do(r *http.Request) (*http.Response, error) { return f(r) }

func TestNewEngine_Validation(t *testing.T) {
	store := storage.NewMemoryKV()
	nav := navigation.NewRouter("")

	tests := []struct {
		name string
		opts Options
	}{
		{"missing base url", Options{Store: store, Navigator: nav}},
		{"missing store", Options{BaseURL: "http://x", Navigator: nav}},
		{"missing navigator", Options{BaseURL: "http://x", Store: store}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewEngine(tt.opts); err == nil {
				t.Error("expected error")
			}
		})
	}

	e, err := NewEngine(Options{BaseURL: "localhost:8080/api/", Store: store, Navigator: nav})
	if err != nil {
		t.Fatal(err)
	}
	if e.BaseURL() != "http://localhost:8080/api" {
		t.Errorf("BaseURL() = %q", e.BaseURL())
	}
	if e.Gate().Cooldown() != DefaultRedirectCooldown {
		t.Errorf("default cooldown = %v", e.Gate().Cooldown())
	}
}

func TestEngine_Success(t *testing.T) {
	type user struct {
		UserID   int64  `json:"userId"`
		Nickname string `json:"nickname"`
	}

	env := newTestEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/miniapp/user/info" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != "aox-miniapp/test" {
			t.Errorf("User-Agent = %q", got)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("X-Request-ID missing")
		}
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("Authorization = %q, want none without credential", got)
		}
		writeEnvelope(w, http.StatusOK, 0, "ok", user{UserID: 7, Nickname: "neo"})
	}))

	got, err := Get[user](context.Background(), env.engine, "/v1/miniapp/user/info", nil)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.UserID != 7 || got.Nickname != "neo" {
		t.Errorf("got %+v", got)
	}
	if n := len(env.notes.Messages()); n != 0 {
		t.Errorf("no notification expected, got %d", n)
	}
	if v := testutil.ToFloat64(env.metrics.RequestsTotal.WithLabelValues("GET", metric.OutcomeOK)); v != 1 {
		t.Errorf("ok counter = %v", v)
	}
}

func TestEngine_AuthorizationHeader(t *testing.T) {
	tests := []struct {
		name   string
		stored string
		want   string
	}{
		{"plain credential", "abc", "Bearer abc"},
		{"already prefixed", "Bearer xyz", "Bearer xyz"},
		{"lowercase scheme", "bearer xyz", "bearer xyz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got atomic.Value
			env := newTestEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got.Store(r.Header.Get("Authorization"))
				writeEnvelope(w, http.StatusOK, 0, "", nil)
			}))
			env.store.Set(context.Background(), storage.KeyCredential, []byte(tt.stored))

			if _, err := Get[any](context.Background(), env.engine, "/x", nil); err != nil {
				t.Fatal(err)
			}
			if got.Load() != tt.want {
				t.Errorf("Authorization = %q, want %q", got.Load(), tt.want)
			}
		})
	}
}

func TestEngine_HeaderOverride(t *testing.T) {
	env := newTestEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Content-Type"); got != "application/x-www-form-urlencoded" {
			t.Errorf("Content-Type = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer stored" {
			t.Errorf("Authorization = %q, want stored credential", got)
		}
		if got := r.Header.Get("X-Request-ID"); got != "req-1" {
			t.Errorf("X-Request-ID = %q", got)
		}
		writeEnvelope(w, http.StatusOK, 0, "", nil)
	}))
	env.store.Set(context.Background(), storage.KeyCredential, []byte("stored"))

	ctx := logger.WithRequestID(context.Background(), "req-1")
	_, err := env.engine.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/x",
		Body:   map[string]string{"a": "b"},
		Header: http.Header{
			"Content-Type":  {"application/x-www-form-urlencoded"},
			"Authorization": {"Bearer caller"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestEngine_Body(t *testing.T) {
	type payload struct {
		Phone string `json:"phone"`
		Code  string `json:"code"`
	}

	env := newTestEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %q", r.Method)
		}
		var got payload
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if got.Phone != "13800000000" || got.Code != "1234" {
			t.Errorf("body = %+v", got)
		}
		writeEnvelope(w, http.StatusOK, 0, "", true)
	}))

	ok, err := Put[bool](context.Background(), env.engine, "/bind", payload{Phone: "13800000000", Code: "1234"})
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("expected true")
	}
}

func TestEngine_GetQuery(t *testing.T) {
	type listQuery struct {
		PageNum  int     `json:"pageNum"`
		PageSize int     `json:"pageSize"`
		Status   *string `json:"status"`
	}

	env := newTestEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "pageNum=1&pageSize=10" {
			t.Errorf("query = %q", r.URL.RawQuery)
		}
		if r.ContentLength > 0 {
			t.Errorf("GET should not carry a body")
		}
		writeEnvelope(w, http.StatusOK, 0, "", nil)
	}))

	if _, err := Get[any](context.Background(), env.engine, "/orders", listQuery{PageNum: 1, PageSize: 10}); err != nil {
		t.Fatal(err)
	}
}

func TestEngine_BusinessFailure(t *testing.T) {
	tests := []struct {
		name    string
		msg     string
		wantMsg string
	}{
		{"server message", "stock insufficient", "stock insufficient"},
		{"fallback message", "", domain.MsgRequestFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(w, http.StatusOK, 1001, tt.msg, nil)
			}))
			env.store.Set(context.Background(), storage.KeyCredential, []byte("tok1"))

			_, err := Post[any](context.Background(), env.engine, "/orders", nil)
			if !domain.IsBusiness(err) {
				t.Fatalf("expected business error, got %v", err)
			}
			var de *domain.Error
			errors.As(err, &de)
			if de.Code != 1001 || de.Message != tt.wantMsg || de.Path != "/orders" {
				t.Errorf("error = %+v", de)
			}
			if got := env.notes.Messages(); len(got) != 1 || got[0] != tt.wantMsg {
				t.Errorf("notifications = %v", got)
			}
			if v, _ := storage.GetString(context.Background(), env.store, storage.KeyCredential); v != "tok1" {
				t.Error("business failure must not clear the credential")
			}
			if env.loginResets() != 0 {
				t.Error("business failure must not navigate")
			}
		})
	}
}

func TestEngine_UndecodableBody(t *testing.T) {
	env := newTestEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, "<html>bad gateway</html>")
	}))

	_, err := Get[any](context.Background(), env.engine, "/x", nil)
	if !domain.IsBusiness(err) {
		t.Fatalf("expected business error, got %v", err)
	}
	var de *domain.Error
	errors.As(err, &de)
	if de.Status != http.StatusBadGateway || de.Message != domain.MsgInvalidPayload {
		t.Errorf("error = %+v", de)
	}
}

func TestEngine_TransportFailure(t *testing.T) {
	boom := errors.New("connection refused")
	env := newTestEngineWithTransport(t, "http://unreachable", transportFunc(func(*http.Request) (*http.Response, error) {
		return nil, boom
	}))

	_, err := Get[any](context.Background(), env.engine, "/x", nil)
	if !domain.IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Error("transport error should wrap the cause")
	}
	if got := env.notes.Messages(); len(got) != 1 || got[0] != domain.MsgNetworkError {
		t.Errorf("notifications = %v", got)
	}
	if v := testutil.ToFloat64(env.metrics.RequestsTotal.WithLabelValues("GET", metric.OutcomeTransport)); v != 1 {
		t.Errorf("transport counter = %v", v)
	}
}

func TestEngine_ExpiryByStatus(t *testing.T) {
	env := newTestEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	ctx := context.Background()
	env.store.Set(ctx, storage.KeyCredential, []byte("tok1"))
	env.store.Set(ctx, storage.KeyProfile, []byte(`{"userId":1}`))

	var events []domain.ExpiryEvent
	env.engine.Signal().Subscribe(func(ev domain.ExpiryEvent) { events = append(events, ev) })

	_, err := Get[any](ctx, env.engine, "/v1/miniapp/user/info", nil)
	if !domain.IsAuthExpired(err) {
		t.Fatalf("expected auth expired, got %v", err)
	}
	var de *domain.Error
	errors.As(err, &de)
	if de.Message != domain.MsgAuthExpired || de.Status != http.StatusUnauthorized {
		t.Errorf("error = %+v", de)
	}

	if env.store.Len() != 0 {
		t.Errorf("persisted keys should be removed, %d left", env.store.Len())
	}
	if len(events) != 1 || events[0].Path != "/v1/miniapp/user/info" {
		t.Errorf("events = %+v", events)
	}
	if env.loginResets() != 1 {
		t.Errorf("login resets = %d, want 1", env.loginResets())
	}
	if n := len(env.notes.Messages()); n != 0 {
		t.Errorf("expiry should not toast, got %d", n)
	}
}

func TestEngine_ExpiryByCodeWithStatus200(t *testing.T) {
	env := newTestEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, 401, "token expired", nil)
	}))
	env.store.Set(context.Background(), storage.KeyCredential, []byte("tok1"))

	_, err := Get[any](context.Background(), env.engine, "/x", nil)
	if !domain.IsAuthExpired(err) {
		t.Fatalf("expected auth expired, got %v", err)
	}
	var de *domain.Error
	errors.As(err, &de)
	if de.Message != "token expired" || de.Code != 401 {
		t.Errorf("error = %+v", de)
	}
	if v, _ := storage.GetString(context.Background(), env.store, storage.KeyCredential); v != "" {
		t.Error("credential should be removed")
	}
	if env.loginResets() != 1 {
		t.Errorf("login resets = %d, want 1", env.loginResets())
	}
}

func TestEngine_ConcurrentExpiryRedirectsOnce(t *testing.T) {
	const n = 3
	var (
		arrived int32
		release = make(chan struct{})
	)
	env := newTestEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&arrived, 1) == n {
			close(release)
		}
		select {
		case <-release:
		case <-time.After(5 * time.Second):
		}
		writeEnvelope(w, http.StatusUnauthorized, 401, "", nil)
	}))
	ctx := context.Background()
	env.store.Set(ctx, storage.KeyCredential, []byte("tok1"))
	env.store.Set(ctx, storage.KeyProfile, []byte(`{"userId":1}`))

	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = Get[any](ctx, env.engine, fmt.Sprintf("/r%d", i), nil)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if !domain.IsAuthExpired(err) {
			t.Errorf("request %d: expected auth expired, got %v", i, err)
		}
	}
	if got := env.loginResets(); got != 1 {
		t.Errorf("login resets = %d, want exactly 1", got)
	}
	if env.store.Len() != 0 {
		t.Errorf("persisted keys should be removed, %d left", env.store.Len())
	}
	if env.engine.Gate().State() != GateCoolingDown {
		t.Error("gate should be cooling down")
	}
	if v := testutil.ToFloat64(env.metrics.LoginRedirects.WithLabelValues(metric.RedirectIssued)); v != 1 {
		t.Errorf("issued redirects = %v", v)
	}
	if v := testutil.ToFloat64(env.metrics.LoginRedirects.WithLabelValues(metric.RedirectSuppressed)); v != n-1 {
		t.Errorf("suppressed redirects = %v", v)
	}

	// After the cooldown a fresh expiry redirects again.
	env.clock.Advance(DefaultRedirectCooldown)
	if _, err := Get[any](ctx, env.engine, "/again", nil); !domain.IsAuthExpired(err) {
		t.Fatalf("expected auth expired, got %v", err)
	}
	if got := env.loginResets(); got != 2 {
		t.Errorf("login resets after cooldown = %d, want 2", got)
	}
}

func TestEngine_ExpiryWithCancelledContextStillClears(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	env := newTestEngineWithTransport(t, "http://api", transportFunc(func(r *http.Request) (*http.Response, error) {
		cancel()
		return &http.Response{
			StatusCode: http.StatusUnauthorized,
			Body:       io.NopCloser(strings.NewReader(`{"code":401,"msg":"expired"}`)),
			Header:     http.Header{},
		}, nil
	}))
	env.store.Set(context.Background(), storage.KeyCredential, []byte("tok1"))

	if _, err := Get[any](ctx, env.engine, "/x", nil); !domain.IsAuthExpired(err) {
		t.Fatalf("expected auth expired, got %v", err)
	}
	if env.store.Len() != 0 {
		t.Error("persisted keys should be removed even after cancellation")
	}
}

func TestEngine_DataDecodeFailure(t *testing.T) {
	env := newTestEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, 0, "", "not-a-number")
	}))

	_, err := Get[int](context.Background(), env.engine, "/count", nil)
	if !domain.IsBusiness(err) {
		t.Fatalf("expected business error, got %v", err)
	}
}
