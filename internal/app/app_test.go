package app

import (
	"context"
	"encoding/pem"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/PHJ369906/aox-miniapp/internal/core/domain"
	"github.com/PHJ369906/aox-miniapp/internal/mockapi"
	"github.com/PHJ369906/aox-miniapp/internal/navigation"
	"github.com/PHJ369906/aox-miniapp/internal/notify"
	"github.com/PHJ369906/aox-miniapp/internal/storage"
	"github.com/PHJ369906/aox-miniapp/internal/telemetry/logger"
)

const homePage = "/pages/index/index"

func newMock(t *testing.T) (*mockapi.Server, string) {
	t.Helper()
	cfg := mockapi.DefaultConfig()
	cfg.Secret = "app-test-secret"
	cfg.LoginRate = 1000
	cfg.LoginBurst = 1000
	mock, err := mockapi.New(cfg, logger.Discard())
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(mock.Handler())
	t.Cleanup(srv.Close)
	return mock, srv.URL
}

func newClient(t *testing.T, url string, store storage.KV) *Client {
	t.Helper()
	c, err := New(context.Background(), Config{Server: url, Home: homePage}, Options{
		Logger:   logger.Discard(),
		Notifier: &notify.Recorder{},
		Store:    store,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestLoginWithPassword(t *testing.T) {
	_, url := newMock(t)
	store := storage.NewMemoryKV()
	c := newClient(t, url, store)
	ctx := context.Background()

	profile, err := c.LoginWithPassword(ctx, "demo", "demo123")
	if err != nil {
		t.Fatalf("LoginWithPassword: %v", err)
	}
	if profile.Nickname != "Demo" {
		t.Errorf("nickname = %q, want Demo", profile.Nickname)
	}
	if !c.Session().Authenticated() {
		t.Fatal("session not authenticated after login")
	}
	if got, _ := storage.GetString(ctx, store, storage.KeyCredential); got == "" {
		t.Error("credential not persisted")
	}

	st := c.Status(time.Now())
	if !st.Authenticated || st.Fingerprint == "" {
		t.Errorf("status = %+v", st)
	}
	if st.Issuer != mockapi.DefaultIssuer {
		t.Errorf("issuer = %q", st.Issuer)
	}
	if st.Expired {
		t.Error("fresh credential reported expired")
	}
	if st.Page != homePage {
		t.Errorf("page = %q", st.Page)
	}
}

func TestLoginWithPassword_Rejected(t *testing.T) {
	_, url := newMock(t)
	c := newClient(t, url, storage.NewMemoryKV())

	_, err := c.LoginWithPassword(context.Background(), "demo", "wrong")
	if !domain.IsBusiness(err) {
		t.Fatalf("err = %v, want business error", err)
	}
	if c.Session().Authenticated() {
		t.Error("session authenticated after failed login")
	}
}

func TestLoginWithSMSAndWeChat(t *testing.T) {
	_, url := newMock(t)
	ctx := context.Background()

	c := newClient(t, url, storage.NewMemoryKV())
	if _, err := c.LoginWithSMS(ctx, "13900000000", mockapi.DefaultSmsCode); err != nil {
		t.Fatalf("LoginWithSMS: %v", err)
	}
	if !c.Session().Authenticated() {
		t.Error("not authenticated after sms login")
	}

	w := newClient(t, url, storage.NewMemoryKV())
	profile, err := w.LoginWithWeChat(ctx, "wx-code")
	if err != nil {
		t.Fatalf("LoginWithWeChat: %v", err)
	}
	if profile.UserID == 0 {
		t.Error("wechat profile has no user id")
	}
}

func TestLoginWithToken(t *testing.T) {
	mock, url := newMock(t)
	ctx := context.Background()

	id, ok := mock.UserID("demo")
	if !ok {
		t.Fatal("demo account missing")
	}
	cred, err := mock.IssueCredential(id)
	if err != nil {
		t.Fatal(err)
	}

	c := newClient(t, url, storage.NewMemoryKV())
	if _, err := c.LoginWithToken(ctx, "Bearer "+cred); err != nil {
		t.Fatalf("LoginWithToken: %v", err)
	}
	if c.Session().Credential() != "Bearer "+cred {
		t.Errorf("credential = %q", c.Session().Credential())
	}

	store := storage.NewMemoryKV()
	bad := newClient(t, url, store)
	_, err = bad.LoginWithToken(ctx, "not-a-token")
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("err = %v, want unauthenticated", err)
	}
	if store.Len() != 0 {
		t.Errorf("store keeps %d keys after rejected token", store.Len())
	}
}

func TestSessionExpiry_RedirectsOnce(t *testing.T) {
	mock, url := newMock(t)
	store := storage.NewMemoryKV()
	c := newClient(t, url, store)
	ctx := context.Background()

	if _, err := c.LoginWithPassword(ctx, "demo", "demo123"); err != nil {
		t.Fatal(err)
	}
	if err := c.Open("/pages/order/index", navigation.Push); err != nil {
		t.Fatalf("Open: %v", err)
	}

	mock.ExpireSessions()

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.API().Orders.Stats(ctx)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if !domain.IsAuthExpired(err) {
			t.Errorf("call %d: err = %v, want auth expired", i, err)
		}
	}
	if c.Session().Authenticated() {
		t.Error("session still authenticated")
	}
	if store.Len() != 0 {
		t.Errorf("store keeps %d keys", store.Len())
	}
	if got := c.Router().Current(); got != navigation.DefaultLoginPath {
		t.Errorf("current page = %q, want login", got)
	}

	resets := 0
	for _, tr := range c.Router().History() {
		if tr.Kind == navigation.Reset && tr.URL == navigation.DefaultLoginPath {
			resets++
		}
	}
	if resets != 1 {
		t.Errorf("login resets = %d, want 1", resets)
	}
}

func TestOpen_ProtectedWithoutSession(t *testing.T) {
	_, url := newMock(t)
	c := newClient(t, url, storage.NewMemoryKV())

	err := c.Open("/pages/address/index", navigation.Push)
	if !errors.Is(err, navigation.ErrLoginRequired) {
		t.Fatalf("err = %v, want ErrLoginRequired", err)
	}
	want := navigation.LoginURL(navigation.DefaultLoginPath, "/pages/address/index")
	if got := c.Router().Current(); got != want {
		t.Errorf("current = %q, want %q", got, want)
	}

	if err := c.Open("/pages/category/index", navigation.Push); err != nil {
		t.Errorf("open allow-listed page: %v", err)
	}
}

func TestLogout(t *testing.T) {
	_, url := newMock(t)
	store := storage.NewMemoryKV()
	c := newClient(t, url, store)
	ctx := context.Background()

	if _, err := c.LoginWithPassword(ctx, "demo", "demo123"); err != nil {
		t.Fatal(err)
	}
	if err := c.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if c.Session().Authenticated() || store.Len() != 0 {
		t.Error("session survived logout")
	}
	if got := c.Router().Current(); got != navigation.DefaultLoginPath {
		t.Errorf("current = %q", got)
	}
}

func TestNew_HydratesFromDisk(t *testing.T) {
	_, url := newMock(t)
	ctx := context.Background()
	cfg := Config{
		Server: url,
		Home:   homePage,
		Storage: storage.Config{
			Backend: storage.BackendSQLite,
			Path:    filepath.Join(t.TempDir(), "state.db"),
		},
	}

	first, err := New(ctx, cfg, Options{Logger: logger.Discard()})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := first.LoginWithPassword(ctx, "demo", "demo123"); err != nil {
		t.Fatal(err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := New(ctx, cfg, Options{Logger: logger.Discard()})
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()

	if !second.Session().Authenticated() {
		t.Fatal("session not restored")
	}
	if p := second.Session().Profile(); p == nil || p.Nickname != "Demo" {
		t.Errorf("profile = %+v", p)
	}
}

func TestNew_RequiresServer(t *testing.T) {
	_, err := New(context.Background(), Config{}, Options{Logger: logger.Discard(), Store: storage.NewMemoryKV()})
	if err == nil {
		t.Fatal("expected error for empty server")
	}
}

func TestNew_CAFile(t *testing.T) {
	cfg := mockapi.DefaultConfig()
	cfg.Secret = "app-test-secret"
	mock, err := mockapi.New(cfg, logger.Discard())
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewTLSServer(mock.Handler())
	t.Cleanup(srv.Close)

	caFile := filepath.Join(t.TempDir(), "ca.pem")
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw})
	if err := os.WriteFile(caFile, certPEM, 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := New(context.Background(), Config{Server: srv.URL, Home: homePage, CAFile: caFile}, Options{
		Logger:   logger.Discard(),
		Notifier: &notify.Recorder{},
		Store:    storage.NewMemoryKV(),
	})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if _, err := c.LoginWithPassword(context.Background(), "demo", "demo123"); err != nil {
		t.Fatalf("login over TLS: %v", err)
	}

	_, err = New(context.Background(), Config{Server: srv.URL, CAFile: filepath.Join(t.TempDir(), "missing.pem")}, Options{
		Logger: logger.Discard(),
		Store:  storage.NewMemoryKV(),
	})
	if err == nil {
		t.Error("missing CA file accepted")
	}
}
