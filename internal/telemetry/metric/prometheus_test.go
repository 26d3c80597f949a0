package metric

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r.registry == nil {
		t.Fatal("registry field is nil")
	}
	if r.RequestsTotal == nil || r.RequestDuration == nil || r.AuthExpired == nil {
		t.Error("request metrics should be initialized")
	}
	if r.LoginRedirects == nil || r.SessionTransitions == nil {
		t.Error("redirect/session metrics should be initialized")
	}
}

func TestObserveRequest(t *testing.T) {
	r := NewRegistry()

	r.ObserveRequest("GET", OutcomeOK, 10*time.Millisecond)
	r.ObserveRequest("GET", OutcomeAuthExpired, 5*time.Millisecond)
	r.ObserveRequest("POST", OutcomeAuthExpired, 5*time.Millisecond)

	if got := testutil.ToFloat64(r.RequestsTotal.WithLabelValues("GET", OutcomeOK)); got != 1 {
		t.Errorf("GET ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.AuthExpired); got != 2 {
		t.Errorf("auth expired = %v, want 2", got)
	}
}

func TestObserveRedirect(t *testing.T) {
	r := NewRegistry()
	r.ObserveRedirect(true)
	r.ObserveRedirect(false)
	r.ObserveRedirect(false)

	if got := testutil.ToFloat64(r.LoginRedirects.WithLabelValues(RedirectIssued)); got != 1 {
		t.Errorf("issued = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.LoginRedirects.WithLabelValues(RedirectSuppressed)); got != 2 {
		t.Errorf("suppressed = %v, want 2", got)
	}
}

func TestNilRegistry(t *testing.T) {
	var r *Registry
	r.ObserveRequest("GET", OutcomeOK, time.Millisecond)
	r.ObserveRedirect(true)
	r.ObserveSession("login")
}

func TestHandler(t *testing.T) {
	r := NewRegistry()
	r.ObserveSession("login")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `aox_session_transitions_total{event="login"} 1`) {
		t.Errorf("metrics output missing session transition:\n%s", body)
	}
}

func TestWriteFile(t *testing.T) {
	r := NewRegistry()
	r.ObserveRequest("PUT", OutcomeBusiness, time.Millisecond)

	path := filepath.Join(t.TempDir(), "aox.prom")
	if err := r.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "aox_requests_total") {
		t.Errorf("dump missing requests_total:\n%s", data)
	}
}
