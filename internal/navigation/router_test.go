package navigation

import (
	"errors"
	"fmt"
	"testing"
)

func TestRouter_Navigate(t *testing.T) {
	r := NewRouter("/pages/index/index")

	if err := r.Navigate(Push, "/pages/a"); err != nil {
		t.Fatal(err)
	}
	if err := r.Navigate(Replace, "/pages/b"); err != nil {
		t.Fatal(err)
	}
	if got := r.Stack(); len(got) != 2 || got[1] != "/pages/b" {
		t.Errorf("Stack() = %v", got)
	}

	if err := r.Navigate(Reset, "/pages/c"); err != nil {
		t.Fatal(err)
	}
	if got := r.Stack(); len(got) != 1 || got[0] != "/pages/c" {
		t.Errorf("Stack() after reset = %v", got)
	}
	if got := len(r.History()); got != 3 {
		t.Errorf("History() len = %d, want 3", got)
	}
}

func TestRouter_Errors(t *testing.T) {
	r := NewRouter("")

	if err := r.Navigate(Push, ""); !errors.Is(err, ErrEmptyURL) {
		t.Errorf("expected ErrEmptyURL, got %v", err)
	}
	if err := r.Back(); !errors.Is(err, ErrNoPrevious) {
		t.Errorf("expected ErrNoPrevious, got %v", err)
	}

	for i := 0; i < DefaultMaxDepth; i++ {
		if err := r.Navigate(Push, fmt.Sprintf("/pages/p%d", i)); err != nil {
			t.Fatal(err)
		}
	}
	if err := r.Navigate(Push, "/pages/overflow"); !errors.Is(err, ErrStackFull) {
		t.Errorf("expected ErrStackFull, got %v", err)
	}

	if err := r.Back(); err != nil {
		t.Fatal(err)
	}
	if got := r.Current(); got != "/pages/p8" {
		t.Errorf("Current() = %q, want /pages/p8", got)
	}
}

func TestRouter_InterceptorKinds(t *testing.T) {
	r := NewRouter("/home")
	calls := 0
	r.AddInterceptor(func(kind Kind, url string) bool {
		calls++
		return kind != Reset
	}, Reset)

	if err := r.Navigate(Push, "/a"); err != nil {
		t.Fatal(err)
	}
	if calls != 0 {
		t.Errorf("interceptor for reset ran on push")
	}
	if err := r.Navigate(Reset, "/b"); !errors.Is(err, ErrCancelled) {
		t.Errorf("expected ErrCancelled, got %v", err)
	}
	if got := r.Current(); got != "/a" {
		t.Errorf("Current() = %q, want /a", got)
	}
}

func TestRouter_ReentrantInterceptor(t *testing.T) {
	r := NewRouter("/home")
	r.AddInterceptor(func(kind Kind, url string) bool {
		if url == "/secret" {
			// Navigating from inside a hook must not deadlock.
			r.Navigate(Push, "/login")
			return false
		}
		return true
	})

	if err := r.Navigate(Push, "/secret"); !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if got := r.Current(); got != "/login" {
		t.Errorf("Current() = %q, want /login", got)
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"push", Push, false},
		{"navigateTo", Push, false},
		{"", Push, false},
		{"replace", Replace, false},
		{"redirectTo", Replace, false},
		{"reLaunch", Reset, false},
		{"RESET", Reset, false},
		{"back", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseKind(%q) error = %v", tt.in, err)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseKind(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
