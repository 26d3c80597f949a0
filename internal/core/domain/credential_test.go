package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestAuthorizationValue(t *testing.T) {
	tests := []struct {
		cred string
		want string
	}{
		{"", ""},
		{"  ", ""},
		{"abc", "Bearer abc"},
		{"Bearer abc", "Bearer abc"},
		{"bearer abc", "bearer abc"},
		{"BEARER abc", "BEARER abc"},
		{"Bearerabc", "Bearer Bearerabc"},
		{"Bearer", ""},
		{" bearer ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.cred, func(t *testing.T) {
			if got := AuthorizationValue(tt.cred); got != tt.want {
				t.Errorf("AuthorizationValue(%q) = %q, want %q", tt.cred, got, tt.want)
			}
		})
	}
}

func TestStripBearerScheme(t *testing.T) {
	if got := StripBearerScheme("Bearer  xyz"); got != "xyz" {
		t.Errorf("StripBearerScheme = %q, want %q", got, "xyz")
	}
	if got := StripBearerScheme("xyz"); got != "xyz" {
		t.Errorf("StripBearerScheme = %q, want %q", got, "xyz")
	}
}

func TestInspectCredential(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "42",
		Issuer:    "aox",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	info, err := InspectCredential("Bearer " + signed)
	if err != nil {
		t.Fatalf("InspectCredential: %v", err)
	}
	if info.Subject != "42" || info.Issuer != "aox" {
		t.Errorf("claims = %+v", info)
	}
	if !info.ExpiresAt.Equal(exp) {
		t.Errorf("ExpiresAt = %v, want %v", info.ExpiresAt, exp)
	}
	if info.Expired(time.Now()) {
		t.Error("credential should not be expired yet")
	}
	if !info.Expired(exp.Add(time.Minute)) {
		t.Error("credential should be expired after exp")
	}
}

func TestInspectCredential_Opaque(t *testing.T) {
	for _, cred := range []string{"opaque-token", "a.b.c"} {
		if _, err := InspectCredential(cred); !errors.Is(err, ErrOpaqueCredential) {
			t.Errorf("InspectCredential(%q) error = %v, want ErrOpaqueCredential", cred, err)
		}
	}
}
