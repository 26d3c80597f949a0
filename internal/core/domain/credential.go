package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// BearerScheme is the Authorization scheme marker, including the separator.
const BearerScheme = "Bearer "

// HasBearerScheme reports whether cred already carries the scheme marker,
// compared case-insensitively.
func HasBearerScheme(cred string) bool {
	return len(cred) >= len(BearerScheme) &&
		strings.EqualFold(cred[:len(BearerScheme)], BearerScheme)
}

// AuthorizationValue returns the outgoing Authorization header value for a
// stored credential. A credential that already carries the scheme marker is
// reused verbatim; otherwise the marker is prepended. Empty in, empty out,
// and the bare marker counts as empty.
func AuthorizationValue(cred string) string {
	cred = strings.TrimSpace(cred)
	if cred == "" || strings.EqualFold(cred, strings.TrimSpace(BearerScheme)) {
		return ""
	}
	if HasBearerScheme(cred) {
		return cred
	}
	return BearerScheme + cred
}

// StripBearerScheme returns the bare token without the scheme marker.
func StripBearerScheme(cred string) string {
	if HasBearerScheme(cred) {
		return strings.TrimSpace(cred[len(BearerScheme):])
	}
	return cred
}

// ErrOpaqueCredential is returned by InspectCredential for non-JWT tokens.
var ErrOpaqueCredential = errors.New("credential is not a JWT")

// CredentialInfo is the unverified claim summary of a JWT credential.
type CredentialInfo struct {
	Subject   string    `json:"subject"`
	Issuer    string    `json:"issuer,omitempty"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the credential carries an expiry before now.
func (c CredentialInfo) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// InspectCredential decodes the claims of a JWT credential without verifying
// its signature. It is informational only: the server stays the sole judge
// of validity, and nothing in the request path consults it.
func InspectCredential(cred string) (CredentialInfo, error) {
	raw := StripBearerScheme(NormalizeCredential(cred))
	if strings.Count(raw, ".") != 2 {
		return CredentialInfo{}, ErrOpaqueCredential
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return CredentialInfo{}, fmt.Errorf("%w: %v", ErrOpaqueCredential, err)
	}

	info := CredentialInfo{
		Subject: claims.Subject,
		Issuer:  claims.Issuer,
	}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}
