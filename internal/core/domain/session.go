package domain

import "strings"

// UserProfile is the user-info record stored next to the credential.
// It is opaque to the session core beyond being stored and cleared.
type UserProfile struct {
	UserID   int64  `json:"userId"`
	OpenID   string `json:"openid,omitempty"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
	Gender   int    `json:"gender"`
	Phone    string `json:"phone"`
	Country  string `json:"country,omitempty"`
	Province string `json:"province,omitempty"`
	City     string `json:"city,omitempty"`
}

// Clone returns a deep copy, or nil for a nil profile.
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

// Session is a point-in-time view of the client session.
//
// Authenticated is derived from Credential and cannot be set on its own.
type Session struct {
	Credential string       `json:"credential"`
	Profile    *UserProfile `json:"profile,omitempty"`
}

// Authenticated reports whether a credential is present.
func (s Session) Authenticated() bool {
	return s.Credential != ""
}

// Empty reports whether the session holds neither credential nor profile.
func (s Session) Empty() bool {
	return s.Credential == "" && s.Profile == nil
}

// NormalizeCredential trims raw, strips one layer of matching surrounding
// quotes and collapses a blank result to "". A leading bearer scheme marker
// is kept as-is; the marker alone carries no token and collapses to "".
func NormalizeCredential(raw string) string {
	s := strings.TrimSpace(raw)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'') {
			s = s[1 : len(s)-1]
		}
	}
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, strings.TrimSpace(BearerScheme)) {
		return ""
	}
	return s
}
