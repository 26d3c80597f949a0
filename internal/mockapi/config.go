// Package mockapi is an in-process fake of the mini-app backend. It serves
// the response envelope for every typed endpoint, issues HS256 JWT
// credentials on login and answers code 401 once a credential is missing,
// expired or revoked. Tests run it behind httptest; the CLI exposes it as
// the mock-server command.
package mockapi

import (
	"errors"
	"time"
)

// Defaults.
const (
	DefaultIssuer     = "aox-mock"
	DefaultTokenTTL   = 2 * time.Hour
	DefaultSmsCode    = "123456"
	DefaultLoginRate  = 5.0
	DefaultLoginBurst = 5
	DefaultListenAddr = "127.0.0.1:8080"
)

// Account is a password login identity.
type Account struct {
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	Nickname string `koanf:"nickname"`
	Phone    string `koanf:"phone"`
}

// Config configures the mock backend.
type Config struct {
	// Secret signs issued credentials. Empty generates a random one.
	Secret string `koanf:"secret"`
	Issuer string `koanf:"issuer"`
	// TokenTTL is the lifetime of issued credentials.
	TokenTTL time.Duration `koanf:"token_ttl"`
	// HTTPUnauthorized answers expired sessions with HTTP 401 instead of
	// HTTP 200 carrying code 401.
	HTTPUnauthorized bool `koanf:"http_unauthorized"`
	// SmsCode is the only code SMS login accepts.
	SmsCode string `koanf:"sms_code"`
	// LoginRate and LoginBurst shape the per-client login token bucket.
	LoginRate  float64   `koanf:"login_rate"`
	LoginBurst int       `koanf:"login_burst"`
	Accounts   []Account `koanf:"accounts"`

	// Now overrides the clock used for token timestamps.
	Now func() time.Time `koanf:"-"`
}

// DefaultConfig returns a config with a single demo account.
func DefaultConfig() Config {
	return Config{
		Issuer:     DefaultIssuer,
		TokenTTL:   DefaultTokenTTL,
		SmsCode:    DefaultSmsCode,
		LoginRate:  DefaultLoginRate,
		LoginBurst: DefaultLoginBurst,
		Accounts: []Account{
			{Username: "demo", Password: "demo123", Nickname: "Demo", Phone: "13800000000"},
		},
	}
}

// Validate checks the config for obvious mistakes.
func (c *Config) Validate() error {
	if c.TokenTTL <= 0 {
		return errors.New("mockapi: token_ttl must be positive")
	}
	if c.LoginRate <= 0 || c.LoginBurst <= 0 {
		return errors.New("mockapi: login_rate and login_burst must be positive")
	}
	seen := make(map[string]bool, len(c.Accounts))
	for _, a := range c.Accounts {
		if a.Username == "" || a.Password == "" {
			return errors.New("mockapi: accounts need a username and password")
		}
		if seen[a.Username] {
			return errors.New("mockapi: duplicate account " + a.Username)
		}
		seen[a.Username] = true
	}
	return nil
}
