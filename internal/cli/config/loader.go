package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/PHJ369906/aox-miniapp/internal/infra/confloader"
	"github.com/PHJ369906/aox-miniapp/pkg/token"
)

// DefaultConfigPath returns ~/.aox/cli.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".aox", "cli.yaml")
	}
	return filepath.Join(home, ".aox", "cli.yaml")
}

// Load builds the configuration from Default, the YAML file at path,
// AOX_ environment variables and flags, then validates it. An empty path
// reads DefaultConfigPath if it exists; an explicit path must exist.
func Load(path string, flags map[string]any) (*ClientConfig, error) {
	fileOpt := confloader.WithConfigFile(path)
	if path == "" {
		fileOpt = confloader.WithOptionalConfigFile(DefaultConfigPath())
	}

	cfg := Default()
	l := confloader.NewLoader(fileOpt, confloader.WithFlags(flags))
	if err := l.Load(cfg); err != nil {
		return nil, err
	}
	cfg.Output = strings.ToLower(cfg.Output)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Setting is one row of the effective configuration.
type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func secret(s string) string {
	fp := token.Fingerprint(s)
	if fp == "" {
		return ""
	}
	return "set (" + fp[:6] + ")"
}

// Settings lists the effective configuration with secrets hidden.
func (c *ClientConfig) Settings() []Setting {
	return []Setting{
		{"server", c.Server},
		{"home", c.Home},
		{"ca_file", c.CAFile},
		{"redirect_cooldown", c.RedirectCooldown.String()},
		{"guard.login_path", c.Guard.LoginPath},
		{"guard.allow_list", strings.Join(c.Guard.AllowList, ",")},
		{"guard.protected_list", strings.Join(c.Guard.ProtectedList, ",")},
		{"storage.backend", c.Storage.Backend},
		{"storage.path", c.Storage.Path},
		{"storage.passphrase", secret(c.Storage.Passphrase)},
		{"storage.cipher", c.Storage.Cipher},
		{"storage.redis.addr", c.Storage.Redis.Addr},
		{"storage.redis.password", secret(c.Storage.Redis.Password)},
		{"log.level", c.Log.Level},
		{"log.format", c.Log.Format},
		{"output", c.Output},
		{"metrics_file", c.MetricsFile},
	}
}
