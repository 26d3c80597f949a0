package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PHJ369906/aox-miniapp/internal/cli/output"
	"github.com/PHJ369906/aox-miniapp/internal/connection"
	"github.com/PHJ369906/aox-miniapp/internal/mockapi"
	"github.com/PHJ369906/aox-miniapp/internal/navigation"
	"github.com/PHJ369906/aox-miniapp/internal/storage"
	"github.com/PHJ369906/aox-miniapp/internal/telemetry/logger"
	"github.com/PHJ369906/aox-miniapp/pkg/crypto/adaptive"
)

// DefaultServer is the backend base address.
const DefaultServer = "http://localhost:8080/api"

// DefaultHome is the page the router starts on.
const DefaultHome = "/pages/index/index"

// ClientConfig is the configuration for aox-cli.
type ClientConfig struct {
	// Server is the backend base address every request path is joined to.
	Server string `koanf:"server"`
	Home   string `koanf:"home"`
	// CAFile is a PEM bundle trusted in addition to the system roots.
	CAFile string `koanf:"ca_file"`

	// RedirectCooldown is how long further login redirects are suppressed
	// after one is issued.
	RedirectCooldown time.Duration `koanf:"redirect_cooldown"`

	Guard   navigation.GuardConfig `koanf:"guard"`
	Storage storage.Config         `koanf:"storage"`
	Log     logger.Config          `koanf:"log"`

	Output      string `koanf:"output"`
	MetricsFile string `koanf:"metrics_file"`

	Mock mockapi.Config `koanf:"mock"`
}

// Default returns the default configuration.
func Default() *ClientConfig {
	return &ClientConfig{
		Server:           DefaultServer,
		Home:             DefaultHome,
		RedirectCooldown: connection.DefaultRedirectCooldown,
		Guard:            navigation.DefaultGuardConfig(),
		Storage:          storage.DefaultConfig(),
		Log:              logger.DefaultConfig(),
		Output:           string(output.FormatTable),
		Mock:             mockapi.DefaultConfig(),
	}
}

// Validate reports the first configuration error.
func (c *ClientConfig) Validate() error {
	if strings.TrimSpace(c.Server) == "" {
		return errors.New("server must not be empty")
	}
	if c.RedirectCooldown <= 0 {
		return fmt.Errorf("redirect_cooldown must be positive, got %s", c.RedirectCooldown)
	}
	if !strings.HasPrefix(c.Guard.LoginPath, "/") {
		return fmt.Errorf("guard.login_path must start with /, got %q", c.Guard.LoginPath)
	}
	// A protected login page would redirect to itself forever.
	g := navigation.NewGuard(nil, nil, c.Guard, logger.Discard())
	if g.RequiresAuth(c.Guard.LoginPath) {
		return fmt.Errorf("guard.login_path %q is itself protected", c.Guard.LoginPath)
	}
	if !storage.ValidBackend(c.Storage.Backend) {
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if _, err := adaptive.ParseAlgorithm(c.Storage.Cipher); err != nil {
		return fmt.Errorf("storage.cipher: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if !output.ValidFormat(c.Output) {
		return fmt.Errorf("unknown output format %q", c.Output)
	}
	return nil
}
