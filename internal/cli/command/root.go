package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/PHJ369906/aox-miniapp/internal/app"
	"github.com/PHJ369906/aox-miniapp/internal/cli/config"
	"github.com/PHJ369906/aox-miniapp/internal/cli/output"
	"github.com/PHJ369906/aox-miniapp/internal/infra/buildinfo"
	"github.com/PHJ369906/aox-miniapp/internal/notify"
	"github.com/PHJ369906/aox-miniapp/internal/telemetry/logger"
	"github.com/PHJ369906/aox-miniapp/internal/telemetry/metric"
)

// requestTimeout bounds one command's backend calls.
const requestTimeout = 30 * time.Second

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "aox-cli",
		Usage:   "Mini-app client: session, guarded navigation and API access",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			LoginCommand(),
			SmsCodeCommand(),
			LogoutCommand(),
			StatusCommand(),
			WhoamiCommand(),
			RequestCommand(),
			OpenCommand(),
			OrdersCommand(),
			AddressesCommand(),
			FavoritesCommand(),
			MessagesCommand(),
			NoticesCommand(),
			BannersCommand(),
			MockServerCommand(),
			ConfigCommand(),
			ShellCommand(),
			VersionCommand(),
		},
	}
}

// globalFlags returns the global CLI flags. None carries a default so the
// configuration file stays authoritative unless a flag is given.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Config file (default ~/.aox/cli.yaml when present)",
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "Backend base address (e.g., http://localhost:8080/api)",
			EnvVars: []string{"AOX_SERVER"},
		},
		&cli.StringFlag{
			Name:  "ca-file",
			Usage: "PEM file with extra CA certificates to trust",
		},
		&cli.StringFlag{
			Name:  "store",
			Usage: "Session store backend: memory, badger, redis, sqlite",
		},
		&cli.StringFlag{
			Name:  "store-path",
			Usage: "Badger directory or sqlite file",
		},
		&cli.StringFlag{
			Name:    "passphrase",
			Usage:   "Encrypt the stored session with this passphrase",
			EnvVars: []string{"AOX_PASSPHRASE"},
		},
		&cli.StringFlag{
			Name:  "cipher",
			Usage: "Cipher for a newly sealed store: auto, aes-gcm, chacha20-poly1305",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "Log format: json, text",
		},
		&cli.StringFlag{
			Name:  "metrics-file",
			Usage: "Write Prometheus metrics to this file on exit",
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Config string

	Server     string
	CAFile     string
	Store      string
	StorePath  string
	Passphrase string
	Cipher     string

	Output string
	Wide   bool

	LogLevel    string
	LogFormat   string
	MetricsFile string
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		Config:      c.String("config"),
		Server:      c.String("server"),
		CAFile:      c.String("ca-file"),
		Store:       c.String("store"),
		StorePath:   c.String("store-path"),
		Passphrase:  c.String("passphrase"),
		Cipher:      c.String("cipher"),
		Output:      c.String("output"),
		Wide:        c.Bool("wide"),
		LogLevel:    c.String("log-level"),
		LogFormat:   c.String("log-format"),
		MetricsFile: c.String("metrics-file"),
	}
}

// Overrides maps the flags onto configuration keys. Empty values are
// ignored by the loader.
func (f *GlobalFlags) Overrides() map[string]any {
	return map[string]any{
		"server":             f.Server,
		"ca_file":            f.CAFile,
		"storage.backend":    f.Store,
		"storage.path":       f.StorePath,
		"storage.passphrase": f.Passphrase,
		"storage.cipher":     f.Cipher,
		"output":             f.Output,
		"log.level":          f.LogLevel,
		"log.format":         f.LogFormat,
		"metrics_file":       f.MetricsFile,
	}
}

// runtime is the state of one command invocation.
type runtime struct {
	cfg     *config.ClientConfig
	flags   *GlobalFlags
	log     logger.Logger
	metrics *metric.Registry
	out     io.Writer
	errOut  io.Writer
	format  output.Format

	ctx    context.Context
	client *app.Client
	// shared runtimes belong to the shell, which closes the client.
	shared bool
}

func newRuntime(c *cli.Context) (*runtime, error) {
	if shared, ok := sharedRuntime(c); ok {
		return shared.derive(c)
	}

	flags := ParseGlobalFlags(c)
	cfg, err := config.Load(flags.Config, flags.Overrides())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	out, errOut := writers(c)
	logCfg := cfg.Log
	logCfg.Output = errOut
	log, err := logger.New(logCfg)
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)

	format, err := output.ParseFormat(cfg.Output)
	if err != nil {
		return nil, err
	}

	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	return &runtime{
		cfg:     cfg,
		flags:   flags,
		log:     log,
		metrics: metric.NewRegistry(),
		out:     out,
		errOut:  errOut,
		format:  format,
		ctx:     ctx,
	}, nil
}

// sharedRuntimeKey marks an App run from the shell; its commands reuse
// the shell's client instead of opening their own.
const sharedRuntimeKey = "aox.runtime"

func sharedRuntime(c *cli.Context) (*runtime, bool) {
	if c.App == nil {
		return nil, false
	}
	rt, ok := c.App.Metadata[sharedRuntimeKey].(*runtime)
	return rt, ok
}

// derive copies a shared runtime for one shell line. --output and --wide
// given on the line apply to that line only.
func (rt *runtime) derive(c *cli.Context) (*runtime, error) {
	cp := *rt
	flags := *rt.flags
	cp.flags = &flags
	if f := c.String("output"); f != "" {
		format, err := output.ParseFormat(f)
		if err != nil {
			return nil, err
		}
		cp.format = format
	}
	if c.IsSet("wide") {
		flags.Wide = c.Bool("wide")
	}
	if c.Context != nil {
		cp.ctx = c.Context
	}
	cp.shared = true
	return &cp, nil
}

func writers(c *cli.Context) (io.Writer, io.Writer) {
	out, errOut := io.Writer(os.Stdout), io.Writer(os.Stderr)
	if c.App != nil && c.App.Writer != nil {
		out = c.App.Writer
	}
	if c.App != nil && c.App.ErrWriter != nil {
		errOut = c.App.ErrWriter
	}
	return out, errOut
}

func (rt *runtime) appConfig() app.Config {
	return app.Config{
		Server:           rt.cfg.Server,
		Home:             rt.cfg.Home,
		RedirectCooldown: rt.cfg.RedirectCooldown,
		Guard:            rt.cfg.Guard,
		Storage:          rt.cfg.Storage,
		CAFile:           rt.cfg.CAFile,
	}
}

func (rt *runtime) open() error {
	client, err := app.New(rt.ctx, rt.appConfig(), app.Options{
		Logger:   rt.log,
		Metrics:  rt.metrics,
		Notifier: notify.NewWriterNotifier(rt.errOut),
	})
	if err != nil {
		return err
	}
	rt.client = client
	return nil
}

// finish closes the client and dumps metrics when configured.
func (rt *runtime) finish() error {
	var errs []error
	if rt.client != nil {
		errs = append(errs, rt.client.Close())
	}
	if rt.cfg.MetricsFile != "" {
		if err := rt.metrics.WriteFile(rt.cfg.MetricsFile); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	return errors.Join(errs...)
}

// print renders v in the configured format.
func (rt *runtime) print(v any) error {
	return output.NewFormatter(rt.format, rt.flags.Wide).Format(rt.out, v)
}

// printList renders records, followed by a total line in table mode.
func (rt *runtime) printList(records any, total int64) error {
	if rt.format != output.FormatTable {
		return rt.print(map[string]any{"records": records, "total": total})
	}
	if err := rt.print(records); err != nil {
		return err
	}
	fmt.Fprintf(rt.out, "\nTotal: %d\n", total)
	return nil
}

func (rt *runtime) say(format string, args ...any) {
	if rt.format == output.FormatTable {
		fmt.Fprintf(rt.out, format+"\n", args...)
	}
}

// withClient wraps an action that needs a wired client.
func withClient(fn func(c *cli.Context, rt *runtime) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		rt, err := newRuntime(c)
		if err != nil {
			return err
		}
		var cancel context.CancelFunc
		rt.ctx, cancel = context.WithTimeout(rt.ctx, requestTimeout)
		defer cancel()

		if rt.shared {
			return fn(c, rt)
		}
		if err := rt.open(); err != nil {
			return errors.Join(err, rt.finish())
		}
		return errors.Join(fn(c, rt), rt.finish())
	}
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
