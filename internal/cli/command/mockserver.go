package command

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/PHJ369906/aox-miniapp/internal/api"
	"github.com/PHJ369906/aox-miniapp/internal/cli/config"
	"github.com/PHJ369906/aox-miniapp/internal/infra/confloader"
	"github.com/PHJ369906/aox-miniapp/internal/infra/shutdown"
	"github.com/PHJ369906/aox-miniapp/internal/mockapi"
	"github.com/PHJ369906/aox-miniapp/internal/telemetry/logger"
)

// MockServerCommand returns the mock-server command.
func MockServerCommand() *cli.Command {
	return &cli.Command{
		Name:  "mock-server",
		Usage: "Run a local fake backend speaking the envelope protocol",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Aliases: []string{"a"},
				Value:   mockapi.DefaultListenAddr,
				Usage:   "Listen address",
			},
			&cli.BoolFlag{
				Name:  "http-unauthorized",
				Usage: "Answer expired sessions with HTTP 401 instead of code 401",
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "Reload log level and expiry status when the config file changes",
			},
		},
		Action: mockServe,
	}
}

func mockServe(c *cli.Context) error {
	rt, err := newRuntime(c)
	if err != nil {
		return err
	}
	cfg := rt.cfg.Mock
	if c.Bool("http-unauthorized") {
		cfg.HTTPUnauthorized = true
	}
	mock, err := mockapi.New(cfg, rt.log)
	if err != nil {
		return err
	}

	ctx, stop := shutdown.WithSignals(rt.ctx)
	defer stop()

	ln, err := net.Listen("tcp", c.String("addr"))
	if err != nil {
		return err
	}
	fmt.Fprintf(rt.out, "Mock backend on http://%s (base path %s)\n", ln.Addr(), api.Prefix)
	for _, a := range cfg.Accounts {
		fmt.Fprintf(rt.out, "  account %s / %s\n", a.Username, a.Password)
	}

	h := shutdown.NewHandler(shutdown.DefaultTimeout, rt.log)
	h.OnShutdown("metrics", func(context.Context) error { return rt.finish() })

	if c.Bool("watch") {
		path, err := watchedConfig(rt.flags.Config)
		if err != nil {
			ln.Close()
			return err
		}
		w, err := confloader.NewWatcher(path, confloader.WithWatcherLogger(rt.log))
		if err != nil {
			ln.Close()
			return err
		}
		w.OnChange(func(string) { reloadMock(rt, mock, path) })

		done := make(chan error, 1)
		go func() { done <- w.Run(ctx) }()
		h.OnShutdown("watcher", func(hctx context.Context) error {
			select {
			case err := <-done:
				return err
			case <-hctx.Done():
				return hctx.Err()
			}
		})
	}

	serveErr := mock.Serve(ctx, ln)
	return errors.Join(serveErr, h.Shutdown())
}

// watchedConfig resolves the file --watch follows.
func watchedConfig(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	path := config.DefaultConfigPath()
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("--watch needs a config file (none at %s)", path)
	}
	return path, nil
}

func reloadMock(rt *runtime, mock *mockapi.Server, path string) {
	cfg, err := config.Load(path, rt.flags.Overrides())
	if err != nil {
		rt.log.Warn("config reload rejected", "path", path, "error", err)
		return
	}
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		rt.log.Warn("log level not changed", "error", err)
	}
	mock.SetHTTPUnauthorized(cfg.Mock.HTTPUnauthorized)
	rt.log.Info("config reloaded", "path", path, "log_level", cfg.Log.Level)
}
