package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/PHJ369906/aox-miniapp/internal/cli/repl"
)

// notInShell lists commands that own their process and cannot share the
// shell's client.
var notInShell = map[string]bool{
	"shell":       true,
	"mock-server": true,
}

// ShellCommand returns the shell command.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:  "shell",
		Usage: "Run commands interactively against one client and page stack",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "history-file",
				Usage: "History file (default ~/.aox/history)",
			},
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Keep history in memory only",
			},
		},
		Action: shellAction,
	}
}

func shellAction(c *cli.Context) error {
	if _, nested := sharedRuntime(c); nested {
		return errors.New("already in a shell")
	}
	rt, err := newRuntime(c)
	if err != nil {
		return err
	}
	if err := rt.open(); err != nil {
		return errors.Join(err, rt.finish())
	}

	hist := repl.NewHistory(historyFile(c), repl.DefaultHistorySize)
	if err := hist.Load(); err != nil {
		rt.log.Warn("history not loaded", "error", err)
	}

	in := io.Reader(os.Stdin)
	if c.App.Reader != nil {
		in = c.App.Reader
	}
	shell := repl.New(func(ctx context.Context, args []string) error {
		return runShellLine(ctx, rt, args)
	}, repl.Options{
		In:        in,
		Out:       rt.out,
		History:   hist,
		Completer: repl.NewCompleter(commandPaths(App().Commands, "")),
	})

	rt.say("Connected to %s. Type help to list commands, exit to leave.", rt.cfg.Server)
	runErr := shell.Run(rt.ctx)
	if err := hist.Save(); err != nil {
		rt.log.Warn("history not saved", "error", err)
	}
	return errors.Join(runErr, rt.finish())
}

func historyFile(c *cli.Context) string {
	if c.Bool("no-history") {
		return ""
	}
	if f := c.String("history-file"); f != "" {
		return f
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".aox", "history")
}

// runShellLine runs args as a fresh App invocation bound to rt's client.
func runShellLine(ctx context.Context, rt *runtime, args []string) error {
	if notInShell[args[0]] {
		return fmt.Errorf("%s is not available in the shell", args[0])
	}
	line := App()
	line.Writer = rt.out
	line.ErrWriter = rt.errOut
	line.ExitErrHandler = func(*cli.Context, error) {}
	line.Metadata = map[string]any{sharedRuntimeKey: rt}
	return line.RunContext(ctx, append([]string{line.Name}, args...))
}

// commandPaths lists "parent child" paths for every command.
func commandPaths(cmds []*cli.Command, parent string) []string {
	var out []string
	for _, cmd := range cmds {
		if cmd.Hidden || notInShell[cmd.Name] {
			continue
		}
		path := cmd.Name
		if parent != "" {
			path = parent + " " + cmd.Name
		}
		out = append(out, path)
		out = append(out, commandPaths(cmd.Subcommands, path)...)
	}
	return out
}
