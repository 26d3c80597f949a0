package command

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/PHJ369906/aox-miniapp/internal/cli/output"
	"github.com/PHJ369906/aox-miniapp/internal/connection"
	"github.com/PHJ369906/aox-miniapp/internal/navigation"
)

// RequestCommand returns the request command.
func RequestCommand() *cli.Command {
	return &cli.Command{
		Name:      "request",
		Aliases:   []string{"req"},
		Usage:     "Send a raw request through the request engine",
		ArgsUsage: "METHOD PATH",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "JSON payload (query string for GET)",
			},
		},
		Action: withClient(doRequest),
	}
}

func doRequest(c *cli.Context, rt *runtime) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: request METHOD PATH")
	}
	method := strings.ToUpper(c.Args().Get(0))
	path := c.Args().Get(1)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	var body any
	if data := c.String("data"); data != "" {
		if !json.Valid([]byte(data)) {
			return fmt.Errorf("--data is not valid JSON")
		}
		body = json.RawMessage(data)
	}

	raw, err := rt.client.Engine().Do(rt.ctx, connection.Request{Method: method, Path: path, Body: body})
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	// Arbitrary JSON does not tabulate well.
	if rt.format == output.FormatTable {
		return (&output.JSONFormatter{}).Format(rt.out, v)
	}
	return rt.print(v)
}

// pageView is the router state after a navigation.
type pageView struct {
	Page  string   `json:"page"`
	Stack []string `json:"stack"`
}

// OpenCommand returns the open command.
func OpenCommand() *cli.Command {
	return &cli.Command{
		Name:      "open",
		Usage:     "Navigate to a page through the navigation guard",
		ArgsUsage: "PATH",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "kind",
				Aliases: []string{"k"},
				Value:   "push",
				Usage:   "Navigation kind: push, replace, reset",
			},
		},
		Action: withClient(openPage),
	}
}

func openPage(c *cli.Context, rt *runtime) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: open PATH")
	}
	kind, err := navigation.ParseKind(c.String("kind"))
	if err != nil {
		return err
	}

	navErr := rt.client.Open(c.Args().First(), kind)
	router := rt.client.Router()
	if errors.Is(navErr, navigation.ErrLoginRequired) {
		rt.say("Login required; redirected.")
	}
	if err := rt.print(pageView{Page: router.Current(), Stack: router.Stack()}); err != nil {
		return err
	}
	return navErr
}
