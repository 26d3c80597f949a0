package command

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/PHJ369906/aox-miniapp/internal/mockapi"
	"github.com/PHJ369906/aox-miniapp/internal/telemetry/logger"
)

// cliEnv runs aox-cli invocations against an in-process mock backend.
// The session persists in a sqlite file between invocations.
type cliEnv struct {
	t      *testing.T
	mock   *mockapi.Server
	url    string
	dbPath string
	stderr bytes.Buffer
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := mockapi.DefaultConfig()
	cfg.Secret = "cli-test-secret"
	cfg.LoginRate = 1000
	cfg.LoginBurst = 1000
	mock, err := mockapi.New(cfg, logger.Discard())
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(mock.Handler())
	t.Cleanup(srv.Close)

	return &cliEnv{
		t:      t,
		mock:   mock,
		url:    srv.URL,
		dbPath: filepath.Join(home, "state.db"),
	}
}

// run executes one invocation and returns what it wrote to stdout.
func (e *cliEnv) run(args ...string) (string, error) {
	e.t.Helper()
	return e.runWithInput("", args...)
}

// runWithInput is run with stdin reading from input.
func (e *cliEnv) runWithInput(input string, args ...string) (string, error) {
	e.t.Helper()
	app := App()
	app.Reader = strings.NewReader(input)
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &e.stderr
	app.ExitErrHandler = func(*cli.Context, error) {}

	full := []string{
		"aox-cli",
		"--server", e.url,
		"--store", "sqlite",
		"--store-path", e.dbPath,
		"--log-level", "error",
	}
	full = append(full, args...)
	err := app.RunContext(context.Background(), full)
	return out.String(), err
}

// mustRun fails the test when the invocation errors.
func (e *cliEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run(args...)
	if err != nil {
		e.t.Fatalf("aox-cli %v: %v", args, err)
	}
	return out
}

func (e *cliEnv) login() {
	e.t.Helper()
	e.mustRun("login", "password", "-u", "demo", "-p", "demo123")
}

// decodeJSON unmarshals an invocation's JSON output.
func decodeJSON(t *testing.T, out string, dst any) {
	t.Helper()
	if err := json.Unmarshal([]byte(out), dst); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
}

// listOutput is the JSON shape printList emits.
type listOutput struct {
	Records []map[string]any `json:"records"`
	Total   int64            `json:"total"`
}
