package command

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestShell_SharesOneClient(t *testing.T) {
	env := newCLIEnv(t)
	input := strings.Join([]string{
		"login password -u demo -p demo123",
		"open /pages/order/index",
		"-o json open /pages/message/index",
		"-o json whoami",
		"shell",
		"mock-server",
		"exit",
	}, "\n") + "\n"

	out, err := env.runWithInput(input, "shell", "--no-history")
	if err != nil {
		t.Fatalf("shell: %v", err)
	}
	for _, want := range []string{
		"Connected to " + env.url,
		"Logged in as Demo",
		// The JSON stack from the second open still holds the first page.
		`"/pages/order/index"`,
		`"nickname": "Demo"`,
		"Error: shell is not available in the shell",
		"Error: mock-server is not available in the shell",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	// The shell closed its store; a later invocation sees the session.
	if !strings.Contains(env.mustRun("whoami"), "Demo") {
		t.Error("session from the shell not persisted")
	}
}

func TestShell_ErrorsKeepLoopRunning(t *testing.T) {
	env := newCLIEnv(t)
	out, err := env.runWithInput("whoami\nnotices latest --limit 1\nexit\n", "shell", "--no-history")
	if err != nil {
		t.Fatalf("shell: %v", err)
	}
	if !strings.Contains(out, "Error: "+errNotLoggedIn.Error()) {
		t.Errorf("whoami error missing:\n%s", out)
	}
	if strings.Count(out, "aox> ") < 3 {
		t.Errorf("loop stopped early:\n%s", out)
	}
}

func TestShell_History(t *testing.T) {
	env := newCLIEnv(t)
	file := filepath.Join(t.TempDir(), "history")

	if _, err := env.runWithInput("banners\nexit\n", "shell", "--history-file", file); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "banners\nexit\n" {
		t.Errorf("history = %q", data)
	}
}

func TestCommandPaths(t *testing.T) {
	paths := commandPaths(App().Commands, "")
	set := make(map[string]bool, len(paths))
	for _, p := range paths {
		set[p] = true
	}
	for _, want := range []string{"orders list", "login password", "addresses default", "config show"} {
		if !set[want] {
			t.Errorf("missing %q", want)
		}
	}
	for _, hidden := range []string{"shell", "mock-server"} {
		if set[hidden] {
			t.Errorf("%q offered in the shell", hidden)
		}
	}
}
