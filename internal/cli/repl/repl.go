package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultPrompt is shown before each line.
const DefaultPrompt = "aox> "

// Executor runs one parsed command line.
type Executor func(ctx context.Context, args []string) error

// Options configures a REPL. Zero fields take defaults.
type Options struct {
	Prompt    string
	In        io.Reader
	Out       io.Writer
	History   *History
	Completer *Completer
}

// REPL is the Read-Eval-Print Loop.
type REPL struct {
	exec      Executor
	prompt    string
	input     io.Reader
	output    io.Writer
	history   *History
	completer *Completer
}

// New creates a REPL that hands each line to exec.
func New(exec Executor, opts Options) *REPL {
	r := &REPL{
		exec:      exec,
		prompt:    opts.Prompt,
		input:     opts.In,
		output:    opts.Out,
		history:   opts.History,
		completer: opts.Completer,
	}
	if r.prompt == "" {
		r.prompt = DefaultPrompt
	}
	if r.input == nil {
		r.input = os.Stdin
	}
	if r.output == nil {
		r.output = os.Stdout
	}
	if r.history == nil {
		r.history = NewHistory("", DefaultHistorySize)
	}
	if r.completer == nil {
		r.completer = NewCompleter(nil)
	}
	return r
}

// Run reads lines until exit, EOF or ctx is done. Command errors are
// printed and do not end the loop.
func (r *REPL) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(r.input)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(r.output, r.prompt)
		if !scanner.Scan() {
			fmt.Fprintln(r.output)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		r.history.Add(line)

		done, err := r.eval(ctx, line)
		if err != nil {
			fmt.Fprintf(r.output, "Error: %v\n", err)
		}
		if done {
			return nil
		}
	}
}

func (r *REPL) eval(ctx context.Context, line string) (bool, error) {
	args, err := Split(line)
	if err != nil || len(args) == 0 {
		return false, err
	}

	switch args[0] {
	case "exit", "quit":
		return true, nil
	case "help":
		r.help(strings.Join(args[1:], " "))
		return false, nil
	case "history":
		for i, e := range r.history.Entries() {
			fmt.Fprintf(r.output, "%4d  %s\n", i+1, e)
		}
		return false, nil
	}
	return false, r.exec(ctx, args)
}

func (r *REPL) help(prefix string) {
	matches := r.completer.Complete(prefix)
	if len(matches) == 0 {
		fmt.Fprintf(r.output, "No commands match %q.\n", prefix)
		return
	}
	for _, m := range matches {
		fmt.Fprintln(r.output, "  "+m)
	}
}

// ErrUnterminatedQuote is returned by Split for an unclosed quote.
var ErrUnterminatedQuote = errors.New("repl: unterminated quote")

// Split breaks a line into words. Single quotes are literal, double
// quotes honour backslash escapes, and a bare backslash escapes the next
// character.
func Split(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)
	for _, ch := range line {
		switch {
		case escaped:
			cur.WriteRune(ch)
			escaped = false
		case quote == '\'':
			if ch == '\'' {
				quote = 0
			} else {
				cur.WriteRune(ch)
			}
		case ch == '\\':
			escaped = true
			inWord = true
		case quote == '"':
			if ch == '"' {
				quote = 0
			} else {
				cur.WriteRune(ch)
			}
		case ch == '\'' || ch == '"':
			quote = ch
			inWord = true
		case ch == ' ' || ch == '\t':
			if inWord {
				args = append(args, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(ch)
			inWord = true
		}
	}
	if quote != 0 || escaped {
		return nil, ErrUnterminatedQuote
	}
	if inWord {
		args = append(args, cur.String())
	}
	return args, nil
}
