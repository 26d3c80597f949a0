// Package repl runs aox-cli commands from an interactive prompt so that
// one client, and its in-memory page stack, lives across commands.
package repl
