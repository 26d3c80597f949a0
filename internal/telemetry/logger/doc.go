// Package logger provides structured logging for the aox client.
//
// It wraps log/slog:
//
//   - logger.go: Logger interface, configuration and the global default
//   - context.go: Context-aware logging with request IDs
//   - redact.go: Credential and secret redaction
//
// Credentials never reach the output in clear text: attributes whose key
// names a secret are replaced, and bearer values are partially masked.
package logger
