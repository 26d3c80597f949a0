// Package domain defines the core domain models for the aox mini-app client.
//
// Domain models are pure value objects without any IO dependencies or
// framework coupling. This package contains:
//
//   - Session: the credential/profile pair and its authenticated invariant
//   - Credential: normalization, Authorization header value, claim inspection
//   - Envelope: the {code, msg, data, timestamp} response wrapper
//   - Errors: the structured error kinds produced by the request engine
//   - ExpiryEvent: the "authentication expired" broadcast payload
package domain
