// Package connection provides the request engine every API call goes
// through.
//
//   - engine.go: request building, envelope classification, expiry handling
//   - verbs.go: typed Get/Post/Put/Delete helpers and GET query encoding
//   - redirect.go: login redirect de-duplication gate
//   - signal.go: authentication expiry broadcast
//   - transport.go: HTTP transport
package connection
