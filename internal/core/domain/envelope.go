package domain

import (
	"encoding/json"
	"time"
)

// Envelope codes with special meaning.
const (
	CodeOK           = 0
	CodeUnauthorized = 401
)

// Envelope is the uniform wrapper every API response uses.
type Envelope struct {
	Code      int             `json:"code"`
	Msg       string          `json:"msg"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// OK reports whether the envelope carries the success sentinel.
func (e Envelope) OK() bool {
	return e.Code == CodeOK
}

// ExpiryEvent is broadcast when the request engine detects that the
// session is no longer valid.
type ExpiryEvent struct {
	Path    string    // request path that observed the expiry
	Status  int       // transport status
	Code    int       // envelope code
	Message string    // envelope message, or the default
	At      time.Time // observation time
}
