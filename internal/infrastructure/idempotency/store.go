// Package idempotency stores the outcome of write requests sent with an
// Idempotency-Key so that client retries replay the first response.
package idempotency

import (
	"errors"
	"time"
)

// DefaultTTL is how long a completed response is kept for replay
const DefaultTTL = 24 * time.Hour

// ErrStoreClosed is returned by a closed in-memory store
var ErrStoreClosed = errors.New("idempotency store closed")

// Record is the state stored under one idempotency key
type Record struct {
	// Fingerprint identifies the request (method, route, body)
	Fingerprint string `json:"fingerprint"`
	// Completed is false while the first request is still running
	Completed   bool   `json:"completed"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

// Pending returns the placeholder written when a key is reserved
func Pending(fingerprint string) Record {
	return Record{Fingerprint: fingerprint}
}
