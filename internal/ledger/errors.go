// Package ledger implements the typed client for the remote order
// ledger, a narrow HTTP action API: reads are selected by a GET
// "action" parameter, writes POST a JSON body with an "action"
// discriminator, and every request carries a shared-secret key.
package ledger

import "errors"

// ErrUnavailable classifies network-level failures (connection,
// timeout, 5xx). Transient: callers may retry on the next scheduled
// tick or the next user click. The client itself never retries.
var ErrUnavailable = errors.New("ledger unavailable")

// ErrProtocol classifies well-delivered but malformed or rejected
// responses. Not retried automatically; logged and surfaced as a
// generic failure.
var ErrProtocol = errors.New("ledger protocol error")
