/*
Package randx generates identifiers for persisted records.

Message IDs are UUID v4 strings so that two portal processes writing the same
store never mint the same identity.
*/
package randx

import (
	"github.com/google/uuid"
)

// MessageID returns a fresh UUID v4 string.
func MessageID() string {
	return uuid.New().String()
}
