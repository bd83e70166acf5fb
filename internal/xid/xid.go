// Package xid mints the prefixed identifiers this backend hands out:
// "ord" for planillas, "cli" for clients, "audit" for audit entries. An id
// carries its prefix, the mint time in nanoseconds, and a random suffix, so
// ids sort roughly by creation time while staying unguessable.
package xid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

const suffixBytes = 8

// New returns a fresh id under the given prefix. When the random source
// fails the id degrades to prefix and timestamp alone.
func New(prefix string) string {
	buf := make([]byte, suffixBytes)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixNano(), hex.EncodeToString(buf))
}
