// Package id generates the 32-char lowercase hex identifiers used for loans,
// payments, decisions and contribution credits.
package id

import (
	"encoding/hex"
	"regexp"

	"github.com/google/uuid"
)

var reHex32 = regexp.MustCompile(`^[a-f0-9]{32}$`)

// NewID32 returns a UUIDv7 as exactly 32 hex characters (no separators).
// IDs from one process sort in creation order.
func NewID32() string {
	u := uuid.Must(uuid.NewV7())
	return hex.EncodeToString(u[:])
}

// Valid reports whether s has the NewID32 shape. Member IDs issued by the
// contribution side share it.
func Valid(s string) bool { return reHex32.MatchString(s) }
