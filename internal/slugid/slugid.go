// Package slugid generates the 22 character URL-safe task identifiers used by
// the execution backend.
package slugid

import (
	"encoding/base64"

	"github.com/google/uuid"
)

// Nice returns a fresh slug id whose first character is never '-', so the id
// is always safe to pass as a command-line argument.
func Nice() string {
	u := uuid.New()
	u[0] &= 0x7f
	return base64.RawURLEncoding.EncodeToString(u[:])
}

// Generator produces task ids. Tests substitute a deterministic one.
type Generator func() string
