// Package session resolves the opaque token that ties anonymous requests
// together.
package session

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// HeaderName carries the token in both directions.
const HeaderName = "X-Session-Token"

// Resolver derives or mints session tokens. It never touches storage.
type Resolver struct {
	mint func() string
}

// NewResolver creates a resolver that mints random UUIDs.
func NewResolver() *Resolver {
	return &Resolver{mint: uuid.NewString}
}

// Resolve returns the presented token unchanged when it is well formed.
// Otherwise it mints a fresh one and reports minted=true so the caller can
// hand it back to the client.
func (r *Resolver) Resolve(presented string) (token string, minted bool) {
	presented = strings.TrimSpace(presented)
	if Valid(presented) {
		return presented, false
	}
	return r.mint(), true
}

// Valid reports whether token is a canonical UUID string.
func Valid(token string) bool {
	if len(token) != 36 {
		return false
	}
	_, err := uuid.Parse(token)
	return err == nil
}

// HashOrigin anonymizes a client address. Empty input stays empty.
func HashOrigin(addr string) string {
	if addr == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(addr))
	return hex.EncodeToString(sum[:16])
}
