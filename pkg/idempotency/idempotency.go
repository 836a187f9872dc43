package idempotency

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const Header = "Idempotency-Key"

// Key extracts the idempotency key from an incoming request.
func Key(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(Header))
}

// NewKey mints a fresh key for one order submission attempt. Retrying
// the same attempt reuses the key so the Order API can deduplicate.
func NewKey() string {
	return uuid.NewString()
}
