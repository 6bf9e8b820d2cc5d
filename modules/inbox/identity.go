package inbox

import (
	"net/http"
	"strings"
)

// DefaultIdentityHeader carries the authenticated user ID set by an upstream gateway.
const DefaultIdentityHeader = "X-User-ID"

// IdentityFunc returns the authenticated user ID of the request.
type IdentityFunc func(r *http.Request) (string, bool)

// HeaderIdentity trusts the given request header. Use it only behind a proxy
// that authenticates the caller and overwrites the header.
func HeaderIdentity(header string) IdentityFunc {
	return func(r *http.Request) (string, bool) {
		id := strings.TrimSpace(r.Header.Get(header))
		return id, id != ""
	}
}
