package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"log"
	"net/http"
	"strings"
)

// AdminAuth checks the admin bearer token. Tokens are compared by their
// HMAC so the comparison takes the same time whatever the input.
type AdminAuth struct {
	digest []byte
}

// NewAdminAuth returns an AdminAuth for token. An empty token authorizes
// nobody.
func NewAdminAuth(token string) AdminAuth {
	if token == "" {
		return AdminAuth{}
	}
	return AdminAuth{digest: tokenDigest(token)}
}

func tokenDigest(token string) []byte {
	mac := hmac.New(sha256.New, []byte("pistol-arena-admin"))
	mac.Write([]byte(token))
	return mac.Sum(nil)
}

// Enabled reports whether admin joins are possible at all.
func (a AdminAuth) Enabled() bool { return a.digest != nil }

// Authorized reports whether r carries the admin token.
func (a AdminAuth) Authorized(r *http.Request) bool {
	if a.digest == nil {
		return false
	}
	token, ok := bearerToken(r)
	if !ok {
		return false
	}
	if !hmac.Equal(tokenDigest(token), a.digest) {
		log.Printf("🔐 Rejected admin token from %s", GetClientIP(r))
		return false
	}
	return true
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(h[len(prefix):]), true
}
