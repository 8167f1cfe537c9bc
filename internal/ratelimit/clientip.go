package ratelimit

import (
	"net/http"
	"strings"
)

// UnknownClient is the shared bucket for requests whose origin cannot be
// determined from any proxy header.
const UnknownClient = "unknown"

// clientIdentityHeaders in priority order. CF-Connecting-IP is set by the
// edge proxy and is the most trustworthy; X-Forwarded-For may be a chain
// where only the first hop is the original client.
var clientIdentityHeaders = []string{"CF-Connecting-IP", "X-Forwarded-For", "X-Real-IP"}

// ClientIdentity derives the rate-limit identity for a request from the
// proxy header chain, falling back to UnknownClient.
func ClientIdentity(r *http.Request) string {
	for _, header := range clientIdentityHeaders {
		value := r.Header.Get(header)
		if value == "" {
			continue
		}
		if header == "X-Forwarded-For" {
			value = strings.Split(value, ",")[0]
		}
		value = strings.TrimSpace(value)
		if value != "" {
			return value
		}
	}
	return UnknownClient
}
