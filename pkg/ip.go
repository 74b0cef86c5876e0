package pkg

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the address of the caller, preferring the headers set
// by the reverse proxy. The port, if any, is stripped.
func ClientIP(r *http.Request) string {
	addr := r.Header.Get("X-Real-Ip")
	if addr == "" {
		// first hop is the client
		addr, _, _ = strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
		addr = strings.TrimSpace(addr)
	}
	if addr == "" {
		addr = r.RemoteAddr
	}

	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
