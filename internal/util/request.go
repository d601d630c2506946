package util

import (
	"fmt"
	"math/rand/v2"
	"net"
	"net/http"
	"strings"
)

// GenerateRequestID returns a short readable id such as "quiet_loading_3f2a"
func GenerateRequestID() string {
	moods := []string{
		"quiet", "eager", "steady", "sleepy", "brisk",
		"patient", "curious", "bright", "humble", "nimble",
	}
	actions := []string{
		"loading", "listing", "warming", "serving", "sampling",
		"decoding", "probing", "fetching", "tuning", "unloading",
	}

	return fmt.Sprintf("%s_%s_%04x",
		moods[rand.IntN(len(moods))],
		actions[rand.IntN(len(actions))],
		rand.IntN(0x10000))
}

// GetClientIP resolves the caller address, honouring X-Forwarded-For and
// X-Real-IP only when the direct peer is one of the trusted proxies.
func GetClientIP(r *http.Request, trustProxyHeaders bool, trustedCIDRs []*net.IPNet) string {
	peer := remoteHost(r)
	if !trustProxyHeaders {
		return peer
	}

	peerIP := net.ParseIP(peer)
	if peerIP == nil || !isIPInTrustedCIDRs(peerIP, trustedCIDRs) {
		return peer
	}

	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return strings.TrimSpace(strings.Split(ip, ",")[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return strings.TrimSpace(ip)
	}
	return peer
}

func remoteHost(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
