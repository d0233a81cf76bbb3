// Package security holds the request screening, client IP resolution and
// response header middlewares.
package security

import (
	"net"
	"net/http"
	"net/netip"
	"slices"
	"strings"
	"sync/atomic"

	applog "healthdash/internal/log"
)

const maxURLLength = 2048

var (
	traversalPatterns = []string{"../", "..\\", "%2e%2e"}
	probePatterns     = []string{
		".env", "wp-admin", "phpmyadmin", "admin.php", "config.php", ".git", ".ssh",
		"etc/passwd", "cmd.exe",
	}
	injectionPatterns = []string{"eval(", "javascript:", "<script", "union select"}
	scannerAgents     = []string{"sqlmap", "nmap", "nikto", "gobuster", "dirb", "masscan"}
	blockedMethods    = []string{"TRACE", "TRACK", "DEBUG", "CONNECT"}

	privateNetworks = []netip.Prefix{
		netip.MustParsePrefix("127.0.0.0/8"),
		netip.MustParsePrefix("::1/128"),
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("172.16.0.0/12"),
		netip.MustParsePrefix("192.168.0.0/16"),
	}
)

// Finding is the outcome of screening one request.
type Finding struct {
	Reasons []string
	// Block is set for traversal attempts and methods the app never serves.
	Block bool
}

func (f Finding) Suspicious() bool { return len(f.Reasons) > 0 }

type DetectionMetrics struct {
	SuspiciousRequests int64
	BlockedRequests    int64
}

// Detector screens requests and resolves client addresses behind the
// reverse proxies it trusts.
type Detector struct {
	suspicious     atomic.Int64
	blocked        atomic.Int64
	trustedProxies []netip.Prefix
}

func NewDetector() *Detector {
	return &Detector{trustedProxies: privateNetworks}
}

// Inspect lists why r looks hostile. It does not touch the counters.
func (d *Detector) Inspect(r *http.Request) Finding {
	var f Finding
	path := strings.ToLower(r.URL.Path)
	query := strings.ToLower(r.URL.RawQuery)

	if containsAny(path, traversalPatterns) || containsAny(query, traversalPatterns) {
		f.Reasons = append(f.Reasons, "traversal")
		f.Block = true
	}
	if slices.Contains(blockedMethods, r.Method) {
		f.Reasons = append(f.Reasons, "method")
		f.Block = true
	}
	if containsAny(path, probePatterns) || containsAny(query, probePatterns) {
		f.Reasons = append(f.Reasons, "probe")
	}
	if containsAny(path, injectionPatterns) || containsAny(query, injectionPatterns) {
		f.Reasons = append(f.Reasons, "injection")
	}
	if containsAny(strings.ToLower(r.Header.Get("User-Agent")), scannerAgents) {
		f.Reasons = append(f.Reasons, "scanner")
	}
	if len(r.URL.String()) > maxURLLength {
		f.Reasons = append(f.Reasons, "long_url")
	}
	if strings.Count(r.Header.Get("X-Forwarded-For"), ",") > 5 {
		f.Reasons = append(f.Reasons, "proxy_chain")
	}
	return f
}

// DetectSuspiciousRequest inspects r and counts it when it is suspicious.
func (d *Detector) DetectSuspiciousRequest(r *http.Request) bool {
	f := d.Inspect(r)
	if f.Suspicious() {
		d.suspicious.Add(1)
	}
	return f.Suspicious()
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// Middleware logs suspicious requests and answers 400 to the blocked ones.
func (d *Detector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f := d.Inspect(r)
		if !f.Suspicious() {
			next.ServeHTTP(w, r)
			return
		}
		d.suspicious.Add(1)

		logger := applog.FromContext(r.Context()).WithComponent(applog.ComponentSecurity)
		logger.WarnContext(r.Context(), "Suspicious request",
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldClientIP, d.ExtractClientIP(r),
			applog.FieldUserAgent, r.Header.Get("User-Agent"),
			"reasons", strings.Join(f.Reasons, ","),
			"blocked", f.Block)

		if f.Block {
			d.blocked.Add(1)
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ExtractClientIP returns the peer address, or when the peer is a trusted
// proxy, the nearest untrusted hop of X-Forwarded-For, then X-Real-IP.
func (d *Detector) ExtractClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	peer, err := netip.ParseAddr(host)
	if err != nil || !d.trusted(peer) {
		return host
	}

	if hop, ok := d.forwardedClient(r.Header.Get("X-Forwarded-For")); ok {
		return hop
	}
	if xri, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return xri.String()
	}
	return host
}

// forwardedClient walks X-Forwarded-For from the right, skipping the proxies
// we trust. Hops further left can be forged by the client.
func (d *Detector) forwardedClient(xff string) (string, bool) {
	if xff == "" {
		return "", false
	}
	hops := strings.Split(xff, ",")
	var leftmost string
	for i := len(hops) - 1; i >= 0; i-- {
		addr, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
		if err != nil {
			return "", false
		}
		leftmost = addr.String()
		if !d.trusted(addr) {
			return leftmost, true
		}
	}
	return leftmost, true
}

func (d *Detector) trusted(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, p := range d.trustedProxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func (d *Detector) GetMetrics() DetectionMetrics {
	return DetectionMetrics{
		SuspiciousRequests: d.suspicious.Load(),
		BlockedRequests:    d.blocked.Load(),
	}
}
