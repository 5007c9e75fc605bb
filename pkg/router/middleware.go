package router

import (
	"context"
	"crypto/rand"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

var ErrNilRenderer = errors.New("component returned nil renderer")

// CORSOptions configures CORS middleware.
type CORSOptions struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// DefaultCORSOptions lets origins read pages and assets. The site takes no
// writes, so nothing else is allowed.
func DefaultCORSOptions(origins ...string) CORSOptions {
	return CORSOptions{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}
}

func CORS(opts CORSOptions) Middleware {
	return cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   opts.AllowedMethods,
		AllowedHeaders:   opts.AllowedHeaders,
		AllowCredentials: opts.AllowCredentials,
		MaxAge:           opts.MaxAge,
	})
}

// cspDirectives is the policy of every response, in order. Highlighted code
// carries inline token colours, so inline styles stay allowed; scripts need
// the per-request nonce.
var cspDirectives = [][2]string{
	{"default-src", "'self'"},
	{"script-src", "'self' 'nonce-%s'"},
	{"style-src", "'self' 'unsafe-inline'"},
	{"img-src", "'self' data: https:"},
	{"connect-src", "'self' ws: wss:"},
	{"font-src", "'self'"},
	{"frame-ancestors", "'none'"},
	{"base-uri", "'self'"},
	{"form-action", "'self'"},
}

func contentSecurityPolicy(nonce string) string {
	var b strings.Builder
	for i, d := range cspDirectives {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(d[0])
		b.WriteByte(' ')
		b.WriteString(strings.Replace(d[1], "%s", nonce, 1))
	}
	return b.String()
}

var fixedHeaders = [][2]string{
	{"X-Frame-Options", "DENY"},
	{"X-Content-Type-Options", "nosniff"},
	{"Referrer-Policy", "strict-origin-when-cross-origin"},
	{"Permissions-Policy", "geolocation=(), microphone=(), camera=()"},
}

const hsts = "max-age=31536000; includeSubDomains"

type cspNonceKey struct{}

// GetCSPNonce returns the script nonce of the request, or "" outside
// SecureHeaders.
func GetCSPNonce(ctx context.Context) string {
	nonce, _ := ctx.Value(cspNonceKey{}).(string)
	return nonce
}

// SecureHeaders sets the security headers and a fresh CSP nonce, which
// templates read with GetCSPNonce. HSTS is only sent over HTTPS, directly or
// behind a proxy.
func SecureHeaders() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for _, kv := range fixedHeaders {
				h.Set(kv[0], kv[1])
			}
			if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
				h.Set("Strict-Transport-Security", hsts)
			}

			nonce := rand.Text()
			h.Set("Content-Security-Policy", contentSecurityPolicy(nonce))
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), cspNonceKey{}, nonce)))
		})
	}
}

// clientIP prefers the first X-Forwarded-For hop.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
