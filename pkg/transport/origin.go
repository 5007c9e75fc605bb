package transport

import "net/url"

// WebSocketConfig decides which pages may open a live socket.
type WebSocketConfig struct {
	// AllowedOrigins lists extra origins beyond the serving host. "*" allows
	// any origin.
	AllowedOrigins []string

	// InsecureDevMode skips the origin check entirely.
	InsecureDevMode bool
}

// DefaultWebSocketConfig allows same-origin pages only.
func DefaultWebSocketConfig() *WebSocketConfig {
	return &WebSocketConfig{}
}

// Allows reports whether a page served from origin may connect to host.
// Requests without an Origin header come from non-browser clients and are
// allowed.
func (c *WebSocketConfig) Allows(origin, host string) bool {
	if origin == "" || (c != nil && c.InsecureDevMode) {
		return true
	}
	o, err := url.Parse(origin)
	if err != nil || o.Host == "" {
		return false
	}
	if o.Host == host {
		return true
	}
	if c == nil {
		return false
	}
	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
		if a, err := url.Parse(allowed); err == nil && a.Host != "" && a.Host == o.Host {
			return true
		}
	}
	return false
}
