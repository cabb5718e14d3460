package webhook

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/nikhilbhutani/wordcount/internal/config"
)

var (
	ErrInvalidCallback   = errors.New("callback url must be an absolute http(s) URL")
	ErrForbiddenCallback = errors.New("callback address not allowed")
)

// Forbidden reports whether addr is loopback, private, link-local, multicast
// or unspecified.
func Forbidden(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsLoopback() ||
		addr.IsPrivate() ||
		addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() ||
		addr.IsInterfaceLocalMulticast() ||
		addr.IsMulticast() ||
		addr.IsUnspecified()
}

// CheckCallbackURL validates a client-supplied callback URL. Only literal
// addresses and localhost names can be judged here; host names are checked
// again against their resolved address when the delivery dials.
func CheckCallbackURL(raw string, allowPrivate bool) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCallback, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return ErrInvalidCallback
	}
	if allowPrivate {
		return nil
	}

	host := strings.ToLower(strings.TrimSuffix(u.Hostname(), "."))
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return fmt.Errorf("%w: %s", ErrForbiddenCallback, host)
	}
	if addr, err := netip.ParseAddr(host); err == nil && Forbidden(addr) {
		return fmt.Errorf("%w: %s", ErrForbiddenCallback, host)
	}
	return nil
}

// dialControl runs after name resolution, so it also covers redirects and
// names that resolve to internal addresses.
func dialControl(_, address string, _ syscall.RawConn) error {
	ap, err := netip.ParseAddrPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrForbiddenCallback, address)
	}
	if Forbidden(ap.Addr()) {
		return fmt.Errorf("%w: %s", ErrForbiddenCallback, ap.Addr())
	}
	return nil
}

func newHTTPClient(cfg config.WebhookConfig) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !cfg.AllowPrivate {
		dialer := &net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
			Control:   dialControl,
		}
		transport.DialContext = dialer.DialContext
		// a proxy would dial on our behalf and bypass the address check
		transport.Proxy = nil
	}
	return &http.Client{Timeout: cfg.Timeout, Transport: transport}
}
