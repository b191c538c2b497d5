package urlvalidation

import (
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strings"
)

// Option configures URL validation behavior.
type Option func(*validationConfig)

type validationConfig struct {
	allowPrivate bool
}

// AllowPrivateIPs disables the private IP check. Use only in tests.
func AllowPrivateIPs() Option {
	return func(c *validationConfig) {
		c.allowPrivate = true
	}
}

// ValidateEndpointURL checks that a URL is safe to use as an outbound
// forwarding endpoint. It rejects non-HTTP schemes and hostnames that
// resolve to private, loopback or otherwise reserved addresses, to keep
// user-supplied URLs from reaching internal infrastructure.
func ValidateEndpointURL(rawURL string, opts ...Option) error {
	var cfg validationConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "https" && scheme != "http" {
		return fmt.Errorf("URL scheme %q not allowed; use http or https", u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("URL must have a hostname")
	}

	if cfg.allowPrivate {
		return nil
	}

	ips, err := net.LookupHost(host)
	if err != nil {
		return fmt.Errorf("cannot resolve hostname %q: %w", host, err)
	}

	for _, ipStr := range ips {
		addr, err := netip.ParseAddr(ipStr)
		if err != nil {
			continue
		}
		if isReserved(addr) {
			return fmt.Errorf("URL resolves to private/reserved IP %s", ipStr)
		}
	}

	return nil
}

// extraReserved covers ranges netip's own predicates do not classify as
// special: carrier-grade NAT, benchmarking, the TEST-NET documentation
// blocks and the class E reserve.
var extraReserved = []netip.Prefix{
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("198.18.0.0/15"),
	netip.MustParsePrefix("192.0.0.0/24"),
	netip.MustParsePrefix("192.0.2.0/24"),
	netip.MustParsePrefix("198.51.100.0/24"),
	netip.MustParsePrefix("203.0.113.0/24"),
	netip.MustParsePrefix("240.0.0.0/4"),
	netip.MustParsePrefix("2001:db8::/32"),
}

func isReserved(addr netip.Addr) bool {
	addr = addr.Unmap()
	if addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() || addr.IsMulticast() || addr.IsUnspecified() {
		return true
	}
	for _, p := range extraReserved {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
