package validation

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// EndpointValidator checks the configured feed endpoint before any request
// is made against it.
type EndpointValidator struct {
	// AllowLocalhost permits localhost and loopback hosts (stub servers).
	AllowLocalhost bool
	// AllowPrivateIPs permits RFC 1918 and link-local addresses.
	AllowPrivateIPs bool
	MaxLength       int
}

// NewEndpointValidator returns a validator with secure defaults.
func NewEndpointValidator() *EndpointValidator {
	return &EndpointValidator{
		AllowLocalhost:  false,
		AllowPrivateIPs: false,
		MaxLength:       2048,
	}
}

// NewPermissiveEndpointValidator allows local development servers.
func NewPermissiveEndpointValidator() *EndpointValidator {
	return &EndpointValidator{
		AllowLocalhost:  true,
		AllowPrivateIPs: true,
		MaxLength:       2048,
	}
}

// ValidateBaseURL validates a base URL and returns it normalised with a
// trailing slash, ready to have a feed path resolved against it.
func (v *EndpointValidator) ValidateBaseURL(input string) (*url.URL, error) {
	input = strings.TrimSpace(input)

	if input == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	if len(input) > v.MaxLength {
		return nil, fmt.Errorf("base URL too long (max %d characters)", v.MaxLength)
	}
	if strings.ContainsAny(input, "<>\"'`") {
		return nil, fmt.Errorf("base URL contains invalid characters")
	}

	parsed, err := url.Parse(input)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("base URL must use http or https protocol")
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base URL must have a valid hostname")
	}
	if parsed.RawQuery != "" || parsed.Fragment != "" {
		return nil, fmt.Errorf("base URL must not carry a query or fragment")
	}
	if strings.Contains(parsed.Path, "..") {
		return nil, fmt.Errorf("directory traversal patterns not allowed in URL path")
	}
	if err := v.validateHost(parsed.Host); err != nil {
		return nil, err
	}

	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}
	return parsed, nil
}

func (v *EndpointValidator) validateHost(host string) error {
	hostname := host
	if strings.Contains(host, ":") {
		var err error
		hostname, _, err = net.SplitHostPort(host)
		if err != nil {
			return fmt.Errorf("invalid host format: %w", err)
		}
	}

	if !v.AllowLocalhost && isLocalhost(hostname) {
		return fmt.Errorf("localhost URLs are not permitted")
	}

	if !v.AllowPrivateIPs {
		if ip := net.ParseIP(hostname); ip != nil && isPrivateIP(ip) {
			return fmt.Errorf("private IP addresses are not permitted")
		}
	}

	if hostname == "0.0.0.0" || hostname == "255.255.255.255" {
		return fmt.Errorf("unroutable host %s", hostname)
	}

	return nil
}

func isLocalhost(hostname string) bool {
	return hostname == "localhost" ||
		hostname == "127.0.0.1" ||
		hostname == "::1" ||
		strings.HasSuffix(hostname, ".localhost")
}

var privateBlocks = mustParseCIDRs(
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"169.254.0.0/16",
	"127.0.0.0/8",
	"fc00::/7",
	"fe80::/10",
)

func isPrivateIP(ip net.IP) bool {
	for _, block := range privateBlocks {
		if block.Contains(ip) {
			return true
		}
	}
	return false
}

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	out := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, block, err := net.ParseCIDR(c)
		if err != nil {
			panic(err)
		}
		out = append(out, block)
	}
	return out
}
