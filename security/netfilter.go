package security

import (
	"net"
	"slices"
	"strconv"
	"strings"
)

// Verdict is the outcome of an outbound address check.
type Verdict struct {
	// Reason explains a block.
	Reason string

	// ResolvedIP is set when the check parsed or resolved an IP.
	ResolvedIP string

	// Allowed reports whether the connection may proceed.
	Allowed bool
}

type filterConfig struct {
	allowHosts     []string
	blockHosts     []string
	allowPorts     []int
	blockPorts     []int
	blockPrivate   bool
	blockLoopback  bool
	blockLinkLocal bool
	blockMulticast bool
	resolve        bool
}

// defaultFilterConfig blocks every address range commonly abused for
// SSRF: loopback, RFC 1918 private, link-local and multicast.
func defaultFilterConfig() filterConfig {
	return filterConfig{
		blockPrivate:   true,
		blockLoopback:  true,
		blockLinkLocal: true,
		blockMulticast: true,
		resolve:        true,
	}
}

// FilterOption configures a Filter.
type FilterOption func(*filterConfig)

// WithAllowedHosts sets hosts that bypass range blocking. Entries may be
// exact hosts, *.suffix wildcards, or CIDRs.
func WithAllowedHosts(hosts ...string) FilterOption {
	return func(c *filterConfig) {
		c.allowHosts = hosts
	}
}

// WithBlockedHosts sets hosts that are always refused. Entries use the
// same forms as WithAllowedHosts and win over the allowlist defaults.
func WithBlockedHosts(hosts ...string) FilterOption {
	return func(c *filterConfig) {
		c.blockHosts = hosts
	}
}

// WithAllowLoopback permits loopback targets. Intended for development
// against servers on the same machine.
func WithAllowLoopback(allow bool) FilterOption {
	return func(c *filterConfig) {
		c.blockLoopback = !allow
	}
}

// WithBlockPrivate toggles blocking of RFC 1918 private ranges.
func WithBlockPrivate(block bool) FilterOption {
	return func(c *filterConfig) {
		c.blockPrivate = block
	}
}

// WithBlockLinkLocal toggles blocking of link-local ranges.
func WithBlockLinkLocal(block bool) FilterOption {
	return func(c *filterConfig) {
		c.blockLinkLocal = block
	}
}

// WithBlockMulticast toggles blocking of multicast ranges.
func WithBlockMulticast(block bool) FilterOption {
	return func(c *filterConfig) {
		c.blockMulticast = block
	}
}

// WithDNSResolution toggles resolving hostnames before range checks.
// Disabling it limits screening to IP literals and explicit host lists.
func WithDNSResolution(resolve bool) FilterOption {
	return func(c *filterConfig) {
		c.resolve = resolve
	}
}

// WithAllowedPorts restricts connections to the given ports. Targets
// without an explicit port are not subject to port rules.
func WithAllowedPorts(ports ...int) FilterOption {
	return func(c *filterConfig) {
		c.allowPorts = ports
	}
}

// WithBlockedPorts refuses connections to the given ports.
func WithBlockedPorts(ports ...int) FilterOption {
	return func(c *filterConfig) {
		c.blockPorts = ports
	}
}

// Filter screens outbound connection targets before any dial. The
// default configuration is safe against untrusted input; relaxations are
// opt-in per option.
type Filter struct {
	cfg filterConfig
}

// NewFilter builds a Filter from secure defaults and opts.
func NewFilter(opts ...FilterOption) *Filter {
	cfg := defaultFilterConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Filter{cfg: cfg}
}

// Check validates a target of the form host, host:port, IP, or IP:port.
// Hostnames are resolved first (unless disabled) so rebinding a safe
// name onto a blocked range is caught.
func (f *Filter) Check(address string) Verdict {
	host, port, err := splitTarget(address)
	if err != nil {
		return Verdict{Reason: "invalid address format: " + err.Error()}
	}

	if verdict, decided := f.checkPort(port); decided {
		return verdict
	}
	if verdict, decided := f.checkHostLists(host); decided {
		return verdict
	}
	return f.checkIP(host)
}

func (f *Filter) checkPort(port int) (Verdict, bool) {
	if port == 0 {
		return Verdict{}, false
	}
	if len(f.cfg.allowPorts) > 0 && !slices.Contains(f.cfg.allowPorts, port) {
		return Verdict{Reason: "port not in allowlist"}, true
	}
	if slices.Contains(f.cfg.blockPorts, port) {
		return Verdict{Reason: "port is blocked"}, true
	}
	return Verdict{}, false
}

func (f *Filter) checkHostLists(host string) (Verdict, bool) {
	for _, pattern := range f.cfg.blockHosts {
		if matchHost(host, pattern) {
			return Verdict{Reason: "address in blocklist"}, true
		}
	}
	for _, pattern := range f.cfg.allowHosts {
		if matchHost(host, pattern) {
			return Verdict{Allowed: true}, true
		}
	}
	return Verdict{}, false
}

func (f *Filter) checkIP(host string) Verdict {
	ip := net.ParseIP(host)
	if ip == nil {
		if !f.cfg.resolve {
			// Hostname-only mode: nothing further to screen.
			return Verdict{Allowed: true}
		}
		ips, err := net.LookupIP(host)
		if err != nil || len(ips) == 0 {
			return Verdict{Reason: "DNS resolution failed for " + host}
		}
		ip = ips[0]
	}

	// Re-check the blocklist against the resolved address so a safe
	// hostname cannot point into a blocked CIDR.
	for _, pattern := range f.cfg.blockHosts {
		if cidrContains(pattern, ip) {
			return Verdict{Reason: "address in blocklist"}
		}
	}
	if reason := f.rangeBlock(ip); reason != "" {
		return Verdict{Reason: reason}
	}
	return Verdict{Allowed: true, ResolvedIP: ip.String()}
}

func (f *Filter) rangeBlock(ip net.IP) string {
	switch {
	case f.cfg.blockLoopback && ip.IsLoopback():
		return "loopback address blocked"
	case f.cfg.blockPrivate && ip.IsPrivate():
		return "private address blocked"
	case f.cfg.blockLinkLocal && (ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast()):
		return "link-local address blocked"
	case f.cfg.blockMulticast && ip.IsMulticast():
		return "multicast address blocked"
	case ip.IsUnspecified():
		return "unspecified address blocked"
	}
	return ""
}

// splitTarget separates host and port. Targets without a port, including
// bare IPv6 literals with or without brackets, yield port 0.
func splitTarget(address string) (string, int, error) {
	host, portText, err := net.SplitHostPort(address)
	if err != nil {
		trimmed := strings.TrimSuffix(strings.TrimPrefix(address, "["), "]")
		return trimmed, 0, nil
	}
	port, err := strconv.Atoi(portText)
	if err != nil || port < 1 || port > 65535 {
		return "", 0, &net.AddrError{Err: "invalid port", Addr: address}
	}
	return host, port, nil
}

// matchHost matches a host against an exact name, a *.suffix wildcard,
// or a CIDR (when the host is an IP literal).
func matchHost(host, pattern string) bool {
	if strings.EqualFold(host, pattern) {
		return true
	}
	if strings.HasPrefix(pattern, "*.") &&
		strings.HasSuffix(strings.ToLower(host), strings.ToLower(pattern[1:])) {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return cidrContains(pattern, ip)
	}
	return false
}

func cidrContains(pattern string, ip net.IP) bool {
	_, cidr, err := net.ParseCIDR(pattern)
	return err == nil && cidr.Contains(ip)
}
