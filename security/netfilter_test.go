package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_BlocksRiskyRangesByDefault(t *testing.T) {
	f := NewFilter()

	cases := []struct {
		name    string
		address string
		reason  string
	}{
		{"loopback v4", "127.0.0.1", "loopback address blocked"},
		{"loopback v6", "::1", "loopback address blocked"},
		{"private 10/8", "10.1.2.3", "private address blocked"},
		{"private 172.16/12", "172.16.0.1", "private address blocked"},
		{"private 192.168/16", "192.168.1.1", "private address blocked"},
		{"link local", "169.254.169.254", "link-local address blocked"},
		{"link-local multicast", "224.0.0.251", "link-local address blocked"},
		{"multicast", "239.1.1.1", "multicast address blocked"},
		{"unspecified", "0.0.0.0", "unspecified address blocked"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			verdict := f.Check(tc.address)
			assert.False(t, verdict.Allowed)
			assert.Equal(t, tc.reason, verdict.Reason)
		})
	}
}

func TestFilter_AllowsPublicAddress(t *testing.T) {
	verdict := NewFilter().Check("93.184.216.34")
	assert.True(t, verdict.Allowed)
	assert.Equal(t, "93.184.216.34", verdict.ResolvedIP)
}

func TestFilter_AllowLoopbackOption(t *testing.T) {
	f := NewFilter(WithAllowLoopback(true))

	assert.True(t, f.Check("127.0.0.1").Allowed)
	assert.True(t, f.Check("[::1]:8080").Allowed)
	// Other ranges stay blocked.
	assert.False(t, f.Check("10.0.0.1").Allowed)
}

func TestFilter_HostAllowlistBypassesRangeBlocks(t *testing.T) {
	f := NewFilter(WithAllowedHosts("127.0.0.1", "*.internal.test", "192.168.0.0/16"))

	assert.True(t, f.Check("127.0.0.1").Allowed)
	assert.True(t, f.Check("db.internal.test").Allowed)
	assert.True(t, f.Check("192.168.4.7:443").Allowed)
	assert.False(t, f.Check("10.9.9.9").Allowed)
}

func TestFilter_Blocklist(t *testing.T) {
	f := NewFilter(WithBlockedHosts("evil.test", "203.0.113.0/24"))

	verdict := f.Check("evil.test")
	require.False(t, verdict.Allowed)
	assert.Equal(t, "address in blocklist", verdict.Reason)

	assert.False(t, f.Check("203.0.113.9").Allowed)
}

func TestFilter_BlocklistWinsOverAllowlist(t *testing.T) {
	f := NewFilter(
		WithAllowedHosts("*.example.test"),
		WithBlockedHosts("bad.example.test"),
	)

	assert.False(t, f.Check("bad.example.test").Allowed)
	// Another name under the wildcard is still allowed without resolution.
	assert.True(t, f.Check("good.example.test").Allowed)
}

func TestFilter_PortAllowlist(t *testing.T) {
	f := NewFilter(WithAllowedPorts(80, 443))

	assert.True(t, f.Check("93.184.216.34:443").Allowed)

	verdict := f.Check("93.184.216.34:8080")
	require.False(t, verdict.Allowed)
	assert.Equal(t, "port not in allowlist", verdict.Reason)
}

func TestFilter_PortBlocklist(t *testing.T) {
	f := NewFilter(WithBlockedPorts(25))

	verdict := f.Check("93.184.216.34:25")
	require.False(t, verdict.Allowed)
	assert.Equal(t, "port is blocked", verdict.Reason)
}

func TestFilter_HostnameOnlyModeWithoutDNS(t *testing.T) {
	f := NewFilter(WithDNSResolution(false))

	assert.True(t, f.Check("anything.test").Allowed)
	// IP literals are still screened.
	assert.False(t, f.Check("127.0.0.1").Allowed)
}

func TestFilter_RangeTogglesRelax(t *testing.T) {
	f := NewFilter(
		WithBlockPrivate(false),
		WithBlockLinkLocal(false),
		WithBlockMulticast(false),
	)

	assert.True(t, f.Check("10.1.2.3").Allowed)
	assert.True(t, f.Check("169.254.1.1").Allowed)
	assert.True(t, f.Check("239.1.1.1").Allowed)
	// Loopback and unspecified remain blocked.
	assert.False(t, f.Check("127.0.0.1").Allowed)
	assert.False(t, f.Check("0.0.0.0").Allowed)
}

func TestFilter_InvalidPort(t *testing.T) {
	verdict := NewFilter().Check("example.com:notaport")
	require.False(t, verdict.Allowed)
	assert.Contains(t, verdict.Reason, "invalid address format")

	verdict = NewFilter().Check("example.com:99999")
	assert.False(t, verdict.Allowed)
}
