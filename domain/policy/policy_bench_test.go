package policy_test

import (
	"testing"

	"github.com/wasmforge-dev/wasmforge/domain/policy"
)

func BenchmarkCheckCommand(b *testing.B) {
	p := policy.NewPolicy(policy.WithDenialHandler(&policy.NopDenialHandler{}))
	allowed := []string{"echo", "cat", "ls", "wc", "uname"}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.CheckCommand("uname", allowed)
	}
}

func BenchmarkCheckHost(b *testing.B) {
	p := policy.NewPolicy(policy.WithDenialHandler(&policy.NopDenialHandler{}))
	tp := &policy.SecurityPolicy{AllowedHosts: []string{"*.example.com", "api.internal"}}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.CheckHost("api.example.com", tp)
	}
}

func BenchmarkCheckReadPath(b *testing.B) {
	p := policy.NewPolicy(policy.WithDenialHandler(&policy.NopDenialHandler{}))

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.CheckReadPath("data/config.toml", nil)
	}
}
