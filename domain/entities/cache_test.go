package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheEntry_Expired(t *testing.T) {
	now := time.Unix(1700000000, 0)

	tests := []struct {
		name  string
		entry CacheEntry
		ttl   time.Duration
		want  bool
	}{
		{
			name:  "fresh entry",
			entry: CacheEntry{CachedAt: now.Unix() - 60},
			ttl:   time.Hour,
			want:  false,
		},
		{
			name:  "stale entry",
			entry: CacheEntry{CachedAt: now.Unix() - 7200},
			ttl:   time.Hour,
			want:  true,
		},
		{
			name:  "exactly at ttl",
			entry: CacheEntry{CachedAt: now.Unix() - 3600},
			ttl:   time.Hour,
			want:  true,
		},
		{
			name:  "zero ttl never expires",
			entry: CacheEntry{CachedAt: now.Unix() - 1000000},
			ttl:   0,
			want:  false,
		},
		{
			name:  "negative ttl never expires",
			entry: CacheEntry{CachedAt: now.Unix() - 1000000},
			ttl:   -time.Hour,
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.entry.Expired(now, tt.ttl))
		})
	}
}
