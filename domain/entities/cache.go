package entities

import "time"

// CacheEntry is the metadata stored beside cached module bytes. Entries
// are keyed by verified content hash: two descriptors resolving to the
// same hash share one entry. An entry past its TTL or failing hash
// re-verification is treated as absent.
type CacheEntry struct {
	// Checksum is the sha256 hex digest of the module bytes and the
	// entry's storage key.
	Checksum string `json:"checksum"`

	// SizeBytes is the module size.
	SizeBytes int64 `json:"size_bytes"`

	// CachedAt is the fetch time as a Unix timestamp, checked against
	// the configured TTL.
	CachedAt int64 `json:"cached_at"`

	// SourceURL records the origin for unpinned remote sources so a
	// repeat resolution of the same URL can hit the cache.
	SourceURL string `json:"source_url,omitempty"`
}

// Expired reports whether the entry is older than ttl at the given time.
func (e CacheEntry) Expired(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return now.Unix()-e.CachedAt >= int64(ttl/time.Second)
}
