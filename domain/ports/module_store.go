package ports

import "github.com/wasmforge-dev/wasmforge/domain/entities"

// ModuleStore provides persistence for verified module bytes, keyed by
// content hash.
type ModuleStore interface {
	// Get retrieves the bytes and metadata stored under checksum.
	// A nil entry (not an error) means the store has no usable copy.
	Get(checksum string) ([]byte, *entities.CacheEntry, error)

	// GetByURL retrieves the most recently stored entry whose recorded
	// source URL matches. A nil entry means no match.
	GetByURL(url string) ([]byte, *entities.CacheEntry, error)

	// Put stores verified bytes under entry.Checksum.
	Put(data []byte, entry entities.CacheEntry) error

	// Prune evicts oldest entries until total stored size fits budget
	// bytes. It returns how many entries were removed.
	Prune(budget int64) (int, error)

	// Dir returns the path to the backing directory (for user messaging).
	Dir() string
}
