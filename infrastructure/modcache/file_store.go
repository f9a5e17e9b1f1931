// Package modcache persists verified module bytes on disk, content-addressed
// by sha256. Each entry is a {checksum}.wasm payload beside a {checksum}.json
// metadata record.
package modcache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/wasmforge-dev/wasmforge/domain/entities"
	"github.com/wasmforge-dev/wasmforge/domain/ports"
)

// fileStoreConfig holds configuration for the FileStore.
type fileStoreConfig struct {
	dir      string      // Directory holding cache entries
	dirPerm  os.FileMode // Permission for created directories
	filePerm os.FileMode // Permission for cache files
}

func defaultFileStoreConfig() fileStoreConfig {
	return fileStoreConfig{
		dir:      DefaultDir(),
		dirPerm:  0o755,
		filePerm: 0o644,
	}
}

// DefaultDir returns the user-level module cache directory.
func DefaultDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "wasmforge", "modules")
}

// FileStoreOption configures a FileStore instance.
type FileStoreOption func(*fileStoreConfig)

// WithDir sets the cache directory.
func WithDir(dir string) FileStoreOption {
	return func(c *fileStoreConfig) {
		c.dir = dir
	}
}

// WithFilePermissions sets the permissions for cache files.
// Default is 0o644.
func WithFilePermissions(perm os.FileMode) FileStoreOption {
	return func(c *fileStoreConfig) {
		c.filePerm = perm
	}
}

// WithDirPermissions sets the permissions for the cache directory.
// Default is 0o755.
func WithDirPermissions(perm os.FileMode) FileStoreOption {
	return func(c *fileStoreConfig) {
		c.dirPerm = perm
	}
}

// FileStore provides file-based persistence for module bytes.
type FileStore struct {
	config fileStoreConfig
}

// NewFileStore creates a new FileStore with the given options.
func NewFileStore(opts ...FileStoreOption) ports.ModuleStore {
	cfg := defaultFileStoreConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &FileStore{config: cfg}
}

// Checksum returns the lowercase hex sha256 of data.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Get retrieves the bytes and metadata stored under checksum. Entries whose
// bytes no longer hash to their name are removed and reported as absent.
func (s *FileStore) Get(checksum string) ([]byte, *entities.CacheEntry, error) {
	metaData, err := os.ReadFile(s.metaPath(checksum))
	if os.IsNotExist(err) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read cache metadata: %w", err)
	}

	var entry entities.CacheEntry
	if err := json.Unmarshal(metaData, &entry); err != nil {
		s.remove(checksum)
		return nil, nil, nil
	}

	data, err := os.ReadFile(s.wasmPath(checksum))
	if os.IsNotExist(err) {
		s.remove(checksum)
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read cached module: %w", err)
	}

	if Checksum(data) != checksum {
		s.remove(checksum)
		return nil, nil, nil
	}
	return data, &entry, nil
}

// GetByURL retrieves the most recently stored entry recorded for url.
func (s *FileStore) GetByURL(url string) ([]byte, *entities.CacheEntry, error) {
	if url == "" {
		return nil, nil, nil
	}

	entries, err := s.list()
	if err != nil {
		return nil, nil, err
	}

	var best *entities.CacheEntry
	for i := range entries {
		e := &entries[i]
		if e.SourceURL == url && (best == nil || e.CachedAt > best.CachedAt) {
			best = e
		}
	}
	if best == nil {
		return nil, nil, nil
	}
	return s.Get(best.Checksum)
}

// Put stores data under entry.Checksum. A zero CachedAt is filled with the
// current time; SizeBytes always reflects len(data).
func (s *FileStore) Put(data []byte, entry entities.CacheEntry) error {
	if entry.Checksum == "" {
		return fmt.Errorf("cache entry has no checksum")
	}
	if actual := Checksum(data); actual != entry.Checksum {
		return fmt.Errorf("refusing to store bytes hashing to %s under checksum %s", actual, entry.Checksum)
	}

	entry.SizeBytes = int64(len(data))
	if entry.CachedAt == 0 {
		entry.CachedAt = time.Now().Unix()
	}

	if err := os.MkdirAll(s.config.dir, s.config.dirPerm); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	if err := os.WriteFile(s.wasmPath(entry.Checksum), data, s.config.filePerm); err != nil {
		return fmt.Errorf("failed to write cached module: %w", err)
	}

	metaData, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache metadata: %w", err)
	}
	if err := os.WriteFile(s.metaPath(entry.Checksum), metaData, s.config.filePerm); err != nil {
		return fmt.Errorf("failed to write cache metadata: %w", err)
	}
	return nil
}

// Prune evicts oldest entries until the total stored size fits budget bytes.
func (s *FileStore) Prune(budget int64) (int, error) {
	entries, err := s.list()
	if err != nil {
		return 0, err
	}

	var total int64
	for _, e := range entries {
		total += e.SizeBytes
	}
	if total <= budget {
		return 0, nil
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CachedAt < entries[j].CachedAt
	})

	evicted := 0
	for _, e := range entries {
		if total <= budget {
			break
		}
		if err := s.remove(e.Checksum); err != nil {
			return evicted, err
		}
		total -= e.SizeBytes
		evicted++
	}
	return evicted, nil
}

// Dir returns the path to the backing directory.
func (s *FileStore) Dir() string {
	return s.config.dir
}

func (s *FileStore) wasmPath(checksum string) string {
	return filepath.Join(s.config.dir, checksum+".wasm")
}

func (s *FileStore) metaPath(checksum string) string {
	return filepath.Join(s.config.dir, checksum+".json")
}

func (s *FileStore) remove(checksum string) error {
	if err := os.Remove(s.wasmPath(checksum)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove cached module: %w", err)
	}
	if err := os.Remove(s.metaPath(checksum)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove cache metadata: %w", err)
	}
	return nil
}

// list loads every readable metadata record in the cache directory.
// Unreadable or corrupt records are skipped.
func (s *FileStore) list() ([]entities.CacheEntry, error) {
	dirEntries, err := os.ReadDir(s.config.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache directory: %w", err)
	}

	var entries []entities.CacheEntry
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.config.dir, de.Name()))
		if err != nil {
			continue
		}
		var entry entities.CacheEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
