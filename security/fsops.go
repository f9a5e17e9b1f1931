package security

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wasmforge-dev/wasmforge/application/catalog"
	"github.com/wasmforge-dev/wasmforge/domain/policy"
)

const (
	// MaxReadSize caps file contents returned to callers (1 MiB).
	MaxReadSize = 1 * 1024 * 1024

	// MaxWriteSize caps content accepted for writing (10 MiB).
	MaxWriteSize = 10 * 1024 * 1024
)

// forbiddenReadRoots are never readable regardless of patterns.
var forbiddenReadRoots = []string{"/etc", "/proc", "/sys"}

// writableRoots are the only absolute prefixes tools may write under.
// Relative paths resolve against the server's working directory.
var writableRoots = []string{"/tmp", "/var/tmp"}

// FileGuard runs the dual-validation filesystem flows. The guest's
// prepare export screens the path first; the host then enforces
// traversal, root, extension and size rules. It implements
// catalog.FileGuard.
type FileGuard struct {
	pol *policy.Policy
	tp  *policy.SecurityPolicy
}

// FileGuardOption configures a FileGuard.
type FileGuardOption func(*FileGuard)

// WithFilePolicy sets tool-level pattern overrides.
func WithFilePolicy(tp *policy.SecurityPolicy) FileGuardOption {
	return func(g *FileGuard) {
		g.tp = tp
	}
}

// NewFileGuard creates a guard that resolves name patterns through pol.
func NewFileGuard(pol *policy.Policy, opts ...FileGuardOption) *FileGuard {
	if pol == nil {
		pol = policy.NewPolicy()
	}
	g := &FileGuard{pol: pol}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

var _ catalog.FileGuard = (*FileGuard)(nil)

// Read validates path and returns the file contents.
func (g *FileGuard) Read(ctx context.Context, guest catalog.Guest, validateExport, path string) (string, error) {
	accepted, err := guest.CallWithInput(ctx, validateExport, []byte(path))
	if err != nil {
		return "", err
	}
	if accepted != 1 {
		return "", reject("File path rejected by WASM validation: %s", path)
	}

	if err := g.checkReadPath(path); err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.Size() > MaxReadSize {
		return "", reject("File too large: %d bytes", info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Write validates path and content, writes the file, and returns a short
// result line.
func (g *FileGuard) Write(ctx context.Context, guest catalog.Guest, validateExport, path, content string) (string, error) {
	accepted, err := guest.CallWithInput(ctx, validateExport, []byte(path))
	if err != nil {
		return "", err
	}
	if accepted != 1 {
		return "", reject("File path rejected by WASM validation for writing: %s", path)
	}

	if err := g.checkWritePath(path); err != nil {
		return "", err
	}
	if len(content) > MaxWriteSize {
		return "", reject("Content too large: %d bytes (max 10MB)", len(content))
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", err
	}
	return fmt.Sprintf("Successfully wrote %d bytes to %s", len(content), path), nil
}

func (g *FileGuard) checkReadPath(path string) error {
	if hasDotDot(path) {
		return reject("File path '%s' is not allowed", path)
	}
	cleaned := filepath.Clean(path)
	if filepath.IsAbs(cleaned) {
		for _, root := range forbiddenReadRoots {
			if underRoot(cleaned, root) {
				return reject("File path '%s' is not allowed", path)
			}
		}
	}
	if !g.pol.CheckReadPath(path, g.tp) {
		return reject("File path '%s' is not allowed", path)
	}
	return nil
}

func (g *FileGuard) checkWritePath(path string) error {
	if hasDotDot(path) {
		return reject("File path '%s' is not allowed for writing", path)
	}
	cleaned := filepath.Clean(path)
	if filepath.IsAbs(cleaned) {
		writable := false
		for _, root := range writableRoots {
			if underRoot(cleaned, root) {
				writable = true
				break
			}
		}
		if !writable {
			return reject("File path '%s' is not allowed for writing", path)
		}
	}
	if !g.pol.CheckWritePath(path, g.tp) {
		return reject("File path '%s' is not allowed for writing", path)
	}
	return nil
}

// hasDotDot checks the raw path elements, before cleaning, so traversal
// attempts are refused rather than normalized away.
func hasDotDot(path string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}

func underRoot(cleaned, root string) bool {
	return cleaned == root || strings.HasPrefix(cleaned, root+"/")
}
