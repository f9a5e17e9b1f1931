package entities

import "fmt"

// SourceKind discriminates the closed set of module source variants.
type SourceKind string

const (
	// SourceLocal is a module read from a filesystem path.
	SourceLocal SourceKind = "local"

	// SourceRemote is a module fetched over HTTP(S), optionally pinned
	// to an expected content hash.
	SourceRemote SourceKind = "http"

	// SourceRegistry is a named module from a package registry.
	// Resolution of registry sources is not supported.
	SourceRegistry SourceKind = "registry"
)

// ModuleSource describes where a module's bytes come from.
// Exactly the fields for the active Kind are meaningful.
type ModuleSource struct {
	// Kind selects the source variant.
	Kind SourceKind `json:"type"`

	// Path is the filesystem path for local sources. Relative paths are
	// resolved against the configuration directory first, then the
	// working directory.
	Path string `json:"path,omitempty"`

	// URL is the download location for remote sources.
	URL string `json:"url,omitempty"`

	// Checksum is the optional expected sha256 hex digest for remote
	// sources. When set, fetched bytes failing verification are discarded.
	Checksum string `json:"checksum,omitempty"`

	// RegistryName and RegistryVersion identify a registry module.
	RegistryName    string `json:"name,omitempty"`
	RegistryVersion string `json:"version,omitempty"`
}

// LocalSource returns a local-path module source.
func LocalSource(path string) ModuleSource {
	return ModuleSource{Kind: SourceLocal, Path: path}
}

// RemoteSource returns an HTTP module source with an optional sha256 pin.
func RemoteSource(url, checksum string) ModuleSource {
	return ModuleSource{Kind: SourceRemote, URL: url, Checksum: checksum}
}

// String returns a short human-readable description of the source.
func (s ModuleSource) String() string {
	switch s.Kind {
	case SourceLocal:
		return fmt.Sprintf("local:%s", s.Path)
	case SourceRemote:
		return fmt.Sprintf("http:%s", s.URL)
	case SourceRegistry:
		return fmt.Sprintf("registry:%s", s.RegistryName)
	default:
		return string(s.Kind)
	}
}

// ModuleDescriptor identifies one module to load. Descriptors are created
// from resolved configuration at startup and are immutable for the process
// lifetime; identity is the Name.
type ModuleDescriptor struct {
	// Name is the unique module key and the tool namespace prefix.
	Name string `json:"name"`

	// Version is informational.
	Version string `json:"version,omitempty"`

	// Description is informational.
	Description string `json:"description,omitempty"`

	// Source locates the module bytes.
	Source ModuleSource `json:"source"`

	// Metadata carries free-form key/value pairs from configuration.
	// Recognized key: "allowed_commands_csv" (module-level shell
	// allow-list fallback).
	Metadata map[string]string `json:"metadata,omitempty"`
}
