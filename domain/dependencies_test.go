package domain_test

import (
	"go/parser"
	"go/token"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDomainHasNoOutwardDependencies verifies that the domain layer does
// not import the application, infrastructure, or serving layers. Domain
// packages see the standard library, third-party helpers, and each other.
func TestDomainHasNoOutwardDependencies(t *testing.T) {
	fset := token.NewFileSet()

	for _, pkg := range []string{"entities", "errors", "policy", "ports"} {
		pattern := filepath.Join(".", pkg, "*.go")
		files, err := filepath.Glob(pattern)
		require.NoError(t, err, "failed to glob %s files", pkg)

		for _, file := range files {
			if strings.HasSuffix(file, "_test.go") {
				continue
			}
			checkFileImports(t, fset, file, pkg)
		}
	}
}

func checkFileImports(t *testing.T, fset *token.FileSet, filename, pkg string) {
	t.Helper()

	f, err := parser.ParseFile(fset, filename, nil, parser.ImportsOnly)
	require.NoError(t, err, "failed to parse %s", filename)

	for _, imp := range f.Imports {
		importPath := strings.Trim(imp.Path.Value, `"`)

		forbidden := []string{
			"github.com/wasmforge-dev/wasmforge/application",
			"github.com/wasmforge-dev/wasmforge/infrastructure",
			"github.com/wasmforge-dev/wasmforge/host",
			"github.com/wasmforge-dev/wasmforge/security",
			"github.com/wasmforge-dev/wasmforge/server",
			"github.com/wasmforge-dev/wasmforge/config",
			"github.com/wasmforge-dev/wasmforge/wireformat",
			"github.com/wasmforge-dev/wasmforge/cmd",
		}
		for _, path := range forbidden {
			assert.NotContains(t, importPath, path,
				"domain/%s (%s) must not import %s",
				pkg, filepath.Base(filename), path)
		}

		if strings.Contains(importPath, "github.com/wasmforge-dev/wasmforge/") {
			assert.True(t,
				strings.Contains(importPath, "/domain/"),
				"domain/%s (%s) imports a non-domain package: %s",
				pkg, filepath.Base(filename), importPath)
		}
	}
}

// TestDomainPackagesExist verifies the expected domain packages are
// present and non-empty.
func TestDomainPackagesExist(t *testing.T) {
	for _, dir := range []string{"entities", "errors", "policy", "ports"} {
		files, err := filepath.Glob(filepath.Join(".", dir, "*.go"))
		require.NoError(t, err, "failed to check %s directory", dir)
		assert.NotEmpty(t, files, "domain/%s should contain Go files", dir)
	}
}
