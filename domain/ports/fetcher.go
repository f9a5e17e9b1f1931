package ports

import (
	"context"
)

// Fetcher defines the interface for retrieving remote resources.
// Infrastructure adapters implement this to provide HTTP functionality.
type Fetcher interface {
	// Fetch downloads the resource at url and returns its body, subject
	// to the adapter's size cap and timeout.
	Fetch(ctx context.Context, url string) ([]byte, error)
}
