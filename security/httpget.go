package security

import (
	"context"
	stdErrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/wasmforge-dev/wasmforge/application/catalog"
	"github.com/wasmforge-dev/wasmforge/domain/errors"
	"github.com/wasmforge-dev/wasmforge/domain/policy"
	"github.com/wasmforge-dev/wasmforge/domain/ports"
)

// MaxResponseSize caps HTTP bodies returned to tools (1 MiB). Wire the
// injected fetcher with this limit.
const MaxResponseSize = 1 * 1024 * 1024

// HTTPGuard runs the dual-validation network flows for the http_get tool
// and the fetch composition. The guest's validate export votes first,
// then the host checks scheme, host policy and address ranges before any
// connection. It implements catalog.HTTPGuard.
type HTTPGuard struct {
	fetcher ports.Fetcher
	pol     *policy.Policy
	tp      *policy.SecurityPolicy
	filter  *Filter
	denials ports.DenialHandler
}

// HTTPGuardOption configures an HTTPGuard.
type HTTPGuardOption func(*HTTPGuard)

// WithHTTPPolicy sets tool-level host patterns.
func WithHTTPPolicy(tp *policy.SecurityPolicy) HTTPGuardOption {
	return func(g *HTTPGuard) {
		g.tp = tp
	}
}

// WithAddressFilter replaces the default address filter.
func WithAddressFilter(f *Filter) HTTPGuardOption {
	return func(g *HTTPGuard) {
		if f != nil {
			g.filter = f
		}
	}
}

// WithNetworkDenialHandler receives address-filter denials. Host-pattern
// denials already flow through the policy's own handler.
func WithNetworkDenialHandler(h ports.DenialHandler) HTTPGuardOption {
	return func(g *HTTPGuard) {
		if h != nil {
			g.denials = h
		}
	}
}

// NewHTTPGuard creates a guard that downloads through fetcher and
// resolves host patterns through pol.
func NewHTTPGuard(fetcher ports.Fetcher, pol *policy.Policy, opts ...HTTPGuardOption) *HTTPGuard {
	if pol == nil {
		pol = policy.NewPolicy()
	}
	g := &HTTPGuard{
		fetcher: fetcher,
		pol:     pol,
		filter:  NewFilter(),
		denials: &policy.NopDenialHandler{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

var _ catalog.HTTPGuard = (*HTTPGuard)(nil)

// Get validates rawURL and returns the response body.
func (g *HTTPGuard) Get(ctx context.Context, guest catalog.Guest, validateExport, rawURL string) (string, error) {
	accepted, err := guest.CallWithInput(ctx, validateExport, []byte(rawURL))
	if err != nil {
		return "", err
	}
	if accepted != 1 {
		return "", reject("URL rejected by WASM validation: %s", rawURL)
	}

	if err := g.checkURL(rawURL); err != nil {
		return "", err
	}
	return g.download(ctx, rawURL)
}

// Fetch validates rawURL, downloads the body, and hands it to the
// guest's process export. A guest status other than 200 fails the call.
func (g *HTTPGuard) Fetch(ctx context.Context, guest catalog.Guest, validateExport, processExport, rawURL string) (string, error) {
	accepted, err := guest.CallWithInput(ctx, validateExport, []byte(rawURL))
	if err != nil {
		return "", err
	}
	if accepted != 1 {
		return "", reject("Invalid URL according to WASM validation")
	}

	if err := g.checkURL(rawURL); err != nil {
		return "", err
	}
	body, err := g.download(ctx, rawURL)
	if err != nil {
		return "", err
	}

	status, err := guest.CallWithInput(ctx, processExport, []byte(body))
	if err != nil {
		return "", err
	}
	if status != 200 {
		return "", fmt.Errorf("WASM processing failed with status: %d", status)
	}
	return body, nil
}

func (g *HTTPGuard) checkURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return reject("Invalid URL: %s", rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		g.denials.OnDenial("network", rawURL, "scheme not allowed")
		return reject("URL scheme '%s' is not allowed", u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return reject("Invalid URL: %s", rawURL)
	}

	if !g.pol.CheckHost(host, g.tp) {
		return reject("Host '%s' is not allowed", host)
	}
	verdict := g.filter.Check(u.Host)
	if !verdict.Allowed {
		g.denials.OnDenial("network", u.Host, verdict.Reason)
		return reject("Host '%s' is not allowed: %s", host, verdict.Reason)
	}
	return nil
}

func (g *HTTPGuard) download(ctx context.Context, rawURL string) (string, error) {
	body, err := g.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		var fe *errors.FetchError
		if stdErrors.As(err, &fe) && fe.StatusCode > 0 {
			status := strings.TrimSpace(fmt.Sprintf("%d %s", fe.StatusCode, http.StatusText(fe.StatusCode)))
			return "", fmt.Errorf("HTTP request failed with status: %s", status)
		}
		return "", err
	}
	return string(body), nil
}
