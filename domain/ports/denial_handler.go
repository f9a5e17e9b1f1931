package ports

// DenialHandler observes allow-list rejections. The policy engine invokes
// it on the request path, so implementations must be cheap and must not
// block; anything heavier belongs behind a queue.
type DenialHandler interface {
	// OnDenial reports one denied operation. kind is "exec", "fs", or
	// "network"; request is the denied value (command, path, or host) and
	// reason says which rule rejected it.
	OnDenial(kind string, request interface{}, reason string)
}
