// Package transform defines the runner-side client for SVG→JSX converters.
// Pipeline stages call a transform.Client with timeouts and retries; the
// converter behind it is either compiled in or a remote gRPC service.
package transform
