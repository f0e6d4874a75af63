// Package transport defines the interface for the service's network fronts.
//
// Each transport (HTTP/WebSocket, gRPC) serves until its context is
// cancelled. The daemon starts every enabled transport and closes them
// together on shutdown.
package transport

import "context"

// Transport is the interface that every transport adapter must implement.
type Transport interface {
	// Name returns the transport identifier (e.g., "http", "grpc").
	Name() string

	// Listen starts serving. It blocks until the context is cancelled.
	Listen(ctx context.Context) error

	// Close gracefully shuts down the transport, draining in-flight work.
	Close() error
}
