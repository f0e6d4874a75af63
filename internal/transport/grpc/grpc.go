// Package grpc implements the gRPC transport for fitcheck.
//
// The server exposes the standard grpc.health.v1 service and server
// reflection so orchestrators and grpcurl can probe the daemon.
package grpc

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health-checked service name besides the server-wide "".
const ServiceName = "fitcheck.Coach"

// Transport serves gRPC.
type Transport struct {
	port   int
	server *grpc.Server
	health *health.Server
	once   sync.Once
}

// New creates a new gRPC transport on the given port.
func New(port int) *Transport {
	t := &Transport{
		port:   port,
		server: grpc.NewServer(),
		health: health.NewServer(),
	}
	healthpb.RegisterHealthServer(t.server, t.health)
	reflection.Register(t.server)
	t.setServing(healthpb.HealthCheckResponse_NOT_SERVING)
	return t
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "grpc" }

// Listen opens the configured port and serves until ctx is cancelled.
func (t *Transport) Listen(ctx context.Context) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", t.port))
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	slog.Info("grpc transport listening", "port", t.port)

	go func() {
		<-ctx.Done()
		slog.Info("grpc transport shutting down")
		_ = t.Close()
	}()

	return t.Serve(lis)
}

// Serve serves on lis until the transport is closed.
func (t *Transport) Serve(lis net.Listener) error {
	t.setServing(healthpb.HealthCheckResponse_SERVING)
	if err := t.server.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

// Close marks the server as not serving and stops it gracefully.
func (t *Transport) Close() error {
	t.once.Do(func() {
		t.health.Shutdown()
		t.server.GracefulStop()
	})
	return nil
}

func (t *Transport) setServing(status healthpb.HealthCheckResponse_ServingStatus) {
	t.health.SetServingStatus("", status)
	t.health.SetServingStatus(ServiceName, status)
}
