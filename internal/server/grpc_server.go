package server

import (
	"fmt"
	"log/slog"
	"net"

	"github.com/oggyb/roomate/internal/config"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// NewGRPCServer builds a gRPC server with logging and auth interceptors,
// the health service and reflection, and registers all provided services.
func NewGRPCServer(cfg *config.Config, log *slog.Logger, identities IdentityRegistrar, registrars ...Registrar) *grpc.Server {
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			UnaryLogging(log),
			UnaryErrors(),
			UnaryAuth(cfg.Auth.JWTSecret, identities),
		),
	)

	// register all services
	for _, r := range registrars {
		r.Register(grpcServer)
	}

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	// enable reflection for easier debugging with grpcurl
	reflection.Register(grpcServer)

	return grpcServer
}

// StartGRPCServer listens on the configured address and serves until the
// server is stopped.
func StartGRPCServer(cfg *config.Config, grpcServer *grpc.Server) error {
	addr := fmt.Sprintf("%s:%s", cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return grpcServer.Serve(lis)
}
