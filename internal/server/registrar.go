package server

import "google.golang.org/grpc"

// Registrar attaches one service implementation to a gRPC server.
// NewGRPCServer calls Register on each registrar before serving.
type Registrar interface {
	Register(s *grpc.Server)
}
