package match

import (
	"google.golang.org/grpc"
)

// Registrar ties the Match service into the gRPC server
type Registrar struct {
	svc *Service
}

// NewRegistrar creates a new Registrar for the Match service
func NewRegistrar(svc *Service) *Registrar {
	return &Registrar{svc: svc}
}

// Register attaches the Match service implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	s.RegisterService(&MatchServiceDesc, NewGRPCHandler(r.svc))
}
