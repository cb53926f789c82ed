package server

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/oggyb/roomate/internal/auth"
	svcErr "github.com/oggyb/roomate/internal/errors"
	"github.com/oggyb/roomate/internal/logger"
)

// IdentityRegistrar records an authenticated caller.
type IdentityRegistrar interface {
	RegisterIdentity(ctx context.Context, id auth.Identity) error
}

// publicPrefixes are gRPC services reachable without a token.
var publicPrefixes = []string{
	"/grpc.health.v1.",
	"/grpc.reflection.",
}

func isPublic(fullMethod string) bool {
	for _, p := range publicPrefixes {
		if strings.HasPrefix(fullMethod, p) {
			return true
		}
	}
	return false
}

// UnaryAuth verifies the bearer token in the "authorization" metadata and
// puts the caller identity into the context. registrar may be nil.
func UnaryAuth(secret string, registrar IdentityRegistrar) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if isPublic(info.FullMethod) {
			return handler(ctx, req)
		}

		var header string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get("authorization"); len(vals) > 0 {
				header = vals[0]
			}
		}
		token, err := auth.BearerToken(header)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}
		id, err := auth.ParseToken(token, secret)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
		}

		if registrar != nil {
			if err := registrar.RegisterIdentity(ctx, id); err != nil {
				logger.FromContext(ctx, nil).Warn("identity registration failed", "user", id.UserID, "err", err)
			}
		}
		return handler(auth.WithIdentity(ctx, id), req)
	}
}

// UnaryLogging logs every call with its status code and latency, and
// stores a method-scoped logger in the context.
func UnaryLogging(base *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		l := base.With("method", info.FullMethod)

		resp, err := handler(logger.WithContext(ctx, l), req)

		code := status.Code(err)
		args := []any{"code", code.String(), "duration", time.Since(start)}
		switch code {
		case codes.OK:
			l.Info("grpc call", args...)
		case codes.Internal, codes.Unknown:
			l.Error("grpc call", append(args, "err", err)...)
		default:
			l.Warn("grpc call", append(args, "err", err)...)
		}
		return resp, err
	}
}

// UnaryErrors converts any error a handler left unmapped into a status.
func UnaryErrors() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		return resp, svcErr.Map(err)
	}
}
