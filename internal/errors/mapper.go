// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Map converts classified and infra errors into gRPC status errors.
// Internal causes are never echoed to the client.
func Map(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request was canceled")
	}

	switch KindOf(err) {
	case KindUnauthorized:
		return status.Error(codes.Unauthenticated, message(err))
	case KindInvalidRequest:
		return status.Error(codes.InvalidArgument, message(err))
	case KindDuplicateSwipe:
		return status.Error(codes.AlreadyExists, message(err))
	case KindNotFound:
		return status.Error(codes.NotFound, message(err))
	case KindQuotaExceeded:
		return status.Error(codes.ResourceExhausted, message(err))
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

// HTTPStatus returns the HTTP status code and client-facing message for err.
func HTTPStatus(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "request timed out"
	case errors.Is(err, context.Canceled):
		// nginx convention for "client closed request"
		return 499, "request was canceled"
	}

	switch KindOf(err) {
	case KindUnauthorized:
		return http.StatusUnauthorized, message(err)
	case KindInvalidRequest:
		return http.StatusBadRequest, message(err)
	case KindDuplicateSwipe:
		return http.StatusConflict, message(err)
	case KindNotFound:
		return http.StatusNotFound, message(err)
	case KindQuotaExceeded:
		return http.StatusTooManyRequests, message(err)
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return "record not found"
}
