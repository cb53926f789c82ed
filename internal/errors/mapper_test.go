package errors_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"

	svcErr "github.com/oggyb/roomate/internal/errors"
)

func TestMapAndHTTPStatus(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		code     codes.Code
		httpCode int
		msg      string
	}{
		{"unauthorized", svcErr.Unauthorized("no identity"), codes.Unauthenticated, http.StatusUnauthorized, "no identity"},
		{"invalid", svcErr.InvalidArgument("bad action"), codes.InvalidArgument, http.StatusBadRequest, "bad action"},
		{"duplicate", svcErr.DuplicateSwipe("already swiped"), codes.AlreadyExists, http.StatusConflict, "already swiped"},
		{"not found", svcErr.NotFound("match not found"), codes.NotFound, http.StatusNotFound, "match not found"},
		{"quota", svcErr.QuotaExceeded("limit"), codes.ResourceExhausted, http.StatusTooManyRequests, "limit"},
		{"gorm not found", fmt.Errorf("load: %w", gorm.ErrRecordNotFound), codes.NotFound, http.StatusNotFound, "record not found"},
		{"internal", errors.New("dial tcp: connection refused"), codes.Internal, http.StatusInternalServerError, "internal error"},
		{"wrapped kind", fmt.Errorf("send: %w", svcErr.QuotaExceeded("limit")), codes.ResourceExhausted, http.StatusTooManyRequests, "limit"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st, ok := status.FromError(svcErr.Map(tc.err))
			assert.True(t, ok)
			assert.Equal(t, tc.code, st.Code())
			assert.Equal(t, tc.msg, st.Message())

			code, msg := svcErr.HTTPStatus(tc.err)
			assert.Equal(t, tc.httpCode, code)
			assert.Equal(t, tc.msg, msg)
		})
	}
}

func TestMap_ContextErrors(t *testing.T) {
	st, _ := status.FromError(svcErr.Map(context.DeadlineExceeded))
	assert.Equal(t, codes.DeadlineExceeded, st.Code())

	st, _ = status.FromError(svcErr.Map(fmt.Errorf("query: %w", context.Canceled)))
	assert.Equal(t, codes.Canceled, st.Code())

	code, _ := svcErr.HTTPStatus(context.DeadlineExceeded)
	assert.Equal(t, http.StatusGatewayTimeout, code)
}

func TestMap_PassesThroughStatus(t *testing.T) {
	in := status.Error(codes.PermissionDenied, "nope")
	assert.Equal(t, in, svcErr.Map(in))
	assert.Nil(t, svcErr.Map(nil))
}

func TestIs(t *testing.T) {
	assert.True(t, svcErr.Is(svcErr.NotFound("x"), svcErr.KindNotFound))
	assert.False(t, svcErr.Is(svcErr.NotFound("x"), svcErr.KindQuotaExceeded))
	assert.False(t, svcErr.Is(nil, svcErr.KindInternal))
	assert.Equal(t, "duplicate_swipe", svcErr.KindDuplicateSwipe.String())
}
