package errors

import (
	"errors"

	"gorm.io/gorm"
)

// Kind classifies a failure independently of the transport that reports it.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthorized
	KindInvalidRequest
	KindDuplicateSwipe
	KindNotFound
	KindQuotaExceeded
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindInvalidRequest:
		return "invalid_request"
	case KindDuplicateSwipe:
		return "duplicate_swipe"
	case KindNotFound:
		return "not_found"
	case KindQuotaExceeded:
		return "quota_exceeded"
	default:
		return "internal"
	}
}

// Error is a classified, client-safe failure. Msg is shown to callers.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func newError(k Kind, msg string) error { return &Error{Kind: k, Msg: msg} }

// Unauthorized means the caller has no usable identity.
func Unauthorized(msg string) error { return newError(KindUnauthorized, msg) }

// InvalidArgument is for malformed input detected before any mutation.
func InvalidArgument(msg string) error { return newError(KindInvalidRequest, msg) }

// DuplicateSwipe reports a second decision on the same (swiper, swiped) pair.
func DuplicateSwipe(msg string) error { return newError(KindDuplicateSwipe, msg) }

// NotFound also covers "exists but you are not a participant".
func NotFound(msg string) error { return newError(KindNotFound, msg) }

// QuotaExceeded reports a send past the per-match message cap.
func QuotaExceeded(msg string) error { return newError(KindQuotaExceeded, msg) }

// KindOf classifies err. Unclassified errors are internal.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return KindNotFound
	}
	return KindInternal
}

// Is reports whether err is classified as k.
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}
