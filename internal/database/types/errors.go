package types

import (
	"context"
	"errors"

	"github.com/biasnet/influence/internal/database/types/enum"
)

// Error is a terminal domain error carrying the outcome code it maps to.
type Error struct {
	Code    enum.OutcomeCode
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(code enum.OutcomeCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

var (
	ErrBiasNotFound    = newError(enum.OutcomeCodeNotFound, "bias not found")
	ErrProfileNotFound = newError(enum.OutcomeCodeNotFound, "user not found")
	ErrGroupNotFound   = newError(enum.OutcomeCodeNotFound, "group not found")
	ErrPostNotFound    = newError(enum.OutcomeCodeNotFound, "post not found")
	ErrCommentNotFound = newError(enum.OutcomeCodeNotFound, "comment not found")

	ErrSelfEndorsement         = newError(enum.OutcomeCodeForbidden, "cannot endorse your own bias")
	ErrEndorsementTypeDisabled = newError(enum.OutcomeCodeForbidden, "endorsement type is not allowed")
	ErrNotCommentAuthor        = newError(enum.OutcomeCodeForbidden, "only the author can delete a comment")

	ErrInvalidEndorsementType = newError(enum.OutcomeCodeInvalid, "unknown endorsement type")
	ErrInvalidPoints          = newError(enum.OutcomeCodeInvalid, "points to award are out of range")
	ErrInvalidVoteType        = newError(enum.OutcomeCodeInvalid, "unknown vote type")
	ErrInvalidTarget          = newError(enum.OutcomeCodeInvalid, "invalid vote target")
	ErrInvalidOwner           = newError(enum.OutcomeCodeInvalid, "invalid post owner")
	ErrEmptyContent           = newError(enum.OutcomeCodeInvalid, "content must not be empty")
	ErrInvalidReply           = newError(enum.OutcomeCodeInvalid, "reply must reference a comment of the same post")
	ErrInvalidCursor          = newError(enum.OutcomeCodeInvalid, "invalid cursor")
	ErrInvalidID              = newError(enum.OutcomeCodeInvalid, "invalid id")
	ErrInvalidRequest         = newError(enum.OutcomeCodeInvalid, "invalid request")

	// ErrConflict is returned by stores for contention that is safe to retry.
	ErrConflict = newError(enum.OutcomeCodeConflict, "transient contention, retry the request")
)

// OutcomeCodeFor classifies err. Unknown errors are internal.
func OutcomeCodeFor(err error) enum.OutcomeCode {
	if err == nil {
		return enum.OutcomeCodeOK
	}

	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return enum.OutcomeCodeCanceled
	}

	return enum.OutcomeCodeInternal
}

// PublicMessage returns the message safe to show to a caller. Internal causes
// are not leaked.
func PublicMessage(err error) string {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}

	switch OutcomeCodeFor(err) {
	case enum.OutcomeCodeCanceled:
		return "request canceled"
	default:
		return "internal error"
	}
}
