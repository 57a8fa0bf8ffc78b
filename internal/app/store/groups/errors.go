package groupstore

import (
	"context"
	"errors"

	"github.com/dalemusser/reelhub/internal/app/system/authutil"
)

var (
	ErrMissingFields      = errors.New("group name and password are required")
	ErrPasswordTooShort   = authutil.ErrPasswordTooShort
	ErrPasswordTooLong    = authutil.ErrPasswordTooLong
	ErrUserNotFound       = errors.New("user not found")
	ErrGroupNotFound      = errors.New("group not found")
	ErrGroupAlreadyExists = errors.New("a group with this name already exists")
	ErrIncorrectPassword  = errors.New("incorrect group password")
	ErrNotMember          = errors.New("not a member of this group")

	// ErrCorruptedGroupRecord means a stored group cannot be verified (for
	// example its password hash is missing). It is a data fault, not a
	// caller mistake.
	ErrCorruptedGroupRecord = errors.New("group record is corrupted")

	// ErrTransientStore wraps store, timeout and cancellation failures. The
	// whole operation may be retried from the top.
	ErrTransientStore = errors.New("group store temporarily unavailable")
)

// Kind classifies errors returned by Store.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindForbidden
	KindIntegrity
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindIntegrity:
		return "integrity"
	case KindTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// KindOf returns the Kind of err. Bare context errors count as transient.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrMissingFields),
		errors.Is(err, ErrPasswordTooShort),
		errors.Is(err, ErrPasswordTooLong):
		return KindValidation
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrGroupNotFound):
		return KindNotFound
	case errors.Is(err, ErrGroupAlreadyExists), errors.Is(err, ErrIncorrectPassword):
		return KindConflict
	case errors.Is(err, ErrNotMember):
		return KindForbidden
	case errors.Is(err, ErrCorruptedGroupRecord):
		return KindIntegrity
	case errors.Is(err, ErrTransientStore),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return KindTransient
	default:
		return KindUnknown
	}
}
