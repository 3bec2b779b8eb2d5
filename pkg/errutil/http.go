package errutil

import (
	"context"
	"errors"
)

// FromError normalises any error into a BaseError so handlers can safely
// render it at the transport layer.
func FromError(err error) BaseError {
	if err == nil {
		return BaseError{Code: StatusUnknown}
	}

	var base BaseError
	if errors.As(err, &base) {
		return base
	}

	if errors.Is(err, context.Canceled) {
		return BaseError{Code: StatusTimeout, Message: "request canceled", Err: err}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return BaseError{Code: StatusTimeout, Message: "request timed out", Err: err}
	}

	return BaseError{Code: StatusInternal, Message: "internal error", Err: err}
}
