package client

import (
	"context"
	"errors"
	"net"
)

// ErrorCategory is a stable label for error classification in metrics and logs.
type ErrorCategory string

const (
	ErrorCategoryTimeout  ErrorCategory = "timeout"
	ErrorCategoryCanceled ErrorCategory = "canceled"
	ErrorCategoryNetwork  ErrorCategory = "network"
	ErrorCategoryNotFound ErrorCategory = "not_found"
	ErrorCategoryUpstream ErrorCategory = "upstream"
	ErrorCategoryDecode   ErrorCategory = "decode"
	ErrorCategoryUnknown  ErrorCategory = "unknown"
)

// CategorizeError maps an error to a stable ErrorCategory. nil maps to "".
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorCategoryTimeout
	}
	if errors.Is(err, context.Canceled) {
		return ErrorCategoryCanceled
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrorCategoryTimeout
		}
		return ErrorCategoryNetwork
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return ErrorCategoryNotFound
	case errors.Is(err, ErrDecode):
		return ErrorCategoryDecode
	case errors.Is(err, ErrUpstreamFailure):
		return ErrorCategoryUpstream
	}
	return ErrorCategoryUnknown
}
