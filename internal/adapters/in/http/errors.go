package http

import (
	"errors"
	"net/http"

	"dispatch/internal/pkg/errs"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// statusOf maps an error kind to its HTTP status code.
func statusOf(kind errs.Kind) int {
	switch kind {
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindValidation:
		return http.StatusBadRequest
	case errs.KindInvalidState:
		return http.StatusConflict
	case errs.KindNoVendors:
		return http.StatusUnprocessableEntity
	case errs.KindExpired:
		return http.StatusGone
	case errs.KindLockUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as an Error body. Internal errors are logged and their
// message is not exposed.
func (s *Server) writeError(ctx echo.Context, err error) error {
	kind := errs.KindOf(err)
	code := statusOf(kind)
	message := err.Error()

	if code >= http.StatusInternalServerError && kind != errs.KindLockUnavailable {
		s.logger.Error("request failed",
			zap.String("route", ctx.Path()),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		if kind == errs.KindInternal {
			message = "internal error"
		}
	}

	return ctx.JSON(code, Error{Code: code, Kind: string(kind), Message: message})
}

// HTTPErrorHandler renders echo errors (binding, routing, validation) in the Error shape.
func HTTPErrorHandler(err error, ctx echo.Context) {
	if ctx.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(code)
		}
	}

	kind := errs.KindInternal
	if code < http.StatusInternalServerError {
		kind = errs.KindValidation
	}
	if code == http.StatusNotFound {
		kind = errs.KindNotFound
	}

	_ = ctx.JSON(code, Error{Code: code, Kind: string(kind), Message: message})
}
