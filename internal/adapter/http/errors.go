package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"p2p-lending/internal/domain/apperr"
	"p2p-lending/internal/domain/investment"
)

func statusFor(k apperr.Kind) int {
	switch k {
	case apperr.KindValidation, apperr.KindCapacity:
		return http.StatusUnprocessableEntity
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindStateConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps a usecase error to its response. Errors outside the
// apperr taxonomy are logged and reported as 500.
func writeError(c echo.Context, err error) error {
	ae, ok := apperr.As(err)
	if !ok {
		slog.ErrorContext(c.Request().Context(), "request failed",
			"method", c.Request().Method, "path", c.Path(), "err", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}

	resp := ErrorResponse{Error: err.Error(), Code: ae.Code}
	var re *investment.RemainingError
	if errors.As(err, &re) {
		r := re.Remaining
		resp.Remaining = &r
	}
	return c.JSON(statusFor(ae.Kind), resp)
}

func badBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
}

func validationFailed(c echo.Context, err error) error {
	return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:   "validation failed",
		Details: ToFieldErrors(err),
	})
}

// bindValid binds the request into v and runs the validator. It writes the
// error response itself and reports whether the handler should continue.
func bindValid(c echo.Context, v any) (bool, error) {
	if err := c.Bind(v); err != nil {
		return false, badBody(c)
	}
	if err := c.Validate(v); err != nil {
		return false, validationFailed(c, err)
	}
	return true, nil
}
