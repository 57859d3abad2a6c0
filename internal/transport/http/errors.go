package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/randomtoy/live-chess/internal/ports"
	"github.com/randomtoy/live-chess/internal/usecase"
)

const errBase = "https://errors.live-chess.local"

// ctxKeyError carries an unexpected handler error to the request logger.
const ctxKeyError = "handler_error"

// Problem is the JSON body of every error response.
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

func problem(c echo.Context, status int, slug, detail string) error {
	return c.JSON(status, Problem{
		Type:   errBase + "/" + slug,
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}

// writeErr maps a domain/usecase error to the correct HTTP response.
func writeErr(c echo.Context, err error) error {
	var he *echo.HTTPError
	switch {
	case errors.Is(err, usecase.ErrBadRequest), errors.As(err, &he):
		return problem(c, http.StatusBadRequest, "bad-request", "Error: bad request")
	case errors.Is(err, usecase.ErrUnauthorized):
		return problem(c, http.StatusUnauthorized, "unauthorized", "Error: unauthorized")
	case errors.Is(err, ports.ErrAlreadyTaken):
		return problem(c, http.StatusForbidden, "already-taken", "Error: already taken")
	case errors.Is(err, ports.ErrNotFound):
		return problem(c, http.StatusNotFound, "not-found", "Error: not found")
	case errors.Is(err, ports.ErrVersionConflict):
		return problem(c, http.StatusConflict, "conflict", "Error: game state changed, retry")
	case errors.Is(err, usecase.ErrRateLimited):
		c.Response().Header().Set("Retry-After", "2")
		return problem(c, http.StatusTooManyRequests, "rate-limited", "Error: rate limit exceeded")
	default:
		c.Set(ctxKeyError, err)
		return problem(c, http.StatusInternalServerError, "internal", "Error: internal error")
	}
}
