package session

import (
	"errors"
	"fmt"

	"github.com/randomtoy/live-chess/internal/domain/chess"
	"github.com/randomtoy/live-chess/internal/ports"
	"github.com/randomtoy/live-chess/internal/usecase"
)

var (
	ErrObserverForbidden = errors.New("observer forbidden")
	ErrNotAttached       = errors.New("connection not attached to game")
	ErrMissingMove       = errors.New("missing move")
	ErrUnknownCommand    = errors.New("unknown command type")
	ErrMalformedCommand  = errors.New("malformed command")
)

const (
	reasonUnauthorized   = "unauthorized"
	reasonInvalidGame    = "invalid game ID"
	reasonObserverMove   = "observers cannot make moves"
	reasonObserverResign = "observers cannot resign"
	reasonNotAttached    = "the game ID does not match the current session"
	reasonNotPlayable    = "the game can no longer be played"
	reasonNotYourTurn    = "it is not your turn"
	reasonIllegalMove    = "illegal move"
	reasonMissingMove    = "missing move"
	reasonUnknownCommand = "unknown command type"
	reasonMalformed      = "malformed command"
	reasonConflict       = "the game changed, please retry"
	reasonInternal       = "internal error"
)

// commandError carries the client-facing reason alongside the cause.
type commandError struct {
	reason string
	err    error
}

func reject(reason string, err error) error {
	return &commandError{reason: reason, err: err}
}

func (e *commandError) Error() string { return e.reason + ": " + e.err.Error() }
func (e *commandError) Unwrap() error { return e.err }

// TransportError is a failed send to one connection. It is logged and never
// propagated into a fan-out.
type TransportError struct {
	ConnID string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("send to %s: %v", e.ConnID, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// clientMessage converts any command failure into the text sent back to the
// initiating connection.
func clientMessage(err error) string {
	var ce *commandError
	switch {
	case errors.As(err, &ce):
		return "Error: " + ce.reason
	case errors.Is(err, usecase.ErrUnauthorized):
		return "Error: " + reasonUnauthorized
	case errors.Is(err, ports.ErrNotFound):
		return "Error: " + reasonInvalidGame
	case errors.Is(err, ports.ErrVersionConflict):
		return "Error: " + reasonConflict
	case errors.Is(err, chess.ErrGameOver):
		return "Error: " + reasonNotPlayable
	case errors.Is(err, chess.ErrIllegalMove):
		return "Error: " + reasonIllegalMove
	default:
		return "Error: " + reasonInternal
	}
}
