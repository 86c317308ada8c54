package gateway

import (
	"context"
	"errors"
	"net"
	"net/url"
)

var (
	ErrInvalidRequest    = errors.New("invalid request")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrUpstreamStatus    = errors.New("palette service returned an error status")
	ErrUpstreamResponse  = errors.New("palette service returned an unusable response")
	ErrPaletteSuperseded = errors.New("palette request superseded by a newer upload")
)

type FriendlyError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *FriendlyError) Error() string {
	return e.Message
}

func (e *FriendlyError) Unwrap() error { return e.Cause }

// mapRelayError classifies palette service failures for logging and metrics. The visitor
// only ever sees the generic palette failure message.
func mapRelayError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrPaletteSuperseded) || errors.Is(err, ErrInvalidRequest) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &FriendlyError{Code: "PALETTE_TIMEOUT", Message: "Palette service did not respond in time.", Cause: err}
	}
	if errors.Is(err, ErrUpstreamStatus) {
		return &FriendlyError{Code: "PALETTE_UPSTREAM_STATUS", Message: "Palette service rejected the request.", Cause: err}
	}
	if errors.Is(err, ErrUpstreamResponse) {
		return &FriendlyError{Code: "PALETTE_BAD_RESPONSE", Message: "Palette service returned an unusable palette.", Cause: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &FriendlyError{Code: "PALETTE_TIMEOUT", Message: "Palette service did not respond in time.", Cause: err}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) || netErr != nil {
		return &FriendlyError{Code: "PALETTE_UNREACHABLE", Message: "Unable to reach the palette service.", Cause: err}
	}
	return &FriendlyError{Code: "PALETTE_FAILURE", Message: "Palette generation failed.", Cause: err}
}

// relayOutcome is the metrics label for a mapped relay error.
func relayOutcome(err error) string {
	if err == nil {
		return "ok"
	}
	if errors.Is(err, ErrPaletteSuperseded) {
		return "superseded"
	}
	var friendly *FriendlyError
	if errors.As(err, &friendly) {
		return friendly.Code
	}
	return "error"
}
