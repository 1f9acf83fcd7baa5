// AngelaMos | 2026
// errors.go

package discord

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// PlatformError wraps a failed Discord REST call. Status and Code are zero
// when Discord never answered.
type PlatformError struct {
	Op     string
	Status int
	Code   int
	Err    error
}

func (e *PlatformError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("discord %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("discord %s: status %d code %d: %v", e.Op, e.Status, e.Code, e.Err)
}

func (e *PlatformError) Unwrap() error {
	return e.Err
}

func platformError(op string, err error) error {
	if err == nil {
		return nil
	}

	pe := &PlatformError{Op: op, Err: err}

	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) {
		if restErr.Response != nil {
			pe.Status = restErr.Response.StatusCode
		}
		if restErr.Message != nil {
			pe.Code = restErr.Message.Code
		}
	}

	return pe
}
