// AngelaMos | 2026
// errors.go

package commerce

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrAccountNotLinked marks a Discord user with no commerce account.
var ErrAccountNotLinked = errors.New("discord account not linked")

// ErrResponseTooLarge is wrapped in an APIError when a body exceeds the
// client's read limit. A partial body is never decoded.
var ErrResponseTooLarge = errors.New("response body too large")

// APIError is returned for every failed commerce call. Status is zero when
// the request never produced a response, in which case Err holds the
// transport error.
type APIError struct {
	Path   string
	Status int
	Body   string
	Err    error
}

func (e *APIError) Error() string {
	if e.Status == 0 || e.Err != nil {
		return fmt.Sprintf("commerce GET %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("commerce GET %s: %d %s", e.Path, e.Status, e.Body)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func (e *APIError) NotFound() bool {
	return e.Status == http.StatusNotFound
}
