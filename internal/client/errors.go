package client

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrUnauthorized marks a 401 from any endpoint. The app reacts by
// clearing the session and returning to the login page.
var ErrUnauthorized = errors.New("unauthorized")

// ErrNotEnoughHistory is the ML backend's domain rejection for a predict
// request without sufficient ingested history. It is surfaced to the user
// distinctly from generic failures.
var ErrNotEnoughHistory = errors.New("not enough history for prediction")

// APIError carries a non-2xx response that is neither of the above.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Body)
}
