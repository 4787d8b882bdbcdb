package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrBodyTooLarge is wrapped in a *TransportError when a response body
// exceeds the dispatcher's limit.
var ErrBodyTooLarge = errors.New("response body too large")

// StatusError is returned for every response outside the 2xx/3xx range.
// Messages and FieldErrors are filled from the conventional API error body
// {"message": "..." | ["..."], "errors": {"field": ["..."]}} when present.
type StatusError struct {
	Kind        Kind
	Method      string
	Path        string
	StatusCode  int
	RequestID   string
	Messages    []string
	FieldErrors map[string][]string
	Body        []byte

	sentAccessToken string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	if len(e.Messages) > 0 {
		msg += ": " + strings.Join(e.Messages, "; ")
	}
	return msg
}

// SentAccessToken returns the access token the rejected request carried,
// or "" when it went out unauthenticated.
func (e *StatusError) SentAccessToken() string {
	return e.sentAccessToken
}

// TransportError means no response was received: timeouts, connectivity
// failures and cancelled contexts all land here.
type TransportError struct {
	Method    string
	Path      string
	RequestID string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: transport: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// KindOf reports the outcome class carried by err. A nil error is Success;
// errors that did not come from a Dispatcher are reported as Transport.
func KindOf(err error) Kind {
	if err == nil {
		return Success
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Kind
	}
	return Transport
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Kind == Unauthorized
}

type errorBody struct {
	Message json.RawMessage     `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

func newStatusError(req *Request, resp *Response, sentAccessToken string) *StatusError {
	se := &StatusError{
		Kind:            Classify(resp.StatusCode),
		Method:          req.method(),
		Path:            req.Path,
		StatusCode:      resp.StatusCode,
		RequestID:       resp.RequestID,
		Body:            resp.Body,
		sentAccessToken: sentAccessToken,
	}

	var body errorBody
	if len(resp.Body) == 0 || json.Unmarshal(resp.Body, &body) != nil {
		return se
	}
	se.FieldErrors = body.Errors

	var single string
	var many []string
	switch {
	case len(body.Message) == 0:
	case json.Unmarshal(body.Message, &single) == nil && single != "":
		se.Messages = []string{single}
	case json.Unmarshal(body.Message, &many) == nil:
		se.Messages = many
	}
	return se
}
