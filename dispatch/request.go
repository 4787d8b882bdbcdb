package dispatch

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Request describes one outbound call. Body is held as bytes so the same
// Request can be sent again after a credential refresh.
type Request struct {
	Method string
	// Path is joined onto the dispatcher's base URL. Absolute URLs are sent
	// as-is.
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
	// SkipAuth sends the request without an Authorization header even when
	// a credential is stored. Used for the login and refresh endpoints.
	SkipAuth bool
}

// NewJSONRequest builds a Request whose body is v encoded as JSON. A nil v
// produces a request without a body.
func NewJSONRequest(method, path string, v any) (*Request, error) {
	req := &Request{
		Method: method,
		Path:   path,
		Header: make(http.Header),
	}
	req.Header.Set("Accept", "application/json")
	if v == nil {
		return req, nil
	}

	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("[dispatch NewJSONRequest] encode body: %w", err)
	}
	req.Body = body
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (r *Request) method() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return r.Method
}
