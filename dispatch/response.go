package dispatch

import (
	"encoding/json"
	"fmt"
	"net/http"
)

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	RequestID  string
}

// DecodeJSON unmarshals the response body into v. An empty body leaves v
// untouched.
func (r *Response) DecodeJSON(v any) error {
	if len(r.Body) == 0 || v == nil {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("[dispatch Response] decode body: %w", err)
	}
	return nil
}
