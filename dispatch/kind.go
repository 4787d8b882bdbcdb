package dispatch

import "net/http"

// Kind classifies the outcome of a single send.
type Kind int

const (
	Success Kind = iota
	Unauthorized
	ClientError
	ServerError
	Transport
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Unauthorized:
		return "unauthorized"
	case ClientError:
		return "client_error"
	case ServerError:
		return "server_error"
	case Transport:
		return "transport"
	default:
		return "unknown"
	}
}

// Classify maps an HTTP status code onto a Kind. Anything below 400 that
// reached us is a success; redirects are followed by net/http.
func Classify(statusCode int) Kind {
	switch {
	case statusCode == http.StatusUnauthorized:
		return Unauthorized
	case statusCode >= 500:
		return ServerError
	case statusCode >= 400:
		return ClientError
	default:
		return Success
	}
}
