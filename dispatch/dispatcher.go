package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-auth-client/credentials"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	RequestIDHeader = "X-Request-ID"

	DefaultMaxBodyBytes = 32 << 20
)

// CredentialSource yields the credential to attach to the next request.
type CredentialSource interface {
	Get() (credentials.Credential, bool, error)
}

// Observer receives the class of every completed send.
type Observer interface {
	DispatchObserved(kind string)
}

// Dispatcher sends single requests. It holds no credential state of its
// own: the Authorization header is rebuilt from the CredentialSource on
// every call, so a credential update never leaks into a request that was
// already built.
type Dispatcher struct {
	baseURL  string
	creds    CredentialSource
	client   *http.Client
	logger   zerolog.Logger
	observer Observer
	maxBody  int64
}

type Option func(*Dispatcher)

func WithHTTPClient(client *http.Client) Option {
	return func(d *Dispatcher) {
		if client != nil {
			d.client = client
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

func WithObserver(observer Observer) Option {
	return func(d *Dispatcher) {
		d.observer = observer
	}
}

// WithMaxBodyBytes caps the size of a response body. A larger body fails
// the send with ErrBodyTooLarge.
func WithMaxBodyBytes(n int64) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxBody = n
		}
	}
}

func New(baseURL string, creds CredentialSource, options ...Option) *Dispatcher {
	d := &Dispatcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		creds:   creds,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  log.Logger,
		maxBody: DefaultMaxBodyBytes,
	}
	for _, opt := range options {
		opt(d)
	}
	return d
}

// Send performs req once. Non-2xx responses come back as *StatusError and
// failures to get any response as *TransportError. A failure to read the
// credential store is returned as is and wraps credentials.ErrStorage.
func (d *Dispatcher) Send(ctx context.Context, req *Request) (*Response, error) {
	requestID := uuid.NewString()
	method := req.method()

	httpReq, err := http.NewRequestWithContext(ctx, method, d.resolve(req), bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("[Dispatcher Send] build request %s %s: %w", method, req.Path, err)
	}
	httpReq.Header = req.Header.Clone()
	if httpReq.Header == nil {
		httpReq.Header = make(http.Header)
	}
	httpReq.Header.Set(RequestIDHeader, requestID)
	if len(req.Body) > 0 && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	var sentAccessToken string
	if !req.SkipAuth {
		cred, ok, err := d.creds.Get()
		if err != nil {
			return nil, err
		}
		if ok {
			cred.OAuth2Token().SetAuthHeader(httpReq)
			sentAccessToken = cred.AccessToken
		}
	}

	logger := d.logger.With().
		Str("request_id", requestID).
		Str("method", method).
		Str("path", req.Path).
		Bool("authenticated", sentAccessToken != "").
		Logger()

	started := time.Now()
	httpResp, err := d.client.Do(httpReq)
	if err != nil {
		d.observe(Transport)
		logger.Debug().Err(err).Dur("elapsed", time.Since(started)).Msg("Request failed without a response")
		return nil, &TransportError{Method: method, Path: req.Path, RequestID: requestID, Err: err}
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, d.maxBody+1))
	if err == nil && int64(len(body)) > d.maxBody {
		err = fmt.Errorf("%w: limit is %d bytes", ErrBodyTooLarge, d.maxBody)
	}
	if err != nil {
		d.observe(Transport)
		logger.Debug().Err(err).Int("status", httpResp.StatusCode).Msg("Failed to read response body")
		return nil, &TransportError{Method: method, Path: req.Path, RequestID: requestID, Err: err}
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
		RequestID:  requestID,
	}
	kind := Classify(resp.StatusCode)
	d.observe(kind)
	logger.Debug().
		Int("status", resp.StatusCode).
		Str("outcome", kind.String()).
		Dur("elapsed", time.Since(started)).
		Msg("Request completed")

	if kind != Success {
		return nil, newStatusError(req, resp, sentAccessToken)
	}
	return resp, nil
}

func (d *Dispatcher) resolve(req *Request) string {
	target := req.Path
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		if !strings.HasPrefix(target, "/") {
			target = "/" + target
		}
		target = d.baseURL + target
	}
	if len(req.Query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + req.Query.Encode()
	}
	return target
}

func (d *Dispatcher) observe(kind Kind) {
	if d.observer != nil {
		d.observer.DispatchObserved(kind.String())
	}
}
