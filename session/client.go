// Package session is the entry point for calling the admin API. A Client
// attaches the stored credential to every request and, when the server
// answers 401, renews the credential once on behalf of every caller that
// hit the same expiry before replaying each request exactly once.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/jrsteele09/go-auth-client/authapi"
	"github.com/jrsteele09/go-auth-client/credentials"
	"github.com/jrsteele09/go-auth-client/dispatch"
	"github.com/jrsteele09/go-auth-client/refresh"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Metrics receives observations from every layer of the Client.
// *metrics.Recorder implements it.
type Metrics interface {
	dispatch.Observer
	refresh.Observer
	ReplayObserved()
}

type Client struct {
	store       *credentials.Store
	dispatcher  *dispatch.Dispatcher
	auth        *authapi.Client
	coordinator *refresh.Coordinator
	logger      zerolog.Logger
	metrics     Metrics

	subMu       sync.RWMutex
	subscribers map[int]func(Event)
	nextSubID   int
}

type options struct {
	httpClient     *http.Client
	logger         zerolog.Logger
	metrics        Metrics
	loginPath      string
	refreshPath    string
	refreshTimeout time.Duration
}

type Option func(*options)

func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithMetrics(m Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

func WithLoginPath(path string) Option {
	return func(o *options) {
		o.loginPath = path
	}
}

func WithRefreshPath(path string) Option {
	return func(o *options) {
		o.refreshPath = path
	}
}

// WithRefreshTimeout bounds each call to the refresh endpoint.
func WithRefreshTimeout(d time.Duration) Option {
	return func(o *options) {
		o.refreshTimeout = d
	}
}

// New builds a Client for the API rooted at baseURL that keeps its
// credential in kv. Each Client owns its own refresh coordinator.
func New(baseURL string, kv credentials.KV, opts ...Option) *Client {
	o := options{logger: log.Logger}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Client{
		store:       credentials.NewStore(kv),
		logger:      o.logger,
		metrics:     o.metrics,
		subscribers: make(map[int]func(Event)),
	}

	dispatchOpts := []dispatch.Option{dispatch.WithHTTPClient(o.httpClient), dispatch.WithLogger(o.logger)}
	refreshOpts := []refresh.Option{
		refresh.WithTimeout(o.refreshTimeout),
		refresh.WithLogger(o.logger),
		refresh.WithSettleHook(c.onRefreshSettled),
	}
	if o.metrics != nil {
		dispatchOpts = append(dispatchOpts, dispatch.WithObserver(o.metrics))
		refreshOpts = append(refreshOpts, refresh.WithObserver(o.metrics))
	}

	c.dispatcher = dispatch.New(baseURL, c.store, dispatchOpts...)
	c.auth = authapi.New(c.dispatcher, authapi.WithLoginPath(o.loginPath), authapi.WithRefreshPath(o.refreshPath))
	c.coordinator = refresh.New(c.store, c.auth, refreshOpts...)
	return c
}

// requestAttempt tracks one call to Perform. retried is never shared
// between calls.
type requestAttempt struct {
	req     *dispatch.Request
	retried bool
}

// Perform sends req with the current credential. A 401 triggers one
// credential refresh, shared with any concurrent caller, and one replay.
// A 401 on the replay, or a failed refresh, returns an error matching
// refresh.ErrSessionInvalidated and leaves the client logged out. An
// unauthenticated 401 while logged out returns the server's error wrapped
// the same way, without a refresh. A Logout or Login while the refresh is
// in flight wins: the refreshed credential is discarded and the waiting
// callers get refresh.ErrSessionChanged. Every other failure is returned
// unchanged.
func (c *Client) Perform(ctx context.Context, req *dispatch.Request) (*dispatch.Response, error) {
	attempt := &requestAttempt{req: req}
	for {
		resp, err := c.dispatcher.Send(ctx, attempt.req)
		var se *dispatch.StatusError
		if err == nil || attempt.req.SkipAuth || !errors.As(err, &se) || se.Kind != dispatch.Unauthorized {
			return resp, err
		}
		if attempt.retried {
			return nil, c.rejectReplay(se, err)
		}
		if se.SentAccessToken() == "" {
			loggedOut, storeErr := c.loggedOut()
			if storeErr != nil {
				return nil, storeErr
			}
			if loggedOut {
				return nil, fmt.Errorf("%w: %w", refresh.ErrSessionInvalidated, err)
			}
		}

		if _, err := c.coordinator.EnsureFreshCredential(ctx, se.SentAccessToken()); err != nil {
			return nil, err
		}
		attempt.retried = true
		if c.metrics != nil {
			c.metrics.ReplayObserved()
		}
		c.logger.Debug().Str("method", se.Method).Str("path", se.Path).Msg("Replaying request with refreshed credential")
	}
}

// rejectReplay handles a 401 on a request that already carried a refreshed
// credential. If the store still holds that credential the server no longer
// accepts this session and it is cleared. If a later refresh has already
// replaced it, the newer credential is kept and the 401 is returned as is.
// If the client was logged out meanwhile, nothing is cleared or emitted.
func (c *Client) rejectReplay(se *dispatch.StatusError, err error) error {
	cleared, clearErr := c.store.ClearIfAccessToken(se.SentAccessToken())
	if clearErr != nil {
		c.logger.Err(clearErr).Msg("Failed to clear credentials after rejected replay")
	}
	if clearErr == nil && !cleared {
		loggedOut, storeErr := c.loggedOut()
		if storeErr != nil {
			return storeErr
		}
		if loggedOut {
			return fmt.Errorf("%w: %w", refresh.ErrSessionInvalidated, err)
		}
		c.logger.Debug().Str("method", se.Method).Str("path", se.Path).Msg("Replay rejected for a superseded credential")
		return err
	}
	invalidated := fmt.Errorf("%w: %w", refresh.ErrSessionInvalidated, err)
	c.emit(EventInvalidated, invalidated)
	return invalidated
}

// loggedOut reports whether there is no refresh token to renew a session
// with, so an unauthenticated 401 cannot be recovered.
func (c *Client) loggedOut() (bool, error) {
	_, ok, err := c.store.RefreshToken()
	if err != nil {
		return false, err
	}
	return !ok, nil
}

func (c *Client) onRefreshSettled(res refresh.Result) {
	switch {
	case res.Err == nil:
		c.emit(EventRefreshed, nil)
	case errors.Is(res.Err, refresh.ErrSessionChanged):
	case errors.Is(res.Err, refresh.ErrSessionInvalidated):
		c.emit(EventInvalidated, res.Err)
	}
}

// Login authenticates against the login endpoint and stores the returned
// credential. It never goes through the refresh coordinator.
func (c *Client) Login(ctx context.Context, login, password string) error {
	cred, err := c.auth.Login(ctx, login, password)
	if err != nil {
		return err
	}
	if err := c.store.Set(cred); err != nil {
		return err
	}
	c.logger.Info().Msg("Logged in")
	c.emit(EventLoggedIn, nil)
	return nil
}

// Logout forgets the stored credential. Calling it while logged out is a
// no-op apart from the event.
func (c *Client) Logout() error {
	if err := c.store.Clear(); err != nil {
		return err
	}
	c.logger.Info().Msg("Logged out")
	c.emit(EventLoggedOut, nil)
	return nil
}

// DoJSON sends in as a JSON body to path and decodes the response into
// out. Either may be nil.
func (c *Client) DoJSON(ctx context.Context, method, path string, in, out any) error {
	req, err := dispatch.NewJSONRequest(method, path, in)
	if err != nil {
		return err
	}
	resp, err := c.Perform(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	return resp.DecodeJSON(out)
}

// RefreshState reports whether a credential refresh is in flight.
func (c *Client) RefreshState() refresh.State {
	return c.coordinator.State()
}
