// Package refresh serialises credential renewal.
//
// A Coordinator is either Idle or Refreshing. The first caller to report an
// expired credential moves it to Refreshing and starts exactly one call to
// the refresh endpoint; every caller arriving before that call settles joins
// the same cycle as a Waiter. Settlement publishes one Result to all of
// them at once by closing the cycle's channel, and returns the coordinator
// to Idle inside the same critical section.
package refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-auth-client/config"
	"github.com/jrsteele09/go-auth-client/credentials"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Refresher exchanges a refresh token for a new credential pair.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (credentials.Credential, error)
}

// CredentialStore is the part of credentials.Store the coordinator needs.
// A cycle only writes or clears the credential if the store's epoch is the
// one it started under.
type CredentialStore interface {
	Get() (credentials.Credential, bool, error)
	RefreshToken() (string, bool, error)
	Epoch() uint64
	SetIfEpoch(epoch uint64, c credentials.Credential) (bool, error)
	ClearIfEpoch(epoch uint64) (bool, error)
}

// Observer receives one call per settled cycle.
type Observer interface {
	RefreshObserved(outcome string, waiters int, elapsed time.Duration)
}

type Coordinator struct {
	store     CredentialStore
	refresher Refresher
	timeout   time.Duration
	logger    zerolog.Logger
	observer  Observer
	hooks     []func(Result)

	mu      sync.Mutex
	current *cycle
}

type Option func(*Coordinator)

// WithTimeout bounds the refresh call. When it expires the cycle fails and
// every waiter is released with the timeout error.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

func WithObserver(observer Observer) Option {
	return func(c *Coordinator) {
		c.observer = observer
	}
}

// WithSettleHook registers fn to run once per settled cycle, after every
// waiter has been released.
func WithSettleHook(fn func(Result)) Option {
	return func(c *Coordinator) {
		c.hooks = append(c.hooks, fn)
	}
}

func New(store CredentialStore, refresher Refresher, options ...Option) *Coordinator {
	c := &Coordinator{
		store:     store,
		refresher: refresher,
		timeout:   config.DefaultRefreshTimeout,
		logger:    log.Logger,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// EnsureFreshCredential returns a credential that is newer than
// rejectedAccessToken, the token the server just answered 401 to.
//
// If a cycle is in flight the caller waits for it. If the coordinator is
// Idle and the store already holds a different access token, that token is
// returned without a network call: the 401 was for a request sent before
// the last refresh settled. Otherwise a new cycle starts.
//
// Cancelling ctx releases only this caller; the cycle itself runs to
// completion for everyone else.
func (c *Coordinator) EnsureFreshCredential(ctx context.Context, rejectedAccessToken string) (credentials.Credential, error) {
	w, current, err := c.join(ctx, rejectedAccessToken)
	if err != nil {
		return credentials.Credential{}, err
	}
	if w == nil {
		return current, nil
	}

	select {
	case <-w.cycle.done:
		return w.cycle.result.Credential, w.cycle.result.Err
	case <-ctx.Done():
		c.abandon(w)
		return credentials.Credential{}, ctx.Err()
	}
}

// State returns a snapshot of the coordinator.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return State{Phase: Idle}
	}
	return State{
		Phase:   Refreshing,
		CycleID: c.current.id,
		Waiters: len(c.current.waiters),
	}
}

func (c *Coordinator) join(ctx context.Context, rejectedAccessToken string) (*Waiter, credentials.Credential, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		cred, ok, err := c.store.Get()
		if err != nil {
			return nil, credentials.Credential{}, err
		}
		if ok && cred.AccessToken != rejectedAccessToken {
			return nil, cred, nil
		}

		cy := &cycle{
			id:      uuid.NewString(),
			epoch:   c.store.Epoch(),
			started: time.Now(),
			done:    make(chan struct{}),
		}
		c.current = cy
		go c.run(context.WithoutCancel(ctx), cy)
	}

	w := &Waiter{
		ID:       uuid.NewString(),
		Enqueued: time.Now(),
		cycle:    c.current,
	}
	c.current.waiters = append(c.current.waiters, w)
	return w, credentials.Credential{}, nil
}

func (c *Coordinator) abandon(w *Waiter) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == w.cycle {
		w.cycle.remove(w)
	}
	c.logger.Debug().Str("cycle_id", w.cycle.id).Str("waiter_id", w.ID).Msg("Waiter abandoned refresh")
}

// run owns the cycle: whatever happens inside refresh, including a panic,
// the deferred settle releases every waiter and restores Idle.
func (c *Coordinator) run(ctx context.Context, cy *cycle) {
	var res Result
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().Str("cycle_id", cy.id).Interface("panic", r).Msg("Refresh panicked")
			res = c.invalidate(cy, fmt.Errorf("%w: %v", ErrRefreshPanicked, r))
		}
		c.settle(cy, res)
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	res = c.refresh(ctx, cy)
}

func (c *Coordinator) refresh(ctx context.Context, cy *cycle) Result {
	refreshToken, ok, err := c.store.RefreshToken()
	if err != nil {
		return Result{Err: err}
	}
	if !ok {
		return c.invalidate(cy, ErrNoRefreshToken)
	}

	cred, err := c.refresher.Refresh(ctx, refreshToken)
	if err != nil {
		return c.invalidate(cy, err)
	}
	written, err := c.store.SetIfEpoch(cy.epoch, cred)
	if err != nil {
		return Result{Err: err}
	}
	if !written {
		c.logger.Info().Str("cycle_id", cy.id).Msg("Session changed during refresh, discarding refreshed credential")
		return Result{Err: &InvalidatedError{Cause: ErrSessionChanged}}
	}
	return Result{Credential: cred}
}

// invalidate clears the credential the cycle was started for. If a login or
// logout replaced it in the meantime the store is left alone and the cause
// is marked with ErrSessionChanged.
func (c *Coordinator) invalidate(cy *cycle, cause error) Result {
	cleared, err := c.store.ClearIfEpoch(cy.epoch)
	if err != nil {
		c.logger.Err(err).Str("cycle_id", cy.id).Msg("Failed to clear credentials after refresh failure")
	}
	if err == nil && !cleared {
		cause = fmt.Errorf("%w: %w", ErrSessionChanged, cause)
	}
	return Result{Err: &InvalidatedError{Cause: cause}}
}

func (c *Coordinator) settle(cy *cycle, res Result) {
	c.mu.Lock()
	cy.result = res
	waiters := len(cy.waiters)
	cy.waiters = nil
	c.current = nil
	close(cy.done)
	c.mu.Unlock()

	elapsed := time.Since(cy.started)
	outcome := "success"
	if res.Err != nil {
		outcome = "failure"
		c.logger.Warn().Err(res.Err).
			Str("cycle_id", cy.id).
			Int("waiters", waiters).
			Dur("elapsed", elapsed).
			Msg("Credential refresh failed")
	} else {
		c.logger.Info().
			Str("cycle_id", cy.id).
			Int("waiters", waiters).
			Dur("elapsed", elapsed).
			Msg("Credential refreshed")
	}

	if c.observer != nil {
		c.observer.RefreshObserved(outcome, waiters, elapsed)
	}
	for _, hook := range c.hooks {
		hook(res)
	}
}
