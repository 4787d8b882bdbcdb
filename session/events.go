package session

import (
	"time"

	"github.com/jrsteele09/go-auth-client/credentials"
)

type EventType int

const (
	EventLoggedIn EventType = iota
	EventRefreshed
	EventLoggedOut
	EventInvalidated
)

func (t EventType) String() string {
	switch t {
	case EventLoggedIn:
		return "logged_in"
	case EventRefreshed:
		return "refreshed"
	case EventLoggedOut:
		return "logged_out"
	case EventInvalidated:
		return "invalidated"
	}
	return "unknown"
}

// Event describes a change of the authentication state. Err is set for
// EventInvalidated.
type Event struct {
	Type EventType
	Err  error
	At   time.Time
}

// Subscribe registers fn for every subsequent Event and returns a function
// that removes it. Handlers run synchronously on the goroutine that caused
// the event and must not block.
func (c *Client) Subscribe(fn func(Event)) (unsubscribe func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn

	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		delete(c.subscribers, id)
	}
}

func (c *Client) emit(t EventType, err error) {
	ev := Event{Type: t, Err: err, At: credentials.NowTimeFunc()}

	c.subMu.RLock()
	handlers := make([]func(Event), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		handlers = append(handlers, fn)
	}
	c.subMu.RUnlock()

	c.logger.Debug().Str("event", t.String()).Msg("Session event")
	for _, fn := range handlers {
		fn(ev)
	}
}
