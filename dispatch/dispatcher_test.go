package dispatch_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/jrsteele09/go-auth-client/credentials"
	"github.com/jrsteele09/go-auth-client/credentials/kvfake"
	"github.com/jrsteele09/go-auth-client/dispatch"
	"github.com/stretchr/testify/require"
)

type testFixture struct {
	server     *httptest.Server
	kv         *kvfake.FakeKV
	store      *credentials.Store
	dispatcher *dispatch.Dispatcher
	observed   *kindCounter

	mu      sync.Mutex
	headers []http.Header
	urls    []string
}

type kindCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

func (k *kindCounter) DispatchObserved(kind string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.counts[kind]++
}

func (k *kindCounter) get(kind string) int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.counts[kind]
}

func setupTestFixture(t *testing.T, handler http.HandlerFunc) *testFixture {
	t.Helper()

	f := &testFixture{
		kv:       kvfake.NewFakeKV(),
		observed: &kindCounter{counts: make(map[string]int)},
	}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.headers = append(f.headers, r.Header.Clone())
		f.urls = append(f.urls, r.URL.String())
		f.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(f.server.Close)

	f.store = credentials.NewStore(f.kv)
	f.dispatcher = dispatch.New(f.server.URL+"/api/", f.store,
		dispatch.WithHTTPClient(f.server.Client()),
		dispatch.WithObserver(f.observed),
	)
	return f
}

func (f *testFixture) lastHeader() http.Header {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.headers[len(f.headers)-1]
}

func TestDispatcher_AttachesBearerFromStore(t *testing.T) {
	f := setupTestFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	})
	require.NoError(t, f.store.Set(credentials.Credential{AccessToken: "a1", RefreshToken: "r1"}))

	resp, err := f.dispatcher.Send(context.Background(), &dispatch.Request{Method: http.MethodGet, Path: "tours"})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Bearer a1", f.lastHeader().Get("Authorization"))
	require.NotEmpty(t, f.lastHeader().Get(dispatch.RequestIDHeader))
	require.Equal(t, resp.RequestID, f.lastHeader().Get(dispatch.RequestIDHeader))
	require.Equal(t, "/api/tours", f.urls[0])

	var body struct{ OK bool }
	require.NoError(t, resp.DecodeJSON(&body))
	require.True(t, body.OK)
	require.Equal(t, 1, f.observed.get("success"))
}

func TestDispatcher_ReadsCredentialOnEverySend(t *testing.T) {
	f := setupTestFixture(t, func(w http.ResponseWriter, r *http.Request) {})
	req := &dispatch.Request{Path: "/ping"}

	_, err := f.dispatcher.Send(context.Background(), req)
	require.NoError(t, err)
	require.Empty(t, f.lastHeader().Get("Authorization"))

	require.NoError(t, f.store.Set(credentials.Credential{AccessToken: "a2", RefreshToken: "r2"}))
	_, err = f.dispatcher.Send(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "Bearer a2", f.lastHeader().Get("Authorization"))
	require.Nil(t, req.Header, "the caller's request must not be mutated")
}

func TestDispatcher_SkipAuth(t *testing.T) {
	f := setupTestFixture(t, func(w http.ResponseWriter, r *http.Request) {})
	require.NoError(t, f.store.Set(credentials.Credential{AccessToken: "a1"}))

	_, err := f.dispatcher.Send(context.Background(), &dispatch.Request{Method: http.MethodPost, Path: "/auth/refresh", SkipAuth: true})
	require.NoError(t, err)
	require.Empty(t, f.lastHeader().Get("Authorization"))
}

func TestDispatcher_Classification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		kind   dispatch.Kind
	}{
		{"unauthorized", http.StatusUnauthorized, dispatch.Unauthorized},
		{"forbidden", http.StatusForbidden, dispatch.ClientError},
		{"not found", http.StatusNotFound, dispatch.ClientError},
		{"server error", http.StatusInternalServerError, dispatch.ServerError},
		{"bad gateway", http.StatusBadGateway, dispatch.ServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTestFixture(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			require.NoError(t, f.store.Set(credentials.Credential{AccessToken: "a1"}))

			_, err := f.dispatcher.Send(context.Background(), &dispatch.Request{Path: "/x"})
			require.Error(t, err)
			require.Equal(t, tt.kind, dispatch.KindOf(err))
			require.Equal(t, tt.kind == dispatch.Unauthorized, dispatch.IsUnauthorized(err))

			var se *dispatch.StatusError
			require.True(t, errors.As(err, &se))
			require.Equal(t, tt.status, se.StatusCode)
			require.Equal(t, "a1", se.SentAccessToken())
		})
	}
}

func TestDispatcher_ParsesErrorBody(t *testing.T) {
	t.Run("single message", func(t *testing.T) {
		f := setupTestFixture(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"message":"tour not found"}`))
		})
		_, err := f.dispatcher.Send(context.Background(), &dispatch.Request{Path: "/x"})

		var se *dispatch.StatusError
		require.True(t, errors.As(err, &se))
		require.Equal(t, []string{"tour not found"}, se.Messages)
		require.Contains(t, se.Error(), "tour not found")
	})

	t.Run("message list and field errors", func(t *testing.T) {
		f := setupTestFixture(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"message":["price must be positive","seats required"],"errors":{"price":["must be positive"]}}`))
		})
		_, err := f.dispatcher.Send(context.Background(), &dispatch.Request{Path: "/x"})

		var se *dispatch.StatusError
		require.True(t, errors.As(err, &se))
		require.Equal(t, []string{"price must be positive", "seats required"}, se.Messages)
		require.Equal(t, []string{"must be positive"}, se.FieldErrors["price"])
	})

	t.Run("non json body", func(t *testing.T) {
		f := setupTestFixture(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(`<html>bad gateway</html>`))
		})
		_, err := f.dispatcher.Send(context.Background(), &dispatch.Request{Path: "/x"})

		var se *dispatch.StatusError
		require.True(t, errors.As(err, &se))
		require.Empty(t, se.Messages)
		require.Equal(t, []byte(`<html>bad gateway</html>`), se.Body)
	})
}

func TestDispatcher_TransportError(t *testing.T) {
	f := setupTestFixture(t, func(w http.ResponseWriter, r *http.Request) {})
	f.server.Close()

	_, err := f.dispatcher.Send(context.Background(), &dispatch.Request{Path: "/x"})
	require.Error(t, err)
	require.Equal(t, dispatch.Transport, dispatch.KindOf(err))

	var te *dispatch.TransportError
	require.True(t, errors.As(err, &te))
	require.Equal(t, 1, f.observed.get("transport"))
}

func TestDispatcher_CancelledContextIsTransport(t *testing.T) {
	f := setupTestFixture(t, func(w http.ResponseWriter, r *http.Request) {})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.dispatcher.Send(ctx, &dispatch.Request{Path: "/x"})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, dispatch.Transport, dispatch.KindOf(err))
}

func TestDispatcher_StorageFailureIsFatal(t *testing.T) {
	f := setupTestFixture(t, func(w http.ResponseWriter, r *http.Request) {})
	f.kv.FailWith(errors.New("corrupt"))

	_, err := f.dispatcher.Send(context.Background(), &dispatch.Request{Path: "/x"})
	require.ErrorIs(t, err, credentials.ErrStorage)
	f.mu.Lock()
	defer f.mu.Unlock()
	require.Empty(t, f.headers, "no request may be sent when the store is unreadable")
}

func TestDispatcher_JSONRequestAndQuery(t *testing.T) {
	var gotBody string
	f := setupTestFixture(t, func(w http.ResponseWriter, r *http.Request) {
		buf, _ := io.ReadAll(r.Body)
		gotBody = string(buf)
	})

	req, err := dispatch.NewJSONRequest(http.MethodPost, "/admin/tour/create", map[string]int{"seats": 4})
	require.NoError(t, err)
	req.Query = url.Values{"lang": []string{"en"}}

	_, err = f.dispatcher.Send(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, `{"seats":4}`, gotBody)
	require.Equal(t, "application/json", f.lastHeader().Get("Content-Type"))
	require.Equal(t, "/api/admin/tour/create?lang=en", f.urls[0])
}

func TestDispatcher_OversizedBodyIsAnError(t *testing.T) {
	f := setupTestFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.URL.Query().Get("body")))
	})
	d := dispatch.New(f.server.URL, f.store,
		dispatch.WithHTTPClient(f.server.Client()),
		dispatch.WithObserver(f.observed),
		dispatch.WithMaxBodyBytes(8),
	)

	resp, err := d.Send(context.Background(), &dispatch.Request{Path: "/x", Query: url.Values{"body": []string{"12345678"}}})
	require.NoError(t, err)
	require.Equal(t, []byte("12345678"), resp.Body)

	_, err = d.Send(context.Background(), &dispatch.Request{Path: "/x", Query: url.Values{"body": []string{"123456789"}}})
	require.ErrorIs(t, err, dispatch.ErrBodyTooLarge)
	require.Equal(t, dispatch.Transport, dispatch.KindOf(err))
	require.Equal(t, 1, f.observed.get("transport"))
}
