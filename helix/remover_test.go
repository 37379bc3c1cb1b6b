package helix

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCreds struct {
	mu    sync.Mutex
	token string
}

func (c *stubCreds) AccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *stubCreds) setToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *stubCreds) AppID() string         { return "app" }
func (c *stubCreds) BotID() string         { return "bot" }
func (c *stubCreds) BroadcasterID() string { return "caster" }

type stubRefresher struct {
	calls atomic.Int32
	creds *stubCreds
}

func (r *stubRefresher) Refresh(context.Context) error {
	n := r.calls.Add(1)
	if r.creds != nil {
		r.creds.setToken("fresh-" + string(rune('0'+n)))
	}
	return nil
}

type scriptedServer struct {
	*httptest.Server
	requests atomic.Int32
	mu       sync.Mutex
	tokens   []string
}

// newScriptedServer отвечает статусами из statuses по порядку, последний повторяется.
func newScriptedServer(t *testing.T, statuses ...int) *scriptedServer {
	t.Helper()
	s := &scriptedServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(s.requests.Add(1))
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/moderation/chat", r.URL.Path)
		assert.Equal(t, "caster", r.URL.Query().Get("broadcaster_id"))
		assert.Equal(t, "bot", r.URL.Query().Get("moderator_id"))
		assert.Equal(t, "msg-1", r.URL.Query().Get("message_id"))
		assert.Equal(t, "app", r.Header.Get("Client-Id"))

		s.mu.Lock()
		s.tokens = append(s.tokens, r.Header.Get("Authorization"))
		s.mu.Unlock()

		idx := n - 1
		if idx >= len(statuses) {
			idx = len(statuses) - 1
		}
		w.WriteHeader(statuses[idx])
	}))
	t.Cleanup(s.Close)
	return s
}

func newTestRemover(srv *scriptedServer, creds *stubCreds, refresher Refresher) *Remover {
	return NewRemover(creds, refresher, srv.URL, nil, WithRetryWait(0, 0))
}

func TestRemoveSucceedsOnNoContent(t *testing.T) {
	srv := newScriptedServer(t, http.StatusNoContent)
	creds := &stubCreds{token: "a0"}
	refresher := &stubRefresher{}

	result := newTestRemover(srv, creds, refresher).remove(context.Background(), "msg-1")

	assert.Equal(t, OutcomeRemoved, result.Outcome)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, int32(1), srv.requests.Load())
	assert.Equal(t, int32(0), refresher.calls.Load())
	assert.Equal(t, []string{"Bearer a0"}, srv.tokens)
}

func TestRemoveRefreshesOnUnauthorized(t *testing.T) {
	for n := 1; n < 3; n++ {
		statuses := make([]int, 0, n+1)
		for i := 0; i < n; i++ {
			statuses = append(statuses, http.StatusUnauthorized)
		}
		statuses = append(statuses, http.StatusNoContent)

		srv := newScriptedServer(t, statuses...)
		creds := &stubCreds{token: "stale"}
		refresher := &stubRefresher{creds: creds}

		ok := newTestRemover(srv, creds, refresher).Remove(context.Background(), "msg-1")

		require.True(t, ok, "n=%d", n)
		assert.Equal(t, int32(n), refresher.calls.Load(), "n=%d", n)
		assert.Equal(t, int32(n+1), srv.requests.Load(), "n=%d", n)
		assert.Equal(t, "Bearer stale", srv.tokens[0])
		assert.Equal(t, "Bearer fresh-1", srv.tokens[1])
	}
}

func TestRemoveStopsOnBadRequest(t *testing.T) {
	srv := newScriptedServer(t, http.StatusBadRequest)
	refresher := &stubRefresher{}

	result := newTestRemover(srv, &stubCreds{token: "a0"}, refresher).remove(context.Background(), "msg-1")

	assert.Equal(t, OutcomeRejected, result.Outcome)
	assert.Equal(t, http.StatusBadRequest, result.StatusCode)
	assert.Equal(t, int32(1), srv.requests.Load())
	assert.Equal(t, int32(0), refresher.calls.Load())
}

func TestRemoveGivesUpAfterFourAttempts(t *testing.T) {
	srv := newScriptedServer(t, http.StatusInternalServerError)

	result := newTestRemover(srv, &stubCreds{token: "a0"}, &stubRefresher{}).remove(context.Background(), "msg-1")

	assert.Equal(t, OutcomeExhausted, result.Outcome)
	assert.Equal(t, MaxRetries+1, result.Attempts)
	assert.Equal(t, int32(MaxRetries+1), srv.requests.Load())
	assert.Equal(t, http.StatusInternalServerError, result.StatusCode)
}

func TestRemoveUnauthorizedEveryTime(t *testing.T) {
	srv := newScriptedServer(t, http.StatusUnauthorized)
	creds := &stubCreds{token: "stale"}
	refresher := &stubRefresher{}

	result := newTestRemover(srv, creds, refresher).remove(context.Background(), "msg-1")

	assert.Equal(t, OutcomeExhausted, result.Outcome)
	assert.Equal(t, int32(MaxRetries+1), srv.requests.Load())
	assert.Equal(t, int32(MaxRetries+1), refresher.calls.Load())
	assert.Equal(t, MaxRetries+1, result.Refreshes)
}

func TestRemoveDoesNotRetryTransportErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	refresher := &stubRefresher{}
	r := NewRemover(&stubCreds{token: "a0"}, refresher, url, nil, WithRetryWait(0, 0))

	result := r.remove(context.Background(), "msg-1")

	assert.Equal(t, OutcomeTransport, result.Outcome)
	assert.Equal(t, 1, result.Attempts)
	assert.Error(t, result.Err)
	assert.False(t, r.Remove(context.Background(), "msg-1"))
}
