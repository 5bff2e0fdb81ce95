package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"mindwell/internal/transport"
)

// fakeBackend serves action-keyed responses the way the real hosts do:
// every request carries ?action=X and the handler registered for X replies.
type fakeBackend struct {
	t *testing.T

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	calls    map[string]int

	server *httptest.Server
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{
		t:        t,
		handlers: make(map[string]http.HandlerFunc),
		calls:    make(map[string]int),
	}
	b.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		action := r.URL.Query().Get("action")
		b.mu.Lock()
		b.calls[action]++
		h := b.handlers[action]
		b.mu.Unlock()
		if h == nil {
			t.Errorf("unexpected action %q", action)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h(w, r)
	}))
	t.Cleanup(b.server.Close)
	return b
}

// handle registers the response for one action
func (b *fakeBackend) handle(action string, h http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[action] = h
}

// respond registers a fixed JSON body for one action
func (b *fakeBackend) respond(action string, body interface{}) {
	b.handle(action, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(body); err != nil {
			b.t.Errorf("encode %s response: %v", action, err)
		}
	})
}

func (b *fakeBackend) callCount(action string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[action]
}

// hosts points every service host at the fake backend
func (b *fakeBackend) hosts() Hosts {
	return Hosts{
		Course:       b.server.URL,
		Chapter:      b.server.URL,
		Quiz:         b.server.URL,
		Reports:      b.server.URL,
		Organization: b.server.URL,
		Session:      b.server.URL,
		Therapist:    b.server.URL,
		Patient:      b.server.URL,
	}
}

// stubSigner satisfies the signed-host requirement without real AWS config
type stubSigner struct{}

func (stubSigner) Sign(ctx context.Context, req *http.Request, payloadHash string) error {
	req.Header.Set("Authorization", "AWS4-HMAC-SHA256 test")
	return nil
}

func testClient() *transport.Client {
	return transport.New(transport.Options{
		Timeout:   5 * time.Second,
		Attempts:  1,
		BaseDelay: time.Millisecond,
		Signer:    stubSigner{},
	})
}

func decodeBody(t *testing.T, r *http.Request, into interface{}) {
	t.Helper()
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		t.Fatalf("decode request body: %v", err)
	}
}
