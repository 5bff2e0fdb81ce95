package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"mindwell/internal/credentials"
)

func testClient() *Client {
	return New(Options{
		Timeout:   2 * time.Second,
		Attempts:  3,
		BaseDelay: time.Millisecond,
	})
}

func TestDoSuccess(t *testing.T) {
	var gotAuth, gotAction string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAction = r.URL.Query().Get("action")
		w.Write([]byte(`{"id":"c1","title":"Wellbeing"}`))
	}))
	defer server.Close()

	cred := credentials.NewStatic("tok-123")
	res, err := testClient().Do(context.Background(), Bearer(server.URL, ActionListCourses), cred, map[string]string{})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	if !res.OK {
		t.Errorf("OK = false, want true")
	}
	if res.Status != http.StatusOK {
		t.Errorf("Status = %d, want 200", res.Status)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q, want Bearer tok-123", gotAuth)
	}
	if gotAction != ActionListCourses {
		t.Errorf("action = %q, want %q", gotAction, ActionListCourses)
	}

	var course struct {
		ID string `json:"id"`
	}
	if err := res.Decode(&course); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if course.ID != "c1" {
		t.Errorf("decoded id = %q, want c1", course.ID)
	}
}

func TestDoRetries5xx(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cred := credentials.NewStatic("tok")
	res, err := testClient().Do(context.Background(), Bearer(server.URL, ActionListCourses), cred, nil)
	if err != nil {
		t.Fatalf("Do() error = %v, want uniform result for HTTP failure", err)
	}

	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("server saw %d calls, want 3", got)
	}
	if res.OK {
		t.Error("OK = true, want false")
	}
	if res.Status != http.StatusServiceUnavailable {
		t.Errorf("Status = %d, want 503", res.Status)
	}
}

func TestDoRecoversMidRetry(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	cred := credentials.NewStatic("tok")
	res, err := testClient().Do(context.Background(), Bearer(server.URL, ActionListChapters), cred, nil)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if !res.OK {
		t.Errorf("OK = false after recovery, status %d", res.Status)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("server saw %d calls, want 3", got)
	}
}

func TestDoNoRetryOn4xx(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	cred := credentials.NewStatic("tok")
	res, err := testClient().Do(context.Background(), Bearer(server.URL, ActionGetQuiz), cred, nil)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("server saw %d calls, want 1", got)
	}
	if res.OK {
		t.Error("OK = true, want false")
	}
	if res.Status != http.StatusNotFound {
		t.Errorf("Status = %d, want 404", res.Status)
	}
}

func TestDoTransportFailure(t *testing.T) {
	// Point at a closed server so every attempt fails at the transport level
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	cred := credentials.NewStatic("tok")
	_, err := testClient().Do(context.Background(), Bearer(url, ActionListCourses), cred, nil)
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Errorf("Do() error = %v, want ErrRetriesExhausted", err)
	}
}

func TestDoContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cred := credentials.NewStatic("tok")
	_, err := New(Options{Attempts: 3, BaseDelay: time.Minute}).Do(ctx, Bearer(server.URL, ActionListCourses), cred, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Do() error = %v, want context.Canceled", err)
	}
}

func TestDoSignedEndpointWithoutSigner(t *testing.T) {
	_, err := testClient().Do(context.Background(), Signed("https://reports.example", ActionGetOrgReport), nil, nil)
	if !errors.Is(err, ErrMissingSigner) {
		t.Errorf("Do() error = %v, want ErrMissingSigner", err)
	}
}

func TestThrottle(t *testing.T) {
	th := NewThrottle(2, 50*time.Millisecond)

	if !th.Allow("host-a") {
		t.Error("first call should be allowed")
	}
	if !th.Allow("host-a") {
		t.Error("second call should be allowed")
	}
	if th.Allow("host-a") {
		t.Error("third call within window should be denied")
	}
	// Independent bucket per host
	if !th.Allow("host-b") {
		t.Error("other host should have its own bucket")
	}

	time.Sleep(60 * time.Millisecond)
	if !th.Allow("host-a") {
		t.Error("call after refill window should be allowed")
	}
}

func TestThrottleWaitCancelled(t *testing.T) {
	th := NewThrottle(1, time.Minute)
	th.Allow("host")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := th.Wait(ctx, "host"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() error = %v, want deadline exceeded", err)
	}
}
