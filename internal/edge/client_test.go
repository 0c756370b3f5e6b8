package edge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testConfig(baseURL string) Config {
	return Config{
		APIToken:       "test-token",
		ZoneID:         "zone-1",
		AccountID:      "account-1",
		APIBaseURL:     baseURL,
		MaxRetries:     3,
		RetryBaseDelay: time.Millisecond,
		RateLimit:      1000,
		BurstCapacity:  1000,
	}
}

// newTestClient builds a client against the given stub server with sleeps
// recorded instead of performed.
func newTestClient(srv *httptest.Server) (*Client, *[]time.Duration) {
	c := NewClient(testConfig(srv.URL), srv.Client())
	var slept []time.Duration
	c.sleep = func(d time.Duration) { slept = append(slept, d) }
	return c, &slept
}

func envelope(success bool, result any, errs ...ResponseError) []byte {
	resp := map[string]any{
		"success":  success,
		"errors":   errs,
		"messages": []string{},
		"result":   result,
	}
	b, _ := json.Marshal(resp)
	return b
}

func TestClient_SuccessReturnsParsedResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("expected bearer auth header, got %q", got)
		}
		w.Write(envelope(true, CustomHostname{ID: "ch-1", Hostname: "shop.example.com"}))
	}))
	defer srv.Close()

	c, _ := newTestClient(srv)
	ch, err := c.GetCustomHostname(context.Background(), "ch-1")
	if err != nil {
		t.Fatalf("GetCustomHostname failed: %v", err)
	}
	if ch.ID != "ch-1" || ch.Hostname != "shop.example.com" {
		t.Errorf("unexpected result: %+v", ch)
	}
}

func TestClient_ListFilterIsQueryEncoded(t *testing.T) {
	hostname := "shop.example.com/..;&x=1"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("hostname"); got != hostname {
			t.Errorf("expected hostname filter %q, got %q", hostname, got)
		}
		if len(r.URL.Query()) != 1 {
			t.Errorf("expected a single query parameter, got %v", r.URL.Query())
		}
		w.Write(envelope(true, []CustomHostname{}))
	}))
	defer srv.Close()

	c, _ := newTestClient(srv)
	if _, err := c.ListCustomHostnames(context.Background(), hostname); err != nil {
		t.Fatalf("ListCustomHostnames failed: %v", err)
	}
}

func TestClient_RetryBound(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, _ := newTestClient(srv)
	_, err := c.GetCustomHostname(context.Background(), "ch-1")
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if attempts != 4 {
		t.Errorf("expected maxRetries+1 = 4 attempts, got %d", attempts)
	}
	if !IsCategory(err, CategoryServerError) {
		t.Errorf("expected server_error category, got %v", err)
	}
}

func TestClient_NoRetryOnClientError(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
		w.Write(envelope(false, nil, ResponseError{Code: 1400, Message: "bad request"}))
	}))
	defer srv.Close()

	c, _ := newTestClient(srv)
	_, err := c.CreateCustomHostname(context.Background(), "bad domain")
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Errorf("expected exactly 1 attempt for a client error, got %d", attempts)
	}
	if !IsCategory(err, CategoryInvalidRequest) {
		t.Errorf("expected invalid_request category, got %v", err)
	}
}

func TestClient_RateLimitHonorsRetryAfter(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write(envelope(true, CustomHostname{ID: "ch-1"}))
	}))
	defer srv.Close()

	c, slept := newTestClient(srv)
	_, err := c.GetCustomHostname(context.Background(), "ch-1")
	if err != nil {
		t.Fatalf("expected success after rate-limit retry: %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
	if len(*slept) != 1 || (*slept)[0] != 7*time.Second {
		t.Errorf("expected one 7s sleep from Retry-After hint, got %v", *slept)
	}
}

func TestClient_RateLimitExhaustionSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, _ := newTestClient(srv)
	_, err := c.ListWorkerRoutes(context.Background())
	if !IsCategory(err, CategoryRateLimited) {
		t.Errorf("expected rate_limited category after exhaustion, got %v", err)
	}
}

func TestClient_ExponentialBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c, slept := newTestClient(srv)
	c.cfg.RetryBaseDelay = 100 * time.Millisecond

	_, _ = c.GetWorkerRoute(context.Background(), "route-1")

	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond}
	if len(*slept) != len(want) {
		t.Fatalf("expected %d backoff sleeps, got %d", len(want), len(*slept))
	}
	for i, d := range want {
		if (*slept)[i] != d {
			t.Errorf("backoff[%d] = %v; want %v", i, (*slept)[i], d)
		}
	}
}

func TestClient_FailedEnvelopeWithin200IsRetried(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.Write(envelope(false, nil, ResponseError{Code: 88888, Message: "transient backend error"}))
			return
		}
		w.Write(envelope(true, WorkerRoute{ID: "route-1", Pattern: "shop.example.com/*"}))
	}))
	defer srv.Close()

	c, _ := newTestClient(srv)
	route, err := c.CreateWorkerRoute(context.Background(), "shop.example.com/*", "site-router")
	if err != nil {
		t.Fatalf("expected success after envelope retry: %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
	if route.ID != "route-1" {
		t.Errorf("unexpected route: %+v", route)
	}
}

func TestClient_NetworkErrorRetried(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse all connections

	c, slept := newTestClient(srv)
	_, err := c.ListCustomHostnames(context.Background(), "")
	if !IsCategory(err, CategoryNetworkError) {
		t.Errorf("expected network_error category, got %v", err)
	}
	if len(*slept) != 3 {
		t.Errorf("expected 3 backoff sleeps before surfacing, got %d", len(*slept))
	}
}

func TestClient_DeleteNotFoundClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write(envelope(false, nil, ResponseError{Code: 1436, Message: "custom hostname not found"}))
	}))
	defer srv.Close()

	c, _ := newTestClient(srv)
	err := c.DeleteCustomHostname(context.Background(), "gone")
	if !IsCategory(err, CategoryNotFound) {
		t.Errorf("expected not_found category, got %v", err)
	}
}
