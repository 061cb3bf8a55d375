package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient("test-key", "test-model", srv.URL)
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	c.Stats = NewStats()
	return c
}

func completionJSON(text string) string {
	return `{"choices":[{"message":{"role":"assistant","content":` + mustJSON(text) + `}}]}`
}

func mustJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestNewClient_Validation(t *testing.T) {
	if _, err := NewClient("  ", "m", ""); err == nil {
		t.Fatalf("empty api key should be rejected")
	}
	c, err := NewClient("k", "m", "")
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	if c.BaseURL != defaultBaseURL {
		t.Fatalf("empty base url should fall back to the default, got %q", c.BaseURL)
	}
	c2, _ := NewClient("k", "m", "http://x/v1/")
	if c2.BaseURL != "http://x/v1" {
		t.Fatalf("trailing slash should be trimmed, got %q", c2.BaseURL)
	}
}

func TestChat_Success_AndStats(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		w.Write([]byte(completionJSON("hello")))
	})

	temp := 0.5
	text, err := c.Chat(context.Background(), "", []Message{{Role: "user", Content: "hi"}}, &temp)
	if err != nil {
		t.Fatalf("Chat error: %v", err)
	}
	if text != "hello" {
		t.Fatalf("text = %q; want hello", text)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("auth header = %q", gotAuth)
	}
	if gotReq.Model != "test-model" {
		t.Fatalf("empty model should use the client default, got %q", gotReq.Model)
	}
	if gotReq.Temperature == nil || *gotReq.Temperature != 0.5 {
		t.Fatalf("temperature not forwarded: %+v", gotReq.Temperature)
	}

	snap := c.Stats.Snapshot()
	if snap.TotalRequests != 1 {
		t.Fatalf("stats should record one call, got %d", snap.TotalRequests)
	}
}

func TestChat_NilTemperatureOmitted(t *testing.T) {
	var raw map[string]json.RawMessage
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&raw)
		w.Write([]byte(completionJSON("ok")))
	})

	if _, err := c.Chat(context.Background(), "m", []Message{{Role: "user", Content: "hi"}}, nil); err != nil {
		t.Fatalf("Chat error: %v", err)
	}
	if _, present := raw["temperature"]; present {
		t.Fatalf("nil temperature must be omitted from the wire payload")
	}
}

func TestChat_TemperatureRetry_StructuredParam(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Temperature != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"unsupported","param":"temperature","code":"unsupported_parameter"}}`))
			return
		}
		w.Write([]byte(completionJSON("retried")))
	})

	temp := 0.7
	text, err := c.Chat(context.Background(), "m", []Message{{Role: "user", Content: "hi"}}, &temp)
	if err != nil {
		t.Fatalf("Chat error: %v", err)
	}
	if text != "retried" || calls != 2 {
		t.Fatalf("expected one retry without temperature, got text %q after %d calls", text, calls)
	}
	// Only the successful call is recorded.
	if snap := c.Stats.Snapshot(); snap.TotalRequests != 1 {
		t.Fatalf("stats = %d; want 1", snap.TotalRequests)
	}
}

func TestChat_TemperatureRetry_MessageFallback(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Temperature != nil {
			// No structured param/code; only the prose names the parameter.
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"'temperature' is not supported with this model"}}`))
			return
		}
		w.Write([]byte(completionJSON("ok")))
	})

	temp := 1.0
	if _, err := c.Chat(context.Background(), "m", []Message{{Role: "user", Content: "hi"}}, &temp); err != nil {
		t.Fatalf("Chat error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("message fallback should trigger the retry, calls = %d", calls)
	}
}

func TestChat_RetryFailurePropagates(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"broken","param":"temperature"}}`))
	})

	temp := 0.5
	_, err := c.Chat(context.Background(), "m", []Message{{Role: "user", Content: "hi"}}, &temp)
	if err == nil {
		t.Fatalf("second failure must propagate")
	}
	if calls != 2 {
		t.Fatalf("exactly one retry allowed, calls = %d", calls)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected APIError with status, got %v", err)
	}
}

func TestChat_UnrelatedErrorNoRetry(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"type":"rate_limit_error","message":"slow down"}}`))
	})

	temp := 0.5
	if _, err := c.Chat(context.Background(), "m", []Message{{Role: "user", Content: "hi"}}, &temp); err == nil {
		t.Fatalf("error expected")
	}
	if calls != 1 {
		t.Fatalf("unrelated errors must not trigger the retry, calls = %d", calls)
	}
}

func TestChat_EmptyChoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	})
	if _, err := c.Chat(context.Background(), "m", nil, nil); err == nil {
		t.Fatalf("empty choices should error")
	}
}

func TestIsTemperatureUnsupported(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{&APIError{Param: "temperature"}, true},
		{&APIError{Code: "unsupported_value", Message: "temperature must be 1"}, true},
		{&APIError{Code: "unsupported_parameter", Message: "Temperature not allowed"}, true},
		{&APIError{Code: "unsupported_value", Message: "top_p must be 1"}, false},
		{errors.New("'temperature' does not support 0.5 with this model"), true},
		{errors.New("rate limit exceeded"), false},
	}
	for i, tc := range cases {
		if got := isTemperatureUnsupported(tc.err); got != tc.want {
			t.Fatalf("case %d: got %v, want %v (%v)", i, got, tc.want, tc.err)
		}
	}
}

func TestStats_RecordResetSnapshot(t *testing.T) {
	s := NewStats()
	if snap := s.Snapshot(); snap.TotalRequests != 0 || len(snap.Requests) != 0 {
		t.Fatalf("empty snapshot unexpected: %+v", snap)
	}

	s.Record(100 * time.Millisecond)
	s.Record(300 * time.Millisecond)
	s.Record(200 * time.Millisecond)

	snap := s.Snapshot()
	if snap.TotalRequests != 3 ||
		snap.Total != 600*time.Millisecond ||
		snap.Average != 200*time.Millisecond ||
		snap.Min != 100*time.Millisecond ||
		snap.Max != 300*time.Millisecond {
		t.Fatalf("snapshot unexpected: %+v", snap)
	}

	// Snapshot returns a copy.
	snap.Requests[0] = 0
	if s.Snapshot().Requests[0] != 100*time.Millisecond {
		t.Fatalf("snapshot must not alias internal state")
	}

	s.Reset()
	if s.Snapshot().TotalRequests != 0 {
		t.Fatalf("reset should clear all durations")
	}
}
