package resilience

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bank-console/pkg/backend"
	"bank-console/pkg/metrics"
	"bank-console/pkg/metrics/memory"
)

type failingDoer struct {
	calls int
}

func (f *failingDoer) Do(req *http.Request) (*http.Response, error) {
	f.calls++
	return nil, errors.New("connection refused")
}

func testConfig() Config {
	return Config{
		Name:    "test",
		Timeout: time.Second,
		CircuitBreakerConfig: CircuitBreakerConfig{
			MaxRequests:         1,
			Interval:            time.Minute,
			Timeout:             time.Minute,
			ConsecutiveFailures: 3,
		},
	}
}

func newRequest(t *testing.T, url string) *http.Request {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}
	return req
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Timeout != 10*time.Second {
		t.Errorf("Expected timeout 10s, got %v", config.Timeout)
	}
	if config.CircuitBreakerConfig.MaxRequests != 5 {
		t.Errorf("Expected MaxRequests 5, got %d", config.CircuitBreakerConfig.MaxRequests)
	}
	if config.CircuitBreakerConfig.readyToTrip(Counts{ConsecutiveFailures: 4}) {
		t.Error("Should not trip with 4 failures")
	}
	if !config.CircuitBreakerConfig.readyToTrip(Counts{ConsecutiveFailures: 5}) {
		t.Error("Should trip with 5 failures")
	}

	changed := config.WithTimeout(2 * time.Second).WithCircuitBreakerTimeout(time.Second)
	if changed.Timeout != 2*time.Second || changed.CircuitBreakerConfig.Timeout != time.Second {
		t.Errorf("Expected overrides applied, got %+v", changed)
	}
	if config.Timeout != 10*time.Second {
		t.Errorf("Original config changed: got %v", config.Timeout)
	}
}

func TestDoer_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success":true}`)
	}))
	defer srv.Close()

	d := NewDoer(srv.Client(), testConfig())
	resp, err := d.Do(newRequest(t, srv.URL))
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(body) != `{"success":true}` {
		t.Errorf("Expected body passed through, got %s", body)
	}
}

func TestDoer_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(500 * time.Millisecond):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	d := NewDoer(srv.Client(), testConfig().WithTimeout(50*time.Millisecond))
	_, err := d.Do(newRequest(t, srv.URL))
	if !errors.Is(err, backend.ErrTimeout) {
		t.Errorf("Expected ErrTimeout, got %v", err)
	}
}

func TestDoer_CircuitBreakerOpens(t *testing.T) {
	collector := memory.NewMemoryCollector()
	next := &failingDoer{}
	d := NewDoerWithMetrics(next, testConfig(), collector)

	for i := 0; i < 3; i++ {
		if _, err := d.Do(newRequest(t, "http://backend.invalid/api/user/accounts")); err == nil {
			t.Fatal("Expected transport error")
		}
	}

	_, err := d.Do(newRequest(t, "http://backend.invalid/api/user/accounts"))
	if !errors.Is(err, backend.ErrCircuitOpen) {
		t.Errorf("Expected ErrCircuitOpen, got %v", err)
	}
	if next.calls != 3 {
		t.Errorf("Expected open breaker to skip the backend, got %d calls", next.calls)
	}
	if d.State() != metrics.CircuitOpen {
		t.Errorf("Expected open state, got %v", d.State())
	}
	if opens := collector.Snapshot().CircuitOpens["test"]; opens != 1 {
		t.Errorf("Expected 1 circuit open recorded, got %d", opens)
	}
}

func TestDoer_ServerErrorsCountButPassThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	d := NewDoer(srv.Client(), testConfig())
	for i := 0; i < 3; i++ {
		resp, err := d.Do(newRequest(t, srv.URL))
		if err != nil {
			t.Fatalf("Expected 5xx response returned, got %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadGateway {
			t.Errorf("Expected 502, got %d", resp.StatusCode)
		}
	}

	if d.State() != metrics.CircuitOpen {
		t.Errorf("Expected 5xx responses to open the breaker, got %v", d.State())
	}
}

func TestDoer_ApplicationFailuresDoNotTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success":false,"message":"Insufficient balance"}`)
	}))
	defer srv.Close()

	d := NewDoer(srv.Client(), testConfig())
	for i := 0; i < 20; i++ {
		resp, err := d.Do(newRequest(t, srv.URL))
		if err != nil {
			t.Fatalf("Request %d failed: %v", i, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if !strings.Contains(string(body), "Insufficient balance") {
			t.Errorf("Expected envelope passed through, got %s", body)
		}
	}

	if d.State() != metrics.CircuitClosed {
		t.Errorf("Expected breaker closed, got %v", d.State())
	}
}
