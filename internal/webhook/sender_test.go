package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/andriemoral27/PrinTech-Main/internal/config"
	"github.com/andriemoral27/PrinTech-Main/internal/core"
)

type capture struct {
	mu       sync.Mutex
	payloads []Payload
	headers  []http.Header
	failures int
}

func (c *capture) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.failures > 0 {
			c.failures--
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		body, _ := io.ReadAll(r.Body)
		var p Payload
		json.Unmarshal(body, &p)
		c.payloads = append(c.payloads, p)
		c.headers = append(c.headers, r.Header.Clone())
		w.WriteHeader(http.StatusOK)
	}
}

func (c *capture) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.payloads)
}

func waitForDeliveries(t *testing.T, c *capture, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for c.count() < n && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if c.count() < n {
		t.Fatalf("got %d deliveries, want %d", c.count(), n)
	}
}

func TestSenderDeliversSignedJobEvent(t *testing.T) {
	cap := &capture{}
	srv := httptest.NewServer(cap.handler())
	defer srv.Close()

	sender := NewSender([]config.WebhookConfig{
		{Name: "ops", URL: srv.URL, Secret: "s3cret"},
	}, SenderConfig{})
	sender.Start()
	defer sender.Stop()

	sender.SendJobEvent(core.EventJobFailed, "job-1", core.StateFailed, "insufficient_paper")
	waitForDeliveries(t, cap, 1)

	cap.mu.Lock()
	defer cap.mu.Unlock()
	p := cap.payloads[0]
	if p.Event != core.EventJobFailed {
		t.Errorf("event = %q", p.Event)
	}
	if cap.headers[0].Get("X-Webhook-Event") != core.EventJobFailed {
		t.Errorf("event header = %q", cap.headers[0].Get("X-Webhook-Event"))
	}

	raw, _ := json.Marshal(p.Data)
	var jobData JobEventData
	if err := json.Unmarshal(raw, &jobData); err != nil {
		t.Fatal(err)
	}
	if jobData.JobID != "job-1" || jobData.State != "failed" || jobData.ErrorMessage != "insufficient_paper" {
		t.Errorf("data = %+v", jobData)
	}

	// The sender signs the marshaled event struct, so recompute the
	// signature from the same struct values.
	signed, _ := json.Marshal(&JobEventData{
		JobID:        "job-1",
		State:        "failed",
		ErrorMessage: "insufficient_paper",
	})
	mac := hmac.New(sha256.New, []byte("s3cret"))
	mac.Write(signed)
	want := hex.EncodeToString(mac.Sum(nil))
	if got := cap.headers[0].Get("X-Webhook-Signature"); got != want {
		t.Errorf("signature = %q, want %q", got, want)
	}
}

func TestSenderFiltersByEventSubscription(t *testing.T) {
	cap := &capture{}
	srv := httptest.NewServer(cap.handler())
	defer srv.Close()

	sender := NewSender([]config.WebhookConfig{
		{Name: "paper-only", URL: srv.URL, Events: []string{core.EventPaperLow}},
	}, SenderConfig{})
	sender.Start()
	defer sender.Stop()

	sender.SendJobEvent(core.EventJobCompleted, "job-1", core.StateCompleted, "")
	sender.SendPaperEvent(core.EventPaperLow, 7)

	waitForDeliveries(t, cap, 1)
	time.Sleep(50 * time.Millisecond)

	cap.mu.Lock()
	defer cap.mu.Unlock()
	if len(cap.payloads) != 1 {
		t.Fatalf("deliveries = %d, want 1", len(cap.payloads))
	}
	if cap.payloads[0].Event != core.EventPaperLow {
		t.Errorf("event = %q, want paper_low", cap.payloads[0].Event)
	}
}

func TestSenderRetriesServerErrors(t *testing.T) {
	cap := &capture{failures: 2}
	srv := httptest.NewServer(cap.handler())
	defer srv.Close()

	sender := NewSender([]config.WebhookConfig{
		{Name: "flaky", URL: srv.URL},
	}, SenderConfig{RetryCount: 3, RetryDelay: 5 * time.Millisecond})
	sender.Start()
	defer sender.Stop()

	sender.SendPaperEvent(core.EventPaperRefilled, 500)
	waitForDeliveries(t, cap, 1)
}

func TestSenderDoesNotRetryClientErrors(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts++
		mu.Unlock()
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	sender := NewSender([]config.WebhookConfig{
		{Name: "rejecting", URL: srv.URL},
	}, SenderConfig{RetryCount: 5, RetryDelay: time.Millisecond})
	sender.Start()

	sender.SendPaperEvent(core.EventPaperLow, 3)
	time.Sleep(200 * time.Millisecond)
	sender.Stop()

	mu.Lock()
	defer mu.Unlock()
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (4xx must not be retried)", attempts)
	}
}
