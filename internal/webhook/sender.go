package webhook

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/andriemoral27/PrinTech-Main/internal/config"
	"github.com/andriemoral27/PrinTech-Main/internal/core"
)

type Payload struct {
	Event     string      `json:"event"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
	Signature string      `json:"signature,omitempty"`
}

type JobEventData struct {
	JobID        string `json:"job_id"`
	State        string `json:"state"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type PaperEventData struct {
	RemainingSheets int `json:"remaining_sheets"`
}

type SenderConfig struct {
	RetryCount  int
	RetryDelay  time.Duration
	Timeout     time.Duration
	WorkerCount int
	QueueSize   int
}

type task struct {
	endpoint config.WebhookConfig
	payload  *Payload
	attempt  int
}

// Sender delivers kiosk events to the webhook endpoints listed in the
// config file. Delivery is asynchronous through a small worker pool; a
// full queue drops the event rather than blocking the kiosk loop.
type Sender struct {
	endpoints   []config.WebhookConfig
	httpClient  *http.Client
	retryCount  int
	retryDelay  time.Duration
	workerCount int
	queue       chan *task
	stopCh      chan struct{}
	wg          sync.WaitGroup
}

func NewSender(endpoints []config.WebhookConfig, cfg SenderConfig) *Sender {
	if cfg.RetryCount <= 0 {
		cfg.RetryCount = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 5 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 3
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}

	return &Sender{
		endpoints: endpoints,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		retryCount:  cfg.RetryCount,
		retryDelay:  cfg.RetryDelay,
		workerCount: cfg.WorkerCount,
		queue:       make(chan *task, cfg.QueueSize),
		stopCh:      make(chan struct{}),
	}
}

func (s *Sender) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
}

func (s *Sender) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

func (s *Sender) SendJobEvent(event, jobID string, state core.State, errorMsg string) {
	s.enqueue(event, &JobEventData{
		JobID:        jobID,
		State:        string(state),
		ErrorMessage: errorMsg,
	})
}

func (s *Sender) SendPaperEvent(event string, remainingSheets int) {
	s.enqueue(event, &PaperEventData{
		RemainingSheets: remainingSheets,
	})
}

func (s *Sender) enqueue(event string, data interface{}) {
	for _, ep := range s.endpoints {
		if !subscribed(ep, event) {
			continue
		}

		t := &task{
			endpoint: ep,
			payload: &Payload{
				Event:     event,
				Timestamp: time.Now(),
				Data:      data,
			},
		}

		select {
		case s.queue <- t:
		default:
			log.Printf("[webhook] queue full, dropping event %s for %s", event, ep.Name)
		}
	}
}

// subscribed reports whether the endpoint wants this event. An empty
// events list means everything.
func subscribed(ep config.WebhookConfig, event string) bool {
	if len(ep.Events) == 0 {
		return true
	}
	for _, e := range ep.Events {
		if e == event {
			return true
		}
	}
	return false
}

func (s *Sender) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopCh:
			return
		case t := <-s.queue:
			if err := s.sendWithRetry(t); err != nil {
				log.Printf("[webhook worker %d] failed to deliver %s to %s after %d attempts: %v",
					id, t.payload.Event, t.endpoint.Name, t.attempt, err)
			}
		}
	}
}

func (s *Sender) sendWithRetry(t *task) error {
	var lastErr error
	for t.attempt < s.retryCount {
		t.attempt++

		err := s.sendRequest(t.endpoint, t.payload)
		if err == nil {
			return nil
		}

		lastErr = err

		if isClientError(err) {
			log.Printf("[webhook] client error for %s, not retrying: %v", t.endpoint.Name, err)
			return err
		}

		if t.attempt < s.retryCount {
			backoff := s.retryDelay * time.Duration(1<<(t.attempt-1))
			log.Printf("[webhook] retry %d/%d for %s in %v: %v",
				t.attempt, s.retryCount, t.endpoint.Name, backoff, err)

			select {
			case <-s.stopCh:
				return fmt.Errorf("shutdown requested")
			case <-time.After(backoff):
			}
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (s *Sender) sendRequest(ep config.WebhookConfig, payload *Payload) error {
	dataBytes, err := json.Marshal(payload.Data)
	if err != nil {
		return fmt.Errorf("marshal data: %w", err)
	}

	if ep.Secret != "" {
		payload.Signature = signPayload(dataBytes, ep.Secret)
	}

	fullPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequest("POST", ep.URL, bytes.NewReader(fullPayload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Signature", payload.Signature)
	req.Header.Set("X-Webhook-Event", payload.Event)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("http error: %d", resp.StatusCode)
	}

	return nil
}

func signPayload(payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

func isClientError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "http error: 4")
}
