package webhook

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/printnet/printnet/internal/config"
	"github.com/printnet/printnet/internal/core"
	"github.com/printnet/printnet/internal/db"
)

type Payload struct {
	Event     string      `json:"event"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
	Signature string      `json:"signature,omitempty"`
}

type JobEventData struct {
	JobID     string  `json:"job_id"`
	PrinterID string  `json:"printer_id"`
	ModelID   string  `json:"model_id"`
	Status    string  `json:"status"`
	Progress  float64 `json:"progress"`
}

type PrinterStatusData struct {
	PrinterID      string    `json:"printer_id"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	Timestamp      time.Time `json:"timestamp"`
}

// Sender posts signed event payloads to a configured endpoint. Delivery is
// fire and forget; failures are logged and never reach the caller.
type Sender struct {
	url    string
	secret string
	client *http.Client
}

// NewSender returns nil when no endpoint is configured; callers treat a nil
// sender as disabled.
func NewSender(cfg *config.WebhooksConfig) *Sender {
	if cfg.URL == "" {
		return nil
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Sender{
		url:    cfg.URL,
		secret: cfg.Secret,
		client: &http.Client{Timeout: timeout},
	}
}

func (s *Sender) SendJobEvent(event string, job *db.Job) {
	s.dispatch(event, JobEventData{
		JobID:     job.ID,
		PrinterID: job.PrinterID,
		ModelID:   job.ModelID,
		Status:    job.Status,
		Progress:  job.Progress,
	})
}

func (s *Sender) SendPrinterStatusChange(printerID string, oldStatus, newStatus core.PrinterStatus) {
	s.dispatch("printer_status_changed", PrinterStatusData{
		PrinterID:      printerID,
		PreviousStatus: string(oldStatus),
		NewStatus:      string(newStatus),
		Timestamp:      time.Now(),
	})
}

func (s *Sender) dispatch(event string, data interface{}) {
	payload := Payload{
		Event:     event,
		Timestamp: time.Now(),
		Data:      data,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("webhook: failed to marshal %s payload: %v", event, err)
		return
	}

	if s.secret != "" {
		mac := hmac.New(sha256.New, []byte(s.secret))
		mac.Write(body)
		payload.Signature = hex.EncodeToString(mac.Sum(nil))
		body, err = json.Marshal(payload)
		if err != nil {
			log.Printf("webhook: failed to marshal signed %s payload: %v", event, err)
			return
		}
	}

	go s.post(event, body)
}

func (s *Sender) post(event string, body []byte) {
	req, err := http.NewRequest(http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		log.Printf("webhook: failed to build %s request: %v", event, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("webhook: failed to deliver %s: %v", event, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Printf("webhook: %s delivery returned status %d", event, resp.StatusCode)
	}
}
