package worker

// email_worker.go
// Processes email jobs from QueueEmail: order receipts to customers and
// new-order notifications to the shop admin.

import (
	"context"
	"encoding/json"
	"fmt"

	"sipndash/internal/infra"

	"github.com/rs/zerolog/log"
)

// EmailJobPayload is the job envelope sent to QueueEmail.
type EmailJobPayload struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
	PDFPath string   `json:"pdf_path,omitempty"`
}

// Sender is the mail transport; *infra.Mailer satisfies it.
type Sender interface {
	Send(to []string, subject, body, attachmentPath string) error
}

var _ Sender = (*infra.Mailer)(nil)

type EmailWorker struct {
	sender Sender
}

func NewEmailWorker(sender Sender) *EmailWorker {
	return &EmailWorker{sender: sender}
}

// Process sends one email. Malformed payloads are dropped without retry.
func (w *EmailWorker) Process(_ context.Context, raw json.RawMessage) error {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid payload")
		return nil
	}
	if len(payload.To) == 0 {
		log.Warn().Msg("email_worker: no recipients, skipping")
		return nil
	}

	if err := w.sender.Send(payload.To, payload.Subject, payload.Body, payload.PDFPath); err != nil {
		return fmt.Errorf("email_worker: send to %v: %w", payload.To, err)
	}
	log.Info().Strs("to", payload.To).Str("subject", payload.Subject).Msg("email_worker: sent")
	return nil
}
