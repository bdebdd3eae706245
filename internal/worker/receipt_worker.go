package worker

// receipt_worker.go
// Processes receipt jobs from QueueReceipt: renders the order PDF and fans out
// the customer receipt email and the admin new-order notification.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"sipndash/internal/infra"
	"sipndash/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ReceiptJobPayload is the job envelope sent to QueueReceipt.
type ReceiptJobPayload struct {
	OrderID string `json:"order_id"`
}

// OrderLoader reads an order with its customer and items preloaded.
type OrderLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
}

// EmailEnqueuer is satisfied by *Dispatcher.
type EmailEnqueuer interface {
	EnqueueEmail(ctx context.Context, payload EmailJobPayload) error
}

type ReceiptWorker struct {
	orders         OrderLoader
	emails         EmailEnqueuer
	pdfStoragePath string
	adminEmail     string
}

func NewReceiptWorker(orders OrderLoader, emails EmailEnqueuer, pdfStoragePath, adminEmail string) *ReceiptWorker {
	return &ReceiptWorker{
		orders:         orders,
		emails:         emails,
		pdfStoragePath: pdfStoragePath,
		adminEmail:     adminEmail,
	}
}

// Process handles a single receipt job:
//  1. Load the order with customer and items
//  2. Render the PDF receipt
//  3. Enqueue the customer email (with PDF) and the admin notification
func (w *ReceiptWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ReceiptJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("receipt_worker: invalid payload")
		return nil
	}
	orderID, err := uuid.Parse(payload.OrderID)
	if err != nil {
		log.Error().Str("order_id", payload.OrderID).Msg("receipt_worker: invalid order_id")
		return nil
	}

	order, err := w.orders.FindByID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Error().Str("order_id", payload.OrderID).Msg("receipt_worker: order not found")
		return nil
	}
	if err != nil {
		return fmt.Errorf("receipt_worker: load order: %w", err)
	}

	pdfPath, err := infra.GenerateReceiptPDF(order, w.pdfStoragePath)
	if err != nil {
		return err
	}
	log.Info().Str("pdf", pdfPath).Str("order_id", payload.OrderID).Msg("receipt_worker: PDF generated")

	if w.emails == nil {
		return nil
	}

	if order.Customer != nil && order.Customer.Email != "" {
		job := EmailJobPayload{
			To:      []string{order.Customer.Email},
			Subject: "Your Sip N Dash order " + shortID(order.ID),
			Body:    customerBody(order),
			PDFPath: pdfPath,
		}
		if err := w.emails.EnqueueEmail(ctx, job); err != nil {
			return fmt.Errorf("receipt_worker: enqueue customer email: %w", err)
		}
	}

	if w.adminEmail != "" {
		job := EmailJobPayload{
			To:      []string{w.adminEmail},
			Subject: "New order " + shortID(order.ID),
			Body:    adminBody(order),
			PDFPath: pdfPath,
		}
		if err := w.emails.EnqueueEmail(ctx, job); err != nil {
			log.Warn().Err(err).Str("order_id", payload.OrderID).Msg("receipt_worker: failed to enqueue admin email")
		}
	}
	return nil
}

func shortID(id uuid.UUID) string { return strings.ToUpper(id.String()[:8]) }

func customerBody(o *model.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nThanks for your order. Your receipt is attached.\n\n", o.Customer.Name)
	writeLines(&b, o)
	b.WriteString("\nWe will be in touch when your order is on its way.\n")
	return b.String()
}

func adminBody(o *model.Order) string {
	var b strings.Builder
	b.WriteString("A new order has been placed.\n\n")
	if o.Customer != nil {
		fmt.Fprintf(&b, "Customer: %s <%s>\nPhone: %s\nAddress: %s\n\n",
			o.Customer.Name, o.Customer.Email, o.Customer.Phone, o.Customer.Address)
	}
	writeLines(&b, o)
	fmt.Fprintf(&b, "\nPayment: %s (%s)\n", o.PaymentMethod, o.PaymentStatus)
	return b.String()
}

func writeLines(b *strings.Builder, o *model.Order) {
	for _, it := range o.Items {
		name := it.ProductID.String()
		if it.Product != nil {
			name = it.Product.Name
		}
		fmt.Fprintf(b, "  %d x %s  KSh %s\n", it.Quantity, name, it.Subtotal.StringFixed(2))
	}
	fmt.Fprintf(b, "Total: KSh %s\n", o.Total.StringFixed(2))
}
