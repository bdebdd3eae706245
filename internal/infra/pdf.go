package infra

// pdf.go: order receipt generation using go-pdf/fpdf.
// Receipts are narrow (80mm) so they also print on thermal rolls, and are saved
// as storagePath/receipt_{order_id}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"

	"sipndash/internal/model"

	"github.com/go-pdf/fpdf"
)

// GenerateReceiptPDF renders a receipt for order and returns the file path.
// order.Items[*].Product and order.Customer are used when preloaded.
func GenerateReceiptPDF(order *model.Order, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	filePath := filepath.Join(storagePath, fmt.Sprintf("receipt_%s.pdf", order.ID))

	height := 120.0 + float64(len(order.Items))*5
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 80, Ht: height},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.SetAutoPageBreak(false, 4)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentW, 7, "Sip N Dash", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, "Order Receipt", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(contentW, 4, "Order "+order.ID.String(), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, order.CreatedAt.Format("02 Jan 2006  15:04"), "", 1, "L", false, 0, "")
	if order.Customer != nil {
		pdf.CellFormat(contentW, 4, tr(order.Customer.Name), "", 1, "L", false, 0, "")
		pdf.MultiCell(contentW, 4, tr(order.Customer.Address), "", "L", false)
	}
	pdf.Ln(2)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	// ── Items ────────────────────────────────────────────────────────────────
	col1 := contentW * 0.52
	col2 := contentW * 0.14
	col3 := contentW * 0.34

	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(col1, 5, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "Qty", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 5, "Subtotal", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	for _, item := range order.Items {
		name := item.ProductID.String()[:8]
		if item.Product != nil {
			name = item.Product.Name
		}
		if r := []rune(name); len(r) > 26 {
			name = string(r[:25]) + "..."
		}
		pdf.CellFormat(col1, 5, tr(name), "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, fmt.Sprintf("x%d", item.Quantity), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 5, "KSh "+item.Subtotal.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	// ── Totals ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 7)
	if !order.DeliveryFee.IsZero() {
		pdf.CellFormat(col1+col2, 5, "Delivery:", "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 5, "KSh "+order.DeliveryFee.StringFixed(2), "", 1, "R", false, 0, "")
	}
	if !order.Tax.IsZero() {
		pdf.CellFormat(col1+col2, 5, "Tax:", "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 5, "KSh "+order.Tax.StringFixed(2), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1+col2, 6, "TOTAL:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 6, "KSh "+order.Total.StringFixed(2), "", 1, "R", false, 0, "")

	pdf.Ln(1)
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(col1+col2, 4, "Payment ("+order.PaymentMethod+"):", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 4, order.PaymentStatus, "", 1, "R", false, 0, "")

	// ── Footer ───────────────────────────────────────────────────────────────
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, "Thank you for your order!", "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}
