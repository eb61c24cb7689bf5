// README: PDF invoice rendering for a booking.
package booking

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"

	"safari/internal/modules/pricing"
	"safari/internal/types"
)

// BuildInvoice renders b as a single-page A4 invoice. The returned name is
// suitable for a Content-Disposition header.
func BuildInvoice(b *Booking, issued time.Time) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Invoice "+b.ID, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "SAFARI TOUR INVOICE")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	line(pdf, "Invoice no.", "INV-"+b.ID)
	line(pdf, "Issued", issued.UTC().Format("2006-01-02 15:04"))
	line(pdf, "Status", string(b.Status))
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Billed to")
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 11)
	line(pdf, "Name", b.Customer.Name)
	line(pdf, "Email", orDash(b.Customer.Email))
	line(pdf, "Phone", orDash(b.Customer.Phone))
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Tour")
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 11)
	sum := b.Price.Summary
	line(pdf, "Date", b.TourDate.String())
	line(pdf, "Reservation", string(sum.ReservationType))
	line(pdf, "Jeep / slot", fmt.Sprintf("%s / %s", sum.JeepType, sum.TimeSlot))
	line(pdf, "Guide", string(sum.GuideOption))
	line(pdf, headCountLabel(sum.ReservationType), fmt.Sprintf("%d (%s visitors)", sum.People, b.Selection.VisitorType))
	line(pdf, "Meals", mealsLabel(sum.MealsIncluded))
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(120, 8, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(50, 8, "Amount", "B", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	items := []struct {
		label  string
		amount types.Money
	}{
		{"Park tickets", b.Price.TicketPrice},
		{"Jeep", b.Price.JeepPrice},
		{"Guide", b.Price.GuidePrice},
		{"Meals", b.Price.MealPrice},
	}
	for _, it := range items {
		pdf.CellFormat(120, 7, it.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(50, 7, it.amount.String(), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(120, 9, "Total", "T", 0, "L", false, 0, "")
	pdf.CellFormat(50, 9, b.Price.TotalPrice.String(), "T", 1, "R", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(0, 5, fmt.Sprintf("Priced with rate card version %d.", b.PricingConfigID), "", "", false)
	if b.Notes != "" {
		pdf.MultiCell(0, 5, "Notes: "+b.Notes, "", "", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", fmt.Errorf("render invoice: %w", err)
	}
	return buf.Bytes(), "invoice-" + b.ID + ".pdf", nil
}

func line(pdf *gofpdf.Fpdf, label, value string) {
	pdf.Cell(40, 6, label)
	pdf.Cell(0, 6, ": "+value)
	pdf.Ln(6)
}

func orDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}

func headCountLabel(rt pricing.ReservationType) string {
	if rt == pricing.ReservationShared {
		return "Seats"
	}
	return "People"
}

func mealsLabel(meals []pricing.Meal) string {
	if len(meals) == 0 {
		return "none"
	}
	names := make([]string, len(meals))
	for i, m := range meals {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}
