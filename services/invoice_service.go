package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/nightelegance/reservation-app/models"
	"github.com/nightelegance/reservation-app/utils"
	"gorm.io/gorm"
)

const (
	invoiceTerms      = "This invoice is valid proof of your reservation payment."
	venueName         = "NIGHT ELEGANCE"
	venueDisplayName  = "Night Elegance"
	venueAddress      = "123 Luxury Avenue, City, State 12345"
	venuePhone        = "(555) 123-4567"
	defaultInvoiceDir = "uploads/invoices"
)

// InvoiceService builds the structured invoice record for a booking and
// renders the downloadable PDF artifact. Generation is idempotent per
// booking: the same record is returned and the same file re-rendered.
type InvoiceService struct {
	db        *gorm.DB
	outputDir string
}

func NewInvoiceService(db *gorm.DB) *InvoiceService {
	return &InvoiceService{db: db, outputDir: defaultInvoiceDir}
}

// NewInvoiceServiceWithDir overrides the artifact directory, used by tests.
func NewInvoiceServiceWithDir(db *gorm.DB, dir string) *InvoiceService {
	return &InvoiceService{db: db, outputDir: dir}
}

// BuildInvoice is the pure mapping from a booking plus its resource and
// owner snapshot to the invoice record. Deterministic for the same inputs;
// the generation timestamp lives on the model's CreatedAt, outside this
// mapping.
func BuildInvoice(booking *models.Booking, resource *models.Resource, owner *models.User) models.Invoice {
	billName := booking.FullName
	billEmail := booking.Email
	billPhone := booking.Phone
	if owner != nil {
		if billName == "" {
			billName = owner.Name
		}
		if billEmail == "" {
			billEmail = owner.Email
		}
		if billPhone == "" {
			billPhone = owner.Phone
		}
	}

	category := models.ResourceCategoryTable
	if resource != nil {
		category = resource.Category
	}

	return models.Invoice{
		BookingID:        booking.ID,
		InvoiceNumber:    fmt.Sprintf("INV-%08d", booking.ID),
		BillName:         billName,
		BillEmail:        billEmail,
		BillPhone:        billPhone,
		ResourceName:     booking.ResourceName,
		ResourceCategory: category,
		Date:             booking.Date,
		StartTime:        booking.StartTime,
		EndTime:          booking.EndTime,
		Guests:           booking.Guests,
		Description:      fmt.Sprintf("%s reservation - %s", displayCategory(category), booking.ResourceName),
		Amount:           booking.TotalPrice,
		Total:            booking.TotalPrice,
		PaymentMethod:    booking.PaymentMethod,
		PaymentStatus:    booking.PaymentStatus,
		PaymentRef:       booking.PaymentIntentID,
		Terms:            invoiceTerms,
	}
}

// displayCategory renders the stored category constant for customer-facing
// invoice text.
func displayCategory(category string) string {
	switch category {
	case models.ResourceCategoryRoom:
		return "Room"
	default:
		return "Table"
	}
}

// GenerateInvoice returns the invoice for a booking, creating and rendering
// it on first call. Only the booking owner or an admin may generate one.
func (s *InvoiceService) GenerateInvoice(bookingID, userID uint, isAdmin bool) (*models.Invoice, error) {
	var booking models.Booking
	if err := s.db.First(&booking, bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: booking %d", ErrNotFound, bookingID)
		}
		return nil, err
	}
	if !isAdmin && booking.UserID != userID {
		return nil, ErrForbidden
	}

	var resource models.Resource
	if err := s.db.First(&resource, booking.ResourceID).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	var owner models.User
	if err := s.db.First(&owner, booking.UserID).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var invoice models.Invoice
	err := s.db.Where("booking_id = ?", bookingID).First(&invoice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		invoice = BuildInvoice(&booking, &resource, &owner)
		if err := s.db.Create(&invoice).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	path, err := s.renderPDF(&invoice)
	if err != nil {
		return nil, err
	}
	if invoice.FilePath != path {
		invoice.FilePath = path
		if err := s.db.Save(&invoice).Error; err != nil {
			return nil, err
		}
	}

	utils.InfoLogger.Printf("Invoice %s generated for booking %d", invoice.InvoiceNumber, bookingID)
	return &invoice, nil
}

// FindInvoice looks up a previously generated invoice for download. It
// enforces the same visibility rule as generation and reports ErrNotFound
// when the invoice or its artifact does not exist yet.
func (s *InvoiceService) FindInvoice(bookingID, userID uint, isAdmin bool) (*models.Invoice, error) {
	var booking models.Booking
	if err := s.db.First(&booking, bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: booking %d", ErrNotFound, bookingID)
		}
		return nil, err
	}
	if !isAdmin && booking.UserID != userID {
		return nil, ErrForbidden
	}

	var invoice models.Invoice
	if err := s.db.Where("booking_id = ?", bookingID).First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no invoice generated for booking %d", ErrNotFound, bookingID)
		}
		return nil, err
	}
	if invoice.FilePath == "" {
		return nil, fmt.Errorf("%w: no invoice artifact for booking %d", ErrNotFound, bookingID)
	}
	if _, err := os.Stat(invoice.FilePath); err != nil {
		return nil, fmt.Errorf("%w: invoice artifact missing for booking %d", ErrNotFound, bookingID)
	}

	return &invoice, nil
}

func (s *InvoiceService) renderPDF(inv *models.Invoice) (string, error) {
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(s.outputDir, fmt.Sprintf("invoice-%d.pdf", inv.BookingID))

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	// Header
	pdf.SetFillColor(248, 249, 250)
	pdf.Rect(15, 15, 180, 28, "F")
	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetTextColor(52, 152, 219)
	pdf.SetXY(20, 20)
	pdf.Cell(100, 10, venueName)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(74, 74, 74)
	pdf.SetXY(20, 30)
	pdf.Cell(100, 5, venueAddress)
	pdf.SetXY(20, 35)
	pdf.Cell(100, 5, "Tel: "+venuePhone)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(26, 26, 26)
	pdf.SetXY(120, 20)
	pdf.CellFormat(75, 8, "RESERVATION INVOICE", "", 0, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetXY(120, 30)
	pdf.CellFormat(75, 5, "Invoice #: "+inv.InvoiceNumber, "", 0, "R", false, 0, "")
	pdf.SetXY(120, 35)
	pdf.CellFormat(75, 5, "Date: "+time.Now().Format("2006-01-02"), "", 0, "R", false, 0, "")

	// Bill to
	pdf.SetXY(15, 52)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(100, 7, "BILL TO:")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(15, 60)
	pdf.Cell(100, 5, inv.BillName)
	pdf.SetXY(15, 65)
	pdf.Cell(100, 5, "Email: "+inv.BillEmail)
	pdf.SetXY(15, 70)
	pdf.Cell(100, 5, "Phone: "+inv.BillPhone)

	// Details table
	type row struct{ label, value string }
	rows := []row{
		{"Description", inv.Description},
		{"Date", inv.Date},
		{"Time", inv.StartTime + " - " + inv.EndTime},
		{"Guests", fmt.Sprintf("%d", inv.Guests)},
		{"Payment Method", inv.PaymentMethod},
		{"Payment Status", inv.PaymentStatus},
	}
	if inv.PaymentRef != "" {
		rows = append(rows, row{"Payment Reference", inv.PaymentRef})
	}

	pdf.SetXY(15, 82)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(100, 7, "RESERVATION DETAILS:")
	y := 92.0
	for _, r := range rows {
		pdf.SetXY(15, y)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.Cell(60, 6, r.label)
		pdf.SetFont("Helvetica", "", 10)
		pdf.Cell(120, 6, r.value)
		y += 7
	}

	// Total
	y += 6
	pdf.SetXY(15, y)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(60, 8, "TOTAL")
	pdf.Cell(120, 8, utils.FormatCurrency(inv.Total))

	// Footer
	pdf.SetXY(15, y+22)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(108, 117, 125)
	pdf.Cell(180, 5, inv.Terms)
	pdf.SetXY(15, y+28)
	pdf.Cell(180, 5, "Thank you for choosing "+venueDisplayName+"!")

	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", err
	}
	return path, nil
}
