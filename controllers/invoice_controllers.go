package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nightelegance/reservation-app/services"
	"github.com/nightelegance/reservation-app/utils"
	"gorm.io/gorm"
)

type InvoiceController struct {
	DB      *gorm.DB
	service *services.InvoiceService
}

func NewInvoiceController(db *gorm.DB) *InvoiceController {
	return &InvoiceController{
		DB:      db,
		service: services.NewInvoiceService(db),
	}
}

// NewInvoiceControllerWithDir points the PDF renderer at a custom
// directory, used by tests.
func NewInvoiceControllerWithDir(db *gorm.DB, dir string) *InvoiceController {
	return &InvoiceController{
		DB:      db,
		service: services.NewInvoiceServiceWithDir(db, dir),
	}
}

// GenerateInvoice -> POST /api/bookings/:booking_id/invoice
func (ic *InvoiceController) GenerateInvoice(c *gin.Context) {
	userID, role, ok := requestIdentity(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, ErrNoPermission)
		return
	}
	bookingID, err := parseIDParam(c, "booking_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	invoice, err := ic.service.GenerateInvoice(bookingID, userID, role == "admin")
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Invoice generated", invoice)
}

// DownloadInvoice -> GET /api/bookings/:booking_id/invoice
// Streams the rendered PDF; 404 when no invoice has been generated yet.
func (ic *InvoiceController) DownloadInvoice(c *gin.Context) {
	userID, role, ok := requestIdentity(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, ErrNoPermission)
		return
	}
	bookingID, err := parseIDParam(c, "booking_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	invoice, err := ic.service.FindInvoice(bookingID, userID, role == "admin")
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+invoice.InvoiceNumber+".pdf")
	c.Header("Content-Type", "application/pdf")
	c.File(invoice.FilePath)
}
