package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nightelegance/reservation-app/frontdesk"
	"github.com/nightelegance/reservation-app/services"
	"github.com/nightelegance/reservation-app/utils"
	"gorm.io/gorm"
)

type BookingController struct {
	DB      *gorm.DB
	service *services.BookingService
}

func NewBookingController(db *gorm.DB) *BookingController {
	return &BookingController{
		DB:      db,
		service: services.NewBookingService(db, services.GetStripeService()),
	}
}

// NewBookingControllerWithGateway injects an alternate payment gateway,
// used by tests.
func NewBookingControllerWithGateway(db *gorm.DB, gateway services.PaymentGateway) *BookingController {
	return &BookingController{
		DB:      db,
		service: services.NewBookingService(db, gateway),
	}
}

// CreateBooking -> POST /api/bookings
func (bc *BookingController) CreateBooking(c *gin.Context) {
	userID, _, ok := requestIdentity(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, ErrNoPermission)
		return
	}

	var req struct {
		ResourceID      uint    `json:"resource_id" binding:"required"`
		Date            string  `json:"date" binding:"required"`
		StartTime       string  `json:"start_time" binding:"required"`
		EndTime         string  `json:"end_time" binding:"required"`
		Guests          int     `json:"guests" binding:"required"`
		PaymentMethod   string  `json:"payment_method" binding:"required"`
		TotalPrice      float64 `json:"total_price" binding:"required"`
		FullName        string  `json:"full_name"`
		Email           string  `json:"email"`
		Phone           string  `json:"phone"`
		SpecialRequests string  `json:"special_requests"`
		PaymentMethodID string  `json:"payment_method_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	booking, err := bc.service.CreateBooking(services.CreateBookingInput{
		ResourceID:      req.ResourceID,
		Date:            req.Date,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		Guests:          req.Guests,
		PaymentMethod:   req.PaymentMethod,
		TotalPrice:      req.TotalPrice,
		FullName:        req.FullName,
		Email:           req.Email,
		Phone:           req.Phone,
		SpecialRequests: req.SpecialRequests,
		PaymentMethodID: req.PaymentMethodID,
		UserID:          userID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	frontdesk.BroadcastBooking(frontdesk.EventBookingCreate, *booking)

	utils.InfoLogger.Printf("Booking %d created for resource %d on %s %s-%s",
		booking.ID, booking.ResourceID, booking.Date, booking.StartTime, booking.EndTime)
	utils.RespondJSON(c, http.StatusCreated, "Booking created successfully", booking)
}

// GetMyBookings -> GET /api/bookings
func (bc *BookingController) GetMyBookings(c *gin.Context) {
	userID, _, ok := requestIdentity(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, ErrNoPermission)
		return
	}

	bookings, err := bc.service.ListBookingsByUser(userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of bookings", bookings)
}

// GetAllBookings -> GET /api/bookings/all (admin)
func (bc *BookingController) GetAllBookings(c *gin.Context) {
	bookings, err := bc.service.ListAllBookings()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of all bookings", bookings)
}

// GetBookingByID -> GET /api/bookings/:booking_id
func (bc *BookingController) GetBookingByID(c *gin.Context) {
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

	booking, err := bc.service.GetBooking(bookingID, userID, role == "admin")
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Booking detail", booking)
}

// UpdateBooking -> PATCH /api/bookings/:booking_id
func (bc *BookingController) UpdateBooking(c *gin.Context) {
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

	var req struct {
		Date          *string `json:"date"`
		StartTime     *string `json:"start_time"`
		EndTime       *string `json:"end_time"`
		Guests        *int    `json:"guests"`
		PaymentMethod *string `json:"payment_method"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	booking, err := bc.service.UpdateBooking(bookingID, userID, role == "admin", services.UpdateBookingInput{
		Date:          req.Date,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Guests:        req.Guests,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	frontdesk.BroadcastBooking(frontdesk.EventBookingUpdate, *booking)

	utils.InfoLogger.Printf("Booking %d updated", booking.ID)
	utils.RespondJSON(c, http.StatusOK, "Booking updated", booking)
}

// CancelBooking -> DELETE /api/bookings/:booking_id
func (bc *BookingController) CancelBooking(c *gin.Context) {
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

	booking, err := bc.service.CancelBooking(bookingID, userID, role == "admin")
	if err != nil {
		respondServiceError(c, err)
		return
	}

	frontdesk.BroadcastBooking(frontdesk.EventBookingCancel, *booking)

	utils.InfoLogger.Printf("Booking %d cancelled", booking.ID)
	utils.RespondJSON(c, http.StatusOK, "Booking cancelled", gin.H{"id": booking.ID})
}

func parseIDParam(c *gin.Context, name string) (uint, error) {
	parsed, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, &CustomError{"invalid " + name}
	}
	return uint(parsed), nil
}
