package services

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/nightelegance/reservation-app/models"
	"github.com/nightelegance/reservation-app/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentGateway is the narrow slice of the payment provider the booking
// core depends on. StripeService implements it; tests substitute a fake.
type PaymentGateway interface {
	CreateIntent(amount int64, currency string, metadata map[string]string) (*PaymentIntent, error)
	ConfirmIntent(intentID, paymentMethodID string) (*PaymentIntent, error)
	VoidOrRefund(intentID string) error
	Currency() string
}

// BookingService orchestrates the booking lifecycle:
// validation -> availability -> payment -> transactional persistence ->
// resource status update.
type BookingService struct {
	db           *gorm.DB
	gateway      PaymentGateway
	availability *AvailabilityService
}

func NewBookingService(db *gorm.DB, gateway PaymentGateway) *BookingService {
	return &BookingService{
		db:           db,
		gateway:      gateway,
		availability: NewAvailabilityService(db),
	}
}

// Availability exposes the shared checker so controllers serve availability
// queries through the same predicate the lifecycle enforces.
func (s *BookingService) Availability() *AvailabilityService {
	return s.availability
}

// CreateBookingInput carries everything needed to create a booking. The
// user identity comes from the verified request context, never the body.
type CreateBookingInput struct {
	ResourceID      uint
	Date            string
	StartTime       string
	EndTime         string
	Guests          int
	PaymentMethod   string
	TotalPrice      float64
	FullName        string
	Email           string
	Phone           string
	SpecialRequests string
	PaymentMethodID string
	UserID          uint
}

// CreateBooking walks the Draft -> PendingPayment -> Confirmed transitions.
// Nothing is persisted until the payment (if any) has settled, and the
// availability predicate is re-evaluated inside the commit transaction, so a
// payment failure or a late conflict never leaves orphaned state.
func (s *BookingService) CreateBooking(in CreateBookingInput) (*models.Booking, error) {
	if in.ResourceID == 0 || in.Date == "" || in.StartTime == "" || in.EndTime == "" ||
		in.PaymentMethod == "" || in.UserID == 0 {
		return nil, fmt.Errorf("%w: missing required fields", ErrValidation)
	}
	if in.Guests <= 0 {
		return nil, fmt.Errorf("%w: guests must be a positive number", ErrValidation)
	}
	if in.TotalPrice <= 0 {
		return nil, fmt.Errorf("%w: total price must be a positive number", ErrValidation)
	}
	if _, err := time.Parse("2006-01-02", in.Date); err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}

	startMin, endMin, err := ValidateWindow(in.StartTime, in.EndTime)
	if err != nil {
		return nil, err
	}

	var resource models.Resource
	if err := s.db.First(&resource, in.ResourceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: resource %d", ErrNotFound, in.ResourceID)
		}
		return nil, err
	}

	// Pre-check before touching the gateway. The authoritative check runs
	// again inside the commit transaction below.
	available, _, err := s.availability.CheckResource(s.db, in.ResourceID, in.Date, startMin, endMin, 0)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, ErrResourceConflict
	}

	paymentStatus := models.PaymentStatusPending
	intentID := ""
	charged := false

	if in.PaymentMethod == models.PaymentMethodCard && in.PaymentMethodID != "" {
		intent, err := s.gateway.CreateIntent(
			int64(math.Round(in.TotalPrice*100)),
			s.gateway.Currency(),
			map[string]string{
				"resource_id":   fmt.Sprintf("%d", in.ResourceID),
				"resource_name": resource.Name,
				"date":          in.Date,
				"start_time":    in.StartTime,
				"end_time":      in.EndTime,
			},
		)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
		}

		confirmed, err := s.gateway.ConfirmIntent(intent.ID, in.PaymentMethodID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
		}
		if confirmed.Status != "succeeded" {
			return nil, fmt.Errorf("%w: gateway status %s", ErrPaymentFailed, confirmed.Status)
		}

		intentID = confirmed.ID
		paymentStatus = models.PaymentStatusSucceeded
		charged = true
	}

	booking := models.Booking{
		ResourceID:      in.ResourceID,
		ResourceName:    resource.Name,
		Date:            in.Date,
		StartTime:       in.StartTime,
		EndTime:         in.EndTime,
		StartMinutes:    startMin,
		EndMinutes:      endMin,
		Guests:          in.Guests,
		PaymentMethod:   in.PaymentMethod,
		TotalPrice:      in.TotalPrice,
		FullName:        in.FullName,
		Email:           in.Email,
		Phone:           in.Phone,
		SpecialRequests: in.SpecialRequests,
		PaymentStatus:   paymentStatus,
		PaymentIntentID: intentID,
		UserID:          in.UserID,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Lock the resource row so two concurrent creations for the same
		// resource serialize here. SQLite has no FOR UPDATE but serializes
		// writers on its own.
		lockQ := tx
		if tx.Dialector.Name() == "mysql" {
			lockQ = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var locked models.Resource
		if err := lockQ.First(&locked, in.ResourceID).Error; err != nil {
			return err
		}

		// Final re-check of the window, after payment has settled. Same
		// predicate as the pre-check, now atomic with the insert.
		available, _, err := s.availability.CheckResource(tx, in.ResourceID, in.Date, startMin, endMin, 0)
		if err != nil {
			return err
		}
		if !available {
			return ErrResourceConflict
		}

		if err := tx.Create(&booking).Error; err != nil {
			if isWindowConflictError(err) {
				return ErrResourceConflict
			}
			return err
		}

		locked.Status = models.ResourceStatusReserved
		return tx.Save(&locked).Error
	})

	if err != nil {
		// Void before responding: whatever made the transaction fail, the
		// caller must never stay charged for a booking that was not created.
		if charged {
			if refundErr := s.gateway.VoidOrRefund(intentID); refundErr != nil {
				utils.ErrorLogger.Printf("Failed to unwind intent %s after failed creation: %v", intentID, refundErr)
			} else {
				utils.InfoLogger.Printf("Voided intent %s after failed creation", intentID)
			}
		}
		if errors.Is(err, ErrResourceConflict) {
			return nil, ErrResourceConflict
		}
		return nil, err
	}

	booking.Status = booking.LifecycleStatus(time.Now())
	return &booking, nil
}

// UpdateBookingInput lists the mutable booking fields. The resource is
// immutable after creation; changing resource means cancel and recreate.
type UpdateBookingInput struct {
	Date          *string
	StartTime     *string
	EndTime       *string
	Guests        *int
	PaymentMethod *string
}

// UpdateBooking applies an owner (or admin) edit. Any change to the window
// re-runs the availability check excluding the booking's own id; on conflict
// the stored booking is left untouched.
func (s *BookingService) UpdateBooking(bookingID, userID uint, isAdmin bool, in UpdateBookingInput) (*models.Booking, error) {
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
	if !isAdmin && booking.IsPast(time.Now()) {
		return nil, ErrInvalidState
	}

	updated := booking
	windowChanged := false

	if in.Date != nil && *in.Date != booking.Date {
		if _, err := time.Parse("2006-01-02", *in.Date); err != nil {
			return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
		}
		updated.Date = *in.Date
		windowChanged = true
	}
	if in.StartTime != nil && *in.StartTime != booking.StartTime {
		updated.StartTime = *in.StartTime
		windowChanged = true
	}
	if in.EndTime != nil && *in.EndTime != booking.EndTime {
		updated.EndTime = *in.EndTime
		windowChanged = true
	}
	if in.Guests != nil {
		if *in.Guests <= 0 {
			return nil, fmt.Errorf("%w: guests must be a positive number", ErrValidation)
		}
		updated.Guests = *in.Guests
	}
	if in.PaymentMethod != nil && *in.PaymentMethod != "" {
		updated.PaymentMethod = *in.PaymentMethod
	}

	if !windowChanged {
		if err := s.db.Save(&updated).Error; err != nil {
			return nil, err
		}
		updated.Status = updated.LifecycleStatus(time.Now())
		return &updated, nil
	}

	startMin, endMin, err := ValidateWindow(updated.StartTime, updated.EndTime)
	if err != nil {
		return nil, err
	}
	updated.StartMinutes = startMin
	updated.EndMinutes = endMin

	// Window changes take the same lock + re-check path as creation, so two
	// concurrent moves (or a move racing a create) serialize on the resource
	// row instead of both passing a stale check.
	err = s.db.Transaction(func(tx *gorm.DB) error {
		lockQ := tx
		if tx.Dialector.Name() == "mysql" {
			lockQ = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var locked models.Resource
		if err := lockQ.First(&locked, booking.ResourceID).Error; err != nil {
			return err
		}

		available, _, err := s.availability.CheckResource(tx, booking.ResourceID, updated.Date, startMin, endMin, booking.ID)
		if err != nil {
			return err
		}
		if !available {
			return ErrResourceConflict
		}

		if err := tx.Save(&updated).Error; err != nil {
			if isWindowConflictError(err) {
				return ErrResourceConflict
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated.Status = updated.LifecycleStatus(time.Now())
	return &updated, nil
}

// CancelBooking removes a booking and recomputes the resource status from a
// fresh read after the delete has committed. Owners may cancel future
// bookings; admins may cancel anything, past included.
func (s *BookingService) CancelBooking(bookingID, userID uint, isAdmin bool) (*models.Booking, error) {
	var booking models.Booking
	if err := s.db.First(&booking, bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: booking %d", ErrNotFound, bookingID)
		}
		return nil, err
	}

	if !isAdmin {
		if booking.UserID != userID {
			return nil, ErrForbidden
		}
		if booking.IsPast(time.Now()) {
			return nil, ErrInvalidState
		}
	}

	if err := s.db.Delete(&models.Booking{}, booking.ID).Error; err != nil {
		return nil, err
	}

	if err := RefreshResourceStatus(s.db, booking.ResourceID); err != nil {
		utils.ErrorLogger.Printf("Failed to recompute status for resource %d: %v", booking.ResourceID, err)
	}

	booking.Status = booking.LifecycleStatus(time.Now())
	return &booking, nil
}

// GetBooking returns a booking visible to the requesting user.
func (s *BookingService) GetBooking(bookingID, userID uint, isAdmin bool) (*models.Booking, error) {
	var booking models.Booking
	if err := s.db.Preload("Resource").First(&booking, bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: booking %d", ErrNotFound, bookingID)
		}
		return nil, err
	}
	if !isAdmin && booking.UserID != userID {
		return nil, ErrForbidden
	}

	booking.Status = booking.LifecycleStatus(time.Now())
	return &booking, nil
}

// ListBookingsByUser returns the requesting user's bookings.
func (s *BookingService) ListBookingsByUser(userID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	if err := s.db.Preload("Resource").Where("user_id = ?", userID).Order("date, start_minutes").Find(&bookings).Error; err != nil {
		return nil, err
	}
	now := time.Now()
	for i := range bookings {
		bookings[i].Status = bookings[i].LifecycleStatus(now)
	}
	return bookings, nil
}

// ListAllBookings returns every booking, admin only (enforced by the caller).
func (s *BookingService) ListAllBookings() ([]models.Booking, error) {
	var bookings []models.Booking
	if err := s.db.Preload("Resource").Order("date, start_minutes").Find(&bookings).Error; err != nil {
		return nil, err
	}
	now := time.Now()
	for i := range bookings {
		bookings[i].Status = bookings[i].LifecycleStatus(now)
	}
	return bookings, nil
}

// RefreshResourceStatus recomputes the derived status of a resource from its
// active future bookings: Reserved when at least one exists, Available
// otherwise. A manually set Maintenance status is left alone.
func RefreshResourceStatus(db *gorm.DB, resourceID uint) error {
	var resource models.Resource
	if err := db.First(&resource, resourceID).Error; err != nil {
		return err
	}
	if resource.Status == models.ResourceStatusMaintenance {
		return nil
	}

	today := time.Now().Format("2006-01-02")
	var count int64
	err := db.Model(&models.Booking{}).
		Where("resource_id = ? AND date >= ? AND payment_status IN ?",
			resourceID, today, []string{models.PaymentStatusPending, models.PaymentStatusSucceeded}).
		Count(&count).Error
	if err != nil {
		return err
	}

	status := models.ResourceStatusAvailable
	if count > 0 {
		status = models.ResourceStatusReserved
	}
	if status == resource.Status {
		return nil
	}

	return db.Model(&models.Resource{}).Where("id = ?", resourceID).Update("status", status).Error
}

// isWindowConflictError recognizes the database-side overlap guard
// (the MySQL trigger signals with this message).
func isWindowConflictError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "booking window conflict")
}
