package services

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nightelegance/reservation-app/models"
	"github.com/nightelegance/reservation-app/utils"
)

// fakeGateway implements PaymentGateway in-memory. onConfirm runs between
// the availability pre-check and the commit transaction, which lets tests
// provoke the post-payment conflict path deterministically.
type fakeGateway struct {
	mu             sync.Mutex
	declineConfirm bool
	onConfirm      func()
	created        int
	refunded       []string
}

func (f *fakeGateway) CreateIntent(amount int64, currency string, metadata map[string]string) (*PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created++
	return &PaymentIntent{
		ID:       fmt.Sprintf("pi_fake_%d", f.created),
		Status:   "requires_confirmation",
		Amount:   amount,
		Currency: currency,
	}, nil
}

func (f *fakeGateway) ConfirmIntent(intentID, paymentMethodID string) (*PaymentIntent, error) {
	if f.onConfirm != nil {
		f.onConfirm()
	}
	if f.declineConfirm {
		return &PaymentIntent{ID: intentID, Status: "requires_payment_method"}, nil
	}
	return &PaymentIntent{ID: intentID, Status: "succeeded"}, nil
}

func (f *fakeGateway) VoidOrRefund(intentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refunded = append(f.refunded, intentID)
	return nil
}

func (f *fakeGateway) Currency() string { return "pkr" }

func setupBookingTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	utils.InitLogger()

	path := filepath.Join(t.TempDir(), "bookings.db")
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=10000&_txlock=immediate"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Resource{}, &models.Booking{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	db.Create(&models.User{Name: "Guest", Email: "guest@example.com", Password: "x", Role: models.RoleUser})
	db.Create(&models.Resource{Name: "Table 1", Category: models.ResourceCategoryTable, Capacity: 4, Price: 150, Status: models.ResourceStatusAvailable})
	db.Create(&models.Resource{Name: "Room 1", Category: models.ResourceCategoryRoom, Capacity: 2, Price: 500, Status: models.ResourceStatusAvailable})
	return db
}

func baseInput() CreateBookingInput {
	return CreateBookingInput{
		ResourceID:    1,
		Date:          "2031-05-20",
		StartTime:     "14:00",
		EndTime:       "15:00",
		Guests:        2,
		PaymentMethod: models.PaymentMethodOnArrival,
		TotalPrice:    150,
		FullName:      "Guest One",
		Email:         "guest@example.com",
		Phone:         "0300-0000000",
		UserID:        1,
	}
}

func TestCreateBooking_OverlapRejectedAdjacentAllowed(t *testing.T) {
	db := setupBookingTestDB(t)
	svc := NewBookingService(db, &fakeGateway{})

	first, err := svc.CreateBooking(baseInput())
	assert.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, first.Status)

	// Overlapping window on the same resource must be rejected.
	overlap := baseInput()
	overlap.StartTime = "14:30"
	overlap.EndTime = "15:30"
	_, err = svc.CreateBooking(overlap)
	assert.ErrorIs(t, err, ErrResourceConflict)

	// Back-to-back is not an overlap: [14:00,15:00) then [15:00,16:00).
	adjacent := baseInput()
	adjacent.StartTime = "15:00"
	adjacent.EndTime = "16:00"
	_, err = svc.CreateBooking(adjacent)
	assert.NoError(t, err)

	// Same window on a different resource is unaffected.
	other := baseInput()
	other.ResourceID = 2
	other.TotalPrice = 500
	_, err = svc.CreateBooking(other)
	assert.NoError(t, err)

	var count int64
	db.Model(&models.Booking{}).Count(&count)
	assert.Equal(t, int64(3), count)
}

func TestCreateBooking_TwelveHourClockEquivalence(t *testing.T) {
	db := setupBookingTestDB(t)
	svc := NewBookingService(db, &fakeGateway{})

	_, err := svc.CreateBooking(baseInput())
	assert.NoError(t, err)

	// "02:30 PM" is the same instant as "14:30"; the overlap must be caught.
	overlap := baseInput()
	overlap.StartTime = "02:30 PM"
	overlap.EndTime = "03:30 PM"
	_, err = svc.CreateBooking(overlap)
	assert.ErrorIs(t, err, ErrResourceConflict)
}

func TestCreateBooking_InvalidWindow(t *testing.T) {
	db := setupBookingTestDB(t)
	svc := NewBookingService(db, &fakeGateway{})

	in := baseInput()
	in.StartTime = "16:00"
	in.EndTime = "15:00"
	_, err := svc.CreateBooking(in)
	assert.ErrorIs(t, err, ErrInvalidTimeRange)

	in = baseInput()
	in.StartTime = "25:99"
	_, err = svc.CreateBooking(in)
	assert.ErrorIs(t, err, ErrValidation)

	var count int64
	db.Model(&models.Booking{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestCreateBooking_PaymentDeclinedPersistsNothing(t *testing.T) {
	db := setupBookingTestDB(t)
	gw := &fakeGateway{declineConfirm: true}
	svc := NewBookingService(db, gw)

	in := baseInput()
	in.PaymentMethod = models.PaymentMethodCard
	in.PaymentMethodID = "pm_card_visa"
	_, err := svc.CreateBooking(in)
	assert.ErrorIs(t, err, ErrPaymentFailed)

	var count int64
	db.Model(&models.Booking{}).Count(&count)
	assert.Equal(t, int64(0), count)

	var resource models.Resource
	db.First(&resource, 1)
	assert.Equal(t, models.ResourceStatusAvailable, resource.Status)
}

func TestCreateBooking_LateConflictRefundsCharge(t *testing.T) {
	db := setupBookingTestDB(t)
	gw := &fakeGateway{}

	// A competing booking lands while the charge is settling. The re-check
	// inside the commit transaction must catch it and unwind the charge.
	gw.onConfirm = func() {
		db.Create(&models.Booking{
			ResourceID:    1,
			ResourceName:  "Table 1",
			Date:          "2031-05-20",
			StartTime:     "14:00",
			EndTime:       "15:00",
			StartMinutes:  840,
			EndMinutes:    900,
			Guests:        2,
			PaymentMethod: models.PaymentMethodOnArrival,
			TotalPrice:    150,
			PaymentStatus: models.PaymentStatusPending,
			UserID:        1,
		})
	}
	svc := NewBookingService(db, gw)

	in := baseInput()
	in.PaymentMethod = models.PaymentMethodCard
	in.PaymentMethodID = "pm_card_visa"
	_, err := svc.CreateBooking(in)
	assert.ErrorIs(t, err, ErrResourceConflict)

	// Exactly the competing row remains, and the charge was unwound.
	var count int64
	db.Model(&models.Booking{}).Count(&count)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, []string{"pi_fake_1"}, gw.refunded)
}

func TestCreateBooking_ConcurrentSameWindow(t *testing.T) {
	db := setupBookingTestDB(t)
	svc := NewBookingService(db, &fakeGateway{})

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreateBooking(baseInput())
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		}
	}
	assert.Equal(t, 1, successes, "exactly one concurrent booking must win")

	var count int64
	db.Model(&models.Booking{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestUpdateBooking_ConflictLeavesStoredBookingUntouched(t *testing.T) {
	db := setupBookingTestDB(t)
	svc := NewBookingService(db, &fakeGateway{})

	_, err := svc.CreateBooking(baseInput())
	assert.NoError(t, err)

	second := baseInput()
	second.StartTime = "16:00"
	second.EndTime = "17:00"
	target, err := svc.CreateBooking(second)
	assert.NoError(t, err)

	// Moving the second booking onto the first must fail and change nothing.
	newStart, newEnd := "14:30", "15:30"
	_, err = svc.UpdateBooking(target.ID, 1, false, UpdateBookingInput{
		StartTime: &newStart,
		EndTime:   &newEnd,
	})
	assert.ErrorIs(t, err, ErrResourceConflict)

	var stored models.Booking
	db.First(&stored, target.ID)
	assert.Equal(t, "16:00", stored.StartTime)
	assert.Equal(t, "17:00", stored.EndTime)

	// Moving it to a free window succeeds.
	okStart, okEnd := "18:00", "19:00"
	updated, err := svc.UpdateBooking(target.ID, 1, false, UpdateBookingInput{
		StartTime: &okStart,
		EndTime:   &okEnd,
	})
	assert.NoError(t, err)
	assert.Equal(t, "18:00", updated.StartTime)
}

func TestUpdateBooking_ConcurrentMovesIntoSameWindow(t *testing.T) {
	db := setupBookingTestDB(t)
	svc := NewBookingService(db, &fakeGateway{})

	first, err := svc.CreateBooking(baseInput())
	assert.NoError(t, err)

	second := baseInput()
	second.StartTime = "16:00"
	second.EndTime = "17:00"
	target, err := svc.CreateBooking(second)
	assert.NoError(t, err)

	// Both bookings race to claim the free [18:00,19:00) window. Only one
	// move may land; the loser keeps its original window.
	newStart, newEnd := "18:00", "19:00"
	ids := []uint{first.ID, target.ID}
	errs := make([]error, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id uint) {
			defer wg.Done()
			_, errs[i] = svc.UpdateBooking(id, 1, false, UpdateBookingInput{
				StartTime: &newStart,
				EndTime:   &newEnd,
			})
		}(i, id)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, ErrResourceConflict)
		}
	}
	assert.Equal(t, 1, successes, "exactly one concurrent move must win")

	var count int64
	db.Model(&models.Booking{}).
		Where("start_minutes = ? AND end_minutes = ?", 1080, 1140).
		Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestCreateBooking_StoreFaultAfterChargeRefunds(t *testing.T) {
	db := setupBookingTestDB(t)
	gw := &fakeGateway{}

	// The store breaks between payment settlement and commit. The failure is
	// not a conflict, but the charge must still be unwound.
	gw.onConfirm = func() {
		db.Exec("DROP TABLE resources")
	}
	svc := NewBookingService(db, gw)

	in := baseInput()
	in.PaymentMethod = models.PaymentMethodCard
	in.PaymentMethodID = "pm_card_visa"
	_, err := svc.CreateBooking(in)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrResourceConflict)
	assert.Equal(t, []string{"pi_fake_1"}, gw.refunded)

	var count int64
	db.Model(&models.Booking{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestUpdateBooking_Permissions(t *testing.T) {
	db := setupBookingTestDB(t)
	svc := NewBookingService(db, &fakeGateway{})

	booking, err := svc.CreateBooking(baseInput())
	assert.NoError(t, err)

	guests := 4
	_, err = svc.UpdateBooking(booking.ID, 99, false, UpdateBookingInput{Guests: &guests})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.UpdateBooking(booking.ID, 99, true, UpdateBookingInput{Guests: &guests})
	assert.NoError(t, err)
}

func TestUpdateBooking_PastDateBlockedForOwnerNotAdmin(t *testing.T) {
	db := setupBookingTestDB(t)
	svc := NewBookingService(db, &fakeGateway{})

	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	past := models.Booking{
		ResourceID:    1,
		ResourceName:  "Table 1",
		Date:          yesterday,
		StartTime:     "14:00",
		EndTime:       "15:00",
		StartMinutes:  840,
		EndMinutes:    900,
		Guests:        2,
		PaymentMethod: models.PaymentMethodOnArrival,
		TotalPrice:    150,
		PaymentStatus: models.PaymentStatusSucceeded,
		UserID:        1,
	}
	db.Create(&past)

	guests := 3
	_, err := svc.UpdateBooking(past.ID, 1, false, UpdateBookingInput{Guests: &guests})
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = svc.UpdateBooking(past.ID, 1, true, UpdateBookingInput{Guests: &guests})
	assert.NoError(t, err)
}

func TestCancelBooking_RestoresResourceStatus(t *testing.T) {
	db := setupBookingTestDB(t)
	svc := NewBookingService(db, &fakeGateway{})

	booking, err := svc.CreateBooking(baseInput())
	assert.NoError(t, err)

	var resource models.Resource
	db.First(&resource, 1)
	assert.Equal(t, models.ResourceStatusReserved, resource.Status)

	_, err = svc.CancelBooking(booking.ID, 1, false)
	assert.NoError(t, err)

	db.First(&resource, 1)
	assert.Equal(t, models.ResourceStatusAvailable, resource.Status)

	var count int64
	db.Model(&models.Booking{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestCancelBooking_KeepsReservedWhileOthersRemain(t *testing.T) {
	db := setupBookingTestDB(t)
	svc := NewBookingService(db, &fakeGateway{})

	first, err := svc.CreateBooking(baseInput())
	assert.NoError(t, err)

	second := baseInput()
	second.StartTime = "16:00"
	second.EndTime = "17:00"
	_, err = svc.CreateBooking(second)
	assert.NoError(t, err)

	_, err = svc.CancelBooking(first.ID, 1, false)
	assert.NoError(t, err)

	var resource models.Resource
	db.First(&resource, 1)
	assert.Equal(t, models.ResourceStatusReserved, resource.Status)
}

func TestCancelBooking_PermissionRules(t *testing.T) {
	db := setupBookingTestDB(t)
	svc := NewBookingService(db, &fakeGateway{})

	booking, err := svc.CreateBooking(baseInput())
	assert.NoError(t, err)

	_, err = svc.CancelBooking(booking.ID, 99, false)
	assert.ErrorIs(t, err, ErrForbidden)

	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	past := models.Booking{
		ResourceID:    1,
		Date:          yesterday,
		StartTime:     "10:00",
		EndTime:       "11:00",
		StartMinutes:  600,
		EndMinutes:    660,
		Guests:        2,
		PaymentMethod: models.PaymentMethodOnArrival,
		TotalPrice:    150,
		PaymentStatus: models.PaymentStatusSucceeded,
		UserID:        1,
	}
	db.Create(&past)

	// Owners cannot cancel history; admins can.
	_, err = svc.CancelBooking(past.ID, 1, false)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = svc.CancelBooking(past.ID, 1, true)
	assert.NoError(t, err)
}

func TestRefreshResourceStatus_MaintenanceWins(t *testing.T) {
	db := setupBookingTestDB(t)

	db.Model(&models.Resource{}).Where("id = ?", 1).Update("status", models.ResourceStatusMaintenance)

	err := RefreshResourceStatus(db, 1)
	assert.NoError(t, err)

	var resource models.Resource
	db.First(&resource, 1)
	assert.Equal(t, models.ResourceStatusMaintenance, resource.Status)
}

func TestLifecycleStatus_CompletedIsDerived(t *testing.T) {
	now := time.Date(2031, 5, 21, 12, 0, 0, 0, time.UTC)

	past := models.Booking{Date: "2031-05-20", PaymentStatus: models.PaymentStatusSucceeded}
	assert.Equal(t, models.BookingStatusCompleted, past.LifecycleStatus(now))

	future := models.Booking{Date: "2031-05-22", PaymentStatus: models.PaymentStatusSucceeded}
	assert.Equal(t, models.BookingStatusConfirmed, future.LifecycleStatus(now))
}

func TestIsWindowConflictError(t *testing.T) {
	assert.True(t, isWindowConflictError(errors.New("Error 1644: booking window conflict")))
	assert.False(t, isWindowConflictError(errors.New("some other failure")))
	assert.False(t, isWindowConflictError(nil))
}
