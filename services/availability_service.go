package services

import (
	"fmt"

	"github.com/nightelegance/reservation-app/models"
	"github.com/nightelegance/reservation-app/utils"
	"gorm.io/gorm"
)

// ConflictWindow describes an occupied window on a resource. Only date and
// time fields are exposed; contact data never leaves the availability query.
type ConflictWindow struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// ResourceAvailability is one row of the all-resources availability answer.
type ResourceAvailability struct {
	Resource struct {
		ID          uint   `json:"id"`
		Name        string `json:"name"`
		Category    string `json:"category"`
		Capacity    int    `json:"capacity"`
		Status      string `json:"status"`
		Location    string `json:"location"`
		Description string `json:"description"`
	} `json:"resource"`
	IsAvailable bool             `json:"is_available"`
	Status      string           `json:"status"`
	Conflicts   []ConflictWindow `json:"conflicts"`
}

// AvailabilityService answers whether a resource/date/window is free of
// conflicting active bookings. The booking lifecycle reuses the exact same
// check inside its commit transaction, so the decision cannot drift between
// "check" and "act".
type AvailabilityService struct {
	db *gorm.DB
}

func NewAvailabilityService(db *gorm.DB) *AvailabilityService {
	return &AvailabilityService{db: db}
}

// ValidateWindow normalizes a start/end pair and enforces end > start.
func ValidateWindow(startTime, endTime string) (int, int, error) {
	startMin, err := utils.NormalizeTime(startTime)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	endMin, err := utils.NormalizeTime(endTime)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if endMin <= startMin {
		return 0, 0, ErrInvalidTimeRange
	}
	return startMin, endMin, nil
}

// activeBookings fetches the bookings that count for conflict purposes:
// payment pending or succeeded, on the given resource and date, minus the
// excluded booking (used for in-place edits).
func activeBookings(db *gorm.DB, resourceID uint, date string, excludeBookingID uint) ([]models.Booking, error) {
	q := db.Where("resource_id = ? AND date = ? AND payment_status IN ?",
		resourceID, date, []string{models.PaymentStatusPending, models.PaymentStatusSucceeded})
	if excludeBookingID != 0 {
		q = q.Where("id <> ?", excludeBookingID)
	}

	var bookings []models.Booking
	if err := q.Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

// CheckResource reports whether [startMin, endMin) is free on the resource
// for the given date, along with the conflicting windows. The db handle is
// explicit so the booking service can re-run the same predicate inside its
// commit transaction.
func (s *AvailabilityService) CheckResource(db *gorm.DB, resourceID uint, date string, startMin, endMin int, excludeBookingID uint) (bool, []ConflictWindow, error) {
	if endMin <= startMin {
		return false, nil, ErrInvalidTimeRange
	}

	bookings, err := activeBookings(db, resourceID, date, excludeBookingID)
	if err != nil {
		return false, nil, err
	}

	var conflicts []ConflictWindow
	for _, b := range bookings {
		existingStart, err := utils.NormalizeTime(b.StartTime)
		if err != nil {
			utils.ErrorLogger.Printf("Booking %d has unparseable start time %q", b.ID, b.StartTime)
			continue
		}
		existingEnd, err := utils.NormalizeTime(b.EndTime)
		if err != nil {
			utils.ErrorLogger.Printf("Booking %d has unparseable end time %q", b.ID, b.EndTime)
			continue
		}

		if utils.IntervalsOverlap(startMin, endMin, existingStart, existingEnd) {
			conflicts = append(conflicts, ConflictWindow{
				Date:      b.Date,
				StartTime: b.StartTime,
				EndTime:   b.EndTime,
			})
		}
	}

	return len(conflicts) == 0, conflicts, nil
}

// CheckAll runs the window check against every resource and returns one row
// per resource: an availability flag plus conflicting windows, date/time only.
func (s *AvailabilityService) CheckAll(date string, startMin, endMin int, excludeBookingID uint) ([]ResourceAvailability, error) {
	if endMin <= startMin {
		return nil, ErrInvalidTimeRange
	}

	var resources []models.Resource
	if err := s.db.Find(&resources).Error; err != nil {
		return nil, err
	}

	results := make([]ResourceAvailability, 0, len(resources))
	for _, r := range resources {
		available, conflicts, err := s.CheckResource(s.db, r.ID, date, startMin, endMin, excludeBookingID)
		if err != nil {
			return nil, err
		}

		var row ResourceAvailability
		row.Resource.ID = r.ID
		row.Resource.Name = r.Name
		row.Resource.Category = r.Category
		row.Resource.Capacity = r.Capacity
		row.Resource.Status = r.Status
		row.Resource.Location = r.Location
		row.Resource.Description = r.Description
		row.IsAvailable = available
		row.Status = models.ResourceStatusAvailable
		if !available {
			row.Status = models.ResourceStatusReserved
		}
		row.Conflicts = conflicts
		results = append(results, row)
	}

	return results, nil
}
