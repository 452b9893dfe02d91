package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nightelegance/reservation-app/frontdesk"
	"github.com/nightelegance/reservation-app/models"
	"github.com/nightelegance/reservation-app/services"
	"github.com/nightelegance/reservation-app/utils"
	"gorm.io/gorm"
)

type ResourceController struct {
	DB           *gorm.DB
	availability *services.AvailabilityService
}

func NewResourceController(db *gorm.DB) *ResourceController {
	return &ResourceController{
		DB:           db,
		availability: services.NewAvailabilityService(db),
	}
}

// CreateResource -> admin adds a table or room
func (rc *ResourceController) CreateResource(c *gin.Context) {
	var req struct {
		Name        string  `json:"name" binding:"required"`
		Category    string  `json:"category" binding:"required"`
		Capacity    int     `json:"capacity" binding:"required"`
		Location    string  `json:"location"`
		Description string  `json:"description"`
		Price       float64 `json:"price"`
		Status      string  `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if req.Category != models.ResourceCategoryTable && req.Category != models.ResourceCategoryRoom {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("category must be %q or %q",
			models.ResourceCategoryTable, models.ResourceCategoryRoom))
		return
	}

	resource := models.Resource{
		Name:        req.Name,
		Category:    req.Category,
		Capacity:    req.Capacity,
		Location:    req.Location,
		Description: req.Description,
		Price:       req.Price,
		Status:      models.ResourceStatusAvailable,
	}
	if req.Status != "" {
		resource.Status = req.Status
	}

	if err := rc.DB.Create(&resource).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	frontdesk.BroadcastResource(resource, rc.getStatusCounts())

	utils.InfoLogger.Printf("New resource created: %s (%s, capacity=%d)", resource.Name, resource.Category, resource.Capacity)
	utils.RespondJSON(c, http.StatusCreated, "Resource created successfully", resource)
}

// GetAllResources -> public catalogue, optionally filtered by category
func (rc *ResourceController) GetAllResources(c *gin.Context) {
	q := rc.DB
	if category := c.Query("category"); category != "" {
		q = q.Where("category = ?", category)
	}
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var resources []models.Resource
	if err := q.Find(&resources).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of resources", resources)
}

// GetResourceByID -> detail of one resource
func (rc *ResourceController) GetResourceByID(c *gin.Context) {
	resourceID := c.Param("resource_id")
	var resource models.Resource
	if err := rc.DB.First(&resource, resourceID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Resource detail", resource)
}

// UpdateResource -> admin edits descriptive attributes
func (rc *ResourceController) UpdateResource(c *gin.Context) {
	resourceID := c.Param("resource_id")
	var req struct {
		Name        *string  `json:"name"`
		Capacity    *int     `json:"capacity"`
		Location    *string  `json:"location"`
		Description *string  `json:"description"`
		Price       *float64 `json:"price"`
		Status      *string  `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var resource models.Resource
	if err := rc.DB.First(&resource, resourceID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	if req.Name != nil {
		resource.Name = *req.Name
	}
	if req.Capacity != nil {
		resource.Capacity = *req.Capacity
	}
	if req.Location != nil {
		resource.Location = *req.Location
	}
	if req.Description != nil {
		resource.Description = *req.Description
	}
	if req.Price != nil {
		resource.Price = *req.Price
	}
	if req.Status != nil && *req.Status != "" {
		resource.Status = *req.Status
	}

	if err := rc.DB.Save(&resource).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	frontdesk.BroadcastResource(resource, rc.getStatusCounts())

	utils.InfoLogger.Printf("Resource %d updated (status=%s)", resource.ID, resource.Status)
	utils.RespondJSON(c, http.StatusOK, "Resource updated", resource)
}

// DeleteResource -> admin removes a resource without active bookings
func (rc *ResourceController) DeleteResource(c *gin.Context) {
	resourceID := c.Param("resource_id")
	var resource models.Resource
	if err := rc.DB.First(&resource, resourceID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	var active int64
	rc.DB.Model(&models.Booking{}).
		Where("resource_id = ? AND payment_status IN ?", resource.ID,
			[]string{models.PaymentStatusPending, models.PaymentStatusSucceeded}).
		Count(&active)
	if active > 0 {
		utils.RespondError(c, http.StatusConflict, errors.New("resource still has active bookings"))
		return
	}

	if err := rc.DB.Delete(&resource).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Resource %d deleted", resource.ID)
	utils.RespondJSON(c, http.StatusOK, "Resource deleted", gin.H{"id": resource.ID})
}

// CheckAvailability -> is this window free? One resource or the whole floor.
// Query: date, time, end_time, optional resource_id, optional
// exclude_booking_id (for in-place edits).
func (rc *ResourceController) CheckAvailability(c *gin.Context) {
	date := c.Query("date")
	startTime := c.Query("time")
	endTime := c.Query("end_time")
	if date == "" || startTime == "" || endTime == "" {
		utils.RespondError(c, http.StatusBadRequest,
			errors.New("date, time and end_time are required"))
		return
	}

	startMin, endMin, err := services.ValidateWindow(startTime, endTime)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	var excludeID uint
	if v := c.Query("exclude_booking_id"); v != "" {
		parsed, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, errors.New("invalid exclude_booking_id"))
			return
		}
		excludeID = uint(parsed)
	}

	if v := c.Query("resource_id"); v != "" && v != "all" {
		parsed, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, errors.New("invalid resource_id"))
			return
		}

		var resource models.Resource
		if err := rc.DB.First(&resource, uint(parsed)).Error; err != nil {
			utils.RespondError(c, http.StatusNotFound, err)
			return
		}

		available, conflicts, err := rc.availability.CheckResource(rc.DB, uint(parsed), date, startMin, endMin, excludeID)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		utils.RespondJSON(c, http.StatusOK, "Availability checked", gin.H{
			"resource_id":  resource.ID,
			"is_available": available,
			"conflicts":    conflicts,
		})
		return
	}

	results, err := rc.availability.CheckAll(date, startMin, endMin, excludeID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Availability checked", results)
}

// getStatusCounts computes live status counts for dashboard broadcasts.
func (rc *ResourceController) getStatusCounts() map[string]interface{} {
	var available, reserved, maintenance int64

	rc.DB.Model(&models.Resource{}).Where("status = ?", models.ResourceStatusAvailable).Count(&available)
	rc.DB.Model(&models.Resource{}).Where("status = ?", models.ResourceStatusReserved).Count(&reserved)
	rc.DB.Model(&models.Resource{}).Where("status = ?", models.ResourceStatusMaintenance).Count(&maintenance)

	return map[string]interface{}{
		"available":   available,
		"reserved":    reserved,
		"maintenance": maintenance,
		"total":       available + reserved + maintenance,
	}
}
