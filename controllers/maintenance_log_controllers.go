package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nightelegance/reservation-app/frontdesk"
	"github.com/nightelegance/reservation-app/models"
	"github.com/nightelegance/reservation-app/services"
	"github.com/nightelegance/reservation-app/utils"
	"gorm.io/gorm"
)

type MaintenanceLogController struct {
	DB *gorm.DB
}

func NewMaintenanceLogController(db *gorm.DB) *MaintenanceLogController {
	return &MaintenanceLogController{DB: db}
}

// GetAllMaintenanceLogs
func (mlc *MaintenanceLogController) GetAllMaintenanceLogs(c *gin.Context) {
	var logs []models.MaintenanceLog
	if err := mlc.DB.Preload("Staff").Preload("Resource").Find(&logs).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "All maintenance logs", logs)
}

// CreateMaintenanceLog -> opens a maintenance window and takes the resource
// out of the bookable pool.
func (mlc *MaintenanceLogController) CreateMaintenanceLog(c *gin.Context) {
	userID, _, ok := requestIdentity(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, ErrNoPermission)
		return
	}

	type reqBody struct {
		ResourceID uint   `json:"resource_id" binding:"required"`
		Notes      string `json:"notes"`
	}
	var body reqBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var resource models.Resource
	if err := mlc.DB.First(&resource, body.ResourceID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	logEntry := models.MaintenanceLog{
		ResourceID: body.ResourceID,
		StaffID:    userID,
		Notes:      body.Notes,
		StartedAt:  time.Now(),
	}

	if err := mlc.DB.Create(&logEntry).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	resource.Status = models.ResourceStatusMaintenance
	if err := mlc.DB.Save(&resource).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	frontdesk.BroadcastMessage(frontdesk.Message{
		Event: frontdesk.EventMaintenanceUpdate,
		Data: map[string]interface{}{
			"log_id":      logEntry.ID,
			"resource_id": resource.ID,
			"status":      resource.Status,
		},
	})

	utils.InfoLogger.Printf("Maintenance opened on resource %d by user %d", resource.ID, userID)
	utils.RespondJSON(c, http.StatusCreated, "Maintenance log created", logEntry)
}

// GetMaintenanceLogByID
func (mlc *MaintenanceLogController) GetMaintenanceLogByID(c *gin.Context) {
	idStr := c.Param("log_id")
	id, _ := strconv.Atoi(idStr)

	var logEntry models.MaintenanceLog
	if err := mlc.DB.Preload("Staff").Preload("Resource").First(&logEntry, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Maintenance log detail", logEntry)
}

// CloseMaintenanceLog -> finishes the window and recomputes the resource
// status from its remaining bookings.
func (mlc *MaintenanceLogController) CloseMaintenanceLog(c *gin.Context) {
	idStr := c.Param("log_id")
	id, _ := strconv.Atoi(idStr)

	type reqBody struct {
		Notes string `json:"notes"`
	}
	// Body is optional on close.
	var body reqBody
	_ = c.ShouldBindJSON(&body)

	var logEntry models.MaintenanceLog
	if err := mlc.DB.First(&logEntry, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	if logEntry.FinishedAt != nil {
		utils.RespondError(c, http.StatusConflict, errors.New("maintenance log is already closed"))
		return
	}

	now := time.Now()
	logEntry.FinishedAt = &now
	if body.Notes != "" {
		logEntry.Notes = body.Notes
	}

	if err := mlc.DB.Save(&logEntry).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	// Leaving maintenance: recompute from bookings, but only if no other
	// maintenance window is still open on the resource.
	var open int64
	mlc.DB.Model(&models.MaintenanceLog{}).
		Where("resource_id = ? AND finished_at IS NULL", logEntry.ResourceID).
		Count(&open)
	if open == 0 {
		mlc.DB.Model(&models.Resource{}).
			Where("id = ?", logEntry.ResourceID).
			Update("status", models.ResourceStatusAvailable)
		if err := services.RefreshResourceStatus(mlc.DB, logEntry.ResourceID); err != nil {
			utils.ErrorLogger.Printf("Failed to recompute status for resource %d: %v", logEntry.ResourceID, err)
		}
	}

	frontdesk.BroadcastMessage(frontdesk.Message{
		Event: frontdesk.EventMaintenanceUpdate,
		Data: map[string]interface{}{
			"log_id":      logEntry.ID,
			"resource_id": logEntry.ResourceID,
			"finished_at": logEntry.FinishedAt,
		},
	})

	utils.InfoLogger.Printf("Maintenance log %d closed for resource %d", logEntry.ID, logEntry.ResourceID)
	utils.RespondJSON(c, http.StatusOK, "Maintenance log closed", logEntry)
}
