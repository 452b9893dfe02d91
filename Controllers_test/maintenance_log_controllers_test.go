package Controllers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/nightelegance/reservation-app/controllers"
	"github.com/nightelegance/reservation-app/models"
)

func setupMaintenanceRouter(db *gorm.DB) *gin.Engine {
	router := gin.Default()
	maintenanceCtrl := controllers.NewMaintenanceLogController(db)
	bookingCtrl := controllers.NewBookingControllerWithGateway(db, &stubGateway{})

	admin := router.Group("/api")
	admin.Use(asUser(2, models.RoleAdmin))
	admin.GET("/maintenance-logs", maintenanceCtrl.GetAllMaintenanceLogs)
	admin.POST("/maintenance-logs", maintenanceCtrl.CreateMaintenanceLog)
	admin.POST("/maintenance-logs/:log_id/close", maintenanceCtrl.CloseMaintenanceLog)

	user := router.Group("/user")
	user.Use(asUser(1, models.RoleUser))
	user.POST("/bookings", bookingCtrl.CreateBooking)
	return router
}

func TestMaintenanceLifecycle(t *testing.T) {
	db := newTestDB(t)
	router := setupMaintenanceRouter(db)

	w := postJSON(t, router, "POST", "/api/maintenance-logs", map[string]interface{}{
		"resource_id": 1,
		"notes":       "broken leg on chair 3",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	var resource models.Resource
	db.First(&resource, 1)
	assert.Equal(t, models.ResourceStatusMaintenance, resource.Status)

	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	logID := int(resp["data"].(map[string]interface{})["id"].(float64))
	closeURL := fmt.Sprintf("/api/maintenance-logs/%d/close", logID)

	w = postJSON(t, router, "POST", closeURL, map[string]interface{}{})
	assert.Equal(t, http.StatusOK, w.Code)

	db.First(&resource, 1)
	assert.Equal(t, models.ResourceStatusAvailable, resource.Status)

	// Closing twice is a conflict.
	w = postJSON(t, router, "POST", closeURL, map[string]interface{}{})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestMaintenanceStatusSurvivesBookingCancel(t *testing.T) {
	db := newTestDB(t)
	router := setupMaintenanceRouter(db)

	// A booking exists, then the resource goes into maintenance.
	w := postJSON(t, router, "POST", "/user/bookings", bookingPayload())
	assert.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(t, router, "POST", "/api/maintenance-logs", map[string]interface{}{
		"resource_id": 1,
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	// Closing while an active booking remains lands on Reserved, not Available.
	w = postJSON(t, router, "POST", "/api/maintenance-logs/1/close", map[string]interface{}{})
	assert.Equal(t, http.StatusOK, w.Code)

	var resource models.Resource
	db.First(&resource, 1)
	assert.Equal(t, models.ResourceStatusReserved, resource.Status)
}
