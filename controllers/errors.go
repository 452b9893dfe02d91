package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nightelegance/reservation-app/services"
	"github.com/nightelegance/reservation-app/utils"
)

// ErrNoPermission is returned when a role check fails.
var ErrNoPermission = &CustomError{"You do not have permission"}

type CustomError struct {
	Message string
}

func (e *CustomError) Error() string {
	return e.Message
}

var errInternal = errors.New("internal server error")

// respondServiceError maps the service failure taxonomy onto HTTP statuses.
// Unrecognized errors are logged with full detail and surfaced generically.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrInvalidTimeRange),
		errors.Is(err, services.ErrInvalidState):
		utils.RespondError(c, http.StatusBadRequest, err)
	case errors.Is(err, services.ErrResourceConflict):
		utils.RespondError(c, http.StatusConflict, err)
	case errors.Is(err, services.ErrPaymentFailed):
		utils.RespondError(c, http.StatusPaymentRequired, err)
	case errors.Is(err, services.ErrNotFound):
		utils.RespondError(c, http.StatusNotFound, err)
	case errors.Is(err, services.ErrForbidden):
		utils.RespondError(c, http.StatusForbidden, err)
	default:
		utils.ErrorLogger.Printf("Internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		utils.RespondError(c, http.StatusInternalServerError, errInternal)
	}
}

// requestIdentity pulls the verified identity set by the auth middleware.
func requestIdentity(c *gin.Context) (uint, string, bool) {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		return 0, "", false
	}
	userID, ok := userIDVal.(uint)
	if !ok {
		return 0, "", false
	}
	roleVal, _ := c.Get("role")
	role, _ := roleVal.(string)
	return userID, role, true
}
