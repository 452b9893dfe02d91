package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/nightelegance/reservation-app/utils"
)

func InvoiceLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		utils.InfoLogger.Printf("Serving invoice for booking ID: %s", c.Param("booking_id"))

		c.Next()

		if c.Writer.Status() >= 400 {
			utils.ErrorLogger.Printf("Failed to serve invoice for booking ID: %s (status %d)",
				c.Param("booking_id"), c.Writer.Status())
		}
	}
}
