package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nightelegance/reservation-app/utils"
	"golang.org/x/time/rate"
)

// PaymentRateLimiter throttles the gateway webhook endpoint.
func PaymentRateLimiter() gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Every(time.Second), 10)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.JSON(429, gin.H{
				"error":   "Too many requests",
				"message": "Please wait before sending another payment event",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// LogPaymentRequest logs webhook request details
func LogPaymentRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		utils.InfoLogger.Printf(
			"Payment Event - Method: %s, Path: %s, Status: %d, Duration: %v",
			method, path, status, duration,
		)
	}
}
