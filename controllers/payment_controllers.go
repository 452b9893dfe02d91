package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nightelegance/reservation-app/frontdesk"
	"github.com/nightelegance/reservation-app/models"
	"github.com/nightelegance/reservation-app/services"
	"github.com/nightelegance/reservation-app/utils"
	"gorm.io/gorm"
)

const webhookTolerance = 5 * time.Minute

type PaymentController struct {
	DB     *gorm.DB
	stripe *services.StripeService
}

func NewPaymentController(db *gorm.DB) *PaymentController {
	return &PaymentController{
		DB:     db,
		stripe: services.GetStripeService(),
	}
}

// NewPaymentControllerWithStripe injects a configured Stripe service,
// used by tests.
func NewPaymentControllerWithStripe(db *gorm.DB, stripe *services.StripeService) *PaymentController {
	return &PaymentController{DB: db, stripe: stripe}
}

// HandleWebhook -> POST /payments/webhook
// Verifies the Stripe signature over the raw body, records the event, and
// reconciles late payment failures against stored bookings. Bookings are
// confirmed synchronously at creation time; the webhook is an audit trail
// and a safety net, not the confirmation path.
func (pc *PaymentController) HandleWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("unable to read payload"))
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if !pc.stripe.ValidateSignature(payload, signature, webhookTolerance) {
		utils.ErrorLogger.Printf("Webhook signature verification failed from %s", c.ClientIP())
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid signature"))
		return
	}

	var event struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("malformed event payload"))
		return
	}

	// Duplicate deliveries are acknowledged without reprocessing.
	var existing int64
	pc.DB.Model(&models.PaymentEvent{}).Where("event_id = ?", event.ID).Count(&existing)
	if existing > 0 {
		utils.RespondJSON(c, http.StatusOK, "Event already processed", gin.H{"event_id": event.ID})
		return
	}

	record := models.PaymentEvent{
		EventID:   event.ID,
		EventType: event.Type,
		IntentID:  event.Data.Object.ID,
		Status:    event.Data.Object.Status,
		Payload:   string(payload),
	}
	if err := pc.DB.Create(&record).Error; err != nil {
		utils.ErrorLogger.Printf("Failed to persist payment event %s: %v", event.ID, err)
		utils.RespondError(c, http.StatusInternalServerError, errors.New("failed to record event"))
		return
	}

	pc.reconcile(event.Type, event.Data.Object.ID)

	frontdesk.BroadcastMessage(frontdesk.Message{
		Event: frontdesk.EventPaymentEvent,
		Data: map[string]interface{}{
			"event_id":  event.ID,
			"type":      event.Type,
			"intent_id": event.Data.Object.ID,
		},
	})

	utils.InfoLogger.Printf("Payment event %s (%s) recorded", event.ID, event.Type)
	utils.RespondJSON(c, http.StatusOK, "Event received", gin.H{"event_id": event.ID})
}

// reconcile flips stored payment statuses when the gateway reports a state
// the synchronous flow missed.
func (pc *PaymentController) reconcile(eventType, intentID string) {
	if intentID == "" {
		return
	}

	var status string
	switch eventType {
	case "payment_intent.payment_failed", "payment_intent.canceled":
		status = models.PaymentStatusFailed
	case "charge.refunded":
		status = models.PaymentStatusRefunded
	default:
		return
	}

	result := pc.DB.Model(&models.Booking{}).
		Where("payment_intent_id = ? AND payment_status <> ?", intentID, status).
		Update("payment_status", status)
	if result.Error != nil {
		utils.ErrorLogger.Printf("Failed to reconcile intent %s to %s: %v", intentID, status, result.Error)
		return
	}
	if result.RowsAffected > 0 {
		utils.InfoLogger.Printf("Reconciled %d booking(s) on intent %s to %s", result.RowsAffected, intentID, status)

		var booking models.Booking
		if err := pc.DB.Where("payment_intent_id = ?", intentID).First(&booking).Error; err == nil {
			if err := services.RefreshResourceStatus(pc.DB, booking.ResourceID); err != nil {
				utils.ErrorLogger.Printf("Failed to recompute status for resource %d: %v", booking.ResourceID, err)
			}
		}
	}
}
