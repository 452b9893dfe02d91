package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nightelegance/reservation-app/utils"
)

// StripeConfig holds Stripe configuration
type StripeConfig struct {
	SecretKey      string
	PublishableKey string
	WebhookSecret  string
	Currency       string
	BaseURL        string
}

// StripeService handles Stripe API interactions. The booking service talks
// to it through the PaymentGateway interface only.
type StripeService struct {
	config     *StripeConfig
	httpClient *http.Client
}

// PaymentIntent is the slice of the gateway response the core cares about.
type PaymentIntent struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	ClientSecret string `json:"client_secret"`
}

const stripeDefaultBaseURL = "https://api.stripe.com"

var (
	stripeService *StripeService
	stripeOnce    sync.Once
)

// GetStripeService returns the singleton instance of StripeService.
func GetStripeService() *StripeService {
	stripeOnce.Do(func() {
		currency := os.Getenv("STRIPE_CURRENCY")
		if currency == "" {
			currency = "pkr"
		}
		baseURL := os.Getenv("STRIPE_API_URL")
		if baseURL == "" {
			baseURL = stripeDefaultBaseURL
		}

		stripeService = &StripeService{
			config: &StripeConfig{
				SecretKey:      os.Getenv("STRIPE_SECRET_KEY"),
				PublishableKey: os.Getenv("STRIPE_PUBLISHABLE_KEY"),
				WebhookSecret:  os.Getenv("STRIPE_WEBHOOK_SECRET"),
				Currency:       currency,
				BaseURL:        baseURL,
			},
			httpClient: &http.Client{
				Timeout: 30 * time.Second,
			},
		}
	})
	return stripeService
}

// NewStripeService builds a service with an explicit config, used by tests.
func NewStripeService(config *StripeConfig) *StripeService {
	if config.BaseURL == "" {
		config.BaseURL = stripeDefaultBaseURL
	}
	return &StripeService{
		config:     config,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// ValidateConfig validates Stripe configuration
func (ss *StripeService) ValidateConfig() error {
	if ss.config.SecretKey == "" {
		return fmt.Errorf("STRIPE_SECRET_KEY is not set")
	}
	if ss.config.PublishableKey == "" {
		return fmt.Errorf("STRIPE_PUBLISHABLE_KEY is not set")
	}
	if ss.config.WebhookSecret == "" {
		return fmt.Errorf("STRIPE_WEBHOOK_SECRET is not set")
	}
	if ss.config.Currency == "" {
		return fmt.Errorf("STRIPE_CURRENCY is not set")
	}
	return nil
}

// Currency returns the configured charge currency.
func (ss *StripeService) Currency() string {
	return ss.config.Currency
}

// CreateIntent creates a payment intent for the given amount in the smallest
// currency unit. Metadata ends up on the Stripe dashboard and in webhook
// events.
func (ss *StripeService) CreateIntent(amount int64, currency string, metadata map[string]string) (*PaymentIntent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amount, 10))
	form.Set("currency", currency)
	form.Add("payment_method_types[]", "card")
	for k, v := range metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	return ss.doIntentRequest("/v1/payment_intents", form)
}

// ConfirmIntent confirms a payment intent with the client-supplied payment
// method reference.
func (ss *StripeService) ConfirmIntent(intentID, paymentMethodID string) (*PaymentIntent, error) {
	form := url.Values{}
	form.Set("payment_method", paymentMethodID)

	return ss.doIntentRequest(fmt.Sprintf("/v1/payment_intents/%s/confirm", intentID), form)
}

// VoidOrRefund unwinds a charge after a late-stage conflict: cancel works for
// uncaptured intents, refund covers the already-captured case.
func (ss *StripeService) VoidOrRefund(intentID string) error {
	_, err := ss.doIntentRequest(fmt.Sprintf("/v1/payment_intents/%s/cancel", intentID), url.Values{})
	if err == nil {
		return nil
	}

	utils.InfoLogger.Printf("Cancel of intent %s failed (%v), falling back to refund", intentID, err)

	form := url.Values{}
	form.Set("payment_intent", intentID)
	if _, refundErr := ss.doIntentRequest("/v1/refunds", form); refundErr != nil {
		return fmt.Errorf("cancel failed (%v) and refund failed: %w", err, refundErr)
	}
	return nil
}

func (ss *StripeService) doIntentRequest(path string, form url.Values) (*PaymentIntent, error) {
	req, err := http.NewRequest(http.MethodPost, ss.config.BaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+ss.config.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Idempotency-Key", uuid.New().String())

	resp, err := ss.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request to stripe: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading stripe response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error struct {
				Type    string `json:"type"`
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("stripe error (%s): %s", apiErr.Error.Code, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("stripe returned status %d", resp.StatusCode)
	}

	var intent PaymentIntent
	if err := json.Unmarshal(body, &intent); err != nil {
		return nil, fmt.Errorf("error parsing stripe response: %w", err)
	}

	return &intent, nil
}

// ValidateSignature verifies a Stripe-Signature header against the raw
// webhook payload. The header carries a timestamp and one or more v1 HMAC
// signatures over "<timestamp>.<payload>".
func (ss *StripeService) ValidateSignature(payload []byte, header string, tolerance time.Duration) bool {
	if ss.config.WebhookSecret == "" || header == "" {
		return false
	}

	var timestamp string
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			timestamp = kv[1]
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return false
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	if tolerance > 0 {
		age := time.Since(time.Unix(ts, 0))
		if age > tolerance || age < -tolerance {
			return false
		}
	}

	mac := hmac.New(sha256.New, []byte(ss.config.WebhookSecret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, sig := range signatures {
		if hmac.Equal([]byte(expected), []byte(sig)) {
			return true
		}
	}
	return false
}
