package Controllers_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nightelegance/reservation-app/models"
	"github.com/nightelegance/reservation-app/services"
	"github.com/nightelegance/reservation-app/utils"
)

func performRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// asUser stands in for AuthMiddleware, injecting a verified identity.
func asUser(userID uint, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("role", role)
		c.Next()
	}
}

// stubGateway implements services.PaymentGateway without network calls.
type stubGateway struct {
	mu       sync.Mutex
	decline  bool
	created  int
	refunded []string
}

func (g *stubGateway) CreateIntent(amount int64, currency string, metadata map[string]string) (*services.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.created++
	return &services.PaymentIntent{
		ID:       fmt.Sprintf("pi_stub_%d", g.created),
		Status:   "requires_confirmation",
		Amount:   amount,
		Currency: currency,
	}, nil
}

func (g *stubGateway) ConfirmIntent(intentID, paymentMethodID string) (*services.PaymentIntent, error) {
	if g.decline {
		return &services.PaymentIntent{ID: intentID, Status: "requires_payment_method"}, nil
	}
	return &services.PaymentIntent{ID: intentID, Status: "succeeded"}, nil
}

func (g *stubGateway) VoidOrRefund(intentID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refunded = append(g.refunded, intentID)
	return nil
}

func (g *stubGateway) Currency() string { return "pkr" }

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	utils.InitLogger()
	gin.SetMode(gin.TestMode)

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Resource{},
		&models.Booking{},
		&models.Invoice{},
		&models.PaymentEvent{},
		&models.MaintenanceLog{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	db.Create(&models.User{Name: "Guest", Email: "guest@example.com", Password: "x", Role: models.RoleUser})
	db.Create(&models.User{Name: "Admin", Email: "admin@example.com", Password: "x", Role: models.RoleAdmin})
	db.Create(&models.Resource{Name: "Table 1", Category: models.ResourceCategoryTable, Capacity: 4, Price: 150, Status: models.ResourceStatusAvailable})
	db.Create(&models.Resource{Name: "Room 1", Category: models.ResourceCategoryRoom, Capacity: 2, Price: 500, Status: models.ResourceStatusAvailable})
	return db
}
