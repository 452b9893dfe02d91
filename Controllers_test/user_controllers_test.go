package Controllers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/nightelegance/reservation-app/controllers"
	"github.com/nightelegance/reservation-app/middlewares"
	"github.com/nightelegance/reservation-app/models"
)

func setupUserRouter(db *gorm.DB) *gin.Engine {
	router := gin.Default()
	userCtrl := controllers.NewUserController(db)

	router.POST("/register", userCtrl.Register)
	router.POST("/login", userCtrl.Login)

	auth := router.Group("/api")
	auth.Use(middlewares.AuthMiddleware())
	auth.GET("/profile", userCtrl.GetProfile)
	auth.GET("/users", userCtrl.GetAllUsers)
	return router
}

func TestRegisterLoginProfileFlow(t *testing.T) {
	db := newTestDB(t)
	router := setupUserRouter(db)

	w := postJSON(t, router, "POST", "/register", map[string]interface{}{
		"name":     "New Guest",
		"email":    "New.Guest@Example.com",
		"password": "supersecret",
		"phone":    "0300-1112222",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	// Email is stored lowercased and the role cannot be chosen.
	var user models.User
	assert.NoError(t, db.Where("email = ?", "new.guest@example.com").First(&user).Error)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.NotEqual(t, "supersecret", user.Password)

	// Duplicate email is rejected.
	w = postJSON(t, router, "POST", "/register", map[string]interface{}{
		"name":     "Other",
		"email":    "new.guest@example.com",
		"password": "supersecret",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = postJSON(t, router, "POST", "/login", map[string]interface{}{
		"email":    "new.guest@example.com",
		"password": "supersecret",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var loginResp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &loginResp))
	token := loginResp["data"].(map[string]interface{})["token"].(string)
	assert.NotEmpty(t, token)

	req, _ := http.NewRequest("GET", "/api/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w2 := performRequest(router, req)
	assert.Equal(t, http.StatusOK, w2.Code)

	var profileResp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w2.Body.Bytes(), &profileResp))
	assert.Equal(t, "New Guest", profileResp["data"].(map[string]interface{})["name"])

	// A plain user may not list accounts.
	req, _ = http.NewRequest("GET", "/api/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w2 = performRequest(router, req)
	assert.Equal(t, http.StatusForbidden, w2.Code)
}

func TestLogin_RejectsBadCredentials(t *testing.T) {
	db := newTestDB(t)
	router := setupUserRouter(db)

	w := postJSON(t, router, "POST", "/register", map[string]interface{}{
		"name":     "Guest Two",
		"email":    "guest2@example.com",
		"password": "supersecret",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(t, router, "POST", "/login", map[string]interface{}{
		"email":    "guest2@example.com",
		"password": "wrongpassword",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postJSON(t, router, "POST", "/login", map[string]interface{}{
		"email":    "nobody@example.com",
		"password": "supersecret",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_RejectsMissingAndBadTokens(t *testing.T) {
	db := newTestDB(t)
	router := setupUserRouter(db)

	req, _ := http.NewRequest("GET", "/api/profile", nil)
	w := performRequest(router, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req, _ = http.NewRequest("GET", "/api/profile", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w = performRequest(router, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
