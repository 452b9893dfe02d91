package router

import (
	"github.com/gin-gonic/gin"
	"github.com/nightelegance/reservation-app/controllers"
	"github.com/nightelegance/reservation-app/middlewares"
	"gorm.io/gorm"
)

func SetupRouter(db *gorm.DB) *gin.Engine {
	r := gin.Default()

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())

	userCtrl := controllers.NewUserController(db)
	resourceCtrl := controllers.NewResourceController(db)
	bookingCtrl := controllers.NewBookingController(db)
	invoiceCtrl := controllers.NewInvoiceController(db)
	paymentCtrl := controllers.NewPaymentController(db)
	maintenanceCtrl := controllers.NewMaintenanceLogController(db)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}

	// Browsing and availability need no login.
	r.GET("/resources", resourceCtrl.GetAllResources)
	r.GET("/resources/availability", resourceCtrl.CheckAvailability)
	r.GET("/resources/:resource_id", resourceCtrl.GetResourceByID)

	// Gateway webhook: authenticated by signature, not by JWT.
	webhook := r.Group("/payments")
	webhook.Use(middlewares.PaymentRateLimiter(), middlewares.LogPaymentRequest())
	{
		webhook.POST("/webhook", paymentCtrl.HandleWebhook)
	}

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/api")
	auth.Use(middlewares.AuthMiddleware())

	auth.GET("/profile", userCtrl.GetProfile)

	// BOOKINGS
	auth.POST("/bookings", bookingCtrl.CreateBooking)
	auth.GET("/bookings", bookingCtrl.GetMyBookings)
	auth.GET("/bookings/:booking_id", bookingCtrl.GetBookingByID)
	auth.PATCH("/bookings/:booking_id", bookingCtrl.UpdateBooking)
	auth.DELETE("/bookings/:booking_id", bookingCtrl.CancelBooking)

	// INVOICES
	invoiceGroup := auth.Group("/bookings")
	invoiceGroup.Use(middlewares.InvoiceLoggerMiddleware())
	{
		invoiceGroup.POST("/:booking_id/invoice", invoiceCtrl.GenerateInvoice)
		invoiceGroup.GET("/:booking_id/invoice", invoiceCtrl.DownloadInvoice)
	}

	// ADMIN
	admin := auth.Group("/")
	admin.Use(middlewares.AdminOnly())
	{
		admin.GET("/users", userCtrl.GetAllUsers)
		admin.GET("/bookings/all", bookingCtrl.GetAllBookings)

		admin.POST("/resources", resourceCtrl.CreateResource)
		admin.PATCH("/resources/:resource_id", resourceCtrl.UpdateResource)
		admin.DELETE("/resources/:resource_id", resourceCtrl.DeleteResource)

		admin.GET("/maintenance-logs", maintenanceCtrl.GetAllMaintenanceLogs)
		admin.POST("/maintenance-logs", maintenanceCtrl.CreateMaintenanceLog)
		admin.GET("/maintenance-logs/:log_id", maintenanceCtrl.GetMaintenanceLogByID)
		admin.POST("/maintenance-logs/:log_id/close", maintenanceCtrl.CloseMaintenanceLog)
	}

	// WebSocket endpoint for frontdesk dashboards
	wsGroup := r.Group("/ws")
	wsGroup.Use(middlewares.WebSocketAuthMiddleware())
	{
		wsGroup.GET("/frontdesk", controllers.FrontdeskHandler)
	}

	return r
}
