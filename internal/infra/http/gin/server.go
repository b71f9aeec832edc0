package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"hotelbook/internal/infra/config"
	"hotelbook/internal/infra/obs"
)

type BookingHTTP interface {
	Create(c *gin.Context)
	OpenOrder(c *gin.Context)
	VerifyPayment(c *gin.Context)
	WalletPayment(c *gin.Context)
	CancelRequest(c *gin.Context)
	CheckAvailability(c *gin.Context)
}

type MeHTTP interface {
	ListBookings(c *gin.Context)
	GetBooking(c *gin.Context)
	Transactions(c *gin.Context)
	UploadIDPhoto(c *gin.Context)
}

type ManagerHTTP interface {
	Reservations(c *gin.Context)
	Reservation(c *gin.Context)
	Transactions(c *gin.Context)
	Approve(c *gin.Context)
	Reject(c *gin.Context)
}

type AdminHTTP interface {
	Cancellations(c *gin.Context)
	Transactions(c *gin.Context)
}

type Handlers struct {
	Booking        BookingHTTP
	Me             MeHTTP
	Manager        ManagerHTTP
	Admin          AdminHTTP
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(obsMW.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Booking != nil {
		api.POST("/properties/:id/availability", h.Booking.CheckAvailability)

		bookings := api.Group("/bookings", RequireRole("guest"))
		bookings.POST("", h.Booking.Create)
		bookings.POST("/:id/payment-order", h.Booking.OpenOrder)
		bookings.POST("/:id/verify-payment", h.Booking.VerifyPayment)
		bookings.POST("/:id/wallet-payment", h.Booking.WalletPayment)
		bookings.POST("/:id/cancel-request", h.Booking.CancelRequest)
	}
	if h.Me != nil {
		me := api.Group("/me", RequireRole("guest"))
		me.GET("/bookings", h.Me.ListBookings)
		me.GET("/bookings/:id", h.Me.GetBooking)
		me.GET("/transactions", h.Me.Transactions)
		me.POST("/id-photos", h.Me.UploadIDPhoto)
	}
	if h.Manager != nil {
		manager := api.Group("/manager", RequireRole("manager"))
		manager.GET("/reservations", h.Manager.Reservations)
		manager.GET("/reservations/:id", h.Manager.Reservation)
		manager.GET("/transactions", h.Manager.Transactions)
		manager.POST("/cancellations/:bookingId/approve", h.Manager.Approve)
		manager.POST("/cancellations/:bookingId/reject", h.Manager.Reject)
	}
	if h.Admin != nil {
		admin := api.Group("/admin", RequireRole("admin"))
		admin.GET("/cancellations", h.Admin.Cancellations)
		admin.GET("/transactions", h.Admin.Transactions)
	}

	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
