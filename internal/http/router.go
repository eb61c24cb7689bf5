// README: HTTP router registration.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"safari/internal/http/handlers"
	"safari/internal/http/middleware"
)

type RouterDeps struct {
	Pricing     handlers.PricingService
	Booking     handlers.BookingService
	Log         *zap.Logger
	CORSOrigins []string
	// Ready reports whether backing stores are reachable. Nil means always ready.
	Ready func(ctx context.Context) error
}

func NewRouter(d RouterDeps) *gin.Engine {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logging(log), middleware.Recovery(log), middleware.CORS(d.CORSOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/ready", func(c *gin.Context) {
		if d.Ready != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := d.Ready(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	pricingHandler := handlers.NewPricingHandler(d.Pricing)
	api.GET("/pricing", pricingHandler.Current)
	api.PUT("/pricing", pricingHandler.Update)
	api.GET("/pricing/history", pricingHandler.History)
	api.GET("/pricing/versions/:id", pricingHandler.Version)
	api.POST("/pricing/quote", pricingHandler.Quote)

	bookingHandler := handlers.NewBookingHandler(d.Booking)
	api.POST("/bookings", bookingHandler.Create)
	api.GET("/bookings", bookingHandler.List)
	api.GET("/bookings/calendar", bookingHandler.Calendar)
	api.GET("/bookings/:id", bookingHandler.Get)
	api.DELETE("/bookings/:id", bookingHandler.Delete)
	api.POST("/bookings/:id/confirm", bookingHandler.Confirm)
	api.POST("/bookings/:id/cancel", bookingHandler.Cancel)
	api.POST("/bookings/:id/complete", bookingHandler.Complete)
	api.GET("/bookings/:id/events", bookingHandler.Events)
	api.GET("/bookings/:id/invoice", bookingHandler.Invoice)

	return r
}
