package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/shareit/service-booking/internal/application"
	"github.com/shareit/service-booking/pkg/auth"
	"github.com/shareit/service-booking/pkg/middleware"
	"github.com/shareit/service-booking/pkg/response"
)

// BookingStatsService provides aggregate booking statistics.
type BookingStatsService interface {
	GetBookingStats(ctx context.Context) (*application.BookingStatsDTO, error)
}

// AdminBookingHandler handles admin HTTP requests for booking management.
type AdminBookingHandler struct {
	service BookingStatsService
}

// NewAdminBookingHandler creates a new AdminBookingHandler.
func NewAdminBookingHandler(service BookingStatsService) *AdminBookingHandler {
	return &AdminBookingHandler{service: service}
}

// RegisterRoutes registers admin booking routes. Header identities never carry
// the admin role, so these routes are reachable only with a JWT.
func (h *AdminBookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	adminRole := middleware.RequireRole(auth.RoleAdmin)

	admin := r.Group("/admin")
	admin.Use(authMW, adminRole)
	{
		admin.GET("/stats/bookings", h.BookingStats)
	}
}

// BookingStats handles GET /admin/stats/bookings.
func (h *AdminBookingHandler) BookingStats(c *gin.Context) {
	stats, err := h.service.GetBookingStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}
