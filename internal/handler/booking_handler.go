package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shareit/service-booking/internal/application"
	bookingDomain "github.com/shareit/service-booking/internal/domain/booking"
	"github.com/shareit/service-booking/pkg/auth"
	"github.com/shareit/service-booking/pkg/middleware"
	"github.com/shareit/service-booking/pkg/response"
)

// BookingService is the set of booking use cases exposed over HTTP.
type BookingService interface {
	CreateBooking(ctx context.Context, bookerID uuid.UUID, req application.CreateBookingRequest) (*application.BookingView, error)
	ApproveBooking(ctx context.Context, actingUserID, bookingID uuid.UUID, approved bool) (*application.BookingView, error)
	GetBooking(ctx context.Context, requestingUserID, bookingID uuid.UUID) (*application.BookingView, error)
	ListBookerBookings(ctx context.Context, userID uuid.UUID, state bookingDomain.BookingState) ([]application.BookingView, error)
	ListOwnerBookings(ctx context.Context, userID uuid.UUID, state bookingDomain.BookingState) ([]application.BookingView, error)
	GetItemBookingSummary(ctx context.Context, userID, itemID uuid.UUID) (*application.ItemBookingSummary, error)
	CanReview(ctx context.Context, userID, itemID uuid.UUID) (bool, error)
}

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// RegisterRoutes registers all booking routes on the given router group.
// A nil jwtManager means identity comes from the X-Sharer-User-Id header.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	bookings := r.Group("/bookings")
	bookings.Use(authMW)
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/owner", h.ListOwnerBookings)
		bookings.GET("/:bookingId", h.GetBooking)
		bookings.PATCH("/:bookingId", h.ApproveBooking)
	}

	items := r.Group("/items")
	items.Use(authMW)
	{
		items.GET("/:itemId/booking-summary", h.ItemBookingSummary)
		items.GET("/:itemId/review-eligibility", h.ReviewEligibility)
	}
}

// CreateBooking handles POST /bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ApproveBooking handles PATCH /bookings/:bookingId?approved=true|false.
func (h *BookingHandler) ApproveBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	bookingID, err := uuid.Parse(c.Param("bookingId"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	approved, err := strconv.ParseBool(c.Query("approved"))
	if err != nil {
		response.BadRequest(c, "query parameter approved must be true or false")
		return
	}

	result, err := h.service.ApproveBooking(c.Request.Context(), userID, bookingID, approved)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetBooking handles GET /bookings/:bookingId.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	bookingID, err := uuid.Parse(c.Param("bookingId"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	result, err := h.service.GetBooking(c.Request.Context(), userID, bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListBookings handles GET /bookings?state=ALL.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	h.listByState(c, h.service.ListBookerBookings)
}

// ListOwnerBookings handles GET /bookings/owner?state=ALL.
func (h *BookingHandler) ListOwnerBookings(c *gin.Context) {
	h.listByState(c, h.service.ListOwnerBookings)
}

type listFunc func(ctx context.Context, userID uuid.UUID, state bookingDomain.BookingState) ([]application.BookingView, error)

func (h *BookingHandler) listByState(c *gin.Context, list listFunc) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	state, err := bookingDomain.ParseBookingState(c.DefaultQuery("state", "ALL"))
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := list(c.Request.Context(), userID, state)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ItemBookingSummary handles GET /items/:itemId/booking-summary.
func (h *BookingHandler) ItemBookingSummary(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		response.BadRequest(c, "invalid item ID")
		return
	}

	result, err := h.service.GetItemBookingSummary(c.Request.Context(), userID, itemID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ReviewEligibility handles GET /items/:itemId/review-eligibility.
func (h *BookingHandler) ReviewEligibility(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		response.BadRequest(c, "invalid item ID")
		return
	}

	eligible, err := h.service.CanReview(c.Request.Context(), userID, itemID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"eligible": eligible})
}
