package api

import (
	"errors"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ruralstay-backend/internal/booking"
	"ruralstay-backend/internal/dates"
	"ruralstay-backend/internal/model"
	"ruralstay-backend/internal/mw"
	"ruralstay-backend/internal/notification"
	"ruralstay-backend/internal/store"
)

type createBookingRequest struct {
	PropertyID int64  `json:"property_id" binding:"required"`
	GuestID    int64  `json:"guest_id" binding:"required"`
	CheckIn    string `json:"check_in" binding:"required"`
	CheckOut   string `json:"check_out" binding:"required"`
	Guests     int    `json:"guests" binding:"required"`
}

// bookingResponse decorates a booking with presentation-layer figures.
// The service fee is not part of the admission engine's price contract.
type bookingResponse struct {
	model.Booking
	Nights     int     `json:"nights"`
	ServiceFee float64 `json:"serviceFee"`
}

func newBookingResponse(b *model.Booking) bookingResponse {
	return bookingResponse{
		Booking:    *b,
		Nights:     dates.NightCount(b.CheckIn, b.CheckOut),
		ServiceFee: math.Round(b.TotalPrice * 0.10),
	}
}

// CreateBooking handles the POST /api/bookings request.
func (h *Handler) CreateBooking(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	checkIn, err := dates.Parse(req.CheckIn)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid check_in date. Use YYYY-MM-DD."})
		return
	}
	checkOut, err := dates.Parse(req.CheckOut)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid check_out date. Use YYYY-MM-DD."})
		return
	}

	var property model.Property
	if err := h.store.DB().First(&property, req.PropertyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve property"})
		}
		return
	}
	if !property.Active {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Property is not accepting bookings"})
		return
	}

	b, err := h.engine.AdmitBooking(c.Request.Context(), booking.AdmissionRequest{
		PropertyID: property.ID,
		GuestID:    req.GuestID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Guests:     req.Guests,
		MaxGuests:  property.Capacity,
		BasePrice:  property.BasePrice,
	})
	if err != nil {
		status := admissionStatus(err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	if h.notifier != nil {
		h.notifier.Dispatch(notification.Event{BookingID: b.ID, Kind: notification.EventCreated})
	}
	mw.Invalidate(h.cacheStore)

	c.JSON(http.StatusCreated, newBookingResponse(b))
}

// admissionStatus maps admission errors onto HTTP status codes.
func admissionStatus(err error) int {
	switch {
	case errors.Is(err, booking.ErrDatesUnavailable):
		return http.StatusConflict
	case errors.Is(err, booking.ErrInvalidRange),
		errors.Is(err, booking.ErrPastDate),
		errors.Is(err, booking.ErrGuestCountExceeded):
		return http.StatusUnprocessableEntity
	case errors.Is(err, booking.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// GetBooking handles the GET /api/bookings/{reference} request.
func (h *Handler) GetBooking(c *gin.Context) {
	b, err := h.store.GetBookingByReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve booking"})
		}
		return
	}
	c.JSON(http.StatusOK, newBookingResponse(b))
}

// ConfirmBooking handles the POST /api/bookings/{reference}/confirm
// request: pending -> confirmed.
func (h *Handler) ConfirmBooking(c *gin.Context) {
	h.transitionBooking(c, func(b *model.Booking) (model.BookingStatus, model.BookingStatus) {
		return model.StatusPending, model.StatusConfirmed
	}, notification.EventKind(""))
}

// CancelBooking handles the POST /api/bookings/{reference}/cancel
// request. Both pending and confirmed bookings may cancel; cancelling
// releases the occupied nights immediately.
func (h *Handler) CancelBooking(c *gin.Context) {
	h.transitionBooking(c, func(b *model.Booking) (model.BookingStatus, model.BookingStatus) {
		return b.Status, model.StatusCancelled
	}, notification.EventCancelled)
}

func (h *Handler) transitionBooking(c *gin.Context, plan func(*model.Booking) (model.BookingStatus, model.BookingStatus), notify notification.EventKind) {
	ctx := c.Request.Context()

	b, err := h.store.GetBookingByReference(ctx, c.Param("reference"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve booking"})
		}
		return
	}

	from, to := plan(b)
	if from == to || from == model.StatusCancelled || from == model.StatusCompleted {
		c.JSON(http.StatusConflict, gin.H{"error": "Booking is already " + string(b.Status)})
		return
	}

	if err := h.store.UpdateBookingStatus(ctx, b.ID, from, to); err != nil {
		if errors.Is(err, store.ErrInvalidTransition) {
			c.JSON(http.StatusConflict, gin.H{"error": "Booking is no longer " + string(from)})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update booking"})
		}
		return
	}

	if notify != "" && h.notifier != nil {
		h.notifier.Dispatch(notification.Event{BookingID: b.ID, Kind: notify})
	}
	mw.Invalidate(h.cacheStore)

	b.Status = to
	c.JSON(http.StatusOK, newBookingResponse(b))
}
