package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"ruralstay-backend/internal/dates"
	"ruralstay-backend/internal/model"
	"ruralstay-backend/internal/mw"
)

// calendarDayResponse is one day of the booking-form calendar.
type calendarDayResponse struct {
	Date        string  `json:"date"`
	IsAvailable bool    `json:"isAvailable"`
	Price       float64 `json:"price"`
	Booked      bool    `json:"booked"`
}

// GetAvailabilityCalendar handles the
// GET /api/properties/{property_id}/availability request. It merges the
// host's calendar overrides with the nights held by pending/confirmed
// bookings into a per-day view over [from, to).
func (h *Handler) GetAvailabilityCalendar(c *gin.Context) {
	propertyID, err := strconv.ParseInt(c.Param("property_id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID"})
		return
	}

	var property model.Property
	if err := h.store.DB().First(&property, propertyID).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		return
	}

	from := dates.Truncate(time.Now())
	to := from.AddDate(0, 0, h.calendarDays)
	if raw := c.Query("from"); raw != "" {
		if from, err = dates.Parse(raw); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid 'from' date. Use YYYY-MM-DD."})
			return
		}
		to = from.AddDate(0, 0, h.calendarDays)
	}
	if raw := c.Query("to"); raw != "" {
		if to, err = dates.Parse(raw); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid 'to' date. Use YYYY-MM-DD."})
			return
		}
	}
	if !to.After(from) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "'to' must be after 'from'"})
		return
	}

	ctx := c.Request.Context()

	rows, err := h.store.GetAvailability(ctx, propertyID, from, to)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve availability"})
		return
	}
	overrides := make(map[time.Time]model.AvailabilityDay, len(rows))
	for _, row := range rows {
		overrides[dates.Truncate(row.Date)] = row
	}

	bookings, err := h.store.FindOverlappingBookings(ctx, propertyID, from, to)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve bookings"})
		return
	}
	booked := make(map[time.Time]bool)
	for _, b := range bookings {
		for _, night := range dates.Nights(b.CheckIn, b.CheckOut) {
			booked[night] = true
		}
	}

	response := make([]calendarDayResponse, 0, dates.NightCount(from, to))
	for _, day := range dates.Nights(from, to) {
		entry := calendarDayResponse{
			Date:        dates.Format(day),
			IsAvailable: true,
			Price:       property.BasePrice,
			Booked:      booked[day],
		}
		if row, ok := overrides[day]; ok {
			entry.IsAvailable = row.IsAvailable
			if row.Price != nil {
				entry.Price = *row.Price
			}
		}
		if entry.Booked {
			entry.IsAvailable = false
		}
		response = append(response, entry)
	}

	c.JSON(http.StatusOK, response)
}

type putAvailabilityDay struct {
	Date        string   `json:"date" binding:"required"`
	IsAvailable *bool    `json:"is_available" binding:"required"`
	Price       *float64 `json:"price"`
}

type putAvailabilityRequest struct {
	Days []putAvailabilityDay `json:"days" binding:"required,min=1"`
}

// PutAvailability handles the
// PUT /api/properties/{property_id}/availability request: the host
// upserts per-date availability flags and price overrides.
func (h *Handler) PutAvailability(c *gin.Context) {
	propertyID, err := strconv.ParseInt(c.Param("property_id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID"})
		return
	}

	var req putAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var count int64
	if err := h.store.DB().Model(&model.Property{}).Where("id = ?", propertyID).Count(&count).Error; err != nil || count == 0 {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		return
	}

	days := make([]model.AvailabilityDay, 0, len(req.Days))
	for _, d := range req.Days {
		date, err := dates.Parse(d.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date " + d.Date + ". Use YYYY-MM-DD."})
			return
		}
		if d.Price != nil && *d.Price <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Price must be positive"})
			return
		}
		days = append(days, model.AvailabilityDay{
			PropertyID:  propertyID,
			Date:        date,
			IsAvailable: *d.IsAvailable,
			Price:       d.Price,
		})
	}

	if err := h.store.UpsertAvailability(c.Request.Context(), days); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	mw.Invalidate(h.cacheStore)
	c.Status(http.StatusNoContent)
}
