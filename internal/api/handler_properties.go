package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ruralstay-backend/internal/model"
)

// PropertyResponse represents the API response for a single property.
type PropertyResponse struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name"`
	Location         string  `json:"location"`
	Capacity         int     `json:"capacity"`
	BasePrice        float64 `json:"basePrice"`
	UpcomingBookings int64   `json:"upcomingBookings"`
}

// GetProperties handles the GET /api/properties request.
func GetProperties(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var properties []model.Property
		if err := db.Where("active = ?", true).Find(&properties).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve properties"})
			return
		}

		// One aggregate pass for the pending/confirmed booking counts.
		type AggRow struct {
			PropertyID int64
			Upcoming   int64
		}
		var aggs []AggRow
		if err := db.
			Model(&model.Booking{}).
			Select("property_id as property_id, COUNT(*) as upcoming").
			Where("status IN ?", model.BlockingStatuses).
			Group("property_id").
			Scan(&aggs).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate bookings"})
			return
		}

		aggMap := make(map[int64]AggRow, len(aggs))
		for _, a := range aggs {
			aggMap[a.PropertyID] = a
		}

		responses := make([]PropertyResponse, 0, len(properties))
		for _, p := range properties {
			a := aggMap[p.ID] // zero value when the property has no bookings
			responses = append(responses, PropertyResponse{
				ID: p.ID, Name: p.Name, Location: p.Location,
				Capacity: p.Capacity, BasePrice: p.BasePrice,
				UpcomingBookings: a.Upcoming,
			})
		}
		c.JSON(http.StatusOK, responses)
	}
}

// GetProperty handles the GET /api/properties/{property_id} request.
func GetProperty(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		propertyID, err := strconv.ParseInt(c.Param("property_id"), 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID"})
			return
		}

		var property model.Property
		if err := db.First(&property, propertyID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Property not found"})
			} else {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve property"})
			}
			return
		}

		c.JSON(http.StatusOK, property)
	}
}
