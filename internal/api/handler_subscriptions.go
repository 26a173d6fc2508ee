package api

import (
	"net/http"
	"strings"

	"ruralstay-backend/internal/model"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type putSubscriptionRequest struct {
	Endpoint             string  `json:"endpoint" binding:"required"`
	P256DH               string  `json:"p256dh" binding:"required"`
	Auth                 string  `json:"auth" binding:"required"`
	SubscribedProperties []int64 `json:"subscribed_properties"`
}

// PutSubscription handles the creation or replacement of a host's push
// subscription and the set of properties it watches.
func (h *Handler) PutSubscription(c *gin.Context) {
	var req putSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	subscription := model.PushSubscription{
		Endpoint: req.Endpoint,
		P256DH:   req.P256DH,
		Auth:     req.Auth,
	}

	err := h.store.DB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
		}).Create(&subscription).Error; err != nil {
			return err
		}

		var properties []model.Property
		if len(req.SubscribedProperties) > 0 {
			if err := tx.Find(&properties, req.SubscribedProperties).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&subscription).Association("Properties").Replace(&properties); err != nil {
			return err
		}

		return nil
	})

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusCreated)
}

type deleteSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// DeleteSubscription handles the deletion of a subscription.
func (h *Handler) DeleteSubscription(c *gin.Context) {
	var req deleteSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.store.DB().Delete(&model.PushSubscription{Endpoint: req.Endpoint}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// rawQueryParam extracts a query parameter without URL decoding; push
// endpoints embed characters that would round-trip badly otherwise.
func rawQueryParam(rawQuery, key string) (string, bool) {
	for _, kv := range strings.Split(rawQuery, "&") {
		if strings.HasPrefix(kv, key+"=") {
			return kv[len(key)+1:], true
		}
	}
	return "", false
}

// GetSubscription handles the retrieval of a subscription.
func (h *Handler) GetSubscription(c *gin.Context) {
	raw, ok := rawQueryParam(c.Request.URL.RawQuery, "endpoint")
	if !ok || raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "endpoint is required"})
		return
	}

	var subscription model.PushSubscription
	if err := h.store.DB().Preload("Properties").First(&subscription, "endpoint = ?", raw).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "subscription not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	propertyIDs := make([]int64, len(subscription.Properties))
	for i, property := range subscription.Properties {
		propertyIDs[i] = property.ID
	}

	c.JSON(http.StatusOK, gin.H{"subscribed_properties": propertyIDs})
}
