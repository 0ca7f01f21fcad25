package controllers

import (
	"net/http"

	"github.com/FaithCommunity/initializers"
	"github.com/FaithCommunity/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/gin-gonic/gin"
)

func GetNotifications(c *gin.Context) {
	currentAdmin := c.MustGet("currentAdmin").(models.Admin)

	query := initializers.DB.From("notifications").
		Where(goqu.C("admin_id").Eq(currentAdmin.ID)).
		Order(goqu.C("created_at").Desc()).
		Limit(100)
	if c.Query("unread") == "true" {
		query = query.Where(goqu.C("is_read").IsFalse())
	}

	notifications := []models.Notification{}
	if err := query.ScanStructsContext(c.Request.Context(), &notifications); err != nil {
		respondInternalError(c, "Failed to fetch notifications", err)
		return
	}

	respondSuccess(c, http.StatusOK, "Notifications fetched", notifications)
}

func MarkNotificationRead(c *gin.Context) {
	currentAdmin := c.MustGet("currentAdmin").(models.Admin)

	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	// Scoped to admin_id so another admin's notification reads as not found.
	result, err := initializers.DB.Update("notifications").
		Set(goqu.Record{"is_read": true}).
		Where(
			goqu.C("id").Eq(id),
			goqu.C("admin_id").Eq(currentAdmin.ID),
		).
		Executor().ExecContext(c.Request.Context())
	if err != nil {
		respondInternalError(c, "Failed to update notification", err)
		return
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		respondError(c, http.StatusNotFound, ErrCodeNotFound, "Notification not found")
		return
	}

	respondSuccess(c, http.StatusOK, "Notification marked as read", nil)
}

func MarkAllNotificationsRead(c *gin.Context) {
	currentAdmin := c.MustGet("currentAdmin").(models.Admin)

	result, err := initializers.DB.Update("notifications").
		Set(goqu.Record{"is_read": true}).
		Where(
			goqu.C("admin_id").Eq(currentAdmin.ID),
			goqu.C("is_read").IsFalse(),
		).
		Executor().ExecContext(c.Request.Context())
	if err != nil {
		respondInternalError(c, "Failed to mark notifications as read", err)
		return
	}

	rowsAffected, _ := result.RowsAffected()
	respondSuccess(c, http.StatusOK, "Notifications marked as read", gin.H{"updated": rowsAffected})
}
