package controllers

import (
	"net/http"

	"github.com/FaithCommunity/initializers"
	"github.com/FaithCommunity/models"
	"github.com/FaithCommunity/services"

	"github.com/doug-martin/goqu/v9"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Subscribe upserts the email with a fresh verification token and mails it.
// An already verified address is acknowledged without sending anything.
func Subscribe(c *gin.Context) {
	var req models.SubscribeRequest
	if err := bindNormalizedJSON(c, &req); err != nil {
		respondBindingError(c, err)
		return
	}

	email := req.Email
	verifyToken := uuid.NewString()

	subscriber := models.Subscriber{
		Email:             email,
		Verify_Token:      verifyToken,
		Unsubscribe_Token: uuid.NewString(),
	}

	var id int
	found, err := initializers.DB.Insert("subscribers").
		Rows(subscriber).
		OnConflict(goqu.DoUpdate("email", goqu.Record{"verify_token": verifyToken}).
			Where(goqu.I("subscribers.is_verified").IsFalse())).
		Returning("id").
		Executor().ScanValContext(c.Request.Context(), &id)
	if err != nil {
		respondInternalError(c, "Failed to subscribe", err)
		return
	}
	if !found {
		respondSuccess(c, http.StatusOK, "This email is already subscribed", nil)
		return
	}

	services.PublishEvent(c.Request.Context(), models.NotificationEvent{
		Type:  models.EventSubscriberVerification,
		Email: email,
		Token: verifyToken,
	})

	respondSuccess(c, http.StatusCreated, "Please check your email to confirm your subscription", nil)
}

// VerifySubscription consumes the verification token. The token is rotated so
// the link only works once.
func VerifySubscription(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		respondError(c, http.StatusBadRequest, ErrCodeValidation, "Verification token is required")
		return
	}

	result, err := initializers.DB.Update("subscribers").
		Set(goqu.Record{
			"is_verified":  true,
			"verify_token": uuid.NewString(),
		}).
		Where(goqu.C("verify_token").Eq(token)).
		Executor().ExecContext(c.Request.Context())
	if err != nil {
		respondInternalError(c, "Failed to verify subscription", err)
		return
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		respondError(c, http.StatusBadRequest, "", "Invalid or already used verification token")
		return
	}

	respondSuccess(c, http.StatusOK, "Subscription confirmed", nil)
}

// Unsubscribe clears is_verified and rotates both tokens, so neither an old
// unsubscribe link nor an old verification link can be replayed.
func Unsubscribe(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		respondError(c, http.StatusBadRequest, ErrCodeValidation, "Unsubscribe token is required")
		return
	}

	result, err := initializers.DB.Update("subscribers").
		Set(goqu.Record{
			"is_verified":       false,
			"verify_token":      uuid.NewString(),
			"unsubscribe_token": uuid.NewString(),
		}).
		Where(goqu.C("unsubscribe_token").Eq(token)).
		Executor().ExecContext(c.Request.Context())
	if err != nil {
		respondInternalError(c, "Failed to unsubscribe", err)
		return
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		respondError(c, http.StatusBadRequest, "", "Invalid or already used unsubscribe token")
		return
	}

	respondSuccess(c, http.StatusOK, "You have been unsubscribed", nil)
}
