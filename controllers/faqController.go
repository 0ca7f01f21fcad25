package controllers

import (
	"net/http"

	"github.com/FaithCommunity/initializers"
	"github.com/FaithCommunity/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/gin-gonic/gin"
)

func GetFAQs(c *gin.Context) {
	query := initializers.DB.From("faqs").Order(goqu.C("id").Asc())
	if !c.GetBool("superadmin") {
		query = query.Where(goqu.C("status").Eq("ACTIVE"))
	}

	faqs := []models.FAQ{}
	if err := query.ScanStructsContext(c.Request.Context(), &faqs); err != nil {
		respondInternalError(c, "Failed to fetch FAQs", err)
		return
	}

	respondSuccess(c, http.StatusOK, "FAQs fetched", faqs)
}

func CreateFAQ(c *gin.Context) {
	var input models.FAQInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}

	faq := models.FAQ{Question: input.Question, Answer: input.Answer, Status: input.Status}
	if faq.Status == "" {
		faq.Status = "ACTIVE"
	}

	_, err := initializers.DB.Insert("faqs").
		Rows(faq).
		Returning("id").
		Executor().ScanValContext(c.Request.Context(), &faq.ID)
	if err != nil {
		respondInternalError(c, "Failed to create FAQ", err)
		return
	}

	respondSuccess(c, http.StatusCreated, "FAQ created", faq)
}

func UpdateFAQ(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var input models.FAQInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}

	record := goqu.Record{
		"question":   input.Question,
		"answer":     input.Answer,
		"updated_at": goqu.L("NOW()"),
	}
	if input.Status != "" {
		record["status"] = input.Status
	}

	result, err := initializers.DB.Update("faqs").
		Set(record).
		Where(goqu.C("id").Eq(id)).
		Executor().ExecContext(c.Request.Context())
	if err != nil {
		respondInternalError(c, "Failed to update FAQ", err)
		return
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		respondError(c, http.StatusNotFound, ErrCodeNotFound, "FAQ not found")
		return
	}

	respondSuccess(c, http.StatusOK, "FAQ updated", nil)
}

func DeleteFAQ(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	result, err := initializers.DB.Delete("faqs").
		Where(goqu.C("id").Eq(id)).
		Executor().ExecContext(c.Request.Context())
	if err != nil {
		respondInternalError(c, "Failed to delete FAQ", err)
		return
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		respondError(c, http.StatusNotFound, ErrCodeNotFound, "FAQ not found")
		return
	}

	respondSuccess(c, http.StatusOK, "FAQ deleted", nil)
}
