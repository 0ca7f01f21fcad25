package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/FaithCommunity/initializers"
	"github.com/FaithCommunity/models"
	"github.com/FaithCommunity/services"

	"github.com/doug-martin/goqu/v9"
	"github.com/gin-gonic/gin"
)

const (
	newsSlugIndex  = "news_slug_active_idx"
	newsTitleIndex = "news_org_title_active_idx"
)

// newsTitleTaken checks the per-organization title rule among live articles.
func newsTitleTaken(ctx context.Context, orgID int, title string, excludeID int) (bool, error) {
	query := initializers.DB.From("news").
		Select(goqu.COUNT("*")).
		Where(
			goqu.C("organization_id").Eq(orgID),
			goqu.L("lower(title)").Eq(strings.ToLower(title)),
			goqu.C("is_deleted").IsFalse(),
		)
	if excludeID > 0 {
		query = query.Where(goqu.C("id").Neq(excludeID))
	}

	var count int
	if _, err := query.ScanValContext(ctx, &count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// resolveNewsSlug returns the requested slug if it is free, or derives a unique
// one from the title when none was requested.
func resolveNewsSlug(ctx context.Context, requested, title string, excludeID int) (string, error) {
	scope := services.SlugScope{Table: "news", ExcludeID: excludeID, SkipDeleted: true}
	if strings.TrimSpace(requested) == "" {
		return services.UniqueSlug(ctx, initializers.DB, scope, title)
	}

	slug := services.Slugify(requested)
	query := initializers.DB.From("news").
		Select(goqu.COUNT("*")).
		Where(goqu.C("slug").Eq(slug), goqu.C("is_deleted").IsFalse())
	if excludeID > 0 {
		query = query.Where(goqu.C("id").Neq(excludeID))
	}

	var count int
	if _, err := query.ScanValContext(ctx, &count); err != nil {
		return "", err
	}
	if count > 0 {
		return "", services.ErrDuplicateSlug
	}
	return slug, nil
}

func newsWriteError(err error) error {
	if !services.IsUniqueViolation(err) {
		return err
	}
	switch services.UniqueConstraint(err) {
	case newsTitleIndex:
		return services.ErrDuplicateTitle
	default:
		return services.ErrDuplicateSlug
	}
}

func parsePublishedAt(s string) time.Time {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t
	}
	return time.Now()
}

func CreateNews(c *gin.Context) {
	currentAdmin := c.MustGet("currentAdmin").(models.Admin)
	orgID := *currentAdmin.Organization_ID
	ctx := c.Request.Context()

	var input models.NewsInput
	if err := c.ShouldBind(&input); err != nil {
		respondBindingError(c, err)
		return
	}
	title := strings.TrimSpace(input.Title)

	taken, err := newsTitleTaken(ctx, orgID, title, 0)
	if err != nil {
		respondInternalError(c, "Failed to check title", err)
		return
	}
	if taken {
		respondServiceError(c, services.ErrDuplicateTitle, "")
		return
	}

	slug, err := resolveNewsSlug(ctx, input.Slug, title, 0)
	if err != nil {
		respondServiceError(c, err, "Failed to generate slug")
		return
	}

	uploaded, ok := uploadOptionalImage(c, "news", "featured_image")
	if !ok {
		return
	}
	image := uploaded
	if image == nil && input.Featured_Image != "" {
		image = &input.Featured_Image
	}

	news := models.News{
		Organization_ID: orgID,
		Title:           title,
		Slug:            slug,
		Content:         input.Content,
		Excerpt:         input.Excerpt,
		Featured_Image:  image,
		Published_At:    parsePublishedAt(input.Published_At),
	}

	_, err = initializers.DB.Insert("news").
		Rows(news).
		Returning("id").
		Executor().ScanValContext(ctx, &news.ID)
	if err != nil {
		services.DeleteImageQuietly(ctx, uploaded)
		respondServiceError(c, newsWriteError(err), "Failed to create news")
		return
	}

	respondSuccess(c, http.StatusCreated, "News created", news)
}

func UpdateNews(c *gin.Context) {
	currentAdmin := c.MustGet("currentAdmin").(models.Admin)
	orgID := *currentAdmin.Organization_ID
	ctx := c.Request.Context()

	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var input models.NewsInput
	if err := c.ShouldBind(&input); err != nil {
		respondBindingError(c, err)
		return
	}
	title := strings.TrimSpace(input.Title)

	var existing models.News
	found, err := initializers.DB.From("news").
		Where(
			goqu.C("id").Eq(id),
			goqu.C("organization_id").Eq(orgID),
			goqu.C("is_deleted").IsFalse(),
		).
		ScanStructContext(ctx, &existing)
	if err != nil {
		respondInternalError(c, "Failed to fetch news", err)
		return
	}
	if !found {
		respondServiceError(c, services.ErrNewsNotFound, "")
		return
	}

	taken, err := newsTitleTaken(ctx, orgID, title, id)
	if err != nil {
		respondInternalError(c, "Failed to check title", err)
		return
	}
	if taken {
		respondServiceError(c, services.ErrDuplicateTitle, "")
		return
	}

	slug := existing.Slug
	if input.Slug != "" && services.Slugify(input.Slug) != existing.Slug {
		slug, err = resolveNewsSlug(ctx, input.Slug, title, id)
	} else if input.Slug == "" && title != existing.Title {
		slug, err = resolveNewsSlug(ctx, "", title, id)
	}
	if err != nil {
		respondServiceError(c, err, "Failed to generate slug")
		return
	}

	uploaded, ok := uploadOptionalImage(c, "news", "featured_image")
	if !ok {
		return
	}
	image := uploaded
	if image == nil && input.Featured_Image != "" {
		image = &input.Featured_Image
	}

	record := goqu.Record{
		"title":      title,
		"slug":       slug,
		"content":    input.Content,
		"excerpt":    input.Excerpt,
		"updated_at": goqu.L("NOW()"),
	}
	if input.Published_At != "" {
		record["published_at"] = parsePublishedAt(input.Published_At)
	}
	replacedImage := false
	if image != nil && (existing.Featured_Image == nil || *existing.Featured_Image != *image) {
		record["featured_image"] = *image
		replacedImage = true
	}

	_, err = initializers.DB.Update("news").
		Set(record).
		Where(goqu.C("id").Eq(id)).
		Executor().ExecContext(ctx)
	if err != nil {
		services.DeleteImageQuietly(ctx, uploaded)
		respondServiceError(c, newsWriteError(err), "Failed to update news")
		return
	}

	if replacedImage {
		services.DeleteImageQuietly(ctx, existing.Featured_Image)
	}

	respondSuccess(c, http.StatusOK, "News updated", gin.H{"id": id, "slug": slug})
}

// DeleteNews is a soft delete; the article stays restorable for
// models.NewsRetentionPeriod.
func DeleteNews(c *gin.Context) {
	currentAdmin := c.MustGet("currentAdmin").(models.Admin)

	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	result, err := initializers.DB.Update("news").
		Set(goqu.Record{
			"is_deleted": true,
			"deleted_at": goqu.L("NOW()"),
			"updated_at": goqu.L("NOW()"),
		}).
		Where(
			goqu.C("id").Eq(id),
			goqu.C("organization_id").Eq(*currentAdmin.Organization_ID),
			goqu.C("is_deleted").IsFalse(),
		).
		Executor().ExecContext(c.Request.Context())
	if err != nil {
		respondInternalError(c, "Failed to delete news", err)
		return
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		respondServiceError(c, services.ErrNewsNotFound, "")
		return
	}

	respondSuccess(c, http.StatusOK, "News moved to recently deleted", nil)
}

func RestoreNews(c *gin.Context) {
	currentAdmin := c.MustGet("currentAdmin").(models.Admin)

	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	result, err := initializers.DB.Update("news").
		Set(goqu.Record{
			"is_deleted": false,
			"deleted_at": nil,
			"updated_at": goqu.L("NOW()"),
		}).
		Where(
			goqu.C("id").Eq(id),
			goqu.C("organization_id").Eq(*currentAdmin.Organization_ID),
			goqu.C("is_deleted").IsTrue(),
		).
		Executor().ExecContext(c.Request.Context())
	if err != nil {
		respondServiceError(c, newsWriteError(err), "Failed to restore news")
		return
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		respondServiceError(c, services.ErrNewsNotFound, "")
		return
	}

	respondSuccess(c, http.StatusOK, "News restored", nil)
}

// PermanentlyDeleteNews only removes articles that are already soft-deleted.
func PermanentlyDeleteNews(c *gin.Context) {
	currentAdmin := c.MustGet("currentAdmin").(models.Admin)
	ctx := c.Request.Context()

	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var news models.News
	found, err := initializers.DB.From("news").
		Where(
			goqu.C("id").Eq(id),
			goqu.C("organization_id").Eq(*currentAdmin.Organization_ID),
		).
		ScanStructContext(ctx, &news)
	if err != nil {
		respondInternalError(c, "Failed to fetch news", err)
		return
	}
	if !found {
		respondServiceError(c, services.ErrNewsNotFound, "")
		return
	}
	if !news.Is_Deleted {
		respondServiceError(c, services.ErrNewsNotDeleted, "")
		return
	}

	_, err = initializers.DB.Delete("news").
		Where(
			goqu.C("id").Eq(id),
			goqu.C("is_deleted").IsTrue(),
		).
		Executor().ExecContext(ctx)
	if err != nil {
		respondInternalError(c, "Failed to permanently delete news", err)
		return
	}

	services.DeleteImageQuietly(ctx, news.Featured_Image)
	respondSuccess(c, http.StatusOK, "News permanently deleted", nil)
}

func GetOrganizationNews(c *gin.Context) {
	currentAdmin := c.MustGet("currentAdmin").(models.Admin)

	news := []models.News{}
	err := initializers.DB.From("news").
		Where(
			goqu.C("organization_id").Eq(*currentAdmin.Organization_ID),
			goqu.C("is_deleted").IsFalse(),
		).
		Order(goqu.C("published_at").Desc()).
		ScanStructsContext(c.Request.Context(), &news)
	if err != nil {
		respondInternalError(c, "Failed to fetch news", err)
		return
	}

	respondSuccess(c, http.StatusOK, "News fetched", news)
}

// GetDeletedNews lists the organization's soft-deleted articles with the days
// left before they can no longer be restored.
func GetDeletedNews(c *gin.Context) {
	currentAdmin := c.MustGet("currentAdmin").(models.Admin)

	var rows []models.News
	err := initializers.DB.From("news").
		Where(
			goqu.C("organization_id").Eq(*currentAdmin.Organization_ID),
			goqu.C("is_deleted").IsTrue(),
		).
		Order(goqu.C("deleted_at").Desc()).
		ScanStructsContext(c.Request.Context(), &rows)
	if err != nil {
		respondInternalError(c, "Failed to fetch deleted news", err)
		return
	}

	now := time.Now()
	deleted := make([]models.DeletedNews, 0, len(rows))
	for _, n := range rows {
		entry := models.DeletedNews{News: n}
		if n.Deleted_At != nil {
			entry.Days_Until_Permanent_Deletion = models.DaysUntilPermanentDeletion(*n.Deleted_At, now)
		}
		deleted = append(deleted, entry)
	}

	respondSuccess(c, http.StatusOK, "Deleted news fetched", deleted)
}

func publicNews() *goqu.SelectDataset {
	return initializers.DB.From("news").
		Select(
			goqu.T("news").All(),
			goqu.I("organizations.name").As("org_name"),
			goqu.I("organizations.acronym").As("org_acronym"),
		).
		Join(goqu.T("organizations"), goqu.On(goqu.Ex{"news.organization_id": goqu.I("organizations.id")})).
		Where(goqu.I("news.is_deleted").IsFalse())
}

func GetPublicNews(c *gin.Context) {
	news := []models.NewsWithOrganization{}
	query := publicNews().Order(goqu.I("news.published_at").Desc())
	if acronym := c.Query("organization"); acronym != "" {
		query = query.Where(goqu.I("organizations.acronym").Eq(strings.ToUpper(acronym)))
	}

	if err := query.ScanStructsContext(c.Request.Context(), &news); err != nil {
		respondInternalError(c, "Failed to fetch news", err)
		return
	}

	respondSuccess(c, http.StatusOK, "News fetched", news)
}

func GetPublicNewsBySlug(c *gin.Context) {
	var news models.NewsWithOrganization
	found, err := publicNews().
		Where(goqu.I("news.slug").Eq(c.Param("slug"))).
		ScanStructContext(c.Request.Context(), &news)
	if err != nil {
		respondInternalError(c, "Failed to fetch news", err)
		return
	}
	if !found {
		respondServiceError(c, services.ErrNewsNotFound, "")
		return
	}

	respondSuccess(c, http.StatusOK, "News fetched", news)
}
