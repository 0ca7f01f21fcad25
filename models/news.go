package models

import (
	"math"
	"time"
)

// NewsRetentionPeriod is how long a soft-deleted article stays restorable.
const NewsRetentionPeriod = 15 * 24 * time.Hour

type News struct {
	ID              int        `json:"id" goqu:"skipinsert"`
	Organization_ID int        `json:"organization_id"`
	Title           string     `json:"title"`
	Slug            string     `json:"slug"`
	Content         string     `json:"content"`
	Excerpt         string     `json:"excerpt"`
	Featured_Image  *string    `json:"featured_image"`
	Published_At    time.Time  `json:"published_at"`
	Is_Deleted      bool       `json:"is_deleted"`
	Deleted_At      *time.Time `json:"deleted_at"`
	Created_At      time.Time  `json:"created_at" goqu:"skipinsert"`
	Updated_At      time.Time  `json:"updated_at" goqu:"skipinsert"`
}

type NewsWithOrganization struct {
	News
	Org_Name    string `json:"org_name"`
	Org_Acronym string `json:"org_acronym"`
}

type DeletedNews struct {
	News
	Days_Until_Permanent_Deletion int `json:"days_until_permanent_deletion" db:"-"`
}

// DaysUntilPermanentDeletion returns the whole days left in the restore window,
// never below zero.
func DaysUntilPermanentDeletion(deletedAt time.Time, now time.Time) int {
	remaining := deletedAt.Add(NewsRetentionPeriod).Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Hours() / 24))
}

type NewsInput struct {
	Title          string `json:"title" form:"title" binding:"required,max=200"`
	Content        string `json:"content" form:"content" binding:"required"`
	Excerpt        string `json:"excerpt" form:"excerpt" binding:"omitempty,max=500"`
	Slug           string `json:"slug" form:"slug" binding:"omitempty,max=200"`
	Featured_Image string `json:"featured_image" form:"featured_image_url" binding:"omitempty,url"`
	Published_At   string `json:"published_at" form:"published_at" binding:"omitempty,datetime=2006-01-02"`
}
