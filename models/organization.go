package models

import (
	"strings"
	"time"
)

type Organization struct {
	ID          int       `json:"id" goqu:"skipinsert"`
	Name        string    `json:"name"`
	Acronym     string    `json:"acronym"`
	Description string    `json:"description"`
	Logo        string    `json:"logo"`
	Email       string    `json:"email"`
	Facebook    string    `json:"facebook"`
	Mission     string    `json:"mission"`
	Vision      string    `json:"vision"`
	Org_Color   string    `json:"org_color"`
	Status      string    `json:"status"`
	Created_At  time.Time `json:"created_at" goqu:"skipinsert"`
	Updated_At  time.Time `json:"updated_at" goqu:"skipinsert"`
}

type OrganizationProfile struct {
	Organization
	Advocacy   string `json:"advocacy"`
	Competency string `json:"competency"`
}

// OrganizationProfileUpdate is the proposed_data of an organization submission.
// Nil fields are left untouched when the submission is approved.
type OrganizationProfileUpdate struct {
	Name        *string `json:"name,omitempty" binding:"omitempty,min=2,max=200"`
	Description *string `json:"description,omitempty"`
	Logo        *string `json:"logo,omitempty" binding:"omitempty,url"`
	Email       *string `json:"email,omitempty" binding:"omitempty,email"`
	Facebook    *string `json:"facebook,omitempty" binding:"omitempty,url"`
	Mission     *string `json:"mission,omitempty"`
	Vision      *string `json:"vision,omitempty"`
	Org_Color   *string `json:"org_color,omitempty" binding:"omitempty,hexcolor"`
}

func (u OrganizationProfileUpdate) IsEmpty() bool {
	return u.Name == nil && u.Description == nil && u.Logo == nil && u.Email == nil &&
		u.Facebook == nil && u.Mission == nil && u.Vision == nil && u.Org_Color == nil
}

// TextProposal is the proposed_data of advocacy and competency submissions.
type TextProposal struct {
	Text string `json:"text" binding:"required"`
}

// OrganizationInfoUpdate is the superadmin direct edit of an organization.
type OrganizationInfoUpdate struct {
	Name    string `json:"name" binding:"required,min=2,max=200"`
	Acronym string `json:"acronym" binding:"required,min=2,max=30"`
	Email   string `json:"email" binding:"required,email"`
	Status  string `json:"status" binding:"omitempty,oneof=ACTIVE INACTIVE"`
}

// Normalize trims the edit and folds email and acronym to their stored case.
func (u *OrganizationInfoUpdate) Normalize() {
	u.Name = strings.TrimSpace(u.Name)
	u.Acronym = strings.ToUpper(strings.TrimSpace(u.Acronym))
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
}
