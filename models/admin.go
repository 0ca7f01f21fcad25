package models

import (
	"strings"
	"time"
)

const (
	AdminRoleAdmin      = "admin"
	AdminRoleSuperadmin = "superadmin"
)

type Admin struct {
	ID              int       `json:"id" goqu:"skipinsert"`
	Organization_ID *int      `json:"organization_id"`
	Email           string    `json:"email"`
	Password_Hash   string    `json:"-"`
	Role            string    `json:"role"`
	Is_Active       bool      `json:"is_active"`
	Created_At      time.Time `json:"created_at" goqu:"skipinsert"`
	Updated_At      time.Time `json:"updated_at" goqu:"skipinsert"`
}

func (a Admin) IsSuperadmin() bool {
	return a.Role == AdminRoleSuperadmin
}

// OwnsOrganization reports whether the admin belongs to orgID.
func (a Admin) OwnsOrganization(orgID int) bool {
	return a.Organization_ID != nil && *a.Organization_ID == orgID
}

type AdminDirectoryEntry struct {
	ID              int    `json:"id"`
	Email           string `json:"email"`
	Organization_ID int    `json:"organization_id"`
	Org_Name        string `json:"org_name"`
	Org_Acronym     string `json:"org_acronym"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (r *LoginRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

type Invitation struct {
	ID         int       `json:"id" goqu:"skipinsert"`
	Email      string    `json:"email"`
	Token      string    `json:"-"`
	Expires_At time.Time `json:"expires_at"`
	Used       bool      `json:"used"`
	Created_By *int      `json:"created_by"`
	Created_At time.Time `json:"created_at" goqu:"skipinsert"`
}

type InvitationCreate struct {
	Email string `json:"email" binding:"required,email"`
}

func (r *InvitationCreate) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

type InvitationAccept struct {
	Token       string `json:"token" binding:"required"`
	Password    string `json:"password" binding:"required,min=8"`
	Org_Name    string `json:"org_name" binding:"required,min=2,max=200"`
	Org_Acronym string `json:"org_acronym" binding:"required,min=2,max=30"`
}
