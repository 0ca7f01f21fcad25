package controllers

import (
	"time"

	"github.com/FaithCommunity/models"
)

// Test fixture data for use in tests

// MockAdmin creates an organization admin for organization 10
func MockAdmin() models.Admin {
	orgID := 10
	return models.Admin{
		ID:              1,
		Organization_ID: &orgID,
		Email:           "admin@faith.example",
		Role:            models.AdminRoleAdmin,
		Is_Active:       true,
		Created_At:      time.Now(),
		Updated_At:      time.Now(),
	}
}

// MockOtherAdmin belongs to a different organization (20)
func MockOtherAdmin() models.Admin {
	orgID := 20
	return models.Admin{
		ID:              2,
		Organization_ID: &orgID,
		Email:           "other@faith.example",
		Role:            models.AdminRoleAdmin,
		Is_Active:       true,
		Created_At:      time.Now(),
		Updated_At:      time.Now(),
	}
}

// MockSuperadmin has no organization
func MockSuperadmin() models.Admin {
	return models.Admin{
		ID:         99,
		Email:      "superadmin@faith.example",
		Role:       models.AdminRoleSuperadmin,
		Is_Active:  true,
		Created_At: time.Now(),
		Updated_At: time.Now(),
	}
}

func IntPtr(i int) *int {
	return &i
}

func StrPtr(s string) *string {
	return &s
}
