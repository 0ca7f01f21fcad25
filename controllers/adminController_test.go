package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/FaithCommunity/initializers"
	"github.com/FaithCommunity/models"
	"github.com/FaithCommunity/services"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

var testJWT = initializers.JWTConfig{
	Secret:   "test-secret-key",
	Issuer:   "faith-community",
	Audience: "faith-community-admin",
	TTL:      time.Hour,
}

var adminColumns = []string{"id", "organization_id", "email", "password_hash", "role", "is_active", "created_at", "updated_at"}

func TestAdminLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	tests := []struct {
		name           string
		body           string
		setupMock      func(mock sqlmock.Sqlmock)
		expectedStatus int
	}{
		{
			name: "valid credentials",
			body: `{"email": "Admin@Faith.example", "password": "correct-horse"}`,
			setupMock: func(mock sqlmock.Sqlmock) {
				now := time.Now()
				mock.ExpectQuery(`SELECT .* FROM "admins" WHERE \(\(lower\(email\) = 'admin@faith.example'\) AND \("is_active" IS TRUE\)\)`).
					WillReturnRows(sqlmock.NewRows(adminColumns).
						AddRow(1, 10, "admin@faith.example", string(hash), models.AdminRoleAdmin, true, now, now))
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "wrong password",
			body: `{"email": "admin@faith.example", "password": "wrong"}`,
			setupMock: func(mock sqlmock.Sqlmock) {
				now := time.Now()
				mock.ExpectQuery(`SELECT .* FROM "admins"`).
					WillReturnRows(sqlmock.NewRows(adminColumns).
						AddRow(1, 10, "admin@faith.example", string(hash), models.AdminRoleAdmin, true, now, now))
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "unknown or inactive admin",
			body: `{"email": "ghost@faith.example", "password": "correct-horse"}`,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .* FROM "admins"`).WillReturnRows(sqlmock.NewRows(adminColumns))
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "malformed email",
			body:           `{"email": "admin", "password": "correct-horse"}`,
			setupMock:      func(mock sqlmock.Sqlmock) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, mock, _, cleanup := SetupTestDB(t)
			defer cleanup()
			tt.setupMock(mock)

			c, w := SetupTestContext()
			c.Request = httptest.NewRequest("POST", "/api/admin/login", bytes.NewBufferString(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			AdminLogin(testJWT)(c)

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedStatus == http.StatusOK {
				var response struct {
					Data struct {
						Token string `json:"token"`
					} `json:"data"`
				}
				assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
				claims, err := services.ParseAdminToken(testJWT, response.Data.Token)
				if assert.NoError(t, err) {
					assert.Equal(t, 1, claims.Admin_ID)
					assert.Equal(t, models.AdminRoleAdmin, claims.Role)
				}
				assert.NotContains(t, w.Body.String(), "password_hash")
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCreateInvitation(t *testing.T) {
	_, mock, publisher, cleanup := SetupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(`INSERT INTO "invitations" .*'new.org@faith.example'.* RETURNING "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	c, w := SetupTestContext()
	SetAuthenticatedAdmin(c, MockSuperadmin())
	c.Request = httptest.NewRequest("POST", "/api/superadmin/invitations", bytes.NewBufferString(`{"email": " New.Org@faith.example "}`))
	c.Request.Header.Set("Content-Type", "application/json")

	CreateInvitation(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "token")

	events := publisher.Events()
	if assert.Len(t, events, 1) {
		assert.Equal(t, models.EventAdminInvitation, events[0].Type)
		assert.Equal(t, "new.org@faith.example", events[0].Email)
		assert.NotEmpty(t, events[0].Token)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptInvitationWithExpiredToken(t *testing.T) {
	_, mock, _, cleanup := SetupTestDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "invitations" .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "token", "expires_at", "used", "created_by", "created_at"}))
	mock.ExpectRollback()

	c, w := SetupTestContext()
	c.Request = httptest.NewRequest("POST", "/api/admin/invitations/accept", bytes.NewBufferString(
		`{"token": "stale", "password": "long-enough", "org_name": "Youth Ministry", "org_acronym": "ym"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	AcceptInvitation(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
