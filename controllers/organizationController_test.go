package controllers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

var organizationColumns = []string{
	"id", "name", "acronym", "description", "logo", "email", "facebook", "mission",
	"vision", "org_color", "status", "created_at", "updated_at",
}

func organizationRow(id int, acronym, email string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(organizationColumns).
		AddRow(id, "Youth Ministry", acronym, "", "", email, "", "", "", "#444444", "ACTIVE", now, now)
}

func TestUpdateOrganizationInfo(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(mock sqlmock.Sqlmock)
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "acronym used by another organization",
			body: `{"name": "Youth Ministry", "acronym": "cso", "email": "ym@faith.example"}`,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT .* FROM "organizations" .*FOR UPDATE`).
					WillReturnRows(organizationRow(10, "YM", "ym@faith.example"))
				mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "organizations" WHERE \(\(upper\(acronym\) = 'CSO'\) AND \("id" != 10\)\)`).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
				mock.ExpectRollback()
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   ErrCodeDuplicateAcronym,
		},
		{
			name: "changed email follows to the primary admin only",
			body: `{"name": "Youth Ministry", "acronym": "YM", "email": "New@faith.example"}`,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT .* FROM "organizations"`).
					WillReturnRows(organizationRow(10, "YM", "ym@faith.example"))
				mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "organizations"`).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
				mock.ExpectExec(`UPDATE "organizations" SET .*"email"='new@faith.example'`).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`UPDATE "admins" SET "email"='new@faith.example'.*WHERE \(\("organization_id" = 10\) AND \("role" = 'admin'\) AND \(lower\(email\) = 'ym@faith.example'\)\)`).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "unchanged email leaves admins alone",
			body: `{"name": "Youth Ministry Org", "acronym": "YM", "email": "ym@faith.example"}`,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT .* FROM "organizations"`).
					WillReturnRows(organizationRow(10, "YM", "ym@faith.example"))
				mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "organizations"`).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
				mock.ExpectExec(`UPDATE "organizations"`).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "email already used by another admin rolls everything back",
			body: `{"name": "Youth Ministry", "acronym": "YM", "email": "taken@faith.example"}`,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT .* FROM "organizations"`).
					WillReturnRows(organizationRow(10, "YM", "ym@faith.example"))
				mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "organizations"`).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
				mock.ExpectExec(`UPDATE "organizations"`).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`UPDATE "admins"`).
					WillReturnError(&pq.Error{Code: "23505", Constraint: "admins_email_key"})
				mock.ExpectRollback()
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   ErrCodeDuplicateEmail,
		},
		{
			name: "missing organization",
			body: `{"name": "Youth Ministry", "acronym": "YM", "email": "ym@faith.example"}`,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT .* FROM "organizations"`).
					WillReturnRows(sqlmock.NewRows(organizationColumns))
				mock.ExpectRollback()
			},
			expectedStatus: http.StatusNotFound,
			expectedCode:   ErrCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, mock, _, cleanup := SetupTestDB(t)
			defer cleanup()
			tt.setupMock(mock)

			c, w := SetupTestContext()
			SetAuthenticatedAdmin(c, MockSuperadmin())
			c.Params = []gin.Param{{Key: "id", Value: "10"}}
			c.Request = httptest.NewRequest("PUT", "/api/organizations/10", bytes.NewBufferString(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			UpdateOrganizationInfo(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				assert.Contains(t, w.Body.String(), tt.expectedCode)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestOrganizationSubmissions(t *testing.T) {
	t.Run("profile edit is recorded with a snapshot and the live row is untouched", func(t *testing.T) {
		_, mock, _, cleanup := SetupTestDB(t)
		defer cleanup()

		mock.ExpectQuery(`SELECT .* FROM "organizations" WHERE \("id" = 10\)`).
			WillReturnRows(organizationRow(10, "YM", "ym@faith.example"))
		mock.ExpectQuery(`INSERT INTO "submissions" .*'organization'.* RETURNING "id"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))

		c, w := SetupTestContext()
		SetAuthenticatedAdmin(c, MockAdmin())
		c.Params = []gin.Param{{Key: "id", Value: "10"}}
		c.Request = httptest.NewRequest("PUT", "/api/organizations/10/profile", bytes.NewBufferString(`{"mission": "Serve the community"}`))
		c.Request.Header.Set("Content-Type", "application/json")

		SubmitOrganizationProfile(c)

		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Contains(t, w.Body.String(), `"submission_id":12`)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty profile edit", func(t *testing.T) {
		c, w := SetupTestContext()
		SetAuthenticatedAdmin(c, MockAdmin())
		c.Params = []gin.Param{{Key: "id", Value: "10"}}
		c.Request = httptest.NewRequest("PUT", "/api/organizations/10/profile", bytes.NewBufferString(`{}`))
		c.Request.Header.Set("Content-Type", "application/json")

		SubmitOrganizationProfile(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("another organization's profile is forbidden", func(t *testing.T) {
		c, w := SetupTestContext()
		SetAuthenticatedAdmin(c, MockOtherAdmin())
		c.Params = []gin.Param{{Key: "id", Value: "10"}}
		c.Request = httptest.NewRequest("PUT", "/api/organizations/10/advocacy", bytes.NewBufferString(`{"text": "x"}`))
		c.Request.Header.Set("Content-Type", "application/json")

		SubmitAdvocacy(c)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("first advocacy has no previous data", func(t *testing.T) {
		_, mock, _, cleanup := SetupTestDB(t)
		defer cleanup()

		mock.ExpectQuery(`SELECT "advocacy" FROM "advocacies" WHERE \("organization_id" = 10\)`).
			WillReturnRows(sqlmock.NewRows([]string{"advocacy"}))
		mock.ExpectQuery(`INSERT INTO "submissions" .*'advocacy'`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(13))

		c, w := SetupTestContext()
		SetAuthenticatedAdmin(c, MockAdmin())
		c.Params = []gin.Param{{Key: "id", Value: "10"}}
		c.Request = httptest.NewRequest("PUT", "/api/organizations/10/advocacy", bytes.NewBufferString(`{"text": "  Literacy for all  "}`))
		c.Request.Header.Set("Content-Type", "application/json")

		SubmitAdvocacy(c)

		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
