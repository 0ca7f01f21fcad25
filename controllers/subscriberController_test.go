package controllers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/FaithCommunity/models"
	"github.com/stretchr/testify/assert"
)

func TestSubscribe(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(mock sqlmock.Sqlmock)
		expectedStatus int
		expectEvent    bool
	}{
		{
			name: "new address gets a verification email",
			body: `{"email": "  Member@Parish.example "}`,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO "subscribers" .*'member@parish.example'.*ON CONFLICT \(email\) DO UPDATE SET .*WHERE \("subscribers"."is_verified" IS FALSE\) RETURNING "id"`).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
			},
			expectedStatus: http.StatusCreated,
			expectEvent:    true,
		},
		{
			name: "verified address is acknowledged without mail",
			body: `{"email": "member@parish.example"}`,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO "subscribers"`).
					WillReturnRows(sqlmock.NewRows([]string{"id"}))
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid email",
			body:           `{"email": "not-an-email"}`,
			setupMock:      func(mock sqlmock.Sqlmock) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, mock, publisher, cleanup := SetupTestDB(t)
			defer cleanup()
			tt.setupMock(mock)

			c, w := SetupTestContext()
			c.Request = httptest.NewRequest("POST", "/api/subscribers", bytes.NewBufferString(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			Subscribe(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectEvent {
				events := publisher.Events()
				if assert.Len(t, events, 1) {
					assert.Equal(t, models.EventSubscriberVerification, events[0].Type)
					assert.Equal(t, "member@parish.example", events[0].Email)
					assert.NotEmpty(t, events[0].Token)
				}
			} else {
				assert.Empty(t, publisher.Events())
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestVerifyAndUnsubscribe(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		unsubscribe    bool
		setupMock      func(mock sqlmock.Sqlmock)
		expectedStatus int
	}{
		{
			name: "verification rotates the token",
			url:  "/api/subscribers/verify?token=abc",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE "subscribers" SET "is_verified"=TRUE,"verify_token"='[0-9a-f-]{36}' WHERE \("verify_token" = 'abc'\)`).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "used verification token",
			url:  "/api/subscribers/verify?token=abc",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE "subscribers"`).WillReturnResult(sqlmock.NewResult(0, 0))
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing verification token",
			url:            "/api/subscribers/verify",
			setupMock:      func(mock sqlmock.Sqlmock) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "unsubscribe rotates both tokens",
			url:         "/api/subscribers/unsubscribe?token=xyz",
			unsubscribe: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE "subscribers" SET "is_verified"=FALSE,"unsubscribe_token"='[0-9a-f-]{36}',"verify_token"='[0-9a-f-]{36}' WHERE \("unsubscribe_token" = 'xyz'\)`).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "replayed unsubscribe link",
			url:         "/api/subscribers/unsubscribe?token=xyz",
			unsubscribe: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE "subscribers"`).WillReturnResult(sqlmock.NewResult(0, 0))
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, mock, _, cleanup := SetupTestDB(t)
			defer cleanup()
			tt.setupMock(mock)

			c, w := SetupTestContext()
			c.Request = httptest.NewRequest("GET", tt.url, nil)

			if tt.unsubscribe {
				Unsubscribe(c)
			} else {
				VerifySubscription(c)
			}

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
