package controllers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/FaithCommunity/models"
	"github.com/stretchr/testify/assert"
)

func TestBindNormalizedJSON(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		expectErr bool
		expected  string
	}{
		{name: "padded mixed-case address", body: `{"email": "  Member@Parish.example "}`, expected: "member@parish.example"},
		{name: "not an address after trimming", body: `{"email": "  member "}`, expectErr: true},
		{name: "blank address", body: `{"email": "   "}`, expectErr: true},
		{name: "malformed body", body: `{"email":`, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := SetupTestContext()
			c.Request = httptest.NewRequest("POST", "/api/subscribers", bytes.NewBufferString(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			var req models.SubscribeRequest
			err := bindNormalizedJSON(c, &req)

			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, req.Email)
		})
	}
}

func TestFailureEnvelopes(t *testing.T) {
	decode := func(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
		var body map[string]interface{}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		return body
	}

	t.Run("service error carries a message and error code", func(t *testing.T) {
		c, w := SetupTestContext()
		respondError(c, http.StatusNotFound, ErrCodeNotFound, "Submission not found")

		body := decode(t, w)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "Submission not found", body["message"])
		assert.Equal(t, ErrCodeNotFound, body["errorCode"])
	})

	t.Run("unexpected error keeps the raw cause under error", func(t *testing.T) {
		c, w := SetupTestContext()
		respondInternalError(c, "Failed to fetch FAQs", errors.New("connection reset"))

		body := decode(t, w)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Failed to fetch FAQs", body["message"])
		assert.Equal(t, "connection reset", body["error"])
	})

	t.Run("malformed payload", func(t *testing.T) {
		c, w := SetupTestContext()
		respondBindingError(c, errors.New("unexpected EOF"))

		body := decode(t, w)
		assert.Equal(t, "Invalid request payload", body["message"])
		assert.Equal(t, "unexpected EOF", body["error"])
		assert.Equal(t, ErrCodeValidation, body["errorCode"])
	})
}
