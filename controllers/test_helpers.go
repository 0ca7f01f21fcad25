package controllers

import (
	"context"
	"database/sql"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/FaithCommunity/initializers"
	"github.com/FaithCommunity/models"
	"github.com/FaithCommunity/services"
	"github.com/doug-martin/goqu/v9"
	"github.com/gin-gonic/gin"
)

// SetupTestDB creates a mock database and sets it as the global DB for testing.
// Notification events are captured instead of dispatched so no goroutine
// touches the mock after the test returns.
func SetupTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *RecordingPublisher, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}

	originalDB := initializers.DB
	initializers.DB = goqu.New("postgres", db)

	publisher := &RecordingPublisher{}
	originalPublisher := services.SetPublisher(publisher)

	cleanup := func() {
		db.Close()
		initializers.DB = originalDB
		services.SetPublisher(originalPublisher)
	}

	return db, mock, publisher, cleanup
}

// SetupTestContext creates a test Gin context with a response recorder
func SetupTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	return c, w
}

// SetAuthenticatedAdmin simulates what the CheckAuth middleware does
func SetAuthenticatedAdmin(c *gin.Context, admin models.Admin) {
	c.Set("currentAdmin", admin)
	c.Set("superadmin", admin.IsSuperadmin())
}

// RecordingPublisher keeps every published event for assertions.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []models.NotificationEvent
}

func (p *RecordingPublisher) Publish(_ context.Context, evt models.NotificationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *RecordingPublisher) Events() []models.NotificationEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.NotificationEvent(nil), p.events...)
}

func (p *RecordingPublisher) Types() []string {
	var types []string
	for _, evt := range p.Events() {
		types = append(types, evt.Type)
	}
	return types
}

var submissionColumns = []string{
	"id", "section", "organization_id", "submitted_by", "submitted_at", "status",
	"previous_data", "proposed_data", "rejection_comment", "reviewed_by", "reviewed_at",
}

func submissionRow(id int, section, status string, orgID int, proposed string) *sqlmock.Rows {
	return sqlmock.NewRows(submissionColumns).
		AddRow(id, section, orgID, 1, time.Now(), status, nil, []byte(proposed), nil, nil, nil)
}
