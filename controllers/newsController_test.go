package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/FaithCommunity/models"
	"github.com/FaithCommunity/services"
	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

var newsColumns = []string{
	"id", "organization_id", "title", "slug", "content", "excerpt", "featured_image",
	"published_at", "is_deleted", "deleted_at", "created_at", "updated_at",
}

func newsRow(rows *sqlmock.Rows, id int, title string, deletedAt *time.Time) *sqlmock.Rows {
	now := time.Now()
	var deleted interface{}
	if deletedAt != nil {
		deleted = *deletedAt
	}
	return rows.AddRow(id, 10, title, "slug-"+title, "Body", "", nil, now, deletedAt != nil, deleted, now, now)
}

func TestCreateNews(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(mock sqlmock.Sqlmock)
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "title compared case-insensitively within the organization",
			body: `{"title": "Parish News", "content": "Body"}`,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "news" WHERE .*"organization_id" = 10.*lower\(title\) = 'parish news'.*"is_deleted" IS FALSE`).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   ErrCodeDuplicateTitle,
		},
		{
			name: "requested slug already used by a live article",
			body: `{"title": "Parish News", "content": "Body", "slug": "Parish News"}`,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "news"`).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
				mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "news" WHERE \(\("slug" = 'parish-news'\) AND \("is_deleted" IS FALSE\)\)`).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   ErrCodeDuplicateSlug,
		},
		{
			name: "concurrent insert loses on the title index",
			body: `{"title": "Parish News", "content": "Body"}`,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "news"`).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
				mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "news"`).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
				mock.ExpectQuery(`INSERT INTO "news"`).
					WillReturnError(&pq.Error{Code: "23505", Constraint: newsTitleIndex})
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   ErrCodeDuplicateTitle,
		},
		{
			name: "new article gets a slug from its title",
			body: `{"title": "Parish News", "content": "Body", "published_at": "2026-10-01"}`,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "news"`).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
				mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "news" WHERE \(\("slug" = 'parish-news'\) AND \("is_deleted" IS FALSE\)\)`).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
				mock.ExpectQuery(`INSERT INTO "news" .*'parish-news'.* RETURNING "id"`).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "content is required",
			body:           `{"title": "Parish News"}`,
			setupMock:      func(mock sqlmock.Sqlmock) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrCodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, mock, _, cleanup := SetupTestDB(t)
			defer cleanup()
			tt.setupMock(mock)

			c, w := SetupTestContext()
			SetAuthenticatedAdmin(c, MockAdmin())
			c.Request = httptest.NewRequest("POST", "/api/admin/news", bytes.NewBufferString(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			CreateNews(c)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var response struct {
				ErrorCode string      `json:"errorCode"`
				Data      models.News `json:"data"`
			}
			assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, response.ErrorCode)
			} else {
				assert.Equal(t, 5, response.Data.ID)
				assert.Equal(t, "parish-news", response.Data.Slug)
				assert.Equal(t, "2026-10-01", response.Data.Published_At.Format("2006-01-02"))
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestNewsSoftDeleteLifecycle(t *testing.T) {
	tests := []struct {
		name           string
		handler        gin.HandlerFunc
		setupMock      func(mock sqlmock.Sqlmock)
		expectedStatus int
	}{
		{
			name:    "soft delete",
			handler: DeleteNews,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE "news" SET .*"is_deleted"=TRUE.*"is_deleted" IS FALSE`).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:    "soft delete of a missing article",
			handler: DeleteNews,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE "news"`).WillReturnResult(sqlmock.NewResult(0, 0))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:    "restore",
			handler: RestoreNews,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE "news" SET "deleted_at"=NULL,"is_deleted"=FALSE.*"is_deleted" IS TRUE`).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:    "restore when nothing is deleted",
			handler: RestoreNews,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE "news"`).WillReturnResult(sqlmock.NewResult(0, 0))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:    "restore collides with a live article",
			handler: RestoreNews,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE "news"`).
					WillReturnError(&pq.Error{Code: "23505", Constraint: newsSlugIndex})
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:    "permanent delete of an active article is refused",
			handler: PermanentlyDeleteNews,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .* FROM "news"`).
					WillReturnRows(newsRow(sqlmock.NewRows(newsColumns), 3, "live", nil))
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:    "permanent delete of a soft-deleted article",
			handler: PermanentlyDeleteNews,
			setupMock: func(mock sqlmock.Sqlmock) {
				deletedAt := time.Now().Add(-48 * time.Hour)
				mock.ExpectQuery(`SELECT .* FROM "news"`).
					WillReturnRows(newsRow(sqlmock.NewRows(newsColumns), 3, "gone", &deletedAt))
				mock.ExpectExec(`DELETE FROM "news" WHERE \(\("id" = 3\) AND \("is_deleted" IS TRUE\)\)`).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, mock, _, cleanup := SetupTestDB(t)
			defer cleanup()
			tt.setupMock(mock)

			c, w := SetupTestContext()
			SetAuthenticatedAdmin(c, MockAdmin())
			c.Params = []gin.Param{{Key: "id", Value: "3"}}
			c.Request = httptest.NewRequest("PUT", "/api/admin/news/3", nil)

			tt.handler(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGetDeletedNews(t *testing.T) {
	_, mock, _, cleanup := SetupTestDB(t)
	defer cleanup()

	yesterday := time.Now().Add(-24 * time.Hour)
	expired := time.Now().Add(-16 * 24 * time.Hour)
	rows := sqlmock.NewRows(newsColumns)
	newsRow(rows, 1, "recent", &yesterday)
	newsRow(rows, 2, "old", &expired)
	mock.ExpectQuery(`SELECT .* FROM "news" WHERE \(\("organization_id" = 10\) AND \("is_deleted" IS TRUE\)\)`).
		WillReturnRows(rows)

	c, w := SetupTestContext()
	SetAuthenticatedAdmin(c, MockAdmin())
	c.Request = httptest.NewRequest("GET", "/api/admin/news/deleted", nil)

	GetDeletedNews(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Data []models.DeletedNews `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	if assert.Len(t, response.Data, 2) {
		assert.Equal(t, 14, response.Data[0].Days_Until_Permanent_Deletion)
		assert.Equal(t, 0, response.Data[1].Days_Until_Permanent_Deletion)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

type recordingImageStore struct {
	uploaded []string
	deleted  []string
}

func (s *recordingImageStore) Upload(_ context.Context, folder string, file *multipart.FileHeader) (string, error) {
	url := "https://storage.googleapis.com/faith-bucket/" + folder + "/" + file.Filename
	s.uploaded = append(s.uploaded, url)
	return url, nil
}

func (s *recordingImageStore) Delete(_ context.Context, publicURL string) error {
	s.deleted = append(s.deleted, publicURL)
	return nil
}

func multipartNewsRequest(t *testing.T, method, target string, fields map[string]string) *http.Request {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		assert.NoError(t, mw.WriteField(k, v))
	}
	part, err := mw.CreateFormFile("featured_image", "cover.jpg")
	assert.NoError(t, err)
	_, _ = part.Write([]byte("jpeg bytes"))
	assert.NoError(t, mw.Close())

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestNewsUploadIsRemovedWhenWriteFails(t *testing.T) {
	tests := []struct {
		name      string
		update    bool
		setupMock func(mock sqlmock.Sqlmock)
	}{
		{
			name: "create loses the title race",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "news"`).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
				mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "news"`).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
				mock.ExpectQuery(`INSERT INTO "news" .*'https://storage.googleapis.com/faith-bucket/news/cover.jpg'`).
					WillReturnError(&pq.Error{Code: "23505", Constraint: newsTitleIndex})
			},
		},
		{
			name:   "update loses the slug race",
			update: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .* FROM "news" WHERE .*"id" = 3`).
					WillReturnRows(newsRow(sqlmock.NewRows(newsColumns), 3, "Parish News", nil))
				mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "news"`).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
				mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "news"`).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
				mock.ExpectExec(`UPDATE "news" SET .*"featured_image"='https://storage.googleapis.com/faith-bucket/news/cover.jpg'`).
					WillReturnError(&pq.Error{Code: "23505", Constraint: newsSlugIndex})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, mock, _, cleanup := SetupTestDB(t)
			defer cleanup()
			tt.setupMock(mock)

			store := &recordingImageStore{}
			old := services.SetImageService(store)
			defer services.SetImageService(old)

			c, w := SetupTestContext()
			SetAuthenticatedAdmin(c, MockAdmin())
			fields := map[string]string{"title": "Parish Bulletin", "content": "Body"}
			if tt.update {
				c.Params = []gin.Param{{Key: "id", Value: "3"}}
				c.Request = multipartNewsRequest(t, "PUT", "/api/news/3", fields)
				UpdateNews(c)
			} else {
				c.Request = multipartNewsRequest(t, "POST", "/api/news", fields)
				CreateNews(c)
			}

			assert.Equal(t, http.StatusConflict, w.Code)
			if assert.Len(t, store.uploaded, 1) {
				assert.Equal(t, store.uploaded, store.deleted)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
