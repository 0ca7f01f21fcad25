package services

import (
	"context"
	"errors"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeImageStore struct {
	deleted []string
	err     error
}

func (f *fakeImageStore) Upload(context.Context, string, *multipart.FileHeader) (string, error) {
	return "", nil
}

func (f *fakeImageStore) Delete(_ context.Context, publicURL string) error {
	f.deleted = append(f.deleted, publicURL)
	return f.err
}

func TestDeleteImageQuietly(t *testing.T) {
	store := &fakeImageStore{}
	old := SetImageService(store)
	defer SetImageService(old)

	empty := ""
	url := "https://storage.googleapis.com/bucket/programs/a.jpg"

	DeleteImageQuietly(context.Background(), nil)
	DeleteImageQuietly(context.Background(), &empty)
	DeleteImageQuietly(context.Background(), &url)

	assert.Equal(t, []string{url}, store.deleted)

	store.err = errors.New("bucket unavailable")
	assert.NotPanics(t, func() { DeleteImageQuietly(context.Background(), &url) })
}

func TestFirebaseImageStoreIgnoresForeignURLs(t *testing.T) {
	store := &firebaseImageStore{bucket: "faith-bucket"}

	err := store.Delete(context.Background(), "https://example.com/elsewhere.jpg")

	assert.NoError(t, err)
	assert.Equal(t, "https://storage.googleapis.com/faith-bucket/news/x.jpg", store.publicURL("news/x.jpg"))
}
