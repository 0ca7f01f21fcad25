package services

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"mime/multipart"
	"strings"
	"time"

	"firebase.google.com/go/v4/storage"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	maxImageDimension = 1600
	imageJPEGQuality  = 82
	maxImageUpload    = 10 << 20
)

// ImageStore accepts an uploaded image and returns the public URL stored in the
// image/logo/photo columns.
type ImageStore interface {
	Upload(ctx context.Context, folder string, file *multipart.FileHeader) (string, error)
	Delete(ctx context.Context, publicURL string) error
}

var imageStore ImageStore

type firebaseImageStore struct {
	client *storage.Client
	bucket string
}

func initImageService(client *storage.Client, bucket string) {
	imageStore = &firebaseImageStore{client: client, bucket: bucket}
	log.Printf("Image storage initialized with bucket %s", bucket)
}

func GetImageService() ImageStore {
	return imageStore
}

// SetImageService replaces the image store and returns the previous one.
func SetImageService(s ImageStore) ImageStore {
	old := imageStore
	imageStore = s
	return old
}

// Upload downsizes the image to fit maxImageDimension, re-encodes it as JPEG
// and writes it to the bucket with a public-read ACL.
func (s *firebaseImageStore) Upload(ctx context.Context, folder string, file *multipart.FileHeader) (string, error) {
	if file.Size > maxImageUpload {
		return "", fmt.Errorf("image exceeds %d MB", maxImageUpload>>20)
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open image: %w", err)
	}
	defer src.Close()

	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}
	img = imaging.Fit(img, maxImageDimension, maxImageDimension, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(imageJPEGQuality)); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}

	bucket, err := s.client.Bucket(s.bucket)
	if err != nil {
		return "", fmt.Errorf("failed to open bucket: %w", err)
	}

	objectName := fmt.Sprintf("%s/%s-%s.jpg", strings.Trim(folder, "/"), time.Now().Format("20060102"), uuid.New().String())
	w := bucket.Object(objectName).NewWriter(ctx)
	w.ContentType = "image/jpeg"
	w.CacheControl = "public, max-age=31536000"
	w.PredefinedACL = "publicRead"

	if _, err := w.Write(buf.Bytes()); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	return s.publicURL(objectName), nil
}

// Delete removes an object previously returned by Upload. URLs that don't
// point into the bucket are ignored.
func (s *firebaseImageStore) Delete(ctx context.Context, publicURL string) error {
	prefix := s.publicURL("")
	if !strings.HasPrefix(publicURL, prefix) {
		return nil
	}

	bucket, err := s.client.Bucket(s.bucket)
	if err != nil {
		return err
	}
	return bucket.Object(strings.TrimPrefix(publicURL, prefix)).Delete(ctx)
}

func (s *firebaseImageStore) publicURL(objectName string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, objectName)
}

// DeleteImageQuietly removes a replaced image. Failures are logged only; the
// row that referenced the image has already been updated.
func DeleteImageQuietly(ctx context.Context, publicURL *string) {
	if publicURL == nil || *publicURL == "" || imageStore == nil {
		return
	}
	if err := imageStore.Delete(ctx, *publicURL); err != nil {
		log.Printf("Failed to delete old image %s: %v", *publicURL, err)
	}
}
