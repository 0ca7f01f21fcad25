package services

import (
	"context"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

type PushNotificationService struct {
	fcmClient *messaging.Client
}

type NotificationPayload struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Link  string            `json:"link,omitempty"`
	Data  map[string]string `json:"data,omitempty"`
}

var pushService *PushNotificationService

// InitFirebase boots the Firebase Admin SDK once and wires the push and image
// storage services that depend on it. Either service stays nil when its part of
// the SDK cannot be initialized.
func InitFirebase(ctx context.Context, credentialsPath, storageBucket string) {
	var opts []option.ClientOption
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}

	var conf *firebase.Config
	if storageBucket != "" {
		conf = &firebase.Config{StorageBucket: storageBucket}
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		log.Printf("Failed to initialize Firebase app: %v", err)
		return
	}
	if credentialsPath != "" {
		log.Println("Firebase initialized with service account file")
	} else {
		log.Println("Firebase initialized with Application Default Credentials")
	}

	fcmClient, err := app.Messaging(ctx)
	if err != nil {
		log.Printf("Failed to get Firebase messaging client: %v", err)
	} else {
		pushService = &PushNotificationService{fcmClient: fcmClient}
		log.Println("Push notification service initialized successfully with FCM")
	}

	if storageBucket == "" {
		log.Println("WARNING: FIREBASE_STORAGE_BUCKET not set. Image uploads will not be available.")
		return
	}
	storageClient, err := app.Storage(ctx)
	if err != nil {
		log.Printf("Failed to get Firebase storage client: %v", err)
		return
	}
	initImageService(storageClient, storageBucket)
}

func GetPushNotificationService() *PushNotificationService {
	return pushService
}

// SendToTopic broadcasts a web push to every browser subscribed to topic.
func (s *PushNotificationService) SendToTopic(ctx context.Context, topic string, payload NotificationPayload) error {
	if s == nil || s.fcmClient == nil {
		return fmt.Errorf("push notification service not initialized")
	}

	message := &messaging.Message{
		Topic: topic,
		Notification: &messaging.Notification{
			Title: payload.Title,
			Body:  payload.Body,
		},
		Data: payload.Data,
	}
	if payload.Link != "" {
		message.Webpush = &messaging.WebpushConfig{
			FCMOptions: &messaging.WebpushFCMOptions{Link: payload.Link},
		}
	}

	id, err := s.fcmClient.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send push to topic %s: %w", topic, err)
	}

	log.Printf("Push notification sent to topic %s: %s", topic, id)
	return nil
}
