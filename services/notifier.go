package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/FaithCommunity/models"
)

// Publisher hands a notification event to whatever delivers it.
type Publisher interface {
	Publish(ctx context.Context, evt models.NotificationEvent) error
}

var (
	publisherMu sync.RWMutex
	publisher   Publisher = &inlinePublisher{}

	links notificationLinks
)

type requestIDKey struct{}

// WithRequestID attaches the request correlation id to ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type notificationLinks struct {
	frontendBaseURL string
	apiBaseURL      string
	programsTopic   string
}

// InitNotifier records the base URLs used to build links in outgoing messages.
func InitNotifier(frontendBaseURL, apiBaseURL, programsTopic string) {
	links = notificationLinks{
		frontendBaseURL: frontendBaseURL,
		apiBaseURL:      apiBaseURL,
		programsTopic:   programsTopic,
	}
}

// SetPublisher swaps the active publisher and returns the previous one.
func SetPublisher(p Publisher) Publisher {
	publisherMu.Lock()
	defer publisherMu.Unlock()
	old := publisher
	publisher = p
	return old
}

func currentPublisher() Publisher {
	publisherMu.RLock()
	defer publisherMu.RUnlock()
	return publisher
}

// PublishEvent is called after the primary write has committed. A failure to
// publish is logged and counted but never reported to the caller.
func PublishEvent(ctx context.Context, evt models.NotificationEvent) {
	if evt.Request_ID == "" {
		evt.Request_ID = RequestIDFromContext(ctx)
	}
	if err := currentPublisher().Publish(ctx, evt); err != nil {
		notificationPublishFailures.WithLabelValues(evt.Type).Inc()
		log.Printf("[%s] Failed to publish %s event: %v", evt.Request_ID, evt.Type, err)
	}
}

// inlinePublisher dispatches on a goroutine, detached from the request.
type inlinePublisher struct{}

func (p *inlinePublisher) Publish(_ context.Context, evt models.NotificationEvent) error {
	go func(evt models.NotificationEvent) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := DispatchEvent(ctx, evt); err != nil {
			log.Printf("[%s] Notification %s failed: %v", evt.Request_ID, evt.Type, err)
		}
	}(evt)
	return nil
}
