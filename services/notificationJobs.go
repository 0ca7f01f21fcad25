package services

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/FaithCommunity/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
)

const notificationMaxAttempts = 5

// NotificationDispatchArgs is the River job carrying one notification event.
type NotificationDispatchArgs struct {
	Event models.NotificationEvent `json:"event"`
}

func (NotificationDispatchArgs) Kind() string { return "notification_dispatch" }

type notificationDispatchWorker struct {
	river.WorkerDefaults[NotificationDispatchArgs]
}

func (w *notificationDispatchWorker) Work(ctx context.Context, job *river.Job[NotificationDispatchArgs]) error {
	return DispatchEvent(ctx, job.Args.Event)
}

// NotificationQueue owns the River client that delivers notification events.
type NotificationQueue struct {
	client *river.Client[pgx.Tx]
}

type riverPublisher struct {
	client *river.Client[pgx.Tx]
}

func (p *riverPublisher) Publish(ctx context.Context, evt models.NotificationEvent) error {
	_, err := p.client.Insert(ctx, NotificationDispatchArgs{Event: evt}, &river.InsertOpts{
		MaxAttempts: notificationMaxAttempts,
	})
	return err
}

// StartNotificationQueue migrates River's tables, starts its workers and makes
// it the active publisher.
func StartNotificationQueue(ctx context.Context, pool *pgxpool.Pool, workers int) (*NotificationQueue, error) {
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return nil, fmt.Errorf("create river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return nil, fmt.Errorf("run river migrations: %w", err)
	}

	registry := river.NewWorkers()
	river.AddWorker(registry, &notificationDispatchWorker{})

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: workers},
		},
		Workers: registry,
		Logger:  slog.Default(),
	})
	if err != nil {
		return nil, fmt.Errorf("create river client: %w", err)
	}

	if err := client.Start(ctx); err != nil {
		return nil, fmt.Errorf("start river client: %w", err)
	}

	SetPublisher(&riverPublisher{client: client})
	log.Printf("Notification queue started with %d workers", workers)

	return &NotificationQueue{client: client}, nil
}

func (q *NotificationQueue) Stop(ctx context.Context) error {
	SetPublisher(&inlinePublisher{})
	return q.client.Stop(ctx)
}
