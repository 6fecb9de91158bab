package events

import (
	"context"

	"growledger-go/models"
)

type notificationWriter interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
}

// Notifier stores a notification for every event that carries a title.
type Notifier struct {
	store notificationWriter
}

func NewNotifier(store notificationWriter) *Notifier {
	return &Notifier{store: store}
}

func (n *Notifier) Handle(ctx context.Context, e Event) error {
	if e.Title == "" {
		return nil
	}
	note := &models.Notification{
		Title:     e.Title,
		Message:   e.Message,
		CreatedAt: e.At,
	}
	if e.UserID != "" {
		uid := e.UserID
		note.UserID = &uid
	}
	return n.store.CreateNotification(ctx, note)
}
