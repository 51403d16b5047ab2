// Package notify delivers push notifications through Firebase Cloud Messaging.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"firebase.google.com/go/v4/errorutils"
	"firebase.google.com/go/v4/messaging"
)

// ErrTokenUnregistered reports a device token FCM no longer accepts.
var ErrTokenUnregistered = errors.New("push token unregistered")

// Sender is the part of *messaging.Client used here.
type Sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// Notifier sends push notifications with bounded retry on transient errors.
// A Notifier without a Sender drops every message.
type Notifier struct {
	sender Sender
	retry  RetryConfig
	log    *slog.Logger
}

// NewNotifier creates a Notifier. sender may be nil when push is disabled.
func NewNotifier(sender Sender, retry RetryConfig, log *slog.Logger) *Notifier {
	return &Notifier{
		sender: sender,
		retry:  retry,
		log:    log.With("component", "push"),
	}
}

// Enabled reports whether messages are actually delivered.
func (n *Notifier) Enabled() bool { return n.sender != nil }

// SendToToken pushes a notification to one device and returns the FCM
// message id. link, if set, opens when a web notification is clicked.
func (n *Notifier) SendToToken(ctx context.Context, token, title, body, link string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("push token is required")
	}
	message := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
	}
	if link != "" {
		message.Webpush = &messaging.WebpushConfig{
			FCMOptions: &messaging.WebpushFCMOptions{
				Link: link,
			},
		}
	}
	return n.send(ctx, message)
}

// SendToTopic pushes a notification to every subscriber of topic.
func (n *Notifier) SendToTopic(ctx context.Context, topic, title, body string) (string, error) {
	return n.send(ctx, &messaging.Message{
		Topic: topic,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
	})
}

func (n *Notifier) send(ctx context.Context, message *messaging.Message) (string, error) {
	if n.sender == nil {
		n.log.DebugContext(ctx, "push disabled, dropping message", slog.String("title", message.Notification.Title))
		return "", nil
	}

	id, err := WithRetry(ctx, n.retry, isTransient, func(ctx context.Context) (string, error) {
		return n.sender.Send(ctx, message)
	})
	if err != nil {
		if messaging.IsUnregistered(err) {
			return "", fmt.Errorf("%w: %v", ErrTokenUnregistered, err)
		}
		n.log.WarnContext(ctx, "push failed", slog.String("error", err.Error()))
		return "", fmt.Errorf("send push: %w", err)
	}

	n.log.InfoContext(ctx, "push sent", slog.String("message_id", id))
	return id, nil
}

func isTransient(err error) bool {
	return errorutils.IsUnavailable(err) ||
		errorutils.IsInternal(err) ||
		errorutils.IsResourceExhausted(err) ||
		errorutils.IsDeadlineExceeded(err)
}
