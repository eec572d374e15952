// Package notifications delivers notification requests produced by the
// dispatcher to the transport collaborator over Redis pub/sub.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"strings"

	"bulletin/internal/middleware"
	"bulletin/internal/models"
	"bulletin/internal/observability"

	"github.com/redis/go-redis/v9"
)

const userChannelPrefix = "notifications:user:"

// Notifier provides helpers to publish notifications into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// DeliveryReport counts the outcome of one Deliver call.
type DeliveryReport struct {
	Delivered int `json:"delivered"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// PublishUser sends a notification payload to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID int64, payload string) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// Deliver publishes every notification independently. Failures are logged
// and counted, never returned: the mutation that produced them already stands.
func (n *Notifier) Deliver(ctx context.Context, batch []models.Notification) DeliveryReport {
	var report DeliveryReport
	for _, note := range batch {
		kind := string(note.Kind)
		if n.rdb == nil {
			report.Skipped++
			observability.NotificationsTotal.WithLabelValues(kind, "skipped").Inc()
			continue
		}

		payload, err := json.Marshal(note)
		if err == nil {
			err = n.PublishUser(ctx, note.Recipient, string(payload))
		}
		if err != nil {
			report.Failed++
			observability.NotificationsTotal.WithLabelValues(kind, "failed").Inc()
			middleware.Logger.WarnContext(ctx, "notification delivery failed",
				slog.String("notification_id", note.ID),
				slog.String("kind", kind),
				slog.Int64("recipient", note.Recipient),
				slog.String("error", err.Error()),
			)
			continue
		}
		report.Delivered++
		observability.NotificationsTotal.WithLabelValues(kind, "delivered").Inc()
	}
	if report.Skipped > 0 {
		middleware.Logger.DebugContext(ctx, "redis unavailable, notifications skipped",
			slog.Int("count", report.Skipped))
	}
	return report
}

// StartPatternSubscriber subscribes to pattern `notifications:user:*` and calls onMessage
// for each incoming message. onMessage receives the recipient id and payload.
func (n *Notifier) StartPatternSubscriber(
	ctx context.Context, onMessage func(recipient int64, payload string),
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userChannelPrefix+"*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe notifications: %w", err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				recipient, err := ParseUserChannel(msg.Channel)
				if err != nil {
					middleware.Logger.Warn("ignoring message on unexpected channel", slog.String("channel", msg.Channel))
					continue
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in notification subscriber",
								slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
						}
					}()
					onMessage(recipient, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID int64) string {
	return userChannelPrefix + strconv.FormatInt(userID, 10)
}

// ParseUserChannel is the inverse of UserChannel.
func ParseUserChannel(channel string) (int64, error) {
	raw, ok := strings.CutPrefix(channel, userChannelPrefix)
	if !ok {
		return 0, fmt.Errorf("not a user channel: %q", channel)
	}
	return strconv.ParseInt(raw, 10, 64)
}
