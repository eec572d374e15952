package notifications

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"bulletin/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestNotifier_PublishUser(t *testing.T) {
	// Notifier with nil Redis should return nil error (fail-open/noop)
	n := NewNotifier(nil)
	err := n.PublishUser(context.Background(), 1, "test payload")
	assert.NoError(t, err)
}

func TestUserChannel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		userID   int64
		expected string
	}{
		{1, "notifications:user:1"},
		{100, "notifications:user:100"},
		{-42, "notifications:user:-42"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, UserChannel(tt.userID))
		id, err := ParseUserChannel(tt.expected)
		require.NoError(t, err)
		assert.Equal(t, tt.userID, id)
	}

	_, err := ParseUserChannel("chat:conv:5")
	assert.Error(t, err)
}

func TestNotifier_DeliverReachesSubscriber(t *testing.T) {
	_, rdb := newRedis(t)
	n := NewNotifier(rdb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type received struct {
		recipient int64
		note      models.Notification
	}
	var mu sync.Mutex
	var got []received
	require.NoError(t, n.StartPatternSubscriber(ctx, func(recipient int64, payload string) {
		var note models.Notification
		if err := json.Unmarshal([]byte(payload), &note); err != nil {
			return
		}
		mu.Lock()
		got = append(got, received{recipient, note})
		mu.Unlock()
	}))

	batch := []models.Notification{
		models.NewNotification(7, models.NotifyRegistrationApproved, nil),
		models.NewNotification(1000, models.NotifySupportRequest,
			map[string]string{"question": "help"}, models.UserAction(models.ActionReplyTo, 7)),
	}
	report := n.Deliver(context.Background(), batch)
	assert.Equal(t, DeliveryReport{Delivered: 2}, report)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	byRecipient := map[int64]models.Notification{}
	for _, r := range got {
		byRecipient[r.recipient] = r.note
	}
	assert.Equal(t, batch[0].ID, byRecipient[7].ID)
	assert.Equal(t, models.NotifySupportRequest, byRecipient[1000].Kind)
	require.Len(t, byRecipient[1000].Actions, 1)
	assert.Equal(t, "7", byRecipient[1000].Actions[0].Payload["user_id"])
}

func TestNotifier_SubscriberStopsOnCancel(t *testing.T) {
	_, rdb := newRedis(t)
	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())

	payloads := make(chan string, 4)
	require.NoError(t, n.StartPatternSubscriber(ctx, func(_ int64, payload string) {
		payloads <- payload
	}))

	require.NoError(t, n.PublishUser(context.Background(), 3, "before-cancel"))
	assert.Eventually(t, func() bool { return len(payloads) == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	time.Sleep(20 * time.Millisecond)
	<-payloads

	require.NoError(t, n.PublishUser(context.Background(), 3, "after-cancel"))
	assert.Never(t, func() bool {
		select {
		case payload := <-payloads:
			return payload == "after-cancel"
		default:
			return false
		}
	}, 100*time.Millisecond, 10*time.Millisecond)
}

func TestNotifier_DeliverSwallowsFailures(t *testing.T) {
	mr, rdb := newRedis(t)
	n := NewNotifier(rdb)
	mr.Close()

	report := n.Deliver(context.Background(), []models.Notification{
		models.NewNotification(1, models.NotifyBanned, nil),
		models.NewNotification(2, models.NotifyBanned, nil),
	})
	assert.Equal(t, DeliveryReport{Failed: 2}, report)
}

func TestNotifier_DeliverWithoutRedis(t *testing.T) {
	report := NewNotifier(nil).Deliver(context.Background(), []models.Notification{
		models.NewNotification(1, models.NotifyBroadcast, map[string]string{"text": "hi"}),
	})
	assert.Equal(t, DeliveryReport{Skipped: 1}, report)
}
