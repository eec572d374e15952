package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bulletin/internal/bootstrap"
	"bulletin/internal/config"
	"bulletin/internal/middleware"
	"bulletin/internal/store"
	"bulletin/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-webhook-secret-0123456789abcdef"

const (
	alice int64 = 1
	bob   int64 = 2
)

type harness struct {
	server *Server
	app    *fiber.App
	rdb    *redis.Client
	token  string
}

type harnessOption func(*config.Config)

func withFlags(flags string) harnessOption {
	return func(c *config.Config) { c.FeatureFlags = flags }
}

func withRateLimit(n int) harnessOption {
	return func(c *config.Config) { c.RateLimitPerMinute = n }
}

// newHarness builds a server over a memory store. useRedis=false runs
// without a notification bus.
func newHarness(t *testing.T, useRedis bool, opts ...harnessOption) *harness {
	t.Helper()
	cfg := &config.Config{
		Env:                "test",
		Port:               "0",
		AdminID:            testutil.AdminID,
		WebhookSecret:      testSecret,
		RateLimitPerMinute: 1000,
		ComplaintBanDays:   3,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	var rdb *redis.Client
	if useRedis {
		mr := miniredis.RunT(t)
		rdb = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	}

	rt, err := bootstrap.NewRuntime(context.Background(), cfg, nil, rdb, store.NewMemoryBackend(), testutil.NewClock())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close(context.Background()) })

	testutil.Approve(t, rt.Store,
		testutil.Member(alice, "111111", "Alekseeva", "Alice"),
		testutil.Member(bob, "222222", "Borisov", "Bob"),
	)

	token, err := middleware.IssueTransportToken(testSecret, time.Hour)
	require.NoError(t, err)

	s := NewServerWithDeps(cfg, rt)
	return &harness{server: s, app: s.NewApp(), rdb: rdb, token: token}
}

func (h *harness) post(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	var raw []byte
	switch b := body.(type) {
	case string:
		raw = []byte(b)
	default:
		var err error
		raw, err = json.Marshal(b)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.token)
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// event posts body and decodes a 200 EventResponse.
func (h *harness) event(t *testing.T, path string, body any) EventResponse {
	t.Helper()
	resp := h.post(t, path, body)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var out EventResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (h *harness) command(t *testing.T, userID int64, name string, args map[string]string) EventResponse {
	t.Helper()
	return h.event(t, "/api/v1/events/command", CommandEvent{UserID: userID, Command: name, Args: args})
}

func (h *harness) callback(t *testing.T, userID int64, action string, payload map[string]string) EventResponse {
	t.Helper()
	return h.event(t, "/api/v1/events/callback", CallbackEvent{UserID: userID, Action: action, Payload: payload})
}

func (h *harness) message(t *testing.T, userID int64, text string) EventResponse {
	t.Helper()
	return h.event(t, "/api/v1/events/message", MessageEvent{UserID: userID, Text: text})
}

func decodeError(t *testing.T, resp *http.Response) (status int, code string) {
	t.Helper()
	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body.Code
}

func stringsReader(s string) *bytes.Reader { return bytes.NewReader([]byte(s)) }
