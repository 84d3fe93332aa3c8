package dispatcher

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/kaikybrofc/ayana-bot/internal/database"
	"github.com/kaikybrofc/ayana-bot/internal/moderation"
)

type capturedRequest struct {
	Method string
	Path   string
	Auth   string
	Reason string
	Body   []byte
}

func newTestActuator(t *testing.T, status int, respBody string) (*RESTActuator, *[]capturedRequest) {
	t.Helper()
	var (
		mu       sync.Mutex
		captured []capturedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		captured = append(captured, capturedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Auth:   r.Header.Get("Authorization"),
			Reason: r.Header.Get("X-Audit-Log-Reason"),
			Body:   body,
		})
		mu.Unlock()
		w.WriteHeader(status)
		w.Write([]byte(respBody))
	}))
	t.Cleanup(srv.Close)

	actuator := NewRESTActuator(NewHTTPPool(1), NewRateLimitMonitor(), "test-token", srv.URL)
	return actuator, &captured
}

func TestExecuteBan(t *testing.T) {
	actuator, captured := newTestActuator(t, http.StatusNoContent, "")

	err := actuator.Execute(context.Background(), moderation.PunishmentIntent{
		GuildID: "g1", UserID: "u1", Kind: database.KindBan, Reason: "5 active warnings",
	})
	require.NoError(t, err)

	require.Len(t, *captured, 1)
	req := (*captured)[0]
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/guilds/g1/bans/u1", req.Path)
	assert.Equal(t, "Bot test-token", req.Auth)
	assert.Equal(t, "5 active warnings", req.Reason)
	assert.JSONEq(t, `{"delete_message_seconds":0}`, string(req.Body))
}

func TestExecuteKickAndUnban(t *testing.T) {
	actuator, captured := newTestActuator(t, http.StatusNoContent, "")
	ctx := context.Background()

	require.NoError(t, actuator.Execute(ctx, moderation.PunishmentIntent{
		GuildID: "g1", UserID: "u1", Kind: database.KindKick, Reason: "r",
	}))
	require.NoError(t, actuator.Execute(ctx, moderation.PunishmentIntent{
		GuildID: "g1", UserID: "u1", Kind: database.KindUnban, Reason: "r",
	}))

	require.Len(t, *captured, 2)
	assert.Equal(t, http.MethodDelete, (*captured)[0].Method)
	assert.Equal(t, "/guilds/g1/members/u1", (*captured)[0].Path)
	assert.Equal(t, http.MethodDelete, (*captured)[1].Method)
	assert.Equal(t, "/guilds/g1/bans/u1", (*captured)[1].Path)
}

func TestExecuteTimeoutSetsDisabledUntil(t *testing.T) {
	actuator, captured := newTestActuator(t, http.StatusOK, "{}")

	err := actuator.Execute(context.Background(), moderation.PunishmentIntent{
		GuildID: "g1", UserID: "u1", Kind: database.KindTimeout,
		Duration: time.Hour, Reason: "r",
	})
	require.NoError(t, err)

	require.Len(t, *captured, 1)
	req := (*captured)[0]
	assert.Equal(t, http.MethodPatch, req.Method)
	assert.Equal(t, "/guilds/g1/members/u1", req.Path)

	var payload map[string]*string
	require.NoError(t, json.Unmarshal(req.Body, &payload))
	require.NotNil(t, payload["communication_disabled_until"])

	until, err := time.Parse(time.RFC3339, *payload["communication_disabled_until"])
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC().Add(time.Hour), until, time.Minute)
}

func TestExecuteUntimeoutClearsDisabledUntil(t *testing.T) {
	actuator, captured := newTestActuator(t, http.StatusOK, "{}")

	err := actuator.Execute(context.Background(), moderation.PunishmentIntent{
		GuildID: "g1", UserID: "u1", Kind: database.KindUntimeout, Reason: "r",
	})
	require.NoError(t, err)
	require.Len(t, *captured, 1)
	assert.JSONEq(t, `{"communication_disabled_until":null}`, string((*captured)[0].Body))
}

func TestExecuteRejectionCarriesDiscordReason(t *testing.T) {
	actuator, _ := newTestActuator(t, http.StatusForbidden, `{"message":"Missing Permissions","code":50013}`)

	err := actuator.Execute(context.Background(), moderation.PunishmentIntent{
		GuildID: "g1", UserID: "u1", Kind: database.KindBan, Reason: "r",
	})

	var actErr *moderation.ActuatorError
	require.ErrorAs(t, err, &actErr)
	assert.Contains(t, actErr.Reason, "Missing Permissions")
	assert.Contains(t, actErr.Reason, "403")
}

func TestExecuteUnsupportedKind(t *testing.T) {
	actuator, captured := newTestActuator(t, http.StatusOK, "")

	err := actuator.Execute(context.Background(), moderation.PunishmentIntent{
		GuildID: "g1", UserID: "u1", Kind: database.KindWarn,
	})
	var actErr *moderation.ActuatorError
	require.ErrorAs(t, err, &actErr)
	assert.Empty(t, *captured, "warns never reach the platform")
}

func TestRateLimitMonitor(t *testing.T) {
	rlm := NewRateLimitMonitor()
	assert.True(t, rlm.CanExecute("ban", "g1"), "unknown buckets pass")

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)
	resp.Header.Set("X-RateLimit-Remaining", "0")
	resp.Header.Set("X-RateLimit-Reset", "9999999999")
	rlm.UpdateFromResponse(resp, "ban", "g1")

	assert.False(t, rlm.CanExecute("ban", "g1"))
	assert.True(t, rlm.CanExecute("kick", "g1"), "buckets are per route")
	assert.True(t, rlm.CanExecute("ban", "g2"), "buckets are per guild")
}

func TestExhaustedBucketShortCircuits(t *testing.T) {
	actuator, captured := newTestActuator(t, http.StatusOK, "")
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)
	resp.Header.Set("X-RateLimit-Remaining", "0")
	resp.Header.Set("X-RateLimit-Reset", "9999999999")
	actuator.rateLimit.UpdateFromResponse(resp, string(database.KindBan), "g1")

	err := actuator.Execute(context.Background(), moderation.PunishmentIntent{
		GuildID: "g1", UserID: "u1", Kind: database.KindBan, Reason: "r",
	})
	var actErr *moderation.ActuatorError
	require.ErrorAs(t, err, &actErr)
	assert.Equal(t, "rate limited", actErr.Reason)
	assert.Empty(t, *captured, "no request is spent on an exhausted bucket")
}
