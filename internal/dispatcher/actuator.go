package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/kaikybrofc/ayana-bot/internal/database"
	"github.com/kaikybrofc/ayana-bot/internal/logging"
	"github.com/kaikybrofc/ayana-bot/internal/moderation"
)

const requestTimeout = 5 * time.Second

// RESTActuator executes punishment intents directly against the Discord REST
// API. It is the only component that talks to the platform for enforcement;
// the moderation core hands it intents and records outcomes.
type RESTActuator struct {
	pool      *HTTPPool
	rateLimit *RateLimitMonitor
	token     string
	baseURL   string
}

func NewRESTActuator(pool *HTTPPool, rateLimit *RateLimitMonitor, token, baseURL string) *RESTActuator {
	if baseURL == "" {
		baseURL = "https://discord.com/api/v10"
	}
	return &RESTActuator{
		pool:      pool,
		rateLimit: rateLimit,
		token:     token,
		baseURL:   baseURL,
	}
}

// Execute performs the platform call for an intent. A non-2xx response maps
// to an ActuatorError carrying Discord's reason, so callers can report an
// actionable failure (e.g. "Missing Permissions"). Failed calls are never
// retried here.
func (a *RESTActuator) Execute(ctx context.Context, intent moderation.PunishmentIntent) error {
	var (
		method string
		url    string
		body   []byte
	)

	switch intent.Kind {
	case database.KindBan:
		method = fasthttp.MethodPut
		url = fmt.Sprintf("%s/guilds/%s/bans/%s", a.baseURL, intent.GuildID, intent.UserID)
		body, _ = json.Marshal(map[string]int{"delete_message_seconds": 0})
	case database.KindUnban:
		method = fasthttp.MethodDelete
		url = fmt.Sprintf("%s/guilds/%s/bans/%s", a.baseURL, intent.GuildID, intent.UserID)
	case database.KindKick:
		method = fasthttp.MethodDelete
		url = fmt.Sprintf("%s/guilds/%s/members/%s", a.baseURL, intent.GuildID, intent.UserID)
	case database.KindTimeout:
		method = fasthttp.MethodPatch
		url = fmt.Sprintf("%s/guilds/%s/members/%s", a.baseURL, intent.GuildID, intent.UserID)
		until := time.Now().UTC().Add(intent.Duration).Format(time.RFC3339)
		body, _ = json.Marshal(map[string]*string{"communication_disabled_until": &until})
	case database.KindUntimeout:
		method = fasthttp.MethodPatch
		url = fmt.Sprintf("%s/guilds/%s/members/%s", a.baseURL, intent.GuildID, intent.UserID)
		body = []byte(`{"communication_disabled_until":null}`)
	default:
		return &moderation.ActuatorError{Reason: fmt.Sprintf("unsupported punishment kind %q", intent.Kind)}
	}

	route := string(intent.Kind)
	if !a.rateLimit.CanExecute(route, intent.GuildID) {
		return &moderation.ActuatorError{Reason: "rate limited"}
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(method)
	req.Header.Set("Authorization", "Bot "+a.token)
	req.Header.Set("X-Audit-Log-Reason", intent.Reason)
	if body != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	deadline := time.Now().Add(requestTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	start := time.Now()
	if err := a.pool.GetClient().DoDeadline(req, resp, deadline); err != nil {
		return &moderation.ActuatorError{Reason: "request failed", Err: err}
	}

	a.rateLimit.UpdateFromResponse(resp, route, intent.GuildID)

	status := resp.StatusCode()
	if status >= 200 && status < 300 {
		logging.Info("Punishment executed: kind=%s guild=%s user=%s took=%s",
			intent.Kind, intent.GuildID, intent.UserID, time.Since(start).Round(time.Millisecond))
		return nil
	}

	reason := discordErrorReason(resp.Body())
	logging.Warn("Punishment rejected: kind=%s guild=%s user=%s status=%d reason=%s",
		intent.Kind, intent.GuildID, intent.UserID, status, reason)
	return &moderation.ActuatorError{Reason: fmt.Sprintf("%s (status %d)", reason, status)}
}

func discordErrorReason(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return "request rejected"
}
