package guildconfig

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kaikybrofc/ayana-bot/internal/database"
)

type StepAction string

const (
	ActionTimeout StepAction = "timeout"
	ActionBan     StepAction = "ban"
)

// EscalationStep maps an active warn count to the automatic punishment applied
// once that count is reached.
type EscalationStep struct {
	Count           int        `json:"count"`
	Action          StepAction `json:"action"`
	DurationMinutes int        `json:"duration_minutes,omitempty"`
}

func (s EscalationStep) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}

// ConfigError marks an invalid configuration write. Invalid schemas are
// rejected before anything is persisted.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid configuration: " + e.Reason
}

// DefaultEscalation mirrors the stock policy: 60 minute timeout at 3 active
// warns, ban at 5.
func DefaultEscalation() []EscalationStep {
	return []EscalationStep{
		{Count: 3, Action: ActionTimeout, DurationMinutes: 60},
		{Count: 5, Action: ActionBan},
	}
}

// ValidateEscalation enforces the threshold schema: counts strictly
// increasing, no duplicates, at most one action per count, timeouts carry a
// positive duration.
func ValidateEscalation(steps []EscalationStep) error {
	prev := 0
	for _, step := range steps {
		if step.Count < 1 {
			return &ConfigError{Reason: fmt.Sprintf("threshold count %d must be at least 1", step.Count)}
		}
		if step.Count <= prev {
			return &ConfigError{Reason: fmt.Sprintf("threshold counts must be strictly increasing, got %d after %d", step.Count, prev)}
		}
		switch step.Action {
		case ActionTimeout:
			if step.DurationMinutes < 1 {
				return &ConfigError{Reason: fmt.Sprintf("timeout threshold at count %d needs a positive duration", step.Count)}
			}
		case ActionBan:
		default:
			return &ConfigError{Reason: fmt.Sprintf("unknown threshold action %q", step.Action)}
		}
		prev = step.Count
	}
	return nil
}

// AutoModConfig is the decoded automod section of a guild's settings.
type AutoModConfig struct {
	Enabled            bool
	AntiSpam           bool
	SpamMaxMessages    int
	SpamWindow         time.Duration
	AntiMentionFlood   bool
	MentionLimit       int
	AntiLink           bool
	LinkAllowedDomains []string
	BypassRoleIDs      []string
	Cooldown           time.Duration
	// TimeoutOnTrigger is the punishment auto-applied on an automod trigger.
	// Zero means log-only.
	TimeoutOnTrigger time.Duration
}

// Record is the decoded per-guild configuration.
type Record struct {
	GuildID             string
	ModLogChannelID     string
	AutoModLogChannelID string
	// WarnExpiry is how long a warn stays active. Zero means never expires.
	WarnExpiry time.Duration
	Escalation []EscalationStep
	AutoMod    AutoModConfig
}

// Patch is a partial settings update. Nil fields are left unchanged.
type Patch struct {
	ModLogChannelID     *string
	AutoModLogChannelID *string
	WarnExpiryDays      *int
	Escalation          []EscalationStep
	AutoModEnabled      *bool
	AntiSpam            *bool
	AntiLink            *bool
	AntiMentionFlood    *bool
	SpamMaxMessages     *int
	SpamWindowSeconds   *int
	MentionLimit        *int
	CooldownSeconds     *int
	TimeoutMinutes      *int
	LinkAllowedDomains  []string
	BypassRoleIDs       []string
}

func decodeRecord(rec *database.GuildSettingsRecord) (*Record, error) {
	steps := DefaultEscalation()
	if rec.EscalationThresholds != "" {
		steps = nil
		if err := json.Unmarshal([]byte(rec.EscalationThresholds), &steps); err != nil {
			return nil, fmt.Errorf("failed to decode escalation thresholds for guild %s: %w", rec.GuildID, err)
		}
	}

	return &Record{
		GuildID:             rec.GuildID,
		ModLogChannelID:     rec.ModLogChannelID,
		AutoModLogChannelID: rec.AutoModLogChannelID,
		WarnExpiry:          time.Duration(rec.WarnExpiryDays) * 24 * time.Hour,
		Escalation:          steps,
		AutoMod: AutoModConfig{
			Enabled:            rec.AutoModEnabled,
			AntiSpam:           rec.AntiSpam,
			SpamMaxMessages:    rec.SpamMaxMessages,
			SpamWindow:         time.Duration(rec.SpamWindowSeconds) * time.Second,
			AntiMentionFlood:   rec.AntiMentionFlood,
			MentionLimit:       rec.MentionLimit,
			AntiLink:           rec.AntiLink,
			LinkAllowedDomains: splitCSV(rec.LinkAllowedDomains),
			BypassRoleIDs:      splitCSV(rec.BypassRoleIDs),
			Cooldown:           time.Duration(rec.CooldownSeconds) * time.Second,
			TimeoutOnTrigger:   time.Duration(rec.AutoModTimeoutMinutes) * time.Minute,
		},
	}, nil
}

func applyPatch(rec *database.GuildSettingsRecord, patch Patch) error {
	if patch.ModLogChannelID != nil {
		rec.ModLogChannelID = *patch.ModLogChannelID
	}
	if patch.AutoModLogChannelID != nil {
		rec.AutoModLogChannelID = *patch.AutoModLogChannelID
	}
	if patch.WarnExpiryDays != nil {
		if *patch.WarnExpiryDays < 0 {
			return &ConfigError{Reason: "warn expiry cannot be negative"}
		}
		rec.WarnExpiryDays = *patch.WarnExpiryDays
	}
	if patch.Escalation != nil {
		if err := ValidateEscalation(patch.Escalation); err != nil {
			return err
		}
		encoded, err := json.Marshal(patch.Escalation)
		if err != nil {
			return fmt.Errorf("failed to encode escalation thresholds: %w", err)
		}
		rec.EscalationThresholds = string(encoded)
	}
	if patch.AutoModEnabled != nil {
		rec.AutoModEnabled = *patch.AutoModEnabled
	}
	if patch.AntiSpam != nil {
		rec.AntiSpam = *patch.AntiSpam
	}
	if patch.AntiLink != nil {
		rec.AntiLink = *patch.AntiLink
	}
	if patch.AntiMentionFlood != nil {
		rec.AntiMentionFlood = *patch.AntiMentionFlood
	}
	if patch.SpamMaxMessages != nil {
		if *patch.SpamMaxMessages < 1 {
			return &ConfigError{Reason: "spam message threshold must be at least 1"}
		}
		rec.SpamMaxMessages = *patch.SpamMaxMessages
	}
	if patch.SpamWindowSeconds != nil {
		if *patch.SpamWindowSeconds < 1 {
			return &ConfigError{Reason: "spam window must be at least 1 second"}
		}
		rec.SpamWindowSeconds = *patch.SpamWindowSeconds
	}
	if patch.MentionLimit != nil {
		if *patch.MentionLimit < 1 {
			return &ConfigError{Reason: "mention limit must be at least 1"}
		}
		rec.MentionLimit = *patch.MentionLimit
	}
	if patch.CooldownSeconds != nil {
		if *patch.CooldownSeconds < 0 {
			return &ConfigError{Reason: "cooldown cannot be negative"}
		}
		rec.CooldownSeconds = *patch.CooldownSeconds
	}
	if patch.TimeoutMinutes != nil {
		if *patch.TimeoutMinutes < 0 {
			return &ConfigError{Reason: "automod timeout cannot be negative"}
		}
		rec.AutoModTimeoutMinutes = *patch.TimeoutMinutes
	}
	if patch.LinkAllowedDomains != nil {
		rec.LinkAllowedDomains = joinCSV(patch.LinkAllowedDomains)
	}
	if patch.BypassRoleIDs != nil {
		rec.BypassRoleIDs = joinCSV(patch.BypassRoleIDs)
	}
	return nil
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func joinCSV(values []string) string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return strings.Join(out, ",")
}
