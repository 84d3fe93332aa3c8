package moderation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kaikybrofc/ayana-bot/internal/database"
	"github.com/kaikybrofc/ayana-bot/internal/guildconfig"
)

// PunishmentIntent is a moderation action that has been decided but not yet
// executed against the platform.
type PunishmentIntent struct {
	GuildID  string
	UserID   string
	Kind     database.InfractionKind
	Duration time.Duration
	Reason   string
	// ThresholdCount is the active warn count the intent fired for; zero for
	// intents that did not come from the escalation table.
	ThresholdCount int
}

// Actuator executes punishment intents against the chat platform. The core
// never talks to the platform directly and never retries a failed execution.
type Actuator interface {
	Execute(ctx context.Context, intent PunishmentIntent) error
}

type escalationMetadata struct {
	WarnCount int    `json:"warn_count,omitempty"`
	Signal    string `json:"signal,omitempty"`
}

// selectStep picks the threshold with the largest count still satisfied by
// activeCount, or nil when none applies.
func selectStep(steps []guildconfig.EscalationStep, activeCount int) *guildconfig.EscalationStep {
	var selected *guildconfig.EscalationStep
	for i := range steps {
		if steps[i].Count <= activeCount {
			selected = &steps[i]
		}
	}
	return selected
}

// evaluateEscalation decides whether a fresh active warn count crosses a
// threshold that has not already fired. The dedupe check compares against the
// most recent system-actor punishment: a step fires once per (member, count)
// and does not re-fire as later warns arrive without the count regressing past
// a new threshold.
func (s *Service) evaluateEscalation(ctx context.Context, cfg *guildconfig.Record, guildID, userID string, activeCount int) (*PunishmentIntent, error) {
	step := selectStep(cfg.Escalation, activeCount)
	if step == nil {
		return nil, nil
	}

	latest, err := s.db.LatestEscalation(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}
	if latest != nil && latest.Metadata != "" {
		var meta escalationMetadata
		if err := json.Unmarshal([]byte(latest.Metadata), &meta); err == nil && meta.WarnCount == step.Count {
			return nil, nil
		}
	}

	intent := &PunishmentIntent{
		GuildID:        guildID,
		UserID:         userID,
		Reason:         fmt.Sprintf("Automatic escalation: %d active warnings", activeCount),
		ThresholdCount: step.Count,
	}
	switch step.Action {
	case guildconfig.ActionBan:
		intent.Kind = database.KindBan
	default:
		intent.Kind = database.KindTimeout
		intent.Duration = step.Duration()
	}
	return intent, nil
}
