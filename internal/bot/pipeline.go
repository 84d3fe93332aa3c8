package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/kaikybrofc/ayana-bot/internal/automod"
	"github.com/kaikybrofc/ayana-bot/internal/guildconfig"
	"github.com/kaikybrofc/ayana-bot/internal/ingest"
	"github.com/kaikybrofc/ayana-bot/internal/leveling"
	"github.com/kaikybrofc/ayana-bot/internal/logging"
	"github.com/kaikybrofc/ayana-bot/internal/metrics"
	"github.com/kaikybrofc/ayana-bot/internal/moderation"
	"github.com/kaikybrofc/ayana-bot/internal/notifier"
)

// Pipeline processes queued gateway events: automod detection and XP accrual
// for messages, bookkeeping for joins.
type Pipeline struct {
	configs  *guildconfig.Store
	detector *automod.Detector
	mod      *moderation.Service
	levels   *leveling.Service
	notify   *notifier.Notifier
}

func NewPipeline(configs *guildconfig.Store, detector *automod.Detector, mod *moderation.Service, levels *leveling.Service, notify *notifier.Notifier) *Pipeline {
	return &Pipeline{
		configs:  configs,
		detector: detector,
		mod:      mod,
		levels:   levels,
		notify:   notify,
	}
}

func (p *Pipeline) HandleMessage(ctx context.Context, ev ingest.MessageEvent) {
	if ev.AuthorIsBot {
		return
	}
	metrics.Global().MessageSeen()

	cfg, err := p.configs.Get(ctx, ev.GuildID)
	if err != nil {
		logging.Error("Failed to load guild config for %s: %v", ev.GuildID, err)
		return
	}

	triggers := p.detector.Observe(automod.Message{
		GuildID:      ev.GuildID,
		UserID:       ev.AuthorID,
		Content:      ev.Content,
		MentionCount: ev.MentionCount,
		RoleIDs:      ev.AuthorRoleIDs,
		Timestamp:    ev.Timestamp,
	}, cfg.AutoMod)

	for _, trigger := range triggers {
		p.handleTrigger(ctx, cfg, trigger)
	}

	progress, err := p.levels.OnMessage(ctx, ev.GuildID, ev.AuthorID, len(ev.Content), ev.AttachmentCount, ev.StickerCount)
	if err != nil {
		logging.Error("Failed to record XP for %s/%s: %v", ev.GuildID, ev.AuthorID, err)
		return
	}
	if progress != nil && progress.LeveledUp {
		p.notify.LevelUp(ev.ChannelID, ev.AuthorID, progress.Level, progress.TotalXP)
	}
}

func (p *Pipeline) handleTrigger(ctx context.Context, cfg *guildconfig.Record, trigger automod.Trigger) {
	metrics.Global().AutoModTrigger()
	out, err := p.mod.HandleAutoModTrigger(ctx, trigger.GuildID, trigger.UserID, string(trigger.Signal), trigger.Evidence)

	var actuatorErr *moderation.ActuatorError
	switch {
	case errors.As(err, &actuatorErr):
		// The trigger itself is on the ledger; only the punishment failed.
		p.notify.ActuatorFailure(cfg.AutoModLogChannelID, trigger.UserID, actuatorErr.Reason)
	case err != nil:
		logging.Error("AutoMod trigger failed: guild=%s user=%s signal=%s: %v",
			trigger.GuildID, trigger.UserID, trigger.Signal, err)
		return
	}

	if out == nil || out.Infraction == nil {
		return
	}

	action := ""
	if out.Escalation != nil {
		action = fmt.Sprintf("timeout %s", out.Escalation.Duration)
	}
	p.notify.AutoModTriggered(cfg.AutoModLogChannelID, out.Infraction, action)
	logging.Info("AutoMod trigger: guild=%s user=%s signal=%s evidence=%q",
		trigger.GuildID, trigger.UserID, trigger.Signal, trigger.Evidence)
}

func (p *Pipeline) HandleMemberJoin(ctx context.Context, ev ingest.MemberJoinEvent) {
	// Config records are created lazily on first write; a join only needs to
	// warm the cache so the member's first message doesn't pay the lookup.
	if _, err := p.configs.Get(ctx, ev.GuildID); err != nil {
		logging.Warn("Failed to warm config for guild %s: %v", ev.GuildID, err)
	}
}
