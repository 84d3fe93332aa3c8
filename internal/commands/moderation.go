package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kaikybrofc/ayana-bot/internal/database"
	"github.com/kaikybrofc/ayana-bot/internal/moderation"

	"github.com/bwmarrin/discordgo"
)

// 28 days, the platform ceiling for communication timeouts.
const maxTimeoutMinutes = 28 * 24 * 60

func (h *Handler) handleWarn(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	ok, err := requirePermission(s, i, discordgo.PermissionModerateMembers)
	if err != nil {
		return err
	}
	if !ok {
		respondPermissionError(s, i, "You need the Moderate Members permission to warn.")
		return nil
	}

	opts := mapOptions(i.ApplicationCommandData().Options)
	target := opts.user(s, "member")
	if target == nil {
		return fmt.Errorf("member option missing")
	}
	if target.Bot {
		return respondEphemeral(s, i, "Bots cannot be warned.")
	}
	if allowed, why, err := canModerate(s, i, target.ID); err != nil {
		return err
	} else if !allowed {
		respondPermissionError(s, i, why)
		return nil
	}

	inf := &database.Infraction{
		GuildID: i.GuildID,
		UserID:  target.ID,
		ActorID: i.Member.User.ID,
		Kind:    database.KindWarn,
		Reason:  reasonOrDefault(opts),
	}
	out, err := h.mod.RecordAndEscalate(ctx, inf)
	var actErr *moderation.ActuatorError
	if err != nil && !errors.As(err, &actErr) {
		return describeModError(err)
	}

	embed := &discordgo.MessageEmbed{
		Title:       "⚠️ Member Warned",
		Description: fmt.Sprintf("<@%s> has been warned.", target.ID),
		Color:       0xFEE75C,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Reason", Value: inf.Reason, Inline: false},
			{Name: "Active Warnings", Value: fmt.Sprintf("%d", out.ActiveWarns), Inline: true},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Case #%d", inf.ID)},
		Timestamp: time.Now().Format(time.RFC3339),
	}

	switch {
	case actErr != nil:
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Escalation Failed",
			Value: actErr.Reason,
		})
	case out.Escalation != nil:
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Escalation",
			Value: escalationSummary(out.Escalation),
		})
	}

	h.notifyModLog(ctx, i.GuildID, out)
	return respondEmbed(s, i, embed)
}

func (h *Handler) handleClearWarns(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	ok, err := requirePermission(s, i, discordgo.PermissionModerateMembers)
	if err != nil {
		return err
	}
	if !ok {
		respondPermissionError(s, i, "You need the Moderate Members permission to clear warnings.")
		return nil
	}

	opts := mapOptions(i.ApplicationCommandData().Options)
	target := opts.user(s, "member")
	if target == nil {
		return fmt.Errorf("member option missing")
	}

	cleared, err := h.mod.ClearWarns(ctx, i.GuildID, target.ID)
	if err != nil {
		return describeModError(err)
	}
	return respondEphemeral(s, i, fmt.Sprintf("Cleared %d warning(s) for <@%s>.", cleared, target.ID))
}

func (h *Handler) handleKick(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return h.handlePlatformAction(ctx, s, i, database.KindKick, discordgo.PermissionKickMembers, 0)
}

func (h *Handler) handleBan(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return h.handlePlatformAction(ctx, s, i, database.KindBan, discordgo.PermissionBanMembers, 0)
}

func (h *Handler) handleUntimeout(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return h.handlePlatformAction(ctx, s, i, database.KindUntimeout, discordgo.PermissionModerateMembers, 0)
}

func (h *Handler) handleTimeout(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	opts := mapOptions(i.ApplicationCommandData().Options)
	minutes := opts.integer("minutes", 0)
	if minutes < 1 || minutes > maxTimeoutMinutes {
		return respondEphemeral(s, i, fmt.Sprintf("Timeout must be between 1 and %d minutes.", maxTimeoutMinutes))
	}
	return h.handlePlatformAction(ctx, s, i, database.KindTimeout, discordgo.PermissionModerateMembers,
		time.Duration(minutes)*time.Minute)
}

func (h *Handler) handleUnban(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	ok, err := requirePermission(s, i, discordgo.PermissionBanMembers)
	if err != nil {
		return err
	}
	if !ok {
		respondPermissionError(s, i, "You need the Ban Members permission to unban.")
		return nil
	}

	opts := mapOptions(i.ApplicationCommandData().Options)
	userID := opts.str("user_id")
	if userID == "" {
		return fmt.Errorf("user_id option missing")
	}

	intent := &moderation.PunishmentIntent{
		GuildID: i.GuildID,
		UserID:  userID,
		Kind:    database.KindUnban,
		Reason:  reasonOrDefault(opts),
	}
	out, err := h.mod.ApplyModeratorAction(ctx, i.Member.User.ID, intent)
	if err != nil {
		return describeModError(err)
	}

	h.notifyModLog(ctx, i.GuildID, out)
	return respondEphemeral(s, i, fmt.Sprintf("Unbanned <@%s>.", userID))
}

// handlePlatformAction is the shared path for kick, ban, timeout and
// untimeout: hierarchy check, actuator first, ledger row on confirmation.
func (h *Handler) handlePlatformAction(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, kind database.InfractionKind, perm int64, duration time.Duration) error {
	ok, err := requirePermission(s, i, perm)
	if err != nil {
		return err
	}
	if !ok {
		respondPermissionError(s, i, fmt.Sprintf("You lack the permission required to %s.", kind))
		return nil
	}

	opts := mapOptions(i.ApplicationCommandData().Options)
	target := opts.user(s, "member")
	if target == nil {
		return fmt.Errorf("member option missing")
	}
	if allowed, why, err := canModerate(s, i, target.ID); err != nil {
		return err
	} else if !allowed {
		respondPermissionError(s, i, why)
		return nil
	}

	intent := &moderation.PunishmentIntent{
		GuildID:  i.GuildID,
		UserID:   target.ID,
		Kind:     kind,
		Duration: duration,
		Reason:   reasonOrDefault(opts),
	}
	out, err := h.mod.ApplyModeratorAction(ctx, i.Member.User.ID, intent)
	if err != nil {
		return describeModError(err)
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s applied", kindLabel(kind)),
		Description: fmt.Sprintf("<@%s> — %s", target.ID, intent.Reason),
		Color:       0xED4245,
		Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Case #%d", out.Infraction.ID)},
		Timestamp:   time.Now().Format(time.RFC3339),
	}
	if duration > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Duration", Value: duration.String(), Inline: true,
		})
	}

	h.notifyModLog(ctx, i.GuildID, out)
	return respondEmbed(s, i, embed)
}

// notifyModLog mirrors the outcome to the guild's moderation log channel.
func (h *Handler) notifyModLog(ctx context.Context, guildID string, out *moderation.Outcome) {
	cfg, err := h.configs.Get(ctx, guildID)
	if err != nil || cfg.ModLogChannelID == "" {
		return
	}
	h.notify.ActionLogged(cfg.ModLogChannelID, out.Infraction, out.ActiveWarns)
	if out.EscalationEntry != nil {
		h.notify.EscalationApplied(cfg.ModLogChannelID, out.EscalationEntry, out.ActiveWarns)
	}
}

func escalationSummary(intent *moderation.PunishmentIntent) string {
	if intent.Kind == database.KindTimeout {
		return fmt.Sprintf("Timed out for %s (reached %d active warns)", intent.Duration, intent.ThresholdCount)
	}
	return fmt.Sprintf("Banned (reached %d active warns)", intent.ThresholdCount)
}

func kindLabel(kind database.InfractionKind) string {
	switch kind {
	case database.KindKick:
		return "👢 Kick"
	case database.KindBan:
		return "🔨 Ban"
	case database.KindTimeout:
		return "🔇 Timeout"
	case database.KindUntimeout:
		return "🔊 Timeout removed"
	case database.KindUnban:
		return "🔓 Unban"
	default:
		return string(kind)
	}
}

func describeModError(err error) error {
	var actErr *moderation.ActuatorError
	switch {
	case errors.Is(err, moderation.ErrConcurrencyTimeout):
		return fmt.Errorf("another action for this member is still in flight, try again")
	case errors.As(err, &actErr):
		return fmt.Errorf("the platform refused the action: %s", actErr.Reason)
	default:
		return err
	}
}
