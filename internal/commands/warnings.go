package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kaikybrofc/ayana-bot/internal/database"

	"github.com/bwmarrin/discordgo"
)

// maxWarningsShown bounds the /warnings embed so the description stays under
// the platform's 4096-char limit.
const maxWarningsShown = 50

func (h *Handler) handleWarnings(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	opts := mapOptions(i.ApplicationCommandData().Options)
	target := opts.user(s, "member")
	if target == nil {
		return fmt.Errorf("member option missing")
	}

	warns, err := h.mod.ListActiveWarns(ctx, i.GuildID, target.ID)
	if err != nil {
		return err
	}

	if len(warns) == 0 {
		return respondEphemeral(s, i, fmt.Sprintf("<@%s> has no active warnings.", target.ID))
	}

	total := len(warns)
	if len(warns) > maxWarningsShown {
		warns = warns[:maxWarningsShown]
	}

	var sb strings.Builder
	for _, w := range warns {
		fmt.Fprintf(&sb, "**#%d** — %s\n", w.ID, w.Reason)
		fmt.Fprintf(&sb, "by %s • <t:%d:R>", actorLabel(w.ActorID), w.CreatedAt.Unix())
		if w.ExpiresAt != nil {
			fmt.Fprintf(&sb, " • expires <t:%d:R>", w.ExpiresAt.Unix())
		}
		sb.WriteString("\n\n")
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("⚠️ Active Warnings — %d", total),
		Description: sb.String(),
		Color:       0xFEE75C,
		Author: &discordgo.MessageEmbedAuthor{
			Name:    target.Username,
			IconURL: target.AvatarURL("64"),
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	return respondEmbed(s, i, embed)
}

func (h *Handler) handleModLogs(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	ok, err := requirePermission(s, i, discordgo.PermissionModerateMembers)
	if err != nil {
		return err
	}
	if !ok {
		respondPermissionError(s, i, "You need the Moderate Members permission to view moderation history.")
		return nil
	}

	opts := mapOptions(i.ApplicationCommandData().Options)
	target := opts.user(s, "member")
	if target == nil {
		return fmt.Errorf("member option missing")
	}
	limit := opts.integer("limit", 10)

	entries, err := h.mod.ListHistory(ctx, i.GuildID, target.ID, limit)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		return respondEphemeral(s, i, fmt.Sprintf("<@%s> has a clean record.", target.ID))
	}

	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "**#%d** %s %s — %s\n", e.ID, kindBadge(e.Kind), kindLabelPlain(e.Kind), e.Reason)
		fmt.Fprintf(&sb, "by %s • <t:%d:R>\n\n", actorLabel(e.ActorID), e.CreatedAt.Unix())
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("📋 Moderation History — last %d", len(entries)),
		Description: sb.String(),
		Color:       0x5865F2,
		Author: &discordgo.MessageEmbedAuthor{
			Name:    target.Username,
			IconURL: target.AvatarURL("64"),
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	return respondEmbed(s, i, embed)
}

func actorLabel(actorID string) string {
	if actorID == database.SystemActorID {
		return "AutoMod"
	}
	return fmt.Sprintf("<@%s>", actorID)
}

func kindBadge(kind database.InfractionKind) string {
	switch kind {
	case database.KindWarn:
		return "⚠️"
	case database.KindKick:
		return "👢"
	case database.KindBan:
		return "🔨"
	case database.KindUnban:
		return "🔓"
	case database.KindTimeout:
		return "🔇"
	case database.KindUntimeout:
		return "🔊"
	case database.KindAutoModTrigger:
		return "🤖"
	default:
		return "•"
	}
}

func kindLabelPlain(kind database.InfractionKind) string {
	if kind == database.KindAutoModTrigger {
		return "automod trigger"
	}
	return string(kind)
}
