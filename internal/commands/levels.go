package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

func (h *Handler) handleRank(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	opts := mapOptions(i.ApplicationCommandData().Options)
	target := opts.user(s, "member")
	if target == nil {
		target = i.Member.User
	}

	standing, err := h.levels.Standing(ctx, i.GuildID, target.ID)
	if err != nil {
		return err
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("🏅 Rank #%d", standing.Rank),
		Color: 0x5865F2,
		Author: &discordgo.MessageEmbedAuthor{
			Name:    target.Username,
			IconURL: target.AvatarURL("64"),
		},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Level", Value: fmt.Sprintf("%d", standing.Level), Inline: true},
			{Name: "Total XP", Value: fmt.Sprintf("%d", standing.TotalXP), Inline: true},
			{Name: "Next Level", Value: fmt.Sprintf("%d XP", standing.NextGoal), Inline: true},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	return respondEmbed(s, i, embed)
}

func (h *Handler) handleLeaderboard(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	rows, err := h.levels.Leaderboard(ctx, i.GuildID, 10)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return respondEphemeral(s, i, "Nobody has earned XP yet.")
	}

	medals := []string{"🥇", "🥈", "🥉"}
	var sb strings.Builder
	for idx, row := range rows {
		marker := fmt.Sprintf("**%d.**", idx+1)
		if idx < len(medals) {
			marker = medals[idx]
		}
		fmt.Fprintf(&sb, "%s <@%s> — level %d (%d XP)\n", marker, row.UserID, row.Level, row.TotalXP)
	}

	embed := &discordgo.MessageEmbed{
		Title:       "🏆 XP Leaderboard",
		Description: sb.String(),
		Color:       0xFEE75C,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
	return respondEmbed(s, i, embed)
}
