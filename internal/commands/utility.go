package commands

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
)

func (h *Handler) handlePing(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	latency := s.HeartbeatLatency()
	embed := &discordgo.MessageEmbed{
		Title: "🏓 Pong!",
		Color: 0x57F287,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Gateway", Value: fmt.Sprintf("%dms", latency.Milliseconds()), Inline: true},
			{Name: "Uptime", Value: time.Since(h.started).Round(time.Second).String(), Inline: true},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	return respondEmbed(s, i, embed)
}

func (h *Handler) handleHelp(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	embed := &discordgo.MessageEmbed{
		Title: "📖 Commands",
		Color: 0x5865F2,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:  "Moderation",
				Value: "`/warn` `/warnings` `/clearwarns` `/modlogs`\n`/kick` `/ban` `/unban` `/timeout` `/untimeout`",
			},
			{
				Name:  "Configuration",
				Value: "`/config show` `/config logchannel` `/config automodlogchannel`\n`/config warnexpiry` `/config thresholds` `/config automod`\n`/config spam` `/config allowdomains` `/config bypassroles`",
			},
			{
				Name:  "Levels",
				Value: "`/rank` `/leaderboard`",
			},
			{
				Name:  "Utility",
				Value: "`/ping` `/userinfo` `/serverinfo` `/stats`",
			},
		},
	}
	return respondEmbed(s, i, embed)
}

func (h *Handler) handleUserInfo(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	opts := mapOptions(i.ApplicationCommandData().Options)
	target := opts.user(s, "member")
	if target == nil {
		target = i.Member.User
	}

	created, _ := discordgo.SnowflakeTimestamp(target.ID)

	embed := &discordgo.MessageEmbed{
		Title: "👤 User Info",
		Color: 0x5865F2,
		Author: &discordgo.MessageEmbedAuthor{
			Name:    target.Username,
			IconURL: target.AvatarURL("128"),
		},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "ID", Value: target.ID, Inline: true},
			{Name: "Created", Value: fmt.Sprintf("<t:%d:R>", created.Unix()), Inline: true},
		},
		Thumbnail: &discordgo.MessageEmbedThumbnail{URL: target.AvatarURL("256")},
		Timestamp: time.Now().Format(time.RFC3339),
	}

	member, err := s.State.Member(i.GuildID, target.ID)
	if err != nil {
		member, err = s.GuildMember(i.GuildID, target.ID)
	}
	if err == nil && member != nil {
		embed.Fields = append(embed.Fields,
			&discordgo.MessageEmbedField{
				Name: "Joined", Value: fmt.Sprintf("<t:%d:R>", member.JoinedAt.Unix()), Inline: true,
			},
			&discordgo.MessageEmbedField{
				Name: "Roles", Value: fmt.Sprintf("%d", len(member.Roles)), Inline: true,
			},
		)
	}
	return respondEmbed(s, i, embed)
}

func (h *Handler) handleServerInfo(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	guild, err := s.State.Guild(i.GuildID)
	if err != nil {
		guild, err = s.Guild(i.GuildID)
		if err != nil {
			return fmt.Errorf("failed to get guild: %w", err)
		}
	}

	created, _ := discordgo.SnowflakeTimestamp(guild.ID)

	embed := &discordgo.MessageEmbed{
		Title: "🏰 " + guild.Name,
		Color: 0x5865F2,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "ID", Value: guild.ID, Inline: true},
			{Name: "Owner", Value: fmt.Sprintf("<@%s>", guild.OwnerID), Inline: true},
			{Name: "Created", Value: fmt.Sprintf("<t:%d:R>", created.Unix()), Inline: true},
			{Name: "Members", Value: fmt.Sprintf("%d", guild.MemberCount), Inline: true},
			{Name: "Roles", Value: fmt.Sprintf("%d", len(guild.Roles)), Inline: true},
			{Name: "Channels", Value: fmt.Sprintf("%d", len(guild.Channels)), Inline: true},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if guild.Icon != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: guild.IconURL("256")}
	}
	return respondEmbed(s, i, embed)
}
