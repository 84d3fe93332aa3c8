package commands

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// requirePermission checks that the invoking member holds the given Discord
// permission bit in the current channel.
func requirePermission(s *discordgo.Session, i *discordgo.InteractionCreate, perm int64) (bool, error) {
	permissions, err := s.State.UserChannelPermissions(i.Member.User.ID, i.ChannelID)
	if err != nil {
		permissions, err = s.UserChannelPermissions(i.Member.User.ID, i.ChannelID)
		if err != nil {
			return false, fmt.Errorf("failed to get permissions: %w", err)
		}
	}
	return permissions&(perm|discordgo.PermissionAdministrator) != 0, nil
}

// canModerate enforces the target hierarchy rules: a moderator cannot act on
// themselves, on the server owner, or on a member whose highest role sits at
// or above their own. The owner can act on anyone but themselves.
func canModerate(s *discordgo.Session, i *discordgo.InteractionCreate, targetID string) (bool, string, error) {
	if targetID == i.Member.User.ID {
		return false, "you cannot moderate yourself", nil
	}
	if targetID == s.State.User.ID {
		return false, "I cannot moderate myself", nil
	}

	guild, err := s.State.Guild(i.GuildID)
	if err != nil {
		guild, err = s.Guild(i.GuildID)
		if err != nil {
			return false, "", fmt.Errorf("failed to get guild: %w", err)
		}
	}

	if targetID == guild.OwnerID {
		return false, "the server owner cannot be moderated", nil
	}
	if i.Member.User.ID == guild.OwnerID {
		return true, "", nil
	}

	target, err := s.State.Member(i.GuildID, targetID)
	if err != nil {
		target, err = s.GuildMember(i.GuildID, targetID)
		if err != nil {
			// Not a member anymore (e.g. unban by ID); hierarchy does not apply.
			return true, "", nil
		}
	}

	targetTop := highestRolePosition(guild, target.Roles)
	moderatorTop := highestRolePosition(guild, i.Member.Roles)
	if targetTop >= moderatorTop {
		return false, "that member's role is at or above yours", nil
	}
	return true, "", nil
}

func highestRolePosition(guild *discordgo.Guild, roleIDs []string) int {
	highest := -1
	for _, roleID := range roleIDs {
		for _, role := range guild.Roles {
			if role.ID == roleID && role.Position > highest {
				highest = role.Position
			}
		}
	}
	return highest
}

// respondPermissionError sends a permission denied error response
func respondPermissionError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	embed := &discordgo.MessageEmbed{
		Title:       "Access Denied",
		Description: message,
		Color:       0x2B2D31,
	}
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
}
