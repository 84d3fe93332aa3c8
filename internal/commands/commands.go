package commands

import "github.com/bwmarrin/discordgo"

func userOption(name, description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Name:        name,
		Description: description,
		Type:        discordgo.ApplicationCommandOptionUser,
		Required:    required,
	}
}

func stringOption(name, description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Name:        name,
		Description: description,
		Type:        discordgo.ApplicationCommandOptionString,
		Required:    required,
	}
}

func intOption(name, description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Name:        name,
		Description: description,
		Type:        discordgo.ApplicationCommandOptionInteger,
		Required:    required,
	}
}

func boolOption(name, description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Name:        name,
		Description: description,
		Type:        discordgo.ApplicationCommandOptionBoolean,
		Required:    required,
	}
}

// GetAllCommands returns all application commands
func GetAllCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "warn",
			Description: "Warn a member",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("member", "Member to warn", true),
				stringOption("reason", "Reason for the warning", false),
			},
		},
		{
			Name:        "warnings",
			Description: "List a member's active warnings",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("member", "Member to inspect", true),
			},
		},
		{
			Name:        "clearwarns",
			Description: "Clear all warnings for a member",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("member", "Member to clear", true),
			},
		},
		{
			Name:        "modlogs",
			Description: "Show a member's moderation history",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("member", "Member to inspect", true),
				intOption("limit", "Number of entries to show (1-100)", false),
			},
		},
		{
			Name:        "kick",
			Description: "Kick a member from the server",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("member", "Member to kick", true),
				stringOption("reason", "Reason for the kick", false),
			},
		},
		{
			Name:        "ban",
			Description: "Ban a member from the server",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("member", "Member to ban", true),
				stringOption("reason", "Reason for the ban", false),
			},
		},
		{
			Name:        "unban",
			Description: "Remove a ban by user ID",
			Options: []*discordgo.ApplicationCommandOption{
				stringOption("user_id", "ID of the banned user", true),
				stringOption("reason", "Reason for the unban", false),
			},
		},
		{
			Name:        "timeout",
			Description: "Time out a member",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("member", "Member to time out", true),
				intOption("minutes", "Timeout duration in minutes", true),
				stringOption("reason", "Reason for the timeout", false),
			},
		},
		{
			Name:        "untimeout",
			Description: "Remove a member's timeout",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("member", "Member to release", true),
				stringOption("reason", "Reason", false),
			},
		},
		{
			Name:        "config",
			Description: "Configure moderation and automod settings",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "show",
					Description: "Show the current configuration",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
				},
				{
					Name:        "logchannel",
					Description: "Set the moderation log channel",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Options: []*discordgo.ApplicationCommandOption{
						{
							Name:        "channel",
							Description: "Channel for moderation logs",
							Type:        discordgo.ApplicationCommandOptionChannel,
							Required:    true,
						},
					},
				},
				{
					Name:        "automodlogchannel",
					Description: "Set the automod log channel",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Options: []*discordgo.ApplicationCommandOption{
						{
							Name:        "channel",
							Description: "Channel for automod logs",
							Type:        discordgo.ApplicationCommandOptionChannel,
							Required:    true,
						},
					},
				},
				{
					Name:        "warnexpiry",
					Description: "Set how many days a warning stays active",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Options: []*discordgo.ApplicationCommandOption{
						intOption("days", "Days until a warn expires (0 = never)", true),
					},
				},
				{
					Name:        "thresholds",
					Description: "Set escalation thresholds as JSON",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Options: []*discordgo.ApplicationCommandOption{
						stringOption("json", `e.g. [{"count":3,"action":"timeout","duration_minutes":60},{"count":5,"action":"ban"}]`, true),
					},
				},
				{
					Name:        "automod",
					Description: "Toggle automod filters",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Options: []*discordgo.ApplicationCommandOption{
						boolOption("enabled", "Master automod switch", false),
						boolOption("antispam", "Message flood filter", false),
						boolOption("antilink", "Link filter", false),
						boolOption("antimention", "Mention flood filter", false),
					},
				},
				{
					Name:        "spam",
					Description: "Tune the spam window",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Options: []*discordgo.ApplicationCommandOption{
						intOption("messages", "Messages allowed inside the window", false),
						intOption("seconds", "Window length in seconds", false),
						intOption("mentions", "Mentions allowed inside the window", false),
						intOption("cooldown", "Seconds between automod triggers", false),
						intOption("timeout", "Minutes to time out on a trigger (0 = log only)", false),
					},
				},
				{
					Name:        "allowdomains",
					Description: "Set the link filter allowlist",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Options: []*discordgo.ApplicationCommandOption{
						stringOption("domains", "Comma-separated domains (empty = block all)", true),
					},
				},
				{
					Name:        "bypassroles",
					Description: "Set roles that bypass automod",
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Options: []*discordgo.ApplicationCommandOption{
						stringOption("roles", "Comma-separated role IDs (empty = none)", true),
					},
				},
			},
		},
		{
			Name:        "rank",
			Description: "Show a member's level and XP",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("member", "Member to inspect (defaults to you)", false),
			},
		},
		{
			Name:        "leaderboard",
			Description: "Show the server XP leaderboard",
		},
		{
			Name:        "ping",
			Description: "Check bot latency",
		},
		{
			Name:        "userinfo",
			Description: "Show information about a member",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("member", "Member to inspect (defaults to you)", false),
			},
		},
		{
			Name:        "serverinfo",
			Description: "Show information about this server",
		},
		{
			Name:        "stats",
			Description: "Show bot and host statistics",
		},
		{
			Name:        "help",
			Description: "List available commands",
		},
	}
}
