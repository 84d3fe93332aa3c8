package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kaikybrofc/ayana-bot/internal/guildconfig"

	"github.com/bwmarrin/discordgo"
)

func (h *Handler) handleConfig(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	ok, err := requirePermission(s, i, discordgo.PermissionManageServer)
	if err != nil {
		return err
	}
	if !ok {
		respondPermissionError(s, i, "You need the Manage Server permission to change configuration.")
		return nil
	}

	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return fmt.Errorf("missing subcommand")
	}
	sub := data.Options[0]
	opts := mapOptions(sub.Options)

	var patch guildconfig.Patch
	switch sub.Name {
	case "show":
		return h.showConfig(ctx, s, i)
	case "logchannel":
		channel := opts["channel"].ChannelValue(s)
		patch.ModLogChannelID = &channel.ID
	case "automodlogchannel":
		channel := opts["channel"].ChannelValue(s)
		patch.AutoModLogChannelID = &channel.ID
	case "warnexpiry":
		days := opts.integer("days", 0)
		patch.WarnExpiryDays = &days
	case "thresholds":
		var steps []guildconfig.EscalationStep
		if err := json.Unmarshal([]byte(opts.str("json")), &steps); err != nil {
			return respondEphemeral(s, i, fmt.Sprintf("Could not parse thresholds: %v", err))
		}
		patch.Escalation = steps
	case "automod":
		if opt, present := opts["enabled"]; present {
			v := opt.BoolValue()
			patch.AutoModEnabled = &v
		}
		if opt, present := opts["antispam"]; present {
			v := opt.BoolValue()
			patch.AntiSpam = &v
		}
		if opt, present := opts["antilink"]; present {
			v := opt.BoolValue()
			patch.AntiLink = &v
		}
		if opt, present := opts["antimention"]; present {
			v := opt.BoolValue()
			patch.AntiMentionFlood = &v
		}
	case "spam":
		if opt, present := opts["messages"]; present {
			v := int(opt.IntValue())
			patch.SpamMaxMessages = &v
		}
		if opt, present := opts["seconds"]; present {
			v := int(opt.IntValue())
			patch.SpamWindowSeconds = &v
		}
		if opt, present := opts["mentions"]; present {
			v := int(opt.IntValue())
			patch.MentionLimit = &v
		}
		if opt, present := opts["cooldown"]; present {
			v := int(opt.IntValue())
			patch.CooldownSeconds = &v
		}
		if opt, present := opts["timeout"]; present {
			v := int(opt.IntValue())
			patch.TimeoutMinutes = &v
		}
	case "allowdomains":
		patch.LinkAllowedDomains = parseList(opts.str("domains"))
	case "bypassroles":
		patch.BypassRoleIDs = parseList(opts.str("roles"))
	default:
		return fmt.Errorf("unknown config subcommand: %s", sub.Name)
	}

	rec, err := h.configs.Set(ctx, i.GuildID, patch)
	if err != nil {
		var cfgErr *guildconfig.ConfigError
		if errors.As(err, &cfgErr) {
			return respondEphemeral(s, i, fmt.Sprintf("Rejected: %s", cfgErr.Reason))
		}
		return err
	}

	return respondEmbed(s, i, configEmbed(rec, "✅ Configuration Updated"))
}

func (h *Handler) showConfig(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	rec, err := h.configs.Get(ctx, i.GuildID)
	if err != nil {
		return err
	}
	return respondEmbed(s, i, configEmbed(rec, "⚙️ Server Configuration"))
}

func configEmbed(rec *guildconfig.Record, title string) *discordgo.MessageEmbed {
	var thresholds strings.Builder
	for _, step := range rec.Escalation {
		if step.Action == guildconfig.ActionTimeout {
			fmt.Fprintf(&thresholds, "%d warns → timeout %dm\n", step.Count, step.DurationMinutes)
		} else {
			fmt.Fprintf(&thresholds, "%d warns → ban\n", step.Count)
		}
	}
	if thresholds.Len() == 0 {
		thresholds.WriteString("none")
	}

	am := rec.AutoMod
	return &discordgo.MessageEmbed{
		Title: title,
		Color: 0x57F287,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Mod Log", Value: channelLabel(rec.ModLogChannelID), Inline: true},
			{Name: "AutoMod Log", Value: channelLabel(rec.AutoModLogChannelID), Inline: true},
			{Name: "Warn Expiry", Value: expiryLabel(rec.WarnExpiry), Inline: true},
			{Name: "Escalation", Value: thresholds.String(), Inline: false},
			{
				Name: "AutoMod",
				Value: fmt.Sprintf("enabled: %t\nanti-spam: %t (%d msgs / %s)\nanti-mention: %t (limit %d)\nanti-link: %t\ncooldown: %s\ntrigger timeout: %s",
					am.Enabled, am.AntiSpam, am.SpamMaxMessages, am.SpamWindow,
					am.AntiMentionFlood, am.MentionLimit, am.AntiLink,
					am.Cooldown, expiryLabel(am.TimeoutOnTrigger)),
				Inline: false,
			},
			{Name: "Allowed Domains", Value: listLabel(am.LinkAllowedDomains), Inline: true},
			{Name: "Bypass Roles", Value: listLabel(am.BypassRoleIDs), Inline: true},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

func channelLabel(id string) string {
	if id == "" {
		return "not set"
	}
	return "<#" + id + ">"
}

func expiryLabel(d time.Duration) string {
	if d <= 0 {
		return "never"
	}
	return d.String()
}

func listLabel(values []string) string {
	if len(values) == 0 {
		return "none"
	}
	return strings.Join(values, ", ")
}

// parseList splits comma-separated input. An empty input returns a non-nil
// empty slice so the patch clears the stored list instead of skipping it.
func parseList(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
