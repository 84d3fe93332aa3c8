package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/kaikybrofc/ayana-bot/internal/bot"
	"github.com/kaikybrofc/ayana-bot/internal/guildconfig"
	"github.com/kaikybrofc/ayana-bot/internal/leveling"
	"github.com/kaikybrofc/ayana-bot/internal/logging"
	"github.com/kaikybrofc/ayana-bot/internal/moderation"
	"github.com/kaikybrofc/ayana-bot/internal/notifier"

	"github.com/bwmarrin/discordgo"
)

const commandTimeout = 10 * time.Second

// Handler manages all command interactions
type Handler struct {
	session *bot.Session
	mod     *moderation.Service
	configs *guildconfig.Store
	levels  *leveling.Service
	notify  *notifier.Notifier
	started time.Time
}

// Initialize creates the command handler, wires it into the session and
// registers the slash commands. A non-empty guildID registers guild-scoped
// commands, which propagate immediately.
func Initialize(session *bot.Session, mod *moderation.Service, configs *guildconfig.Store, levels *leveling.Service, notify *notifier.Notifier, guildID string) (*Handler, error) {
	h := &Handler{
		session: session,
		mod:     mod,
		configs: configs,
		levels:  levels,
		notify:  notify,
		started: time.Now(),
	}

	session.AddHandler(h.handleInteraction)

	commands := GetAllCommands()
	if err := session.RegisterCommands(guildID, commands); err != nil {
		return nil, fmt.Errorf("failed to register commands: %w", err)
	}

	logging.Info("Command handler initialized with %d commands", len(commands))
	return h, nil
}

func (h *Handler) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	h.handleCommand(s, i)
}

// handleCommand routes slash commands to their handlers
func (h *Handler) handleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" || i.Member == nil {
		respondError(s, i, "commands only work inside a server")
		return
	}

	data := i.ApplicationCommandData()
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	var err error
	switch data.Name {
	case "warn":
		err = h.handleWarn(ctx, s, i)
	case "warnings":
		err = h.handleWarnings(ctx, s, i)
	case "clearwarns":
		err = h.handleClearWarns(ctx, s, i)
	case "modlogs":
		err = h.handleModLogs(ctx, s, i)
	case "kick":
		err = h.handleKick(ctx, s, i)
	case "ban":
		err = h.handleBan(ctx, s, i)
	case "unban":
		err = h.handleUnban(ctx, s, i)
	case "timeout":
		err = h.handleTimeout(ctx, s, i)
	case "untimeout":
		err = h.handleUntimeout(ctx, s, i)
	case "config":
		err = h.handleConfig(ctx, s, i)
	case "rank":
		err = h.handleRank(ctx, s, i)
	case "leaderboard":
		err = h.handleLeaderboard(ctx, s, i)
	case "ping":
		err = h.handlePing(s, i)
	case "userinfo":
		err = h.handleUserInfo(s, i)
	case "serverinfo":
		err = h.handleServerInfo(s, i)
	case "stats":
		err = h.handleStats(s, i)
	case "help":
		err = h.handleHelp(s, i)
	default:
		err = fmt.Errorf("unknown command: %s", data.Name)
	}

	if err != nil {
		logging.Error("Command error [%s]: %v", data.Name, err)
		respondError(s, i, err.Error())
	}
}

// respondError sends an ephemeral error message
func respondError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: fmt.Sprintf("❌ Error: %s", message),
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, message string) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: message,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

func respondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

type optionMap map[string]*discordgo.ApplicationCommandInteractionDataOption

func mapOptions(options []*discordgo.ApplicationCommandInteractionDataOption) optionMap {
	m := make(optionMap, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}

func (m optionMap) str(name string) string {
	if opt, ok := m[name]; ok {
		return opt.StringValue()
	}
	return ""
}

func (m optionMap) integer(name string, fallback int) int {
	if opt, ok := m[name]; ok {
		return int(opt.IntValue())
	}
	return fallback
}

func (m optionMap) user(s *discordgo.Session, name string) *discordgo.User {
	if opt, ok := m[name]; ok {
		return opt.UserValue(s)
	}
	return nil
}

func reasonOrDefault(opts optionMap) string {
	if reason := opts.str("reason"); reason != "" {
		return reason
	}
	return "No reason provided"
}
