package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/kaikybrofc/ayana-bot/internal/logging"
)

// Session wraps the Discord gateway connection.
type Session struct {
	discord *discordgo.Session
}

func New(token string) (*Session, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent

	return &Session{discord: dg}, nil
}

// Discord returns the underlying discordgo session.
func (s *Session) Discord() *discordgo.Session {
	return s.discord
}

// Connect opens the gateway websocket.
func (s *Session) Connect() error {
	if err := s.discord.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	if s.discord.State.User != nil {
		logging.Info("Logged in as %s (id=%s)", s.discord.State.User.Username, s.discord.State.User.ID)
	}
	return nil
}

func (s *Session) Close() error {
	if s.discord != nil {
		return s.discord.Close()
	}
	return nil
}

// RegisterCommands registers slash commands, scoped to one guild when
// guildID is set (instant sync, useful for development) or globally
// otherwise.
func (s *Session) RegisterCommands(guildID string, commands []*discordgo.ApplicationCommand) error {
	appID := s.discord.State.User.ID
	for _, cmd := range commands {
		if _, err := s.discord.ApplicationCommandCreate(appID, guildID, cmd); err != nil {
			return fmt.Errorf("failed to register command %s: %w", cmd.Name, err)
		}
		logging.Info("Registered command: /%s", cmd.Name)
	}
	return nil
}

// AddHandler adds a gateway event handler.
func (s *Session) AddHandler(handler interface{}) {
	s.discord.AddHandler(handler)
}
