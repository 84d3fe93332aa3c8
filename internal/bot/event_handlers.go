package bot

import (
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/kaikybrofc/ayana-bot/internal/ingest"
	"github.com/kaikybrofc/ayana-bot/internal/logging"
)

// SetupEventHandlers wires gateway events into the bounded work queue.
// Handlers only translate and enqueue; all real work happens on queue
// workers so a slow store or actuator never stalls the websocket reader.
func (s *Session) SetupEventHandlers(queue *ingest.Queue) {
	s.discord.AddHandler(func(sess *discordgo.Session, m *discordgo.MessageCreate) {
		if m.GuildID == "" || m.Author == nil {
			return
		}

		var roleIDs []string
		if m.Member != nil {
			roleIDs = m.Member.Roles
		}

		ts := m.Timestamp
		if ts.IsZero() {
			ts = time.Now().UTC()
		}

		queue.Enqueue(ingest.MessageEvent{
			GuildID:         m.GuildID,
			ChannelID:       m.ChannelID,
			AuthorID:        m.Author.ID,
			AuthorIsBot:     m.Author.Bot,
			AuthorRoleIDs:   roleIDs,
			Content:         m.Content,
			MentionCount:    len(m.Mentions),
			AttachmentCount: len(m.Attachments),
			StickerCount:    len(m.StickerItems),
			Timestamp:       ts,
		})
	})

	s.discord.AddHandler(func(sess *discordgo.Session, g *discordgo.GuildMemberAdd) {
		queue.Enqueue(ingest.MemberJoinEvent{
			GuildID:   g.GuildID,
			UserID:    g.User.ID,
			Timestamp: time.Now().UTC(),
		})
	})

	s.discord.AddHandler(func(sess *discordgo.Session, g *discordgo.GuildCreate) {
		logging.Info("Guild available: %s (id=%s)", g.Name, g.ID)
	})
}
