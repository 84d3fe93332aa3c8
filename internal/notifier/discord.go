package notifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/kaikybrofc/ayana-bot/internal/database"
	"github.com/kaikybrofc/ayana-bot/internal/logging"
)

// Notifier posts moderation embeds to the guild's configured log channels.
// Sends are fire-and-forget: a missing channel or send failure never blocks
// the action path.
type Notifier struct {
	session *discordgo.Session
}

func New(session *discordgo.Session) *Notifier {
	return &Notifier{session: session}
}

var kindEmoji = map[database.InfractionKind]string{
	database.KindWarn:           "⚠️",
	database.KindKick:           "👢",
	database.KindBan:            "🔨",
	database.KindUnban:          "🔓",
	database.KindTimeout:        "🔇",
	database.KindUntimeout:      "🔊",
	database.KindAutoModTrigger: "🛡️",
}

func kindTitle(kind database.InfractionKind) string {
	words := strings.Split(string(kind), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// ActionLogged posts an infraction to the mod log channel.
func (n *Notifier) ActionLogged(channelID string, inf *database.Infraction, activeWarns int) {
	if channelID == "" {
		return
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "Member", Value: fmt.Sprintf("<@%s> (`%s`)", inf.UserID, inf.UserID), Inline: true},
		{Name: "Moderator", Value: actorMention(inf.ActorID), Inline: true},
	}
	if inf.Kind == database.KindWarn {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "Active warnings", Value: fmt.Sprintf("`%d`", activeWarns), Inline: true,
		})
		if inf.ExpiresAt != nil {
			fields = append(fields, &discordgo.MessageEmbedField{
				Name: "Expires", Value: fmt.Sprintf("<t:%d:R>", inf.ExpiresAt.Unix()), Inline: true,
			})
		}
	}
	if inf.Reason != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Reason", Value: inf.Reason})
	}

	n.send(channelID, &discordgo.MessageEmbed{
		Title:     fmt.Sprintf("%s %s", kindEmoji[inf.Kind], kindTitle(inf.Kind)),
		Color:     embedColor(inf.Kind),
		Fields:    fields,
		Footer:    &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Case #%d", inf.ID)},
		Timestamp: inf.CreatedAt.Format(time.RFC3339),
	})
}

// EscalationApplied posts the automatic punishment that followed a warn.
func (n *Notifier) EscalationApplied(channelID string, entry *database.Infraction, activeWarns int) {
	if channelID == "" {
		return
	}

	n.send(channelID, &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s Automatic %s", kindEmoji[entry.Kind], kindTitle(entry.Kind)),
		Color:       0xED4245,
		Description: fmt.Sprintf("<@%s> reached `%d` active warnings.", entry.UserID, activeWarns),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Reason", Value: entry.Reason},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Case #%d", entry.ID)},
		Timestamp: entry.CreatedAt.Format(time.RFC3339),
	})
}

// AutoModTriggered posts a trigger to the automod log channel. Automod faults
// are reported here, never to the offending user.
func (n *Notifier) AutoModTriggered(channelID string, inf *database.Infraction, actionTaken string) {
	if channelID == "" {
		return
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "Member", Value: fmt.Sprintf("<@%s> (`%s`)", inf.UserID, inf.UserID), Inline: true},
	}
	if actionTaken != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Action", Value: actionTaken, Inline: true})
	}
	fields = append(fields, &discordgo.MessageEmbedField{Name: "Evidence", Value: inf.Reason})

	n.send(channelID, &discordgo.MessageEmbed{
		Title:     "🛡️ AutoMod Trigger",
		Color:     0xFEE75C,
		Fields:    fields,
		Footer:    &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Case #%d", inf.ID)},
		Timestamp: inf.CreatedAt.Format(time.RFC3339),
	})
}

// ActuatorFailure reports a punishment the platform refused.
func (n *Notifier) ActuatorFailure(channelID, userID, reason string) {
	if channelID == "" {
		return
	}

	n.send(channelID, &discordgo.MessageEmbed{
		Title:       "❌ Action Failed",
		Color:       0xED4245,
		Description: fmt.Sprintf("Could not punish <@%s>: %s", userID, reason),
		Timestamp:   time.Now().Format(time.RFC3339),
	})
}

// LevelUp announces a level-up in the channel the message was sent to.
func (n *Notifier) LevelUp(channelID, userID string, level int, totalXP int64) {
	if channelID == "" {
		return
	}

	content := fmt.Sprintf("<@%s> reached level `%d`! Total XP: `%d`.", userID, level, totalXP)
	go func() {
		_, err := n.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
			Content:         content,
			AllowedMentions: &discordgo.MessageAllowedMentions{},
		})
		if err != nil {
			logging.Warn("Failed to announce level up in channel %s: %v", channelID, err)
		}
	}()
}

func (n *Notifier) send(channelID string, embed *discordgo.MessageEmbed) {
	go func() {
		if _, err := n.session.ChannelMessageSendEmbed(channelID, embed); err != nil {
			logging.Warn("Failed to send log embed to channel %s: %v", channelID, err)
		}
	}()
}

func actorMention(actorID string) string {
	if actorID == database.SystemActorID {
		return "AutoMod"
	}
	return fmt.Sprintf("<@%s>", actorID)
}

func embedColor(kind database.InfractionKind) int {
	switch kind {
	case database.KindBan, database.KindKick:
		return 0xED4245
	case database.KindWarn, database.KindTimeout, database.KindAutoModTrigger:
		return 0xFEE75C
	default:
		return 0x57F287
	}
}
