package database

import "time"

// SystemActorID is recorded as the actor on infractions created by the bot
// itself (automod triggers and automatic escalations).
const SystemActorID = "automod"

type InfractionKind string

const (
	KindWarn           InfractionKind = "warn"
	KindKick           InfractionKind = "kick"
	KindBan            InfractionKind = "ban"
	KindUnban          InfractionKind = "unban"
	KindTimeout        InfractionKind = "timeout"
	KindUntimeout      InfractionKind = "untimeout"
	KindAutoModTrigger InfractionKind = "automod_trigger"
)

// Infraction is one row of the audit ledger. Rows are append-only; the only
// deletion path is ClearWarns, which removes warn rows exclusively.
type Infraction struct {
	ID      int64
	GuildID string
	UserID  string
	ActorID string
	Kind    InfractionKind
	Reason  string
	// Metadata carries kind-specific JSON, e.g. the warn count an automatic
	// escalation fired for.
	Metadata  string
	ExpiresAt *time.Time
	CreatedAt time.Time
}

// Active reports whether a warn row still counts toward the active total.
func (i *Infraction) Active(now time.Time) bool {
	if i.Kind != KindWarn {
		return false
	}
	return i.ExpiresAt == nil || i.ExpiresAt.After(now)
}

// GuildSettingsRecord is the persisted shape of per-guild configuration.
// Interpretation (duration conversion, threshold decoding, csv splitting)
// lives in the guildconfig package.
type GuildSettingsRecord struct {
	GuildID               string
	ModLogChannelID       string
	AutoModLogChannelID   string
	WarnExpiryDays        int
	EscalationThresholds  string
	AutoModEnabled        bool
	AntiSpam              bool
	AntiLink              bool
	AntiMentionFlood      bool
	SpamMaxMessages       int
	SpamWindowSeconds     int
	MentionLimit          int
	CooldownSeconds       int
	AutoModTimeoutMinutes int
	LinkAllowedDomains    string
	BypassRoleIDs         string
	CreatedAt             int64
	UpdatedAt             int64
}

// UserLevel is the derived leveling record for one member.
type UserLevel struct {
	GuildID   string
	UserID    string
	TotalXP   int64
	Level     int
	UpdatedAt int64
}
