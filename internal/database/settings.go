package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DefaultGuildSettings returns the settings applied to a guild that has never
// been configured. Matches the documented defaults: timeout at 3 active warns,
// ban at 5, warns expire after 60 days, spam limit 5 messages per 8 seconds.
func DefaultGuildSettings(guildID string) *GuildSettingsRecord {
	return &GuildSettingsRecord{
		GuildID:               guildID,
		WarnExpiryDays:        60,
		EscalationThresholds:  "",
		AutoModEnabled:        true,
		AntiSpam:              true,
		AntiLink:              true,
		AntiMentionFlood:      true,
		SpamMaxMessages:       5,
		SpamWindowSeconds:     8,
		MentionLimit:          5,
		CooldownSeconds:       60,
		AutoModTimeoutMinutes: 10,
	}
}

// GetGuildSettings loads the settings row for a guild. When no row exists the
// defaults are returned without writing anything.
func (d *Database) GetGuildSettings(ctx context.Context, guildID string) (*GuildSettingsRecord, error) {
	ctx, cancel := d.opCtx(ctx)
	defer cancel()

	var rec GuildSettingsRecord
	err := d.db.QueryRowContext(ctx,
		`SELECT guild_id, mod_log_channel_id, automod_log_channel_id, warn_expiry_days,
		        escalation_thresholds, automod_enabled, automod_anti_spam, automod_anti_link,
		        automod_anti_mention_flood, automod_spam_max_messages, automod_spam_window_seconds,
		        automod_mention_limit, automod_cooldown_seconds, automod_timeout_minutes,
		        automod_link_allowed_domains, automod_bypass_role_ids, created_at, updated_at
		 FROM guild_settings WHERE guild_id = ?`,
		guildID,
	).Scan(&rec.GuildID, &rec.ModLogChannelID, &rec.AutoModLogChannelID, &rec.WarnExpiryDays,
		&rec.EscalationThresholds, &rec.AutoModEnabled, &rec.AntiSpam, &rec.AntiLink,
		&rec.AntiMentionFlood, &rec.SpamMaxMessages, &rec.SpamWindowSeconds,
		&rec.MentionLimit, &rec.CooldownSeconds, &rec.AutoModTimeoutMinutes,
		&rec.LinkAllowedDomains, &rec.BypassRoleIDs, &rec.CreatedAt, &rec.UpdatedAt)

	if err == sql.ErrNoRows {
		return DefaultGuildSettings(guildID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load guild settings: %w", err)
	}
	return &rec, nil
}

// UpsertGuildSettings persists the full settings row for a guild.
func (d *Database) UpsertGuildSettings(ctx context.Context, rec *GuildSettingsRecord) error {
	ctx, cancel := d.opCtx(ctx)
	defer cancel()

	now := time.Now().Unix()
	rec.UpdatedAt = now
	if rec.CreatedAt == 0 {
		rec.CreatedAt = now
	}

	_, err := d.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO guild_settings (
			guild_id, mod_log_channel_id, automod_log_channel_id, warn_expiry_days,
			escalation_thresholds, automod_enabled, automod_anti_spam, automod_anti_link,
			automod_anti_mention_flood, automod_spam_max_messages, automod_spam_window_seconds,
			automod_mention_limit, automod_cooldown_seconds, automod_timeout_minutes,
			automod_link_allowed_domains, automod_bypass_role_ids, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.GuildID, rec.ModLogChannelID, rec.AutoModLogChannelID, rec.WarnExpiryDays,
		rec.EscalationThresholds, rec.AutoModEnabled, rec.AntiSpam, rec.AntiLink,
		rec.AntiMentionFlood, rec.SpamMaxMessages, rec.SpamWindowSeconds,
		rec.MentionLimit, rec.CooldownSeconds, rec.AutoModTimeoutMinutes,
		rec.LinkAllowedDomains, rec.BypassRoleIDs, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert guild settings: %w", err)
	}
	return nil
}
