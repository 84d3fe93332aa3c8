package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// XPForNextLevel returns how much XP is needed to advance from the given
// level to the next one.
func XPForNextLevel(level int) int64 {
	return int64(5*level*level + 50*level + 100)
}

// TotalXPForLevel returns the cumulative XP required to reach a level.
func TotalXPForLevel(level int) int64 {
	var total int64
	for l := 0; l < level; l++ {
		total += XPForNextLevel(l)
	}
	return total
}

// LevelProgress is the outcome of one XP grant.
type LevelProgress struct {
	TotalXP   int64
	Level     int
	LeveledUp bool
}

// AddLevelXP grants XP to a member and recomputes their level inside a single
// transaction.
func (d *Database) AddLevelXP(ctx context.Context, guildID, userID string, gain int64) (*LevelProgress, error) {
	ctx, cancel := d.opCtx(ctx)
	defer cancel()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin xp transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		totalXP int64
		level   int
	)
	err = tx.QueryRowContext(ctx,
		`SELECT total_xp, level FROM user_levels WHERE guild_id = ? AND user_id = ?`,
		guildID, userID,
	).Scan(&totalXP, &level)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to load level row: %w", err)
	}

	totalXP += gain
	newLevel := level
	for totalXP >= TotalXPForLevel(newLevel+1) {
		newLevel++
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO user_levels (guild_id, user_id, total_xp, level, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(guild_id, user_id) DO UPDATE SET
			total_xp = excluded.total_xp,
			level = excluded.level,
			updated_at = excluded.updated_at`,
		guildID, userID, totalXP, newLevel, time.Now().Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to store level row: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit xp transaction: %w", err)
	}

	return &LevelProgress{
		TotalXP:   totalXP,
		Level:     newLevel,
		LeveledUp: newLevel > level,
	}, nil
}

// GetLevel returns the leveling record for a member, or a zeroed record when
// none exists.
func (d *Database) GetLevel(ctx context.Context, guildID, userID string) (*UserLevel, error) {
	ctx, cancel := d.opCtx(ctx)
	defer cancel()

	rec := &UserLevel{GuildID: guildID, UserID: userID}
	err := d.db.QueryRowContext(ctx,
		`SELECT total_xp, level, updated_at FROM user_levels WHERE guild_id = ? AND user_id = ?`,
		guildID, userID,
	).Scan(&rec.TotalXP, &rec.Level, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return rec, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load level: %w", err)
	}
	return rec, nil
}

// Leaderboard returns the top members of a guild ordered by total XP.
func (d *Database) Leaderboard(ctx context.Context, guildID string, limit int) ([]*UserLevel, error) {
	ctx, cancel := d.opCtx(ctx)
	defer cancel()

	if limit < 1 {
		limit = 10
	}
	if limit > 25 {
		limit = 25
	}

	rows, err := d.db.QueryContext(ctx,
		`SELECT guild_id, user_id, total_xp, level, updated_at
		 FROM user_levels WHERE guild_id = ?
		 ORDER BY total_xp DESC, user_id ASC
		 LIMIT ?`,
		guildID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	defer rows.Close()

	var records []*UserLevel
	for rows.Next() {
		var rec UserLevel
		if err := rows.Scan(&rec.GuildID, &rec.UserID, &rec.TotalXP, &rec.Level, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan level row: %w", err)
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// Rank returns the member's 1-based position on the guild leaderboard.
func (d *Database) Rank(ctx context.Context, guildID, userID string) (int, error) {
	ctx, cancel := d.opCtx(ctx)
	defer cancel()

	var rank int
	err := d.db.QueryRowContext(ctx,
		`SELECT COUNT(*) + 1 FROM user_levels
		 WHERE guild_id = ? AND total_xp > (
			SELECT COALESCE((SELECT total_xp FROM user_levels WHERE guild_id = ? AND user_id = ?), 0)
		 )`,
		guildID, guildID, userID,
	).Scan(&rank)
	if err != nil {
		return 0, fmt.Errorf("failed to compute rank: %w", err)
	}
	return rank, nil
}
