package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const maxReasonLength = 512

// AppendInfraction persists a new ledger row and returns its id. CreatedAt is
// assigned here when the caller left it zero; ExpiresAt is stored as given and
// never recomputed later.
func (d *Database) AppendInfraction(ctx context.Context, inf *Infraction) (int64, error) {
	ctx, cancel := d.opCtx(ctx)
	defer cancel()

	if inf.CreatedAt.IsZero() {
		inf.CreatedAt = time.Now().UTC()
	}
	if len(inf.Reason) > maxReasonLength {
		inf.Reason = inf.Reason[:maxReasonLength]
	}

	var expiresAt sql.NullInt64
	if inf.ExpiresAt != nil {
		expiresAt = sql.NullInt64{Int64: inf.ExpiresAt.Unix(), Valid: true}
	}

	res, err := d.db.ExecContext(ctx,
		`INSERT INTO infractions (guild_id, user_id, actor_id, kind, reason, metadata, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		inf.GuildID, inf.UserID, inf.ActorID, string(inf.Kind), inf.Reason, inf.Metadata,
		expiresAt, inf.CreatedAt.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to append infraction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read infraction id: %w", err)
	}
	inf.ID = id
	return id, nil
}

// CountActiveWarns returns the number of warn rows for the member that have
// not expired as of now.
func (d *Database) CountActiveWarns(ctx context.Context, guildID, userID string) (int, error) {
	ctx, cancel := d.opCtx(ctx)
	defer cancel()

	var count int
	err := d.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM infractions
		 WHERE guild_id = ? AND user_id = ? AND kind = ?
		   AND (expires_at IS NULL OR expires_at > ?)`,
		guildID, userID, string(KindWarn), time.Now().UTC().Unix(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active warns: %w", err)
	}
	return count, nil
}

// ListActiveWarns returns unexpired warn rows for the member, newest first.
func (d *Database) ListActiveWarns(ctx context.Context, guildID, userID string) ([]*Infraction, error) {
	ctx, cancel := d.opCtx(ctx)
	defer cancel()

	rows, err := d.db.QueryContext(ctx,
		`SELECT id, guild_id, user_id, actor_id, kind, reason, metadata, expires_at, created_at
		 FROM infractions
		 WHERE guild_id = ? AND user_id = ? AND kind = ?
		   AND (expires_at IS NULL OR expires_at > ?)
		 ORDER BY id DESC`,
		guildID, userID, string(KindWarn), time.Now().UTC().Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list active warns: %w", err)
	}
	defer rows.Close()

	return scanInfractions(rows)
}

// ListHistory returns the member's full moderation history (all kinds),
// newest first, capped at limit. The limit is clamped to 1..100.
func (d *Database) ListHistory(ctx context.Context, guildID, userID string, limit int) ([]*Infraction, error) {
	ctx, cancel := d.opCtx(ctx)
	defer cancel()

	if limit < 1 {
		limit = 1
	}
	if limit > 100 {
		limit = 100
	}

	rows, err := d.db.QueryContext(ctx,
		`SELECT id, guild_id, user_id, actor_id, kind, reason, metadata, expires_at, created_at
		 FROM infractions
		 WHERE guild_id = ? AND user_id = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		guildID, userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	return scanInfractions(rows)
}

// ClearWarns deletes all warn rows for the member and reports how many were
// removed. Rows of other kinds are left untouched so the audit trail of
// kicks, bans and timeouts survives.
func (d *Database) ClearWarns(ctx context.Context, guildID, userID string) (int64, error) {
	ctx, cancel := d.opCtx(ctx)
	defer cancel()

	res, err := d.db.ExecContext(ctx,
		`DELETE FROM infractions WHERE guild_id = ? AND user_id = ? AND kind = ?`,
		guildID, userID, string(KindWarn),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to clear warns: %w", err)
	}
	return res.RowsAffected()
}

// LatestEscalation returns the most recent threshold-fired punishment row for
// the member, or nil when none exists. Only system-actor timeout/ban rows
// whose metadata records the warn count qualify; automod-applied timeouts
// carry no warn count and must not mask the escalation state.
func (d *Database) LatestEscalation(ctx context.Context, guildID, userID string) (*Infraction, error) {
	ctx, cancel := d.opCtx(ctx)
	defer cancel()

	row := d.db.QueryRowContext(ctx,
		`SELECT id, guild_id, user_id, actor_id, kind, reason, metadata, expires_at, created_at
		 FROM infractions
		 WHERE guild_id = ? AND user_id = ? AND actor_id = ? AND kind IN (?, ?)
		   AND metadata LIKE '%"warn_count"%'
		 ORDER BY id DESC
		 LIMIT 1`,
		guildID, userID, SystemActorID, string(KindTimeout), string(KindBan),
	)

	inf, err := scanInfraction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest escalation: %w", err)
	}
	return inf, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInfraction(row rowScanner) (*Infraction, error) {
	var (
		inf       Infraction
		kind      string
		expiresAt sql.NullInt64
		createdAt int64
	)
	err := row.Scan(&inf.ID, &inf.GuildID, &inf.UserID, &inf.ActorID, &kind,
		&inf.Reason, &inf.Metadata, &expiresAt, &createdAt)
	if err != nil {
		return nil, err
	}

	inf.Kind = InfractionKind(kind)
	inf.CreatedAt = time.Unix(createdAt, 0).UTC()
	if expiresAt.Valid {
		t := time.Unix(expiresAt.Int64, 0).UTC()
		inf.ExpiresAt = &t
	}
	return &inf, nil
}

func scanInfractions(rows *sql.Rows) ([]*Infraction, error) {
	var infractions []*Infraction
	for rows.Next() {
		inf, err := scanInfraction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan infraction: %w", err)
		}
		infractions = append(infractions, inf)
	}
	return infractions, rows.Err()
}
