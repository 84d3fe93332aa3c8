package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := Open(Options{
		Path:         filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 4,
		MaxIdleConns: 2,
		OpTimeout:    5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestAppendInfractionAssignsIDAndTimestamp(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	inf := &Infraction{
		GuildID: "g1",
		UserID:  "u1",
		ActorID: "mod1",
		Kind:    KindWarn,
		Reason:  "spamming",
	}
	id, err := db.AppendInfraction(ctx, inf)
	require.NoError(t, err)
	assert.Equal(t, id, inf.ID)
	assert.Greater(t, id, int64(0))
	assert.False(t, inf.CreatedAt.IsZero())
}

func TestAppendInfractionTruncatesReason(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	long := make([]byte, 2000)
	for i := range long {
		long[i] = 'x'
	}
	inf := &Infraction{GuildID: "g1", UserID: "u1", ActorID: "m", Kind: KindWarn, Reason: string(long)}
	_, err := db.AppendInfraction(ctx, inf)
	require.NoError(t, err)

	rows, err := db.ListHistory(ctx, "g1", "u1", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Len(t, rows[0].Reason, 512)
}

func TestCountActiveWarnsExcludesExpired(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)

	for _, exp := range []*time.Time{nil, &future, &past} {
		_, err := db.AppendInfraction(ctx, &Infraction{
			GuildID: "g1", UserID: "u1", ActorID: "m", Kind: KindWarn,
			Reason: "r", ExpiresAt: exp,
		})
		require.NoError(t, err)
	}

	count, err := db.CountActiveWarns(ctx, "g1", "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "nil expiry and future expiry count, past expiry does not")
}

func TestCountActiveWarnsIgnoresOtherKinds(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for _, kind := range []InfractionKind{KindWarn, KindKick, KindBan, KindAutoModTrigger, KindTimeout} {
		_, err := db.AppendInfraction(ctx, &Infraction{
			GuildID: "g1", UserID: "u1", ActorID: "m", Kind: kind, Reason: "r",
		})
		require.NoError(t, err)
	}

	count, err := db.CountActiveWarns(ctx, "g1", "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCountActiveWarnsScopedToGuildAndUser(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	pairs := [][2]string{{"g1", "u1"}, {"g1", "u2"}, {"g2", "u1"}}
	for _, p := range pairs {
		_, err := db.AppendInfraction(ctx, &Infraction{
			GuildID: p[0], UserID: p[1], ActorID: "m", Kind: KindWarn, Reason: "r",
		})
		require.NoError(t, err)
	}

	count, err := db.CountActiveWarns(ctx, "g1", "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestListHistoryNewestFirstAndClamped(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := db.AppendInfraction(ctx, &Infraction{
			GuildID: "g1", UserID: "u1", ActorID: "m", Kind: KindWarn,
			Reason: "r",
		})
		require.NoError(t, err)
	}

	rows, err := db.ListHistory(ctx, "g1", "u1", 3)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Greater(t, rows[0].ID, rows[1].ID)
	assert.Greater(t, rows[1].ID, rows[2].ID)

	// Out-of-range limits clamp instead of failing.
	rows, err = db.ListHistory(ctx, "g1", "u1", 0)
	require.NoError(t, err)
	assert.NotEmpty(t, rows)

	rows, err = db.ListHistory(ctx, "g1", "u1", 10000)
	require.NoError(t, err)
	assert.Len(t, rows, 5)
}

func TestClearWarnsLeavesAuditTrail(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for _, kind := range []InfractionKind{KindWarn, KindWarn, KindBan, KindAutoModTrigger} {
		_, err := db.AppendInfraction(ctx, &Infraction{
			GuildID: "g1", UserID: "u1", ActorID: "m", Kind: kind, Reason: "r",
		})
		require.NoError(t, err)
	}

	cleared, err := db.ClearWarns(ctx, "g1", "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), cleared)

	rows, err := db.ListHistory(ctx, "g1", "u1", 10)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	for _, row := range rows {
		assert.NotEqual(t, KindWarn, row.Kind)
	}
}

func TestLatestEscalationOnlySystemActor(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	// Moderator-issued timeout must not show up as an escalation.
	_, err := db.AppendInfraction(ctx, &Infraction{
		GuildID: "g1", UserID: "u1", ActorID: "mod1", Kind: KindTimeout, Reason: "manual",
	})
	require.NoError(t, err)

	latest, err := db.LatestEscalation(ctx, "g1", "u1")
	require.NoError(t, err)
	assert.Nil(t, latest)

	_, err = db.AppendInfraction(ctx, &Infraction{
		GuildID: "g1", UserID: "u1", ActorID: SystemActorID, Kind: KindTimeout,
		Reason: "auto", Metadata: `{"warn_count":3}`,
	})
	require.NoError(t, err)

	latest, err = db.LatestEscalation(ctx, "g1", "u1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, `{"warn_count":3}`, latest.Metadata)

	// A later system-actor timeout without a warn count (an automod-applied
	// punishment) must not become the latest escalation.
	_, err = db.AppendInfraction(ctx, &Infraction{
		GuildID: "g1", UserID: "u1", ActorID: SystemActorID, Kind: KindTimeout,
		Reason: "AutoMod: spam", Metadata: `{}`,
	})
	require.NoError(t, err)

	latest, err = db.LatestEscalation(ctx, "g1", "u1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, `{"warn_count":3}`, latest.Metadata)
}

func TestInfractionActive(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	assert.True(t, (&Infraction{Kind: KindWarn}).Active(now))
	assert.True(t, (&Infraction{Kind: KindWarn, ExpiresAt: &future}).Active(now))
	assert.False(t, (&Infraction{Kind: KindWarn, ExpiresAt: &past}).Active(now))
	// Expiry boundary: a warn expiring exactly now is no longer active.
	assert.False(t, (&Infraction{Kind: KindWarn, ExpiresAt: &now}).Active(now))
	assert.False(t, (&Infraction{Kind: KindAutoModTrigger}).Active(now))
}

func TestGuildSettingsDefaultsWithoutWrite(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	rec, err := db.GetGuildSettings(ctx, "g-missing")
	require.NoError(t, err)
	def := DefaultGuildSettings("g-missing")
	assert.Equal(t, def, rec)

	// Reading defaults must not create a row.
	rec2, err := db.GetGuildSettings(ctx, "g-missing")
	require.NoError(t, err)
	assert.Equal(t, rec, rec2)
}

func TestGuildSettingsUpsertRoundtrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	rec := DefaultGuildSettings("g1")
	rec.ModLogChannelID = "c123"
	rec.WarnExpiryDays = 14
	rec.SpamMaxMessages = 9
	require.NoError(t, db.UpsertGuildSettings(ctx, rec))

	got, err := db.GetGuildSettings(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "c123", got.ModLogChannelID)
	assert.Equal(t, 14, got.WarnExpiryDays)
	assert.Equal(t, 9, got.SpamMaxMessages)
}
