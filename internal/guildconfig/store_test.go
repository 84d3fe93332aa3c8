package guildconfig

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaikybrofc/ayana-bot/internal/database"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Open(database.Options{
		Path:      filepath.Join(t.TempDir(), "test.db"),
		OpTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db)
}

func TestGetReturnsDefaults(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec, err := store.Get(ctx, "g1")
	require.NoError(t, err)

	assert.Equal(t, "g1", rec.GuildID)
	assert.Equal(t, DefaultEscalation(), rec.Escalation)
	assert.Equal(t, 60*24*time.Hour, rec.WarnExpiry)
	assert.True(t, rec.AutoMod.Enabled)
	assert.Equal(t, 5, rec.AutoMod.SpamMaxMessages)
	assert.Equal(t, 8*time.Second, rec.AutoMod.SpamWindow)
	assert.Equal(t, 5, rec.AutoMod.MentionLimit)
	assert.Equal(t, time.Minute, rec.AutoMod.Cooldown)
	assert.Equal(t, 10*time.Minute, rec.AutoMod.TimeoutOnTrigger)
}

func TestSetReadYourWrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	channel := "c42"
	days := 14
	updated, err := store.Set(ctx, "g1", Patch{
		ModLogChannelID: &channel,
		WarnExpiryDays:  &days,
	})
	require.NoError(t, err)
	assert.Equal(t, "c42", updated.ModLogChannelID)
	assert.Equal(t, 14*24*time.Hour, updated.WarnExpiry)

	// A read immediately after the write sees the new values.
	rec, err := store.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "c42", rec.ModLogChannelID)
	assert.Equal(t, 14*24*time.Hour, rec.WarnExpiry)
}

func TestSetMergesPartialPatches(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	channel := "c1"
	_, err := store.Set(ctx, "g1", Patch{ModLogChannelID: &channel})
	require.NoError(t, err)

	limit := 9
	rec, err := store.Set(ctx, "g1", Patch{MentionLimit: &limit})
	require.NoError(t, err)

	assert.Equal(t, "c1", rec.ModLogChannelID, "earlier write survives an unrelated patch")
	assert.Equal(t, 9, rec.AutoMod.MentionLimit)
}

func TestSetRejectsInvalidWithoutPersisting(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	bad := -1
	_, err := store.Set(ctx, "g1", Patch{WarnExpiryDays: &bad})
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)

	rec, err := store.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, 60*24*time.Hour, rec.WarnExpiry, "rejected write left defaults intact")
}

func TestSetRejectsInvalidThresholds(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Set(ctx, "g1", Patch{Escalation: []EscalationStep{
		{Count: 5, Action: ActionBan},
		{Count: 3, Action: ActionTimeout, DurationMinutes: 10},
	}})
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestSetCustomThresholdsRoundtrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	steps := []EscalationStep{
		{Count: 2, Action: ActionTimeout, DurationMinutes: 30},
		{Count: 4, Action: ActionTimeout, DurationMinutes: 120},
		{Count: 6, Action: ActionBan},
	}
	_, err := store.Set(ctx, "g1", Patch{Escalation: steps})
	require.NoError(t, err)

	store.Invalidate("g1")
	rec, err := store.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, steps, rec.Escalation)
}

func TestSetClearsListFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Set(ctx, "g1", Patch{LinkAllowedDomains: []string{"example.com", "discord.com"}})
	require.NoError(t, err)

	rec, err := store.Set(ctx, "g1", Patch{LinkAllowedDomains: []string{}})
	require.NoError(t, err)
	assert.Empty(t, rec.AutoMod.LinkAllowedDomains)
}
