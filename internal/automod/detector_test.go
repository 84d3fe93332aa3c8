package automod

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaikybrofc/ayana-bot/internal/guildconfig"
)

func spamConfig() guildconfig.AutoModConfig {
	return guildconfig.AutoModConfig{
		Enabled:         true,
		AntiSpam:        true,
		SpamMaxMessages: 5,
		SpamWindow:      8 * time.Second,
		Cooldown:        time.Minute,
	}
}

func msgAt(ts time.Time) Message {
	return Message{GuildID: "g1", UserID: "u1", Content: "hello", Timestamp: ts}
}

func TestSpamFiresWhenWindowExceeded(t *testing.T) {
	d := NewDetector()
	cfg := spamConfig()
	base := time.Now()

	// Five messages inside the window stay at the threshold.
	for i := 0; i < 5; i++ {
		triggers := d.Observe(msgAt(base.Add(time.Duration(i)*time.Second)), cfg)
		assert.Empty(t, triggers, "message %d", i+1)
	}

	// The sixth pushes the sum past the threshold.
	triggers := d.Observe(msgAt(base.Add(5*time.Second)), cfg)
	require.Len(t, triggers, 1)
	assert.Equal(t, SignalSpam, triggers[0].Signal)
	assert.Equal(t, "g1", triggers[0].GuildID)
	assert.Equal(t, "u1", triggers[0].UserID)
	assert.Contains(t, triggers[0].Evidence, "messages")
}

func TestSpamWindowBoundaryExpiry(t *testing.T) {
	d := NewDetector()
	cfg := spamConfig()
	base := time.Now()

	// Five quick messages, then a sixth exactly one window after the first:
	// the first event has aged out, so the sum is back at the threshold.
	for i := 0; i < 5; i++ {
		d.Observe(msgAt(base.Add(time.Duration(i)*100*time.Millisecond)), cfg)
	}
	triggers := d.Observe(msgAt(base.Add(cfg.SpamWindow)), cfg)
	assert.Empty(t, triggers, "an event exactly one window old no longer counts")
}

func TestSpamCooldownSuppressesAndExpires(t *testing.T) {
	d := NewDetector()
	cfg := spamConfig()
	base := time.Now()

	burst := func(start time.Time) []Trigger {
		var last []Trigger
		for i := 0; i < 6; i++ {
			last = d.Observe(msgAt(start.Add(time.Duration(i)*100*time.Millisecond)), cfg)
		}
		return last
	}

	require.Len(t, burst(base), 1)

	// A second burst inside the cooldown is suppressed entirely.
	assert.Empty(t, burst(base.Add(10*time.Second)))

	// After the cooldown has elapsed the signal can fire again.
	require.Len(t, burst(base.Add(2*time.Minute)), 1)
}

func TestMentionFloodWeightsByMentions(t *testing.T) {
	d := NewDetector()
	cfg := guildconfig.AutoModConfig{
		Enabled:          true,
		AntiMentionFlood: true,
		MentionLimit:     5,
		SpamWindow:       8 * time.Second,
	}
	base := time.Now()

	msg := Message{GuildID: "g1", UserID: "u1", MentionCount: 3, Timestamp: base}
	assert.Empty(t, d.Observe(msg, cfg))

	// Second message brings the in-window mention sum to 6 > 5.
	msg.Timestamp = base.Add(time.Second)
	triggers := d.Observe(msg, cfg)
	require.Len(t, triggers, 1)
	assert.Equal(t, SignalMentionFlood, triggers[0].Signal)
	assert.Contains(t, triggers[0].Evidence, "mentions")
}

func TestSignalsKeepIndependentWindows(t *testing.T) {
	d := NewDetector()
	cfg := spamConfig()
	cfg.AntiMentionFlood = true
	cfg.MentionLimit = 5
	base := time.Now()

	// Mentions accumulate without ever crossing the mention limit while the
	// message count crosses the spam threshold.
	var last []Trigger
	for i := 0; i < 6; i++ {
		last = d.Observe(Message{
			GuildID: "g1", UserID: "u1", Content: "hi",
			Timestamp: base.Add(time.Duration(i) * 100 * time.Millisecond),
		}, cfg)
	}
	require.Len(t, last, 1)
	assert.Equal(t, SignalSpam, last[0].Signal)
}

func TestPerMemberIsolation(t *testing.T) {
	d := NewDetector()
	cfg := spamConfig()
	base := time.Now()

	for i := 0; i < 5; i++ {
		d.Observe(msgAt(base.Add(time.Duration(i)*100*time.Millisecond)), cfg)
	}

	other := Message{GuildID: "g1", UserID: "u2", Content: "hi", Timestamp: base.Add(time.Second)}
	assert.Empty(t, d.Observe(other, cfg), "another member's window is untouched")
}

func TestLinkFilterBlocksAndAllowlists(t *testing.T) {
	d := NewDetector()
	cfg := guildconfig.AutoModConfig{
		Enabled:            true,
		AntiLink:           true,
		LinkAllowedDomains: []string{"discord.com", "example.com"},
	}
	ts := time.Now()

	blocked := Message{GuildID: "g1", UserID: "u1", Content: "join https://scam.example.net/free", Timestamp: ts}
	triggers := d.Observe(blocked, cfg)
	require.Len(t, triggers, 1)
	assert.Equal(t, SignalLink, triggers[0].Signal)
	assert.Contains(t, triggers[0].Evidence, "scam.example.net")

	allowed := Message{GuildID: "g1", UserID: "u2", Content: "see https://example.com/docs", Timestamp: ts}
	assert.Empty(t, d.Observe(allowed, cfg))

	subdomain := Message{GuildID: "g1", UserID: "u3", Content: "https://support.discord.com/hc", Timestamp: ts}
	assert.Empty(t, d.Observe(subdomain, cfg), "subdomains of allowed domains pass")

	plain := Message{GuildID: "g1", UserID: "u4", Content: "no links here", Timestamp: ts}
	assert.Empty(t, d.Observe(plain, cfg))
}

func TestDisabledAndBypassShortCircuit(t *testing.T) {
	d := NewDetector()
	base := time.Now()

	off := spamConfig()
	off.Enabled = false
	for i := 0; i < 10; i++ {
		assert.Empty(t, d.Observe(msgAt(base.Add(time.Duration(i)*100*time.Millisecond)), off))
	}

	bypass := spamConfig()
	bypass.BypassRoleIDs = []string{"r-mod"}
	for i := 0; i < 10; i++ {
		msg := msgAt(base.Add(time.Duration(i) * 100 * time.Millisecond))
		msg.RoleIDs = []string{"r-member", "r-mod"}
		assert.Empty(t, d.Observe(msg, bypass))
	}
	assert.Zero(t, d.TrackedKeys(), "bypassed messages never allocate window state")
}

func TestIdleKeysEvicted(t *testing.T) {
	d := NewDetector()
	cfg := spamConfig()
	base := time.Now()

	for i := 0; i < 20; i++ {
		msg := Message{
			GuildID: "g1", UserID: fmt.Sprintf("u%d", i),
			Content: "hi", Timestamp: base,
		}
		d.Observe(msg, cfg)
	}
	require.Equal(t, 20, d.TrackedKeys())

	// One active member an hour later; everyone else has been idle far past
	// the eviction horizon.
	late := Message{GuildID: "g1", UserID: "u0", Content: "hi", Timestamp: base.Add(time.Hour)}
	d.Observe(late, cfg)
	assert.Equal(t, 1, d.TrackedKeys())
}
