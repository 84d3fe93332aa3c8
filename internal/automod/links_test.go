package automod

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlockedDomain(t *testing.T) {
	allowed := []string{"example.com"}

	assert.Equal(t, "", blockedDomain("plain text", allowed))
	assert.Equal(t, "", blockedDomain("http://example.com/page", allowed))
	assert.Equal(t, "", blockedDomain("https://cdn.example.com/img.png", allowed))
	assert.Equal(t, "evil.net", blockedDomain("go to https://evil.net now", allowed))
	assert.Equal(t, "evil.net", blockedDomain("HTTPS://EVIL.NET shouting", allowed))

	// First offending domain wins when several links are present.
	assert.Equal(t, "a.bad", blockedDomain("https://a.bad https://b.bad", allowed))
}

func TestInviteLinksAlwaysCount(t *testing.T) {
	assert.Equal(t, "discord.gg", blockedDomain("join discord.gg/abc123", nil))
	assert.Equal(t, "", blockedDomain("join discord.gg/abc123", []string{"discord.gg"}))
}

func TestEmptyAllowlistBlocksEverything(t *testing.T) {
	assert.Equal(t, "example.com", blockedDomain("https://example.com", nil))
}
