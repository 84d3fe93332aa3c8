package moderation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaikybrofc/ayana-bot/internal/guildconfig"
)

func TestSelectStepPicksHighestSatisfied(t *testing.T) {
	steps := []guildconfig.EscalationStep{
		{Count: 3, Action: guildconfig.ActionTimeout, DurationMinutes: 60},
		{Count: 5, Action: guildconfig.ActionBan},
	}

	assert.Nil(t, selectStep(steps, 0))
	assert.Nil(t, selectStep(steps, 2))

	step := selectStep(steps, 3)
	require.NotNil(t, step)
	assert.Equal(t, 3, step.Count)

	step = selectStep(steps, 4)
	require.NotNil(t, step)
	assert.Equal(t, 3, step.Count)

	// A count that jumps past several thresholds picks the highest one.
	step = selectStep(steps, 7)
	require.NotNil(t, step)
	assert.Equal(t, guildconfig.ActionBan, step.Action)

	assert.Nil(t, selectStep(nil, 10))
}
