package automod

import (
	"fmt"
	"sync"
	"time"

	"github.com/kaikybrofc/ayana-bot/internal/guildconfig"
)

type Signal string

const (
	SignalSpam         Signal = "spam"
	SignalMentionFlood Signal = "mention_flood"
	SignalLink         Signal = "link"
)

// Trigger is emitted when a signal's threshold is exceeded outside its
// cooldown window.
type Trigger struct {
	GuildID  string
	UserID   string
	Signal   Signal
	Evidence string
}

// Message is the slice of a platform message the detector cares about.
type Message struct {
	GuildID      string
	UserID       string
	Content      string
	MentionCount int
	RoleIDs      []string
	Timestamp    time.Time
}

type windowKey struct {
	guildID string
	userID  string
	signal  Signal
}

type windowEvent struct {
	at     time.Time
	weight int
}

// windowState tracks one (guild, member, signal). Each signal keeps its own
// window so a link trigger never resets the spam window.
type windowState struct {
	events      []windowEvent
	lastTrigger time.Time
	lastSeen    time.Time
}

// Detector holds the ephemeral sliding-window state for all guilds. State is
// in-memory only; idle keys are evicted so memory stays bounded by recent
// activity.
type Detector struct {
	mu        sync.Mutex
	keys      map[windowKey]*windowState
	lastSweep time.Time
}

// Idle keys are swept every sweepInterval; a key with no events for
// idleFactor window lengths (floored at minIdleEvict) is evicted.
const (
	sweepInterval = time.Minute
	idleFactor    = 4
	minIdleEvict  = 5 * time.Minute
)

func NewDetector() *Detector {
	return &Detector{keys: make(map[windowKey]*windowState)}
}

// Observe feeds one message through every enabled signal and returns the
// triggers that fired. All time comparisons use the message timestamp, so
// replayed or delayed events stay consistent. A "no trigger" result is the
// normal case, not an error.
func (d *Detector) Observe(msg Message, cfg guildconfig.AutoModConfig) []Trigger {
	if !cfg.Enabled {
		return nil
	}
	for _, roleID := range msg.RoleIDs {
		for _, bypass := range cfg.BypassRoleIDs {
			if roleID == bypass {
				return nil
			}
		}
	}

	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	var triggers []Trigger

	if cfg.AntiSpam {
		if evidence := d.observeWindow(msg, SignalSpam, 1, cfg.SpamWindow, cfg.SpamMaxMessages, cfg.Cooldown, ts, "messages"); evidence != "" {
			triggers = append(triggers, Trigger{GuildID: msg.GuildID, UserID: msg.UserID, Signal: SignalSpam, Evidence: evidence})
		}
	}

	if cfg.AntiMentionFlood && msg.MentionCount > 0 {
		if evidence := d.observeWindow(msg, SignalMentionFlood, msg.MentionCount, cfg.SpamWindow, cfg.MentionLimit, cfg.Cooldown, ts, "mentions"); evidence != "" {
			triggers = append(triggers, Trigger{GuildID: msg.GuildID, UserID: msg.UserID, Signal: SignalMentionFlood, Evidence: evidence})
		}
	}

	if cfg.AntiLink {
		if domain := blockedDomain(msg.Content, cfg.LinkAllowedDomains); domain != "" {
			state := d.state(msg, SignalLink, ts)
			if d.fire(state, cfg.Cooldown, ts) {
				triggers = append(triggers, Trigger{GuildID: msg.GuildID, UserID: msg.UserID, Signal: SignalLink, Evidence: "blocked link: " + domain})
			}
		}
	}

	d.maybeSweep(ts, cfg.SpamWindow)
	return triggers
}

// observeWindow appends a weighted event to the signal's window and fires
// when the in-window sum exceeds the threshold. An event exactly one window
// length old has expired.
func (d *Detector) observeWindow(msg Message, signal Signal, weight int, window time.Duration, threshold int, cooldown time.Duration, ts time.Time, unit string) string {
	if window <= 0 || threshold <= 0 {
		return ""
	}

	state := d.state(msg, signal, ts)
	state.events = append(state.events, windowEvent{at: ts, weight: weight})

	sum := 0
	kept := state.events[:0]
	for _, ev := range state.events {
		if ts.Sub(ev.at) < window {
			kept = append(kept, ev)
			sum += ev.weight
		}
	}
	state.events = kept

	if sum <= threshold {
		return ""
	}
	if !d.fire(state, cooldown, ts) {
		return ""
	}

	state.events = state.events[:0]
	return fmt.Sprintf("%d %s in %s", sum, unit, window)
}

// fire applies the cooldown: a key whose last trigger is still within the
// cooldown suppresses the new trigger entirely.
func (d *Detector) fire(state *windowState, cooldown time.Duration, ts time.Time) bool {
	if !state.lastTrigger.IsZero() && cooldown > 0 && ts.Sub(state.lastTrigger) < cooldown {
		return false
	}
	state.lastTrigger = ts
	return true
}

func (d *Detector) state(msg Message, signal Signal, ts time.Time) *windowState {
	key := windowKey{guildID: msg.GuildID, userID: msg.UserID, signal: signal}
	state, ok := d.keys[key]
	if !ok {
		state = &windowState{}
		d.keys[key] = state
	}
	state.lastSeen = ts
	return state
}

func (d *Detector) maybeSweep(ts time.Time, window time.Duration) {
	if ts.Sub(d.lastSweep) < sweepInterval {
		return
	}
	d.lastSweep = ts

	idle := time.Duration(idleFactor) * window
	if idle < minIdleEvict {
		idle = minIdleEvict
	}
	for key, state := range d.keys {
		if ts.Sub(state.lastSeen) > idle {
			delete(d.keys, key)
		}
	}
}

// TrackedKeys reports how many window states are currently held.
func (d *Detector) TrackedKeys() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.keys)
}
