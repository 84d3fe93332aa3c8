package metrics

import "sync/atomic"

// Counters tracks engine activity since process start. All fields are
// monotonic and safe for concurrent use.
type Counters struct {
	messagesSeen     atomic.Uint64
	warnsRecorded    atomic.Uint64
	escalations      atomic.Uint64
	automodTriggers  atomic.Uint64
	actuatorFailures atomic.Uint64
}

var global Counters

// Global returns the process-wide counter set.
func Global() *Counters {
	return &global
}

func (c *Counters) MessageSeen()     { c.messagesSeen.Add(1) }
func (c *Counters) WarnRecorded()    { c.warnsRecorded.Add(1) }
func (c *Counters) Escalation()      { c.escalations.Add(1) }
func (c *Counters) AutoModTrigger()  { c.automodTriggers.Add(1) }
func (c *Counters) ActuatorFailure() { c.actuatorFailures.Add(1) }

// Snapshot is a point-in-time copy for display.
type Snapshot struct {
	MessagesSeen     uint64
	WarnsRecorded    uint64
	Escalations      uint64
	AutoModTriggers  uint64
	ActuatorFailures uint64
}

func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		MessagesSeen:     c.messagesSeen.Load(),
		WarnsRecorded:    c.warnsRecorded.Load(),
		Escalations:      c.escalations.Load(),
		AutoModTriggers:  c.automodTriggers.Load(),
		ActuatorFailures: c.actuatorFailures.Load(),
	}
}
