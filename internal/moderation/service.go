package moderation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kaikybrofc/ayana-bot/internal/database"
	"github.com/kaikybrofc/ayana-bot/internal/guildconfig"
	"github.com/kaikybrofc/ayana-bot/internal/logging"
	"github.com/kaikybrofc/ayana-bot/internal/metrics"
)

// Service is the single entry point for every path that records a moderation
// action: manual commands and automod triggers both funnel through
// RecordAndEscalate, so there is no way to add a warn without escalation
// being evaluated.
type Service struct {
	db       *database.Database
	configs  *guildconfig.Store
	actuator Actuator
	locks    *keyedMutex
	lockWait time.Duration
}

func NewService(db *database.Database, configs *guildconfig.Store, actuator Actuator, lockWait time.Duration) *Service {
	if lockWait <= 0 {
		lockWait = 5 * time.Second
	}
	return &Service{
		db:       db,
		configs:  configs,
		actuator: actuator,
		locks:    newKeyedMutex(),
		lockWait: lockWait,
	}
}

// Outcome describes what one RecordAndEscalate call did.
type Outcome struct {
	Infraction  *database.Infraction
	ActiveWarns int
	// Escalation is set when an automatic punishment was applied and
	// confirmed by the actuator.
	Escalation      *PunishmentIntent
	EscalationEntry *database.Infraction
}

func lockKey(guildID, userID string) string {
	return guildID + ":" + userID
}

// RecordAndEscalate appends the infraction to the ledger and, for warns,
// recomputes the active count and runs the escalation policy. The whole
// sequence is serialized per (guild, member) so two concurrent warns cannot
// both read a stale count and double-apply a punishment.
//
// When the actuator refuses the escalation, the triggering infraction stays
// committed, no punishment row is written, and the ActuatorError is returned
// alongside the partial outcome.
func (s *Service) RecordAndEscalate(ctx context.Context, inf *database.Infraction) (*Outcome, error) {
	lockCtx, cancel := context.WithTimeout(ctx, s.lockWait)
	release, err := s.locks.Acquire(lockCtx, lockKey(inf.GuildID, inf.UserID))
	cancel()
	if err != nil {
		return nil, err
	}
	defer release()

	cfg, err := s.configs.Get(ctx, inf.GuildID)
	if err != nil {
		return nil, err
	}

	if inf.Kind == database.KindWarn && inf.ExpiresAt == nil && cfg.WarnExpiry > 0 {
		expires := time.Now().UTC().Add(cfg.WarnExpiry)
		inf.ExpiresAt = &expires
	}

	if _, err := s.db.AppendInfraction(ctx, inf); err != nil {
		return nil, err
	}

	out := &Outcome{Infraction: inf}
	if inf.Kind != database.KindWarn {
		return out, nil
	}
	metrics.Global().WarnRecorded()

	count, err := s.db.CountActiveWarns(ctx, inf.GuildID, inf.UserID)
	if err != nil {
		return out, err
	}
	out.ActiveWarns = count

	intent, err := s.evaluateEscalation(ctx, cfg, inf.GuildID, inf.UserID, count)
	if err != nil || intent == nil {
		return out, err
	}

	if err := s.actuator.Execute(ctx, *intent); err != nil {
		metrics.Global().ActuatorFailure()
		logging.Warn("Escalation refused by actuator: guild=%s user=%s kind=%s: %v",
			inf.GuildID, inf.UserID, intent.Kind, err)
		return out, wrapActuatorErr(err)
	}

	entry, err := s.logApplied(ctx, intent)
	if err != nil {
		return out, err
	}
	out.Escalation = intent
	out.EscalationEntry = entry

	logging.Info("Escalation applied: guild=%s user=%s kind=%s warns=%d",
		inf.GuildID, inf.UserID, intent.Kind, count)
	return out, nil
}

// HandleAutoModTrigger records an automod trigger through the shared action
// path and applies the guild's configured automod punishment, if any.
// Automod triggers are a distinct kind from warns and never feed the
// escalation count.
func (s *Service) HandleAutoModTrigger(ctx context.Context, guildID, userID, signal, evidence string) (*Outcome, error) {
	meta, _ := json.Marshal(escalationMetadata{Signal: signal})
	inf := &database.Infraction{
		GuildID:  guildID,
		UserID:   userID,
		ActorID:  database.SystemActorID,
		Kind:     database.KindAutoModTrigger,
		Reason:   fmt.Sprintf("AutoMod: %s (%s)", signal, evidence),
		Metadata: string(meta),
	}

	out, err := s.RecordAndEscalate(ctx, inf)
	if err != nil {
		return out, err
	}

	cfg, err := s.configs.Get(ctx, guildID)
	if err != nil {
		return out, err
	}
	if cfg.AutoMod.TimeoutOnTrigger <= 0 {
		return out, nil
	}

	intent := &PunishmentIntent{
		GuildID:  guildID,
		UserID:   userID,
		Kind:     database.KindTimeout,
		Duration: cfg.AutoMod.TimeoutOnTrigger,
		Reason:   fmt.Sprintf("AutoMod: %s", signal),
	}
	if err := s.actuator.Execute(ctx, *intent); err != nil {
		metrics.Global().ActuatorFailure()
		return out, wrapActuatorErr(err)
	}

	entry, err := s.logApplied(ctx, intent)
	if err != nil {
		return out, err
	}
	out.Escalation = intent
	out.EscalationEntry = entry
	return out, nil
}

// ApplyModeratorAction executes a moderator-initiated platform action (kick,
// ban, timeout, and their inverses) and records it once the platform confirms
// it. Nothing is written to the ledger when the actuator refuses.
func (s *Service) ApplyModeratorAction(ctx context.Context, actorID string, intent *PunishmentIntent) (*Outcome, error) {
	if err := s.actuator.Execute(ctx, *intent); err != nil {
		return nil, wrapActuatorErr(err)
	}

	inf := &database.Infraction{
		GuildID: intent.GuildID,
		UserID:  intent.UserID,
		ActorID: actorID,
		Kind:    intent.Kind,
		Reason:  intent.Reason,
	}
	return s.RecordAndEscalate(ctx, inf)
}

// logApplied writes the ledger row for a punishment the actuator confirmed.
func (s *Service) logApplied(ctx context.Context, intent *PunishmentIntent) (*database.Infraction, error) {
	meta, _ := json.Marshal(escalationMetadata{WarnCount: intent.ThresholdCount})
	entry := &database.Infraction{
		GuildID:  intent.GuildID,
		UserID:   intent.UserID,
		ActorID:  database.SystemActorID,
		Kind:     intent.Kind,
		Reason:   intent.Reason,
		Metadata: string(meta),
	}
	if _, err := s.db.AppendInfraction(ctx, entry); err != nil {
		return nil, err
	}
	metrics.Global().Escalation()
	return entry, nil
}

// ActiveCount is the read-only query surface for the number of unexpired
// warns; it runs lock-free against the ledger.
func (s *Service) ActiveCount(ctx context.Context, guildID, userID string) (int, error) {
	return s.db.CountActiveWarns(ctx, guildID, userID)
}

// ListActiveWarns returns unexpired warns, newest first.
func (s *Service) ListActiveWarns(ctx context.Context, guildID, userID string) ([]*database.Infraction, error) {
	return s.db.ListActiveWarns(ctx, guildID, userID)
}

// ListHistory returns the member's moderation history, newest first.
func (s *Service) ListHistory(ctx context.Context, guildID, userID string, limit int) ([]*database.Infraction, error) {
	return s.db.ListHistory(ctx, guildID, userID, limit)
}

// ClearWarns removes all warn rows for the member, leaving the rest of the
// audit trail intact. It takes the member's lock so it cannot interleave with
// an in-flight warn.
func (s *Service) ClearWarns(ctx context.Context, guildID, userID string) (int64, error) {
	lockCtx, cancel := context.WithTimeout(ctx, s.lockWait)
	release, err := s.locks.Acquire(lockCtx, lockKey(guildID, userID))
	cancel()
	if err != nil {
		return 0, err
	}
	defer release()

	return s.db.ClearWarns(ctx, guildID, userID)
}

func wrapActuatorErr(err error) error {
	if _, ok := err.(*ActuatorError); ok {
		return err
	}
	return &ActuatorError{Reason: err.Error(), Err: err}
}
