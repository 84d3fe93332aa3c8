package leveling

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/kaikybrofc/ayana-bot/internal/database"
)

const (
	xpCooldown       = 30 * time.Second
	cooldownMapLimit = 50000
)

// Service accrues message XP. The per-member cooldown lives in memory only;
// losing it on restart just means one early XP grant.
type Service struct {
	db *database.Database

	mu        sync.Mutex
	cooldowns map[string]time.Time
	rng       *rand.Rand
}

func NewService(db *database.Database) *Service {
	return &Service{
		db:        db,
		cooldowns: make(map[string]time.Time),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// OnMessage grants XP for one eligible message. Returns nil progress when the
// member is still on cooldown.
func (s *Service) OnMessage(ctx context.Context, guildID, userID string, contentLength, attachments, stickers int) (*database.LevelProgress, error) {
	if s.rateLimited(guildID, userID) {
		return nil, nil
	}

	gain := s.gainFor(contentLength, attachments, stickers)
	return s.db.AddLevelXP(ctx, guildID, userID, gain)
}

// gainFor mirrors the original reward shape: a base of 8 plus small bonuses
// for message length, attachments and stickers, clamped to 10..40.
func (s *Service) gainFor(contentLength, attachments, stickers int) int64 {
	lengthBonus := min(contentLength, 240) / 24
	attachmentBonus := min(attachments, 2) * 3
	stickerBonus := min(stickers, 1) * 2

	s.mu.Lock()
	randomBonus := 5 + s.rng.Intn(6)
	s.mu.Unlock()

	gain := 8 + lengthBonus + attachmentBonus + stickerBonus + randomBonus
	if gain < 10 {
		gain = 10
	}
	if gain > 40 {
		gain = 40
	}
	return int64(gain)
}

// Standing is what the rank card shows: stored progress plus the member's
// position on the guild leaderboard.
type Standing struct {
	Level    int
	TotalXP  int64
	NextGoal int64
	Rank     int
}

func (s *Service) Standing(ctx context.Context, guildID, userID string) (*Standing, error) {
	rec, err := s.db.GetLevel(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}
	rank, err := s.db.Rank(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}
	return &Standing{
		Level:    rec.Level,
		TotalXP:  rec.TotalXP,
		NextGoal: database.TotalXPForLevel(rec.Level + 1),
		Rank:     rank,
	}, nil
}

func (s *Service) Leaderboard(ctx context.Context, guildID string, limit int) ([]*database.UserLevel, error) {
	return s.db.Leaderboard(ctx, guildID, limit)
}

func (s *Service) rateLimited(guildID, userID string) bool {
	now := time.Now()
	key := guildID + ":" + userID

	s.mu.Lock()
	defer s.mu.Unlock()

	if last, ok := s.cooldowns[key]; ok && now.Sub(last) < xpCooldown {
		return true
	}
	s.cooldowns[key] = now

	if len(s.cooldowns) > cooldownMapLimit {
		cutoff := now.Add(-4 * xpCooldown)
		for k, ts := range s.cooldowns {
			if ts.Before(cutoff) {
				delete(s.cooldowns, k)
			}
		}
	}
	return false
}
