// Package points accumulates community activity experience and resolves
// level-ups. Awards are best-effort: a failed award is logged and
// swallowed so the triggering write (post, comment, vote) still succeeds.
package points

import (
	"context"
	"math"
	"time"

	"github.com/stockhub-kr/stockhub/internal/core"
	"github.com/stockhub-kr/stockhub/internal/metrics"
	"github.com/stockhub-kr/stockhub/internal/observability"
	"go.uber.org/zap"
)

// Rewards defines experience granted per activity.
type Rewards struct {
	Post    int
	Comment int
	Vote    int
}

// DefaultRewards is the standard reward schedule.
var DefaultRewards = Rewards{Post: 5, Comment: 1, Vote: 1}

// DefaultSeason is used when no season is configured.
const DefaultSeason = 1

// LevelStore persists per-user level state.
type LevelStore interface {
	GetUserLevel(ctx context.Context, userID string) (*core.UserLevel, error)
	UpsertUserLevel(ctx context.Context, level *core.UserLevel) error
}

// Accumulator grants experience for community activity.
type Accumulator struct {
	Store   LevelStore
	Rewards Rewards
	Season  int
	Clock   func() time.Time
}

// NewAccumulator constructs an Accumulator with the default schedule.
func NewAccumulator(store LevelStore) *Accumulator {
	return &Accumulator{
		Store:   store,
		Rewards: DefaultRewards,
		Season:  DefaultSeason,
	}
}

// ExpNeeded returns the experience required to advance from the given
// level to the next: floor(100 * 1.1^(level-1)).
func ExpNeeded(level int) int {
	if level < 1 {
		level = 1
	}
	return int(math.Floor(100 * math.Pow(1.1, float64(level-1))))
}

// Apply adds earned experience to a level state and resolves every
// level-up the new total affords. A large single award can cross
// several thresholds at once.
func Apply(exp, level, earned int) (newExp, newLevel, levelUps int) {
	if level < 1 {
		level = 1
	}
	if exp < 0 {
		exp = 0
	}

	newExp = exp + earned
	newLevel = level
	for newExp >= ExpNeeded(newLevel) {
		newExp -= ExpNeeded(newLevel)
		newLevel++
		levelUps++
	}
	return newExp, newLevel, levelUps
}

// ToNextLevel reports experience still needed to reach the next level.
func ToNextLevel(exp, level int) int {
	remaining := ExpNeeded(level) - exp
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Award grants the reward for reason to userID and persists the result.
// It reports whether the award was recorded; failures never propagate.
func (a *Accumulator) Award(ctx context.Context, userID string, reason core.AwardReason) bool {
	if a == nil || a.Store == nil || userID == "" {
		return false
	}

	earned := a.rewardFor(reason)
	if earned <= 0 {
		return false
	}

	current, err := a.Store.GetUserLevel(ctx, userID)
	if err != nil {
		a.logFailure(userID, reason, "load level state", err)
		metrics.RecordPointsAward(string(reason), false)
		return false
	}

	exp, level := 0, 1
	if current != nil {
		exp, level = current.Exp, current.Level
	}

	newExp, newLevel, levelUps := Apply(exp, level, earned)

	updated := &core.UserLevel{
		UserID:    userID,
		Exp:       newExp,
		Level:     newLevel,
		Season:    a.season(),
		UpdatedAt: a.now(),
	}
	if err := a.Store.UpsertUserLevel(ctx, updated); err != nil {
		a.logFailure(userID, reason, "persist level state", err)
		metrics.RecordPointsAward(string(reason), false)
		return false
	}

	metrics.RecordPointsAward(string(reason), true)
	if levelUps > 0 {
		metrics.RecordLevelUps(levelUps)
		if observability.ServerLogger != nil {
			observability.ServerLogger.Info("user leveled up",
				zap.String("user_id", userID),
				zap.Int("level", newLevel),
				zap.Int("level_ups", levelUps),
			)
		}
	}
	return true
}

func (a *Accumulator) rewardFor(reason core.AwardReason) int {
	rewards := a.Rewards
	if rewards == (Rewards{}) {
		rewards = DefaultRewards
	}

	switch reason {
	case core.AwardPost:
		return rewards.Post
	case core.AwardComment:
		return rewards.Comment
	case core.AwardVote:
		return rewards.Vote
	default:
		return 0
	}
}

func (a *Accumulator) season() int {
	if a.Season > 0 {
		return a.Season
	}
	return DefaultSeason
}

func (a *Accumulator) now() time.Time {
	if a.Clock != nil {
		return a.Clock()
	}
	return time.Now().UTC()
}

func (a *Accumulator) logFailure(userID string, reason core.AwardReason, stage string, err error) {
	if observability.ServerLogger == nil {
		return
	}
	observability.ServerLogger.Warn("points award failed",
		zap.String("user_id", userID),
		zap.String("reason", string(reason)),
		zap.String("stage", stage),
		zap.Error(err),
	)
}
