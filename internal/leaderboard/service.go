package leaderboard

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/victornm/mcquiz/internal/domain"
	"github.com/victornm/mcquiz/internal/errors"
	"github.com/victornm/mcquiz/internal/event"
)

const (
	publishInterval = 200 * time.Millisecond
	defaultMaxSize  = 1000
	defaultLimit    = 10
)

type Config struct {
	EventBus *event.Bus
	Redis    redis.UniversalClient
	Prefix   string
	// MaxSize is the number of best graded quizzes kept. Lower ranks are evicted.
	MaxSize int64
}

// Service ranks graded quizzes by their score percentage.
type Service struct {
	eb      *event.Bus
	redis   redis.UniversalClient
	prefix  string
	maxSize int64
}

func NewService(c Config) *Service {
	s := &Service{
		eb:      c.EventBus,
		redis:   c.Redis,
		prefix:  c.Prefix,
		maxSize: c.MaxSize,
	}

	if s.maxSize <= 0 {
		s.maxSize = defaultMaxSize
	}

	s.eb.Subscribe(domain.EventNameQuizGraded, func(ctx context.Context, e event.Event) error {
		return s.UpdateLeaderboard(ctx, e.(domain.EventQuizGraded))
	})

	return s
}

type GetLeaderboardRequest struct {
	// Limit is the number of entries returned, 10 when zero or less.
	Limit int64
}

// GetLeaderboard returns the best graded quizzes, highest score first.
func (s *Service) GetLeaderboard(ctx context.Context, req GetLeaderboardRequest) (*domain.Leaderboard, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	res, err := s.redis.ZRevRangeWithScores(ctx, s.getLeaderboardKey(), 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("get leaderboard: %w", err)
	}

	if len(res) == 0 {
		return nil, errors.New(errors.CodeNotFound, errors.WithMessagef("leaderboard is empty"))
	}

	entries := make([]domain.LeaderboardEntry, 0, len(res))
	for _, z := range res {
		entries = append(entries, domain.LeaderboardEntry{
			SessionID: z.Member.(string),
			Score:     z.Score,
		})
	}

	return &domain.Leaderboard{
		Entries: entries,
	}, nil
}

// UpdateLeaderboard records the score of a graded quiz.
func (s *Service) UpdateLeaderboard(ctx context.Context, e domain.EventQuizGraded) error {
	r := e.Result
	key := s.getLeaderboardKey()

	_, err := s.redis.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZAdd(ctx, key, redis.Z{
			Score:  r.ScorePercentage.InexactFloat64(),
			Member: r.SessionID,
		})
		// Keep only the best maxSize entries.
		p.ZRemRangeByRank(ctx, key, 0, -s.maxSize-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("update leaderboard: %w", err)
	}

	return s.schedulePublishLeaderboard(ctx)
}

// schedulePublishLeaderboard publishes the leaderboard at most once per interval.
// Many quizzes can be graded in a short time, this reduces the number of published events.
func (s *Service) schedulePublishLeaderboard(ctx context.Context) error {
	// Only the instance that sets the key publishes.
	ok, err := s.redis.SetNX(ctx, s.getLeaderboardTimeKey(), time.Now().UnixMilli(), publishInterval).Result()
	if err != nil {
		return fmt.Errorf("setnx: %w", err)
	}

	if !ok {
		return nil
	}

	l, err := s.GetLeaderboard(ctx, GetLeaderboardRequest{})
	if err != nil {
		return fmt.Errorf("get leaderboard failed: %w", err)
	}

	s.eb.Publish(ctx, domain.EventLeaderboardUpdated{
		Leaderboard: *l,
	})

	return nil
}

func (s *Service) getLeaderboardKey() string {
	return fmt.Sprintf("%s:leaderboard", s.prefix)
}

func (s *Service) getLeaderboardTimeKey() string {
	return fmt.Sprintf("%s:leaderboard:time", s.prefix)
}
