package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/victornm/mcquiz/internal/domain"
)

type RedisConfig struct {
	Redis  redis.UniversalClient
	Prefix string
	// TTL expires sessions after creation. Zero keeps them forever.
	TTL time.Duration
}

// Redis is a Registry backed by Redis, so sessions survive restarts and are shared across instances.
type Redis struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedis(c RedisConfig) *Redis {
	return &Redis{
		redis:  c.Redis,
		prefix: c.Prefix,
		ttl:    c.TTL,
	}
}

type redisSession struct {
	Questions  []questionRecord `json:"questions"`
	CreateTime time.Time        `json:"create_time"`
}

func (r *Redis) Put(ctx context.Context, s domain.Session) error {
	b, err := json.Marshal(redisSession{
		Questions:  toRecords(s.Questions),
		CreateTime: s.CreateTime,
	})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	_, err = r.redis.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, r.getSessionKey(s.SessionID), b, r.ttl)
		if s.Submitted {
			p.Set(ctx, r.getSubmittedKey(s.SessionID), time.Now().UnixMilli(), r.ttl)
		} else {
			p.Del(ctx, r.getSubmittedKey(s.SessionID))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("put session: %w", err)
	}

	return nil
}

func (r *Redis) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	vals, err := r.redis.MGet(ctx, r.getSessionKey(sessionID), r.getSubmittedKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	data, ok := vals[0].(string)
	if !ok {
		return nil, notFound(sessionID)
	}

	var rs redisSession
	if err := json.Unmarshal([]byte(data), &rs); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", sessionID, err)
	}

	return &domain.Session{
		SessionID:  sessionID,
		Questions:  fromRecords(rs.Questions),
		Submitted:  vals[1] != nil,
		CreateTime: rs.CreateTime,
	}, nil
}

// MarkSubmitted claims the submitted marker with SETNX, so only one caller can win.
func (r *Redis) MarkSubmitted(ctx context.Context, sessionID string) (bool, error) {
	n, err := r.redis.Exists(ctx, r.getSessionKey(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("check session: %w", err)
	}
	if n == 0 {
		return false, notFound(sessionID)
	}

	ok, err := r.redis.SetNX(ctx, r.getSubmittedKey(sessionID), time.Now().UnixMilli(), r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setnx: %w", err)
	}

	return ok, nil
}

// Both keys of a session share a hash tag so they live in the same cluster slot.
func (r *Redis) getSessionKey(session string) string {
	return fmt.Sprintf("%s:session:{%s}", r.prefix, session)
}

func (r *Redis) getSubmittedKey(session string) string {
	return fmt.Sprintf("%s:session:{%s}:submitted", r.prefix, session)
}
