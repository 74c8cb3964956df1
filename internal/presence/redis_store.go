package presence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nakshtra/chat-service/internal/config"
	"github.com/nakshtra/chat-service/pkg/log"
)

// RedisStore implements Store using Redis. Keys carry a TTL and are
// refreshed by a heartbeat while this instance holds connections, so a
// crashed instance's participants fall offline after the TTL.
type RedisStore struct {
	client            *redis.Client
	prefix            string
	keyTTL            time.Duration
	heartbeatInterval time.Duration

	// connection counts held by this instance
	local  map[string]int
	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewRedisStore connects to Redis and starts the heartbeat.
func NewRedisStore(cfg config.PresenceConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	s := &RedisStore{
		client:            client,
		prefix:            cfg.Prefix,
		keyTTL:            cfg.KeyTTL,
		heartbeatInterval: cfg.HeartbeatInterval,
		local:             make(map[string]int),
	}

	hbCtx, hbCancel := context.WithCancel(context.Background())
	s.cancel = hbCancel
	go s.heartbeatLoop(hbCtx)

	return s, nil
}

func (s *RedisStore) keyFor(participantID string) string {
	return fmt.Sprintf("%s:online:%s", s.prefix, participantID)
}

// Connect records one live connection for the participant.
func (s *RedisStore) Connect(ctx context.Context, participantID string) error {
	s.mu.Lock()
	s.local[participantID]++
	s.mu.Unlock()

	if err := s.client.Set(ctx, s.keyFor(participantID), "1", s.keyTTL).Err(); err != nil {
		return fmt.Errorf("record presence: %w", err)
	}
	return nil
}

// Disconnect releases one live connection for the participant. The key is
// deleted only when this instance holds no more connections for them.
func (s *RedisStore) Disconnect(ctx context.Context, participantID string) error {
	s.mu.Lock()
	s.local[participantID]--
	remaining := s.local[participantID]
	if remaining <= 0 {
		delete(s.local, participantID)
	}
	s.mu.Unlock()

	if remaining > 0 {
		return nil
	}
	if err := s.client.Del(ctx, s.keyFor(participantID)).Err(); err != nil {
		return fmt.Errorf("clear presence: %w", err)
	}
	return nil
}

// Online reports liveness for each given participant id.
func (s *RedisStore) Online(ctx context.Context, participantIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(participantIDs))
	if len(participantIDs) == 0 {
		return out, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.IntCmd, len(participantIDs))
	for i, id := range participantIDs {
		cmds[i] = pipe.Exists(ctx, s.keyFor(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("query presence: %w", err)
	}

	for i, id := range participantIDs {
		out[id] = cmds[i].Val() > 0
	}
	return out, nil
}

// Close stops the heartbeat and closes the Redis client.
func (s *RedisStore) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	return s.client.Close()
}

func (s *RedisStore) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(s.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refreshKeys(ctx)
		}
	}
}

func (s *RedisStore) refreshKeys(ctx context.Context) {
	s.mu.Lock()
	ids := make([]string, 0, len(s.local))
	for id := range s.local {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		if err := s.client.Expire(ctx, s.keyFor(id), s.keyTTL).Err(); err != nil {
			l := log.L()
			l.Warn().Err(err).Str(log.FieldParticipantID, id).Msg("failed to refresh presence key")
		}
	}
}
