package guard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"clinic-adminplane/pkg/errutil"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const defaultMasterPassword = "dental-admin"

// ConfigStore persists the singleton guard configuration.
type ConfigStore struct {
	db *gorm.DB
}

func NewConfigStore(db *gorm.DB) *ConfigStore {
	return &ConfigStore{db: db}
}

// Load returns the configuration row, seeding a default one on first use.
func (s *ConfigStore) Load(ctx context.Context, defaultExpiryMinutes int) (*Config, error) {
	var cfg Config
	err := s.db.WithContext(ctx).First(&cfg, "config_id = ?", 1).Error
	if err == nil {
		return &cfg, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errutil.Internal("failed to load guard config", errutil.WithErr(err))
	}

	cfg = Config{
		ID:             1,
		MasterPassword: defaultMasterPassword,
		ExpiryMinutes:  defaultExpiryMinutes,
	}
	if err := s.db.WithContext(ctx).Create(&cfg).Error; err != nil {
		return nil, errutil.Internal("failed to seed guard config", errutil.WithErr(err))
	}
	return &cfg, nil
}

func (s *ConfigStore) Save(ctx context.Context, cfg *Config) error {
	if err := s.db.WithContext(ctx).Save(cfg).Error; err != nil {
		return errutil.Internal("failed to save guard config", errutil.WithErr(err))
	}
	return nil
}

// SessionStore keeps the ephemeral overlay sessions plus the per-caller
// failed-attempt counters and lockouts.
type SessionStore interface {
	Get(ctx context.Context, userID, page string) (*Session, error)
	Put(ctx context.Context, sess *Session, ttl time.Duration) error
	Delete(ctx context.Context, userID, page string) error

	IncrAttempts(ctx context.Context, userID, page string) (int, error)
	ResetAttempts(ctx context.Context, userID, page string) error
	Lock(ctx context.Context, userID, page string, d time.Duration) error
	LockedUntil(ctx context.Context, userID, page string) (time.Time, error)
}

type redisSessionStore struct {
	rdb *redis.Client
}

func NewRedisSessionStore(rdb *redis.Client) SessionStore {
	return &redisSessionStore{rdb: rdb}
}

func sessionKey(userID, page string) string { return fmt.Sprintf("guard:session:%s:%s", userID, page) }
func attemptKey(userID, page string) string { return fmt.Sprintf("guard:attempts:%s:%s", userID, page) }
func lockKey(userID, page string) string    { return fmt.Sprintf("guard:lock:%s:%s", userID, page) }

func (s *redisSessionStore) Get(ctx context.Context, userID, page string) (*Session, error) {
	raw, err := s.rdb.Get(ctx, sessionKey(userID, page)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		// A session that no longer decodes is treated as absent.
		_ = s.rdb.Del(ctx, sessionKey(userID, page)).Err()
		return nil, nil
	}
	return &sess, nil
}

func (s *redisSessionStore) Put(ctx context.Context, sess *Session, ttl time.Duration) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, sessionKey(sess.UserID, sess.Page), raw, ttl).Err()
}

func (s *redisSessionStore) Delete(ctx context.Context, userID, page string) error {
	return s.rdb.Del(ctx, sessionKey(userID, page)).Err()
}

func (s *redisSessionStore) IncrAttempts(ctx context.Context, userID, page string) (int, error) {
	n, err := s.rdb.Incr(ctx, attemptKey(userID, page)).Result()
	if err != nil {
		return 0, err
	}
	// Attempt counters fade on their own if never reset.
	_ = s.rdb.Expire(ctx, attemptKey(userID, page), 10*time.Minute).Err()
	return int(n), nil
}

func (s *redisSessionStore) ResetAttempts(ctx context.Context, userID, page string) error {
	return s.rdb.Del(ctx, attemptKey(userID, page)).Err()
}

func (s *redisSessionStore) Lock(ctx context.Context, userID, page string, d time.Duration) error {
	return s.rdb.Set(ctx, lockKey(userID, page), time.Now().Add(d).Format(time.RFC3339), d).Err()
}

func (s *redisSessionStore) LockedUntil(ctx context.Context, userID, page string) (time.Time, error) {
	raw, err := s.rdb.Get(ctx, lockKey(userID, page)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}

	until, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, nil
	}
	return until, nil
}

// memorySessionStore backs tests and redis-less deployments.
type memorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	attempts map[string]int
	locks    map[string]time.Time
	now      func() time.Time
}

func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{
		sessions: map[string]*Session{},
		attempts: map[string]int{},
		locks:    map[string]time.Time{},
		now:      time.Now,
	}
}

func (s *memorySessionStore) Get(_ context.Context, userID, page string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionKey(userID, page)]
	if !ok {
		return nil, nil
	}
	copied := *sess
	return &copied, nil
}

func (s *memorySessionStore) Put(_ context.Context, sess *Session, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *sess
	s.sessions[sessionKey(sess.UserID, sess.Page)] = &copied
	return nil
}

func (s *memorySessionStore) Delete(_ context.Context, userID, page string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionKey(userID, page))
	return nil
}

func (s *memorySessionStore) IncrAttempts(_ context.Context, userID, page string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[attemptKey(userID, page)]++
	return s.attempts[attemptKey(userID, page)], nil
}

func (s *memorySessionStore) ResetAttempts(_ context.Context, userID, page string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attempts, attemptKey(userID, page))
	return nil
}

func (s *memorySessionStore) Lock(_ context.Context, userID, page string, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locks[lockKey(userID, page)] = s.now().Add(d)
	return nil
}

func (s *memorySessionStore) LockedUntil(_ context.Context, userID, page string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locks[lockKey(userID, page)], nil
}
