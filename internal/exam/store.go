package exam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Keys written per candidate. Each is namespaced by the session id.
const (
	KeyUserAnswers   = "userAnswers"
	KeyTestCompleted = "testCompleted"
	KeyUserInfo      = "userInfo"
	KeyResultID      = "resultId"
	KeyScore         = "scoreSummary"
)

// KV is a string key-value store with last-write-wins semantics.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]string)}
}

func (m *MemoryKV) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryKV) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryKV) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

type RedisKV struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisKV stores keys under prefix with the given expiry; ttl <= 0 keeps keys forever.
func NewRedisKV(client *redis.Client, prefix string, ttl time.Duration) *RedisKV {
	return &RedisKV{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return v, true, nil
}

func (r *RedisKV) Set(ctx context.Context, key, value string) error {
	ttl := r.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := r.client.Set(ctx, r.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisKV) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, r.prefix+k)
	}
	if err := r.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// CandidateStore is the hand-off between the test flow and the results flow.
type CandidateStore struct {
	kv KV
}

func NewCandidateStore(kv KV) *CandidateStore {
	return &CandidateStore{kv: kv}
}

type UserInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func candidateKey(key, name string) string {
	return strings.TrimSpace(key) + ":" + name
}

// SaveSubmission writes the answers and score before the completion flag so a
// reader that sees testCompleted always finds both.
func (c *CandidateStore) SaveSubmission(ctx context.Context, key string, answers map[int]int, score ScoreSummary) error {
	raw, err := EncodeAnswers(answers)
	if err != nil {
		return err
	}
	rawScore, err := json.Marshal(score)
	if err != nil {
		return fmt.Errorf("encode score: %w", err)
	}
	if err := c.kv.Set(ctx, candidateKey(key, KeyUserAnswers), raw); err != nil {
		return err
	}
	if err := c.kv.Set(ctx, candidateKey(key, KeyScore), string(rawScore)); err != nil {
		return err
	}
	return c.kv.Set(ctx, candidateKey(key, KeyTestCompleted), "true")
}

// Score returns the summary frozen at submission time.
func (c *CandidateStore) Score(ctx context.Context, key string) (*ScoreSummary, bool, error) {
	raw, ok, err := c.kv.Get(ctx, candidateKey(key, KeyScore))
	if err != nil || !ok {
		return nil, false, err
	}
	var out ScoreSummary
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, false, fmt.Errorf("decode score: %w", err)
	}
	return &out, true, nil
}

func (c *CandidateStore) Completed(ctx context.Context, key string) (bool, error) {
	v, ok, err := c.kv.Get(ctx, candidateKey(key, KeyTestCompleted))
	if err != nil {
		return false, err
	}
	return ok && v == "true", nil
}

func (c *CandidateStore) Answers(ctx context.Context, key string) (map[int]int, bool, error) {
	raw, ok, err := c.kv.Get(ctx, candidateKey(key, KeyUserAnswers))
	if err != nil || !ok {
		return nil, false, err
	}
	answers, err := DecodeAnswers(raw)
	if err != nil {
		return nil, false, err
	}
	return answers, true, nil
}

func (c *CandidateStore) SaveUserInfo(ctx context.Context, key string, info UserInfo) error {
	raw, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("encode user info: %w", err)
	}
	return c.kv.Set(ctx, candidateKey(key, KeyUserInfo), string(raw))
}

func (c *CandidateStore) UserInfo(ctx context.Context, key string) (*UserInfo, bool, error) {
	raw, ok, err := c.kv.Get(ctx, candidateKey(key, KeyUserInfo))
	if err != nil || !ok {
		return nil, false, err
	}
	var info UserInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return nil, false, fmt.Errorf("decode user info: %w", err)
	}
	return &info, true, nil
}

func (c *CandidateStore) ResultID(ctx context.Context, key string) (string, bool, error) {
	return c.kv.Get(ctx, candidateKey(key, KeyResultID))
}

func (c *CandidateStore) SaveResultID(ctx context.Context, key, id string) error {
	return c.kv.Set(ctx, candidateKey(key, KeyResultID), id)
}

// ClearSubmission forgets everything stored for key. A new test runs under a
// new session id, so nothing here is read again.
func (c *CandidateStore) ClearSubmission(ctx context.Context, key string) error {
	return c.kv.Delete(ctx,
		candidateKey(key, KeyUserAnswers),
		candidateKey(key, KeyScore),
		candidateKey(key, KeyTestCompleted),
		candidateKey(key, KeyUserInfo),
		candidateKey(key, KeyResultID),
	)
}

// EncodeAnswers renders answers as a JSON object keyed by question number string.
func EncodeAnswers(answers map[int]int) (string, error) {
	if answers == nil {
		answers = map[int]int{}
	}
	raw, err := json.Marshal(answers)
	if err != nil {
		return "", fmt.Errorf("encode answers: %w", err)
	}
	return string(raw), nil
}

func DecodeAnswers(raw string) (map[int]int, error) {
	out := map[int]int{}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	return out, nil
}
