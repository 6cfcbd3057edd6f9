package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"barberbot/models"
	"barberbot/utils"

	"github.com/go-redis/redis/v8"
)

// casScript stores ARGV[2] only when the version inside the current value
// equals ARGV[1]. A missing key counts as version 0.
var casScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
local version = 0
if current then
	version = tonumber(cjson.decode(current).version) or 0
end
if version ~= tonumber(ARGV[1]) then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`)

// RedisStore keeps conversations as JSON values with an idle TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func conversationKey(userID string) string {
	return utils.ConversationPrefix + userID
}

func (s *RedisStore) Get(ctx context.Context, userID string) (*models.Conversation, error) {
	data, err := s.client.Get(ctx, conversationKey(userID)).Result()
	if err == redis.Nil {
		return models.NewConversation(userID), nil
	}
	if err != nil {
		return nil, err
	}
	var conv models.Conversation
	if err := json.Unmarshal([]byte(data), &conv); err != nil {
		return nil, fmt.Errorf("corrupt conversation %s: %w", userID, err)
	}
	return &conv, nil
}

func (s *RedisStore) Put(ctx context.Context, conv *models.Conversation) error {
	next := conv.Clone()
	next.Version++
	b, err := json.Marshal(next)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, conversationKey(conv.UserID), b, s.ttl).Err(); err != nil {
		return err
	}
	conv.Version = next.Version
	return nil
}

func (s *RedisStore) CompareAndSwap(ctx context.Context, conv *models.Conversation) error {
	next := conv.Clone()
	next.Version++
	b, err := json.Marshal(next)
	if err != nil {
		return err
	}
	swapped, err := casScript.Run(ctx, s.client,
		[]string{conversationKey(conv.UserID)},
		conv.Version, string(b), s.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return err
	}
	if swapped == 0 {
		return ErrConflict
	}
	conv.Version = next.Version
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, userID string) error {
	return s.client.Del(ctx, conversationKey(userID)).Err()
}
