package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"storyslip/internal/domain/models"
	"storyslip/internal/storage"
	redisapp "storyslip/internal/storage/redis"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type RedisRenderCache struct {
	Client *redisapp.Client
}

func NewRedisRenderCache(client *redisapp.Client) *RedisRenderCache {
	return &RedisRenderCache{Client: client}
}

func (r *RedisRenderCache) Get(ctx context.Context, widgetID uuid.UUID, page int, search string) (*models.RenderedWidget, error) {
	val, err := r.Client.Get(ctx, renderKey(widgetID, page, search)).Result()
	if err == redis.Nil {
		return nil, storage.ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	var payload models.RenderedWidget
	if err := json.Unmarshal([]byte(val), &payload); err != nil {
		return nil, err
	}

	return &payload, nil
}

func (r *RedisRenderCache) Set(ctx context.Context, widgetID uuid.UUID, page int, search string, payload *models.RenderedWidget, ttl time.Duration) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return r.Client.Set(ctx, renderKey(widgetID, page, search), raw, ttl).Err()
}

// Invalidate drops every cached page of a widget after its configuration
// changed, so clients never see pre-mutation output past one request.
func (r *RedisRenderCache) Invalidate(ctx context.Context, widgetID uuid.UUID) error {
	keys, err := r.Client.Keys(ctx, renderKeyPrefix(widgetID)+"*").Result()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return r.Client.Del(ctx, keys...).Err()
}

func renderKey(widgetID uuid.UUID, page int, search string) string {
	// search is user input, hash it out of the keyspace
	h := sha256.Sum256([]byte(strings.ToLower(search)))
	return fmt.Sprintf("%s%d:%s", renderKeyPrefix(widgetID), page, hex.EncodeToString(h[:8]))
}

func renderKeyPrefix(widgetID uuid.UUID) string {
	return "render:" + widgetID.String() + ":"
}
