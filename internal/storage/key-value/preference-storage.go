package key_value

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/iamvkosarev/mednote/internal/model"
	"github.com/iamvkosarev/mednote/pkg/local"
)

type PreferenceStorage struct {
	rdb *redis.Client
}

func NewPreferenceStorage(rdb *redis.Client) *PreferenceStorage {
	return &PreferenceStorage{
		rdb: rdb,
	}
}

func (p *PreferenceStorage) GetLanguage(ctx context.Context) (local.Language, error) {
	value, err := p.rdb.Get(ctx, local.StorageKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", model.ErrPreferenceNotSet
		}
		return "", fmt.Errorf("failed to get language %s: %w", local.StorageKey, err)
	}
	return local.Language(value), nil
}

func (p *PreferenceStorage) SetLanguage(ctx context.Context, lang local.Language) error {
	if err := p.rdb.Set(ctx, local.StorageKey, string(lang), 0).Err(); err != nil {
		return fmt.Errorf("failed to save language %s: %w", local.StorageKey, err)
	}
	return nil
}
