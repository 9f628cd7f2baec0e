package in_memory

import (
	"context"
	"sync"

	"github.com/iamvkosarev/mednote/internal/model"
	"github.com/iamvkosarev/mednote/pkg/local"
)

type PreferenceStorage struct {
	mu       sync.RWMutex
	language local.Language
}

func NewPreferenceStorage() *PreferenceStorage {
	return &PreferenceStorage{}
}

func (p *PreferenceStorage) GetLanguage(context.Context) (local.Language, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.language == "" {
		return "", model.ErrPreferenceNotSet
	}
	return p.language, nil
}

func (p *PreferenceStorage) SetLanguage(_ context.Context, lang local.Language) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.language = lang
	return nil
}
