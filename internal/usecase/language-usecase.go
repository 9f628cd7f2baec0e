package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/iamvkosarev/mednote/internal/model"
	"github.com/iamvkosarev/mednote/pkg/local"
	"github.com/iamvkosarev/mednote/pkg/logging"
)

type PreferenceStorage interface {
	GetLanguage(ctx context.Context) (local.Language, error)
	SetLanguage(ctx context.Context, lang local.Language) error
}

type LanguageUsecaseDeps struct {
	PreferenceStorage PreferenceStorage
	Logger            *logging.Logger
}

type LanguageUsecase struct {
	LanguageUsecaseDeps
	fallback local.Language
}

func NewLanguageUsecase(deps LanguageUsecaseDeps, fallback local.Language) *LanguageUsecase {
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	return &LanguageUsecase{
		LanguageUsecaseDeps: deps,
		fallback:            local.ParseLanguage(string(fallback)),
	}
}

// Current returns the stored language, or the fallback when nothing usable
// is stored.
func (l *LanguageUsecase) Current(ctx context.Context) local.Language {
	lang, err := l.PreferenceStorage.GetLanguage(ctx)
	if err != nil {
		if !errors.Is(err, model.ErrPreferenceNotSet) {
			l.Logger.Warn("failed to read language preference", "error", err)
		}
		return l.fallback
	}
	return local.ParseLanguage(string(lang))
}

func (l *LanguageUsecase) Set(ctx context.Context, lang local.Language) error {
	lang = local.ParseLanguage(string(lang))
	if err := l.PreferenceStorage.SetLanguage(ctx, lang); err != nil {
		return fmt.Errorf("failed to save language preference: %w", err)
	}
	return nil
}

// Toggle switches between the two supported languages and persists the
// choice. The new language is returned even when saving fails.
func (l *LanguageUsecase) Toggle(ctx context.Context) (local.Language, error) {
	next := l.Current(ctx).Toggle()
	return next, l.Set(ctx, next)
}
