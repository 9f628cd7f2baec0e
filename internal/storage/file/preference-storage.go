package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/iamvkosarev/mednote/internal/model"
	"github.com/iamvkosarev/mednote/pkg/local"
)

const preferencesFile = "preferences.json"

// PreferenceStorage keeps preferences in a small JSON object on disk, so the
// language survives restarts without redis.
type PreferenceStorage struct {
	mu   sync.Mutex
	path string
}

func NewPreferenceStorage(dir string) (*PreferenceStorage, error) {
	if dir == "" {
		return nil, errors.New("preference directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create preference directory %s: %w", dir, err)
	}
	return &PreferenceStorage{path: filepath.Join(dir, preferencesFile)}, nil
}

func (p *PreferenceStorage) GetLanguage(context.Context) (local.Language, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	values, err := p.read()
	if err != nil {
		return "", err
	}
	value, ok := values[local.StorageKey]
	if !ok || value == "" {
		return "", model.ErrPreferenceNotSet
	}
	return local.Language(value), nil
}

func (p *PreferenceStorage) SetLanguage(_ context.Context, lang local.Language) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	values, err := p.read()
	if err != nil {
		return err
	}
	values[local.StorageKey] = string(lang)
	return p.write(values)
}

func (p *PreferenceStorage) read() (map[string]string, error) {
	values := make(map[string]string)
	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return values, nil
		}
		return nil, fmt.Errorf("failed to read preferences %s: %w", p.path, err)
	}
	if err = json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse preferences %s: %w", p.path, err)
	}
	return values, nil
}

// write replaces the file through a rename so a crash never leaves it half written.
func (p *PreferenceStorage) write(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(p.path), preferencesFile+".*")
	if err != nil {
		return fmt.Errorf("failed to create preferences file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	if err = os.Rename(tmp.Name(), p.path); err != nil {
		return fmt.Errorf("failed to save preferences %s: %w", p.path, err)
	}
	return nil
}
