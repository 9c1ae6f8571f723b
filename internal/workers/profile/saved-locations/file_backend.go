// internal/workers/profile/saved-locations/file_backend.go
package savedlocations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"rouvia/internal/models"

	"github.com/google/uuid"
)

// FileBackend keeps every profile in one JSON document on local disk,
// keyed by user id. Writes replace the file through a rename.
type FileBackend struct {
	path string
	mu   sync.Mutex
}

func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

func (b *FileBackend) Name() string { return "file" }

func (b *FileBackend) Load(ctx context.Context, userID string, seed *models.UserProfile) (*models.UserProfile, error) {
	var out *models.UserProfile
	_, err := b.Update(ctx, userID, seed, func(p *models.UserProfile) bool {
		out = cloneProfile(p)
		return false
	})
	return out, err
}

func (b *FileBackend) Update(ctx context.Context, userID string, seed *models.UserProfile, fn func(*models.UserProfile) bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	profiles, err := b.read()
	if err != nil {
		return false, err
	}

	profile, exists := profiles[userID]
	if !exists {
		profile = cloneProfile(seed)
		profiles[userID] = profile
	}

	changed := fn(profile)
	if !changed && exists {
		return false, nil
	}
	if err := b.write(profiles); err != nil {
		return false, err
	}
	return changed, nil
}

func (b *FileBackend) read() (map[string]*models.UserProfile, error) {
	profiles := make(map[string]*models.UserProfile)

	raw, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return profiles, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", b.path, err)
	}
	if len(raw) == 0 {
		return profiles, nil
	}
	if err := json.Unmarshal(raw, &profiles); err != nil {
		return nil, fmt.Errorf("decode %s: %w", b.path, err)
	}
	return profiles, nil
}

func (b *FileBackend) write(profiles map[string]*models.UserProfile) error {
	data, err := json.MarshalIndent(profiles, "", "  ")
	if err != nil {
		return fmt.Errorf("encode profiles: %w", err)
	}

	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp := filepath.Join(dir, "."+filepath.Base(b.path)+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, b.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", b.path, err)
	}
	return nil
}
