package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

// Store persists one Preferences document. Load returns zero-value
// preferences when nothing has been saved yet.
type Store interface {
	Load(ctx context.Context) (Preferences, error)
	Save(ctx context.Context, p Preferences) error
}

// FileStore keeps preferences in a YAML file on local disk.
type FileStore struct {
	path string
}

func NewFileStore(path string) (*FileStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrNoLocation
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load(ctx context.Context) (Preferences, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Preferences{}, nil
		}
		return Preferences{}, fmt.Errorf("preferences: read %s: %w", s.path, err)
	}
	var p Preferences
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Preferences{}, fmt.Errorf("preferences: parse %s: %w", s.path, err)
	}
	p.Normalize()
	return p, nil
}

// Save writes the file atomically: a temp file in the same directory is
// synced, chmodded to 0600 and renamed over the target.
func (s *FileStore) Save(ctx context.Context, p Preferences) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("preferences: create dir: %w", err)
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("preferences: marshal: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".vetchart-preferences-*.tmp")
	if err != nil {
		return fmt.Errorf("preferences: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("preferences: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("preferences: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("preferences: close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("preferences: chmod: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("preferences: rename: %w", err)
	}
	return nil
}

const redisKeyPrefix = "vetchart:preferences:"

// RedisStore keeps preferences as a JSON document in Redis, one key per clinic.
type RedisStore struct {
	client   *redis.Client
	clinicID string
}

func NewRedisStore(client *redis.Client, clinicID string) *RedisStore {
	if strings.TrimSpace(clinicID) == "" {
		clinicID = "default"
	}
	return &RedisStore{client: client, clinicID: clinicID}
}

func (s *RedisStore) key() string {
	return redisKeyPrefix + s.clinicID
}

func (s *RedisStore) Load(ctx context.Context) (Preferences, error) {
	data, err := s.client.Get(ctx, s.key()).Bytes()
	if err == redis.Nil {
		return Preferences{}, nil
	}
	if err != nil {
		return Preferences{}, fmt.Errorf("preferences: redis get: %w", err)
	}
	var p Preferences
	if err := json.Unmarshal(data, &p); err != nil {
		return Preferences{}, fmt.Errorf("preferences: unmarshal: %w", err)
	}
	p.Normalize()
	return p, nil
}

func (s *RedisStore) Save(ctx context.Context, p Preferences) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("preferences: marshal: %w", err)
	}
	if err := s.client.Set(ctx, s.key(), data, 0).Err(); err != nil {
		return fmt.Errorf("preferences: redis set: %w", err)
	}
	return nil
}
