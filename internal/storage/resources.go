package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jwebster45206/dialogue-engine/pkg/character"
	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
)

// Dialogue script operations (filesystem-backed)

func (r *RedisStorage) ListScripts(ctx context.Context) (map[string]string, error) {
	scriptsDir := filepath.Join(r.dataDir, "scripts")
	scripts := make(map[string]string)

	err := filepath.WalkDir(scriptsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		file, err := os.ReadFile(path)
		if err != nil {
			r.logger.Warn("Failed to read script file", "path", path, "error", err)
			return nil
		}

		var s dialogue.Script
		if err := json.Unmarshal(file, &s); err != nil {
			r.logger.Warn("Failed to unmarshal script file", "path", path, "error", err)
			return nil
		}

		scripts[s.Title] = filepath.Base(path)
		return nil
	})

	if err != nil {
		r.logger.Error("Failed to walk scripts directory", "error", err)
		return nil, fmt.Errorf("failed to list scripts: %w", err)
	}

	return scripts, nil
}

func (r *RedisStorage) GetScript(ctx context.Context, filename string) (*dialogue.Script, error) {
	path := filepath.Join(r.dataDir, "scripts", filename)

	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("script not found: %s", filename)
		}
		return nil, fmt.Errorf("failed to read script file: %w", err)
	}

	var s dialogue.Script
	if err := json.Unmarshal(file, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal script: %w", err)
	}

	return &s, nil
}

// Character profile operations (filesystem-backed)

func (r *RedisStorage) ListCharacters(ctx context.Context) ([]character.Profile, error) {
	path := filepath.Join(r.dataDir, "characters.json")

	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// A data dir without a character pack is fine; the
			// protagonist placeholder is always registered.
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read characters file: %w", err)
	}

	var profiles []character.Profile
	if err := json.Unmarshal(file, &profiles); err != nil {
		return nil, fmt.Errorf("failed to unmarshal characters: %w", err)
	}

	return profiles, nil
}
