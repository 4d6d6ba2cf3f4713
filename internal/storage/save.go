package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/dialogue-engine/pkg/character"
	"github.com/jwebster45206/dialogue-engine/pkg/state"
)

// Save-state operations (Redis-backed). Each document lives under its
// own key so the runtime can persist the piece it mutated without
// rewriting the whole save.
const (
	keySession = "save:session"
	keyFlags   = "save:flags"
	keyStats   = "save:stats"
	keyWorld   = "save:world"
)

func snapshotKey(id uuid.UUID) string {
	return "snapshot:" + id.String()
}

func (r *RedisStorage) saveJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		r.logger.Error("Failed to marshal save document", "key", key, "error", err)
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, string(data), 0).Err(); err != nil {
		r.logger.Error("Failed to save document", "key", key, "error", err)
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// loadJSON reads key into v. A missing key is not an error; found
// reports whether anything was loaded.
func (r *RedisStorage) loadJSON(ctx context.Context, key string, v any) (bool, error) {
	data, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		r.logger.Error("Failed to load document", "key", key, "error", err)
		return false, fmt.Errorf("failed to load %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		r.logger.Error("Failed to unmarshal save document", "key", key, "error", err)
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (r *RedisStorage) LoadSession(ctx context.Context) (state.Session, error) {
	var s state.Session
	if _, err := r.loadJSON(ctx, keySession, &s); err != nil {
		return state.Session{}, err
	}
	return s, nil
}

func (r *RedisStorage) SaveSession(ctx context.Context, s state.Session) error {
	return r.saveJSON(ctx, keySession, s)
}

func (r *RedisStorage) LoadFlags(ctx context.Context) (state.FlagTable, error) {
	t := make(state.FlagTable)
	if _, err := r.loadJSON(ctx, keyFlags, &t); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *RedisStorage) SaveFlags(ctx context.Context, t state.FlagTable) error {
	return r.saveJSON(ctx, keyFlags, t)
}

func (r *RedisStorage) LoadStats(ctx context.Context) (map[string]character.Stats, error) {
	t := make(map[string]character.Stats)
	if _, err := r.loadJSON(ctx, keyStats, &t); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *RedisStorage) SaveStats(ctx context.Context, t map[string]character.Stats) error {
	return r.saveJSON(ctx, keyStats, t)
}

func (r *RedisStorage) LoadWorld(ctx context.Context) (state.World, error) {
	var w state.World
	if _, err := r.loadJSON(ctx, keyWorld, &w); err != nil {
		return state.World{}, err
	}
	return w, nil
}

func (r *RedisStorage) SaveWorld(ctx context.Context, w state.World) error {
	return r.saveJSON(ctx, keyWorld, w)
}

func (r *RedisStorage) SaveSnapshot(ctx context.Context, snap state.Snapshot) error {
	return r.saveJSON(ctx, snapshotKey(snap.ID), snap)
}

func (r *RedisStorage) LoadSnapshot(ctx context.Context, id uuid.UUID) (*state.Snapshot, error) {
	var snap state.Snapshot
	found, err := r.loadJSON(ctx, snapshotKey(id), &snap)
	if err != nil {
		return nil, err
	}
	if !found {
		r.logger.Warn("Snapshot not found", "id", id)
		return nil, nil
	}
	return &snap, nil
}
