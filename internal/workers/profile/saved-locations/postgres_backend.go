// internal/workers/profile/saved-locations/postgres_backend.go
package savedlocations

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"rouvia/internal/common/database"
	"rouvia/internal/models"
)

const (
	createTableSQL = `
		CREATE TABLE IF NOT EXISTS user_profiles (
			user_id    TEXT PRIMARY KEY,
			profile    JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`

	insertProfileSQL = `INSERT INTO user_profiles (user_id, profile) VALUES ($1, $2) ON CONFLICT (user_id) DO NOTHING`
	selectProfileSQL = `SELECT profile FROM user_profiles WHERE user_id = $1`
	lockProfileSQL   = `SELECT profile FROM user_profiles WHERE user_id = $1 FOR UPDATE`
	updateProfileSQL = `UPDATE user_profiles SET profile = $2, updated_at = NOW() WHERE user_id = $1`
)

// PostgresBackend stores profiles as JSONB rows in user_profiles.
type PostgresBackend struct {
	client *database.PostgresClient
}

func NewPostgresBackend(client *database.PostgresClient) *PostgresBackend {
	return &PostgresBackend{client: client}
}

func (b *PostgresBackend) Name() string { return "postgres" }

// EnsureSchema creates the profile table if it does not exist.
func (b *PostgresBackend) EnsureSchema(ctx context.Context) error {
	if _, err := b.client.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create user_profiles: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Load(ctx context.Context, userID string, seed *models.UserProfile) (*models.UserProfile, error) {
	data, err := json.Marshal(seed)
	if err != nil {
		return nil, fmt.Errorf("encode seed profile: %w", err)
	}
	if _, err := b.client.Exec(ctx, insertProfileSQL, userID, data); err != nil {
		return nil, fmt.Errorf("insert profile %s: %w", userID, err)
	}

	var raw []byte
	if err := b.client.QueryRow(ctx, selectProfileSQL, userID).Scan(&raw); err != nil {
		return nil, fmt.Errorf("select profile %s: %w", userID, err)
	}
	return decodeProfile(raw)
}

func (b *PostgresBackend) Update(ctx context.Context, userID string, seed *models.UserProfile, fn func(*models.UserProfile) bool) (bool, error) {
	seedData, err := json.Marshal(seed)
	if err != nil {
		return false, fmt.Errorf("encode seed profile: %w", err)
	}

	changed := false
	err = b.client.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, insertProfileSQL, userID, seedData); err != nil {
			return fmt.Errorf("insert profile %s: %w", userID, err)
		}

		var raw []byte
		if err := tx.QueryRowContext(ctx, lockProfileSQL, userID).Scan(&raw); err != nil {
			return fmt.Errorf("lock profile %s: %w", userID, err)
		}
		profile, err := decodeProfile(raw)
		if err != nil {
			return err
		}

		if !fn(profile) {
			return nil
		}
		data, err := json.Marshal(profile)
		if err != nil {
			return fmt.Errorf("encode profile: %w", err)
		}
		if _, err := tx.ExecContext(ctx, updateProfileSQL, userID, data); err != nil {
			return fmt.Errorf("update profile %s: %w", userID, err)
		}
		changed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return changed, nil
}
