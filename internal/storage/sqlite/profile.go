package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sandevgo/screenmate/internal/core"
)

// ProfileRepo persists the singleton user profile row (id = 1). Every save
// is a full overwrite; there is no merge with prior state.
type ProfileRepo struct {
	db *sql.DB
}

func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

func (r *ProfileRepo) Get(ctx context.Context) (*core.UserProfile, error) {
	var interests, commonTasks, frequentApps sql.NullString
	var lastUpdated sql.NullFloat64

	err := r.db.QueryRowContext(ctx,
		`SELECT interests, common_tasks, frequent_apps, last_updated FROM user_profile WHERE id = 1`).
		Scan(&interests, &commonTasks, &frequentApps, &lastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	return &core.UserProfile{
		Interests:    decodeStrings(interests),
		CommonTasks:  decodeStrings(commonTasks),
		FrequentApps: decodeStrings(frequentApps),
		LastUpdated:  lastUpdated.Float64,
	}, nil
}

func (r *ProfileRepo) Save(ctx context.Context, profile core.UserProfile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_profile (id, interests, common_tasks, frequent_apps, last_updated)
		 VALUES (1, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			interests = excluded.interests,
			common_tasks = excluded.common_tasks,
			frequent_apps = excluded.frequent_apps,
			last_updated = excluded.last_updated`,
		encodeStrings(profile.Interests),
		encodeStrings(profile.CommonTasks),
		encodeStrings(profile.FrequentApps),
		profile.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}
