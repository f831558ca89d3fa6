// Package preferences resolves a shopper's nutrient preferences.
package preferences

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"basket-optimizer/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

// Repository returns the stored preferences of a user.
type Repository interface {
	Get(ctx context.Context, userID string) (models.Preference, error)
}

// PostgresRepository reads users.nutrition, a JSON object whose values are
// -1/0/1 or "up"/"down"/"none".
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectNutrition = `SELECT nutrition FROM users WHERE id = $1`

func (r *PostgresRepository) Get(ctx context.Context, userID string) (models.Preference, error) {
	var raw sql.NullString
	err := r.db.QueryRowContext(ctx, selectNutrition, userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("query nutrition for %s: %w", userID, err)
	}

	prefs := models.Preference{}
	if !raw.Valid || raw.String == "" {
		return prefs, nil
	}
	if err := prefs.UnmarshalJSON([]byte(raw.String)); err != nil {
		return nil, fmt.Errorf("decode nutrition for %s: %w", userID, err)
	}
	return prefs, nil
}
