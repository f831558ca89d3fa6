// Package history persists computed baskets so later requests can ask for
// novelty against them.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"basket-optimizer/internal/models"

	"github.com/google/uuid"
)

var ErrNoHistory = errors.New("no basket history")

type Repository struct {
	db  *sql.DB
	now func() time.Time
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

const insertBasket = `INSERT INTO basket_history
	(id, user_id, mode, budget, aggregate_spend, aggregate_health, item_ids, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

const selectLatest = `SELECT id, user_id, mode, budget, aggregate_spend, aggregate_health, item_ids, created_at
	FROM basket_history WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`

// Insert stores rec under a fresh id and returns the stored record.
func (r *Repository) Insert(ctx context.Context, rec models.BasketRecord) (models.BasketRecord, error) {
	rec.ID = uuid.NewString()
	rec.CreatedAt = r.now().UTC()
	if rec.ItemIDs == nil {
		rec.ItemIDs = []string{}
	}

	itemIDs, err := json.Marshal(rec.ItemIDs)
	if err != nil {
		return models.BasketRecord{}, fmt.Errorf("encode item ids: %w", err)
	}

	var health sql.NullFloat64
	if rec.AggregateHealth != nil {
		health = sql.NullFloat64{Float64: *rec.AggregateHealth, Valid: true}
	}

	_, err = r.db.ExecContext(ctx, insertBasket,
		rec.ID, rec.UserID, string(rec.Mode), rec.Budget, rec.AggregateSpend, health, string(itemIDs), rec.CreatedAt)
	if err != nil {
		return models.BasketRecord{}, fmt.Errorf("insert basket: %w", err)
	}
	return rec, nil
}

// Latest returns the most recent basket of userID or ErrNoHistory.
func (r *Repository) Latest(ctx context.Context, userID string) (*models.BasketRecord, error) {
	var (
		rec     models.BasketRecord
		mode    string
		health  sql.NullFloat64
		itemIDs []byte
	)
	err := r.db.QueryRowContext(ctx, selectLatest, userID).Scan(
		&rec.ID, &rec.UserID, &mode, &rec.Budget, &rec.AggregateSpend, &health, &itemIDs, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoHistory
	}
	if err != nil {
		return nil, fmt.Errorf("query latest basket: %w", err)
	}

	rec.Mode = models.BasketMode(mode)
	if health.Valid {
		h := health.Float64
		rec.AggregateHealth = &h
	}
	if err := json.Unmarshal(itemIDs, &rec.ItemIDs); err != nil {
		return nil, fmt.Errorf("decode item ids: %w", err)
	}
	return &rec, nil
}
