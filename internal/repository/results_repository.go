package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/results-app/internal/models"
)

// ResultsRepository stores the crawled results document of each user.
type ResultsRepository struct {
	db *sqlx.DB
}

// NewResultsRepository creates a new instance of ResultsRepository.
func NewResultsRepository(db *sqlx.DB) *ResultsRepository {
	return &ResultsRepository{db: db}
}

// Get returns the results document of a user.
func (r *ResultsRepository) Get(ctx context.Context, userID string) (*models.StoredResults, error) {
	const query = `SELECT user_id, last_update, classes FROM results WHERE user_id = $1`
	var stored models.StoredResults
	if err := r.db.GetContext(ctx, &stored, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get results: %w", err)
	}
	stored.Classes = []models.ClassResult{}
	if len(stored.RawClasses) > 0 {
		if err := json.Unmarshal(stored.RawClasses, &stored.Classes); err != nil {
			return nil, fmt.Errorf("decode results classes: %w", err)
		}
	}
	return &stored, nil
}

// Save inserts or replaces the results document of a user.
func (r *ResultsRepository) Save(ctx context.Context, stored *models.StoredResults) error {
	classes := stored.Classes
	if classes == nil {
		classes = []models.ClassResult{}
	}
	raw, err := json.Marshal(classes)
	if err != nil {
		return fmt.Errorf("encode results classes: %w", err)
	}
	stored.RawClasses = raw

	const query = `INSERT INTO results (user_id, last_update, classes) VALUES (:user_id, :last_update, :classes)
ON CONFLICT (user_id) DO UPDATE SET last_update = EXCLUDED.last_update, classes = EXCLUDED.classes`
	if _, err := r.db.NamedExecContext(ctx, query, stored); err != nil {
		return fmt.Errorf("save results: %w", err)
	}
	return nil
}
