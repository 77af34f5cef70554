package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/results-app/internal/models"
)

// CrawlerRepository stores crawler settings and tracked classes.
type CrawlerRepository struct {
	db *sqlx.DB
}

// NewCrawlerRepository creates a new instance of CrawlerRepository.
func NewCrawlerRepository(db *sqlx.DB) *CrawlerRepository {
	return &CrawlerRepository{db: db}
}

// GetConfig returns the crawler config of a user.
func (r *CrawlerRepository) GetConfig(ctx context.Context, userID string) (*models.StoredCrawlerConfig, error) {
	const query = `SELECT user_id, status, code, nip, notification_email, updated_at FROM crawler_configs WHERE user_id = $1`
	var cfg models.StoredCrawlerConfig
	if err := r.db.GetContext(ctx, &cfg, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get crawler config: %w", err)
	}
	return &cfg, nil
}

// SaveConfig inserts or replaces the crawler config of a user.
func (r *CrawlerRepository) SaveConfig(ctx context.Context, cfg *models.StoredCrawlerConfig) error {
	const query = `INSERT INTO crawler_configs (user_id, status, code, nip, notification_email, updated_at)
VALUES (:user_id, :status, :code, :nip, :notification_email, :updated_at)
ON CONFLICT (user_id) DO UPDATE SET status = EXCLUDED.status, code = EXCLUDED.code, nip = EXCLUDED.nip,
notification_email = EXCLUDED.notification_email, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, cfg); err != nil {
		return fmt.Errorf("save crawler config: %w", err)
	}
	return nil
}

// ListClasses returns the tracked classes of a user, oldest first.
func (r *CrawlerRepository) ListClasses(ctx context.Context, userID string) ([]models.StoredCrawlerClass, error) {
	const query = `SELECT id, user_id, name, group_name, year, created_at FROM crawler_classes WHERE user_id = $1 ORDER BY created_at ASC, id ASC`
	classes := []models.StoredCrawlerClass{}
	if err := r.db.SelectContext(ctx, &classes, query, userID); err != nil {
		return nil, fmt.Errorf("list crawler classes: %w", err)
	}
	return classes, nil
}

// CreateClass inserts a tracked class.
func (r *CrawlerRepository) CreateClass(ctx context.Context, class *models.StoredCrawlerClass) error {
	const query = `INSERT INTO crawler_classes (id, user_id, name, group_name, year, created_at) VALUES (:id, :user_id, :name, :group_name, :year, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create crawler class: %w", err)
	}
	return nil
}

// UpdateClass replaces a tracked class owned by class.UserID. It returns
// sql.ErrNoRows when no such class exists.
func (r *CrawlerRepository) UpdateClass(ctx context.Context, class *models.StoredCrawlerClass) error {
	const query = `UPDATE crawler_classes SET name = :name, group_name = :group_name, year = :year WHERE id = :id AND user_id = :user_id`
	res, err := r.db.NamedExecContext(ctx, query, class)
	if err != nil {
		return fmt.Errorf("update crawler class: %w", err)
	}
	return expectAffected(res)
}

// DeleteClass removes a tracked class. It returns sql.ErrNoRows when no such
// class exists.
func (r *CrawlerRepository) DeleteClass(ctx context.Context, userID, id string) error {
	const query = `DELETE FROM crawler_classes WHERE id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete crawler class: %w", err)
	}
	return expectAffected(res)
}

func expectAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
