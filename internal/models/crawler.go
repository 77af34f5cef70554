package models

import "time"

// CrawlerConfig controls the server-side crawler for a user.
type CrawlerConfig struct {
	Status            bool   `json:"status" db:"status"`
	Code              string `json:"code" db:"code"`
	Nip               string `json:"nip" db:"nip"`
	NotificationEmail string `json:"notificationEmail" db:"notification_email" validate:"omitempty,email"`
}

// CrawlerClass is a class tracked by the crawler.
type CrawlerClass struct {
	ID    string `json:"id" db:"id"`
	Name  string `json:"name" db:"name" validate:"required"`
	Group string `json:"group" db:"group_name" validate:"required"`
	Year  string `json:"year" db:"year" validate:"required,len=5"`
}

// StoredCrawlerConfig is the persisted crawler configuration of a user.
type StoredCrawlerConfig struct {
	UserID string `db:"user_id"`
	CrawlerConfig
	UpdatedAt time.Time `db:"updated_at"`
}

// StoredCrawlerClass is a tracked class owned by a user.
type StoredCrawlerClass struct {
	UserID string `db:"user_id"`
	CrawlerClass
	CreatedAt time.Time `db:"created_at"`
}
