package models

import "time"

// User describes the authenticated user in API responses.
type User struct {
	Email     string `json:"email" yaml:"email"`
	FirstName string `json:"firstName" yaml:"firstName"`
	LastName  string `json:"lastName" yaml:"lastName"`
}

// Account is a user stored by the development server.
type Account struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FirstName    string    `db:"first_name" json:"firstName"`
	LastName     string    `db:"last_name" json:"lastName"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// Public strips server-only fields.
func (a *Account) Public() *User {
	if a == nil {
		return nil
	}
	return &User{Email: a.Email, FirstName: a.FirstName, LastName: a.LastName}
}
