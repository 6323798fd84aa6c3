package local

import "time"

// User is a locally managed identity (table auth_users).
type User struct {
	ID               string     `gorm:"type:uuid;primaryKey"`
	Email            string     `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash     string     `gorm:"type:text;not null"`
	EmailConfirmedAt *time.Time `gorm:"column:email_confirmed_at"`
	CreatedAt        time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (User) TableName() string { return "auth_users" }

// Token mirrors the GoTrue password grant response so browser code can use
// either backend.
type Token struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	ExpiresIn   int      `json:"expires_in"`
	ExpiresAt   int64    `json:"expires_at"`
	User        UserView `json:"user"`
}

type UserView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
