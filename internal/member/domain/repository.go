package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	FindByUserID(ctx context.Context, db *gorm.DB, userID string) (*UserProfile, error)
	Insert(ctx context.Context, db *gorm.DB, profile *UserProfile) error
	ListByCompany(ctx context.Context, db *gorm.DB, bpoID string) ([]UserProfile, error)
}
