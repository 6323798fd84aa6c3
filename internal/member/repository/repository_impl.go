package repository

import (
	"context"

	"github.com/himap/directory/internal/member/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByUserID(ctx context.Context, db *gorm.DB, userID string) (*domain.UserProfile, error) {
	var rows []domain.UserProfile
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, profile *domain.UserProfile) error {
	return db.WithContext(ctx).Create(profile).Error
}

func (r *repo) ListByCompany(ctx context.Context, db *gorm.DB, bpoID string) ([]domain.UserProfile, error) {
	rows := []domain.UserProfile{}
	err := db.WithContext(ctx).
		Where("bpo_id = ?", bpoID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
