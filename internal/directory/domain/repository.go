package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	ListActive(ctx context.Context, db *gorm.DB) ([]Company, error)
	Search(ctx context.Context, db *gorm.DB, pattern string) ([]Company, error)
	ListByServiceCategory(ctx context.Context, db *gorm.DB, category string) ([]Company, error)
	FindCompany(ctx context.Context, db *gorm.DB, id string) (*Company, error)
	FindPrimaryLogo(ctx context.Context, db *gorm.DB, companyID string) (*Media, error)

	ListServices(ctx context.Context, db *gorm.DB, companyID string) ([]ServiceOffering, error)
	FindClientProfile(ctx context.Context, db *gorm.DB, companyID string) (*ClientProfile, error)
	FindOperations(ctx context.Context, db *gorm.DB, companyID string) (*Operations, error)
	ListLocations(ctx context.Context, db *gorm.DB, companyID string) ([]Location, error)
	ListCertifications(ctx context.Context, db *gorm.DB, companyID string) ([]Certification, error)
	ListPersonnel(ctx context.Context, db *gorm.DB, companyID string) ([]Personnel, error)
	ListMedia(ctx context.Context, db *gorm.DB, companyID string) ([]Media, error)
	FindFinancial(ctx context.Context, db *gorm.DB, companyID string) (*Financial, error)
	ListTechnology(ctx context.Context, db *gorm.DB, companyID string) ([]Technology, error)

	DemotePrimaryLogos(ctx context.Context, db *gorm.DB, companyID string) error
	UpsertLogo(ctx context.Context, db *gorm.DB, media *Media) error
}
