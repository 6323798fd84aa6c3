package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/himap/directory/internal/directory/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB) ([]domain.Company, error) {
	var companies []domain.Company
	err := db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("company_name ASC").
		Find(&companies).Error
	if err != nil {
		return nil, err
	}
	return companies, nil
}

func (r *repo) Search(ctx context.Context, db *gorm.DB, query string) ([]domain.Company, error) {
	pattern := "%" + EscapeLike(strings.ToLower(query)) + "%"

	var companies []domain.Company
	err := db.WithContext(ctx).
		Where("is_active = ?", true).
		Where(`(LOWER(company_name) LIKE ? ESCAPE '!' OR LOWER(trade_name) LIKE ? ESCAPE '!' OR LOWER(city) LIKE ? ESCAPE '!')`,
			pattern, pattern, pattern).
		Order("company_name ASC").
		Find(&companies).Error
	if err != nil {
		return nil, err
	}
	return companies, nil
}

func (r *repo) ListByServiceCategory(ctx context.Context, db *gorm.DB, category string) ([]domain.Company, error) {
	var companies []domain.Company
	err := db.WithContext(ctx).Raw(
		`SELECT b.* FROM bpos b
		 WHERE EXISTS (
			SELECT 1 FROM bpo_services s
			WHERE s.bpo_id = b.id AND s.service_category = ?
		 )
		 ORDER BY b.company_name ASC`,
		category,
	).Scan(&companies).Error
	if err != nil {
		return nil, err
	}
	return companies, nil
}

func (r *repo) FindCompany(ctx context.Context, db *gorm.DB, id string) (*domain.Company, error) {
	return findOne[domain.Company](ctx, db, "id = ?", id)
}

// FindPrimaryLogo returns nil when the company has no primary logo. If the
// unique index is missing and several rows qualify, the lowest display order
// wins, then the oldest row.
func (r *repo) FindPrimaryLogo(ctx context.Context, db *gorm.DB, companyID string) (*domain.Media, error) {
	var rows []domain.Media
	err := db.WithContext(ctx).
		Where("bpo_id = ? AND media_type = ? AND is_primary = ?", companyID, domain.MediaTypeLogo, true).
		Order("display_order ASC, created_at ASC").
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

func (r *repo) ListServices(ctx context.Context, db *gorm.DB, companyID string) ([]domain.ServiceOffering, error) {
	return listByCompany[domain.ServiceOffering](ctx, db, companyID, "is_primary_service DESC, service_name ASC")
}

func (r *repo) FindClientProfile(ctx context.Context, db *gorm.DB, companyID string) (*domain.ClientProfile, error) {
	return findOne[domain.ClientProfile](ctx, db, "bpo_id = ?", companyID)
}

func (r *repo) FindOperations(ctx context.Context, db *gorm.DB, companyID string) (*domain.Operations, error) {
	return findOne[domain.Operations](ctx, db, "bpo_id = ?", companyID)
}

func (r *repo) ListLocations(ctx context.Context, db *gorm.DB, companyID string) ([]domain.Location, error) {
	return listByCompany[domain.Location](ctx, db, companyID, "is_headquarters DESC, id ASC")
}

func (r *repo) ListCertifications(ctx context.Context, db *gorm.DB, companyID string) ([]domain.Certification, error) {
	return listByCompany[domain.Certification](ctx, db, companyID, "certification_name ASC")
}

func (r *repo) ListPersonnel(ctx context.Context, db *gorm.DB, companyID string) ([]domain.Personnel, error) {
	return listByCompany[domain.Personnel](ctx, db, companyID, "is_primary_contact DESC, full_name ASC")
}

func (r *repo) ListMedia(ctx context.Context, db *gorm.DB, companyID string) ([]domain.Media, error) {
	return listByCompany[domain.Media](ctx, db, companyID, "display_order ASC, created_at ASC")
}

func (r *repo) FindFinancial(ctx context.Context, db *gorm.DB, companyID string) (*domain.Financial, error) {
	return findOne[domain.Financial](ctx, db, "bpo_id = ?", companyID)
}

func (r *repo) ListTechnology(ctx context.Context, db *gorm.DB, companyID string) ([]domain.Technology, error) {
	return listByCompany[domain.Technology](ctx, db, companyID, "technology_name ASC")
}

func (r *repo) DemotePrimaryLogos(ctx context.Context, db *gorm.DB, companyID string) error {
	return db.WithContext(ctx).
		Model(&domain.Media{}).
		Where("bpo_id = ? AND media_type = ? AND is_primary = ?", companyID, domain.MediaTypeLogo, true).
		Updates(map[string]any{"is_primary": false, "updated_at": time.Now().UTC()}).Error
}

// UpsertLogo promotes an existing logo row with the same URL, or inserts a
// new one. Callers demote the previous primary logo first.
func (r *repo) UpsertLogo(ctx context.Context, db *gorm.DB, media *domain.Media) error {
	var existing []domain.Media
	err := db.WithContext(ctx).
		Where("bpo_id = ? AND media_type = ? AND file_url = ?", media.BpoID, domain.MediaTypeLogo, media.FileURL).
		Limit(1).
		Find(&existing).Error
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if len(existing) > 0 {
		row := existing[0]
		row.IsPrimary = true
		row.UpdatedAt = now
		if media.FileName != nil {
			row.FileName = media.FileName
		}
		err := db.WithContext(ctx).
			Model(&domain.Media{}).
			Where("id = ?", row.ID).
			Updates(map[string]any{
				"is_primary": true,
				"file_name":  row.FileName,
				"updated_at": now,
			}).Error
		if err != nil {
			return err
		}
		*media = row
		return nil
	}

	if media.ID == "" {
		media.ID = uuid.NewString()
	}
	media.MediaType = domain.MediaTypeLogo
	media.IsPrimary = true
	media.CreatedAt = now
	media.UpdatedAt = now
	return db.WithContext(ctx).Create(media).Error
}

func findOne[T any](ctx context.Context, db *gorm.DB, where string, args ...any) (*T, error) {
	var rows []T
	if err := db.WithContext(ctx).Where(where, args...).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func listByCompany[T any](ctx context.Context, db *gorm.DB, companyID, order string) ([]T, error) {
	rows := []T{}
	err := db.WithContext(ctx).
		Where("bpo_id = ?", companyID).
		Order(order).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// '!' is the escape character. A backslash is a string escape on MySQL, so it
// cannot appear in the ESCAPE clause portably.
var likeEscaper = strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`)

// EscapeLike makes user input match literally inside a LIKE pattern.
func EscapeLike(value string) string {
	return likeEscaper.Replace(value)
}
