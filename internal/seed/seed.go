package seed

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/himap/directory/internal/directory/domain"
	"gorm.io/gorm"
)

var deliveryModels = []string{"Onsite", "Offshore", "Hybrid"}

// EnsureSampleDirectory inserts the HIMAP member list with generated
// services, client profile and operations. Companies already present by
// name are left alone, so it is safe to run on every start. Generated
// values are derived from the company name and stay stable across runs.
func EnsureSampleDirectory(ctx context.Context, db *gorm.DB, categories []string) (int, error) {
	if db == nil {
		return 0, errors.New("seed database handle is required")
	}
	if len(categories) == 0 {
		return 0, errors.New("seed requires at least one service category")
	}

	inserted := 0
	for _, company := range sampleCompanies {
		created, err := ensureCompany(ctx, db, company, categories)
		if err != nil {
			return inserted, fmt.Errorf("seed %s: %w", company.Name, err)
		}
		if created {
			inserted++
		}
	}
	return inserted, nil
}

func ensureCompany(ctx context.Context, db *gorm.DB, company sampleCompany, categories []string) (bool, error) {
	created := false
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Company{}).Where("company_name = ?", company.Name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		rng := rngFor(company.Name)
		now := time.Now().UTC()
		primary := pick(rng, categories)

		row := domain.Company{
			ID:                 uuid.NewString(),
			CompanyName:        company.Name,
			TradeName:          ptr(tradeName(company.Name)),
			City:               ptr(pick(rng, sampleCities)),
			Province:           ptr(province(rng)),
			Country:            ptr("Philippines"),
			WebsiteURL:         ptr(company.Website),
			Email:              ptr("info@" + domainOf(company.Website)),
			CompanyDescription: ptr(fmt.Sprintf("Leading healthcare BPO provider specializing in %s and related services.", strings.ToLower(primary))),
			TotalEmployees:     ptr(between(rng, 100, 5000)),
			HealthcareFTECount: ptr(between(rng, 50, 3000)),
			IsActive:           true,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}

		services := sampleServices(rng, row.ID, categories, now)
		if err := tx.Create(&services).Error; err != nil {
			return err
		}

		profile := domain.ClientProfile{
			ID:                     uuid.NewString(),
			BpoID:                  row.ID,
			TargetMarket:           ptr("United States, Canada"),
			ClientTypes:            ptr("Hospitals, Physician Practices, Insurance Payers"),
			NoOfActiveClients:      ptr(between(rng, 5, 50)),
			YearsServingHealthcare: ptr(between(rng, 3, 20)),
		}
		if err := tx.Create(&profile).Error; err != nil {
			return err
		}

		ops := domain.Operations{
			ID:                   uuid.NewString(),
			BpoID:                row.ID,
			DeliveryModel:        ptr(pick(rng, deliveryModels)),
			WorkShifts:           ptr("24/7 Operations"),
			ComplianceFrameworks: ptr("HIPAA, SOC 2, ISO 27001"),
			EHRSystemsSupported:  ptr("Epic, Cerner, Meditech, Athenahealth"),
		}
		if err := tx.Create(&ops).Error; err != nil {
			return err
		}

		created = true
		return nil
	})
	return created, err
}

// sampleServices picks two to four distinct categories. The first one is
// the primary service.
func sampleServices(rng *rand.Rand, bpoID string, categories []string, now time.Time) []domain.ServiceOffering {
	n := between(rng, 2, 4)
	if n > len(categories) {
		n = len(categories)
	}
	order := rng.Perm(len(categories))[:n]

	services := make([]domain.ServiceOffering, 0, n)
	for i, idx := range order {
		category := categories[idx]
		services = append(services, domain.ServiceOffering{
			ID:               uuid.NewString(),
			BpoID:            bpoID,
			ServiceCategory:  category,
			ServiceName:      category,
			Description:      ptr(fmt.Sprintf("Professional %s services for healthcare providers", strings.ToLower(category))),
			IsPrimaryService: i == 0,
			CreatedAt:        now,
		})
	}
	return services
}

func rngFor(name string) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	seed := h.Sum64()
	return rand.New(rand.NewPCG(seed, seed>>1))
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.IntN(len(values))]
}

// between returns a value in [lo, hi].
func between(rng *rand.Rand, lo, hi int) int {
	return lo + rng.IntN(hi-lo+1)
}

func province(rng *rand.Rand) string {
	if rng.Float64() > 0.3 {
		return "Metro Manila"
	}
	return "Cebu"
}

func tradeName(name string) string {
	name = strings.ReplaceAll(name, " Philippines", "")
	return strings.ReplaceAll(name, " Inc.", "")
}

func domainOf(website string) string {
	parsed, err := url.Parse(website)
	if err != nil || parsed.Host == "" {
		return website
	}
	return strings.TrimPrefix(parsed.Host, "www.")
}

func ptr[T any](v T) *T {
	return &v
}
