package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	auditdomain "github.com/himap/directory/internal/audit/domain"
	"github.com/himap/directory/internal/config"
	"github.com/himap/directory/internal/directory/domain"
	obsmetrics "github.com/himap/directory/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Repo    domain.Repository
	Config  *config.DirectoryConfigHolder
	Metrics *obsmetrics.Metrics `optional:"true"`
	Audit   auditdomain.Service `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	repo    domain.Repository
	cfg     *config.DirectoryConfigHolder
	metrics *obsmetrics.Metrics
	audit   auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("directory.service"),
		repo:    p.Repo,
		cfg:     p.Config,
		metrics: p.Metrics,
		audit:   p.Audit,
	}
}

func (s *Service) ListActive(ctx context.Context) ([]domain.CompanySummary, error) {
	companies, err := s.repo.ListActive(ctx, s.db)
	if err != nil {
		return nil, s.queryFailed(ctx, "companies", err)
	}

	summaries := make([]domain.CompanySummary, len(companies))
	for i := range companies {
		summaries[i] = summarize(companies[i])
	}

	limit := s.cfg.Get().LogoConcurrency
	if limit <= 0 {
		limit = -1
	}
	var g errgroup.Group
	g.SetLimit(limit)
	for i := range summaries {
		g.Go(func() error {
			logo, err := s.repo.FindPrimaryLogo(ctx, s.db, summaries[i].ID)
			if err != nil {
				s.log.Warn("primary logo lookup failed",
					zap.String("company_id", summaries[i].ID),
					zap.Error(err),
				)
				s.metrics.RecordDirectoryQueryFailure(ctx, "logo")
				return nil
			}
			if logo != nil {
				fileURL := logo.FileURL
				summaries[i].LogoURL = &fileURL
			}
			return nil
		})
	}
	_ = g.Wait()

	return summaries, nil
}

// GetDetail loads the company first, then its nine dependent slices
// concurrently. A failed slice falls back to its empty value and is named in
// Degraded; only a failed company fetch fails the whole call.
func (s *Service) GetDetail(ctx context.Context, id string) (*domain.CompanyDetail, error) {
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}

	company, err := s.repo.FindCompany(ctx, s.db, id)
	if err != nil {
		return nil, s.queryFailed(ctx, "company", err)
	}
	if company == nil {
		return nil, domain.ErrNotFound
	}

	detail := &domain.CompanyDetail{Company: *company}

	var (
		mu       sync.Mutex
		degraded []string
	)
	fetch := func(g *errgroup.Group, slice string, load func() error) {
		g.Go(func() error {
			if err := load(); err != nil {
				s.log.Warn("company detail slice degraded",
					zap.String("company_id", id),
					zap.String("slice", slice),
					zap.Error(err),
				)
				s.metrics.RecordDirectoryQueryFailure(ctx, slice)
				mu.Lock()
				degraded = append(degraded, slice)
				mu.Unlock()
			}
			return nil
		})
	}

	var g errgroup.Group
	fetch(&g, domain.SliceServices, func() (err error) {
		detail.Services, err = s.repo.ListServices(ctx, s.db, id)
		return err
	})
	fetch(&g, domain.SliceClientProfile, func() (err error) {
		detail.ClientProfile, err = s.repo.FindClientProfile(ctx, s.db, id)
		return err
	})
	fetch(&g, domain.SliceOperations, func() (err error) {
		detail.Operations, err = s.repo.FindOperations(ctx, s.db, id)
		return err
	})
	fetch(&g, domain.SliceLocations, func() (err error) {
		detail.Locations, err = s.repo.ListLocations(ctx, s.db, id)
		return err
	})
	fetch(&g, domain.SliceCertifications, func() (err error) {
		detail.Certifications, err = s.repo.ListCertifications(ctx, s.db, id)
		return err
	})
	fetch(&g, domain.SlicePersonnel, func() (err error) {
		detail.Personnel, err = s.repo.ListPersonnel(ctx, s.db, id)
		return err
	})
	fetch(&g, domain.SliceMedia, func() (err error) {
		detail.Media, err = s.repo.ListMedia(ctx, s.db, id)
		return err
	})
	fetch(&g, domain.SliceFinancial, func() (err error) {
		detail.Financial, err = s.repo.FindFinancial(ctx, s.db, id)
		return err
	})
	fetch(&g, domain.SliceTechnology, func() (err error) {
		detail.Technology, err = s.repo.ListTechnology(ctx, s.db, id)
		return err
	})
	_ = g.Wait()

	if len(degraded) > 0 {
		sort.Strings(degraded)
		detail.Degraded = degraded
	}
	return detail, nil
}

func (s *Service) Search(ctx context.Context, query string) ([]domain.CompanySummary, error) {
	query = strings.TrimSpace(query)

	var (
		companies []domain.Company
		err       error
	)
	if query == "" {
		companies, err = s.repo.ListActive(ctx, s.db)
	} else {
		companies, err = s.repo.Search(ctx, s.db, query)
	}
	if err != nil {
		return nil, s.queryFailed(ctx, "search", err)
	}
	return summarizeAll(companies), nil
}

func (s *Service) FilterByService(ctx context.Context, category string) ([]domain.CompanySummary, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return []domain.CompanySummary{}, nil
	}

	companies, err := s.repo.ListByServiceCategory(ctx, s.db, category)
	if err != nil {
		return nil, s.queryFailed(ctx, "services", err)
	}
	return summarizeAll(companies), nil
}

func (s *Service) SetPrimaryLogo(ctx context.Context, companyID string, req domain.SetLogoRequest) (*domain.Media, error) {
	companyID = strings.TrimSpace(companyID)
	if _, err := uuid.Parse(companyID); err != nil {
		return nil, domain.ErrInvalidID
	}
	fileURL := strings.TrimSpace(req.FileURL)
	if !validFileURL(fileURL) {
		return nil, domain.ErrInvalidFileURL
	}

	media := &domain.Media{BpoID: companyID, FileURL: fileURL}
	if name := strings.TrimSpace(req.FileName); name != "" {
		media.FileName = &name
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		company, err := s.repo.FindCompany(ctx, tx, companyID)
		if err != nil {
			return err
		}
		if company == nil {
			return domain.ErrNotFound
		}
		if err := s.repo.DemotePrimaryLogos(ctx, tx, companyID); err != nil {
			return err
		}
		return s.repo.UpsertLogo(ctx, tx, media)
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, s.queryFailed(ctx, "logo", err)
	}

	if s.audit != nil {
		targetID := companyID
		_ = s.audit.AuditLog(ctx, "", nil, auditdomain.ActionMediaSetPrimaryLogo, "company", &targetID, map[string]any{
			"media_id": media.ID,
			"file_url": media.FileURL,
		})
	}
	return media, nil
}

func (s *Service) Categories(_ context.Context) []string {
	categories := s.cfg.Get().ServiceCategories
	out := make([]string, len(categories))
	copy(out, categories)
	return out
}

func (s *Service) queryFailed(ctx context.Context, source string, err error) error {
	s.log.Error("directory query failed", zap.String("source", source), zap.Error(err))
	s.metrics.RecordDirectoryQueryFailure(ctx, source)
	return fmt.Errorf("%w: %s: %w", domain.ErrQueryFailed, source, err)
}

func summarize(c domain.Company) domain.CompanySummary {
	return domain.CompanySummary{
		ID:                 c.ID,
		CompanyName:        c.CompanyName,
		TradeName:          c.TradeName,
		City:               c.City,
		Province:           c.Province,
		TotalEmployees:     c.TotalEmployees,
		HealthcareFTECount: c.HealthcareFTECount,
		CompanyDescription: c.CompanyDescription,
		WebsiteURL:         c.WebsiteURL,
		Slug:               slug.Make(c.CompanyName),
	}
}

func summarizeAll(companies []domain.Company) []domain.CompanySummary {
	out := make([]domain.CompanySummary, 0, len(companies))
	for _, c := range companies {
		out = append(out, summarize(c))
	}
	return out
}

func validFileURL(raw string) bool {
	if raw == "" {
		return false
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "https" || parsed.Scheme == "http") && parsed.Host != ""
}
