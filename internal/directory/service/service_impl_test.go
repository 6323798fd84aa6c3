package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/himap/directory/internal/config"
	"github.com/himap/directory/internal/directory/domain"
	"github.com/himap/directory/internal/directory/repository"
	"github.com/himap/directory/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

var errBackend = errors.New("connection reset by peer")

type failingRepo struct {
	domain.Repository
	listErr      error
	logoErr      error
	personnelErr error
}

func (r *failingRepo) ListActive(ctx context.Context, db *gorm.DB) ([]domain.Company, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.Repository.ListActive(ctx, db)
}

func (r *failingRepo) FindPrimaryLogo(ctx context.Context, db *gorm.DB, companyID string) (*domain.Media, error) {
	if r.logoErr != nil {
		return nil, r.logoErr
	}
	return r.Repository.FindPrimaryLogo(ctx, db, companyID)
}

func (r *failingRepo) ListPersonnel(ctx context.Context, db *gorm.DB, companyID string) ([]domain.Personnel, error) {
	if r.personnelErr != nil {
		return nil, r.personnelErr
	}
	return r.Repository.ListPersonnel(ctx, db, companyID)
}

type fixture struct {
	conn *gorm.DB
	svc  *Service
}

func newFixture(t *testing.T, repo domain.Repository) *fixture {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(domain.Models()...))

	if repo == nil {
		repo = repository.Provide()
	}
	svc := New(Params{
		DB:     conn,
		Log:    zaptest.NewLogger(t),
		Repo:   repo,
		Config: config.NewStaticDirectoryConfigHolder(config.DefaultDirectoryConfig()),
	}).(*Service)
	return &fixture{conn: conn, svc: svc}
}

func (f *fixture) company(t *testing.T, name string, city string, active bool) domain.Company {
	t.Helper()
	c := domain.Company{ID: uuid.NewString(), CompanyName: name, City: &city}
	require.NoError(t, f.conn.Create(&c).Error)
	if !active {
		// is_active has a database default, so false is written explicitly
		require.NoError(t, f.conn.Model(&domain.Company{}).Where("id = ?", c.ID).Update("is_active", false).Error)
		c.IsActive = false
	}
	return c
}

func (f *fixture) service(t *testing.T, companyID, category, name string) {
	t.Helper()
	require.NoError(t, f.conn.Create(&domain.ServiceOffering{
		ID:              uuid.NewString(),
		BpoID:           companyID,
		ServiceCategory: category,
		ServiceName:     name,
	}).Error)
}

func (f *fixture) media(t *testing.T, companyID, fileURL string, primary bool) {
	t.Helper()
	require.NoError(t, f.conn.Create(&domain.Media{
		ID:        uuid.NewString(),
		BpoID:     companyID,
		MediaType: domain.MediaTypeLogo,
		FileURL:   fileURL,
		IsPrimary: primary,
	}).Error)
}

func TestListActiveOrdersByNameAndAttachesLogos(t *testing.T) {
	f := newFixture(t, nil)
	alpha := f.company(t, "Alpha Health Partners", "Manila", true)
	f.company(t, "Zeta Claims", "Cebu", true)
	f.company(t, "Beta Retired", "Davao", false)
	f.media(t, alpha.ID, "https://cdn.example.com/alpha-old.png", false)
	f.media(t, alpha.ID, "https://cdn.example.com/alpha.png", true)

	got, err := f.svc.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Alpha Health Partners", got[0].CompanyName)
	assert.Equal(t, "alpha-health-partners", got[0].Slug)
	require.NotNil(t, got[0].LogoURL)
	assert.Equal(t, "https://cdn.example.com/alpha.png", *got[0].LogoURL)

	assert.Equal(t, "Zeta Claims", got[1].CompanyName)
	assert.Nil(t, got[1].LogoURL)

	raw, err := json.Marshal(got[1])
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"logo_url":null`)
}

func TestListActiveEmptyIsNotNil(t *testing.T) {
	f := newFixture(t, nil)

	got, err := f.svc.ListActive(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestListActiveLogoFailureDegradesToNull(t *testing.T) {
	repo := &failingRepo{Repository: repository.Provide(), logoErr: errBackend}
	f := newFixture(t, repo)
	c := f.company(t, "Alpha", "Manila", true)
	f.media(t, c.ID, "https://cdn.example.com/alpha.png", true)

	got, err := f.svc.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].LogoURL)
}

func TestListActiveReturnsQueryFailure(t *testing.T) {
	repo := &failingRepo{Repository: repository.Provide(), listErr: errBackend}
	f := newFixture(t, repo)

	_, err := f.svc.ListActive(context.Background())
	assert.ErrorIs(t, err, domain.ErrQueryFailed)
	assert.ErrorIs(t, err, errBackend)
}

func TestGetDetailFillsEmptyDefaults(t *testing.T) {
	f := newFixture(t, nil)
	c := f.company(t, "Alpha", "Manila", true)
	f.service(t, c.ID, "Medical Coding", "Inpatient coding")

	detail, err := f.svc.GetDetail(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, detail.Company.ID)
	require.Len(t, detail.Services, 1)
	assert.Empty(t, detail.Degraded)

	raw, err := json.Marshal(detail)
	require.NoError(t, err)
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.JSONEq(t, `{}`, string(body["clientProfile"]))
	assert.JSONEq(t, `{}`, string(body["operations"]))
	assert.JSONEq(t, `{}`, string(body["financial"]))
	for _, key := range []string{"locations", "certifications", "personnel", "media", "technology"} {
		assert.JSONEq(t, `[]`, string(body[key]), key)
	}
	assert.NotContains(t, body, "degraded")
}

func TestGetDetailNotFound(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.GetDetail(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.GetDetail(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetDetailDegradesFailedSlice(t *testing.T) {
	repo := &failingRepo{Repository: repository.Provide(), personnelErr: errBackend}
	f := newFixture(t, repo)
	c := f.company(t, "Alpha", "Manila", true)
	f.service(t, c.ID, "Medical Billing", "Claims follow-up")

	detail, err := f.svc.GetDetail(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{domain.SlicePersonnel}, detail.Degraded)
	assert.Len(t, detail.Services, 1)

	raw, err := json.Marshal(detail)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"personnel":[]`)
	assert.Contains(t, string(raw), `"degraded":["personnel"]`)
}

func (f *fixture) tradeName(t *testing.T, companyID, name string) {
	t.Helper()
	require.NoError(t, f.conn.Model(&domain.Company{}).Where("id = ?", companyID).Update("trade_name", name).Error)
}

func TestSearchMatchesNameTradeNameAndCity(t *testing.T) {
	f := newFixture(t, nil)
	f.company(t, "Zulu Outsourcing", "Manila", true)
	alpha := f.company(t, "Alpha Health", "Manila", true)
	f.company(t, "Mike Medical", "Manila", true)
	bravo := f.company(t, "Bravo Billing", "Quezon City", true)
	f.company(t, "Charlie 100% Claims", "Cebu", true)
	f.company(t, "Delta Bang! Care", "Davao", true)
	f.company(t, "Manila Retired", "Manila", false)
	f.tradeName(t, alpha.ID, "AHP Revenue Cycle")
	f.tradeName(t, bravo.ID, "Claimwise")

	ctx := context.Background()
	names := func(rows []domain.CompanySummary) []string {
		out := make([]string, 0, len(rows))
		for _, r := range rows {
			out = append(out, r.CompanyName)
		}
		return out
	}

	got, err := f.svc.Search(ctx, "MANILA")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha Health", "Mike Medical", "Zulu Outsourcing"}, names(got))

	got, err = f.svc.Search(ctx, "revenue cycle")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha Health"}, names(got))

	got, err = f.svc.Search(ctx, "claim")
	require.NoError(t, err)
	assert.Equal(t, []string{"Bravo Billing", "Charlie 100% Claims"}, names(got))

	got, err = f.svc.Search(ctx, "100%")
	require.NoError(t, err)
	assert.Equal(t, []string{"Charlie 100% Claims"}, names(got))

	got, err = f.svc.Search(ctx, "g!")
	require.NoError(t, err)
	assert.Equal(t, []string{"Delta Bang! Care"}, names(got))

	got, err = f.svc.Search(ctx, "_")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = f.svc.Search(ctx, "  ")
	require.NoError(t, err)
	assert.Len(t, got, 6)
}

func TestFilterByServiceDeduplicates(t *testing.T) {
	f := newFixture(t, nil)
	alpha := f.company(t, "Alpha", "Manila", true)
	bravo := f.company(t, "Bravo", "Cebu", true)
	f.service(t, alpha.ID, "Medical Coding", "Inpatient")
	f.service(t, alpha.ID, "Medical Coding", "Outpatient")
	f.service(t, bravo.ID, "Medical Billing", "Billing")

	got, err := f.svc.FilterByService(context.Background(), "Medical Coding")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, alpha.ID, got[0].ID)

	got, err = f.svc.FilterByService(context.Background(), "Prior Authorization")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got, err = f.svc.FilterByService(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSetPrimaryLogoKeepsOnePrimary(t *testing.T) {
	f := newFixture(t, nil)
	c := f.company(t, "Alpha", "Manila", true)
	ctx := context.Background()

	first, err := f.svc.SetPrimaryLogo(ctx, c.ID, domain.SetLogoRequest{FileURL: "https://cdn.example.com/a.png", FileName: "a.png"})
	require.NoError(t, err)
	assert.True(t, first.IsPrimary)

	_, err = f.svc.SetPrimaryLogo(ctx, c.ID, domain.SetLogoRequest{FileURL: "https://cdn.example.com/b.png"})
	require.NoError(t, err)

	again, err := f.svc.SetPrimaryLogo(ctx, c.ID, domain.SetLogoRequest{FileURL: "https://cdn.example.com/a.png"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	var rows []domain.Media
	require.NoError(t, f.conn.Where("bpo_id = ?", c.ID).Find(&rows).Error)
	assert.Len(t, rows, 2)
	primaries := 0
	for _, row := range rows {
		if row.IsPrimary {
			primaries++
			assert.Equal(t, "https://cdn.example.com/a.png", row.FileURL)
		}
	}
	assert.Equal(t, 1, primaries)

	summaries, err := f.svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	require.NotNil(t, summaries[0].LogoURL)
	assert.Equal(t, "https://cdn.example.com/a.png", *summaries[0].LogoURL)
}

func TestSetPrimaryLogoValidates(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.SetPrimaryLogo(ctx, "nope", domain.SetLogoRequest{FileURL: "https://cdn.example.com/a.png"})
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = f.svc.SetPrimaryLogo(ctx, uuid.NewString(), domain.SetLogoRequest{FileURL: "ftp://cdn.example.com/a.png"})
	assert.ErrorIs(t, err, domain.ErrInvalidFileURL)

	_, err = f.svc.SetPrimaryLogo(ctx, uuid.NewString(), domain.SetLogoRequest{FileURL: "https://cdn.example.com/a.png"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCategoriesReturnsCopy(t *testing.T) {
	f := newFixture(t, nil)

	got := f.svc.Categories(context.Background())
	require.NotEmpty(t, got)
	got[0] = "mutated"
	assert.NotEqual(t, "mutated", f.svc.Categories(context.Background())[0])
}
