package domain

import (
	"context"
	"encoding/json"
	"errors"
)

type Service interface {
	ListActive(ctx context.Context) ([]CompanySummary, error)
	GetDetail(ctx context.Context, id string) (*CompanyDetail, error)
	Search(ctx context.Context, query string) ([]CompanySummary, error)
	FilterByService(ctx context.Context, category string) ([]CompanySummary, error)
	SetPrimaryLogo(ctx context.Context, companyID string, req SetLogoRequest) (*Media, error)
	Categories(ctx context.Context) []string
}

var (
	ErrNotFound       = errors.New("company_not_found")
	ErrQueryFailed    = errors.New("directory_query_failed")
	ErrInvalidID      = errors.New("invalid_company_id")
	ErrInvalidFileURL = errors.New("invalid_file_url")
)

// Detail slice names reported in CompanyDetail.Degraded.
const (
	SliceServices       = "services"
	SliceClientProfile  = "clientProfile"
	SliceOperations     = "operations"
	SliceLocations      = "locations"
	SliceCertifications = "certifications"
	SlicePersonnel      = "personnel"
	SliceMedia          = "media"
	SliceFinancial      = "financial"
	SliceTechnology     = "technology"
)

// CompanySummary is the listing projection of a company.
type CompanySummary struct {
	ID                 string  `json:"id"`
	CompanyName        string  `json:"company_name"`
	TradeName          *string `json:"trade_name"`
	City               *string `json:"city"`
	Province           *string `json:"province"`
	TotalEmployees     *int    `json:"total_employees"`
	HealthcareFTECount *int    `json:"healthcare_fte_count"`
	CompanyDescription *string `json:"company_description"`
	WebsiteURL         *string `json:"website_url"`
	LogoURL            *string `json:"logo_url"`
	Slug               string  `json:"slug"`
}

// CompanyDetail is the full profile of one company. Missing one-to-one rows
// encode as {} and missing one-to-many rows as [].
type CompanyDetail struct {
	Company        Company
	Services       []ServiceOffering
	ClientProfile  *ClientProfile
	Operations     *Operations
	Locations      []Location
	Certifications []Certification
	Personnel      []Personnel
	Media          []Media
	Financial      *Financial
	Technology     []Technology
	Degraded       []string
}

func (d CompanyDetail) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Company        Company           `json:"company"`
		Services       []ServiceOffering `json:"services"`
		ClientProfile  any               `json:"clientProfile"`
		Operations     any               `json:"operations"`
		Locations      []Location        `json:"locations"`
		Certifications []Certification   `json:"certifications"`
		Personnel      []Personnel       `json:"personnel"`
		Media          []Media           `json:"media"`
		Financial      any               `json:"financial"`
		Technology     []Technology      `json:"technology"`
		Degraded       []string          `json:"degraded,omitempty"`
	}{
		Company:        d.Company,
		Services:       orEmpty(d.Services),
		ClientProfile:  objectOrEmpty(d.ClientProfile),
		Operations:     objectOrEmpty(d.Operations),
		Locations:      orEmpty(d.Locations),
		Certifications: orEmpty(d.Certifications),
		Personnel:      orEmpty(d.Personnel),
		Media:          orEmpty(d.Media),
		Financial:      objectOrEmpty(d.Financial),
		Technology:     orEmpty(d.Technology),
		Degraded:       d.Degraded,
	})
}

func orEmpty[T any](rows []T) []T {
	if rows == nil {
		return []T{}
	}
	return rows
}

func objectOrEmpty[T any](row *T) any {
	if row == nil {
		return struct{}{}
	}
	return row
}

type SetLogoRequest struct {
	FileURL  string `json:"fileUrl"`
	FileName string `json:"fileName"`
}
