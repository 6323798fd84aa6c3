// Package domain contains the directory's persistence models and projections.
package domain

import (
	"time"
)

const MediaTypeLogo = "logo"

// Company is a BPO member organization (table bpos).
type Company struct {
	ID                 string    `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyName        string    `gorm:"type:text;not null;index" json:"company_name"`
	TradeName          *string   `gorm:"type:text" json:"trade_name"`
	City               *string   `gorm:"type:text" json:"city"`
	Province           *string   `gorm:"type:text" json:"province"`
	Country            *string   `gorm:"type:text" json:"country"`
	Email              *string   `gorm:"type:text" json:"email"`
	WebsiteURL         *string   `gorm:"type:text;column:website_url" json:"website_url"`
	CompanyDescription *string   `gorm:"type:text" json:"company_description"`
	TotalEmployees     *int      `json:"total_employees"`
	HealthcareFTECount *int      `gorm:"column:healthcare_fte_count" json:"healthcare_fte_count"`
	IsActive           bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt          time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Company) TableName() string { return "bpos" }

// ServiceOffering is a service offering, categorized by the healthcare taxonomy.
type ServiceOffering struct {
	ID               string    `gorm:"type:uuid;primaryKey" json:"id"`
	BpoID            string    `gorm:"type:uuid;not null;index" json:"bpo_id"`
	ServiceCategory  string    `gorm:"type:text;not null;index" json:"service_category"`
	ServiceName      string    `gorm:"type:text;not null" json:"service_name"`
	Description      *string   `gorm:"type:text" json:"description"`
	IsPrimaryService bool      `gorm:"not null;default:false" json:"is_primary_service"`
	CreatedAt        time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (ServiceOffering) TableName() string { return "bpo_services" }

type ClientProfile struct {
	ID                     string  `gorm:"type:uuid;primaryKey" json:"id"`
	BpoID                  string  `gorm:"type:uuid;not null;uniqueIndex" json:"bpo_id"`
	TargetMarket           *string `gorm:"type:text" json:"target_market"`
	ClientTypes            *string `gorm:"type:text" json:"client_types"`
	NoOfActiveClients      *int    `gorm:"column:no_of_active_clients" json:"no_of_active_clients"`
	YearsServingHealthcare *int    `json:"years_serving_healthcare"`
}

func (ClientProfile) TableName() string { return "bpo_clients_profile" }

type Operations struct {
	ID                   string  `gorm:"type:uuid;primaryKey" json:"id"`
	BpoID                string  `gorm:"type:uuid;not null;uniqueIndex" json:"bpo_id"`
	DeliveryModel        *string `gorm:"type:text" json:"delivery_model"`
	WorkShifts           *string `gorm:"type:text" json:"work_shifts"`
	ComplianceFrameworks *string `gorm:"type:text" json:"compliance_frameworks"`
	EHRSystemsSupported  *string `gorm:"type:text;column:ehr_systems_supported" json:"ehr_systems_supported"`
}

func (Operations) TableName() string { return "bpo_operations" }

type Location struct {
	ID             string  `gorm:"type:uuid;primaryKey" json:"id"`
	BpoID          string  `gorm:"type:uuid;not null;index" json:"bpo_id"`
	SiteName       *string `gorm:"type:text" json:"site_name"`
	Address        *string `gorm:"type:text" json:"address"`
	City           *string `gorm:"type:text" json:"city"`
	Province       *string `gorm:"type:text" json:"province"`
	Country        *string `gorm:"type:text" json:"country"`
	SeatCapacity   *int    `json:"seat_capacity"`
	IsHeadquarters bool    `gorm:"not null;default:false" json:"is_headquarters"`
}

func (Location) TableName() string { return "bpo_locations" }

type Certification struct {
	ID                string     `gorm:"type:uuid;primaryKey" json:"id"`
	BpoID             string     `gorm:"type:uuid;not null;index" json:"bpo_id"`
	CertificationName string     `gorm:"type:text;not null" json:"certification_name"`
	IssuingBody       *string    `gorm:"type:text" json:"issuing_body"`
	IssuedAt          *time.Time `json:"issued_at"`
	ExpiresAt         *time.Time `json:"expires_at"`
}

func (Certification) TableName() string { return "bpo_certifications" }

type Personnel struct {
	ID               string  `gorm:"type:uuid;primaryKey" json:"id"`
	BpoID            string  `gorm:"type:uuid;not null;index" json:"bpo_id"`
	FullName         string  `gorm:"type:text;not null" json:"full_name"`
	Position         *string `gorm:"type:text" json:"position"`
	Email            *string `gorm:"type:text" json:"email"`
	Phone            *string `gorm:"type:text" json:"phone"`
	IsPrimaryContact bool    `gorm:"not null;default:false" json:"is_primary_contact"`
}

func (Personnel) TableName() string { return "bpo_personnel" }

// Media is an asset attached to a company. At most one row per company may
// have media_type = logo and is_primary = true.
type Media struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	BpoID        string    `gorm:"type:uuid;not null;index" json:"bpo_id"`
	MediaType    string    `gorm:"type:text;not null" json:"media_type"`
	FileURL      string    `gorm:"type:text;not null;column:file_url" json:"file_url"`
	FileName     *string   `gorm:"type:text" json:"file_name"`
	IsPrimary    bool      `gorm:"not null;default:false" json:"is_primary"`
	DisplayOrder int       `gorm:"not null;default:0" json:"display_order"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Media) TableName() string { return "bpo_media" }

type Financial struct {
	ID                 string  `gorm:"type:uuid;primaryKey" json:"id"`
	BpoID              string  `gorm:"type:uuid;not null;uniqueIndex" json:"bpo_id"`
	AnnualRevenueRange *string `gorm:"type:text" json:"annual_revenue_range"`
	FundingType        *string `gorm:"type:text" json:"funding_type"`
	YearEstablished    *int    `json:"year_established"`
}

func (Financial) TableName() string { return "bpo_financial" }

type Technology struct {
	ID             string  `gorm:"type:uuid;primaryKey" json:"id"`
	BpoID          string  `gorm:"type:uuid;not null;index" json:"bpo_id"`
	TechnologyName string  `gorm:"type:text;not null" json:"technology_name"`
	Category       *string `gorm:"type:text" json:"category"`
	Description    *string `gorm:"type:text" json:"description"`
}

func (Technology) TableName() string { return "bpo_technology" }

// Models lists every directory table in dependency order.
func Models() []any {
	return []any{
		&Company{},
		&ServiceOffering{},
		&ClientProfile{},
		&Operations{},
		&Location{},
		&Certification{},
		&Personnel{},
		&Media{},
		&Financial{},
		&Technology{},
	}
}
