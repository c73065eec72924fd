package model

import "time"

// Company is a single Firmenbuch record with its related entities.
type Company struct {
	Firmenbuchnummer string          `json:"firmenbuchnummer"`
	Name             string          `json:"name"`
	LegalForm        string          `json:"legal_form,omitempty"`
	BusinessPurpose  string          `json:"business_purpose,omitempty"`
	Seat             string          `json:"seat,omitempty"`
	EUID             string          `json:"euid,omitempty"`
	Address          *Address        `json:"address,omitempty"`
	Partners         []Partner       `json:"partners,omitempty"`
	RegistryEntries  []RegistryEntry `json:"registry_entries,omitempty"`
	RiskScore        *float64        `json:"risk_score,omitempty"`
	RiskIndicators   map[string]float64 `json:"risk_indicators,omitempty"`
	ReferenceDate    *time.Time      `json:"reference_date,omitempty"`
}

// CompanySummary is the minimal projection returned by search.
type CompanySummary struct {
	Firmenbuchnummer string `json:"firmenbuchnummer"`
	Name             string `json:"name"`
	LegalForm        string `json:"legal_form,omitempty"`
	BusinessPurpose  string `json:"business_purpose,omitempty"`
	Seat             string `json:"seat,omitempty"`
}

// Suggestion is a typeahead search suggestion.
type Suggestion struct {
	Firmenbuchnummer string `json:"firmenbuchnummer"`
	Name             string `json:"name"`
}

// Address is a company's registered address.
type Address struct {
	Street      string `json:"street,omitempty"`
	HouseNumber string `json:"house_number,omitempty"`
	PostalCode  string `json:"postal_code,omitempty"`
	City        string `json:"city,omitempty"`
	Country     string `json:"country,omitempty"`
}

// Empty reports whether no address component is set.
func (a Address) Empty() bool {
	return a.Street == "" && a.HouseNumber == "" && a.PostalCode == "" && a.City == "" && a.Country == ""
}

// Partner is a person or entity associated with a company
// (shareholder, managing director, ...).
type Partner struct {
	Name           string     `json:"name,omitempty"`
	FirstName      string     `json:"first_name,omitempty"`
	LastName       string     `json:"last_name,omitempty"`
	BirthDate      *time.Time `json:"birth_date,omitempty"`
	Role           string     `json:"role,omitempty"`
	Representation string     `json:"representation,omitempty"`
}

// RegistryEntry is a single court filing event on a company's timeline.
type RegistryEntry struct {
	Type            string     `json:"type,omitempty"`
	Court           string     `json:"court,omitempty"`
	FileNumber      string     `json:"file_number,omitempty"`
	ApplicationDate *time.Time `json:"application_date,omitempty"`
	RegisteredAt    *time.Time `json:"registration_date,omitempty"`
}

// RegistrationDate satisfies the risk engine's filing accessor contract.
func (e RegistryEntry) RegistrationDate() *time.Time {
	return e.RegisteredAt
}

// CompanyWithRisk pairs a company with its computed risk result. The
// risk block is nil when no financial statement was available; it is
// never bolted onto the Company itself.
type CompanyWithRisk struct {
	Company    Company             `json:"company"`
	Indicators map[string]*float64 `json:"risk_indicators,omitempty"`
	Score      *float64            `json:"risk_score,omitempty"`
}

// Metrics holds row counts per entity type.
type Metrics struct {
	Companies       int64 `json:"companies"`
	Addresses       int64 `json:"addresses"`
	Partners        int64 `json:"partners"`
	RegistryEntries int64 `json:"registry_entries"`
}
