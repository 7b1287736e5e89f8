package domain

import (
	"errors"
	"time"
)

// Property types with special handling on intake. Values are compared
// case-insensitively against the submitted type.
const (
	PropertyApartment = "byt"
	PropertyLand      = "pozemek"
)

// LayoutLand is stored as layout for land when none was submitted.
const LayoutLand = PropertyLand

var (
	ErrInvalidLead  = errors.New("missing or malformed lead fields")
	ErrLeadNotFound = errors.New("lead not found")
)

type Lead struct {
	ID           int64     `json:"id"`
	City         string    `json:"city"`
	PostalCode   string    `json:"psc"`
	PropertyType string    `json:"type"`
	Area         float64   `json:"area"`
	Layout       string    `json:"layout"`
	Balcony      string    `json:"balcony"`
	Condition    string    `json:"condition"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Contacted    bool      `json:"contacted"`
	CreatedAt    time.Time `json:"created_at"`
}

func (l Lead) FullName() string {
	if l.FirstName == "" {
		return l.LastName
	}
	if l.LastName == "" {
		return l.FirstName
	}
	return l.FirstName + " " + l.LastName
}

// LeadForm holds the raw fields of a public submission. Absent fields are
// empty strings.
type LeadForm struct {
	City         string
	PostalCode   string
	PropertyType string
	Area         string
	Layout       string
	Balcony      string
	Condition    string
	FirstName    string
	LastName     string
	Email        string
	Phone        string
}

// NewLead is a validated submission, normalized and ready to insert.
type NewLead struct {
	City         string
	PostalCode   string
	PropertyType string
	Area         float64
	Layout       string
	Balcony      string
	Condition    string
	FirstName    string
	LastName     string
	Email        string
	Phone        string
}
