package domain

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	DefaultPostalCodePattern = `^[0-9]{3}\s?[0-9]{2}$`
	DefaultPhonePattern      = `^[0-9]{3}\s?[0-9]{3}\s?[0-9]{3}$`
)

// LeadValidator checks public submissions. The postal code and phone
// formats are regional and can be swapped per deployment.
type LeadValidator struct {
	PostalCode *regexp.Regexp
	Phone      *regexp.Regexp
}

var defaultValidator = &LeadValidator{
	PostalCode: regexp.MustCompile(DefaultPostalCodePattern),
	Phone:      regexp.MustCompile(DefaultPhonePattern),
}

func DefaultLeadValidator() *LeadValidator {
	return defaultValidator
}

// NewLeadValidator compiles custom patterns; an empty pattern keeps the default.
func NewLeadValidator(postalCodePattern, phonePattern string) (*LeadValidator, error) {
	v := &LeadValidator{PostalCode: defaultValidator.PostalCode, Phone: defaultValidator.Phone}
	if postalCodePattern != "" {
		re, err := regexp.Compile(postalCodePattern)
		if err != nil {
			return nil, fmt.Errorf("postal code pattern: %w", err)
		}
		v.PostalCode = re
	}
	if phonePattern != "" {
		re, err := regexp.Compile(phonePattern)
		if err != nil {
			return nil, fmt.Errorf("phone pattern: %w", err)
		}
		v.Phone = re
	}
	return v, nil
}

// Validate normalizes f. Any failed rule rejects the whole submission
// with ErrInvalidLead. Postal code and phone must match as submitted;
// surrounding whitespace is a format error, not padding.
func (v *LeadValidator) Validate(f LeadForm) (*NewLead, error) {
	propertyType := strings.ToLower(strings.TrimSpace(f.PropertyType))
	email := strings.TrimSpace(f.Email)

	area, areaOK := parseArea(f.Area)

	in := &NewLead{
		City:         strings.TrimSpace(f.City),
		PostalCode:   strings.TrimSpace(f.PostalCode),
		PropertyType: propertyType,
		Area:         area,
		Layout:       strings.TrimSpace(f.Layout),
		Condition:    strings.ToLower(strings.TrimSpace(f.Condition)),
		FirstName:    strings.TrimSpace(f.FirstName),
		LastName:     strings.TrimSpace(f.LastName),
		Email:        email,
		Phone:        strings.TrimSpace(f.Phone),
	}

	if in.City == "" || in.FirstName == "" || in.LastName == "" ||
		propertyType == "" ||
		!v.PostalCode.MatchString(f.PostalCode) ||
		!areaOK ||
		!v.Phone.MatchString(f.Phone) ||
		!strings.Contains(email, "@") {
		return nil, ErrInvalidLead
	}

	if propertyType == PropertyApartment {
		in.Balcony = strings.TrimSpace(f.Balcony)
	}
	if in.Layout == "" && propertyType == PropertyLand {
		in.Layout = LayoutLand
	}
	return in, nil
}

func parseArea(raw string) (float64, bool) {
	n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, n > 0
}
