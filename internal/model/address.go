package model

import (
	"fmt"
	"slices"
	"strings"
)

// MaxAddressLines is the number of free-text lines an address can hold.
const MaxAddressLines = 4

// Address is a postal address that appointments can refer to.
type Address struct {
	ID *int64 `json:"idOption"`

	// AddressName is the lookup key used when creating appointments.
	AddressName string `json:"addressName"`

	// AddressLines holds one to four lines in display order.
	AddressLines []string `json:"addressLines"`

	ZipCode     string `json:"zipCode"`
	City        string `json:"city"`
	CountryCode string `json:"countryCode"`
}

// NewAddress returns an unsaved address. Blank lines are dropped.
func NewAddress(addressName string, lines []string, zipCode, city, countryCode string) Address {
	return Address{
		AddressName:  addressName,
		AddressLines: compactLines(lines),
		ZipCode:      zipCode,
		City:         city,
		CountryCode:  countryCode,
	}
}

// HasID reports whether the address has been stored.
func (a Address) HasID() bool {
	return a.ID != nil
}

// WithID returns a copy of a carrying the given identity. The lines are
// copied too.
func (a Address) WithID(id int64) Address {
	a.ID = &id
	a.AddressLines = slices.Clone(a.AddressLines)
	return a
}

// Validate checks the required fields of an address.
func (a Address) Validate() error {
	switch {
	case strings.TrimSpace(a.AddressName) == "":
		return fmt.Errorf("address name must not be empty: %w", ErrValidation)
	case len(a.AddressLines) == 0:
		return fmt.Errorf("address needs at least one line: %w", ErrValidation)
	case len(a.AddressLines) > MaxAddressLines:
		return fmt.Errorf("address has %d lines, at most %d allowed: %w",
			len(a.AddressLines), MaxAddressLines, ErrPrecondition)
	case strings.TrimSpace(a.ZipCode) == "":
		return fmt.Errorf("zip code must not be empty: %w", ErrValidation)
	case strings.TrimSpace(a.City) == "":
		return fmt.Errorf("city must not be empty: %w", ErrValidation)
	case strings.TrimSpace(a.CountryCode) == "":
		return fmt.Errorf("country code must not be empty: %w", ErrValidation)
	}
	return nil
}

// Equal reports whether two addresses hold the same values.
func (a Address) Equal(o Address) bool {
	return equalInt64Ptr(a.ID, o.ID) &&
		a.AddressName == o.AddressName &&
		slices.Equal(a.AddressLines, o.AddressLines) &&
		a.ZipCode == o.ZipCode &&
		a.City == o.City &&
		a.CountryCode == o.CountryCode
}

func compactLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}
