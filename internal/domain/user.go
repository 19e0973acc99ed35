package domain

import (
	"errors"
	"time"
)

const DefaultCountry = "Perú"

var (
	ErrPasswordRequired         = errors.New("password is required unless the account is linked to an identity provider")
	ErrMultiplePrimaryAddresses = errors.New("only one address can be marked as primary")
	ErrAddressStreetRequired    = errors.New("address street is required")
)

// User represents a customer or staff account.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Country      string     `json:"country"`
	Phone        string     `json:"phone,omitempty"`
	Role         Role       `json:"role"`
	GoogleID     *string    `json:"googleId,omitempty"`
	Addresses    []Address  `json:"addresses"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
}

// Address is a saved shipping address.
type Address struct {
	Label      string `json:"label"`
	Street     string `json:"street"`
	Department string `json:"department"`
	Province   string `json:"province"`
	District   string `json:"district"`
	IsPrimary  bool   `json:"isPrimary"`
}

func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// Validate checks the record-level invariants.
func (u *User) Validate() error {
	if !u.HasPassword() && u.GoogleID == nil {
		return ErrPasswordRequired
	}
	return ValidateAddresses(u.Addresses)
}

// ValidateAddresses allows at most one primary address.
func ValidateAddresses(addresses []Address) error {
	primary := 0
	for _, a := range addresses {
		if a.Street == "" {
			return ErrAddressStreetRequired
		}
		if a.IsPrimary {
			primary++
		}
	}
	if primary > 1 {
		return ErrMultiplePrimaryAddresses
	}
	return nil
}

// PrimaryAddress returns the primary address, if any.
func (u *User) PrimaryAddress() (Address, bool) {
	for _, a := range u.Addresses {
		if a.IsPrimary {
			return a, true
		}
	}
	return Address{}, false
}

const ProviderGoogle = "google"

// OAuthProvider links a user to an external identity.
type OAuthProvider struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	Provider       string    `json:"provider"`
	ProviderUserID string    `json:"providerUserId"`
	Email          *string   `json:"email"`
	CreatedAt      time.Time `json:"createdAt"`
}
