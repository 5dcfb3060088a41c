package customer

import (
	"bank-backoffice/internal/domain/directory"
	"bank-backoffice/internal/pkg/apperrors"
	"strings"
	"time"
)

type Customer struct {
	CustomerID   int64     `json:"customerId"`
	Name         string    `json:"name"`
	Address      string    `json:"address"`
	City         string    `json:"city"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreateDate   time.Time `json:"createDate"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func NewCustomer(name, address, city, email string) *Customer {
	now := time.Now()
	return &Customer{
		Name:       strings.TrimSpace(name),
		Address:    strings.TrimSpace(address),
		City:       strings.TrimSpace(city),
		Email:      strings.ToLower(strings.TrimSpace(email)),
		CreateDate: now,
		UpdatedAt:  now,
	}
}

// ProfileUpdate carries the optional fields of a profile edit.
type ProfileUpdate struct {
	Name    *string
	Address *string
	City    *string
}

func (c *Customer) ApplyProfile(u ProfileUpdate) bool {
	changed := false
	if u.Name != nil && strings.TrimSpace(*u.Name) != c.Name {
		c.Name = strings.TrimSpace(*u.Name)
		changed = true
	}
	if u.Address != nil && strings.TrimSpace(*u.Address) != c.Address {
		c.Address = strings.TrimSpace(*u.Address)
		changed = true
	}
	if u.City != nil && strings.TrimSpace(*u.City) != c.City {
		c.City = strings.TrimSpace(*u.City)
		changed = true
	}
	if changed {
		c.UpdatedAt = time.Now()
	}
	return changed
}

func (c *Customer) Validate() error {
	if c.Name == "" {
		return apperrors.NewValidationError("name", "name is required")
	}
	if c.City == "" {
		return apperrors.NewValidationError("city", "city is required")
	}
	if !strings.Contains(c.Email, "@") {
		return apperrors.NewValidationError("email", "a valid email is required")
	}
	return nil
}

// DeletionSummary reports what a cascading customer delete removed.
type DeletionSummary struct {
	CustomerID     int64
	AccountsClosed int
	LoansRemoved   int
}

var (
	ErrNotFound           = directory.ErrCustomerNotFound
	ErrEmailTaken         = apperrors.New("EMAIL_TAKEN", "a customer with this email already exists", apperrors.ErrAlreadyExists)
	ErrInvalidCredentials = apperrors.New("INVALID_CREDENTIALS", "invalid email or password", apperrors.ErrUnauthorized)
)
