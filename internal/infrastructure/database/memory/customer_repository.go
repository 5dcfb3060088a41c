package memory

import (
	"bank-backoffice/internal/domain/customer"
	"bank-backoffice/internal/pkg/apperrors"
	"context"
	"fmt"
	"strings"
)

type CustomerRepository struct {
	db *DB
}

var _ customer.CustomerRepository = (*CustomerRepository)(nil)

func NewCustomerRepository(db *DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	return r.db.view(ctx, func(t *tables) error {
		for _, existing := range t.customers {
			if strings.EqualFold(existing.Email, c.Email) {
				return fmt.Errorf("%w: email %s", apperrors.ErrAlreadyExists, c.Email)
			}
		}
		c.CustomerID = r.db.nextCustomer
		r.db.nextCustomer++
		t.customers[c.CustomerID] = *c
		return nil
	})
}

func (r *CustomerRepository) FindByID(ctx context.Context, customerID int64) (*customer.Customer, error) {
	var found customer.Customer
	err := r.db.view(ctx, func(t *tables) error {
		c, ok := t.customers[customerID]
		if !ok {
			return fmt.Errorf("%w: %d", customer.ErrNotFound, customerID)
		}
		found = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (r *CustomerRepository) FindByEmail(ctx context.Context, email string) (*customer.Customer, error) {
	var found customer.Customer
	err := r.db.view(ctx, func(t *tables) error {
		for _, c := range t.customers {
			if strings.EqualFold(c.Email, email) {
				found = c
				return nil
			}
		}
		return fmt.Errorf("%w: %s", customer.ErrNotFound, email)
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (r *CustomerRepository) UpdateProfile(ctx context.Context, c *customer.Customer) error {
	return r.db.view(ctx, func(t *tables) error {
		stored, ok := t.customers[c.CustomerID]
		if !ok {
			return fmt.Errorf("%w: %d", customer.ErrNotFound, c.CustomerID)
		}
		stored.Name, stored.Address, stored.City, stored.UpdatedAt = c.Name, c.Address, c.City, c.UpdatedAt
		t.customers[c.CustomerID] = stored
		return nil
	})
}

func (r *CustomerRepository) Delete(ctx context.Context, customerID int64) error {
	return r.db.view(ctx, func(t *tables) error {
		if _, ok := t.customers[customerID]; !ok {
			return fmt.Errorf("%w: %d", customer.ErrNotFound, customerID)
		}
		delete(t.customers, customerID)
		return nil
	})
}
