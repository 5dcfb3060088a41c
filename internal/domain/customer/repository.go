package customer

import "context"

type CustomerRepository interface {
	Create(ctx context.Context, c *Customer) error

	FindByID(ctx context.Context, customerID int64) (*Customer, error)

	FindByEmail(ctx context.Context, email string) (*Customer, error)

	UpdateProfile(ctx context.Context, c *Customer) error

	Delete(ctx context.Context, customerID int64) error
}
