package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"bank-backoffice/internal/domain/customer"
	"bank-backoffice/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
)

type CustomerRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ customer.CustomerRepository = (*CustomerRepository)(nil)

func NewCustomerRepository(db DBPool, logger *slog.Logger) *CustomerRepository {
	if db == nil {
		panic("DBPool cannot be nil for CustomerRepository")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerRepository, using default stderr handler")
	}
	return &CustomerRepository{
		db:     db,
		logger: logger.With("component", "CustomerRepository"),
	}
}

func (r *CustomerRepository) Create(ctx context.Context, cust *customer.Customer) error {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}
	r.logger.InfoContext(ctx, "Attempting to insert new customer", slog.String("email", cust.Email))

	query := `
        INSERT INTO customer (name, address, city, email, password_hash, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
        RETURNING customer_id, created_at, updated_at`

	start := time.Now()
	err := conn(ctx, r.db).QueryRow(ctx, query,
		cust.Name,
		cust.Address,
		cust.City,
		cust.Email,
		cust.PasswordHash,
	).Scan(
		&cust.CustomerID,
		&cust.CreateDate,
		&cust.UpdatedAt,
	)
	observe("CreateCustomer", start, err)

	if err != nil {
		translatedErr := translateDBError(err, r.logger)
		if errors.Is(translatedErr, apperrors.ErrAlreadyExists) {
			r.logger.WarnContext(ctx, "Failed to insert customer due to unique constraint violation", slog.String("email", cust.Email))
			return translatedErr
		}
		r.logger.ErrorContext(ctx, "Failed to insert customer", slog.Any("error", err))
		return translatedErr
	}

	r.logger.InfoContext(ctx, "Customer inserted successfully", slog.Int64("customerID", cust.CustomerID))
	return nil
}

const selectCustomerSQL = `
        SELECT customer_id, name, address, city, email, password_hash, created_at, updated_at
        FROM customer`

func (r *CustomerRepository) FindByID(ctx context.Context, customerID int64) (*customer.Customer, error) {
	return r.findOne(ctx, "FindCustomerByID", selectCustomerSQL+`
        WHERE customer_id = $1`, customerID)
}

func (r *CustomerRepository) FindByEmail(ctx context.Context, email string) (*customer.Customer, error) {
	return r.findOne(ctx, "FindCustomerByEmail", selectCustomerSQL+`
        WHERE lower(email) = lower($1)`, email)
}

func (r *CustomerRepository) findOne(ctx context.Context, name, query string, arg any) (*customer.Customer, error) {
	start := time.Now()
	var cust customer.Customer
	err := conn(ctx, r.db).QueryRow(ctx, query, arg).Scan(
		&cust.CustomerID,
		&cust.Name,
		&cust.Address,
		&cust.City,
		&cust.Email,
		&cust.PasswordHash,
		&cust.CreateDate,
		&cust.UpdatedAt,
	)
	observe(name, start, err)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Customer not found", "operation", name)
			return nil, fmt.Errorf("%w: %v", customer.ErrNotFound, arg)
		}
		r.logger.ErrorContext(ctx, "Failed to find customer", "operation", name, slog.Any("error", err))
		return nil, translateDBError(err, r.logger)
	}
	return &cust, nil
}

func (r *CustomerRepository) UpdateProfile(ctx context.Context, cust *customer.Customer) error {
	r.logger.InfoContext(ctx, "Attempting to update customer", slog.Int64("customerID", cust.CustomerID))

	query := `
        UPDATE customer
        SET name = $1,
            address = $2,
            city = $3,
            updated_at = $4
        WHERE customer_id = $5`

	start := time.Now()
	cmdTag, err := conn(ctx, r.db).Exec(ctx, query,
		cust.Name,
		cust.Address,
		cust.City,
		cust.UpdatedAt,
		cust.CustomerID,
	)
	observe("UpdateCustomerProfile", start, err)

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update customer", slog.Any("error", err))
		return translateDBError(err, r.logger)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.WarnContext(ctx, "Update affected zero rows, customer likely not found")
		return fmt.Errorf("%w: %d", customer.ErrNotFound, cust.CustomerID)
	}

	r.logger.InfoContext(ctx, "Customer updated successfully")
	return nil
}

func (r *CustomerRepository) Delete(ctx context.Context, customerID int64) error {
	start := time.Now()
	cmdTag, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM customer WHERE customer_id = $1`, customerID)
	observe("DeleteCustomer", start, err)

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete customer", slog.Int64("customerID", customerID), slog.Any("error", err))
		return translateDBError(err, r.logger)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", customer.ErrNotFound, customerID)
	}
	r.logger.InfoContext(ctx, "Customer deleted", slog.Int64("customerID", customerID))
	return nil
}
