package postgres

import (
	"bank-backoffice/internal/domain/customer"
	"bank-backoffice/internal/pkg/apperrors"
	"context"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var customerColumns = []string{"customer_id", "name", "address", "city", "email", "password_hash", "created_at", "updated_at"}

func newCustomerFixture() *customer.Customer {
	return &customer.Customer{
		Name:         "John Doe",
		Address:      "123 Main St",
		City:         "Brooklyn",
		Email:        "john@example.com",
		PasswordHash: "$2a$10$hash",
	}
}

func setupCustomerRepo(t *testing.T) (context.Context, *CustomerRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	ctx, mockPool := setupPool(t)
	return ctx, NewCustomerRepository(mockPool, testLogger), mockPool
}

func TestCreateCustomerWhenSuccess(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	cust := newCustomerFixture()

	mockPool.ExpectQuery(regexp.QuoteMeta(`INSERT INTO customer (name, address, city, email, password_hash, created_at, updated_at)`)).
		WithArgs(cust.Name, cust.Address, cust.City, cust.Email, cust.PasswordHash).
		WillReturnRows(pgxmock.NewRows([]string{"customer_id", "created_at", "updated_at"}).
			AddRow(int64(1), fixedTime, fixedTime))

	err := repo.Create(ctx, cust)

	require.NoError(t, err)
	assert.Equal(t, int64(1), cust.CustomerID)
	assert.Equal(t, fixedTime, cust.CreateDate)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestCreateCustomerWhenEmailTaken(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	cust := newCustomerFixture()

	mockPool.ExpectQuery(regexp.QuoteMeta(`INSERT INTO customer`)).
		WithArgs(cust.Name, cust.Address, cust.City, cust.Email, cust.PasswordHash).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "customer_email_key"})

	err := repo.Create(ctx, cust)

	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestCreateCustomerWhenNil(t *testing.T) {
	ctx, repo, _ := setupCustomerRepo(t)
	assert.ErrorIs(t, repo.Create(ctx, nil), apperrors.ErrInvalidArgument)
}

func TestFindCustomerByEmail(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)

	mockPool.ExpectQuery(regexp.QuoteMeta(`WHERE lower(email) = lower($1)`)).
		WithArgs("JOHN@example.com").
		WillReturnRows(pgxmock.NewRows(customerColumns).
			AddRow(int64(1), "John Doe", "123 Main St", "Brooklyn", "john@example.com", "$2a$10$hash", fixedTime, fixedTime))

	cust, err := repo.FindByEmail(ctx, "JOHN@example.com")

	require.NoError(t, err)
	assert.Equal(t, int64(1), cust.CustomerID)
	assert.Equal(t, "$2a$10$hash", cust.PasswordHash)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestFindCustomerByIDWhenMissing(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)

	mockPool.ExpectQuery(regexp.QuoteMeta(`WHERE customer_id = $1`)).
		WithArgs(int64(404)).
		WillReturnRows(pgxmock.NewRows(customerColumns))

	_, err := repo.FindByID(ctx, 404)

	assert.ErrorIs(t, err, customer.ErrNotFound)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestUpdateCustomerProfile(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	cust := newCustomerFixture()
	cust.CustomerID = 1
	cust.UpdatedAt = fixedTime

	t.Run("updates the row", func(t *testing.T) {
		mockPool.ExpectExec(regexp.QuoteMeta(`UPDATE customer`)).
			WithArgs(cust.Name, cust.Address, cust.City, cust.UpdatedAt, cust.CustomerID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, repo.UpdateProfile(ctx, cust))
	})

	t.Run("not found", func(t *testing.T) {
		mockPool.ExpectExec(regexp.QuoteMeta(`UPDATE customer`)).
			WithArgs(cust.Name, cust.Address, cust.City, cust.UpdatedAt, cust.CustomerID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		assert.ErrorIs(t, repo.UpdateProfile(ctx, cust), customer.ErrNotFound)
	})

	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestDeleteCustomer(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)

	mockPool.ExpectExec(regexp.QuoteMeta(`DELETE FROM customer WHERE customer_id = $1`)).
		WithArgs(int64(1)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, repo.Delete(ctx, 1))
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}
