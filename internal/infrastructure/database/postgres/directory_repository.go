package postgres

import (
	"bank-backoffice/internal/domain/directory"
	"bank-backoffice/internal/domain/loan"
	"bank-backoffice/internal/pkg/apperrors"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
)

type DirectoryRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ directory.Repository = (*DirectoryRepository)(nil)

func NewDirectoryRepository(db DBPool, logger *slog.Logger) *DirectoryRepository {
	return &DirectoryRepository{db: db, logger: logger.With("component", "DirectoryRepository")}
}

func (r *DirectoryRepository) CustomerProfile(ctx context.Context, customerID int64) (*directory.Profile, error) {
	start := time.Now()
	var p directory.Profile
	err := conn(ctx, r.db).QueryRow(ctx,
		`SELECT customer_id, name, email, city FROM customer WHERE customer_id = $1`, customerID,
	).Scan(&p.CustomerID, &p.Name, &p.Email, &p.City)
	observe("CustomerProfile", start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", directory.ErrCustomerNotFound, customerID)
		}
		return nil, translateDBError(err, r.logger)
	}
	return &p, nil
}

func (r *DirectoryRepository) BranchForCity(ctx context.Context, city string) (string, error) {
	start := time.Now()
	var name string
	err := conn(ctx, r.db).QueryRow(ctx,
		`SELECT branch_name FROM branch WHERE lower(branch_city) = lower($1) ORDER BY branch_name LIMIT 1`, city,
	).Scan(&name)
	observe("BranchForCity", start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%w: %q", directory.ErrNoBranchForCity, city)
		}
		return "", translateDBError(err, r.logger)
	}
	return name, nil
}

func (r *DirectoryRepository) EmployeesInBranch(ctx context.Context, branch string) ([]int64, error) {
	return r.collectIDs(ctx, "EmployeesInBranch",
		`SELECT employee_id FROM employee WHERE branch_name = $1 ORDER BY employee_id`, branch)
}

func (r *DirectoryRepository) EmployeeByEmail(ctx context.Context, email string) (*directory.Employee, error) {
	start := time.Now()
	var e directory.Employee
	err := conn(ctx, r.db).QueryRow(ctx, `
        SELECT employee_id, employee_name, branch_name, email, COALESCE(password_hash, '')
        FROM employee WHERE lower(email) = lower($1)`, email,
	).Scan(&e.ID, &e.Name, &e.BranchName, &e.Email, &e.PasswordHash)
	observe("EmployeeByEmail", start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %q", directory.ErrEmployeeNotFound, email)
		}
		return nil, translateDBError(err, r.logger)
	}
	return &e, nil
}

func (r *DirectoryRepository) FindBanker(ctx context.Context, customerID int64, c directory.Context) (int64, bool, error) {
	start := time.Now()
	var employeeID int64
	err := conn(ctx, r.db).QueryRow(ctx,
		`SELECT employee_id FROM cust_banker WHERE customer_id = $1 AND type = $2`, customerID, string(c),
	).Scan(&employeeID)
	observe("FindBanker", start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, translateDBError(err, r.logger)
	}
	return employeeID, true, nil
}

// AssignBanker relies on the (customer_id, type) unique key: a concurrent
// assignment wins and its employee is returned.
func (r *DirectoryRepository) AssignBanker(ctx context.Context, a directory.Assignment) (int64, error) {
	assigned, err := r.insertBanker(ctx, a)
	if errors.Is(err, pgx.ErrNoRows) {
		// The conflicting row was committed after this statement's snapshot
		// was taken, so it has to be read again in a new statement.
		var found bool
		assigned, found, err = r.FindBanker(ctx, a.CustomerID, a.Context)
		if err == nil && !found {
			err = fmt.Errorf("%w: banker assignment for customer %d vanished", apperrors.ErrContention, a.CustomerID)
		}
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to re-read banker assignment", "customer_id", a.CustomerID, "context", a.Context, "error", err)
			return 0, err
		}
		return assigned, nil
	}
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to assign banker", "customer_id", a.CustomerID, "context", a.Context, "error", err)
		return 0, translateDBError(err, r.logger)
	}
	return assigned, nil
}

func (r *DirectoryRepository) insertBanker(ctx context.Context, a directory.Assignment) (int64, error) {
	start := time.Now()
	query := `
        WITH ins AS (
            INSERT INTO cust_banker (customer_id, employee_id, type)
            VALUES ($1, $2, $3)
            ON CONFLICT (customer_id, type) DO NOTHING
            RETURNING employee_id
        )
        SELECT employee_id FROM ins
        UNION ALL
        SELECT employee_id FROM cust_banker WHERE customer_id = $1 AND type = $3
        LIMIT 1`

	var assigned int64
	err := conn(ctx, r.db).QueryRow(ctx, query, a.CustomerID, a.EmployeeID, string(a.Context)).Scan(&assigned)
	observe("AssignBanker", start, err)
	return assigned, err
}

func (r *DirectoryRepository) RemoveBankers(ctx context.Context, customerID int64, contexts ...directory.Context) error {
	start := time.Now()
	var err error
	if len(contexts) == 0 {
		_, err = conn(ctx, r.db).Exec(ctx, `DELETE FROM cust_banker WHERE customer_id = $1`, customerID)
	} else {
		types := make([]string, len(contexts))
		for i, c := range contexts {
			types[i] = string(c)
		}
		_, err = conn(ctx, r.db).Exec(ctx, `DELETE FROM cust_banker WHERE customer_id = $1 AND type = ANY($2)`, customerID, types)
	}
	observe("RemoveBankers", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to remove bankers", "customer_id", customerID, "error", err)
		return translateDBError(err, r.logger)
	}
	return nil
}

func (r *DirectoryRepository) BankersOf(ctx context.Context, customerID int64) ([]directory.Assignment, error) {
	start := time.Now()
	rows, err := conn(ctx, r.db).Query(ctx,
		`SELECT customer_id, employee_id, type FROM cust_banker WHERE customer_id = $1 ORDER BY type`, customerID)
	if err != nil {
		observe("BankersOf", start, err)
		return nil, translateDBError(err, r.logger)
	}
	defer rows.Close()

	out := make([]directory.Assignment, 0)
	for rows.Next() {
		var (
			a   directory.Assignment
			typ string
		)
		if err := rows.Scan(&a.CustomerID, &a.EmployeeID, &typ); err != nil {
			observe("BankersOf", start, err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		a.Context = directory.Context(typ)
		out = append(out, a)
	}
	err = rows.Err()
	observe("BankersOf", start, err)
	if err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return out, nil
}

func (r *DirectoryRepository) PrimaryAccount(ctx context.Context, customerID int64) (int64, bool, error) {
	start := time.Now()
	var number int64
	err := conn(ctx, r.db).QueryRow(ctx,
		`SELECT account_number FROM depositor WHERE customer_id = $1 ORDER BY account_number LIMIT 1`, customerID,
	).Scan(&number)
	observe("PrimaryAccount", start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, translateDBError(err, r.logger)
	}
	return number, true, nil
}

func (r *DirectoryRepository) BankerSummary(ctx context.Context, employeeID int64) (*directory.BankerSummary, error) {
	if err := r.employeeExists(ctx, employeeID); err != nil {
		return nil, err
	}

	start := time.Now()
	query := `
        SELECT
            (SELECT COUNT(*)
               FROM cust_banker cb
               JOIN depositor d ON d.customer_id = cb.customer_id
               JOIN account a ON a.account_number = d.account_number AND a.type = cb.type
              WHERE cb.employee_id = $1),
            (SELECT COUNT(*)
               FROM cust_banker cb
               JOIN borrower b ON b.customer_id = cb.customer_id
              WHERE cb.employee_id = $1 AND cb.type = $2),
            (SELECT COUNT(*)
               FROM cust_banker cb
               JOIN borrower b ON b.customer_id = cb.customer_id
               JOIN loan l ON l.loan_number = b.loan_number
              WHERE cb.employee_id = $1 AND cb.type = $2 AND l.status = $3),
            (SELECT COUNT(DISTINCT customer_id) FROM cust_banker WHERE employee_id = $1)`

	summary := &directory.BankerSummary{EmployeeID: employeeID}
	err := conn(ctx, r.db).QueryRow(ctx, query, employeeID, string(directory.ContextLoan), string(loan.StatusPending)).Scan(
		&summary.TotalAccounts, &summary.TotalLoans, &summary.PendingLoans, &summary.Customers,
	)
	observe("BankerSummary", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to build banker summary", "employee_id", employeeID, "error", err)
		return nil, translateDBError(err, r.logger)
	}
	return summary, nil
}

func (r *DirectoryRepository) CustomersOfBanker(ctx context.Context, employeeID int64) ([]directory.Profile, error) {
	if err := r.employeeExists(ctx, employeeID); err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := conn(ctx, r.db).Query(ctx, `
        SELECT DISTINCT c.customer_id, c.name, c.email, c.city
        FROM cust_banker cb
        JOIN customer c ON c.customer_id = cb.customer_id
        WHERE cb.employee_id = $1
        ORDER BY c.customer_id`, employeeID)
	if err != nil {
		observe("CustomersOfBanker", start, err)
		return nil, translateDBError(err, r.logger)
	}
	defer rows.Close()

	profiles := make([]directory.Profile, 0)
	for rows.Next() {
		var p directory.Profile
		if err := rows.Scan(&p.CustomerID, &p.Name, &p.Email, &p.City); err != nil {
			observe("CustomersOfBanker", start, err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		profiles = append(profiles, p)
	}
	err = rows.Err()
	observe("CustomersOfBanker", start, err)
	if err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return profiles, nil
}

func (r *DirectoryRepository) LoansOfBanker(ctx context.Context, employeeID int64, status string) ([]directory.BankerLoan, error) {
	if err := r.employeeExists(ctx, employeeID); err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := conn(ctx, r.db).Query(ctx, `
        SELECT l.loan_number, l.amount, l.status, c.customer_id, c.name, c.email, b.start_date, l.created_at
        FROM cust_banker cb
        JOIN borrower b ON b.customer_id = cb.customer_id
        JOIN loan l ON l.loan_number = b.loan_number
        JOIN customer c ON c.customer_id = cb.customer_id
        WHERE cb.employee_id = $1 AND cb.type = $2 AND ($3::text = '' OR l.status = $3::text)
        ORDER BY l.loan_number`, employeeID, string(directory.ContextLoan), status)
	if err != nil {
		observe("LoansOfBanker", start, err)
		return nil, translateDBError(err, r.logger)
	}
	defer rows.Close()

	queue := make([]directory.BankerLoan, 0)
	for rows.Next() {
		var l directory.BankerLoan
		if err := rows.Scan(&l.LoanNumber, &l.Amount, &l.Status, &l.CustomerID, &l.CustomerName, &l.Email, &l.StartDate, &l.AppliedAt); err != nil {
			observe("LoansOfBanker", start, err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		queue = append(queue, l)
	}
	err = rows.Err()
	observe("LoansOfBanker", start, err)
	if err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return queue, nil
}

func (r *DirectoryRepository) AccountsInBranch(ctx context.Context, branch string) ([]directory.BranchAccount, error) {
	var exists bool
	err := conn(ctx, r.db).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM branch WHERE branch_name = $1)`, branch).Scan(&exists)
	if err != nil {
		return nil, translateDBError(err, r.logger)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %q", directory.ErrBranchNotFound, branch)
	}

	start := time.Now()
	rows, err := conn(ctx, r.db).Query(ctx, `
        SELECT a.account_number, a.type, a.balance, d.customer_id, a.created_at
        FROM account_branch ab
        JOIN account a ON a.account_number = ab.account_number
        JOIN depositor d ON d.account_number = a.account_number
        WHERE ab.branch_name = $1
        ORDER BY a.account_number`, branch)
	if err != nil {
		observe("AccountsInBranch", start, err)
		return nil, translateDBError(err, r.logger)
	}
	defer rows.Close()

	accounts := make([]directory.BranchAccount, 0)
	for rows.Next() {
		var a directory.BranchAccount
		if err := rows.Scan(&a.AccountNumber, &a.Type, &a.Balance, &a.CustomerID, &a.OpenedAt); err != nil {
			observe("AccountsInBranch", start, err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		accounts = append(accounts, a)
	}
	err = rows.Err()
	observe("AccountsInBranch", start, err)
	if err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return accounts, nil
}

func (r *DirectoryRepository) employeeExists(ctx context.Context, employeeID int64) error {
	var exists bool
	err := conn(ctx, r.db).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM employee WHERE employee_id = $1)`, employeeID).Scan(&exists)
	if err != nil {
		return translateDBError(err, r.logger)
	}
	if !exists {
		return fmt.Errorf("%w: %d", directory.ErrEmployeeNotFound, employeeID)
	}
	return nil
}

func (r *DirectoryRepository) collectIDs(ctx context.Context, name, query string, args ...any) ([]int64, error) {
	start := time.Now()
	rows, err := conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		observe(name, start, err)
		return nil, translateDBError(err, r.logger)
	}
	defer rows.Close()

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	observe(name, start, err)
	if err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return ids, nil
}
