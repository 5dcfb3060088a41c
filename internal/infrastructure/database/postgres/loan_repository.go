package postgres

import (
	"bank-backoffice/internal/domain/loan"
	"bank-backoffice/internal/pkg/apperrors"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type LoanRepository struct {
	db     DBPool
	tx     *TxManager
	logger *slog.Logger
}

var _ loan.Repository = (*LoanRepository)(nil)

func NewLoanRepository(db DBPool, tx *TxManager, logger *slog.Logger) *LoanRepository {
	return &LoanRepository{db: db, tx: tx, logger: logger.With("component", "LoanRepository")}
}

const selectLoanSQL = `
        SELECT l.loan_number, l.amount, l.status, l.term_months, b.customer_id,
               COALESCE(lb.branch_name, ''), b.start_date, l.created_at
        FROM loan l
        JOIN borrower b ON b.loan_number = l.loan_number
        LEFT JOIN loan_branch lb ON lb.loan_number = l.loan_number`

func scanLoan(row pgx.Row) (*loan.Loan, error) {
	var (
		l      loan.Loan
		status string
	)
	if err := row.Scan(&l.Number, &l.Amount, &status, &l.TermMonths, &l.CustomerID, &l.BranchName, &l.StartDate, &l.CreatedAt); err != nil {
		return nil, err
	}
	l.Status = loan.LoanStatus(status)
	return &l, nil
}

func (r *LoanRepository) CreateLoan(ctx context.Context, l *loan.Loan) error {
	return r.tx.WithinTx(ctx, func(ctx context.Context) error {
		start := time.Now()
		q := conn(ctx, r.db)

		loanSQL := `
        INSERT INTO loan (amount, status, term_months, created_at)
        VALUES ($1, $2, $3, NOW())
        RETURNING loan_number, created_at`

		err := q.QueryRow(ctx, loanSQL, l.Amount, string(l.Status), l.TermMonths).Scan(&l.Number, &l.CreatedAt)
		observe("CreateLoan", start, err)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to insert loan", "error", err)
			return translateDBError(err, r.logger)
		}

		if _, err = q.Exec(ctx, `INSERT INTO loan_branch (loan_number, branch_name) VALUES ($1, $2)`, l.Number, l.BranchName); err != nil {
			r.logger.ErrorContext(ctx, "Failed to link loan to branch", "loan_number", l.Number, "error", err)
			return translateDBError(err, r.logger)
		}
		if _, err = q.Exec(ctx, `INSERT INTO borrower (customer_id, loan_number, start_date) VALUES ($1, $2, $3)`, l.CustomerID, l.Number, l.StartDate); err != nil {
			r.logger.ErrorContext(ctx, "Failed to link borrower", "loan_number", l.Number, "customer_id", l.CustomerID, "error", err)
			return translateDBError(err, r.logger)
		}
		r.logger.InfoContext(ctx, "Loan created in DB", "loan_number", l.Number, "customer_id", l.CustomerID)
		return nil
	})
}

func (r *LoanRepository) GetLoan(ctx context.Context, loanNumber int64) (*loan.Loan, error) {
	return r.fetchLoan(ctx, "GetLoan", selectLoanSQL+`
        WHERE l.loan_number = $1`, loanNumber)
}

func (r *LoanRepository) LockLoan(ctx context.Context, loanNumber int64) (*loan.Loan, error) {
	return r.fetchLoan(ctx, "LockLoan", selectLoanSQL+`
        WHERE l.loan_number = $1
        FOR UPDATE OF l`, loanNumber)
}

func (r *LoanRepository) fetchLoan(ctx context.Context, name, query string, loanNumber int64) (*loan.Loan, error) {
	start := time.Now()
	l, err := scanLoan(conn(ctx, r.db).QueryRow(ctx, query, loanNumber))
	observe(name, start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Loan not found", "loan_number", loanNumber)
			return nil, fmt.Errorf("%w: %d", loan.ErrLoanNotFound, loanNumber)
		}
		r.logger.ErrorContext(ctx, "Failed to get loan", "loan_number", loanNumber, "error", err)
		return nil, translateDBError(err, r.logger)
	}
	return l, nil
}

func (r *LoanRepository) SaveDecision(ctx context.Context, l *loan.Loan) error {
	return r.tx.WithinTx(ctx, func(ctx context.Context) error {
		start := time.Now()
		q := conn(ctx, r.db)

		cmdTag, err := q.Exec(ctx, `UPDATE loan SET status = $1, term_months = $2 WHERE loan_number = $3`,
			string(l.Status), l.TermMonths, l.Number)
		observe("SaveDecision", start, err)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to save loan decision", "loan_number", l.Number, "error", err)
			return translateDBError(err, r.logger)
		}
		if cmdTag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %d", loan.ErrLoanNotFound, l.Number)
		}

		if _, err = q.Exec(ctx, `UPDATE borrower SET start_date = $1 WHERE loan_number = $2`, l.StartDate, l.Number); err != nil {
			r.logger.ErrorContext(ctx, "Failed to set borrower start date", "loan_number", l.Number, "error", err)
			return translateDBError(err, r.logger)
		}
		return nil
	})
}

func (r *LoanRepository) LoansOf(ctx context.Context, customerID int64) ([]loan.Loan, error) {
	start := time.Now()
	rows, err := conn(ctx, r.db).Query(ctx, selectLoanSQL+`
        WHERE b.customer_id = $1
        ORDER BY l.loan_number ASC`, customerID)
	if err != nil {
		observe("LoansOf", start, err)
		r.logger.ErrorContext(ctx, "Failed to query customer loans", "customer_id", customerID, "error", err)
		return nil, translateDBError(err, r.logger)
	}
	defer rows.Close()

	loans := make([]loan.Loan, 0)
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			observe("LoansOf", start, err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		loans = append(loans, *l)
	}
	err = rows.Err()
	observe("LoansOf", start, err)
	if err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return loans, nil
}

func (r *LoanRepository) ApprovedLoanNumbers(ctx context.Context) ([]int64, error) {
	logCtx := r.logger.With(slog.String("operation", "ApprovedLoanNumbers"))
	logCtx.DebugContext(ctx, "Attempting to get all approved loan numbers")

	start := time.Now()
	rows, err := conn(ctx, r.db).Query(ctx, `SELECT loan_number FROM loan WHERE status = $1 ORDER BY loan_number`, string(loan.StatusApproved))
	if err != nil {
		observe("ApprovedLoanNumbers", start, err)
		logCtx.ErrorContext(ctx, "Failed to query approved loan numbers", "error", err)
		return nil, translateDBError(err, r.logger)
	}
	defer rows.Close()

	numbers, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	observe("ApprovedLoanNumbers", start, err)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to collect approved loan numbers", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	logCtx.DebugContext(ctx, "Approved loan numbers fetched", "count", len(numbers))
	return numbers, nil
}

func (r *LoanRepository) DeleteLoan(ctx context.Context, loanNumber int64) error {
	return r.tx.WithinTx(ctx, func(ctx context.Context) error {
		start := time.Now()
		q := conn(ctx, r.db)

		for _, stmt := range []string{
			`DELETE FROM payment WHERE loan_number = $1`,
			`DELETE FROM borrower WHERE loan_number = $1`,
			`DELETE FROM loan_branch WHERE loan_number = $1`,
		} {
			if _, err := q.Exec(ctx, stmt, loanNumber); err != nil {
				observe("DeleteLoan", start, err)
				r.logger.ErrorContext(ctx, "Failed to delete loan dependents", "loan_number", loanNumber, "error", err)
				return translateDBError(err, r.logger)
			}
		}

		cmdTag, err := q.Exec(ctx, `DELETE FROM loan WHERE loan_number = $1`, loanNumber)
		observe("DeleteLoan", start, err)
		if err != nil {
			return translateDBError(err, r.logger)
		}
		if cmdTag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %d", loan.ErrLoanNotFound, loanNumber)
		}
		return nil
	})
}

func (r *LoanRepository) CountPayments(ctx context.Context, loanNumber int64) (int, error) {
	start := time.Now()
	var n int
	err := conn(ctx, r.db).QueryRow(ctx, `SELECT COUNT(*) FROM payment WHERE loan_number = $1`, loanNumber).Scan(&n)
	observe("CountPayments", start, err)
	if err != nil {
		return 0, translateDBError(err, r.logger)
	}
	return n, nil
}

func (r *LoanRepository) InsertPayments(ctx context.Context, payments []loan.Payment) error {
	if len(payments) == 0 {
		return nil
	}
	start := time.Now()
	paymentSQL := `
        INSERT INTO payment (loan_number, payment_number, amount, status, due_date)
        VALUES ($1, $2, $3, $4, $5)`

	batch := &pgx.Batch{}
	for _, p := range payments {
		batch.Queue(paymentSQL, p.LoanNumber, p.Number, p.Amount, string(p.Status), p.DueDate)
	}

	results := conn(ctx, r.db).SendBatch(ctx, batch)
	for i := range payments {
		if _, err := results.Exec(); err != nil {
			results.Close()
			observe("InsertPayments", start, err)
			r.logger.ErrorContext(ctx, "Failed executing payment batch insert", "error", err, "entry_index", i, "loan_number", payments[i].LoanNumber)
			return translateDBError(err, r.logger)
		}
	}
	err := results.Close()
	observe("InsertPayments", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed closing payment batch results", "error", err)
		return fmt.Errorf("%w: closing batch results failed: %w", apperrors.ErrDatabase, err)
	}
	r.logger.InfoContext(ctx, "Payment schedule created in DB", "loan_number", payments[0].LoanNumber, "num_entries", len(payments))
	return nil
}

const selectPaymentSQL = `
        SELECT loan_number, payment_number, amount, status, made, paid_on, due_date
        FROM payment`

func scanPayment(row pgx.Row) (*loan.Payment, error) {
	var (
		p      loan.Payment
		status string
	)
	if err := row.Scan(&p.LoanNumber, &p.Number, &p.Amount, &status, &p.Made, &p.PaidOn, &p.DueDate); err != nil {
		return nil, err
	}
	p.Status = loan.PaymentStatus(status)
	return &p, nil
}

func (r *LoanRepository) ListPayments(ctx context.Context, loanNumber int64) ([]loan.Payment, error) {
	start := time.Now()
	rows, err := conn(ctx, r.db).Query(ctx, selectPaymentSQL+`
        WHERE loan_number = $1
        ORDER BY payment_number ASC`, loanNumber)
	if err != nil {
		observe("ListPayments", start, err)
		r.logger.ErrorContext(ctx, "Failed to query payment schedule", "loan_number", loanNumber, "error", err)
		return nil, translateDBError(err, r.logger)
	}
	defer rows.Close()

	payments := make([]loan.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			observe("ListPayments", start, err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		payments = append(payments, *p)
	}
	err = rows.Err()
	observe("ListPayments", start, err)
	if err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return payments, nil
}

func (r *LoanRepository) LockPayment(ctx context.Context, loanNumber int64, paymentNumber int) (*loan.Payment, error) {
	start := time.Now()
	p, err := scanPayment(conn(ctx, r.db).QueryRow(ctx, selectPaymentSQL+`
        WHERE loan_number = $1 AND payment_number = $2
        FOR UPDATE`, loanNumber, paymentNumber))
	observe("LockPayment", start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: loan %d installment %d", loan.ErrPaymentNotFound, loanNumber, paymentNumber)
		}
		return nil, translateDBError(err, r.logger)
	}
	return p, nil
}

func (r *LoanRepository) MarkPaid(ctx context.Context, loanNumber int64, paymentNumber int, made decimal.Decimal, paidOn time.Time) error {
	start := time.Now()
	query := `
        UPDATE payment
        SET status = $1, made = $2, paid_on = $3
        WHERE loan_number = $4 AND payment_number = $5 AND status = $6`

	cmdTag, err := conn(ctx, r.db).Exec(ctx, query,
		string(loan.PaymentStatusPaid), made, paidOn, loanNumber, paymentNumber, string(loan.PaymentStatusPending))
	observe("MarkPaid", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to mark installment paid", "loan_number", loanNumber, "payment_number", paymentNumber, "error", err)
		return translateDBError(err, r.logger)
	}
	if cmdTag.RowsAffected() == 0 {
		if _, err := r.LockPayment(ctx, loanNumber, paymentNumber); err != nil {
			return err
		}
		return fmt.Errorf("%w: loan %d installment %d", loan.ErrAlreadyPaid, loanNumber, paymentNumber)
	}
	return nil
}
