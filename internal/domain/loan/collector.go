package loan

import (
	"bank-backoffice/internal/domain/ledger"
	"bank-backoffice/internal/infrastructure/monitoring"
	"bank-backoffice/internal/pkg/txn"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

// AccountResolver finds the account a customer's loan money moves through.
type AccountResolver interface {
	ResolvePrimaryAccount(ctx context.Context, customerID int64) (int64, bool, error)
}

// Collector applies installment payments. Marking the installment paid and
// debiting the account commit together or not at all.
type Collector struct {
	repo     Repository
	ledger   *ledger.Store
	accounts AccountResolver
	tx       txn.Manager
	now      func() time.Time
	logger   *slog.Logger
}

func NewCollector(repo Repository, store *ledger.Store, accounts AccountResolver, tx txn.Manager, logger *slog.Logger) *Collector {
	return &Collector{
		repo:     repo,
		ledger:   store,
		accounts: accounts,
		tx:       tx,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "paymentCollector")),
	}
}

func (c *Collector) ApplyPayment(ctx context.Context, loanNumber int64, paymentNumber int, amountPaid decimal.Decimal) (*Receipt, error) {
	if err := ledger.ValidateAmount(amountPaid); err != nil {
		return nil, err
	}

	var receipt *Receipt
	err := c.tx.WithinTx(ctx, func(ctx context.Context) error {
		l, err := c.repo.GetLoan(ctx, loanNumber)
		if err != nil {
			return err
		}
		p, err := c.repo.LockPayment(ctx, loanNumber, paymentNumber)
		if err != nil {
			return err
		}
		if p.Status == PaymentStatusPaid {
			return fmt.Errorf("%w: loan %d installment %d", ErrAlreadyPaid, loanNumber, paymentNumber)
		}
		if !amountPaid.Equal(p.Amount) {
			return fmt.Errorf("%w: expected %s, got %s", ErrPaymentAmountMismatch, p.Amount.StringFixed(2), amountPaid.StringFixed(2))
		}

		account, found, err := c.accounts.ResolvePrimaryAccount(ctx, l.CustomerID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: customer %d", ErrNoAccountToDebit, l.CustomerID)
		}

		paidOn := c.now().UTC()
		if err := c.repo.MarkPaid(ctx, loanNumber, paymentNumber, amountPaid, paidOn); err != nil {
			return err
		}
		entry, err := c.ledger.ApplyDelta(ctx, account, amountPaid.Neg(), account, ledger.EntryRepayment)
		if err != nil {
			return err
		}

		p.Status = PaymentStatusPaid
		p.Made = &amountPaid
		p.PaidOn = &paidOn
		receipt = &Receipt{Payment: *p, AccountNumber: account, Entry: entry}
		return nil
	})
	monitoring.RecordInstallmentPayment(monitoring.Outcome(err))
	if err != nil {
		c.logger.WarnContext(ctx, "Installment payment rejected", "loan_number", loanNumber, "payment_number", paymentNumber, "error", err)
		return nil, err
	}

	c.logger.InfoContext(ctx, "Installment paid", "loan_number", loanNumber, "payment_number", paymentNumber, "account_number", receipt.AccountNumber, "amount", amountPaid.String())
	return receipt, nil
}
