package memory

import (
	"bank-backoffice/internal/domain/directory"
	"bank-backoffice/internal/domain/loan"
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
)

type DirectoryRepository struct {
	db *DB
}

var _ directory.Repository = (*DirectoryRepository)(nil)

func NewDirectoryRepository(db *DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

func (r *DirectoryRepository) CustomerProfile(ctx context.Context, customerID int64) (*directory.Profile, error) {
	var p directory.Profile
	err := r.db.view(ctx, func(t *tables) error {
		c, ok := t.customers[customerID]
		if !ok {
			return fmt.Errorf("%w: %d", directory.ErrCustomerNotFound, customerID)
		}
		p = directory.Profile{CustomerID: c.CustomerID, Name: c.Name, Email: c.Email, City: c.City}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *DirectoryRepository) BranchForCity(ctx context.Context, city string) (string, error) {
	var name string
	err := r.db.view(ctx, func(t *tables) error {
		for _, b := range t.branches {
			if strings.EqualFold(b.City, city) {
				name = b.Name
				return nil
			}
		}
		return fmt.Errorf("%w: %q", directory.ErrNoBranchForCity, city)
	})
	return name, err
}

func (r *DirectoryRepository) EmployeesInBranch(ctx context.Context, branch string) ([]int64, error) {
	ids := make([]int64, 0)
	err := r.db.view(ctx, func(t *tables) error {
		for _, e := range t.employees {
			if e.BranchName == branch {
				ids = append(ids, e.ID)
			}
		}
		return nil
	})
	slices.Sort(ids)
	return ids, err
}

func (r *DirectoryRepository) EmployeeByEmail(ctx context.Context, email string) (*directory.Employee, error) {
	var found *directory.Employee
	err := r.db.view(ctx, func(t *tables) error {
		for _, e := range t.employees {
			if e.Email != "" && strings.EqualFold(e.Email, email) {
				found = &e
				return nil
			}
		}
		return fmt.Errorf("%w: %q", directory.ErrEmployeeNotFound, email)
	})
	return found, err
}

func (r *DirectoryRepository) FindBanker(ctx context.Context, customerID int64, c directory.Context) (int64, bool, error) {
	var (
		id    int64
		found bool
	)
	err := r.db.view(ctx, func(t *tables) error {
		for _, a := range t.bankers {
			if a.CustomerID == customerID && a.Context == c {
				id, found = a.EmployeeID, true
				return nil
			}
		}
		return nil
	})
	return id, found, err
}

func (r *DirectoryRepository) AssignBanker(ctx context.Context, a directory.Assignment) (int64, error) {
	var assigned int64
	err := r.db.view(ctx, func(t *tables) error {
		for _, existing := range t.bankers {
			if existing.CustomerID == a.CustomerID && existing.Context == a.Context {
				assigned = existing.EmployeeID
				return nil
			}
		}
		t.bankers = append(t.bankers, a)
		assigned = a.EmployeeID
		return nil
	})
	return assigned, err
}

func (r *DirectoryRepository) RemoveBankers(ctx context.Context, customerID int64, contexts ...directory.Context) error {
	return r.db.view(ctx, func(t *tables) error {
		kept := t.bankers[:0:0]
		for _, a := range t.bankers {
			drop := a.CustomerID == customerID && (len(contexts) == 0 || slices.Contains(contexts, a.Context))
			if !drop {
				kept = append(kept, a)
			}
		}
		t.bankers = kept
		return nil
	})
}

func (r *DirectoryRepository) BankersOf(ctx context.Context, customerID int64) ([]directory.Assignment, error) {
	out := make([]directory.Assignment, 0)
	err := r.db.view(ctx, func(t *tables) error {
		for _, a := range t.bankers {
			if a.CustomerID == customerID {
				out = append(out, a)
			}
		}
		return nil
	})
	return out, err
}

func (r *DirectoryRepository) PrimaryAccount(ctx context.Context, customerID int64) (int64, bool, error) {
	var (
		primary int64
		found   bool
	)
	err := r.db.view(ctx, func(t *tables) error {
		for number, owner := range t.depositors {
			if owner == customerID && (!found || number < primary) {
				primary, found = number, true
			}
		}
		return nil
	})
	return primary, found, err
}

func (r *DirectoryRepository) BankerSummary(ctx context.Context, employeeID int64) (*directory.BankerSummary, error) {
	summary := &directory.BankerSummary{EmployeeID: employeeID}
	err := r.db.view(ctx, func(t *tables) error {
		if !employeeExists(t, employeeID) {
			return fmt.Errorf("%w: %d", directory.ErrEmployeeNotFound, employeeID)
		}
		accountClients := map[int64]bool{}
		loanClients := map[int64]bool{}
		customers := map[int64]bool{}
		for _, a := range t.bankers {
			if a.EmployeeID != employeeID {
				continue
			}
			customers[a.CustomerID] = true
			if a.Context == directory.ContextLoan {
				loanClients[a.CustomerID] = true
			} else {
				accountClients[a.CustomerID] = true
			}
		}
		for number, owner := range t.depositors {
			if acc, ok := t.accounts[number]; ok && accountClients[owner] {
				if hasAssignment(t, owner, employeeID, directory.Context(acc.Type)) {
					summary.TotalAccounts++
				}
			}
		}
		for _, l := range t.loans {
			if loanClients[l.CustomerID] {
				summary.TotalLoans++
				if l.Status == loan.StatusPending {
					summary.PendingLoans++
				}
			}
		}
		summary.Customers = len(customers)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func (r *DirectoryRepository) CustomersOfBanker(ctx context.Context, employeeID int64) ([]directory.Profile, error) {
	profiles := make([]directory.Profile, 0)
	err := r.db.view(ctx, func(t *tables) error {
		if !employeeExists(t, employeeID) {
			return fmt.Errorf("%w: %d", directory.ErrEmployeeNotFound, employeeID)
		}
		seen := map[int64]bool{}
		for _, a := range t.bankers {
			if a.EmployeeID != employeeID || seen[a.CustomerID] {
				continue
			}
			seen[a.CustomerID] = true
			if c, ok := t.customers[a.CustomerID]; ok {
				profiles = append(profiles, directory.Profile{CustomerID: c.CustomerID, Name: c.Name, Email: c.Email, City: c.City})
			}
		}
		return nil
	})
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].CustomerID < profiles[j].CustomerID })
	return profiles, err
}

func (r *DirectoryRepository) LoansOfBanker(ctx context.Context, employeeID int64, status string) ([]directory.BankerLoan, error) {
	out := make([]directory.BankerLoan, 0)
	err := r.db.view(ctx, func(t *tables) error {
		if !employeeExists(t, employeeID) {
			return fmt.Errorf("%w: %d", directory.ErrEmployeeNotFound, employeeID)
		}
		for _, l := range t.loans {
			if !hasAssignment(t, l.CustomerID, employeeID, directory.ContextLoan) {
				continue
			}
			if status != "" && string(l.Status) != status {
				continue
			}
			c := t.customers[l.CustomerID]
			out = append(out, directory.BankerLoan{
				LoanNumber:   l.Number,
				Amount:       l.Amount,
				Status:       string(l.Status),
				CustomerID:   l.CustomerID,
				CustomerName: c.Name,
				Email:        c.Email,
				StartDate:    l.StartDate,
				AppliedAt:    l.CreatedAt,
			})
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].LoanNumber < out[j].LoanNumber })
	return out, err
}

func (r *DirectoryRepository) AccountsInBranch(ctx context.Context, branch string) ([]directory.BranchAccount, error) {
	out := make([]directory.BranchAccount, 0)
	err := r.db.view(ctx, func(t *tables) error {
		if !slices.ContainsFunc(t.branches, func(b directory.Branch) bool { return b.Name == branch }) {
			return fmt.Errorf("%w: %q", directory.ErrBranchNotFound, branch)
		}
		for number, acc := range t.accounts {
			if acc.BranchName != branch {
				continue
			}
			out = append(out, directory.BranchAccount{
				AccountNumber: number,
				Type:          string(acc.Type),
				Balance:       acc.Balance,
				CustomerID:    t.depositors[number],
				OpenedAt:      acc.CreatedAt,
			})
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].AccountNumber < out[j].AccountNumber })
	return out, err
}

func employeeExists(t *tables, employeeID int64) bool {
	for _, e := range t.employees {
		if e.ID == employeeID {
			return true
		}
	}
	return false
}

func hasAssignment(t *tables, customerID, employeeID int64, c directory.Context) bool {
	for _, a := range t.bankers {
		if a.CustomerID == customerID && a.EmployeeID == employeeID && a.Context == c {
			return true
		}
	}
	return false
}
