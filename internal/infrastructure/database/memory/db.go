// Package memory is an in-process implementation of every repository and of
// txn.Manager. Transactions are serialized by one mutex and roll back by
// restoring a snapshot of all tables.
package memory

import (
	"bank-backoffice/internal/domain/customer"
	"bank-backoffice/internal/domain/directory"
	"bank-backoffice/internal/domain/ledger"
	"bank-backoffice/internal/domain/loan"
	"bank-backoffice/internal/pkg/txn"
	"context"
	"slices"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type txKey struct{}

type tables struct {
	customers  map[int64]customer.Customer
	accounts   map[int64]ledger.Account
	depositors map[int64]int64
	entries    []ledger.Entry
	loans      map[int64]loan.Loan
	payments   map[int64][]loan.Payment
	bankers    []directory.Assignment
	branches   []directory.Branch
	employees  []directory.Employee
}

func (t *tables) clone() tables {
	c := tables{
		customers:  make(map[int64]customer.Customer, len(t.customers)),
		accounts:   make(map[int64]ledger.Account, len(t.accounts)),
		depositors: make(map[int64]int64, len(t.depositors)),
		entries:    slices.Clone(t.entries),
		loans:      make(map[int64]loan.Loan, len(t.loans)),
		payments:   make(map[int64][]loan.Payment, len(t.payments)),
		bankers:    slices.Clone(t.bankers),
		branches:   slices.Clone(t.branches),
		employees:  slices.Clone(t.employees),
	}
	for k, v := range t.customers {
		c.customers[k] = v
	}
	for k, v := range t.accounts {
		c.accounts[k] = v
	}
	for k, v := range t.depositors {
		c.depositors[k] = v
	}
	for k, v := range t.loans {
		c.loans[k] = v
	}
	for k, v := range t.payments {
		c.payments[k] = slices.Clone(v)
	}
	return c
}

type DB struct {
	mu  sync.Mutex
	t   tables
	now func() time.Time

	nextCustomer int64
	nextAccount  int64
	nextLoan     int64
}

var _ txn.Manager = (*DB)(nil)

func NewDB() *DB {
	return &DB{
		t: tables{
			customers:  map[int64]customer.Customer{},
			accounts:   map[int64]ledger.Account{},
			depositors: map[int64]int64{},
			loans:      map[int64]loan.Loan{},
			payments:   map[int64][]loan.Payment{},
		},
		now:          time.Now,
		nextCustomer: 1,
		nextAccount:  100001,
		nextLoan:     500001,
	}
}

func (db *DB) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*DB)
	return owner == db
}

// WithinTx runs fn holding the store lock. Any error or panic restores the
// tables as they were before fn started.
func (db *DB) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if db.inTx(ctx) {
		return fn(ctx)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	snapshot := db.t.clone()
	defer func() {
		if r := recover(); r != nil {
			db.t = snapshot
			panic(r)
		}
		if err != nil {
			db.t = snapshot
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, db))
}

func (db *DB) view(ctx context.Context, fn func(t *tables) error) error {
	if db.inTx(ctx) {
		return fn(&db.t)
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	return fn(&db.t)
}

// AddBranch registers reference data.
func (db *DB) AddBranch(b directory.Branch) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.t.branches = append(db.t.branches, b)
}

func (db *DB) AddEmployee(e directory.Employee) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.t.employees = append(db.t.employees, e)
}

// SeedStaffPassword is the password of every seeded employee. Local runs only.
const SeedStaffPassword = "teller-pass"

// SeedReference loads a small branch and staff directory for local runs.
func (db *DB) SeedReference() {
	for _, b := range []directory.Branch{
		{Name: "Downtown", City: "Brooklyn"},
		{Name: "Harbor", City: "Boston"},
		{Name: "Lakeside", City: "Chicago"},
	} {
		db.AddBranch(b)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(SeedStaffPassword), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	for _, e := range []directory.Employee{
		{ID: 1, Name: "Ava Patel", BranchName: "Downtown", Email: "ava.patel@bank.local"},
		{ID: 2, Name: "Noah Kim", BranchName: "Downtown", Email: "noah.kim@bank.local"},
		{ID: 3, Name: "Mia Lopez", BranchName: "Harbor", Email: "mia.lopez@bank.local"},
		{ID: 4, Name: "Liam Chen", BranchName: "Lakeside", Email: "liam.chen@bank.local"},
	} {
		e.PasswordHash = string(hash)
		db.AddEmployee(e)
	}
}
