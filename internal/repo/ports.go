// Package repo defines the ports for the persistence collaborator: CRUD
// over four record kinds, every call scoped by a workspace identifier.
package repo

import (
	"context"
	"errors"

	"famledger/internal/core"
)

var ErrNotFound = errors.New("record not found")

// Account is the unified persisted shape for bank accounts and credit
// cards, distinguished by Kind. Card derived fields (current bill,
// available limit) are never persisted; they are recomputed in memory.
type Account struct {
	ID          string
	WorkspaceID string
	HolderID    string
	Kind        core.AccountKind

	// Bank fields.
	Balance     core.Money
	AccountType string

	// Card fields.
	Limit      core.Money
	ClosingDay int
	DueDay     int
}

// Patches carry only the fields to change; nil means leave untouched.
type (
	TransactionPatch struct {
		Amount           *core.Money
		Description      *string
		Category         *string
		Date             *core.Date
		AccountID        *string
		MemberID         *string
		Status           *core.TransactionStatus
		PaidInstallments *int
		IsRecurring      *bool
	}

	AccountPatch struct {
		HolderID    *string
		Balance     *core.Money
		AccountType *string
		Limit       *core.Money
		ClosingDay  *int
		DueDay      *int
	}

	MemberPatch struct {
		Name          *string
		Role          *string
		MonthlyIncome *core.Money
	}

	CategoryPatch struct {
		Name *string
	}
)

type (
	TransactionStore interface {
		Insert(ctx context.Context, workspaceID string, txs []core.Transaction) ([]core.Transaction, error)
		Update(ctx context.Context, workspaceID, id string, patch TransactionPatch) (core.Transaction, error)
		Delete(ctx context.Context, workspaceID, id string) error
		// DeleteByAccount removes every transaction posted against the
		// account; used by the card-reset path.
		DeleteByAccount(ctx context.Context, workspaceID, accountID string) error
		ListByWorkspace(ctx context.Context, workspaceID string) ([]core.Transaction, error)
	}

	AccountStore interface {
		Insert(ctx context.Context, workspaceID string, accounts []Account) ([]Account, error)
		Update(ctx context.Context, workspaceID, id string, patch AccountPatch) (Account, error)
		Delete(ctx context.Context, workspaceID, id string) error
		ListByWorkspace(ctx context.Context, workspaceID string) ([]Account, error)
	}

	MemberStore interface {
		Insert(ctx context.Context, workspaceID string, members []core.FamilyMember) ([]core.FamilyMember, error)
		Update(ctx context.Context, workspaceID, id string, patch MemberPatch) (core.FamilyMember, error)
		Delete(ctx context.Context, workspaceID, id string) error
		ListByWorkspace(ctx context.Context, workspaceID string) ([]core.FamilyMember, error)
	}

	CategoryStore interface {
		Insert(ctx context.Context, workspaceID string, categories []core.Category) ([]core.Category, error)
		Update(ctx context.Context, workspaceID, id string, patch CategoryPatch) (core.Category, error)
		Delete(ctx context.Context, workspaceID, id string) error
		ListByWorkspace(ctx context.Context, workspaceID string) ([]core.Category, error)
	}

	// Store aggregates the four kind stores behind one collaborator.
	Store interface {
		Transactions() TransactionStore
		Accounts() AccountStore
		Members() MemberStore
		Categories() CategoryStore
	}
)

// BankAccount converts a bank-kind record to its domain shape.
func (a Account) BankAccount() core.BankAccount {
	return core.BankAccount{
		ID:          a.ID,
		WorkspaceID: a.WorkspaceID,
		HolderID:    a.HolderID,
		Balance:     a.Balance,
		AccountType: a.AccountType,
	}
}

// CreditCard converts a card-kind record to its domain shape. Derived
// fields start zeroed and are filled by recomputation.
func (a Account) CreditCard() core.CreditCard {
	return core.CreditCard{
		ID:          a.ID,
		WorkspaceID: a.WorkspaceID,
		HolderID:    a.HolderID,
		Limit:       a.Limit,
		ClosingDay:  a.ClosingDay,
		DueDay:      a.DueDay,
	}
}

// FromBankAccount builds the unified record for a bank account.
func FromBankAccount(b core.BankAccount) Account {
	return Account{
		ID:          b.ID,
		WorkspaceID: b.WorkspaceID,
		HolderID:    b.HolderID,
		Kind:        core.AccountBank,
		Balance:     b.Balance,
		AccountType: b.AccountType,
	}
}

// FromCreditCard builds the unified record for a credit card.
func FromCreditCard(c core.CreditCard) Account {
	return Account{
		ID:          c.ID,
		WorkspaceID: c.WorkspaceID,
		HolderID:    c.HolderID,
		Kind:        core.AccountCard,
		Limit:       c.Limit,
		ClosingDay:  c.ClosingDay,
		DueDay:      c.DueDay,
	}
}
