package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"

	// TypeAll is a filter-only value; transactions themselves are always
	// income or expense.
	TypeAll TransactionType = "all"

	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusCancelled TransactionStatus = "cancelled"

	AccountBank AccountKind = "bank"
	AccountCard AccountKind = "card"

	// CategoryUncategorized is the sentinel a transaction falls back to
	// when its category name matches no known category record.
	CategoryUncategorized = "uncategorized"
)

type (
	TransactionType   string
	TransactionStatus string
	AccountKind       string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is one scheduled cash movement: one row per installment,
	// not per purchase. Sibling installments of the same purchase share
	// ParentTransactionID, description, account, category and member, and
	// differ in Date, CurrentInstallment and Status.
	Transaction struct {
		ID                   string
		WorkspaceID          string
		Type                 TransactionType
		Amount               Money
		Description          string
		Category             string
		Date                 Date
		AccountID            string
		MemberID             string // empty means shared/family
		TotalInstallments    int
		PaidInstallments     int
		CurrentInstallment   int // 1-based index within the purchase
		PurchaseDate         Date
		FirstInstallmentDate Date
		ParentTransactionID  string
		Status               TransactionStatus
		IsRecurring          bool
	}

	// BankAccount carries an authoritative balance, mutated directly by
	// CRUD. It is never derived.
	BankAccount struct {
		ID          string
		WorkspaceID string
		HolderID    string
		Balance     Money
		AccountType string
	}

	// CreditCard holds two derived fields, CurrentBill and AvailableLimit.
	// They are pure functions of (ClosingDay, Limit, the card's pending
	// expenses) and are overwritten on every recomputation; direct writes
	// to them do not survive.
	CreditCard struct {
		ID             string
		WorkspaceID    string
		HolderID       string
		Limit          Money
		ClosingDay     int // 1-31
		DueDay         int
		CurrentBill    Money
		AvailableLimit Money
	}

	FamilyMember struct {
		ID            string
		WorkspaceID   string
		Name          string
		Role          string
		MonthlyIncome Money // informational only
	}

	Category struct {
		ID          string
		WorkspaceID string
		Name        string
	}

	// DateRange is inclusive on both ends. A nil End means open-ended
	// from Start; callers wanting a single day must pass End = Start.
	DateRange struct {
		Start Date
		End   *Date
	}

	FilterSpec struct {
		MemberID   string
		Range      *DateRange
		Type       TransactionType // TypeAll, Income or Expense
		SearchText string
	}
)

var (
	ErrInvalidAmount           = errors.New("invalid amount")
	ErrInvalidDateRange        = errors.New("invalid date range")
	ErrEmptyDescription        = errors.New("empty description")
	ErrInvalidInstallmentCount = errors.New("installment count must be at least 1")
	ErrPaidOutOfRange          = errors.New("paid installments outside [0, total]")
	ErrUnknownTransactionType  = errors.New("unknown transaction type")
	ErrTerminalStatus          = errors.New("transaction status is terminal")
)

// IsPaid reports whether the transaction has been settled. Status is
// authoritative; IsPaid is always derived from it and never accepted as
// independent input on the write path.
func (t Transaction) IsPaid() bool {
	return t.Status == StatusCompleted
}

// Terminal reports whether a status admits no further transitions.
func (s TransactionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s TransactionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (t Transaction) Validate() error {
	if t.Type != Income && t.Type != Expense {
		return ErrUnknownTransactionType
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if t.TotalInstallments < 1 {
		return ErrInvalidInstallmentCount
	}
	if t.PaidInstallments < 0 || t.PaidInstallments > t.TotalInstallments {
		return ErrPaidOutOfRange
	}
	if t.CurrentInstallment < 1 || t.CurrentInstallment > t.TotalInstallments {
		return errors.New("current installment outside [1, total]")
	}
	if !t.Status.Valid() {
		return errors.New("unknown transaction status")
	}
	return nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// NewDate creates a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day at midnight UTC.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

func (r DateRange) Validate() error {
	if err := r.Start.Validate(); err != nil {
		return ErrInvalidDateRange
	}
	if r.End != nil {
		if err := r.End.Validate(); err != nil {
			return ErrInvalidDateRange
		}
		if r.End.Before(r.Start.Time) {
			return ErrInvalidDateRange
		}
	}
	return nil
}

// Contains reports whether d falls inside the range, inclusive on both
// ends. With a nil End the range is open-ended from Start.
func (r DateRange) Contains(d Date) bool {
	if d.Before(r.Start.Time) {
		return false
	}
	if r.End == nil {
		return true
	}
	return !d.After(r.End.Time)
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}
