// Package storage implements the persistence ports on SQLite. The schema
// is managed by embedded golang-migrate migrations; one table per record
// kind, all rows scoped by workspace id.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"famledger/internal/core"
	"famledger/internal/repo"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

var _ repo.Store = (*SQLiteRepository)(nil)

func (r *SQLiteRepository) Transactions() repo.TransactionStore { return (*txRepo)(r) }
func (r *SQLiteRepository) Accounts() repo.AccountStore         { return (*accountRepo)(r) }
func (r *SQLiteRepository) Members() repo.MemberStore           { return (*memberRepo)(r) }
func (r *SQLiteRepository) Categories() repo.CategoryStore      { return (*categoryRepo)(r) }

type txRepo SQLiteRepository

func (r *txRepo) Insert(ctx context.Context, workspaceID string, txs []core.Transaction) ([]core.Transaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback()

	const q = `INSERT INTO transactions (
		id, workspace_id, type, amount_cents, description, category, date,
		account_id, member_id, total_installments, paid_installments,
		current_installment, purchase_date, first_installment_date,
		parent_transaction_id, status, is_recurring
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for _, row := range txs {
		_, err := tx.ExecContext(ctx, q,
			row.ID, workspaceID, string(row.Type), row.Amount.Cents,
			row.Description, row.Category, row.Date.Format(dateLayout),
			row.AccountID, row.MemberID, row.TotalInstallments,
			row.PaidInstallments, row.CurrentInstallment,
			row.PurchaseDate.Format(dateLayout),
			row.FirstInstallmentDate.Format(dateLayout),
			row.ParentTransactionID, string(row.Status), row.IsRecurring,
		)
		if err != nil {
			return nil, fmt.Errorf("insert transaction %s: %w", row.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit insert: %w", err)
	}
	return txs, nil
}

func (r *txRepo) Update(ctx context.Context, workspaceID, id string, patch repo.TransactionPatch) (core.Transaction, error) {
	set := []string{"updated_at = datetime('now')"}
	args := []any{}
	add := func(col string, v any) {
		set = append(set, col+" = ?")
		args = append(args, v)
	}
	if patch.Amount != nil {
		add("amount_cents", patch.Amount.Cents)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Category != nil {
		add("category", *patch.Category)
	}
	if patch.Date != nil {
		add("date", patch.Date.Format(dateLayout))
	}
	if patch.AccountID != nil {
		add("account_id", *patch.AccountID)
	}
	if patch.MemberID != nil {
		add("member_id", *patch.MemberID)
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	if patch.PaidInstallments != nil {
		add("paid_installments", *patch.PaidInstallments)
	}
	if patch.IsRecurring != nil {
		add("is_recurring", *patch.IsRecurring)
	}

	q := "UPDATE transactions SET " + strings.Join(set, ", ") + " WHERE workspace_id = ? AND id = ?"
	args = append(args, workspaceID, id)
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Transaction{}, repo.ErrNotFound
	}
	return r.get(ctx, workspaceID, id)
}

func (r *txRepo) get(ctx context.Context, workspaceID, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, txSelect+" WHERE workspace_id = ? AND id = ?", workspaceID, id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, repo.ErrNotFound
	}
	return tx, err
}

func (r *txRepo) Delete(ctx context.Context, workspaceID, id string) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM transactions WHERE workspace_id = ? AND id = ?", workspaceID, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *txRepo) DeleteByAccount(ctx context.Context, workspaceID, accountID string) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM transactions WHERE workspace_id = ? AND account_id = ?", workspaceID, accountID)
	if err != nil {
		return fmt.Errorf("delete transactions by account: %w", err)
	}
	return nil
}

const txSelect = `SELECT id, workspace_id, type, amount_cents, description,
	category, date, account_id, member_id, total_installments,
	paid_installments, current_installment, purchase_date,
	first_installment_date, parent_transaction_id, status, is_recurring
	FROM transactions`

func (r *txRepo) ListByWorkspace(ctx context.Context, workspaceID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		txSelect+" WHERE workspace_id = ? ORDER BY date, current_installment, id", workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx                              core.Transaction
		typ, status, date, purch, first string
		cents                           int64
	)
	err := row.Scan(&tx.ID, &tx.WorkspaceID, &typ, &cents, &tx.Description,
		&tx.Category, &date, &tx.AccountID, &tx.MemberID,
		&tx.TotalInstallments, &tx.PaidInstallments, &tx.CurrentInstallment,
		&purch, &first, &tx.ParentTransactionID, &status, &tx.IsRecurring)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.Type = core.TransactionType(typ)
	tx.Status = core.TransactionStatus(status)
	tx.Amount = core.Money{Cents: cents}
	if tx.Date, err = parseDate(date); err != nil {
		return core.Transaction{}, err
	}
	if tx.PurchaseDate, err = parseDate(purch); err != nil {
		return core.Transaction{}, err
	}
	if tx.FirstInstallmentDate, err = parseDate(first); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

func parseDate(s string) (core.Date, error) {
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return core.Date{}, fmt.Errorf("parse stored date %q: %w", s, err)
	}
	return core.Date{Time: t}, nil
}

type accountRepo SQLiteRepository

func (r *accountRepo) Insert(ctx context.Context, workspaceID string, accounts []repo.Account) ([]repo.Account, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback()

	const q = `INSERT INTO accounts (
		id, workspace_id, holder_id, kind, balance_cents, account_type,
		limit_cents, closing_day, due_day
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, a := range accounts {
		_, err := tx.ExecContext(ctx, q,
			a.ID, workspaceID, a.HolderID, string(a.Kind), a.Balance.Cents,
			a.AccountType, a.Limit.Cents, a.ClosingDay, a.DueDay)
		if err != nil {
			return nil, fmt.Errorf("insert account %s: %w", a.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit insert: %w", err)
	}
	return accounts, nil
}

func (r *accountRepo) Update(ctx context.Context, workspaceID, id string, patch repo.AccountPatch) (repo.Account, error) {
	set := []string{"updated_at = datetime('now')"}
	args := []any{}
	add := func(col string, v any) {
		set = append(set, col+" = ?")
		args = append(args, v)
	}
	if patch.HolderID != nil {
		add("holder_id", *patch.HolderID)
	}
	if patch.Balance != nil {
		add("balance_cents", patch.Balance.Cents)
	}
	if patch.AccountType != nil {
		add("account_type", *patch.AccountType)
	}
	if patch.Limit != nil {
		add("limit_cents", patch.Limit.Cents)
	}
	if patch.ClosingDay != nil {
		add("closing_day", *patch.ClosingDay)
	}
	if patch.DueDay != nil {
		add("due_day", *patch.DueDay)
	}

	q := "UPDATE accounts SET " + strings.Join(set, ", ") + " WHERE workspace_id = ? AND id = ?"
	args = append(args, workspaceID, id)
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return repo.Account{}, fmt.Errorf("update account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repo.Account{}, repo.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, accountSelect+" WHERE workspace_id = ? AND id = ?", workspaceID, id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return repo.Account{}, repo.ErrNotFound
	}
	return a, err
}

func (r *accountRepo) Delete(ctx context.Context, workspaceID, id string) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM accounts WHERE workspace_id = ? AND id = ?", workspaceID, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repo.ErrNotFound
	}
	return nil
}

const accountSelect = `SELECT id, workspace_id, holder_id, kind,
	balance_cents, account_type, limit_cents, closing_day, due_day
	FROM accounts`

func (r *accountRepo) ListByWorkspace(ctx context.Context, workspaceID string) ([]repo.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		accountSelect+" WHERE workspace_id = ? ORDER BY created_at, id", workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []repo.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAccount(row rowScanner) (repo.Account, error) {
	var (
		a              repo.Account
		kind           string
		balance, limit int64
	)
	err := row.Scan(&a.ID, &a.WorkspaceID, &a.HolderID, &kind,
		&balance, &a.AccountType, &limit, &a.ClosingDay, &a.DueDay)
	if err != nil {
		return repo.Account{}, err
	}
	a.Kind = core.AccountKind(kind)
	a.Balance = core.Money{Cents: balance}
	a.Limit = core.Money{Cents: limit}
	return a, nil
}

type memberRepo SQLiteRepository

func (r *memberRepo) Insert(ctx context.Context, workspaceID string, members []core.FamilyMember) ([]core.FamilyMember, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback()

	const q = `INSERT INTO members (id, workspace_id, name, role, monthly_income_cents)
		VALUES (?, ?, ?, ?, ?)`
	for _, m := range members {
		if _, err := tx.ExecContext(ctx, q, m.ID, workspaceID, m.Name, m.Role, m.MonthlyIncome.Cents); err != nil {
			return nil, fmt.Errorf("insert member %s: %w", m.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit insert: %w", err)
	}
	return members, nil
}

func (r *memberRepo) Update(ctx context.Context, workspaceID, id string, patch repo.MemberPatch) (core.FamilyMember, error) {
	set := []string{}
	args := []any{}
	if patch.Name != nil {
		set = append(set, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Role != nil {
		set = append(set, "role = ?")
		args = append(args, *patch.Role)
	}
	if patch.MonthlyIncome != nil {
		set = append(set, "monthly_income_cents = ?")
		args = append(args, patch.MonthlyIncome.Cents)
	}
	if len(set) == 0 {
		return r.get(ctx, workspaceID, id)
	}

	q := "UPDATE members SET " + strings.Join(set, ", ") + " WHERE workspace_id = ? AND id = ?"
	args = append(args, workspaceID, id)
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return core.FamilyMember{}, fmt.Errorf("update member: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.FamilyMember{}, repo.ErrNotFound
	}
	return r.get(ctx, workspaceID, id)
}

func (r *memberRepo) get(ctx context.Context, workspaceID, id string) (core.FamilyMember, error) {
	var (
		m     core.FamilyMember
		cents int64
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT id, workspace_id, name, role, monthly_income_cents FROM members WHERE workspace_id = ? AND id = ?",
		workspaceID, id).Scan(&m.ID, &m.WorkspaceID, &m.Name, &m.Role, &cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.FamilyMember{}, repo.ErrNotFound
	}
	if err != nil {
		return core.FamilyMember{}, err
	}
	m.MonthlyIncome = core.Money{Cents: cents}
	return m, nil
}

func (r *memberRepo) Delete(ctx context.Context, workspaceID, id string) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM members WHERE workspace_id = ? AND id = ?", workspaceID, id)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *memberRepo) ListByWorkspace(ctx context.Context, workspaceID string) ([]core.FamilyMember, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, workspace_id, name, role, monthly_income_cents FROM members WHERE workspace_id = ? ORDER BY created_at, id",
		workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var out []core.FamilyMember
	for rows.Next() {
		var (
			m     core.FamilyMember
			cents int64
		)
		if err := rows.Scan(&m.ID, &m.WorkspaceID, &m.Name, &m.Role, &cents); err != nil {
			return nil, err
		}
		m.MonthlyIncome = core.Money{Cents: cents}
		out = append(out, m)
	}
	return out, rows.Err()
}

type categoryRepo SQLiteRepository

func (r *categoryRepo) Insert(ctx context.Context, workspaceID string, categories []core.Category) ([]core.Category, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback()

	for _, c := range categories {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO categories (id, workspace_id, name) VALUES (?, ?, ?)",
			c.ID, workspaceID, c.Name); err != nil {
			return nil, fmt.Errorf("insert category %s: %w", c.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit insert: %w", err)
	}
	return categories, nil
}

func (r *categoryRepo) Update(ctx context.Context, workspaceID, id string, patch repo.CategoryPatch) (core.Category, error) {
	if patch.Name != nil {
		res, err := r.db.ExecContext(ctx,
			"UPDATE categories SET name = ? WHERE workspace_id = ? AND id = ?",
			*patch.Name, workspaceID, id)
		if err != nil {
			return core.Category{}, fmt.Errorf("update category: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return core.Category{}, repo.ErrNotFound
		}
	}

	var c core.Category
	err := r.db.QueryRowContext(ctx,
		"SELECT id, workspace_id, name FROM categories WHERE workspace_id = ? AND id = ?",
		workspaceID, id).Scan(&c.ID, &c.WorkspaceID, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, repo.ErrNotFound
	}
	return c, err
}

func (r *categoryRepo) Delete(ctx context.Context, workspaceID, id string) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM categories WHERE workspace_id = ? AND id = ?", workspaceID, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *categoryRepo) ListByWorkspace(ctx context.Context, workspaceID string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, workspace_id, name FROM categories WHERE workspace_id = ? ORDER BY name",
		workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.WorkspaceID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
