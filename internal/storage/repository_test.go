package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"famledger/internal/core"
	"famledger/internal/repo"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	r, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func sampleTx(id string) core.Transaction {
	return core.Transaction{
		ID:                   id,
		WorkspaceID:          "ws-1",
		Type:                 core.Expense,
		Amount:               core.Money{Cents: 3334},
		Description:          "washing machine",
		Category:             "appliances",
		Date:                 core.NewDate(2024, 1, 31),
		AccountID:            "card-1",
		MemberID:             "m1",
		TotalInstallments:    3,
		PaidInstallments:     1,
		CurrentInstallment:   1,
		PurchaseDate:         core.NewDate(2024, 1, 30),
		FirstInstallmentDate: core.NewDate(2024, 1, 31),
		ParentTransactionID:  "parent-1",
		Status:               core.StatusCompleted,
		IsRecurring:          false,
	}
}

func TestTransactionRoundTrip(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	in := sampleTx("tx-1")
	if _, err := r.Transactions().Insert(ctx, "ws-1", []core.Transaction{in}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := r.Transactions().ListByWorkspace(ctx, "ws-1")
	if err != nil {
		t.Fatalf("ListByWorkspace: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d rows, want 1", len(got))
	}
	if got[0] != in {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got[0], in)
	}

	// Other workspaces see nothing.
	other, err := r.Transactions().ListByWorkspace(ctx, "ws-2")
	if err != nil {
		t.Fatalf("ListByWorkspace: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("workspace isolation broken: %d rows", len(other))
	}
}

func TestTransactionUpdatePatch(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	if _, err := r.Transactions().Insert(ctx, "ws-1", []core.Transaction{sampleTx("tx-1")}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	status := core.StatusCancelled
	desc := "returned purchase"
	got, err := r.Transactions().Update(ctx, "ws-1", "tx-1", repo.TransactionPatch{
		Status:      &status,
		Description: &desc,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Status != core.StatusCancelled || got.Description != desc {
		t.Errorf("patched row = %+v", got)
	}
	// Untouched fields survive.
	if got.Amount.Cents != 3334 || got.CurrentInstallment != 1 {
		t.Errorf("unpatched fields changed: %+v", got)
	}

	if _, err := r.Transactions().Update(ctx, "ws-1", "missing", repo.TransactionPatch{Status: &status}); !errors.Is(err, repo.ErrNotFound) {
		t.Errorf("update missing = %v, want ErrNotFound", err)
	}
}

func TestTransactionDeleteByAccount(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	a := sampleTx("tx-1")
	b := sampleTx("tx-2")
	b.AccountID = "card-2"
	if _, err := r.Transactions().Insert(ctx, "ws-1", []core.Transaction{a, b}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if err := r.Transactions().DeleteByAccount(ctx, "ws-1", "card-1"); err != nil {
		t.Fatalf("DeleteByAccount: %v", err)
	}
	got, _ := r.Transactions().ListByWorkspace(ctx, "ws-1")
	if len(got) != 1 || got[0].ID != "tx-2" {
		t.Errorf("surviving rows = %+v", got)
	}
}

func TestAccountRoundTripBothKinds(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	bank := repo.FromBankAccount(core.BankAccount{
		ID: "acct-1", WorkspaceID: "ws-1", HolderID: "m1",
		Balance: core.Money{Cents: 250_000}, AccountType: "checking",
	})
	card := repo.FromCreditCard(core.CreditCard{
		ID: "card-1", WorkspaceID: "ws-1", HolderID: "m2",
		Limit: core.Money{Cents: 500_000}, ClosingDay: 5, DueDay: 15,
	})
	if _, err := r.Accounts().Insert(ctx, "ws-1", []repo.Account{bank, card}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := r.Accounts().ListByWorkspace(ctx, "ws-1")
	if err != nil {
		t.Fatalf("ListByWorkspace: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d accounts, want 2", len(got))
	}
	if got[0] != bank || got[1] != card {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, []repo.Account{bank, card})
	}

	day := 12
	updated, err := r.Accounts().Update(ctx, "ws-1", "card-1", repo.AccountPatch{ClosingDay: &day})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.ClosingDay != 12 || updated.Limit.Cents != 500_000 {
		t.Errorf("updated card = %+v", updated)
	}

	if err := r.Accounts().Delete(ctx, "ws-1", "acct-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := r.Accounts().Delete(ctx, "ws-1", "acct-1"); !errors.Is(err, repo.ErrNotFound) {
		t.Errorf("double delete = %v, want ErrNotFound", err)
	}
}

func TestMemberAndCategoryStores(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	member := core.FamilyMember{
		ID: "m1", WorkspaceID: "ws-1", Name: "Ada", Role: "parent",
		MonthlyIncome: core.Money{Cents: 300_000},
	}
	if _, err := r.Members().Insert(ctx, "ws-1", []core.FamilyMember{member}); err != nil {
		t.Fatalf("Insert member: %v", err)
	}
	role := "guardian"
	got, err := r.Members().Update(ctx, "ws-1", "m1", repo.MemberPatch{Role: &role})
	if err != nil {
		t.Fatalf("Update member: %v", err)
	}
	if got.Role != "guardian" || got.Name != "Ada" {
		t.Errorf("member = %+v", got)
	}

	cat := core.Category{ID: "c1", WorkspaceID: "ws-1", Name: "food"}
	if _, err := r.Categories().Insert(ctx, "ws-1", []core.Category{cat}); err != nil {
		t.Fatalf("Insert category: %v", err)
	}
	cats, err := r.Categories().ListByWorkspace(ctx, "ws-1")
	if err != nil {
		t.Fatalf("List categories: %v", err)
	}
	if len(cats) != 1 || cats[0] != cat {
		t.Errorf("categories = %+v", cats)
	}
	if err := r.Categories().Delete(ctx, "ws-1", "c1"); err != nil {
		t.Fatalf("Delete category: %v", err)
	}
}
