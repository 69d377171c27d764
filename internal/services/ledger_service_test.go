package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"famledger/internal/core"
	"famledger/internal/identity"
	"famledger/internal/repo"
	"famledger/internal/repo/memory"
)

const testWS = "ws-1"

func newTestService(t *testing.T) (*LedgerService, *memory.Store) {
	t.Helper()
	store := memory.New()
	svc := NewLedgerService(store, identity.Static{Session: identity.Session{UserID: "u1", WorkspaceID: testWS}}, nil)
	svc.now = func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) }
	return svc, store
}

func mustAddCard(t *testing.T, svc *LedgerService, limitCents int64, closingDay int, holderID string) string {
	t.Helper()
	id, err := svc.AddCreditCard(context.Background(), testWS, core.CreditCard{
		HolderID:   holderID,
		Limit:      core.Money{Cents: limitCents},
		ClosingDay: closingDay,
		DueDay:     15,
	})
	if err != nil {
		t.Fatalf("AddCreditCard: %v", err)
	}
	return id
}

func TestAddTransactionExpandsInstallments(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	cardID := mustAddCard(t, svc, 500_000, 5, "m1")

	parentID, err := svc.AddTransaction(ctx, testWS, TransactionInput{
		Type:              core.Expense,
		Amount:            decimal.RequireFromString("100.00"),
		Description:       "washing machine",
		Date:              core.NewDate(2024, 1, 31),
		AccountID:         cardID,
		TotalInstallments: 3,
		PaidInstallments:  1,
	})
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	txs, err := svc.GetFilteredTransactions(ctx, testWS, core.FilterSpec{Type: core.TypeAll})
	if err != nil {
		t.Fatalf("GetFilteredTransactions: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("got %d rows, want 3", len(txs))
	}

	want := []struct {
		cents  int64
		date   core.Date
		status core.TransactionStatus
	}{
		{3334, core.NewDate(2024, 1, 31), core.StatusCompleted},
		{3333, core.NewDate(2024, 2, 29), core.StatusPending},
		{3333, core.NewDate(2024, 3, 31), core.StatusPending},
	}
	for i, w := range want {
		tx := txs[i]
		if tx.Amount.Cents != w.cents || !tx.Date.Equal(w.date.Time) || tx.Status != w.status {
			t.Errorf("row %d = {%d %v %s}, want {%d %v %s}",
				i, tx.Amount.Cents, tx.Date, tx.Status, w.cents, w.date, w.status)
		}
		if tx.ParentTransactionID != parentID {
			t.Errorf("row %d parent = %q, want %q", i, tx.ParentTransactionID, parentID)
		}
		if tx.CurrentInstallment != i+1 || tx.TotalInstallments != 3 || tx.PaidInstallments != 1 {
			t.Errorf("row %d installment fields = %d/%d paid %d",
				i, tx.CurrentInstallment, tx.TotalInstallments, tx.PaidInstallments)
		}
	}
}

func TestAddTransactionRecomputesCardBalances(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	// now = 2024-03-10, closing day 5: open cycle is [03-06, 04-05].
	cardID := mustAddCard(t, svc, 100_000, 5, "m1")

	if _, err := svc.AddTransaction(ctx, testWS, TransactionInput{
		Type:        core.Expense,
		Amount:      decimal.RequireFromString("100.00"),
		Description: "groceries",
		Date:        core.NewDate(2024, 3, 20),
		AccountID:   cardID,
	}); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	if _, err := svc.AddTransaction(ctx, testWS, TransactionInput{
		Type:        core.Expense,
		Amount:      decimal.RequireFromString("100.00"),
		Description: "insurance",
		Date:        core.NewDate(2024, 4, 20), // next cycle
		AccountID:   cardID,
	}); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	cards, err := svc.ListCards(ctx, testWS)
	if err != nil {
		t.Fatalf("ListCards: %v", err)
	}
	if cards[0].CurrentBill.Cents != 10_000 {
		t.Errorf("currentBill = %d, want 10000 (current cycle only)", cards[0].CurrentBill.Cents)
	}
	if cards[0].AvailableLimit.Cents != 80_000 {
		t.Errorf("availableLimit = %d, want 80000 (all pending reserved)", cards[0].AvailableLimit.Cents)
	}
}

func TestCollaboratorFailureLeavesStateUntouched(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	cardID := mustAddCard(t, svc, 100_000, 5, "m1")

	boom := errors.New("datastore unavailable")
	store.FailNext(boom)

	_, err := svc.AddTransaction(ctx, testWS, TransactionInput{
		Type:        core.Expense,
		Amount:      decimal.RequireFromString("50.00"),
		Description: "phone bill",
		Date:        core.NewDate(2024, 3, 15),
		AccountID:   cardID,
	})
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapped %v", err, boom)
	}

	txs, err := svc.GetFilteredTransactions(ctx, testWS, core.FilterSpec{Type: core.TypeAll})
	if err != nil {
		t.Fatalf("GetFilteredTransactions: %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("local state mutated after collaborator failure: %d rows", len(txs))
	}
	cards, _ := svc.ListCards(ctx, testWS)
	if cards[0].AvailableLimit.Cents != 100_000 {
		t.Errorf("card balance changed after failed write: %d", cards[0].AvailableLimit.Cents)
	}
}

func TestMutationsRequireIdentity(t *testing.T) {
	store := memory.New()
	svc := NewLedgerService(store, identity.Static{}, nil) // never resolves
	_, err := svc.AddTransaction(context.Background(), testWS, TransactionInput{
		Type:        core.Expense,
		Amount:      decimal.RequireFromString("5.00"),
		Description: "coffee",
		Date:        core.NewDate(2024, 3, 1),
		AccountID:   "card-x",
	})
	if !errors.Is(err, identity.ErrNotReady) {
		t.Errorf("error = %v, want ErrNotReady", err)
	}
}

func TestUpdateTransactionStatusRules(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	cardID := mustAddCard(t, svc, 100_000, 5, "m1")

	id, err := svc.AddTransaction(ctx, testWS, TransactionInput{
		Type:        core.Expense,
		Amount:      decimal.RequireFromString("30.00"),
		Description: "dinner",
		Date:        core.NewDate(2024, 3, 15),
		AccountID:   cardID,
	})
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	completed := core.StatusCompleted
	if err := svc.UpdateTransaction(ctx, testWS, id, repo.TransactionPatch{Status: &completed}); err != nil {
		t.Fatalf("mark paid: %v", err)
	}

	// Settling the expense clears the pending bill.
	cards, _ := svc.ListCards(ctx, testWS)
	if cards[0].CurrentBill.Cents != 0 || cards[0].AvailableLimit.Cents != 100_000 {
		t.Errorf("balances after settle = {%d %d}, want {0 100000}",
			cards[0].CurrentBill.Cents, cards[0].AvailableLimit.Cents)
	}

	// Completed is terminal.
	pending := core.StatusPending
	err = svc.UpdateTransaction(ctx, testWS, id, repo.TransactionPatch{Status: &pending})
	if !errors.Is(err, core.ErrTerminalStatus) {
		t.Errorf("reopen terminal = %v, want ErrTerminalStatus", err)
	}
}

func TestUpdatePaidInstallmentsDoesNotCascade(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	cardID := mustAddCard(t, svc, 500_000, 5, "m1")

	parentID, err := svc.AddTransaction(ctx, testWS, TransactionInput{
		Type:              core.Expense,
		Amount:            decimal.RequireFromString("90.00"),
		Description:       "sofa",
		Date:              core.NewDate(2024, 3, 15),
		AccountID:         cardID,
		TotalInstallments: 3,
	})
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	paid := 2
	if err := svc.UpdateTransaction(ctx, testWS, parentID, repo.TransactionPatch{PaidInstallments: &paid}); err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}

	txs, _ := svc.GetFilteredTransactions(ctx, testWS, core.FilterSpec{Type: core.TypeAll})
	if txs[0].PaidInstallments != 2 {
		t.Errorf("updated row paidInstallments = %d, want 2", txs[0].PaidInstallments)
	}
	// Sibling rows keep their own denormalized copy and their status.
	for _, tx := range txs[1:] {
		if tx.PaidInstallments != 0 {
			t.Errorf("sibling paidInstallments = %d, want 0 (no cascade)", tx.PaidInstallments)
		}
		if tx.Status != core.StatusPending {
			t.Errorf("sibling status = %s, want pending (no cascade)", tx.Status)
		}
	}
}

func TestUnknownCategoryFallsBackToUncategorized(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	cardID := mustAddCard(t, svc, 100_000, 5, "m1")

	if _, err := svc.AddCategory(ctx, testWS, "Food"); err != nil {
		t.Fatalf("AddCategory: %v", err)
	}

	known, err := svc.AddTransaction(ctx, testWS, TransactionInput{
		Type: core.Expense, Amount: decimal.RequireFromString("10.00"),
		Description: "pizza", Category: "food",
		Date: core.NewDate(2024, 3, 8), AccountID: cardID,
	})
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	unknown, err := svc.AddTransaction(ctx, testWS, TransactionInput{
		Type: core.Expense, Amount: decimal.RequireFromString("10.00"),
		Description: "mystery", Category: "no-such-category",
		Date: core.NewDate(2024, 3, 9), AccountID: cardID,
	})
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	txs, _ := svc.GetFilteredTransactions(ctx, testWS, core.FilterSpec{Type: core.TypeAll})
	byID := map[string]core.Transaction{}
	for _, tx := range txs {
		byID[tx.ID] = tx
	}
	if got := byID[known].Category; got != "Food" {
		t.Errorf("known category resolved to %q, want Food", got)
	}
	if got := byID[unknown].Category; got != core.CategoryUncategorized {
		t.Errorf("unknown category resolved to %q, want %q", got, core.CategoryUncategorized)
	}
}

func TestResetCardTransactions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	cardID := mustAddCard(t, svc, 100_000, 5, "m1")
	otherID := mustAddCard(t, svc, 50_000, 5, "m2")

	for _, acct := range []string{cardID, cardID, otherID} {
		if _, err := svc.AddTransaction(ctx, testWS, TransactionInput{
			Type: core.Expense, Amount: decimal.RequireFromString("20.00"),
			Description: "spend", Date: core.NewDate(2024, 3, 15), AccountID: acct,
		}); err != nil {
			t.Fatalf("AddTransaction: %v", err)
		}
	}

	if err := svc.ResetCardTransactions(ctx, testWS, cardID); err != nil {
		t.Fatalf("ResetCardTransactions: %v", err)
	}

	txs, _ := svc.GetFilteredTransactions(ctx, testWS, core.FilterSpec{Type: core.TypeAll})
	if len(txs) != 1 || txs[0].AccountID != otherID {
		t.Fatalf("expected only the other card's transaction to survive, got %d", len(txs))
	}
	cards, _ := svc.ListCards(ctx, testWS)
	for _, c := range cards {
		if c.ID == cardID && (c.CurrentBill.Cents != 0 || c.AvailableLimit.Cents != 100_000) {
			t.Errorf("reset card balances = {%d %d}, want {0 100000}", c.CurrentBill.Cents, c.AvailableLimit.Cents)
		}
	}
}

func TestClosingDayChangeRecomputesBill(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	// now = 2024-03-10. Closing day 5: cycle [03-06, 04-05].
	cardID := mustAddCard(t, svc, 100_000, 5, "m1")

	if _, err := svc.AddTransaction(ctx, testWS, TransactionInput{
		Type: core.Expense, Amount: decimal.RequireFromString("100.00"),
		Description: "flight", Date: core.NewDate(2024, 4, 9), AccountID: cardID,
	}); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	cards, _ := svc.ListCards(ctx, testWS)
	// Cycle [03-06, 04-05] excludes the 04-09 purchase from the bill, but
	// the pending amount still reserves credit.
	if cards[0].CurrentBill.Cents != 0 {
		t.Fatalf("bill = %d, want 0 for tx outside cycle ending 04-05", cards[0].CurrentBill.Cents)
	}
	if cards[0].AvailableLimit.Cents != 90_000 {
		t.Fatalf("availableLimit = %d, want 90000", cards[0].AvailableLimit.Cents)
	}

	// Closing day 9 from ref 03-10 opens the cycle [03-10, 04-09], which
	// now contains the purchase.
	day := 9
	if err := svc.UpdateAccount(ctx, testWS, cardID, repo.AccountPatch{ClosingDay: &day}); err != nil {
		t.Fatalf("UpdateAccount: %v", err)
	}
	cards, _ = svc.ListCards(ctx, testWS)
	if cards[0].ClosingDay != 9 {
		t.Fatalf("closingDay = %d, want 9", cards[0].ClosingDay)
	}
	if cards[0].CurrentBill.Cents != 10_000 {
		t.Errorf("bill = %d, want 10000 after closing-day change", cards[0].CurrentBill.Cents)
	}
	if cards[0].AvailableLimit.Cents != 90_000 {
		t.Errorf("availableLimit = %d, want 90000 (unchanged reserve)", cards[0].AvailableLimit.Cents)
	}
}

func TestTotalBalanceUsesDerivedBills(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.AddBankAccount(ctx, testWS, core.BankAccount{
		HolderID: "m1", Balance: core.Money{Cents: 500_000}, AccountType: "checking",
	}); err != nil {
		t.Fatalf("AddBankAccount: %v", err)
	}
	cardID := mustAddCard(t, svc, 100_000, 5, "m1")
	if _, err := svc.AddTransaction(ctx, testWS, TransactionInput{
		Type: core.Expense, Amount: decimal.RequireFromString("100.00"),
		Description: "groceries", Date: core.NewDate(2024, 3, 20), AccountID: cardID,
	}); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	got, err := svc.CalculateTotalBalance(ctx, testWS, "")
	if err != nil {
		t.Fatalf("CalculateTotalBalance: %v", err)
	}
	if got.Cents != 490_000 {
		t.Errorf("total balance = %d, want 490000 (bank - current bill)", got.Cents)
	}

	other, err := svc.CalculateTotalBalance(ctx, testWS, "m2")
	if err != nil {
		t.Fatalf("CalculateTotalBalance: %v", err)
	}
	if other.Cents != 0 {
		t.Errorf("m2 balance = %d, want 0", other.Cents)
	}
}

func TestAggregationQueries(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	cardID := mustAddCard(t, svc, 500_000, 5, "m1")

	entries := []TransactionInput{
		{Type: core.Income, Amount: decimal.RequireFromString("2000.00"), Description: "salary", Category: "salary", Date: core.NewDate(2024, 3, 1), AccountID: cardID},
		{Type: core.Expense, Amount: decimal.RequireFromString("500.00"), Description: "rent march", Category: "rent", Date: core.NewDate(2024, 3, 2), AccountID: cardID},
		{Type: core.Expense, Amount: decimal.RequireFromString("250.00"), Description: "groceries", Category: "food", Date: core.NewDate(2024, 3, 9), AccountID: cardID},
	}
	for _, in := range entries {
		if _, err := svc.AddTransaction(ctx, testWS, in); err != nil {
			t.Fatalf("AddTransaction: %v", err)
		}
	}

	spec := core.FilterSpec{Type: core.TypeAll}
	income, _ := svc.CalculateIncomeForPeriod(ctx, testWS, spec)
	if income.Cents != 200_000 {
		t.Errorf("income = %d, want 200000", income.Cents)
	}
	expenses, _ := svc.CalculateExpensesForPeriod(ctx, testWS, spec)
	if expenses.Cents != 75_000 {
		t.Errorf("expenses = %d, want 75000", expenses.Cents)
	}

	byCat, _ := svc.CalculateExpensesByCategory(ctx, testWS, spec)
	// Category names resolve to uncategorized because no category records
	// exist; totals still aggregate.
	if len(byCat) != 1 || byCat[0].Name != core.CategoryUncategorized || byCat[0].Amount.Cents != 75_000 {
		t.Errorf("byCategory = %+v", byCat)
	}

	rate, _ := svc.CalculateSavingsRate(ctx, testWS, spec)
	if rate != 62.5 {
		t.Errorf("savings rate = %v, want 62.5", rate)
	}

	shares, _ := svc.CalculateCategoryPercentage(ctx, testWS, spec)
	if len(shares) != 1 || shares[0].Percentage != 37.5 {
		t.Errorf("shares = %+v, want 37.5%% of income", shares)
	}
}

func TestMaterializeRecurring(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	cardID := mustAddCard(t, svc, 500_000, 5, "m1")

	if _, err := svc.AddTransaction(ctx, testWS, TransactionInput{
		Type: core.Expense, Amount: decimal.RequireFromString("9.99"),
		Description: "streaming", Date: core.NewDate(2024, 1, 31),
		AccountID: cardID, IsRecurring: true,
	}); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	// now = 2024-03-10: occurrences for 02-29 and then 03-31 would be next;
	// one call materializes exactly one step.
	created, err := svc.MaterializeRecurring(ctx, testWS)
	if err != nil {
		t.Fatalf("MaterializeRecurring: %v", err)
	}
	if created != 1 {
		t.Fatalf("created = %d, want 1", created)
	}

	txs, _ := svc.GetFilteredTransactions(ctx, testWS, core.FilterSpec{Type: core.TypeAll})
	if len(txs) != 2 {
		t.Fatalf("rows = %d, want 2", len(txs))
	}
	next := txs[1]
	if !next.Date.Equal(core.NewDate(2024, 2, 29).Time) {
		t.Errorf("next occurrence date = %v, want 2024-02-29 (clamped)", next.Date)
	}
	if next.Status != core.StatusPending || !next.IsRecurring {
		t.Errorf("next occurrence = %s recurring=%v", next.Status, next.IsRecurring)
	}

	// The 03-31 occurrence is not due yet on 03-10.
	created, err = svc.MaterializeRecurring(ctx, testWS)
	if err != nil {
		t.Fatalf("MaterializeRecurring: %v", err)
	}
	if created != 0 {
		t.Errorf("second run created = %d, want 0", created)
	}
}
