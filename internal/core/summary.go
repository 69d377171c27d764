package core

import "sort"

// CategoryAmount is an expense total aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// CategoryShare pairs a category total with its share of period income.
type CategoryShare struct {
	Name       string
	Amount     Money
	Percentage float64
}

// All aggregation functions take an already filtered transaction list and
// are pure, read-only summaries recomputed on demand.

// IncomeForPeriod sums income transaction amounts.
func IncomeForPeriod(txs []Transaction) Money {
	var total Money
	for _, tx := range txs {
		if tx.Type == Income {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// ExpensesForPeriod sums expense transaction amounts.
func ExpensesForPeriod(txs []Transaction) Money {
	var total Money
	for _, tx := range txs {
		if tx.Type == Expense {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// ExpensesByCategory groups expense transactions by category and returns
// per-category totals sorted descending by amount. Ties break on name so
// the order is deterministic.
func ExpensesByCategory(txs []Transaction) []CategoryAmount {
	totals := map[string]int64{}
	for _, tx := range txs {
		if tx.Type != Expense {
			continue
		}
		name := tx.Category
		if name == "" {
			name = CategoryUncategorized
		}
		totals[name] += tx.Amount.Cents
	}

	out := make([]CategoryAmount, 0, len(totals))
	for name, cents := range totals {
		out = append(out, CategoryAmount{Name: name, Amount: Money{Cents: cents}})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// CategoryPercentages returns each expense category's total as a share of
// period income. This is percent-of-income, not percent-of-total-expense.
// With zero or negative income every percentage is 0, never NaN, and no
// category is dropped.
func CategoryPercentages(txs []Transaction) []CategoryShare {
	income := IncomeForPeriod(txs)
	byCat := ExpensesByCategory(txs)

	out := make([]CategoryShare, len(byCat))
	for i, c := range byCat {
		share := CategoryShare{Name: c.Name, Amount: c.Amount}
		if income.Cents > 0 {
			share.Percentage = float64(c.Amount.Cents) / float64(income.Cents) * 100
		}
		out[i] = share
	}
	return out
}

// SavingsRate returns (income - expenses) / income as a percentage, or 0
// when income is zero or negative.
func SavingsRate(txs []Transaction) float64 {
	income := IncomeForPeriod(txs)
	if income.Cents <= 0 {
		return 0
	}
	expenses := ExpensesForPeriod(txs)
	return float64(income.Cents-expenses.Cents) / float64(income.Cents) * 100
}

// TotalBalance sums bank balances and subtracts card current bills, scoped
// to the accounts a member holds when memberID is set, or all accounts
// otherwise. It reads the cards' live derived CurrentBill, so it depends
// on recomputation having already run.
func TotalBalance(accounts []BankAccount, cards []CreditCard, memberID string) Money {
	var total Money
	for _, a := range accounts {
		if memberID != "" && a.HolderID != memberID {
			continue
		}
		total = total.Add(a.Balance)
	}
	for _, c := range cards {
		if memberID != "" && c.HolderID != memberID {
			continue
		}
		total = total.Sub(c.CurrentBill)
	}
	return total
}
