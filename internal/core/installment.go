package core

import "github.com/shopspring/decimal"

// InstallmentPlan describes a purchase to be split into dated installments.
type InstallmentPlan struct {
	// Amount is the full purchase value; it is converted to cents once and
	// split without losing a cent to rounding.
	Amount               decimal.Decimal
	TotalInstallments    int
	FirstInstallmentDate Date
	PurchaseDate         Date
	// PaidInstallments marks how many leading installments are already
	// settled; must lie in [0, TotalInstallments].
	PaidInstallments int
}

// Installment is one scheduled sub-payment of a purchase.
type Installment struct {
	Sequence int // 1-based
	Amount   Money
	DueDate  Date
	Status   TransactionStatus
}

// ScheduleInstallments splits the plan's amount into TotalInstallments
// dated records. The total is converted to cents, divided evenly, and the
// remainder cents are front-loaded: the first `remainder` installments
// each carry one extra cent. Front-loading is a deliberate, deterministic
// tie-break; do not redistribute evenly or push the remainder to the last
// installment. Installment i is due i months after FirstInstallmentDate,
// clamped by AddMonths, and is completed when i < PaidInstallments.
func ScheduleInstallments(plan InstallmentPlan) ([]Installment, error) {
	if plan.TotalInstallments <= 0 {
		return nil, ErrInvalidInstallmentCount
	}
	if plan.PaidInstallments < 0 || plan.PaidInstallments > plan.TotalInstallments {
		return nil, ErrPaidOutOfRange
	}
	total := CentsFromDecimal(plan.Amount)
	if err := total.Validate(); err != nil {
		return nil, err
	}
	if err := plan.FirstInstallmentDate.Validate(); err != nil {
		return nil, err
	}

	n := int64(plan.TotalInstallments)
	base := total.Cents / n
	remainder := total.Cents - base*n

	out := make([]Installment, plan.TotalInstallments)
	for i := range out {
		cents := base
		if int64(i) < remainder {
			cents++
		}
		status := StatusPending
		if i < plan.PaidInstallments {
			status = StatusCompleted
		}
		out[i] = Installment{
			Sequence: i + 1,
			Amount:   Money{Cents: cents},
			DueDate:  AddMonthsDate(plan.FirstInstallmentDate, i),
			Status:   status,
		}
	}
	return out, nil
}
