package core

import "time"

// CardBalance is the derived state of a credit card: the bill for the
// presently open cycle and the credit remaining after reserving every
// outstanding installment.
type CardBalance struct {
	CurrentBill    Money
	AvailableLimit Money
}

// DeriveCardBalance computes a card's balance from the full transaction
// list as of ref. Outstanding means pending expense rows posted against
// the card.
//
// The two outputs are deliberately asymmetric: CurrentBill counts only
// outstanding installments inside the open billing cycle, while
// AvailableLimit reserves ALL outstanding installments across current and
// future cycles. Reserving only the current cycle would overstate the
// credit still spendable.
func DeriveCardBalance(card CreditCard, txs []Transaction, ref time.Time) CardBalance {
	window := BillingCycle(card.ClosingDay, ref)

	var bill, reserved Money
	for _, tx := range txs {
		if tx.AccountID != card.ID || tx.Type != Expense || tx.Status != StatusPending {
			continue
		}
		reserved = reserved.Add(tx.Amount)
		if window.Contains(tx.Date) {
			bill = bill.Add(tx.Amount)
		}
	}
	return CardBalance{
		CurrentBill:    bill,
		AvailableLimit: card.Limit.Sub(reserved),
	}
}

// RecomputeCards rewrites every card's derived fields from the complete
// transaction list. It runs after each transaction or card mutation; no
// incremental update is attempted, since a single edit can move a
// transaction between cycles.
func RecomputeCards(cards []CreditCard, txs []Transaction, ref time.Time) []CreditCard {
	out := make([]CreditCard, len(cards))
	for i, card := range cards {
		b := DeriveCardBalance(card, txs, ref)
		card.CurrentBill = b.CurrentBill
		card.AvailableLimit = b.AvailableLimit
		out[i] = card
	}
	return out
}
