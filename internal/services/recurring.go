package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"famledger/internal/core"
)

// MaterializeRecurring scans the workspace for recurring transactions and
// inserts the next monthly occurrence of each once it falls due. A
// recurring series is identified by (account, type, description); only
// the latest occurrence is considered, so repeated runs are idempotent
// until another month passes. Returns the number of rows created.
func (s *LedgerService) MaterializeRecurring(ctx context.Context, workspaceID string) (int, error) {
	if err := s.ensureReady(ctx); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ws, err := s.loadLocked(ctx, workspaceID)
	if err != nil {
		return 0, err
	}

	type seriesKey struct {
		accountID   string
		txType      core.TransactionType
		description string
	}
	latest := map[seriesKey]core.Transaction{}
	for _, tx := range ws.transactions {
		if !tx.IsRecurring || tx.Status == core.StatusCancelled {
			continue
		}
		key := seriesKey{tx.AccountID, tx.Type, tx.Description}
		if prev, ok := latest[key]; !ok || tx.Date.After(prev.Date.Time) {
			latest[key] = tx
		}
	}

	now := s.now()
	created := 0
	for _, tx := range latest {
		// Due when a full calendar month has passed since the latest
		// occurrence, with short months clamped by AddMonths.
		nextDate := core.AddMonthsDate(tx.Date, 1)
		if nextDate.After(now) {
			continue
		}

		next := tx
		next.ID = uuid.NewString()
		next.Date = nextDate
		next.Status = core.StatusPending
		next.ParentTransactionID = ""
		next.TotalInstallments = 1
		next.PaidInstallments = 0
		next.CurrentInstallment = 1
		next.PurchaseDate = nextDate
		next.FirstInstallmentDate = nextDate

		inserted, err := s.store.Transactions().Insert(ctx, workspaceID, []core.Transaction{next})
		if err != nil {
			return created, fmt.Errorf("insert recurring occurrence: %w", err)
		}
		ws.transactions = append(ws.transactions, inserted...)
		created++

		slog.InfoContext(ctx, "Materialized recurring transaction",
			"workspace_id", workspaceID,
			"description", next.Description,
			"date", next.Date.Format("2006-01-02"),
			"amount_cents", next.Amount.Cents)
		s.publishEvent(ctx, workspaceID, KindTransaction, "insert", []string{next.ID})
	}

	if created > 0 {
		s.recomputeLocked(ws)
	}
	return created, nil
}
