// Package worker mirrors ledger mutations into the configured export
// target. It consumes advisory events and re-reads the store, so a lost
// or reordered message can only delay an export, never corrupt it.
package worker

import (
	"context"
	"fmt"
	"time"

	"famledger/internal/amqp"
	"famledger/internal/core"
	"famledger/internal/export"
	applog "famledger/internal/log"
	"famledger/internal/repo"
)

type SyncWorker struct {
	store  repo.Store
	writer export.TransactionWriter
	logger *applog.Logger
}

func NewSyncWorker(store repo.Store, writer export.TransactionWriter, logger *applog.Logger) *SyncWorker {
	return &SyncWorker{
		store:  store,
		writer: writer,
		logger: logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleLedgerEvent processes one mutation event. Only transaction
// inserts are exported; updates and deletes are acknowledged and
// skipped since the sheet is an append-only journal.
func (w *SyncWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	w.logger.InfoContext(ctx, "processing ledger event",
		applog.FieldWorkspaceID, msg.WorkspaceID,
		applog.FieldEventKind, msg.Kind,
		applog.FieldEventVerb, msg.Verb,
		"ids", len(msg.IDs))

	if msg.Kind != "transaction" || msg.Verb != amqp.VerbInsert {
		return nil
	}

	txs, err := w.store.Transactions().ListByWorkspace(ctx, msg.WorkspaceID)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}

	byID := make(map[string]core.Transaction, len(txs))
	for _, tx := range txs {
		byID[tx.ID] = tx
	}

	type yearMonth struct {
		year  int
		month time.Month
	}
	touched := make(map[yearMonth]struct{})

	for _, id := range msg.IDs {
		tx, ok := byID[id]
		if !ok {
			// Deleted between publish and consumption; nothing to export.
			w.logger.WarnContext(ctx, "transaction no longer in store, skipping",
				applog.FieldTransactionID, id)
			continue
		}
		ref, err := w.writer.AppendTransaction(ctx, tx)
		if err != nil {
			return fmt.Errorf("export transaction %s: %w", id, err)
		}
		touched[yearMonth{tx.Date.Year(), tx.Date.Month()}] = struct{}{}
		w.logger.InfoContext(ctx, "exported transaction",
			applog.FieldTransactionID, id,
			applog.FieldAmountCents, tx.Amount.Cents,
			"sheets_ref", ref)
	}

	ow, ok := w.writer.(export.OverviewWriter)
	if !ok {
		return nil
	}
	for ym := range touched {
		ov := monthOverview(txs, ym.year, ym.month)
		// A failed overview write is not worth requeueing the event:
		// that would duplicate journal rows, and the next insert in the
		// same month rewrites the row anyway.
		if err := ow.WriteMonthOverview(ctx, ov); err != nil {
			w.logger.WarnContext(ctx, "month overview update failed",
				applog.FieldError, err, "year", ym.year, "month", int(ym.month))
			continue
		}
		w.logger.InfoContext(ctx, "month overview updated",
			"year", ym.year, "month", int(ym.month))
	}

	return nil
}

// monthOverview aggregates one calendar month of the workspace's rows.
func monthOverview(txs []core.Transaction, year int, month time.Month) export.MonthOverview {
	var inMonth []core.Transaction
	for _, tx := range txs {
		if tx.Date.Year() == year && tx.Date.Month() == month {
			inMonth = append(inMonth, tx)
		}
	}
	return export.MonthOverview{
		Year:        year,
		Month:       month,
		Income:      core.IncomeForPeriod(inMonth),
		Expenses:    core.ExpensesForPeriod(inMonth),
		SavingsRate: core.SavingsRate(inMonth),
	}
}
