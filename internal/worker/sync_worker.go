package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"chatledger/internal/amqp"
	"chatledger/internal/core"
	applog "chatledger/internal/log"
	"chatledger/internal/sheets"
	"chatledger/internal/storage"
)

// Store is the slice of the repository the mirror needs.
type Store interface {
	GetExpenseRecord(ctx context.Context, id int64) (core.ExpenseRecord, error)
	PendingSyncExpenses(ctx context.Context, olderThan time.Time, maxAttempts, limit int) ([]storage.PendingSyncExpense, error)
	SyncStatus(ctx context.Context, id int64) (string, error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncError(ctx context.Context, id int64) error
}

// Config tunes the pending sweep.
type Config struct {
	// BatchSize is the max number of expenses mirrored per sweep (default: 10)
	BatchSize int
	// Interval between sweeps (default: 1m)
	Interval time.Duration
	// MaxAttempts before an erroring expense is left alone (default: 5)
	MaxAttempts int
	// MinAge keeps the sweep away from expenses whose message is likely in flight (default: 30s)
	MinAge time.Duration
}

func DefaultConfig() Config {
	return Config{
		BatchSize:   10,
		Interval:    time.Minute,
		MaxAttempts: 5,
		MinAge:      30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	if c.Interval <= 0 {
		c.Interval = d.Interval
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.MinAge < 0 {
		c.MinAge = 0
	}
	return c
}

// SyncWorker mirrors recorded expenses to the spreadsheet.
type SyncWorker struct {
	store  Store
	sheets sheets.ExpenseWriter
	cfg    Config
	now    func() time.Time
}

func NewSyncWorker(store Store, writer sheets.ExpenseWriter, cfg Config) *SyncWorker {
	return &SyncWorker{
		store:  store,
		sheets: writer,
		cfg:    cfg.withDefaults(),
		now:    time.Now,
	}
}

// HandleSyncMessage processes a single expense sync message from AMQP.
// Redelivered messages for an already mirrored expense are acknowledged
// without writing a second row.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.ExpenseSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		applog.FieldOperation, applog.OpSync,
		applog.FieldExpenseID, msg.ID,
		"version", msg.Version)

	status, err := w.store.SyncStatus(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("check sync status: %w", err)
	}
	if status == storage.SyncStatusSynced {
		slog.DebugContext(ctx, "Expense already synced, skipping", applog.FieldExpenseID, msg.ID)
		return nil
	}

	return w.syncExpense(ctx, msg.ID)
}

// ProcessPendingExpenses mirrors expenses that were never synced or whose
// previous attempts failed. It is the fallback for lost messages.
func (w *SyncWorker) ProcessPendingExpenses(ctx context.Context) (int, error) {
	return w.processPending(ctx, w.cfg.BatchSize)
}

// StartupSyncCheck runs a larger sweep once when the worker boots.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	synced, err := w.processPending(ctx, w.cfg.BatchSize*5)
	if err != nil {
		return fmt.Errorf("startup sync check: %w", err)
	}
	slog.InfoContext(ctx, "Startup sync completed", "synced", synced)
	return nil
}

// Run sweeps pending expenses every Interval until ctx is cancelled.
func (w *SyncWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "Sync sweeper started",
		"interval", w.cfg.Interval,
		"batch_size", w.cfg.BatchSize,
		"max_attempts", w.cfg.MaxAttempts)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := w.ProcessPendingExpenses(ctx); err != nil && ctx.Err() == nil {
				slog.ErrorContext(ctx, "Pending sweep failed", applog.FieldError, err)
			}
		}
	}
}

func (w *SyncWorker) processPending(ctx context.Context, limit int) (int, error) {
	olderThan := w.now().Add(-w.cfg.MinAge)
	pending, err := w.store.PendingSyncExpenses(ctx, olderThan, w.cfg.MaxAttempts, limit)
	if err != nil {
		return 0, fmt.Errorf("get pending expenses: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	slog.InfoContext(ctx, "Processing pending expenses", "count", len(pending))

	synced := 0
	for _, p := range pending {
		if ctx.Err() != nil {
			return synced, ctx.Err()
		}
		if err := w.syncExpense(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to sync expense", applog.FieldExpenseID, p.ID, applog.FieldError, err)
			continue
		}
		synced++
	}
	return synced, nil
}

func (w *SyncWorker) syncExpense(ctx context.Context, id int64) error {
	rec, err := w.store.GetExpenseRecord(ctx, id)
	if errors.Is(err, core.ErrExpenseNotFound) {
		slog.WarnContext(ctx, "Expense no longer exists, nothing to sync", applog.FieldExpenseID, id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get expense record: %w", err)
	}

	ref, err := w.sheets.Append(ctx, rec)
	if err != nil {
		if markErr := w.store.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", applog.FieldExpenseID, id, applog.FieldError, markErr)
		}
		return fmt.Errorf("append to sheets: %w", err)
	}

	// The row is written; a bookkeeping failure only means a later sweep may
	// append it again.
	if err := w.store.MarkSynced(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", applog.FieldExpenseID, id, applog.FieldError, err)
	}

	slog.InfoContext(ctx, "Successfully synced expense",
		applog.FieldOperation, applog.OpSync,
		applog.FieldExpenseID, id,
		"sheets_ref", ref,
		applog.FieldAmount, rec.Amount)
	return nil
}
