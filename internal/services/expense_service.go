package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"chatledger/internal/core"
)

// ExpenseStore persists expenses.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, e core.NewExpense) (core.Expense, error)
}

// SyncPublisher announces a stored expense to the sheet mirror.
type SyncPublisher interface {
	PublishExpenseSync(ctx context.Context, id, accountID, version int64) error
}

// ExpenseService records expenses locally and then notifies the mirror.
type ExpenseService struct {
	storage   ExpenseStore
	publisher SyncPublisher
}

// NewExpenseService accepts a nil publisher when no broker is configured.
func NewExpenseService(storage ExpenseStore, publisher SyncPublisher) *ExpenseService {
	return &ExpenseService{
		storage:   storage,
		publisher: publisher,
	}
}

// RecordExpense saves the expense and publishes a sync message. A publish
// failure is logged and does not fail the call; the mirror worker's pending
// sweep picks the expense up later.
func (s *ExpenseService) RecordExpense(ctx context.Context, e core.NewExpense) (core.Expense, error) {
	saved, err := s.storage.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	if err := s.publishSyncMessage(ctx, saved); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", saved.ID,
			"account_id", saved.AccountID,
			"error", err)
	}

	return saved, nil
}

func (s *ExpenseService) publishSyncMessage(ctx context.Context, e core.Expense) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping sync message", "id", e.ID)
		return nil
	}
	// Expenses are immutable, so every message is version 1.
	return s.publisher.PublishExpenseSync(ctx, e.ID, e.AccountID, 1)
}

// Close closes the publisher if it holds a connection.
func (s *ExpenseService) Close() error {
	var errs []error
	if c, ok := s.publisher.(io.Closer); ok && c != nil {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close expense service: %w", err)
	}
	return nil
}
