package services

import (
	"context"
	"errors"
	"testing"

	"chatledger/internal/core"
)

type fakeStore struct {
	created []core.NewExpense
	err     error
}

func (f *fakeStore) CreateExpense(_ context.Context, e core.NewExpense) (core.Expense, error) {
	if f.err != nil {
		return core.Expense{}, f.err
	}
	f.created = append(f.created, e)
	id := e.CategoryID
	return core.Expense{ID: int64(len(f.created)), AccountID: e.AccountID, CategoryID: &id, Amount: e.Amount}, nil
}

type fakePublisher struct {
	published []int64
	err       error
	closed    bool
}

func (f *fakePublisher) PublishExpenseSync(_ context.Context, id, _, _ int64) error {
	f.published = append(f.published, id)
	return f.err
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

func TestRecordExpense(t *testing.T) {
	ctx := context.Background()
	in := core.NewExpense{AccountID: 1, CategoryID: 2, Amount: 500}

	t.Run("publishes after save", func(t *testing.T) {
		store, pub := &fakeStore{}, &fakePublisher{}
		svc := NewExpenseService(store, pub)

		got, err := svc.RecordExpense(ctx, in)
		if err != nil {
			t.Fatalf("RecordExpense() error = %v", err)
		}
		if got.Amount != 500 || len(store.created) != 1 {
			t.Fatalf("RecordExpense() = %+v, store = %+v", got, store.created)
		}
		if len(pub.published) != 1 || pub.published[0] != got.ID {
			t.Fatalf("published = %v, want [%d]", pub.published, got.ID)
		}
	})

	t.Run("publish failure does not fail the call", func(t *testing.T) {
		store, pub := &fakeStore{}, &fakePublisher{err: errors.New("broker down")}
		svc := NewExpenseService(store, pub)

		if _, err := svc.RecordExpense(ctx, in); err != nil {
			t.Fatalf("RecordExpense() error = %v", err)
		}
		if len(store.created) != 1 {
			t.Fatalf("expense should be stored despite publish failure")
		}
	})

	t.Run("nil publisher", func(t *testing.T) {
		svc := NewExpenseService(&fakeStore{}, nil)
		if _, err := svc.RecordExpense(ctx, in); err != nil {
			t.Fatalf("RecordExpense() error = %v", err)
		}
		if err := svc.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
	})

	t.Run("storage failure is returned and nothing published", func(t *testing.T) {
		pub := &fakePublisher{}
		svc := NewExpenseService(&fakeStore{err: core.ErrCategoryNotFound}, pub)

		_, err := svc.RecordExpense(ctx, in)
		if !errors.Is(err, core.ErrCategoryNotFound) {
			t.Fatalf("RecordExpense() error = %v, want ErrCategoryNotFound", err)
		}
		if len(pub.published) != 0 {
			t.Fatalf("published = %v, want none", pub.published)
		}
	})
}

func TestClose(t *testing.T) {
	pub := &fakePublisher{}
	if err := NewExpenseService(&fakeStore{}, pub).Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !pub.closed {
		t.Fatal("Close() should close the publisher")
	}
}
