package session

import (
	"sync"
	"testing"
	"time"

	"chatledger/internal/cache"
)

func TestHandleLifecycle(t *testing.T) {
	s := NewStore(100, time.Hour)

	h := s.Acquire(42)
	if _, ok := h.Load(); ok {
		t.Fatalf("Load() on fresh chat should miss")
	}

	h.Save(Session{Step: StepLastName})
	got, ok := h.Load()
	if !ok || got.Step != StepLastName {
		t.Fatalf("Load() = %+v, %v; want step %q", got, ok, StepLastName)
	}
	if got.UpdatedAt.IsZero() {
		t.Fatalf("Save() should stamp UpdatedAt")
	}

	h.Clear()
	if _, ok := h.Load(); ok {
		t.Fatalf("Load() after Clear should miss")
	}
	h.Release()
	h.Release()

	// The shard is free again.
	s.Acquire(42).Release()
}

func TestIdleExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	s := NewStore(100, 30*time.Minute).WithClock(clock)

	h := s.Acquire(1)
	h.Save(Session{Step: StepAwaitingAmount, Expense: ExpenseDraft{CategoryID: 3, CategoryName: "Other"}})
	h.Release()

	mu.Lock()
	now = now.Add(31 * time.Minute)
	mu.Unlock()

	m := cache.NewManager()
	m.Register(s)
	defer m.Stop()
	if n := m.CleanAll(); n != 1 {
		t.Fatalf("CleanAll() = %d, want 1", n)
	}
	if s.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", s.Len())
	}
}

func TestAcquireSerializesSameChat(t *testing.T) {
	s := NewStore(100, time.Hour)

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h := s.Acquire(7)
			defer h.Release()

			// read, compute, write as one critical section
			sess, _ := h.Load()
			sess.Expense.CategoryID++
			h.Save(sess)
		}()
	}
	wg.Wait()

	h := s.Acquire(7)
	defer h.Release()
	sess, _ := h.Load()
	if sess.Expense.CategoryID != workers {
		t.Fatalf("counter = %d, want %d (lost update)", sess.Expense.CategoryID, workers)
	}
}

func TestAcquireDifferentChatsIndependent(t *testing.T) {
	s := NewStore(100, time.Hour)

	a := s.Acquire(1)
	defer a.Release()

	done := make(chan struct{})
	go func() {
		b := s.Acquire(2)
		b.Save(Session{Step: StepUsername})
		b.Release()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("chat 2 blocked behind chat 1")
	}
}

func TestNegativeChatIDs(t *testing.T) {
	s := NewStore(100, time.Hour)
	h := s.Acquire(-1001234567890)
	h.Save(Session{Step: StepAwaitingCategory})
	h.Release()

	h = s.Acquire(-1001234567890)
	defer h.Release()
	if sess, ok := h.Load(); !ok || sess.Step != StepAwaitingCategory {
		t.Fatalf("Load() = %+v, %v", sess, ok)
	}
}

func TestStepIsSignup(t *testing.T) {
	tests := []struct {
		step Step
		want bool
	}{
		{StepFirstName, true},
		{StepConfirmBudget, true},
		{StepAwaitingCategory, false},
		{StepAwaitingAmount, false},
		{"", false},
	}
	for _, tt := range tests {
		if got := tt.step.IsSignup(); got != tt.want {
			t.Errorf("%q.IsSignup() = %v, want %v", tt.step, got, tt.want)
		}
	}
}
