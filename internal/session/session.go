// Package session keeps the in-progress dialog of every chat in memory and
// serializes work on a single chat.
package session

import (
	"sync"
	"time"

	"chatledger/internal/cache"
)

// Step names the input a dialog expects next.
type Step string

const (
	StepFirstName     Step = "first_name"
	StepLastName      Step = "last_name"
	StepUsername      Step = "username"
	StepBudget        Step = "budget"
	StepConfirmBudget Step = "confirm_budget"

	StepAwaitingCategory Step = "awaiting_category"
	StepAwaitingAmount   Step = "awaiting_amount"
)

// IsSignup reports whether s belongs to the signup dialog.
func (s Step) IsSignup() bool {
	switch s {
	case StepFirstName, StepLastName, StepUsername, StepBudget, StepConfirmBudget:
		return true
	}
	return false
}

// SignupDraft holds the answers collected so far.
type SignupDraft struct {
	FirstName *string
	LastName  *string
	Username  string
}

// ExpenseDraft holds the category picked before the amount is entered.
type ExpenseDraft struct {
	CategoryID   int64
	CategoryName string
}

type Session struct {
	Step      Step
	Signup    SignupDraft
	Expense   ExpenseDraft
	UpdatedAt time.Time
}

const shardCount = 256

// Store maps chat ids to sessions. Entries expire after the idle TTL and the
// least recently used ones are dropped past the size limit.
type Store struct {
	shards  [shardCount]sync.Mutex
	entries *cache.LRUCache[int64, Session]
	now     func() time.Time
}

func NewStore(maxEntries int, idleTTL time.Duration) *Store {
	return &Store{
		entries: cache.NewLRUCache[int64, Session](maxEntries, idleTTL),
		now:     time.Now,
	}
}

// WithClock replaces the time source for both stamping and expiry.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	s.entries.WithClock(now)
	return s
}

// Acquire blocks until no other handle is held for chatID (or for a chat
// sharing its shard) and returns a handle that owns the chat's session until
// Release.
func (s *Store) Acquire(chatID int64) *Handle {
	mu := &s.shards[uint64(chatID)%shardCount]
	mu.Lock()
	return &Handle{store: s, chatID: chatID, mu: mu}
}

// CleanExpired drops idle sessions. It satisfies cache.Cleaner.
func (s *Store) CleanExpired() int {
	return s.entries.CleanExpired()
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	return s.entries.Size()
}

// Handle is the exclusive view of one chat's session. It must not be used
// after Release.
type Handle struct {
	store  *Store
	chatID int64
	mu     *sync.Mutex
	once   sync.Once
}

func (h *Handle) ChatID() int64 { return h.chatID }

// Load returns the chat's session, or false when none is in progress.
func (h *Handle) Load() (Session, bool) {
	return h.store.entries.Get(h.chatID)
}

// Save replaces the chat's session and restarts its idle timer.
func (h *Handle) Save(sess Session) {
	sess.UpdatedAt = h.store.now()
	h.store.entries.Set(h.chatID, sess)
}

// Clear ends the chat's dialog.
func (h *Handle) Clear() {
	h.store.entries.Delete(h.chatID)
}

// Release gives up the chat. Calling it more than once is a no-op.
func (h *Handle) Release() {
	h.once.Do(h.mu.Unlock)
}
