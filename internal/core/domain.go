package core

import (
	"errors"
	"strings"
	"time"
)

// UncategorizedLabel is reported for expenses whose category was deleted.
const UncategorizedLabel = "Uncategorized"

// DefaultCategories are seeded, in this order, for every new account.
var DefaultCategories = []string{
	"Health/Sport", "Education",
	"Utilities", "Transport",
	"Groceries", "Clothes",
	"Other",
}

type (
	// Date is a calendar day. The time part is always midnight UTC.
	Date struct {
		time.Time
	}

	// Account is keyed by the chat identifier that created it.
	Account struct {
		ID        int64
		FirstName *string
		LastName  *string
		Username  string
		Budget    *int64
		CreatedAt time.Time
	}

	NewAccount struct {
		ChatID    int64
		FirstName *string
		LastName  *string
		Username  string
		Budget    *int64
	}

	Category struct {
		ID        int64
		AccountID int64
		Name      string
	}

	// Expense amounts are whole currency units. CategoryID is nil once the
	// category it pointed to has been removed.
	Expense struct {
		ID         int64
		AccountID  int64
		CategoryID *int64
		Amount     int64
		Date       Date
		Note       *string
		CreatedAt  time.Time
	}

	NewExpense struct {
		AccountID  int64
		CategoryID int64
		Amount     int64
		Date       Date // zero means today
		Note       *string
	}

	// ExpenseRecord is an expense joined with the labels needed outside the
	// database (sheet mirror rows).
	ExpenseRecord struct {
		Expense
		Username      string
		CategoryLabel string
	}

	// CategoryTotal is one row of a spending summary.
	CategoryTotal struct {
		Label string
		Total int64
	}

	// Message is one inbound chat message.
	Message struct {
		ChatID int64
		Text   string
	}
)

var ErrInvalidDate = errors.New("invalid date")

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day t falls on in its own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a date string in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(time.DateOnly)
}

// AddDays returns the date n days later (earlier for negative n).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (e NewExpense) Validate() error {
	if e.AccountID == 0 {
		return errors.New("missing account")
	}
	if e.CategoryID == 0 {
		return ErrCategoryNotFound
	}
	if e.Amount < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (a NewAccount) Validate() error {
	if a.ChatID == 0 {
		return errors.New("missing chat id")
	}
	if strings.TrimSpace(a.Username) == "" {
		return ErrEmptyUsername
	}
	if a.Budget != nil && *a.Budget < 0 {
		return ErrInvalidAmount
	}
	return nil
}
