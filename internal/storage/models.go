package storage

import (
	"database/sql"
)

type Account struct {
	ID        int64
	FirstName sql.NullString
	LastName  sql.NullString
	Username  string
	Budget    sql.NullInt64
	CreatedAt string
}

type Category struct {
	ID        int64
	AccountID int64
	Name      string
}

type Expense struct {
	ID          int64
	AccountID   int64
	CategoryID  sql.NullInt64
	Amount      int64
	ExpenseDate string
	Note        sql.NullString
	CreatedAt   string
}

type ExpenseSync struct {
	ExpenseID int64
	Status    string
	Attempts  int64
	UpdatedAt string
}
