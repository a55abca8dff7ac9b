package storage

import (
	"context"
	"database/sql"
)

const getAccount = `-- name: GetAccount :one
SELECT id, first_name, last_name, username, budget, created_at
FROM accounts
WHERE id = ?
`

func (q *Queries) GetAccount(ctx context.Context, id int64) (Account, error) {
	row := q.db.QueryRowContext(ctx, getAccount, id)
	var i Account
	err := row.Scan(
		&i.ID,
		&i.FirstName,
		&i.LastName,
		&i.Username,
		&i.Budget,
		&i.CreatedAt,
	)
	return i, err
}

const usernameExists = `-- name: UsernameExists :one
SELECT EXISTS (SELECT 1 FROM accounts WHERE username = ?)
`

func (q *Queries) UsernameExists(ctx context.Context, username string) (bool, error) {
	row := q.db.QueryRowContext(ctx, usernameExists, username)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const createAccount = `-- name: CreateAccount :one
INSERT INTO accounts (id, first_name, last_name, username, budget, created_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id, first_name, last_name, username, budget, created_at
`

type CreateAccountParams struct {
	ID        int64
	FirstName sql.NullString
	LastName  sql.NullString
	Username  string
	Budget    sql.NullInt64
	CreatedAt string
}

func (q *Queries) CreateAccount(ctx context.Context, arg CreateAccountParams) (Account, error) {
	row := q.db.QueryRowContext(ctx, createAccount,
		arg.ID,
		arg.FirstName,
		arg.LastName,
		arg.Username,
		arg.Budget,
		arg.CreatedAt,
	)
	var i Account
	err := row.Scan(
		&i.ID,
		&i.FirstName,
		&i.LastName,
		&i.Username,
		&i.Budget,
		&i.CreatedAt,
	)
	return i, err
}

const createCategory = `-- name: CreateCategory :one
INSERT INTO categories (account_id, name)
VALUES (?, ?)
RETURNING id, account_id, name
`

type CreateCategoryParams struct {
	AccountID int64
	Name      string
}

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	row := q.db.QueryRowContext(ctx, createCategory, arg.AccountID, arg.Name)
	var i Category
	err := row.Scan(&i.ID, &i.AccountID, &i.Name)
	return i, err
}

const listCategories = `-- name: ListCategories :many
SELECT id, account_id, name
FROM categories
WHERE account_id = ?
ORDER BY id
`

func (q *Queries) ListCategories(ctx context.Context, accountID int64) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, listCategories, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		var i Category
		if err := rows.Scan(&i.ID, &i.AccountID, &i.Name); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getCategoryByName = `-- name: GetCategoryByName :one
SELECT id, account_id, name
FROM categories
WHERE account_id = ? AND name = ?
`

type GetCategoryByNameParams struct {
	AccountID int64
	Name      string
}

func (q *Queries) GetCategoryByName(ctx context.Context, arg GetCategoryByNameParams) (Category, error) {
	row := q.db.QueryRowContext(ctx, getCategoryByName, arg.AccountID, arg.Name)
	var i Category
	err := row.Scan(&i.ID, &i.AccountID, &i.Name)
	return i, err
}

const getCategoryForAccount = `-- name: GetCategoryForAccount :one
SELECT id, account_id, name
FROM categories
WHERE id = ? AND account_id = ?
`

type GetCategoryForAccountParams struct {
	ID        int64
	AccountID int64
}

func (q *Queries) GetCategoryForAccount(ctx context.Context, arg GetCategoryForAccountParams) (Category, error) {
	row := q.db.QueryRowContext(ctx, getCategoryForAccount, arg.ID, arg.AccountID)
	var i Category
	err := row.Scan(&i.ID, &i.AccountID, &i.Name)
	return i, err
}

const detachCategoryExpenses = `-- name: DetachCategoryExpenses :execrows
UPDATE expenses
SET category_id = NULL
WHERE category_id = ?
`

func (q *Queries) DetachCategoryExpenses(ctx context.Context, categoryID int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, detachCategoryExpenses, categoryID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteCategory = `-- name: DeleteCategory :execrows
DELETE FROM categories
WHERE id = ?
`

func (q *Queries) DeleteCategory(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteCategory, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const createExpense = `-- name: CreateExpense :one
INSERT INTO expenses (account_id, category_id, amount, expense_date, note, created_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id, account_id, category_id, amount, expense_date, note, created_at
`

type CreateExpenseParams struct {
	AccountID   int64
	CategoryID  sql.NullInt64
	Amount      int64
	ExpenseDate string
	Note        sql.NullString
	CreatedAt   string
}

func (q *Queries) CreateExpense(ctx context.Context, arg CreateExpenseParams) (Expense, error) {
	row := q.db.QueryRowContext(ctx, createExpense,
		arg.AccountID,
		arg.CategoryID,
		arg.Amount,
		arg.ExpenseDate,
		arg.Note,
		arg.CreatedAt,
	)
	var i Expense
	err := row.Scan(
		&i.ID,
		&i.AccountID,
		&i.CategoryID,
		&i.Amount,
		&i.ExpenseDate,
		&i.Note,
		&i.CreatedAt,
	)
	return i, err
}

const getExpense = `-- name: GetExpense :one
SELECT id, account_id, category_id, amount, expense_date, note, created_at
FROM expenses
WHERE id = ?
`

func (q *Queries) GetExpense(ctx context.Context, id int64) (Expense, error) {
	row := q.db.QueryRowContext(ctx, getExpense, id)
	var i Expense
	err := row.Scan(
		&i.ID,
		&i.AccountID,
		&i.CategoryID,
		&i.Amount,
		&i.ExpenseDate,
		&i.Note,
		&i.CreatedAt,
	)
	return i, err
}

const listExpensesByAccount = `-- name: ListExpensesByAccount :many
SELECT id, account_id, category_id, amount, expense_date, note, created_at
FROM expenses
WHERE account_id = ?
ORDER BY id
`

func (q *Queries) ListExpensesByAccount(ctx context.Context, accountID int64) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, listExpensesByAccount, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Expense
	for rows.Next() {
		var i Expense
		if err := rows.Scan(
			&i.ID,
			&i.AccountID,
			&i.CategoryID,
			&i.Amount,
			&i.ExpenseDate,
			&i.Note,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getExpenseRecord = `-- name: GetExpenseRecord :one
SELECT e.id, e.account_id, e.category_id, e.amount, e.expense_date, e.note, e.created_at,
       a.username, COALESCE(c.name, ?) AS category_label
FROM expenses e
JOIN accounts a ON a.id = e.account_id
LEFT JOIN categories c ON c.id = e.category_id
WHERE e.id = ?
`

type GetExpenseRecordRow struct {
	Expense
	Username      string
	CategoryLabel string
}

func (q *Queries) GetExpenseRecord(ctx context.Context, fallbackLabel string, id int64) (GetExpenseRecordRow, error) {
	row := q.db.QueryRowContext(ctx, getExpenseRecord, fallbackLabel, id)
	var i GetExpenseRecordRow
	err := row.Scan(
		&i.ID,
		&i.AccountID,
		&i.CategoryID,
		&i.Amount,
		&i.ExpenseDate,
		&i.Note,
		&i.CreatedAt,
		&i.Username,
		&i.CategoryLabel,
	)
	return i, err
}

const summarizeExpenses = `-- name: SummarizeExpenses :many
SELECT COALESCE(c.name, ?) AS label, SUM(e.amount) AS total
FROM expenses e
LEFT JOIN categories c ON c.id = e.category_id
WHERE e.account_id = ?
  AND e.expense_date >= ?
  AND e.expense_date <= ?
GROUP BY label
ORDER BY total DESC, label ASC
`

type SummarizeExpensesParams struct {
	FallbackLabel string
	AccountID     int64
	StartDate     string
	EndDate       string
}

type SummarizeExpensesRow struct {
	Label string
	Total int64
}

func (q *Queries) SummarizeExpenses(ctx context.Context, arg SummarizeExpensesParams) ([]SummarizeExpensesRow, error) {
	rows, err := q.db.QueryContext(ctx, summarizeExpenses,
		arg.FallbackLabel,
		arg.AccountID,
		arg.StartDate,
		arg.EndDate,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SummarizeExpensesRow
	for rows.Next() {
		var i SummarizeExpensesRow
		if err := rows.Scan(&i.Label, &i.Total); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getPendingSyncExpenses = `-- name: GetPendingSyncExpenses :many
SELECT e.id, e.created_at
FROM expenses e
LEFT JOIN expense_sync s ON s.expense_id = e.id
WHERE e.created_at <= ?
  AND (s.expense_id IS NULL OR (s.status = 'error' AND s.attempts < ?))
ORDER BY e.id
LIMIT ?
`

type GetPendingSyncExpensesParams struct {
	CreatedBefore string
	MaxAttempts   int64
	Limit         int64
}

type GetPendingSyncExpensesRow struct {
	ID        int64
	CreatedAt string
}

func (q *Queries) GetPendingSyncExpenses(ctx context.Context, arg GetPendingSyncExpensesParams) ([]GetPendingSyncExpensesRow, error) {
	rows, err := q.db.QueryContext(ctx, getPendingSyncExpenses, arg.CreatedBefore, arg.MaxAttempts, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetPendingSyncExpensesRow
	for rows.Next() {
		var i GetPendingSyncExpensesRow
		if err := rows.Scan(&i.ID, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getExpenseSync = `-- name: GetExpenseSync :one
SELECT expense_id, status, attempts, updated_at
FROM expense_sync
WHERE expense_id = ?
`

func (q *Queries) GetExpenseSync(ctx context.Context, expenseID int64) (ExpenseSync, error) {
	row := q.db.QueryRowContext(ctx, getExpenseSync, expenseID)
	var i ExpenseSync
	err := row.Scan(&i.ExpenseID, &i.Status, &i.Attempts, &i.UpdatedAt)
	return i, err
}

const upsertExpenseSync = `-- name: UpsertExpenseSync :exec
INSERT INTO expense_sync (expense_id, status, attempts, updated_at)
VALUES (?, ?, 1, ?)
ON CONFLICT (expense_id) DO UPDATE
SET status = excluded.status,
    attempts = expense_sync.attempts + 1,
    updated_at = excluded.updated_at
`

type UpsertExpenseSyncParams struct {
	ExpenseID int64
	Status    string
	UpdatedAt string
}

func (q *Queries) UpsertExpenseSync(ctx context.Context, arg UpsertExpenseSyncParams) error {
	_, err := q.db.ExecContext(ctx, upsertExpenseSync, arg.ExpenseID, arg.Status, arg.UpdatedAt)
	return err
}
