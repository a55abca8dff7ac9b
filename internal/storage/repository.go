package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"chatledger/internal/core"
	applog "chatledger/internal/log"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Fixed width so stored timestamps sort lexicographically.
const timestampLayout = "2006-01-02 15:04:05.000000"

const (
	SyncStatusPending = "pending"
	SyncStatusSynced  = "synced"
	SyncStatusError   = "error"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", DSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks that the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) timestamp() string {
	return r.now().UTC().Format(timestampLayout)
}

// FindAccount returns core.ErrAccountNotFound when chatID never signed up.
func (r *SQLiteRepository) FindAccount(ctx context.Context, chatID int64) (core.Account, error) {
	a, err := r.queries.GetAccount(ctx, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrAccountNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account %d: %w", chatID, err)
	}
	return toCoreAccount(a), nil
}

// UsernameTaken is advisory only; the UNIQUE constraint decides at insert.
func (r *SQLiteRepository) UsernameTaken(ctx context.Context, username string) (bool, error) {
	exists, err := r.queries.UsernameExists(ctx, username)
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return exists, nil
}

func (r *SQLiteRepository) CreateAccount(ctx context.Context, na core.NewAccount) (core.Account, error) {
	if err := na.Validate(); err != nil {
		return core.Account{}, err
	}
	return r.createAccount(ctx, r.queries, na)
}

func (r *SQLiteRepository) createAccount(ctx context.Context, q *Queries, na core.NewAccount) (core.Account, error) {
	a, err := q.CreateAccount(ctx, CreateAccountParams{
		ID:        na.ChatID,
		FirstName: nullString(na.FirstName),
		LastName:  nullString(na.LastName),
		Username:  strings.TrimSpace(na.Username),
		Budget:    nullInt64(na.Budget),
		CreatedAt: r.timestamp(),
	})
	if err != nil {
		if cerr := classifyConstraint(err); cerr != nil {
			return core.Account{}, cerr
		}
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	return toCoreAccount(a), nil
}

// SeedDefaultCategories inserts core.DefaultCategories for a new account.
// It is not idempotent.
func (r *SQLiteRepository) SeedDefaultCategories(ctx context.Context, accountID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := seedDefaults(ctx, r.queries.WithTx(tx), accountID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	return nil
}

func seedDefaults(ctx context.Context, q *Queries, accountID int64) ([]core.Category, error) {
	cats := make([]core.Category, 0, len(core.DefaultCategories))
	for _, name := range core.DefaultCategories {
		c, err := q.CreateCategory(ctx, CreateCategoryParams{AccountID: accountID, Name: name})
		if err != nil {
			if cerr := classifyConstraint(err); cerr != nil {
				return nil, fmt.Errorf("seed category %q: %w", name, cerr)
			}
			return nil, fmt.Errorf("seed category %q: %w", name, err)
		}
		cats = append(cats, toCoreCategory(c))
	}
	return cats, nil
}

// OnboardAccount creates the account and its default categories atomically.
// A rejected account (e.g. username lost to a concurrent signup) leaves no
// rows behind.
func (r *SQLiteRepository) OnboardAccount(ctx context.Context, na core.NewAccount) (core.Account, []core.Category, error) {
	if err := na.Validate(); err != nil {
		return core.Account{}, nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Account{}, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	account, err := r.createAccount(ctx, q, na)
	if err != nil {
		return core.Account{}, nil, err
	}
	cats, err := seedDefaults(ctx, q, account.ID)
	if err != nil {
		return core.Account{}, nil, err
	}
	if err := tx.Commit(); err != nil {
		return core.Account{}, nil, fmt.Errorf("commit onboarding: %w", err)
	}

	logger().InfoContext(ctx, "Account onboarded",
		"chat_id", account.ID,
		"username", account.Username,
		"categories", len(cats))

	return account, cats, nil
}

// ListCategories returns the account's categories in creation order.
func (r *SQLiteRepository) ListCategories(ctx context.Context, accountID int64) ([]core.Category, error) {
	rows, err := r.queries.ListCategories(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	cats := make([]core.Category, len(rows))
	for i, c := range rows {
		cats[i] = toCoreCategory(c)
	}
	return cats, nil
}

// FindCategoryByName matches name exactly (case-sensitive).
func (r *SQLiteRepository) FindCategoryByName(ctx context.Context, accountID int64, name string) (core.Category, error) {
	c, err := r.queries.GetCategoryByName(ctx, GetCategoryByNameParams{AccountID: accountID, Name: name})
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.ErrCategoryNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %q: %w", name, err)
	}
	return toCoreCategory(c), nil
}

// AddCategory fails with core.ErrCategoryExists when the account already has
// a category with that name.
func (r *SQLiteRepository) AddCategory(ctx context.Context, accountID int64, name string) (core.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Category{}, core.ErrEmptyArgument
	}
	c, err := r.queries.CreateCategory(ctx, CreateCategoryParams{AccountID: accountID, Name: name})
	if err != nil {
		if cerr := classifyConstraint(err); cerr != nil {
			return core.Category{}, cerr
		}
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return toCoreCategory(c), nil
}

// RemoveCategory deletes the named category and reports whether it existed.
// Expenses that referenced it are kept with no category.
func (r *SQLiteRepository) RemoveCategory(ctx context.Context, accountID int64, name string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	c, err := q.GetCategoryByName(ctx, GetCategoryByNameParams{AccountID: accountID, Name: name})
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get category %q: %w", name, err)
	}

	detached, err := q.DetachCategoryExpenses(ctx, c.ID)
	if err != nil {
		return false, fmt.Errorf("detach expenses: %w", err)
	}
	deleted, err := q.DeleteCategory(ctx, c.ID)
	if err != nil {
		return false, fmt.Errorf("delete category: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit category removal: %w", err)
	}

	logger().InfoContext(ctx, "Category removed",
		"account_id", accountID,
		"category", name,
		"detached_expenses", detached)

	return deleted > 0, nil
}

// CreateExpense stores an expense dated today unless e.Date is set. The
// category must still belong to the account.
func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.NewExpense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	date := e.Date
	if date.IsZero() {
		date = core.DateOf(r.now())
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Expense{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	_, err = q.GetCategoryForAccount(ctx, GetCategoryForAccountParams{ID: e.CategoryID, AccountID: e.AccountID})
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrCategoryNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("check category: %w", err)
	}

	row, err := q.CreateExpense(ctx, CreateExpenseParams{
		AccountID:   e.AccountID,
		CategoryID:  sql.NullInt64{Int64: e.CategoryID, Valid: true},
		Amount:      e.Amount,
		ExpenseDate: date.String(),
		Note:        nullString(e.Note),
		CreatedAt:   r.timestamp(),
	})
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Expense{}, fmt.Errorf("commit expense: %w", err)
	}

	logger().InfoContext(ctx, "Expense saved to SQLite",
		"id", row.ID,
		"account_id", row.AccountID,
		"category_id", e.CategoryID,
		"amount", row.Amount,
		"date", row.ExpenseDate)

	return toCoreExpense(row)
}

// GetExpense retrieves a single expense by ID
func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row, err := r.queries.GetExpense(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrExpenseNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense by id: %w", err)
	}
	return toCoreExpense(row)
}

// ListExpenses returns every expense of the account, oldest first.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, accountID int64) ([]core.Expense, error) {
	rows, err := r.queries.ListExpensesByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	out := make([]core.Expense, 0, len(rows))
	for _, row := range rows {
		e, err := toCoreExpense(row)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Summarize totals the account's expenses in [start, end] per category,
// largest first. Expenses without a category are grouped under
// core.UncategorizedLabel; equal totals are ordered by label.
func (r *SQLiteRepository) Summarize(ctx context.Context, accountID int64, start, end core.Date) ([]core.CategoryTotal, error) {
	rows, err := r.queries.SummarizeExpenses(ctx, SummarizeExpensesParams{
		FallbackLabel: core.UncategorizedLabel,
		AccountID:     accountID,
		StartDate:     start.String(),
		EndDate:       end.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("summarize expenses: %w", err)
	}
	out := make([]core.CategoryTotal, len(rows))
	for i, row := range rows {
		out[i] = core.CategoryTotal{Label: row.Label, Total: row.Total}
	}
	return out, nil
}

// GetExpenseRecord loads an expense with its username and category label.
func (r *SQLiteRepository) GetExpenseRecord(ctx context.Context, id int64) (core.ExpenseRecord, error) {
	row, err := r.queries.GetExpenseRecord(ctx, core.UncategorizedLabel, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ExpenseRecord{}, core.ErrExpenseNotFound
	}
	if err != nil {
		return core.ExpenseRecord{}, fmt.Errorf("get expense record: %w", err)
	}
	e, err := toCoreExpense(row.Expense)
	if err != nil {
		return core.ExpenseRecord{}, err
	}
	return core.ExpenseRecord{Expense: e, Username: row.Username, CategoryLabel: row.CategoryLabel}, nil
}

// PendingSyncExpense represents minimal data needed for sync queue messages
type PendingSyncExpense struct {
	ID        int64
	CreatedAt time.Time
}

// PendingSyncExpenses returns expenses created before olderThan that were
// never mirrored, or failed fewer than maxAttempts times.
func (r *SQLiteRepository) PendingSyncExpenses(ctx context.Context, olderThan time.Time, maxAttempts, limit int) ([]PendingSyncExpense, error) {
	rows, err := r.queries.GetPendingSyncExpenses(ctx, GetPendingSyncExpensesParams{
		CreatedBefore: olderThan.UTC().Format(timestampLayout),
		MaxAttempts:   int64(maxAttempts),
		Limit:         int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("get pending sync expenses: %w", err)
	}
	out := make([]PendingSyncExpense, len(rows))
	for i, row := range rows {
		out[i] = PendingSyncExpense{ID: row.ID, CreatedAt: parseTimestamp(row.CreatedAt)}
	}
	return out, nil
}

// SyncStatus returns SyncStatusPending for expenses never attempted.
func (r *SQLiteRepository) SyncStatus(ctx context.Context, id int64) (string, error) {
	s, err := r.queries.GetExpenseSync(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return SyncStatusPending, nil
	}
	if err != nil {
		return "", fmt.Errorf("get sync status: %w", err)
	}
	return s.Status, nil
}

// MarkSynced marks an expense as successfully synced
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	err := r.queries.UpsertExpenseSync(ctx, UpsertExpenseSyncParams{
		ExpenseID: id,
		Status:    SyncStatusSynced,
		UpdatedAt: r.timestamp(),
	})
	if err != nil {
		return fmt.Errorf("mark expense synced: %w", err)
	}

	logger().InfoContext(ctx, "Expense marked as synced", "id", id)
	return nil
}

// MarkSyncError marks an expense as having sync errors
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	err := r.queries.UpsertExpenseSync(ctx, UpsertExpenseSyncParams{
		ExpenseID: id,
		Status:    SyncStatusError,
		UpdatedAt: r.timestamp(),
	})
	if err != nil {
		return fmt.Errorf("mark expense sync error: %w", err)
	}

	logger().WarnContext(ctx, "Expense marked with sync error", "id", id)
	return nil
}

// classifyConstraint maps SQLite constraint violations onto conflict
// errors. It returns nil for anything else.
func classifyConstraint(err error) error {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return nil
	}
	if se.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return nil
	}
	msg := se.Error()
	switch {
	case strings.Contains(msg, "accounts.username"):
		return core.ErrUsernameTaken
	case strings.Contains(msg, "accounts.id"):
		return core.ErrAccountExists
	case strings.Contains(msg, "categories.account_id, categories.name"):
		return core.ErrCategoryExists
	default:
		return fmt.Errorf("%w: %v", core.ErrConflict, err)
	}
}

func toCoreAccount(a Account) core.Account {
	out := core.Account{
		ID:        a.ID,
		Username:  a.Username,
		CreatedAt: parseTimestamp(a.CreatedAt),
	}
	if a.FirstName.Valid {
		out.FirstName = &a.FirstName.String
	}
	if a.LastName.Valid {
		out.LastName = &a.LastName.String
	}
	if a.Budget.Valid {
		out.Budget = &a.Budget.Int64
	}
	return out
}

func toCoreCategory(c Category) core.Category {
	return core.Category{ID: c.ID, AccountID: c.AccountID, Name: c.Name}
}

func toCoreExpense(e Expense) (core.Expense, error) {
	date, err := core.ParseDate(e.ExpenseDate)
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense %d: %w", e.ID, err)
	}
	out := core.Expense{
		ID:        e.ID,
		AccountID: e.AccountID,
		Amount:    e.Amount,
		Date:      date,
		CreatedAt: parseTimestamp(e.CreatedAt),
	}
	if e.CategoryID.Valid {
		out.CategoryID = &e.CategoryID.Int64
	}
	if e.Note.Valid {
		out.Note = &e.Note.String
	}
	return out, nil
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt64(n *int64) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *n, Valid: true}
}

func logger() *slog.Logger {
	return slog.Default().With(applog.FieldComponent, applog.ComponentStorage)
}
