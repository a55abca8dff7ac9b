// Package bot routes inbound chat messages to the signup dialog, a slash
// command or the expense dialog.
package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chatledger/internal/core"
	"chatledger/internal/dialog"
	applog "chatledger/internal/log"
	"chatledger/internal/session"
)

// Reply is the single outbound message produced for an inbound one.
type Reply = dialog.Reply

const (
	msgAddUsage      = "Usage: `/add_category <name>`"
	msgRemoveUsage   = "Usage: `/remove_category <name>`"
	msgCategoryTaken = "❌ Category %s already exists."
	msgCategoryAdded = "✅ Category %s added."
	msgNoSuchCat     = "❌ Category %s not found."
	msgCategoryGone  = "✅ Category %s removed."
)

// Store is the persistence the dispatcher needs directly; dialogs reach the
// rest through their own dependencies.
type Store interface {
	FindAccount(ctx context.Context, chatID int64) (core.Account, error)
	ListCategories(ctx context.Context, accountID int64) ([]core.Category, error)
	AddCategory(ctx context.Context, accountID int64, name string) (core.Category, error)
	RemoveCategory(ctx context.Context, accountID int64, name string) (bool, error)
	Summarize(ctx context.Context, accountID int64, start, end core.Date) ([]core.CategoryTotal, error)
}

type Dialogs interface {
	Signup(ctx context.Context, h *session.Handle, text string) (dialog.Reply, error)
	Expense(ctx context.Context, h *session.Handle, account core.Account, text string) (dialog.Reply, error)
}

type Dispatcher struct {
	store    Store
	dialogs  Dialogs
	sessions *session.Store
	now      func() time.Time
	loc      *time.Location
}

type Option func(*Dispatcher)

// WithClock sets the time source used to compute summary windows.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// WithLocation sets the timezone that decides what "today" is.
func WithLocation(loc *time.Location) Option {
	return func(d *Dispatcher) {
		if loc != nil {
			d.loc = loc
		}
	}
}

func NewDispatcher(store Store, dialogs Dialogs, sessions *session.Store, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store:    store,
		dialogs:  dialogs,
		sessions: sessions,
		now:      time.Now,
		loc:      time.UTC,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle processes one message while holding the chat's session, so two
// deliveries for the same chat never interleave. The returned error is
// non-nil only when storage failed; user mistakes become replies.
func (d *Dispatcher) Handle(ctx context.Context, msg core.Message) (Reply, error) {
	h := d.sessions.Acquire(msg.ChatID)
	defer h.Release()

	logger := applog.FromContext(ctx).WithComponent(applog.ComponentBot).With(applog.FieldChatID, msg.ChatID)
	ctx = applog.NewContext(ctx, logger)

	account, err := d.store.FindAccount(ctx, msg.ChatID)
	if errors.Is(err, core.ErrAccountNotFound) {
		logger.DebugContext(ctx, "Routing to signup")
		return d.dialogs.Signup(ctx, h, msg.Text)
	}
	if err != nil {
		return Reply{}, fmt.Errorf("find account %d: %w", msg.ChatID, err)
	}

	cmd, ok := ParseCommand(msg.Text)
	if !ok {
		return d.dialogs.Expense(ctx, h, account, msg.Text)
	}
	logger.InfoContext(ctx, "Command received",
		applog.FieldCommand, string(cmd.Verb),
		applog.FieldOperation, cmd.Verb.operation())

	switch cmd.Verb {
	case VerbDay:
		return d.summary(ctx, account, core.PeriodDay)
	case VerbWeek:
		return d.summary(ctx, account, core.PeriodWeek)
	case VerbMonth:
		return d.summary(ctx, account, core.PeriodMonth)
	case VerbAddCategory:
		return d.addCategory(ctx, account, cmd.Arg)
	case VerbRemoveCategory:
		return d.removeCategory(ctx, account, cmd.Arg)
	}
	return Reply{}, fmt.Errorf("unhandled command %q", cmd.Verb)
}

func (d *Dispatcher) summary(ctx context.Context, account core.Account, period core.Period) (Reply, error) {
	w, err := core.WindowFor(period, core.Today(d.now(), d.loc))
	if err != nil {
		return Reply{}, err
	}
	rows, err := d.store.Summarize(ctx, account.ID, w.Start, w.End)
	if err != nil {
		return Reply{}, fmt.Errorf("summarize %s: %w", period, err)
	}

	var budget *int64
	if period == core.PeriodMonth {
		budget = account.Budget
	}
	return Reply{Text: FormatSummary(w.Title, rows, budget)}, nil
}

func (d *Dispatcher) addCategory(ctx context.Context, account core.Account, name string) (Reply, error) {
	if name == "" {
		return Reply{Text: msgAddUsage}, nil
	}

	_, err := d.store.AddCategory(ctx, account.ID, name)
	if errors.Is(err, core.ErrCategoryExists) {
		return Reply{Text: fmt.Sprintf(msgCategoryTaken, dialog.Bold(name))}, nil
	}
	if err != nil {
		return Reply{}, fmt.Errorf("add category: %w", err)
	}
	return d.withMenu(ctx, account, fmt.Sprintf(msgCategoryAdded, dialog.Bold(name)))
}

func (d *Dispatcher) removeCategory(ctx context.Context, account core.Account, name string) (Reply, error) {
	if name == "" {
		return Reply{Text: msgRemoveUsage}, nil
	}

	removed, err := d.store.RemoveCategory(ctx, account.ID, name)
	if err != nil {
		return Reply{}, fmt.Errorf("remove category: %w", err)
	}
	if !removed {
		return Reply{Text: fmt.Sprintf(msgNoSuchCat, dialog.Bold(name))}, nil
	}
	return d.withMenu(ctx, account, fmt.Sprintf(msgCategoryGone, dialog.Bold(name)))
}

func (d *Dispatcher) withMenu(ctx context.Context, account core.Account, text string) (Reply, error) {
	cats, err := d.store.ListCategories(ctx, account.ID)
	if err != nil {
		return Reply{}, fmt.Errorf("list categories: %w", err)
	}
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.Name
	}
	return Reply{Text: text, Choices: names}, nil
}
