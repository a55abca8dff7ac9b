// Package dialog implements the two conversations a chat can be in: signing
// up and logging an expense. Each call consumes one message and returns the
// reply to send.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"

	"chatledger/internal/core"
	applog "chatledger/internal/log"
	"chatledger/internal/session"
)

// Reply is an outbound message. A non-empty Choices renders a menu.
type Reply struct {
	Text    string
	Choices []string
}

type Repository interface {
	UsernameTaken(ctx context.Context, username string) (bool, error)
	OnboardAccount(ctx context.Context, na core.NewAccount) (core.Account, []core.Category, error)
	ListCategories(ctx context.Context, accountID int64) ([]core.Category, error)
	FindCategoryByName(ctx context.Context, accountID int64, name string) (core.Category, error)
}

type ExpenseRecorder interface {
	RecordExpense(ctx context.Context, e core.NewExpense) (core.Expense, error)
}

type Engine struct {
	repo     Repository
	expenses ExpenseRecorder
	now      func() time.Time
	loc      *time.Location
}

type Option func(*Engine)

// WithClock sets the time source that dates new expenses.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLocation sets the timezone that decides what "today" is. It must match
// the one the summaries use.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

func NewEngine(repo Repository, expenses ExpenseRecorder, opts ...Option) *Engine {
	e := &Engine{repo: repo, expenses: expenses, now: time.Now, loc: time.UTC}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Signup advances the signup dialog by one message. Each step stores the
// answer to the question asked by the previous step, then asks its own.
// Errors are returned only for storage failures; the session is then left as
// it was so the same message can be retried.
func (e *Engine) Signup(ctx context.Context, h *session.Handle, text string) (Reply, error) {
	sess, ok := h.Load()
	if !ok || !sess.Step.IsSignup() {
		sess = session.Session{Step: session.StepFirstName}
	}
	text = strings.TrimSpace(text)

	switch sess.Step {
	case session.StepFirstName:
		// The first message only opens the dialog.
		sess.Step = session.StepLastName
		h.Save(sess)
		return Reply{Text: msgWelcome}, nil

	case session.StepLastName:
		sess.Signup.FirstName = optional(text, false)
		sess.Step = session.StepUsername
		h.Save(sess)
		return Reply{Text: msgAskLastName}, nil

	case session.StepUsername:
		sess.Signup.LastName = optional(text, true)
		sess.Step = session.StepBudget
		h.Save(sess)
		return Reply{Text: msgAskUsername}, nil

	case session.StepBudget:
		return e.chooseUsername(ctx, h, sess, text)

	case session.StepConfirmBudget:
		return e.finishSignup(ctx, h, sess, text)
	}

	return Reply{}, fmt.Errorf("unexpected signup step %q", sess.Step)
}

func (e *Engine) chooseUsername(ctx context.Context, h *session.Handle, sess session.Session, username string) (Reply, error) {
	if username == "" {
		h.Save(sess)
		return Reply{Text: msgEmptyUsername}, nil
	}

	taken, err := e.repo.UsernameTaken(ctx, username)
	if err != nil {
		return Reply{}, err
	}
	if taken {
		h.Save(sess)
		return Reply{Text: msgUsernameTaken}, nil
	}

	sess.Signup.Username = username
	sess.Step = session.StepConfirmBudget
	h.Save(sess)
	return Reply{Text: msgAskBudget}, nil
}

func (e *Engine) finishSignup(ctx context.Context, h *session.Handle, sess session.Session, text string) (Reply, error) {
	var budget *int64
	if text != SkipSentinel {
		amount, err := core.ParseAmount(text)
		if err != nil {
			h.Save(sess)
			return Reply{Text: msgInvalidBudget}, nil
		}
		budget = &amount
	}

	account, cats, err := e.repo.OnboardAccount(ctx, core.NewAccount{
		ChatID:    h.ChatID(),
		FirstName: sess.Signup.FirstName,
		LastName:  sess.Signup.LastName,
		Username:  sess.Signup.Username,
		Budget:    budget,
	})
	switch {
	case errors.Is(err, core.ErrUsernameTaken):
		// Lost the race to another signup after the advisory check.
		applog.FromContext(ctx).InfoContext(ctx, "Username taken at signup completion",
			applog.FieldOperation, applog.OpSignup,
			applog.FieldStep, string(sess.Step),
			applog.FieldChatID, h.ChatID(),
			"username", sess.Signup.Username)
		sess.Signup.Username = ""
		sess.Step = session.StepBudget
		h.Save(sess)
		return Reply{Text: msgUsernameLost}, nil

	case errors.Is(err, core.ErrAccountExists):
		// Finished by an earlier delivery of this message.
		h.Clear()
		cats, err := e.repo.ListCategories(ctx, h.ChatID())
		if err != nil {
			return Reply{}, err
		}
		return Reply{Text: msgSignupDone, Choices: categoryNames(cats)}, nil

	case err != nil:
		return Reply{}, err
	}

	h.Clear()
	applog.FromContext(ctx).InfoContext(ctx, "Signup completed",
		applog.FieldOperation, applog.OpSignup,
		applog.FieldChatID, h.ChatID(),
		"username", account.Username)
	return Reply{Text: msgSignupDone, Choices: categoryNames(cats)}, nil
}

// Expense advances the expense dialog by one message. Without a session the
// message is taken as a category choice.
func (e *Engine) Expense(ctx context.Context, h *session.Handle, account core.Account, text string) (Reply, error) {
	text = strings.TrimSpace(text)
	sess, ok := h.Load()
	if ok && sess.Step == session.StepAwaitingAmount {
		return e.enterAmount(ctx, h, account, sess, text)
	}
	return e.chooseCategory(ctx, h, account, text)
}

func (e *Engine) chooseCategory(ctx context.Context, h *session.Handle, account core.Account, name string) (Reply, error) {
	cat, err := e.repo.FindCategoryByName(ctx, account.ID, name)
	if errors.Is(err, core.ErrCategoryNotFound) {
		reply, err := e.menuReply(ctx, h, account, msgUnknownCategory)
		if err == nil {
			if guess := closestName(reply.Choices, name); guess != "" {
				reply.Text = fmt.Sprintf(msgDidYouMean, Bold(guess))
			}
		}
		return reply, err
	}
	if err != nil {
		return Reply{}, err
	}

	h.Save(session.Session{
		Step:    session.StepAwaitingAmount,
		Expense: session.ExpenseDraft{CategoryID: cat.ID, CategoryName: cat.Name},
	})
	return Reply{Text: fmt.Sprintf(msgSelected, Bold(cat.Name))}, nil
}

func (e *Engine) enterAmount(ctx context.Context, h *session.Handle, account core.Account, sess session.Session, text string) (Reply, error) {
	amount, err := core.ParseAmount(text)
	if err != nil {
		h.Save(sess)
		return Reply{Text: msgInvalidAmount}, nil
	}

	expense, err := e.expenses.RecordExpense(ctx, core.NewExpense{
		AccountID:  account.ID,
		CategoryID: sess.Expense.CategoryID,
		Amount:     amount,
		Date:       core.Today(e.now(), e.loc),
	})
	if errors.Is(err, core.ErrCategoryNotFound) {
		// Removed between choosing it and entering the amount.
		return e.menuReply(ctx, h, account, fmt.Sprintf(msgCategoryGone, Bold(sess.Expense.CategoryName)))
	}
	if err != nil {
		return Reply{}, err
	}
	applog.FromContext(ctx).InfoContext(ctx, "Expense recorded",
		applog.FieldOperation, applog.OpExpense,
		applog.FieldExpenseID, expense.ID,
		applog.FieldCategory, sess.Expense.CategoryName,
		applog.FieldAmount, core.FormatAmount(amount))

	return e.menuReply(ctx, h, account, fmt.Sprintf(msgSaved, Bold(sess.Expense.CategoryName), core.FormatAmount(amount)))
}

// menuReply ends the dialog and offers the account's categories.
func (e *Engine) menuReply(ctx context.Context, h *session.Handle, account core.Account, text string) (Reply, error) {
	h.Clear()
	cats, err := e.repo.ListCategories(ctx, account.ID)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: text, Choices: categoryNames(cats)}, nil
}

func categoryNames(cats []core.Category) []string {
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.Name
	}
	return names
}

const maxSuggestDistance = 2

// closestName returns the name within a couple of edits of text, ignoring
// case, or "" when nothing is that close.
func closestName(names []string, text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return ""
	}
	best, bestDist := "", maxSuggestDistance+1
	for _, n := range names {
		d := levenshtein.ComputeDistance(strings.ToLower(n), text)
		if d < bestDist && d < len([]rune(n))/2 {
			best, bestDist = n, d
		}
	}
	return best
}

// optional maps an empty answer, or the skip sentinel when allowed, to nil.
func optional(text string, skippable bool) *string {
	if text == "" || (skippable && text == SkipSentinel) {
		return nil
	}
	return &text
}
