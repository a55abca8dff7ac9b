package core

import (
	"errors"
	"fmt"
)

// Error classes. Every domain error below wraps exactly one of them so callers
// can branch with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
)

var (
	ErrInvalidAmount = fmt.Errorf("%w: invalid amount", ErrValidation)
	ErrEmptyUsername = fmt.Errorf("%w: empty username", ErrValidation)
	ErrEmptyArgument = fmt.Errorf("%w: missing command argument", ErrValidation)

	ErrUsernameTaken  = fmt.Errorf("%w: username already taken", ErrConflict)
	ErrAccountExists  = fmt.Errorf("%w: account already exists", ErrConflict)
	ErrCategoryExists = fmt.Errorf("%w: category already exists", ErrConflict)

	ErrAccountNotFound  = fmt.Errorf("%w: account", ErrNotFound)
	ErrCategoryNotFound = fmt.Errorf("%w: category", ErrNotFound)
	ErrExpenseNotFound  = fmt.Errorf("%w: expense", ErrNotFound)
)
