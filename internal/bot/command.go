package bot

import (
	"strings"
	"unicode"

	applog "chatledger/internal/log"
)

// Verb is a recognised slash command.
type Verb string

const (
	VerbDay            Verb = "/day"
	VerbWeek           Verb = "/week"
	VerbMonth          Verb = "/month"
	VerbAddCategory    Verb = "/add_category"
	VerbRemoveCategory Verb = "/remove_category"
)

// operation names the log operation a verb belongs to.
func (v Verb) operation() string {
	switch v {
	case VerbAddCategory, VerbRemoveCategory:
		return applog.OpCategory
	default:
		return applog.OpSummary
	}
}

// Command is a parsed slash command. Arg is trimmed and may be empty for the
// verbs that take an argument.
type Command struct {
	Verb Verb
	Arg  string
}

// ParseCommand splits text into verb and argument. A "@botname" suffix on the
// verb is ignored. Summary verbs only match without an argument; anything
// that is not a command returns false and goes to the expense dialog.
func ParseCommand(text string) (Command, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return Command{}, false
	}

	token, rest := text, ""
	if i := strings.IndexFunc(text, unicode.IsSpace); i >= 0 {
		token, rest = text[:i], strings.TrimSpace(text[i:])
	}
	if at := strings.IndexByte(token, '@'); at > 0 {
		token = token[:at]
	}

	switch verb := Verb(token); verb {
	case VerbDay, VerbWeek, VerbMonth:
		if rest != "" {
			return Command{}, false
		}
		return Command{Verb: verb}, true
	case VerbAddCategory, VerbRemoveCategory:
		return Command{Verb: verb, Arg: rest}, true
	}
	return Command{}, false
}
