package dialog

import "strings"

const (
	msgWelcome         = "Welcome! Let's get you set up.\n\nEnter your first name:"
	msgAskLastName     = "Enter your last name (or `-` to skip):"
	msgAskUsername     = "Choose a username (must be unique):"
	msgEmptyUsername   = "❌ Username cannot be empty. Choose a username:"
	msgUsernameTaken   = "❌ That username is already taken. Please choose another:"
	msgUsernameLost    = "❌ Someone just took that username. Please choose another:"
	msgAskBudget       = "Enter your monthly budget (or `-` to skip):"
	msgInvalidBudget   = "❌ Invalid number. Enter your budget or `-` to skip:"
	msgSignupDone      = "✅ All set! Choose a category to log an expense:"
	msgUnknownCategory = "❌ Unknown category. Please choose from the keyboard:"
	msgDidYouMean      = "❌ Unknown category. Did you mean %s? Please choose from the keyboard:"
	msgInvalidAmount   = "❌ Invalid amount. Enter a number (e.g. 500 or 25k):"
	msgCategoryGone    = "❌ Category %s no longer exists. Choose a category:"
	msgSelected        = "%s selected. Enter amount:"
	msgSaved           = "✅ %s — %s saved"
)

// SkipSentinel leaves an optional signup answer empty.
const SkipSentinel = "-"

const markdownSpecials = "_*`["

// Bold renders s in bold for the Markdown parse mode. Text that itself holds
// Markdown characters is escaped instead, since entities cannot contain them.
func Bold(s string) string {
	if strings.ContainsAny(s, markdownSpecials) {
		return EscapeMarkdown(s)
	}
	return "*" + s + "*"
}

// EscapeMarkdown escapes the characters the Markdown parse mode treats as
// entity delimiters.
func EscapeMarkdown(s string) string {
	if !strings.ContainsAny(s, markdownSpecials) {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(markdownSpecials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
