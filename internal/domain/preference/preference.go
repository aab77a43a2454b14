package preference

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kailas-cloud/kitfinder/internal/domain"
)

// Labels used on the wire for unconstrained preferences.
const (
	NoPreferenceLabel = "No Preference"
	NoLimitLabel      = "None"
	YesLabel          = "Yes"
	NoLabel           = "No"
	anyLayoutLabel    = "Any"
)

// DefaultMaxResults bounds the result count when no maximum is configured.
const DefaultMaxResults = 10

// Choice is a tri-state preference: affirmative, negative or unconstrained.
type Choice int

// Choice values. The zero value is NoPreference.
const (
	NoPreference Choice = iota
	Yes
	No
)

// ParseChoice parses "Yes", "No" or "No Preference" (case-insensitive).
// An empty string is NoPreference.
func ParseChoice(s string) (Choice, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "no preference":
		return NoPreference, nil
	case "yes":
		return Yes, nil
	case "no":
		return No, nil
	default:
		return NoPreference, fmt.Errorf("%w: unknown choice %q", domain.ErrInvalidPreferences, s)
	}
}

func (c Choice) String() string {
	switch c {
	case Yes:
		return YesLabel
	case No:
		return NoLabel
	default:
		return NoPreferenceLabel
	}
}

// Budget is an optional upper price bound. The zero value means no limit.
type Budget struct {
	amount  decimal.Decimal
	limited bool
}

// NoLimit returns an unconstrained budget.
func NoLimit() Budget { return Budget{} }

// Limit returns a budget capped at amount. Negative amounts are rejected.
func Limit(amount decimal.Decimal) (Budget, error) {
	if amount.IsNegative() {
		return Budget{}, fmt.Errorf("%w: budget must be non-negative, got %s", domain.ErrInvalidPreferences, amount)
	}
	return Budget{amount: amount, limited: true}, nil
}

// ParseBudget parses a decimal amount with an optional leading "$", or
// "None"/"" for no limit.
func ParseBudget(s string) (Budget, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, NoLimitLabel) {
		return NoLimit(), nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(strings.TrimPrefix(s, "$")))
	if err != nil {
		return Budget{}, fmt.Errorf("%w: budget %q is not a number", domain.ErrInvalidPreferences, s)
	}
	return Limit(d)
}

// Limited reports whether the budget caps the price.
func (b Budget) Limited() bool { return b.limited }

// Amount returns the cap. Zero when unlimited.
func (b Budget) Amount() decimal.Decimal { return b.amount }

// Allows reports whether price fits in the budget.
func (b Budget) Allows(price decimal.Decimal) bool {
	return !b.limited || price.LessThanOrEqual(b.amount)
}

func (b Budget) String() string {
	if !b.limited {
		return NoLimitLabel
	}
	return b.amount.String()
}

// Mounting is an optional mounting-style constraint. The zero value means no preference.
type Mounting struct {
	style string
}

// AnyMounting returns an unconstrained mounting preference.
func AnyMounting() Mounting { return Mounting{} }

// ParseMounting returns a constraint for style; "No Preference" and "" are unconstrained.
func ParseMounting(style string) Mounting {
	style = strings.TrimSpace(style)
	if strings.EqualFold(style, NoPreferenceLabel) {
		return Mounting{}
	}
	return Mounting{style: style}
}

// Constrained reports whether a specific mounting style is required.
func (m Mounting) Constrained() bool { return m.style != "" }

// Style returns the required style, empty when unconstrained.
func (m Mounting) Style() string { return m.style }

// Matches reports whether style satisfies the preference. An empty catalog
// style never matches a real preference.
func (m Mounting) Matches(style string) bool {
	return !m.Constrained() || style == m.style
}

func (m Mounting) String() string {
	if !m.Constrained() {
		return NoPreferenceLabel
	}
	return m.style
}

// Preferences is one user search request.
type Preferences struct {
	layout      string
	hotswap     Choice
	flexcuts    Choice
	budget      Budget
	mounting    Mounting
	resultCount int
}

// New validates and normalizes a preference set. resultCount is clamped to
// maxResults (DefaultMaxResults when maxResults <= 0). A layout of "" or
// "No Preference" leaves the layout unconstrained.
func New(
	layout string,
	hotswap, flexcuts Choice,
	budget Budget,
	mounting Mounting,
	resultCount, maxResults int,
) (Preferences, error) {
	if resultCount < 0 {
		return Preferences{}, fmt.Errorf("%w: result count must be non-negative, got %d",
			domain.ErrInvalidPreferences, resultCount)
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	if resultCount > maxResults {
		resultCount = maxResults
	}

	layout = strings.TrimSpace(layout)
	if strings.EqualFold(layout, NoPreferenceLabel) {
		layout = ""
	}

	return Preferences{
		layout:      layout,
		hotswap:     hotswap,
		flexcuts:    flexcuts,
		budget:      budget,
		mounting:    mounting,
		resultCount: resultCount,
	}, nil
}

// Layout returns the requested layout, empty when unconstrained.
func (p Preferences) Layout() string { return p.layout }

// LayoutLabel returns the layout as it appears in a query.
func (p Preferences) LayoutLabel() string {
	if p.layout == "" {
		return anyLayoutLabel
	}
	return p.layout
}

// Hotswap returns the hotswap preference.
func (p Preferences) Hotswap() Choice { return p.hotswap }

// Flexcuts returns the flex-cut preference.
func (p Preferences) Flexcuts() Choice { return p.flexcuts }

// Budget returns the budget constraint.
func (p Preferences) Budget() Budget { return p.budget }

// Mounting returns the mounting-style constraint.
func (p Preferences) Mounting() Mounting { return p.mounting }

// ResultCount returns how many index candidates to inspect.
func (p Preferences) ResultCount() int { return p.resultCount }
