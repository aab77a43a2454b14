package preference

import (
	"slices"
	"strings"
)

// Options are the enumerated values offered to users.
type Options struct {
	Layouts        []string
	MountingStyles []string
	BudgetTiers    []float64
	MaxResults     int
}

// DefaultOptions returns the option sets of the keyboard kit catalog.
func DefaultOptions() Options {
	return Options{
		Layouts:        []string{"60%", "65%", "75%", "FRL", "TKL", "FRL-TKL", "Full Sized"},
		MountingStyles: []string{"Gasket-mounted", "Tray mount", "Top mount", "Plate mount"},
		BudgetTiers:    []float64{100, 200, 300, 400, 500, 600},
		MaxResults:     DefaultMaxResults,
	}
}

// HasLayout reports whether layout is offered. "No Preference" is always
// accepted, in any case.
func (o Options) HasLayout(layout string) bool {
	return unconstrained(layout) || slices.Contains(o.Layouts, layout)
}

// HasMountingStyle reports whether style is offered. "No Preference" is always
// accepted, in any case.
func (o Options) HasMountingStyle(style string) bool {
	return unconstrained(style) || slices.Contains(o.MountingStyles, style)
}

func unconstrained(label string) bool {
	return label == "" || strings.EqualFold(label, NoPreferenceLabel)
}
