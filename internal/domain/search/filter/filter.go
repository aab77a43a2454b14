// Package filter applies budget and mounting-style constraints to semantic
// index candidates.
package filter

import (
	"github.com/kailas-cloud/kitfinder/internal/domain/catalog"
	"github.com/kailas-cloud/kitfinder/internal/domain/preference"
)

// Rule is one rung of the precedence ladder.
type Rule struct {
	Name    string
	applies func(b preference.Budget, m preference.Mounting) bool
	keep    func(b preference.Budget, m preference.Mounting, item *catalog.Item) bool
}

// ladder is evaluated top to bottom; the first rule whose guard holds decides.
var ladder = []Rule{
	{
		Name: "budget_and_mounting",
		applies: func(b preference.Budget, m preference.Mounting) bool {
			return b.Limited() && m.Constrained()
		},
		keep: func(b preference.Budget, m preference.Mounting, item *catalog.Item) bool {
			return b.Allows(item.Price()) && m.Matches(item.MountingStyle())
		},
	},
	{
		Name: "budget",
		applies: func(b preference.Budget, _ preference.Mounting) bool {
			return b.Limited()
		},
		keep: func(b preference.Budget, _ preference.Mounting, item *catalog.Item) bool {
			return b.Allows(item.Price())
		},
	},
	{
		Name: "mounting",
		applies: func(_ preference.Budget, m preference.Mounting) bool {
			return m.Constrained()
		},
		keep: func(_ preference.Budget, m preference.Mounting, item *catalog.Item) bool {
			return m.Matches(item.MountingStyle())
		},
	},
	{
		Name:    "unconstrained",
		applies: func(preference.Budget, preference.Mounting) bool { return true },
		keep:    func(preference.Budget, preference.Mounting, *catalog.Item) bool { return true },
	},
}

// Select returns the ladder rule that governs the given constraints.
func Select(budget preference.Budget, mounting preference.Mounting) Rule {
	for _, r := range ladder {
		if r.applies(budget, mounting) {
			return r
		}
	}
	return ladder[len(ladder)-1]
}

// Apply keeps the candidates among the first n that satisfy budget and
// mounting. Order is preserved and the result is never padded, so it may be
// shorter than n.
func Apply(
	candidates []catalog.Item,
	budget preference.Budget,
	mounting preference.Mounting,
	n int,
) []catalog.Item {
	if n <= 0 || len(candidates) == 0 {
		return []catalog.Item{}
	}
	n = min(n, len(candidates))

	rule := Select(budget, mounting)
	kept := make([]catalog.Item, 0, n)
	for i := range candidates[:n] {
		if rule.keep(budget, mounting, &candidates[i]) {
			kept = append(kept, candidates[i])
		}
	}
	return kept
}
