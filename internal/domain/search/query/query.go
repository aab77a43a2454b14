// Package query turns structured keyboard preferences into the free-text
// query sent to the semantic index.
package query

import "github.com/kailas-cloud/kitfinder/internal/domain/preference"

type pcbKey struct {
	hotswap  preference.Choice
	flexcuts preference.Choice
}

// pcbFragments maps every (hotswap, flexcuts) combination to the PCB phrase
// appended after "<layout> layout". Without a hotswap preference the flex-cut
// preference is ignored.
var pcbFragments = map[pcbKey]string{
	{preference.Yes, preference.Yes}:          "with hotswap and flexcut PCB.",
	{preference.Yes, preference.No}:           "with hotswap and no flexcuts for the PCB.",
	{preference.Yes, preference.NoPreference}: "with hotswap PCB.",

	{preference.No, preference.Yes}:          "with flexcut PCB. soldered.",
	{preference.No, preference.No}:           "with solder and no flexcuts for the PCB.",
	{preference.No, preference.NoPreference}: "with solder PCB.",

	{preference.NoPreference, preference.Yes}:          "",
	{preference.NoPreference, preference.No}:           "",
	{preference.NoPreference, preference.NoPreference}: "",
}

// Build composes the query for a layout and PCB preferences.
//
//	Build("60%", Yes, Yes)          == "60% layout with hotswap and flexcut PCB."
//	Build("TKL", NoPreference, No)  == "TKL layout"
func Build(layout string, hotswap, flexcuts preference.Choice) string {
	q := layout + " layout"
	if fragment := pcbFragments[pcbKey{hotswap: hotswap, flexcuts: flexcuts}]; fragment != "" {
		q += " " + fragment
	}
	return q
}

// ForPreferences builds the query of a full preference set.
func ForPreferences(p preference.Preferences) string {
	return Build(p.LayoutLabel(), p.Hotswap(), p.Flexcuts())
}
