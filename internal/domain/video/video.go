// Package video holds the display row that pairs a catalog item with its
// demonstration video link.
package video

import "fmt"

const (
	// NoVideoName is shown in place of an item that has no name to search for.
	NoVideoName = "No Video Link Yet"
	// NotFoundURL marks an item whose video search came back empty.
	NotFoundURL = "No search results found for the query."
)

// DisplayRow is one row of the videos table.
type DisplayRow struct {
	Name string
	Link string
}

// Placeholder is the row used for an unnamed item.
func Placeholder() DisplayRow {
	return DisplayRow{Name: NoVideoName}
}

// NewRow renders the link column as "<url> (<name> Video)".
func NewRow(name, url string) DisplayRow {
	return DisplayRow{Name: name, Link: Link(url, name)}
}

// Link formats a video URL for display.
func Link(url, name string) string {
	return fmt.Sprintf("%s (%s Video)", url, name)
}
