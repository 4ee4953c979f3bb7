package domain

// MenuItem is a single navigation link.
type MenuItem struct {
	Name  string
	Label string
	URL   string
	// Image is an optional icon path; empty means text-only.
	Image string
}

// Menu is a top-level navigation entry.
//
// Entries with a Key are dropdown menus whose Items are filled in by the site
// (pages attach themselves to a menu by key). Entries without a Key are plain
// links described by Link.
type Menu struct {
	Key   string
	Label string
	Items []MenuItem

	Link *MenuItem
}
