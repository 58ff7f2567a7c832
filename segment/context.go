package segment

import (
	"strings"
)

// Context is the live heading-hierarchy state: the most recent heading text
// at each of the six levels. Slots below a freshly set level are cleared,
// since those headings go stale once a higher-level one changes.
type Context struct {
	H1 *string `json:"h1"`
	H2 *string `json:"h2"`
	H3 *string `json:"h3"`
	H4 *string `json:"h4"`
	H5 *string `json:"h5"`
	H6 *string `json:"h6"`
}

// slot returns a pointer to the slot for a 1-based heading level.
func (c *Context) slot(level int) **string {
	switch level {
	case 1:
		return &c.H1
	case 2:
		return &c.H2
	case 3:
		return &c.H3
	case 4:
		return &c.H4
	case 5:
		return &c.H5
	default:
		return &c.H6
	}
}

// Set records a heading at the given level and clears every lower level.
func (c *Context) Set(level int, content string) {
	if level < 1 || level > 6 {
		return
	}
	*c.slot(level) = &content
	for l := level + 1; l <= 6; l++ {
		*c.slot(l) = nil
	}
}

// Level returns the heading text at a level, or "" if unset.
func (c *Context) Level(level int) string {
	if level < 1 || level > 6 {
		return ""
	}
	if p := *c.slot(level); p != nil {
		return *p
	}
	return ""
}

// Snapshot returns a copy of the context for attaching to a segment.
func (c *Context) Snapshot() Context {
	return *c
}

// HeadingLevel extracts the heading level (1-6) from an element role,
// or 0 if the role is not a heading. Beyond the literal h1..h6 patterns it
// understands the analysis service's named roles: section headings map to
// level 2, titles and page headers to level 1, subtitles to level 2.
func HeadingLevel(role string) int {
	if role == "" {
		return 0
	}

	lower := strings.ToLower(role)

	if len(lower) == 2 && lower[0] == 'h' && lower[1] >= '1' && lower[1] <= '6' {
		return int(lower[1] - '0')
	}

	switch lower {
	case "sectionheading":
		return 2
	case "title", "pageheader":
		return 1
	case "subtitle":
		return 2
	}
	return 0
}
