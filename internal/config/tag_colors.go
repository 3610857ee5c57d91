package config

import "hash/fnv"

// TagColorCodes is the palette used to color tags in the TUI. The
// palette skips very dark colors so tags stay readable on dark
// terminals.
var TagColorCodes = []string{
	"#FF8080", // bright red
	"#80FF80", // bright green
	"#FFFF80", // bright yellow
	"#8080FF", // bright blue
	"#FF80FF", // bright magenta
	"#80FFFF", // bright cyan
	"#FFA500", // orange
	"#A0A0A0", // light gray
}

// DefaultTagColor is used when no palette color applies.
const DefaultTagColor = "#00FFFF"

// TagColor returns a stable palette color for a tag name, so the same
// tag renders in the same color across runs and machines.
func TagColor(tag string) string {
	if tag == "" {
		return DefaultTagColor
	}
	h := fnv.New32a()
	h.Write([]byte(tag))
	return TagColorCodes[h.Sum32()%uint32(len(TagColorCodes))]
}
