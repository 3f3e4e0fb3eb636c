package presence

import "strings"

// IconID is a symbolic icon identifier. Platforms map it to their own assets.
type IconID string

// Activity icons.
const (
	IconIdle     IconID = "idle"
	IconTyping   IconID = "typing"
	IconBrowsing IconID = "browsing"
	IconViewing  IconID = "viewing"
	IconEditing  IconID = "editing"
	IconForm     IconID = "form"
	IconPage     IconID = "page"
	IconUnknown  IconID = "unknown"
)

var exactIcons = map[string]IconID{
	"idle":             IconIdle,
	"typing":           IconTyping,
	"typing message":   IconTyping,
	"writing notes":    IconTyping,
	"browsing":         IconBrowsing,
	"browsing home":    IconBrowsing,
	"browsing photos":  IconBrowsing,
	"viewing messages": IconViewing,
	"reading messages": IconViewing,
	"editing document": IconEditing,
	"editing profile":  IconEditing,
	"filling form":     IconForm,
	"viewing page":     IconPage,
}

// Checked in order; the first family whose fragment appears in the label wins.
var iconFamilies = []struct {
	fragments []string
	icon      IconID
}{
	{[]string{"form"}, IconForm},
	{[]string{"page"}, IconPage},
	{[]string{"edit"}, IconEditing},
	{[]string{"typing", "writing"}, IconTyping},
	{[]string{"brows"}, IconBrowsing},
	{[]string{"viewing", "reading"}, IconViewing},
	{[]string{"idle"}, IconIdle},
}

// ResolveIcon maps an activity label to an icon. Every input, including the
// empty string, maps to exactly one IconID.
func ResolveIcon(label string) IconID {
	key := strings.ToLower(strings.TrimSpace(label))
	if key == "" {
		return IconUnknown
	}
	if icon, ok := exactIcons[key]; ok {
		return icon
	}
	for _, family := range iconFamilies {
		for _, frag := range family.fragments {
			if strings.Contains(key, frag) {
				return family.icon
			}
		}
	}
	return IconUnknown
}

var glyphs = map[IconID]string{
	IconIdle:     "◷",
	IconTyping:   "✎",
	IconBrowsing: "◎",
	IconViewing:  "◉",
	IconEditing:  "⚙",
	IconForm:     "☰",
	IconPage:     "ℹ",
	IconUnknown:  "?",
}

// Glyph returns a single-cell symbol for text surfaces.
func (i IconID) Glyph() string {
	if g, ok := glyphs[i]; ok {
		return g
	}
	return glyphs[IconUnknown]
}
