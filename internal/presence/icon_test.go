package presence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveIcon(t *testing.T) {
	tests := []struct {
		label string
		want  IconID
	}{
		{"Idle", IconIdle},
		{"Typing Message", IconTyping},
		{"typing", IconTyping},
		{"Writing Notes", IconTyping},
		{"BROWSING PHOTOS", IconBrowsing},
		{"Browsing the shop", IconBrowsing},
		{"Viewing Messages", IconViewing},
		{"reading messages", IconViewing},
		{"Reading a book", IconViewing},
		{"Editing Document", IconEditing},
		{"editing profile", IconEditing},
		{"Filling Form", IconForm},
		{"Viewing Page", IconPage},
		{"Viewing settings page", IconPage},
		{"  idle  ", IconIdle},
		{"xyz", IconUnknown},
		{"", IconUnknown},
		{"   ", IconUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveIcon(tt.label))
		})
	}
}

func TestIconGlyphIsTotal(t *testing.T) {
	for _, icon := range []IconID{IconIdle, IconTyping, IconBrowsing, IconViewing, IconEditing, IconForm, IconPage, IconUnknown} {
		assert.NotEmpty(t, icon.Glyph(), icon)
	}
	assert.Equal(t, IconUnknown.Glyph(), IconID("nope").Glyph())
}
