package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javanhut/raven-session/keybindings"
	"github.com/javanhut/raven-session/tab"
)

func TestParse_Actions(t *testing.T) {
	title := "build logs"
	tests := []struct {
		line string
		want tab.Action
	}{
		{"new-tab", tab.NewTab{}},
		{"new-tab zsh", tab.NewTab{Profile: "zsh"}},
		{"new-tab zsh /tmp", tab.NewTab{Profile: "zsh", WorkingDir: "/tmp"}},
		{"dup-tab 3", tab.DuplicateTab{TabID: 3}},
		{"close-tab 2", tab.CloseTab{TabID: 2}},
		{"close-pane", tab.CloseActivePane{}},
		{"split v", tab.SplitActivePane{Direction: tab.Vertical}},
		{"SPLIT horizontal", tab.SplitActivePane{Direction: tab.Horizontal}},
		{"move-tab 1 3", tab.MoveTab{From: 0, To: 2}},
		{"rename-tab 5 build logs", tab.RenameTab{TabID: 5, Title: &title}},
		{"rename-tab 5", tab.RenameTab{TabID: 5}},
		{"select-tab 2", tab.SelectTab{Position: 1}},
		{"select-pane 7", tab.SelectPane{PaneID: 7}},
		{"next-tab", tab.NextTab{}},
		{"prev-tab", tab.PrevTab{}},
		{"next-pane", tab.NextPane{}},
		{"prev-pane", tab.PrevPane{}},
		{"resize left", tab.ResizePane{Direction: tab.ResizeLeft, Delta: keybindings.ResizeStep}},
		{"resize down 0.2", tab.ResizePane{Direction: tab.ResizeDown, Delta: 0.2}},
	}

	p := NewParser(nil)
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			r, err := p.Parse(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.Action)
			assert.Equal(t, QueryNone, r.Query)
		})
	}
}

func TestParse_Queries(t *testing.T) {
	p := NewParser(nil)

	r, err := p.Parse("list")
	require.NoError(t, err)
	assert.Equal(t, QueryList, r.Query)

	r, err = p.Parse("tree")
	require.NoError(t, err)
	assert.Equal(t, QueryTree, r.Query)
	assert.Zero(t, r.TabID)

	r, err = p.Parse("tree 4")
	require.NoError(t, err)
	assert.Equal(t, tab.TabID(4), r.TabID)

	r, err = p.Parse("help")
	require.NoError(t, err)
	assert.Equal(t, QueryHelp, r.Query)

	r, err = p.Parse("  quit  ")
	require.NoError(t, err)
	assert.Equal(t, QueryQuit, r.Query)
	assert.Nil(t, r.Action)
}

func TestParse_Errors(t *testing.T) {
	p := NewParser(nil)

	_, err := p.Parse("   ")
	require.ErrorIs(t, err, ErrEmpty)

	for _, line := range []string{
		"frobnicate",
		"new-tab a b c",
		"dup-tab",
		"close-tab zero",
		"close-tab 0",
		"close-pane now",
		"split diagonal",
		"move-tab 1",
		"move-tab 0 1",
		"rename-tab",
		"select-tab -1",
		"select-pane 0",
		"resize sideways",
		"resize left 2",
		"tree a",
		"list all",
	} {
		_, err := p.Parse(line)
		assert.Error(t, err, line)
	}

	_, err = p.Parse("split")
	require.EqualError(t, err, "usage: split <h|v>")
}

func TestParse_Chords(t *testing.T) {
	p := NewParser(keybindings.DefaultBindings())

	r, err := p.Parse("Ctrl+Shift+T")
	require.NoError(t, err)
	assert.Equal(t, keybindings.ActionNewTab, r.Binding)
	assert.Nil(t, r.Action)

	r, err = p.Parse("ctrl+q")
	require.NoError(t, err)
	assert.Equal(t, QueryQuit, r.Query)

	// Unbound chords fall through to the grammar.
	_, err = p.Parse("ctrl+shift+z")
	require.Error(t, err)
}

func TestHelp(t *testing.T) {
	out := Help(keybindings.DefaultBindings())
	assert.Contains(t, out, "split <h|v>")
	assert.Contains(t, out, "ctrl+shift+t")
	assert.Contains(t, out, keybindings.ActionNewTab)

	assert.NotContains(t, Help(nil), "Keybindings:")
}

func TestQueryString(t *testing.T) {
	assert.Equal(t, "tree", QueryTree.String())
	assert.Equal(t, "none", Query(42).String())
}
