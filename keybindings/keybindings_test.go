package keybindings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javanhut/raven-session/tab"
)

func TestNormalizeChord(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "ctrl+shift+t", want: "ctrl+shift+t"},
		{in: "Shift+Ctrl+T", want: "ctrl+shift+t"},
		{in: " control + shift + tab ", want: "ctrl+shift+tab"},
		{in: "meta+1", want: "alt+1"},
		{in: "cmd+shift+PageUp", want: "shift+super+pgup"},
		{in: "ctrl++", want: "ctrl++"},
		{in: "ctrl+shift", wantErr: true},
		{in: "ctrl+a+b", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeChord(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultBindings_Resolve(t *testing.T) {
	m := DefaultBindings()

	tests := map[string]string{
		"ctrl+shift+t":   ActionNewTab,
		"Shift+Ctrl+X":   ActionCloseTab,
		"ctrl+tab":       ActionNextTab,
		"ctrl+shift+tab": ActionPrevTab,
		"ctrl+shift+v":   ActionSplitVertical,
		"ctrl+shift+h":   ActionSplitHorizontal,
		"ctrl+shift+w":   ActionClosePane,
		"alt+3":          "select_tab_3",
		"ctrl+q":         ActionExit,
	}
	for chord, want := range tests {
		got, ok := m.Resolve(chord)
		require.True(t, ok, chord)
		assert.Equal(t, want, got, chord)
	}

	_, ok := m.Resolve("ctrl+shift+z")
	assert.False(t, ok)
	_, ok = m.Resolve("not a chord+")
	assert.False(t, ok)
}

func TestMerge(t *testing.T) {
	m := DefaultBindings()
	err := m.Merge(map[string]string{
		"Alt+N":        "new_tab",
		"ctrl+shift+t": "none",
		"ctrl+q":       "",
	})
	require.NoError(t, err)

	got, ok := m.Resolve("alt+n")
	require.True(t, ok)
	assert.Equal(t, ActionNewTab, got)
	_, ok = m.Resolve("ctrl+shift+t")
	assert.False(t, ok)
	_, ok = m.Resolve("ctrl+q")
	assert.False(t, ok)
}

func TestMerge_InvalidLeavesMapUnchanged(t *testing.T) {
	m := DefaultBindings()
	before := m.Bindings()

	err := m.Merge(map[string]string{
		"alt+n":      "new_tab",
		"alt+m":      "launch_rockets",
		"ctrl+shift": "new_tab",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "launch_rockets")
	assert.Equal(t, before, m.Bindings())
}

func TestValidAction(t *testing.T) {
	assert.True(t, ValidAction(ActionSplitVertical))
	assert.True(t, ValidAction("select_tab_12"))
	assert.False(t, ValidAction("select_tab_0"))
	assert.False(t, ValidAction("select_tab_x"))
	assert.False(t, ValidAction(ActionNone))
}

func TestBindings_Sorted(t *testing.T) {
	b := DefaultBindings().Bindings()
	require.NotEmpty(t, b)
	for i := 1; i < len(b); i++ {
		assert.LessOrEqual(t, b[i-1].Action, b[i].Action)
	}
}

func TestSessionAction(t *testing.T) {
	tests := []struct {
		name string
		want tab.Action
	}{
		{ActionNewTab, tab.NewTab{}},
		{ActionDuplicateTab, tab.DuplicateTab{TabID: 4}},
		{ActionCloseTab, tab.CloseTab{TabID: 4}},
		{ActionMoveTabLeft, tab.MoveTab{From: 2, To: 1}},
		{ActionMoveTabRight, tab.MoveTab{From: 2, To: 3}},
		{ActionSplitHorizontal, tab.SplitActivePane{Direction: tab.Horizontal}},
		{ActionClosePane, tab.CloseActivePane{}},
		{ActionResizeUp, tab.ResizePane{Direction: tab.ResizeUp, Delta: ResizeStep}},
		{"select_tab_1", tab.SelectTab{Position: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SessionAction(tt.name, 4, 2)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := SessionAction(ActionExit, 4, 2)
	assert.False(t, ok)
}
