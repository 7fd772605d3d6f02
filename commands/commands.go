// Package commands parses the text command language typed at the session
// prompt into layout actions and queries.
package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/javanhut/raven-session/keybindings"
	"github.com/javanhut/raven-session/tab"
)

// ErrEmpty is returned for a blank line.
var ErrEmpty = errors.New("empty command")

// Query is a read-only request the host answers itself.
type Query int

const (
	QueryNone Query = iota
	QueryList
	QueryTree
	QueryHelp
	QueryQuit
)

func (q Query) String() string {
	switch q {
	case QueryList:
		return "list"
	case QueryTree:
		return "tree"
	case QueryHelp:
		return "help"
	case QueryQuit:
		return "quit"
	default:
		return "none"
	}
}

// Result is what a line parsed to. Exactly one of Action, Query or Binding
// is set.
type Result struct {
	Action tab.Action
	Query  Query
	// TabID selects the tab for QueryTree; 0 means the active tab.
	TabID tab.TabID
	// Binding is an action name from a key chord. It depends on the
	// current selection, see keybindings.SessionAction.
	Binding string
}

// Parser parses command lines. Lines that are bound key chords resolve
// through the key map before the command grammar is tried.
type Parser struct {
	keys *keybindings.Map
}

// NewParser creates a parser. keys may be nil.
func NewParser(keys *keybindings.Map) *Parser {
	return &Parser{keys: keys}
}

// Parse parses one line.
func (p *Parser) Parse(line string) (Result, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Result{}, ErrEmpty
	}
	if p.keys != nil {
		if name, ok := p.keys.Resolve(line); ok {
			if name == keybindings.ActionExit {
				return Result{Query: QueryQuit}, nil
			}
			return Result{Binding: name}, nil
		}
	}

	fields := strings.Fields(line)
	name, args := strings.ToLower(fields[0]), fields[1:]
	switch name {
	case "new-tab":
		if err := maxArgs(name, args, 2); err != nil {
			return Result{}, err
		}
		a := tab.NewTab{}
		if len(args) > 0 {
			a.Profile = args[0]
		}
		if len(args) > 1 {
			a.WorkingDir = args[1]
		}
		return Result{Action: a}, nil
	case "dup-tab", "duplicate-tab":
		id, err := tabIDArg(name, args)
		if err != nil {
			return Result{}, err
		}
		return Result{Action: tab.DuplicateTab{TabID: id}}, nil
	case "close-tab":
		id, err := tabIDArg(name, args)
		if err != nil {
			return Result{}, err
		}
		return Result{Action: tab.CloseTab{TabID: id}}, nil
	case "close-pane":
		return noArgs(name, args, tab.CloseActivePane{})
	case "split":
		if len(args) != 1 {
			return Result{}, usage(name)
		}
		dir, err := parseDirection(args[0])
		if err != nil {
			return Result{}, err
		}
		return Result{Action: tab.SplitActivePane{Direction: dir}}, nil
	case "move-tab":
		if len(args) != 2 {
			return Result{}, usage(name)
		}
		from, err := positionArg(args[0])
		if err != nil {
			return Result{}, err
		}
		to, err := positionArg(args[1])
		if err != nil {
			return Result{}, err
		}
		return Result{Action: tab.MoveTab{From: from, To: to}}, nil
	case "rename-tab":
		if len(args) == 0 {
			return Result{}, usage(name)
		}
		id, err := parseTabID(args[0])
		if err != nil {
			return Result{}, err
		}
		a := tab.RenameTab{TabID: id}
		if len(args) > 1 {
			title := strings.Join(args[1:], " ")
			a.Title = &title
		}
		return Result{Action: a}, nil
	case "select-tab":
		if len(args) != 1 {
			return Result{}, usage(name)
		}
		pos, err := positionArg(args[0])
		if err != nil {
			return Result{}, err
		}
		return Result{Action: tab.SelectTab{Position: pos}}, nil
	case "select-pane":
		if len(args) != 1 {
			return Result{}, usage(name)
		}
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil || id == 0 {
			return Result{}, fmt.Errorf("invalid pane id %q", args[0])
		}
		return Result{Action: tab.SelectPane{PaneID: tab.PaneID(id)}}, nil
	case "next-tab":
		return noArgs(name, args, tab.NextTab{})
	case "prev-tab":
		return noArgs(name, args, tab.PrevTab{})
	case "next-pane":
		return noArgs(name, args, tab.NextPane{})
	case "prev-pane":
		return noArgs(name, args, tab.PrevPane{})
	case "resize":
		return parseResize(args)
	case "list", "ls":
		return queryNoArgs(name, args, QueryList)
	case "tree":
		if err := maxArgs(name, args, 1); err != nil {
			return Result{}, err
		}
		r := Result{Query: QueryTree}
		if len(args) == 1 {
			id, err := parseTabID(args[0])
			if err != nil {
				return Result{}, err
			}
			r.TabID = id
		}
		return r, nil
	case "help", "keybindings":
		return queryNoArgs(name, args, QueryHelp)
	case "quit", "exit":
		return queryNoArgs(name, args, QueryQuit)
	}
	return Result{}, fmt.Errorf("unknown command %q", fields[0])
}

func parseResize(args []string) (Result, error) {
	if len(args) < 1 || len(args) > 2 {
		return Result{}, usage("resize")
	}
	var dir tab.ResizeDirection
	switch strings.ToLower(args[0]) {
	case "left":
		dir = tab.ResizeLeft
	case "right":
		dir = tab.ResizeRight
	case "up":
		dir = tab.ResizeUp
	case "down":
		dir = tab.ResizeDown
	default:
		return Result{}, fmt.Errorf("invalid resize direction %q", args[0])
	}
	delta := keybindings.ResizeStep
	if len(args) == 2 {
		d, err := strconv.ParseFloat(args[1], 64)
		if err != nil || d <= 0 || d >= 1 {
			return Result{}, fmt.Errorf("invalid resize delta %q", args[1])
		}
		delta = d
	}
	return Result{Action: tab.ResizePane{Direction: dir, Delta: delta}}, nil
}

func parseDirection(s string) (tab.Direction, error) {
	switch strings.ToLower(s) {
	case "h", "horizontal":
		return tab.Horizontal, nil
	case "v", "vertical":
		return tab.Vertical, nil
	}
	return 0, fmt.Errorf("invalid split direction %q", s)
}

func parseTabID(s string) (tab.TabID, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid tab id %q", s)
	}
	return tab.TabID(id), nil
}

// positionArg reads a 1-based tab position and returns it 0-based.
func positionArg(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid tab position %q", s)
	}
	return n - 1, nil
}

func tabIDArg(name string, args []string) (tab.TabID, error) {
	if len(args) != 1 {
		return 0, usage(name)
	}
	return parseTabID(args[0])
}

func noArgs(name string, args []string, a tab.Action) (Result, error) {
	if len(args) != 0 {
		return Result{}, usage(name)
	}
	return Result{Action: a}, nil
}

func queryNoArgs(name string, args []string, q Query) (Result, error) {
	if len(args) != 0 {
		return Result{}, usage(name)
	}
	return Result{Query: q}, nil
}

func maxArgs(name string, args []string, n int) error {
	if len(args) > n {
		return usage(name)
	}
	return nil
}

var usages = map[string]string{
	"new-tab":       "new-tab [profile] [dir]",
	"dup-tab":       "dup-tab <tab-id>",
	"duplicate-tab": "duplicate-tab <tab-id>",
	"close-tab":     "close-tab <tab-id>",
	"close-pane":    "close-pane",
	"split":         "split <h|v>",
	"move-tab":      "move-tab <from> <to>",
	"rename-tab":    "rename-tab <tab-id> [title...]",
	"select-tab":    "select-tab <position>",
	"select-pane":   "select-pane <pane-id>",
	"resize":        "resize <left|right|up|down> [delta]",
	"tree":          "tree [tab-id]",
}

func usage(name string) error {
	if u, ok := usages[name]; ok {
		return fmt.Errorf("usage: %s", u)
	}
	return fmt.Errorf("usage: %s", name)
}
