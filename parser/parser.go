// Package parser scans terminal output for the few control sequences the
// session layout cares about: window titles, working directory reports and
// the bell. Everything else passes through untouched.
package parser

import (
	"net/url"
	"strings"
)

// ParserState represents the current state of the scanner
type ParserState int

const (
	StateGround ParserState = iota
	StateEscape
	StateCSI
	StateOSC
	StateOSCEscape
)

// maxOSCLength bounds buffered OSC payloads; longer ones are dropped.
const maxOSCLength = 4096

// SignalKind identifies what a Signal reports.
type SignalKind int

const (
	SignalTitle SignalKind = iota
	SignalWorkingDir
	SignalBell
)

func (k SignalKind) String() string {
	switch k {
	case SignalTitle:
		return "title"
	case SignalWorkingDir:
		return "working_dir"
	case SignalBell:
		return "bell"
	default:
		return "unknown"
	}
}

// Signal is one event found in the output stream.
type Signal struct {
	Kind  SignalKind
	Value string
}

// Scanner is a byte-at-a-time state machine. Sequences may be split across
// Feed calls. A Scanner is not safe for concurrent use.
type Scanner struct {
	state    ParserState
	osc      strings.Builder
	overflow bool
}

// NewScanner creates a scanner in the ground state.
func NewScanner() *Scanner {
	return &Scanner{state: StateGround}
}

// State returns the current scanner state.
func (s *Scanner) State() ParserState {
	return s.state
}

// Feed processes a chunk of output and returns the signals it completed.
func (s *Scanner) Feed(data []byte) []Signal {
	var signals []Signal
	for _, b := range data {
		if sig, ok := s.processByte(b); ok {
			signals = append(signals, sig)
		}
	}
	return signals
}

func (s *Scanner) processByte(b byte) (Signal, bool) {
	switch s.state {
	case StateEscape:
		switch b {
		case '[': // CSI
			s.state = StateCSI
		case ']': // OSC
			s.state = StateOSC
			s.osc.Reset()
			s.overflow = false
		case 0x1b:
			// ESC ESC: stay in escape
		default:
			s.state = StateGround
		}
	case StateCSI:
		if b >= 0x40 && b <= 0x7e {
			s.state = StateGround
		} else if b == 0x1b {
			s.state = StateEscape
		}
	case StateOSC:
		switch b {
		case 0x07: // BEL terminates OSC
			s.state = StateGround
			return s.finishOSC()
		case 0x1b:
			s.state = StateOSCEscape
		default:
			if s.osc.Len() >= maxOSCLength {
				s.overflow = true
			} else {
				s.osc.WriteByte(b)
			}
		}
	case StateOSCEscape:
		if b == '\\' { // ST
			s.state = StateGround
			return s.finishOSC()
		}
		// Unterminated OSC followed by a new escape sequence
		s.state = StateEscape
		sig, ok := s.finishOSC()
		s.processByte(b)
		return sig, ok
	default:
		switch b {
		case 0x1b:
			s.state = StateEscape
		case 0x07:
			return Signal{Kind: SignalBell}, true
		}
	}
	return Signal{}, false
}

func (s *Scanner) finishOSC() (Signal, bool) {
	params := s.osc.String()
	s.osc.Reset()
	if s.overflow {
		s.overflow = false
		return Signal{}, false
	}
	return handleOSC(params)
}

func handleOSC(params string) (Signal, bool) {
	code, value, ok := strings.Cut(params, ";")
	if !ok {
		return Signal{}, false
	}
	switch code {
	case "0", "2":
		return Signal{Kind: SignalTitle, Value: value}, true
	case "7":
		if path := parseOSC7Path(value); path != "" {
			return Signal{Kind: SignalWorkingDir, Value: path}, true
		}
	}
	return Signal{}, false
}

func parseOSC7Path(value string) string {
	if strings.HasPrefix(value, "file://") {
		parsed, err := url.Parse(value)
		if err != nil {
			return ""
		}
		if parsed.Path == "" {
			return ""
		}
		path, err := url.PathUnescape(parsed.Path)
		if err != nil {
			return ""
		}
		return path
	}
	if strings.HasPrefix(value, "/") {
		return value
	}
	return ""
}
