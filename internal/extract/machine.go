// Package extract finds marker calls such as _("text", "default") in a token
// stream and collects the literal text passed to them.
package extract

import (
	"strings"

	"i18nextract/internal/lexer"
	"i18nextract/internal/message"
)

const (
	// DefaultMarker is the function name that marks translatable text.
	DefaultMarker = "_"
	// DefaultKeyword is the keyword argument that starts the substitution
	// mapping, after which no more literal text is collected.
	DefaultKeyword = "mapping"
)

// State is the position of the scanner relative to a marker call.
type State int

const (
	Waiting State = iota
	KeywordSeen
	ArgsOpen
)

func (s State) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case KeywordSeen:
		return "keyword-seen"
	case ArgsOpen:
		return "args-open"
	default:
		return "unknown"
	}
}

// Call is a finalized marker call.
type Call struct {
	Key  message.Key
	Line int
}

// Machine is the scanner state plus the per-call accumulator. It is a value:
// Step returns the next machine and never mutates the receiver's slices in a
// way visible to an earlier copy.
type Machine struct {
	State   State
	Marker  string
	Keyword string

	fragments  []string
	msgid      string
	def        string
	hasDefault bool
	line       int
}

// NewMachine returns a machine waiting for the given marker and keyword.
// Empty names select the defaults.
func NewMachine(marker, keyword string) Machine {
	if marker == "" {
		marker = DefaultMarker
	}
	if keyword == "" {
		keyword = DefaultKeyword
	}
	return Machine{State: Waiting, Marker: marker, Keyword: keyword}
}

// Step feeds one token. It returns the finalized call, if this token closed
// one. The error is non-nil only when a string literal cannot be decoded.
func (m Machine) Step(tok lexer.Token) (Machine, *Call, error) {
	switch m.State {
	case Waiting:
		if tok.Kind == lexer.Name && tok.Text == m.Marker {
			m.State = KeywordSeen
		}
		return m, nil, nil

	case KeywordSeen:
		if tok.Kind == lexer.Op && tok.Text == "(" {
			m.fragments = nil
			m.msgid = ""
			m.def = ""
			m.hasDefault = false
			m.line = tok.Line
			m.State = ArgsOpen
			return m, nil, nil
		}
		m.State = Waiting
		return m, nil, nil

	case ArgsOpen:
		switch {
		case (tok.Kind == lexer.Op && tok.Text == ")") || (tok.Kind == lexer.Name && tok.Text == m.Keyword):
			call := m.finalize()
			m.State = Waiting
			m.fragments = nil
			return m, call, nil
		case tok.Kind == lexer.Op && tok.Text == ",":
			if m.msgid == "" {
				m.msgid = strings.Join(m.fragments, "")
			} else if !m.defaultCommitted() && len(m.fragments) > 0 {
				m.def = strings.Join(m.fragments, "")
				m.hasDefault = true
			}
			m.fragments = nil
		case tok.Kind == lexer.String:
			s, err := lexer.Unquote(tok.Text)
			if err != nil {
				return m, nil, err
			}
			// copy on append so earlier Machine values keep their buffer
			m.fragments = append(m.fragments[:len(m.fragments):len(m.fragments)], s)
		}
		return m, nil, nil
	}
	return m, nil, nil
}

// defaultCommitted mirrors the truthiness rule of the call grammar: an empty
// default committed at a comma can still be replaced by a later argument.
func (m Machine) defaultCommitted() bool {
	return m.hasDefault && m.def != ""
}

func (m Machine) finalize() *Call {
	pending := len(m.fragments) > 0
	if !pending && m.msgid == "" {
		return nil
	}
	buf := strings.Join(m.fragments, "")

	var key message.Key
	switch {
	case m.msgid != "" && m.defaultCommitted():
		key = message.WithDefault(m.msgid, m.def)
	case m.msgid != "" && pending:
		key = message.WithDefault(m.msgid, buf)
	case m.msgid != "":
		key = message.NewKey(m.msgid)
	case m.defaultCommitted():
		key = message.NewKey(m.def)
	default:
		key = message.NewKey(buf)
	}
	return &Call{Key: key, Line: m.line}
}
