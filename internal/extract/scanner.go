package extract

import (
	"i18nextract/internal/lexer"
	"i18nextract/internal/message"
)

// Conflict records a text that was seen again with a different default than
// the one kept.
type Conflict struct {
	Kept     message.Key
	Rejected message.Key
	At       message.Occurrence
}

// Scanner collects the marker calls of one file.
type Scanner struct {
	file      string
	machine   Machine
	messages  *message.Builder
	conflicts []Conflict
}

// NewScanner returns a scanner recording occurrences against file.
func NewScanner(file, marker, keyword string) *Scanner {
	return &Scanner{
		file:     file,
		machine:  NewMachine(marker, keyword),
		messages: message.NewBuilder(),
	}
}

// State exposes the current machine state.
func (s *Scanner) State() State {
	return s.machine.State
}

// Feed advances the machine by one token and records any finalized call.
func (s *Scanner) Feed(tok lexer.Token) error {
	next, call, err := s.machine.Step(tok)
	if err != nil {
		return err
	}
	s.machine = next
	if call != nil {
		s.record(*call)
	}
	return nil
}

func (s *Scanner) record(call Call) {
	at := message.NewOccurrence(s.file, call.Line)
	if kept, same := s.messages.Add(call.Key, at); !same {
		s.conflicts = append(s.conflicts, Conflict{Kept: kept, Rejected: call.Key, At: at})
	}
}

// Result returns the collected keys, grouped by the set of places they were
// seen and sorted by key within a group.
func (s *Scanner) Result() message.Set {
	return s.messages.Set()
}

// Conflicts returns the default-text conflicts seen so far, in input order.
func (s *Scanner) Conflicts() []Conflict {
	return s.conflicts
}
