package catalog

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"i18nextract/internal/message"
	"i18nextract/internal/po"
)

// Entry is one message of the template: its key, the places it was found
// and free-form comments written above it.
type Entry struct {
	key      message.Key
	comments string
	locs     map[message.Occurrence]struct{}
	// sorted caches the ordered view of locs; nil when stale.
	sorted []message.Occurrence
}

// NewEntry returns an entry without locations or comments.
func NewEntry(key message.Key) *Entry {
	return &Entry{key: key, locs: make(map[message.Occurrence]struct{})}
}

// Key returns the entry's message key.
func (e *Entry) Key() message.Key {
	return e.key
}

// AddComment appends a comment line. Comments are written verbatim, so
// callers include the leading "#".
func (e *Entry) AddComment(c string) {
	e.comments += c + "\n"
}

// Comments returns the accumulated comment block.
func (e *Entry) Comments() string {
	return e.comments
}

// AddLocation records an occurrence. Adding the same place twice is a no-op.
func (e *Entry) AddLocation(file string, line int) {
	o := message.NewOccurrence(file, line)
	if _, ok := e.locs[o]; ok {
		return
	}
	e.locs[o] = struct{}{}
	e.sorted = nil
}

// Locations returns the sorted occurrences. The slice is shared with the
// entry and must not be modified.
func (e *Entry) Locations() []message.Occurrence {
	if e.sorted == nil {
		e.sorted = slices.SortedFunc(maps.Keys(e.locs), message.Occurrence.Compare)
	}
	return e.sorted
}

// Compare orders entries by their sorted locations, then by text.
// Comments do not take part.
func (e *Entry) Compare(o *Entry) int {
	if c := message.CompareOccurrences(e.Locations(), o.Locations()); c != 0 {
		return c
	}
	return strings.Compare(e.key.Text, o.key.Text)
}

// Format renders the entry block, blank line included.
func (e *Entry) Format(c *po.Codec) (string, error) {
	var b strings.Builder
	if e.comments != "" {
		s, err := c.Encode(e.comments)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	for _, l := range e.Locations() {
		file, err := c.Encode(l.File)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "#: %s:%d\n", file, l.Line)
	}
	if e.key.HasDefault {
		def, err := c.Normalize(strings.TrimSpace(e.key.Default))
		if err != nil {
			return "", err
		}
		for i, line := range strings.Split(def, "\n") {
			if i == 0 {
				b.WriteString("#. Default: " + line + "\n")
			} else {
				b.WriteString("#.  " + line + "\n")
			}
		}
	}
	id, err := c.Normalize(e.key.Text)
	if err != nil {
		return "", err
	}
	b.WriteString("msgid " + id + "\n")
	b.WriteString("msgstr \"\"\n\n")
	return b.String(), nil
}
