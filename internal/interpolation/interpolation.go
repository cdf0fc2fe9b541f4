// Package interpolation inspects the ${name} placeholders of message texts.
package interpolation

import (
	"regexp"
	"slices"
)

// Placeholder names follow the message id interpolation rules: $name or
// ${name}, where $$ is a literal dollar sign.
var placeholderRE = regexp.MustCompile(`\$\$|\$([a-zA-Z_][-a-zA-Z0-9_]*)|\$\{([a-zA-Z_][-a-zA-Z0-9_]*)\}`)

// Variables returns the placeholder names in text, in order of first
// appearance, without duplicates.
func Variables(text string) []string {
	var names []string
	for _, m := range placeholderRE.FindAllStringSubmatch(text, -1) {
		name := m[1]
		if name == "" {
			name = m[2]
		}
		if name == "" || slices.Contains(names, name) {
			continue
		}
		names = append(names, name)
	}
	return names
}

// Mismatch lists the placeholders used by only one of msgid and def.
type Mismatch struct {
	// Missing are in msgid but not in the default.
	Missing []string
	// Extra are in the default but not in msgid.
	Extra []string
}

// Empty reports whether both texts use the same placeholders.
func (m Mismatch) Empty() bool {
	return len(m.Missing) == 0 && len(m.Extra) == 0
}

// Compare returns the placeholder differences between msgid and its default.
func Compare(msgid, def string) Mismatch {
	a, b := Variables(msgid), Variables(def)
	var m Mismatch
	for _, n := range a {
		if !slices.Contains(b, n) {
			m.Missing = append(m.Missing, n)
		}
	}
	for _, n := range b {
		if !slices.Contains(a, n) {
			m.Extra = append(m.Extra, n)
		}
	}
	return m
}
