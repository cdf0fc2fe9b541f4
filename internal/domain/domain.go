// Package domain decides whether a source file belongs to the translation
// domain being extracted.
package domain

import (
	"os"
	"strings"

	"i18nextract/internal/lexer"

	"github.com/rs/zerolog/log"
)

// Decision is the outcome of a domain check.
type Decision int

const (
	// Unknown means the domain could not be determined; callers keep the file.
	Unknown Decision = iota
	Match
	Mismatch
)

func (d Decision) String() string {
	switch d {
	case Match:
		return "match"
	case Mismatch:
		return "mismatch"
	default:
		return "unknown"
	}
}

// Predicate classifies a file path.
type Predicate func(path string) Decision

// Any accepts every file.
func Any(string) Decision { return Match }

// FactoryInspector reads a module's source and looks for the assignment that
// binds the marker to a message factory, e.g.
//
//	_ = MessageFactory("zope")
//
// It only reads tokens; nothing is imported or executed.
type FactoryInspector struct {
	Domain string
	Marker string
}

// Predicate returns the inspector as a Predicate.
func (fi FactoryInspector) Predicate() Predicate {
	return fi.Decide
}

// Decide implements Predicate.
func (fi FactoryInspector) Decide(path string) Decision {
	src, err := os.ReadFile(path)
	if err != nil {
		log.Warn().Err(err).Str("file", path).Msg("Could not read module, assuming i18n domain OK")
		return Unknown
	}

	found, bound, ok := fi.factoryDomain(src)
	switch {
	case !ok:
		log.Warn().Str("file", path).Msg("Could not tokenize module, assuming i18n domain OK")
		return Unknown
	case found == "" && bound:
		log.Warn().Str("file", path).Msg("Could not figure out the i18n domain, assuming it is OK")
		return Unknown
	case found == "":
		log.Debug().Str("file", path).Msg("No message factory bound")
		return Unknown
	case found == fi.Domain:
		return Match
	default:
		log.Debug().Str("file", path).Str("domain", found).Msg("Domain mismatch, skipping file")
		return Mismatch
	}
}

// factoryDomain returns the literal domain of the last factory assignment to
// the marker, whether the marker was bound at all, and false when the source
// cannot be tokenized.
func (fi FactoryInspector) factoryDomain(src []byte) (string, bool, bool) {
	marker := fi.Marker
	if marker == "" {
		marker = "_"
	}
	toks, err := lexer.New(src).All()
	if err != nil {
		return "", false, false
	}

	var found string
	var bound bool
	for i := 0; i+1 < len(toks); i++ {
		t := toks[i]
		// from x import Factory as _
		if t.Kind == lexer.Name && t.Text == "as" && toks[i+1].Kind == lexer.Name && toks[i+1].Text == marker {
			bound = true
			found = ""
			continue
		}
		if !isStatementStart(toks, i) || t.Kind != lexer.Name || t.Text != marker {
			continue
		}
		if toks[i+1].Kind != lexer.Op || toks[i+1].Text != "=" {
			continue
		}
		bound = true
		found = ""
		for j := i + 2; j+2 < len(toks) && toks[j].Kind != lexer.Newline && toks[j].Kind != lexer.EOF; j++ {
			if toks[j].Kind == lexer.Name && strings.HasSuffix(toks[j].Text, "MessageFactory") &&
				toks[j+1].Kind == lexer.Op && toks[j+1].Text == "(" && toks[j+2].Kind == lexer.String {
				if s, err := lexer.Unquote(toks[j+2].Text); err == nil {
					found = s
				}
				break
			}
		}
	}
	return found, bound, true
}

func isStatementStart(toks []lexer.Token, i int) bool {
	if i == 0 {
		return true
	}
	switch toks[i-1].Kind {
	case lexer.Newline, lexer.Comment:
		return true
	case lexer.Op:
		return toks[i-1].Text == ";"
	}
	return false
}
