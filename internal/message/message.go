// Package message holds the identity and location types shared by the token
// scanner, the markup/config collaborators and the catalog.
package message

import (
	"cmp"
	"path/filepath"
	"slices"
	"sort"
)

// Key identifies a translatable string.
type Key struct {
	// Text is the canonical source text after concatenating adjacent literals.
	Text string
	// Default is the fallback display text. Only meaningful when HasDefault is set.
	Default string
	// HasDefault distinguishes an absent default from an empty one.
	HasDefault bool
}

// NewKey returns a key without default text.
func NewKey(text string) Key {
	return Key{Text: text}
}

// WithDefault returns a key carrying a default text, which may be empty.
func WithDefault(text, def string) Key {
	return Key{Text: text, Default: def, HasDefault: true}
}

// SameDefault reports whether both keys carry the same default state.
func (k Key) SameDefault(o Key) bool {
	return k.HasDefault == o.HasDefault && k.Default == o.Default
}

// Compare orders keys by text, then absent default before present, then default.
func (k Key) Compare(o Key) int {
	if c := cmp.Compare(k.Text, o.Text); c != 0 {
		return c
	}
	switch {
	case k.HasDefault == o.HasDefault:
		return cmp.Compare(k.Default, o.Default)
	case !k.HasDefault:
		return -1
	default:
		return 1
	}
}

// Occurrence is one place a key was found.
type Occurrence struct {
	File string
	Line int
}

// NewOccurrence normalizes the path to forward slashes.
func NewOccurrence(file string, line int) Occurrence {
	return Occurrence{File: filepath.ToSlash(file), Line: line}
}

// Compare orders occurrences by file, then line.
func (o Occurrence) Compare(p Occurrence) int {
	if c := cmp.Compare(o.File, p.File); c != 0 {
		return c
	}
	return cmp.Compare(o.Line, p.Line)
}

// CompareOccurrences compares two sorted occurrence tuples lexicographically.
// A proper prefix sorts first.
func CompareOccurrences(a, b []Occurrence) int {
	return slices.CompareFunc(a, b, Occurrence.Compare)
}

// SortOccurrences sorts in place and drops duplicates.
func SortOccurrences(locs []Occurrence) []Occurrence {
	slices.SortFunc(locs, Occurrence.Compare)
	return slices.Compact(locs)
}

// Extraction pairs a key with the places it was seen.
type Extraction struct {
	Key         Key
	Occurrences []Occurrence
}

// Set is an ordered mapping from key to occurrences.
type Set []Extraction

// Sort orders the set by sorted occurrence tuple, then key. Extractions seen at
// the same places stay adjacent, which keeps output diffs small.
func (s Set) Sort() {
	for i := range s {
		s[i].Occurrences = SortOccurrences(s[i].Occurrences)
	}
	sort.SliceStable(s, func(i, j int) bool {
		if c := CompareOccurrences(s[i].Occurrences, s[j].Occurrences); c != 0 {
			return c < 0
		}
		return s[i].Key.Compare(s[j].Key) < 0
	})
}

// Texts returns the key texts in set order.
func (s Set) Texts() []string {
	out := make([]string, 0, len(s))
	for _, e := range s {
		out = append(out, e.Key.Text)
	}
	return out
}

// FromMap adapts a plain text -> occurrences mapping, as produced by the markup
// and configuration collaborators, into a sorted Set without defaults.
func FromMap(m map[string][]Occurrence) Set {
	s := make(Set, 0, len(m))
	for text, locs := range m {
		s = append(s, Extraction{Key: NewKey(text), Occurrences: slices.Clone(locs)})
	}
	s.Sort()
	return s
}

// Builder accumulates occurrences per text. The first key seen for a text is
// kept; later keys only contribute their occurrences.
type Builder struct {
	keys map[string]Key
	locs map[string]map[Occurrence]struct{}
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		keys: make(map[string]Key),
		locs: make(map[string]map[Occurrence]struct{}),
	}
}

// Add records k at o. It returns the key kept for the text and whether k
// agrees with its default.
func (b *Builder) Add(k Key, o Occurrence) (Key, bool) {
	kept, ok := b.keys[k.Text]
	if !ok {
		kept = k
		b.keys[k.Text] = k
		b.locs[k.Text] = make(map[Occurrence]struct{})
	}
	b.locs[k.Text][o] = struct{}{}
	return kept, kept.SameDefault(k)
}

// AddSet records every occurrence of every extraction in s.
func (b *Builder) AddSet(s Set) {
	for _, x := range s {
		for _, o := range x.Occurrences {
			b.Add(x.Key, o)
		}
	}
}

// Len returns the number of distinct texts.
func (b *Builder) Len() int {
	return len(b.keys)
}

// Set returns the sorted content.
func (b *Builder) Set() Set {
	s := make(Set, 0, len(b.keys))
	for text, k := range b.keys {
		locs := make([]Occurrence, 0, len(b.locs[text]))
		for o := range b.locs[text] {
			locs = append(locs, o)
		}
		s = append(s, Extraction{Key: k, Occurrences: locs})
	}
	s.Sort()
	return s
}
