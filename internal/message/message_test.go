package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyCompare(t *testing.T) {
	absent := NewKey("a")
	empty := WithDefault("a", "")
	full := WithDefault("a", "x")

	assert.Equal(t, -1, absent.Compare(empty))
	assert.Equal(t, 1, empty.Compare(absent))
	assert.Equal(t, -1, empty.Compare(full))
	assert.Equal(t, 0, full.Compare(WithDefault("a", "x")))
	assert.Equal(t, -1, full.Compare(NewKey("b")))
	assert.False(t, absent.SameDefault(empty))
	assert.True(t, empty.SameDefault(WithDefault("zzz", "")))
}

func TestCompareOccurrences(t *testing.T) {
	a := []Occurrence{{"a.py", 1}}
	ab := []Occurrence{{"a.py", 1}, {"b.py", 1}}
	b := []Occurrence{{"b.py", 1}}

	assert.Equal(t, -1, CompareOccurrences(a, ab))
	assert.Equal(t, -1, CompareOccurrences(ab, b))
	assert.Equal(t, 0, CompareOccurrences(b, []Occurrence{{"b.py", 1}}))
	assert.Equal(t, -1, CompareOccurrences([]Occurrence{{"a.py", 2}}, []Occurrence{{"a.py", 10}}))
}

func TestSortOccurrencesDropsDuplicates(t *testing.T) {
	locs := SortOccurrences([]Occurrence{{"z", 1}, {"a", 3}, {"z", 1}, {"a", 2}})
	assert.Equal(t, []Occurrence{{"a", 2}, {"a", 3}, {"z", 1}}, locs)
}

func TestSetSortGroupsByLocations(t *testing.T) {
	s := Set{
		{Key: NewKey("zeta"), Occurrences: []Occurrence{{"a.py", 1}}},
		{Key: NewKey("beta"), Occurrences: []Occurrence{{"b.py", 4}}},
		{Key: NewKey("alpha"), Occurrences: []Occurrence{{"a.py", 1}}},
		{Key: NewKey("gamma"), Occurrences: []Occurrence{{"b.py", 4}, {"a.py", 1}}},
	}
	s.Sort()

	assert.Equal(t, []string{"alpha", "zeta", "gamma", "beta"}, s.Texts())
	assert.Equal(t, []Occurrence{{"a.py", 1}, {"b.py", 4}}, s[2].Occurrences)
}

func TestFromMap(t *testing.T) {
	s := FromMap(map[string][]Occurrence{
		"second": {{"x.pt", 9}},
		"first":  {{"x.pt", 2}, {"a.pt", 5}},
	})

	assert.Equal(t, []string{"first", "second"}, s.Texts())
	assert.False(t, s[0].Key.HasDefault)
}

func TestNewOccurrenceUsesForwardSlashes(t *testing.T) {
	o := NewOccurrence("pkg/sub/file.py", 3)
	assert.Equal(t, "pkg/sub/file.py", o.File)
	assert.Equal(t, 3, o.Line)
}

func TestBuilderKeepsFirstKey(t *testing.T) {
	b := NewBuilder()
	kept, same := b.Add(WithDefault("a", "one"), Occurrence{"x.py", 2})
	assert.True(t, same)
	assert.Equal(t, "one", kept.Default)

	kept, same = b.Add(WithDefault("a", "two"), Occurrence{"x.py", 1})
	assert.False(t, same)
	assert.Equal(t, "one", kept.Default)

	b.Add(WithDefault("a", "one"), Occurrence{"x.py", 2})
	b.AddSet(Set{{Key: NewKey("b"), Occurrences: []Occurrence{{"a.py", 9}}}})

	assert.Equal(t, 2, b.Len())
	assert.Equal(t, Set{
		{Key: NewKey("b"), Occurrences: []Occurrence{{"a.py", 9}}},
		{Key: WithDefault("a", "one"), Occurrences: []Occurrence{{"x.py", 1}, {"x.py", 2}}},
	}, b.Set())
}
