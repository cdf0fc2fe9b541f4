package interpolation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVariables(t *testing.T) {
	tests := []struct {
		text     string
		expected []string
	}{
		{"hello ${name}", []string{"name"}},
		{"$count items in ${folder-id}", []string{"count", "folder-id"}},
		{"${a} and ${a} again", []string{"a"}},
		{"costs $$5", nil},
		{"no placeholders", nil},
		{"${} and $1", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, Variables(tt.text), tt.text)
	}
}

func TestCompare(t *testing.T) {
	assert.True(t, Compare("hello ${name}", "hola ${name}").Empty())
	assert.True(t, Compare("label_ok", "OK").Empty())

	m := Compare("hello ${name}", "hola ${nombre}")
	assert.False(t, m.Empty())
	assert.Equal(t, []string{"name"}, m.Missing)
	assert.Equal(t, []string{"nombre"}, m.Extra)
}
