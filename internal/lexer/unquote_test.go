package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnquote(t *testing.T) {
	tests := []struct {
		lit      string
		expected string
	}{
		{`'plain'`, "plain"},
		{`"double"`, "double"},
		{`u'hello ${name}'`, "hello ${name}"},
		{`''`, ""},
		{`'a\nb\tc'`, "a\nb\tc"},
		{`'it\'s'`, "it's"},
		{`"q\"q"`, `q"q`},
		{`'\\'`, `\`},
		{`'\x41\101☻'`, "AA☻"},
		{`'\U0001F600'`, "\U0001F600"},
		{`'\d'`, `\d`},
		{`'\N{BULLET}'`, `\N{BULLET}`},
		{`r'\n\d'`, `\n\d`},
		{`'''tri'ple'''`, "tri'ple"},
		{`"""multi` + "\n" + `line"""`, "multi\nline"},
		{"'join\\\nlines'", "joinlines"},
		{`b'\xd6'`, "\xd6"},
		{`'\xd6'`, "Ö"},
		{`f'{x}'`, "{x}"},
	}

	for _, tt := range tests {
		t.Run(tt.lit, func(t *testing.T) {
			got, err := Unquote(tt.lit)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestUnquoteErrors(t *testing.T) {
	for _, lit := range []string{`x'a'`, `'`, `'abc`, `'\x4'`, `'\uZZZZ'`, `'''ab''`} {
		_, err := Unquote(lit)
		assert.Error(t, err, lit)
	}
}
