// Package po implements the escaping rules of the translation template format.
//
// Text is written as one or more double-quoted lines. Printable ASCII passes
// through, backslash, double quote, tab, carriage return and newline get their
// C escapes and every other byte is written as a three digit octal escape.
// Unescape and Decode reverse exactly what Escape and Normalize produce.
package po

import (
	"fmt"
	"strings"
)

// Escape escapes the bytes of s. Bytes >= 128 pass through untouched when
// passNonASCII is set and are octal escaped otherwise.
func Escape(s string, passNonASCII bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\':
			b.WriteString(`\\`)
		case c == '"':
			b.WriteString(`\"`)
		case c == '\t':
			b.WriteString(`\t`)
		case c == '\r':
			b.WriteString(`\r`)
		case c == '\n':
			b.WriteString(`\n`)
		case c >= 32 && c < 127:
			b.WriteByte(c)
		case c >= 128 && passNonASCII:
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, `\%03o`, c)
		}
	}
	return b.String()
}

// Normalize renders s as quoted template lines joined by "\n". A string
// without newlines becomes a single quoted line. Otherwise the first line is
// an empty string and every source line follows on its own, each but the
// last keeping its escaped newline.
func Normalize(s string, passNonASCII bool) string {
	lines := strings.Split(s, "\n")
	if len(lines) == 1 {
		return `"` + Escape(s, passNonASCII) + `"`
	}
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
		lines[len(lines)-1] += "\n"
	}
	for i := range lines {
		lines[i] = Escape(lines[i], passNonASCII)
	}
	return `""` + "\n" + `"` + strings.Join(lines, `\n"`+"\n"+`"`) + `"`
}

// Unescape reverses Escape.
func Unescape(s string) (string, error) {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			return "", fmt.Errorf("po: trailing backslash in %q", s)
		}
		switch c = s[i]; c {
		case '\\', '"':
			b.WriteByte(c)
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'n':
			b.WriteByte('\n')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			if i+2 >= len(s) || !isOctal(s[i+1]) || !isOctal(s[i+2]) {
				return "", fmt.Errorf("po: short octal escape at offset %d in %q", i-1, s)
			}
			v := (int(c-'0') << 6) | (int(s[i+1]-'0') << 3) | int(s[i+2]-'0')
			if v > 0xff {
				return "", fmt.Errorf("po: octal escape out of range at offset %d in %q", i-1, s)
			}
			b.WriteByte(byte(v))
			i += 2
		default:
			return "", fmt.Errorf("po: unknown escape \\%c in %q", c, s)
		}
	}
	return b.String(), nil
}

// Decode joins a sequence of quoted template lines, as produced by Normalize,
// back into the original text.
func Decode(quoted string) (string, error) {
	var b strings.Builder
	for _, line := range strings.Split(quoted, "\n") {
		line = strings.TrimSpace(line)
		if len(line) < 2 || line[0] != '"' || line[len(line)-1] != '"' {
			return "", fmt.Errorf("po: not a quoted line: %q", line)
		}
		s, err := Unescape(line[1 : len(line)-1])
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

func isOctal(c byte) bool {
	return c >= '0' && c <= '7'
}
