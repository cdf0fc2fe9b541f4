package lexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Unquote evaluates a string literal token without executing anything. It
// understands the u, r, b and f prefixes, triple quotes and the escape
// sequences of the host language. Unknown escapes are kept verbatim, named
// unicode escapes (\N{...}) are kept verbatim as well.
func Unquote(lit string) (string, error) {
	i := 0
	raw, isBytes := false, false
	for i < len(lit) && lit[i] != '"' && lit[i] != '\'' {
		switch lit[i] | 0x20 {
		case 'r':
			raw = true
		case 'b':
			isBytes = true
		case 'u', 'f':
		default:
			return "", fmt.Errorf("lexer: bad string prefix in %q", lit)
		}
		i++
	}
	body := lit[i:]

	var q string
	switch {
	case len(body) >= 6 && (strings.HasPrefix(body, `"""`) || strings.HasPrefix(body, `'''`)):
		q = body[:3]
	case len(body) >= 2:
		q = body[:1]
	default:
		return "", fmt.Errorf("lexer: malformed string literal %q", lit)
	}
	if !strings.HasSuffix(body, q) || len(body) < 2*len(q) {
		return "", fmt.Errorf("lexer: unterminated string literal %q", lit)
	}
	body = body[len(q) : len(body)-len(q)]

	if raw {
		return body, nil
	}
	return unescape(body, isBytes)
}

func unescape(s string, isBytes bool) (string, error) {
	if strings.IndexByte(s, '\\') < 0 {
		return s, nil
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(s) {
			b.WriteByte(c)
			break
		}
		i++
		c = s[i]
		switch c {
		case '\n':
		case '\r':
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
		case '\\', '\'', '"':
			b.WriteByte(c)
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'v':
			b.WriteByte('\v')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			v, _ := strconv.ParseUint(s[i:j], 8, 16)
			writeCode(&b, rune(v), isBytes)
			i = j - 1
		case 'x':
			v, err := hexDigits(s, i+1, 2)
			if err != nil {
				return "", err
			}
			writeCode(&b, v, isBytes)
			i += 2
		case 'u', 'U':
			if isBytes {
				b.WriteByte('\\')
				b.WriteByte(c)
				continue
			}
			n := 4
			if c == 'U' {
				n = 8
			}
			v, err := hexDigits(s, i+1, n)
			if err != nil {
				return "", err
			}
			if !utf8.ValidRune(v) {
				return "", fmt.Errorf("lexer: invalid code point \\%c%s", c, s[i+1:i+1+n])
			}
			b.WriteRune(v)
			i += n
		default:
			b.WriteByte('\\')
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

// writeCode writes a numeric escape as a raw byte for bytes literals and as
// a code point otherwise.
func writeCode(b *strings.Builder, v rune, isBytes bool) {
	if isBytes {
		b.WriteByte(byte(v))
		return
	}
	b.WriteRune(v)
}

func hexDigits(s string, start, n int) (rune, error) {
	if start+n > len(s) {
		return 0, fmt.Errorf("lexer: truncated escape in %q", s)
	}
	v, err := strconv.ParseUint(s[start:start+n], 16, 32)
	if err != nil {
		return 0, fmt.Errorf("lexer: bad hex escape in %q: %w", s, err)
	}
	return rune(v), nil
}
