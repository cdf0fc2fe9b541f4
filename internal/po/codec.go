package po

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

const (
	// DefaultCharset is written to the header unless another charset is configured.
	DefaultCharset = "UTF-8"
	// DefaultEncoding is the Content-Transfer-Encoding header value.
	DefaultEncoding = "8bit"
)

// Codec converts text into escaped template lines for one output charset.
type Codec struct {
	charset      string
	enc          *encoding.Encoder
	dec          *encoding.Decoder
	passNonASCII bool
}

// NewCodec resolves charset by its IANA or WHATWG name. An empty name selects
// UTF-8, in which case text is escaped as-is.
func NewCodec(charset string, passNonASCII bool) (*Codec, error) {
	if charset == "" {
		charset = DefaultCharset
	}
	c := &Codec{charset: charset, passNonASCII: passNonASCII}
	if isUTF8(charset) {
		return c, nil
	}
	e, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("po: unsupported charset %q: %w", charset, err)
	}
	c.enc = e.NewEncoder()
	c.dec = e.NewDecoder()
	return c, nil
}

// Charset returns the configured charset name for the template header.
func (c *Codec) Charset() string {
	return c.charset
}

// Normalize encodes s into the output charset and renders it as quoted lines.
func (c *Codec) Normalize(s string) (string, error) {
	raw, err := c.encode(s)
	if err != nil {
		return "", err
	}
	return Normalize(raw, c.passNonASCII), nil
}

// Decode reverses Normalize.
func (c *Codec) Decode(quoted string) (string, error) {
	raw, err := Decode(quoted)
	if err != nil {
		return "", err
	}
	if c.dec == nil {
		return raw, nil
	}
	s, err := c.dec.String(raw)
	if err != nil {
		return "", fmt.Errorf("po: decode from %s: %w", c.charset, err)
	}
	return s, nil
}

// Encode converts UTF-8 text into the output charset.
func (c *Codec) Encode(s string) (string, error) {
	return c.encode(s)
}

func (c *Codec) encode(s string) (string, error) {
	if c.enc == nil {
		return s, nil
	}
	out, err := c.enc.String(s)
	if err != nil {
		return "", fmt.Errorf("po: encode %q as %s: %w", s, c.charset, err)
	}
	return out, nil
}

func isUTF8(name string) bool {
	n := strings.ToLower(strings.ReplaceAll(name, "-", ""))
	return n == "utf8"
}
