// Package markup extracts i18n-annotated strings from page templates.
//
// Templates mark translatable content with attributes in the i18n namespace:
//
//	<p i18n:domain="zope" i18n:translate="">Hello <b i18n:name="who">you</b></p>
//	<img i18n:attributes="alt; title label_title" alt="Logo" title="Home" />
//
// i18n:translate="" uses the element's whitespace-normalized content as the
// message id, a non-empty value is an explicit id with the content as its
// default. Children carrying i18n:name appear as ${name} placeholders.
package markup

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"i18nextract/internal/filewalker"
	"i18nextract/internal/message"
	"i18nextract/internal/textutil"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
)

const (
	// DefaultPattern selects page templates.
	DefaultPattern = "*.pt"
	// DefaultDomain is the domain of strings outside any i18n:domain.
	DefaultDomain = "default"
)

const (
	attrDomain     = "i18n:domain"
	attrTranslate  = "i18n:translate"
	attrName       = "i18n:name"
	attrAttributes = "i18n:attributes"
	attrContent    = "tal:content"
	attrReplace    = "tal:replace"
)

// Elements without an end tag in HTML documents.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// Options selects what a template scan keeps.
type Options struct {
	// Domain is the translation domain to extract.
	Domain string
	// IncludeDefault also keeps strings that have no domain.
	IncludeDefault bool
	// Pattern is the file name glob, DefaultPattern when empty.
	Pattern string
	// Exclude holds glob patterns for files or directories to skip.
	Exclude []string
}

func (o Options) wants(domain string) bool {
	if domain == o.Domain {
		return true
	}
	return o.IncludeDefault && domain == DefaultDomain
}

type element struct {
	tag    string
	line   int
	domain string
	// name is the i18n:name of the element; it hides the element's content
	// from enclosing translations.
	name string

	translate bool
	msgid     string
	dynamic   bool
	content   strings.Builder
}

type parser struct {
	file  string
	xml   bool
	opts  Options
	line  int
	stack []*element
	found *message.Builder
}

// Parse extracts the strings of one template read from r. Locations are
// recorded against file.
func Parse(file string, r io.Reader, opts Options) (message.Set, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	p := &parser{
		file:  file,
		xml:   bytes.HasPrefix(src, []byte("<?xml")),
		opts:  opts,
		line:  1,
		found: message.NewBuilder(),
	}
	if err := p.run(html.NewTokenizer(bytes.NewReader(src))); err != nil {
		return nil, err
	}
	return p.found.Set(), nil
}

func (p *parser) run(z *html.Tokenizer) error {
	for {
		tt := z.Next()
		line := p.line
		raw := string(z.Raw())
		p.line += strings.Count(raw, "\n")

		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return p.finish()
			}
			return z.Err()
		case html.TextToken:
			p.text(string(z.Text()))
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			el := p.open(tok, line, raw)
			if tt == html.SelfClosingTagToken || (!p.xml && voidElements[tok.Data]) {
				p.close(el, "")
				continue
			}
			p.stack = append(p.stack, el)
		case html.EndTagToken:
			if err := p.end(z.Token().Data, raw); err != nil {
				return err
			}
		}
	}
}

// currentDomain is the domain in effect for a new child element.
func (p *parser) currentDomain() string {
	if n := len(p.stack); n > 0 {
		return p.stack[n-1].domain
	}
	return DefaultDomain
}

// text appends s to every translation collecting it: the innermost ones up to
// and including the first named element.
func (p *parser) text(s string) {
	for i := len(p.stack) - 1; i >= 0; i-- {
		el := p.stack[i]
		if el.translate {
			el.content.WriteString(s)
		}
		if el.name != "" {
			return
		}
	}
}

func (p *parser) open(tok html.Token, line int, raw string) *element {
	el := &element{tag: tok.Data, line: line, domain: p.currentDomain()}
	attrs := make(map[string]string, len(tok.Attr))
	var hasTranslate bool
	for _, a := range tok.Attr {
		attrs[a.Key] = a.Val
		if a.Key == attrTranslate {
			hasTranslate = true
		}
	}
	if d := strings.TrimSpace(attrs[attrDomain]); d != "" {
		el.domain = d
	}
	el.name = strings.TrimSpace(attrs[attrName])

	// The parent sees either the placeholder or the raw start tag.
	if el.name != "" {
		p.text("${" + el.name + "}")
	} else {
		p.text(raw)
	}

	if hasTranslate {
		el.translate = true
		el.msgid = strings.TrimSpace(attrs[attrTranslate])
		_, content := attrs[attrContent]
		_, replace := attrs[attrReplace]
		el.dynamic = content || replace
	}
	if decl, ok := attrs[attrAttributes]; ok {
		p.attributes(el, decl, attrs)
	}
	return el
}

// attributes handles i18n:attributes="alt; title msgid_title".
func (p *parser) attributes(el *element, decl string, attrs map[string]string) {
	for _, item := range strings.Split(decl, ";") {
		fields := strings.Fields(item)
		if len(fields) == 0 {
			continue
		}
		value, present := attrs[strings.ToLower(fields[0])]
		value = textutil.CollapseSpace(value)
		var key message.Key
		switch {
		case len(fields) > 1 && present && value != "":
			key = message.WithDefault(fields[1], value)
		case len(fields) > 1:
			key = message.NewKey(fields[1])
		case present && value != "":
			key = message.NewKey(value)
		default:
			continue
		}
		p.record(el.domain, key, el.line)
	}
}

func (p *parser) end(tag, raw string) error {
	for i := len(p.stack) - 1; i >= 0; i-- {
		if p.stack[i].tag != tag {
			continue
		}
		for len(p.stack) > i {
			el := p.stack[len(p.stack)-1]
			p.stack = p.stack[:len(p.stack)-1]
			if len(p.stack) == i {
				p.close(el, raw)
			} else {
				p.close(el, "")
			}
		}
		return nil
	}
	if p.xml {
		return fmt.Errorf("line %d: unexpected end tag </%s>", p.line, tag)
	}
	if !voidElements[tag] {
		log.Debug().Str("file", p.file).Int("line", p.line).Str("tag", tag).Msg("Ignoring stray end tag")
	}
	return nil
}

// close finalizes an element already removed from the stack. raw is its end
// tag, if any, which enclosing translations include verbatim.
func (p *parser) close(el *element, raw string) {
	if el.name == "" && raw != "" {
		p.text(raw)
	}
	if !el.translate {
		return
	}
	content := textutil.CollapseSpace(el.content.String())
	switch {
	case el.msgid != "" && (el.dynamic || content == ""):
		p.record(el.domain, message.NewKey(el.msgid), el.line)
	case el.msgid != "":
		p.record(el.domain, message.WithDefault(el.msgid, content), el.line)
	case el.dynamic || content == "":
		return
	default:
		p.record(el.domain, message.NewKey(content), el.line)
	}
}

func (p *parser) finish() error {
	if len(p.stack) > 0 && p.xml {
		return fmt.Errorf("unclosed element <%s> opened at line %d", p.stack[len(p.stack)-1].tag, p.stack[len(p.stack)-1].line)
	}
	for len(p.stack) > 0 {
		el := p.stack[len(p.stack)-1]
		p.stack = p.stack[:len(p.stack)-1]
		p.close(el, "")
	}
	return nil
}

func (p *parser) record(domain string, key message.Key, line int) {
	if key.Text == "" || !p.opts.wants(domain) {
		return
	}
	p.found.Add(key, message.NewOccurrence(p.file, line))
}

// Strings scans every template under root. A template that cannot be read or
// parsed is logged and skipped.
func Strings(root string, opts Options) (message.Set, error) {
	pattern := opts.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	w, err := filewalker.NewWalker([]string{pattern}, opts.Exclude)
	if err != nil {
		return nil, err
	}
	files, err := w.Walk(root)
	if err != nil {
		return nil, err
	}

	all := message.NewBuilder()
	for _, f := range files {
		set, err := parseFile(f.Path, opts)
		if err != nil {
			log.Error().Err(err).Str("file", f.Path).Msg("There was an error processing template")
			continue
		}
		all.AddSet(set)
	}
	log.Debug().Int("templates", len(files)).Int("messages", all.Len()).Msg("Scanned page templates")
	return all.Set(), nil
}

func parseFile(path string, opts Options) (message.Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(path, f, opts)
}
