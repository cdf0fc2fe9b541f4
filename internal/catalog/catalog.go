// Package catalog merges extracted messages into a translation template and
// renders it in a stable order.
package catalog

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"i18nextract/internal/interpolation"
	"i18nextract/internal/message"
	"i18nextract/internal/po"

	"github.com/rs/zerolog/log"
)

// UnknownVersion is used when the product has no version.txt.
const UnknownVersion = "Unknown"

// ErrHeaderTemplate is returned when a configured header template is missing.
var ErrHeaderTemplate = errors.New("header template does not exist")

// ConflictError reports a message seen with two different default texts
// while strict defaults are enabled.
type ConflictError struct {
	Text     string
	Kept     message.Key
	Rejected message.Key
	At       message.Occurrence
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflicting default for %q at %s:%d: kept %s, got %s",
		e.Text, e.At.File, e.At.Line, describeDefault(e.Kept), describeDefault(e.Rejected))
}

func describeDefault(k message.Key) string {
	if !k.HasDefault {
		return "no default"
	}
	return fmt.Sprintf("%q", k.Default)
}

// Catalog maps message text to its entry. Entries are never removed.
type Catalog struct {
	output      string
	productPath string
	header      string
	codec       *po.Codec
	now         func() time.Time
	strict      bool
	entries     map[string]*Entry
}

// Option configures a Catalog.
type Option func(*options)

type options struct {
	headerPath string
	codec      *po.Codec
	now        func() time.Time
	strict     bool
}

// WithHeaderTemplate reads the header from path instead of DefaultHeader.
func WithHeaderTemplate(path string) Option {
	return func(o *options) { o.headerPath = path }
}

// WithCodec sets the output charset codec. The default is UTF-8.
func WithCodec(c *po.Codec) Option {
	return func(o *options) { o.codec = c }
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithStrictDefaults makes Add fail when a text arrives with a default that
// differs from the one already stored.
func WithStrictDefaults(strict bool) Option {
	return func(o *options) { o.strict = strict }
}

// New returns an empty catalog that writes to output. productPath is where
// version.txt is looked up.
func New(output, productPath string, opts ...Option) (*Catalog, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	header := DefaultHeader
	if o.headerPath != "" {
		data, err := os.ReadFile(o.headerPath)
		if errors.Is(err, fs.ErrNotExist) {
			abs, _ := filepath.Abs(o.headerPath)
			return nil, fmt.Errorf("%w: %s", ErrHeaderTemplate, abs)
		}
		if err != nil {
			return nil, fmt.Errorf("read header template: %w", err)
		}
		header = string(data)
	}

	if o.codec == nil {
		c, err := po.NewCodec(po.DefaultCharset, false)
		if err != nil {
			return nil, err
		}
		o.codec = c
	}

	return &Catalog{
		output:      output,
		productPath: productPath,
		header:      header,
		codec:       o.codec,
		now:         o.now,
		strict:      o.strict,
		entries:     make(map[string]*Entry),
	}, nil
}

// Output returns the destination path.
func (c *Catalog) Output() string {
	return c.output
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Lookup returns the entry for text.
func (c *Catalog) Lookup(text string) (*Entry, bool) {
	e, ok := c.entries[text]
	return e, ok
}

// Add merges a set of extractions. Empty texts are skipped. File names that
// start with baseDir have it stripped; others are kept as they are.
func (c *Catalog) Add(set message.Set, baseDir string) error {
	baseDir = filepath.ToSlash(baseDir)
	for _, x := range set {
		if x.Key.Text == "" {
			continue
		}
		e, ok := c.entries[x.Key.Text]
		if !ok {
			e = NewEntry(x.Key)
			c.entries[x.Key.Text] = e
			checkPlaceholders(x.Key, x.Occurrences)
		} else if !e.key.SameDefault(x.Key) {
			at := firstOccurrence(x.Occurrences)
			if c.strict {
				return &ConflictError{Text: x.Key.Text, Kept: e.key, Rejected: x.Key, At: at}
			}
			log.Warn().
				Str("msgid", x.Key.Text).
				Str("file", at.File).
				Int("line", at.Line).
				Msg("Default text differs from the first one seen, keeping the first")
		}
		for _, o := range x.Occurrences {
			e.AddLocation(StripBaseDir(o.File, baseDir), o.Line)
		}
	}
	return nil
}

func firstOccurrence(locs []message.Occurrence) message.Occurrence {
	if len(locs) == 0 {
		return message.Occurrence{}
	}
	return locs[0]
}

func checkPlaceholders(k message.Key, locs []message.Occurrence) {
	if !k.HasDefault || k.Default == "" {
		return
	}
	m := interpolation.Compare(k.Text, k.Default)
	if m.Empty() {
		return
	}
	at := firstOccurrence(locs)
	log.Warn().
		Str("msgid", k.Text).
		Strs("missing", m.Missing).
		Strs("extra", m.Extra).
		Str("file", at.File).
		Int("line", at.Line).
		Msg("Placeholders of default text do not match message id")
}

// StripBaseDir removes baseDir from the front of file when file starts with it.
func StripBaseDir(file, baseDir string) string {
	if baseDir != "" && strings.HasPrefix(file, baseDir) {
		return file[len(baseDir):]
	}
	return file
}

// Entries returns all entries ordered by (locations, text).
func (c *Catalog) Entries() []*Entry {
	out := make([]*Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	slices.SortStableFunc(out, (*Entry).Compare)
	return out
}

// ProductVersion returns the trimmed content of version.txt in the product
// path, or UnknownVersion.
func (c *Catalog) ProductVersion() string {
	data, err := os.ReadFile(filepath.Join(c.productPath, "version.txt"))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Msg("Could not read version.txt")
		}
		return UnknownVersion
	}
	return strings.TrimSpace(string(data))
}

// Header returns the expanded header block.
func (c *Catalog) Header() (string, error) {
	h, err := expandHeader(c.header, map[string]string{
		"time":     c.now().Format(time.ANSIC),
		"version":  c.ProductVersion(),
		"charset":  c.codec.Charset(),
		"encoding": po.DefaultEncoding,
	})
	if err != nil {
		return "", err
	}
	return c.codec.Encode(h)
}

// Render writes the header followed by every entry.
func (c *Catalog) Render(w io.Writer) error {
	header, err := c.Header()
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(header); err != nil {
		return err
	}
	for _, e := range c.Entries() {
		s, err := e.Format(c.codec)
		if err != nil {
			return fmt.Errorf("format %q: %w", e.key.Text, err)
		}
		if _, err := bw.WriteString(s); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Write renders the catalog and then replaces its output file. A render
// failure leaves an existing file untouched.
func (c *Catalog) Write() error {
	var buf bytes.Buffer
	if err := c.Render(&buf); err != nil {
		return fmt.Errorf("write %s: %w", c.output, err)
	}
	if err := os.WriteFile(c.output, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	log.Info().Str("file", c.output).Int("entries", len(c.entries)).Msg("Template written")
	return nil
}

// Snapshot returns the catalog content in render order, with base-dir
// stripped locations.
func (c *Catalog) Snapshot() message.Set {
	entries := c.Entries()
	set := make(message.Set, 0, len(entries))
	for _, e := range entries {
		set = append(set, message.Extraction{Key: e.key, Occurrences: slices.Clone(e.Locations())})
	}
	return set
}
