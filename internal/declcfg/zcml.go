// Package declcfg extracts translatable strings from declarative
// configuration: ZCML component registrations and i18n-aware YAML files.
package declcfg

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"i18nextract/internal/message"

	"github.com/rs/zerolog/log"
)

// TranslatableFields are the attribute or key names whose values are
// message ids.
var TranslatableFields = []string{"title", "description", "label"}

const (
	zcmlDomainAttr = "i18n_domain"
	zcmlInclude    = "include"
	zcmlOverrides  = "includeOverrides"
)

func translatable(name string) bool {
	for _, f := range TranslatableFields {
		if f == name {
			return true
		}
	}
	return false
}

type zcmlWalker struct {
	domain string
	root   string
	seen   map[string]bool
	found  *message.Builder
}

// ZCMLStrings reads the site ZCML file and every file it includes through
// file or files attributes, collecting the translatable attributes of
// directives in domain. Locations are relative to root when the file lies
// below it. Include directives naming a package are not resolved.
func ZCMLStrings(site, root, domain string) (message.Set, error) {
	site, err := filepath.Abs(site)
	if err != nil {
		return nil, err
	}
	if root != "" {
		if root, err = filepath.Abs(root); err != nil {
			return nil, err
		}
	}
	w := &zcmlWalker{domain: domain, root: root, seen: make(map[string]bool), found: message.NewBuilder()}
	if err := w.file(site, ""); err != nil {
		return nil, err
	}
	log.Debug().Int("files", len(w.seen)).Int("messages", w.found.Len()).Msg("Read ZCML configuration")
	return w.found.Set(), nil
}

func (w *zcmlWalker) location(path string, line int) message.Occurrence {
	if w.root != "" {
		if rel, err := filepath.Rel(w.root, path); err == nil && !strings.HasPrefix(rel, "..") {
			return message.NewOccurrence(rel, line)
		}
	}
	return message.NewOccurrence(path, line)
}

// file parses one ZCML file. inherited is the i18n domain in effect at the
// include directive.
func (w *zcmlWalker) file(path, inherited string) error {
	if w.seen[path] {
		return nil
	}
	w.seen[path] = true

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	d := xml.NewDecoder(f)
	domains := []string{inherited}
	for {
		line, _ := d.InputPos()
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			dom := domains[len(domains)-1]
			for _, a := range t.Attr {
				if a.Name.Local == zcmlDomainAttr {
					dom = a.Value
				}
			}
			domains = append(domains, dom)
			w.element(path, t, dom, line)
		case xml.EndElement:
			domains = domains[:len(domains)-1]
		}
	}
}

func (w *zcmlWalker) element(path string, el xml.StartElement, dom string, line int) {
	if el.Name.Local == zcmlInclude || el.Name.Local == zcmlOverrides {
		w.include(path, el, dom)
		return
	}
	if dom != w.domain {
		return
	}
	for _, a := range el.Attr {
		if !translatable(a.Name.Local) {
			continue
		}
		text := strings.TrimSpace(a.Value)
		if text == "" {
			continue
		}
		w.found.Add(message.NewKey(text), w.location(path, line))
	}
}

func (w *zcmlWalker) include(from string, el xml.StartElement, dom string) {
	var file, files, pkg string
	for _, a := range el.Attr {
		switch a.Name.Local {
		case "file":
			file = a.Value
		case "files":
			files = a.Value
		case "package":
			pkg = a.Value
		}
	}
	if pkg != "" {
		log.Debug().Str("file", from).Str("package", pkg).Msg("Skipping package include")
		return
	}

	dir := filepath.Dir(from)
	var targets []string
	switch {
	case files != "":
		matches, err := filepath.Glob(filepath.Join(dir, files))
		if err != nil {
			log.Warn().Err(err).Str("file", from).Str("files", files).Msg("Bad include pattern")
			return
		}
		targets = matches
	case file != "":
		targets = []string{filepath.Join(dir, file)}
	default:
		targets = []string{filepath.Join(dir, "configure.zcml")}
	}

	for _, t := range targets {
		if err := w.file(t, dom); err != nil {
			log.Warn().Err(err).Str("file", from).Str("include", t).Msg("Could not read included ZCML, skipping")
		}
	}
}
