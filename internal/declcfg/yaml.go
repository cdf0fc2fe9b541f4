package declcfg

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"i18nextract/internal/filewalker"
	"i18nextract/internal/message"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// DefaultYAMLPattern selects YAML files carrying i18n declarations.
const DefaultYAMLPattern = "*.i18n.yaml"

// ParseYAML extracts strings from every document in r whose top-level
// i18n_domain equals domain. Values of translatable keys at any depth are
// collected with their line numbers.
func ParseYAML(file string, r io.Reader, domain string) (message.Set, error) {
	found := message.NewBuilder()
	dec := yaml.NewDecoder(r)
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		if len(doc.Content) == 0 {
			continue
		}
		top := doc.Content[0]
		if top.Kind != yaml.MappingNode || documentDomain(top) != domain {
			continue
		}
		collect(top, file, found)
	}
	return found.Set(), nil
}

func documentDomain(m *yaml.Node) string {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == zcmlDomainAttr && m.Content[i+1].Kind == yaml.ScalarNode {
			return m.Content[i+1].Value
		}
	}
	return ""
}

func collect(n *yaml.Node, file string, found *message.Builder) {
	switch n.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if translatable(k.Value) && v.Kind == yaml.ScalarNode {
				if text := strings.TrimSpace(v.Value); text != "" {
					found.Add(message.NewKey(text), message.NewOccurrence(file, v.Line))
				}
				continue
			}
			collect(v, file, found)
		}
	case yaml.SequenceNode:
		for _, c := range n.Content {
			collect(c, file, found)
		}
	}
}

// YAMLStrings scans files matching pattern under root. Unparsable files are
// logged and skipped.
func YAMLStrings(root, domain, pattern string, exclude []string) (message.Set, error) {
	if pattern == "" {
		pattern = DefaultYAMLPattern
	}
	w, err := filewalker.NewWalker([]string{pattern}, exclude)
	if err != nil {
		return nil, err
	}
	files, err := w.Walk(root)
	if err != nil {
		return nil, err
	}

	all := message.NewBuilder()
	for _, f := range files {
		set, err := parseYAMLFile(f.Path, domain)
		if err != nil {
			log.Error().Err(err).Str("file", f.Path).Msg("Could not read YAML declarations, skipping")
			continue
		}
		all.AddSet(set)
	}
	return all.Set(), nil
}

func parseYAMLFile(path, domain string) (message.Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseYAML(path, f, domain)
}
