package declcfg

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"i18nextract/internal/message"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, root, rel, src string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	return path
}

func TestZCMLStrings(t *testing.T) {
	root := t.TempDir()
	site := write(t, root, "site.zcml", `<?xml version="1.0"?>
<configure xmlns="http://namespaces.zope.org/zope">
  <include file="app/configure.zcml" />
  <include package="zope.app.zcmlfiles" />
  <include file="missing.zcml" />
</configure>
`)
	write(t, root, "app/configure.zcml", `<configure
    xmlns="http://namespaces.zope.org/zope"
    i18n_domain="zope">

  <permission id="zope.View" title="View" description="View objects" />

  <menuItem title="" label="Edit" />

  <configure i18n_domain="other">
    <permission id="x" title="Other domain" />
  </configure>

  <include files="extra/*.zcml" />
  <include file="configure.zcml" />
</configure>
`)
	write(t, root, "app/extra/one.zcml", `<configure xmlns="http://namespaces.zope.org/zope">
  <permission id="inherited" title="Inherited domain" />
</configure>
`)

	set, err := ZCMLStrings(site, root, "zope")
	require.NoError(t, err)

	assert.Equal(t, message.Set{
		{Key: message.NewKey("View"), Occurrences: []message.Occurrence{{File: "app/configure.zcml", Line: 5}}},
		{Key: message.NewKey("View objects"), Occurrences: []message.Occurrence{{File: "app/configure.zcml", Line: 5}}},
		{Key: message.NewKey("Edit"), Occurrences: []message.Occurrence{{File: "app/configure.zcml", Line: 7}}},
		{Key: message.NewKey("Inherited domain"), Occurrences: []message.Occurrence{{File: "app/extra/one.zcml", Line: 2}}},
	}, set)
}

func TestZCMLStringsErrors(t *testing.T) {
	root := t.TempDir()
	_, err := ZCMLStrings(filepath.Join(root, "none.zcml"), root, "zope")
	assert.Error(t, err)

	bad := write(t, root, "bad.zcml", "<configure><oops></configure>")
	_, err = ZCMLStrings(bad, root, "zope")
	assert.Error(t, err)
}

func TestParseYAML(t *testing.T) {
	src := `i18n_domain: zope
title: Site settings
fields:
  - name: email
    label: E-mail address
    description: |
      Where we send
      notifications.
  - name: age
    label: ""
---
i18n_domain: other
title: Not ours
---
title: No domain
`
	set, err := ParseYAML("forms.i18n.yaml", strings.NewReader(src), "zope")
	require.NoError(t, err)

	occ := func(line int) []message.Occurrence {
		return []message.Occurrence{{File: "forms.i18n.yaml", Line: line}}
	}
	assert.Equal(t, message.Set{
		{Key: message.NewKey("Site settings"), Occurrences: occ(2)},
		{Key: message.NewKey("E-mail address"), Occurrences: occ(5)},
		{Key: message.NewKey("Where we send\nnotifications."), Occurrences: occ(6)},
	}, set)
}

func TestParseYAMLError(t *testing.T) {
	_, err := ParseYAML("bad.yaml", strings.NewReader("title: [unclosed\n"), "zope")
	assert.Error(t, err)
}

func TestYAMLStrings(t *testing.T) {
	root := t.TempDir()
	write(t, root, "a/forms.i18n.yaml", "i18n_domain: zope\ntitle: Hello\n")
	write(t, root, "b/forms.i18n.yaml", "i18n_domain: zope\nlabel: Hello\n")
	write(t, root, "broken.i18n.yaml", "title: [\n")
	write(t, root, "plain.yaml", "i18n_domain: zope\ntitle: Ignored\n")

	set, err := YAMLStrings(root, "zope", "", nil)
	require.NoError(t, err)
	require.Len(t, set, 1)
	assert.Equal(t, "Hello", set[0].Key.Text)
	assert.Len(t, set[0].Occurrences, 2)
}
