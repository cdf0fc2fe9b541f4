package markup

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"i18nextract/internal/message"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string, opts Options) message.Set {
	t.Helper()
	set, err := Parse("page.pt", strings.NewReader(src), opts)
	require.NoError(t, err)
	return set
}

func at(line int) []message.Occurrence {
	return []message.Occurrence{{File: "page.pt", Line: line}}
}

func TestParseDomains(t *testing.T) {
	src := `<tal:block i18n:domain="test" i18n:translate="">test</tal:block>
<tal:block i18n:translate="">no domain</tal:block>
<tal:block i18n:domain="other" i18n:translate="">other</tal:block>`

	assert.Equal(t, []string{"test", "no domain"}, parse(t, src, Options{Domain: "test", IncludeDefault: true}).Texts())
	assert.Equal(t, []string{"test"}, parse(t, src, Options{Domain: "test"}).Texts())
}

func TestParseDomainIsInherited(t *testing.T) {
	src := `<div i18n:domain="zope">
  <p i18n:translate="">
     Hello
     world
  </p>
  <div i18n:domain="other"><span i18n:translate="">skip</span></div>
  <span i18n:translate="">after</span>
</div>`

	set := parse(t, src, Options{Domain: "zope"})
	assert.Equal(t, message.Set{
		{Key: message.NewKey("Hello world"), Occurrences: at(2)},
		{Key: message.NewKey("after"), Occurrences: at(7)},
	}, set)
}

func TestParseExplicitIDAndNames(t *testing.T) {
	src := `<p i18n:domain="zope" i18n:translate="greeting">Hello <b i18n:name="who">you</b>, see <a href="/x">this</a>!</p>`

	set := parse(t, src, Options{Domain: "zope"})
	require.Len(t, set, 1)
	assert.Equal(t, message.WithDefault("greeting", `Hello ${who}, see <a href="/x">this</a>!`), set[0].Key)
}

func TestParseNamedTranslatedChild(t *testing.T) {
	src := `<p i18n:domain="zope" i18n:translate="">Status: <span i18n:name="state" i18n:translate="">active</span></p>`

	set := parse(t, src, Options{Domain: "zope"})
	assert.Equal(t, []string{"Status: ${state}", "active"}, set.Texts())
}

func TestParseDynamicContent(t *testing.T) {
	src := `<div i18n:domain="zope">
<p i18n:translate="" tal:content="view/title">dynamic</p>
<p i18n:translate="label_title" tal:content="view/title">dynamic</p>
<p i18n:translate=""></p>
</div>`

	set := parse(t, src, Options{Domain: "zope"})
	assert.Equal(t, message.Set{
		{Key: message.NewKey("label_title"), Occurrences: at(3)},
	}, set)
}

func TestParseAttributes(t *testing.T) {
	src := `<div i18n:domain="zope">
<img src="logo.png" alt="Logo" title="Home page" i18n:attributes="alt; title label_home" />
<input type="submit" value="Save" i18n:attributes="value">
<a tal:attributes="title view/t" i18n:attributes="title label_dyn">x</a>
</div>`

	set := parse(t, src, Options{Domain: "zope"})
	assert.Equal(t, message.Set{
		{Key: message.NewKey("Logo"), Occurrences: at(2)},
		{Key: message.WithDefault("label_home", "Home page"), Occurrences: at(2)},
		{Key: message.NewKey("Save"), Occurrences: at(3)},
		{Key: message.NewKey("label_dyn"), Occurrences: at(4)},
	}, set)
}

func TestParseXML(t *testing.T) {
	src := `<?xml version="1.0" encoding="utf-8"?>
<rss version="2.0"
    i18n:domain="xml"
    xmlns:i18n="http://xml.zope.org/namespaces/i18n"
    xmlns:tal="http://xml.zope.org/namespaces/tal"
    xmlns="http://purl.org/rss/1.0/modules/content/">
 <channel>
   <link i18n:translate="">Link Content</link>
 </channel>
</rss>
`
	set := parse(t, src, Options{Domain: "xml"})
	assert.Equal(t, message.Set{
		{Key: message.NewKey("Link Content"), Occurrences: at(8)},
	}, set)
}

func TestParseXMLErrors(t *testing.T) {
	for _, src := range []string{
		"<?xml version=\"1.0\"?>\n<a><b></a>\n</c>",
		"<?xml version=\"1.0\"?>\n<a i18n:translate=\"\">open",
	} {
		_, err := Parse("bad.pt", strings.NewReader(src), Options{Domain: "zope"})
		assert.Error(t, err, src)
	}
}

func TestParseHTMLIsLenient(t *testing.T) {
	src := `<p i18n:domain="zope" i18n:translate="">one<br>two</p></span><div i18n:domain="zope" i18n:translate="">unclosed`

	set := parse(t, src, Options{Domain: "zope"})
	assert.Equal(t, []string{"one<br>two", "unclosed"}, set.Texts())
}

func TestStrings(t *testing.T) {
	root := t.TempDir()
	write := func(rel, src string) {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	}
	write("test.pt", `<tal:block i18n:domain="test" i18n:translate="">test</tal:block>`)
	write("no.pt", `<tal:block i18n:translate="">no domain</tal:block>`)
	write("sub/again.pt", `<tal:block i18n:domain="test" i18n:translate="">test</tal:block>`)
	write("broken.pt", "<?xml version=\"1.0\"?>\n</oops>")
	write("test.html", `<tal:block i18n:domain="test" i18n:translate="">html</tal:block>`)
	write("skip/x.pt", `<tal:block i18n:domain="test" i18n:translate="">skipped</tal:block>`)

	set, err := Strings(root, Options{Domain: "test", IncludeDefault: true, Exclude: []string{"skip"}})
	require.NoError(t, err)
	require.Len(t, set, 2)

	texts := set.Texts()
	assert.ElementsMatch(t, []string{"test", "no domain"}, texts)
	for _, x := range set {
		if x.Key.Text == "test" {
			assert.Len(t, x.Occurrences, 2)
		}
	}

	html, err := Strings(root, Options{Domain: "test", Pattern: "*.html"})
	require.NoError(t, err)
	assert.Equal(t, []string{"html"}, html.Texts())
}
