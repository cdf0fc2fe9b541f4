package catalog

import (
	"fmt"
	"strings"
)

// DefaultHeader is the template header used when no custom template is
// configured. It is expanded with the keys time, version, charset and
// encoding.
const DefaultHeader = `##############################################################################
#
# Copyright (c) 2003-2019 Zope Foundation and Contributors.
# All Rights Reserved.
#
# This software is subject to the provisions of the Zope Public License,
# Version 2.1 (ZPL).  A copy of the ZPL should accompany this distribution.
# THIS SOFTWARE IS PROVIDED "AS IS" AND ANY AND ALL EXPRESS OR IMPLIED
# WARRANTIES ARE DISCLAIMED, INCLUDING, BUT NOT LIMITED TO, THE IMPLIED
# WARRANTIES OF TITLE, MERCHANTABILITY, AGAINST INFRINGEMENT, AND FITNESS
# FOR A PARTICULAR PURPOSE.
#
##############################################################################
msgid ""
msgstr ""
"Project-Id-Version: %(version)s\n"
"POT-Creation-Date: %(time)s\n"
"PO-Revision-Date: YEAR-MO-DA HO:MI+ZONE\n"
"Last-Translator: FULL NAME <EMAIL@ADDRESS>\n"
"Language-Team: Zope 3 Developers <zope-dev@zope.org>\n"
"MIME-Version: 1.0\n"
"Content-Type: text/plain; charset=%(charset)s\n"
"Content-Transfer-Encoding: %(encoding)s\n"
"Generated-By: i18nextract\n"

`

// expandHeader substitutes %(key)s references and %% escapes in tmpl.
// Unknown keys and any other use of % are errors.
func expandHeader(tmpl string, values map[string]string) (string, error) {
	var b strings.Builder
	b.Grow(len(tmpl) + 64)
	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		rest := tmpl[i+1:]
		switch {
		case strings.HasPrefix(rest, "%"):
			b.WriteByte('%')
			i++
		case strings.HasPrefix(rest, "("):
			end := strings.Index(rest, ")s")
			if end < 0 {
				return "", fmt.Errorf("header template: unterminated key at offset %d", i)
			}
			key := rest[1:end]
			v, ok := values[key]
			if !ok {
				return "", fmt.Errorf("header template: unknown key %q", key)
			}
			b.WriteString(v)
			i += end + 2
		default:
			return "", fmt.Errorf("header template: unsupported %% directive at offset %d", i)
		}
	}
	return b.String(), nil
}
