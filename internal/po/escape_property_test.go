package po

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestEscapeProperties checks that everything the template writer emits reads
// back unchanged.
func TestEscapeProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("normalize then decode is identity", prop.ForAll(
		func(s string) bool {
			got, err := Decode(Normalize(s, false))
			return err == nil && got == s
		},
		gen.AnyString(),
	))

	properties.Property("round trip with special characters", prop.ForAll(
		func(parts []string) bool {
			s := strings.Join(parts, "")
			got, err := Decode(Normalize(s, false))
			return err == nil && got == s
		},
		gen.SliceOf(gen.OneConstOf("\\", "\"", "\n", "\t", "\r", "a", "é", "\x00", "☻")),
	))

	properties.Property("escaped output is printable ASCII", prop.ForAll(
		func(s string) bool {
			for _, r := range Escape(s, false) {
				if r < 32 || r >= 127 {
					return false
				}
			}
			return true
		},
		gen.AnyString(),
	))

	properties.Property("each normalized line is quoted", prop.ForAll(
		func(s string) bool {
			for _, line := range strings.Split(Normalize(s, false), "\n") {
				if len(line) < 2 || line[0] != '"' || line[len(line)-1] != '"' {
					return false
				}
			}
			return true
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
