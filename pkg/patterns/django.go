package patterns

import (
	"regexp"
	"strings"

	"github.com/fulmenhq/gousemin/pkg/tplurl"
)

// tv matches a quoted attribute value that may embed template expressions.
const tv = `[^"']*(?:\{%|\{\{|\{#).+?(?:%\}|\}\}|#\})[^"']*|[^"']+`

var djangoScriptMarkerRe = regexp.MustCompile(`/\*\* *usemin *\*\*/\s*'(.*)'\s*/\*\* *endusemin *\*\*/`)

// Django returns the template-aware tables. Script and stylesheet references
// are looked up in index first so generated bundles get the template prefix
// or static tag their sources were written with; a nil index disables that.
func Django(index GeneratedIndex) Table {
	generatedIn := generatedFilterIn(index)
	return Table{
		"html": {
			{
				Matcher:     regexp.MustCompile(`<script\s[^>]*?src=['"](` + tv + `)["']|<script\s[^>]*?src=([^"'\s>?#]+)`),
				Description: "Update the HTML to reference our concat/min/revved script files",
				FilterIn:    generatedIn,
				FilterOut:   generatedFilterOut,
			},
			{
				Matcher:     regexp.MustCompile(`<link\s[^>]*?href=['"](` + tv + `)["']|<link\s[^>]*?href=([^"'\s>]+)`),
				Description: "Update the HTML with the new css filenames",
				FilterIn:    generatedIn,
				FilterOut:   generatedFilterOut,
			},
			{
				Matcher:     regexp.MustCompile(`<img\s[^>]*?src=['"](` + tv + `)["']|<img\s[^>]*?src=([^"'\s>]+)`),
				Description: "Update the HTML with the new img filenames",
				FilterIn:    templateFilterIn,
				FilterOut:   templateFilterOut,
			},
			{
				Matcher:     regexp.MustCompile(`url\(\s*([^"')]*(?:\{%|\{\{|\{#).+?(?:%\}|\}\}|#\})[^"')]*|[^"')]+)\s*\)|url\(\s*['"](` + tv + `)["']\s*\)`),
				Description: "Update the HTML with background imgs, case there is some inline style",
				FilterIn:    templateFilterIn,
				FilterOut:   templateFilterOut,
			},
			{
				Matcher:     regexp.MustCompile(`<a\s[^>]*?href=['"](` + tv + `)["']|<a\s[^>]*?href=([^"'\s>]+)`),
				Description: "Update the HTML with anchors images",
				FilterIn:    templateFilterIn,
				FilterOut:   templateFilterOut,
			},
			{
				Matcher:     regexp.MustCompile(`<input\s[^>]*?src=['"](` + tv + `)["']|<input\s[^>]*?src=([^"'\s>]+)`),
				Description: "Update the HTML with reference in input",
				FilterIn:    templateFilterIn,
				FilterOut:   templateFilterOut,
			},
			{
				Matcher:     regexp.MustCompile(`(/\*\* *usemin *\*\*/\s*'(?:` + tv + `)'\s*/\*\* *endusemin *\*\*/)`),
				Description: "Update the inline JavaScript code inside /** usemin **/ ... /** endusemin **/ comment blocks",
				FilterIn: func(capture string) (string, Meta) {
					inner := capture
					if m := djangoScriptMarkerRe.FindStringSubmatch(capture); m != nil {
						inner = m[1]
					}
					if index != nil {
						if w, ok := index.Lookup(inner); ok {
							return inner, Meta{Capture: capture, Template: tplurl.Match{Raw: inner}, Generated: &w}
						}
					}
					dec := tplurl.Decode(inner)
					return dec.Raw, Meta{Capture: capture, Template: dec}
				},
				FilterOut: func(resolved string, meta Meta) string {
					var out string
					switch {
					case meta.Generated != nil:
						out = meta.Generated.Apply(resolved)
					case meta.Template.Raw == "":
						return stripMarkers(meta.Capture)
					default:
						out = meta.Template.EncodeWithTail(resolved)
					}
					inner := meta.Template.EncodeWithTail(meta.Template.Raw)
					return stripMarkers(strings.Replace(meta.Capture, inner, out, 1))
				},
			},
			{
				Matcher:     regexp.MustCompile(`(\{# *usemin *#\}.+?\{# *endusemin *#\})`),
				Description: "Update the HTML with with resources inside {# usemin #}...{# endusemin #} tags",
				FilterIn:    templateFilterIn,
				FilterOut: func(resolved string, meta Meta) string {
					return stripMarkers(templateFilterOut(resolved, meta))
				},
			},
		},
		"css": {
			{
				Matcher:     regexp.MustCompile(`url\(\s*([^"')]*(?:\{%|\{\{|\{#).+?(?:%\}|\}\}|#\})[^"')]*|[^"')]+)\s*\)`),
				Description: "Update the CSS to reference our revved images (pattern #1)",
				FilterIn:    templateFilterIn,
				FilterOut:   templateFilterOut,
			},
			{
				Matcher:     regexp.MustCompile(`url\(\s*['"](` + tv + `)["']\s*\)`),
				Description: "Update the CSS to reference our revved images (pattern #2)",
				FilterIn:    templateFilterIn,
				FilterOut:   templateFilterOut,
			},
			{
				Matcher:     regexp.MustCompile(`src=['"](` + tv + `)["']`),
				Description: "Update the CSS to reference our revved images (pattern #3)",
				FilterIn:    templateFilterIn,
				FilterOut:   templateFilterOut,
			},
			{
				Matcher:     regexp.MustCompile(`src=([^"',)\s]+)`),
				Description: "Update the CSS to reference our revved images (pattern #4)",
				FilterIn:    templateFilterIn,
				FilterOut:   templateFilterOut,
			},
		},
	}
}

// templateFilterIn looks up the raw path of a possibly templated reference.
func templateFilterIn(capture string) (string, Meta) {
	dec := tplurl.Decode(capture)
	return dec.Raw, Meta{Capture: capture, Template: dec}
}

// templateFilterOut wraps resolved in the template syntax of the decoded
// reference, query and fragment included.
func templateFilterOut(resolved string, meta Meta) string {
	if meta.Template.Raw == "" {
		return meta.Capture
	}
	return meta.Template.EncodeWithTail(resolved)
}

// isRooted reports references that never designate a generated bundle.
func isRooted(ref string) bool {
	return strings.HasPrefix(ref, "#") || strings.Contains(ref, "//") || strings.HasPrefix(ref, "/")
}

func generatedFilterIn(index GeneratedIndex) FilterIn {
	return func(capture string) (string, Meta) {
		if index != nil && capture != "" && !isRooted(capture) {
			if w, ok := index.Lookup(capture); ok {
				return capture, Meta{Capture: capture, Generated: &w}
			}
		}
		return templateFilterIn(capture)
	}
}

func generatedFilterOut(resolved string, meta Meta) string {
	if meta.Generated != nil {
		return meta.Generated.Apply(resolved)
	}
	return templateFilterOut(resolved, meta)
}
