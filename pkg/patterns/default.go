package patterns

import (
	"regexp"
	"strings"
)

var (
	useminMarkersRe = regexp.MustCompile(`/\*\* *usemin *\*\*/|/\*\* *endusemin *\*\*/|\{# *usemin *#\}|\{# *endusemin *#\}`)
	scriptMarkerRe  = regexp.MustCompile(`/\*\* *usemin *\*\*/\s*'([^']+)'\s*/\*\* *endusemin *\*\*/`)
)

// Default returns the plain pattern tables. Each call builds fresh values.
func Default() Table {
	return Table{
		"html": {
			{
				Matcher:     regexp.MustCompile(`<script.+src=['"]([^"']+)["']`),
				Description: "Update the HTML to reference our concat/min/revved script files",
			},
			{
				Matcher:     regexp.MustCompile(`<link[^>]+href=['"]([^"']+)["']`),
				Description: "Update the HTML with the new css filenames",
			},
			{
				Matcher:     regexp.MustCompile(`<img[^>]+src=['"]([^"']+)["']`),
				Description: "Update the HTML with the new img filenames",
			},
			{
				Matcher:     regexp.MustCompile(`data-main\s*=['"]([^"']+)['"]`),
				Description: "Update the HTML with data-main tags",
				FilterIn: func(capture string) (string, Meta) {
					if strings.HasSuffix(capture, ".js") {
						return capture, Meta{Capture: capture}
					}
					return capture + ".js", Meta{Capture: capture}
				},
				FilterOut: func(resolved string, _ Meta) string {
					return strings.Replace(resolved, ".js", "", 1)
				},
			},
			{
				Matcher:     regexp.MustCompile(`data-[^=]+=['"]([^'"]+)['"]`),
				Description: "Update the HTML with data-* tags",
				Reject: func(match string) bool {
					return strings.HasPrefix(match, "data-main")
				},
			},
			{
				Matcher:     regexp.MustCompile(`url\(\s*['"]([^"']+)["']\s*\)`),
				Description: "Update the HTML with background imgs, case there is some inline style",
			},
			{
				Matcher:     regexp.MustCompile(`<a[^>]+href=['"]([^"']+)["']`),
				Description: "Update the HTML with anchors images",
			},
			{
				Matcher:     regexp.MustCompile(`<input[^>]+src=['"]([^"']+)["']`),
				Description: "Update the HTML with reference in input",
			},
			scriptMarkerPattern(),
		},
		"css": {
			{
				Matcher:     regexp.MustCompile(`(?:src=|url\(\s*)['"]?([^'")?#]+)['"]?\s*\)?`),
				Description: "Update the CSS to reference our revved images",
			},
		},
		"js": {
			scriptMarkerPattern(),
		},
	}
}

// scriptMarkerPattern resolves the destinations left behind by script block
// replacement and drops the markers around them.
func scriptMarkerPattern() Pattern {
	return Pattern{
		Matcher:     regexp.MustCompile(`(/\*\* *usemin *\*\*/\s*'[^']+'\s*/\*\* *endusemin *\*\*/)`),
		Description: "Update the inline JavaScript code inside /** usemin **/ ... /** endusemin **/ comment blocks",
		FilterIn: func(capture string) (string, Meta) {
			key := capture
			if m := scriptMarkerRe.FindStringSubmatch(capture); m != nil {
				key = m[1]
			}
			return key, Meta{Capture: capture}
		},
		FilterOut: func(resolved string, meta Meta) string {
			key := meta.Capture
			if m := scriptMarkerRe.FindStringSubmatch(meta.Capture); m != nil {
				key = m[1]
			}
			return stripMarkers(strings.Replace(meta.Capture, "'"+key+"'", "'"+resolved+"'", 1))
		},
	}
}

func stripMarkers(s string) string {
	return useminMarkersRe.ReplaceAllString(s, "")
}
