package block

import "regexp"

// DirectiveKind tells which delimiter a line carries.
type DirectiveKind int

const (
	DirectiveNone DirectiveKind = iota
	DirectiveBuild
	DirectiveEndBuild
	DirectiveExclude
	DirectiveEndExclude
)

// Directive is the parsed form of a delimiter line.
type Directive struct {
	Kind DirectiveKind
	// Dialect is the comment syntax the directive was written in.
	Dialect ContentType
	// The remaining fields are only set for DirectiveBuild.
	Type          string
	Dest          string
	AltSearchPath string
	RevOnly       bool
}

type dialectSyntax struct {
	dialect    ContentType
	build      *regexp.Regexp
	endBuild   *regexp.Regexp
	exclude    *regexp.Regexp
	endExclude *regexp.Regexp
}

// Build directives capture: 1 type, 2 revonly flag, 3 alternate search path, 4 dest.
var dialects = []dialectSyntax{
	{
		dialect:    Markup,
		build:      regexp.MustCompile(`<!--\s*build:(\w+)(?::(revonly))?(?:\(([^)]+)\))?\s*(.+?)\s*-->`),
		endBuild:   regexp.MustCompile(`<!--\s*endbuild\s*-->`),
		exclude:    regexp.MustCompile(`<!--\s*exclude\s*-->`),
		endExclude: regexp.MustCompile(`<!--\s*endexclude\s*-->`),
	},
	{
		dialect:    Script,
		build:      regexp.MustCompile(`/\*\*\*\s*build:(\w+)(?::(revonly))?(?:\(([^)]+)\))?\s*(.+?)\s*\*\*\*/`),
		endBuild:   regexp.MustCompile(`/\*\*\*\s*endbuild\s*\*\*\*/`),
		exclude:    regexp.MustCompile(`/\*\*\*\s*exclude\s*\*\*\*/`),
		endExclude: regexp.MustCompile(`/\*\*\*\s*endexclude\s*\*\*\*/`),
	},
}

// ParseDirective reports the delimiter carried by line, if any. Opening
// directives win over closing ones, markup syntax over script syntax.
func ParseDirective(line string) Directive {
	for _, d := range dialects {
		if m := d.build.FindStringSubmatch(line); m != nil {
			return Directive{
				Kind:          DirectiveBuild,
				Dialect:       d.dialect,
				Type:          m[1],
				RevOnly:       m[2] == "revonly",
				AltSearchPath: m[3],
				Dest:          m[4],
			}
		}
	}
	for _, d := range dialects {
		switch {
		case d.endBuild.MatchString(line):
			return Directive{Kind: DirectiveEndBuild, Dialect: d.dialect}
		case d.exclude.MatchString(line):
			return Directive{Kind: DirectiveExclude, Dialect: d.dialect}
		case d.endExclude.MatchString(line):
			return Directive{Kind: DirectiveEndExclude, Dialect: d.dialect}
		}
	}
	return Directive{}
}
