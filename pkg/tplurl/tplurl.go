// Package tplurl decodes and re-encodes asset references that embed
// Django-style template syntax, such as {% static "css/site.css" %} or
// {{ STATIC_URL }}css/site.css.
package tplurl

import (
	"regexp"
	"strings"
)

// Kind identifies which template form a reference was decoded from.
type Kind int

const (
	// KindPlain is a reference without any template syntax.
	KindPlain Kind = iota
	// KindVarPrefix is a reference led by one or more template expressions.
	KindVarPrefix
	// KindStaticTag is a reference wrapped in a {% static %} tag.
	KindStaticTag
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindVarPrefix:
		return "var-prefix"
	case KindStaticTag:
		return "static-tag"
	default:
		return "unknown"
	}
}

var (
	staticTagRe = regexp.MustCompile(`\{% ?static ['"]?(.+?)['"]? (?:as \w+)? ?%\}`)

	exprAlternatives = `\{% *comment *%\}.*?\{% *endcomment *%\}|\{\{.*?\}\}|\{%.*?%\}|\{#.*?#\}`
	leadingExprRe    = regexp.MustCompile(`^\s*(?:` + exprAlternatives + `)`)
	anyExprRe        = regexp.MustCompile(`\s*(?:` + exprAlternatives + `)`)

	skippableRe = regexp.MustCompile(`(://|^//|^#|^\?|^javascript:|^data:|^$)`)
)

// Match is the decoded form of one reference.
type Match struct {
	Kind Kind
	// Raw is the bare resource path, without template syntax, query or fragment.
	Raw string
	// Prefix holds the leading template expressions (KindVarPrefix only).
	Prefix string
	// Suffix holds whatever follows the static tag (KindStaticTag only).
	Suffix string
	// Tail is the query string or fragment split off Raw, including its
	// leading '?' or '#'.
	Tail string

	// lead is the text before a static tag.
	lead     string
	tagOpen  string
	tagClose string
	// body is the text between Prefix and Tail when it holds more than Raw,
	// such as a trailing template comment.
	body string
}

// Decode splits ref into its raw resource path and the template wrapping
// around it. A {% static %} tag takes precedence over the generic form.
func Decode(ref string) Match {
	if loc := staticTagRe.FindStringSubmatchIndex(ref); loc != nil {
		raw, tail := splitTail(ref[loc[2]:loc[3]])
		return Match{
			Kind:     KindStaticTag,
			Raw:      raw,
			Suffix:   ref[loc[1]:],
			Tail:     tail,
			lead:     ref[:loc[0]],
			tagOpen:  ref[loc[0]:loc[2]],
			tagClose: ref[loc[3]:loc[1]],
		}
	}

	var prefix strings.Builder
	rest := ref
	for {
		loc := leadingExprRe.FindStringIndex(rest)
		if loc == nil {
			break
		}
		prefix.WriteString(rest[:loc[1]])
		rest = rest[loc[1]:]
	}

	raw, tail := splitTail(anyExprRe.ReplaceAllString(rest, ""))
	m := Match{Kind: KindPlain, Raw: raw, Tail: tail}
	if prefix.Len() > 0 {
		m.Kind = KindVarPrefix
		m.Prefix = prefix.String()
	}
	if body := strings.TrimSuffix(rest, tail); body != raw && strings.HasSuffix(rest, tail) {
		m.body = body
	}
	return m
}

// Encode rebuilds the template wrapping of m around newRaw. The query or
// fragment split off during decoding is not re-appended; use EncodeWithTail
// for that.
func (m Match) Encode(newRaw string) string {
	return m.encode(newRaw, "")
}

// EncodeWithTail is Encode with the original query or fragment placed right
// after newRaw. EncodeWithTail(m.Raw) reproduces the decoded reference.
func (m Match) EncodeWithTail(newRaw string) string {
	return m.encode(newRaw, m.Tail)
}

func (m Match) encode(newRaw, tail string) string {
	if m.Kind == KindStaticTag {
		return m.lead + m.tagOpen + newRaw + tail + m.tagClose + m.Suffix
	}
	path := newRaw
	if m.body != "" {
		path = strings.Replace(m.body, m.Raw, newRaw, 1)
	}
	return m.Prefix + path + tail
}

// Encode decodes ref and re-encodes its wrapping around newRaw, keeping its
// query or fragment.
func Encode(ref, newRaw string) string {
	return Decode(ref).EncodeWithTail(newRaw)
}

// Static builds a {% static %} tag for path followed by suffix.
func Static(path, suffix string) string {
	return `{% static "` + path + `" %}` + suffix
}

// IsSkippable reports whether url can never designate a local asset
// (absolute URLs, protocol-relative URLs, anchors, data and javascript URIs).
func IsSkippable(url string) bool {
	return skippableRe.MatchString(url)
}

func splitTail(url string) (string, string) {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		return url[:i], url[i:]
	}
	return url, ""
}
