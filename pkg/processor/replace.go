package processor

import (
	"strings"

	"github.com/aymerick/raymond"

	"github.com/fulmenhq/gousemin/pkg/block"
)

var (
	stylesheetTpl = raymond.MustParse(`<link rel="stylesheet" href="{{{dest}}}"{{#if media}} media="{{{media}}}"{{/if}}/>`)
	scriptTpl     = raymond.MustParse(`<script{{#if defer}} defer{{else}}{{#if async}} async{{/if}}{{/if}} src="{{{dest}}}"></script>`)
)

const (
	markerOpen  = `/** usemin **/'`
	markerClose = `'/** endusemin **/`
)

// ReplaceWith returns the single line standing for b once built, using "\n"
// around conditional comments. Blocks without sources collapse to "". Markup
// blocks of a type other than css or js are returned unchanged.
func (p *Processor) ReplaceWith(b block.Block) string {
	out, _ := replaceWith(b, "\n")
	return out
}

// replaceWith reports false when b must be left untouched.
func replaceWith(b block.Block, lf string) (string, bool) {
	if b.Empty() {
		return "", true
	}

	if b.ContentType == block.Script {
		return b.Indent + b.Prefix + markerOpen + b.Dest + markerClose + b.Suffix, true
	}

	ctx := map[string]interface{}{
		"dest":  b.Dest,
		"media": b.Media,
		"defer": b.Defer,
		"async": b.Async,
	}
	var element string
	switch {
	case b.Type == "css":
		element = stylesheetTpl.MustExec(ctx)
	case b.Defer, b.Async, b.Type == "js":
		element = scriptTpl.MustExec(ctx)
	default:
		return strings.Join(b.Raw, lf), false
	}

	var sb strings.Builder
	sb.WriteString(b.Indent)
	if b.ConditionalStart != "" {
		sb.WriteString(b.ConditionalStart + lf + b.Indent)
	}
	sb.WriteString(element)
	if b.ConditionalEnd != "" {
		sb.WriteString(lf + b.Indent + b.ConditionalEnd)
	}
	return sb.String(), true
}

// detectLinefeed returns "\r\n" when content uses it anywhere.
func detectLinefeed(content string) string {
	if strings.Contains(content, "\r\n") {
		return "\r\n"
	}
	return "\n"
}

// ReplaceBlocks substitutes every block span of f with its replacement line.
// Content outside the spans is left byte for byte.
func (p *Processor) ReplaceBlocks(f *File) string {
	result := f.Content
	lf := detectLinefeed(result)
	for _, b := range f.Blocks {
		repl, ok := replaceWith(b, lf)
		if !ok {
			p.log("Leaving block " + b.Dest + " of unknown type " + b.Type + " untouched")
			continue
		}
		span := strings.Join(b.Raw, lf)
		if !strings.Contains(result, span) {
			continue
		}
		result = strings.Replace(result, span, repl, 1)
		p.blocks.Add(1)
	}
	return result
}
