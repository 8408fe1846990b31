// Package block finds build blocks in markup and script sources.
//
// A build block is a region delimited by directives such as
//
//	<!-- build:js js/app.js -->
//	<script src="js/a.js"></script>
//	<script src="js/b.js"></script>
//	<!-- endbuild -->
//
// or, inside script code,
//
//	/*** build:js js/app.js ***/
//	'js/a.js',
//	/*** endbuild ***/
//
// Scanning yields one Block per region, listing the referenced assets and
// the exact source lines the region spans.
package block

// ContentType is the comment dialect a block was declared in.
type ContentType string

const (
	// Markup blocks use <!-- --> directives and reference assets through
	// href/src attributes.
	Markup ContentType = "html"
	// Script blocks use /*** ***/ directives and reference assets through
	// one string literal per line.
	Script ContentType = "js"
)

// Block is one build region.
type Block struct {
	ContentType ContentType `json:"content_type"`
	// Type is the output category named by the directive, e.g. "js" or "css".
	Type string `json:"type"`
	// Dest is the combined output path.
	Dest string `json:"dest"`
	// RevOnly blocks skip concatenation and are only revved.
	RevOnly bool `json:"rev_only,omitempty"`
	// SearchPath holds the alternate directories declared on the directive.
	SearchPath []string `json:"search_path"`
	// Src lists the referenced assets in document order.
	Src []string `json:"src"`
	// Raw holds the source lines spanned by the block, delimiters included.
	Raw []string `json:"raw"`
	// Indent is the leading whitespace of the opening directive.
	Indent string `json:"indent"`
	// Line is the 1-based line number of the opening directive.
	Line int `json:"line"`

	// Prefix and Suffix surround the string literal on script block lines.
	Prefix string `json:"prefix,omitempty"`
	Suffix string `json:"suffix,omitempty"`

	Media            string `json:"media,omitempty"`
	MediaConflict    bool   `json:"media_conflict,omitempty"`
	Defer            bool   `json:"defer,omitempty"`
	Async            bool   `json:"async,omitempty"`
	ConditionalStart string `json:"conditional_start,omitempty"`
	ConditionalEnd   string `json:"conditional_end,omitempty"`
}

// Empty reports whether the block references no asset at all, in which case
// it collapses to nothing when replaced.
func (b Block) Empty() bool {
	return len(b.Src) == 0
}
