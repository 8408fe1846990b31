package block

import (
	"regexp"
	"strings"
)

var (
	indentRe = regexp.MustCompile(`^\s*`)

	// Only one string literal per script line is recognized.
	scriptAssetRe = regexp.MustCompile(`^\s*(.*?)["']([^"']*\{%.+%\}[^"']*|[^'"]+)["'](.*)`)

	markupAssetRe = regexp.MustCompile(`(href|src)=["']([^"']*\{%.+%\}[^"']*|[^'"]+)["']`)
	mediaRe       = regexp.MustCompile(`media=['"]([^"']*\{%.+%\}[^"']*|[^'"]+)['"]`)
	deferRe       = regexp.MustCompile(` defer`)
	asyncRe       = regexp.MustCompile(` async`)
	dataMainRe    = regexp.MustCompile(`data-main=['"]([^"']*\{%.+%\}[^"']*|[^'"]+)['"]`)

	conditionalStartRe = regexp.MustCompile(`<!--\[[^\]]+\]>`)
	conditionalEndRe   = regexp.MustCompile(`<!\[endif\]-->`)
)

// State is the scanner position between two lines. The zero value is an
// idle scanner at the top of a document.
type State struct {
	current     *Block
	excluded    bool
	latched     bool // defer/async were fixed by a first asset line
	strictMedia bool
	line        int
}

// Option configures a scan.
type Option func(*State)

// WithStrictMedia turns differing media attributes within a block into an
// ErrMixedMedia failure instead of a MediaConflict flag.
func WithStrictMedia() Option {
	return func(s *State) { s.strictMedia = true }
}

// NewState returns an idle scanner state.
func NewState(opts ...Option) State {
	var s State
	for _, o := range opts {
		o(&s)
	}
	return s
}

// InBlock reports whether an opening directive is waiting for its endbuild.
func (s State) InBlock() bool { return s.current != nil }

// Excluded reports whether asset extraction is suspended by an exclude directive.
func (s State) Excluded() bool { return s.excluded }

// Line returns the number of lines consumed so far.
func (s State) Line() int { return s.line }

// Current returns a copy of the block being built, if any.
func (s State) Current() (Block, bool) {
	if s.current == nil {
		return Block{}, false
	}
	return *s.current, true
}

// Step consumes one line and returns the next state. A completed block is
// returned when line closes it. The given state is never modified.
func Step(s State, line string) (State, *Block, error) {
	s.line++
	d := ParseDirective(line)

	if d.Kind == DirectiveBuild {
		if s.current != nil {
			return s, nil, newError(s.line, s.current, ErrUnterminated)
		}
		b := &Block{
			ContentType: d.Dialect,
			Type:        d.Type,
			Dest:        d.Dest,
			RevOnly:     d.RevOnly,
			SearchPath:  []string{},
			Src:         []string{},
			Raw:         []string{line},
			Indent:      indentRe.FindString(line),
			Line:        s.line,
		}
		if d.AltSearchPath != "" {
			b.SearchPath = append(b.SearchPath, d.AltSearchPath)
		}
		return State{current: b, strictMedia: s.strictMedia, line: s.line}, nil, nil
	}

	if s.current == nil {
		return s, nil, nil
	}
	b := s.current.clone()

	switch d.Kind {
	case DirectiveExclude:
		if d.Dialect == Markup || b.ContentType == Script {
			s.excluded = true
		}
	case DirectiveEndExclude:
		if d.Dialect == Markup || b.ContentType == Script {
			s.excluded = false
		}
	}

	if b.ContentType == Markup {
		if m := conditionalStartRe.FindString(line); m != "" {
			b.ConditionalStart = m
		}
		if m := conditionalEndRe.FindString(line); m != "" {
			b.ConditionalEnd = m
		}
	}

	if d.Kind == DirectiveEndBuild {
		b.Raw = append(b.Raw, line)
		return State{strictMedia: s.strictMedia, line: s.line}, b, nil
	}

	if !s.excluded {
		var err error
		switch b.ContentType {
		case Script:
			extractScript(b, line)
		default:
			err = extractMarkup(&s, b, line)
		}
		if err != nil {
			return s, nil, err
		}
	}

	b.Raw = append(b.Raw, line)
	s.current = b
	return s, nil, nil
}

func extractScript(b *Block, line string) {
	m := scriptAssetRe.FindStringSubmatch(line)
	if m == nil || m[2] == "" {
		return
	}
	b.Src = append(b.Src, m[2])
	b.Prefix = m[1]
	b.Suffix = m[3]
}

func extractMarkup(s *State, b *Block, line string) error {
	m := markupAssetRe.FindStringSubmatch(line)
	if m == nil || m[2] == "" {
		return nil
	}
	b.Src = append(b.Src, m[2])

	if media := mediaRe.FindStringSubmatch(line); media != nil {
		if b.Media != "" && b.Media != media[1] {
			if s.strictMedia {
				return newError(s.line, b, ErrMixedMedia)
			}
			b.MediaConflict = true
		}
		b.Media = media[1]
	}

	deferred := deferRe.MatchString(line)
	asynced := asyncRe.MatchString(line)
	if s.latched {
		if deferred != b.Defer {
			return newError(s.line, b, ErrMixedDefer)
		}
		if asynced != b.Async {
			return newError(s.line, b, ErrMixedAsync)
		}
	}
	b.Defer = deferred
	b.Async = asynced
	s.latched = true

	if dataMainRe.MatchString(line) {
		return newError(s.line, b, ErrLegacyMain)
	}
	return nil
}

// Scan returns the build blocks of content in document order. Lines outside
// blocks are ignored. Any malformed block aborts the scan.
func Scan(content string, opts ...Option) ([]Block, error) {
	s := NewState(opts...)
	var blocks []Block
	for _, line := range strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n") {
		var (
			done *Block
			err  error
		)
		s, done, err = Step(s, line)
		if err != nil {
			return nil, err
		}
		if done != nil {
			blocks = append(blocks, *done)
		}
	}
	if s.current != nil {
		return nil, newError(s.current.Line, s.current, ErrUnterminated)
	}
	return blocks, nil
}

func (b *Block) clone() *Block {
	c := *b
	c.SearchPath = append(make([]string, 0, len(b.SearchPath)), b.SearchPath...)
	c.Src = append(make([]string, 0, len(b.Src)+1), b.Src...)
	c.Raw = append(make([]string, 0, len(b.Raw)+1), b.Raw...)
	return &c
}
