package block

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lines(l ...string) string {
	return strings.Join(l, "\n")
}

func TestScanMarkupBlock(t *testing.T) {
	content := lines(
		"<html>",
		"  <!-- build:js js/app.js -->",
		`  <script src="js/a.js"></script>`,
		`  <script src="js/b.js"></script>`,
		"  <!-- endbuild -->",
		"</html>",
	)

	blocks, err := Scan(content)
	require.NoError(t, err)
	require.Len(t, blocks, 1)

	b := blocks[0]
	assert.Equal(t, Markup, b.ContentType)
	assert.Equal(t, "js", b.Type)
	assert.Equal(t, "js/app.js", b.Dest)
	assert.Equal(t, []string{"js/a.js", "js/b.js"}, b.Src)
	assert.Equal(t, "  ", b.Indent)
	assert.Equal(t, 2, b.Line)
	assert.False(t, b.RevOnly)
	assert.Empty(t, b.SearchPath)
	assert.Equal(t, []string{
		"  <!-- build:js js/app.js -->",
		`  <script src="js/a.js"></script>`,
		`  <script src="js/b.js"></script>`,
		"  <!-- endbuild -->",
	}, b.Raw)
}

func TestScanDirectiveOptions(t *testing.T) {
	content := lines(
		"<!-- build:css:revonly(app/styles) css/site.css -->",
		`<link rel="stylesheet" href="css/main.css">`,
		"<!-- endbuild -->",
	)

	blocks, err := Scan(content)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "css", blocks[0].Type)
	assert.True(t, blocks[0].RevOnly)
	assert.Equal(t, []string{"app/styles"}, blocks[0].SearchPath)
	assert.Equal(t, "css/site.css", blocks[0].Dest)
}

func TestScanScriptBlock(t *testing.T) {
	content := lines(
		"var files = [",
		"  /*** build:js js/vendor.js ***/",
		"  'js/a.js',",
		`  "js/b.js"`,
		"  /*** endbuild ***/",
		"];",
		"/*** build:js js/main.js ***/",
		`loader.load("{% static 'js/main.js' %}");`,
		"/*** endbuild ***/",
	)

	blocks, err := Scan(content)
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	assert.Equal(t, Script, blocks[0].ContentType)
	assert.Equal(t, []string{"js/a.js", "js/b.js"}, blocks[0].Src)
	assert.Equal(t, "", blocks[0].Prefix)
	assert.Equal(t, "", blocks[0].Suffix)
	assert.Len(t, blocks[0].Raw, 4)

	assert.Equal(t, []string{"{% static 'js/main.js' %}"}, blocks[1].Src)
	assert.Equal(t, "loader.load(", blocks[1].Prefix)
	assert.Equal(t, ");", blocks[1].Suffix)
}

func TestScanTemplateWrappedMarkupAsset(t *testing.T) {
	content := lines(
		"<!-- build:css css/site.css -->",
		`<link rel="stylesheet" href="{% static 'css/a.css' %}">`,
		`<link rel="stylesheet" href="{{ STATIC_URL }}css/b.css">`,
		"<!-- endbuild -->",
	)

	blocks, err := Scan(content)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, []string{"{% static 'css/a.css' %}", "{{ STATIC_URL }}css/b.css"}, blocks[0].Src)
}

func TestScanExclusion(t *testing.T) {
	content := lines(
		"<!-- build:js js/app.js -->",
		`<script src="js/a.js"></script>`,
		"<!-- exclude -->",
		`<script src="js/debug.js"></script>`,
		"<!-- endexclude -->",
		`<script src="js/b.js"></script>`,
		"<!-- endbuild -->",
	)

	blocks, err := Scan(content)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, []string{"js/a.js", "js/b.js"}, blocks[0].Src)
	assert.Len(t, blocks[0].Raw, 7)
	assert.Contains(t, blocks[0].Raw, `<script src="js/debug.js"></script>`)
}

func TestScanScriptExclusionIgnoredInMarkupBlock(t *testing.T) {
	content := lines(
		"<!-- build:js js/app.js -->",
		"/*** exclude ***/",
		`<script src="js/a.js"></script>`,
		"<!-- endbuild -->",
	)

	blocks, err := Scan(content)
	require.NoError(t, err)
	assert.Equal(t, []string{"js/a.js"}, blocks[0].Src)
}

func TestScanConditionalComments(t *testing.T) {
	content := lines(
		"    <!-- build:js js/ie.js -->",
		"    <!--[if lt IE 9]>",
		`    <script src="js/html5shiv.js"></script>`,
		"    <![endif]-->",
		"    <!-- endbuild -->",
	)

	blocks, err := Scan(content)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "<!--[if lt IE 9]>", blocks[0].ConditionalStart)
	assert.Equal(t, "<![endif]-->", blocks[0].ConditionalEnd)
	assert.Equal(t, "    ", blocks[0].Indent)
}

func TestScanMediaAttribute(t *testing.T) {
	content := lines(
		"<!-- build:css css/print.css -->",
		`<link rel="stylesheet" href="css/a.css" media="print">`,
		`<link rel="stylesheet" href="css/b.css" media="screen">`,
		"<!-- endbuild -->",
	)

	t.Run("last value wins and conflict is flagged", func(t *testing.T) {
		blocks, err := Scan(content)
		require.NoError(t, err)
		assert.Equal(t, "screen", blocks[0].Media)
		assert.True(t, blocks[0].MediaConflict)
	})

	t.Run("strict media fails", func(t *testing.T) {
		_, err := Scan(content, WithStrictMedia())
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMixedMedia))
	})

	t.Run("uniform media is not a conflict", func(t *testing.T) {
		blocks, err := Scan(strings.ReplaceAll(content, "screen", "print"), WithStrictMedia())
		require.NoError(t, err)
		assert.Equal(t, "print", blocks[0].Media)
		assert.False(t, blocks[0].MediaConflict)
	})
}

func TestScanDeferAsync(t *testing.T) {
	t.Run("uniform defer is latched", func(t *testing.T) {
		blocks, err := Scan(lines(
			"<!-- build:js js/app.js -->",
			`<script defer src="js/a.js"></script>`,
			`<script defer src="js/b.js"></script>`,
			"<!-- endbuild -->",
		))
		require.NoError(t, err)
		assert.True(t, blocks[0].Defer)
		assert.False(t, blocks[0].Async)
	})

	t.Run("mixing defer fails", func(t *testing.T) {
		_, err := Scan(lines(
			"<!-- build:js js/app.js -->",
			`<script defer src="js/a.js"></script>`,
			`<script defer src="js/b.js"></script>`,
			`<script src="js/c.js"></script>`,
			"<!-- endbuild -->",
		))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMixedDefer))

		var blockErr *Error
		require.True(t, errors.As(err, &blockErr))
		assert.Equal(t, "js/app.js", blockErr.Dest)
		assert.Equal(t, 4, blockErr.Line)
		assert.Equal(t, []string{"js/a.js", "js/b.js", "js/c.js"}, blockErr.Src)
		assert.Contains(t, err.Error(), "js/c.js")
	})

	t.Run("mixing async fails", func(t *testing.T) {
		_, err := Scan(lines(
			"<!-- build:js js/app.js -->",
			`<script src="js/a.js"></script>`,
			`<script async src="js/b.js"></script>`,
			"<!-- endbuild -->",
		))
		assert.True(t, errors.Is(err, ErrMixedAsync))
	})
}

func TestScanLegacyMain(t *testing.T) {
	_, err := Scan(lines(
		"<!-- build:js js/main.js -->",
		`<script data-main="js/main" src="js/require.js"></script>`,
		"<!-- endbuild -->",
	))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLegacyMain))
}

func TestScanUnterminated(t *testing.T) {
	t.Run("end of input", func(t *testing.T) {
		_, err := Scan(lines(
			"<!-- build:js js/app.js -->",
			`<script src="js/a.js"></script>`,
		))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnterminated))
	})

	t.Run("nested opening directive", func(t *testing.T) {
		_, err := Scan(lines(
			"<!-- build:js js/app.js -->",
			"<!-- build:css css/site.css -->",
			"<!-- endbuild -->",
		))
		assert.True(t, errors.Is(err, ErrUnterminated))
	})
}

func TestScanCRLF(t *testing.T) {
	content := "<!-- build:js js/app.js -->\r\n<script src=\"js/a.js\"></script>\r\n<!-- endbuild -->\r\n"

	blocks, err := Scan(content)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, []string{"js/a.js"}, blocks[0].Src)
	for _, l := range blocks[0].Raw {
		assert.NotContains(t, l, "\r")
	}
}

func TestScanEmptyBlock(t *testing.T) {
	blocks, err := Scan(lines(
		"<!-- build:js js/app.js -->",
		"<!-- endbuild -->",
	))
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.True(t, blocks[0].Empty())
	assert.Len(t, blocks[0].Raw, 2)
}

func TestStep(t *testing.T) {
	t.Run("idle line keeps the scanner idle", func(t *testing.T) {
		s, done, err := Step(NewState(), "<p>hello</p>")
		require.NoError(t, err)
		assert.Nil(t, done)
		assert.False(t, s.InBlock())
		assert.Equal(t, 1, s.Line())
	})

	t.Run("opening directive starts a block", func(t *testing.T) {
		s, done, err := Step(NewState(), "<!-- build:js js/app.js -->")
		require.NoError(t, err)
		assert.Nil(t, done)
		require.True(t, s.InBlock())
		cur, ok := s.Current()
		require.True(t, ok)
		assert.Equal(t, "js/app.js", cur.Dest)
		assert.Len(t, cur.Raw, 1)
	})

	t.Run("exclusion toggles", func(t *testing.T) {
		s, _, _ := Step(NewState(), "<!-- build:js js/app.js -->")
		s, _, _ = Step(s, "<!-- exclude -->")
		assert.True(t, s.Excluded())
		s, _, _ = Step(s, "<!-- endexclude -->")
		assert.False(t, s.Excluded())
	})

	t.Run("input state is not modified", func(t *testing.T) {
		open, _, _ := Step(NewState(), "<!-- build:js js/app.js -->")
		next, _, err := Step(open, `<script src="js/a.js"></script>`)
		require.NoError(t, err)

		before, _ := open.Current()
		after, _ := next.Current()
		assert.Empty(t, before.Src)
		assert.Len(t, before.Raw, 1)
		assert.Equal(t, []string{"js/a.js"}, after.Src)
		assert.Len(t, after.Raw, 2)
	})

	t.Run("closing directive emits the block and resets", func(t *testing.T) {
		s, _, _ := Step(NewState(), "<!-- build:js js/app.js -->")
		s, _, _ = Step(s, `<script src="js/a.js"></script>`)
		s, done, err := Step(s, "<!-- endbuild -->")
		require.NoError(t, err)
		require.NotNil(t, done)
		assert.False(t, s.InBlock())
		assert.Equal(t, []string{"js/a.js"}, done.Src)
		assert.Len(t, done.Raw, 3)
	})
}

func TestParseDirective(t *testing.T) {
	tests := []struct {
		line string
		want Directive
	}{
		{"<p>", Directive{}},
		{"<!-- build:js js/app.js -->", Directive{Kind: DirectiveBuild, Dialect: Markup, Type: "js", Dest: "js/app.js"}},
		{"<!--build:css(app) css/a.css-->", Directive{Kind: DirectiveBuild, Dialect: Markup, Type: "css", Dest: "css/a.css", AltSearchPath: "app"}},
		{"/*** build:js:revonly js/a.js ***/", Directive{Kind: DirectiveBuild, Dialect: Script, Type: "js", Dest: "js/a.js", RevOnly: true}},
		{"<!-- endbuild -->", Directive{Kind: DirectiveEndBuild, Dialect: Markup}},
		{"/*** endbuild ***/", Directive{Kind: DirectiveEndBuild, Dialect: Script}},
		{"<!-- exclude -->", Directive{Kind: DirectiveExclude, Dialect: Markup}},
		{"<!-- endexclude -->", Directive{Kind: DirectiveEndExclude, Dialect: Markup}},
		{"/*** exclude ***/", Directive{Kind: DirectiveExclude, Dialect: Script}},
		{"/*** endexclude ***/", Directive{Kind: DirectiveEndExclude, Dialect: Script}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDirective(tt.line))
		})
	}
}
