package tplurl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name   string
		ref    string
		kind   Kind
		raw    string
		prefix string
		suffix string
		tail   string
	}{
		{name: "plain path", ref: "js/app.js", kind: KindPlain, raw: "js/app.js"},
		{name: "plain path with query", ref: "js/app.js?v=2", kind: KindPlain, raw: "js/app.js", tail: "?v=2"},
		{name: "plain path with fragment", ref: "img/sprite.svg#icon", kind: KindPlain, raw: "img/sprite.svg", tail: "#icon"},
		{name: "static tag double quotes", ref: `{% static "img/logo.png" %}`, kind: KindStaticTag, raw: "img/logo.png"},
		{name: "static tag single quotes", ref: `{% static 'css/site.css' %}`, kind: KindStaticTag, raw: "css/site.css"},
		{name: "static tag with as clause", ref: `{% static "js/app.js" as app %}`, kind: KindStaticTag, raw: "js/app.js"},
		{name: "static tag with suffix", ref: `{% static "css/site.css" %}?v=1`, kind: KindStaticTag, raw: "css/site.css", suffix: "?v=1"},
		{name: "static tag with query inside", ref: `{% static "css/site.css?v=3" %}`, kind: KindStaticTag, raw: "css/site.css", tail: "?v=3"},
		{name: "variable prefix", ref: "{{ STATIC_URL }}img/a.png", kind: KindVarPrefix, raw: "img/a.png", prefix: "{{ STATIC_URL }}"},
		{name: "tag prefix", ref: "{% get_static_prefix %}img/a.png", kind: KindVarPrefix, raw: "img/a.png", prefix: "{% get_static_prefix %}"},
		{name: "several leading expressions", ref: "{{ A }}{% b %}x/y.css", kind: KindVarPrefix, raw: "x/y.css", prefix: "{{ A }}{% b %}"},
		{name: "comment span prefix", ref: "{% comment %}cdn{% endcomment %}{{ STATIC_URL }}a.js", kind: KindVarPrefix, raw: "a.js", prefix: "{% comment %}cdn{% endcomment %}{{ STATIC_URL }}"},
		{name: "embedded usemin markers", ref: "{# usemin #}js/app.js{# endusemin #}", kind: KindVarPrefix, raw: "js/app.js", prefix: "{# usemin #}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Decode(tt.ref)
			assert.Equal(t, tt.kind, m.Kind)
			assert.Equal(t, tt.raw, m.Raw)
			assert.Equal(t, tt.prefix, m.Prefix)
			assert.Equal(t, tt.suffix, m.Suffix)
			assert.Equal(t, tt.tail, m.Tail)
		})
	}
}

func TestDecodePrefixAndSuffixAreExclusive(t *testing.T) {
	refs := []string{
		`{% static "img/logo.png" %}`,
		`{% static "img/logo.png" %}{{ x }}`,
		"{{ STATIC_URL }}img/logo.png",
		"img/logo.png",
	}
	for _, ref := range refs {
		m := Decode(ref)
		assert.False(t, m.Prefix != "" && m.Suffix != "", "prefix and suffix both set for %q", ref)
	}
}

func TestEncode(t *testing.T) {
	t.Run("static tag wraps resolved path", func(t *testing.T) {
		assert.Equal(t, `{% static "img/logo-ab12cd.png" %}`, Encode(`{% static "img/logo.png" %}`, "img/logo-ab12cd.png"))
	})

	t.Run("static tag keeps quotes, as clause and suffix", func(t *testing.T) {
		assert.Equal(t, `{% static 'js/app.1f2e.js' as app %}x`, Encode(`{% static 'js/app.js' as app %}x`, "js/app.1f2e.js"))
	})

	t.Run("variable prefix is prepended", func(t *testing.T) {
		assert.Equal(t, "{{ STATIC_URL }}img/a.9f8e.png", Encode("{{ STATIC_URL }}img/a.png", "img/a.9f8e.png"))
	})

	t.Run("plain reference keeps its query", func(t *testing.T) {
		assert.Equal(t, "js/app.abcd.js?v=1", Encode("js/app.js?v=1", "js/app.abcd.js"))
		assert.Equal(t, "js/app.abcd.js", Decode("js/app.js?v=1").Encode("js/app.abcd.js"))
	})

	t.Run("text before a static tag is kept", func(t *testing.T) {
		assert.Equal(t, `//cdn{% static "a.1234.css" %}`, Encode(`//cdn{% static "a.css" %}`, "a.1234.css"))
	})

	t.Run("trailing expressions are kept", func(t *testing.T) {
		assert.Equal(t, "{# usemin #}js/app.abcd.js{# endusemin #}", Encode("{# usemin #}js/app.js{# endusemin #}", "js/app.abcd.js"))
	})

	t.Run("tail can be re-appended", func(t *testing.T) {
		assert.Equal(t, "js/app.abcd.js?v=1", Decode("js/app.js?v=1").EncodeWithTail("js/app.abcd.js"))
		assert.Equal(t, `{% static "a.1234.css?v=3" %}`, Decode(`{% static "a.css?v=3" %}`).EncodeWithTail("a.1234.css"))
	})
}

func TestEncodeRoundTrip(t *testing.T) {
	refs := []string{
		"{{ STATIC_URL }}img/a.png",
		"{{ STATIC_URL }}img/a.png?v=1",
		"{{ STATIC_URL }}img/sprite.svg#icon",
		`{% static "css/site.css?v=3" %}`,
		`{% static "css/site.css" %}?v=1`,
		"{# usemin #}js/app.js{# endusemin #}",
		"js/app.js?v=2",
		"{% get_static_prefix %}css/site.css",
		`{% static "img/logo.png" %}`,
		`{% static 'img/logo.png' as logo %}`,
		"js/app.js",
	}
	for _, ref := range refs {
		t.Run(ref, func(t *testing.T) {
			m := Decode(ref)
			assert.Equal(t, ref, m.EncodeWithTail(m.Raw))
			assert.Equal(t, ref, Encode(ref, m.Raw))
		})
	}
}

func TestStatic(t *testing.T) {
	assert.Equal(t, `{% static "css/site.css" %}`, Static("css/site.css", ""))
	assert.Equal(t, `{% static "css/site.css" %}?v=1`, Static("css/site.css", "?v=1"))
}

func TestIsSkippable(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://cdn.example.com/x.js", true},
		{"//cdn.example.com/x.js", true},
		{"#top", true},
		{"?page=2", true},
		{"javascript:void(0)", true},
		{"data:image/png;base64,AAAA", true},
		{"", true},
		{"js/app.js", false},
		{"/js/app.js", false},
		{"../img/a.png", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSkippable(tt.url))
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "plain", KindPlain.String())
	assert.Equal(t, "var-prefix", KindVarPrefix.String())
	assert.Equal(t, "static-tag", KindStaticTag.String())
	assert.Equal(t, "unknown", Kind(42).String())
}
