package revfinder

import (
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, fs billy.Filesystem, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, util.WriteFile(fs, name, []byte(content), 0o644))
	}
}

func TestFind(t *testing.T) {
	fs := memfs.New()
	writeFiles(t, fs, map[string]string{
		"dist/js/app.js":                "",
		"dist/js/app.1a2b3c4d.js":       "",
		"dist/css/site-9f8e7d.css":      "",
		"dist/img/logo.min.png":         "",
		"dist/img/logo.png":             "",
		"alt/js/vendor.abcd.js":         "",
		"dist/js/vendor.0000ffff.js":    "",
		"dist/fonts/icons.woff2":        "",
		"dist/fonts/icons.beef01.woff2": "",
	})
	f := New(fs)

	tests := []struct {
		name       string
		logical    string
		searchPath []string
		want       string
	}{
		{"dot separated hash", "js/app.js", []string{"dist"}, "js/app.1a2b3c4d.js"},
		{"dash separated hash", "css/site.css", []string{"dist"}, "css/site-9f8e7d.css"},
		{"non hex suffix ignored", "img/logo.png", []string{"dist"}, "img/logo.png"},
		{"root relative", "/js/app.js", []string{"dist"}, "/js/app.1a2b3c4d.js"},
		{"first search dir wins", "js/vendor.js", []string{"alt", "dist"}, "js/vendor.abcd.js"},
		{"later search dir", "js/vendor.js", []string{"missing", "dist"}, "js/vendor.0000ffff.js"},
		{"long extension", "fonts/icons.woff2", []string{"dist"}, "fonts/icons.beef01.woff2"},
		{"not found", "js/other.js", []string{"dist"}, "js/other.js"},
		{"empty search path", "js/app.js", nil, "js/app.js"},
		{"absolute url", "https://cdn.example.com/js/app.js", []string{"dist"}, "https://cdn.example.com/js/app.js"},
		{"data uri", "data:image/png;base64,AAAA", []string{"dist"}, "data:image/png;base64,AAAA"},
		{"already revved", "js/app.1a2b3c4d.js", []string{"dist"}, "js/app.1a2b3c4d.js"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Find(tt.logical, tt.searchPath))
		})
	}
}

func TestFindWithManifest(t *testing.T) {
	fs := memfs.New()
	writeFiles(t, fs, map[string]string{
		"dist/js/app.1111.js": "",
	})
	f := New(fs, WithManifest(Manifest{
		"js/app.js":          "js/app.2222.js",
		"static/css/app.css": "static/css/app.3333.css",
	}))

	assert.Equal(t, "js/app.2222.js", f.Find("js/app.js", []string{"dist"}))
	assert.Equal(t, "css/app.3333.css", f.Find("css/app.css", []string{"static"}))
	assert.Equal(t, "css/other.css", f.Find("css/other.css", []string{"static"}))
}

func TestLoadManifest(t *testing.T) {
	fs := memfs.New()
	writeFiles(t, fs, map[string]string{
		"rev/manifest.json": `{"js/app.js": "js/app.1a2b.js", "/css/site.css": "css/site.3c4d.css"}`,
		"rev/manifest.yaml": "js/app.js: js/app.1a2b.js\n/css/site.css: css/site.3c4d.css\n",
		"rev/manifest.toml": "\"js/app.js\" = \"js/app.1a2b.js\"\n\"/css/site.css\" = \"css/site.3c4d.css\"\n",
		"rev/manifest.ini":  "js/app.js=js/app.1a2b.js",
		"rev/broken.json":   `{"js/app.js": `,
	})
	want := Manifest{"js/app.js": "js/app.1a2b.js", "css/site.css": "css/site.3c4d.css"}

	for _, name := range []string{"rev/manifest.json", "rev/manifest.yaml", "rev/manifest.toml"} {
		t.Run(name, func(t *testing.T) {
			m, err := LoadManifest(fs, name)
			require.NoError(t, err)
			assert.Equal(t, want, m)
		})
	}

	_, err := LoadManifest(fs, "rev/manifest.ini")
	assert.ErrorContains(t, err, "unsupported manifest format")

	_, err = LoadManifest(fs, "rev/broken.json")
	assert.ErrorContains(t, err, "failed to parse manifest")

	_, err = LoadManifest(fs, "rev/missing.json")
	assert.ErrorContains(t, err, "failed to read manifest")
}
