package ascii

import "testing"

func TestTable(t *testing.T) {
	tests := []struct {
		name string
		rows [][]string
		want string
	}{
		{
			name: "empty",
			rows: nil,
			want: "",
		},
		{
			name: "aligned columns",
			rows: [][]string{
				{"FILE", "TYPE", "DEST"},
				{"index.html", "JS", "js/app.js"},
				{"a.html", "CSS", "css/site.css"},
			},
			want: "FILE        TYPE  DEST\n" +
				"index.html  JS    js/app.js\n" +
				"a.html      CSS   css/site.css\n",
		},
		{
			name: "wide runes",
			rows: [][]string{
				{"名前.html", "x"},
				{"a.html", "y"},
			},
			want: "名前.html  x\n" +
				"a.html     y\n",
		},
		{
			name: "empty last cell is trimmed",
			rows: [][]string{
				{"a", ""},
				{"bb", "c"},
			},
			want: "a\nbb  c\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Table(tt.rows); got != tt.want {
				t.Errorf("Table() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		value string
		width int
		want  string
	}{
		{"js/a.js js/b.js", 40, "js/a.js js/b.js"},
		{"js/a.js js/b.js", 10, "js/a.js..."},
		{"abcdef", 3, "abc"},
		{"abcdef", 0, ""},
		{"名前名前", 7, "名前..."},
	}
	for _, tt := range tests {
		if got := Truncate(tt.value, tt.width); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.value, tt.width, got, tt.want)
		}
	}
}

func TestStringWidth(t *testing.T) {
	if got := StringWidth("名前"); got != 4 {
		t.Errorf("StringWidth() = %d, want 4", got)
	}
	if got := StringWidth("abc"); got != 3 {
		t.Errorf("StringWidth() = %d, want 3", got)
	}
}
