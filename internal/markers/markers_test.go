package markers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindStart(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Start
		found bool
	}{
		{
			name:  "kind and output name",
			input: `<!-- build:js js/app.js -->`,
			want:  Start{Kind: "js", DisplayPath: "js/app.js", Name: "js/app.js"},
			found: true,
		},
		{
			name:  "leading slash kept in display path only",
			input: `<!-- build:css /css/style.css -->`,
			want:  Start{Kind: "css", DisplayPath: "/css/style.css", Name: "css/style.css"},
			found: true,
		},
		{
			name:  "alternate path",
			input: `<!-- build:js(assets/vendor) lib.js -->`,
			want:  Start{Kind: "js", AltPath: "assets/vendor", DisplayPath: "lib.js", Name: "lib.js"},
			found: true,
		},
		{
			name:  "no whitespace before closing delimiter",
			input: `<!--build:css style.css-->`,
			want:  Start{Kind: "css", DisplayPath: "style.css", Name: "style.css"},
			found: true,
		},
		{
			name:  "remove without name",
			input: `<!-- build:remove -->`,
			want:  Start{Kind: "remove"},
			found: true,
		},
		{
			name:  "inline without name and no space",
			input: `<!-- build:inlinejs-->`,
			want:  Start{Kind: "inlinejs"},
			found: true,
		},
		{
			name:  "case insensitive",
			input: `<!-- BUILD:js app.js -->`,
			want:  Start{Kind: "js", DisplayPath: "app.js", Name: "app.js"},
			found: true,
		},
		{
			name:  "plain comment",
			input: `<!-- just a comment -->`,
			found: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindStart(tt.input)
			require.Equal(t, tt.found, ok)
			if !ok {
				return
			}
			assert.Equal(t, 0, got.Start)
			assert.Equal(t, len(tt.input), got.End)
			got.Start, got.End = 0, 0
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSections_RoundTrip(t *testing.T) {
	input := "<head>\n<!-- build:js app.js -->\n<script src=\"a.js\"></script>\n<!--endbuild-->\n</head>\n<!-- endbuild -->tail"

	sections := Sections(input)
	require.Len(t, sections, 3)
	assert.True(t, sections[0].Terminated())
	assert.Equal(t, "<!--endbuild-->", sections[0].EndMarker)
	assert.Equal(t, "<!-- endbuild -->", sections[1].EndMarker)
	assert.False(t, sections[2].Terminated())
	assert.Equal(t, "tail", sections[2].Text)

	var sb strings.Builder
	for _, s := range sections {
		sb.WriteString(s.Text)
		sb.WriteString(s.EndMarker)
	}
	assert.Equal(t, input, sb.String())
}

func TestSections_NoMarkers(t *testing.T) {
	sections := Sections("<div>content</div>")
	require.Len(t, sections, 1)
	assert.Equal(t, "<div>content</div>", sections[0].Text)
	assert.False(t, sections[0].Terminated())
}

func TestReferences_Quoting(t *testing.T) {
	body := `<script src="a.js"></script><script type="text/javascript" src='b.js'></script>
<script src=c.js></script>
<SCRIPT   src = "d.js" ></ script >`

	assert.True(t, HasScript(body))
	assert.Equal(t, []string{"a.js", "b.js", "c.js", "d.js"}, References(body, RefScript))
}

func TestReferences_Stylesheets(t *testing.T) {
	body := `<link rel="stylesheet" href="css/a.css">
<link rel="stylesheet" href='css/b.css' />
<link href=css/c.css rel="stylesheet">`

	assert.False(t, HasScript(body))
	assert.Equal(t, []string{"css/a.css", "css/b.css", "css/c.css"}, References(body, RefStylesheet))
}

func TestWrapper(t *testing.T) {
	body := "\n<!--[if lt IE 9]>\n<script src=\"html5shiv.js\"></script>\n<![endif]-->\n"

	open, closing, ok := Wrapper(body)
	require.True(t, ok)
	assert.Equal(t, "<!--[if lt IE 9]>", open)
	assert.Equal(t, "<![endif]-->", closing)

	_, _, ok = Wrapper("<!--[if lt IE 9]><script src=\"a.js\"></script>")
	assert.False(t, ok, "an open marker without close is not a wrapper")

	stripped := StripWrappers(body)
	assert.NotContains(t, stripped, "[if")
	assert.NotContains(t, stripped, "endif")
	assert.Contains(t, stripped, "html5shiv.js")
}

func TestStripComments(t *testing.T) {
	body := "<script src=\"a.js\"></script>\n<!-- <script src=\"old.js\"></script>\n multi-line -->\n<script src=\"b.js\"></script>"

	assert.Equal(t, []string{"a.js", "b.js"}, References(StripComments(body), RefScript))
	assert.Equal(t, []string{"a.js", "old.js", "b.js"}, References(body, RefScript))
}

func TestMediaQueries(t *testing.T) {
	body := `<link rel="stylesheet" href="a.css" media="screen">
<link rel="stylesheet" href="b.css" media='print'>`

	got := MediaQueries(body)
	require.Len(t, got, 2)
	assert.Equal(t, "screen", got[0].Value)
	assert.Equal(t, "print", got[1].Value)
	assert.Contains(t, got[1].Tag, "b.css")
}

func TestUnquote(t *testing.T) {
	assert.Equal(t, "a.js", Unquote(`"a.js"`))
	assert.Equal(t, "a.js", Unquote(`'a.js'`))
	assert.Equal(t, "a.js", Unquote(`a.js`))
}
