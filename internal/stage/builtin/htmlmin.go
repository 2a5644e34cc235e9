package builtin

import (
	"bytes"
	"context"
	"io"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/usemin/internal/asset"
	"git.home.luguber.info/inful/usemin/internal/stage"
)

// HTMLMin removes whitespace-only text between tags and collapses runs of
// whitespace in text. Content of pre, textarea, script and style elements is
// kept verbatim, as are conditional comments.
func HTMLMin(keepComments bool) stage.Stage {
	return stage.MapFiles("htmlmin", func(_ context.Context, f *asset.File) (*asset.File, error) {
		out, err := minifyHTML(f.Contents(), keepComments)
		if err != nil {
			return nil, err
		}
		return f.WithContents(out), nil
	})
}

var verbatimElements = map[string]bool{
	"pre":      true,
	"textarea": true,
	"script":   true,
	"style":    true,
}

func minifyHTML(src []byte, keepComments bool) ([]byte, error) {
	z := html.NewTokenizer(bytes.NewReader(src))
	var out bytes.Buffer
	verbatim := 0

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return out.Bytes(), nil
			}
			return nil, z.Err()

		case html.TextToken:
			raw := z.Raw()
			if verbatim > 0 {
				out.Write(raw)
				continue
			}
			if text := collapseSpace(string(raw)); strings.TrimSpace(text) != "" {
				out.WriteString(text)
			}

		case html.CommentToken:
			raw := z.Raw()
			if keepComments || isConditional(string(raw)) {
				out.Write(raw)
			}

		case html.StartTagToken:
			out.Write(z.Raw())
			name, _ := z.TagName()
			if verbatimElements[string(name)] {
				verbatim++
			}

		case html.EndTagToken:
			out.Write(z.Raw())
			name, _ := z.TagName()
			if verbatimElements[string(name)] && verbatim > 0 {
				verbatim--
			}

		default:
			out.Write(z.Raw())
		}
	}
}

func isConditional(comment string) bool {
	return strings.HasPrefix(comment, "<!--[if") ||
		strings.HasPrefix(comment, "<!--<![endif]") ||
		strings.HasSuffix(comment, "<![endif]-->") ||
		strings.HasSuffix(comment, "<!-->")
}

// collapseSpace replaces every run of HTML whitespace with one space.
func collapseSpace(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	space := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			if !space {
				sb.WriteByte(' ')
			}
			space = true
		default:
			sb.WriteRune(r)
			space = false
		}
	}
	return sb.String()
}
