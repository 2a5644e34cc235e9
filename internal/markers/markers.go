// Package markers recognizes the build annotations embedded in HTML comments
// and the script/stylesheet reference tags inside annotated blocks.
//
// Recognition is regular-expression based on purpose: build annotations are
// comments with a fixed shape, and the surrounding HTML is passed through
// verbatim, so a full HTML parser is not needed.
package markers

import (
	"regexp"
	"strings"
)

var (
	startRe = regexp.MustCompile(`(?i)<!--\s*build:(\w+)(?:(?:\(([^\)]+?)\))?\s+(/?([^\s]+?))?)?\s*-->`)
	endRe   = regexp.MustCompile(`(?i)<!--\s*endbuild\s*-->`)

	scriptRe = regexp.MustCompile(`(?i)<\s*script\s+.*?src\s*=\s*('[^']+'|"[^"]+"|[^ >]+).*?><\s*/\s*script\s*>`)
	linkRe   = regexp.MustCompile(`(?i)<\s*link\s+.*?href\s*=\s*('[^']+'|"[^"]+"|[^ >]+).*?>`)
	mediaRe  = regexp.MustCompile(`(?i)<\s*link\s+.*?media\s*=\s*('[^']+'|"[^"]+"|[^ >]+).*?>`)

	condStartRe = regexp.MustCompile(`(?i)<!--\[[^\]]+\]>`)
	condEndRe   = regexp.MustCompile(`(?i)<!\[endif\]-->`)
	commentRe   = regexp.MustCompile(`<!--[\s\S]*?-->`)
)

// RefKind selects which reference tags are scanned inside a block body.
type RefKind string

const (
	RefScript     RefKind = "js"
	RefStylesheet RefKind = "css"
)

// Start is a recognized block-open marker.
type Start struct {
	// Start and End are byte offsets of the marker within the scanned text.
	Start, End int

	// Kind is the pipeline identifier, e.g. "js", "css", "remove", "inlinejs".
	Kind string

	// AltPath is the optional parenthesized alternate search path.
	AltPath string

	// DisplayPath is the path text as written, including a leading slash.
	DisplayPath string

	// Name is DisplayPath without its leading slash.
	Name string
}

// Section is a run of document text that ends either at an end marker or at
// the end of the document.
type Section struct {
	Text string

	// EndMarker is the verbatim end marker closing the section; empty for the
	// trailing section.
	EndMarker string
}

// Terminated reports whether the section was closed by an end marker.
func (s Section) Terminated() bool {
	return s.EndMarker != ""
}

// Sections splits text on end markers. Concatenating every section's Text
// and EndMarker reproduces text exactly.
func Sections(text string) []Section {
	locs := endRe.FindAllStringIndex(text, -1)
	sections := make([]Section, 0, len(locs)+1)
	prev := 0
	for _, loc := range locs {
		sections = append(sections, Section{Text: text[prev:loc[0]], EndMarker: text[loc[0]:loc[1]]})
		prev = loc[1]
	}
	return append(sections, Section{Text: text[prev:]})
}

// FindStart returns the first block-open marker in text.
func FindStart(text string) (Start, bool) {
	m := startRe.FindStringSubmatchIndex(text)
	if m == nil {
		return Start{}, false
	}
	group := func(i int) string {
		if m[2*i] < 0 {
			return ""
		}
		return text[m[2*i]:m[2*i+1]]
	}
	return Start{
		Start:       m[0],
		End:         m[1],
		Kind:        group(1),
		AltPath:     group(2),
		DisplayPath: group(3),
		Name:        group(4),
	}, true
}

// Wrapper returns the first conditional-comment open and close markers in
// text. ok is false unless both are present.
func Wrapper(text string) (open, close string, ok bool) {
	open = condStartRe.FindString(text)
	close = condEndRe.FindString(text)
	if open == "" || close == "" {
		return "", "", false
	}
	return open, close, true
}

// StripWrappers removes every conditional-comment marker from text.
func StripWrappers(text string) string {
	return condEndRe.ReplaceAllString(condStartRe.ReplaceAllString(text, ""), "")
}

// StripComments removes every HTML comment from text.
func StripComments(text string) string {
	return commentRe.ReplaceAllString(text, "")
}

// HasScript reports whether text contains a script reference tag.
func HasScript(text string) bool {
	return scriptRe.MatchString(text)
}

// References returns the referenced paths of the given kind, in document order.
func References(text string, kind RefKind) []string {
	re := linkRe
	if kind == RefScript {
		re = scriptRe
	}
	var refs []string
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		refs = append(refs, Unquote(m[1]))
	}
	return refs
}

// Media is a media attribute found on a stylesheet link tag.
type Media struct {
	Value string
	Tag   string
}

// MediaQueries returns the media attribute values of the link tags in text.
func MediaQueries(text string) []Media {
	var out []Media
	for _, m := range mediaRe.FindAllStringSubmatch(text, -1) {
		out = append(out, Media{Value: Unquote(m[1]), Tag: m[0]})
	}
	return out
}

// Unquote strips one leading quote and a trailing single and/or double quote
// from an attribute value.
func Unquote(v string) string {
	if strings.HasPrefix(v, "'") || strings.HasPrefix(v, `"`) {
		v = v[1:]
	}
	v = strings.TrimSuffix(v, "'")
	return strings.TrimSuffix(v, `"`)
}
