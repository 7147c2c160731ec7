// Package wikitext is a minimal wikitext host for extension tags: it finds
// registered tags in page source, calls their handlers and collects the page
// link metadata. Everything outside tags is treated as plain text.
package wikitext

import (
	"context"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"thirdcoast.systems/h5video/pkg/videotag"
)

// Quoted attribute values may contain '>'.
var openTagPattern = regexp.MustCompile(`(?i)<([a-z][a-z0-9_-]*)(\s(?:"[^"]*"|'[^']*'|[^<>"'])*?)?(/?)>`)

// Result is the rendered page.
type Result struct {
	HTML   string        `json:"html"`
	Output *ParserOutput `json:"output"`
}

// Parser renders wikitext with the tag handlers in its registry.
type Parser struct {
	*Registry
}

func NewParser() *Parser {
	return &Parser{Registry: NewRegistry()}
}

// Parse renders text with args as the template arguments.
//
// Registered tags are replaced by their handler output verbatim. An opening
// tag without a matching closing tag is plain text.
func (p *Parser) Parse(ctx context.Context, text string, args map[string]string) *Result {
	out := NewParserOutput()
	frame := NewFrame(args, out)

	var b strings.Builder
	plainStart, pos := 0, 0
	for pos < len(text) {
		loc := openTagPattern.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		start, openEnd := pos+loc[0], pos+loc[1]
		tag, ok := p.lookup(text[pos+loc[2] : pos+loc[3]])
		if !ok {
			pos = start + 1
			continue
		}

		content, end := "", openEnd
		if loc[6] == loc[7] {
			cl := tag.closing.FindStringIndex(text[openEnd:])
			if cl == nil {
				pos = start + 1
				continue
			}
			content = text[openEnd : openEnd+cl[0]]
			end = openEnd + cl[1]
		}

		b.WriteString(plain(frame, text[plainStart:start]))
		b.WriteString(tag.handler(ctx, content, ParseAttributes(text[start:openEnd]), frame))
		plainStart, pos = end, end
	}
	b.WriteString(plain(frame, text[plainStart:]))

	return &Result{HTML: b.String(), Output: out}
}

func plain(frame *Frame, s string) string {
	if s == "" {
		return ""
	}
	return html.EscapeString(frame.Expand(s))
}

// ParseAttributes reads the attributes of a single opening tag such as
// `<video width="320" controls>`. Names are lowercased, entity references in
// values are decoded and a repeated name keeps its last value.
func ParseAttributes(openTag string) videotag.TagAttributes {
	attrs := videotag.TagAttributes{}

	z := html.NewTokenizer(strings.NewReader(openTag))
	switch z.Next() {
	case html.StartTagToken, html.SelfClosingTagToken:
	default:
		return attrs
	}
	for _, a := range z.Token().Attr {
		attrs[a.Key] = a.Val
	}
	return attrs
}
