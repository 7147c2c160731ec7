package wikitext

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"thirdcoast.systems/h5video/pkg/videotag"
)

// echoHandler renders the tag as [content|k=v,...] and records the frame output.
func echoHandler(ctx context.Context, content string, attrs videotag.TagAttributes, frame videotag.Frame) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+attrs[k])
	}
	frame.Output().AddExternalLink(content)
	return fmt.Sprintf("[%s|%s]", frame.Expand(content), strings.Join(parts, ","))
}

func newEchoParser() *Parser {
	p := NewParser()
	p.Register("echo", echoHandler)
	return p
}

func TestParse_SplicesRegisteredTags(t *testing.T) {
	p := newEchoParser()
	res := p.Parse(context.Background(), `a <echo width="1" controls>x</echo> b`, nil)

	require.Equal(t, `a [x|controls=,width=1] b`, res.HTML)
	require.Equal(t, []string{"x"}, res.Output.ExternalLinks)
}

func TestParse_EscapesPlainText(t *testing.T) {
	p := newEchoParser()
	res := p.Parse(context.Background(), `<b>bold</b> & <echo>y</echo> <script>`, nil)

	require.Equal(t, `&lt;b&gt;bold&lt;/b&gt; &amp; [y|] &lt;script&gt;`, res.HTML)
}

func TestParse_CaseInsensitiveTags(t *testing.T) {
	p := newEchoParser()
	res := p.Parse(context.Background(), `<ECHO Width=2>z</Echo >`, nil)
	require.Equal(t, `[z|width=2]`, res.HTML)
}

func TestParse_SelfClosing(t *testing.T) {
	p := newEchoParser()
	res := p.Parse(context.Background(), `<echo width="3" /> after`, nil)
	require.Equal(t, `[|width=3] after`, res.HTML)
}

func TestParse_UnterminatedTagIsPlainText(t *testing.T) {
	p := newEchoParser()
	res := p.Parse(context.Background(), `<echo>never closed`, nil)
	require.Equal(t, `&lt;echo&gt;never closed`, res.HTML)
	require.Empty(t, res.Output.ExternalLinks)
}

func TestParse_MultipleTags(t *testing.T) {
	p := newEchoParser()
	res := p.Parse(context.Background(), "<echo>1</echo>\n<echo>2</echo><echo>1</echo>", nil)
	require.Equal(t, "[1|]\n[2|][1|]", res.HTML)
	require.Equal(t, []string{"1", "2"}, res.Output.ExternalLinks)
}

func TestParse_ExpandsArguments(t *testing.T) {
	p := newEchoParser()
	res := p.Parse(context.Background(), `{{{title}}}: <echo>{{{1}}}</echo>`, map[string]string{"title": "T<", "1": "v"})

	require.Equal(t, `T&lt;: [v|]`, res.HTML)
	// the handler receives the raw content and decides itself whether to expand
	require.Equal(t, []string{"{{{1}}}"}, res.Output.ExternalLinks)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register("Video", echoHandler)
	r.Register("", echoHandler)
	r.Register("audio", nil)
	r.Register("echo", echoHandler)

	require.Equal(t, []string{"echo", "video"}, r.Tags())
	_, ok := r.lookup("VIDEO")
	require.True(t, ok)
}

func TestParseAttributes(t *testing.T) {
	require.Equal(t, videotag.TagAttributes{"width": "1", "controls": ""}, ParseAttributes(`<video width="1" controls>`))
	require.Equal(t, videotag.TagAttributes{"width": `1"x`}, ParseAttributes(`<video width='1"x'>`))
	require.Equal(t, videotag.TagAttributes{"height": "a&b"}, ParseAttributes(`<video height="a&amp;b">`))
	require.Equal(t, videotag.TagAttributes{"width": "2"}, ParseAttributes(`<video width="1" width="2">`))
	require.Equal(t, videotag.TagAttributes{}, ParseAttributes(`not a tag`))
}

func TestFrame_Expand(t *testing.T) {
	f := NewFrame(map[string]string{"1": "File:A.mp4", " name ": "N", "ref": "{{{name}}}", "loop": "{{{loop}}}"}, nil)

	require.Equal(t, "File:A.mp4", f.Expand("{{{1}}}"))
	require.Equal(t, "N", f.Expand("{{{ name }}}"))
	require.Equal(t, "N", f.Expand("{{{ref}}}"))
	require.Equal(t, "fallback", f.Expand("{{{missing|fallback}}}"))
	require.Equal(t, "", f.Expand("{{{missing|}}}"))
	require.Equal(t, "{{{missing}}}", f.Expand("{{{missing}}}"))
	require.Equal(t, "N", f.Expand("{{{missing|{{{name}}}}}}"))
	require.Equal(t, "{{{loop}}}", f.Expand("{{{loop}}}"))
	require.Equal(t, "plain", f.Expand("plain"))
}

func doublingChain(n int) map[string]string {
	args := map[string]string{"p0": "x"}
	for i := 1; i <= n; i++ {
		prev := fmt.Sprintf("{{{p%d}}}", i-1)
		args[fmt.Sprintf("p%d", i)] = prev + prev
	}
	return args
}

func TestFrame_ExpandDoublingChain(t *testing.T) {
	f := NewFrame(doublingChain(10), nil)
	require.Equal(t, strings.Repeat("x", 1024), f.Expand("{{{p10}}}"))

	f = NewFrame(doublingChain(40), nil)
	out := f.Expand("{{{p40}}}")
	require.LessOrEqual(t, len(out), len("{{{p40}}}")+MaxExpandedSize)
	require.Contains(t, out, "{{{p")
}

func TestFrame_ExpandSelfReference(t *testing.T) {
	f := NewFrame(map[string]string{"a": "{{{a}}}{{{a}}}"}, nil)

	out := f.Expand("{{{a}}}")
	require.LessOrEqual(t, len(out), len("{{{a}}}")+MaxExpandedSize)
	require.Contains(t, out, "{{{a}}}")

	// The budget is spent for the rest of the frame.
	require.Equal(t, "{{{a}}}", f.Expand("{{{a}}}"))
}

func TestParse_ExpansionBudgetSharedAcrossPage(t *testing.T) {
	p := newEchoParser()
	text := strings.Repeat("<echo>{{{a}}}</echo>{{{a}}}", 50)

	res := p.Parse(context.Background(), text, map[string]string{"a": "{{{a}}}{{{a}}}"})
	require.LessOrEqual(t, len(res.HTML), 2*len(text)+MaxExpandedSize)
}

func TestParse_QuotedAttributeWithGreaterThan(t *testing.T) {
	p := newEchoParser()

	res := p.Parse(context.Background(), `<echo width="a>b" height='c>d'>File:X</echo>`, nil)
	require.Equal(t, `[File:X|height=c>d,width=a>b]`, res.HTML)

	res = p.Parse(context.Background(), `<echo width="a>File:X</echo>`, nil)
	require.Equal(t, `&lt;echo width=&#34;a&gt;File:X&lt;/echo&gt;`, res.HTML)
}

func TestParserOutput_Deduplicates(t *testing.T) {
	o := NewParserOutput()
	o.AddExternalLink("a")
	o.AddExternalLink("b")
	o.AddExternalLink("a")
	o.AddImageUsage("X.mp4")
	o.AddImageUsage("X.mp4")

	require.Equal(t, []string{"a", "b"}, o.ExternalLinks)
	require.Equal(t, []string{"X.mp4"}, o.ImageUsages)
}
