package videotag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type testFile struct {
	url string
	id  string
}

func (f testFile) FullURL() string    { return f.url }
func (f testFile) Identifier() string { return f.id }

type testRepo struct {
	files   map[string]testFile
	err     error
	lookups []string
}

func (r *testRepo) FindFile(_ context.Context, name string) (File, error) {
	r.lookups = append(r.lookups, name)
	if r.err != nil {
		return nil, r.err
	}
	f, ok := r.files[name]
	if !ok {
		return nil, fmt.Errorf("lookup %q: %w", name, ErrFileNotFound)
	}
	return f, nil
}

type testMessages map[string]string

func (m testMessages) Message(key string) string { return m[key] }

type testFrame struct {
	params   map[string]string
	expanded []string
	links    []string
	images   []string
}

func (f *testFrame) Expand(text string) string {
	f.expanded = append(f.expanded, text)
	for k, v := range f.params {
		text = strings.ReplaceAll(text, "{{{"+k+"}}}", v)
	}
	return text
}

func (f *testFrame) Output() OutputSink { return f }

func (f *testFrame) AddExternalLink(url string)      { f.links = append(f.links, url) }
func (f *testFrame) AddImageUsage(identifier string) { f.images = append(f.images, identifier) }

const invalidSource = "Invalid video source."

func newTestRenderer(repo *testRepo) *Renderer {
	return NewRenderer(repo, testMessages{MessageInvalidSource: invalidSource})
}

func exampleRepo() *testRepo {
	return &testRepo{files: map[string]testFile{
		"Example.mp4": {url: "https://wiki/files/Example.mp4", id: "Example.mp4"},
		"Space.mp4":   {url: "https://wiki/files/Space.mp4", id: "Space.mp4"},
	}}
}

func TestRender_ExternalURL(t *testing.T) {
	for _, src := range []string{"http://example.com/a.mp4", "https://example.com/a.mp4", "HTTPS://example.com/a.mp4"} {
		t.Run(src, func(t *testing.T) {
			frame := &testFrame{}
			html := newTestRenderer(exampleRepo()).Render(context.Background(), "  "+src+"\n", nil, frame)

			require.Equal(t, `<video width="640" height="360" controls="controls"><source src="`+src+`" type="video/mp4" /></video>`, html)
			require.Equal(t, []string{src}, frame.links)
			require.Empty(t, frame.images)
			require.Empty(t, frame.expanded, "external urls must not be expanded")
		})
	}
}

func TestRender_FileReference(t *testing.T) {
	repo := exampleRepo()
	frame := &testFrame{}
	html := newTestRenderer(repo).Render(context.Background(), "File:Example.mp4", TagAttributes{"width": "320"}, frame)

	require.Equal(t, `<video width="320" height="360" controls="controls"><source src="https://wiki/files/Example.mp4" type="video/mp4" /></video>`, html)
	require.Equal(t, []string{"Example.mp4"}, frame.images)
	require.Empty(t, frame.links)
	require.Equal(t, []string{"Example.mp4"}, repo.lookups)
}

func TestRender_FileReferenceCaseInsensitivePrefix(t *testing.T) {
	frame := &testFrame{}
	html := newTestRenderer(exampleRepo()).Render(context.Background(), "file:Example.mp4", nil, frame)
	require.Contains(t, html, `src="https://wiki/files/Example.mp4"`)
}

func TestRender_TrimsBeforeMatching(t *testing.T) {
	r := newTestRenderer(exampleRepo())

	trimmed := r.Render(context.Background(), "File:Space.mp4", nil, &testFrame{})
	padded := r.Render(context.Background(), "  File:Space.mp4  ", nil, &testFrame{})
	require.Equal(t, trimmed, padded)
	require.Contains(t, padded, "https://wiki/files/Space.mp4")
}

func TestRender_ExpandsTemplateParameters(t *testing.T) {
	frame := &testFrame{params: map[string]string{"1": "File:Example.mp4"}}
	html := newTestRenderer(exampleRepo()).Render(context.Background(), "{{{1}}}", nil, frame)

	require.Equal(t, []string{"{{{1}}}"}, frame.expanded)
	require.Contains(t, html, "https://wiki/files/Example.mp4")
	require.Equal(t, []string{"Example.mp4"}, frame.images)
}

func TestRender_MissingFile(t *testing.T) {
	for _, name := range []string{"Missing.mp4", "<b>Other</b>.mp4"} {
		frame := &testFrame{}
		html := newTestRenderer(exampleRepo()).Render(context.Background(), "File:"+name, nil, frame)

		require.Equal(t, `<p style="color:red;"><b>ERROR:</b> `+invalidSource+`</p>`, html)
		require.NotContains(t, html, "Missing")
		require.NotContains(t, html, "Other")
		require.Empty(t, frame.images)
	}
}

func TestRender_LookupErrorIsNotFound(t *testing.T) {
	repo := &testRepo{err: errors.New("connection refused")}
	html := newTestRenderer(repo).Render(context.Background(), "File:Example.mp4", nil, &testFrame{})
	require.Equal(t, `<p style="color:red;"><b>ERROR:</b> `+invalidSource+`</p>`, html)
}

func TestRender_UnrecognizedSource(t *testing.T) {
	r := newTestRenderer(exampleRepo())
	for _, src := range []string{"", "Example.mp4", "ftp://example.com/a.mp4", "javascript:alert(1)", "Media:Example.mp4"} {
		html := r.Render(context.Background(), src, nil, &testFrame{})
		require.Equal(t, `<p style="color:red;"><b>ERROR:</b> `+invalidSource+`</p>`, html, src)
	}
}

func TestRender_NilRepositoryAndFrame(t *testing.T) {
	r := NewRenderer(nil, testMessages{MessageInvalidSource: invalidSource})

	html := r.Render(context.Background(), "File:Example.mp4", nil, nil)
	require.Contains(t, html, invalidSource)

	html = r.Render(context.Background(), "https://example.com/a.mp4", nil, nil)
	require.Contains(t, html, `src="https://example.com/a.mp4"`)
}

func TestRender_EscapesAttributes(t *testing.T) {
	frame := &testFrame{}
	attrs := TagAttributes{
		"width":   `1"onmouseover=alert(1)`,
		"height":  `<script>`,
		"onclick": "alert(1)",
	}
	html := newTestRenderer(exampleRepo()).Render(context.Background(), `https://example.com/a.mp4?a=1&b="x"`, attrs, frame)

	require.NotContains(t, html, `"onmouseover`)
	require.NotContains(t, html, "<script>")
	require.NotContains(t, html, "onclick")
	require.Contains(t, html, `width="1&#34;onmouseover=alert(1)"`)
	require.Contains(t, html, `height="&lt;script&gt;"`)
	require.Contains(t, html, `src="https://example.com/a.mp4?a=1&amp;b=&#34;x&#34;"`)
}

func TestRender_Idempotent(t *testing.T) {
	r := newTestRenderer(exampleRepo())
	attrs := TagAttributes{"controls": "", "width": "100"}

	first := r.Render(context.Background(), "File:Example.mp4", attrs, &testFrame{})
	second := r.Render(context.Background(), "File:Example.mp4", attrs, &testFrame{})
	require.Equal(t, first, second)
}

func TestRender_Observer(t *testing.T) {
	type call struct {
		kind     SourceKind
		resolved bool
	}
	var calls []call
	r := NewRenderer(exampleRepo(), testMessages{}, WithObserver(func(kind SourceKind, resolved bool) {
		calls = append(calls, call{kind, resolved})
	}))

	r.Render(context.Background(), "https://example.com/a.mp4", nil, nil)
	r.Render(context.Background(), "File:Example.mp4", nil, nil)
	r.Render(context.Background(), "File:Missing.mp4", nil, nil)
	r.Render(context.Background(), "nothing", nil, nil)

	require.Equal(t, []call{
		{ExternalURL, true},
		{FileReference, true},
		{FileReference, false},
		{Unrecognized, false},
	}, calls)
}

type testRegistry map[string]TagHandler

func (r testRegistry) Register(name string, h TagHandler) { r[name] = h }

func TestRegister(t *testing.T) {
	reg := testRegistry{}
	newTestRenderer(exampleRepo()).Register(reg)

	h, ok := reg[TagName]
	require.True(t, ok)
	require.Contains(t, h(context.Background(), "File:Example.mp4", nil, &testFrame{}), "<video ")
}
