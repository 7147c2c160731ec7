package videotag

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// VideoMIMEType is the only source type emitted.
const VideoMIMEType = "video/mp4"

// videoElement renders the HTML5 player for src. Every attribute value,
// including src, is HTML-escaped.
func videoElement(opts OptionSet, src string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString("<video")
		for _, e := range opts.Entries() {
			b.WriteString(" ")
			b.WriteString(e.Key)
			b.WriteString(`="`)
			b.WriteString(templ.EscapeString(e.Value))
			b.WriteString(`"`)
		}
		b.WriteString(`><source src="`)
		b.WriteString(templ.EscapeString(src))
		b.WriteString(`" type="` + VideoMIMEType + `" /></video>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}

// errorParagraph renders message as a visible error. The message comes from
// the host's message provider and is written as is.
func errorParagraph(message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<p style="color:red;"><b>ERROR:</b> `+message+`</p>`)
		return err
	})
}

func renderString(ctx context.Context, c templ.Component) (string, error) {
	var b strings.Builder
	if err := c.Render(ctx, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}
