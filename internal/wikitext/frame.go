package wikitext

import (
	"regexp"
	"strings"

	"thirdcoast.systems/h5video/pkg/videotag"
)

// MaxExpansionDepth bounds nested parameter expansion.
const MaxExpansionDepth = 40

// MaxExpandedSize is the number of bytes substitutions may add over the
// lifetime of a frame. Once spent, parameters are left as written.
const MaxExpandedSize = 2 << 20

// Matches an innermost {{{name}}} or {{{name|default}}}.
var paramPattern = regexp.MustCompile(`\{\{\{([^{}|]*)(?:\|([^{}]*))?\}\}\}`)

// Frame carries the template arguments of a parse and its output sink. It
// belongs to a single parse and is not safe for concurrent use.
type Frame struct {
	args   map[string]string
	output *ParserOutput
	budget int
}

func NewFrame(args map[string]string, output *ParserOutput) *Frame {
	if output == nil {
		output = NewParserOutput()
	}
	normalized := make(map[string]string, len(args))
	for k, v := range args {
		normalized[strings.TrimSpace(k)] = v
	}
	return &Frame{args: normalized, output: output, budget: MaxExpandedSize}
}

// Expand substitutes template parameters. Parameters without a value or a
// default are left as written, as are all parameters once the frame's
// expansion budget is spent.
func (f *Frame) Expand(text string) string {
	for range MaxExpansionDepth {
		if !strings.Contains(text, "{{{") {
			return text
		}
		next := paramPattern.ReplaceAllStringFunc(text, f.substitute)
		if next == text {
			return text
		}
		text = next
	}
	return text
}

func (f *Frame) substitute(match string) string {
	m := paramPattern.FindStringSubmatch(match)
	name := strings.TrimSpace(m[1])
	value, ok := f.args[name]
	if !ok {
		if !strings.Contains(match, "|") {
			return match
		}
		value = m[2]
	}
	if len(value) > f.budget {
		f.budget = 0
		return match
	}
	f.budget -= len(value)
	return value
}

func (f *Frame) Output() videotag.OutputSink {
	return f.output
}
