package videotag

import "github.com/samber/lo"

// Attribute names accepted on the <video> tag, in emission order.
const (
	AttrWidth    = "width"
	AttrHeight   = "height"
	AttrControls = "controls"
)

var optionKeys = []string{AttrWidth, AttrHeight, AttrControls}

// OptionSet is the sanitized attribute set of a <video> element.
type OptionSet struct {
	Width    string
	Height   string
	Controls string
}

// DefaultOptions returns the values used for attributes missing from a tag.
func DefaultOptions() OptionSet {
	return OptionSet{
		Width:    "640",
		Height:   "360",
		Controls: "controls",
	}
}

// BuildOptionSet keeps only the recognized attributes of attrs and fills the
// rest from DefaultOptions. Keys match exactly; anything else is dropped.
func BuildOptionSet(attrs TagAttributes) OptionSet {
	picked := lo.PickByKeys(map[string]string(attrs), optionKeys)
	merged := lo.Assign(DefaultOptions().Map(), picked)

	return OptionSet{
		Width:    merged[AttrWidth],
		Height:   merged[AttrHeight],
		Controls: merged[AttrControls],
	}
}

// Map returns the options keyed by attribute name.
func (o OptionSet) Map() map[string]string {
	return map[string]string{
		AttrWidth:    o.Width,
		AttrHeight:   o.Height,
		AttrControls: o.Controls,
	}
}

// Entries returns the options in emission order.
func (o OptionSet) Entries() []lo.Entry[string, string] {
	m := o.Map()
	return lo.Map(optionKeys, func(k string, _ int) lo.Entry[string, string] {
		return lo.Entry[string, string]{Key: k, Value: m[k]}
	})
}
