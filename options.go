package bubblekit

import "fmt"

// ColorAuto is the sentinel color value meaning "no change". Color options
// carrying it are omitted from the resulting config patch.
const ColorAuto = "auto"

// Option configures a bubble template or a config patch. The same options
// are accepted by NewBubble and Bubble.Config; this is the flat parameter
// layer that gets translated into the nested config patch.
type Option func(*templateOptions)

type templateOptions struct {
	id      string
	role    string
	typ     string
	roleSet bool
	typeSet bool

	fields map[string]interface{}
	colors map[string]map[string]interface{}

	collapsibleSet          bool
	collapsibleByDefaultSet bool

	err error
}

func (o *templateOptions) setField(key string, value interface{}) {
	if o.fields == nil {
		o.fields = make(map[string]interface{})
	}
	o.fields[key] = value
}

func (o *templateOptions) setColor(group, key, value string) {
	if value == ColorAuto {
		return
	}
	if o.colors == nil {
		o.colors = make(map[string]map[string]interface{})
	}
	if o.colors[group] == nil {
		o.colors[group] = make(map[string]interface{})
	}
	o.colors[group][key] = value
}

// patch translates the collected flat parameters into the nested config
// patch: bubble_*/header_* colors grouped under "colors", extra folded into
// the top level, role/type included only when explicitly set.
func (o *templateOptions) patch() map[string]interface{} {
	patch := make(map[string]interface{})

	if o.roleSet {
		patch["role"] = o.role
	}
	if o.typeSet {
		patch["type"] = o.typ
	}

	for k, v := range o.fields {
		patch[k] = v
	}

	// A collapsible bubble starts collapsed unless told otherwise.
	if o.collapsibleSet && !o.collapsibleByDefaultSet {
		patch["collapsible_by_default"] = o.fields["collapsible"]
	}

	if len(o.colors) > 0 {
		colors := make(map[string]interface{}, len(o.colors))
		for group, values := range o.colors {
			groupCopy := make(map[string]interface{}, len(values))
			for k, v := range values {
				groupCopy[k] = v
			}
			colors[group] = groupCopy
		}
		patch["colors"] = colors
	}

	return patch
}

func applyOptions(opts []Option) templateOptions {
	var o templateOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithID pins the bubble id instead of generating one at send time.
func WithID(id string) Option {
	return func(o *templateOptions) { o.id = id }
}

// WithRole sets the bubble role (default "assistant").
func WithRole(role string) Option {
	return func(o *templateOptions) {
		o.role = role
		o.roleSet = true
	}
}

// WithType sets the bubble type (default "text").
func WithType(bubbleType string) Option {
	return func(o *templateOptions) {
		o.typ = bubbleType
		o.typeSet = true
	}
}

// WithName sets the display name shown above the bubble.
func WithName(name string) Option {
	return func(o *templateOptions) { o.setField("name", name) }
}

// HideName removes the display name (explicit null on the wire).
func HideName() Option {
	return func(o *templateOptions) { o.setField("name", nil) }
}

// WithIcon sets the icon URL or path for the bubble header.
func WithIcon(icon string) Option {
	return func(o *templateOptions) { o.setField("icon", icon) }
}

// HideIcon removes the icon (explicit null on the wire).
func HideIcon() Option {
	return func(o *templateOptions) { o.setField("icon", nil) }
}

// WithCollapsible marks the bubble as collapsible. Unless
// WithCollapsibleByDefault is also given, the initial collapsed state
// follows this value.
func WithCollapsible(collapsible bool) Option {
	return func(o *templateOptions) {
		o.setField("collapsible", collapsible)
		o.collapsibleSet = true
	}
}

// WithCollapsibleByDefault controls whether a collapsible bubble starts
// collapsed.
func WithCollapsibleByDefault(collapsed bool) Option {
	return func(o *templateOptions) {
		o.setField("collapsible_by_default", collapsed)
		o.collapsibleByDefaultSet = true
	}
}

// WithCollapsibleTitle sets the title shown while the bubble is collapsed.
func WithCollapsibleTitle(title string) Option {
	return func(o *templateOptions) { o.setField("collapsible_title", title) }
}

// WithCollapsibleMaxHeight sets the collapsed max height. Accepts a number
// (pixels) or a CSS size string.
func WithCollapsibleMaxHeight(maxHeight interface{}) Option {
	return func(o *templateOptions) { o.setField("collapsible_max_height", maxHeight) }
}

// WithBubbleBgColor sets the bubble body background color.
func WithBubbleBgColor(color string) Option {
	return func(o *templateOptions) { o.setColor("bubble", "bg", color) }
}

// WithBubbleTextColor sets the bubble body text color.
func WithBubbleTextColor(color string) Option {
	return func(o *templateOptions) { o.setColor("bubble", "text", color) }
}

// WithBubbleBorderColor sets the bubble body border color.
func WithBubbleBorderColor(color string) Option {
	return func(o *templateOptions) { o.setColor("bubble", "border", color) }
}

// WithHeaderBgColor sets the header background color.
func WithHeaderBgColor(color string) Option {
	return func(o *templateOptions) { o.setColor("header", "bg", color) }
}

// WithHeaderTextColor sets the header text color.
func WithHeaderTextColor(color string) Option {
	return func(o *templateOptions) { o.setColor("header", "text", color) }
}

// WithHeaderBorderColor sets the header border color.
func WithHeaderBorderColor(color string) Option {
	return func(o *templateOptions) { o.setColor("header", "border", color) }
}

// WithHeaderIconBgColor sets the header icon background color.
func WithHeaderIconBgColor(color string) Option {
	return func(o *templateOptions) { o.setColor("header", "iconBg", color) }
}

// WithHeaderIconTextColor sets the header icon foreground color.
func WithHeaderIconTextColor(color string) Option {
	return func(o *templateOptions) { o.setColor("header", "iconText", color) }
}

// WithExtra folds arbitrary fields into the top level of the config patch.
// The keys "id", "config" and "colors" are rejected: the id is immutable,
// config is never replaced wholesale, and colors must go through the
// dedicated color options so they merge structurally.
func WithExtra(extra map[string]interface{}) Option {
	return func(o *templateOptions) {
		for _, forbidden := range []string{"id", "config", "colors"} {
			if _, ok := extra[forbidden]; ok {
				o.err = fmt.Errorf("%w: extra cannot set %q", ErrInvalidConfig, forbidden)
				return
			}
		}
		for k, v := range extra {
			o.setField(k, v)
		}
	}
}
