package engine

// ============================================================================
// CHART OPTIONS — Functional options for BuildChart()
// ============================================================================

// ChartOption configures a chart spec via functional options pattern.
type ChartOption func(*ChartSpec)

// WithTitle sets the chart title.
func WithTitle(title string) ChartOption {
	return func(c *ChartSpec) { c.Title = title }
}

// WithSize sets the chart width and height in pixels.
func WithSize(width, height int) ChartOption {
	return func(c *ChartSpec) {
		c.Width = width
		c.Height = height
	}
}

// WithX binds the x channel.
func WithX(ch Channel) ChartOption {
	return func(c *ChartSpec) { c.Encoding.X = &ch }
}

// WithY binds the y channel.
func WithY(ch Channel) ChartOption {
	return func(c *ChartSpec) { c.Encoding.Y = &ch }
}

// WithColor binds the color channel.
func WithColor(ch Channel) ChartOption {
	return func(c *ChartSpec) { c.Encoding.Color = &ch }
}

// WithTooltip sets tooltip fields.
func WithTooltip(chs ...Channel) ChartOption {
	return func(c *ChartSpec) { c.Encoding.Tooltip = append(c.Encoding.Tooltip, chs...) }
}

// WithPoints draws point markers on a line mark.
func WithPoints() ChartOption {
	return func(c *ChartSpec) { c.Mark.Point = true }
}

// Field is shorthand for a typed, titled channel.
func Field(name, fieldType, title string) Channel {
	return Channel{Field: name, Type: fieldType, Title: title}
}

// Scheme returns a copy of the channel with a color scheme.
func (ch Channel) Scheme(name string) Channel {
	ch.Scale = &Scale{Scheme: name}
	return ch
}

// Agg returns a copy of the channel with an aggregate op.
func (ch Channel) Agg(op string) Channel {
	ch.Aggregate = op
	return ch
}

// Sorted returns a copy of the channel with a sort order, e.g. "-x".
func (ch Channel) Sorted(order any) Channel {
	ch.Sort = order
	return ch
}
