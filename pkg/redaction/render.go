package redaction

// Color is an RGB triple with components in [0,1].
type Color [3]float64

var (
	White = Color{1, 1, 1}
	Black = Color{0, 0, 0}
)

// Point is a position in page coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// RenderConfig controls how masked text is laid over the cover rectangle.
type RenderConfig struct {
	FontScale     float64 `yaml:"font_scale" json:"font_scale"`
	MinFontSize   float64 `yaml:"min_font_size" json:"min_font_size"`
	MaxFontSize   float64 `yaml:"max_font_size" json:"max_font_size"`
	BaselineInset float64 `yaml:"baseline_inset" json:"baseline_inset"`
}

// DefaultRenderConfig returns font size clamp(h*0.8, 8, 12) with the
// baseline 2 units above the box bottom.
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		FontScale:     0.8,
		MinFontSize:   8,
		MaxFontSize:   12,
		BaselineInset: 2,
	}
}

// RenderInstruction is what an external renderer needs to draw one directive.
type RenderInstruction struct {
	Cover     Rect    `json:"cover"`
	Fill      Color   `json:"fill"`
	Text      string  `json:"text"`
	FontSize  float64 `json:"font_size"`
	Origin    Point   `json:"origin"`
	TextColor Color   `json:"text_color"`
}

// FontSize returns the clamped font size for a box of height h.
func (c RenderConfig) FontSize(h float64) float64 {
	size := h * c.FontScale
	if size < c.MinFontSize {
		return c.MinFontSize
	}
	if size > c.MaxFontSize {
		return c.MaxFontSize
	}
	return size
}

// Instruction builds the render instruction for d.
func (c RenderConfig) Instruction(d Directive) RenderInstruction {
	return RenderInstruction{
		Cover:     d.BBox,
		Fill:      White,
		Text:      d.MaskedText,
		FontSize:  c.FontSize(d.BBox.Height()),
		Origin:    Point{X: d.BBox.X0, Y: d.BBox.Y1 - c.BaselineInset},
		TextColor: Black,
	}
}

// Instructions builds render instructions for every directive in order.
func (c RenderConfig) Instructions(ds []Directive) []RenderInstruction {
	out := make([]RenderInstruction, len(ds))
	for i, d := range ds {
		out[i] = c.Instruction(d)
	}
	return out
}
