package visual

import "math"

// Orb colours and shape constants.
const (
	Background   = "#1A1A1A"
	GlowColor    = "rgba(251, 213, 111, 0.3)"
	GlowBlur     = 40
	BaseFraction = 0.25
	PulseScale   = 0.8
	OutputWeight = 0.7
	InputWeight  = 0.3
)

// GradientStop is one colour stop of the orb fill.
type GradientStop struct {
	Offset float64 `json:"offset"`
	Color  string  `json:"color"`
}

// Stops are the orb fill stops, top to bottom.
var Stops = []GradientStop{
	{Offset: 0, Color: "#fef4ac"},
	{Offset: 0.5, Color: "#fbd56f"},
	{Offset: 1, Color: "#f38d41"},
}

// Gradient is a vertical linear gradient spanning the orb.
type Gradient struct {
	X0    float64        `json:"x0"`
	Y0    float64        `json:"y0"`
	X1    float64        `json:"x1"`
	Y1    float64        `json:"y1"`
	Stops []GradientStop `json:"stops"`
}

// Frame is everything needed to draw one orb frame on a 2D canvas.
type Frame struct {
	Width       float64  `json:"width"`
	Height      float64  `json:"height"`
	Background  string   `json:"background"`
	CenterX     float64  `json:"cx"`
	CenterY     float64  `json:"cy"`
	BaseRadius  float64  `json:"baseRadius"`
	Radius      float64  `json:"radius"`
	Fill        Gradient `json:"fill"`
	ShadowBlur  float64  `json:"shadowBlur"`
	ShadowColor string   `json:"shadowColor"`
	Input       float64  `json:"input"`
	Output      float64  `json:"output"`
}

// Orb computes frames from input and output levels.
type Orb struct{}

// Frame lays out the orb for a w x h canvas. Levels are in [0, 1]; output
// drives the pulse more than input.
func (Orb) Frame(inputAvg, outputAvg, w, h float64) Frame {
	cx, cy := w/2, h/2
	base := math.Min(w, h) * BaseFraction
	pulse := (outputAvg*OutputWeight + inputAvg*InputWeight) * base * PulseScale
	r := base + pulse

	return Frame{
		Width:      w,
		Height:     h,
		Background: Background,
		CenterX:    cx,
		CenterY:    cy,
		BaseRadius: base,
		Radius:     r,
		Fill: Gradient{
			X0: cx, Y0: cy - r,
			X1: cx, Y1: cy + r,
			Stops: Stops,
		},
		ShadowBlur:  GlowBlur,
		ShadowColor: GlowColor,
		Input:       inputAvg,
		Output:      outputAvg,
	}
}
