package sim

import (
	"fmt"
	"image/color"
)

// Kind is a simulated disaster category.
type Kind int

const (
	Earthquake Kind = iota
	Flood
	Wildfire
	Hurricane
)

// Kinds lists every Kind in declaration order.
var Kinds = [...]Kind{Earthquake, Flood, Wildfire, Hurricane}

func (k Kind) String() string {
	switch k {
	case Earthquake:
		return "Earthquake"
	case Flood:
		return "Flood"
	case Wildfire:
		return "Wildfire"
	case Hurricane:
		return "Hurricane"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Color returns the marker color for the kind.
func (k Kind) Color() color.RGBA {
	switch k {
	case Earthquake:
		return color.RGBA{0xff, 0x4d, 0x4d, 0xff}
	case Flood:
		return color.RGBA{0x45, 0xb7, 0xd1, 0xff}
	case Wildfire:
		return color.RGBA{0xfe, 0xca, 0x57, 0xff}
	case Hurricane:
		return color.RGBA{0x96, 0xce, 0xb4, 0xff}
	}
	return color.RGBA{0xff, 0x4d, 0x4d, 0xff}
}

// Alert is a marker placed during a run.
type Alert struct {
	X, Y        float64
	Color       color.RGBA
	Kind        Kind
	SuccessRate float64 // percent, one decimal place
}

// Label is the hover text for the alert.
func (a Alert) Label() string {
	return fmt.Sprintf("%s | Success: %.1f%%", a.Kind, a.SuccessRate)
}

func placementLine(a Alert, n int) string {
	return fmt.Sprintf("%s in Area %d coordinated (Success: %.1f%%)", a.Kind, n, a.SuccessRate)
}
