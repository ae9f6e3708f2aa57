package sim

import (
	"math"
	"time"
)

const (
	// SurfaceMargin is the horizontal and vertical margin, per side, between
	// the container edge and the drawing surface.
	SurfaceMargin = 16
	// MinSurfaceSize is the smallest width or height ConfigureViewport returns.
	MinSurfaceSize = 120
)

// Tier names a container width bracket.
type Tier int

const (
	TierSmallMobile Tier = iota
	TierMobile
	TierMediumMobile
	TierTablet
	TierSmallDesktop
	TierDesktop
)

func (t Tier) String() string {
	switch t {
	case TierSmallMobile:
		return "small mobile"
	case TierMobile:
		return "mobile"
	case TierMediumMobile:
		return "medium mobile"
	case TierTablet:
		return "tablet"
	case TierSmallDesktop:
		return "small desktop"
	case TierDesktop:
		return "desktop"
	}
	return "unknown"
}

// DeviceType is the coarse device class reported to analytics.
func (t Tier) DeviceType() string {
	if t <= TierTablet {
		return "mobile"
	}
	return "desktop"
}

type tierSpec struct {
	tier     Tier
	maxWidth int // upper bound of the bracket, 0 for unbounded
	surface  int // largest surface width for the tier
	aspect   float64
	radius   float64
	maxAreas int
	interval time.Duration
}

// tiers is ordered by ascending bracket width.
var tiers = []tierSpec{
	{TierSmallMobile, 320, 320, 0.75, 8, 3, 1000 * time.Millisecond},
	{TierMobile, 375, 375, 0.75, 9, 3, 1000 * time.Millisecond},
	{TierMediumMobile, 480, 480, 0.70, 10, 4, 900 * time.Millisecond},
	{TierTablet, 768, 768, 0.60, 12, 5, 900 * time.Millisecond},
	{TierSmallDesktop, 1024, 800, 0.50, 14, 6, 800 * time.Millisecond},
	{TierDesktop, 0, 800, 0.50, 15, 6, 800 * time.Millisecond},
}

// Profile is the sizing and pacing derived from a container size.
type Profile struct {
	Tier         Tier
	CanvasWidth  int
	CanvasHeight int
	AlertRadius  float64
	MaxAreas     int
	TickInterval time.Duration
}

// Aspect returns CanvasHeight / CanvasWidth.
func (p Profile) Aspect() float64 {
	if p.CanvasWidth == 0 {
		return 0
	}
	return float64(p.CanvasHeight) / float64(p.CanvasWidth)
}

func tierFor(containerWidth int) tierSpec {
	for _, ts := range tiers {
		if ts.maxWidth == 0 || containerWidth <= ts.maxWidth {
			return ts
		}
	}
	return tiers[len(tiers)-1]
}

// ConfigureViewport maps a container size to a surface profile. A
// containerHeight <= 0 means the height is unconstrained. The result always
// has both dimensions >= MinSurfaceSize.
func ConfigureViewport(containerWidth, containerHeight int) Profile {
	ts := tierFor(containerWidth)

	width := containerWidth - 2*SurfaceMargin
	if width > ts.surface {
		width = ts.surface
	}
	height := int(math.Round(float64(width) * ts.aspect))

	if containerHeight > 0 {
		availH := containerHeight - 2*SurfaceMargin
		if height > availH {
			height = availH
			width = int(math.Round(float64(height) / ts.aspect))
		}
	}

	if width < MinSurfaceSize {
		width = MinSurfaceSize
	}
	if height < MinSurfaceSize {
		height = MinSurfaceSize
	}

	return Profile{
		Tier:         ts.tier,
		CanvasWidth:  width,
		CanvasHeight: height,
		AlertRadius:  ts.radius,
		MaxAreas:     ts.maxAreas,
		TickInterval: ts.interval,
	}
}
