package main

import (
	"image/color"
	_ "image/jpeg" // map decoders
	_ "image/png"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/disastertech/disaster-sim-go/internal/sim"
)

var fallbackFill = color.RGBA{0x11, 0x11, 0x11, 0xff}

// Surface is the retained offscreen image the widget draws onto. Game.Draw
// blits it to the screen every frame.
type Surface struct {
	img     *ebiten.Image
	mapPath string
	mapImg  *ebiten.Image
	loaded  bool
}

// NewSurface creates a surface with the background map at mapPath. The map is
// loaded on first use; if it cannot be loaded the surface uses a flat fill.
func NewSurface(mapPath string) *Surface {
	return &Surface{mapPath: mapPath}
}

// Image returns the current surface image.
func (s *Surface) Image() *ebiten.Image {
	return s.img
}

// Resize implements sim.Canvas.
func (s *Surface) Resize(width, height int) {
	s.loadMap()
	if s.img != nil {
		b := s.img.Bounds()
		if b.Dx() == width && b.Dy() == height {
			return
		}
		s.img.Deallocate()
	}
	s.img = ebiten.NewImage(width, height)
}

// DrawBackground implements sim.Canvas.
func (s *Surface) DrawBackground() {
	if s.img == nil {
		return
	}
	s.img.Clear()
	if s.mapImg == nil {
		s.img.Fill(fallbackFill)
		return
	}
	sb, mb := s.img.Bounds(), s.mapImg.Bounds()
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(sb.Dx())/float64(mb.Dx()), float64(sb.Dy())/float64(mb.Dy()))
	op.Filter = ebiten.FilterLinear
	s.img.DrawImage(s.mapImg, op)
}

// DrawAlert implements sim.Canvas.
func (s *Surface) DrawAlert(a sim.Alert, radius float64) {
	if s.img == nil {
		return
	}
	vector.DrawFilledCircle(s.img, float32(a.X), float32(a.Y), float32(radius), a.Color, true)
}

func (s *Surface) loadMap() {
	if s.loaded {
		return
	}
	s.loaded = true
	if s.mapPath == "" {
		return
	}
	img, _, err := ebitenutil.NewImageFromFile(s.mapPath)
	if err != nil {
		log.Printf("Map image %s unavailable, using flat background: %v", s.mapPath, err)
		return
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		log.Printf("Map image %s is empty, using flat background", s.mapPath)
		return
	}
	s.mapImg = img
}
