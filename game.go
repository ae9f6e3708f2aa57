package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/aquilax/go-perlin"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/disastertech/disaster-sim-go/internal/clock"
	"github.com/disastertech/disaster-sim-go/internal/sim"
)

// HUD layout
const (
	PanelHeight   = 220 // space reserved under the surface
	ButtonWidth   = 96
	ButtonHeight  = 30
	LineHeight    = 18
	HaloStrength  = 0.35
	HaloNoiseRate = 1.0 / 40 // noise units per frame
)

var (
	screenColor  = color.RGBA{0x0b, 0x0f, 0x1a, 0xff}
	buttonColor  = color.RGBA{0x1f, 0x6f, 0xeb, 0xff}
	resetColor   = color.RGBA{0x3a, 0x3f, 0x4b, 0xff}
	textColor    = color.RGBA{0xe6, 0xed, 0xf3, 0xff}
	mutedColor   = color.RGBA{0x8b, 0x94, 0x9e, 0xff}
	tooltipColor = color.RGBA{0x00, 0x00, 0x00, 0xcc}
)

// pointer is the last known mouse or touch position in screen pixels.
type pointer struct {
	X, Y   int
	Active bool
}

// Game hosts a sim.Widget inside an ebiten window.
type Game struct {
	widget  *sim.Widget
	surface *Surface
	queue   *clock.Queue
	noise   *perlin.Perlin
	face    *text.GoTextFace
	small   *text.GoTextFace

	mounted            bool
	outsideW, outsideH int
	containerW         int
	containerH         int

	pointer  pointer
	hovered  sim.Alert
	hoverOK  bool
	lastMX   int
	lastMY   int
	touchIDs []ebiten.TouchID
	frame    int

	startBtn image.Rectangle
	resetBtn image.Rectangle
}

// NewGame wires the widget, its surface and the timer queue into a game.
func NewGame(widget *sim.Widget, surface *Surface, queue *clock.Queue, seed int64) (*Game, error) {
	src, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		return nil, fmt.Errorf("failed to load HUD font: %w", err)
	}
	return &Game{
		widget:  widget,
		surface: surface,
		queue:   queue,
		noise:   perlin.NewPerlin(2, 2, 3, seed),
		face:    &text.GoTextFace{Source: src, Size: 14},
		small:   &text.GoTextFace{Source: src, Size: 12},
	}, nil
}

// Update is called each tick by Ebitengine
func (g *Game) Update() error {
	w, h := g.outsideW, g.outsideH-PanelHeight
	switch {
	case !g.mounted:
		g.widget.Mount(w, h)
		g.mounted = true
		g.containerW, g.containerH = w, h
	case w != g.containerW || h != g.containerH:
		// Covers window resizes and orientation changes.
		g.widget.NotifyResize(w, h)
		g.containerW, g.containerH = w, h
	}

	g.layoutButtons()
	g.handleInput()

	g.queue.Advance(time.Second / time.Duration(ebiten.TPS()))
	g.updateHover()
	g.frame++
	return nil
}

// Draw is called each frame by Ebitengine
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(screenColor)
	img := g.surface.Image()
	if img == nil {
		return
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(sim.SurfaceMargin, sim.SurfaceMargin)
	screen.DrawImage(img, op)

	g.drawHalos(screen)
	g.drawPanel(screen)
	g.drawTooltip(screen)
}

// Layout returns the screen size
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.outsideW, g.outsideH = outsideWidth, outsideHeight
	return outsideWidth, outsideHeight
}

// handleInput processes keyboard, mouse and touch input
func (g *Game) handleInput() {
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.widget.Start()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.widget.Reset()
	}

	mx, my := ebiten.CursorPosition()
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.press(mx, my)
	}
	if mx != g.lastMX || my != g.lastMY {
		g.pointer = pointer{X: mx, Y: my, Active: true}
	}
	g.lastMX, g.lastMY = mx, my

	g.touchIDs = inpututil.AppendJustPressedTouchIDs(g.touchIDs[:0])
	for _, id := range g.touchIDs {
		x, y := ebiten.TouchPosition(id)
		g.press(x, y)
	}
	g.touchIDs = ebiten.AppendTouchIDs(g.touchIDs[:0])
	if len(g.touchIDs) > 0 {
		x, y := ebiten.TouchPosition(g.touchIDs[0])
		g.pointer = pointer{X: x, Y: y, Active: true}
	}
	g.touchIDs = inpututil.AppendJustReleasedTouchIDs(g.touchIDs[:0])
	if len(g.touchIDs) > 0 {
		g.pointer.Active = false
	}
}

func (g *Game) press(x, y int) {
	pt := image.Pt(x, y)
	switch {
	case pt.In(g.startBtn):
		g.widget.Start()
	case pt.In(g.resetBtn):
		g.widget.Reset()
	}
}

// updateHover resolves the pointer against the widget's alerts. The pointer
// is treated as having left when it is outside the surface.
func (g *Game) updateHover() {
	g.hoverOK = false
	if !g.pointer.Active {
		return
	}
	p := g.widget.Profile()
	sx := float64(g.pointer.X - sim.SurfaceMargin)
	sy := float64(g.pointer.Y - sim.SurfaceMargin)
	if sx < 0 || sy < 0 || sx >= float64(p.CanvasWidth) || sy >= float64(p.CanvasHeight) {
		return
	}
	g.hovered, g.hoverOK = g.widget.LocateAt(sx, sy)
}

func (g *Game) layoutButtons() {
	top := sim.SurfaceMargin + g.widget.Profile().CanvasHeight + 12
	left := sim.SurfaceMargin
	g.startBtn = image.Rect(left, top, left+ButtonWidth, top+ButtonHeight)
	g.resetBtn = image.Rect(left+ButtonWidth+8, top, left+2*ButtonWidth+8, top+ButtonHeight)
}

// drawHalos pulses a ring around each alert, one noise channel per alert.
func (g *Game) drawHalos(screen *ebiten.Image) {
	r := g.widget.Profile().AlertRadius
	t := float64(g.frame) * HaloNoiseRate
	for i, a := range g.widget.Alerts() {
		n := g.noise.Noise2D(float64(i)*1.7, t)
		scale := 1.3 + HaloStrength*n
		alpha := uint8(clamp(140+110*n, 40, 250))
		c := color.NRGBA{a.Color.R, a.Color.G, a.Color.B, alpha}
		x := float32(a.X + sim.SurfaceMargin)
		y := float32(a.Y + sim.SurfaceMargin)
		vector.StrokeCircle(screen, x, y, float32(r*scale), 2, c, true)
	}
	if g.hoverOK {
		x := float32(g.hovered.X + sim.SurfaceMargin)
		y := float32(g.hovered.Y + sim.SurfaceMargin)
		vector.StrokeCircle(screen, x, y, float32(r+3), 2, color.White, true)
	}
}

func (g *Game) drawPanel(screen *ebiten.Image) {
	g.drawButton(screen, g.startBtn, "Start", buttonColor)
	g.drawButton(screen, g.resetBtn, "Reset", resetColor)

	x := float64(g.resetBtn.Max.X + 16)
	y := float64(g.startBtn.Min.Y + 6)
	counters := fmt.Sprintf("Areas: %s    Success: %s", g.widget.AreasText(), g.widget.SuccessText())
	g.drawText(screen, counters, g.face, x, y, textColor)

	y = float64(g.startBtn.Max.Y + 10)
	g.drawText(screen, g.widget.Status(), g.small, sim.SurfaceMargin, y, mutedColor)
	for _, line := range g.widget.Log() {
		y += LineHeight
		g.drawText(screen, line, g.small, sim.SurfaceMargin, y, textColor)
	}
}

func (g *Game) drawButton(screen *ebiten.Image, r image.Rectangle, label string, c color.Color) {
	vector.DrawFilledRect(screen, float32(r.Min.X), float32(r.Min.Y), float32(r.Dx()), float32(r.Dy()), c, true)
	w, h := text.Measure(label, g.face, 0)
	tx := float64(r.Min.X) + (float64(r.Dx())-w)/2
	ty := float64(r.Min.Y) + (float64(r.Dy())-h)/2
	g.drawText(screen, label, g.face, tx, ty, textColor)
}

func (g *Game) drawTooltip(screen *ebiten.Image) {
	if !g.hoverOK {
		return
	}
	label := g.hovered.Label()
	w, h := text.Measure(label, g.small, 0)
	x := float64(g.pointer.X + 12)
	y := float64(g.pointer.Y + 12)
	if maxX := float64(screen.Bounds().Dx()) - w - 12; x > maxX {
		x = maxX
	}
	vector.DrawFilledRect(screen, float32(x-4), float32(y-3), float32(w+8), float32(h+6), tooltipColor, true)
	g.drawText(screen, label, g.small, x, y, textColor)
}

func (g *Game) drawText(screen *ebiten.Image, s string, face *text.GoTextFace, x, y float64, c color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(c)
	text.Draw(screen, s, face, op)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
