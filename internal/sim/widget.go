// Package sim implements the disaster response simulator widget: a drawing
// surface on which a timed run places simulated alerts, keeps a log and a
// running success average, and reports a summary when the run completes.
//
// A Widget is not safe for concurrent use. All calls, including timer
// callbacks, are expected on one goroutine (the host's update loop).
package sim

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/disastertech/disaster-sim-go/internal/clock"
)

const (
	// DefaultResizeDebounce is the quiet period before a resize is applied.
	DefaultResizeDebounce = 150 * time.Millisecond
	// DefaultReportTimeout bounds a single report call.
	DefaultReportTimeout  = 10 * time.Second

	StatusIdle     = "Press Start to run the simulation"
	StatusRunning  = "Simulation started: Detecting disasters..."
	CompletionLine = "Simulation complete: Global response optimized!"
)

// Canvas is the drawing surface the widget renders onto.
type Canvas interface {
	Resize(width, height int)
	// DrawBackground clears the surface to the map, or a flat fill if the
	// map is unavailable.
	DrawBackground()
	DrawAlert(a Alert, radius float64)
}

// RunSummary is reported once per completed run.
type RunSummary struct {
	Areas      int
	DeviceType string
}

// Reporter sends run summaries to an external endpoint.
type Reporter interface {
	Report(ctx context.Context, s RunSummary) error
}

// RunState is the mutable state of the current run.
type RunState struct {
	Running        bool
	Placed         int
	MaxAreas       int
	TickInterval   time.Duration
	AverageSuccess float64
}

// Option configures a Widget.
type Option func(*Widget)

// WithReporter sets the run summary reporter.
func WithReporter(r Reporter) Option {
	return func(w *Widget) { w.reporter = r }
}

// WithRand sets the random source used for placement.
func WithRand(rng *rand.Rand) Option {
	return func(w *Widget) { w.rng = rng }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *log.Logger) Option {
	return func(w *Widget) { w.logger = l }
}

// WithResizeDebounce sets the resize quiet period.
func WithResizeDebounce(d time.Duration) Option {
	return func(w *Widget) { w.debounce = d }
}

// WithReportTimeout bounds each report call.
func WithReportTimeout(d time.Duration) Option {
	return func(w *Widget) { w.reportTimeout = d }
}

// Widget owns one simulator instance.
type Widget struct {
	canvas        Canvas
	sched         clock.Scheduler
	reporter      Reporter
	rng           *rand.Rand
	logger        *log.Logger
	debounce      time.Duration
	reportTimeout time.Duration

	containerW, containerH int
	profile                Profile

	alerts []Alert
	lines  []string
	run    RunState
	status string

	tick   *clock.Timer
	resize *clock.Timer

	ctx     context.Context
	cancel  context.CancelFunc
	reports sync.WaitGroup
}

// NewWidget creates a widget drawing onto canvas with timers on sched.
func NewWidget(canvas Canvas, sched clock.Scheduler, opts ...Option) *Widget {
	w := &Widget{
		canvas:        canvas,
		sched:         sched,
		logger:        log.Default(),
		debounce:      DefaultResizeDebounce,
		reportTimeout: DefaultReportTimeout,
		status:        StatusIdle,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.rng == nil {
		w.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	w.ctx, w.cancel = context.WithCancel(context.Background())
	return w
}

// Mount sizes the surface for the container and draws the empty map.
func (w *Widget) Mount(containerWidth, containerHeight int) {
	w.containerW, w.containerH = containerWidth, containerHeight
	w.applyProfile()
}

// Start begins a new run, discarding any run in progress.
func (w *Widget) Start() {
	w.stopTick()
	w.alerts = nil
	w.lines = nil
	w.redraw()
	w.run = RunState{
		Running:      true,
		MaxAreas:     w.profile.MaxAreas,
		TickInterval: w.profile.TickInterval,
	}
	w.status = StatusRunning
	w.tick = w.sched.Every(w.run.TickInterval, w.step)
}

// Reset stops any run and clears alerts, log and counters.
func (w *Widget) Reset() {
	w.stopTick()
	w.alerts = nil
	w.lines = nil
	w.run = RunState{}
	w.status = StatusIdle
	w.redraw()
}

// LocateAt returns the first placed alert whose center is closer than the
// alert radius to (px, py).
func (w *Widget) LocateAt(px, py float64) (Alert, bool) {
	r := w.profile.AlertRadius
	for _, a := range w.alerts {
		if math.Hypot(px-a.X, py-a.Y) < r {
			return a, true
		}
	}
	return Alert{}, false
}

// NotifyResize records a new container size and applies it once no further
// resize arrives within the debounce period.
func (w *Widget) NotifyResize(containerWidth, containerHeight int) {
	w.containerW, w.containerH = containerWidth, containerHeight
	if w.resize != nil {
		w.resize.Stop()
	}
	w.resize = w.sched.After(w.debounce, w.OnViewportChange)
}

// OnViewportChange recomputes the profile for the last known container size
// and redraws. Placed alerts keep their recorded coordinates.
func (w *Widget) OnViewportChange() {
	w.resize = nil
	w.applyProfile()
}

// Close stops all timers and waits for in-flight reports to finish or be
// cancelled.
func (w *Widget) Close() {
	w.stopTick()
	if w.resize != nil {
		w.resize.Stop()
		w.resize = nil
	}
	w.cancel()
	w.reports.Wait()
}

// Alerts returns a copy of the placed alerts in insertion order.
func (w *Widget) Alerts() []Alert {
	return append([]Alert(nil), w.alerts...)
}

// Log returns a copy of the run log lines.
func (w *Widget) Log() []string {
	return append([]string(nil), w.lines...)
}

// State returns the current run state.
func (w *Widget) State() RunState {
	return w.run
}

// Profile returns the profile currently applied to the surface.
func (w *Widget) Profile() Profile {
	return w.profile
}

// Status returns the banner text for the current run.
func (w *Widget) Status() string {
	return w.status
}

// AreasText is the displayed placed-area counter.
func (w *Widget) AreasText() string {
	return fmt.Sprintf("%d", w.run.Placed)
}

// SuccessText is the displayed running success average.
func (w *Widget) SuccessText() string {
	if w.run.Placed == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", w.run.AverageSuccess)
}

func (w *Widget) step() {
	if w.run.Placed >= w.run.MaxAreas {
		w.complete()
		return
	}

	r := w.profile.AlertRadius
	width := float64(w.profile.CanvasWidth)
	height := float64(w.profile.CanvasHeight)
	kind := Kinds[w.rng.Intn(len(Kinds))]
	a := Alert{
		X:           r + w.rng.Float64()*math.Max(width-2*r, 0),
		Y:           r + w.rng.Float64()*math.Max(height-2*r, 0),
		Kind:        kind,
		Color:       kind.Color(),
		SuccessRate: math.Round((90+w.rng.Float64()*9)*10) / 10,
	}
	w.alerts = append(w.alerts, a)
	w.canvas.DrawAlert(a, r)

	w.run.Placed++
	n := float64(w.run.Placed)
	w.run.AverageSuccess = (w.run.AverageSuccess*(n-1) + a.SuccessRate) / n
	w.lines = append(w.lines, placementLine(a, w.run.Placed))

	if w.run.Placed == w.run.MaxAreas {
		w.complete()
	}
}

func (w *Widget) complete() {
	w.stopTick()
	w.lines = append(w.lines, CompletionLine)
	w.status = CompletionLine
	w.dispatchReport(RunSummary{
		Areas:      len(w.alerts),
		DeviceType: w.profile.Tier.DeviceType(),
	})
}

func (w *Widget) dispatchReport(s RunSummary) {
	if w.reporter == nil {
		return
	}
	w.reports.Add(1)
	go func() {
		defer w.reports.Done()
		ctx, cancel := context.WithTimeout(w.ctx, w.reportTimeout)
		defer cancel()
		if err := w.reporter.Report(ctx, s); err != nil {
			w.logger.Printf("Analytics log error: %v", err)
		}
	}()
}

func (w *Widget) stopTick() {
	if w.tick != nil {
		w.tick.Stop()
		w.tick = nil
	}
	w.run.Running = false
}

func (w *Widget) applyProfile() {
	w.profile = ConfigureViewport(w.containerW, w.containerH)
	w.canvas.Resize(w.profile.CanvasWidth, w.profile.CanvasHeight)
	w.redraw()
}

func (w *Widget) redraw() {
	w.canvas.DrawBackground()
	for _, a := range w.alerts {
		w.canvas.DrawAlert(a, w.profile.AlertRadius)
	}
}
