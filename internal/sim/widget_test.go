package sim

import (
	"bytes"
	"context"
	"errors"
	"log"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/disastertech/disaster-sim-go/internal/clock"
)

type recordingCanvas struct {
	width, height int
	resizes       int
	backgrounds   int
	drawn         []Alert
}

func (c *recordingCanvas) Resize(width, height int) {
	c.width, c.height = width, height
	c.resizes++
}

func (c *recordingCanvas) DrawBackground() {
	c.backgrounds++
	c.drawn = nil
}

func (c *recordingCanvas) DrawAlert(a Alert, radius float64) {
	c.drawn = append(c.drawn, a)
}

type fakeReporter struct {
	mu        sync.Mutex
	summaries []RunSummary
	err       error
	done      chan struct{}
}

func newFakeReporter(err error) *fakeReporter {
	return &fakeReporter{err: err, done: make(chan struct{}, 16)}
}

func (r *fakeReporter) Report(ctx context.Context, s RunSummary) error {
	r.mu.Lock()
	r.summaries = append(r.summaries, s)
	r.mu.Unlock()
	select {
	case r.done <- struct{}{}:
	default:
	}
	return r.err
}

func (r *fakeReporter) calls() []RunSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RunSummary(nil), r.summaries...)
}

type fixture struct {
	canvas   *recordingCanvas
	queue    *clock.Queue
	reporter *fakeReporter
	logs     *bytes.Buffer
	widget   *Widget
}

func newFixture(t *testing.T, containerW, containerH int, reportErr error) *fixture {
	t.Helper()
	f := &fixture{
		canvas:   &recordingCanvas{},
		queue:    clock.NewQueue(),
		reporter: newFakeReporter(reportErr),
		logs:     &bytes.Buffer{},
	}
	f.widget = NewWidget(f.canvas, f.queue,
		WithReporter(f.reporter),
		WithRand(rand.New(rand.NewSource(42))),
		WithLogger(log.New(f.logs, "", 0)),
	)
	f.widget.Mount(containerW, containerH)
	t.Cleanup(f.widget.Close)
	return f
}

func (f *fixture) ticks(n int) {
	f.queue.Advance(time.Duration(n) * f.widget.State().TickInterval)
}

func TestMountDrawsBackground(t *testing.T) {
	f := newFixture(t, 1280, 0, nil)

	assert.Equal(t, 800, f.canvas.width)
	assert.Equal(t, 400, f.canvas.height)
	assert.Equal(t, 1, f.canvas.backgrounds)
	assert.Equal(t, "0", f.widget.AreasText())
	assert.Equal(t, "0%", f.widget.SuccessText())
	assert.Equal(t, StatusIdle, f.widget.Status())
}

func TestCompletedRun(t *testing.T) {
	f := newFixture(t, 400, 0, nil)
	p := f.widget.Profile()
	require.Equal(t, TierMediumMobile, p.Tier)

	f.widget.Start()
	assert.True(t, f.widget.State().Running)
	f.ticks(p.MaxAreas)

	state := f.widget.State()
	assert.False(t, state.Running)
	assert.Equal(t, p.MaxAreas, state.Placed)
	assert.Equal(t, 0, f.queue.Pending())

	lines := f.widget.Log()
	require.Len(t, lines, p.MaxAreas+1)
	for i, line := range lines[:p.MaxAreas] {
		assert.Contains(t, line, " in Area ")
		assert.True(t, strings.HasSuffix(line, "%)"), line)
		assert.Contains(t, line, f.widget.Alerts()[i].Kind.String())
	}
	assert.Equal(t, CompletionLine, lines[p.MaxAreas])
	assert.Equal(t, CompletionLine, f.widget.Status())

	select {
	case <-f.reporter.done:
	case <-time.After(time.Second):
		t.Fatal("report was not sent")
	}
	f.ticks(10)
	f.widget.Close()
	calls := f.reporter.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, RunSummary{Areas: p.MaxAreas, DeviceType: "mobile"}, calls[0])
}

func TestAlertsStayInsideSurface(t *testing.T) {
	f := newFixture(t, 1920, 0, nil)
	r := f.widget.Profile().AlertRadius

	for run := 0; run < 20; run++ {
		f.widget.Start()
		f.ticks(10)
		for _, a := range f.widget.Alerts() {
			assert.GreaterOrEqual(t, a.X, r)
			assert.LessOrEqual(t, a.X, float64(f.canvas.width)-r)
			assert.GreaterOrEqual(t, a.Y, r)
			assert.LessOrEqual(t, a.Y, float64(f.canvas.height)-r)
			assert.GreaterOrEqual(t, a.SuccessRate, 90.0)
			assert.Less(t, a.SuccessRate, 99.05)
			assert.Equal(t, a.Kind.Color(), a.Color)
		}
	}
}

func TestRunningAverage(t *testing.T) {
	f := newFixture(t, 1920, 0, nil)
	f.widget.Start()

	for n := 1; n <= f.widget.State().MaxAreas; n++ {
		f.ticks(1)
		sum := 0.0
		alerts := f.widget.Alerts()
		require.Len(t, alerts, n)
		for _, a := range alerts {
			sum += a.SuccessRate
		}
		assert.InDelta(t, sum/float64(n), f.widget.State().AverageSuccess, 1e-9)
	}
}

func TestStartTwiceKeepsOneTimer(t *testing.T) {
	f := newFixture(t, 1920, 0, nil)

	f.widget.Start()
	f.ticks(2)
	require.Len(t, f.widget.Alerts(), 2)

	f.widget.Start()
	assert.Equal(t, 1, f.queue.Pending())
	assert.Empty(t, f.widget.Alerts())
	assert.Empty(t, f.widget.Log())
	assert.Equal(t, "0", f.widget.AreasText())

	f.ticks(1)
	assert.Len(t, f.widget.Alerts(), 1)
	assert.Equal(t, 1, f.widget.State().Placed)

	f.ticks(10)
	assert.Len(t, f.widget.Alerts(), f.widget.Profile().MaxAreas)
	<-f.reporter.done
	f.widget.Close()
	assert.Len(t, f.reporter.calls(), 1)
}

func TestResetAfterPartialRun(t *testing.T) {
	f := newFixture(t, 1920, 0, nil)
	f.widget.Start()
	f.ticks(3)
	require.NotEqual(t, "0%", f.widget.SuccessText())

	backgrounds := f.canvas.backgrounds
	f.widget.Reset()

	assert.Equal(t, "0", f.widget.AreasText())
	assert.Equal(t, "0%", f.widget.SuccessText())
	assert.Empty(t, f.widget.Log())
	assert.Empty(t, f.widget.Alerts())
	assert.Empty(t, f.canvas.drawn)
	assert.Equal(t, backgrounds+1, f.canvas.backgrounds)
	assert.Equal(t, 0, f.queue.Pending())

	f.ticks(10)
	assert.Empty(t, f.widget.Alerts())
	f.widget.Close()
	assert.Empty(t, f.reporter.calls())
}

func TestResetWithoutRun(t *testing.T) {
	f := newFixture(t, 0, 0, nil)
	assert.NotPanics(t, func() {
		f.widget.Reset()
		f.widget.Reset()
	})
	assert.Equal(t, "0", f.widget.AreasText())
	assert.Equal(t, MinSurfaceSize, f.canvas.width)
}

func TestLocateAt(t *testing.T) {
	f := newFixture(t, 1920, 0, nil)
	r := f.widget.Profile().AlertRadius
	f.widget.alerts = []Alert{
		{X: 100, Y: 100, Kind: Flood},
		{X: 105, Y: 100, Kind: Wildfire},
		{X: 300, Y: 200, Kind: Hurricane},
	}

	a, ok := f.widget.LocateAt(103, 100)
	require.True(t, ok)
	assert.Equal(t, Flood, a.Kind)

	a, ok = f.widget.LocateAt(105+r-0.5, 100)
	require.True(t, ok)
	assert.Equal(t, Wildfire, a.Kind)

	a, ok = f.widget.LocateAt(300, 200+r-0.01)
	require.True(t, ok)
	assert.Equal(t, Hurricane, a.Kind)

	_, ok = f.widget.LocateAt(300, 200+r)
	assert.False(t, ok)

	_, ok = f.widget.LocateAt(600, 350)
	assert.False(t, ok)
}

func TestReportFailureIsSwallowed(t *testing.T) {
	f := newFixture(t, 1920, 0, errors.New("connection refused"))
	f.widget.Start()
	f.ticks(10)
	<-f.reporter.done
	f.widget.Close()

	assert.Equal(t, f.widget.Profile().MaxAreas, f.widget.State().Placed)
	assert.Equal(t, CompletionLine, f.widget.Log()[len(f.widget.Log())-1])
	assert.Contains(t, f.logs.String(), "connection refused")
}

func TestResizeIsDebounced(t *testing.T) {
	f := newFixture(t, 1920, 0, nil)
	require.Equal(t, 1, f.canvas.resizes)

	f.widget.NotifyResize(1000, 0)
	f.queue.Advance(100 * time.Millisecond)
	f.widget.NotifyResize(700, 0)
	f.queue.Advance(100 * time.Millisecond)
	f.widget.NotifyResize(400, 0)
	f.queue.Advance(100 * time.Millisecond)
	assert.Equal(t, 1, f.canvas.resizes)

	f.queue.Advance(DefaultResizeDebounce)
	assert.Equal(t, 2, f.canvas.resizes)
	assert.Equal(t, TierMediumMobile, f.widget.Profile().Tier)
	assert.Equal(t, 368, f.canvas.width)
}

func TestViewportChangeKeepsRecordedCoordinates(t *testing.T) {
	f := newFixture(t, 1920, 0, nil)
	f.widget.Start()
	f.ticks(3)
	before := f.widget.Alerts()

	f.widget.NotifyResize(400, 0)
	f.queue.Advance(DefaultResizeDebounce)

	assert.Equal(t, before, f.canvas.drawn)
	assert.Equal(t, before, f.widget.Alerts()[:3])
}

func TestRunUsesProfileAtStart(t *testing.T) {
	f := newFixture(t, 1920, 0, nil)
	f.widget.Start()
	started := f.widget.State()

	f.widget.Mount(320, 0)
	f.queue.Advance(time.Duration(started.MaxAreas) * started.TickInterval)

	assert.Equal(t, started.MaxAreas, f.widget.State().Placed)
	assert.Equal(t, 6, f.widget.State().Placed)
}

func TestKindExhaustive(t *testing.T) {
	seen := map[string]bool{}
	for _, k := range Kinds {
		assert.NotContains(t, k.String(), "Kind(")
		seen[k.String()] = true
	}
	assert.Len(t, seen, 4)
	assert.Equal(t, "Kind(9)", Kind(9).String())
	assert.Equal(t, "Flood | Success: 93.4%", Alert{Kind: Flood, SuccessRate: 93.4}.Label())
}
