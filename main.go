package main

import (
	"flag"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/disastertech/disaster-sim-go/internal/analytics"
	"github.com/disastertech/disaster-sim-go/internal/clock"
	"github.com/disastertech/disaster-sim-go/internal/config"
	"github.com/disastertech/disaster-sim-go/internal/sim"
)

var configFile string

func init() {
	flag.StringVar(&configFile, "config", "", "Path to an optional YAML configuration file.")
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
}

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	reporter, err := analytics.NewClient(cfg.APIBase, cfg.UserAgent, cfg.Page)
	if err != nil {
		log.Fatalf("FATAL: Failed to create analytics client: %v", err)
	}

	seed := time.Now().UnixNano()
	queue := clock.NewQueue()
	surface := NewSurface(cfg.MapImage)
	widget := sim.NewWidget(surface, queue,
		sim.WithReporter(reporter),
		sim.WithRand(rand.New(rand.NewSource(seed))),
		sim.WithResizeDebounce(cfg.ResizeDebounce),
		sim.WithReportTimeout(cfg.ReportTimeout),
	)

	game, err := NewGame(widget, surface, queue, seed)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	// Set up Ebitengine game
	ebiten.SetWindowSize(cfg.WindowWidth, cfg.WindowHeight)
	ebiten.SetWindowTitle("DisasterTech Response Simulator")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(cfg.TPS)

	// Run the game loop
	err = ebiten.RunGame(game)
	widget.Close()
	if err != nil {
		log.Fatal(err)
	}
}
