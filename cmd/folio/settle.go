package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/bamdow/folio/internal/config"
	"github.com/bamdow/folio/internal/dom"
	"github.com/bamdow/folio/internal/dom/memdom"
	"github.com/bamdow/folio/internal/export"
	"github.com/bamdow/folio/internal/frame"
	"github.com/bamdow/folio/internal/gravity"
	"github.com/bamdow/folio/internal/metrics"
	"github.com/bamdow/folio/internal/physics"
)

type settleOptions struct {
	Duration time.Duration
	Seed     int64
	PushAt   time.Duration
	Pushes   []dom.Point // client coordinates
}

type settleReport struct {
	Bodies      []gravity.Body
	Width       float64
	Height      float64
	Steps       int
	Kicks       int
	SettledAt   float64
	PeakEnergy  float64
	Containment float64
	Energy      []float64
}

// settle drops every collider of the fixture, runs the world headlessly
// and puts the page back before returning.
func settle(ctx context.Context, cfg *config.Config, fixture string, opts settleOptions) (*settleReport, error) {
	doc, err := memdom.Open(fixture)
	if err != nil {
		return nil, err
	}
	ctrl, err := gravity.NewController(doc, frame.NewManual(), cfg,
		gravity.WithoutRunner(),
		gravity.WithRand(rand.New(rand.NewSource(opts.Seed))),
		gravity.WithLogger(logger.Named("gravity")))
	if err != nil {
		return nil, err
	}
	ok, err := ctrl.Trigger(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("gravity session did not start")
	}
	defer func() {
		if done, err := ctrl.Reset(context.Background()); err == nil {
			<-done
		}
	}()

	sess := ctrl.Session()
	world := sess.World()
	runner := physics.NewRunner(world, cfg.Physics.StepHz)
	energy := metrics.NewEnergy(0)
	settled := metrics.NewSettle(1, 0.5)
	contained := metrics.NewContainment()
	for _, m := range []metrics.Metric{energy, settled, contained} {
		runner.AddObserver(m)
	}

	report := &settleReport{
		Width:  sess.Snapshot().Metrics.ViewportWidth,
		Height: sess.Snapshot().Metrics.ScrollHeight,
	}

	first := opts.Duration
	if len(opts.Pushes) > 0 && opts.PushAt < opts.Duration {
		first = opts.PushAt
	}
	n, err := runner.RunFor(ctx, first)
	report.Steps += n
	if err != nil {
		return nil, err
	}

	if first < opts.Duration {
		m := sess.Snapshot().Metrics
		for _, p := range opts.Pushes {
			kicks := ctrl.PointerDown(dom.PointerEvent{ClientX: p.X, ClientY: p.Y, ScrollX: m.ScrollX, ScrollY: m.ScrollY})
			report.Kicks += len(kicks)
		}
		n, err = runner.RunFor(ctx, opts.Duration-first)
		report.Steps += n
		if err != nil {
			return nil, err
		}
	}

	report.Bodies = sess.Bodies()
	report.SettledAt = settled.Value()
	report.PeakEnergy = energy.Peak()
	report.Containment = contained.Value()
	report.Energy = energy.Series()
	return report, nil
}

func parsePoint(s string) (dom.Point, error) {
	x, y, ok := strings.Cut(s, ",")
	if !ok {
		return dom.Point{}, fmt.Errorf("point %q: want x,y", s)
	}
	px, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
	if err != nil {
		return dom.Point{}, fmt.Errorf("point %q: %w", s, err)
	}
	py, err := strconv.ParseFloat(strings.TrimSpace(y), 64)
	if err != nil {
		return dom.Point{}, fmt.Errorf("point %q: %w", s, err)
	}
	return dom.Point{X: px, Y: py}, nil
}

func runSettle(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts := settleOptions{Duration: duration, Seed: seed, PushAt: pushAt}
	for _, s := range pushes {
		p, err := parsePoint(s)
		if err != nil {
			return err
		}
		opts.Pushes = append(opts.Pushes, p)
	}

	r, err := settle(cmd.Context(), cfg, fixturePath(args), opts)
	if err != nil {
		return err
	}

	// the summary moves to stderr when the JSON goes to stdout
	var out io.Writer = os.Stdout
	if jsonOut == "-" {
		out = os.Stderr
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "bodies\t%d\n", len(r.Bodies))
	fmt.Fprintf(w, "steps\t%d\n", r.Steps)
	fmt.Fprintf(w, "pushed\t%d\n", r.Kicks)
	if r.SettledAt >= 0 {
		fmt.Fprintf(w, "settled at\t%.2fs\n", r.SettledAt)
	} else {
		fmt.Fprintf(w, "settled at\t-\n")
	}
	fmt.Fprintf(w, "peak energy\t%.0f\n", r.PeakEnergy)
	fmt.Fprintf(w, "containment\t%.3f\n", r.Containment)
	w.Flush()

	if len(r.Energy) > 1 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, asciigraph.Plot(r.Energy,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("kinetic energy"),
		))
	}

	if svgOut != "" {
		if err := os.WriteFile(svgOut, []byte(export.PosesToSVG(r.Bodies, r.Width, r.Height)), 0644); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %s\n", svgOut)
	}
	if jsonOut != "" {
		layout := export.Layout{
			Width:     r.Width,
			Height:    r.Height,
			Steps:     r.Steps,
			SettledAt: r.SettledAt,
			Metrics: map[string]float64{
				"peak_energy": r.PeakEnergy,
				"containment": r.Containment,
				"pushed":      float64(r.Kicks),
			},
			Bodies: export.BodyPoses(r.Bodies),
			Energy: r.Energy,
		}
		if err := export.LayoutJSON(jsonOut, layout); err != nil {
			return err
		}
	}
	if energyOut != "" {
		if err := os.WriteFile(energyOut, []byte(export.SeriesToSVG(r.Energy, 800, 240, "#00ff88")), 0644); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %s\n", energyOut)
	}
	return nil
}
