package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bamdow/folio/internal/config"
	"github.com/bamdow/folio/internal/dom"
	"github.com/bamdow/folio/internal/project"
)

func TestParsePoint(t *testing.T) {
	tests := []struct {
		in      string
		want    dom.Point
		wantErr bool
	}{
		{"10,20", dom.Point{X: 10, Y: 20}, false},
		{" 1.5 , 2 ", dom.Point{X: 1.5, Y: 2}, false},
		{"10", dom.Point{}, true},
		{"a,2", dom.Point{}, true},
		{"1,b", dom.Point{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parsePoint(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestSettleFixture(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Force.ArmDelay = 0
	cfg.Teardown.Transition = 10 * time.Millisecond

	r, err := settle(context.Background(), cfg, "../../testdata/portfolio.html", settleOptions{
		Duration: 3 * time.Second,
		Seed:     7,
		PushAt:   time.Second,
		Pushes:   []dom.Point{{X: 600, Y: 1000}},
	})
	if err != nil {
		t.Fatalf("settle: %v", err)
	}

	if len(r.Bodies) == 0 {
		t.Fatal("expected bodies in the report")
	}
	if r.Steps != 3*cfg.Physics.StepHz {
		t.Errorf("expected %d steps, got %d", 3*cfg.Physics.StepHz, r.Steps)
	}
	if r.Kicks == 0 {
		t.Error("expected the push to reach at least one body")
	}
	if len(r.Energy) != r.Steps {
		t.Errorf("expected one energy sample per step, got %d for %d", len(r.Energy), r.Steps)
	}
	if r.Containment < 1 {
		t.Errorf("expected every body to stay on the page, got %.3f", r.Containment)
	}
	if r.Width != 1200 || r.Height != 1600 {
		t.Errorf("expected 1200x1600 page, got %.0fx%.0f", r.Width, r.Height)
	}
	for _, b := range r.Bodies {
		if b.Pose.Y > r.Height {
			t.Errorf("%s fell through the floor: y=%.1f", b.Ref, b.Pose.Y)
		}
	}
}

func TestProjectMarkdown(t *testing.T) {
	md := projectMarkdown(&project.Project{
		Title:     "folio",
		Category:  project.Development,
		Tags:      []string{"go", "physics"},
		GithubURL: "https://github.com/bamdow/folio",
		Readme:    "Falling text.",
		Images:    []string{"/uploads/a.png"},
	})

	for _, want := range []string{"# folio", "go, physics", "<https://github.com/bamdow/folio>", "Falling text.", "- /uploads/a.png"} {
		if !strings.Contains(md, want) {
			t.Errorf("expected %q in:\n%s", want, md)
		}
	}
}
