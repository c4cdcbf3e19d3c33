// Package tui renders a gravity session over an in-memory page in the
// terminal. Mouse clicks on the canvas are pointer-downs on the page.
package tui

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/bamdow/folio/internal/dom"
	"github.com/bamdow/folio/internal/dom/memdom"
	"github.com/bamdow/folio/internal/frame"
	"github.com/bamdow/folio/internal/gravity"
	"github.com/bamdow/folio/internal/metrics"
)

const (
	width           = 72
	height          = 26
	historyCapacity = 600
	// the canvas is drawn below canvasStyle's padding
	originCol = 2
	originRow = 1
)

type TickMsg time.Time

// Model owns the controller and the page it acts on. The host never
// starts a Runner; each tick steps the world once and runs one frame.
type Model struct {
	ctrl   *gravity.Controller
	doc    *memdom.Document
	frames *frame.Manual
	energy *metrics.Energy
	settle *metrics.Settle
	canvas *Canvas

	layout []dom.Rect
	page   dom.Metrics

	dt      float64
	t       float64
	running bool
	resets  <-chan struct{}
	clicks  int
	err     error
}

// NewModel reads the resting layout of doc. ctrl must have been built over
// doc and frames with gravity.WithoutRunner.
func NewModel(ctx context.Context, ctrl *gravity.Controller, doc *memdom.Document, frames *frame.Manual) (Model, error) {
	cfg := ctrl.Config()
	snap, err := gravity.Classify(ctx, doc, cfg.Classifier)
	if err != nil {
		return Model{}, err
	}
	layout := make([]dom.Rect, 0, len(snap.Colliders))
	for _, c := range snap.Colliders {
		r := c.Node.Rect
		r.Left += snap.Metrics.ScrollX
		r.Top += snap.Metrics.ScrollY
		layout = append(layout, r)
	}

	return Model{
		ctrl:    ctrl,
		doc:     doc,
		frames:  frames,
		energy:  metrics.NewEnergy(historyCapacity),
		settle:  metrics.NewSettle(1, 0.5),
		canvas:  NewCanvas(width, height),
		layout:  layout,
		page:    snap.Metrics,
		dt:      cfg.StepDt(),
		running: true,
	}, nil
}

func (m Model) Init() tea.Cmd {
	return tick(m.dt)
}

func tick(dt float64) tea.Cmd {
	return tea.Tick(time.Duration(dt*float64(time.Second)), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "g", "enter":
			m.trigger()
		case "r":
			m.reset()
		}
	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			m.click(msg.X, msg.Y)
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, tick(m.dt)
	}
	return m, nil
}

func (m *Model) trigger() {
	ok, err := m.ctrl.Trigger(context.Background())
	m.err = err
	if ok {
		m.t = 0
		m.clicks = 0
		m.energy.Reset()
		m.settle.Reset()
	}
}

func (m *Model) reset() {
	done, err := m.ctrl.Reset(context.Background())
	if err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.resets = done
}

// click turns a terminal cell into a client-space pointer-down.
func (m *Model) click(col, row int) {
	x, y, ok := m.toPage(col, row)
	if !ok {
		return
	}
	sm, err := m.doc.Metrics(context.Background())
	if err != nil {
		m.err = err
		return
	}
	m.clicks++
	m.doc.Dispatch(x-sm.ScrollX, y-sm.ScrollY)
}

func (m *Model) step() {
	if !m.ctrl.Active() {
		return
	}
	m.ctrl.Step(m.dt)
	m.frames.Frame()
	m.t += m.dt

	if s := m.ctrl.Session(); s != nil {
		if w := s.World(); w != nil {
			ke := w.KineticEnergy()
			m.energy.Observe(ke)
			m.settle.Observe(ke, m.t)
		}
	}
}

// scale maps page pixels to canvas dots, fitting the whole page.
func (m *Model) scale() float64 {
	cw, ch := m.canvas.Dots()
	if m.page.ViewportWidth <= 0 || m.page.ScrollHeight <= 0 {
		return 1
	}
	return math.Min(float64(cw)/m.page.ViewportWidth, float64(ch)/m.page.ScrollHeight)
}

func (m *Model) toPage(col, row int) (float64, float64, bool) {
	cx, cy := col-originCol, row-originRow
	if cx < 0 || cy < 0 || cx >= m.canvas.Width || cy >= m.canvas.Height {
		return 0, 0, false
	}
	s := m.scale()
	return (float64(cx*2) + 1) / s, (float64(cy*4) + 2) / s, true
}

func (m *Model) draw() {
	m.canvas.Clear()
	s := m.scale()

	pw, ph := m.page.ViewportWidth*s, m.page.ScrollHeight*s
	m.canvas.DrawBox(pw/2, ph/2, pw-1, ph-1, 0)

	var bodies []gravity.Body
	if sess := m.ctrl.Session(); sess != nil {
		bodies = sess.Bodies()
	}
	if len(bodies) > 0 {
		for _, b := range bodies {
			m.canvas.DrawBox(b.Pose.X*s, b.Pose.Y*s, b.Pin.Width*s, b.Pin.Height*s, b.Pose.Angle)
		}
		return
	}
	for _, r := range m.layout {
		m.canvas.DrawBox(r.CenterX()*s, r.CenterY()*s, r.Width*s, r.Height*s, 0)
	}
}

func (m Model) status() string {
	switch {
	case !m.ctrl.Active():
		return "IDLE"
	case m.resets != nil && m.ctrl.Session() != nil && m.ctrl.Session().World() == nil:
		return "RESTORING"
	case !m.running:
		return "PAUSED"
	default:
		return "FALLING"
	}
}

func (m Model) View() string {
	m.draw()
	canvasView := canvasStyle.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(headerStyle.Render("FOLIO") + "\n")
	st := m.status()
	s.WriteString(statusStyles[st].Render(st) + "\n\n")

	if series := m.energy.Series(); len(series) > 1 {
		chart := asciigraph.Plot(series, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Kinetic energy"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}
	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.2fs", m.t)) + "\n")
	s.WriteString(labelStyle.Render("Bodies") + valueStyle.Render(fmt.Sprintf("%d", m.ctrl.BodyCount())) + "\n")
	s.WriteString(labelStyle.Render("Energy") + valueStyle.Render(fmt.Sprintf("%.0f", m.energy.Value())) + "\n")
	s.WriteString(labelStyle.Render("Clicks") + valueStyle.Render(fmt.Sprintf("%d", m.clicks)) + "\n")
	settled := "-"
	if m.settle.Settled() {
		settled = fmt.Sprintf("%.2fs", m.settle.Value())
	}
	s.WriteString(labelStyle.Render("Settled") + valueStyle.Render(settled) + "\n")

	if m.err != nil {
		s.WriteString("\n" + errStyle.Render(m.err.Error()) + "\n")
	}
	s.WriteString(helpStyle.Render("\n─────────────────────\nG:Drop  R:Restore  SP:Pause\nClick:Push  Q:Quit"))

	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
}
