// Package roddom drives a live Chrome page over the DevTools protocol.
//
// Elements returned by QueryAll get a ref kept in a page-side map, never in
// the DOM, so later writes can find them again. ReplaceStyles forgets the
// refs it restores. Every Document call is a single Eval round trip, so a
// frame's worth of transforms costs one RPC.
package roddom

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/bamdow/folio/internal/dom"
)

//go:embed folio.js
var folioJS string

const bindingName = "__folio_pointer"

// Document is a dom.Document over a rod page.
type Document struct {
	page *rod.Page
	log  *zap.Logger

	mu        sync.Mutex
	listeners map[int]func(dom.PointerEvent)
	nextID    int
	bound     bool
	cancel    context.CancelFunc
	removeJS  func() error
}

var _ dom.Document = (*Document)(nil)

// New installs the page helpers into page, now and on every later
// navigation.
func New(page *rod.Page, log *zap.Logger) (*Document, error) {
	if log == nil {
		log = zap.NewNop()
	}
	remove, err := page.EvalOnNewDocument(folioJS)
	if err != nil {
		return nil, fmt.Errorf("roddom: install helpers: %w", err)
	}
	if _, err := page.Eval(`() => {` + folioJS + `}`); err != nil {
		return nil, fmt.Errorf("roddom: install helpers: %w", err)
	}
	return &Document{
		page:      page,
		log:       log,
		listeners: make(map[int]func(dom.PointerEvent)),
		removeJS:  remove,
	}, nil
}

// Close stops the pointer event loop and uninstalls the helpers from
// future navigations. The page itself stays open.
func (d *Document) Close() error {
	d.mu.Lock()
	cancel := d.cancel
	d.cancel = nil
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return d.removeJS()
}

func (d *Document) call(ctx context.Context, name string, arg, out interface{}) error {
	res, err := d.page.Context(ctx).Eval(`(name, arg) => window.__folio[name](arg)`, name, arg)
	if err != nil {
		return fmt.Errorf("roddom: %s: %w", name, err)
	}
	if out == nil {
		return nil
	}
	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return fmt.Errorf("roddom: %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("roddom: %s: decode: %w", name, err)
	}
	return nil
}

type jsMetrics struct {
	ScrollX       float64 `json:"scrollX"`
	ScrollY       float64 `json:"scrollY"`
	ViewportWidth float64 `json:"viewportWidth"`
	ScrollHeight  float64 `json:"scrollHeight"`
}

func (d *Document) Metrics(ctx context.Context) (dom.Metrics, error) {
	var m jsMetrics
	if err := d.call(ctx, "metrics", nil, &m); err != nil {
		return dom.Metrics{}, err
	}
	return dom.Metrics(m), nil
}

type jsNode struct {
	Ref      string  `json:"ref"`
	Path     string  `json:"path"`
	Tag      string  `json:"tag"`
	Left     float64 `json:"left"`
	Top      float64 `json:"top"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Display  string  `json:"display"`
	Opacity  float64 `json:"opacity"`
	Style    string  `json:"style"`
	HasStyle bool    `json:"hasStyle"`
}

func (n jsNode) node() dom.Node {
	return dom.Node{
		Ref:      n.Ref,
		Path:     n.Path,
		Tag:      n.Tag,
		Rect:     dom.Rect{Left: n.Left, Top: n.Top, Width: n.Width, Height: n.Height},
		Display:  n.Display,
		Opacity:  n.Opacity,
		Style:    n.Style,
		HasStyle: n.HasStyle,
	}
}

func (d *Document) QueryAll(ctx context.Context, selector string) ([]dom.Node, error) {
	var raw []jsNode
	if err := d.call(ctx, "query", selector, &raw); err != nil {
		return nil, err
	}
	nodes := make([]dom.Node, len(raw))
	for i, n := range raw {
		nodes[i] = n.node()
	}
	return nodes, nil
}

type jsDecl struct {
	Property string `json:"property"`
	Value    string `json:"value"`
}

type jsUpdate struct {
	Ref   string   `json:"ref"`
	Decls []jsDecl `json:"decls"`
}

func encodeUpdates(updates []dom.StyleUpdate) []jsUpdate {
	out := make([]jsUpdate, len(updates))
	for i, u := range updates {
		decls := make([]jsDecl, len(u.Decls))
		for j, dcl := range u.Decls {
			decls[j] = jsDecl(dcl)
		}
		out[i] = jsUpdate{Ref: u.Ref, Decls: decls}
	}
	return out
}

func (d *Document) SetStyles(ctx context.Context, updates []dom.StyleUpdate) error {
	return d.call(ctx, "setStyles", encodeUpdates(updates), nil)
}

type jsStyleText struct {
	Ref    string `json:"ref"`
	Text   string `json:"text"`
	Remove bool   `json:"remove"`
}

func (d *Document) ReplaceStyles(ctx context.Context, styles []dom.StyleText) error {
	items := make([]jsStyleText, len(styles))
	for i, s := range styles {
		items[i] = jsStyleText(s)
	}
	return d.call(ctx, "replaceStyles", items, nil)
}

func (d *Document) FlushLayout(ctx context.Context, refs []string) error {
	return d.call(ctx, "flush", refs, nil)
}

func (d *Document) LockPage(ctx context.Context, height float64) error {
	return d.call(ctx, "lock", height, nil)
}

func (d *Document) UnlockPage(ctx context.Context) error {
	return d.call(ctx, "unlock", nil, nil)
}

func (d *Document) ScrollTo(ctx context.Context, x, y float64) error {
	return d.call(ctx, "scrollTo", map[string]float64{"x": x, "y": y}, nil)
}

type jsPointer struct {
	ClientX float64 `json:"clientX"`
	ClientY float64 `json:"clientY"`
	ScrollX float64 `json:"scrollX"`
	ScrollY float64 `json:"scrollY"`
}

func parsePointer(payload string) (dom.PointerEvent, error) {
	var p jsPointer
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return dom.PointerEvent{}, err
	}
	return dom.PointerEvent(p), nil
}

func (d *Document) OnPointerDown(ctx context.Context, fn func(dom.PointerEvent)) (func(), error) {
	if err := d.bind(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	id := d.nextID
	d.nextID++
	d.listeners[id] = fn
	d.mu.Unlock()

	if err := d.call(ctx, "listen", id, nil); err != nil {
		d.mu.Lock()
		delete(d.listeners, id)
		d.mu.Unlock()
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			delete(d.listeners, id)
			d.mu.Unlock()
			if err := d.call(context.Background(), "unlisten", id, nil); err != nil {
				d.log.Warn("remove pointer listener", zap.Error(err))
			}
		})
	}, nil
}

// bind registers the JS to Go binding and starts the event loop once.
func (d *Document) bind() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.bound {
		return nil
	}
	if err := (proto.RuntimeAddBinding{Name: bindingName}).Call(d.page); err != nil {
		return fmt.Errorf("roddom: add binding: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.bound = true

	wait := d.page.Context(ctx).EachEvent(func(e *proto.RuntimeBindingCalled) {
		if e.Name != bindingName {
			return
		}
		ev, err := parsePointer(e.Payload)
		if err != nil {
			d.log.Warn("bad pointer payload", zap.Error(err))
			return
		}
		d.dispatch(ev)
	})
	go wait()
	return nil
}

func (d *Document) dispatch(ev dom.PointerEvent) {
	d.mu.Lock()
	fns := make([]func(dom.PointerEvent), 0, len(d.listeners))
	for _, fn := range d.listeners {
		fns = append(fns, fn)
	}
	d.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}
