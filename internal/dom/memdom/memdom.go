// Package memdom is an in-memory page host built from an HTML fixture.
//
// Layout is not computed. Each element carries its page-space box in a
// data-rect="left top width height" attribute, and optionally data-display
// and data-opacity for computed style. The body carries the page metrics:
//
//	<body data-viewport="1280 800" data-scroll-height="2400" data-scroll="0 120">
//
// Selectors are evaluated with cascadia, so the same selector strings work
// here and against a live browser.
package memdom

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/bamdow/folio/internal/dom"
)

type MutationKind string

const (
	MutSetStyles     MutationKind = "set_styles"
	MutReplaceStyles MutationKind = "replace_styles"
	MutFlush         MutationKind = "flush"
	MutLock          MutationKind = "lock"
	MutUnlock        MutationKind = "unlock"
	MutScroll        MutationKind = "scroll"
)

// Mutation is one recorded write against the document.
type Mutation struct {
	Kind MutationKind
	Ref  string
}

type element struct {
	node    *html.Node
	ref     string
	path    string
	rect    dom.Rect
	display string
	opacity float64
}

// Document is a dom.Document over a parsed fixture. Safe for concurrent use.
type Document struct {
	mu        sync.Mutex
	root      *html.Node
	body      *element
	elements  []*element
	byRef     map[string]*element
	byNode    map[*html.Node]*element
	viewportW float64
	viewportH float64
	scrollH   float64
	scrollX   float64
	scrollY   float64
	log       []Mutation
	flushes   int
	listeners map[int]func(dom.PointerEvent)
	nextID    int
}

var _ dom.Document = (*Document)(nil)

func Open(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("memdom: parse: %w", err)
	}
	d := &Document{
		root:      root,
		byRef:     make(map[string]*element),
		byNode:    make(map[*html.Node]*element),
		listeners: make(map[int]func(dom.PointerEvent)),
	}
	if err := d.index(root, ""); err != nil {
		return nil, err
	}
	if d.body == nil {
		return nil, fmt.Errorf("memdom: fixture has no body")
	}
	if err := d.readMetrics(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Document) index(n *html.Node, path string) error {
	idx := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		p := strconv.Itoa(idx)
		if path != "" {
			p = path + "/" + p
		}
		idx++

		el := &element{
			node:    c,
			ref:     "e" + strconv.Itoa(len(d.elements)),
			path:    p,
			display: "block",
			opacity: 1,
		}
		if v, ok := attr(c, "data-rect"); ok {
			f, err := floats(v, 4)
			if err != nil {
				return fmt.Errorf("memdom: <%s> data-rect: %w", c.Data, err)
			}
			el.rect = dom.Rect{Left: f[0], Top: f[1], Width: f[2], Height: f[3]}
		}
		if v, ok := attr(c, "data-display"); ok {
			el.display = v
		}
		if v, ok := attr(c, "data-opacity"); ok {
			o, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("memdom: <%s> data-opacity: %w", c.Data, err)
			}
			el.opacity = o
		}
		d.elements = append(d.elements, el)
		d.byRef[el.ref] = el
		d.byNode[c] = el
		if c.Data == "body" && d.body == nil {
			d.body = el
		}
		if err := d.index(c, p); err != nil {
			return err
		}
	}
	return nil
}

func (d *Document) readMetrics() error {
	n := d.body.node
	d.viewportW, d.viewportH = 1280, 800
	if v, ok := attr(n, "data-viewport"); ok {
		f, err := floats(v, 2)
		if err != nil {
			return fmt.Errorf("memdom: data-viewport: %w", err)
		}
		d.viewportW, d.viewportH = f[0], f[1]
	}
	d.scrollH = d.viewportH
	if v, ok := attr(n, "data-scroll-height"); ok {
		f, err := floats(v, 1)
		if err != nil {
			return fmt.Errorf("memdom: data-scroll-height: %w", err)
		}
		d.scrollH = f[0]
	}
	if v, ok := attr(n, "data-scroll"); ok {
		f, err := floats(v, 2)
		if err != nil {
			return fmt.Errorf("memdom: data-scroll: %w", err)
		}
		d.scrollX, d.scrollY = f[0], f[1]
	}
	return nil
}

func (d *Document) Metrics(ctx context.Context) (dom.Metrics, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return dom.Metrics{
		ScrollX:       d.scrollX,
		ScrollY:       d.scrollY,
		ViewportWidth: d.viewportW,
		ScrollHeight:  d.scrollH,
	}, nil
}

func (d *Document) QueryAll(ctx context.Context, selector string) ([]dom.Node, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("memdom: selector: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	matches := sel.MatchAll(d.root)
	nodes := make([]dom.Node, 0, len(matches))
	for _, m := range matches {
		el, ok := d.byNode[m]
		if !ok {
			continue
		}
		nodes = append(nodes, d.snapshot(el))
	}
	return nodes, nil
}

// snapshot reports the element box in client coordinates. A pinned
// element reports its pinned box, as a browser would.
func (d *Document) snapshot(el *element) dom.Node {
	style, hasStyle := attr(el.node, "style")
	rect := el.rect
	if dom.StyleValue(style, "position") == "absolute" {
		rect = dom.Rect{
			Left:   dom.ParsePx(dom.StyleValue(style, "left")),
			Top:    dom.ParsePx(dom.StyleValue(style, "top")),
			Width:  dom.ParsePx(dom.StyleValue(style, "width")),
			Height: dom.ParsePx(dom.StyleValue(style, "height")),
		}
	}
	display := el.display
	if v := dom.StyleValue(style, "display"); v != "" {
		display = v
	}
	opacity := el.opacity
	if v := dom.StyleValue(style, "opacity"); v != "" {
		if o, err := strconv.ParseFloat(v, 64); err == nil {
			opacity = o
		}
	}
	return dom.Node{
		Ref:      el.ref,
		Path:     el.path,
		Tag:      el.node.Data,
		Rect:     rect.Offset(-d.scrollX, -d.scrollY),
		Display:  display,
		Opacity:  opacity,
		Style:    style,
		HasStyle: hasStyle,
	}
}

func (d *Document) SetStyles(ctx context.Context, updates []dom.StyleUpdate) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range updates {
		el, ok := d.byRef[u.Ref]
		if !ok {
			return fmt.Errorf("memdom: unknown element %q", u.Ref)
		}
		style, _ := attr(el.node, "style")
		setAttr(el.node, "style", dom.FormatStyle(dom.MergeDecls(dom.ParseStyle(style), u.Decls...)))
		d.log = append(d.log, Mutation{Kind: MutSetStyles, Ref: u.Ref})
	}
	return nil
}

func (d *Document) ReplaceStyles(ctx context.Context, styles []dom.StyleText) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range styles {
		el, ok := d.byRef[s.Ref]
		if !ok {
			return fmt.Errorf("memdom: unknown element %q", s.Ref)
		}
		if s.Remove {
			removeAttr(el.node, "style")
		} else {
			setAttr(el.node, "style", s.Text)
		}
		d.log = append(d.log, Mutation{Kind: MutReplaceStyles, Ref: s.Ref})
	}
	return nil
}

func (d *Document) FlushLayout(ctx context.Context, refs []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.flushes++
	d.log = append(d.log, Mutation{Kind: MutFlush})
	return nil
}

func (d *Document) LockPage(ctx context.Context, height float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mergeBody(dom.Decl{Property: "height", Value: dom.Px(height)}, dom.Decl{Property: "overflow", Value: "hidden"})
	d.log = append(d.log, Mutation{Kind: MutLock, Ref: d.body.ref})
	return nil
}

func (d *Document) UnlockPage(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mergeBody(dom.Decl{Property: "height"}, dom.Decl{Property: "overflow"})
	d.log = append(d.log, Mutation{Kind: MutUnlock, Ref: d.body.ref})
	return nil
}

func (d *Document) mergeBody(decls ...dom.Decl) {
	style, _ := attr(d.body.node, "style")
	setAttr(d.body.node, "style", dom.FormatStyle(dom.MergeDecls(dom.ParseStyle(style), decls...)))
}

func (d *Document) ScrollTo(ctx context.Context, x, y float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scrollX, d.scrollY = x, y
	d.log = append(d.log, Mutation{Kind: MutScroll})
	return nil
}

func (d *Document) OnPointerDown(ctx context.Context, fn func(dom.PointerEvent)) (func(), error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.nextID
	d.nextID++
	d.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			delete(d.listeners, id)
			d.mu.Unlock()
		})
	}, nil
}

// Dispatch delivers a pointer-down at client (x, y) to every listener.
func (d *Document) Dispatch(clientX, clientY float64) {
	d.mu.Lock()
	ev := dom.PointerEvent{ClientX: clientX, ClientY: clientY, ScrollX: d.scrollX, ScrollY: d.scrollY}
	fns := make([]func(dom.PointerEvent), 0, len(d.listeners))
	for _, fn := range d.listeners {
		fns = append(fns, fn)
	}
	d.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// SetScroll moves the viewport without recording a mutation, as a user scroll would.
func (d *Document) SetScroll(x, y float64) {
	d.mu.Lock()
	d.scrollX, d.scrollY = x, y
	d.mu.Unlock()
}

func (d *Document) ListenerCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.listeners)
}

// Mutations returns a copy of the write log.
func (d *Document) Mutations() []Mutation {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Mutation, len(d.log))
	copy(out, d.log)
	return out
}

func (d *Document) Flushes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.flushes
}

// Style returns the current style attribute of ref and whether the
// attribute is present.
func (d *Document) Style(ref string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, ok := d.byRef[ref]
	if !ok {
		return "", false
	}
	return attr(el.node, "style")
}

// BodyStyle returns the body's style attribute.
func (d *Document) BodyStyle() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, _ := attr(d.body.node, "style")
	return s
}

// Find returns the snapshot of the first element matching selector.
func (d *Document) Find(selector string) (dom.Node, bool) {
	nodes, err := d.QueryAll(context.Background(), selector)
	if err != nil || len(nodes) == 0 {
		return dom.Node{}, false
	}
	return nodes[0], true
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

func floats(s string, n int) ([]float64, error) {
	fields := strings.Fields(s)
	if len(fields) != n {
		return nil, fmt.Errorf("expected %d numbers, got %q", n, s)
	}
	out := make([]float64, n)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
