// Package dom describes the page surface the gravity core drives.
//
// A [Document] is whatever hosts the rendered page: a live Chrome tab
// (package roddom) or an in-memory fixture (package memdom). The core only
// reads element snapshots and writes inline style declarations through it,
// so the same session logic runs against both.
//
// Geometry conventions:
//
//   - [Node.Rect] is in client (viewport) coordinates, like getBoundingClientRect.
//   - Page coordinates are client coordinates plus the current scroll offset.
package dom

import (
	"context"
	"strings"
)

// Rect is an axis-aligned box.
type Rect struct {
	Left, Top, Width, Height float64
}

func (r Rect) CenterX() float64 { return r.Left + r.Width/2 }
func (r Rect) CenterY() float64 { return r.Top + r.Height/2 }

// Offset returns r moved by (dx, dy).
func (r Rect) Offset(dx, dy float64) Rect {
	return Rect{Left: r.Left + dx, Top: r.Top + dy, Width: r.Width, Height: r.Height}
}

// Point is a location in page coordinates.
type Point struct {
	X, Y float64
}

// Metrics are the page-level measurements read once per session.
type Metrics struct {
	ScrollX       float64
	ScrollY       float64
	ViewportWidth float64
	ScrollHeight  float64
}

// Node is a snapshot of one element taken at query time.
type Node struct {
	// Ref identifies the live element for later writes.
	Ref string
	// Path is the element's position in the tree ("0/2/1"), used for
	// ancestor tests across separate queries.
	Path    string
	Tag     string
	Rect    Rect
	Display string
	Opacity float64
	// Style is the verbatim inline style attribute.
	Style string
	// HasStyle is false when the element had no style attribute at all.
	HasStyle bool
}

// Contains reports whether n is a strict ancestor of other.
func (n Node) Contains(other Node) bool {
	if n.Path == "" || n.Path == other.Path {
		return false
	}
	return strings.HasPrefix(other.Path, n.Path+"/")
}

// Visible reports whether the node produces a usable body of at least
// minSize pixels on each side.
func (n Node) Visible(minSize float64) bool {
	if n.Rect.Width < minSize || n.Rect.Height < minSize {
		return false
	}
	if n.Display == "none" {
		return false
	}
	return n.Opacity != 0
}

// Decl is a single CSS declaration.
type Decl struct {
	Property string
	Value    string
}

// StyleUpdate merges declarations into one element's inline style, in order.
type StyleUpdate struct {
	Ref   string
	Decls []Decl
}

// StyleText replaces an element's style attribute verbatim. Remove drops
// the attribute instead.
type StyleText struct {
	Ref    string
	Text   string
	Remove bool
}

// PointerEvent is a pointer-down delivered by the host, in client coordinates
// with the scroll offset at the time of the event.
type PointerEvent struct {
	ClientX, ClientY float64
	ScrollX, ScrollY float64
}

// Page converts the event to page coordinates.
func (e PointerEvent) Page() Point {
	return Point{X: e.ClientX + e.ScrollX, Y: e.ClientY + e.ScrollY}
}

// Document is the page host. Implementations must apply each batch call
// in order and must not reorder declarations within a StyleUpdate.
type Document interface {
	Metrics(ctx context.Context) (Metrics, error)
	QueryAll(ctx context.Context, selector string) ([]Node, error)
	SetStyles(ctx context.Context, updates []StyleUpdate) error
	ReplaceStyles(ctx context.Context, styles []StyleText) error
	// FlushLayout forces a synchronous reflow so the next transition
	// starts from the current computed pose.
	FlushLayout(ctx context.Context, refs []string) error
	LockPage(ctx context.Context, height float64) error
	UnlockPage(ctx context.Context) error
	ScrollTo(ctx context.Context, x, y float64) error
	// OnPointerDown attaches fn as a window pointer-down listener and
	// returns a function that detaches it.
	OnPointerDown(ctx context.Context, fn func(PointerEvent)) (func(), error)
}
