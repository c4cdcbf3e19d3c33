package gravity

import (
	"context"
	"fmt"

	"github.com/bamdow/folio/internal/config"
	"github.com/bamdow/folio/internal/dom"
)

type Role int

const (
	RoleCollider Role = iota
	RoleDissipator
)

func (r Role) String() string {
	if r == RoleDissipator {
		return "dissipator"
	}
	return "collider"
}

// Tracked is an element the session mutates. Node.Style holds the inline
// style captured before any write; teardown puts it back verbatim.
type Tracked struct {
	Node dom.Node
	Role Role
}

// Snapshot is the classifier's view of the page at trigger time.
type Snapshot struct {
	Metrics     dom.Metrics
	Colliders   []Tracked
	Dissipators []Tracked
}

// Tracked returns colliders followed by dissipators.
func (s *Snapshot) Tracked() []Tracked {
	out := make([]Tracked, 0, len(s.Colliders)+len(s.Dissipators))
	out = append(out, s.Colliders...)
	return append(out, s.Dissipators...)
}

// Originals returns the captured style of every tracked element.
func (s *Snapshot) Originals() []dom.StyleText {
	tracked := s.Tracked()
	out := make([]dom.StyleText, len(tracked))
	for i, t := range tracked {
		out[i] = dom.StyleText{Ref: t.Node.Ref, Text: t.Node.Style, Remove: !t.Node.HasStyle}
	}
	return out
}

// Classify reads the page once and splits it into colliders and
// dissipators. It performs no writes and must run before any.
func Classify(ctx context.Context, doc dom.Document, cfg config.ClassifierConfig) (*Snapshot, error) {
	metrics, err := doc.Metrics(ctx)
	if err != nil {
		return nil, fmt.Errorf("read page metrics: %w", err)
	}

	var dissipators []dom.Node
	if cfg.DissipatorSelector != "" {
		dissipators, err = doc.QueryAll(ctx, cfg.DissipatorSelector)
		if err != nil {
			return nil, fmt.Errorf("query dissipators: %w", err)
		}
	}
	candidates, err := doc.QueryAll(ctx, cfg.ColliderSelector)
	if err != nil {
		return nil, fmt.Errorf("query colliders: %w", err)
	}

	snap := &Snapshot{Metrics: metrics}
	for _, n := range dissipators {
		snap.Dissipators = append(snap.Dissipators, Tracked{Node: n, Role: RoleDissipator})
	}
	for _, n := range filterColliders(candidates, dissipators, cfg.MinSize) {
		snap.Colliders = append(snap.Colliders, Tracked{Node: n, Role: RoleCollider})
	}
	return snap, nil
}

func filterColliders(candidates, dissipators []dom.Node, minSize float64) []dom.Node {
	excluded := make(map[string]bool, len(dissipators))
	for _, d := range dissipators {
		excluded[d.Ref] = true
	}

	visible := make([]dom.Node, 0, len(candidates))
	for _, n := range candidates {
		if !n.Visible(minSize) || excluded[n.Ref] {
			continue
		}
		visible = append(visible, n)
	}

	out := make([]dom.Node, 0, len(visible))
	for _, n := range visible {
		if !containsAny(n, visible) {
			out = append(out, n)
		}
	}
	return out
}

// containsAny reports whether n is an ancestor of any other node.
func containsAny(n dom.Node, nodes []dom.Node) bool {
	for _, other := range nodes {
		if n.Contains(other) {
			return true
		}
	}
	return false
}
