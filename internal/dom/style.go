package dom

import (
	"strconv"
	"strings"
)

// IdentityTransform is the pose every collider starts from and returns to.
const IdentityTransform = "translate(0, 0) rotate(0deg)"

// Px formats a pixel length.
func Px(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}

// Transform formats the per-frame pose of a collider relative to its
// pinned position.
func Transform(dx, dy, angle float64) string {
	return "translate(" + num(dx) + "px, " + num(dy) + "px) rotate(" + num(angle) + "rad)"
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// ParseStyle splits an inline style attribute into declarations.
// Later duplicates win, keeping the position of the first occurrence.
func ParseStyle(text string) []Decl {
	var decls []Decl
	for _, part := range splitDecls(text) {
		prop, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		value = strings.TrimSpace(value)
		if prop == "" {
			continue
		}
		decls = MergeDecls(decls, Decl{Property: prop, Value: value})
	}
	return decls
}

// splitDecls splits on the semicolons that end declarations, skipping
// those inside quotes or parentheses such as url("data:...;base64,...").
func splitDecls(text string) []string {
	var parts []string
	var quote byte
	depth, start := 0, 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(':
			depth++
		case c == ')' && depth > 0:
			depth--
		case c == ';' && depth == 0:
			parts = append(parts, text[start:i])
			start = i + 1
		}
	}
	return append(parts, text[start:])
}

// MergeDecls sets each of updates on decls the way el.style.prop = v does:
// an existing property keeps its slot, a new one is appended, and an empty
// value removes the property.
func MergeDecls(decls []Decl, updates ...Decl) []Decl {
	for _, u := range updates {
		idx := -1
		for i, d := range decls {
			if d.Property == u.Property {
				idx = i
				break
			}
		}
		switch {
		case u.Value == "" && idx >= 0:
			decls = append(decls[:idx], decls[idx+1:]...)
		case u.Value == "":
		case idx >= 0:
			decls[idx].Value = u.Value
		default:
			decls = append(decls, u)
		}
	}
	return decls
}

// FormatStyle serialises declarations the way browsers serialise cssText.
func FormatStyle(decls []Decl) string {
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		parts = append(parts, d.Property+": "+d.Value+";")
	}
	return strings.Join(parts, " ")
}

// StyleValue returns the value of prop in an inline style, or "".
func StyleValue(text, prop string) string {
	for _, d := range ParseStyle(text) {
		if d.Property == prop {
			return d.Value
		}
	}
	return ""
}

// ParsePx parses a "12.5px" length. Missing or malformed values yield 0.
func ParsePx(v string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "px"), 64)
	if err != nil {
		return 0
	}
	return f
}
