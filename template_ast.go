package orca

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/orcarun/orca/internal/cast"
)

// node is a piece of parsed template source. Rendering a node writes its
// output into w and reads variables from scope.
type node interface {
	render(w *strings.Builder, scope *renderScope) error
}

// renderScope is a chain of variable frames, innermost first, used so
// {{#each}} can shadow outer names without mutating the caller's Context.
type renderScope struct {
	frame  map[string]any
	parent *renderScope
}

func (s *renderScope) lookup(path string) (any, bool) {
	parts := strings.Split(path, ".")
	cur, ok := s.lookupName(parts[0])
	if !ok {
		return nil, false
	}
	for _, p := range parts[1:] {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func (s *renderScope) lookupName(name string) (any, bool) {
	for f := s; f != nil; f = f.parent {
		if v, ok := f.frame[name]; ok {
			return v, true
		}
	}
	return nil, false
}

func (s *renderScope) child(name string, value any) *renderScope {
	return &renderScope{frame: map[string]any{name: value}, parent: s}
}

func toDisplayString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// textNode is a literal run of source text.
type textNode struct{ text string }

func (n *textNode) render(w *strings.Builder, _ *renderScope) error {
	w.WriteString(n.text)
	return nil
}

// varNode substitutes a dotted variable path. A missing variable renders as
// empty string (§9 Open Question: no strict mode).
type varNode struct{ path string }

func (n *varNode) render(w *strings.Builder, scope *renderScope) error {
	v, _ := scope.lookup(n.path)
	w.WriteString(toDisplayString(v))
	return nil
}

// roleNode is a {{#system}}/{{#user}}/{{#assistant}} block. Its body renders
// as plain text first, then the whole result is JSON-escaped and wrapped in
// a chat-message object fragment, terminated with a trailing comma for the
// enclosing chatNode to trim.
type roleNode struct {
	role Role
	body []node
}

func (n *roleNode) render(w *strings.Builder, scope *renderScope) error {
	var inner strings.Builder
	if err := renderNodes(n.body, &inner, scope); err != nil {
		return err
	}
	escaped := cleanString(inner.String())
	fmt.Fprintf(w, `{"role":"%s","content":"%s"},`, n.role, escaped)
	return nil
}

// chatNode is a {{#chat}} block: it renders its body (a sequence of
// roleNodes) and wraps the result in a JSON array, dropping the trailing
// comma the last role fragment left behind.
type chatNode struct{ body []node }

func (n *chatNode) render(w *strings.Builder, scope *renderScope) error {
	var inner strings.Builder
	if err := renderNodes(n.body, &inner, scope); err != nil {
		return err
	}
	s := strings.TrimRight(strings.TrimSpace(inner.String()), ",")
	w.WriteByte('[')
	w.WriteString(s)
	w.WriteByte(']')
	return nil
}

// eachNode is a {{#each path}} loop. Each element is bound as "this" within
// the body scope; if the element is a map, its fields are also promoted
// into scope so {{field}} works directly.
type eachNode struct {
	path string
	body []node
}

func (n *eachNode) render(w *strings.Builder, scope *renderScope) error {
	v, ok := scope.lookup(n.path)
	if !ok {
		return nil
	}
	items, err := toSlice(v)
	if err != nil {
		return err
	}
	for _, item := range items {
		child := scope.child("this", item)
		if m, ok := item.(map[string]any); ok {
			for k, v := range m {
				child.frame[k] = v
			}
		}
		if err := renderNodes(n.body, w, child); err != nil {
			return err
		}
	}
	return nil
}

func toSlice(v any) ([]any, error) {
	switch t := v.(type) {
	case []any:
		return t, nil
	case []map[string]any:
		out := make([]any, len(t))
		for i, m := range t {
			out[i] = m
		}
		return out, nil
	default:
		if ss, ok := cast.ToStringSlice(v); ok {
			out := make([]any, len(ss))
			for i, s := range ss {
				out[i] = s
			}
			return out, nil
		}
		return nil, fmt.Errorf("%w: each requires a list value", ErrRender)
	}
}

// ifNode is an {{#if (eq a b)}}...{{else}}...{{/if}} conditional. Only the
// eq helper is supported, matching the grammar this runtime needs (§4.2);
// arguments are variable paths or quoted/numeric literals.
type ifNode struct {
	lhs, rhs   string
	thenBranch []node
	elseBranch []node
}

func (n *ifNode) render(w *strings.Builder, scope *renderScope) error {
	lv := resolveOperand(n.lhs, scope)
	rv := resolveOperand(n.rhs, scope)
	branch := n.elseBranch
	if valuesEqual(lv, rv) {
		branch = n.thenBranch
	}
	return renderNodes(branch, w, scope)
}

// valuesEqual compares two operands for the eq helper. When both sides
// convert to a number, they're compared numerically, so a context value of
// int 3 matches a literal "3" or "3.0" alike; otherwise they're compared as
// their display string.
func valuesEqual(lv, rv any) bool {
	lf, lok := cast.ToFloat64(lv)
	rf, rok := cast.ToFloat64(rv)
	if lok && rok {
		return lf == rf
	}
	return toDisplayString(lv) == toDisplayString(rv)
}

// resolveOperand resolves an `eq` argument: a quoted string literal, a
// number literal, or a variable path.
func resolveOperand(raw string, scope *renderScope) any {
	if len(raw) >= 2 && (raw[0] == '"' || raw[0] == '\'') && raw[len(raw)-1] == raw[0] {
		return raw[1 : len(raw)-1]
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	v, _ := scope.lookup(raw)
	return v
}

func renderNodes(nodes []node, w *strings.Builder, scope *renderScope) error {
	for _, n := range nodes {
		if err := n.render(w, scope); err != nil {
			return err
		}
	}
	return nil
}
