// Package elements models the visual handles the binding layer drives.
// An Element is opaque to the state engine beyond its identity; the binding
// layer manipulates it only through class, attribute, and transition-signal
// operations. The concrete Node type keeps a class set and attribute map
// in memory and reports every mutation to an observer callback, which the
// navigation controller forwards to connected clients.
package elements

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Signal is a transition lifecycle event dispatched to an element.
type Signal string

const (
	SignalShow   Signal = "show"
	SignalShown  Signal = "shown"
	SignalHide   Signal = "hide"
	SignalHidden Signal = "hidden"
)

// MutationKind classifies a visual mutation applied to an element.
type MutationKind string

const (
	MutationClassAdded   MutationKind = "class-added"
	MutationClassRemoved MutationKind = "class-removed"
	MutationAttrSet      MutationKind = "attr-set"
)

// Mutation describes one visual mutation, in a form a remote renderer can
// replay.
type Mutation struct {
	Element string       `json:"element"`
	Kind    MutationKind `json:"kind"`
	Name    string       `json:"name"`
	Value   string       `json:"value,omitempty"`
}

// Element is the interface the binding layer drives. Implementations must
// be comparable by ID; everything else about the element stays opaque to
// the state engine.
type Element interface {
	// ID returns the element's stable identity.
	ID() string
	// Animated reports whether the element is an animated content pane,
	// entitled to the show/shown and hide/hidden transition sequence.
	Animated() bool

	HasClass(name string) bool
	AddClass(name string)
	RemoveClass(name string)

	// HasAttribute reports whether the element carries the attribute.
	// The binding layer only ever updates attributes an element already
	// opted into.
	HasAttribute(name string) bool
	Attribute(name string) (string, bool)
	SetAttribute(name, value string)

	// Dispatch delivers a transition signal to the element.
	Dispatch(sig Signal)
}

// Node is the in-memory Element implementation. Mutations and signals are
// reported to the optional observer callbacks; class and attribute state is
// retained so repeated applications stay idempotent.
type Node struct {
	id       string
	tag      string
	animated bool
	classes  []string
	attrs    map[string]string

	// OnMutation, if set, observes every class/attribute change.
	OnMutation func(Mutation)
	// OnSignal, if set, observes every dispatched transition signal.
	OnSignal func(id string, sig Signal)
}

// NewNode creates a bare element with the given identity and tag.
func NewNode(id, tag string) *Node {
	return &Node{
		id:    id,
		tag:   tag,
		attrs: make(map[string]string),
	}
}

// SetAnimated marks the node as an animated content pane.
func (n *Node) SetAnimated(animated bool) { n.animated = animated }

// ID returns the element identity.
func (n *Node) ID() string { return n.id }

// Tag returns the element's tag name, empty for synthetic nodes.
func (n *Node) Tag() string { return n.tag }

// Animated reports whether the node is an animated content pane.
func (n *Node) Animated() bool { return n.animated }

// HasClass reports whether the class is present.
func (n *Node) HasClass(name string) bool {
	for _, c := range n.classes {
		if c == name {
			return true
		}
	}
	return false
}

// AddClass adds the class if absent.
func (n *Node) AddClass(name string) {
	if n.HasClass(name) {
		return
	}
	n.classes = append(n.classes, name)
	n.observe(Mutation{Element: n.id, Kind: MutationClassAdded, Name: name})
}

// RemoveClass removes the class if present.
func (n *Node) RemoveClass(name string) {
	for i, c := range n.classes {
		if c == name {
			n.classes = append(n.classes[:i], n.classes[i+1:]...)
			n.observe(Mutation{Element: n.id, Kind: MutationClassRemoved, Name: name})
			return
		}
	}
}

// Classes returns a copy of the current class list in insertion order.
func (n *Node) Classes() []string {
	out := make([]string, len(n.classes))
	copy(out, n.classes)
	return out
}

// HasAttribute reports whether the attribute is present.
func (n *Node) HasAttribute(name string) bool {
	_, ok := n.attrs[name]
	return ok
}

// Attribute returns the attribute value and whether it is present.
func (n *Node) Attribute(name string) (string, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

// SetAttribute writes the attribute. Rewriting the current value reports
// no mutation.
func (n *Node) SetAttribute(name, value string) {
	if cur, ok := n.attrs[name]; ok && cur == value {
		return
	}
	n.attrs[name] = value
	n.observe(Mutation{Element: n.id, Kind: MutationAttrSet, Name: name, Value: value})
}

// Dispatch delivers a transition signal to the observer.
func (n *Node) Dispatch(sig Signal) {
	if n.OnSignal != nil {
		n.OnSignal(n.id, sig)
	}
}

func (n *Node) observe(m Mutation) {
	if n.OnMutation != nil {
		n.OnMutation(m)
	}
}

// ParseFragment builds a Node from the first element of an HTML fragment,
// capturing its tag, attributes, and class list. This is how manifest pane
// content opts into ARIA attributes: only attributes present on the
// fragment's root element are ever updated by the binding layer.
func ParseFragment(id, fragment string) (*Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), ctx)
	if err != nil {
		return nil, err
	}

	node := NewNode(id, "")
	for _, parsed := range nodes {
		if parsed.Type != html.ElementNode {
			continue
		}
		node.tag = parsed.Data
		for _, attr := range parsed.Attr {
			if attr.Key == "class" {
				for _, c := range strings.Fields(attr.Val) {
					if !node.HasClass(c) {
						node.classes = append(node.classes, c)
					}
				}
				continue
			}
			node.attrs[attr.Key] = attr.Val
		}
		break
	}
	return node, nil
}
