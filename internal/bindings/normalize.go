package bindings

import (
	"github.com/panekit/panekit/internal/elements"
)

// TargetKind tags the result of normalizing heterogeneous target input.
type TargetKind int

const (
	// TargetNone means the input resolved to nothing addressable.
	TargetNone TargetKind = iota
	// TargetKeys means the input resolved to logical pane keys.
	TargetKeys
	// TargetElements means the input resolved to element handles.
	TargetElements
)

// Targets is the canonical form of a navigation target: either an ordered
// key sequence or an ordered element sequence, never a mix.
type Targets struct {
	Kind     TargetKind
	Keys     []string
	Elements []elements.Element
}

// Normalize converts the input shapes callers are allowed to hand the
// navigation layer (a single key, a key sequence, a single element, or an
// element sequence) into one tagged canonical sequence. Empty strings and
// nil elements are dropped; input that resolves to nothing reports ok=false.
func Normalize(input any) (Targets, bool) {
	switch v := input.(type) {
	case string:
		if v == "" {
			return Targets{}, false
		}
		return Targets{Kind: TargetKeys, Keys: []string{v}}, true

	case []string:
		keys := make([]string, 0, len(v))
		for _, k := range v {
			if k != "" {
				keys = append(keys, k)
			}
		}
		if len(keys) == 0 {
			return Targets{}, false
		}
		return Targets{Kind: TargetKeys, Keys: keys}, true

	case elements.Element:
		if v == nil {
			return Targets{}, false
		}
		return Targets{Kind: TargetElements, Elements: []elements.Element{v}}, true

	case []elements.Element:
		els := make([]elements.Element, 0, len(v))
		for _, el := range v {
			if el != nil {
				els = append(els, el)
			}
		}
		if len(els) == 0 {
			return Targets{}, false
		}
		return Targets{Kind: TargetElements, Elements: els}, true

	default:
		return Targets{}, false
	}
}

// ResolveKeys flattens normalized targets into pane keys, translating
// element targets through the binding table. Elements bound to no key are
// skipped.
func (b *BindActive) ResolveKeys(targets Targets) []string {
	switch targets.Kind {
	case TargetKeys:
		return targets.Keys
	case TargetElements:
		keys := make([]string, 0, len(targets.Elements))
		for _, el := range targets.Elements {
			if key, ok := b.KeyOf(el.ID()); ok {
				keys = append(keys, key)
			}
		}
		return keys
	default:
		return nil
	}
}
