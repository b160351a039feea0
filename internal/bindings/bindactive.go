// Package bindings maps logical pane keys onto the visual elements that
// must reflect them. A BindActive wraps one state.Observable, keeps a
// key→ordered-element table, and replays every accepted state transition
// onto the bound elements as visual side effects: transition signals,
// a deferred active-class marker, and opt-in ARIA attribute updates.
package bindings

import (
	"time"

	"github.com/panekit/panekit/internal/elements"
	"github.com/panekit/panekit/internal/schedule"
	"github.com/panekit/panekit/internal/state"
)

// ActiveClass is the class marker toggled on bound elements.
const ActiveClass = "active"

// DefaultMarkerDelay is roughly one frame: enough for a CSS transition to
// begin from the pre-toggle state instead of racing the style engine.
const DefaultMarkerDelay = 17 * time.Millisecond

// DefaultTransition is the default expand/collapse duration.
const DefaultTransition = 150 * time.Millisecond

// Options tunes the visual-effect timing of a BindActive.
type Options struct {
	// MarkerDelay is the deferred-tick delay before the active class is
	// toggled. Zero means DefaultMarkerDelay.
	MarkerDelay time.Duration
	// Transition is the expand/collapse duration; the shown/hidden signal
	// fires when it elapses. Zero means DefaultTransition.
	Transition time.Duration
}

// BindActive owns the binding table for one navigation group. All methods
// must be called from the group's owning goroutine, same as the Observable
// it wraps.
type BindActive struct {
	obs   *state.Observable
	sched schedule.Scheduler
	opts  Options

	bound   map[string][]elements.Element
	keyByEl map[string]string
	subID   state.ListenerID
}

// New wraps obs and installs the single internal subscription that fans
// accepted transitions out to bound elements.
func New(obs *state.Observable, sched schedule.Scheduler, opts Options) *BindActive {
	if opts.MarkerDelay == 0 {
		opts.MarkerDelay = DefaultMarkerDelay
	}
	if opts.Transition == 0 {
		opts.Transition = DefaultTransition
	}
	b := &BindActive{
		obs:     obs,
		sched:   sched,
		opts:    opts,
		bound:   make(map[string][]elements.Element),
		keyByEl: make(map[string]string),
	}
	b.subID = obs.Subscribe(b.onTransition)
	return b
}

// Observable returns the wrapped store.
func (b *BindActive) Observable() *state.Observable { return b.obs }

// Close removes the internal subscription and cancels pending effects.
func (b *BindActive) Close() {
	b.obs.Unsubscribe(b.subID)
	for key := range b.bound {
		b.sched.CancelPane(key)
	}
}

// Bind registers el under key. Binding the same element twice under the
// same key is a no-op. Returns false for a malformed call (empty key or
// nil element); an element already bound to a different key is also
// refused, since an element reflects exactly one key at a time.
func (b *BindActive) Bind(key string, el elements.Element) bool {
	if key == "" || el == nil {
		return false
	}
	if owner, ok := b.keyByEl[el.ID()]; ok {
		return owner == key
	}
	b.bound[key] = append(b.bound[key], el)
	b.keyByEl[el.ID()] = key
	return true
}

// Unbind removes el from key's bound set and cancels any pending deferred
// effect for the pair. Unbinding an element that was never bound is silent.
func (b *BindActive) Unbind(key string, el elements.Element) {
	if el == nil {
		return
	}
	set := b.bound[key]
	for i, bound := range set {
		if bound.ID() == el.ID() {
			b.bound[key] = append(set[:i], set[i+1:]...)
			delete(b.keyByEl, el.ID())
			b.sched.CancelElement(key, el.ID())
			if len(b.bound[key]) == 0 {
				delete(b.bound, key)
			}
			return
		}
	}
}

// Bound returns the elements bound to key, in binding order.
func (b *BindActive) Bound(key string) []elements.Element {
	set := b.bound[key]
	out := make([]elements.Element, len(set))
	copy(out, set)
	return out
}

// KeyOf resolves an element identity back to the key it is bound to.
func (b *BindActive) KeyOf(elementID string) (string, bool) {
	key, ok := b.keyByEl[elementID]
	return key, ok
}

// Keys returns every key present in the binding table.
func (b *BindActive) Keys() []string {
	keys := make([]string, 0, len(b.bound))
	for k := range b.bound {
		keys = append(keys, k)
	}
	return keys
}

// RemoveKey deletes key from both the Observable and the binding table.
// The two never diverge: an absent binding row fails the removal before
// the Observable is touched, and an absent Observable entry leaves the
// binding row in place.
func (b *BindActive) RemoveKey(key string) bool {
	set, ok := b.bound[key]
	if !ok {
		return false
	}
	if !b.obs.RemoveKey(key) {
		return false
	}
	for _, el := range set {
		delete(b.keyByEl, el.ID())
	}
	delete(b.bound, key)
	b.sched.CancelPane(key)
	return true
}

// IsActive returns the key's current state; unknown keys are Undefined.
func (b *BindActive) IsActive(key string) state.State {
	return b.obs.Get(key)
}

// SetActive writes the desired state through the policy-enforcing store.
func (b *BindActive) SetActive(key string, active bool) state.State {
	return b.obs.Set(key, active)
}

// Toggle flips the key's current state. A never-seen key reads as not
// active, so toggling it activates it.
func (b *BindActive) Toggle(key string) state.State {
	return b.obs.Set(key, !b.obs.Get(key).Bool())
}

// Resync re-emits the current state of every tracked key so bound elements
// can be rebuilt after layout changes.
func (b *BindActive) Resync() {
	b.obs.NotifyAll()
}

// onTransition is the single internal subscription: it applies the visual
// procedure to every element bound to the transitioned key, in bind order.
func (b *BindActive) onTransition(key string, active bool) {
	for _, el := range b.bound[key] {
		if active {
			b.activate(key, el)
		} else {
			b.deactivate(key, el)
		}
	}
}

func (b *BindActive) activate(key string, el elements.Element) {
	if el.Animated() {
		el.Dispatch(elements.SignalShow)
		b.sched.After(
			schedule.TaskKey{Pane: key, Element: el.ID(), Slot: schedule.SlotTransition},
			b.opts.Transition,
			func() { el.Dispatch(elements.SignalShown) },
		)
	}
	b.sched.After(
		schedule.TaskKey{Pane: key, Element: el.ID(), Slot: schedule.SlotMarker},
		b.opts.MarkerDelay,
		func() { el.AddClass(ActiveClass) },
	)
	b.applyARIA(el, true)
}

func (b *BindActive) deactivate(key string, el elements.Element) {
	if el.Animated() {
		el.Dispatch(elements.SignalHide)
		b.sched.After(
			schedule.TaskKey{Pane: key, Element: el.ID(), Slot: schedule.SlotTransition},
			b.opts.Transition,
			func() { el.Dispatch(elements.SignalHidden) },
		)
	}
	b.sched.After(
		schedule.TaskKey{Pane: key, Element: el.ID(), Slot: schedule.SlotMarker},
		b.opts.MarkerDelay,
		func() { el.RemoveClass(ActiveClass) },
	)
	b.applyARIA(el, false)
}

// applyARIA updates selection and visibility attributes, but only on
// elements that already carry them. The binding layer never introduces
// attributes an element did not opt into.
func (b *BindActive) applyARIA(el elements.Element, active bool) {
	if el.HasAttribute("aria-selected") {
		el.SetAttribute("aria-selected", boolString(active))
	}
	if el.HasAttribute("aria-hidden") {
		el.SetAttribute("aria-hidden", boolString(!active))
	}
}

func boolString(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
