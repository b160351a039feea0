// Package state implements the activation-state store that backs pane
// navigation. An Observable tracks a set of string keys, each either active
// or inactive, enforces an activation policy (single-active, multi-active,
// must-have-one, none-allowed), and notifies subscribers of accepted
// transitions.
//
// The store is deliberately synchronous and single-owner: one Observable
// belongs to exactly one navigation group, and all writes happen on the
// owner's event loop. Callers that drive an Observable from multiple
// goroutines must serialize access themselves (see internal/nav).
package state

import (
	"sort"
)

// State is the tri-state result of reading a key. Keys that have never been
// written are Undefined, which is distinct from Inactive.
type State int

const (
	Undefined State = iota
	Inactive
	Active
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case Undefined:
		return "undefined"
	case Inactive:
		return "inactive"
	case Active:
		return "active"
	default:
		return "unknown"
	}
}

// Bool reports whether the state is Active.
func (s State) Bool() bool { return s == Active }

// stateOf converts a stored boolean into a State.
func stateOf(active bool) State {
	if active {
		return Active
	}
	return Inactive
}

// Options configures the activation policy of an Observable.
//
// With both options false (the default) the store behaves like a tab strip:
// exactly one key is active once any key has been activated, activating a
// key deactivates every other key, and deactivating the sole active key is
// rejected.
type Options struct {
	// MultipleActive allows any subset of keys to be active simultaneously
	// (accordion behavior). When false, activating a key cascades a
	// deactivation to every other tracked key.
	MultipleActive bool

	// NoneActive allows the store to reach zero active keys. When false,
	// a deactivation that would leave no key active is rejected.
	NoneActive bool
}

// Listener receives accepted state transitions. It is invoked synchronously
// from within Set, once per accepted transition, including cascade
// deactivations triggered by a single-active activation.
type Listener func(key string, active bool)

// ListenerID identifies a subscription for later removal.
type ListenerID int

// Lifecycle receives the outer-call-only markers that bracket an accepted
// top-level write. Cascade deactivations performed inside a single-active
// activation do not emit markers; they are part of the outer transition.
type Lifecycle interface {
	// Changing fires before the store mutates, only for top-level writes
	// that will not be no-ops.
	Changing(key string, active bool)
	// Changed fires after the store has mutated and all listeners have run.
	Changed(key string, active bool)
}

// Observable is a key→bool store with a pluggable activation policy and
// synchronous subscriber notification. The zero value is not usable; use New.
type Observable struct {
	opts      Options
	data      map[string]bool
	listeners []subscription
	nextID    ListenerID
	lifecycle Lifecycle
}

type subscription struct {
	id ListenerID
	fn Listener
}

// New creates an Observable with the given activation policy.
func New(opts Options) *Observable {
	return &Observable{
		opts: opts,
		data: make(map[string]bool),
	}
}

// SetLifecycle installs the lifecycle hook that brackets top-level writes.
// Passing nil removes the hook.
func (o *Observable) SetLifecycle(lc Lifecycle) {
	o.lifecycle = lc
}

// Get returns the current state of key without side effects. Keys never
// written return Undefined.
func (o *Observable) Get(key string) State {
	v, ok := o.data[key]
	if !ok {
		return Undefined
	}
	return stateOf(v)
}

// Keys returns every tracked key in sorted order.
func (o *Observable) Keys() []string {
	keys := make([]string, 0, len(o.data))
	for k := range o.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ActiveKeys returns every currently active key in sorted order.
func (o *Observable) ActiveKeys() []string {
	keys := make([]string, 0, len(o.data))
	for k, v := range o.data {
		if v {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of tracked keys.
func (o *Observable) Len() int { return len(o.data) }

// Set writes the desired activation state for key, subject to the
// configured policy, and returns the resulting state for key.
//
// Writes that match the current value are no-ops: no notification, no
// lifecycle markers. A deactivation that would leave zero active keys under
// the must-have-one policy is rejected; the store is unchanged, no
// notification fires, and the returned state reflects the still-active key.
func (o *Observable) Set(key string, active bool) State {
	return o.set(key, active, false)
}

// set is the two-mode write path. cascade marks internal deactivations
// triggered by a single-active activation: they notify listeners like any
// accepted transition but never emit lifecycle markers, and they bypass the
// must-have-one guard evaluation order concern by running after the newly
// activated key has been committed.
func (o *Observable) set(key string, active bool, cascade bool) State {
	cur, defined := o.data[key]
	if defined && cur == active {
		return stateOf(cur)
	}

	if !active && !o.opts.NoneActive {
		// Must-have-one guard: reject a deactivation that would leave
		// zero active keys. Rejected writes mutate nothing, notify
		// nobody, and emit no lifecycle markers. A never-defined key
		// escapes the guard; that quirk is pinned by tests and relied
		// on during initialization.
		actives := o.ActiveKeys()
		if defined && len(actives) == 1 && actives[0] == key {
			return stateOf(o.data[key])
		}
	}

	if !cascade && o.lifecycle != nil {
		o.lifecycle.Changing(key, active)
	}

	if active && !o.opts.MultipleActive {
		// Single-active activation: commit first, then cascade every
		// other tracked key to inactive, then announce the primary
		// transition. Idempotence filters keys already inactive.
		o.data[key] = true
		for _, other := range o.Keys() {
			if other != key {
				o.set(other, false, true)
			}
		}
		o.notify(key, true)
	} else {
		o.data[key] = active
		o.notify(key, active)
	}

	if !cascade && o.lifecycle != nil {
		o.lifecycle.Changed(key, active)
	}

	return stateOf(o.data[key])
}

// Subscribe registers a listener for accepted transitions and returns an
// identifier for Unsubscribe. Listeners run synchronously in subscription
// order.
func (o *Observable) Subscribe(fn Listener) ListenerID {
	o.nextID++
	o.listeners = append(o.listeners, subscription{id: o.nextID, fn: fn})
	return o.nextID
}

// Unsubscribe removes a previously registered listener. Unknown identifiers
// are ignored.
func (o *Observable) Unsubscribe(id ListenerID) {
	for i, sub := range o.listeners {
		if sub.id == id {
			o.listeners = append(o.listeners[:i], o.listeners[i+1:]...)
			return
		}
	}
}

// RemoveKey deletes the key's entry and reports whether one existed. No
// notification fires for the removal.
func (o *Observable) RemoveKey(key string) bool {
	if _, ok := o.data[key]; !ok {
		return false
	}
	delete(o.data, key)
	return true
}

// Notify re-emits the current state of key to all listeners without
// mutating the store. Unknown keys are ignored. Used to resynchronize
// visuals after layout changes.
func (o *Observable) Notify(key string) {
	v, ok := o.data[key]
	if !ok {
		return
	}
	o.notify(key, v)
}

// NotifyAll re-emits the current state of every tracked key, each as an
// independent notification, in sorted key order.
func (o *Observable) NotifyAll() {
	for _, k := range o.Keys() {
		o.notify(k, o.data[k])
	}
}

func (o *Observable) notify(key string, active bool) {
	// Copy so a listener that unsubscribes mid-notification cannot skew
	// iteration.
	subs := make([]subscription, len(o.listeners))
	copy(subs, o.listeners)
	for _, sub := range subs {
		sub.fn(key, active)
	}
}
