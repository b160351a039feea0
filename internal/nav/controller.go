// Package nav implements the navigation controller: the single consumer of
// the state engine. It owns one policy-configured store and binding layer
// per navigation group, translates client interactions into state writes,
// and forwards the resulting visual mutations to connected clients.
//
// The controller serializes all engine access behind its own mutex; the
// engine itself is single-owner by design, and this is its event loop.
package nav

import (
	"context"
	"sync"
	"time"

	"github.com/panekit/panekit/internal/bindings"
	"github.com/panekit/panekit/internal/elements"
	"github.com/panekit/panekit/internal/logging"
	"github.com/panekit/panekit/internal/manifest"
	"github.com/panekit/panekit/internal/registry"
	"github.com/panekit/panekit/internal/schedule"
	"github.com/panekit/panekit/internal/state"
)

// Update is one event the controller publishes to clients. Mutations and
// signals replay visual effects; lifecycle updates bracket top-level
// transitions so clients can batch reactions.
type Update struct {
	Type      string             `json:"type"` // "mutation", "signal", "lifecycle", "snapshot"
	Group     string             `json:"group,omitempty"`
	Key       string             `json:"key,omitempty"`
	Active    bool               `json:"active,omitempty"`
	Phase     string             `json:"phase,omitempty"` // "change" or "changed"
	Element   string             `json:"element,omitempty"`
	Signal    string             `json:"signal,omitempty"`
	Mutation  *elements.Mutation `json:"mutation,omitempty"`
	Snapshot  map[string]bool    `json:"snapshot,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// Sink receives controller updates for delivery to clients.
type Sink interface {
	Publish(update Update)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(update Update)

// Publish implements Sink.
func (f SinkFunc) Publish(update Update) { f(update) }

// Interaction is a client request against the navigation state. Target is
// either a pane key or an element identity, per Kind.
type Interaction struct {
	Action string `json:"action"` // "activate", "deactivate", "toggle"
	Kind   string `json:"kind"`   // "key" or "element"
	Target string `json:"target"`
}

// Options configures the controller.
type Options struct {
	// DefaultMode applies to manifest groups that omit their mode.
	DefaultMode manifest.Mode
	// MarkerDelay overrides the deferred active-marker delay.
	MarkerDelay time.Duration
	// Transition is the fallback expand/collapse duration for groups
	// without transition_ms.
	Transition time.Duration
}

// Controller drives every navigation group of one engine instance.
type Controller struct {
	mu       sync.Mutex
	logger   logging.Logger
	sched    schedule.Scheduler
	registry *registry.PaneRegistry
	sink     Sink
	opts     Options

	groups map[string]*group
	// keyGroup resolves a pane key to its owning group.
	keyGroup map[string]string
}

type group struct {
	name    string
	mode    manifest.Mode
	obs     *state.Observable
	binding *bindings.BindActive
	// nodes holds the visual elements per pane, tab first, in bind order.
	nodes map[string][]*elements.Node
}

// lifecycleSink publishes the change/changed markers for one group.
type lifecycleSink struct {
	c     *Controller
	group string
}

func (l lifecycleSink) Changing(key string, active bool) {
	l.c.publish(Update{Type: "lifecycle", Phase: "change", Group: l.group, Key: key, Active: active})
}

func (l lifecycleSink) Changed(key string, active bool) {
	l.c.publish(Update{Type: "lifecycle", Phase: "changed", Group: l.group, Key: key, Active: active})
}

// New creates a controller. The sink may be nil, in which case updates are
// dropped (useful for headless use of the engine).
func New(logger logging.Logger, sched schedule.Scheduler, reg *registry.PaneRegistry, sink Sink, opts Options) *Controller {
	if opts.Transition == 0 {
		opts.Transition = bindings.DefaultTransition
	}
	return &Controller{
		logger:   logger.WithComponent("nav"),
		sched:    sched,
		registry: reg,
		sink:     sink,
		opts:     opts,
		groups:   make(map[string]*group),
		keyGroup: make(map[string]string),
	}
}

// ApplyManifest reconciles the controller against a manifest: new panes are
// built and bound, vanished panes are removed, surviving panes keep their
// activation state. Safe to call repeatedly; the watcher calls it on every
// manifest change.
func (c *Controller) ApplyManifest(ctx context.Context, m *manifest.Manifest) {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[string]bool)
	for i := range m.Groups {
		spec := &m.Groups[i]
		c.applyGroup(ctx, spec)
		for _, pane := range spec.Panes {
			seen[pane.Key] = true
		}
	}

	// Drop panes that vanished from the manifest.
	for key, groupName := range c.keyGroup {
		if !seen[key] {
			c.removePane(ctx, groupName, key)
		}
	}

	// Drop groups that vanished entirely.
	for name, g := range c.groups {
		if _, ok := m.Group(name); !ok {
			g.binding.Close()
			delete(c.groups, name)
			c.logger.Info(ctx, "group removed", "group", name)
		}
	}
}

func (c *Controller) applyGroup(ctx context.Context, spec *manifest.Group) {
	mode := spec.EffectiveMode(c.opts.DefaultMode)

	g, ok := c.groups[spec.Name]
	if !ok {
		transition := c.opts.Transition
		if spec.TransitionMs > 0 {
			transition = time.Duration(spec.TransitionMs) * time.Millisecond
		}
		obs := state.New(mode.Policy())
		obs.SetLifecycle(lifecycleSink{c: c, group: spec.Name})
		g = &group{
			name: spec.Name,
			mode: mode,
			obs:  obs,
			binding: bindings.New(obs, c.sched, bindings.Options{
				MarkerDelay: c.opts.MarkerDelay,
				Transition:  transition,
			}),
			nodes: make(map[string][]*elements.Node),
		}
		c.groups[spec.Name] = g
		c.logger.Info(ctx, "group created", "group", spec.Name, "mode", string(mode))
	} else if g.mode != mode {
		c.rebuildGroup(ctx, g, spec, mode)
	}

	var initial []string
	for _, pane := range spec.Panes {
		if _, bound := g.nodes[pane.Key]; !bound {
			c.bindPane(ctx, g, pane)
			if pane.Active {
				initial = append(initial, pane.Key)
			}
		}
		c.registry.Register(&registry.PaneInfo{
			Key:      pane.Key,
			Title:    pane.Title,
			Group:    spec.Name,
			Content:  pane.Content,
			Animated: pane.Animated,
			Active:   g.obs.Get(pane.Key).Bool(),
			LastMod:  time.Now(),
		})
	}

	for _, key := range initial {
		g.obs.Set(key, true)
	}

	// A tab strip with nothing marked active starts on its first pane.
	if g.mode == manifest.ModeTabs && len(g.obs.ActiveKeys()) == 0 && len(spec.Panes) > 0 {
		g.obs.Set(spec.Panes[0].Key, true)
	}
}

// rebuildGroup swaps a group's store for one enforcing the new mode's
// policy. Bound elements carry over as-is; active keys are replayed
// through the new store, so a narrowing policy (accordion to tabs)
// cascades the surplus away while a widening one keeps everything.
func (c *Controller) rebuildGroup(ctx context.Context, g *group, spec *manifest.Group, mode manifest.Mode) {
	actives := g.obs.ActiveKeys()
	g.binding.Close()

	transition := c.opts.Transition
	if spec.TransitionMs > 0 {
		transition = time.Duration(spec.TransitionMs) * time.Millisecond
	}
	obs := state.New(mode.Policy())
	obs.SetLifecycle(lifecycleSink{c: c, group: g.name})
	g.obs = obs
	g.binding = bindings.New(obs, c.sched, bindings.Options{
		MarkerDelay: c.opts.MarkerDelay,
		Transition:  transition,
	})
	g.mode = mode

	for key, nodes := range g.nodes {
		for _, node := range nodes {
			g.binding.Bind(key, node)
		}
	}
	for _, key := range actives {
		g.obs.Set(key, true)
	}
	c.logger.Info(ctx, "group policy changed", "group", g.name, "mode", string(mode))
}

// bindPane builds the pane's visual elements and binds them. The tab
// fragment binds first so it receives effects before the content pane.
func (c *Controller) bindPane(ctx context.Context, g *group, pane manifest.Pane) {
	var nodes []*elements.Node

	if pane.Tab != "" {
		tab, err := elements.ParseFragment("tab-"+pane.Key, pane.Tab)
		if err != nil {
			c.logger.Warn(ctx, err, "unparseable tab fragment", "key", pane.Key)
		} else {
			nodes = append(nodes, tab)
		}
	}

	content, err := elements.ParseFragment("pane-"+pane.Key, pane.Content)
	if err != nil {
		c.logger.Warn(ctx, err, "unparseable content fragment", "key", pane.Key)
	} else {
		content.SetAnimated(pane.Animated)
		nodes = append(nodes, content)
	}

	for _, node := range nodes {
		node.OnMutation = func(m elements.Mutation) {
			c.publish(Update{Type: "mutation", Group: g.name, Mutation: &m, Element: m.Element})
		}
		node.OnSignal = func(id string, sig elements.Signal) {
			c.publish(Update{Type: "signal", Group: g.name, Element: id, Signal: string(sig)})
		}
		g.binding.Bind(pane.Key, node)
	}

	g.nodes[pane.Key] = nodes
	c.keyGroup[pane.Key] = g.name
}

func (c *Controller) removePane(ctx context.Context, groupName, key string) {
	g, ok := c.groups[groupName]
	if !ok {
		return
	}
	if !g.binding.RemoveKey(key) {
		// A pane that never reached the store has no Observable entry;
		// unbind its elements directly so the binding table still clears.
		for _, node := range g.nodes[key] {
			g.binding.Unbind(key, node)
		}
	}
	delete(g.nodes, key)
	delete(c.keyGroup, key)
	c.registry.Remove(key)
	c.logger.Info(ctx, "pane removed", "group", groupName, "key", key)
}

// RemovePane removes a single pane by key, reporting whether it existed.
func (c *Controller) RemovePane(ctx context.Context, key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	groupName, ok := c.keyGroup[key]
	if !ok {
		return false
	}
	c.removePane(ctx, groupName, key)
	return true
}

// Activate sets the pane active, subject to its group's policy.
func (c *Controller) Activate(key string) bool { return c.write(key, func(g *group) { g.obs.Set(key, true) }) }

// Deactivate sets the pane inactive, subject to its group's policy.
func (c *Controller) Deactivate(key string) bool {
	return c.write(key, func(g *group) { g.obs.Set(key, false) })
}

// Toggle flips the pane's state, subject to its group's policy.
func (c *Controller) Toggle(key string) bool {
	return c.write(key, func(g *group) { g.binding.Toggle(key) })
}

func (c *Controller) write(key string, fn func(g *group)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	groupName, ok := c.keyGroup[key]
	if !ok {
		return false
	}
	g := c.groups[groupName]
	fn(g)
	c.syncRegistry(g)
	return true
}

// HandleInteraction resolves a client interaction to a pane key and applies
// the requested action. Unknown targets and actions report false.
func (c *Controller) HandleInteraction(ctx context.Context, in Interaction) bool {
	key := in.Target
	if in.Kind == "element" {
		c.mu.Lock()
		key = ""
		for _, g := range c.groups {
			if k, ok := g.binding.KeyOf(in.Target); ok {
				key = k
				break
			}
		}
		c.mu.Unlock()
		if key == "" {
			c.logger.Debug(ctx, "interaction for unbound element", "element", in.Target)
			return false
		}
	}

	targets, ok := bindings.Normalize(key)
	if !ok {
		return false
	}

	var applied bool
	for _, k := range targets.Keys {
		switch in.Action {
		case "activate":
			applied = c.Activate(k) || applied
		case "deactivate":
			applied = c.Deactivate(k) || applied
		case "toggle":
			applied = c.Toggle(k) || applied
		default:
			c.logger.Debug(ctx, "unknown interaction action", "action", in.Action)
			return false
		}
	}
	return applied
}

// Resync replays the current state of every group so clients can rebuild
// their visuals, e.g. after a window resize or reconnect.
func (c *Controller) Resync() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, g := range c.groups {
		g.binding.Resync()
	}
	c.publishSnapshotLocked()
}

// Snapshot returns the activation state of every known pane.
func (c *Controller) Snapshot() map[string]bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() map[string]bool {
	snap := make(map[string]bool)
	for key, groupName := range c.keyGroup {
		snap[key] = c.groups[groupName].obs.Get(key).Bool()
	}
	return snap
}

func (c *Controller) publishSnapshotLocked() {
	c.publish(Update{Type: "snapshot", Snapshot: c.snapshotLocked()})
}

// IsActive reports the pane's current state; unknown keys are Undefined.
func (c *Controller) IsActive(key string) state.State {
	c.mu.Lock()
	defer c.mu.Unlock()

	groupName, ok := c.keyGroup[key]
	if !ok {
		return state.Undefined
	}
	return c.groups[groupName].obs.Get(key)
}

// Close tears down every group's binding layer.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, g := range c.groups {
		g.binding.Close()
	}
	c.groups = make(map[string]*group)
	c.keyGroup = make(map[string]string)
}

// syncRegistry mirrors activation state into the pane registry, which the
// list command and state endpoint read. The registry applies the update
// under its own lock.
func (c *Controller) syncRegistry(g *group) {
	for key := range g.nodes {
		c.registry.SetActive(key, g.obs.Get(key).Bool())
	}
}

func (c *Controller) publish(update Update) {
	if c.sink == nil {
		return
	}
	update.Timestamp = time.Now()
	c.sink.Publish(update)
}
