package bindings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panekit/panekit/internal/elements"
	"github.com/panekit/panekit/internal/schedule"
	"github.com/panekit/panekit/internal/state"
)

// newRecordedNode builds a node whose signals and mutations append into the
// shared logs, in dispatch order.
func newRecordedNode(id string, animated bool, log *[]string) *elements.Node {
	n := elements.NewNode(id, "div")
	n.SetAnimated(animated)
	n.OnSignal = func(id string, sig elements.Signal) {
		*log = append(*log, id+":"+string(sig))
	}
	n.OnMutation = func(m elements.Mutation) {
		*log = append(*log, m.Element+":"+string(m.Kind)+":"+m.Name)
	}
	return n
}

func newTestBinding(opts state.Options) *BindActive {
	return New(state.New(opts), schedule.NewImmediate(), Options{})
}

func TestBindActive_Bind(t *testing.T) {
	b := newTestBinding(state.Options{})
	el := elements.NewNode("e1", "li")

	assert.True(t, b.Bind("a", el))
	assert.True(t, b.Bind("a", el), "re-binding the same pair is a no-op")
	assert.Len(t, b.Bound("a"), 1)

	// Malformed calls are refused with a boolean, never a panic.
	assert.False(t, b.Bind("", el))
	assert.False(t, b.Bind("a", nil))

	// An element reflects exactly one key at a time.
	assert.False(t, b.Bind("b", el))

	key, ok := b.KeyOf("e1")
	assert.True(t, ok)
	assert.Equal(t, "a", key)
}

func TestBindActive_FanOutInBindOrder(t *testing.T) {
	var log []string
	b := newTestBinding(state.Options{})

	el1 := newRecordedNode("e1", false, &log)
	el2 := newRecordedNode("e2", false, &log)
	require.True(t, b.Bind("a", el1))
	require.True(t, b.Bind("a", el2))

	b.SetActive("a", true)

	// Both elements receive exactly one activation dispatch, in bind order.
	assert.Equal(t, []string{
		"e1:class-added:active",
		"e2:class-added:active",
	}, log)
}

func TestBindActive_AnimatedSignalSequence(t *testing.T) {
	var log []string
	b := newTestBinding(state.Options{NoneActive: true})

	pane := newRecordedNode("pane-a", true, &log)
	require.True(t, b.Bind("a", pane))

	b.SetActive("a", true)
	assert.Equal(t, []string{
		"pane-a:show",
		"pane-a:shown",
		"pane-a:class-added:active",
	}, log)

	log = nil
	b.SetActive("a", false)
	assert.Equal(t, []string{
		"pane-a:hide",
		"pane-a:hidden",
		"pane-a:class-removed:active",
	}, log)
}

func TestBindActive_ARIAOnlyWhenOptedIn(t *testing.T) {
	b := newTestBinding(state.Options{})

	tab := elements.NewNode("tab-a", "li")
	tab.SetAttribute("aria-selected", "false")
	pane, err := elements.ParseFragment("pane-a",
		`<section aria-hidden="true">x</section>`)
	require.NoError(t, err)
	plain := elements.NewNode("plain-a", "span")

	require.True(t, b.Bind("a", tab))
	require.True(t, b.Bind("a", pane))
	require.True(t, b.Bind("a", plain))

	b.SetActive("a", true)

	v, _ := tab.Attribute("aria-selected")
	assert.Equal(t, "true", v)
	v, _ = pane.Attribute("aria-hidden")
	assert.Equal(t, "false", v)
	// The element that opted into nothing gains no attributes.
	assert.False(t, plain.HasAttribute("aria-selected"))
	assert.False(t, plain.HasAttribute("aria-hidden"))
}

func TestBindActive_CascadeUpdatesOtherPanes(t *testing.T) {
	var log []string
	b := newTestBinding(state.Options{})

	elA := newRecordedNode("e-a", false, &log)
	elB := newRecordedNode("e-b", false, &log)
	require.True(t, b.Bind("a", elA))
	require.True(t, b.Bind("b", elB))

	b.SetActive("a", true)
	log = nil
	b.SetActive("b", true)

	// Activating b collapses a's visuals before b's activation lands.
	assert.Equal(t, []string{
		"e-a:class-removed:active",
		"e-b:class-added:active",
	}, log)
}

func TestBindActive_UnbindStopsEffects(t *testing.T) {
	var log []string
	b := newTestBinding(state.Options{NoneActive: true})

	el := newRecordedNode("e1", false, &log)
	require.True(t, b.Bind("a", el))

	b.SetActive("a", true)
	require.Len(t, log, 1)

	b.Unbind("a", el)
	b.SetActive("a", false)
	assert.Len(t, log, 1, "unbound element receives no further effects")

	_, ok := b.KeyOf("e1")
	assert.False(t, ok)

	// Unbinding again, or unbinding strangers, stays silent.
	b.Unbind("a", el)
	b.Unbind("a", nil)
}

func TestBindActive_UnbindCancelsPendingMarker(t *testing.T) {
	sched := schedule.NewTimerScheduler()
	defer sched.Stop()

	obs := state.New(state.Options{NoneActive: true})
	b := New(obs, sched, Options{MarkerDelay: 30 * time.Millisecond})

	el := elements.NewNode("e1", "li")
	require.True(t, b.Bind("a", el))

	b.SetActive("a", true)
	require.Greater(t, sched.Pending(), 0)

	// Unbind before the deferred marker fires: the continuation is
	// cancelled, so the class never lands.
	b.Unbind("a", el)
	assert.Equal(t, 0, sched.Pending())

	time.Sleep(80 * time.Millisecond)
	assert.False(t, el.HasClass(ActiveClass))
}

func TestBindActive_RemoveKeyAtomicity(t *testing.T) {
	b := newTestBinding(state.Options{})
	el := elements.NewNode("e1", "li")

	// No binding row: removal fails before the Observable is touched.
	b.SetActive("orphan", true)
	assert.False(t, b.RemoveKey("orphan"))
	assert.Equal(t, state.Active, b.IsActive("orphan"))

	// Bound but never written: the Observable refuses, the row stays.
	require.True(t, b.Bind("a", el))
	assert.False(t, b.RemoveKey("a"))
	assert.Len(t, b.Bound("a"), 1)

	// Bound and written: both sides vanish together.
	b.SetActive("a", true)
	assert.True(t, b.RemoveKey("a"))
	assert.Empty(t, b.Bound("a"))
	assert.Equal(t, state.Undefined, b.IsActive("a"))
	_, ok := b.KeyOf("e1")
	assert.False(t, ok)
}

func TestBindActive_Toggle(t *testing.T) {
	b := newTestBinding(state.Options{NoneActive: true})

	// Toggling a never-seen key activates it.
	assert.Equal(t, state.Active, b.Toggle("a"))
	assert.Equal(t, state.Inactive, b.Toggle("a"))
	assert.Equal(t, state.Active, b.Toggle("a"))
}

func TestBindActive_MustHaveOneThroughWrapper(t *testing.T) {
	b := newTestBinding(state.Options{})

	b.SetActive("a", true)
	assert.Equal(t, state.Active, b.SetActive("a", false))
	assert.Equal(t, state.Active, b.IsActive("a"))
}

func TestBindActive_Resync(t *testing.T) {
	var log []string
	b := newTestBinding(state.Options{})

	el := newRecordedNode("e1", false, &log)
	require.True(t, b.Bind("a", el))
	b.SetActive("a", true)
	log = nil

	b.Resync()
	// The re-emitted activation re-applies idempotent visuals: the class
	// is already present, so only opt-in attributes could move, and none
	// are present here.
	assert.Empty(t, log)
	assert.True(t, el.HasClass(ActiveClass))
}

func TestBindActive_Close(t *testing.T) {
	var log []string
	obs := state.New(state.Options{NoneActive: true})
	b := New(obs, schedule.NewImmediate(), Options{})

	el := newRecordedNode("e1", false, &log)
	require.True(t, b.Bind("a", el))

	b.Close()
	obs.Set("a", true)
	assert.Empty(t, log, "closed binding layer reacts to nothing")
}
