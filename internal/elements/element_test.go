package elements

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNode_Classes(t *testing.T) {
	n := NewNode("tab-a", "li")

	var mutations []Mutation
	n.OnMutation = func(m Mutation) { mutations = append(mutations, m) }

	n.AddClass("active")
	n.AddClass("active") // idempotent
	assert.True(t, n.HasClass("active"))
	assert.Len(t, mutations, 1)
	assert.Equal(t, MutationClassAdded, mutations[0].Kind)

	n.RemoveClass("active")
	assert.False(t, n.HasClass("active"))
	n.RemoveClass("active") // silent
	assert.Len(t, mutations, 2)
	assert.Equal(t, MutationClassRemoved, mutations[1].Kind)
}

func TestNode_Attributes(t *testing.T) {
	n := NewNode("tab-a", "li")

	var mutations []Mutation
	n.OnMutation = func(m Mutation) { mutations = append(mutations, m) }

	assert.False(t, n.HasAttribute("aria-selected"))

	n.SetAttribute("aria-selected", "true")
	assert.True(t, n.HasAttribute("aria-selected"))
	v, ok := n.Attribute("aria-selected")
	assert.True(t, ok)
	assert.Equal(t, "true", v)

	// Rewriting the same value reports nothing.
	n.SetAttribute("aria-selected", "true")
	assert.Len(t, mutations, 1)

	n.SetAttribute("aria-selected", "false")
	assert.Len(t, mutations, 2)
}

func TestNode_Dispatch(t *testing.T) {
	n := NewNode("pane-a", "section")

	var signals []Signal
	n.OnSignal = func(id string, sig Signal) {
		assert.Equal(t, "pane-a", id)
		signals = append(signals, sig)
	}

	n.Dispatch(SignalShow)
	n.Dispatch(SignalShown)
	assert.Equal(t, []Signal{SignalShow, SignalShown}, signals)

	// No observer installed is fine.
	bare := NewNode("pane-b", "section")
	bare.Dispatch(SignalHide)
}

func TestParseFragment(t *testing.T) {
	n, err := ParseFragment("pane-a",
		`<section class="pane collapse" role="tabpanel" aria-hidden="true">body</section>`)
	require.NoError(t, err)

	assert.Equal(t, "pane-a", n.ID())
	assert.Equal(t, "section", n.Tag())
	assert.True(t, n.HasClass("pane"))
	assert.True(t, n.HasClass("collapse"))
	assert.True(t, n.HasAttribute("role"))
	assert.True(t, n.HasAttribute("aria-hidden"))
	assert.False(t, n.HasAttribute("aria-selected"))
}

func TestParseFragment_SkipsLeadingText(t *testing.T) {
	n, err := ParseFragment("tab-a", "  \n<li class=\"tab\">Overview</li>")
	require.NoError(t, err)

	assert.Equal(t, "li", n.Tag())
	assert.Equal(t, []string{"tab"}, n.Classes())
}

func TestParseFragment_EmptyFragment(t *testing.T) {
	n, err := ParseFragment("x", "")
	require.NoError(t, err)

	// Synthetic node with no tag: still usable, opts into nothing.
	assert.Equal(t, "", n.Tag())
	assert.False(t, n.HasAttribute("aria-selected"))
}
