package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaneRegistry(t *testing.T) {
	registry := NewPaneRegistry()

	assert.NotNil(t, registry)
	assert.Equal(t, 0, registry.Count())
}

func TestPaneRegistry_Register(t *testing.T) {
	registry := NewPaneRegistry()

	pane := &PaneInfo{
		Key:      "overview",
		Title:    "Overview",
		Group:    "main",
		Content:  `<section role="tabpanel">hello</section>`,
		Animated: true,
	}

	registry.Register(pane)

	retrieved, exists := registry.Get("overview")
	assert.True(t, exists)
	assert.Equal(t, pane, retrieved)
	assert.Equal(t, 1, registry.Count())

	all := registry.GetAll()
	assert.Len(t, all, 1)
	assert.Equal(t, pane, all["overview"])
}

func TestPaneRegistry_Update(t *testing.T) {
	registry := NewPaneRegistry()

	registry.Register(&PaneInfo{Key: "overview", Title: "Overview", Group: "main"})
	updated := &PaneInfo{Key: "overview", Title: "Project overview", Group: "main"}
	registry.Register(updated)

	retrieved, exists := registry.Get("overview")
	require.True(t, exists)
	assert.Equal(t, updated, retrieved)
	assert.Equal(t, 1, registry.Count())
}

func TestPaneRegistry_GetGroup(t *testing.T) {
	registry := NewPaneRegistry()

	registry.Register(&PaneInfo{Key: "a", Group: "main"})
	registry.Register(&PaneInfo{Key: "b", Group: "main"})
	registry.Register(&PaneInfo{Key: "c", Group: "sidebar"})

	assert.Len(t, registry.GetGroup("main"), 2)
	assert.Len(t, registry.GetGroup("sidebar"), 1)
	assert.Empty(t, registry.GetGroup("missing"))
}

func TestPaneRegistry_Remove(t *testing.T) {
	registry := NewPaneRegistry()

	registry.Register(&PaneInfo{Key: "overview", Group: "main"})
	registry.Remove("overview")

	_, exists := registry.Get("overview")
	assert.False(t, exists)
	assert.Equal(t, 0, registry.Count())

	// Removing an unknown pane is silent.
	registry.Remove("missing")
}

func TestPaneRegistry_SetActive(t *testing.T) {
	registry := NewPaneRegistry()
	registry.Register(&PaneInfo{Key: "overview", Group: "main"})

	events := registry.Watch()
	defer registry.UnWatch(events)

	require.True(t, registry.SetActive("overview", true))
	retrieved, exists := registry.Get("overview")
	require.True(t, exists)
	assert.True(t, retrieved.Active)
	assert.False(t, retrieved.LastMod.IsZero())

	select {
	case event := <-events:
		assert.Equal(t, EventTypeUpdated, event.Type)
		assert.Equal(t, "overview", event.Pane.Key)
	case <-time.After(time.Second):
		t.Fatal("missing updated event")
	}

	// Writing the state the pane already has emits nothing.
	require.True(t, registry.SetActive("overview", true))
	select {
	case event := <-events:
		t.Fatalf("unexpected %s event", event.Type)
	case <-time.After(50 * time.Millisecond):
	}

	assert.False(t, registry.SetActive("missing", true))
}

func TestPaneRegistry_Watch(t *testing.T) {
	registry := NewPaneRegistry()

	events := registry.Watch()
	defer registry.UnWatch(events)

	registry.Register(&PaneInfo{Key: "overview", Group: "main"})
	registry.Register(&PaneInfo{Key: "overview", Group: "main"})
	registry.Remove("overview")

	expected := []EventType{EventTypeAdded, EventTypeUpdated, EventTypeRemoved}
	for _, want := range expected {
		select {
		case event := <-events:
			assert.Equal(t, want, event.Type)
			assert.Equal(t, "overview", event.Pane.Key)
		case <-time.After(time.Second):
			t.Fatalf("missing %s event", want)
		}
	}
}

func TestPaneRegistry_UnWatch(t *testing.T) {
	registry := NewPaneRegistry()

	events := registry.Watch()
	registry.UnWatch(events)

	// Channel is closed after UnWatch.
	_, open := <-events
	assert.False(t, open)
}
