package schedule

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimerScheduler_FiresAfterDelay(t *testing.T) {
	s := NewTimerScheduler()
	defer s.Stop()

	done := make(chan struct{})
	s.After(TaskKey{Pane: "a", Element: "e1", Slot: SlotMarker}, time.Millisecond, func() {
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduled task never fired")
	}
	assert.Equal(t, 0, s.Pending())
}

func TestTimerScheduler_Cancel(t *testing.T) {
	s := NewTimerScheduler()
	defer s.Stop()

	var mu sync.Mutex
	var fired bool
	key := TaskKey{Pane: "a", Element: "e1", Slot: SlotTransition}
	s.After(key, 50*time.Millisecond, func() {
		mu.Lock()
		fired = true
		mu.Unlock()
	})

	assert.True(t, s.Cancel(key))
	assert.False(t, s.Cancel(key))

	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.False(t, fired, "cancelled task must not fire")
}

func TestTimerScheduler_ReplaceSameKey(t *testing.T) {
	s := NewTimerScheduler()
	defer s.Stop()

	key := TaskKey{Pane: "a", Element: "e1", Slot: SlotMarker}
	results := make(chan int, 2)
	s.After(key, 30*time.Millisecond, func() { results <- 1 })
	s.After(key, time.Millisecond, func() { results <- 2 })

	select {
	case got := <-results:
		assert.Equal(t, 2, got, "replacement task should win")
	case <-time.After(time.Second):
		t.Fatal("no task fired")
	}

	select {
	case got := <-results:
		t.Fatalf("replaced task fired anyway with %d", got)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTimerScheduler_CancelElementAndPane(t *testing.T) {
	s := NewTimerScheduler()
	defer s.Stop()

	long := time.Minute
	s.After(TaskKey{Pane: "a", Element: "e1", Slot: SlotMarker}, long, func() {})
	s.After(TaskKey{Pane: "a", Element: "e1", Slot: SlotTransition}, long, func() {})
	s.After(TaskKey{Pane: "a", Element: "e2", Slot: SlotMarker}, long, func() {})
	s.After(TaskKey{Pane: "b", Element: "e3", Slot: SlotMarker}, long, func() {})

	assert.Equal(t, 2, s.CancelElement("a", "e1"))
	assert.Equal(t, 1, s.CancelPane("a"))
	assert.Equal(t, 1, s.Pending())
	assert.Equal(t, 1, s.CancelPane("b"))
	assert.Equal(t, 0, s.Pending())
}

func TestTimerScheduler_StopRefusesNewTasks(t *testing.T) {
	s := NewTimerScheduler()

	s.After(TaskKey{Pane: "a", Element: "e1", Slot: SlotMarker}, time.Minute, func() {})
	s.Stop()
	assert.Equal(t, 0, s.Pending())

	s.After(TaskKey{Pane: "a", Element: "e2", Slot: SlotMarker}, time.Millisecond, func() {
		t.Error("task scheduled after Stop must not run")
	})
	assert.Equal(t, 0, s.Pending())
	time.Sleep(20 * time.Millisecond)
}

func TestImmediate_RunsInline(t *testing.T) {
	s := NewImmediate()

	var fired bool
	s.After(TaskKey{Pane: "a", Element: "e1", Slot: SlotMarker}, time.Hour, func() {
		fired = true
	})

	assert.True(t, fired)
	assert.False(t, s.Cancel(TaskKey{Pane: "a", Element: "e1", Slot: SlotMarker}))
	assert.Equal(t, 0, s.CancelPane("a"))
}
