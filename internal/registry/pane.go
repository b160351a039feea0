package registry

import (
	"sync"
	"time"
)

// PaneRegistry manages all panes known to the navigation layer.
type PaneRegistry struct {
	panes    map[string]*PaneInfo
	mutex    sync.RWMutex
	watchers []chan PaneEvent
}

// PaneInfo holds metadata about one logical pane.
type PaneInfo struct {
	Key      string
	Title    string
	Group    string
	Content  string
	Animated bool
	Active   bool
	LastMod  time.Time
}

// PaneEvent represents a change in the pane registry.
type PaneEvent struct {
	Type      EventType
	Pane      *PaneInfo
	Timestamp time.Time
}

// EventType represents the type of pane event.
type EventType int

const (
	EventTypeAdded EventType = iota
	EventTypeUpdated
	EventTypeRemoved
)

// String returns the string representation of the EventType.
func (e EventType) String() string {
	switch e {
	case EventTypeAdded:
		return "added"
	case EventTypeUpdated:
		return "updated"
	case EventTypeRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// NewPaneRegistry creates a new pane registry.
func NewPaneRegistry() *PaneRegistry {
	return &PaneRegistry{
		panes:    make(map[string]*PaneInfo),
		watchers: make([]chan PaneEvent, 0),
	}
}

// Register adds or updates a pane in the registry.
func (r *PaneRegistry) Register(pane *PaneInfo) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	eventType := EventTypeAdded
	if _, exists := r.panes[pane.Key]; exists {
		eventType = EventTypeUpdated
	}

	r.panes[pane.Key] = pane

	event := PaneEvent{
		Type:      eventType,
		Pane:      pane,
		Timestamp: time.Now(),
	}

	for _, watcher := range r.watchers {
		select {
		case watcher <- event:
		default:
			// Skip if channel is full
		}
	}
}

// Get retrieves a pane by key.
func (r *PaneRegistry) Get(key string) (*PaneInfo, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	pane, exists := r.panes[key]
	return pane, exists
}

// GetAll returns all registered panes.
func (r *PaneRegistry) GetAll() map[string]*PaneInfo {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make(map[string]*PaneInfo)
	for key, pane := range r.panes {
		result[key] = pane
	}
	return result
}

// GetGroup returns all panes belonging to the named navigation group.
func (r *PaneRegistry) GetGroup(group string) []*PaneInfo {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]*PaneInfo, 0)
	for _, pane := range r.panes {
		if pane.Group == group {
			result = append(result, pane)
		}
	}
	return result
}

// SetActive updates the recorded activation state of a pane. Returns
// false if the pane is unknown.
func (r *PaneRegistry) SetActive(key string, active bool) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	pane, exists := r.panes[key]
	if !exists {
		return false
	}
	if pane.Active == active {
		return true
	}
	pane.Active = active
	pane.LastMod = time.Now()

	event := PaneEvent{
		Type:      EventTypeUpdated,
		Pane:      pane,
		Timestamp: time.Now(),
	}

	for _, watcher := range r.watchers {
		select {
		case watcher <- event:
		default:
			// Skip if channel is full
		}
	}
	return true
}

// Remove removes a pane from the registry.
func (r *PaneRegistry) Remove(key string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	pane, exists := r.panes[key]
	if !exists {
		return
	}

	delete(r.panes, key)

	event := PaneEvent{
		Type:      EventTypeRemoved,
		Pane:      pane,
		Timestamp: time.Now(),
	}

	for _, watcher := range r.watchers {
		select {
		case watcher <- event:
		default:
			// Skip if channel is full
		}
	}
}

// Watch returns a channel that receives pane events.
func (r *PaneRegistry) Watch() <-chan PaneEvent {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ch := make(chan PaneEvent, 100)
	r.watchers = append(r.watchers, ch)
	return ch
}

// UnWatch removes a watcher channel and closes it.
func (r *PaneRegistry) UnWatch(ch <-chan PaneEvent) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, watcher := range r.watchers {
		if watcher == ch {
			close(watcher)
			r.watchers = append(r.watchers[:i], r.watchers[i+1:]...)
			break
		}
	}
}

// Count returns the number of registered panes.
func (r *PaneRegistry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.panes)
}
