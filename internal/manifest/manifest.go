// Package manifest loads the YAML pane manifest that declares navigation
// groups and their panes. The manifest is the source of truth for pane
// identity, display content, and per-group activation mode; the watcher
// reloads it on change so panes can be added and removed at runtime.
package manifest

import (
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/panekit/panekit/internal/errors"
	"github.com/panekit/panekit/internal/state"
)

// Mode names the activation behavior of one navigation group.
type Mode string

const (
	// ModeTabs: exactly one pane active, switching only (tab strip).
	ModeTabs Mode = "tabs"
	// ModeAccordion: any subset of panes may be open, including none.
	ModeAccordion Mode = "accordion"
	// ModeToggle: at most one pane active, and it may be closed.
	ModeToggle Mode = "toggle"
)

// Policy maps the mode onto the store's activation policy.
func (m Mode) Policy() state.Options {
	switch m {
	case ModeAccordion:
		return state.Options{MultipleActive: true, NoneActive: true}
	case ModeToggle:
		return state.Options{NoneActive: true}
	default:
		return state.Options{}
	}
}

// Valid reports whether the mode is one of the recognized names.
func (m Mode) Valid() bool {
	switch m {
	case ModeTabs, ModeAccordion, ModeToggle:
		return true
	default:
		return false
	}
}

// Manifest is the decoded pane manifest.
type Manifest struct {
	Groups []Group `yaml:"groups"`
}

// Group declares one navigation group and its panes.
type Group struct {
	Name         string `yaml:"name"`
	Mode         Mode   `yaml:"mode"`
	TransitionMs int    `yaml:"transition_ms"`
	Panes        []Pane `yaml:"panes"`
}

// Pane declares one logical pane. Content and Tab are HTML fragments; the
// attributes present on their root elements decide which ARIA attributes
// the binding layer may update.
type Pane struct {
	Key      string `yaml:"key"`
	Title    string `yaml:"title"`
	Content  string `yaml:"content"`
	Tab      string `yaml:"tab"`
	Animated bool   `yaml:"animated"`
	Active   bool   `yaml:"active"`
}

// Load reads and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIOError("MANIFEST_READ", "failed to read manifest", err).
			WithContext("path", path)
	}
	return Parse(data)
}

// Parse decodes and validates manifest bytes.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.NewManifestError("MANIFEST_DECODE", "failed to decode manifest", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the manifest for structural problems, reporting every
// problem found rather than the first.
func (m *Manifest) Validate() error {
	ec := errors.NewErrorCollector()

	if len(m.Groups) == 0 {
		ec.Addf("MANIFEST_EMPTY", "manifest declares no groups")
	}

	groupNames := make(map[string]bool)
	paneKeys := make(map[string]string)

	for _, group := range m.Groups {
		if group.Name == "" {
			ec.Addf("GROUP_NAME", "group with empty name")
			continue
		}
		if groupNames[group.Name] {
			ec.Addf("GROUP_DUP", "duplicate group %q", group.Name)
		}
		groupNames[group.Name] = true

		if group.Mode != "" && !group.Mode.Valid() {
			ec.Addf("GROUP_MODE", "group %q has unknown mode %q", group.Name, group.Mode)
		}
		if group.TransitionMs < 0 {
			ec.Addf("GROUP_TRANSITION", "group %q has negative transition_ms", group.Name)
		}
		if len(group.Panes) == 0 {
			ec.Addf("GROUP_EMPTY", "group %q declares no panes", group.Name)
		}

		for _, pane := range group.Panes {
			if pane.Key == "" {
				ec.Addf("PANE_KEY", "group %q contains a pane with empty key", group.Name)
				continue
			}
			if owner, seen := paneKeys[pane.Key]; seen {
				ec.Addf("PANE_DUP", "pane key %q declared in both %q and %q",
					pane.Key, owner, group.Name)
				continue
			}
			paneKeys[pane.Key] = group.Name
		}
	}

	if ec.HasErrors() {
		return errors.NewManifestError("MANIFEST_INVALID", "manifest validation failed", ec.Err())
	}
	return nil
}

// Group returns the named group.
func (m *Manifest) Group(name string) (*Group, bool) {
	for i := range m.Groups {
		if m.Groups[i].Name == name {
			return &m.Groups[i], true
		}
	}
	return nil, false
}

// PaneKeys returns every pane key in the manifest, sorted.
func (m *Manifest) PaneKeys() []string {
	var keys []string
	for _, group := range m.Groups {
		for _, pane := range group.Panes {
			keys = append(keys, pane.Key)
		}
	}
	sort.Strings(keys)
	return keys
}

// EffectiveMode returns the group's mode, falling back to the given
// default when the manifest leaves it empty.
func (g *Group) EffectiveMode(fallback Mode) Mode {
	if g.Mode == "" {
		if fallback.Valid() {
			return fallback
		}
		return ModeTabs
	}
	return g.Mode
}
