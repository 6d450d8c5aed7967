// Package selection holds the per-visitor UI state of the public map: the
// single open detail modal and the active layer filter.
package selection

import (
	"github.com/rotisserie/eris"

	"github.com/petrogas-holding/corpsite/internal/geo"
)

// Target is where a dismiss click landed.
type Target string

// Dismiss targets, matching the data-dismiss attributes of the modal markup.
const (
	TargetCloseButton Target = "close"
	TargetBackdrop    Target = "backdrop"
	TargetPanel       Target = "panel"
)

// ParseTarget converts a wire value into a Target.
func ParseTarget(s string) (Target, error) {
	switch t := Target(s); t {
	case TargetCloseButton, TargetBackdrop, TargetPanel:
		return t, nil
	}
	return "", eris.Errorf("selection: unknown dismiss target %q", s)
}

// State is the open-modal state. At most one feature is active.
type State struct {
	active geo.Feature
}

// Select makes f the active feature, replacing any previous selection.
// It returns the feature that was replaced, if any.
func (s *State) Select(f geo.Feature) geo.Feature {
	prev := s.active
	s.active = f
	return prev
}

// Dismiss applies a click at target. The close control and the backdrop
// clear the selection; clicks inside the panel never do. It reports
// whether the selection was cleared.
func (s *State) Dismiss(target Target) bool {
	switch target {
	case TargetCloseButton, TargetBackdrop:
		cleared := s.active != nil
		s.active = nil
		return cleared
	default:
		return false
	}
}

// Active returns the selected feature or nil.
func (s *State) Active() geo.Feature {
	return s.active
}

// Visible reports whether the modal is open.
func (s *State) Visible() bool {
	return s.active != nil
}

// Snapshot is the wire form of the state.
type Snapshot struct {
	Visible bool            `json:"visible"`
	Type    geo.FeatureType `json:"type,omitempty"`
	Key     string          `json:"key,omitempty"`
	Label   string          `json:"label,omitempty"`
	Item    geo.Feature     `json:"item,omitempty"`
}

// Snapshot returns the current state for serialisation.
func (s *State) Snapshot() Snapshot {
	if s.active == nil {
		return Snapshot{}
	}
	return Snapshot{
		Visible: true,
		Type:    s.active.FeatureType(),
		Key:     s.active.FeatureKey(),
		Label:   s.active.Label(),
		Item:    s.active,
	}
}
