// Package composer holds the mutable composer state and brackets every
// layout mutation with undo/redo history.
package composer

import (
	"encoding/json"

	"github.com/piwi3910/coursefactory/internal/engine"
	"github.com/piwi3910/coursefactory/internal/model"
)

// State is everything the composer renders from.
type State struct {
	Activities             []model.Activity     `json:"activities"`
	Layout                 model.LayoutConfig   `json:"layout"`
	ExtraRows              int                  `json:"extraRows"`
	SelectedIndex          int                  `json:"selectedIndex"`
	TemplateOverride       string               `json:"templateOverride"`
	TemplateLayoutProfiles model.LayoutProfiles `json:"templateLayoutProfiles"`
}

// NewState returns an empty state with the default layout.
func NewState() State {
	return State{
		Activities:    []model.Activity{},
		Layout:        model.DefaultLayoutConfig(),
		SelectedIndex: -1,
	}
}

// StateFromModule extracts the composer state of a persisted module.
func StateFromModule(m model.Module) State {
	return State{
		Activities:             model.CloneActivities(m.Activities),
		Layout:                 m.ComposerLayout,
		ExtraRows:              m.ComposerExtraRows,
		SelectedIndex:          m.ComposerSelectedIndex,
		TemplateOverride:       m.TemplateOverride,
		TemplateLayoutProfiles: m.TemplateLayoutProfiles.Clone(),
	}.Normalize()
}

// ToModule converts the state back into its persisted shape.
func (s State) ToModule(name string) model.Module {
	acts := model.CloneActivities(s.Activities)
	if acts == nil {
		acts = []model.Activity{}
	}
	return model.Module{
		Name:                   name,
		Activities:             acts,
		ComposerLayout:         s.Layout,
		ComposerExtraRows:      s.ExtraRows,
		ComposerSelectedIndex:  s.SelectedIndex,
		TemplateOverride:       s.TemplateOverride,
		TemplateLayoutProfiles: s.TemplateLayoutProfiles.Clone(),
	}
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	cp := s
	cp.Activities = model.CloneActivities(s.Activities)
	cp.TemplateLayoutProfiles = s.TemplateLayoutProfiles.Clone()
	return cp
}

// Normalize clamps the configuration, activities and selection to valid
// values. It is idempotent.
func (s State) Normalize() State {
	s = s.Clone()
	s.Layout = engine.NormalizeConfig(s.Layout)
	s.Activities = engine.NormalizeActivities(s.Activities, s.Layout)
	if s.ExtraRows < 0 {
		s.ExtraRows = 0
	}
	s.SelectedIndex = clampSelection(s.SelectedIndex, len(s.Activities))
	return s
}

// Signature returns the canonical serialised form used to detect no-op
// history entries. encoding/json emits struct fields in declaration order
// and map keys sorted, so equal states produce equal signatures.
func (s State) Signature() string {
	data, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	return string(data)
}

// Selected returns the selected activity, if any.
func (s State) Selected() (model.Activity, bool) {
	if s.SelectedIndex < 0 || s.SelectedIndex >= len(s.Activities) {
		return model.Activity{}, false
	}
	return s.Activities[s.SelectedIndex], true
}

// IndexOf returns the index of the activity with the given id, or -1.
func (s State) IndexOf(id string) int {
	for i, a := range s.Activities {
		if a.ID == id {
			return i
		}
	}
	return -1
}

// Grid packs the activities for display in simple mode.
func (s State) Grid() engine.Grid {
	return engine.PackGrid(s.Activities, s.Layout.MaxColumns, s.ExtraRows)
}

func clampSelection(selected, n int) int {
	if n == 0 || selected < 0 {
		return -1
	}
	return min(selected, n-1)
}
