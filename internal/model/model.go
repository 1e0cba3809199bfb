package model

import "github.com/google/uuid"

// ActivityType tags the kind of content block an activity renders.
type ActivityType string

const (
	ActivityContent        ActivityType = "content"
	ActivityTitle          ActivityType = "title"
	ActivityImage          ActivityType = "image"
	ActivityEmbed          ActivityType = "embed"
	ActivityResources      ActivityType = "resources"
	ActivityKnowledgeCheck ActivityType = "knowledge_check"
	ActivityWorksheet      ActivityType = "worksheet"
	ActivityChart          ActivityType = "chart"
	ActivityHotspot        ActivityType = "hotspot"
	ActivityAssessment     ActivityType = "assessment"
	ActivitySpacer         ActivityType = "spacer"
	ActivityTabs           ActivityType = "tabs"
	ActivitySubmission     ActivityType = "submission"
	ActivitySave           ActivityType = "save"
)

// ActivityTypes lists every known block kind in palette order.
var ActivityTypes = []ActivityType{
	ActivityContent, ActivityTitle, ActivityImage, ActivityEmbed,
	ActivityResources, ActivityKnowledgeCheck, ActivityWorksheet, ActivityChart,
	ActivityHotspot, ActivityAssessment, ActivitySpacer, ActivityTabs,
	ActivitySubmission, ActivitySave,
}

// Valid reports whether t is one of the known activity types.
func (t ActivityType) Valid() bool {
	for _, known := range ActivityTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseActivityType maps a free-form name to an ActivityType.
// Unknown names fall back to ActivityContent.
func ParseActivityType(s string) (ActivityType, bool) {
	t := ActivityType(s)
	if t.Valid() {
		return t, true
	}
	switch s {
	case "text", "body":
		return ActivityContent, true
	case "heading", "header":
		return ActivityTitle, true
	case "quiz", "check":
		return ActivityKnowledgeCheck, true
	case "links", "resource", "resource_list":
		return ActivityResources, true
	}
	return ActivityContent, false
}

// Layout carries both placement representations of an activity.
//
// Simple-grid mode uses ColSpan, Row and Col (1-based). Canvas mode uses
// X, Y, W and H (0-based grid units) and mirrors them back into
// ColSpan=W, Col=X+1, Row=Y+1. W == 0 means no canvas geometry has been
// assigned yet.
type Layout struct {
	ColSpan int `json:"colSpan"`
	Row     int `json:"row,omitempty"`
	Col     int `json:"col,omitempty"`
	X       int `json:"x,omitempty"`
	Y       int `json:"y,omitempty"`
	W       int `json:"w,omitempty"`
	H       int `json:"h,omitempty"`
}

// HasCanvas reports whether canvas geometry has been assigned.
func (l Layout) HasCanvas() bool {
	return l.W > 0
}

// Activity is one placeable content block of a course module page.
type Activity struct {
	ID       string         `json:"id"`
	Type     ActivityType   `json:"type"`
	Data     map[string]any `json:"data,omitempty"`
	Layout   Layout         `json:"layout"`
	Style    map[string]any `json:"style,omitempty"`
	Behavior map[string]any `json:"behavior,omitempty"`
}

// NewActivity creates an activity of the given type with its default
// payload and a single-column span. Row and column are left unset so the
// grid packer flows it after the existing blocks.
func NewActivity(t ActivityType) Activity {
	return Activity{
		ID:     NewID(),
		Type:   t,
		Data:   DefaultData(t),
		Layout: Layout{ColSpan: 1},
	}
}

// NewID returns a short random identifier.
func NewID() string {
	return uuid.New().String()[:8]
}

// Clone returns a deep copy of the activity.
func (a Activity) Clone() Activity {
	cp := a
	cp.Data = cloneMap(a.Data)
	cp.Style = cloneMap(a.Style)
	cp.Behavior = cloneMap(a.Behavior)
	return cp
}

// CloneActivities returns a deep copy of an activity slice.
// A nil slice stays nil.
func CloneActivities(activities []Activity) []Activity {
	if activities == nil {
		return nil
	}
	cp := make([]Activity, len(activities))
	for i, a := range activities {
		cp[i] = a.Clone()
	}
	return cp
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cp := make(map[string]any, len(m))
	for k, v := range m {
		cp[k] = cloneValue(v)
	}
	return cp
}

func cloneValue(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		return cloneMap(tv)
	case []any:
		cp := make([]any, len(tv))
		for i, e := range tv {
			cp[i] = cloneValue(e)
		}
		return cp
	case []string:
		cp := make([]string, len(tv))
		copy(cp, tv)
		return cp
	default:
		return v
	}
}

// LayoutMode selects the composer placement model.
type LayoutMode string

const (
	ModeSimple LayoutMode = "simple"
	ModeCanvas LayoutMode = "canvas"
)

// Column limits supported by the composer.
const (
	MinColumns = 1
	MaxColumns = 4
)

// Canvas defaults, in pixels except DefaultBlockHeight which is in grid rows.
const (
	DefaultRowHeight   = 80
	DefaultMargin      = 16
	DefaultPadding     = 16
	DefaultBlockHeight = 2
)

// Spacing is an (x, y) pair of pixel distances.
type Spacing struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// LayoutConfig is the per-module composer configuration.
type LayoutConfig struct {
	Mode                  LayoutMode `json:"mode" yaml:"mode"`
	MaxColumns            int        `json:"maxColumns" yaml:"max_columns"`
	RowHeight             int        `json:"rowHeight" yaml:"row_height"`                         // canvas only
	Margin                Spacing    `json:"margin" yaml:"margin"`                                // canvas only
	ContainerPadding      Spacing    `json:"containerPadding" yaml:"container_padding"`           // canvas only
	SimpleMatchTallestRow bool       `json:"simpleMatchTallestRow" yaml:"simple_match_tallest_row"` // display only
}

// DefaultLayoutConfig returns a two-column simple-grid configuration.
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		Mode:             ModeSimple,
		MaxColumns:       2,
		RowHeight:        DefaultRowHeight,
		Margin:           Spacing{X: DefaultMargin, Y: DefaultMargin},
		ContainerPadding: Spacing{X: DefaultPadding, Y: DefaultPadding},
	}
}

// Module is the persisted composer document.
type Module struct {
	Name                   string         `json:"name"`
	Activities             []Activity     `json:"activities"`
	ComposerLayout         LayoutConfig   `json:"composerLayout"`
	ComposerExtraRows      int            `json:"composerExtraRows"`
	ComposerSelectedIndex  int            `json:"composerSelectedIndex"`
	TemplateOverride       string         `json:"templateOverride,omitempty"`
	TemplateLayoutProfiles LayoutProfiles `json:"templateLayoutProfiles,omitempty"`

	// Tabs splits the activities into independently laid out pages.
	Tabs *TabbedActivitySet `json:"tabs,omitempty"`
}

// NewModule returns an empty module with the default layout.
func NewModule() Module {
	return Module{
		Name:                  "Untitled",
		Activities:            []Activity{},
		ComposerLayout:        DefaultLayoutConfig(),
		ComposerSelectedIndex: -1,
	}
}

// ProfileEntry is the captured layout of one activity in a profile.
type ProfileEntry struct {
	Type   ActivityType `json:"type"`
	Layout Layout       `json:"layout"`
}

// LayoutProfile captures a composer arrangement so it can be re-applied
// to another activity set built from the same template.
type LayoutProfile struct {
	Layout  LayoutConfig   `json:"layout"`
	Entries []ProfileEntry `json:"entries"`
}

// LayoutProfiles maps a template key to its captured profile.
type LayoutProfiles map[string]LayoutProfile

// Clone returns a deep copy of the profile map.
func (p LayoutProfiles) Clone() LayoutProfiles {
	if p == nil {
		return nil
	}
	cp := make(LayoutProfiles, len(p))
	for k, v := range p {
		entries := make([]ProfileEntry, len(v.Entries))
		copy(entries, v.Entries)
		v.Entries = entries
		cp[k] = v
	}
	return cp
}
