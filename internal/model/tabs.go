package model

import "errors"

// ErrUnknownTab is returned when a tab id names no tab of the module.
var ErrUnknownTab = errors.New("unknown tab")

// Tab is one named subset of a module's activities.
type Tab struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	ActivityIDs []string `json:"activityIds"`
}

// TabbedActivitySet splits a canonical activity list into tabs.
// Canonical names the tab whose view stands in for the whole list; when it
// is empty or unknown, every view is the full list.
type TabbedActivitySet struct {
	Canonical string `json:"canonical"`
	Tabs      []Tab  `json:"tabs"`
}

// FindTab returns the tab with the given id, or nil.
func (s *TabbedActivitySet) FindTab(id string) *Tab {
	for i := range s.Tabs {
		if s.Tabs[i].ID == id {
			return &s.Tabs[i]
		}
	}
	return nil
}

// View returns the activities of tabID in canonical order. Unknown tabs
// yield the full list.
func (s TabbedActivitySet) View(tabID string, activities []Activity) []Activity {
	tab := s.FindTab(tabID)
	if tab == nil {
		return CloneActivities(activities)
	}
	members := make(map[string]bool, len(tab.ActivityIDs))
	for _, id := range tab.ActivityIDs {
		members[id] = true
	}
	view := make([]Activity, 0, len(tab.ActivityIDs))
	for _, a := range activities {
		if members[a.ID] {
			view = append(view, a.Clone())
		}
	}
	return view
}

// CanonicalView returns the view of the canonical tab.
func (s TabbedActivitySet) CanonicalView(activities []Activity) []Activity {
	return s.View(s.Canonical, activities)
}

// Reconcile merges an edited tab view back into the canonical list.
//
// Activities present in both are replaced in place. Activities that
// belonged to the tab but are missing from edited are removed. New
// activities in edited are appended after the last member of the tab
// and added to its membership. The returned set carries the updated
// membership; the receiver is not modified.
func (s TabbedActivitySet) Reconcile(canonical []Activity, tabID string, edited []Activity) ([]Activity, TabbedActivitySet) {
	next := s.clone()
	tab := next.FindTab(tabID)
	if tab == nil {
		return CloneActivities(edited), next
	}

	members := make(map[string]bool, len(tab.ActivityIDs))
	for _, id := range tab.ActivityIDs {
		members[id] = true
	}
	byID := make(map[string]Activity, len(edited))
	for _, a := range edited {
		byID[a.ID] = a
	}

	merged := make([]Activity, 0, len(canonical)+len(edited))
	insertAt := -1
	for _, a := range canonical {
		if !members[a.ID] {
			merged = append(merged, a.Clone())
			continue
		}
		if e, ok := byID[a.ID]; ok {
			merged = append(merged, e.Clone())
		}
		insertAt = len(merged)
	}
	if insertAt < 0 {
		insertAt = len(merged)
	}

	var added []Activity
	for _, a := range edited {
		if !members[a.ID] {
			added = append(added, a.Clone())
		}
	}
	if len(added) > 0 {
		tail := append([]Activity{}, merged[insertAt:]...)
		merged = append(append(merged[:insertAt], added...), tail...)
	}

	ids := make([]string, 0, len(edited))
	for _, a := range edited {
		ids = append(ids, a.ID)
	}
	tab.ActivityIDs = ids
	return merged, next
}

// Assign adds tab, replacing any tab with the same id, and takes its
// activities out of every other tab. The first tab assigned becomes the
// canonical one.
func (s *TabbedActivitySet) Assign(tab Tab) {
	members := make(map[string]bool, len(tab.ActivityIDs))
	for _, id := range tab.ActivityIDs {
		members[id] = true
	}
	tab.ActivityIDs = append([]string(nil), tab.ActivityIDs...)

	replaced := false
	for i := range s.Tabs {
		if s.Tabs[i].ID == tab.ID {
			s.Tabs[i] = tab
			replaced = true
			continue
		}
		kept := s.Tabs[i].ActivityIDs[:0]
		for _, id := range s.Tabs[i].ActivityIDs {
			if !members[id] {
				kept = append(kept, id)
			}
		}
		s.Tabs[i].ActivityIDs = kept
	}
	if !replaced {
		s.Tabs = append(s.Tabs, tab)
	}
	if s.FindTab(s.Canonical) == nil {
		s.Canonical = s.Tabs[0].ID
	}
}

// Remove drops the tab with the given id. Its activities stay in the
// module without a tab. It reports whether a tab was removed.
func (s *TabbedActivitySet) Remove(id string) bool {
	for i := range s.Tabs {
		if s.Tabs[i].ID != id {
			continue
		}
		s.Tabs = append(s.Tabs[:i], s.Tabs[i+1:]...)
		if s.Canonical == id {
			s.Canonical = ""
			if len(s.Tabs) > 0 {
				s.Canonical = s.Tabs[0].ID
			}
		}
		return true
	}
	return false
}

// Prune returns a copy of s whose membership only names activities that
// exist, each in the first tab listing it. An unknown canonical tab falls
// back to the first tab.
func (s TabbedActivitySet) Prune(activities []Activity) TabbedActivitySet {
	exists := make(map[string]bool, len(activities))
	for _, a := range activities {
		exists[a.ID] = true
	}
	next := s.clone()
	seen := make(map[string]bool, len(activities))
	for i := range next.Tabs {
		kept := next.Tabs[i].ActivityIDs[:0]
		for _, id := range next.Tabs[i].ActivityIDs {
			if exists[id] && !seen[id] {
				seen[id] = true
				kept = append(kept, id)
			}
		}
		next.Tabs[i].ActivityIDs = kept
	}
	if next.FindTab(next.Canonical) == nil {
		next.Canonical = ""
		if len(next.Tabs) > 0 {
			next.Canonical = next.Tabs[0].ID
		}
	}
	return next
}

// Groups splits activities into one list per tab, in tab order, followed
// by the activities that belong to no tab when there are any. Each group
// keeps canonical order. Tabs are laid out independently of each other.
func (s TabbedActivitySet) Groups(activities []Activity) [][]Activity {
	groups := make([][]Activity, 0, len(s.Tabs)+1)
	tabbed := make(map[string]bool, len(activities))
	for _, t := range s.Tabs {
		groups = append(groups, s.View(t.ID, activities))
		for _, id := range t.ActivityIDs {
			tabbed[id] = true
		}
	}
	var rest []Activity
	for _, a := range activities {
		if !tabbed[a.ID] {
			rest = append(rest, a.Clone())
		}
	}
	if len(rest) > 0 {
		groups = append(groups, rest)
	}
	return groups
}

func (s TabbedActivitySet) clone() TabbedActivitySet {
	cp := TabbedActivitySet{Canonical: s.Canonical, Tabs: make([]Tab, len(s.Tabs))}
	for i, t := range s.Tabs {
		cp.Tabs[i] = Tab{ID: t.ID, Label: t.Label, ActivityIDs: append([]string(nil), t.ActivityIDs...)}
	}
	return cp
}
