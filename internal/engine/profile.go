package engine

import "github.com/piwi3910/coursefactory/internal/model"

// CaptureProfile records the layout of every activity, by type and order,
// together with the composer configuration.
func CaptureProfile(activities []model.Activity, cfg model.LayoutConfig) model.LayoutProfile {
	profile := model.LayoutProfile{
		Layout:  NormalizeConfig(cfg),
		Entries: make([]model.ProfileEntry, len(activities)),
	}
	for i, a := range activities {
		profile.Entries[i] = model.ProfileEntry{Type: a.Type, Layout: a.Layout}
	}
	return profile
}

// ApplyProfile lays activities out according to a captured profile.
//
// The k-th activity of a given type takes the k-th captured layout of that
// type. Activities without a matching entry keep their own layout. The
// result is normalised against the profile's configuration.
func ApplyProfile(activities []model.Activity, profile model.LayoutProfile) ([]model.Activity, model.LayoutConfig) {
	cfg := NormalizeConfig(profile.Layout)

	byType := map[model.ActivityType][]model.Layout{}
	for _, e := range profile.Entries {
		byType[e.Type] = append(byType[e.Type], e.Layout)
	}

	out := model.CloneActivities(activities)
	used := map[model.ActivityType]int{}
	for i := range out {
		t := out[i].Type
		k := used[t]
		if k < len(byType[t]) {
			out[i].Layout = byType[t][k]
		}
		used[t] = k + 1
	}
	return NormalizeActivities(out, cfg), cfg
}
