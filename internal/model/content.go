package model

import "reflect"

// DefaultData returns the freshly-created payload for an activity type.
// Each call returns a new map.
func DefaultData(t ActivityType) map[string]any {
	switch t {
	case ActivityTitle:
		return map[string]any{"text": "", "level": 1}
	case ActivityContent:
		return map[string]any{"html": "", "text": ""}
	case ActivityImage:
		return map[string]any{"src": "", "alt": "", "caption": ""}
	case ActivityEmbed:
		return map[string]any{"url": "", "height": 360}
	case ActivityResources:
		return map[string]any{"title": "", "items": []any{}}
	case ActivityKnowledgeCheck:
		return map[string]any{"questions": []any{}}
	case ActivityWorksheet:
		return map[string]any{"title": "", "blocks": []any{}}
	case ActivityChart:
		return map[string]any{"kind": "bar", "labels": []any{}, "series": []any{}}
	case ActivityHotspot:
		return map[string]any{"src": "", "spots": []any{}}
	case ActivityAssessment:
		return map[string]any{"assessmentId": ""}
	case ActivityTabs:
		return map[string]any{"tabs": []any{}}
	case ActivitySubmission, ActivitySave:
		return map[string]any{"label": ""}
	default:
		return map[string]any{}
	}
}

// ActivityHasUserContent reports whether the activity's payload differs
// from the default payload of its type.
func ActivityHasUserContent(a Activity) bool {
	return HasUserContent(a.Data, DefaultData(a.Type))
}

// HasUserContent reports whether value differs structurally from def.
//
// A missing value never counts as content. Slices compare
// element-wise. Numbers compare by value regardless of their Go type, so a
// payload that went through encoding/json matches its int defaults.
func HasUserContent(value, def any) bool {
	if value == nil || (isEmpty(value) && isEmpty(def)) {
		return false
	}

	switch dv := def.(type) {
	case map[string]any:
		vm, ok := value.(map[string]any)
		if !ok {
			return !isEmpty(value)
		}
		for k, d := range dv {
			if HasUserContent(vm[k], d) {
				return true
			}
		}
		for k, v := range vm {
			if _, seen := dv[k]; !seen && !isEmpty(v) {
				return true
			}
		}
		return false
	case []any:
		vs, ok := value.([]any)
		if !ok {
			return !isEmpty(value)
		}
		if len(vs) != len(dv) {
			return true
		}
		for i := range dv {
			if HasUserContent(vs[i], dv[i]) {
				return true
			}
		}
		return false
	}

	if vm, ok := value.(map[string]any); ok {
		return HasUserContent(vm, map[string]any{})
	}
	if vs, ok := value.([]any); ok {
		return len(vs) > 0
	}

	vf, vNum := toFloat(value)
	df, dNum := toFloat(def)
	if vNum && dNum {
		return vf != df
	}
	if def == nil {
		return !isEmpty(value)
	}
	return !reflect.DeepEqual(value, def)
}

func isEmpty(v any) bool {
	switch tv := v.(type) {
	case nil:
		return true
	case string:
		return tv == ""
	case map[string]any:
		for _, e := range tv {
			if !isEmpty(e) {
				return false
			}
		}
		return true
	case []any:
		return len(tv) == 0
	case []string:
		return len(tv) == 0
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// headlineKeys lists the payload keys that carry a block's headline, in
// the order they are tried.
var headlineKeys = []string{"text", "title", "label", "caption", "alt"}

// Headline returns the first non-empty headline field of the payload.
func (a Activity) Headline() string {
	for _, k := range headlineKeys {
		if s, ok := a.Data[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// SetHeadline writes s into the first headline key the payload defines,
// falling back to "title".
func (a *Activity) SetHeadline(s string) {
	if a.Data == nil {
		a.Data = map[string]any{}
	}
	for _, k := range headlineKeys {
		if _, ok := a.Data[k]; ok {
			a.Data[k] = s
			return
		}
	}
	a.Data["title"] = s
}
