package model

import "time"

// ModuleTemplate is a reusable arrangement of activities. It captures the
// activities and composer layout of a module but not its selection state.
type ModuleTemplate struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	CreatedAt   string       `json:"created_at"`
	UpdatedAt   string       `json:"updated_at"`
	Activities  []Activity   `json:"activities"`
	Layout      LayoutConfig `json:"layout"`
}

// NewModuleTemplate creates a template from the given module contents.
func NewModuleTemplate(name, description string, activities []Activity, layout LayoutConfig) ModuleTemplate {
	now := time.Now().UTC().Format(time.RFC3339)
	acts := CloneActivities(activities)
	if acts == nil {
		acts = []Activity{}
	}
	return ModuleTemplate{
		ID:          NewID(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
		Activities:  acts,
		Layout:      layout,
	}
}

// ToModule creates a new Module from this template.
// Activities get fresh IDs so they are independent of the template.
func (t ModuleTemplate) ToModule(name string) Module {
	m := NewModule()
	m.Name = name
	m.ComposerLayout = t.Layout
	m.TemplateOverride = t.ID
	m.Activities = t.Instantiate()
	return m
}

// Instantiate returns copies of the template activities with fresh IDs.
func (t ModuleTemplate) Instantiate() []Activity {
	acts := make([]Activity, len(t.Activities))
	for i, a := range t.Activities {
		acts[i] = a.Clone()
		acts[i].ID = NewID()
	}
	return acts
}

// TemplateStore holds a collection of module templates.
type TemplateStore struct {
	Templates []ModuleTemplate `json:"templates"`
}

// NewTemplateStore creates an empty template store.
func NewTemplateStore() TemplateStore {
	return TemplateStore{
		Templates: []ModuleTemplate{},
	}
}

// Add adds a template to the store.
func (ts *TemplateStore) Add(t ModuleTemplate) {
	ts.Templates = append(ts.Templates, t)
}

// Remove removes a template by ID. Returns true if found and removed.
func (ts *TemplateStore) Remove(id string) bool {
	for i, t := range ts.Templates {
		if t.ID == id {
			ts.Templates = append(ts.Templates[:i], ts.Templates[i+1:]...)
			return true
		}
	}
	return false
}

// FindByID returns a pointer to the template with the given ID, or nil.
func (ts *TemplateStore) FindByID(id string) *ModuleTemplate {
	for i := range ts.Templates {
		if ts.Templates[i].ID == id {
			return &ts.Templates[i]
		}
	}
	return nil
}

// FindByName returns a pointer to the first template with the given name, or nil.
func (ts *TemplateStore) FindByName(name string) *ModuleTemplate {
	for i := range ts.Templates {
		if ts.Templates[i].Name == name {
			return &ts.Templates[i]
		}
	}
	return nil
}

// Names returns the template names in store order.
func (ts *TemplateStore) Names() []string {
	names := make([]string, len(ts.Templates))
	for i, t := range ts.Templates {
		names[i] = t.Name
	}
	return names
}
