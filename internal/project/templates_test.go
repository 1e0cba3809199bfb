package project

import (
	"path/filepath"
	"testing"

	"github.com/piwi3910/coursefactory/internal/model"
)

func TestSaveAndLoadTemplates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "templates.json")

	store := model.NewTemplateStore()
	activities := []model.Activity{model.NewActivity(model.ActivityTitle), model.NewActivity(model.ActivityContent)}
	tmpl := model.NewModuleTemplate("Lesson", "Standard lesson page", activities, model.DefaultLayoutConfig())
	store.Add(tmpl)

	if err := SaveTemplates(path, store); err != nil {
		t.Fatalf("SaveTemplates error: %v", err)
	}

	loaded, err := LoadTemplates(path)
	if err != nil {
		t.Fatalf("LoadTemplates error: %v", err)
	}

	if len(loaded.Templates) != 1 {
		t.Fatalf("expected 1 template, got %d", len(loaded.Templates))
	}
	if loaded.Templates[0].Name != "Lesson" {
		t.Errorf("expected 'Lesson', got %q", loaded.Templates[0].Name)
	}
	if len(loaded.Templates[0].Activities) != 2 {
		t.Errorf("expected 2 activities, got %d", len(loaded.Templates[0].Activities))
	}
	if loaded.Templates[0].Activities[0].Type != model.ActivityTitle {
		t.Errorf("expected title activity, got %s", loaded.Templates[0].Activities[0].Type)
	}
}

func TestLoadTemplates_NotFound(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.json")

	store, err := LoadTemplates(path)
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if len(store.Templates) != 0 {
		t.Errorf("expected empty store, got %d templates", len(store.Templates))
	}
}

func TestSaveAndLoadTemplates_Multiple(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "templates.json")

	store := model.NewTemplateStore()
	store.Add(model.NewModuleTemplate("T1", "First", nil, model.DefaultLayoutConfig()))
	store.Add(model.NewModuleTemplate("T2", "Second", nil, model.DefaultLayoutConfig()))

	if err := SaveTemplates(path, store); err != nil {
		t.Fatalf("SaveTemplates error: %v", err)
	}
	loaded, err := LoadTemplates(path)
	if err != nil {
		t.Fatalf("LoadTemplates error: %v", err)
	}
	if names := loaded.Names(); len(names) != 2 || names[1] != "T2" {
		t.Errorf("unexpected names %v", names)
	}
}
