package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/piwi3910/coursefactory/internal/composer"
	"github.com/piwi3910/coursefactory/internal/engine"
	"github.com/piwi3910/coursefactory/internal/model"
)

// SaveModule writes a module document to the specified JSON file.
// It creates parent directories if they do not exist.
func SaveModule(path string, m model.Module) error {
	if m.Activities == nil {
		m.Activities = []model.Activity{}
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create module directory: %w", err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal module: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write module file: %w", err)
	}
	return nil
}

// LoadModule reads a module document and normalises its composer layout,
// clamping spans, positions and selection to valid values. Loading a file
// written by SaveModule from normalised state yields the same module.
func LoadModule(path string) (model.Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Module{}, fmt.Errorf("failed to read module file: %w", err)
	}
	m := model.NewModule()
	if err := json.Unmarshal(data, &m); err != nil {
		return model.Module{}, fmt.Errorf("failed to parse module file: %w", err)
	}
	return NormalizeModule(m), nil
}

// NormalizeModule returns m with its composer state normalised. A module
// with tabs is laid out one tab at a time, so blocks of different tabs may
// share cells; activities in no tab form a page of their own.
func NormalizeModule(m model.Module) model.Module {
	out := composer.StateFromModule(m).ToModule(m.Name)
	if m.Tabs == nil {
		return out
	}
	tabs := m.Tabs.Prune(m.Activities)
	if len(tabs.Tabs) == 0 {
		return out
	}

	placed := make(map[string]model.Layout, len(m.Activities))
	for _, group := range tabs.Groups(m.Activities) {
		for _, a := range engine.NormalizeActivities(group, out.ComposerLayout) {
			placed[a.ID] = a.Layout
		}
	}
	for i, a := range out.Activities {
		if l, ok := placed[a.ID]; ok {
			out.Activities[i].Layout = l
		}
	}
	out.Tabs = &tabs
	return out
}

// LoadOrCreateModule loads the module at path. If the file does not exist,
// a new module named after the file is created with the layout defaults
// of config, saved, and returned.
func LoadOrCreateModule(path string, config model.AppConfig) (model.Module, error) {
	m, err := LoadModule(path)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return model.Module{}, err
	}

	m = model.NewModule()
	base := filepath.Base(path)
	m.Name = base[:len(base)-len(filepath.Ext(base))]
	config.ApplyToLayout(&m.ComposerLayout)
	m.ComposerExtraRows = config.DefaultExtraRows
	m = NormalizeModule(m)
	if err := SaveModule(path, m); err != nil {
		return m, err
	}
	return m, nil
}
