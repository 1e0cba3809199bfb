package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/piwi3910/coursefactory/internal/model"
)

// buildTestModule creates a small simple-grid module for testing.
func buildTestModule() model.Module {
	title := model.NewActivity(model.ActivityTitle)
	title.Layout = model.Layout{ColSpan: 2, Row: 1, Col: 1}
	title.SetHeadline("Week 1: Foundations")

	body := model.NewActivity(model.ActivityContent)
	body.Layout = model.Layout{ColSpan: 1, Row: 2, Col: 1}
	body.SetHeadline("Read chapter one before the session")

	img := model.NewActivity(model.ActivityImage)
	img.Layout = model.Layout{ColSpan: 1, Row: 2, Col: 2}

	m := model.NewModule()
	m.Name = "Week 1"
	m.Activities = []model.Activity{title, body, img}
	m.ComposerExtraRows = 1
	m.ComposerSelectedIndex = 1
	return m
}

// buildCanvasModule creates a canvas-mode module with a tall block.
func buildCanvasModule() model.Module {
	m := buildTestModule()
	m.ComposerLayout.Mode = model.ModeCanvas
	m.ComposerLayout.MaxColumns = 3
	m.Activities[0].Layout = model.Layout{ColSpan: 3, X: 0, Y: 0, W: 3, H: 1}
	m.Activities[1].Layout = model.Layout{ColSpan: 1, X: 0, Y: 1, W: 1, H: 4}
	m.Activities[2].Layout = model.Layout{ColSpan: 2, X: 1, Y: 1, W: 2, H: 2}
	return m
}

func assertPDF(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("PDF file was not created: %v", err)
	}
	if len(data) < 500 {
		t.Errorf("PDF file seems too small: %d bytes", len(data))
	}
	if !strings.HasPrefix(string(data), "%PDF-") {
		t.Errorf("file does not start with a PDF header")
	}
}

func TestExportLayoutPDF_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.pdf")

	if err := ExportLayoutPDF(path, buildTestModule()); err != nil {
		t.Fatalf("ExportLayoutPDF returned error: %v", err)
	}
	assertPDF(t, path)
}

func TestExportLayoutPDF_Canvas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canvas.pdf")

	if err := ExportLayoutPDF(path, buildCanvasModule()); err != nil {
		t.Fatalf("ExportLayoutPDF returned error: %v", err)
	}
	assertPDF(t, path)
}

func TestExportLayoutPDF_EmptyModule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pdf")

	err := ExportLayoutPDF(path, model.NewModule())
	if !errors.Is(err, ErrNoActivities) {
		t.Fatalf("expected ErrNoActivities, got %v", err)
	}
	if _, statErr := os.Stat(path); statErr == nil {
		t.Error("no file should be written for an empty module")
	}
}

func TestExportLayoutPDF_ManyBlocks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "many.pdf")

	m := model.NewModule()
	m.ComposerLayout.MaxColumns = 4
	for i := 0; i < 60; i++ {
		a := model.NewActivity(model.ActivityTypes[i%len(model.ActivityTypes)])
		a.SetHeadline(fmt.Sprintf("Block %d with a rather long headline that needs truncating", i+1))
		m.Activities = append(m.Activities, a)
	}

	if err := ExportLayoutPDF(path, m); err != nil {
		t.Fatalf("ExportLayoutPDF returned error: %v", err)
	}
	assertPDF(t, path)
}

func TestPlacementText(t *testing.T) {
	a := model.Activity{Layout: model.Layout{ColSpan: 2, Row: 3, Col: 1, X: 0, Y: 4, W: 2, H: 3}}

	if got := PlacementText(a, model.ModeSimple); got != "row 3 col 1 span 2" {
		t.Errorf("unexpected simple placement %q", got)
	}
	if got := PlacementText(a, model.ModeCanvas); got != "x0 y4 w2 h3" {
		t.Errorf("unexpected canvas placement %q", got)
	}
}

func TestColorFor(t *testing.T) {
	if colorFor(model.ActivityContent) == colorFor(model.ActivityTitle) {
		t.Error("distinct types should get distinct colors")
	}
	if colorFor("unknown") != blockColors[len(blockColors)-1] {
		t.Error("unknown types should use the fallback color")
	}
}
