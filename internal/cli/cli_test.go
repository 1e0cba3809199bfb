package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/piwi3910/coursefactory/internal/composer"
	"github.com/piwi3910/coursefactory/internal/model"
	"github.com/piwi3910/coursefactory/internal/project"
)

// runCLI executes the root command with an isolated config directory and
// returns the command output.
func runCLI(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var logs, out bytes.Buffer
	c := New(&logs, log.InfoLevel)
	root := c.RootCommand()
	root.SetOut(&out)
	root.SetErr(&logs)
	root.SetArgs(append([]string{"--config", filepath.Join(dir, "config.yaml")}, args...))
	err := root.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := runCLI(t, dir, args...)
	if err != nil {
		t.Fatalf("%s: %v", strings.Join(args, " "), err)
	}
	return out
}

func loadModule(t *testing.T, path string) model.Module {
	t.Helper()
	m, err := project.LoadModule(path)
	if err != nil {
		t.Fatalf("LoadModule failed: %v", err)
	}
	return m
}

// lessonModule creates a two-column module with a wide title, a content
// block and an image.
func lessonModule(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "week1.json")
	mustRun(t, dir, "new", path)
	mustRun(t, dir, "add", path, "title", "--title", "Welcome", "--span", "2")
	mustRun(t, dir, "add", path, "content")
	mustRun(t, dir, "add", path, "image")
	return path
}

func TestSetVersion(t *testing.T) {
	SetVersion("1.0.0", "abc123", "2024-01-01")
	defer SetVersion("dev", "none", "unknown")

	if version != "1.0.0" || commit != "abc123" || date != "2024-01-01" {
		t.Errorf("unexpected version info %q %q %q", version, commit, date)
	}
}

func TestNewCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "intro.json")

	mustRun(t, dir, "new", path, "--columns", "3")

	m := loadModule(t, path)
	if m.Name != "intro" {
		t.Errorf("expected name from file, got %q", m.Name)
	}
	if m.ComposerLayout.MaxColumns != 3 {
		t.Errorf("expected 3 columns, got %d", m.ComposerLayout.MaxColumns)
	}

	cfg, err := project.LoadAppConfig(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.RecentModules) != 1 || cfg.RecentModules[0] != path {
		t.Errorf("expected module in recent list, got %v", cfg.RecentModules)
	}

	if _, err := runCLI(t, dir, "new", path); err == nil {
		t.Error("expected error for existing module")
	}
}

func TestNewCommand_FromTemplate(t *testing.T) {
	dir := t.TempDir()
	path := lessonModule(t, dir)
	mustRun(t, dir, "template", "save", path, "Lesson", "-d", "Standard lesson")

	out := mustRun(t, dir, "template", "list")
	if !strings.Contains(out, "Lesson") || !strings.Contains(out, "Standard lesson") {
		t.Errorf("template list missing entry:\n%s", out)
	}

	other := filepath.Join(dir, "week2.json")
	mustRun(t, dir, "new", other, "--template", "Lesson")

	src, dst := loadModule(t, path), loadModule(t, other)
	if len(dst.Activities) != 3 {
		t.Fatalf("expected 3 blocks from template, got %d", len(dst.Activities))
	}
	for i := range dst.Activities {
		if dst.Activities[i].ID == src.Activities[i].ID {
			t.Errorf("block %d should get a fresh id", i+1)
		}
		if dst.Activities[i].Type != src.Activities[i].Type {
			t.Errorf("block %d type mismatch", i+1)
		}
	}

	if _, err := runCLI(t, dir, "new", filepath.Join(dir, "x.json"), "--template", "Missing"); err == nil {
		t.Error("expected error for unknown template")
	}
}

func TestAddMoveDelete(t *testing.T) {
	dir := t.TempDir()
	path := lessonModule(t, dir)

	m := loadModule(t, path)
	if len(m.Activities) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(m.Activities))
	}
	if m.ComposerSelectedIndex != 2 {
		t.Errorf("expected the last added block selected, got %d", m.ComposerSelectedIndex)
	}

	mustRun(t, dir, "move", path, "3", "left")
	m = loadModule(t, path)
	if l := m.Activities[2].Layout; l.Row != 2 || l.Col != 1 {
		t.Errorf("expected image at (2,1), got (%d,%d)", l.Row, l.Col)
	}
	if l := m.Activities[1].Layout; l.Row != 3 || l.Col != 1 {
		t.Errorf("expected displaced content at (3,1), got (%d,%d)", l.Row, l.Col)
	}

	if _, err := runCLI(t, dir, "delete", path, "1"); err == nil {
		t.Error("deleting a block with content should need --force")
	}
	mustRun(t, dir, "delete", path, "1", "--force")
	if m = loadModule(t, path); len(m.Activities) != 2 {
		t.Errorf("expected 2 blocks after delete, got %d", len(m.Activities))
	}

	_, err := runCLI(t, dir, "delete", path, "7")
	if !errors.Is(err, composer.ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestAddCommand_UnknownType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "m.json")
	mustRun(t, dir, "new", path)

	if _, err := runCLI(t, dir, "add", path, "video"); err == nil {
		t.Error("expected error for unknown type")
	}
	mustRun(t, dir, "add", path, "quiz")
	if m := loadModule(t, path); m.Activities[0].Type != model.ActivityKnowledgeCheck {
		t.Errorf("expected alias to map to knowledge_check, got %s", m.Activities[0].Type)
	}
}

func TestPlaceDuplicateReorderSelect(t *testing.T) {
	dir := t.TempDir()
	path := lessonModule(t, dir)
	first := loadModule(t, path).Activities[0].ID

	mustRun(t, dir, "place", path, "2", "3", "2")
	if l := loadModule(t, path).Activities[1].Layout; l.Row != 3 || l.Col != 2 {
		t.Errorf("expected content at (3,2), got (%d,%d)", l.Row, l.Col)
	}

	mustRun(t, dir, "duplicate", path, "3")
	m := loadModule(t, path)
	if len(m.Activities) != 4 || m.Activities[3].Type != model.ActivityImage {
		t.Fatalf("expected image copy at the end, got %+v", m.Activities)
	}
	if m.ComposerSelectedIndex != 3 {
		t.Errorf("expected the copy selected, got %d", m.ComposerSelectedIndex)
	}

	mustRun(t, dir, "reorder", path, "1", "4")
	if m = loadModule(t, path); m.Activities[3].ID != first {
		t.Error("expected the title to move to the end of the list")
	}

	mustRun(t, dir, "select", path, "0")
	if m = loadModule(t, path); m.ComposerSelectedIndex != -1 {
		t.Errorf("expected cleared selection, got %d", m.ComposerSelectedIndex)
	}
}

func TestLayoutSettings(t *testing.T) {
	dir := t.TempDir()
	path := lessonModule(t, dir)

	mustRun(t, dir, "columns", path, "9")
	if m := loadModule(t, path); m.ComposerLayout.MaxColumns != model.MaxColumns {
		t.Errorf("expected columns clamped to %d, got %d", model.MaxColumns, m.ComposerLayout.MaxColumns)
	}

	mustRun(t, dir, "rows", path, "2")
	if m := loadModule(t, path); m.ComposerExtraRows != 2 {
		t.Errorf("expected 2 extra rows, got %d", m.ComposerExtraRows)
	}

	mustRun(t, dir, "mode", path, "canvas")
	m := loadModule(t, path)
	if m.ComposerLayout.Mode != model.ModeCanvas {
		t.Fatalf("expected canvas mode, got %s", m.ComposerLayout.Mode)
	}
	for i, a := range m.Activities {
		if !a.Layout.HasCanvas() {
			t.Errorf("block %d has no canvas geometry", i+1)
		}
	}

	mustRun(t, dir, "metrics", path, "--row-height", "60", "--margin", "8")
	m = loadModule(t, path)
	if m.ComposerLayout.RowHeight != 60 || m.ComposerLayout.Margin.X != 8 {
		t.Errorf("unexpected metrics %+v", m.ComposerLayout)
	}

	if _, err := runCLI(t, dir, "metrics", path); err == nil {
		t.Error("expected error when no metric is given")
	}
	if _, err := runCLI(t, dir, "mode", path, "grid"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestResizeCommand(t *testing.T) {
	dir := t.TempDir()
	path := lessonModule(t, dir)

	mustRun(t, dir, "resize", path, "2", "2")
	if l := loadModule(t, path).Activities[1].Layout; l.ColSpan != 2 {
		t.Errorf("expected span 2, got %d", l.ColSpan)
	}
}

func TestDragCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "canvas.json")
	mustRun(t, dir, "new", path, "--mode", "canvas")
	for i := 0; i < 3; i++ {
		mustRun(t, dir, "add", path, "content")
	}

	m := loadModule(t, path)
	if l := m.Activities[2].Layout; l.X != 0 || l.Y != 2 {
		t.Fatalf("expected third block at (0,2), got (%d,%d)", l.X, l.Y)
	}

	// The first waypoint swaps with block 2; only the final one counts.
	mustRun(t, dir, "drag", path, "3", "1,0", "1,2")
	m = loadModule(t, path)
	if l := m.Activities[2].Layout; l.X != 1 || l.Y != 2 {
		t.Errorf("expected third block at (1,2), got (%d,%d)", l.X, l.Y)
	}
	if l := m.Activities[1].Layout; l.X != 1 || l.Y != 0 {
		t.Errorf("expected second block back at (1,0), got (%d,%d)", l.X, l.Y)
	}

	if _, err := runCLI(t, dir, "drag", path, "3", "oops"); err == nil {
		t.Error("expected error for malformed waypoint")
	}
}

func TestDragCommand_SimpleMode(t *testing.T) {
	dir := t.TempDir()
	path := lessonModule(t, dir)

	_, err := runCLI(t, dir, "drag", path, "1", "0,1")
	if !errors.Is(err, composer.ErrNotCanvas) {
		t.Errorf("expected ErrNotCanvas, got %v", err)
	}
}

func TestShowCommand(t *testing.T) {
	dir := t.TempDir()
	path := lessonModule(t, dir)

	out := mustRun(t, dir, "show", path)
	for _, want := range []string{"week1 (simple, 2 columns, 3 blocks)", "#1 title", "Welcome", "* #3"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}
}

func TestImportCommand(t *testing.T) {
	dir := t.TempDir()
	outline := filepath.Join(dir, "outline.csv")
	csv := "Type,Title,Span\ntitle,Unit 3,2\ncontent,Reading,1\nvideo,Clip,1\n"
	if err := os.WriteFile(outline, []byte(csv), 0644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "unit3.json")

	mustRun(t, dir, "import", outline, path)
	m := loadModule(t, path)
	if len(m.Activities) != 3 {
		t.Fatalf("expected 3 imported blocks, got %d", len(m.Activities))
	}
	if m.Activities[0].Headline() != "Unit 3" || m.Activities[0].Layout.ColSpan != 2 {
		t.Errorf("unexpected first block %+v", m.Activities[0])
	}

	mustRun(t, dir, "import", outline, path, "--append")
	if m = loadModule(t, path); len(m.Activities) != 6 {
		t.Errorf("expected 6 blocks after append, got %d", len(m.Activities))
	}

	mustRun(t, dir, "import", outline, path)
	if m = loadModule(t, path); len(m.Activities) != 3 {
		t.Errorf("expected import to replace blocks, got %d", len(m.Activities))
	}
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	path := lessonModule(t, dir)

	mustRun(t, dir, "export", "pdf", path)
	if _, err := os.Stat(filepath.Join(dir, "week1.layout.pdf")); err != nil {
		t.Errorf("layout sheet not written: %v", err)
	}

	cards := filepath.Join(dir, "out", "cards.pdf")
	if err := os.MkdirAll(filepath.Dir(cards), 0755); err != nil {
		t.Fatal(err)
	}
	mustRun(t, dir, "export", "cards", path, "-o", cards)
	if _, err := os.Stat(cards); err != nil {
		t.Errorf("cards not written: %v", err)
	}

	if _, err := runCLI(t, dir, "export", "svg", path); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestProfileCommands(t *testing.T) {
	dir := t.TempDir()
	path := lessonModule(t, dir)

	mustRun(t, dir, "profile", "capture", path, "lesson")
	if m := loadModule(t, path); len(m.TemplateLayoutProfiles["lesson"].Entries) != 3 {
		t.Errorf("expected captured profile in module, got %+v", m.TemplateLayoutProfiles)
	}
	lib, err := project.LoadProfiles(project.ProfilesPath(dir))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := lib["lesson"]; !ok {
		t.Fatal("expected captured profile in library")
	}

	shared := filepath.Join(dir, "lesson.profile.json")
	mustRun(t, dir, "profile", "export", "lesson", shared)

	other := t.TempDir()
	mustRun(t, other, "profile", "import", shared)
	page := filepath.Join(other, "week2.json")
	mustRun(t, other, "new", page)
	mustRun(t, other, "add", page, "title")
	mustRun(t, other, "profile", "apply", page, "lesson")

	m := loadModule(t, page)
	if m.TemplateOverride != "lesson" {
		t.Errorf("expected template override, got %q", m.TemplateOverride)
	}

	_, err = runCLI(t, other, "profile", "apply", page, "missing")
	if !errors.Is(err, composer.ErrUnknownProfile) {
		t.Errorf("expected ErrUnknownProfile, got %v", err)
	}
}

func TestConfigCommands(t *testing.T) {
	dir := t.TempDir()

	mustRun(t, dir, "config", "init")
	if _, err := runCLI(t, dir, "config", "init"); err == nil {
		t.Error("expected error when config exists")
	}
	mustRun(t, dir, "config", "init", "--force")

	out := mustRun(t, dir, "config", "show")
	if !strings.Contains(out, "history_depth: 120") {
		t.Errorf("config show missing defaults:\n%s", out)
	}
}

func TestBackupCommands(t *testing.T) {
	dir := t.TempDir()
	path := lessonModule(t, dir)
	mustRun(t, dir, "template", "save", path, "Lesson")
	mustRun(t, dir, "profile", "capture", path, "lesson")

	backup := filepath.Join(dir, "backup.json")
	mustRun(t, dir, "backup", "export", backup)

	restored := t.TempDir()
	mustRun(t, restored, "backup", "import", backup)

	store, err := project.LoadTemplates(project.TemplatesPath(restored))
	if err != nil {
		t.Fatal(err)
	}
	if store.FindByName("Lesson") == nil {
		t.Error("expected template restored")
	}
	lib, err := project.LoadProfiles(project.ProfilesPath(restored))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := lib["lesson"]; !ok {
		t.Error("expected profile restored")
	}
}

func TestTemplateDeleteAndInsert(t *testing.T) {
	dir := t.TempDir()
	path := lessonModule(t, dir)
	mustRun(t, dir, "template", "save", path, "Lesson")

	mustRun(t, dir, "template", "insert", path, "Lesson")
	if m := loadModule(t, path); len(m.Activities) != 6 {
		t.Errorf("expected 6 blocks after insert, got %d", len(m.Activities))
	}

	mustRun(t, dir, "template", "delete", "Lesson")
	if _, err := runCLI(t, dir, "template", "delete", "Lesson"); err == nil {
		t.Error("expected error deleting a missing template")
	}
}

func TestParseBlock(t *testing.T) {
	tests := []struct {
		in      string
		n       int
		want    int
		wantErr bool
	}{
		{"1", 3, 0, false},
		{"3", 3, 2, false},
		{"0", 3, 0, true},
		{"4", 3, 0, true},
		{"x", 3, 0, true},
	}
	for _, tt := range tests {
		got, err := parseBlock(tt.in, tt.n)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseBlock(%q, %d) error = %v, wantErr %v", tt.in, tt.n, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("parseBlock(%q, %d) = %d, want %d", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestParsePoints(t *testing.T) {
	points, err := parsePoints([]string{"1,2", " 3 , 0 "})
	if err != nil {
		t.Fatalf("parsePoints failed: %v", err)
	}
	if len(points) != 2 || points[0] != [2]int{1, 2} || points[1] != [2]int{3, 0} {
		t.Errorf("unexpected points %v", points)
	}

	for _, bad := range []string{"1", "a,b", "1;2"} {
		if _, err := parsePoints([]string{bad}); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestTabCommands(t *testing.T) {
	dir := t.TempDir()
	path := lessonModule(t, dir)

	if _, err := runCLI(t, dir, "show", path, "--tab", "learn"); !errors.Is(err, model.ErrUnknownTab) {
		t.Errorf("expected ErrUnknownTab before any tab exists, got %v", err)
	}

	mustRun(t, dir, "tab", "create", path, "learn", "1", "2", "--label", "Learn")
	mustRun(t, dir, "tab", "create", path, "practice", "3")

	m := loadModule(t, path)
	if m.Tabs == nil || m.Tabs.Canonical != "learn" || len(m.Tabs.Tabs) != 2 {
		t.Fatalf("unexpected tabs %+v", m.Tabs)
	}
	if l := m.Activities[2].Layout; l.Row != 1 || l.Col != 1 {
		t.Errorf("practice tab should be laid out on its own, image at (%d,%d)", l.Row, l.Col)
	}

	mustRun(t, dir, "add", path, "quiz", "--tab", "practice")
	m = loadModule(t, path)
	if len(m.Activities) != 4 || m.Activities[3].Type != model.ActivityKnowledgeCheck {
		t.Fatalf("expected the quiz appended after the image, got %d blocks", len(m.Activities))
	}
	if l := m.Activities[3].Layout; l.Row != 1 || l.Col != 2 {
		t.Errorf("expected quiz at (1,2) of the practice tab, got (%d,%d)", l.Row, l.Col)
	}
	if ids := m.Tabs.FindTab("practice").ActivityIDs; len(ids) != 2 || ids[1] != m.Activities[3].ID {
		t.Errorf("quiz should join the practice tab, got %v", ids)
	}

	// Without --tab, block numbers count the canonical tab only.
	mustRun(t, dir, "move", path, "2", "up")
	m = loadModule(t, path)
	if l := m.Activities[1].Layout; l.Row != 1 || l.Col != 1 {
		t.Errorf("expected content at (1,1), got (%d,%d)", l.Row, l.Col)
	}
	if l := m.Activities[0].Layout; l.Row != 2 {
		t.Errorf("expected title pushed to row 2, got %d", l.Row)
	}
	if l := m.Activities[2].Layout; l.Row != 1 || l.Col != 1 {
		t.Errorf("practice tab should be untouched, image at (%d,%d)", l.Row, l.Col)
	}

	out := mustRun(t, dir, "show", path, "--tab", "practice")
	for _, want := range []string{"tab practice: practice", "week1 (simple, 2 columns, 2 blocks)", "knowledge_check"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}

	out = mustRun(t, dir, "tab", "list", path)
	for _, want := range []string{"learn", "Learn", "1 2", "3 4"} {
		if !strings.Contains(out, want) {
			t.Errorf("tab list missing %q:\n%s", want, out)
		}
	}

	mustRun(t, dir, "tab", "canonical", path, "practice")
	if m = loadModule(t, path); m.Tabs.Canonical != "practice" {
		t.Errorf("canonical = %q", m.Tabs.Canonical)
	}

	mustRun(t, dir, "tab", "delete", path, "practice")
	m = loadModule(t, path)
	if m.Tabs == nil || len(m.Tabs.Tabs) != 1 || m.Tabs.Canonical != "learn" {
		t.Errorf("unexpected tabs after delete %+v", m.Tabs)
	}
	if _, err := runCLI(t, dir, "tab", "delete", path, "practice"); !errors.Is(err, model.ErrUnknownTab) {
		t.Errorf("expected ErrUnknownTab, got %v", err)
	}
}

func TestPlaceCommand_HugeRowOpensOneRow(t *testing.T) {
	dir := t.TempDir()
	path := lessonModule(t, dir)

	mustRun(t, dir, "place", path, "3", "20000000", "1")

	m := loadModule(t, path)
	if l := m.Activities[2].Layout; l.Row != 3 || l.Col != 1 {
		t.Errorf("expected image on the first new row (3,1), got (%d,%d)", l.Row, l.Col)
	}
	out := mustRun(t, dir, "show", path)
	if got := strings.Count(out, "\n|"); got != 3 {
		t.Errorf("expected 3 grid rows, got %d:\n%s", got, out)
	}
}
