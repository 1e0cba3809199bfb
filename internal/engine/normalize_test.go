package engine

import (
	"math/rand"
	"testing"

	"github.com/piwi3910/coursefactory/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simpleConfig(cols int) model.LayoutConfig {
	cfg := model.DefaultLayoutConfig()
	cfg.MaxColumns = cols
	return cfg
}

func canvasConfig(cols int) model.LayoutConfig {
	cfg := simpleConfig(cols)
	cfg.Mode = model.ModeCanvas
	return cfg
}

func TestNormalizeConfig(t *testing.T) {
	cfg := NormalizeConfig(model.LayoutConfig{
		Mode:       "grid",
		MaxColumns: 9,
		RowHeight:  -1,
		Margin:     model.Spacing{X: -3, Y: 4},
	})

	assert.Equal(t, model.ModeSimple, cfg.Mode)
	assert.Equal(t, model.MaxColumns, cfg.MaxColumns)
	assert.Equal(t, model.DefaultRowHeight, cfg.RowHeight)
	assert.Equal(t, model.Spacing{X: 0, Y: 4}, cfg.Margin)

	assert.Equal(t, 2, NormalizeConfig(model.LayoutConfig{}).MaxColumns)
	assert.Equal(t, cfg, NormalizeConfig(cfg))
}

func TestNormalizeActivities_NilYieldsEmpty(t *testing.T) {
	out := NormalizeActivities(nil, simpleConfig(2))
	require.NotNil(t, out)
	assert.Empty(t, out)
}

func TestNormalizeActivities_SimpleWritesPlacement(t *testing.T) {
	acts := []model.Activity{cell("a", 3), cell("b", 0), cell("c", 1)}

	out := NormalizeActivities(acts, simpleConfig(2))

	assert.Equal(t, model.Layout{ColSpan: 2, Row: 1, Col: 1}, out[0].Layout)
	assert.Equal(t, model.Layout{ColSpan: 1, Row: 2, Col: 1}, out[1].Layout)
	assert.Equal(t, model.Layout{ColSpan: 1, Row: 2, Col: 2}, out[2].Layout)
	assert.Equal(t, 3, acts[0].Layout.ColSpan, "input is not modified")
}

func TestNormalizeActivities_PersistedHugeRowPacksSmall(t *testing.T) {
	far := cell("far", 1)
	far.Layout.Row, far.Layout.Col = 20000000, 2
	acts := []model.Activity{cell("a", 1), far}

	out := NormalizeActivities(acts, simpleConfig(2))

	assert.Equal(t, model.Layout{ColSpan: 1, Row: 1, Col: 1}, out[0].Layout)
	assert.Equal(t, model.Layout{ColSpan: 1, Row: 2, Col: 2}, out[1].Layout)
	assert.Equal(t, out, NormalizeActivities(out, simpleConfig(2)))
}

func TestNormalizeActivities_CanvasDerivesGeometry(t *testing.T) {
	acts := []model.Activity{cell("a", 1), cell("b", 1), cell("c", 2)}

	out := NormalizeActivities(acts, canvasConfig(2))

	assert.Equal(t, Rect{0, 0, 1, 2}, RectOf(out[0]))
	assert.Equal(t, Rect{1, 0, 1, 2}, RectOf(out[1]))
	assert.Equal(t, Rect{0, 2, 2, 2}, RectOf(out[2]))
	assert.Equal(t, 3, out[2].Layout.Row)
}

func TestNormalizeActivities_CanvasSettlesOverlap(t *testing.T) {
	acts := []model.Activity{box("a", 0, 0, 2, 2), box("b", 1, 1, 1, 1), box("c", -2, 0, 6, 0)}

	out := NormalizeActivities(acts, canvasConfig(2))

	assert.Equal(t, Rect{0, 0, 2, 2}, RectOf(out[0]))
	assert.Equal(t, Rect{1, 2, 1, 1}, RectOf(out[1]))
	assert.Equal(t, Rect{0, 3, 2, 1}, RectOf(out[2]))
	requireClear(t, out, 2)
}

func TestNormalizeActivities_Idempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for iter := 0; iter < 200; iter++ {
		cols := 1 + rng.Intn(model.MaxColumns)
		acts := make([]model.Activity, 1+rng.Intn(8))
		for i := range acts {
			acts[i] = cell(model.NewID(), rng.Intn(6)-1)
			if rng.Intn(2) == 0 {
				acts[i].Layout.Row = rng.Intn(4)
				acts[i].Layout.Col = rng.Intn(5)
			}
			if rng.Intn(3) == 0 {
				acts[i] = box(acts[i].ID, rng.Intn(5)-1, rng.Intn(5), rng.Intn(6), rng.Intn(4))
			}
		}

		for _, cfg := range []model.LayoutConfig{simpleConfig(cols), canvasConfig(cols)} {
			once := NormalizeActivities(acts, cfg)
			twice := NormalizeActivities(once, cfg)
			require.Equal(t, once, twice, "iteration %d mode %s", iter, cfg.Mode)

			for _, a := range once {
				if cfg.Mode == model.ModeSimple {
					assert.GreaterOrEqual(t, a.Layout.Row, 1)
					assert.LessOrEqual(t, a.Layout.Col+a.Layout.ColSpan-1, cols)
				}
			}
			if cfg.Mode == model.ModeCanvas {
				requireClear(t, once, cols)
			}
		}
	}
}

func TestClampedSpans(t *testing.T) {
	acts := []model.Activity{cell("a", 1), cell("b", 4), box("c", 0, 0, 3, 1)}

	assert.Equal(t, []int{1, 2}, ClampedSpans(acts, 2))
	assert.Empty(t, ClampedSpans(acts, 4))
}

func TestChangeMode_RoundTrip(t *testing.T) {
	cfg := simpleConfig(2)
	acts := NormalizeActivities([]model.Activity{cell("a", 1), cell("b", 1), cell("c", 1)}, cfg)

	canvas, ccfg := ChangeMode(acts, cfg, model.ModeCanvas)
	require.Equal(t, model.ModeCanvas, ccfg.Mode)
	assert.Equal(t, Rect{0, 0, 1, 2}, RectOf(canvas[0]))
	assert.Equal(t, Rect{1, 0, 1, 2}, RectOf(canvas[1]))
	assert.Equal(t, Rect{0, 2, 1, 2}, RectOf(canvas[2]))

	simple, scfg := ChangeMode(canvas, ccfg, model.ModeSimple)
	require.Equal(t, model.ModeSimple, scfg.Mode)
	for i := range acts {
		assert.Equal(t, acts[i].Layout.Row, simple[i].Layout.Row)
		assert.Equal(t, acts[i].Layout.Col, simple[i].Layout.Col)
		assert.Equal(t, acts[i].Layout.ColSpan, simple[i].Layout.ColSpan)
	}
}

func TestChangeMode_SameModeNormalizes(t *testing.T) {
	acts, cfg := ChangeMode([]model.Activity{cell("a", 7)}, simpleConfig(3), model.ModeSimple)

	assert.Equal(t, model.ModeSimple, cfg.Mode)
	assert.Equal(t, 3, acts[0].Layout.ColSpan)
}

func TestChangeColumns_ClampsSpans(t *testing.T) {
	acts := NormalizeActivities([]model.Activity{cell("a", 3), cell("b", 1)}, simpleConfig(4))

	out, cfg := ChangeColumns(acts, simpleConfig(4), 2)

	assert.Equal(t, 2, cfg.MaxColumns)
	assert.Equal(t, 2, out[0].Layout.ColSpan)
	for _, a := range out {
		assert.LessOrEqual(t, a.Layout.Col+a.Layout.ColSpan-1, 2)
	}
}

func TestSetCanvasMetricsAndHeight(t *testing.T) {
	cfg := SetCanvasMetrics(canvasConfig(2), 60, model.Spacing{X: 8, Y: 10}, model.Spacing{X: -1, Y: 12})

	assert.Equal(t, 60, cfg.RowHeight)
	assert.Equal(t, model.Spacing{X: 0, Y: 12}, cfg.ContainerPadding)

	acts := []model.Activity{box("a", 0, 0, 1, 2), box("b", 1, 1, 1, 2)}
	assert.Equal(t, 3*60+2*10+2*12, CanvasHeight(acts, cfg))
	assert.Equal(t, 24, CanvasHeight(nil, cfg))
}
