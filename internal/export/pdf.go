// Package export renders composer modules to printable review artefacts:
// a PDF layout sheet and QR-coded storyboard cards.
package export

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-pdf/fpdf"
	"github.com/piwi3910/coursefactory/internal/engine"
	"github.com/piwi3910/coursefactory/internal/model"
)

// ErrNoActivities is returned when a module has nothing to render.
var ErrNoActivities = errors.New("module has no activities")

// blockColor represents an RGB color for a rendered block.
type blockColor struct {
	R, G, B int
}

// blockColors is indexed by the position of an activity type in
// model.ActivityTypes.
var blockColors = []blockColor{
	{R: 76, G: 175, B: 80},   // green
	{R: 33, G: 150, B: 243},  // blue
	{R: 255, G: 152, B: 0},   // orange
	{R: 156, G: 39, B: 176},  // purple
	{R: 0, G: 188, B: 212},   // cyan
	{R: 244, G: 67, B: 54},   // red
	{R: 255, G: 235, B: 59},  // yellow
	{R: 121, G: 85, B: 72},   // brown
	{R: 96, G: 125, B: 139},  // slate
	{R: 233, G: 30, B: 99},   // pink
	{R: 139, G: 195, B: 74},  // lime
	{R: 63, G: 81, B: 181},   // indigo
	{R: 255, G: 193, B: 7},   // amber
	{R: 158, G: 158, B: 158}, // grey
}

// colorFor returns the palette color of an activity type.
func colorFor(t model.ActivityType) blockColor {
	for i, known := range model.ActivityTypes {
		if known == t {
			return blockColors[i%len(blockColors)]
		}
	}
	return blockColors[len(blockColors)-1]
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	legendHeight = 20.0
	drawAreaTop  = marginTop + headerHeight + 5.0
	maxRowHeight = 30.0
)

// ExportLayoutPDF writes a review sheet for the module: a wireframe of the
// composer page followed by a block inventory table.
func ExportLayoutPDF(path string, m model.Module) error {
	if len(m.Activities) == 0 {
		return ErrNoActivities
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	pdf.AddPage()
	renderLayoutPage(pdf, m)

	pdf.AddPage()
	renderInventoryPage(pdf, m)

	return pdf.OutputFileAndClose(path)
}

// renderLayoutPage draws the wireframe of the module page.
func renderLayoutPage(pdf *fpdf.Fpdf, m model.Module) {
	page := engine.PageOf(m.Activities, m.ComposerLayout, m.ComposerExtraRows)
	cfg := engine.NormalizeConfig(m.ComposerLayout)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("%s: %s layout, %d columns", m.Name, cfg.Mode, page.Columns)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Blocks: %d | Rows: %d | Extra rows: %d | With content: %d",
		len(m.Activities), page.Rows, max(m.ComposerExtraRows, 0), countWithContent(m.Activities))
	if cfg.Mode == model.ModeCanvas {
		stats += fmt.Sprintf(" | Canvas height: %d px", engine.CanvasHeight(m.Activities, cfg))
	}
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")

	drawWidth := pageWidth - marginLeft - marginRight
	drawHeight := pageHeight - drawAreaTop - marginBottom - legendHeight

	rows := max(page.Rows, 1)
	cellW := drawWidth / float64(page.Columns)
	cellH := math.Min(drawHeight/float64(rows), maxRowHeight)
	canvasW := drawWidth
	canvasH := cellH * float64(rows)
	offsetX := marginLeft
	offsetY := drawAreaTop

	// Page background
	pdf.SetFillColor(245, 245, 245)
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.5)
	pdf.Rect(offsetX, offsetY, canvasW, canvasH, "FD")

	drawGuides(pdf, page.Columns, rows, cellW, cellH, offsetX, offsetY, canvasW, canvasH)

	for i, a := range m.Activities {
		r := page.Rects[i]
		bx := offsetX + float64(r.X)*cellW + 1
		by := offsetY + float64(r.Y)*cellH + 1
		bw := float64(r.W)*cellW - 2
		bh := float64(r.H)*cellH - 2

		col := colorFor(a.Type)
		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.SetDrawColor(30, 30, 30)
		pdf.SetLineWidth(0.3)
		if i == m.ComposerSelectedIndex {
			pdf.SetDrawColor(200, 0, 0)
			pdf.SetLineWidth(0.9)
		}
		pdf.Rect(bx, by, bw, bh, "FD")

		drawBlockLabel(pdf, i, a, bx, by, bw, bh)
	}

	drawTypeLegend(pdf, m.Activities, offsetY+canvasH+5)
}

// drawGuides renders dashed column and row guide lines.
func drawGuides(pdf *fpdf.Fpdf, columns, rows int, cellW, cellH, offsetX, offsetY, canvasW, canvasH float64) {
	pdf.SetDrawColor(190, 190, 190)
	pdf.SetLineWidth(0.15)
	pdf.SetDashPattern([]float64{1, 1}, 0)

	for c := 1; c < columns; c++ {
		x := offsetX + float64(c)*cellW
		pdf.Line(x, offsetY, x, offsetY+canvasH)
	}
	for r := 1; r < rows; r++ {
		y := offsetY + float64(r)*cellH
		pdf.Line(offsetX, y, offsetX+canvasW, y)
	}

	pdf.SetDashPattern([]float64{}, 0)
}

// drawBlockLabel writes the index, type and headline inside a block when
// the rectangle is large enough.
func drawBlockLabel(pdf *fpdf.Fpdf, index int, a model.Activity, x, y, w, h float64) {
	if w < 15 || h < 6 {
		return
	}

	pdf.SetFont("Helvetica", "B", labelFontSize(w, h))
	pdf.SetTextColor(0, 0, 0)
	head := fmt.Sprintf("#%d %s", index+1, a.Type)
	if hw := pdf.GetStringWidth(head); hw < w-2 {
		pdf.SetXY(x+(w-hw)/2, y+h/2-4)
		pdf.CellFormat(hw, 4, head, "", 0, "C", false, 0, "")
	}

	if headline := truncate(pdf, a.Headline(), w-4); headline != "" && h > 12 {
		pdf.SetFont("Helvetica", "", labelFontSize(w, h)-1)
		hw := pdf.GetStringWidth(headline)
		pdf.SetXY(x+(w-hw)/2, y+h/2)
		pdf.CellFormat(hw, 4, headline, "", 0, "C", false, 0, "")
	}
}

// drawTypeLegend renders a compact legend of the activity types on the page.
func drawTypeLegend(pdf *fpdf.Fpdf, activities []model.Activity, startY float64) {
	counts := map[model.ActivityType]int{}
	for _, a := range activities {
		counts[a.Type]++
	}

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, startY)
	pdf.CellFormat(30, 4, "Block types:", "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	xPos := marginLeft + 32
	maxX := pageWidth - marginRight

	for _, t := range model.ActivityTypes {
		n := counts[t]
		if n == 0 {
			continue
		}
		col := colorFor(t)
		label := fmt.Sprintf("%s (%d)", t, n)
		labelW := pdf.GetStringWidth(label) + 6

		if xPos+labelW > maxX {
			startY += 5
			xPos = marginLeft
		}

		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.Rect(xPos, startY+0.5, 3, 3, "F")

		pdf.SetXY(xPos+4, startY)
		pdf.CellFormat(labelW-4, 4, label, "", 0, "L", false, 0, "")

		xPos += labelW + 2
	}
}

var (
	inventoryWidths  = []float64{15, 40, 110, 60, 42}
	inventoryHeaders = []string{"#", "Type", "Title", "Placement", "Content"}
)

// renderInventoryPage lists every block with its placement, continuing on
// new pages as needed.
func renderInventoryPage(pdf *fpdf.Fpdf, m model.Module) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Block Inventory", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := drawInventoryHeader(pdf, marginTop+18)

	mode := engine.NormalizeConfig(m.ComposerLayout).Mode
	pdf.SetFont("Helvetica", "", 9)
	for i, a := range m.Activities {
		if y+6 > pageHeight-marginBottom-6 {
			renderFooter(pdf)
			pdf.AddPage()
			y = drawInventoryHeader(pdf, marginTop)
			pdf.SetFont("Helvetica", "", 9)
		}

		content := "empty"
		if model.ActivityHasUserContent(a) {
			content = "edited"
		}
		rowData := []string{
			fmt.Sprintf("%d", i+1),
			string(a.Type),
			truncate(pdf, a.Headline(), inventoryWidths[2]-2),
			PlacementText(a, mode),
			content,
		}

		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}

		xPos := marginLeft
		for j, cell := range rowData {
			pdf.SetXY(xPos, y)
			align := "C"
			if j == 2 {
				align = "L"
			}
			pdf.CellFormat(inventoryWidths[j], 6, cell, "1", 0, align, true, 0, "")
			xPos += inventoryWidths[j]
		}
		y += 6
	}

	renderFooter(pdf)
}

// drawInventoryHeader draws the table header row and returns the y of the
// first data row.
func drawInventoryHeader(pdf *fpdf.Fpdf, y float64) float64 {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	pdf.SetTextColor(0, 0, 0)
	xPos := marginLeft
	for i, header := range inventoryHeaders {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(inventoryWidths[i], 6, header, "1", 0, "C", true, 0, "")
		xPos += inventoryWidths[i]
	}
	return y + 6
}

func renderFooter(pdf *fpdf.Fpdf) {
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by CourseFactory - Module Composer", "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// PlacementText describes where an activity sits in the given mode.
func PlacementText(a model.Activity, mode model.LayoutMode) string {
	l := a.Layout
	if mode == model.ModeCanvas {
		return fmt.Sprintf("x%d y%d w%d h%d", l.X, l.Y, l.W, l.H)
	}
	return fmt.Sprintf("row %d col %d span %d", l.Row, l.Col, l.ColSpan)
}

// truncate shortens s with an ellipsis until it fits width at the current font.
func truncate(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}

// labelFontSize returns an appropriate font size based on the rectangle dimensions.
func labelFontSize(w, h float64) float64 {
	minDim := math.Min(w, h)
	switch {
	case minDim > 40:
		return 9
	case minDim > 20:
		return 8
	default:
		return 7
	}
}

func countWithContent(activities []model.Activity) int {
	n := 0
	for _, a := range activities {
		if model.ActivityHasUserContent(a) {
			n++
		}
	}
	return n
}
