package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/piwi3910/coursefactory/internal/engine"
	"github.com/piwi3910/coursefactory/internal/model"
	qrcode "github.com/skip2/go-qrcode"
)

// CardInfo holds the data printed on a storyboard card and encoded into
// its QR code.
type CardInfo struct {
	Module     string `json:"module"`
	Index      int    `json:"index"`
	ID         string `json:"id"`
	Type       string `json:"type"`
	Title      string `json:"title,omitempty"`
	Placement  string `json:"placement"`
	HasContent bool   `json:"has_content"`
}

// Card layout constants for 8-up index cards (2 columns, 4 rows per page)
// on A4 paper, compatible with Avery L7165 sheets.
const (
	cardMarginTop  = 13.1
	cardMarginLeft = 4.65
	cardWidth      = 99.1
	cardHeight     = 67.7
	cardCols       = 2
	cardRows       = 4
	cardsPerPage   = cardCols * cardRows
	qrSize         = 28.0
	cardPadding    = 3.0
	thumbWidth     = 40.0
	thumbHeight    = 20.0
)

// CollectCards returns one card per activity in module order.
func CollectCards(m model.Module) []CardInfo {
	mode := engine.NormalizeConfig(m.ComposerLayout).Mode
	cards := make([]CardInfo, 0, len(m.Activities))
	for i, a := range m.Activities {
		cards = append(cards, CardInfo{
			Module:     m.Name,
			Index:      i + 1,
			ID:         a.ID,
			Type:       string(a.Type),
			Title:      a.Headline(),
			Placement:  PlacementText(a, mode),
			HasContent: model.ActivityHasUserContent(a),
		})
	}
	return cards
}

// ExportCards generates a PDF of storyboard cards, one per activity. Each
// card shows the block's title, type and placement, a thumbnail of where
// it sits on the page, and a QR code encoding the card as JSON.
func ExportCards(path string, m model.Module) error {
	if len(m.Activities) == 0 {
		return ErrNoActivities
	}

	cards := CollectCards(m)
	page := engine.PageOf(m.Activities, m.ComposerLayout, m.ComposerExtraRows)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, card := range cards {
		if i%cardsPerPage == 0 {
			pdf.AddPage()
		}

		posOnPage := i % cardsPerPage
		col := posOnPage % cardCols
		row := posOnPage / cardCols

		x := cardMarginLeft + float64(col)*cardWidth
		y := cardMarginTop + float64(row)*cardHeight

		if err := renderCard(pdf, x, y, card, page, i); err != nil {
			return fmt.Errorf("failed to render card %d: %w", card.Index, err)
		}
	}

	return pdf.OutputFileAndClose(path)
}

// renderCard draws a single card at the given position.
func renderCard(pdf *fpdf.Fpdf, x, y float64, info CardInfo, page engine.Page, index int) error {
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, cardWidth, cardHeight, "D")

	qrData, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal card info: %w", err)
	}
	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	imgName := fmt.Sprintf("qr_%d_%s", info.Index, info.ID)
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))

	qrX := x + cardWidth - qrSize - cardPadding
	qrY := y + cardPadding
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + cardPadding
	textW := cardWidth - qrSize - 3*cardPadding

	// Type band
	col := colorFor(model.ActivityType(info.Type))
	pdf.SetFillColor(col.R, col.G, col.B)
	pdf.Rect(textX, y+cardPadding, textW, 5, "F")
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX+1, y+cardPadding)
	pdf.CellFormat(textW-2, 5, fmt.Sprintf("#%d  %s", info.Index, info.Type), "", 0, "L", false, 0, "")

	title := info.Title
	if title == "" {
		title = "(untitled)"
	}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetXY(textX, y+cardPadding+7)
	pdf.CellFormat(textW, 5, truncate(pdf, title, textW), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetXY(textX, y+cardPadding+13)
	pdf.CellFormat(textW, 4, info.Placement, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+cardPadding+17.5)
	status := "Default content"
	if info.HasContent {
		status = "Content edited"
	}
	pdf.CellFormat(textW, 3.5, fmt.Sprintf("%s | %s", info.Module, status), "", 1, "L", false, 0, "")

	drawThumbnail(pdf, x+cardPadding, y+cardHeight-thumbHeight-cardPadding, page, index)

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetXY(qrX, qrY+qrSize+1)
	pdf.CellFormat(qrSize, 3, info.ID, "", 0, "C", false, 0, "")

	pdf.SetTextColor(0, 0, 0)
	return nil
}

// drawThumbnail renders the page footprint in miniature with the card's
// own block highlighted.
func drawThumbnail(pdf *fpdf.Fpdf, x, y float64, page engine.Page, highlight int) {
	rows := max(page.Rows, 1)
	cellW := thumbWidth / float64(max(page.Columns, 1))
	cellH := thumbHeight / float64(rows)

	pdf.SetFillColor(250, 250, 250)
	pdf.SetDrawColor(160, 160, 160)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, thumbWidth, thumbHeight, "FD")

	for i, r := range page.Rects {
		if i == highlight {
			pdf.SetFillColor(244, 67, 54)
		} else {
			pdf.SetFillColor(200, 200, 200)
		}
		pdf.Rect(x+float64(r.X)*cellW+0.3, y+float64(r.Y)*cellH+0.3, float64(r.W)*cellW-0.6, float64(r.H)*cellH-0.6, "F")
	}
}
