package calendar

import (
	"bytes"
	"fmt"
	"image/color"
	"sync"
	"time"

	"github.com/DJCodeOne/freshwax-sub008/internal/model"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

const (
	imageWidth      = 900
	headerHeight    = 90
	rowHeight       = 34
	leftLabelsWidth = 90
	legendHeight    = 60
	rowPaddingX     = 10
	cellRadius      = 6.0
	shadowOffset    = 2.0

	titleFontSize  = 26.0
	labelFontSize  = 16.0
	cellFontSize   = 15.0
	legendFontSize = 13.0
)

var (
	bgColor          = color.RGBA{24, 24, 27, 255}
	textColor        = color.RGBA{235, 235, 235, 255}
	hourLabelColor   = color.RGBA{160, 160, 165, 255}
	rowLineColor     = color.NRGBA{70, 70, 75, 255}
	currentTimeColor = color.NRGBA{255, 80, 80, 220}
	shadowColor      = color.RGBA{0, 0, 0, 60}

	availableColor = color.RGBA{46, 125, 50, 230}
	bookedColor    = color.RGBA{183, 28, 28, 230}
	ownColor       = color.RGBA{21, 101, 192, 230}
	selectedColor  = color.RGBA{255, 193, 7, 240}
	pastColor      = color.RGBA{66, 66, 66, 200}
)

type fontStyle int

const (
	fontRegular fontStyle = iota
	fontBold
)

var (
	fontsMu     sync.Mutex
	cachedFonts = make(map[fontStyle]*opentype.Font)
)

// loadFont sets a Go font face of the given size, falling back to basicfont.
func loadFont(dc *gg.Context, size float64, style fontStyle) {
	fontsMu.Lock()
	f, ok := cachedFonts[style]
	if !ok {
		data := goregular.TTF
		if style == fontBold {
			data = gobold.TTF
		}
		parsed, err := opentype.Parse(data)
		if err == nil {
			cachedFonts[style] = parsed
			f = parsed
		}
	}
	fontsMu.Unlock()

	if f != nil {
		face, err := opentype.NewFace(f, &opentype.FaceOptions{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err == nil {
			dc.SetFontFace(face)
			return
		}
	}
	dc.SetFontFace(basicfont.Face7x13)
}

// RenderPNG draws the grid as classified for viewerID at now.
func (c *Calendar) RenderPNG(now time.Time, slots []*model.Slot, viewerID string) ([]byte, error) {
	cells := c.Cells(now, slots, viewerID)
	height := headerHeight + CellCount*rowHeight + legendHeight

	dc := gg.NewContext(imageWidth, height)
	dc.SetColor(bgColor)
	dc.Clear()

	c.drawHeader(dc)
	for _, cell := range cells {
		drawRow(dc, cell)
	}
	c.drawCurrentTime(dc, now)
	drawLegend(dc, height)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode calendar png: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *Calendar) drawHeader(dc *gg.Context) {
	title := c.anchor.Format("Monday 2 January")
	loadFont(dc, titleFontSize, fontBold)
	dc.SetColor(textColor)
	dc.DrawStringAnchored(title, imageWidth/2, headerHeight/2-8, 0.5, 0.5)

	loadFont(dc, labelFontSize, fontRegular)
	dc.SetColor(hourLabelColor)
	sub := fmt.Sprintf("09:00 - 08:00 %s · %s", c.loc.String(), c.Summary())
	dc.DrawStringAnchored(sub, imageWidth/2, headerHeight/2+20, 0.5, 0.5)
}

func rowY(idx int) float64 {
	return float64(headerHeight + idx*rowHeight)
}

func drawRow(dc *gg.Context, cell Cell) {
	y := rowY(cell.Index)

	loadFont(dc, labelFontSize, fontRegular)
	dc.SetColor(hourLabelColor)
	dc.DrawStringAnchored(cell.Label(), float64(leftLabelsWidth)-12, y+rowHeight/2, 1, 0.35)

	dc.SetLineWidth(0.5)
	dc.SetColor(rowLineColor)
	dc.DrawLine(leftLabelsWidth, y, imageWidth-rowPaddingX, y)
	dc.Stroke()

	x := float64(leftLabelsWidth + rowPaddingX)
	w := float64(imageWidth - leftLabelsWidth - 2*rowPaddingX)
	h := float64(rowHeight - 6)
	fill := stateColor(cell.State)

	dc.SetColor(shadowColor)
	dc.DrawRoundedRectangle(x+shadowOffset, y+3+shadowOffset, w, h, cellRadius)
	dc.Fill()

	dc.SetColor(fill)
	dc.DrawRoundedRectangle(x, y+3, w, h, cellRadius)
	dc.Fill()

	dc.SetColor(darkenColor(fill, 0.7))
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(x, y+3, w, h, cellRadius)
	dc.Stroke()

	loadFont(dc, cellFontSize, fontBold)
	if cell.State == CellSelected {
		dc.SetColor(bgColor)
	} else {
		dc.SetColor(textColor)
	}
	dc.DrawStringAnchored(cellText(cell), x+12, y+rowHeight/2, 0, 0.35)
}

func cellText(cell Cell) string {
	text := fmt.Sprintf("%s - %s  %s", cell.Start.Format("15:04"), cell.End.Format("15:04"), cell.State)
	if cell.DJName != "" {
		name := cell.DJName
		if len(name) > 28 {
			name = name[:25] + "..."
		}
		text += "  " + name
	}
	return text
}

func stateColor(state CellState) color.RGBA {
	switch state {
	case CellBooked:
		return bookedColor
	case CellOwnBooking:
		return ownColor
	case CellSelected:
		return selectedColor
	case CellPast:
		return pastColor
	default:
		return availableColor
	}
}

func darkenColor(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}

// drawCurrentTime draws a line at now when it falls inside the grid.
func (c *Calendar) drawCurrentTime(dc *gg.Context, now time.Time) {
	start, end := c.Window()
	if now.Before(start) || !now.Before(end) {
		return
	}
	offset := now.Sub(start).Hours()
	y := float64(headerHeight) + offset*rowHeight

	dc.SetColor(currentTimeColor)
	dc.SetLineWidth(2)
	dc.DrawLine(leftLabelsWidth, y, imageWidth-rowPaddingX, y)
	dc.Stroke()
}

func drawLegend(dc *gg.Context, height int) {
	items := []struct {
		label string
		clr   color.Color
	}{
		{"available", availableColor},
		{"selected", selectedColor},
		{"yours", ownColor},
		{"booked", bookedColor},
		{"past", pastColor},
	}

	loadFont(dc, legendFontSize, fontRegular)
	x := float64(leftLabelsWidth)
	y := float64(height-legendHeight) + 24
	for _, item := range items {
		dc.SetColor(item.clr)
		dc.DrawRoundedRectangle(x, y, 20, 14, 3)
		dc.Fill()

		dc.SetColor(hourLabelColor)
		dc.DrawStringAnchored(item.label, x+28, y+8, 0, 0.35)
		x += 140
	}
}
