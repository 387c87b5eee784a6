package report

import (
	"bytes"
	"fmt"
	"image/color"
	"image/png"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// Preview card geometry
const (
	PreviewWidth  = 800
	PreviewHeight = 460

	bannerX = 40
	bannerY = 120
	bannerW = 220
	bannerH = 50
)

// Preview renders a summary card of the report as PNG
func Preview(doc Document) ([]byte, error) {
	dc := gg.NewContext(PreviewWidth, PreviewHeight)

	dc.SetColor(color.White)
	dc.Clear()

	dc.SetRGB255(headerColor.r, headerColor.g, headerColor.b)
	dc.DrawRectangle(0, 0, PreviewWidth, 70)
	dc.Fill()

	if err := setFont(dc, gobold.TTF, 26); err != nil {
		return nil, err
	}
	dc.SetColor(color.White)
	dc.DrawStringAnchored(doc.Title, 40, 35, 0, 0.5)

	if err := setFont(dc, goregular.TTF, 18); err != nil {
		return nil, err
	}
	dc.SetColor(color.Black)
	dc.DrawString("Patient: "+doc.PatientName, 40, 105)

	c := doc.bannerColor()
	dc.SetRGB255(c.r, c.g, c.b)
	dc.DrawRoundedRectangle(bannerX, bannerY, bannerW, bannerH, 8)
	dc.Fill()
	dc.SetColor(color.White)
	dc.DrawStringAnchored(doc.Risk, bannerX+bannerW/2, bannerY+bannerH/2, 0.5, 0.5)

	dc.SetColor(color.Black)
	if doc.Confidence > 0 {
		dc.DrawString(fmt.Sprintf("Confidence: %.0f%%", doc.Confidence*100), bannerX+bannerW+20, bannerY+bannerH/2+6)
	}

	// Feature column on the right, recommendations below the banner
	y := 210.0
	for _, r := range doc.Features {
		if r.Value == "" {
			continue
		}
		dc.DrawString(fmt.Sprintf("%s: %s", r.Label, r.Value), 470, y)
		y += 26
	}

	if err := setFont(dc, goregular.TTF, 15); err != nil {
		return nil, err
	}
	y = 210
	for _, rec := range doc.Recommendations {
		dc.DrawStringWrapped("• "+rec, 40, y, 0, 0, 400, 1.3, gg.AlignLeft)
		y += 40
	}

	dc.SetRGB255(120, 120, 120)
	dc.DrawString(doc.Footer, 40, PreviewHeight-20)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}
	return buf.Bytes(), nil
}

func setFont(dc *gg.Context, ttf []byte, size float64) error {
	font, err := truetype.Parse(ttf)
	if err != nil {
		return fmt.Errorf("failed to parse font: %w", err)
	}
	dc.SetFontFace(truetype.NewFace(font, &truetype.Options{Size: size}))
	return nil
}
