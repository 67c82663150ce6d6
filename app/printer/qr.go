package printer

import (
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// qrModuleScale is the printed pixel size of one QR module. Thermal heads run
// around 8 dots/mm; 4 keeps a version-2 code near 25mm on the roll.
const qrModuleScale = 4

// qrRaster encodes a payload as a QR code and returns it as a GS v 0 raster
// block. Returns "" when encoding fails so receipt generation never fails on
// a bad payload.
func qrRaster(payload string) string {
	qr, err := qrcode.New(payload, qrcode.Medium)
	if err != nil {
		return ""
	}
	bitmap := qr.Bitmap()
	modules := len(bitmap)
	if modules == 0 {
		return ""
	}

	widthPx := modules * qrModuleScale
	heightPx := modules * qrModuleScale
	widthBytes := (widthPx + 7) / 8

	var b strings.Builder
	b.Write(rasterHeader(widthBytes, heightPx))
	for my := 0; my < modules; my++ {
		row := make([]byte, widthBytes)
		for mx := 0; mx < modules; mx++ {
			if !bitmap[my][mx] {
				continue
			}
			for s := 0; s < qrModuleScale; s++ {
				px := mx*qrModuleScale + s
				row[px/8] |= 1 << uint(7-px%8)
			}
		}
		for s := 0; s < qrModuleScale; s++ {
			b.Write(row)
		}
	}
	b.WriteString(CmdLineFeed)
	return b.String()
}
