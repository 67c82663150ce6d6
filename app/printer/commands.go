package printer

import "strings"

// ESC/POS control bytes
const (
	ESC byte = 0x1B
	GS  byte = 0x1D
	NL  byte = 0x0A
)

// Command vocabulary. These are the literal ESC/POS sequences emitted into the
// generated receipt stream; thermal printer vendors implement this dialect
// near-universally, so the table is a fixed constant rather than configuration.
const (
	CmdInit        = "\x1B@"
	CmdAlignLeft   = "\x1Ba\x00"
	CmdAlignCenter = "\x1Ba\x01"
	CmdAlignRight  = "\x1Ba\x02"
	CmdBoldOn      = "\x1BE\x01"
	CmdBoldOff     = "\x1BE\x00"
	CmdFontNormal  = "\x1D!\x00"
	CmdFontDouble  = "\x1D!\x11"
	CmdFontLarge   = "\x1D!\x22"
	CmdCutPaper    = "\x1DV\x41\x00"
	CmdLineFeed    = "\n"
	CmdLineFeed3   = "\n\n\n"
)

// Feed returns n line feeds.
func Feed(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(CmdLineFeed, n)
}

// rasterHeader builds the GS v 0 raster bitmap header for a monochrome image
// of the given pixel dimensions. widthBytes is the row stride in bytes.
func rasterHeader(widthBytes, height int) []byte {
	return []byte{
		GS, 'v', '0', 0,
		byte(widthBytes % 256), byte(widthBytes / 256),
		byte(height % 256), byte(height / 256),
	}
}
