package printer

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestQRRasterEmitsHeaderAndRows(t *testing.T) {
	raster := qrRaster("https://example.com/r/TRX-20250314-0042")
	if raster == "" {
		t.Fatal("qrRaster() returned empty block")
	}
	if !strings.HasPrefix(raster, "\x1Dv0") {
		t.Fatalf("raster block missing GS v 0 header, got % x", raster[:4])
	}
	if !strings.HasSuffix(raster, CmdLineFeed) {
		t.Error("raster block should end with a line feed")
	}
}

// Text sanitizers between the generators and the wire pass invalid UTF-8
// through untouched and only rewrite valid non-ASCII runes. The module scale
// keeps raster row bytes out of the valid multibyte range; if a scale change
// ever produces byte runs that decode as real runes, the sanitizer would
// corrupt the bitmap.
func TestQRRasterContainsNoMultibyteRunes(t *testing.T) {
	raster := qrRaster("https://example.com/r/TRX-20250314-0042")
	for i := 0; i < len(raster); i++ {
		if r, size := utf8.DecodeRuneInString(raster[i:]); size > 1 {
			t.Fatalf("raster bytes at offset %d decode as rune %q (%d bytes)", i, r, size)
		}
	}
}
