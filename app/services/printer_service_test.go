package services

import (
	"strings"
	"testing"
	"time"

	"KantinPos/app/printer"
)

func TestSanitizeReplacesUnprintableText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"ascii untouched", "Nasi Goreng Rp15.000\n", "Nasi Goreng Rp15.000\n"},
		{"accents folded", "Café Olé", "Cafe Ole"},
		{"smart quotes", "“Gratis”", "\"Gratis\""},
		{"unknown rune becomes space", "Sate★Ayam", "Sate Ayam"},
		{"control bytes pass", "\x1B@\x1Da\x01", "\x1B@\x1Da\x01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitize(tt.in); got != tt.want {
				t.Errorf("sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizePreservesQRRaster(t *testing.T) {
	data := printer.ReceiptData{
		TransactionNumber: "TRX-20250314120000",
		Date:              time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC),
		Items: []printer.ReceiptItem{
			{Name: "Nasi Goreng", Quantity: 1, Price: 15000},
		},
		Subtotal:      15000,
		Total:         15000,
		PaymentMethod: "qris",
		PaymentAmount: 15000,
		QRPayload:     "https://example.com/r/TRX-20250314120000",
	}

	doc := printer.GenerateCashierReceipt(data, printer.DefaultSettings())
	if !strings.Contains(doc, "\x1Dv0") {
		t.Fatal("expected a raster block in the document")
	}
	if got := sanitize(doc); got != doc {
		t.Error("sanitize altered a document of ASCII text and raster bytes")
	}
}
