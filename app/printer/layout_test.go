package printer_test

import (
	"reflect"
	"testing"

	"KantinPos/app/printer"
)

func TestPad_FlushesBothEnds(t *testing.T) {
	got := printer.Pad("Subtotal", "Rp15.000", 24)
	if len(got) != 24 {
		t.Fatalf("Pad() length = %d, want 24", len(got))
	}
	if got != "Subtotal        Rp15.000" {
		t.Errorf("Pad() = %q", got)
	}
}

func TestPad_OverflowKeepsOneSpace(t *testing.T) {
	got := printer.Pad("A very long label here", "Rp1.234.567", 24)
	want := "A very long label here Rp1.234.567"
	if got != want {
		t.Errorf("Pad() = %q, want %q", got, want)
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  []string
	}{
		{"fits", "Nasi Goreng", 24, []string{"Nasi Goreng"}},
		{"greedy", "Makanan Enak Harga Terjangkau", 12, []string{"Makanan Enak", "Harga", "Terjangkau"}},
		{"long word split", "ABCDEFGHIJ", 4, []string{"ABCD", "EFGH", "IJ"}},
		{"empty", "", 24, []string{""}},
		{"whitespace only", "   ", 24, []string{""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := printer.Wrap(tt.text, tt.width)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Wrap(%q, %d) = %v, want %v", tt.text, tt.width, got, tt.want)
			}
		})
	}
}

func TestWrap_NeverExceedsWidth(t *testing.T) {
	for _, line := range printer.Wrap("Es Teh Manis Dingin Spesial Pakai Jeruk", 10) {
		if len(line) > 10 {
			t.Errorf("line %q exceeds width 10", line)
		}
	}
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{0, "Rp0"},
		{500, "Rp500"},
		{15000, "Rp15.000"},
		{4000, "Rp4.000"},
		{1234567, "Rp1.234.567"},
		{999.6, "Rp1.000"},
	}
	for _, tt := range tests {
		if got := printer.FormatCurrency(tt.amount); got != tt.want {
			t.Errorf("FormatCurrency(%v) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestPaymentMethodLabel(t *testing.T) {
	tests := []struct {
		method string
		want   string
	}{
		{"cash", "TUNAI"},
		{"tunai", "TUNAI"},
		{"CASH", "TUNAI"},
		{"qris", "QRIS"},
		{"transfer", "TRANSFER"},
		{"voucher", "VOUCHER"},
	}
	for _, tt := range tests {
		if got := printer.PaymentMethodLabel(tt.method); got != tt.want {
			t.Errorf("PaymentMethodLabel(%q) = %q, want %q", tt.method, got, tt.want)
		}
	}
}

func TestIsCashMethod(t *testing.T) {
	if !printer.IsCashMethod("cash") || !printer.IsCashMethod("Tunai") {
		t.Error("cash variants should be cash methods")
	}
	if printer.IsCashMethod("qris") || printer.IsCashMethod("transfer") {
		t.Error("non-cash methods misclassified")
	}
}

func TestPaperWidth(t *testing.T) {
	if got := printer.Paper58mm.Columns(); got != 24 {
		t.Errorf("58mm columns = %d, want 24", got)
	}
	if got := printer.Paper80mm.Columns(); got != 32 {
		t.Errorf("80mm columns = %d, want 32", got)
	}
	if got := printer.Paper58mm.TopProducts(); got != 5 {
		t.Errorf("58mm top products = %d, want 5", got)
	}
	if got := printer.Paper80mm.TopProducts(); got != 10 {
		t.Errorf("80mm top products = %d, want 10", got)
	}
	if got := printer.PaperWidth("unknown").Columns(); got != 24 {
		t.Errorf("unknown width columns = %d, want narrow fallback 24", got)
	}
}
