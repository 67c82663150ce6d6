package printer_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"KantinPos/app/printer"
)

func sampleDailyReport() printer.DailyReportData {
	top := make([]printer.TopProduct, 12)
	for i := range top {
		top[i] = printer.TopProduct{
			Name:     fmt.Sprintf("Produk %02d", i+1),
			Quantity: 20 - i,
			Revenue:  float64((20 - i) * 10000),
		}
	}
	return printer.DailyReportData{
		Date:              time.Date(2025, 3, 14, 0, 0, 0, 0, time.Local),
		PrintedAt:         time.Date(2025, 3, 14, 21, 5, 0, 0, time.Local),
		CashierName:       "Budi",
		TotalTransactions: 87,
		TotalRevenue:      4350000,
		AvgTransaction:    50000,
		CashAmount:        2000000,
		CashCount:         40,
		QRISAmount:        2350000,
		QRISCount:         47,
		TopProducts:       top,
	}
}

func TestGenerateDailyReport_TopProductsPerPaperWidth(t *testing.T) {
	data := sampleDailyReport()

	s := printer.DefaultSettings()
	s.Paper = printer.Paper58mm
	narrow := printer.GenerateDailyReport(data, s)
	if !strings.Contains(narrow, "Produk 05") {
		t.Error("58mm report missing 5th top product")
	}
	if strings.Contains(narrow, "Produk 06") {
		t.Error("58mm report must cut top products at 5")
	}

	s.Paper = printer.Paper80mm
	wide := printer.GenerateDailyReport(data, s)
	if !strings.Contains(wide, "Produk 10") {
		t.Error("80mm report missing 10th top product")
	}
	if strings.Contains(wide, "Produk 11") {
		t.Error("80mm report must cut top products at 10")
	}
}

func TestGenerateDailyReport_Sections(t *testing.T) {
	data := sampleDailyReport()
	got := printer.GenerateDailyReport(data, printer.DefaultSettings())

	for _, want := range []string{
		"LAPORAN HARIAN",
		"Tanggal: 14 March 2025",
		"Kasir: Budi",
		"RINGKASAN",
		"Total Transaksi: 87",
		"Rp4.350.000",
		"METODE BAYAR",
		"Tunai (40x)",
		"QRIS (47x)",
		"TOP PRODUK",
		"Laporan Valid",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("daily report missing %q", want)
		}
	}

	// Optional sections stay out when their data is absent.
	for _, absent := range []string{"PROFIT", "PROMOSI", "CATATAN", "KATEGORI"} {
		if strings.Contains(got, absent) {
			t.Errorf("daily report contains empty section %q", absent)
		}
	}
	if !strings.HasSuffix(got, printer.CmdCutPaper) {
		t.Error("daily report does not end with the cut sequence")
	}
}

func TestGenerateDailyReport_OptionalSections(t *testing.T) {
	data := sampleDailyReport()
	profit := 1200000.0
	data.Profit = &profit
	data.TotalCost = 3150000
	data.Margin = 27.6
	data.PromotionDiscount = 45000
	data.TransactionsWithPromo = 9
	data.FoodRevenue = 3000000
	data.FoodCount = 60
	data.DrinkRevenue = 1350000
	data.DrinkCount = 27
	data.Notes = []string{"Stok ayam menipis"}

	got := printer.GenerateDailyReport(data, printer.DefaultSettings())
	for _, want := range []string{
		"PROFIT",
		"Rp1.200.000",
		"Margin: 27.6%",
		"PROMOSI",
		"9/87 transaksi",
		"KATEGORI",
		"Makanan (60x)",
		"Minuman (27x)",
		"CATATAN",
		"Stok ayam menipis",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("daily report missing %q", want)
		}
	}
}

func TestGenerateProductSalesReport(t *testing.T) {
	data := printer.ProductSalesReportData{
		Period:    "Mingguan",
		StartDate: time.Date(2025, 3, 8, 0, 0, 0, 0, time.Local),
		EndDate:   time.Date(2025, 3, 14, 0, 0, 0, 0, time.Local),
		Products: []printer.ProductSalesItem{
			{ProductName: "Nasi Goreng Spesial", TotalQuantity: 40, TotalRevenue: 1000000},
			{ProductName: "Es Teh Manis", TotalQuantity: 55, TotalRevenue: 440000},
		},
		TotalItems:   95,
		TotalRevenue: 1440000,
		CashCount:    50,
		CashTotal:    800000,
		QRISCount:    30,
		QRISTotal:    640000,
		CashierName:  "Budi",
		PrintedAt:    time.Date(2025, 3, 14, 21, 5, 0, 0, time.Local),
	}
	got := printer.GenerateProductSalesReport(data, printer.DefaultSettings())

	for _, want := range []string{
		"LAPORAN PENJUALAN PRODUK",
		"Periode: Mingguan",
		"Dari: 08/03/2025",
		"Sampai: 14/03/2025",
		"1. Nasi Goreng Spesial",
		"40 pcs x Rp25.000",
		"2. Es Teh Manis",
		"55 pcs x Rp8.000",
		"RINGKASAN",
		"Jenis Produk: 2",
		"Total Item: 95 pcs",
		"METODE PEMBAYARAN",
		"Tunai: 50 trx",
		"QRIS: 30 trx",
		"TOTAL PENJUALAN:",
		"Rp1.440.000",
		"Oleh: Budi",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("sales report missing %q", want)
		}
	}
}

func TestGenerateProductSalesReport_CapsProductRows(t *testing.T) {
	products := make([]printer.ProductSalesItem, 60)
	for i := range products {
		products[i] = printer.ProductSalesItem{
			ProductName:   fmt.Sprintf("Item %02d", i+1),
			TotalQuantity: 1,
			TotalRevenue:  1000,
		}
	}
	data := printer.ProductSalesReportData{
		Period:    "Bulanan",
		Products:  products,
		PrintedAt: time.Date(2025, 3, 14, 21, 5, 0, 0, time.Local),
	}
	got := printer.GenerateProductSalesReport(data, printer.DefaultSettings())

	if !strings.Contains(got, "Item 50") {
		t.Error("report missing 50th product row")
	}
	if strings.Contains(got, "Item 51") {
		t.Error("report must cap product rows at 50")
	}
	// The summary still reflects the full product count.
	if !strings.Contains(got, "Jenis Produk: 60") {
		t.Error("summary must count all products, not only printed rows")
	}
}
