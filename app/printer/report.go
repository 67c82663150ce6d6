package printer

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// ProductSalesItem is one aggregated product row on a sales report.
type ProductSalesItem struct {
	ProductName   string  `json:"product_name"`
	TotalQuantity int     `json:"total_quantity"`
	TotalRevenue  float64 `json:"total_revenue"`
}

// ProductSalesReportData is the input to the per-product sales report.
type ProductSalesReportData struct {
	Period    string    `json:"period"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`

	Products     []ProductSalesItem `json:"products"`
	TotalItems   int                `json:"total_items"`
	TotalRevenue float64            `json:"total_revenue"`

	CashCount int     `json:"cash_count"`
	CashTotal float64 `json:"cash_total"`
	QRISCount int     `json:"qris_count"`
	QRISTotal float64 `json:"qris_total"`

	PromotionDiscount     float64 `json:"promotion_discount"`
	TransactionsWithPromo int     `json:"transactions_with_promo"`
	TotalTransactions     int     `json:"total_transactions"`

	CashierName string    `json:"cashier_name,omitempty"`
	PrintedAt   time.Time `json:"printed_at"`
}

// maxReportProducts bounds a report so a runaway query cannot print a
// shop-length roll of paper.
const maxReportProducts = 50

// GenerateProductSalesReport renders the per-product aggregate report:
// wrapped product name, quantity x derived unit price, subtotal, then a
// summary and grand-total block.
func GenerateProductSalesReport(data ProductSalesReportData, settings Settings) string {
	cols := settings.Paper.Columns()
	sep := separator(cols)
	light := lightSeparator(cols)

	var b strings.Builder
	b.WriteString(CmdInit)

	b.WriteString(CmdAlignCenter + CmdLineFeed)
	b.WriteString("KANTIN POS\n")
	b.WriteString("LAPORAN PENJUALAN PRODUK\n")
	b.WriteString(CmdLineFeed)

	b.WriteString(CmdAlignLeft)
	b.WriteString("Periode: " + data.Period + "\n")
	if !data.StartDate.IsZero() && !data.EndDate.IsZero() {
		b.WriteString("Dari: " + data.StartDate.Format("02/01/2006") + "\n")
		b.WriteString("Sampai: " + data.EndDate.Format("02/01/2006") + "\n")
	} else {
		b.WriteString("Tanggal: " + data.PrintedAt.Format("02/01/2006") + "\n")
	}
	b.WriteString(light)
	b.WriteString(CmdLineFeed)

	b.WriteString(CmdAlignCenter)
	b.WriteString("PRODUK TERJUAL\n")
	b.WriteString(CmdAlignLeft)
	b.WriteString(light)

	products := data.Products
	if len(products) > maxReportProducts {
		products = products[:maxReportProducts]
	}
	for idx, p := range products {
		unitPrice := 0.0
		if p.TotalQuantity > 0 {
			unitPrice = math.Round(p.TotalRevenue / float64(p.TotalQuantity))
		}
		for i, line := range Wrap(p.ProductName, cols-3) {
			if i == 0 {
				b.WriteString(fmt.Sprintf("%d. %s\n", idx+1, line))
			} else {
				b.WriteString("   " + line + "\n")
			}
		}
		b.WriteString(fmt.Sprintf("   %d pcs x %s\n", p.TotalQuantity, FormatCurrency(unitPrice)))
		b.WriteString(Pad("   =", FormatCurrency(p.TotalRevenue), cols) + "\n")
		b.WriteString(CmdLineFeed)
	}

	b.WriteString(sep)
	b.WriteString("RINGKASAN\n")
	b.WriteString(light)
	b.WriteString(fmt.Sprintf("Jenis Produk: %d\n", len(data.Products)))
	b.WriteString(fmt.Sprintf("Total Item: %d pcs\n", data.TotalItems))
	b.WriteString(light)

	if data.CashCount > 0 || data.QRISCount > 0 {
		b.WriteString("METODE PEMBAYARAN\n")
		if data.CashCount > 0 {
			b.WriteString(fmt.Sprintf("Tunai: %d trx\n", data.CashCount))
			b.WriteString("  " + FormatCurrency(data.CashTotal) + "\n")
		}
		if data.QRISCount > 0 {
			b.WriteString(fmt.Sprintf("QRIS: %d trx\n", data.QRISCount))
			b.WriteString("  " + FormatCurrency(data.QRISTotal) + "\n")
		}
		b.WriteString(light)
	}

	if data.PromotionDiscount > 0 {
		b.WriteString("Diskon Promo:\n")
		b.WriteString("  " + FormatCurrency(data.PromotionDiscount) + "\n")
		if data.TransactionsWithPromo > 0 && data.TotalTransactions > 0 {
			b.WriteString("Trx dgn Promo:\n")
			b.WriteString(fmt.Sprintf("  %d/%d\n", data.TransactionsWithPromo, data.TotalTransactions))
		}
		b.WriteString(light)
	}

	b.WriteString(CmdLineFeed)
	b.WriteString("TOTAL PENJUALAN:\n")
	b.WriteString(FormatCurrency(data.TotalRevenue) + "\n")
	b.WriteString(sep)
	b.WriteString(CmdLineFeed)

	b.WriteString(CmdAlignCenter)
	b.WriteString("Dicetak: " + data.PrintedAt.Format("02/01/2006 15:04") + "\n")
	if data.CashierName != "" {
		b.WriteString("Oleh: " + data.CashierName + "\n")
	}
	b.WriteString(CmdLineFeed3)
	b.WriteString(CmdCutPaper)
	return b.String()
}

// TopProduct is one entry in the daily report's top-sellers list.
type TopProduct struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Revenue  float64 `json:"revenue"`
}

// DailyReportData is the input to the end-of-day summary report.
type DailyReportData struct {
	Date        time.Time `json:"date"`
	PrintedAt   time.Time `json:"printed_at"`
	CashierName string    `json:"cashier_name"`
	Shift       string    `json:"shift,omitempty"`

	TotalTransactions int     `json:"total_transactions"`
	TotalRevenue      float64 `json:"total_revenue"`
	AvgTransaction    float64 `json:"avg_transaction"`

	CashAmount     float64 `json:"cash_amount"`
	CashCount      int     `json:"cash_count"`
	QRISAmount     float64 `json:"qris_amount"`
	QRISCount      int     `json:"qris_count"`
	TransferAmount float64 `json:"transfer_amount"`
	TransferCount  int     `json:"transfer_count"`

	TopProducts []TopProduct `json:"top_products"`

	FoodRevenue  float64 `json:"food_revenue"`
	FoodCount    int     `json:"food_count"`
	DrinkRevenue float64 `json:"drink_revenue"`
	DrinkCount   int     `json:"drink_count"`

	TotalCost float64  `json:"total_cost"`
	Profit    *float64 `json:"profit,omitempty"`
	Margin    float64  `json:"margin"`

	PromotionDiscount     float64 `json:"promotion_discount"`
	TransactionsWithPromo int     `json:"transactions_with_promo"`

	Notes []string `json:"notes,omitempty"`
}

// GenerateDailyReport renders the end-of-day cashier summary. The top-products
// section is cut to 5 entries on 58mm paper and 10 on 80mm.
func GenerateDailyReport(data DailyReportData, settings Settings) string {
	cols := settings.Paper.Columns()
	sep := separator(cols)

	section := func(b *strings.Builder, title string) {
		b.WriteString(CmdAlignCenter)
		b.WriteString(sep)
		b.WriteString(title + "\n")
		b.WriteString(sep)
		b.WriteString(CmdAlignLeft)
	}

	var b strings.Builder
	b.WriteString(CmdInit)

	b.WriteString(CmdAlignCenter)
	b.WriteString(sep)
	b.WriteString("LAPORAN HARIAN\n")
	storeName := settings.StoreName
	if storeName == "" {
		storeName = "KANTIN POS"
	}
	b.WriteString(storeName + "\n")
	b.WriteString(sep)
	b.WriteString(CmdLineFeed)

	b.WriteString(CmdAlignLeft)
	b.WriteString("Tanggal: " + data.Date.Format("02 January 2006") + "\n")
	b.WriteString("Waktu: " + data.PrintedAt.Format("15:04:05") + "\n")
	b.WriteString("Kasir: " + data.CashierName + "\n")
	if data.Shift != "" {
		b.WriteString("Shift: " + data.Shift + "\n")
	}
	b.WriteString(CmdLineFeed)

	section(&b, "RINGKASAN")
	b.WriteString(fmt.Sprintf("Total Transaksi: %d\n", data.TotalTransactions))
	b.WriteString("Total Pendapatan:\n")
	b.WriteString("  " + FormatCurrency(data.TotalRevenue) + "\n")
	b.WriteString("Rata-rata/Trx:\n")
	b.WriteString("  " + FormatCurrency(data.AvgTransaction) + "\n")
	b.WriteString(CmdLineFeed)

	section(&b, "METODE BAYAR")
	b.WriteString(fmt.Sprintf("Tunai (%dx)\n", data.CashCount))
	b.WriteString("  " + FormatCurrency(data.CashAmount) + "\n")
	b.WriteString(fmt.Sprintf("QRIS (%dx)\n", data.QRISCount))
	b.WriteString("  " + FormatCurrency(data.QRISAmount) + "\n")
	b.WriteString(fmt.Sprintf("Transfer (%dx)\n", data.TransferCount))
	b.WriteString("  " + FormatCurrency(data.TransferAmount) + "\n")
	b.WriteString(CmdLineFeed)

	section(&b, "TOP PRODUK")
	top := data.TopProducts
	if n := settings.Paper.TopProducts(); len(top) > n {
		top = top[:n]
	}
	for idx, p := range top {
		for i, line := range Wrap(p.Name, cols-3) {
			if i == 0 {
				b.WriteString(fmt.Sprintf("%d. %s\n", idx+1, line))
			} else {
				b.WriteString("   " + line + "\n")
			}
		}
		b.WriteString(fmt.Sprintf("  %d pcs - %s\n", p.Quantity, FormatCurrency(p.Revenue)))
		b.WriteString(CmdLineFeed)
	}

	if data.FoodRevenue > 0 || data.DrinkRevenue > 0 {
		section(&b, "KATEGORI")
		if data.FoodRevenue > 0 {
			b.WriteString(fmt.Sprintf("Makanan (%dx)\n", data.FoodCount))
			b.WriteString("  " + FormatCurrency(data.FoodRevenue) + "\n")
		}
		if data.DrinkRevenue > 0 {
			b.WriteString(fmt.Sprintf("Minuman (%dx)\n", data.DrinkCount))
			b.WriteString("  " + FormatCurrency(data.DrinkRevenue) + "\n")
		}
		b.WriteString(CmdLineFeed)
	}

	if data.Profit != nil {
		section(&b, "PROFIT")
		b.WriteString("Modal:\n")
		b.WriteString("  " + FormatCurrency(data.TotalCost) + "\n")
		b.WriteString("Profit Kotor:\n")
		b.WriteString("  " + FormatCurrency(*data.Profit) + "\n")
		if data.Margin != 0 {
			b.WriteString(fmt.Sprintf("Margin: %.1f%%\n", data.Margin))
		}
		b.WriteString(CmdLineFeed)
	}

	if data.PromotionDiscount > 0 {
		section(&b, "PROMOSI")
		b.WriteString("Total Diskon Promo:\n")
		b.WriteString("  " + FormatCurrency(data.PromotionDiscount) + "\n")
		if data.TransactionsWithPromo > 0 && data.TotalTransactions > 0 {
			b.WriteString("Transaksi dgn Promo:\n")
			b.WriteString(fmt.Sprintf("  %d/%d transaksi\n", data.TransactionsWithPromo, data.TotalTransactions))
		}
		b.WriteString(CmdLineFeed)
	}

	if len(data.Notes) > 0 {
		section(&b, "CATATAN")
		for _, note := range data.Notes {
			for i, line := range Wrap("- "+note, cols) {
				if i == 0 {
					b.WriteString(line + "\n")
				} else {
					b.WriteString("  " + line + "\n")
				}
			}
		}
		b.WriteString(CmdLineFeed)
	}

	b.WriteString(CmdAlignCenter)
	b.WriteString(sep)
	b.WriteString("Laporan Valid\n")
	b.WriteString("Dicetak Otomatis\n")
	b.WriteString(sep)
	b.WriteString(CmdLineFeed)
	b.WriteString("Powered by KantinPOS\n")
	b.WriteString(fmt.Sprintf("(c) %d\n", data.PrintedAt.Year()))
	b.WriteString(CmdLineFeed3)
	b.WriteString(CmdCutPaper)
	return b.String()
}
