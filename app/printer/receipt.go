package printer

import (
	"fmt"
	"strings"
	"time"
)

// ReceiptItem is one sold line on a receipt.
type ReceiptItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Variant  string  `json:"variant,omitempty"`
}

// Subtotal is the rendered line total. Generators render, they never
// recompute document-level totals.
func (i ReceiptItem) Subtotal() float64 {
	return i.Price * float64(i.Quantity)
}

// displayName folds the variant into the item name unless the name already
// carries a parenthesized segment, which is treated as an embedded variant.
// Prevents output like "Kopi (Large) (Large)".
func (i ReceiptItem) displayName() string {
	if i.Variant == "" || hasEmbeddedVariant(i.Name) {
		return i.Name
	}
	return i.Name + " (" + i.Variant + ")"
}

func hasEmbeddedVariant(name string) bool {
	return strings.Contains(name, "(") && strings.Contains(name, ")")
}

// ReceiptData is the semantic content of one printed cashier document.
// Totals are computed upstream (total = subtotal + tax + service - discount);
// generators only lay them out.
type ReceiptData struct {
	TransactionNumber string    `json:"transaction_number"`
	Date              time.Time `json:"date"`

	Items []ReceiptItem `json:"items"`

	Subtotal          float64 `json:"subtotal"`
	Tax               float64 `json:"tax"`
	TaxRate           float64 `json:"tax_rate"`
	ServiceCharge     float64 `json:"service_charge"`
	PromotionCode     string  `json:"promotion_code,omitempty"`
	PromotionDiscount float64 `json:"promotion_discount,omitempty"`
	Total             float64 `json:"total"`

	PaymentMethod string  `json:"payment_method"`
	PaymentAmount float64 `json:"payment_amount"`
	ChangeAmount  float64 `json:"change_amount"`

	CashierName  string `json:"cashier_name,omitempty"`
	CustomerName string `json:"customer_name,omitempty"`
	EarnedPoints int    `json:"earned_points,omitempty"`
	TotalPoints  int    `json:"total_points,omitempty"`

	// QRPayload, when set, is rendered as a raster QR code above the footer.
	QRPayload string `json:"qr_payload,omitempty"`
}

// GenerateCashierReceipt renders the full customer-facing receipt as a single
// ESC/POS command string, terminated by the cut sequence.
func GenerateCashierReceipt(data ReceiptData, settings Settings) string {
	cols := settings.Paper.Columns()
	sep := separator(cols)
	light := lightSeparator(cols)

	var b strings.Builder
	b.WriteString(CmdInit)

	// Header block, centered, all free text wrapped to the paper width.
	b.WriteString(CmdAlignCenter)
	header := settings.Header
	if header == "" {
		header = settings.StoreName
	}
	for _, line := range Wrap(header, cols) {
		b.WriteString(line + "\n")
	}
	if settings.Tagline != "" {
		for _, line := range Wrap(settings.Tagline, cols) {
			b.WriteString(line + "\n")
		}
	}
	if settings.StoreAddress != "" {
		for _, line := range Wrap(settings.StoreAddress, cols) {
			b.WriteString(line + "\n")
		}
	}
	if settings.StorePhone != "" {
		b.WriteString(settings.StorePhone + "\n")
	}
	b.WriteString(sep)

	// Transaction info.
	b.WriteString(CmdAlignLeft)
	b.WriteString("No: " + data.TransactionNumber + "\n")
	b.WriteString("Tgl: " + data.Date.Format("02/01/2006 15:04") + "\n")
	if data.CashierName != "" {
		b.WriteString("Kasir: " + data.CashierName + "\n")
	}
	if data.CustomerName != "" {
		b.WriteString("Cust: " + data.CustomerName + "\n")
	}
	b.WriteString(light)

	// Items: wrapped name, then qty x unit price padded against the line total.
	for idx, item := range data.Items {
		for _, line := range Wrap(item.displayName(), cols) {
			b.WriteString(line + "\n")
		}
		qtyPrice := fmt.Sprintf("%dx%s", item.Quantity, FormatCurrency(item.Price))
		b.WriteString(Pad(qtyPrice, FormatCurrency(item.Subtotal()), cols) + "\n")
		if idx < len(data.Items)-1 {
			b.WriteString("\n")
		}
	}

	// Totals. Zero-value lines are omitted, never printed as Rp0.
	b.WriteString(light)
	b.WriteString(Pad("Subtotal", FormatCurrency(data.Subtotal), cols) + "\n")
	if data.PromotionDiscount > 0 {
		label := "Diskon Promo"
		if data.PromotionCode != "" {
			label = "Promo(" + data.PromotionCode + ")"
		}
		b.WriteString(Pad(label, "-"+FormatCurrency(data.PromotionDiscount), cols) + "\n")
	}
	if data.Tax > 0 {
		label := "Pajak"
		if data.TaxRate > 0 {
			label = fmt.Sprintf("Pajak(%g%%)", data.TaxRate)
		}
		b.WriteString(Pad(label, FormatCurrency(data.Tax), cols) + "\n")
	}
	if data.ServiceCharge > 0 {
		b.WriteString(Pad("Service", FormatCurrency(data.ServiceCharge), cols) + "\n")
	}
	b.WriteString(sep)
	b.WriteString(Pad("TOTAL", FormatCurrency(data.Total), cols) + "\n")
	b.WriteString(sep)

	// Payment block; tendered and change lines are cash-only.
	b.WriteString(Pad("Bayar", PaymentMethodLabel(data.PaymentMethod), cols) + "\n")
	if IsCashMethod(data.PaymentMethod) {
		b.WriteString(Pad("Uang", FormatCurrency(data.PaymentAmount), cols) + "\n")
		b.WriteString(Pad("Kembali", FormatCurrency(data.ChangeAmount), cols) + "\n")
	}

	// Loyalty block only when points were earned.
	if data.EarnedPoints > 0 {
		b.WriteString(light)
		b.WriteString(Pad("Poin+", fmt.Sprintf("%d", data.EarnedPoints), cols) + "\n")
		if data.TotalPoints > 0 {
			b.WriteString(Pad("Total Poin", fmt.Sprintf("%d", data.TotalPoints), cols) + "\n")
		}
	}
	b.WriteString(sep)

	// Footer.
	b.WriteString(CmdAlignCenter)
	footer := settings.Footer
	if footer == "" {
		footer = "Terima Kasih!"
	}
	for _, line := range Wrap(footer, cols) {
		b.WriteString(line + "\n")
	}

	if data.QRPayload != "" {
		if qr := qrRaster(data.QRPayload); qr != "" {
			b.WriteString(CmdLineFeed)
			b.WriteString(qr)
		}
	}

	b.WriteString(CmdLineFeed3)
	b.WriteString("Powered by KantinPOS\n")
	b.WriteString(CmdLineFeed3)
	b.WriteString(CmdCutPaper)
	return b.String()
}

// KitchenItem is one prep line on a kitchen ticket. No prices.
type KitchenItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Variant  string `json:"variant,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// KitchenReceiptData is the content of a kitchen prep ticket.
type KitchenReceiptData struct {
	OrderNumber  string        `json:"order_number"`
	Date         time.Time     `json:"date"`
	Items        []KitchenItem `json:"items"`
	CustomerName string        `json:"customer_name,omitempty"`
	TableNumber  string        `json:"table_number,omitempty"`
	Notes        string        `json:"notes,omitempty"`
}

// GenerateKitchenReceipt renders the abbreviated prep ticket: quantities and
// names only, variants on an indented sub-line unless already embedded in the
// name, ending with a total item count.
func GenerateKitchenReceipt(data KitchenReceiptData, settings Settings) string {
	cols := settings.Paper.Columns()
	light := lightSeparator(cols)

	var b strings.Builder
	b.WriteString(CmdInit)

	b.WriteString(CmdAlignCenter + CmdFontDouble + CmdLineFeed)
	b.WriteString(CmdBoldOn)
	b.WriteString("=== DAPUR ===\n")
	b.WriteString(CmdBoldOff)
	b.WriteString(CmdFontNormal + CmdLineFeed)

	header := settings.Header
	if header == "" {
		header = settings.StoreName
	}
	b.WriteString(CmdBoldOn)
	b.WriteString(header + "\n")
	b.WriteString(CmdBoldOff)
	b.WriteString(light)

	b.WriteString(CmdAlignLeft + CmdLineFeed)
	b.WriteString(CmdBoldOn)
	b.WriteString("Order #" + data.OrderNumber + "\n")
	b.WriteString(CmdBoldOff)
	b.WriteString(data.Date.Format("15:04") + "\n")
	if data.TableNumber != "" {
		b.WriteString("Meja: " + data.TableNumber + "\n")
	}
	if data.CustomerName != "" {
		b.WriteString("Customer: " + data.CustomerName + "\n")
	}
	b.WriteString(CmdLineFeed + light)

	b.WriteString(CmdLineFeed)
	total := 0
	for idx, item := range data.Items {
		total += item.Quantity
		b.WriteString(CmdBoldOn)
		b.WriteString(fmt.Sprintf("%dx  %s\n", item.Quantity, item.Name))
		b.WriteString(CmdBoldOff)
		if item.Variant != "" && !hasEmbeddedVariant(item.Name) {
			b.WriteString("     > " + item.Variant + "\n")
		}
		if item.Notes != "" {
			b.WriteString("     Catatan: " + item.Notes + "\n")
		}
		if idx < len(data.Items)-1 {
			b.WriteString(CmdLineFeed)
		}
	}

	if data.Notes != "" {
		b.WriteString(CmdLineFeed + light)
		b.WriteString(CmdBoldOn + "CATATAN:\n" + CmdBoldOff)
		for _, line := range Wrap(data.Notes, cols) {
			b.WriteString(line + "\n")
		}
	}

	b.WriteString(CmdLineFeed + light)
	b.WriteString(CmdAlignCenter + CmdBoldOn)
	b.WriteString(fmt.Sprintf("TOTAL: %d ITEM\n", total))
	b.WriteString(CmdBoldOff)
	b.WriteString(CmdLineFeed3)
	b.WriteString(CmdCutPaper)
	return b.String()
}

// GenerateTestReceipt renders the connectivity check page. The only dynamic
// content is the supplied clock reading.
func GenerateTestReceipt(settings Settings, now time.Time) string {
	cols := settings.Paper.Columns()
	sep := separator(cols)
	light := lightSeparator(cols)

	var b strings.Builder
	b.WriteString(CmdInit)
	b.WriteString(CmdAlignCenter + CmdLineFeed)

	b.WriteString(sep)
	b.WriteString(CmdBoldOn + "TEST PRINT\n" + CmdBoldOff)
	b.WriteString(sep)
	b.WriteString(CmdLineFeed)

	b.WriteString(CmdBoldOn + "SUKSES!\n" + CmdBoldOff)
	b.WriteString(CmdLineFeed)
	b.WriteString("Printer berhasil terhubung\n")
	b.WriteString("dan siap digunakan!\n")

	b.WriteString(CmdLineFeed + light + CmdLineFeed)
	b.WriteString(now.Format("02/01/2006 15:04:05") + "\n")
	b.WriteString(CmdLineFeed + sep + CmdLineFeed)

	b.WriteString(CmdBoldOn + "KantinPOS System\n" + CmdBoldOff)
	b.WriteString("Bluetooth Printer Ready\n")

	b.WriteString(CmdLineFeed3)
	b.WriteString(CmdCutPaper)
	return b.String()
}
