package printer

import (
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PaperWidth selects the printable column count of the attached printer.
type PaperWidth string

const (
	Paper58mm PaperWidth = "58mm"
	Paper80mm PaperWidth = "80mm"
)

// Columns returns the number of character columns for this paper width.
// Unknown values fall back to the narrow 58mm roll.
func (w PaperWidth) Columns() int {
	if w == Paper80mm {
		return 32
	}
	return 24
}

// TopProducts returns how many top-seller entries fit on a daily report.
func (w PaperWidth) TopProducts() int {
	if w == Paper80mm {
		return 10
	}
	return 5
}

// Settings is the user-configurable receipt text plus store identity, read
// fresh from the local settings store before every print so edits take effect
// without a restart. Zero values are filled with defaults by the loader.
type Settings struct {
	Header  string `json:"header"`
	Tagline string `json:"tagline"`
	Footer  string `json:"footer"`

	StoreName    string `json:"store_name"`
	StoreAddress string `json:"store_address"`
	StorePhone   string `json:"store_phone"`

	Paper PaperWidth `json:"paper_width"`
}

// DefaultSettings is used whenever the stored settings are missing or
// unparseable. Printing must never fail for lack of configuration.
func DefaultSettings() Settings {
	return Settings{
		Header:       "KANTIN POS",
		Tagline:      "Makanan Enak, Harga Terjangkau",
		Footer:       "Terima kasih atas kunjungan Anda!",
		StoreName:    "Toko Pusat",
		StoreAddress: "Jl. Contoh No. 123",
		StorePhone:   "(021) 12345678",
		Paper:        Paper58mm,
	}
}

// Pad places left flush-start and right flush-end within width columns,
// separated by at least one space. On overflow the line simply exceeds width;
// nothing is ever truncated.
func Pad(left, right string, width int) string {
	spaces := width - len(left) - len(right)
	if spaces < 1 {
		spaces = 1
	}
	return left + strings.Repeat(" ", spaces) + right
}

// Wrap greedily packs words into lines of at most width characters. A single
// word longer than width is hard-split at the column boundary. Empty input
// yields one empty line so callers can always print something.
func Wrap(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	cur := ""
	for _, word := range words {
		if cur != "" {
			if len(cur)+1+len(word) <= width {
				cur += " " + word
				continue
			}
			lines = append(lines, cur)
			cur = ""
		}
		for len(word) > width {
			lines = append(lines, word[:width])
			word = word[width:]
		}
		cur = word
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}

var idPrinter = message.NewPrinter(language.Indonesian)

// FormatCurrency renders an amount as Indonesian rupiah with dot thousands
// separators, e.g. 15000 -> "Rp15.000". Amounts are rounded to whole rupiah.
// The locale printer cannot fail for a finite number, but the manual grouper
// below guards against a runtime without locale data for id.
func FormatCurrency(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		amount = 0
	}
	n := int64(math.Round(amount))
	s := idPrinter.Sprintf("%d", n)
	if !strings.ContainsRune(s, '.') && (n >= 1000 || n <= -1000) {
		s = groupThousands(n)
	}
	return "Rp" + s
}

// groupThousands is the manual digit-grouping fallback.
func groupThousands(n int64) string {
	neg := n < 0
	if neg {
		n = -n
	}
	var raw []byte
	for v := n; ; {
		raw = append([]byte{byte('0' + v%10)}, raw...)
		v /= 10
		if v == 0 {
			break
		}
	}
	var b strings.Builder
	pre := len(raw) % 3
	if pre == 0 {
		pre = 3
	}
	b.Write(raw[:pre])
	for i := pre; i < len(raw); i += 3 {
		b.WriteByte('.')
		b.Write(raw[i : i+3])
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// PaymentMethodLabel maps a stored payment method tag to its printed label.
func PaymentMethodLabel(method string) string {
	switch strings.ToLower(method) {
	case "cash", "tunai":
		return "TUNAI"
	case "qris":
		return "QRIS"
	case "transfer":
		return "TRANSFER"
	default:
		return strings.ToUpper(method)
	}
}

// IsCashMethod reports whether the payment method is a cash variant; tendered
// amount and change lines are printed only for cash.
func IsCashMethod(method string) bool {
	switch strings.ToLower(method) {
	case "cash", "tunai":
		return true
	}
	return false
}

func separator(width int) string {
	return strings.Repeat("=", width) + "\n"
}

func lightSeparator(width int) string {
	return strings.Repeat("-", width) + "\n"
}
