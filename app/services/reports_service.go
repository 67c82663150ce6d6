package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"KantinPos/app/database"
	"KantinPos/app/models"
	"KantinPos/app/printer"
)

// ReportsService aggregates transaction data into daily and per-product
// reports, both for the dashboard and for the thermal printer.
type ReportsService struct {
	db         *gorm.DB
	printerSvc *PrinterService
	logger     *LoggerService
}

// NewReportsService creates a new reports service
func NewReportsService(printerSvc *PrinterService, logger *LoggerService) *ReportsService {
	return &ReportsService{
		db:         database.GetDB(),
		printerSvc: printerSvc,
		logger:     logger,
	}
}

// paymentSummary is one payment-method aggregation row.
type paymentSummary struct {
	Method string
	Count  int
	Total  float64
}

// productSummary is one per-product aggregation row.
type productSummary struct {
	ProductName string
	Quantity    int
	Revenue     float64
	Cost        float64
}

// categorySummary is one category-type aggregation row.
type categorySummary struct {
	Type    string
	Count   int
	Revenue float64
}

// GetDailyReport builds the end-of-day summary for one calendar day.
func (s *ReportsService) GetDailyReport(date time.Time, cashierName string) (*printer.DailyReportData, error) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	end := start.Add(24 * time.Hour)

	report := &printer.DailyReportData{
		Date:        start,
		PrintedAt:   time.Now(),
		CashierName: cashierName,
	}

	var txs []models.Transaction
	err := s.db.Where("created_at >= ? AND created_at < ?", start, end).
		Where("status = ?", "completed").
		Find(&txs).Error
	if err != nil {
		return nil, err
	}

	report.TotalTransactions = len(txs)
	for _, tx := range txs {
		report.TotalRevenue += tx.Total
		report.PromotionDiscount += tx.PromotionDiscount
		if tx.PromotionDiscount > 0 {
			report.TransactionsWithPromo++
		}
		switch tx.PaymentMethod {
		case "cash":
			report.CashAmount += tx.Total
			report.CashCount++
		case "qris":
			report.QRISAmount += tx.Total
			report.QRISCount++
		case "transfer":
			report.TransferAmount += tx.Total
			report.TransferCount++
		}
	}
	if report.TotalTransactions > 0 {
		report.AvgTransaction = report.TotalRevenue / float64(report.TotalTransactions)
	}

	products, err := s.productBreakdown(start, end)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		report.TopProducts = append(report.TopProducts, printer.TopProduct{
			Name:     p.ProductName,
			Quantity: p.Quantity,
			Revenue:  p.Revenue,
		})
		report.TotalCost += p.Cost
	}

	// Profit is only meaningful when sold products carry a cost price.
	// Revenue is already net of promotion discounts.
	if report.TotalCost > 0 && report.TotalRevenue > 0 {
		profit := report.TotalRevenue - report.TotalCost
		report.Profit = &profit
		report.Margin = profit / report.TotalRevenue * 100
	}

	categories, err := s.categoryBreakdown(start, end)
	if err != nil {
		return nil, err
	}
	for _, c := range categories {
		switch c.Type {
		case "drink":
			report.DrinkRevenue += c.Revenue
			report.DrinkCount += c.Count
		default:
			report.FoodRevenue += c.Revenue
			report.FoodCount += c.Count
		}
	}

	return report, nil
}

// GetProductSalesReport builds the per-product aggregate for a period.
func (s *ReportsService) GetProductSalesReport(start, end time.Time, cashierName string) (*printer.ProductSalesReportData, error) {
	report := &printer.ProductSalesReportData{
		Period:      fmt.Sprintf("%s - %s", start.Format("02/01/2006"), end.Format("02/01/2006")),
		StartDate:   start,
		EndDate:     end,
		CashierName: cashierName,
		PrintedAt:   time.Now(),
	}

	products, err := s.productBreakdown(start, end)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		report.Products = append(report.Products, printer.ProductSalesItem{
			ProductName:   p.ProductName,
			TotalQuantity: p.Quantity,
			TotalRevenue:  p.Revenue,
		})
		report.TotalItems += p.Quantity
		report.TotalRevenue += p.Revenue
	}

	payments, err := s.paymentBreakdown(start, end)
	if err != nil {
		return nil, err
	}
	for _, p := range payments {
		report.TotalTransactions += p.Count
		switch p.Method {
		case "cash":
			report.CashCount = p.Count
			report.CashTotal = p.Total
		case "qris":
			report.QRISCount = p.Count
			report.QRISTotal = p.Total
		}
	}

	var promo struct {
		Discount float64
		Count    int
	}
	err = s.db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(promotion_discount), 0) as discount, COUNT(*) as count").
		Where("created_at >= ? AND created_at < ?", start, end).
		Where("status = ? AND promotion_discount > 0", "completed").
		Scan(&promo).Error
	if err != nil {
		return nil, err
	}
	report.PromotionDiscount = promo.Discount
	report.TransactionsWithPromo = promo.Count

	return report, nil
}

// PrintDailyReport builds and prints the end-of-day summary.
func (s *ReportsService) PrintDailyReport(date time.Time, cashierName string) error {
	report, err := s.GetDailyReport(date, cashierName)
	if err != nil {
		return fmt.Errorf("failed to build daily report: %w", err)
	}
	return s.printerSvc.PrintDailyReport(*report)
}

// PrintProductSalesReport builds and prints the per-product report.
func (s *ReportsService) PrintProductSalesReport(start, end time.Time, cashierName string) error {
	report, err := s.GetProductSalesReport(start, end, cashierName)
	if err != nil {
		return fmt.Errorf("failed to build product sales report: %w", err)
	}
	return s.printerSvc.PrintProductSalesReport(*report)
}

// GetLowStockProducts lists active products at or below the stock threshold.
func (s *ReportsService) GetLowStockProducts(threshold int) ([]models.Product, error) {
	if threshold <= 0 {
		threshold = 5
	}
	var products []models.Product
	err := s.db.Preload("Category").
		Where("stock <= ? AND is_active = ?", threshold, true).
		Order("stock ASC").
		Find(&products).Error
	return products, err
}

// GetShiftSummary totals one employee's sales between clock in and now,
// for the attendance clock-out screen.
func (s *ReportsService) GetShiftSummary(employeeID uint, since time.Time) (int, float64, error) {
	var row struct {
		Count int
		Total float64
	}
	err := s.db.Model(&models.Transaction{}).
		Select("COUNT(*) as count, COALESCE(SUM(total), 0) as total").
		Where("employee_id = ? AND created_at >= ? AND status = ?", employeeID, since, "completed").
		Scan(&row).Error
	return row.Count, row.Total, err
}

func (s *ReportsService) productBreakdown(start, end time.Time) ([]productSummary, error) {
	var rows []productSummary
	err := s.db.Table("transaction_items").
		Select("transaction_items.product_name as product_name, "+
			"SUM(transaction_items.quantity) as quantity, "+
			"SUM(transaction_items.subtotal) as revenue, "+
			"COALESCE(SUM(products.cost_price * transaction_items.quantity), 0) as cost").
		Joins("JOIN transactions ON transaction_items.transaction_id = transactions.id").
		Joins("LEFT JOIN products ON transaction_items.product_id = products.id").
		Where("transactions.created_at >= ? AND transactions.created_at < ?", start, end).
		Where("transactions.status = ? AND transactions.deleted_at IS NULL", "completed").
		Group("transaction_items.product_name").
		Order("revenue DESC").
		Scan(&rows).Error
	return rows, err
}

func (s *ReportsService) paymentBreakdown(start, end time.Time) ([]paymentSummary, error) {
	var rows []paymentSummary
	err := s.db.Model(&models.Transaction{}).
		Select("payment_method as method, COUNT(*) as count, SUM(total) as total").
		Where("created_at >= ? AND created_at < ?", start, end).
		Where("status = ?", "completed").
		Group("payment_method").
		Scan(&rows).Error
	return rows, err
}

func (s *ReportsService) categoryBreakdown(start, end time.Time) ([]categorySummary, error) {
	var rows []categorySummary
	err := s.db.Table("transaction_items").
		Select("categories.type as type, "+
			"SUM(transaction_items.quantity) as count, "+
			"SUM(transaction_items.subtotal) as revenue").
		Joins("JOIN transactions ON transaction_items.transaction_id = transactions.id").
		Joins("JOIN products ON transaction_items.product_id = products.id").
		Joins("JOIN categories ON products.category_id = categories.id").
		Where("transactions.created_at >= ? AND transactions.created_at < ?", start, end).
		Where("transactions.status = ? AND transactions.deleted_at IS NULL", "completed").
		Group("categories.type").
		Scan(&rows).Error
	return rows, err
}
