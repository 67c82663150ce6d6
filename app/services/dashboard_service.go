package services

import (
	"time"

	"gorm.io/gorm"

	"KantinPos/app/database"
	"KantinPos/app/models"
)

// DashboardService handles dashboard statistics operations
type DashboardService struct {
	db *gorm.DB
}

// NewDashboardService creates a new dashboard service
func NewDashboardService() *DashboardService {
	return &DashboardService{
		db: database.GetDB(),
	}
}

// DashboardStats represents dashboard statistics
type DashboardStats struct {
	TodaySales      float64 `json:"today_sales"`
	TodaySalesCount int     `json:"today_sales_count"`
	TodayCustomers  int     `json:"today_customers"`

	CashTotal float64 `json:"cash_total"`
	QRISTotal float64 `json:"qris_total"`

	LowStockProducts int `json:"low_stock_products"`

	// Growth compared to yesterday, as a percentage
	SalesGrowth float64 `json:"sales_growth"`

	AverageTicket   float64          `json:"average_ticket"`
	TopSellingItems []TopSellingItem `json:"top_selling_items"`

	PendingSyncCount int `json:"pending_sync_count"`
}

// TopSellingItem represents a top selling product
type TopSellingItem struct {
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	TotalSales  float64 `json:"total_sales"`
}

// GetDashboardStats retrieves all dashboard statistics
func (s *DashboardService) GetDashboardStats() (*DashboardStats, error) {
	stats := &DashboardStats{}

	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)
	startOfYesterday := startOfDay.Add(-24 * time.Hour)

	var todaySalesTotal float64
	var todaySalesCount int64
	s.db.Model(&models.Transaction{}).
		Where("created_at >= ? AND created_at < ?", startOfDay, endOfDay).
		Where("status = ?", "completed").
		Count(&todaySalesCount).
		Select("COALESCE(SUM(total), 0)").
		Row().Scan(&todaySalesTotal)

	stats.TodaySales = todaySalesTotal
	stats.TodaySalesCount = int(todaySalesCount)
	if stats.TodaySalesCount > 0 {
		stats.AverageTicket = stats.TodaySales / float64(stats.TodaySalesCount)
	}

	var todayCustomersCount int64
	s.db.Model(&models.Transaction{}).
		Where("created_at >= ? AND created_at < ?", startOfDay, endOfDay).
		Where("status = ?", "completed").
		Where("customer_id IS NOT NULL").
		Distinct("customer_id").
		Count(&todayCustomersCount)
	stats.TodayCustomers = int(todayCustomersCount)

	var payments []struct {
		Method string
		Total  float64
	}
	s.db.Model(&models.Transaction{}).
		Select("payment_method as method, COALESCE(SUM(total), 0) as total").
		Where("created_at >= ? AND created_at < ?", startOfDay, endOfDay).
		Where("status = ?", "completed").
		Group("payment_method").
		Scan(&payments)
	for _, p := range payments {
		switch p.Method {
		case "cash":
			stats.CashTotal = p.Total
		case "qris":
			stats.QRISTotal = p.Total
		}
	}

	var lowStockCount int64
	s.db.Model(&models.Product{}).
		Where("stock <= ? AND is_active = ?", 5, true).
		Count(&lowStockCount)
	stats.LowStockProducts = int(lowStockCount)

	var yesterdaySalesTotal float64
	s.db.Model(&models.Transaction{}).
		Where("created_at >= ? AND created_at < ?", startOfYesterday, startOfDay).
		Where("status = ?", "completed").
		Select("COALESCE(SUM(total), 0)").
		Row().Scan(&yesterdaySalesTotal)
	if yesterdaySalesTotal > 0 {
		stats.SalesGrowth = (todaySalesTotal - yesterdaySalesTotal) / yesterdaySalesTotal * 100
	}

	stats.TopSellingItems, _ = s.topSellingItems(startOfDay, endOfDay, 5)

	if local := database.GetLocalDB(); local != nil {
		if status, err := local.GetSyncStatus(); err == nil {
			stats.PendingSyncCount = status.PendingTransactions
		}
	}

	return stats, nil
}

// topSellingItems returns today's best sellers by revenue
func (s *DashboardService) topSellingItems(start, end time.Time, limit int) ([]TopSellingItem, error) {
	var items []TopSellingItem
	err := s.db.Table("transaction_items").
		Select("transaction_items.product_name as product_name, "+
			"SUM(transaction_items.quantity) as quantity, "+
			"SUM(transaction_items.subtotal) as total_sales").
		Joins("JOIN transactions ON transaction_items.transaction_id = transactions.id").
		Where("transactions.created_at >= ? AND transactions.created_at < ?", start, end).
		Where("transactions.status = ? AND transactions.deleted_at IS NULL", "completed").
		Group("transaction_items.product_name").
		Order("total_sales DESC").
		Limit(limit).
		Scan(&items).Error
	return items, err
}
