package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"KantinPos/app/database"
	"KantinPos/app/models"
	"KantinPos/app/printer"
)

// pointsPerRupiah is the loyalty earn rate: one point per Rp1.000 spent.
const pointsPerRupiah = 1000

// CheckoutItem is one cart line submitted for checkout.
type CheckoutItem struct {
	ProductID uint   `json:"product_id"`
	VariantID *uint  `json:"variant_id,omitempty"`
	Quantity  int    `json:"quantity"`
	Notes     string `json:"notes"`
}

// CheckoutRequest is the full checkout submission from the frontend.
type CheckoutRequest struct {
	Items         []CheckoutItem `json:"items"`
	PaymentMethod string         `json:"payment_method"`
	PaymentAmount float64        `json:"payment_amount"`
	TaxRate       float64        `json:"tax_rate"`
	ServiceCharge float64        `json:"service_charge"`
	CustomerID    *uint          `json:"customer_id,omitempty"`
	PromotionCode string         `json:"promotion_code"`
	EmployeeID    uint           `json:"employee_id"`
	TableNumber   string         `json:"table_number"`
	Notes         string         `json:"notes"`
	PrintReceipt  bool           `json:"print_receipt"`
	PrintKitchen  bool           `json:"print_kitchen"`
}

// SalesService handles checkout and transaction history
type SalesService struct {
	db         *gorm.DB
	local      *database.LocalDB
	printerSvc *PrinterService
	logger     *LoggerService
}

// NewSalesService creates a new sales service
func NewSalesService(printerSvc *PrinterService, logger *LoggerService) *SalesService {
	return &SalesService{
		db:         database.GetDB(),
		local:      database.GetLocalDB(),
		printerSvc: printerSvc,
		logger:     logger,
	}
}

// Checkout processes one sale: prices the cart, applies the promotion,
// decrements stock, awards loyalty points and persists the transaction.
// Receipt printing happens after commit and never fails the sale.
func (s *SalesService) Checkout(req CheckoutRequest) (*models.Transaction, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("cart is empty")
	}
	if req.EmployeeID == 0 {
		return nil, fmt.Errorf("employee is required")
	}

	tx := &models.Transaction{
		TransactionNumber: s.generateTransactionNumber(),
		PaymentMethod:     req.PaymentMethod,
		TaxRate:           req.TaxRate,
		ServiceCharge:     req.ServiceCharge,
		EmployeeID:        req.EmployeeID,
		TableNumber:       req.TableNumber,
		Notes:             req.Notes,
		Status:            "completed",
	}

	err := s.db.Transaction(func(dbtx *gorm.DB) error {
		// Price every line against the current menu and decrement stock.
		var subtotal float64
		for _, line := range req.Items {
			if line.Quantity <= 0 {
				return fmt.Errorf("invalid quantity for product %d", line.ProductID)
			}

			var product models.Product
			if err := dbtx.Preload("Variants").First(&product, line.ProductID).Error; err != nil {
				return fmt.Errorf("product %d not found: %w", line.ProductID, err)
			}
			if !product.IsActive {
				return fmt.Errorf("product %q is not available", product.Name)
			}

			price := product.Price
			variantName := ""
			if line.VariantID != nil {
				found := false
				for _, v := range product.Variants {
					if v.ID == *line.VariantID && v.IsActive {
						price += v.PriceChange
						variantName = v.Name
						found = true
						break
					}
				}
				if !found {
					return fmt.Errorf("variant %d not found for product %q", *line.VariantID, product.Name)
				}
			}

			lineSubtotal := price * float64(line.Quantity)
			subtotal += lineSubtotal
			tx.Items = append(tx.Items, models.TransactionItem{
				ProductID:   product.ID,
				ProductName: product.Name,
				Variant:     variantName,
				Quantity:    line.Quantity,
				Price:       price,
				Subtotal:    lineSubtotal,
				Notes:       line.Notes,
			})

			previousQty := product.Stock
			newQty := previousQty - line.Quantity
			if err := dbtx.Model(&product).Update("stock", newQty).Error; err != nil {
				return fmt.Errorf("failed to update stock: %w", err)
			}
			employeeID := req.EmployeeID
			if err := CreateStockMovement(dbtx, product.ID, "sale", -line.Quantity,
				previousQty, newQty, tx.TransactionNumber, &employeeID); err != nil {
				return fmt.Errorf("failed to record stock movement: %w", err)
			}
		}

		tx.Subtotal = subtotal

		// Promotion, validated against the clock and its usage budget.
		if req.PromotionCode != "" {
			var promo models.Promotion
			if err := dbtx.Where("code = ?", req.PromotionCode).First(&promo).Error; err != nil {
				return fmt.Errorf("promotion %q not found", req.PromotionCode)
			}
			if !promo.IsValidAt(time.Now()) {
				return fmt.Errorf("promotion %q is not valid", req.PromotionCode)
			}
			discount := promo.DiscountFor(subtotal)
			if discount > 0 {
				tx.PromotionID = &promo.ID
				tx.PromotionCode = promo.Code
				tx.PromotionDiscount = discount
				if err := dbtx.Model(&promo).
					Update("used_count", gorm.Expr("used_count + 1")).Error; err != nil {
					return fmt.Errorf("failed to count promotion use: %w", err)
				}
			}
		}

		tx.Tax = math.Round((subtotal - tx.PromotionDiscount) * req.TaxRate / 100)
		tx.Total = subtotal - tx.PromotionDiscount + tx.Tax + req.ServiceCharge

		// Payment. Tendered cash must cover the total; non-cash pays exact.
		if printer.IsCashMethod(req.PaymentMethod) {
			if req.PaymentAmount < tx.Total {
				return fmt.Errorf("payment %.0f is less than total %.0f", req.PaymentAmount, tx.Total)
			}
			tx.PaymentAmount = req.PaymentAmount
			tx.ChangeAmount = req.PaymentAmount - tx.Total
		} else {
			tx.PaymentAmount = tx.Total
		}

		// Loyalty points for registered customers.
		if req.CustomerID != nil {
			var customer models.Customer
			if err := dbtx.First(&customer, *req.CustomerID).Error; err != nil {
				return fmt.Errorf("customer %d not found: %w", *req.CustomerID, err)
			}
			tx.CustomerID = &customer.ID
			tx.Customer = &customer
			tx.EarnedPoints = int(tx.Total / pointsPerRupiah)
			if tx.EarnedPoints > 0 {
				if err := dbtx.Model(&customer).
					Update("points", gorm.Expr("points + ?", tx.EarnedPoints)).Error; err != nil {
					return fmt.Errorf("failed to award points: %w", err)
				}
				customer.Points += tx.EarnedPoints
			}
		}

		if err := dbtx.Omit("Customer").Create(tx).Error; err != nil {
			return fmt.Errorf("failed to save transaction: %w", err)
		}

		if tx.EarnedPoints > 0 && tx.CustomerID != nil {
			entry := models.PointEntry{
				CustomerID:    *tx.CustomerID,
				TransactionID: &tx.ID,
				Delta:         tx.EarnedPoints,
				Reason:        "purchase",
			}
			if err := dbtx.Create(&entry).Error; err != nil {
				return fmt.Errorf("failed to record points: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		// If the sale was fully priced but the hosted database refused the
		// write, keep the sale locally and let the sync worker upload it.
		if s.local != nil && len(tx.Items) == len(req.Items) && tx.Total > 0 && s.local.IsOfflineMode() {
			tx.IsSynced = false
			if queueErr := s.local.QueueTransaction(tx); queueErr != nil {
				return nil, fmt.Errorf("checkout failed and offline queue rejected it: %v (original: %w)", queueErr, err)
			}
			s.logger.LogWarning("Sale queued offline", tx.TransactionNumber)
		} else {
			return nil, err
		}
	}

	if req.PrintReceipt {
		if printErr := s.printerSvc.PrintCashierReceipt(s.receiptData(tx)); printErr != nil {
			s.logger.LogWarning("Receipt print failed", printErr.Error())
		}
	}
	if req.PrintKitchen {
		if printErr := s.printerSvc.PrintKitchenTicket(s.kitchenData(tx)); printErr != nil {
			s.logger.LogWarning("Kitchen ticket print failed", printErr.Error())
		}
	}

	return tx, nil
}

// receiptData maps a stored transaction to its printable form.
func (s *SalesService) receiptData(tx *models.Transaction) printer.ReceiptData {
	data := printer.ReceiptData{
		TransactionNumber: tx.TransactionNumber,
		Date:              tx.CreatedAt,
		Subtotal:          tx.Subtotal,
		Tax:               tx.Tax,
		TaxRate:           tx.TaxRate,
		ServiceCharge:     tx.ServiceCharge,
		PromotionCode:     tx.PromotionCode,
		PromotionDiscount: tx.PromotionDiscount,
		Total:             tx.Total,
		PaymentMethod:     tx.PaymentMethod,
		PaymentAmount:     tx.PaymentAmount,
		ChangeAmount:      tx.ChangeAmount,
		EarnedPoints:      tx.EarnedPoints,
	}
	if data.Date.IsZero() {
		data.Date = time.Now()
	}
	if tx.Employee != nil {
		data.CashierName = tx.Employee.Name
	}
	if tx.Customer != nil {
		data.CustomerName = tx.Customer.Name
		data.TotalPoints = tx.Customer.Points
	}
	for _, item := range tx.Items {
		data.Items = append(data.Items, printer.ReceiptItem{
			Name:     item.ProductName,
			Quantity: item.Quantity,
			Price:    item.Price,
			Variant:  item.Variant,
		})
	}
	return data
}

// kitchenData maps a stored transaction to its kitchen ticket form.
func (s *SalesService) kitchenData(tx *models.Transaction) printer.KitchenReceiptData {
	data := printer.KitchenReceiptData{
		OrderNumber: tx.TransactionNumber,
		Date:        tx.CreatedAt,
		TableNumber: tx.TableNumber,
		Notes:       tx.Notes,
	}
	if data.Date.IsZero() {
		data.Date = time.Now()
	}
	if tx.Customer != nil {
		data.CustomerName = tx.Customer.Name
	}
	for _, item := range tx.Items {
		data.Items = append(data.Items, printer.KitchenItem{
			Name:     item.ProductName,
			Quantity: item.Quantity,
			Variant:  item.Variant,
			Notes:    item.Notes,
		})
	}
	return data
}

// ReprintReceipt prints the receipt of a past transaction.
func (s *SalesService) ReprintReceipt(transactionID uint) error {
	tx, err := s.GetTransaction(transactionID)
	if err != nil {
		return err
	}
	return s.printerSvc.PrintCashierReceipt(s.receiptData(tx))
}

// RefundTransaction marks a transaction refunded, restores stock and claws
// back awarded points.
func (s *SalesService) RefundTransaction(transactionID uint, reason string, employeeID uint) error {
	return s.db.Transaction(func(dbtx *gorm.DB) error {
		var tx models.Transaction
		if err := dbtx.Preload("Items").First(&tx, transactionID).Error; err != nil {
			return fmt.Errorf("transaction not found: %w", err)
		}
		if tx.Status == "refunded" {
			return fmt.Errorf("transaction already refunded")
		}

		for _, item := range tx.Items {
			var product models.Product
			if err := dbtx.First(&product, item.ProductID).Error; err != nil {
				continue // product was deleted; nothing to restore
			}
			previousQty := product.Stock
			newQty := previousQty + item.Quantity
			if err := dbtx.Model(&product).Update("stock", newQty).Error; err != nil {
				return err
			}
			if err := CreateStockMovement(dbtx, product.ID, "adjustment", item.Quantity,
				previousQty, newQty, "refund "+tx.TransactionNumber, &employeeID); err != nil {
				return err
			}
		}

		if tx.CustomerID != nil && tx.EarnedPoints > 0 {
			if err := dbtx.Model(&models.Customer{}).Where("id = ?", *tx.CustomerID).
				Update("points", gorm.Expr("points - ?", tx.EarnedPoints)).Error; err != nil {
				return err
			}
			entry := models.PointEntry{
				CustomerID:    *tx.CustomerID,
				TransactionID: &tx.ID,
				Delta:         -tx.EarnedPoints,
				Reason:        "refund",
			}
			if err := dbtx.Create(&entry).Error; err != nil {
				return err
			}
		}

		return dbtx.Model(&tx).Updates(map[string]interface{}{
			"status": "refunded",
			"notes":  reason,
		}).Error
	})
}

// GetTransaction returns one transaction with its lines and relations.
func (s *SalesService) GetTransaction(id uint) (*models.Transaction, error) {
	var tx models.Transaction
	err := s.db.Preload("Items").Preload("Customer").Preload("Employee").
		First(&tx, id).Error
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// GetTodayTransactions returns all of today's transactions, newest first.
func (s *SalesService) GetTodayTransactions() ([]models.Transaction, error) {
	start := time.Now().Truncate(24 * time.Hour)
	return s.GetTransactionsByDateRange(start, start.Add(24*time.Hour))
}

// GetTransactionsByDateRange returns transactions in [start, end).
func (s *SalesService) GetTransactionsByDateRange(start, end time.Time) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := s.db.Preload("Items").Preload("Customer").Preload("Employee").
		Where("created_at >= ? AND created_at < ?", start, end).
		Order("created_at DESC").
		Find(&txs).Error
	return txs, err
}

// GetTransactionHistory returns a page of transactions plus the total count.
func (s *SalesService) GetTransactionHistory(limit, offset int) ([]models.Transaction, int64, error) {
	if limit <= 0 {
		limit = 50
	}
	var total int64
	if err := s.db.Model(&models.Transaction{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var txs []models.Transaction
	err := s.db.Preload("Items").Preload("Customer").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&txs).Error
	return txs, total, err
}

// ValidatePromotion checks a code against a cart subtotal and returns the
// discount it would grant.
func (s *SalesService) ValidatePromotion(code string, subtotal float64) (float64, error) {
	var promo models.Promotion
	if err := s.db.Where("code = ?", code).First(&promo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("promotion %q not found", code)
		}
		return 0, err
	}
	if !promo.IsValidAt(time.Now()) {
		return 0, fmt.Errorf("promotion %q is not valid", code)
	}
	discount := promo.DiscountFor(subtotal)
	if discount == 0 {
		return 0, fmt.Errorf("minimum purchase %.0f not reached", promo.MinPurchase)
	}
	return discount, nil
}

// Customer management

// GetCustomers returns all active customers.
func (s *SalesService) GetCustomers() ([]models.Customer, error) {
	var customers []models.Customer
	err := s.db.Where("is_active = ?", true).Order("name").Find(&customers).Error
	return customers, err
}

// SearchCustomers finds customers by name or phone fragment.
func (s *SalesService) SearchCustomers(query string) ([]models.Customer, error) {
	var customers []models.Customer
	pattern := "%" + query + "%"
	err := s.db.Where("is_active = ? AND (name ILIKE ? OR phone LIKE ?)", true, pattern, pattern).
		Limit(20).Find(&customers).Error
	return customers, err
}

// CreateCustomer registers a new customer.
func (s *SalesService) CreateCustomer(customer *models.Customer) error {
	customer.IsActive = true
	return s.db.Create(customer).Error
}

// UpdateCustomer saves customer edits.
func (s *SalesService) UpdateCustomer(customer *models.Customer) error {
	return s.db.Save(customer).Error
}

// GetCustomerPoints returns a customer's point history, newest first.
func (s *SalesService) GetCustomerPoints(customerID uint) ([]models.PointEntry, error) {
	var entries []models.PointEntry
	err := s.db.Where("customer_id = ?", customerID).
		Order("created_at DESC").Limit(100).Find(&entries).Error
	return entries, err
}

func (s *SalesService) generateTransactionNumber() string {
	return fmt.Sprintf("TRX-%s", time.Now().Format("20060102150405"))
}
