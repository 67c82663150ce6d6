package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"KantinPos/app/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Category{},
		&models.Product{},
		&models.ProductVariant{},
		&models.StockMovement{},
		&models.Customer{},
		&models.PointEntry{},
		&models.Promotion{},
		&models.Transaction{},
		&models.TransactionItem{},
		&models.Employee{},
		&models.Attendance{},
		&models.Session{},
		&models.AuditLog{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func seedMenu(t *testing.T, db *gorm.DB) (nasi, teh models.Product) {
	t.Helper()

	category := models.Category{Name: "Makanan", Type: "food", IsActive: true}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("failed to seed category: %v", err)
	}

	nasi = models.Product{
		Name:       "Nasi Goreng",
		Price:      15000,
		CostPrice:  9000,
		CategoryID: category.ID,
		Stock:      20,
		IsActive:   true,
	}
	if err := db.Create(&nasi).Error; err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}

	teh = models.Product{
		Name:       "Es Teh",
		Price:      5000,
		CostPrice:  1500,
		CategoryID: category.ID,
		Stock:      50,
		IsActive:   true,
	}
	if err := db.Create(&teh).Error; err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}
	return nasi, teh
}

func TestCheckoutCashSale(t *testing.T) {
	db := newTestDB(t)
	nasi, teh := seedMenu(t, db)
	svc := &SalesService{db: db}

	tx, err := svc.Checkout(CheckoutRequest{
		Items: []CheckoutItem{
			{ProductID: nasi.ID, Quantity: 2},
			{ProductID: teh.ID, Quantity: 1},
		},
		PaymentMethod: "cash",
		PaymentAmount: 40000,
		EmployeeID:    1,
	})
	if err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}

	if !strings.HasPrefix(tx.TransactionNumber, "TRX-") {
		t.Errorf("transaction number %q missing TRX- prefix", tx.TransactionNumber)
	}
	if tx.Subtotal != 35000 {
		t.Errorf("Subtotal = %v, want 35000", tx.Subtotal)
	}
	if tx.Total != 35000 {
		t.Errorf("Total = %v, want 35000", tx.Total)
	}
	if tx.ChangeAmount != 5000 {
		t.Errorf("ChangeAmount = %v, want 5000", tx.ChangeAmount)
	}
	if len(tx.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(tx.Items))
	}

	var after models.Product
	db.First(&after, nasi.ID)
	if after.Stock != 18 {
		t.Errorf("stock after sale = %d, want 18", after.Stock)
	}

	var movements int64
	db.Model(&models.StockMovement{}).Where("type = ?", "sale").Count(&movements)
	if movements != 2 {
		t.Errorf("got %d sale stock movements, want 2", movements)
	}
}

func TestCheckoutInsufficientCash(t *testing.T) {
	db := newTestDB(t)
	nasi, _ := seedMenu(t, db)
	svc := &SalesService{db: db}

	_, err := svc.Checkout(CheckoutRequest{
		Items:         []CheckoutItem{{ProductID: nasi.ID, Quantity: 1}},
		PaymentMethod: "cash",
		PaymentAmount: 10000,
		EmployeeID:    1,
	})
	if err == nil {
		t.Fatal("Checkout() with short payment should fail")
	}

	// The rollback must leave stock untouched.
	var after models.Product
	db.First(&after, nasi.ID)
	if after.Stock != 20 {
		t.Errorf("stock after failed checkout = %d, want 20", after.Stock)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	svc := &SalesService{db: newTestDB(t)}
	if _, err := svc.Checkout(CheckoutRequest{PaymentMethod: "cash", EmployeeID: 1}); err == nil {
		t.Fatal("Checkout() with empty cart should fail")
	}
}

func TestCheckoutQRISPaysExactTotal(t *testing.T) {
	db := newTestDB(t)
	nasi, _ := seedMenu(t, db)
	svc := &SalesService{db: db}

	tx, err := svc.Checkout(CheckoutRequest{
		Items:         []CheckoutItem{{ProductID: nasi.ID, Quantity: 1}},
		PaymentMethod: "qris",
		EmployeeID:    1,
	})
	if err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}
	if tx.PaymentAmount != tx.Total {
		t.Errorf("PaymentAmount = %v, want total %v", tx.PaymentAmount, tx.Total)
	}
	if tx.ChangeAmount != 0 {
		t.Errorf("ChangeAmount = %v, want 0", tx.ChangeAmount)
	}
}

func TestCheckoutVariantPricing(t *testing.T) {
	db := newTestDB(t)
	nasi, _ := seedMenu(t, db)

	variant := models.ProductVariant{ProductID: nasi.ID, Name: "Jumbo", PriceChange: 4000, IsActive: true}
	if err := db.Create(&variant).Error; err != nil {
		t.Fatalf("failed to seed variant: %v", err)
	}

	svc := &SalesService{db: db}
	tx, err := svc.Checkout(CheckoutRequest{
		Items:         []CheckoutItem{{ProductID: nasi.ID, VariantID: &variant.ID, Quantity: 1}},
		PaymentMethod: "qris",
		EmployeeID:    1,
	})
	if err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}
	if tx.Items[0].Price != 19000 {
		t.Errorf("variant price = %v, want 19000", tx.Items[0].Price)
	}
	if tx.Items[0].Variant != "Jumbo" {
		t.Errorf("variant name = %q, want Jumbo", tx.Items[0].Variant)
	}
}

func TestCheckoutAppliesPromotion(t *testing.T) {
	db := newTestDB(t)
	nasi, _ := seedMenu(t, db)

	promo := models.Promotion{Code: "HEMAT10", Type: "percent", Value: 10, IsActive: true}
	if err := db.Create(&promo).Error; err != nil {
		t.Fatalf("failed to seed promotion: %v", err)
	}

	svc := &SalesService{db: db}
	tx, err := svc.Checkout(CheckoutRequest{
		Items:         []CheckoutItem{{ProductID: nasi.ID, Quantity: 2}},
		PaymentMethod: "cash",
		PaymentAmount: 50000,
		PromotionCode: "HEMAT10",
		EmployeeID:    1,
	})
	if err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}

	if tx.PromotionDiscount != 3000 {
		t.Errorf("PromotionDiscount = %v, want 3000", tx.PromotionDiscount)
	}
	if tx.Total != 27000 {
		t.Errorf("Total = %v, want 27000", tx.Total)
	}

	var after models.Promotion
	db.First(&after, promo.ID)
	if after.UsedCount != 1 {
		t.Errorf("UsedCount = %d, want 1", after.UsedCount)
	}
}

func TestCheckoutAwardsLoyaltyPoints(t *testing.T) {
	db := newTestDB(t)
	nasi, _ := seedMenu(t, db)

	customer := models.Customer{Name: "Budi", Phone: "0812000111", Points: 5, IsActive: true}
	if err := db.Create(&customer).Error; err != nil {
		t.Fatalf("failed to seed customer: %v", err)
	}

	svc := &SalesService{db: db}
	tx, err := svc.Checkout(CheckoutRequest{
		Items:         []CheckoutItem{{ProductID: nasi.ID, Quantity: 2}},
		PaymentMethod: "cash",
		PaymentAmount: 30000,
		CustomerID:    &customer.ID,
		EmployeeID:    1,
	})
	if err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}

	// Rp30.000 earns 30 points at one point per Rp1.000.
	if tx.EarnedPoints != 30 {
		t.Errorf("EarnedPoints = %d, want 30", tx.EarnedPoints)
	}

	var after models.Customer
	db.First(&after, customer.ID)
	if after.Points != 35 {
		t.Errorf("customer points = %d, want 35", after.Points)
	}

	var entry models.PointEntry
	if err := db.Where("customer_id = ?", customer.ID).First(&entry).Error; err != nil {
		t.Fatalf("point entry not recorded: %v", err)
	}
	if entry.Delta != 30 || entry.Reason != "purchase" {
		t.Errorf("point entry = %+v, want delta 30 reason purchase", entry)
	}
}

func TestRefundTransaction(t *testing.T) {
	db := newTestDB(t)
	nasi, _ := seedMenu(t, db)

	customer := models.Customer{Name: "Sari", Phone: "0812000222", IsActive: true}
	if err := db.Create(&customer).Error; err != nil {
		t.Fatalf("failed to seed customer: %v", err)
	}

	svc := &SalesService{db: db}
	tx, err := svc.Checkout(CheckoutRequest{
		Items:         []CheckoutItem{{ProductID: nasi.ID, Quantity: 2}},
		PaymentMethod: "cash",
		PaymentAmount: 30000,
		CustomerID:    &customer.ID,
		EmployeeID:    1,
	})
	if err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}

	if err := svc.RefundTransaction(tx.ID, "pesanan salah", 1); err != nil {
		t.Fatalf("RefundTransaction() error = %v", err)
	}

	var after models.Transaction
	db.First(&after, tx.ID)
	if after.Status != "refunded" {
		t.Errorf("status = %q, want refunded", after.Status)
	}

	var product models.Product
	db.First(&product, nasi.ID)
	if product.Stock != 20 {
		t.Errorf("stock after refund = %d, want 20", product.Stock)
	}

	var cust models.Customer
	db.First(&cust, customer.ID)
	if cust.Points != 0 {
		t.Errorf("points after refund = %d, want 0", cust.Points)
	}

	// Refunding twice must fail.
	if err := svc.RefundTransaction(tx.ID, "lagi", 1); err == nil {
		t.Error("second refund should fail")
	}
}

func TestValidatePromotion(t *testing.T) {
	db := newTestDB(t)
	promo := models.Promotion{Code: "MIN20", Type: "amount", Value: 5000, MinPurchase: 20000, IsActive: true}
	if err := db.Create(&promo).Error; err != nil {
		t.Fatalf("failed to seed promotion: %v", err)
	}

	svc := &SalesService{db: db}

	if _, err := svc.ValidatePromotion("NOPE", 50000); err == nil {
		t.Error("unknown code should fail")
	}
	if _, err := svc.ValidatePromotion("MIN20", 10000); err == nil {
		t.Error("subtotal below minimum should fail")
	}
	discount, err := svc.ValidatePromotion("MIN20", 25000)
	if err != nil {
		t.Fatalf("ValidatePromotion() error = %v", err)
	}
	if discount != 5000 {
		t.Errorf("discount = %v, want 5000", discount)
	}
}
